package aggregate

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mqwu/photon-ml/data"
	"github.com/mqwu/photon-ml/loss"
	"github.com/mqwu/photon-ml/normalization"
	"github.com/mqwu/photon-ml/pkg/errors"
)

// HessianVectorAggregator accumulates a Hessian-vector product H*d without
// forming the Hessian. It shares the GradientAggregator's accumulation shape;
// only the per-example pointwise quantity folded into the vector sum differs:
//
//	H*d = sum_i w_i * d2L_i * (x'_i . d) * x'_i
//
// and the normalization of both x'.d and the outer x' factors out the same
// way as for the gradient, using an effective direction alongside the
// effective coefficients.
type HessianVectorAggregator struct {
	dim  int
	loss loss.TwiceDiff

	bound          bool
	effCoef        *mat.VecDense
	marginShift    float64
	effDirection   *mat.VecDense
	directionShift float64

	count        int64
	prefactorSum float64
	vectorSum    *mat.VecDense
}

// NewHessianVectorAggregator creates an empty, unbound aggregator.
func NewHessianVectorAggregator(dim int, pw loss.TwiceDiff) *HessianVectorAggregator {
	return &HessianVectorAggregator{
		dim:       dim,
		loss:      pw,
		vectorSum: mat.NewVecDense(dim, nil),
	}
}

// Bind fixes the coefficient vector, the multiply direction, and the
// normalization context.
func (a *HessianVectorAggregator) Bind(coef, direction *mat.VecDense, ctx *normalization.Context) error {
	if direction.Len() != a.dim {
		return errors.NewDimensionError("HessianVectorAggregator.Bind", a.dim, direction.Len())
	}
	eff, shift, err := bindCoefficients("HessianVectorAggregator.Bind", a.bound, a.dim, coef, ctx)
	if err != nil {
		return err
	}
	effDir, dirShift, err := bindCoefficients("HessianVectorAggregator.Bind", false, a.dim, direction, ctx)
	if err != nil {
		return err
	}
	a.bound = true
	a.effCoef = eff
	a.marginShift = shift
	a.effDirection = effDir
	a.directionShift = dirShift
	return nil
}

// Add folds one example into the running sums.
func (a *HessianVectorAggregator) Add(p data.LabeledPoint) error {
	if !a.bound {
		return errors.NewIncompatibleAggregatorError("HessianVectorAggregator.Add", "aggregator is not bound")
	}
	if p.Dim() != a.dim {
		return errors.NewDimensionError("HessianVectorAggregator.Add", a.dim, p.Dim())
	}

	margin := mat.Dot(a.effCoef, p.Features) + a.marginShift + p.Offset
	d2 := a.loss.SecondDerivative(margin, p.Label)
	v := d2 * (mat.Dot(a.effDirection, p.Features) + a.directionShift)

	a.count++
	a.prefactorSum += p.Weight * v
	a.vectorSum.AddScaledVec(a.vectorSum, p.Weight*v, p.Features)
	return nil
}

// Merge absorbs another Hessian-vector aggregator into this one.
func (a *HessianVectorAggregator) Merge(other *HessianVectorAggregator) (*HessianVectorAggregator, error) {
	if other == nil {
		return a, nil
	}
	if other.dim != a.dim {
		return nil, errors.NewIncompatibleAggregatorError("HessianVectorAggregator.Merge",
			"dimension mismatch between aggregators")
	}
	if err := checkBindings("HessianVectorAggregator.Merge", a.bound, other.bound,
		a.effCoef, other.effCoef, a.marginShift, other.marginShift); err != nil {
		return nil, err
	}
	if err := checkBindings("HessianVectorAggregator.Merge", a.bound, other.bound,
		a.effDirection, other.effDirection, a.directionShift, other.directionShift); err != nil {
		return nil, err
	}
	if other.count == 0 {
		return a, nil
	}
	if !a.bound {
		a.bound = other.bound
		a.effCoef = other.effCoef
		a.marginShift = other.marginShift
		a.effDirection = other.effDirection
		a.directionShift = other.directionShift
	}

	a.count += other.count
	a.prefactorSum += other.prefactorSum
	a.vectorSum.AddVec(a.vectorSum, other.vectorSum)
	return a, nil
}

// Count returns the number of folded examples.
func (a *HessianVectorAggregator) Count() int64 {
	return a.count
}

// VectorResult maps the accumulated sums back into normalized space,
// producing H*d for the normalized-feature Hessian.
func (a *HessianVectorAggregator) VectorResult(ctx *normalization.Context) (*mat.VecDense, error) {
	return unnormalizeVector("HessianVectorAggregator.VectorResult", a.dim, a.vectorSum, a.prefactorSum, ctx)
}

// HessianDiagonalAggregator accumulates the diagonal of the Hessian. The
// normalized diagonal expands to
//
//	diag_j = s_j^2 * (S2_j - 2*t_j*S1_j + t_j^2*S0)
//
// with S0 = sum w*d2L, S1 = sum w*d2L*x, S2 = sum w*d2L*x.*x, so three raw
// accumulators reproduce the normalized quantity exactly.
type HessianDiagonalAggregator struct {
	dim  int
	loss loss.TwiceDiff

	bound       bool
	effCoef     *mat.VecDense
	marginShift float64

	count int64
	s0    float64
	s1    *mat.VecDense
	s2    *mat.VecDense
}

// NewHessianDiagonalAggregator creates an empty, unbound aggregator.
func NewHessianDiagonalAggregator(dim int, pw loss.TwiceDiff) *HessianDiagonalAggregator {
	return &HessianDiagonalAggregator{
		dim:  dim,
		loss: pw,
		s1:   mat.NewVecDense(dim, nil),
		s2:   mat.NewVecDense(dim, nil),
	}
}

// Bind fixes the coefficient vector and normalization context.
func (a *HessianDiagonalAggregator) Bind(coef *mat.VecDense, ctx *normalization.Context) error {
	eff, shift, err := bindCoefficients("HessianDiagonalAggregator.Bind", a.bound, a.dim, coef, ctx)
	if err != nil {
		return err
	}
	a.bound = true
	a.effCoef = eff
	a.marginShift = shift
	return nil
}

// Add folds one example into the running sums.
func (a *HessianDiagonalAggregator) Add(p data.LabeledPoint) error {
	if !a.bound {
		return errors.NewIncompatibleAggregatorError("HessianDiagonalAggregator.Add", "aggregator is not bound")
	}
	if p.Dim() != a.dim {
		return errors.NewDimensionError("HessianDiagonalAggregator.Add", a.dim, p.Dim())
	}

	margin := mat.Dot(a.effCoef, p.Features) + a.marginShift + p.Offset
	d2 := a.loss.SecondDerivative(margin, p.Label)
	wd2 := p.Weight * d2

	a.count++
	a.s0 += wd2
	a.s1.AddScaledVec(a.s1, wd2, p.Features)
	for j := 0; j < a.dim; j++ {
		x := p.Features.AtVec(j)
		a.s2.SetVec(j, a.s2.AtVec(j)+wd2*x*x)
	}
	return nil
}

// Merge absorbs another Hessian-diagonal aggregator into this one.
func (a *HessianDiagonalAggregator) Merge(other *HessianDiagonalAggregator) (*HessianDiagonalAggregator, error) {
	if other == nil {
		return a, nil
	}
	if other.dim != a.dim {
		return nil, errors.NewIncompatibleAggregatorError("HessianDiagonalAggregator.Merge",
			"dimension mismatch between aggregators")
	}
	if err := checkBindings("HessianDiagonalAggregator.Merge", a.bound, other.bound,
		a.effCoef, other.effCoef, a.marginShift, other.marginShift); err != nil {
		return nil, err
	}
	if other.count == 0 {
		return a, nil
	}
	if !a.bound {
		a.bound = other.bound
		a.effCoef = other.effCoef
		a.marginShift = other.marginShift
	}

	a.count += other.count
	a.s0 += other.s0
	a.s1.AddVec(a.s1, other.s1)
	a.s2.AddVec(a.s2, other.s2)
	return a, nil
}

// Count returns the number of folded examples.
func (a *HessianDiagonalAggregator) Count() int64 {
	return a.count
}

// DiagonalResult maps the accumulated sums into normalized space.
func (a *HessianDiagonalAggregator) DiagonalResult(ctx *normalization.Context) (*mat.VecDense, error) {
	scale := ctx.ScaleFactors()
	shift := ctx.Shifts()
	if scale != nil && scale.Len() != a.dim {
		return nil, errors.NewDimensionError("HessianDiagonalAggregator.DiagonalResult", a.dim, scale.Len())
	}
	if shift != nil && shift.Len() != a.dim {
		return nil, errors.NewDimensionError("HessianDiagonalAggregator.DiagonalResult", a.dim, shift.Len())
	}

	out := mat.NewVecDense(a.dim, nil)
	for j := 0; j < a.dim; j++ {
		v := a.s2.AtVec(j)
		if shift != nil {
			t := shift.AtVec(j)
			v += t*t*a.s0 - 2*t*a.s1.AtVec(j)
		}
		if scale != nil {
			s := scale.AtVec(j)
			v *= s * s
		}
		out.SetVec(j, v)
	}
	return out, nil
}

// HessianMatrixAggregator accumulates the full Hessian matrix. The normalized
// matrix expands to
//
//	H_jk = s_j*s_k * (M_jk - t_j*S1_k - t_k*S1_j + t_j*t_k*S0)
//
// with M = sum w*d2L*x*x^T accumulated as symmetric rank-one updates.
type HessianMatrixAggregator struct {
	dim  int
	loss loss.TwiceDiff

	bound       bool
	effCoef     *mat.VecDense
	marginShift float64

	count int64
	s0    float64
	s1    *mat.VecDense
	m     *mat.SymDense
}

// NewHessianMatrixAggregator creates an empty, unbound aggregator.
func NewHessianMatrixAggregator(dim int, pw loss.TwiceDiff) *HessianMatrixAggregator {
	return &HessianMatrixAggregator{
		dim:  dim,
		loss: pw,
		s1:   mat.NewVecDense(dim, nil),
		m:    mat.NewSymDense(dim, nil),
	}
}

// Bind fixes the coefficient vector and normalization context.
func (a *HessianMatrixAggregator) Bind(coef *mat.VecDense, ctx *normalization.Context) error {
	eff, shift, err := bindCoefficients("HessianMatrixAggregator.Bind", a.bound, a.dim, coef, ctx)
	if err != nil {
		return err
	}
	a.bound = true
	a.effCoef = eff
	a.marginShift = shift
	return nil
}

// Add folds one example into the running sums.
func (a *HessianMatrixAggregator) Add(p data.LabeledPoint) error {
	if !a.bound {
		return errors.NewIncompatibleAggregatorError("HessianMatrixAggregator.Add", "aggregator is not bound")
	}
	if p.Dim() != a.dim {
		return errors.NewDimensionError("HessianMatrixAggregator.Add", a.dim, p.Dim())
	}

	margin := mat.Dot(a.effCoef, p.Features) + a.marginShift + p.Offset
	d2 := a.loss.SecondDerivative(margin, p.Label)
	wd2 := p.Weight * d2

	a.count++
	a.s0 += wd2
	a.s1.AddScaledVec(a.s1, wd2, p.Features)
	a.m.SymRankOne(a.m, wd2, p.Features)
	return nil
}

// Merge absorbs another Hessian-matrix aggregator into this one.
func (a *HessianMatrixAggregator) Merge(other *HessianMatrixAggregator) (*HessianMatrixAggregator, error) {
	if other == nil {
		return a, nil
	}
	if other.dim != a.dim {
		return nil, errors.NewIncompatibleAggregatorError("HessianMatrixAggregator.Merge",
			"dimension mismatch between aggregators")
	}
	if err := checkBindings("HessianMatrixAggregator.Merge", a.bound, other.bound,
		a.effCoef, other.effCoef, a.marginShift, other.marginShift); err != nil {
		return nil, err
	}
	if other.count == 0 {
		return a, nil
	}
	if !a.bound {
		a.bound = other.bound
		a.effCoef = other.effCoef
		a.marginShift = other.marginShift
	}

	a.count += other.count
	a.s0 += other.s0
	a.s1.AddVec(a.s1, other.s1)
	a.m.AddSym(a.m, other.m)
	return a, nil
}

// Count returns the number of folded examples.
func (a *HessianMatrixAggregator) Count() int64 {
	return a.count
}

// MatrixResult maps the accumulated sums into normalized space.
func (a *HessianMatrixAggregator) MatrixResult(ctx *normalization.Context) (*mat.SymDense, error) {
	scale := ctx.ScaleFactors()
	shift := ctx.Shifts()
	if scale != nil && scale.Len() != a.dim {
		return nil, errors.NewDimensionError("HessianMatrixAggregator.MatrixResult", a.dim, scale.Len())
	}
	if shift != nil && shift.Len() != a.dim {
		return nil, errors.NewDimensionError("HessianMatrixAggregator.MatrixResult", a.dim, shift.Len())
	}

	out := mat.NewSymDense(a.dim, nil)
	for j := 0; j < a.dim; j++ {
		for k := j; k < a.dim; k++ {
			v := a.m.At(j, k)
			if shift != nil {
				tj := shift.AtVec(j)
				tk := shift.AtVec(k)
				v += tj*tk*a.s0 - tj*a.s1.AtVec(k) - tk*a.s1.AtVec(j)
			}
			if scale != nil {
				v *= scale.AtVec(j) * scale.AtVec(k)
			}
			out.SetSym(j, k, v)
		}
	}
	return out, nil
}
