// Package aggregate implements the single-pass accumulators that compute an
// objective's value together with its gradient (or a Hessian quantity) over a
// dataset, while applying an affine feature normalization without ever
// materializing transformed data.
//
// The key identity: with normalized features x' = (x - shift) .* scale,
//
//	margin(x') = coef . x' = (coef .* scale) . x - (coef .* scale) . shift
//	           = effectiveCoefficients . x + marginShift
//
// so the per-example fold works on raw features with one O(dim) coefficient
// transform per pass. The accumulated vector is mapped back through the same
// identity in VectorResult. All aggregators form a commutative monoid under
// Merge with the zero-count aggregator as identity, which makes them safe to
// combine under any tree-reduction shape.
package aggregate

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mqwu/photon-ml/data"
	"github.com/mqwu/photon-ml/loss"
	"github.com/mqwu/photon-ml/normalization"
	"github.com/mqwu/photon-ml/pkg/errors"
)

// GradientAggregator accumulates the objective value and the un-normalized
// gradient prefix sums for one data shard.
//
// The lifecycle is two-phase: a freshly constructed aggregator is unbound and
// accepts only Bind or Merge; Bind fixes the coefficient vector and
// normalization for the aggregator's remaining lifetime; afterwards Add folds
// one example at a time. The explicit Bind step replaces a lazily-initialized
// coefficient cache, so no synchronization is needed: one shard owns one
// aggregator.
type GradientAggregator struct {
	dim  int
	loss loss.Pointwise

	bound       bool
	effCoef     *mat.VecDense
	marginShift float64

	count        int64
	valueSum     float64
	prefactorSum float64
	vectorSum    *mat.VecDense
}

// NewGradientAggregator creates an empty, unbound aggregator for models of
// the given dimension.
func NewGradientAggregator(dim int, pw loss.Pointwise) *GradientAggregator {
	return &GradientAggregator{
		dim:       dim,
		loss:      pw,
		vectorSum: mat.NewVecDense(dim, nil),
	}
}

// Bind fixes the coefficient vector and normalization context. It derives
// effectiveCoefficients = coef .* scale and marginShift = -(effCoef . shift)
// exactly once; a second Bind is a wiring bug.
func (a *GradientAggregator) Bind(coef *mat.VecDense, ctx *normalization.Context) error {
	eff, shift, err := bindCoefficients("GradientAggregator.Bind", a.bound, a.dim, coef, ctx)
	if err != nil {
		return err
	}
	a.bound = true
	a.effCoef = eff
	a.marginShift = shift
	return nil
}

// Add folds one example into the running sums.
func (a *GradientAggregator) Add(p data.LabeledPoint) error {
	if !a.bound {
		return errors.NewIncompatibleAggregatorError("GradientAggregator.Add", "aggregator is not bound")
	}
	if p.Dim() != a.dim {
		return errors.NewDimensionError("GradientAggregator.Add", a.dim, p.Dim())
	}

	margin := mat.Dot(a.effCoef, p.Features) + a.marginShift + p.Offset
	l, d := a.loss.LossAndDerivative(margin, p.Label)

	a.count++
	a.valueSum += p.Weight * l
	a.prefactorSum += p.Weight * d
	a.vectorSum.AddScaledVec(a.vectorSum, p.Weight*d, p.Features)
	return nil
}

// Merge absorbs another gradient aggregator into this one. Merging is
// commutative and associative; merging with a zero-count aggregator is a
// no-op. Both aggregators must share the dimension.
func (a *GradientAggregator) Merge(other *GradientAggregator) (*GradientAggregator, error) {
	if other == nil {
		return a, nil
	}
	if other.dim != a.dim {
		return nil, errors.NewIncompatibleAggregatorError("GradientAggregator.Merge",
			"dimension mismatch between aggregators")
	}
	if err := checkBindings("GradientAggregator.Merge", a.bound, other.bound,
		a.effCoef, other.effCoef, a.marginShift, other.marginShift); err != nil {
		return nil, err
	}
	if other.count == 0 {
		return a, nil
	}
	if !a.bound {
		// adopt the peer's binding so that empty shards stay the identity
		a.bound = other.bound
		a.effCoef = other.effCoef
		a.marginShift = other.marginShift
	}

	a.count += other.count
	a.valueSum += other.valueSum
	a.prefactorSum += other.prefactorSum
	a.vectorSum.AddVec(a.vectorSum, other.vectorSum)
	return a, nil
}

// Count returns the number of folded examples.
func (a *GradientAggregator) Count() int64 {
	return a.count
}

// Value returns the accumulated weighted loss. Reading does not mutate the
// aggregator; it may be called repeatedly.
func (a *GradientAggregator) Value() float64 {
	return a.valueSum
}

// VectorResult maps the accumulated raw-feature sums back into normalized
// space, producing the gradient that direct normalization of every example
// would have produced.
func (a *GradientAggregator) VectorResult(ctx *normalization.Context) (*mat.VecDense, error) {
	return unnormalizeVector("GradientAggregator.VectorResult", a.dim, a.vectorSum, a.prefactorSum, ctx)
}

// checkBindings rejects merging two bound aggregators whose sums were taken
// under different effective coefficients. Unbound aggregators merge freely;
// a bound one never silently absorbs a differently-bound peer, even when one
// side is empty.
func checkBindings(op string, aBound, bBound bool, aEff, bEff *mat.VecDense, aShift, bShift float64) error {
	if !aBound || !bBound {
		return nil
	}
	if aShift != bShift || !mat.Equal(aEff, bEff) {
		return errors.NewIncompatibleAggregatorError(op, "aggregators carry different bindings")
	}
	return nil
}

// bindCoefficients derives the effective coefficients and margin shift shared
// by every aggregator kind.
func bindCoefficients(op string, alreadyBound bool, dim int, coef *mat.VecDense, ctx *normalization.Context) (*mat.VecDense, float64, error) {
	if alreadyBound {
		return nil, 0, errors.NewIncompatibleAggregatorError(op, "aggregator is already bound")
	}
	if coef.Len() != dim {
		return nil, 0, errors.NewDimensionError(op, dim, coef.Len())
	}
	if scale := ctx.ScaleFactors(); scale != nil && scale.Len() != dim {
		return nil, 0, errors.NewDimensionError(op, dim, scale.Len())
	}
	if shift := ctx.Shifts(); shift != nil && shift.Len() != dim {
		return nil, 0, errors.NewDimensionError(op, dim, shift.Len())
	}

	eff := mat.NewVecDense(dim, nil)
	if scale := ctx.ScaleFactors(); scale != nil {
		eff.MulElemVec(coef, scale)
	} else {
		eff.CopyVec(coef)
	}

	marginShift := 0.0
	if shift := ctx.Shifts(); shift != nil {
		marginShift = -mat.Dot(eff, shift)
	}
	return eff, marginShift, nil
}

// unnormalizeVector applies the reverse identity:
//
//	(scale, shift): (vectorSum - shift * prefactorSum) .* scale
//	(scale only)  :  vectorSum .* scale
//	(shift only)  :  vectorSum - shift * prefactorSum
//	(neither)     :  vectorSum
func unnormalizeVector(op string, dim int, vectorSum *mat.VecDense, prefactorSum float64, ctx *normalization.Context) (*mat.VecDense, error) {
	if scale := ctx.ScaleFactors(); scale != nil && scale.Len() != dim {
		return nil, errors.NewDimensionError(op, dim, scale.Len())
	}
	if shift := ctx.Shifts(); shift != nil && shift.Len() != dim {
		return nil, errors.NewDimensionError(op, dim, shift.Len())
	}

	out := mat.NewVecDense(dim, nil)
	out.CopyVec(vectorSum)
	if shift := ctx.Shifts(); shift != nil {
		out.AddScaledVec(out, -prefactorSum, shift)
	}
	if scale := ctx.ScaleFactors(); scale != nil {
		out.MulElemVec(out, scale)
	}
	return out, nil
}
