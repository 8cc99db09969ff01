package optimization

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mqwu/photon-ml/data"
	"github.com/mqwu/photon-ml/pkg/errors"
	"github.com/mqwu/photon-ml/pkg/log"
)

// VarianceComputationType selects how coefficient variances are produced
// after convergence.
type VarianceComputationType int

const (
	// VarianceNone skips variance computation.
	VarianceNone VarianceComputationType = iota

	// VarianceSimple approximates variances from the Hessian diagonal.
	VarianceSimple

	// VarianceFull inverts the full Hessian and takes its diagonal.
	VarianceFull
)

// String returns the variance type's name.
func (v VarianceComputationType) String() string {
	switch v {
	case VarianceNone:
		return "NONE"
	case VarianceSimple:
		return "SIMPLE"
	case VarianceFull:
		return "FULL"
	default:
		return "unknown"
	}
}

// curvatureEpsilon floors Hessian diagonal entries before inversion so that
// flat directions yield a large finite variance instead of +Inf.
const curvatureEpsilon = 2.220446049250313e-16

// OptimizationProblem couples an objective, an optimizer, and a variance
// policy, and materializes trained models of type M. Variance computation
// silently degrades to none when the objective lacks the needed Hessian
// capability; only genuinely requested and supportable work runs.
type OptimizationProblem[M any] struct {
	objective    ObjectiveFunction
	kind         ObjectiveKind
	optimizer    Optimizer
	varianceType VarianceComputationType
	createModel  func(coef, variances *mat.VecDense) M
	logger       log.Logger
}

// NewOptimizationProblem builds a problem. The objective's capability level
// is resolved once here; the variance routing below switches over it.
func NewOptimizationProblem[M any](
	obj ObjectiveFunction,
	opt Optimizer,
	varianceType VarianceComputationType,
	createModel func(coef, variances *mat.VecDense) M,
) *OptimizationProblem[M] {
	return &OptimizationProblem[M]{
		objective:    obj,
		kind:         ResolveObjectiveKind(obj),
		optimizer:    opt,
		varianceType: varianceType,
		createModel:  createModel,
		logger:       log.GetLoggerWithName("optimization.problem"),
	}
}

// Run trains on the dataset from the starting coefficients (zeros when nil)
// and returns the materialized model.
func (p *OptimizationProblem[M]) Run(ds *data.Dataset, start *mat.VecDense) (M, error) {
	var zero M
	p.logger.Info("training started",
		log.SamplesKey, ds.Len(),
		log.FeaturesKey, ds.Dim(),
		log.VarianceTypeKey, p.varianceType.String(),
	)

	coef, value, err := p.optimizer.Optimize(p.objective, ds, start)
	if err != nil {
		return zero, err
	}
	if p.optimizer.IsTrackingState() {
		if st, ok := p.optimizer.StateTracker().Last(); ok {
			p.logger.Debug("final optimizer state",
				log.IterationsKey, st.Iteration,
				log.ObjectiveValueKey, st.Value,
				log.GradientNormKey, st.GradientNorm,
			)
		}
	}

	variances, err := p.ComputeVariances(ds, coef)
	if err != nil {
		return zero, err
	}

	p.logger.Info("training finished", log.ObjectiveValueKey, value)
	return p.createModel(coef, variances), nil
}

// ComputeVariances produces per-coefficient variances according to the
// configured policy. It returns nil variances when the policy is NONE or
// the objective cannot support the request; aggregation failures still
// propagate as errors.
func (p *OptimizationProblem[M]) ComputeVariances(ds *data.Dataset, coef *mat.VecDense) (*mat.VecDense, error) {
	switch p.varianceType {
	case VarianceNone:
		return nil, nil

	case VarianceSimple:
		dh, ok := p.objective.(DiagonalHessian)
		if !ok {
			p.logger.Debug("variance computation skipped",
				log.VarianceTypeKey, p.varianceType.String(),
				"objective_kind", p.kind.String(),
			)
			return nil, nil
		}
		diag, err := dh.HessianDiagonal(ds, coef)
		if err != nil {
			return nil, err
		}
		out := mat.NewVecDense(diag.Len(), nil)
		for i := 0; i < diag.Len(); i++ {
			d := diag.AtVec(i)
			if d < curvatureEpsilon {
				d = curvatureEpsilon
			}
			out.SetVec(i, 1/d)
		}
		return out, nil

	case VarianceFull:
		fh, ok := p.objective.(FullHessian)
		if !ok {
			p.logger.Debug("variance computation skipped",
				log.VarianceTypeKey, p.varianceType.String(),
				"objective_kind", p.kind.String(),
			)
			return nil, nil
		}
		h, err := fh.HessianMatrix(ds, coef)
		if err != nil {
			return nil, err
		}
		var chol mat.Cholesky
		if !chol.Factorize(h) {
			p.logger.Warn("hessian is not positive definite, variances unavailable",
				log.ErrAttrKey, errors.ErrSingularMatrix.Error(),
			)
			return nil, nil
		}
		var inv mat.SymDense
		if err := chol.InverseTo(&inv); err != nil {
			p.logger.Warn("hessian inversion failed, variances unavailable",
				log.ErrAttrKey, err.Error(),
			)
			return nil, nil
		}
		n := inv.SymmetricDim()
		out := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			out.SetVec(i, inv.At(i, i))
		}
		return out, nil

	default:
		return nil, errors.NewValueError("optimization.variance", "unknown variance computation type")
	}
}
