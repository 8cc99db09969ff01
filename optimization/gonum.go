package optimization

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/mqwu/photon-ml/data"
	"github.com/mqwu/photon-ml/pkg/errors"
	"github.com/mqwu/photon-ml/pkg/log"
)

// OptimizerOption configures an optimizer.
type OptimizerOption func(*optimizerConfig)

type optimizerConfig struct {
	maxIterations int
	tolerance     float64
	trackState    bool
}

func defaultOptimizerConfig() optimizerConfig {
	return optimizerConfig{
		maxIterations: 100,
		tolerance:     1e-6,
	}
}

// WithMaxIterations caps the number of major iterations.
func WithMaxIterations(n int) OptimizerOption {
	return func(c *optimizerConfig) { c.maxIterations = n }
}

// WithTolerance sets the gradient-norm convergence threshold.
func WithTolerance(tol float64) OptimizerOption {
	return func(c *optimizerConfig) { c.tolerance = tol }
}

// WithStateTracking records per-iteration optimizer states during runs.
func WithStateTracking() OptimizerOption {
	return func(c *optimizerConfig) { c.trackState = true }
}

// minimize runs one gonum optimization over the dataset-backed objective.
// Evaluation errors from aggregation passes are captured out of band and
// take precedence over the solver's own status. A run that stops on the
// iteration limit emits a convergence warning but still returns the best
// point found.
func minimize(name string, method optimize.Method, obj ObjectiveFunction, hess FullHessian, ds *data.Dataset, start *mat.VecDense, cfg optimizerConfig, tracker *StateTracker, logger log.Logger) (coef *mat.VecDense, value float64, err error) {
	defer errors.Recover(&err, "optimization."+name)

	dim := obj.DomainDimension(ds)
	initX := make([]float64, dim)
	if start != nil {
		if start.Len() != dim {
			return nil, 0, errors.NewDimensionError("optimization."+name, dim, start.Len())
		}
		copy(initX, start.RawVector().Data)
	}

	var evalErr error
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			v, _, ferr := obj.ValueAndGradient(ds, mat.NewVecDense(len(x), x))
			if ferr != nil {
				if evalErr == nil {
					evalErr = ferr
				}
				return math.Inf(1)
			}
			return v
		},
		Grad: func(grad, x []float64) {
			_, g, gerr := obj.ValueAndGradient(ds, mat.NewVecDense(len(x), x))
			if gerr != nil {
				if evalErr == nil {
					evalErr = gerr
				}
				for i := range grad {
					grad[i] = 0
				}
				return
			}
			copy(grad, g.RawVector().Data)
		},
	}
	if hess != nil {
		problem.Hess = func(dst *mat.SymDense, x []float64) {
			h, herr := hess.HessianMatrix(ds, mat.NewVecDense(len(x), x))
			if herr != nil {
				if evalErr == nil {
					evalErr = herr
				}
				return
			}
			dst.CopySym(h)
		}
	}

	settings := &optimize.Settings{
		MajorIterations:   cfg.maxIterations,
		GradientThreshold: cfg.tolerance,
	}
	if tracker != nil {
		settings.Recorder = tracker
	}

	result, rerr := optimize.Minimize(problem, initX, settings, method)
	if evalErr != nil {
		return nil, 0, evalErr
	}
	if rerr != nil {
		if result == nil || result.X == nil {
			return nil, 0, errors.Wrapf(rerr, "optimization: %s failed", name)
		}
		errors.Warn(errors.NewConvergenceWarning(name, result.MajorIterations, rerr.Error()))
		logger.Warn("optimizer stopped before convergence",
			log.OptimizerKey, name,
			log.IterationsKey, result.MajorIterations,
			log.ErrAttrKey, rerr.Error(),
		)
	} else if result.Status == optimize.IterationLimit {
		errors.Warn(errors.NewConvergenceWarning(name, result.MajorIterations, "iteration limit reached"))
		logger.Warn("optimizer hit the iteration limit",
			log.OptimizerKey, name,
			log.IterationsKey, result.MajorIterations,
		)
	}

	coef = mat.NewVecDense(dim, nil)
	copy(coef.RawVector().Data, result.X)
	value = result.F

	logger.Debug("optimization run finished",
		log.OptimizerKey, name,
		log.IterationsKey, result.MajorIterations,
		log.ObjectiveValueKey, value,
		log.GradientNormKey, gradientNorm(result.Gradient),
	)
	return coef, value, nil
}
