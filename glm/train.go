package glm

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/mqwu/photon-ml/data"
	"github.com/mqwu/photon-ml/loss"
	"github.com/mqwu/photon-ml/metrics"
	"github.com/mqwu/photon-ml/normalization"
	"github.com/mqwu/photon-ml/optimization"
	"github.com/mqwu/photon-ml/pkg/errors"
	"github.com/mqwu/photon-ml/pkg/log"
)

// Solver selects the optimization method.
type Solver string

const (
	// SolverLBFGS is the limited-memory BFGS method, the default.
	SolverLBFGS Solver = "lbfgs"

	// SolverNewton is the full-Hessian Newton method.
	SolverNewton Solver = "newton"
)

// Option configures the training pipeline of an estimator.
type Option func(*fitConfig)

type fitConfig struct {
	maxIterations int
	tolerance     float64
	l2Weight      float64
	standardize   bool
	varianceType  optimization.VarianceComputationType
	treeDepth     int
	solver        Solver
	trackState    bool
}

func defaultFitConfig() fitConfig {
	return fitConfig{
		maxIterations: 100,
		tolerance:     1e-6,
		varianceType:  optimization.VarianceNone,
		treeDepth:     0,
		solver:        SolverLBFGS,
	}
}

// WithMaxIterations caps the optimizer's major iterations.
func WithMaxIterations(n int) Option {
	return func(c *fitConfig) { c.maxIterations = n }
}

// WithTolerance sets the gradient-norm convergence threshold.
func WithTolerance(tol float64) Option {
	return func(c *fitConfig) { c.tolerance = tol }
}

// WithRegularization adds an L2 penalty of the given weight to the training
// objective. The penalty always falls on the original-space weights, so a
// regularized fit converges to the same model with or without
// standardization. The intercept is never penalized.
func WithRegularization(weight float64) Option {
	return func(c *fitConfig) { c.l2Weight = weight }
}

// WithNormalization standardizes features during training. Predictions and
// reported coefficients stay in the original feature space.
func WithNormalization() Option {
	return func(c *fitConfig) { c.standardize = true }
}

// WithVarianceComputation selects how coefficient variances are produced
// after convergence.
func WithVarianceComputation(v optimization.VarianceComputationType) Option {
	return func(c *fitConfig) { c.varianceType = v }
}

// WithTreeReduceDepth sets the fan-out depth of aggregation tree
// reductions.
func WithTreeReduceDepth(depth int) Option {
	return func(c *fitConfig) { c.treeDepth = depth }
}

// WithSolver selects the optimization method.
func WithSolver(s Solver) Option {
	return func(c *fitConfig) { c.solver = s }
}

// WithStateTracking records per-iteration optimizer states during Fit.
func WithStateTracking() Option {
	return func(c *fitConfig) { c.trackState = true }
}

// buildDataset converts a design matrix and target column into labeled
// points with a trailing intercept feature.
func buildDataset(X, y mat.Matrix) (*data.Dataset, error) {
	n, d := X.Dims()
	yn, yc := y.Dims()
	if yn != n || yc != 1 {
		return nil, errors.NewDimensionError("glm.Fit", n, yn)
	}
	if n == 0 {
		return nil, errors.WithStack(errors.ErrEmptyData)
	}

	points := make([]data.LabeledPoint, n)
	for i := 0; i < n; i++ {
		features := make([]float64, d+1)
		for j := 0; j < d; j++ {
			features[j] = X.At(i, j)
		}
		features[d] = 1
		points[i] = data.NewLabeledPoint(y.At(i, 0), features)
	}
	return data.NewDataset(points)
}

// train runs the full pipeline for one pointwise loss: dataset assembly,
// optional standardization, optimization, variance computation, and the
// mapping of the result back to original feature space.
func train(name string, pw loss.Pointwise, X, y mat.Matrix, cfg fitConfig, logger log.Logger) (Coefficients, *optimization.StateTracker, error) {
	started := time.Now()

	ds, err := buildDataset(X, y)
	if err != nil {
		return Coefficients{}, nil, err
	}
	interceptIndex := ds.Dim() - 1

	ctx := normalization.NoNormalization()
	if cfg.standardize {
		ctx, err = normalization.FitStandardization(ds, interceptIndex)
		if err != nil {
			return Coefficients{}, nil, err
		}
	}

	objOpts := []optimization.ObjectiveOption{}
	if cfg.l2Weight > 0 {
		objOpts = append(objOpts, optimization.WithL2Regularization(cfg.l2Weight))
	}
	if cfg.treeDepth > 0 {
		objOpts = append(objOpts, optimization.WithObjectiveTreeDepth(cfg.treeDepth))
	}
	obj := optimization.GLM(pw, ctx, objOpts...)

	optOpts := []optimization.OptimizerOption{
		optimization.WithMaxIterations(cfg.maxIterations),
		optimization.WithTolerance(cfg.tolerance),
	}
	if cfg.trackState {
		optOpts = append(optOpts, optimization.WithStateTracking())
	}
	var optimizer optimization.Optimizer
	switch cfg.solver {
	case SolverNewton:
		optimizer = optimization.NewNewton(optOpts...)
	case SolverLBFGS, "":
		optimizer = optimization.NewLBFGS(optOpts...)
	default:
		return Coefficients{}, nil, errors.NewValueError("glm.Fit", "unknown solver "+string(cfg.solver))
	}

	problem := optimization.NewOptimizationProblem(obj, optimizer, cfg.varianceType,
		func(coef, variances *mat.VecDense) Coefficients {
			return Coefficients{Means: coef, Variances: variances}
		})

	fitted, err := problem.Run(ds, nil)
	if err != nil {
		return Coefficients{}, nil, err
	}

	original, err := toOriginalSpace(fitted, ctx)
	if err != nil {
		return Coefficients{}, nil, err
	}

	logger.Info("model fitted",
		log.ModelNameKey, name,
		log.SamplesKey, ds.Len(),
		log.FeaturesKey, ds.Dim()-1,
		log.DurationMsKey, time.Since(started).Milliseconds(),
	)
	return original, optimizer.StateTracker(), nil
}

// toOriginalSpace maps coefficients trained in normalized space back to the
// original feature space. Variances transform per coordinate by the squared
// scale factor; the intercept variance is kept as computed, a diagonal
// approximation that ignores cross covariances.
func toOriginalSpace(c Coefficients, ctx *normalization.Context) (Coefficients, error) {
	if ctx.IsIdentity() {
		return c, nil
	}
	means, err := ctx.ModelToOriginalSpace(c.Means)
	if err != nil {
		return Coefficients{}, err
	}
	out := Coefficients{Means: means}
	if c.Variances != nil {
		variances := mat.VecDenseCopyOf(c.Variances)
		if ctx.HasScale() {
			scales := ctx.ScaleFactors()
			for j := 0; j < variances.Len(); j++ {
				if j == ctx.InterceptIndex() {
					continue
				}
				s := scales.AtVec(j)
				variances.SetVec(j, variances.AtVec(j)*s*s)
			}
		}
		out.Variances = variances
	}
	return out, nil
}

// scoreAccuracy computes classification accuracy of predicted labels.
func scoreAccuracy(predict func(X mat.Matrix) (*mat.VecDense, error), X, y mat.Matrix) (float64, error) {
	pred, err := predict(X)
	if err != nil {
		return 0, err
	}
	truth, err := metrics.ColumnVector("glm.Score", y)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(truth, pred)
}

// scoreR2 computes the coefficient of determination of predictions.
func scoreR2(predict func(X mat.Matrix) (*mat.VecDense, error), X, y mat.Matrix) (float64, error) {
	pred, err := predict(X)
	if err != nil {
		return 0, err
	}
	truth, err := metrics.ColumnVector("glm.Score", y)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(truth, pred)
}

// columnMatrix views a vector as an n-by-1 matrix for Predictor results.
func columnMatrix(v *mat.VecDense) mat.Matrix {
	return mat.NewDense(v.Len(), 1, v.RawVector().Data)
}
