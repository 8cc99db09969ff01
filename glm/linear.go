package glm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mqwu/photon-ml/core/model"
	"github.com/mqwu/photon-ml/loss"
	"github.com/mqwu/photon-ml/optimization"
	"github.com/mqwu/photon-ml/pkg/log"
)

// LinearRegression fits the squared loss by iterative optimization, which
// keeps it on the same pipeline as every other GLM here.
type LinearRegression struct {
	State *model.StateManager
	Model *LinearRegressionModel

	cfg     fitConfig
	tracker *optimization.StateTracker
	logger  log.Logger
}

// NewLinearRegression creates an untrained linear regression estimator.
func NewLinearRegression(opts ...Option) *LinearRegression {
	cfg := defaultFitConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &LinearRegression{
		State:  model.NewStateManager("LinearRegression"),
		cfg:    cfg,
		logger: log.GetLoggerWithName("glm.linear"),
	}
}

// Fit trains on the design matrix X and responses y (n-by-1).
func (e *LinearRegression) Fit(X, y mat.Matrix) error {
	coef, tracker, err := train("LinearRegression", loss.NewSquared(), X, y, e.cfg, e.logger)
	if err != nil {
		return err
	}
	e.Model = &LinearRegressionModel{GeneralizedLinearModel{Coef: coef}}
	e.tracker = tracker
	n, d := X.Dims()
	e.State.SetDimensions(d, n)
	e.State.SetFitted()
	return nil
}

// Predict returns predicted responses as an n-by-1 matrix.
func (e *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := e.State.RequireFitted("Predict"); err != nil {
		return nil, err
	}
	means, err := e.Model.PredictMeans(X)
	if err != nil {
		return nil, err
	}
	return columnMatrix(means), nil
}

// Score returns the coefficient of determination against true responses.
func (e *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	if err := e.State.RequireFitted("Score"); err != nil {
		return 0, err
	}
	return scoreR2(e.Model.PredictMeans, X, y)
}

// Weights returns the learned feature coefficients.
func (e *LinearRegression) Weights() []float64 {
	if e.Model == nil {
		return nil
	}
	return e.Model.Weights()
}

// Intercept returns the learned intercept.
func (e *LinearRegression) Intercept() float64 {
	if e.Model == nil {
		return 0
	}
	return e.Model.Intercept()
}

// Coefficients returns the fitted coefficients.
func (e *LinearRegression) Coefficients() Coefficients {
	if e.Model == nil {
		return Coefficients{}
	}
	return e.Model.Coef
}

// StateTracker returns the iteration history from the last Fit, nil unless
// tracking was enabled.
func (e *LinearRegression) StateTracker() *optimization.StateTracker {
	return e.tracker
}
