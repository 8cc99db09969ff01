package glm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mqwu/photon-ml/core/model"
	"github.com/mqwu/photon-ml/loss"
	"github.com/mqwu/photon-ml/optimization"
	"github.com/mqwu/photon-ml/pkg/log"
)

// PoissonRegression models non-negative count responses with a log link.
type PoissonRegression struct {
	State *model.StateManager
	Model *PoissonRegressionModel

	cfg     fitConfig
	tracker *optimization.StateTracker
	logger  log.Logger
}

// NewPoissonRegression creates an untrained Poisson regression estimator.
func NewPoissonRegression(opts ...Option) *PoissonRegression {
	cfg := defaultFitConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &PoissonRegression{
		State:  model.NewStateManager("PoissonRegression"),
		cfg:    cfg,
		logger: log.GetLoggerWithName("glm.poisson"),
	}
}

// Fit trains on the design matrix X and count responses y (n-by-1).
func (e *PoissonRegression) Fit(X, y mat.Matrix) error {
	coef, tracker, err := train("PoissonRegression", loss.NewPoisson(), X, y, e.cfg, e.logger)
	if err != nil {
		return err
	}
	e.Model = &PoissonRegressionModel{GeneralizedLinearModel{Coef: coef}}
	e.tracker = tracker
	n, d := X.Dims()
	e.State.SetDimensions(d, n)
	e.State.SetFitted()
	return nil
}

// Predict returns predicted event rates as an n-by-1 matrix.
func (e *PoissonRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := e.State.RequireFitted("Predict"); err != nil {
		return nil, err
	}
	rates, err := e.Model.PredictRates(X)
	if err != nil {
		return nil, err
	}
	return columnMatrix(rates), nil
}

// Score returns the coefficient of determination of predicted rates.
func (e *PoissonRegression) Score(X, y mat.Matrix) (float64, error) {
	if err := e.State.RequireFitted("Score"); err != nil {
		return 0, err
	}
	return scoreR2(e.Model.PredictRates, X, y)
}

// Weights returns the learned feature coefficients.
func (e *PoissonRegression) Weights() []float64 {
	if e.Model == nil {
		return nil
	}
	return e.Model.Weights()
}

// Intercept returns the learned intercept.
func (e *PoissonRegression) Intercept() float64 {
	if e.Model == nil {
		return 0
	}
	return e.Model.Intercept()
}

// Coefficients returns the fitted coefficients.
func (e *PoissonRegression) Coefficients() Coefficients {
	if e.Model == nil {
		return Coefficients{}
	}
	return e.Model.Coef
}

// StateTracker returns the iteration history from the last Fit, nil unless
// tracking was enabled.
func (e *PoissonRegression) StateTracker() *optimization.StateTracker {
	return e.tracker
}
