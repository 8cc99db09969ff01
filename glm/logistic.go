package glm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mqwu/photon-ml/core/model"
	"github.com/mqwu/photon-ml/loss"
	"github.com/mqwu/photon-ml/optimization"
	"github.com/mqwu/photon-ml/pkg/log"
)

// LogisticRegression is a binary classifier trained on the logistic loss.
type LogisticRegression struct {
	State *model.StateManager
	Model *LogisticRegressionModel

	cfg     fitConfig
	tracker *optimization.StateTracker
	logger  log.Logger
}

// NewLogisticRegression creates an untrained logistic regression estimator.
func NewLogisticRegression(opts ...Option) *LogisticRegression {
	cfg := defaultFitConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &LogisticRegression{
		State:  model.NewStateManager("LogisticRegression"),
		cfg:    cfg,
		logger: log.GetLoggerWithName("glm.logistic"),
	}
}

// Fit trains on the design matrix X and binary labels y (n-by-1, in {0,1}).
func (e *LogisticRegression) Fit(X, y mat.Matrix) error {
	coef, tracker, err := train("LogisticRegression", loss.NewLogistic(), X, y, e.cfg, e.logger)
	if err != nil {
		return err
	}
	e.Model = &LogisticRegressionModel{GeneralizedLinearModel{Coef: coef}}
	e.tracker = tracker
	n, d := X.Dims()
	e.State.SetDimensions(d, n)
	e.State.SetFitted()
	return nil
}

// Predict returns predicted class labels as an n-by-1 matrix.
func (e *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := e.State.RequireFitted("Predict"); err != nil {
		return nil, err
	}
	classes, err := e.Model.PredictClasses(X)
	if err != nil {
		return nil, err
	}
	return columnMatrix(classes), nil
}

// PredictProba returns P(y=1) as an n-by-1 matrix.
func (e *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := e.State.RequireFitted("PredictProba"); err != nil {
		return nil, err
	}
	proba, err := e.Model.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return columnMatrix(proba), nil
}

// Score returns classification accuracy against true labels.
func (e *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	if err := e.State.RequireFitted("Score"); err != nil {
		return 0, err
	}
	return scoreAccuracy(e.Model.PredictClasses, X, y)
}

// Weights returns the learned feature coefficients.
func (e *LogisticRegression) Weights() []float64 {
	if e.Model == nil {
		return nil
	}
	return e.Model.Weights()
}

// Intercept returns the learned intercept.
func (e *LogisticRegression) Intercept() float64 {
	if e.Model == nil {
		return 0
	}
	return e.Model.Intercept()
}

// Coefficients returns the fitted coefficients with variances when
// requested at construction.
func (e *LogisticRegression) Coefficients() Coefficients {
	if e.Model == nil {
		return Coefficients{}
	}
	return e.Model.Coef
}

// StateTracker returns the iteration history from the last Fit, nil unless
// tracking was enabled.
func (e *LogisticRegression) StateTracker() *optimization.StateTracker {
	return e.tracker
}
