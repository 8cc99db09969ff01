package glm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mqwu/photon-ml/core/model"
	"github.com/mqwu/photon-ml/loss"
	"github.com/mqwu/photon-ml/optimization"
	"github.com/mqwu/photon-ml/pkg/log"
)

// SmoothedHingeSVM is a linear classifier trained on the smoothed hinge
// loss. The smoothing keeps the objective twice differentiable, so it runs
// on the same optimizers as the other models.
type SmoothedHingeSVM struct {
	State *model.StateManager
	Model *SmoothedHingeSVMModel

	cfg     fitConfig
	tracker *optimization.StateTracker
	logger  log.Logger
}

// NewSmoothedHingeSVM creates an untrained linear SVM estimator.
func NewSmoothedHingeSVM(opts ...Option) *SmoothedHingeSVM {
	cfg := defaultFitConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &SmoothedHingeSVM{
		State:  model.NewStateManager("SmoothedHingeSVM"),
		cfg:    cfg,
		logger: log.GetLoggerWithName("glm.svm"),
	}
}

// Fit trains on the design matrix X and binary labels y (n-by-1, in {0,1}).
func (e *SmoothedHingeSVM) Fit(X, y mat.Matrix) error {
	coef, tracker, err := train("SmoothedHingeSVM", loss.NewSmoothedHinge(), X, y, e.cfg, e.logger)
	if err != nil {
		return err
	}
	e.Model = &SmoothedHingeSVMModel{GeneralizedLinearModel{Coef: coef}}
	e.tracker = tracker
	n, d := X.Dims()
	e.State.SetDimensions(d, n)
	e.State.SetFitted()
	return nil
}

// Predict returns predicted class labels as an n-by-1 matrix.
func (e *SmoothedHingeSVM) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := e.State.RequireFitted("Predict"); err != nil {
		return nil, err
	}
	classes, err := e.Model.PredictClasses(X)
	if err != nil {
		return nil, err
	}
	return columnMatrix(classes), nil
}

// Score returns classification accuracy against true labels.
func (e *SmoothedHingeSVM) Score(X, y mat.Matrix) (float64, error) {
	if err := e.State.RequireFitted("Score"); err != nil {
		return 0, err
	}
	return scoreAccuracy(e.Model.PredictClasses, X, y)
}

// Weights returns the learned feature coefficients.
func (e *SmoothedHingeSVM) Weights() []float64 {
	if e.Model == nil {
		return nil
	}
	return e.Model.Weights()
}

// Intercept returns the learned intercept.
func (e *SmoothedHingeSVM) Intercept() float64 {
	if e.Model == nil {
		return 0
	}
	return e.Model.Intercept()
}

// Coefficients returns the fitted coefficients.
func (e *SmoothedHingeSVM) Coefficients() Coefficients {
	if e.Model == nil {
		return Coefficients{}
	}
	return e.Model.Coef
}

// StateTracker returns the iteration history from the last Fit, nil unless
// tracking was enabled.
func (e *SmoothedHingeSVM) StateTracker() *optimization.StateTracker {
	return e.tracker
}
