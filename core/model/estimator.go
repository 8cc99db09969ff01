package model

import "gonum.org/v1/gonum/mat"

// Fitter is a model trainable from a design matrix and targets.
type Fitter interface {
	Fit(X, y mat.Matrix) error
}

// Predictor produces predictions for a design matrix.
type Predictor interface {
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer reports a scalar quality score for predictions against targets.
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}

// Regressor is a trainable model scored by coefficient of determination.
type Regressor interface {
	Fitter
	Predictor
	Scorer
}

// Classifier is a trainable model that exposes class probabilities and is
// scored by accuracy.
type Classifier interface {
	Fitter
	Predictor
	Scorer
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// LinearModel exposes the learned affine parameters.
type LinearModel interface {
	// Weights returns the learned feature coefficients.
	Weights() []float64
	// Intercept returns the learned intercept.
	Intercept() float64
}
