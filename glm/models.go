package glm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mqwu/photon-ml/loss"
	"github.com/mqwu/photon-ml/pkg/errors"
)

// GeneralizedLinearModel is the trained-model core shared by every GLM
// flavor: coefficients in original feature space with the intercept in the
// last position.
type GeneralizedLinearModel struct {
	Coef Coefficients
}

// NumFeatures returns the feature dimension excluding the intercept.
func (m *GeneralizedLinearModel) NumFeatures() int {
	return m.Coef.Dim() - 1
}

// Weights returns the feature coefficients without the intercept.
func (m *GeneralizedLinearModel) Weights() []float64 {
	d := m.NumFeatures()
	out := make([]float64, d)
	for j := 0; j < d; j++ {
		out[j] = m.Coef.Means.AtVec(j)
	}
	return out
}

// Intercept returns the intercept coefficient.
func (m *GeneralizedLinearModel) Intercept() float64 {
	return m.Coef.Means.AtVec(m.Coef.Dim() - 1)
}

// ComputeMargin evaluates w.x + intercept for one feature vector, which
// must not include an intercept entry.
func (m *GeneralizedLinearModel) ComputeMargin(x *mat.VecDense) (float64, error) {
	d := m.NumFeatures()
	if x.Len() != d {
		return 0, errors.NewDimensionError("glm.ComputeMargin", d, x.Len())
	}
	margin := m.Intercept()
	for j := 0; j < d; j++ {
		margin += m.Coef.Means.AtVec(j) * x.AtVec(j)
	}
	return margin, nil
}

// ComputeMargins evaluates margins for every row of the design matrix.
func (m *GeneralizedLinearModel) ComputeMargins(X mat.Matrix) (*mat.VecDense, error) {
	n, d := X.Dims()
	if d != m.NumFeatures() {
		return nil, errors.NewDimensionError("glm.ComputeMargins", m.NumFeatures(), d)
	}
	out := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		margin := m.Intercept()
		for j := 0; j < d; j++ {
			margin += m.Coef.Means.AtVec(j) * X.At(i, j)
		}
		out.SetVec(i, margin)
	}
	return out, nil
}

// LogisticRegressionModel predicts binary class probabilities through the
// sigmoid link.
type LogisticRegressionModel struct {
	GeneralizedLinearModel
}

// PredictProba returns P(y=1) for every row.
func (m *LogisticRegressionModel) PredictProba(X mat.Matrix) (*mat.VecDense, error) {
	margins, err := m.ComputeMargins(X)
	if err != nil {
		return nil, err
	}
	for i := 0; i < margins.Len(); i++ {
		margins.SetVec(i, loss.Sigmoid(margins.AtVec(i)))
	}
	return margins, nil
}

// PredictClasses thresholds probabilities at 0.5 into {0, 1} labels.
func (m *LogisticRegressionModel) PredictClasses(X mat.Matrix) (*mat.VecDense, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	for i := 0; i < proba.Len(); i++ {
		if proba.AtVec(i) >= 0.5 {
			proba.SetVec(i, 1)
		} else {
			proba.SetVec(i, 0)
		}
	}
	return proba, nil
}

// LinearRegressionModel predicts with the identity link.
type LinearRegressionModel struct {
	GeneralizedLinearModel
}

// PredictMeans returns the predicted responses.
func (m *LinearRegressionModel) PredictMeans(X mat.Matrix) (*mat.VecDense, error) {
	return m.ComputeMargins(X)
}

// PoissonRegressionModel predicts event rates through the exponential link.
type PoissonRegressionModel struct {
	GeneralizedLinearModel
}

// PredictRates returns exp(margin) for every row.
func (m *PoissonRegressionModel) PredictRates(X mat.Matrix) (*mat.VecDense, error) {
	margins, err := m.ComputeMargins(X)
	if err != nil {
		return nil, err
	}
	for i := 0; i < margins.Len(); i++ {
		margins.SetVec(i, errors.StabilizeExp(margins.AtVec(i)))
	}
	return margins, nil
}

// SmoothedHingeSVMModel classifies by the sign of the margin.
type SmoothedHingeSVMModel struct {
	GeneralizedLinearModel
}

// PredictClasses maps positive margins to label 1 and the rest to 0.
func (m *SmoothedHingeSVMModel) PredictClasses(X mat.Matrix) (*mat.VecDense, error) {
	margins, err := m.ComputeMargins(X)
	if err != nil {
		return nil, err
	}
	for i := 0; i < margins.Len(); i++ {
		if margins.AtVec(i) > 0 {
			margins.SetVec(i, 1)
		} else {
			margins.SetVec(i, 0)
		}
	}
	return margins, nil
}
