package loss

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// numericDerivative approximates dL/dm with central differences.
func numericDerivative(l Pointwise, margin, label float64) float64 {
	const h = 1e-6
	lp, _ := l.LossAndDerivative(margin+h, label)
	lm, _ := l.LossAndDerivative(margin-h, label)
	return (lp - lm) / (2 * h)
}

func numericSecondDerivative(l Pointwise, margin, label float64) float64 {
	const h = 1e-5
	_, dp := l.LossAndDerivative(margin+h, label)
	_, dm := l.LossAndDerivative(margin-h, label)
	return (dp - dm) / (2 * h)
}

func TestDerivativesMatchNumericDifferences(t *testing.T) {
	losses := []TwiceDiff{NewLogistic(), NewSquared(), NewPoisson(), NewSmoothedHinge()}
	margins := []float64{-2.3, -0.7, 0.2, 1.5, 3.1}
	labels := []float64{0, 1}

	for _, l := range losses {
		for _, m := range margins {
			for _, y := range labels {
				_, d := l.LossAndDerivative(m, y)
				assert.InDelta(t, numericDerivative(l, m, y), d, 1e-4,
					"%s first derivative at margin=%v label=%v", l.Name(), m, y)
				assert.InDelta(t, numericSecondDerivative(l, m, y), l.SecondDerivative(m, y), 1e-4,
					"%s second derivative at margin=%v label=%v", l.Name(), m, y)
			}
		}
	}
}

func TestLogisticKnownValues(t *testing.T) {
	l := NewLogistic()

	// At margin 0 the loss is log(2) regardless of label.
	v0, d0 := l.LossAndDerivative(0, 1)
	assert.InDelta(t, math.Log(2), v0, 1e-12)
	assert.InDelta(t, -0.5, d0, 1e-12)

	v1, d1 := l.LossAndDerivative(0, 0)
	assert.InDelta(t, math.Log(2), v1, 1e-12)
	assert.InDelta(t, 0.5, d1, 1e-12)
}

func TestLogisticStableAtExtremeMargins(t *testing.T) {
	l := NewLogistic()
	for _, m := range []float64{-1000, 1000} {
		for _, y := range []float64{0, 1} {
			v, d := l.LossAndDerivative(m, y)
			require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "loss at m=%v y=%v", m, y)
			require.False(t, math.IsNaN(d) || math.IsInf(d, 0), "deriv at m=%v y=%v", m, y)
		}
	}
	// A strongly correct margin has near-zero loss.
	v, _ := l.LossAndDerivative(1000, 1)
	assert.InDelta(t, 0, v, 1e-12)
}

func TestSquaredKnownValues(t *testing.T) {
	l := NewSquared()
	v, d := l.LossAndDerivative(3, 1)
	assert.InDelta(t, 2.0, v, 1e-12)
	assert.InDelta(t, 2.0, d, 1e-12)
	assert.Equal(t, 1.0, l.SecondDerivative(3, 1))
}

func TestPoissonKnownValues(t *testing.T) {
	l := NewPoisson()
	v, d := l.LossAndDerivative(0, 2)
	assert.InDelta(t, 1.0, v, 1e-12) // exp(0) - 2*0
	assert.InDelta(t, -1.0, d, 1e-12)
	assert.False(t, math.IsInf(l.SecondDerivative(10000, 0), 0))
}

func TestSmoothedHingePieces(t *testing.T) {
	l := NewSmoothedHinge()

	// z <= 0: linear region
	v, d := l.LossAndDerivative(-1, 1)
	assert.InDelta(t, 1.5, v, 1e-12)
	assert.InDelta(t, -1.0, d, 1e-12)
	assert.Equal(t, 0.0, l.SecondDerivative(-1, 1))

	// 0 < z < 1: quadratic region
	v, d = l.LossAndDerivative(0.5, 1)
	assert.InDelta(t, 0.125, v, 1e-12)
	assert.InDelta(t, -0.5, d, 1e-12)
	assert.Equal(t, 1.0, l.SecondDerivative(0.5, 1))

	// z >= 1: flat region
	v, d = l.LossAndDerivative(2, 1)
	assert.Equal(t, 0.0, v)
	assert.Equal(t, 0.0, d)

	// label 0 mirrors label 1
	v0, d0 := l.LossAndDerivative(-2, 0)
	assert.Equal(t, 0.0, v0)
	assert.Equal(t, 0.0, d0)
}

func TestSigmoid(t *testing.T) {
	assert.InDelta(t, 0.5, Sigmoid(0), 1e-15)
	assert.InDelta(t, 1.0, Sigmoid(50), 1e-12)
	assert.InDelta(t, 0.0, Sigmoid(-50), 1e-12)
}
