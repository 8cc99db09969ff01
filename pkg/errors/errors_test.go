package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDimensionError(t *testing.T) {
	err := NewDimensionError("GradientAggregator.Add", 10, 7)
	require.Error(t, err)

	var dimErr *DimensionError
	require.True(t, As(err, &dimErr))
	assert.Equal(t, 10, dimErr.Expected)
	assert.Equal(t, 7, dimErr.Got)
	assert.Contains(t, err.Error(), "dimension mismatch")
}

func TestInvalidNormalizationError(t *testing.T) {
	err := NewInvalidNormalizationError(2, 0.5, 1.0)
	require.Error(t, err)

	var normErr *InvalidNormalizationError
	require.True(t, As(err, &normErr))
	assert.Equal(t, 2, normErr.InterceptIndex)
	assert.Contains(t, err.Error(), "intercept")
}

func TestIncompatibleAggregatorError(t *testing.T) {
	err := NewIncompatibleAggregatorError("Merge", "gradient vs hessian-vector")
	var aggErr *IncompatibleAggregatorError
	require.True(t, As(err, &aggErr))
	assert.Equal(t, "Merge", aggErr.Op)
}

func TestNotFittedError(t *testing.T) {
	err := NewNotFittedError("LogisticRegression", "Predict")
	var nfErr *NotFittedError
	require.True(t, As(err, &nfErr))
	assert.Contains(t, err.Error(), "not fitted")
}

func TestWarningHandler(t *testing.T) {
	var captured []error
	SetWarningHandler(func(w error) {
		captured = append(captured, w)
	})
	defer SetWarningHandler(nil)

	w := NewConvergenceWarning("LBFGS", 100, "")
	Warn(w)

	require.Len(t, captured, 1)
	assert.Contains(t, captured[0].Error(), "LBFGS")
	assert.Contains(t, captured[0].Error(), "100")
}

func TestCheckNumericalStability(t *testing.T) {
	assert.NoError(t, CheckNumericalStability("gradient", []float64{1, -2, 3}, 0))

	err := CheckNumericalStability("gradient", []float64{1, nan(), 3}, 5)
	require.Error(t, err)
	var numErr *NumericalInstabilityError
	require.True(t, As(err, &numErr))
	assert.Equal(t, 5, numErr.Iteration)
}

func TestStabilizeExp(t *testing.T) {
	assert.InDelta(t, 1.0, StabilizeExp(0), 1e-12)
	assert.False(t, isInf(StabilizeExp(10000)))
	assert.Equal(t, 0.0, StabilizeExp(-10000))
}

func TestSafeExecute(t *testing.T) {
	err := SafeExecute("risky", func() error {
		panic("boom")
	})
	require.Error(t, err)
	var panicErr *PanicError
	require.True(t, As(err, &panicErr))
	assert.Equal(t, "risky", panicErr.Operation)
}

func nan() float64 {
	z := 0.0
	return z / z
}

func isInf(v float64) bool {
	return v > 1e308
}
