package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mqwu/photon-ml/data"
	"github.com/mqwu/photon-ml/pkg/errors"
)

func TestNewContextValidation(t *testing.T) {
	t.Run("length mismatch", func(t *testing.T) {
		_, err := NewContext(3, []float64{1, 2}, nil, -1)
		require.Error(t, err)
		var dimErr *errors.DimensionError
		assert.True(t, errors.As(err, &dimErr))
	})

	t.Run("scaled intercept rejected", func(t *testing.T) {
		_, err := NewContext(3, []float64{1, 2, 0.5}, nil, 2)
		require.Error(t, err)
		var normErr *errors.InvalidNormalizationError
		assert.True(t, errors.As(err, &normErr))
	})

	t.Run("shifted intercept rejected", func(t *testing.T) {
		_, err := NewContext(3, nil, []float64{0, 0, 0.1}, 2)
		require.Error(t, err)
		var normErr *errors.InvalidNormalizationError
		assert.True(t, errors.As(err, &normErr))
	})

	t.Run("valid intercept accepted", func(t *testing.T) {
		ctx, err := NewContext(3, []float64{2, 3, 1}, []float64{-1, 4, 0}, 2)
		require.NoError(t, err)
		assert.True(t, ctx.HasScale())
		assert.True(t, ctx.HasShift())
		assert.Equal(t, 2, ctx.InterceptIndex())
	})
}

func TestNoNormalizationIsIdentity(t *testing.T) {
	ctx := NoNormalization()
	assert.True(t, ctx.IsIdentity())

	x := mat.NewVecDense(2, []float64{3, -7})
	got, err := ctx.ApplyToFeatures(x)
	require.NoError(t, err)
	assert.InDelta(t, 3, got.AtVec(0), 1e-15)
	assert.InDelta(t, -7, got.AtVec(1), 1e-15)
}

func TestApplyToFeatures(t *testing.T) {
	ctx, err := NewContext(2, []float64{2, 0.5}, []float64{1, -2}, -1)
	require.NoError(t, err)

	got, err := ctx.ApplyToFeatures(mat.NewVecDense(2, []float64{3, 4}))
	require.NoError(t, err)
	// (3-1)*2 = 4, (4+2)*0.5 = 3
	assert.InDelta(t, 4.0, got.AtVec(0), 1e-12)
	assert.InDelta(t, 3.0, got.AtVec(1), 1e-12)
}

func TestModelSpaceRoundTrip(t *testing.T) {
	// dim 3, last feature is the intercept
	ctx, err := NewContext(3, []float64{2, 4, 1}, []float64{0.5, -1, 0}, 2)
	require.NoError(t, err)

	coef := mat.NewVecDense(3, []float64{1.5, -2.0, 0.75})
	raw, err := ctx.ModelToOriginalSpace(coef)
	require.NoError(t, err)

	back, err := ctx.ModelToNormalizedSpace(raw)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, coef.AtVec(i), back.AtVec(i), 1e-12, "index %d", i)
	}
}

func TestModelToOriginalSpaceReproducesMargin(t *testing.T) {
	ctx, err := NewContext(3, []float64{2, 4, 1}, []float64{0.5, -1, 0}, 2)
	require.NoError(t, err)

	coef := mat.NewVecDense(3, []float64{1.5, -2.0, 0.75})
	raw, err := ctx.ModelToOriginalSpace(coef)
	require.NoError(t, err)

	// Raw-space margin of raw coefficients must equal normalized-space margin
	// of the normalized coefficients for any example.
	x := mat.NewVecDense(3, []float64{0.9, 2.5, 1.0}) // intercept feature = 1
	xNorm, err := ctx.ApplyToFeatures(x)
	require.NoError(t, err)
	// the intercept column of x' is (1-0)*1 = 1, no correction needed
	assert.InDelta(t, mat.Dot(coef, xNorm), mat.Dot(raw, x), 1e-12)
}

func TestFitStandardization(t *testing.T) {
	points := []data.LabeledPoint{
		data.NewLabeledPoint(0, []float64{1, 10, 1}),
		data.NewLabeledPoint(1, []float64{3, 20, 1}),
		data.NewLabeledPoint(0, []float64{5, 30, 1}),
	}
	ds, err := data.NewDataset(points)
	require.NoError(t, err)

	ctx, err := FitStandardization(ds, 2)
	require.NoError(t, err)

	// mean of feature 0 is 3, population stddev sqrt(8/3)
	assert.InDelta(t, 3.0, ctx.Shifts().AtVec(0), 1e-12)
	// the intercept column is constant; it must keep identity transform
	assert.Equal(t, 1.0, ctx.ScaleFactors().AtVec(2))
	assert.Equal(t, 0.0, ctx.Shifts().AtVec(2))

	// standardized features have zero mean and unit variance
	var sum, sumSq float64
	for _, p := range ds.Points() {
		xn, err := ctx.ApplyToFeatures(p.Features)
		require.NoError(t, err)
		sum += xn.AtVec(1)
		sumSq += xn.AtVec(1) * xn.AtVec(1)
	}
	assert.InDelta(t, 0.0, sum/3, 1e-10)
	assert.InDelta(t, 1.0, sumSq/3, 1e-10)
}

func TestFitStandardizationConstantFeature(t *testing.T) {
	points := []data.LabeledPoint{
		data.NewLabeledPoint(0, []float64{7, 1}),
		data.NewLabeledPoint(1, []float64{7, 2}),
	}
	ds, err := data.NewDataset(points)
	require.NoError(t, err)

	ctx, err := FitStandardization(ds, -1)
	require.NoError(t, err)
	// constant column keeps scale 1 instead of dividing by zero stddev
	assert.Equal(t, 1.0, ctx.ScaleFactors().AtVec(0))
}
