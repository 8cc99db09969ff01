package optimization

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mqwu/photon-ml/data"
	"github.com/mqwu/photon-ml/loss"
	"github.com/mqwu/photon-ml/normalization"
)

// absoluteLoss carries no second derivative, so objectives built on it stay
// first order.
type absoluteLoss struct{}

func (absoluteLoss) Name() string { return "absolute" }

func (absoluteLoss) LossAndDerivative(margin, label float64) (float64, float64) {
	r := margin - label
	if r < 0 {
		return -r, -1
	}
	return r, 1
}

// makeLogisticDataset builds binary-labeled points with a trailing intercept
// column, separated by the plane x1 + x2 = 0 with some label noise.
func makeLogisticDataset(t *testing.T, n int, seed int64) *data.Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	points := make([]data.LabeledPoint, n)
	for i := range points {
		x1 := rng.NormFloat64()
		x2 := rng.NormFloat64()
		label := 0.0
		if x1+x2+0.3*rng.NormFloat64() > 0 {
			label = 1.0
		}
		points[i] = data.NewLabeledPoint(label, []float64{x1, x2, 1})
	}
	ds, err := data.NewDataset(points)
	require.NoError(t, err)
	return ds
}

// makeLinearDataset builds noiseless regression points y = w.x with a
// trailing intercept column.
func makeLinearDataset(t *testing.T, n int, truth []float64, seed int64) *data.Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	dim := len(truth)
	points := make([]data.LabeledPoint, n)
	for i := range points {
		x := make([]float64, dim)
		for j := 0; j < dim-1; j++ {
			x[j] = rng.NormFloat64()
		}
		x[dim-1] = 1
		y := 0.0
		for j, w := range truth {
			y += w * x[j]
		}
		points[i] = data.NewLabeledPoint(y, x)
	}
	ds, err := data.NewDataset(points)
	require.NoError(t, err)
	return ds
}

func TestResolveObjectiveKind(t *testing.T) {
	ctx := normalization.NoNormalization()

	second := GLM(loss.NewLogistic(), ctx)
	assert.Equal(t, FullSecondOrder, ResolveObjectiveKind(second))
	assert.IsType(t, &GLMObjective{}, second)

	first := GLM(absoluteLoss{}, ctx)
	assert.Equal(t, FirstOrderOnly, ResolveObjectiveKind(first))
	assert.IsType(t, &FirstOrderGLMObjective{}, first)
}

func TestGLMObjectiveGradientMatchesNumeric(t *testing.T) {
	ds := makeLogisticDataset(t, 60, 7)
	obj := GLM(loss.NewLogistic(), normalization.NoNormalization(), WithL2Regularization(0.1))

	coef := mat.NewVecDense(3, []float64{0.4, -0.2, 0.1})
	_, grad, err := obj.ValueAndGradient(ds, coef)
	require.NoError(t, err)

	const h = 1e-6
	for j := 0; j < coef.Len(); j++ {
		bump := mat.NewVecDense(3, nil)
		bump.CopyVec(coef)
		bump.SetVec(j, coef.AtVec(j)+h)
		plus, _, err := obj.ValueAndGradient(ds, bump)
		require.NoError(t, err)
		bump.SetVec(j, coef.AtVec(j)-h)
		minus, _, err := obj.ValueAndGradient(ds, bump)
		require.NoError(t, err)

		numeric := (plus - minus) / (2 * h)
		assert.InDelta(t, numeric, grad.AtVec(j), 1e-4, "coordinate %d", j)
	}
}

func TestGLMObjectivePenaltySkipsIntercept(t *testing.T) {
	dim := 3
	scales := []float64{2, 0.5, 1}
	shifts := []float64{1, -1, 0}
	ctx, err := normalization.NewContext(dim, scales, shifts, 2)
	require.NoError(t, err)

	ds := makeLogisticDataset(t, 40, 11)
	plain := GLM(loss.NewLogistic(), ctx)
	ridge := GLM(loss.NewLogistic(), ctx, WithL2Regularization(1.0))

	coef := mat.NewVecDense(dim, []float64{1, 2, 3})
	v0, g0, err := plain.ValueAndGradient(ds, coef)
	require.NoError(t, err)
	v1, g1, err := ridge.ValueAndGradient(ds, coef)
	require.NoError(t, err)

	// The penalty falls on the original-space coefficients coef_j*scale_j,
	// so each feature coordinate is weighted by scale_j squared. The
	// intercept coordinate is never penalized.
	assert.InDelta(t, v0+0.5*(4*1+0.25*4), v1, 1e-12)
	assert.InDelta(t, g0.AtVec(0)+4*1, g1.AtVec(0), 1e-12)
	assert.InDelta(t, g0.AtVec(1)+0.25*2, g1.AtVec(1), 1e-12)
	assert.InDelta(t, g0.AtVec(2), g1.AtVec(2), 1e-12)
}

func TestGLMObjectivePenaltyIsSpaceInvariant(t *testing.T) {
	dim := 3
	scales := []float64{0.5, 4, 1}
	shifts := []float64{2, -1, 0}
	ctx, err := normalization.NewContext(dim, scales, shifts, 2)
	require.NoError(t, err)

	ds := makeLogisticDataset(t, 40, 17)
	normalized := GLM(loss.NewLogistic(), ctx, WithL2Regularization(0.3))
	plain := GLM(loss.NewLogistic(), normalization.NoNormalization(), WithL2Regularization(0.3))

	// Evaluating the normalized objective at coef must match evaluating
	// the plain objective at coef's original-space image, so both fits
	// share one optimum.
	coef := mat.NewVecDense(dim, []float64{0.9, -0.6, 0.4})
	mapped, err := ctx.ModelToOriginalSpace(coef)
	require.NoError(t, err)

	vNorm, _, err := normalized.ValueAndGradient(ds, coef)
	require.NoError(t, err)
	vPlain, _, err := plain.ValueAndGradient(ds, mapped)
	require.NoError(t, err)

	assert.InDelta(t, vPlain, vNorm, 1e-9*math.Abs(vPlain)+1e-12)
}

func TestGLMObjectiveHessianDiagonalMatchesMatrix(t *testing.T) {
	ds := makeLogisticDataset(t, 50, 3)
	obj := GLM(loss.NewLogistic(), normalization.NoNormalization(), WithL2Regularization(0.25)).(*GLMObjective)

	coef := mat.NewVecDense(3, []float64{0.2, 0.3, -0.1})
	diag, err := obj.HessianDiagonal(ds, coef)
	require.NoError(t, err)
	h, err := obj.HessianMatrix(ds, coef)
	require.NoError(t, err)

	for j := 0; j < diag.Len(); j++ {
		assert.InDelta(t, h.At(j, j), diag.AtVec(j), 1e-10)
	}
}

func TestGLMObjectiveHessianVectorMatchesMatrix(t *testing.T) {
	ds := makeLogisticDataset(t, 50, 5)
	obj := GLM(loss.NewLogistic(), normalization.NoNormalization(), WithL2Regularization(0.25)).(*GLMObjective)

	coef := mat.NewVecDense(3, []float64{0.2, -0.4, 0.1})
	dir := mat.NewVecDense(3, []float64{1, -2, 0.5})

	hv, err := obj.HessianVector(ds, coef, dir)
	require.NoError(t, err)
	h, err := obj.HessianMatrix(ds, coef)
	require.NoError(t, err)

	var want mat.VecDense
	want.MulVec(h, dir)
	for j := 0; j < hv.Len(); j++ {
		assert.InDelta(t, want.AtVec(j), hv.AtVec(j), 1e-9)
	}
}

func TestGLMObjectiveNormalizationEquivalence(t *testing.T) {
	dim := 3
	scales := []float64{0.5, 2, 1}
	shifts := []float64{1.5, -0.5, 0}
	ctx, err := normalization.NewContext(dim, scales, shifts, 2)
	require.NoError(t, err)

	raw := makeLogisticDataset(t, 40, 13)
	transformed := make([]data.LabeledPoint, 0, raw.Len())
	for _, p := range raw.Points() {
		x, err := ctx.ApplyToFeatures(p.Features)
		require.NoError(t, err)
		transformed = append(transformed, data.LabeledPoint{
			Label:    p.Label,
			Features: x,
			Weight:   p.Weight,
			Offset:   p.Offset,
		})
	}
	tds, err := data.NewDataset(transformed)
	require.NoError(t, err)

	coef := mat.NewVecDense(dim, []float64{0.7, -0.3, 0.2})
	vRaw, gRaw, err := GLM(loss.NewLogistic(), ctx).ValueAndGradient(raw, coef)
	require.NoError(t, err)
	vPre, gPre, err := GLM(loss.NewLogistic(), normalization.NoNormalization()).ValueAndGradient(tds, coef)
	require.NoError(t, err)

	assert.InDelta(t, vPre, vRaw, 1e-9*math.Abs(vPre)+1e-12)
	for j := 0; j < dim; j++ {
		assert.InDelta(t, gPre.AtVec(j), gRaw.AtVec(j), 1e-9)
	}
}
