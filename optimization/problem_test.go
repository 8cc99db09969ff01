package optimization

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mqwu/photon-ml/data"
	"github.com/mqwu/photon-ml/loss"
	"github.com/mqwu/photon-ml/normalization"
)

// trainedModel is the minimal materialization target used by these tests.
type trainedModel struct {
	coef      *mat.VecDense
	variances *mat.VecDense
}

func newTrainedModel(coef, variances *mat.VecDense) trainedModel {
	return trainedModel{coef: coef, variances: variances}
}

// fixedCurvatureObjective reports a constant Hessian regardless of the data,
// which pins down the variance routing arithmetic exactly.
type fixedCurvatureObjective struct {
	diag []float64
	full *mat.SymDense
}

func (f *fixedCurvatureObjective) DomainDimension(ds *data.Dataset) int { return len(f.diag) }

func (f *fixedCurvatureObjective) ValueAndGradient(ds *data.Dataset, coef *mat.VecDense) (float64, *mat.VecDense, error) {
	return 0, mat.NewVecDense(coef.Len(), nil), nil
}

func (f *fixedCurvatureObjective) HessianDiagonal(ds *data.Dataset, coef *mat.VecDense) (*mat.VecDense, error) {
	out := make([]float64, len(f.diag))
	copy(out, f.diag)
	return mat.NewVecDense(len(out), out), nil
}

// fullCurvatureObjective additionally exposes the full matrix.
type fullCurvatureObjective struct {
	fixedCurvatureObjective
}

// matrixOnlyObjective exposes the full Hessian but no diagonal shortcut.
type matrixOnlyObjective struct {
	full *mat.SymDense
}

func (m *matrixOnlyObjective) DomainDimension(ds *data.Dataset) int { return m.full.SymmetricDim() }

func (m *matrixOnlyObjective) ValueAndGradient(ds *data.Dataset, coef *mat.VecDense) (float64, *mat.VecDense, error) {
	return 0, mat.NewVecDense(coef.Len(), nil), nil
}

func (m *matrixOnlyObjective) HessianMatrix(ds *data.Dataset, coef *mat.VecDense) (*mat.SymDense, error) {
	n := m.full.SymmetricDim()
	out := mat.NewSymDense(n, nil)
	out.CopySym(m.full)
	return out, nil
}

func (f *fullCurvatureObjective) HessianMatrix(ds *data.Dataset, coef *mat.VecDense) (*mat.SymDense, error) {
	n := f.full.SymmetricDim()
	out := mat.NewSymDense(n, nil)
	out.CopySym(f.full)
	return out, nil
}

func varianceProblem(obj ObjectiveFunction, vtype VarianceComputationType) *OptimizationProblem[trainedModel] {
	return NewOptimizationProblem(obj, NewLBFGS(), vtype, newTrainedModel)
}

func TestComputeVariancesRouting(t *testing.T) {
	ds := makeLogisticDataset(t, 10, 1)
	coef := mat.NewVecDense(3, nil)

	diagObj := &fixedCurvatureObjective{diag: []float64{1, 0, 2}}
	fullObj := &fullCurvatureObjective{
		fixedCurvatureObjective: fixedCurvatureObjective{
			diag: []float64{2, 4},
			full: mat.NewSymDense(2, []float64{2, 0, 0, 4}),
		},
	}
	firstOrderObj := GLM(absoluteLoss{}, normalization.NoNormalization())

	t.Run("none returns nothing regardless of capability", func(t *testing.T) {
		v, err := varianceProblem(fullObj, VarianceNone).ComputeVariances(ds, coef)
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("simple clamps flat curvature", func(t *testing.T) {
		v, err := varianceProblem(diagObj, VarianceSimple).ComputeVariances(ds, coef)
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.InDelta(t, 1.0, v.AtVec(0), 1e-15)
		assert.InDelta(t, 1/curvatureEpsilon, v.AtVec(1), 1)
		assert.InDelta(t, 0.5, v.AtVec(2), 1e-15)
		assert.False(t, math.IsInf(v.AtVec(1), 1))
	})

	t.Run("simple degrades without the diagonal capability", func(t *testing.T) {
		matrixObj := &matrixOnlyObjective{full: mat.NewSymDense(2, []float64{2, 0, 0, 4})}
		require.Equal(t, FullSecondOrder, ResolveObjectiveKind(matrixObj))
		v, err := varianceProblem(matrixObj, VarianceSimple).ComputeVariances(ds, mat.NewVecDense(2, nil))
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("simple degrades for a first-order objective", func(t *testing.T) {
		v, err := varianceProblem(firstOrderObj, VarianceSimple).ComputeVariances(ds, coef)
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("full inverts the hessian", func(t *testing.T) {
		v, err := varianceProblem(fullObj, VarianceFull).ComputeVariances(ds, mat.NewVecDense(2, nil))
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.InDelta(t, 0.5, v.AtVec(0), 1e-12)
		assert.InDelta(t, 0.25, v.AtVec(1), 1e-12)
	})

	t.Run("full degrades without full-hessian capability", func(t *testing.T) {
		v, err := varianceProblem(diagObj, VarianceFull).ComputeVariances(ds, coef)
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("full degrades on a singular hessian", func(t *testing.T) {
		singular := &fullCurvatureObjective{
			fixedCurvatureObjective: fixedCurvatureObjective{
				diag: []float64{1, 1},
				full: mat.NewSymDense(2, []float64{1, 1, 1, 1}),
			},
		}
		v, err := varianceProblem(singular, VarianceFull).ComputeVariances(ds, mat.NewVecDense(2, nil))
		require.NoError(t, err)
		assert.Nil(t, v)
	})
}

func TestOptimizationProblemRun(t *testing.T) {
	ds := makeLogisticDataset(t, 200, 23)
	obj := GLM(loss.NewLogistic(), normalization.NoNormalization(), WithL2Regularization(0.01))
	opt := NewLBFGS(WithMaxIterations(200), WithTolerance(1e-8), WithStateTracking())

	problem := NewOptimizationProblem(obj, opt, VarianceFull, newTrainedModel)
	model, err := problem.Run(ds, nil)
	require.NoError(t, err)
	require.NotNil(t, model.coef)
	require.NotNil(t, model.variances)
	assert.Equal(t, 3, model.coef.Len())
	assert.Equal(t, 3, model.variances.Len())

	// The ridge term keeps the Hessian positive definite, so every
	// variance is a strictly positive finite number.
	for j := 0; j < model.variances.Len(); j++ {
		v := model.variances.AtVec(j)
		assert.Greater(t, v, 0.0)
		assert.False(t, math.IsInf(v, 1))
	}
}

func TestOptimizationProblemRunWarmStart(t *testing.T) {
	ds := makeLogisticDataset(t, 120, 29)
	obj := GLM(loss.NewLogistic(), normalization.NoNormalization(), WithL2Regularization(0.05))

	cold := NewOptimizationProblem(obj, NewLBFGS(WithMaxIterations(300), WithTolerance(1e-9)), VarianceNone, newTrainedModel)
	coldModel, err := cold.Run(ds, nil)
	require.NoError(t, err)

	warm := NewOptimizationProblem(obj, NewLBFGS(WithMaxIterations(300), WithTolerance(1e-9)), VarianceNone, newTrainedModel)
	warmModel, err := warm.Run(ds, coldModel.coef)
	require.NoError(t, err)

	for j := 0; j < coldModel.coef.Len(); j++ {
		assert.InDelta(t, coldModel.coef.AtVec(j), warmModel.coef.AtVec(j), 1e-5)
	}
}
