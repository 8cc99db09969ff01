package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mqwu/photon-ml/data"
	"github.com/mqwu/photon-ml/loss"
	"github.com/mqwu/photon-ml/normalization"
	"github.com/mqwu/photon-ml/pkg/errors"
)

// TestPartitionedMatchesSequential verifies the associativity contract end to
// end: any sharding and any tree depth reproduces the single sequential fold.
func TestPartitionedMatchesSequential(t *testing.T) {
	pw := loss.NewLogistic()
	dim := 5
	points := testPoints(500, dim, 29)
	coef := mat.NewVecDense(dim, []float64{0.3, -0.2, 0.7, 0.1, -0.4})
	ctx := testContext(t, dim)

	seq := foldAll(t, points, coef, pw, ctx)
	wantValue := seq.Value()
	wantVec, err := seq.VectorResult(ctx)
	require.NoError(t, err)

	ds, err := data.NewDataset(points)
	require.NoError(t, err)

	for _, numPartitions := range []int{1, 3, 8, 17} {
		for _, depth := range []int{1, 2, 4} {
			pd, err := ds.Partition(numPartitions)
			require.NoError(t, err)

			gotValue, gotVec, err := ValueAndGradientPartitioned(pd, coef, pw, ctx, depth)
			require.NoError(t, err, "partitions=%d depth=%d", numPartitions, depth)

			assert.InDelta(t, wantValue, gotValue, 1e-8*absOr1(wantValue),
				"value partitions=%d depth=%d", numPartitions, depth)
			for j := 0; j < dim; j++ {
				assert.InDelta(t, wantVec.AtVec(j), gotVec.AtVec(j), 1e-8*absOr1(wantVec.AtVec(j)),
					"gradient[%d] partitions=%d depth=%d", j, numPartitions, depth)
			}
		}
	}
}

func TestSingleMachineEntryPoint(t *testing.T) {
	pw := loss.NewSquared()
	dim := 3
	points := testPoints(100, dim, 31)
	coef := mat.NewVecDense(dim, []float64{1, 0.5, -0.25})
	ctx := normalization.NoNormalization()

	ds, err := data.NewDataset(points)
	require.NoError(t, err)

	value, vec, err := ValueAndGradient(ds, coef, pw, ctx)
	require.NoError(t, err)

	seq := foldAll(t, points, coef, pw, ctx)
	assert.InDelta(t, seq.Value(), value, 1e-8*absOr1(seq.Value()))
	seqVec, err := seq.VectorResult(ctx)
	require.NoError(t, err)
	for j := 0; j < dim; j++ {
		assert.InDelta(t, seqVec.AtVec(j), vec.AtVec(j), 1e-8*absOr1(seqVec.AtVec(j)))
	}
}

func TestPartitionedHessianVectorMatchesLocal(t *testing.T) {
	pw := loss.NewLogistic()
	dim := 4
	points := testPoints(200, dim, 37)
	coef := mat.NewVecDense(dim, []float64{0.4, -0.6, 0.2, 0.3})
	direction := mat.NewVecDense(dim, []float64{1, 1, -1, 0.5})
	ctx := testContext(t, dim)

	ds, err := data.NewDataset(points)
	require.NoError(t, err)
	want, err := HessianVector(ds, coef, direction, pw, ctx)
	require.NoError(t, err)

	pd, err := ds.Partition(7)
	require.NoError(t, err)
	got, err := HessianVectorPartitioned(pd, coef, direction, pw, ctx, 3)
	require.NoError(t, err)

	for j := 0; j < dim; j++ {
		assert.InDelta(t, want.AtVec(j), got.AtVec(j), 1e-8*absOr1(want.AtVec(j)))
	}
}

// TestShardFailureAbortsPass: a dimension mismatch inside one shard must fail
// the whole aggregation, with no partial result surfaced.
func TestShardFailureAbortsPass(t *testing.T) {
	pw := loss.NewLogistic()
	good := testPoints(10, 3, 41)
	bad := data.NewLabeledPoint(1, []float64{1, 2, 3, 4})

	pd, err := data.NewPartitionedDataset([][]data.LabeledPoint{good[:5], good[5:]})
	require.NoError(t, err)
	coef := mat.NewVecDense(3, []float64{1, 2, 3})

	// sneak an incompatible example into the second shard via a hand-built
	// partition list with a mixed shard
	mixed := [][]data.LabeledPoint{good[:5], append(append([]data.LabeledPoint{}, good[5:]...), bad)}
	_, err = data.NewPartitionedDataset(mixed)
	require.Error(t, err) // the constructor already rejects it

	// a wrong coefficient dimension aborts every shard
	_, _, err = ValueAndGradientPartitioned(pd, mat.NewVecDense(2, []float64{1, 2}), pw, normalization.NoNormalization(), 2)
	require.Error(t, err)
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	// the same pass succeeds with the right dimension
	_, _, err = ValueAndGradientPartitioned(pd, coef, pw, normalization.NoNormalization(), 2)
	assert.NoError(t, err)
}

func TestHessianDiagonalDriverMatchesAggregator(t *testing.T) {
	pw := loss.NewLogistic()
	dim := 3
	points := testPoints(90, dim, 43)
	coef := mat.NewVecDense(dim, []float64{0.4, -0.6, 0.2})
	ctx := testContext(t, dim)

	ds, err := data.NewDataset(points)
	require.NoError(t, err)
	got, err := HessianDiagonal(ds, coef, pw, ctx)
	require.NoError(t, err)

	agg := NewHessianDiagonalAggregator(dim, pw)
	require.NoError(t, agg.Bind(coef, ctx))
	for _, p := range points {
		require.NoError(t, agg.Add(p))
	}
	want, err := agg.DiagonalResult(ctx)
	require.NoError(t, err)

	for j := 0; j < dim; j++ {
		assert.InDelta(t, want.AtVec(j), got.AtVec(j), 1e-8*absOr1(want.AtVec(j)))
	}
}
