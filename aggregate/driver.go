package aggregate

import (
	"runtime"

	"gonum.org/v1/gonum/mat"

	"github.com/mqwu/photon-ml/core/parallel"
	"github.com/mqwu/photon-ml/data"
	"github.com/mqwu/photon-ml/loss"
	"github.com/mqwu/photon-ml/normalization"
	"github.com/mqwu/photon-ml/pkg/errors"
)

// DefaultTreeDepth is the reduction fan-out depth used when callers do not
// request one. Two levels match the usual treeAggregate default.
const DefaultTreeDepth = 2

// ValueAndGradient computes the objective value and gradient over an
// in-memory dataset using local parallel folds. The result is numerically
// consistent with the partitioned entry point, up to floating-point
// summation order.
func ValueAndGradient(ds *data.Dataset, coef *mat.VecDense, pw loss.Pointwise, ctx *normalization.Context) (float64, *mat.VecDense, error) {
	pd, err := ds.Partition(localPartitions(ds.Len()))
	if err != nil {
		return 0, nil, err
	}
	return ValueAndGradientPartitioned(pd, coef, pw, ctx, DefaultTreeDepth)
}

// ValueAndGradientPartitioned computes the objective value and gradient over
// a partitioned dataset: one bound aggregator per partition folds its local
// examples, and the partials merge via a balanced tree reduction of the
// requested depth. The tree depth changes performance and floating-point
// rounding only, never which code path executes.
//
// The coefficient vector and normalization context are bound once per pass
// and shared read-only across all shards. A failure in any shard aborts the
// whole pass; no partial results are surfaced.
func ValueAndGradientPartitioned(pd *data.PartitionedDataset, coef *mat.VecDense, pw loss.Pointwise, ctx *normalization.Context, treeDepth int) (float64, *mat.VecDense, error) {
	aggs := make([]*GradientAggregator, pd.NumPartitions())
	err := foldPartitions(pd, func(i int) error {
		agg := NewGradientAggregator(pd.Dim(), pw)
		if err := agg.Bind(coef, ctx); err != nil {
			return err
		}
		for _, p := range pd.PartitionAt(i) {
			if err := agg.Add(p); err != nil {
				return err
			}
		}
		aggs[i] = agg
		return nil
	})
	if err != nil {
		return 0, nil, err
	}

	merged, err := parallel.TreeReduce(aggs, treeDepth, func(a, b *GradientAggregator) (*GradientAggregator, error) {
		return a.Merge(b)
	})
	if err != nil {
		return 0, nil, err
	}

	value := merged.Value()
	vector, err := merged.VectorResult(ctx)
	if err != nil {
		return 0, nil, err
	}
	if err := errors.CheckScalar("aggregate.value", value, 0); err != nil {
		return 0, nil, err
	}
	if err := errors.CheckNumericalStability("aggregate.gradient", vector.RawVector().Data, 0); err != nil {
		return 0, nil, err
	}
	return value, vector, nil
}

// HessianVector computes the Hessian-vector product H*direction over an
// in-memory dataset.
func HessianVector(ds *data.Dataset, coef, direction *mat.VecDense, pw loss.TwiceDiff, ctx *normalization.Context) (*mat.VecDense, error) {
	pd, err := ds.Partition(localPartitions(ds.Len()))
	if err != nil {
		return nil, err
	}
	return HessianVectorPartitioned(pd, coef, direction, pw, ctx, DefaultTreeDepth)
}

// HessianVectorPartitioned computes H*direction over a partitioned dataset
// with a tree reduction of the requested depth.
func HessianVectorPartitioned(pd *data.PartitionedDataset, coef, direction *mat.VecDense, pw loss.TwiceDiff, ctx *normalization.Context, treeDepth int) (*mat.VecDense, error) {
	aggs := make([]*HessianVectorAggregator, pd.NumPartitions())
	err := foldPartitions(pd, func(i int) error {
		agg := NewHessianVectorAggregator(pd.Dim(), pw)
		if err := agg.Bind(coef, direction, ctx); err != nil {
			return err
		}
		for _, p := range pd.PartitionAt(i) {
			if err := agg.Add(p); err != nil {
				return err
			}
		}
		aggs[i] = agg
		return nil
	})
	if err != nil {
		return nil, err
	}

	merged, err := parallel.TreeReduce(aggs, treeDepth, func(a, b *HessianVectorAggregator) (*HessianVectorAggregator, error) {
		return a.Merge(b)
	})
	if err != nil {
		return nil, err
	}

	vector, err := merged.VectorResult(ctx)
	if err != nil {
		return nil, err
	}
	if err := errors.CheckNumericalStability("aggregate.hessian_vector", vector.RawVector().Data, 0); err != nil {
		return nil, err
	}
	return vector, nil
}

// HessianDiagonal computes the Hessian diagonal over an in-memory dataset.
func HessianDiagonal(ds *data.Dataset, coef *mat.VecDense, pw loss.TwiceDiff, ctx *normalization.Context) (*mat.VecDense, error) {
	pd, err := ds.Partition(localPartitions(ds.Len()))
	if err != nil {
		return nil, err
	}

	aggs := make([]*HessianDiagonalAggregator, pd.NumPartitions())
	err = foldPartitions(pd, func(i int) error {
		agg := NewHessianDiagonalAggregator(pd.Dim(), pw)
		if err := agg.Bind(coef, ctx); err != nil {
			return err
		}
		for _, p := range pd.PartitionAt(i) {
			if err := agg.Add(p); err != nil {
				return err
			}
		}
		aggs[i] = agg
		return nil
	})
	if err != nil {
		return nil, err
	}

	merged, err := parallel.TreeReduce(aggs, DefaultTreeDepth, func(a, b *HessianDiagonalAggregator) (*HessianDiagonalAggregator, error) {
		return a.Merge(b)
	})
	if err != nil {
		return nil, err
	}
	return merged.DiagonalResult(ctx)
}

// HessianMatrix computes the full Hessian matrix over an in-memory dataset.
func HessianMatrix(ds *data.Dataset, coef *mat.VecDense, pw loss.TwiceDiff, ctx *normalization.Context) (*mat.SymDense, error) {
	pd, err := ds.Partition(localPartitions(ds.Len()))
	if err != nil {
		return nil, err
	}

	aggs := make([]*HessianMatrixAggregator, pd.NumPartitions())
	err = foldPartitions(pd, func(i int) error {
		agg := NewHessianMatrixAggregator(pd.Dim(), pw)
		if err := agg.Bind(coef, ctx); err != nil {
			return err
		}
		for _, p := range pd.PartitionAt(i) {
			if err := agg.Add(p); err != nil {
				return err
			}
		}
		aggs[i] = agg
		return nil
	})
	if err != nil {
		return nil, err
	}

	merged, err := parallel.TreeReduce(aggs, DefaultTreeDepth, func(a, b *HessianMatrixAggregator) (*HessianMatrixAggregator, error) {
		return a.Merge(b)
	})
	if err != nil {
		return nil, err
	}
	return merged.MatrixResult(ctx)
}

// foldPartitions runs fn for every partition index concurrently. Each
// worker owns a disjoint index range, so the error slots need no locking.
// The first error aborts the pass.
func foldPartitions(pd *data.PartitionedDataset, fn func(i int) error) error {
	n := pd.NumPartitions()
	errs := make([]error, n)

	parallel.Parallelize(n, func(start, end int) {
		for i := start; i < end; i++ {
			errs[i] = fn(i)
		}
	})

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// localPartitions picks the shard count for single-machine aggregation.
func localPartitions(items int) int {
	n := runtime.NumCPU()
	if n > items {
		n = items
	}
	if n < 1 {
		n = 1
	}
	return n
}
