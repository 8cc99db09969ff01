package data

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mqwu/photon-ml/pkg/errors"
)

// Dataset is an in-memory ordered collection of labeled examples sharing one
// feature dimension.
type Dataset struct {
	points []LabeledPoint
	dim    int
}

// NewDataset validates that all points share one dimension and wraps them.
func NewDataset(points []LabeledPoint) (*Dataset, error) {
	if len(points) == 0 {
		return nil, errors.WithStack(errors.ErrEmptyData)
	}
	dim := points[0].Dim()
	for i, p := range points {
		if p.Dim() != dim {
			return nil, errors.NewDimensionError("NewDataset", dim, points[i].Dim())
		}
	}
	return &Dataset{points: points, dim: dim}, nil
}

// FromMatrix builds a dataset from a design matrix and a label vector, the
// shape the estimator layer works with. Weights and offsets default to 1 and 0.
func FromMatrix(X mat.Matrix, y mat.Matrix) (*Dataset, error) {
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return nil, errors.WithStack(errors.ErrEmptyData)
	}
	if ry != r || cy != 1 {
		return nil, errors.NewDimensionError("FromMatrix", r, ry)
	}

	points := make([]LabeledPoint, r)
	for i := 0; i < r; i++ {
		features := make([]float64, c)
		for j := 0; j < c; j++ {
			features[j] = X.At(i, j)
		}
		points[i] = NewLabeledPoint(y.At(i, 0), features)
	}
	return NewDataset(points)
}

// Points returns the examples. The slice must be treated as read-only.
func (d *Dataset) Points() []LabeledPoint {
	return d.points
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	return len(d.points)
}

// Dim returns the shared feature dimension.
func (d *Dataset) Dim() int {
	return d.dim
}

// Partition splits the dataset into k contiguous partitions for distributed
// aggregation. Partitions reference the underlying point slice; no data is
// copied.
func (d *Dataset) Partition(k int) (*PartitionedDataset, error) {
	if k < 1 {
		return nil, errors.NewValueError("Dataset.Partition", "partition count must be >= 1")
	}
	if k > len(d.points) {
		k = len(d.points)
	}

	partitions := make([][]LabeledPoint, k)
	chunk := (len(d.points) + k - 1) / k
	for i := 0; i < k; i++ {
		start := i * chunk
		end := start + chunk
		if end > len(d.points) {
			end = len(d.points)
		}
		if start >= end {
			partitions[i] = nil
			continue
		}
		partitions[i] = d.points[start:end]
	}
	return &PartitionedDataset{partitions: partitions, dim: d.dim}, nil
}

// PartitionedDataset is a fixed list of example shards, standing in for a
// partitioned parallel collection. Each partition is processed by exactly one
// fold; partials are merged by tree reduction.
type PartitionedDataset struct {
	partitions [][]LabeledPoint
	dim        int
}

// NewPartitionedDataset wraps explicit shards, validating dimensions.
func NewPartitionedDataset(partitions [][]LabeledPoint) (*PartitionedDataset, error) {
	dim := -1
	total := 0
	for _, part := range partitions {
		for _, p := range part {
			if dim == -1 {
				dim = p.Dim()
			} else if p.Dim() != dim {
				return nil, errors.NewDimensionError("NewPartitionedDataset", dim, p.Dim())
			}
			total++
		}
	}
	if total == 0 {
		return nil, errors.WithStack(errors.ErrEmptyData)
	}
	return &PartitionedDataset{partitions: partitions, dim: dim}, nil
}

// NumPartitions returns the number of shards, including empty ones.
func (d *PartitionedDataset) NumPartitions() int {
	return len(d.partitions)
}

// PartitionAt returns shard i as a read-only slice.
func (d *PartitionedDataset) PartitionAt(i int) []LabeledPoint {
	return d.partitions[i]
}

// Dim returns the shared feature dimension.
func (d *PartitionedDataset) Dim() int {
	return d.dim
}

// Len returns the total number of examples across all shards.
func (d *PartitionedDataset) Len() int {
	n := 0
	for _, part := range d.partitions {
		n += len(part)
	}
	return n
}

// Collect flattens the shards back into a single in-memory dataset.
func (d *PartitionedDataset) Collect() (*Dataset, error) {
	points := make([]LabeledPoint, 0, d.Len())
	for _, part := range d.partitions {
		points = append(points, part...)
	}
	return NewDataset(points)
}

// Repartition redistributes the examples across k contiguous shards.
func (d *PartitionedDataset) Repartition(k int) (*PartitionedDataset, error) {
	ds, err := d.Collect()
	if err != nil {
		return nil, err
	}
	return ds.Partition(k)
}
