// Package data defines the labeled-example types consumed by the aggregation
// and optimization layers. Feature vectorization itself happens upstream;
// this package only carries the vectorized result.
package data

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mqwu/photon-ml/pkg/errors"
)

// LabeledPoint is a single training example. It is immutable once constructed
// and shared read-only across aggregation shards.
type LabeledPoint struct {
	// Label is the response value. For binary classification it is 0 or 1.
	Label float64

	// Features is the feature vector of length equal to the model dimension.
	Features *mat.VecDense

	// Weight is the example weight. Defaults to 1.
	Weight float64

	// Offset is a fixed additive term included in the margin.
	Offset float64
}

// NewLabeledPoint creates a unit-weight, zero-offset labeled example.
func NewLabeledPoint(label float64, features []float64) LabeledPoint {
	return LabeledPoint{
		Label:    label,
		Features: mat.NewVecDense(len(features), features),
		Weight:   1.0,
	}
}

// NewWeightedPoint creates a labeled example with an explicit weight and offset.
func NewWeightedPoint(label float64, features []float64, weight, offset float64) LabeledPoint {
	return LabeledPoint{
		Label:    label,
		Features: mat.NewVecDense(len(features), features),
		Weight:   weight,
		Offset:   offset,
	}
}

// NewSparsePoint creates a unit-weight labeled example from sparse input.
// Entries not listed in indices are zero. gonum carries no sparse vector
// type, so the point is materialized dense at construction.
func NewSparsePoint(label float64, dim int, indices []int, values []float64) (LabeledPoint, error) {
	if len(indices) != len(values) {
		return LabeledPoint{}, errors.NewDimensionError("NewSparsePoint", len(indices), len(values))
	}
	features := mat.NewVecDense(dim, nil)
	for k, idx := range indices {
		if idx < 0 || idx >= dim {
			return LabeledPoint{}, errors.NewValueError("NewSparsePoint",
				"feature index out of range")
		}
		features.SetVec(idx, values[k])
	}
	return LabeledPoint{Label: label, Features: features, Weight: 1.0}, nil
}

// Dim returns the feature dimension of the point.
func (p LabeledPoint) Dim() int {
	return p.Features.Len()
}
