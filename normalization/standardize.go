package normalization

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/mqwu/photon-ml/data"
	"github.com/mqwu/photon-ml/pkg/errors"
)

// FitStandardization computes a standardization context (zero mean, unit
// variance) from a dataset. interceptIndex marks the constant feature, or -1;
// that feature keeps scale 1 and shift 0. Features with near-zero standard
// deviation keep scale 1 to avoid division blow-up on constant columns.
func FitStandardization(ds *data.Dataset, interceptIndex int) (*Context, error) {
	if ds.Len() == 0 {
		return nil, errors.WithStack(errors.ErrEmptyData)
	}
	dim := ds.Dim()
	if interceptIndex >= dim {
		return nil, errors.NewValueError("FitStandardization", "intercept index out of range")
	}

	n := float64(ds.Len())
	means := make([]float64, dim)
	for _, p := range ds.Points() {
		for j := 0; j < dim; j++ {
			means[j] += p.Features.AtVec(j)
		}
	}
	floats.Scale(1/n, means)

	scales := make([]float64, dim)
	for _, p := range ds.Points() {
		for j := 0; j < dim; j++ {
			diff := p.Features.AtVec(j) - means[j]
			scales[j] += diff * diff
		}
	}
	for j := range scales {
		std := math.Sqrt(scales[j] / n)
		if math.Abs(std) < 1e-8 {
			scales[j] = 1.0
		} else {
			scales[j] = 1.0 / std
		}
	}

	if interceptIndex >= 0 {
		scales[interceptIndex] = 1.0
		means[interceptIndex] = 0.0
	}

	return NewContext(dim, scales, means, interceptIndex)
}
