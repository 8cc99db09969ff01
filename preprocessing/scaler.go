// Package preprocessing provides feature transformers that compose with the
// training pipeline.
package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/mqwu/photon-ml/core/model"
	"github.com/mqwu/photon-ml/core/parallel"
	"github.com/mqwu/photon-ml/normalization"
	"github.com/mqwu/photon-ml/pkg/errors"
)

// StandardScaler learns per-feature mean and standard deviation and maps
// features to zero mean and unit variance. Near-constant features keep unit
// scale so the transform stays invertible.
type StandardScaler struct {
	State *model.StateManager

	// Mean holds the per-feature means seen during Fit.
	Mean []float64

	// Scale holds the per-feature standard deviations seen during Fit.
	Scale []float64

	// WithMean controls whether the mean is subtracted.
	WithMean bool

	// WithStd controls whether features are divided by the deviation.
	WithStd bool
}

// NewStandardScaler creates a scaler that centers and scales.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{
		State:    model.NewStateManager("StandardScaler"),
		WithMean: true,
		WithStd:  true,
	}
}

const nearConstantThreshold = 1e-10

// Fit computes per-feature statistics from the design matrix.
func (s *StandardScaler) Fit(X mat.Matrix) error {
	n, d := X.Dims()
	if n == 0 || d == 0 {
		return errors.WithStack(errors.ErrEmptyData)
	}

	s.Mean = make([]float64, d)
	s.Scale = make([]float64, d)

	// Per-column statistics are independent, so wide matrices fan the
	// column loop out across workers.
	parallel.ParallelizeWithThreshold(d, 16, func(start, end int) {
		for j := start; j < end; j++ {
			sum := 0.0
			for i := 0; i < n; i++ {
				sum += X.At(i, j)
			}
			s.Mean[j] = sum / float64(n)

			ss := 0.0
			for i := 0; i < n; i++ {
				diff := X.At(i, j) - s.Mean[j]
				ss += diff * diff
			}
			std := math.Sqrt(ss / float64(n))
			if std < nearConstantThreshold {
				std = 1
			}
			s.Scale[j] = std
		}
	})

	s.State.SetDimensions(d, n)
	s.State.SetFitted()
	return nil
}

// Transform maps features with the fitted statistics.
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.State.RequireFitted("Transform"); err != nil {
		return nil, err
	}
	n, d := X.Dims()
	if d != len(s.Mean) {
		return nil, errors.NewDimensionError("StandardScaler.Transform", len(s.Mean), d)
	}

	out := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			v := X.At(i, j)
			if s.WithMean {
				v -= s.Mean[j]
			}
			if s.WithStd {
				v /= s.Scale[j]
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// FitTransform fits the scaler and transforms in one call.
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps standardized features back to original units.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.State.RequireFitted("InverseTransform"); err != nil {
		return nil, err
	}
	n, d := X.Dims()
	if d != len(s.Mean) {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", len(s.Mean), d)
	}

	out := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			v := X.At(i, j)
			if s.WithStd {
				v *= s.Scale[j]
			}
			if s.WithMean {
				v += s.Mean[j]
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// ToNormalizationContext expresses the fitted statistics as a coefficient
// transform over vectors of the given dimension, with the intercept at
// interceptIndex left untouched. Feature j of the scaler corresponds to
// coordinate j of the vector; the dimension must be len(Mean)+1 to leave
// room for the intercept.
func (s *StandardScaler) ToNormalizationContext(interceptIndex int) (*normalization.Context, error) {
	if err := s.State.RequireFitted("ToNormalizationContext"); err != nil {
		return nil, err
	}
	d := len(s.Mean) + 1
	if interceptIndex != d-1 {
		return nil, errors.NewValueError("StandardScaler.ToNormalizationContext", "intercept must follow the features")
	}

	scales := make([]float64, d)
	shifts := make([]float64, d)
	for j := 0; j < d-1; j++ {
		scales[j] = 1
		if s.WithStd {
			scales[j] = 1 / s.Scale[j]
		}
		if s.WithMean {
			shifts[j] = s.Mean[j]
		}
	}
	scales[d-1] = 1
	shifts[d-1] = 0
	return normalization.NewContext(d, scales, shifts, interceptIndex)
}
