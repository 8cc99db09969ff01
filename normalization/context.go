// Package normalization describes per-feature affine transforms applied
// conceptually to raw features before model fitting.
//
// The transform is never materialized over the data. Training works on raw
// features: the aggregation layer folds the transform into the coefficient
// vector once per pass (see the aggregate package), which reproduces the
// margins of training on normalized features at O(dim) cost instead of
// O(n*dim).
package normalization

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mqwu/photon-ml/pkg/errors"
)

// Context is an immutable description of an optional per-feature affine
// transform. The conceptual normalized feature vector is
//
//	x' = (x - shift) .* scale
//
// Either factor may be absent. The intercept feature, when present, must have
// scale 1 and shift 0: the bias term is never rescaled or shifted.
type Context struct {
	scaleFactors   *mat.VecDense // nil when no scaling
	shifts         *mat.VecDense // nil when no shifting
	interceptIndex int           // -1 when no intercept feature is declared
}

// NoNormalization returns the identity context.
func NoNormalization() *Context {
	return &Context{interceptIndex: -1}
}

// NewContext validates and constructs a normalization context for a model of
// dimension dim. scaleFactors and shifts may each be nil. interceptIndex is
// -1 when the model carries no intercept feature.
func NewContext(dim int, scaleFactors, shifts []float64, interceptIndex int) (*Context, error) {
	if scaleFactors != nil && len(scaleFactors) != dim {
		return nil, errors.NewDimensionError("normalization.NewContext", dim, len(scaleFactors))
	}
	if shifts != nil && len(shifts) != dim {
		return nil, errors.NewDimensionError("normalization.NewContext", dim, len(shifts))
	}
	if interceptIndex >= dim {
		return nil, errors.NewValueError("normalization.NewContext", "intercept index out of range")
	}

	if interceptIndex >= 0 {
		scale := 1.0
		shift := 0.0
		if scaleFactors != nil {
			scale = scaleFactors[interceptIndex]
		}
		if shifts != nil {
			shift = shifts[interceptIndex]
		}
		if scale != 1.0 || shift != 0.0 {
			return nil, errors.NewInvalidNormalizationError(interceptIndex, scale, shift)
		}
	}

	ctx := &Context{interceptIndex: interceptIndex}
	if scaleFactors != nil {
		ctx.scaleFactors = mat.NewVecDense(dim, append([]float64(nil), scaleFactors...))
	}
	if shifts != nil {
		ctx.shifts = mat.NewVecDense(dim, append([]float64(nil), shifts...))
	}
	return ctx, nil
}

// HasScale reports whether the context carries scale factors.
func (c *Context) HasScale() bool {
	return c.scaleFactors != nil
}

// HasShift reports whether the context carries shifts.
func (c *Context) HasShift() bool {
	return c.shifts != nil
}

// IsIdentity reports whether the context performs no transformation.
func (c *Context) IsIdentity() bool {
	return c.scaleFactors == nil && c.shifts == nil
}

// ScaleFactors returns the scale vector, or nil. Read-only.
func (c *Context) ScaleFactors() *mat.VecDense {
	return c.scaleFactors
}

// Shifts returns the shift vector, or nil. Read-only.
func (c *Context) Shifts() *mat.VecDense {
	return c.shifts
}

// InterceptIndex returns the intercept feature index, or -1.
func (c *Context) InterceptIndex() int {
	return c.interceptIndex
}

// checkDim verifies a vector length against the context's dimension.
func (c *Context) checkDim(op string, n int) error {
	if c.scaleFactors != nil && c.scaleFactors.Len() != n {
		return errors.NewDimensionError(op, c.scaleFactors.Len(), n)
	}
	if c.shifts != nil && c.shifts.Len() != n {
		return errors.NewDimensionError(op, c.shifts.Len(), n)
	}
	return nil
}

// ApplyToFeatures materializes x' = (x - shift) .* scale for a single feature
// vector. The aggregation layer never calls this on the hot path; it exists
// for the equivalence tests and for callers that genuinely need transformed
// data.
func (c *Context) ApplyToFeatures(x *mat.VecDense) (*mat.VecDense, error) {
	if err := c.checkDim("Context.ApplyToFeatures", x.Len()); err != nil {
		return nil, err
	}
	out := mat.NewVecDense(x.Len(), nil)
	for i := 0; i < x.Len(); i++ {
		v := x.AtVec(i)
		if c.shifts != nil {
			v -= c.shifts.AtVec(i)
		}
		if c.scaleFactors != nil {
			v *= c.scaleFactors.AtVec(i)
		}
		out.SetVec(i, v)
	}
	return out, nil
}

// ModelToOriginalSpace maps coefficients fitted on normalized features back
// into the raw feature space, so that raw-feature margins reproduce
// normalized-feature margins:
//
//	w_raw = w .* scale
//	w_raw[intercept] = w[intercept] - (w .* scale) . shift
func (c *Context) ModelToOriginalSpace(coef *mat.VecDense) (*mat.VecDense, error) {
	if err := c.checkDim("Context.ModelToOriginalSpace", coef.Len()); err != nil {
		return nil, err
	}
	out := mat.NewVecDense(coef.Len(), nil)
	shiftCorrection := 0.0
	for i := 0; i < coef.Len(); i++ {
		v := coef.AtVec(i)
		if c.scaleFactors != nil {
			v *= c.scaleFactors.AtVec(i)
		}
		if c.shifts != nil {
			shiftCorrection += v * c.shifts.AtVec(i)
		}
		out.SetVec(i, v)
	}
	if c.shifts != nil {
		if c.interceptIndex < 0 {
			return nil, errors.NewValueError("Context.ModelToOriginalSpace",
				"shift present but no intercept feature to absorb the correction")
		}
		out.SetVec(c.interceptIndex, out.AtVec(c.interceptIndex)-shiftCorrection)
	}
	return out, nil
}

// ModelToNormalizedSpace is the inverse of ModelToOriginalSpace.
func (c *Context) ModelToNormalizedSpace(coef *mat.VecDense) (*mat.VecDense, error) {
	if err := c.checkDim("Context.ModelToNormalizedSpace", coef.Len()); err != nil {
		return nil, err
	}
	out := mat.NewVecDense(coef.Len(), nil)
	shiftCorrection := 0.0
	for i := 0; i < coef.Len(); i++ {
		v := coef.AtVec(i)
		if c.shifts != nil {
			shiftCorrection += v * c.shifts.AtVec(i)
		}
		if c.scaleFactors != nil {
			v /= c.scaleFactors.AtVec(i)
		}
		out.SetVec(i, v)
	}
	if c.shifts != nil {
		if c.interceptIndex < 0 {
			return nil, errors.NewValueError("Context.ModelToNormalizedSpace",
				"shift present but no intercept feature to absorb the correction")
		}
		out.SetVec(c.interceptIndex, out.AtVec(c.interceptIndex)+shiftCorrection)
	}
	return out, nil
}
