// Package glm provides generalized linear models trained by the
// aggregation-backed optimization pipeline, behind sklearn-style
// Fit/Predict estimators.
package glm

import (
	"bytes"
	"encoding/gob"

	"gonum.org/v1/gonum/mat"
)

// Coefficients couples the learned coefficient means with their optional
// per-coordinate variances. The intercept occupies the last position.
type Coefficients struct {
	Means     *mat.VecDense
	Variances *mat.VecDense // nil unless variance computation ran
}

// Dim returns the coefficient dimension including the intercept.
func (c Coefficients) Dim() int {
	if c.Means == nil {
		return 0
	}
	return c.Means.Len()
}

// HasVariances reports whether variances were computed.
func (c Coefficients) HasVariances() bool {
	return c.Variances != nil
}

// coefficientsWire is the gob representation. The gonum vectors carry no
// exported fields, so they travel as their binary marshaling.
type coefficientsWire struct {
	Means     []byte
	Variances []byte
}

// GobEncode implements gob.GobEncoder.
func (c Coefficients) GobEncode() ([]byte, error) {
	var wire coefficientsWire
	var err error
	if c.Means != nil {
		if wire.Means, err = c.Means.MarshalBinary(); err != nil {
			return nil, err
		}
	}
	if c.Variances != nil {
		if wire.Variances, err = c.Variances.MarshalBinary(); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(wire); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (c *Coefficients) GobDecode(data []byte) error {
	var wire coefficientsWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wire); err != nil {
		return err
	}
	*c = Coefficients{}
	if wire.Means != nil {
		c.Means = &mat.VecDense{}
		if err := c.Means.UnmarshalBinary(wire.Means); err != nil {
			return err
		}
	}
	if wire.Variances != nil {
		c.Variances = &mat.VecDense{}
		if err := c.Variances.UnmarshalBinary(wire.Variances); err != nil {
			return err
		}
	}
	return nil
}

// Clone deep-copies the coefficients.
func (c Coefficients) Clone() Coefficients {
	out := Coefficients{}
	if c.Means != nil {
		out.Means = mat.VecDenseCopyOf(c.Means)
	}
	if c.Variances != nil {
		out.Variances = mat.VecDenseCopyOf(c.Variances)
	}
	return out
}
