package loss

import (
	"math"

	"github.com/mqwu/photon-ml/pkg/errors"
)

// Logistic is the log-loss for binary classification with labels in {0, 1}.
type Logistic struct{}

// NewLogistic creates the logistic loss.
func NewLogistic() Logistic { return Logistic{} }

// Name implements Pointwise.
func (Logistic) Name() string { return "logistic" }

// LossAndDerivative implements Pointwise.
//
// For label y in {0,1} and margin m:
//
//	loss = log(1 + exp(-m))     when y = 1
//	loss = log(1 + exp(m))      when y = 0
//
// computed via log1p with the exponent kept non-positive for stability at
// large |m|.
func (Logistic) LossAndDerivative(margin, label float64) (float64, float64) {
	sign := 1.0
	if label > 0.5 {
		sign = -1.0
	}
	z := sign * margin
	// log(1 + exp(z)) = max(z, 0) + log1p(exp(-|z|))
	var l float64
	if z > 0 {
		l = z + math.Log1p(math.Exp(-z))
	} else {
		l = math.Log1p(math.Exp(z))
	}
	// d/dm log(1+exp(sign*m)) = sign * sigmoid(sign*m)
	d := sign * Sigmoid(z)
	return l, d
}

// SecondDerivative implements TwiceDiff. The curvature sigma*(1-sigma) is
// label independent.
func (Logistic) SecondDerivative(margin, _ float64) float64 {
	s := Sigmoid(margin)
	return s * (1 - s)
}

// Sigmoid is the numerically stable logistic function.
func Sigmoid(x float64) float64 {
	if x >= 0 {
		return 1.0 / (1.0 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1.0 + e)
}

// Squared is the squared-error loss for linear regression, 0.5*(m - y)^2.
type Squared struct{}

// NewSquared creates the squared loss.
func NewSquared() Squared { return Squared{} }

// Name implements Pointwise.
func (Squared) Name() string { return "squared" }

// LossAndDerivative implements Pointwise.
func (Squared) LossAndDerivative(margin, label float64) (float64, float64) {
	diff := margin - label
	return 0.5 * diff * diff, diff
}

// SecondDerivative implements TwiceDiff.
func (Squared) SecondDerivative(_, _ float64) float64 {
	return 1.0
}

// Poisson is the negative log-likelihood of a Poisson model with the
// exponential link: loss = exp(m) - y*m.
type Poisson struct{}

// NewPoisson creates the Poisson loss.
func NewPoisson() Poisson { return Poisson{} }

// Name implements Pointwise.
func (Poisson) Name() string { return "poisson" }

// LossAndDerivative implements Pointwise. The exponential is clipped to keep
// extreme margins from overflowing to Inf.
func (Poisson) LossAndDerivative(margin, label float64) (float64, float64) {
	e := errors.StabilizeExp(margin)
	return e - label*margin, e - label
}

// SecondDerivative implements TwiceDiff.
func (Poisson) SecondDerivative(margin, _ float64) float64 {
	return errors.StabilizeExp(margin)
}

// SmoothedHinge is Rennie's smoothed hinge loss for SVM classification with
// labels in {0, 1} (internally mapped to {-1, +1}). Unlike the plain hinge it
// is differentiable everywhere, which the quasi-Newton optimizers require.
//
// With z = y*m:
//
//	loss = 0.5 - z          when z <= 0
//	loss = 0.5*(1 - z)^2    when 0 < z < 1
//	loss = 0                when z >= 1
type SmoothedHinge struct{}

// NewSmoothedHinge creates the smoothed hinge loss.
func NewSmoothedHinge() SmoothedHinge { return SmoothedHinge{} }

// Name implements Pointwise.
func (SmoothedHinge) Name() string { return "smoothed_hinge" }

// LossAndDerivative implements Pointwise.
func (SmoothedHinge) LossAndDerivative(margin, label float64) (float64, float64) {
	y := signLabel(label)
	z := y * margin
	switch {
	case z <= 0:
		return 0.5 - z, -y
	case z < 1:
		return 0.5 * (1 - z) * (1 - z), -y * (1 - z)
	default:
		return 0, 0
	}
}

// SecondDerivative implements TwiceDiff. The second derivative is piecewise
// constant: 1 inside the smoothing interval, 0 outside.
func (SmoothedHinge) SecondDerivative(margin, label float64) float64 {
	z := signLabel(label) * margin
	if z > 0 && z < 1 {
		return 1.0
	}
	return 0.0
}

func signLabel(label float64) float64 {
	if label > 0.5 {
		return 1.0
	}
	return -1.0
}
