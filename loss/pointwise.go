// Package loss provides pointwise loss functions for generalized linear
// models. A pointwise loss is a pure scalar function of (margin, label); the
// aggregation layer folds its value and derivatives over a dataset.
package loss

// Pointwise is a scalar loss as a function of the margin and the label. It
// must be pure and side-effect free: the aggregation layer evaluates it from
// many goroutines concurrently.
type Pointwise interface {
	// LossAndDerivative returns the loss and its first derivative with
	// respect to the margin.
	LossAndDerivative(margin, label float64) (loss, dLossDMargin float64)

	// Name identifies the loss for logging and error messages.
	Name() string
}

// TwiceDiff is a pointwise loss that additionally exposes its second
// derivative with respect to the margin. Losses implementing TwiceDiff enable
// Hessian-vector products, Hessian diagonals, and full Hessian matrices in
// the objective layer.
type TwiceDiff interface {
	Pointwise

	// SecondDerivative returns d²loss/dmargin² at the given point.
	SecondDerivative(margin, label float64) float64
}
