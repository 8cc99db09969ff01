// Package optimization wires objective functions, optimizers, and the
// variance-routing policy into runnable training problems. The optimizers
// themselves are external collaborators (gonum's optimize package); this
// package supplies the aggregation-backed objectives they evaluate and the
// post-convergence coefficient-variance computation.
package optimization

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mqwu/photon-ml/data"
)

// ObjectiveFunction is the first-order contract every trainable objective
// provides: its domain dimension and a single-pass value-and-gradient
// evaluation.
type ObjectiveFunction interface {
	// DomainDimension returns the coefficient dimension for the dataset.
	DomainDimension(ds *data.Dataset) int

	// ValueAndGradient evaluates the objective and its gradient at coef in
	// one pass over the data.
	ValueAndGradient(ds *data.Dataset, coef *mat.VecDense) (float64, *mat.VecDense, error)
}

// DiagonalHessian is the capability of producing the objective's Hessian
// diagonal, required for SIMPLE variance computation.
type DiagonalHessian interface {
	HessianDiagonal(ds *data.Dataset, coef *mat.VecDense) (*mat.VecDense, error)
}

// FullHessian is the capability of producing the objective's full Hessian
// matrix, required for FULL variance computation and for Newton steps.
type FullHessian interface {
	HessianMatrix(ds *data.Dataset, coef *mat.VecDense) (*mat.SymDense, error)
}

// HessianVectorProduct is the capability of computing H*direction without
// forming the Hessian, the contract truncated-Newton optimizers need.
type HessianVectorProduct interface {
	HessianVector(ds *data.Dataset, coef, direction *mat.VecDense) (*mat.VecDense, error)
}

// ObjectiveKind is the closed set of differentiability capability levels an
// objective can provide. It is resolved once per objective instance; the
// variance routing in OptimizationProblem switches exhaustively over it
// instead of scattering dynamic type tests.
type ObjectiveKind int

const (
	// FirstOrderOnly objectives expose value and gradient only.
	FirstOrderOnly ObjectiveKind = iota

	// DiagonalSecondOrder objectives additionally expose the Hessian diagonal.
	DiagonalSecondOrder

	// FullSecondOrder objectives expose the full Hessian (and its diagonal).
	FullSecondOrder
)

// String returns the kind's name.
func (k ObjectiveKind) String() string {
	switch k {
	case FirstOrderOnly:
		return "first_order"
	case DiagonalSecondOrder:
		return "diagonal_second_order"
	case FullSecondOrder:
		return "full_second_order"
	default:
		return "unknown"
	}
}

// ResolveObjectiveKind inspects which capabilities the concrete objective
// implements.
func ResolveObjectiveKind(obj ObjectiveFunction) ObjectiveKind {
	if _, ok := obj.(FullHessian); ok {
		return FullSecondOrder
	}
	if _, ok := obj.(DiagonalHessian); ok {
		return DiagonalSecondOrder
	}
	return FirstOrderOnly
}
