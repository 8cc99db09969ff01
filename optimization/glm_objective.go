package optimization

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mqwu/photon-ml/aggregate"
	"github.com/mqwu/photon-ml/data"
	"github.com/mqwu/photon-ml/loss"
	"github.com/mqwu/photon-ml/normalization"
)

// ObjectiveOption configures a GLM objective.
type ObjectiveOption func(*glmConfig)

type glmConfig struct {
	l2Weight  float64
	treeDepth int
}

// WithL2Regularization adds an L2 penalty with the given weight. The
// penalty applies to the original-space image of the coefficients, so a
// fit under a normalization context and a fit on raw features share the
// same optimum. The intercept coordinate, when the normalization context
// names one, is excluded from the penalty.
func WithL2Regularization(weight float64) ObjectiveOption {
	return func(c *glmConfig) { c.l2Weight = weight }
}

// WithObjectiveTreeDepth sets the tree-reduction depth for aggregation
// passes. Depth changes floating-point rounding only, never results.
func WithObjectiveTreeDepth(depth int) ObjectiveOption {
	return func(c *glmConfig) { c.treeDepth = depth }
}

// glmObjective holds the state shared by the first-order and second-order
// GLM objectives: the pointwise loss, the normalization context bound to
// every aggregation pass, and the optional ridge penalty. Coefficients flow
// through in normalized model space; the aggregators produce gradients and
// curvature already mapped back to original feature space.
type glmObjective struct {
	pw  loss.Pointwise
	ctx *normalization.Context
	cfg glmConfig
}

// GLM constructs the objective for a pointwise loss. Losses that carry
// second derivatives yield an objective with full Hessian capabilities;
// first-order losses yield a gradient-only objective, and variance
// computation silently degrades for them.
func GLM(pw loss.Pointwise, ctx *normalization.Context, opts ...ObjectiveOption) ObjectiveFunction {
	if ctx == nil {
		ctx = normalization.NoNormalization()
	}
	cfg := glmConfig{treeDepth: aggregate.DefaultTreeDepth}
	for _, opt := range opts {
		opt(&cfg)
	}
	base := glmObjective{pw: pw, ctx: ctx, cfg: cfg}
	if td, ok := pw.(loss.TwiceDiff); ok {
		return &GLMObjective{glmObjective: base, td: td}
	}
	return &FirstOrderGLMObjective{glmObjective: base}
}

// DomainDimension returns the coefficient dimension for the dataset.
func (o *glmObjective) DomainDimension(ds *data.Dataset) int {
	return ds.Dim()
}

// NormalizationContext returns the context bound to every aggregation pass.
func (o *glmObjective) NormalizationContext() *normalization.Context {
	return o.ctx
}

// ValueAndGradient evaluates the penalized objective and its gradient in
// one aggregation pass.
func (o *glmObjective) ValueAndGradient(ds *data.Dataset, coef *mat.VecDense) (float64, *mat.VecDense, error) {
	value, grad, err := aggregate.ValueAndGradient(ds, coef, o.pw, o.ctx)
	if err != nil {
		return 0, nil, err
	}
	if o.cfg.l2Weight > 0 {
		value += o.penaltyValue(coef)
		o.addPenaltyGradient(grad, coef)
	}
	return value, grad, nil
}

// penaltyWeight is the per-coordinate ridge weight. In normalized model
// space the original-space coefficient is coef_j * scale_j, so penalizing
// its square puts a weight of l2 * scale_j^2 on coordinate j. The intercept
// coordinate carries no penalty.
func (o *glmObjective) penaltyWeight(j int) float64 {
	if j == o.ctx.InterceptIndex() {
		return 0
	}
	if !o.ctx.HasScale() {
		return o.cfg.l2Weight
	}
	s := o.ctx.ScaleFactors().AtVec(j)
	return o.cfg.l2Weight * s * s
}

func (o *glmObjective) penaltyValue(coef *mat.VecDense) float64 {
	sum := 0.0
	for j := 0; j < coef.Len(); j++ {
		w := coef.AtVec(j)
		sum += o.penaltyWeight(j) * w * w
	}
	return 0.5 * sum
}

func (o *glmObjective) addPenaltyGradient(grad, coef *mat.VecDense) {
	for j := 0; j < grad.Len(); j++ {
		grad.SetVec(j, grad.AtVec(j)+o.penaltyWeight(j)*coef.AtVec(j))
	}
}

// FirstOrderGLMObjective is the gradient-only GLM objective produced for
// losses without second derivatives.
type FirstOrderGLMObjective struct {
	glmObjective
}

// GLMObjective is the twice-differentiable GLM objective. It exposes the
// Hessian diagonal, the full Hessian, and matrix-free Hessian-vector
// products on top of value and gradient.
type GLMObjective struct {
	glmObjective
	td loss.TwiceDiff
}

// HessianDiagonal computes the penalized Hessian diagonal at coef.
func (o *GLMObjective) HessianDiagonal(ds *data.Dataset, coef *mat.VecDense) (*mat.VecDense, error) {
	diag, err := aggregate.HessianDiagonal(ds, coef, o.td, o.ctx)
	if err != nil {
		return nil, err
	}
	if o.cfg.l2Weight > 0 {
		for j := 0; j < diag.Len(); j++ {
			diag.SetVec(j, diag.AtVec(j)+o.penaltyWeight(j))
		}
	}
	return diag, nil
}

// HessianMatrix computes the penalized full Hessian at coef.
func (o *GLMObjective) HessianMatrix(ds *data.Dataset, coef *mat.VecDense) (*mat.SymDense, error) {
	h, err := aggregate.HessianMatrix(ds, coef, o.td, o.ctx)
	if err != nil {
		return nil, err
	}
	if o.cfg.l2Weight > 0 {
		n := h.SymmetricDim()
		for j := 0; j < n; j++ {
			h.SetSym(j, j, h.At(j, j)+o.penaltyWeight(j))
		}
	}
	return h, nil
}

// HessianVector computes the penalized product H*direction without forming
// the Hessian.
func (o *GLMObjective) HessianVector(ds *data.Dataset, coef, direction *mat.VecDense) (*mat.VecDense, error) {
	hv, err := aggregate.HessianVector(ds, coef, direction, o.td, o.ctx)
	if err != nil {
		return nil, err
	}
	if o.cfg.l2Weight > 0 {
		for j := 0; j < hv.Len(); j++ {
			hv.SetVec(j, hv.AtVec(j)+o.penaltyWeight(j)*direction.AtVec(j))
		}
	}
	return hv, nil
}
