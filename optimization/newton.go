package optimization

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/mqwu/photon-ml/data"
	"github.com/mqwu/photon-ml/normalization"
	"github.com/mqwu/photon-ml/pkg/errors"
	"github.com/mqwu/photon-ml/pkg/log"
)

// Newton minimizes a twice-differentiable objective with a modified Newton
// method. The objective must provide the full Hessian.
type Newton struct {
	cfg     optimizerConfig
	tracker *StateTracker
	ctx     *normalization.Context
	logger  log.Logger
}

// NewNewton returns a Newton optimizer with the given options.
func NewNewton(opts ...OptimizerOption) *Newton {
	cfg := defaultOptimizerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	o := &Newton{cfg: cfg, logger: log.GetLoggerWithName("optimization.newton")}
	if cfg.trackState {
		o.tracker = NewStateTracker()
	}
	return o
}

// Optimize minimizes obj over ds starting from start (zeros when nil).
func (o *Newton) Optimize(obj ObjectiveFunction, ds *data.Dataset, start *mat.VecDense) (*mat.VecDense, float64, error) {
	hess, ok := obj.(FullHessian)
	if !ok {
		return nil, 0, errors.NewValueError("optimization.newton", "objective does not provide a full hessian")
	}
	o.ctx = contextOf(obj)
	return minimize("newton", &optimize.Newton{}, obj, hess, ds, start, o.cfg, o.tracker, o.logger)
}

// IsTrackingState reports whether per-iteration states are recorded.
func (o *Newton) IsTrackingState() bool { return o.tracker != nil }

// StateTracker returns the iteration history of the latest run.
func (o *Newton) StateTracker() *StateTracker { return o.tracker }

// NormalizationContext returns the context of the last optimized objective.
func (o *Newton) NormalizationContext() *normalization.Context { return o.ctx }
