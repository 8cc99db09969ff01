package optimization

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/mqwu/photon-ml/data"
	"github.com/mqwu/photon-ml/normalization"
	"github.com/mqwu/photon-ml/pkg/log"
)

// LBFGS minimizes an objective with limited-memory BFGS. It needs only
// first-order information, so any ObjectiveFunction works.
type LBFGS struct {
	cfg     optimizerConfig
	tracker *StateTracker
	ctx     *normalization.Context
	logger  log.Logger
}

// NewLBFGS returns an L-BFGS optimizer with the given options.
func NewLBFGS(opts ...OptimizerOption) *LBFGS {
	cfg := defaultOptimizerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	o := &LBFGS{cfg: cfg, logger: log.GetLoggerWithName("optimization.lbfgs")}
	if cfg.trackState {
		o.tracker = NewStateTracker()
	}
	return o
}

// Optimize minimizes obj over ds starting from start (zeros when nil).
func (o *LBFGS) Optimize(obj ObjectiveFunction, ds *data.Dataset, start *mat.VecDense) (*mat.VecDense, float64, error) {
	o.ctx = contextOf(obj)
	return minimize("lbfgs", &optimize.LBFGS{}, obj, nil, ds, start, o.cfg, o.tracker, o.logger)
}

// IsTrackingState reports whether per-iteration states are recorded.
func (o *LBFGS) IsTrackingState() bool { return o.tracker != nil }

// StateTracker returns the iteration history of the latest run.
func (o *LBFGS) StateTracker() *StateTracker { return o.tracker }

// NormalizationContext returns the context of the last optimized objective.
func (o *LBFGS) NormalizationContext() *normalization.Context { return o.ctx }
