package optimization

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/mqwu/photon-ml/data"
	"github.com/mqwu/photon-ml/normalization"
)

// Optimizer minimizes an objective over a dataset from a starting point and
// returns the optimal coefficients with the objective value there.
type Optimizer interface {
	Optimize(obj ObjectiveFunction, ds *data.Dataset, start *mat.VecDense) (*mat.VecDense, float64, error)

	// IsTrackingState reports whether per-iteration states are recorded.
	IsTrackingState() bool

	// StateTracker returns the recorded iteration history, nil when
	// tracking is disabled or no run has happened yet.
	StateTracker() *StateTracker

	// NormalizationContext returns the context of the last optimized
	// objective, nil before the first run.
	NormalizationContext() *normalization.Context
}

// normalizationProvider is implemented by objectives bound to a
// normalization context.
type normalizationProvider interface {
	NormalizationContext() *normalization.Context
}

func contextOf(obj ObjectiveFunction) *normalization.Context {
	if p, ok := obj.(normalizationProvider); ok {
		return p.NormalizationContext()
	}
	return nil
}

// IterationState is a snapshot of the optimizer at one major iteration.
type IterationState struct {
	Iteration    int
	Value        float64
	GradientNorm float64
	Coefficients []float64
}

// StateTracker records major-iteration snapshots during a run. It plugs into
// gonum's optimize loop as a Recorder.
type StateTracker struct {
	states []IterationState
}

// NewStateTracker returns an empty tracker.
func NewStateTracker() *StateTracker {
	return &StateTracker{}
}

// Init resets the tracker for a fresh run.
func (t *StateTracker) Init() error {
	t.states = t.states[:0]
	return nil
}

// Record appends a snapshot on every major iteration.
func (t *StateTracker) Record(loc *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if op&optimize.MajorIteration == 0 {
		return nil
	}
	coefs := make([]float64, len(loc.X))
	copy(coefs, loc.X)
	t.states = append(t.states, IterationState{
		Iteration:    stats.MajorIterations,
		Value:        loc.F,
		GradientNorm: gradientNorm(loc.Gradient),
		Coefficients: coefs,
	})
	return nil
}

// States returns the recorded snapshots in iteration order.
func (t *StateTracker) States() []IterationState {
	return t.states
}

// Last returns the most recent snapshot, or false when none exist.
func (t *StateTracker) Last() (IterationState, bool) {
	if len(t.states) == 0 {
		return IterationState{}, false
	}
	return t.states[len(t.states)-1], true
}

// NumIterations returns how many major iterations were recorded.
func (t *StateTracker) NumIterations() int {
	return len(t.states)
}

func gradientNorm(g []float64) float64 {
	if g == nil {
		return 0
	}
	return mat.Norm(mat.NewVecDense(len(g), g), 2)
}
