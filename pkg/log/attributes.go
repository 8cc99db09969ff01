// Standard attribute keys for training telemetry. Using these keys keeps log
// output consistent across packages and queryable downstream. Keys follow a
// hierarchical naming convention ("model.name", "data.samples").

package log

// Model and operation context.
const (
	// ModelNameKey identifies the model type being trained or applied.
	// Examples: "LogisticRegression", "PoissonRegression"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "aggregate", "variance"
	OperationKey = "ml.operation"

	// ComponentKey identifies the package or component emitting the record.
	// Examples: "optimization.problem", "aggregate.driver"
	ComponentKey = "ml.component"
)

// Data shape.
const (
	// SamplesKey is the number of examples in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey is the model dimension (number of features).
	FeaturesKey = "data.features"

	// PartitionsKey is the number of data partitions in an aggregation pass.
	PartitionsKey = "data.partitions"
)

// Optimization progress.
const (
	// IterationsKey is the number of optimizer iterations performed.
	IterationsKey = "opt.iterations"

	// ObjectiveValueKey is the objective value at the reported point.
	ObjectiveValueKey = "opt.objective_value"

	// GradientNormKey is the L2 norm of the gradient at the reported point.
	GradientNormKey = "opt.gradient_norm"

	// OptimizerKey names the optimizer implementation.
	OptimizerKey = "opt.method"

	// TreeDepthKey is the fan-out depth used for the tree reduction.
	TreeDepthKey = "opt.tree_depth"

	// VarianceTypeKey names the requested variance computation fidelity.
	VarianceTypeKey = "opt.variance_type"
)

// Performance.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)
