// Package log defines standard attribute keys for pipeline operations.
//
// Using these keys consistently keeps the run logs filterable: every fit,
// transform, and scoring step reports its data shape and resulting metric
// under the same names.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator or transformer type.
	// Examples: "GBMRegressor", "MEstimateEncoder", "KMeans"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "boosting.trainer", "pipeline", "crossval"
	ComponentKey = "ml.component"
)

// Data shape.
const (
	// SamplesKey indicates the number of samples (rows) being processed.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) being processed.
	FeaturesKey = "data.features"
)

// Metrics and training progress.
const (
	// LossKey records a loss value during training or evaluation.
	LossKey = "metrics.loss"

	// RMSLEKey records the cross-validated root mean squared log error.
	RMSLEKey = "metrics.rmsle"

	// FoldKey records the cross-validation fold index.
	FoldKey = "cv.fold"

	// IterationKey records the boosting iteration.
	IterationKey = "training.iteration"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Error context.
const (
	// ErrorKey is the field name used for error values.
	ErrorKey = "error"

	// StacktraceKey is the field name used for extracted stack traces.
	StacktraceKey = "stacktrace"
)
