// Package logging builds the slog loggers used across the pipeline: a
// human-oriented console handler for interactive runs and a JSON handler for
// machine consumption, with standardized field keys so run, stage, and
// correlation identifiers line up across components.
package logging
