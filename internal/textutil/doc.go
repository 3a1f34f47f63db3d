// Package textutil provides small text and filename helpers shared across
// the pipeline.
package textutil
