// Package transcript defines the core data model shared by the
// post-processing pipeline: speaker-attributed utterances, sentence units,
// and speaker mappings. The types here are plain values; mutation rules
// (who rewrites which field, and when) live with the pipeline stages.
package transcript
