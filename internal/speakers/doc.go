// Package speakers resolves anonymous diarization labels to human names
// using the optional classifier. Resolution is conservative by contract:
// whenever evidence is missing, the classifier is absent, or the call fails,
// the label maps to itself with low confidence and the run continues.
package speakers
