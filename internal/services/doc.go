// Package services holds plumbing shared by external collaborator clients:
// the sentinel error taxonomy used to classify stage failures, and context
// carriers for per-run identifiers.
package services
