package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks bad or unusable input detected before paid work.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing credentials or unusable settings.
	ErrConfiguration = errors.New("configuration error")
	// ErrExternalTool marks a collaborator (transcriber, downloader) failure
	// that is fatal for the run.
	ErrExternalTool = errors.New("external tool error")
	// ErrConflict marks a duplicate-source abort; overridable with --force.
	ErrConflict = errors.New("conflict")
	// ErrNotFound marks a missing record or file.
	ErrNotFound = errors.New("not found")
	// ErrTimeout marks a collaborator deadline expiry.
	ErrTimeout = errors.New("timeout")
	// ErrTransient marks failures that may succeed on a clean re-run.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatalInput reports whether the error belongs to the abort-before-paid-work
// class.
func IsFatalInput(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrConfiguration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
