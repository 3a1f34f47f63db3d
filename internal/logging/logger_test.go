package logging

import (
	"context"
	"strings"
	"testing"

	"quill/internal/services"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "DEBUG",
		"info":    "INFO",
		"WARN":    "WARN",
		"error":   "ERROR",
		"unknown": "INFO",
		"":        "INFO",
	}
	for input, expected := range cases {
		if got := parseLevel(input).String(); !strings.EqualFold(got, expected) {
			t.Errorf("parseLevel(%q) = %q, want %q", input, got, expected)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestContextFields(t *testing.T) {
	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithStage(ctx, "segmenting")
	ctx = services.WithCorrelationID(ctx, "abc")

	fields := ContextFields(ctx)
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}
	keys := make(map[string]string, len(fields))
	for _, field := range fields {
		keys[field.Key] = field.Value.String()
	}
	if keys[FieldRunID] != "run-1" || keys[FieldStage] != "segmenting" || keys[FieldCorrelationID] != "abc" {
		t.Fatalf("unexpected field values: %v", keys)
	}
}

func TestWithContextNilLogger(t *testing.T) {
	logger := WithContext(context.Background(), nil)
	if logger == nil {
		t.Fatal("expected non-nil fallback logger")
	}
	// Must not panic.
	logger.Info("noop")
}
