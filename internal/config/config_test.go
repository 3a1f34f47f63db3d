package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quill/internal/config"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if cfg.Output.Format != "markdown" {
		t.Fatalf("unexpected default format: %q", cfg.Output.Format)
	}
	if cfg.Segmenter.MaxChunkChars != 4000 {
		t.Fatalf("unexpected default chunk threshold: %d", cfg.Segmenter.MaxChunkChars)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Fatalf("expected expanded data dir, got %q", cfg.Paths.DataDir)
	}
}

func TestLoadParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quill.toml")
	content := `
[output]
format = "json"
timestamps = false

[segmenter]
max_chunk_chars = 1234
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: exists=%v path=%q", exists, resolved)
	}
	if cfg.Output.Format != "json" || cfg.Output.Timestamps {
		t.Fatalf("unexpected output config: %+v", cfg.Output)
	}
	if cfg.Segmenter.MaxChunkChars != 1234 {
		t.Fatalf("unexpected chunk threshold: %d", cfg.Segmenter.MaxChunkChars)
	}
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quill.toml")
	if err := os.WriteFile(path, []byte("[output]\nformat = \"pdf\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "output.format") {
		t.Fatalf("expected format validation error, got %v", err)
	}
}

func TestEnvOverridesAPIKeys(t *testing.T) {
	t.Setenv(config.EnvTranscriberAPIKey, "env-transcriber")
	t.Setenv(config.EnvLLMAPIKey, "env-llm")

	path := filepath.Join(t.TempDir(), "quill.toml")
	content := `
[transcriber]
api_key = "file-transcriber"

[llm]
api_key = "file-llm"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Transcriber.APIKey != "env-transcriber" {
		t.Fatalf("expected env override, got %q", cfg.Transcriber.APIKey)
	}
	if cfg.LLM.APIKey != "env-llm" {
		t.Fatalf("expected env override, got %q", cfg.LLM.APIKey)
	}
	if !cfg.ClassifierConfigured() {
		t.Fatal("expected classifier to be configured")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[transcriber]") {
		t.Fatalf("sample missing transcriber section")
	}
}
