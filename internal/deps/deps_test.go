package deps_test

import (
	"os"
	"path/filepath"
	"testing"

	"quill/internal/deps"
	"quill/internal/testsupport"
)

func TestCheckFindsStubbedBinary(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "yt-dlp")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	results := deps.Check([]deps.Requirement{
		{Name: "Downloader", Command: "yt-dlp"},
		{Name: "Missing", Command: "definitely-not-installed"},
		{Name: "Unset"},
	})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].Available || results[0].Command != stub {
		t.Errorf("stubbed binary not resolved: %+v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Errorf("missing binary reported available: %+v", results[1])
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Errorf("unset command: %+v", results[2])
	}
}

func TestRequirementsUseConfiguredDownloader(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Acquisition.DownloaderBinary = "youtube-dl"

	requirements := deps.Requirements(cfg)
	if len(requirements) == 0 {
		t.Fatal("no requirements returned")
	}
	if requirements[0].Command != "youtube-dl" {
		t.Errorf("downloader command = %q", requirements[0].Command)
	}

	fallback := deps.Requirements(nil)
	if fallback[0].Command != "yt-dlp" {
		t.Errorf("default downloader = %q", fallback[0].Command)
	}
}
