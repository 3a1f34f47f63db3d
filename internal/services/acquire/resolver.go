package acquire

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultBinary is the downloader executable name.
const DefaultBinary = "yt-dlp"

// supportedExtensions lists the audio containers accepted as local input.
var supportedExtensions = map[string]struct{}{
	".mp3":  {},
	".m4a":  {},
	".m4b":  {},
	".wav":  {},
	".flac": {},
	".ogg":  {},
	".aac":  {},
	".mp4":  {},
	".webm": {},
}

// Resolved describes an acquired audio artifact plus whatever metadata the
// downloader reported about the source page.
type Resolved struct {
	LocalPath       string
	Title           string
	Description     string
	UploaderName    string
	UploaderURL     string
	DurationSeconds int
	RawMetadataJSON string

	cleanup func()
}

// Cleanup releases the temporary download artifact. Safe to call more than
// once and on a nil receiver.
func (r *Resolved) Cleanup() {
	if r == nil || r.cleanup == nil {
		return
	}
	r.cleanup()
	r.cleanup = nil
}

// Resolver downloads remote audio references via yt-dlp.
type Resolver struct {
	binary string
	runner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewResolver constructs a resolver using the given downloader binary.
func NewResolver(binary string) *Resolver {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	return &Resolver{binary: binary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (r *Resolver) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	r.runner = runner
}

// IsRemote reports whether the input reference is a URL rather than a local
// path.
func IsRemote(ref string) bool {
	ref = strings.TrimSpace(strings.ToLower(ref))
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// ValidateLocal checks that a local input exists and carries a supported
// audio extension.
func ValidateLocal(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat input %q: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("input %q is a directory", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := supportedExtensions[ext]; !ok {
		return fmt.Errorf("unsupported audio extension %q (input %q)", ext, path)
	}
	return nil
}

// pageMetadata is the subset of yt-dlp's --print-json payload we consume.
type pageMetadata struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Uploader    string  `json:"uploader"`
	UploaderURL string  `json:"uploader_url"`
	ChannelURL  string  `json:"channel_url"`
	Duration    float64 `json:"duration"`
}

// Resolve downloads the remote reference into a temp directory and returns
// the local audio path, page metadata, and a cleanup callback removing the
// temp directory.
func (r *Resolver) Resolve(ctx context.Context, inputRef string) (*Resolved, error) {
	tmpDir, err := os.MkdirTemp("", "quill-audio-*")
	if err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	audioPath := filepath.Join(tmpDir, "audio.mp3")
	args := []string{
		"--no-playlist",
		"--no-progress",
		"--print-json",
		"-x",
		"--audio-format", "mp3",
		"-o", filepath.Join(tmpDir, "audio.%(ext)s"),
		inputRef,
	}
	stdout, err := r.run(ctx, r.binary, args...)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("download audio: %w", err)
	}
	if _, err := os.Stat(audioPath); err != nil {
		cleanup()
		return nil, fmt.Errorf("download audio: expected output missing: %w", err)
	}

	resolved := &Resolved{LocalPath: audioPath, cleanup: cleanup}
	raw := bytes.TrimSpace(stdout)
	if len(raw) > 0 {
		var meta pageMetadata
		if err := json.Unmarshal(raw, &meta); err == nil {
			resolved.Title = strings.TrimSpace(meta.Title)
			resolved.Description = strings.TrimSpace(meta.Description)
			resolved.UploaderName = strings.TrimSpace(meta.Uploader)
			resolved.UploaderURL = strings.TrimSpace(meta.UploaderURL)
			if resolved.UploaderURL == "" {
				resolved.UploaderURL = strings.TrimSpace(meta.ChannelURL)
			}
			resolved.DurationSeconds = int(meta.Duration)
			resolved.RawMetadataJSON = string(raw)
		}
	}
	return resolved, nil
}

func (r *Resolver) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.runner != nil {
		return r.runner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
