package organizer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"quill/internal/fileutil"
	"quill/internal/logging"
	"quill/internal/textutil"
)

// Organizer writes rendered transcripts into the output directory.
type Organizer struct {
	outputDir string
	logger    *slog.Logger
}

// New constructs an organizer rooted at the given output directory.
func New(outputDir string, logger *slog.Logger) *Organizer {
	if logger != nil {
		logger = logger.With(logging.String(logging.FieldComponent, "organizer"))
	}
	return &Organizer{outputDir: outputDir, logger: logger}
}

// TitleSources holds the candidate titles in descending precedence. The
// first non-empty candidate wins; the local path is the fallback of last
// resort.
type TitleSources struct {
	Override    string // explicit --title flag
	Acquisition string // title reported by the downloader metadata
	Podcast     string // collection name from the podcast directory lookup
	LocalPath   string // input file path, used to synthesize a title
}

// DeriveTitle picks the document title from the available sources.
func DeriveTitle(sources TitleSources) string {
	for _, candidate := range []string{sources.Override, sources.Acquisition, sources.Podcast} {
		if title := strings.TrimSpace(candidate); title != "" {
			return title
		}
	}
	return titleFromPath(sources.LocalPath)
}

// titleFromPath turns "my-podcast_episode.mp3" into "My Podcast Episode".
func titleFromPath(path string) string {
	base := filepath.Base(strings.TrimSpace(path))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("-", " ", "_", " ", ".", " ").Replace(base)
	base = textutil.CollapseWhitespace(base)
	if base == "" {
		return "Untitled Transcript"
	}
	return cases.Title(language.Und).String(base)
}

// Save renders the title into a collision-safe path under the output
// directory and writes the content atomically. The chosen path is returned.
func (o *Organizer) Save(title, extension string, content []byte) (string, error) {
	if err := os.MkdirAll(o.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path, err := o.targetPath(title, extension)
	if err != nil {
		return "", err
	}
	if err := fileutil.WriteFileAtomic(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	if o.logger != nil {
		o.logger.Info("transcript saved", logging.String("path", path))
	}
	return path, nil
}

// targetPath probes for an unused filename, appending " (2)", " (3)", ...
// when the base name is taken.
func (o *Organizer) targetPath(title, extension string) (string, error) {
	name := textutil.SanitizeFileName(title)
	if name == "" {
		name = "untitled"
	}

	candidate := filepath.Join(o.outputDir, name+extension)
	for attempt := 2; ; attempt++ {
		if _, err := os.Stat(candidate); err != nil {
			if os.IsNotExist(err) {
				return candidate, nil
			}
			return "", fmt.Errorf("probe output path: %w", err)
		}
		candidate = filepath.Join(o.outputDir, fmt.Sprintf("%s (%d)%s", name, attempt, extension))
	}
}
