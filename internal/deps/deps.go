// Package deps reports the availability of the external binaries quill
// shells out to. Remote acquisition needs the downloader and, for audio
// extraction, ffmpeg; local-file transcription needs neither.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"quill/internal/config"
)

// Requirement defines an external binary quill relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Requirement
	Available bool
	Detail    string
}

// Requirements lists the binaries for the given configuration.
func Requirements(cfg *config.Config) []Requirement {
	downloader := config.Default().Acquisition.DownloaderBinary
	if cfg != nil && strings.TrimSpace(cfg.Acquisition.DownloaderBinary) != "" {
		downloader = cfg.Acquisition.DownloaderBinary
	}
	return []Requirement{
		{
			Name:        "Downloader",
			Command:     downloader,
			Description: "Fetches remote audio; only URL inputs need it",
			Optional:    true,
		},
		{
			Name:        "FFmpeg",
			Command:     "ffmpeg",
			Description: "Audio extraction during download",
			Optional:    true,
		},
	}
}

// Check evaluates requirements against PATH.
func Check(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		status := Status{Requirement: req}
		status.Command = strings.TrimSpace(req.Command)
		if status.Command == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if resolved, err := exec.LookPath(status.Command); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		} else {
			status.Available = true
			status.Command = resolved
		}
		results = append(results, status)
	}
	return results
}
