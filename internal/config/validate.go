package config

import (
	"fmt"
	"strings"
)

var validOutputFormats = map[string]struct{}{
	"markdown": {},
	"text":     {},
	"json":     {},
}

var validLogFormats = map[string]struct{}{
	"console": {},
	"json":    {},
}

var validLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate checks a normalized config for unusable values. Missing API keys
// are not a validation failure here; the commands that need them check at the
// point of use so read-only commands keep working.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return fmt.Errorf("config: paths.data_dir required")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return fmt.Errorf("config: paths.output_dir required")
	}
	if _, ok := validOutputFormats[c.Output.Format]; !ok {
		return fmt.Errorf("config: output.format: unsupported value %q (markdown, text, json)", c.Output.Format)
	}
	if _, ok := validLogFormats[c.Logging.Format]; !ok {
		return fmt.Errorf("config: logging.format: unsupported value %q (console, json)", c.Logging.Format)
	}
	if _, ok := validLogLevels[c.Logging.Level]; !ok {
		return fmt.Errorf("config: logging.level: unsupported value %q (debug, info, warn, error)", c.Logging.Level)
	}
	if c.Reflower.MinParagraphChars >= c.Reflower.MaxPassageChars {
		return fmt.Errorf("config: reflower.min_paragraph_chars must be below reflower.max_passage_chars")
	}
	return nil
}
