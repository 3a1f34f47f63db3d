package config

import (
	"os"
	"strings"
)

// Environment variables that override file-based secrets.
const (
	EnvTranscriberAPIKey = "ASSEMBLYAI_API_KEY"
	EnvLLMAPIKey         = "QUILL_LLM_API_KEY"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return err
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return err
	}

	c.Transcriber.APIKey = strings.TrimSpace(c.Transcriber.APIKey)
	c.Transcriber.BaseURL = strings.TrimRight(strings.TrimSpace(c.Transcriber.BaseURL), "/")
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	c.Acquisition.DownloaderBinary = strings.TrimSpace(c.Acquisition.DownloaderBinary)
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	if env := strings.TrimSpace(os.Getenv(EnvTranscriberAPIKey)); env != "" {
		c.Transcriber.APIKey = env
	}
	if env := strings.TrimSpace(os.Getenv(EnvLLMAPIKey)); env != "" {
		c.LLM.APIKey = env
	}

	if c.Transcriber.PollIntervalSeconds <= 0 {
		c.Transcriber.PollIntervalSeconds = defaultPollInterval
	}
	if c.Segmenter.MaxChunkChars <= 0 {
		c.Segmenter.MaxChunkChars = defaultMaxChunkChars
	}
	if c.Reflower.MaxPassageChars <= 0 {
		c.Reflower.MaxPassageChars = defaultMaxPassageChars
	}
	if c.Reflower.MinParagraphChars <= 0 {
		c.Reflower.MinParagraphChars = defaultMinParagraphChars
	}
	if c.Acquisition.DownloaderBinary == "" {
		c.Acquisition.DownloaderBinary = defaultDownloaderBinary
	}
	return nil
}
