package config

const (
	defaultDataDir            = "~/.local/share/quill"
	defaultOutputDir          = "~/transcripts"
	defaultLogDir             = "~/.local/share/quill/logs"
	defaultTranscriberBaseURL = "https://api.assemblyai.com/v2"
	defaultPollInterval       = 3
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "google/gemini-3-flash-preview"
	defaultLLMTimeoutSeconds  = 120
	defaultDownloaderBinary   = "yt-dlp"
	defaultOutputFormat       = "markdown"
	defaultMaxChunkChars      = 4000
	defaultMaxPassageChars    = 2000
	defaultMinParagraphChars  = 150
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Transcriber: Transcriber{
			BaseURL:             defaultTranscriberBaseURL,
			PollIntervalSeconds: defaultPollInterval,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Acquisition: Acquisition{
			DownloaderBinary: defaultDownloaderBinary,
			ITunesLookup:     true,
		},
		Output: Output{
			Format:     defaultOutputFormat,
			Timestamps: true,
		},
		Segmenter: Segmenter{
			MaxChunkChars: defaultMaxChunkChars,
		},
		Reflower: Reflower{
			MaxPassageChars:   defaultMaxPassageChars,
			MinParagraphChars: defaultMinParagraphChars,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
