package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"quill/internal/workflow"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var (
		noDiarize bool
		force     bool
		format    string
		outputDir string
		title     string
		hints     string
		keepAudio bool
	)

	cmd := &cobra.Command{
		Use:   "transcribe <url-or-path>",
		Short: "Transcribe a remote URL or local audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			runner := workflow.New(cfg, st, logger)
			result, err := runner.Run(cmd.Context(), workflow.Request{
				InputRef:  strings.TrimSpace(args[0]),
				Diarize:   !noDiarize,
				Force:     force,
				Format:    normalizeFormat(format),
				OutputDir: outputDir,
				Title:     title,
				Hints:     hints,
				KeepAudio: keepAudio,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Saved %s\n", result.FilePath)
			if len(result.Speakers) > 0 {
				fmt.Fprintf(out, "Speakers: %s\n", strings.Join(result.Speakers, ", "))
			}
			if result.DurationSeconds > 0 {
				fmt.Fprintf(out, "Duration: %s\n", time.Duration(result.DurationSeconds)*time.Second)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noDiarize, "no-diarize", false, "Disable speaker diarization")
	cmd.Flags().BoolVar(&force, "force", false, "Re-transcribe even if the source was already processed")
	cmd.Flags().StringVar(&format, "format", "", "Output format: md, txt, or json (default from config)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for the rendered document")
	cmd.Flags().StringVar(&title, "title", "", "Override the derived document title")
	cmd.Flags().StringVar(&hints, "hints", "", "Free-text hints to help identify speakers")
	cmd.Flags().BoolVar(&keepAudio, "keep-audio", false, "Copy the downloaded audio next to the transcript")

	return cmd
}

// normalizeFormat maps the short flag spellings onto renderer names.
func normalizeFormat(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "md", "markdown":
		return "markdown"
	case "txt", "text":
		return "text"
	case "json":
		return "json"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
