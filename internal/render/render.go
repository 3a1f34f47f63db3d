package render

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"quill/internal/transcript"
)

// Document is everything the renderers need to produce a saved transcript.
type Document struct {
	Title            string
	SourceURL        string
	SourceType       string
	Channel          string
	ChannelURL       string
	Description      string
	DurationSeconds  int
	CreatedAt        time.Time
	Speakers         []string
	SpeakerRationale string
	Utterances       []transcript.Utterance
}

// Extension returns the file extension for a rendered format.
func Extension(format string) string {
	switch format {
	case "json":
		return ".json"
	case "text":
		return ".txt"
	default:
		return ".md"
	}
}

// Render dispatches on the configured format.
func Render(format string, doc Document, timestamps bool) ([]byte, error) {
	switch format {
	case "markdown":
		return []byte(Markdown(doc, timestamps)), nil
	case "text":
		return []byte(Text(doc, timestamps)), nil
	case "json":
		return JSON(doc)
	default:
		return nil, fmt.Errorf("render: unsupported format %q", format)
	}
}

// Markdown renders the document with a frontmatter block followed by
// speaker-attributed passages.
func Markdown(doc Document, timestamps bool) string {
	var b strings.Builder
	b.WriteString("---\n")
	writeFrontmatter(&b, "title", doc.Title)
	writeFrontmatter(&b, "date", doc.CreatedAt.UTC().Format("2006-01-02"))
	writeFrontmatter(&b, "source", doc.SourceURL)
	writeFrontmatter(&b, "channel", doc.Channel)
	if doc.DurationSeconds > 0 {
		writeFrontmatter(&b, "duration", formatDuration(doc.DurationSeconds))
	}
	if len(doc.Speakers) > 0 {
		b.WriteString("speakers:\n")
		for _, speaker := range doc.Speakers {
			b.WriteString("  - ")
			b.WriteString(quoteIfNeeded(speaker))
			b.WriteByte('\n')
		}
	}
	b.WriteString("---\n\n")

	if doc.Title != "" {
		b.WriteString("# ")
		b.WriteString(doc.Title)
		b.WriteString("\n\n")
	}
	writeUtterances(&b, doc.Utterances, timestamps, "**", "**")
	return b.String()
}

// Text renders a plain-text document with a minimal header.
func Text(doc Document, timestamps bool) string {
	var b strings.Builder
	if doc.Title != "" {
		b.WriteString(doc.Title)
		b.WriteByte('\n')
		b.WriteString(strings.Repeat("=", len(doc.Title)))
		b.WriteString("\n\n")
	}
	if doc.SourceURL != "" {
		b.WriteString("Source: ")
		b.WriteString(doc.SourceURL)
		b.WriteString("\n\n")
	}
	writeUtterances(&b, doc.Utterances, timestamps, "", "")
	return b.String()
}

type jsonUtterance struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	StartMs int    `json:"start"`
	EndMs   int    `json:"end"`
}

type jsonEnvelope struct {
	Title            string          `json:"title"`
	SourceURL        string          `json:"source_url,omitempty"`
	SourceType       string          `json:"source_type"`
	Channel          string          `json:"channel,omitempty"`
	ChannelURL       string          `json:"channel_url,omitempty"`
	Description      string          `json:"description,omitempty"`
	DurationSeconds  int             `json:"duration_seconds"`
	CreatedAt        string          `json:"created_at"`
	Speakers         []string        `json:"speakers"`
	SpeakerRationale string          `json:"speaker_rationale,omitempty"`
	Utterances       []jsonUtterance `json:"utterances"`
}

// JSON renders the machine-readable envelope.
func JSON(doc Document) ([]byte, error) {
	utterances := make([]jsonUtterance, 0, len(doc.Utterances))
	for _, utt := range doc.Utterances {
		utterances = append(utterances, jsonUtterance{
			Speaker: utt.Speaker,
			Text:    utt.Text,
			StartMs: utt.StartMs,
			EndMs:   utt.EndMs,
		})
	}
	speakers := doc.Speakers
	if speakers == nil {
		speakers = []string{}
	}
	envelope := jsonEnvelope{
		Title:            doc.Title,
		SourceURL:        doc.SourceURL,
		SourceType:       doc.SourceType,
		Channel:          doc.Channel,
		ChannelURL:       doc.ChannelURL,
		Description:      doc.Description,
		DurationSeconds:  doc.DurationSeconds,
		CreatedAt:        doc.CreatedAt.UTC().Format(time.RFC3339),
		Speakers:         speakers,
		SpeakerRationale: doc.SpeakerRationale,
		Utterances:       utterances,
	}
	return json.MarshalIndent(envelope, "", "  ")
}

func writeUtterances(b *strings.Builder, utterances []transcript.Utterance, timestamps bool, speakerOpen, speakerClose string) {
	for i, utt := range utterances {
		if i > 0 {
			b.WriteByte('\n')
		}
		if timestamps {
			b.WriteString(transcript.FormatTimestamp(utt.StartMs))
			b.WriteByte(' ')
		}
		b.WriteString(speakerOpen)
		b.WriteString(utt.Speaker)
		b.WriteString(speakerClose)
		b.WriteString(": ")
		b.WriteString(utt.Text)
		b.WriteByte('\n')
	}
}

func writeFrontmatter(b *strings.Builder, key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(quoteIfNeeded(value))
	b.WriteByte('\n')
}

func quoteIfNeeded(value string) string {
	if strings.ContainsAny(value, ":#\"'\n") {
		return fmt.Sprintf("%q", value)
	}
	return value
}

func formatDuration(seconds int) string {
	d := time.Duration(seconds) * time.Second
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	secs := int(d.Seconds()) % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
