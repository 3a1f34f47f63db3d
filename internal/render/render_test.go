package render_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"quill/internal/render"
	"quill/internal/transcript"
)

func sampleDocument() render.Document {
	return render.Document{
		Title:           "Episode 42",
		SourceURL:       "https://example.com/ep42",
		SourceType:      "url",
		Channel:         "Example Show",
		DurationSeconds: 3725,
		CreatedAt:       time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		Speakers:        []string{"Jane Doe", "John Smith"},
		Utterances: []transcript.Utterance{
			{Speaker: "Jane Doe", Text: "Welcome to the show.", StartMs: 0, EndMs: 2500},
			{Speaker: "John Smith", Text: "Glad to be here.", StartMs: 2500, EndMs: 4200},
			{Speaker: "Jane Doe", Text: "Let's dive in.", StartMs: 3675000, EndMs: 3680000},
		},
	}
}

func TestMarkdownFrontmatterAndTimestamps(t *testing.T) {
	out := render.Markdown(sampleDocument(), true)

	for _, want := range []string{
		"title: Episode 42",
		"date: 2026-08-20",
		"channel: Example Show",
		"duration: 1:02:05",
		"  - Jane Doe",
		"  - John Smith",
		"[00:00] **Jane Doe**: Welcome to the show.",
		"[00:02] **John Smith**: Glad to be here.",
		"[1:01:15] **Jane Doe**: Let's dive in.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q\n---\n%s", want, out)
		}
	}
}

func TestMarkdownWithoutTimestamps(t *testing.T) {
	out := render.Markdown(sampleDocument(), false)
	if strings.Contains(out, "[00:00]") {
		t.Fatal("timestamps should be omitted")
	}
	if !strings.Contains(out, "**Jane Doe**: Welcome to the show.") {
		t.Fatal("speaker line missing")
	}
}

func TestTextFormat(t *testing.T) {
	out := render.Text(sampleDocument(), true)
	if !strings.Contains(out, "Episode 42\n==========") {
		t.Fatalf("missing underlined title:\n%s", out)
	}
	if !strings.Contains(out, "[00:00] Jane Doe: Welcome to the show.") {
		t.Fatalf("missing speaker line:\n%s", out)
	}
}

func TestJSONEnvelopeFieldNames(t *testing.T) {
	data, err := render.JSON(sampleDocument())
	if err != nil {
		t.Fatalf("JSON failed: %v", err)
	}
	var envelope map[string]any
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("round-trip failed: %v", err)
	}
	speakers, ok := envelope["speakers"].([]any)
	if !ok || len(speakers) != 2 {
		t.Fatalf("expected top-level speakers list, got %v", envelope["speakers"])
	}
	utterances, ok := envelope["utterances"].([]any)
	if !ok || len(utterances) != 3 {
		t.Fatalf("expected 3 utterances, got %v", envelope["utterances"])
	}
	first, ok := utterances[0].(map[string]any)
	if !ok {
		t.Fatalf("unexpected utterance shape: %v", utterances[0])
	}
	for _, key := range []string{"speaker", "text", "start", "end"} {
		if _, present := first[key]; !present {
			t.Errorf("utterance missing stable field %q", key)
		}
	}
}

func TestRenderDispatch(t *testing.T) {
	doc := sampleDocument()
	for format, ext := range map[string]string{"markdown": ".md", "text": ".txt", "json": ".json"} {
		if _, err := render.Render(format, doc, true); err != nil {
			t.Errorf("Render(%q) failed: %v", format, err)
		}
		if got := render.Extension(format); got != ext {
			t.Errorf("Extension(%q) = %q, want %q", format, got, ext)
		}
	}
	if _, err := render.Render("pdf", doc, true); err == nil {
		t.Error("expected error for unsupported format")
	}
}
