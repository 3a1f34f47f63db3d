package workflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"quill/internal/logging"
	"quill/internal/reflow"
	"quill/internal/segment"
	"quill/internal/services"
	"quill/internal/services/acquire"
	"quill/internal/services/assemblyai"
	"quill/internal/speakers"
	"quill/internal/store"
	"quill/internal/testsupport"
	"quill/internal/transcript"
	"quill/internal/workflow"
)

type stubTranscriber struct {
	configured      bool
	transcribeCalls int
	transcript      *assemblyai.Transcript
	transcribeErr   error
	sentences       []assemblyai.Sentence
	sentencesErr    error
}

func (s *stubTranscriber) Configured() bool { return s.configured }

func (s *stubTranscriber) Transcribe(_ context.Context, _ string, _ assemblyai.Options) (*assemblyai.Transcript, error) {
	s.transcribeCalls++
	if s.transcribeErr != nil {
		return nil, s.transcribeErr
	}
	return s.transcript, nil
}

func (s *stubTranscriber) Sentences(context.Context, string) ([]assemblyai.Sentence, error) {
	return s.sentences, s.sentencesErr
}

type stubAcquirer struct {
	resolved *acquire.Resolved
	err      error
}

func (s *stubAcquirer) Resolve(context.Context, string) (*acquire.Resolved, error) {
	return s.resolved, s.err
}

type stubStore struct {
	existing *store.Record
	findErr  error
	upserted []*store.Record
}

func (s *stubStore) FindBySource(context.Context, string) (*store.Record, error) {
	return s.existing, s.findErr
}

func (s *stubStore) Upsert(_ context.Context, rec *store.Record) error {
	s.upserted = append(s.upserted, rec)
	return nil
}

type stubSaver struct {
	path    string
	content []byte
	title   string
}

func (s *stubSaver) Save(title, extension string, content []byte) (string, error) {
	s.title = title
	s.content = content
	if s.path == "" {
		s.path = "/tmp/out/" + title + extension
	}
	return s.path, nil
}

type stubIdentifier struct {
	mapping transcript.SpeakerMapping
	called  bool
}

func (s *stubIdentifier) Identify(context.Context, []transcript.Utterance, []speakers.ContextField) transcript.SpeakerMapping {
	s.called = true
	return s.mapping
}

type stubReflower struct{ suffix string }

func (s *stubReflower) Reflow(_ context.Context, utterances []transcript.Utterance) {
	for i := range utterances {
		utterances[i].Text += s.suffix
	}
}

func sampleTranscript() *assemblyai.Transcript {
	return &assemblyai.Transcript{
		ID:              "tr_99",
		Text:            "Hello there. Glad to be here.",
		DurationSeconds: 120,
		Utterances: []assemblyai.Utterance{
			{Speaker: "A", Text: "Hello there.", StartMs: 0, EndMs: 2000},
			{Speaker: "B", Text: "Glad to be here.", StartMs: 2000, EndMs: 4000},
		},
	}
}

func newRunner(t *testing.T, collab workflow.Collaborators) *workflow.Runner {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if collab.Segmenter == nil {
		collab.Segmenter = segment.New(cfg.Segmenter.MaxChunkChars, logging.NewNop())
	}
	return workflow.NewWithCollaborators(cfg, logging.NewNop(), collab)
}

func TestRunRemoteSourceEndToEnd(t *testing.T) {
	transcriber := &stubTranscriber{configured: true, transcript: sampleTranscript()}
	st := &stubStore{}
	saver := &stubSaver{}
	identifier := &stubIdentifier{mapping: transcript.SpeakerMapping{
		Names: []transcript.SpeakerName{
			{Label: "Speaker A", Name: "Jane Doe", Confidence: transcript.ConfidenceHigh},
			{Label: "Speaker B", Name: "John Smith", Confidence: transcript.ConfidenceMedium},
		},
		Rationale: "names stated in the opening exchange",
	}}

	runner := newRunner(t, workflow.Collaborators{
		Transcriber: transcriber,
		Acquirer: &stubAcquirer{resolved: &acquire.Resolved{
			LocalPath: "/tmp/audio.mp3",
			Title:     "Episode 42",
		}},
		Speakers: identifier,
		Reflower: &stubReflower{},
		Store:    st,
		Saver:    saver,
	})

	result, err := runner.Run(context.Background(), workflow.Request{
		InputRef: "https://example.com/ep42",
		Diarize:  true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.State != workflow.StateDone {
		t.Fatalf("state = %s, want done", result.State)
	}
	if !identifier.called {
		t.Error("speaker identifier not invoked")
	}
	if result.RecordID != "tr_99" {
		t.Errorf("record id = %q, want provider id", result.RecordID)
	}
	if result.Title != "Episode 42" {
		t.Errorf("title = %q", result.Title)
	}
	if len(st.upserted) != 1 {
		t.Fatalf("expected one upsert, got %d", len(st.upserted))
	}
	rec := st.upserted[0]
	if rec.SourceURL != "https://example.com/ep42" || rec.SourceType != store.SourceTypeURL {
		t.Errorf("record source not recorded: %+v", rec)
	}
	if !strings.Contains(string(saver.content), "Jane Doe") {
		t.Errorf("mapping not applied to rendered document:\n%s", saver.content)
	}
}

func TestRunDuplicateSourceAbortsBeforeTranscription(t *testing.T) {
	transcriber := &stubTranscriber{configured: true, transcript: sampleTranscript()}
	st := &stubStore{existing: &store.Record{
		ID:       "tr_old",
		Title:    "Episode 42",
		FilePath: "/out/Episode 42.md",
	}}

	runner := newRunner(t, workflow.Collaborators{
		Transcriber: transcriber,
		Acquirer:    &stubAcquirer{resolved: &acquire.Resolved{LocalPath: "/tmp/audio.mp3"}},
		Store:       st,
		Saver:       &stubSaver{},
	})

	_, err := runner.Run(context.Background(), workflow.Request{
		InputRef: "https://example.com/ep42",
		Diarize:  true,
	})
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if transcriber.transcribeCalls != 0 {
		t.Errorf("transcriber invoked %d times before dedup abort", transcriber.transcribeCalls)
	}
}

func TestRunForceOverridesDuplicateGate(t *testing.T) {
	transcriber := &stubTranscriber{configured: true, transcript: sampleTranscript()}
	st := &stubStore{existing: &store.Record{ID: "tr_old"}}

	runner := newRunner(t, workflow.Collaborators{
		Transcriber: transcriber,
		Acquirer:    &stubAcquirer{resolved: &acquire.Resolved{LocalPath: "/tmp/audio.mp3", Title: "Episode 42"}},
		Store:       st,
		Saver:       &stubSaver{},
	})

	result, err := runner.Run(context.Background(), workflow.Request{
		InputRef: "https://example.com/ep42",
		Diarize:  true,
		Force:    true,
	})
	if err != nil {
		t.Fatalf("Run with --force: %v", err)
	}
	if result.RecordID != "tr_99" {
		t.Errorf("expected new provider id, got %q", result.RecordID)
	}
	if transcriber.transcribeCalls != 1 {
		t.Errorf("transcriber calls = %d", transcriber.transcribeCalls)
	}
}

func TestRunRejectsUnsupportedLocalFile(t *testing.T) {
	runner := newRunner(t, workflow.Collaborators{
		Transcriber: &stubTranscriber{configured: true},
		Store:       &stubStore{},
		Saver:       &stubSaver{},
	})

	_, err := runner.Run(context.Background(), workflow.Request{InputRef: "/nope/audio.xyz"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRunLocalFileSkipsDedupGate(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "interview recording.mp3")
	if err := os.WriteFile(audioPath, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	st := &stubStore{findErr: errors.New("FindBySource must not be called for local files")}
	runner := newRunner(t, workflow.Collaborators{
		Transcriber: &stubTranscriber{configured: true, transcript: sampleTranscript()},
		Store:       st,
		Saver:       &stubSaver{},
	})

	result, err := runner.Run(context.Background(), workflow.Request{InputRef: audioPath, Diarize: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(st.upserted) != 1 {
		t.Fatalf("expected upsert, got %d", len(st.upserted))
	}
	if st.upserted[0].SourceType != store.SourceTypeFile {
		t.Errorf("source type = %s", st.upserted[0].SourceType)
	}
	if result.Title != "Interview Recording" {
		t.Errorf("filename-derived title = %q", result.Title)
	}
}

func TestRunTranscriptionFailureIsFatal(t *testing.T) {
	runner := newRunner(t, workflow.Collaborators{
		Transcriber: &stubTranscriber{configured: true, transcribeErr: errors.New("provider error status")},
		Acquirer:    &stubAcquirer{resolved: &acquire.Resolved{LocalPath: "/tmp/audio.mp3"}},
		Store:       &stubStore{},
		Saver:       &stubSaver{},
	})

	result, err := runner.Run(context.Background(), workflow.Request{InputRef: "https://example.com/a"})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if result.State != workflow.StateFailed {
		t.Errorf("state = %s, want failed", result.State)
	}
}

func TestRunMissingCredentialAbortsEarly(t *testing.T) {
	transcriber := &stubTranscriber{configured: false}
	runner := newRunner(t, workflow.Collaborators{
		Transcriber: transcriber,
		Store:       &stubStore{},
		Saver:       &stubSaver{},
	})

	_, err := runner.Run(context.Background(), workflow.Request{InputRef: "https://example.com/a"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if transcriber.transcribeCalls != 0 {
		t.Error("no paid work should happen without credentials")
	}
}

func TestRunEnrichmentMergesReflowAndMapping(t *testing.T) {
	identifier := &stubIdentifier{mapping: transcript.SpeakerMapping{
		Names: []transcript.SpeakerName{
			{Label: "Speaker A", Name: "Jane Doe", Confidence: transcript.ConfidenceHigh},
			{Label: "Speaker B", Name: "Speaker B", Confidence: transcript.ConfidenceLow},
		},
	}}
	saver := &stubSaver{}

	runner := newRunner(t, workflow.Collaborators{
		Transcriber: &stubTranscriber{configured: true, transcript: sampleTranscript()},
		Acquirer:    &stubAcquirer{resolved: &acquire.Resolved{LocalPath: "/tmp/audio.mp3", Title: "T"}},
		Speakers:    identifier,
		Reflower:    &stubReflower{suffix: " [reflowed]"},
		Store:       &stubStore{},
		Saver:       saver,
	})

	_, err := runner.Run(context.Background(), workflow.Request{
		InputRef: "https://example.com/a",
		Diarize:  true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	rendered := string(saver.content)
	if !strings.Contains(rendered, "**Jane Doe**: Hello there. [reflowed]") {
		t.Errorf("expected mapping applied on top of reflowed text:\n%s", rendered)
	}
	if !strings.Contains(rendered, "**Speaker B**: Glad to be here. [reflowed]") {
		t.Errorf("identity entries must keep the label:\n%s", rendered)
	}
}

func TestRunDiarizeOffSkipsIdentifier(t *testing.T) {
	identifier := &stubIdentifier{}
	runner := newRunner(t, workflow.Collaborators{
		Transcriber: &stubTranscriber{configured: true, transcript: sampleTranscript()},
		Acquirer:    &stubAcquirer{resolved: &acquire.Resolved{LocalPath: "/tmp/audio.mp3", Title: "T"}},
		Speakers:    identifier,
		Store:       &stubStore{},
		Saver:       &stubSaver{},
	})

	_, err := runner.Run(context.Background(), workflow.Request{InputRef: "https://example.com/a"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if identifier.called {
		t.Error("identifier must not run when diarization is off")
	}
}

func TestRunSegmenterFetchFailureIsFatal(t *testing.T) {
	long := strings.Repeat("Very long sentence indeed. ", 200)
	tr := sampleTranscript()
	tr.Utterances[0].Text = long

	runner := newRunner(t, workflow.Collaborators{
		Transcriber: &stubTranscriber{
			configured:   true,
			transcript:   tr,
			sentencesErr: errors.New("sentence endpoint down"),
		},
		Acquirer: &stubAcquirer{resolved: &acquire.Resolved{LocalPath: "/tmp/audio.mp3"}},
		Store:    &stubStore{},
		Saver:    &stubSaver{},
	})

	result, err := runner.Run(context.Background(), workflow.Request{InputRef: "https://example.com/a"})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected fatal segmenting error, got %v", err)
	}
	if result.State != workflow.StateFailed {
		t.Errorf("state = %s", result.State)
	}
}

// classifierFunc adapts a function to the classifier interface shared by the
// speaker resolver and the reflower.
type classifierFunc func(systemPrompt, userPrompt string) (string, error)

func (f classifierFunc) CompleteJSON(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	return f(systemPrompt, userPrompt)
}

func splitAtMiddleSpace(passage string) (string, string) {
	mid := strings.LastIndex(passage[:len(passage)/2+1], " ")
	return passage[:mid], passage[mid+1:]
}

func TestRunEnrichmentConcurrentIdentifyAndReflow(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("The quick brown fox jumps over the lazy dog. ", 60))
	tr := sampleTranscript()
	tr.Utterances[0].Text = long

	// Both classifier calls block until the other has started, so the
	// resolver's prompt construction and the reflower's text rewrite are
	// guaranteed to run concurrently.
	var gate sync.WaitGroup
	gate.Add(2)
	rendezvous := func() {
		gate.Done()
		gate.Wait()
	}

	identifyReplies := classifierFunc(func(_, userPrompt string) (string, error) {
		rendezvous()
		if !strings.Contains(userPrompt, "Speaker A:") {
			return "", errors.New("prompt missing sampled utterances")
		}
		return `{"speakers": [
			{"label": "Speaker A", "name": "Jane Doe", "confidence": "high"},
			{"label": "Speaker B", "name": "Speaker B", "confidence": "low"}
		], "rationale": "host introduces herself"}`, nil
	})
	reflowReplies := classifierFunc(func(_, passage string) (string, error) {
		rendezvous()
		first, second := splitAtMiddleSpace(passage)
		payload, err := json.Marshal(map[string][]string{"paragraphs": {first, second}})
		return string(payload), err
	})

	saver := &stubSaver{}
	runner := newRunner(t, workflow.Collaborators{
		Transcriber: &stubTranscriber{configured: true, transcript: tr},
		Acquirer:    &stubAcquirer{resolved: &acquire.Resolved{LocalPath: "/tmp/audio.mp3", Title: "T"}},
		Speakers:    speakers.NewResolver(identifyReplies, logging.NewNop()),
		Reflower:    reflow.New(reflowReplies, 2000, 150, logging.NewNop()),
		Store:       &stubStore{},
		Saver:       saver,
	})

	_, err := runner.Run(context.Background(), workflow.Request{
		InputRef: "https://example.com/a",
		Diarize:  true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	rendered := string(saver.content)
	first, second := splitAtMiddleSpace(long)
	if !strings.Contains(rendered, first+"\n\n"+second) {
		t.Errorf("long utterance should carry the reflowed paragraph break:\n%s", rendered)
	}
	if !strings.Contains(rendered, "**Jane Doe**") {
		t.Errorf("mapping should be applied after reflow:\n%s", rendered)
	}
	if !strings.Contains(rendered, "**Speaker B**: Glad to be here.") {
		t.Errorf("short utterance should pass through untouched:\n%s", rendered)
	}
}
