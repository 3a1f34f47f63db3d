package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quill/internal/config"
	"quill/internal/fileutil"
	"quill/internal/logging"
	"quill/internal/organizer"
	"quill/internal/reflow"
	"quill/internal/render"
	"quill/internal/segment"
	"quill/internal/services"
	"quill/internal/services/acquire"
	"quill/internal/services/assemblyai"
	"quill/internal/services/llm"
	"quill/internal/speakers"
	"quill/internal/store"
	"quill/internal/textutil"
	"quill/internal/transcript"
)

// Transcriber is the transcription provider consumed by the runner.
type Transcriber interface {
	Configured() bool
	Transcribe(ctx context.Context, audioPath string, opts assemblyai.Options) (*assemblyai.Transcript, error)
	Sentences(ctx context.Context, transcriptID string) ([]assemblyai.Sentence, error)
}

// Acquirer resolves a remote reference into a local audio artifact.
type Acquirer interface {
	Resolve(ctx context.Context, inputRef string) (*acquire.Resolved, error)
}

// PodcastDirectory looks up podcast metadata for channel enrichment.
type PodcastDirectory interface {
	SearchPodcast(ctx context.Context, term string) (*acquire.Podcast, error)
}

// Segmenter re-chunks oversized utterances.
type Segmenter interface {
	Resegment(ctx context.Context, utterances []transcript.Utterance, fetch segment.SentenceFetcher) ([]transcript.Utterance, error)
}

// SpeakerIdentifier maps anonymous labels to real names.
type SpeakerIdentifier interface {
	Identify(ctx context.Context, utterances []transcript.Utterance, contextFields []speakers.ContextField) transcript.SpeakerMapping
}

// Reflower splits long passages into paragraphs in place.
type Reflower interface {
	Reflow(ctx context.Context, utterances []transcript.Utterance)
}

// Gatekeeper is the persistence surface the runner needs.
type Gatekeeper interface {
	FindBySource(ctx context.Context, sourceRef string) (*store.Record, error)
	Upsert(ctx context.Context, rec *store.Record) error
}

// Saver writes the rendered document to its final location.
type Saver interface {
	Save(title, extension string, content []byte) (string, error)
}

// Collaborators bundles the injectable pieces of a runner. Zero fields are
// filled with config-derived defaults by New; tests supply fakes directly.
type Collaborators struct {
	Transcriber Transcriber
	Acquirer    Acquirer
	Podcasts    PodcastDirectory
	Segmenter   Segmenter
	Speakers    SpeakerIdentifier
	Reflower    Reflower
	Store       Gatekeeper
	Saver       Saver
}

// Request describes one transcription run.
type Request struct {
	InputRef  string
	Diarize   bool
	Force     bool
	Format    string // empty means the configured default
	OutputDir string // empty means the configured default
	Title     string // explicit title override
	Hints     string // free-text speaker hints passed to the identifier
	KeepAudio bool   // skip cleanup of a downloaded artifact
}

// Result reports a completed run.
type Result struct {
	RunID            string
	State            State
	RecordID         string
	FilePath         string
	Title            string
	Speakers         []string
	SpeakerRationale string
	DurationSeconds  int
}

// Runner drives the state machine for transcription runs.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	collab Collaborators
}

// New constructs a runner with config-derived collaborators.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) *Runner {
	collab := Collaborators{Store: st}

	var transcriberOpts []assemblyai.Option
	if cfg.Transcriber.BaseURL != "" {
		transcriberOpts = append(transcriberOpts, assemblyai.WithBaseURL(cfg.Transcriber.BaseURL))
	}
	if cfg.Transcriber.PollIntervalSeconds > 0 {
		transcriberOpts = append(transcriberOpts,
			assemblyai.WithPollInterval(time.Duration(cfg.Transcriber.PollIntervalSeconds)*time.Second))
	}
	collab.Transcriber = assemblyai.NewClient(cfg.Transcriber.APIKey, transcriberOpts...)

	collab.Acquirer = acquire.NewResolver(cfg.Acquisition.DownloaderBinary)
	if cfg.Acquisition.ITunesLookup {
		collab.Podcasts = acquire.NewITunesClient()
	}

	collab.Segmenter = segment.New(cfg.Segmenter.MaxChunkChars, logger)

	if cfg.ClassifierConfigured() {
		client := llm.NewClient(llm.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		})
		collab.Speakers = speakers.NewResolver(client, logger)
		collab.Reflower = reflowerFor(client, cfg, logger)
	} else {
		collab.Speakers = speakers.NewResolver(nil, logger)
		collab.Reflower = reflowerFor(nil, cfg, logger)
	}

	return NewWithCollaborators(cfg, logger, collab)
}

// NewWithCollaborators allows injecting collaborators (used in tests).
func NewWithCollaborators(cfg *config.Config, logger *slog.Logger, collab Collaborators) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "workflow"),
		collab: collab,
	}
}

// Run executes the full pipeline for one input reference.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	result := &Result{RunID: runID, State: StateResolvingInput}

	// User mistakes (bad input, duplicates) log as warnings; everything else
	// is a hard failure.
	fail := func(state State, err error) (*Result, error) {
		result.State = StateFailed
		logger := logging.WithContext(ctx, r.logger)
		if services.IsFatalInput(err) || errors.Is(err, services.ErrConflict) {
			logger.Warn("run aborted", logging.Error(err))
		} else {
			logger.Error("run failed", logging.Error(err))
		}
		return result, err
	}

	// Resolving input.
	ctx, logger := r.enterStage(ctx, StateResolvingInput)
	if r.collab.Transcriber == nil || !r.collab.Transcriber.Configured() {
		return fail(StateResolvingInput, services.Wrap(
			services.ErrConfiguration, StateResolvingInput.String(), "check credentials",
			"transcription API key is not configured", nil))
	}

	remote := acquire.IsRemote(req.InputRef)
	sourceURL := ""
	if remote {
		sourceURL = req.InputRef
		existing, err := r.collab.Store.FindBySource(ctx, sourceURL)
		if err != nil {
			return fail(StateResolvingInput, services.Wrap(
				services.ErrValidation, StateResolvingInput.String(), "check duplicates",
				"failed to query existing records", err))
		}
		if existing != nil && !req.Force {
			return fail(StateResolvingInput, services.Wrap(
				services.ErrConflict, StateResolvingInput.String(), "check duplicates",
				fmt.Sprintf("source already transcribed as %q (id %s, file %s); re-run with --force to replace",
					existing.Title, existing.ID, existing.FilePath), nil))
		}
	}

	var (
		localPath string
		resolved  *acquire.Resolved
	)
	if remote {
		var err error
		resolved, err = r.collab.Acquirer.Resolve(ctx, req.InputRef)
		if err != nil {
			return fail(StateResolvingInput, services.Wrap(
				services.ErrExternalTool, StateResolvingInput.String(), "download audio",
				"audio acquisition failed", err))
		}
		localPath = resolved.LocalPath
		logger.Info("audio acquired",
			logging.String("path", localPath),
			logging.String("title", resolved.Title))
	} else {
		if err := acquire.ValidateLocal(req.InputRef); err != nil {
			return fail(StateResolvingInput, services.Wrap(
				services.ErrValidation, StateResolvingInput.String(), "validate input",
				"local audio file rejected", err))
		}
		localPath = req.InputRef
		resolved = &acquire.Resolved{LocalPath: localPath}
	}

	// The artifact outlives every stage from here on; release it on any
	// exit path. A requested keep-audio copy is made before release.
	defer resolved.Cleanup()

	podcast := r.lookupPodcast(ctx, logger, remote, resolved)

	// Transcribing.
	ctx, logger = r.enterStage(ctx, StateTranscribing)
	result.State = StateTranscribing
	tr, err := r.collab.Transcriber.Transcribe(ctx, localPath, assemblyai.Options{Diarize: req.Diarize})
	if err != nil {
		return fail(StateTranscribing, services.Wrap(
			services.ErrExternalTool, StateTranscribing.String(), "transcribe audio",
			"transcription provider failed", err))
	}
	utterances := utterancesFromTranscript(tr)
	logger.Info("transcript received",
		logging.String("transcript_id", tr.ID),
		logging.Int("utterances", len(utterances)),
		logging.Int("duration_seconds", tr.DurationSeconds))

	// Segmenting.
	ctx, _ = r.enterStage(ctx, StateSegmenting)
	result.State = StateSegmenting
	fetch := func(ctx context.Context) ([]transcript.SentenceUnit, error) {
		sentences, err := r.collab.Transcriber.Sentences(ctx, tr.ID)
		if err != nil {
			return nil, err
		}
		return sentenceUnits(sentences), nil
	}
	utterances, err = r.collab.Segmenter.Resegment(ctx, utterances, fetch)
	if err != nil {
		return fail(StateSegmenting, services.Wrap(
			services.ErrExternalTool, StateSegmenting.String(), "fetch sentences",
			"sentence-level breakdown unavailable", err))
	}

	// Enriching. The identifier reads utterance text while building its
	// prompt, so it works from a snapshot; the reflower rewrites the live
	// slice and the mapping is applied after both finish.
	ctx, _ = r.enterStage(ctx, StateEnriching)
	result.State = StateEnriching
	labels := transcript.DistinctLabels(utterances)
	mapping := transcript.IdentityMapping(labels, "speaker identification skipped")

	var wg sync.WaitGroup
	if req.Diarize && len(labels) > 0 {
		snapshot := slices.Clone(utterances)
		wg.Add(1)
		go func() {
			defer wg.Done()
			mapping = r.collab.Speakers.Identify(ctx, snapshot, r.contextFields(req, resolved, podcast))
		}()
	}
	if r.collab.Reflower != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.collab.Reflower.Reflow(ctx, utterances)
		}()
	}
	wg.Wait()
	speakers.Apply(mapping, utterances)

	// Formatting.
	ctx, _ = r.enterStage(ctx, StateFormatting)
	result.State = StateFormatting
	title := organizer.DeriveTitle(organizer.TitleSources{
		Override:    req.Title,
		Acquisition: resolved.Title,
		Podcast:     podcastName(podcast),
		LocalPath:   localPath,
	})
	format := req.Format
	if format == "" {
		format = r.cfg.Output.Format
	}
	doc := render.Document{
		Title:            title,
		SourceURL:        sourceURL,
		SourceType:       string(sourceType(remote)),
		Channel:          channelName(resolved, podcast),
		ChannelURL:       channelURL(resolved, podcast),
		Description:      resolved.Description,
		DurationSeconds:  tr.DurationSeconds,
		CreatedAt:        time.Now().UTC(),
		Speakers:         transcript.SpeakerNames(utterances),
		SpeakerRationale: mapping.Rationale,
		Utterances:       utterances,
	}
	content, err := render.Render(format, doc, r.cfg.Output.Timestamps)
	if err != nil {
		return fail(StateFormatting, services.Wrap(
			services.ErrValidation, StateFormatting.String(), "render document", "", err))
	}

	// Persisting.
	ctx, logger = r.enterStage(ctx, StatePersisting)
	result.State = StatePersisting
	saver := r.collab.Saver
	if saver == nil {
		outputDir := req.OutputDir
		if outputDir == "" {
			outputDir = r.cfg.Paths.OutputDir
		}
		saver = organizer.New(outputDir, r.logger)
	}
	path, err := saver.Save(title, render.Extension(format), content)
	if err != nil {
		return fail(StatePersisting, services.Wrap(
			services.ErrExternalTool, StatePersisting.String(), "write document", "", err))
	}

	if req.KeepAudio && remote {
		audioDst := filepath.Join(filepath.Dir(path), textutil.SanitizeFileName(title)+filepath.Ext(localPath))
		if copyErr := fileutil.CopyFileMode(localPath, audioDst, 0o644); copyErr != nil {
			logger.Warn("failed to keep audio copy", logging.Error(copyErr))
		} else {
			logger.Info("audio kept", logging.String("path", audioDst))
		}
	}

	recordID := tr.ID
	if recordID == "" {
		recordID = uuid.NewString()
	}
	rec := &store.Record{
		ID:              recordID,
		SourceURL:       sourceURL,
		SourceType:      sourceType(remote),
		Title:           title,
		Description:     resolved.Description,
		Channel:         doc.Channel,
		ChannelURL:      doc.ChannelURL,
		DurationSeconds: tr.DurationSeconds,
		Speakers:        doc.Speakers,
		FilePath:        path,
		CreatedAt:       doc.CreatedAt,
		RawMetadata:     resolved.RawMetadataJSON,
		Content:         string(content),
	}
	if err := r.collab.Store.Upsert(ctx, rec); err != nil {
		return fail(StatePersisting, services.Wrap(
			services.ErrExternalTool, StatePersisting.String(), "record metadata", "", err))
	}
	logger.Info("run complete",
		logging.String("record_id", recordID),
		logging.String("file", path))

	result.State = StateDone
	result.RecordID = recordID
	result.FilePath = path
	result.Title = title
	result.Speakers = doc.Speakers
	result.SpeakerRationale = mapping.Rationale
	result.DurationSeconds = tr.DurationSeconds
	return result, nil
}

func reflowerFor(client reflow.Classifier, cfg *config.Config, logger *slog.Logger) Reflower {
	return reflow.New(client, cfg.Reflower.MaxPassageChars, cfg.Reflower.MinParagraphChars, logger)
}

// enterStage records the stage on the context so every downstream log line,
// including collaborator logs, carries it.
func (r *Runner) enterStage(ctx context.Context, state State) (context.Context, *slog.Logger) {
	ctx = services.WithStage(ctx, state.String())
	logger := logging.WithContext(ctx, r.logger)
	logger.Debug("entering stage")
	return ctx, logger
}

// lookupPodcast enriches remote sources with podcast directory metadata.
// Lookup failures only cost the enrichment, never the run.
func (r *Runner) lookupPodcast(ctx context.Context, logger *slog.Logger, remote bool, resolved *acquire.Resolved) *acquire.Podcast {
	if !remote || r.collab.Podcasts == nil {
		return nil
	}
	term := strings.TrimSpace(resolved.UploaderName)
	if term == "" {
		term = strings.TrimSpace(resolved.Title)
	}
	if term == "" {
		return nil
	}
	podcast, err := r.collab.Podcasts.SearchPodcast(ctx, term)
	if err != nil {
		logger.Warn("podcast lookup failed", logging.Error(err))
		return nil
	}
	return podcast
}

func (r *Runner) contextFields(req Request, resolved *acquire.Resolved, podcast *acquire.Podcast) []speakers.ContextField {
	fields := []speakers.ContextField{
		{Label: "Title", Value: resolved.Title},
		{Label: "Channel", Value: channelName(resolved, podcast)},
		{Label: "Description", Value: resolved.Description},
		{Label: "Hints", Value: req.Hints},
	}
	return fields
}

func sourceType(remote bool) store.SourceType {
	if remote {
		return store.SourceTypeURL
	}
	return store.SourceTypeFile
}

func podcastName(podcast *acquire.Podcast) string {
	if podcast == nil {
		return ""
	}
	return podcast.CollectionName
}

func channelName(resolved *acquire.Resolved, podcast *acquire.Podcast) string {
	if name := strings.TrimSpace(resolved.UploaderName); name != "" {
		return name
	}
	if podcast != nil {
		return podcast.ArtistName
	}
	return ""
}

func channelURL(resolved *acquire.Resolved, podcast *acquire.Podcast) string {
	if url := strings.TrimSpace(resolved.UploaderURL); url != "" {
		return url
	}
	if podcast != nil {
		return podcast.FeedURL
	}
	return ""
}

// utterancesFromTranscript converts provider utterances, synthesizing a
// single span when diarization was off and only flat text came back.
func utterancesFromTranscript(tr *assemblyai.Transcript) []transcript.Utterance {
	if len(tr.Utterances) == 0 {
		text := strings.TrimSpace(tr.Text)
		if text == "" {
			return nil
		}
		return []transcript.Utterance{{
			Speaker: "Speaker",
			Text:    text,
			StartMs: 0,
			EndMs:   tr.DurationSeconds * 1000,
		}}
	}
	out := make([]transcript.Utterance, 0, len(tr.Utterances))
	for _, utt := range tr.Utterances {
		out = append(out, transcript.Utterance{
			Speaker: speakerLabel(utt.Speaker),
			Text:    utt.Text,
			StartMs: utt.StartMs,
			EndMs:   utt.EndMs,
		})
	}
	return out
}

func sentenceUnits(sentences []assemblyai.Sentence) []transcript.SentenceUnit {
	out := make([]transcript.SentenceUnit, 0, len(sentences))
	for _, s := range sentences {
		out = append(out, transcript.SentenceUnit{
			Speaker: speakerLabel(s.Speaker),
			Text:    s.Text,
			StartMs: s.StartMs,
			EndMs:   s.EndMs,
		})
	}
	return out
}

// speakerLabel widens the provider's bare "A"/"B" labels for display.
func speakerLabel(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "Speaker"
	}
	if len(raw) <= 2 && raw == strings.ToUpper(raw) {
		return "Speaker " + raw
	}
	return raw
}
