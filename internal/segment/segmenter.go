package segment

import (
	"context"
	"fmt"
	"log/slog"

	"quill/internal/logging"
	"quill/internal/transcript"
)

// DefaultMaxChunkChars is the character threshold above which an utterance is
// re-segmented.
const DefaultMaxChunkChars = 4000

// SentenceFetcher fetches the sentence-level breakdown for the whole
// transcript. It is called at most once per Resegment invocation.
type SentenceFetcher func(ctx context.Context) ([]transcript.SentenceUnit, error)

// Segmenter regroups oversized utterances into bounded chunks.
type Segmenter struct {
	maxChunkChars int
	logger        *slog.Logger
}

// New constructs a Segmenter. A non-positive threshold falls back to
// DefaultMaxChunkChars.
func New(maxChunkChars int, logger *slog.Logger) *Segmenter {
	if maxChunkChars <= 0 {
		maxChunkChars = DefaultMaxChunkChars
	}
	return &Segmenter{
		maxChunkChars: maxChunkChars,
		logger:        logging.NewComponentLogger(logger, "segmenter"),
	}
}

// Resegment returns a new utterance list in which no text exceeds the
// threshold, except for utterances with no matching sentence spans, which
// pass through unmodified. The sentence fetch happens once, and only when at
// least one utterance is oversized; a fetch failure is fatal for the run
// because proceeding would force silent truncation.
func (s *Segmenter) Resegment(ctx context.Context, utterances []transcript.Utterance, fetch SentenceFetcher) ([]transcript.Utterance, error) {
	logger := logging.WithContext(ctx, s.logger)

	if !s.anyOversized(utterances) {
		logger.Debug("no oversized utterances", logging.Int("threshold_chars", s.maxChunkChars))
		return utterances, nil
	}
	if fetch == nil {
		return nil, fmt.Errorf("segmenter: sentence fetcher required for oversized utterances")
	}

	sentences, err := fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("segmenter: fetch sentences: %w", err)
	}

	labels := transcript.DistinctLabels(utterances)
	if len(labels) == 1 {
		logger.Info(
			"re-chunking single-speaker transcript",
			logging.Int("sentences", len(sentences)),
			logging.Int("threshold_chars", s.maxChunkChars),
		)
		return s.regroupAll(sentences, labels[0], utterances), nil
	}
	return s.spliceOversized(logger, utterances, sentences), nil
}

func (s *Segmenter) anyOversized(utterances []transcript.Utterance) bool {
	for _, utt := range utterances {
		if len(utt.Text) > s.maxChunkChars {
			return true
		}
	}
	return false
}

// regroupAll discards utterance boundaries entirely and regroups every
// sentence into consecutive bounded chunks. Falls back to the original
// utterances when no sentence data came back.
func (s *Segmenter) regroupAll(sentences []transcript.SentenceUnit, label string, original []transcript.Utterance) []transcript.Utterance {
	if len(sentences) == 0 {
		s.logger.Warn("sentence breakdown empty, leaving oversized utterances intact")
		return original
	}
	return s.groupSentences(sentences, label)
}

// spliceOversized leaves compliant utterances untouched and replaces each
// oversized one with chunks built from the sentences inside its timestamp
// span.
func (s *Segmenter) spliceOversized(logger *slog.Logger, utterances []transcript.Utterance, sentences []transcript.SentenceUnit) []transcript.Utterance {
	result := make([]transcript.Utterance, 0, len(utterances))
	for _, utt := range utterances {
		if len(utt.Text) <= s.maxChunkChars {
			result = append(result, utt)
			continue
		}
		matched := sentencesWithin(sentences, utt.StartMs, utt.EndMs)
		if len(matched) == 0 {
			// Timestamp mismatch; passing through oversized beats dropping text.
			logger.Warn(
				"oversized utterance has no matching sentences, passing through",
				logging.String("speaker", utt.Speaker),
				logging.Int("chars", len(utt.Text)),
				logging.Int("start_ms", utt.StartMs),
				logging.Int("end_ms", utt.EndMs),
			)
			result = append(result, utt)
			continue
		}
		result = append(result, s.groupSentences(matched, utt.Speaker)...)
	}
	return result
}

// groupSentences greedily accumulates sentences until appending the next one
// would exceed the threshold, then flushes the chunk. Each chunk inherits the
// start of its first sentence and the end of its last.
func (s *Segmenter) groupSentences(sentences []transcript.SentenceUnit, label string) []transcript.Utterance {
	chunks := make([]transcript.Utterance, 0, 1)
	var current []transcript.SentenceUnit
	var currentLen int

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, transcript.Utterance{
			Speaker: label,
			Text:    joinSentences(current),
			StartMs: current[0].StartMs,
			EndMs:   current[len(current)-1].EndMs,
		})
		current = current[:0]
		currentLen = 0
	}

	for _, sentence := range sentences {
		appended := currentLen + len(sentence.Text)
		if len(current) > 0 {
			appended++ // joining space
		}
		if len(current) > 0 && appended > s.maxChunkChars {
			flush()
			appended = len(sentence.Text)
		}
		current = append(current, sentence)
		currentLen = appended
	}
	flush()
	return chunks
}

func joinSentences(sentences []transcript.SentenceUnit) string {
	total := 0
	for _, sentence := range sentences {
		total += len(sentence.Text) + 1
	}
	buf := make([]byte, 0, total)
	for i, sentence := range sentences {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, sentence.Text...)
	}
	return string(buf)
}

// sentencesWithin selects sentences whose span falls inside [startMs, endMs].
// Sentences straddling the boundary are excluded.
func sentencesWithin(sentences []transcript.SentenceUnit, startMs, endMs int) []transcript.SentenceUnit {
	matched := make([]transcript.SentenceUnit, 0, 8)
	for _, sentence := range sentences {
		if sentence.StartMs >= startMs && sentence.EndMs <= endMs {
			matched = append(matched, sentence)
		}
	}
	return matched
}
