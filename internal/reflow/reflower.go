package reflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"quill/internal/logging"
	"quill/internal/services"
	"quill/internal/services/llm"
	"quill/internal/textutil"
	"quill/internal/transcript"
)

const (
	// DefaultMaxPassageChars is the passage length above which reflow kicks in.
	DefaultMaxPassageChars = 2000
	// DefaultMinParagraphChars is the smallest paragraph kept standalone;
	// shorter fragments are merged into a neighbor.
	DefaultMinParagraphChars = 150

	// ParagraphSeparator joins the surviving paragraphs.
	ParagraphSeparator = "\n\n"
)

// reflowPrompt constrains the classifier to pure re-chunking.
const reflowPrompt = `You split a long transcript passage into readable paragraphs.

Rules:
- Do not add, remove, or change ANY words, punctuation, or casing.
- Each paragraph must be an exact contiguous substring of the input.
- Concatenating the paragraphs in order (with a single space between them) must reproduce the input exactly.
- Prefer paragraph breaks at topic shifts; aim for paragraphs of a few sentences each.

You must respond ONLY with a JSON object like: {"paragraphs": ["first paragraph", "second paragraph"]}`

// Classifier is the subset of the LLM client the reflower needs.
type Classifier interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Reflower inserts paragraph breaks into long utterance texts.
type Reflower struct {
	client            Classifier
	maxPassageChars   int
	minParagraphChars int
	logger            *slog.Logger
}

// New constructs a Reflower. Non-positive thresholds fall back to defaults.
// The client may be nil; Reflow is then a no-op.
func New(client Classifier, maxPassageChars, minParagraphChars int, logger *slog.Logger) *Reflower {
	if maxPassageChars <= 0 {
		maxPassageChars = DefaultMaxPassageChars
	}
	if minParagraphChars <= 0 {
		minParagraphChars = DefaultMinParagraphChars
	}
	return &Reflower{
		client:            client,
		maxPassageChars:   maxPassageChars,
		minParagraphChars: minParagraphChars,
		logger:            logging.NewComponentLogger(logger, "reflow"),
	}
}

// Reflow rewrites the text of qualifying utterances in place. Passages are
// independent, so their classifier calls fan out concurrently and results
// are applied back by index. A single passage's failure never aborts the
// others; the passage just keeps its original text.
func (r *Reflower) Reflow(ctx context.Context, utterances []transcript.Utterance) {
	logger := logging.WithContext(ctx, r.logger)
	if r.client == nil {
		return
	}

	var qualifying []int
	for i := range utterances {
		if len(utterances[i].Text) > r.maxPassageChars {
			qualifying = append(qualifying, i)
		}
	}
	if len(qualifying) == 0 {
		return
	}
	logger.Info("reflowing long passages", logging.Int("passages", len(qualifying)))

	var wg sync.WaitGroup
	for _, idx := range qualifying {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			pctx := services.WithCorrelationID(ctx, fmt.Sprintf("passage-%d", idx))
			reflowed, err := r.reflowPassage(pctx, utterances[idx].Text)
			if err != nil {
				logging.WithContext(pctx, r.logger).Warn(
					"passage reflow failed, keeping original text",
					logging.Int("chars", len(utterances[idx].Text)),
					logging.Error(err),
				)
				return
			}
			utterances[idx].Text = reflowed
		}(idx)
	}
	wg.Wait()
}

func (r *Reflower) reflowPassage(ctx context.Context, passage string) (string, error) {
	content, err := r.client.CompleteJSON(ctx, reflowPrompt, passage)
	if err != nil {
		return "", err
	}
	var payload struct {
		Paragraphs []string `json:"paragraphs"`
	}
	if err := llm.DecodeJSON(content, &payload); err != nil {
		return "", fmt.Errorf("parse paragraphs: %w", err)
	}
	if len(payload.Paragraphs) == 0 {
		return "", fmt.Errorf("empty paragraph list")
	}

	if !reproducesWording(passage, payload.Paragraphs) {
		return "", fmt.Errorf("paragraphs do not reproduce the original wording")
	}

	merged := mergeShortFragments(payload.Paragraphs, r.minParagraphChars)
	return strings.Join(merged, ParagraphSeparator), nil
}

// reproducesWording checks that joining the fragments reproduces the
// original passage, modulo whitespace runs.
func reproducesWording(original string, fragments []string) bool {
	joined := textutil.CollapseWhitespace(strings.Join(fragments, " "))
	return joined == textutil.CollapseWhitespace(original)
}

// mergeShortFragments folds fragments below the minimum into the next
// fragment, or backward into the previous survivor when the short fragment
// is the final one.
func mergeShortFragments(fragments []string, minChars int) []string {
	merged := make([]string, 0, len(fragments))
	carry := ""
	for _, fragment := range fragments {
		if carry != "" {
			fragment = carry + " " + fragment
			carry = ""
		}
		if len(fragment) < minChars {
			carry = fragment
			continue
		}
		merged = append(merged, fragment)
	}
	if carry != "" {
		if len(merged) == 0 {
			return []string{carry}
		}
		merged[len(merged)-1] = merged[len(merged)-1] + " " + carry
	}
	return merged
}
