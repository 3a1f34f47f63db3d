package speakers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"quill/internal/logging"
	"quill/internal/services/llm"
	"quill/internal/transcript"
)

// Sampling policy: short transcripts go to the classifier whole; long ones
// are cut down to the segments where identity evidence concentrates.
const (
	sampleCap    = 50
	headCount    = 20
	middleCount  = 15
	tailCount    = 15
	excerptLimit = 280 // per-utterance excerpt cap, keeps the request bounded
)

// Classifier is the subset of the LLM client the resolver needs.
type Classifier interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ContextField is one labeled, optional piece of context about the
// recording. Fields are joined in slice order so context construction is
// deterministic and testable.
type ContextField struct {
	Label string
	Value string
}

// BuildContext renders the non-empty fields as "Label: value" lines.
func BuildContext(fields []ContextField) string {
	var b strings.Builder
	for _, field := range fields {
		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(field.Label)
		b.WriteString(": ")
		b.WriteString(value)
	}
	return b.String()
}

// Resolver identifies speakers from a transcript sample.
type Resolver struct {
	client Classifier
	logger *slog.Logger
}

// NewResolver constructs a resolver. The client may be nil; Identify then
// returns the identity mapping.
func NewResolver(client Classifier, logger *slog.Logger) *Resolver {
	return &Resolver{
		client: client,
		logger: logging.NewComponentLogger(logger, "speakers"),
	}
}

// Identify returns a mapping covering every distinct label in the full
// utterance set. Classifier failures degrade to the identity mapping with
// the failure reason recorded in the rationale; they are never fatal.
func (r *Resolver) Identify(ctx context.Context, utterances []transcript.Utterance, contextFields []ContextField) transcript.SpeakerMapping {
	logger := logging.WithContext(ctx, r.logger)
	labels := transcript.DistinctLabels(utterances)
	if len(labels) == 0 {
		return transcript.SpeakerMapping{Rationale: "no utterances to identify"}
	}
	if r.client == nil {
		return transcript.IdentityMapping(labels, "classifier not configured")
	}

	sample := sampleUtterances(utterances)
	userPrompt := buildUserPrompt(sample, labels, BuildContext(contextFields))

	content, err := r.client.CompleteJSON(ctx, identificationPrompt, userPrompt)
	if err != nil {
		logger.Warn("speaker identification failed, using labels as names", logging.Error(err))
		return transcript.IdentityMapping(labels, fmt.Sprintf("identification failed: %v", err))
	}

	mapping, err := parseMapping(content, labels)
	if err != nil {
		logger.Warn("speaker identification returned malformed payload", logging.Error(err))
		return transcript.IdentityMapping(labels, fmt.Sprintf("identification unparseable: %v", err))
	}
	logger.Info(
		"speakers identified",
		logging.Int("labels", len(labels)),
		logging.Int("sampled_utterances", len(sample)),
		logging.String("rationale", mapping.Rationale),
	)
	return mapping
}

// Apply rewrites utterance speaker fields in place using the mapping. An
// identity mapping leaves the slice unchanged.
func Apply(mapping transcript.SpeakerMapping, utterances []transcript.Utterance) {
	if mapping.IsIdentity() {
		return
	}
	for i := range utterances {
		utterances[i].Speaker = mapping.NameFor(utterances[i].Speaker)
	}
}

// sampleUtterances keeps the whole transcript when short; otherwise it takes
// a head segment, a centered middle segment, and a tail segment, concatenated
// in original order. Introductions and sign-offs carry most naming evidence.
func sampleUtterances(utterances []transcript.Utterance) []transcript.Utterance {
	if len(utterances) <= sampleCap {
		return utterances
	}
	middleStart := len(utterances)/2 - middleCount/2
	if middleStart < headCount {
		// Just over the cap the centered segment would re-cover the head.
		middleStart = headCount
	}
	sample := make([]transcript.Utterance, 0, headCount+middleCount+tailCount)
	sample = append(sample, utterances[:headCount]...)
	sample = append(sample, utterances[middleStart:middleStart+middleCount]...)
	sample = append(sample, utterances[len(utterances)-tailCount:]...)
	return sample
}

func buildUserPrompt(sample []transcript.Utterance, labels []string, contextText string) string {
	var b strings.Builder
	if contextText != "" {
		b.WriteString("Context:\n")
		b.WriteString(contextText)
		b.WriteString("\n\n")
	}
	b.WriteString("Speaker labels to resolve: ")
	b.WriteString(strings.Join(labels, ", "))
	b.WriteString("\n\nTranscript excerpt:\n")
	for _, utt := range sample {
		text := utt.Text
		if len(text) > excerptLimit {
			cut := excerptLimit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			text = text[:cut] + "..."
		}
		b.WriteString(utt.Speaker)
		b.WriteString(": ")
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String()
}

type mappingPayload struct {
	Speakers []struct {
		Label      string `json:"label"`
		Name       string `json:"name"`
		Confidence string `json:"confidence"`
	} `json:"speakers"`
	Rationale string `json:"rationale"`
}

// parseMapping decodes the classifier payload and guarantees exactly one
// entry per distinct label: duplicates collapse to the first occurrence,
// missing labels fall back to identity with low confidence.
func parseMapping(content string, labels []string) (transcript.SpeakerMapping, error) {
	var payload mappingPayload
	if err := llm.DecodeJSON(content, &payload); err != nil {
		return transcript.SpeakerMapping{}, err
	}

	byLabel := make(map[string]transcript.SpeakerName, len(payload.Speakers))
	for _, entry := range payload.Speakers {
		label := strings.TrimSpace(entry.Label)
		if label == "" {
			continue
		}
		if _, ok := byLabel[label]; ok {
			continue
		}
		name := strings.TrimSpace(entry.Name)
		confidence := transcript.ParseConfidence(entry.Confidence)
		if name == "" {
			name = label
			confidence = transcript.ConfidenceLow
		}
		byLabel[label] = transcript.SpeakerName{Label: label, Name: name, Confidence: confidence}
	}

	names := make([]transcript.SpeakerName, 0, len(labels))
	for _, label := range labels {
		if entry, ok := byLabel[label]; ok {
			names = append(names, entry)
			continue
		}
		names = append(names, transcript.SpeakerName{
			Label:      label,
			Name:       label,
			Confidence: transcript.ConfidenceLow,
		})
	}
	return transcript.SpeakerMapping{
		Names:     names,
		Rationale: strings.TrimSpace(payload.Rationale),
	}, nil
}
