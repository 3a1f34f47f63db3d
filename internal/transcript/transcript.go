package transcript

import (
	"sort"
	"strings"
)

// Utterance is one speaker-attributed, timestamped span of transcribed
// speech. StartMs is never greater than EndMs and Text is non-empty for
// utterances produced by the transcription provider.
type Utterance struct {
	Speaker string
	Text    string
	StartMs int
	EndMs   int
}

// SentenceUnit is a finer-grained span than Utterance, fetched on demand
// when an utterance needs re-segmentation and discarded afterwards.
type SentenceUnit struct {
	Speaker string
	Text    string
	StartMs int
	EndMs   int
}

// Confidence grades how certain the classifier was about a speaker name.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence normalizes a free-form confidence string to one of the
// known tiers, defaulting to low.
func ParseConfidence(value string) Confidence {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(ConfidenceHigh):
		return ConfidenceHigh
	case string(ConfidenceMedium):
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// SpeakerName maps a provider-assigned anonymous label to a resolved name.
type SpeakerName struct {
	Label      string
	Name       string
	Confidence Confidence
}

// SpeakerMapping covers every distinct label observed in a transcript,
// together with a short human-readable rationale from the classifier.
type SpeakerMapping struct {
	Names     []SpeakerName
	Rationale string
}

// NameFor returns the resolved name for a label, falling back to the label
// itself when no entry exists.
func (m SpeakerMapping) NameFor(label string) string {
	for _, entry := range m.Names {
		if entry.Label == label {
			return entry.Name
		}
	}
	return label
}

// IsIdentity reports whether every entry maps a label to itself.
func (m SpeakerMapping) IsIdentity() bool {
	for _, entry := range m.Names {
		if entry.Name != entry.Label {
			return false
		}
	}
	return true
}

// IdentityMapping builds the conservative fallback mapping: every label maps
// to itself with low confidence. Used whenever the classifier is absent or
// fails.
func IdentityMapping(labels []string, rationale string) SpeakerMapping {
	names := make([]SpeakerName, 0, len(labels))
	for _, label := range labels {
		names = append(names, SpeakerName{Label: label, Name: label, Confidence: ConfidenceLow})
	}
	return SpeakerMapping{Names: names, Rationale: rationale}
}

// DistinctLabels returns the distinct speaker labels across utterances in
// first-appearance order.
func DistinctLabels(utterances []Utterance) []string {
	seen := make(map[string]struct{}, 4)
	labels := make([]string, 0, 4)
	for _, utt := range utterances {
		if _, ok := seen[utt.Speaker]; ok {
			continue
		}
		seen[utt.Speaker] = struct{}{}
		labels = append(labels, utt.Speaker)
	}
	return labels
}

// SpeakerNames returns the sorted distinct resolved speaker names across
// utterances, used for the persisted speakers list.
func SpeakerNames(utterances []Utterance) []string {
	names := DistinctLabels(utterances)
	sort.Strings(names)
	return names
}

// TotalText concatenates every utterance's text. Segmentation must preserve
// this value byte for byte.
func TotalText(utterances []Utterance) string {
	var b strings.Builder
	for _, utt := range utterances {
		b.WriteString(utt.Text)
	}
	return b.String()
}
