package assemblyai

// Utterance is one diarized speaker turn as reported by the provider.
// Speaker carries the provider's anonymous label (e.g. "A").
type Utterance struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	StartMs int    `json:"start"`
	EndMs   int    `json:"end"`
}

// Sentence is a sentence-level span, fetched separately from the transcript.
type Sentence struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	StartMs int    `json:"start"`
	EndMs   int    `json:"end"`
}

// Transcript is the provider's completed transcription result.
type Transcript struct {
	ID              string
	Text            string
	Utterances      []Utterance
	DurationSeconds int
}

// Options controls transcript creation.
type Options struct {
	// Diarize requests speaker labels on utterances.
	Diarize bool
	// LanguageDetection lets the provider pick the spoken language.
	LanguageDetection bool
}
