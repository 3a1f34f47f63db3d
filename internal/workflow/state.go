package workflow

// State identifies where a run is in its lifecycle.
type State string

const (
	StateResolvingInput State = "resolving-input"
	StateTranscribing   State = "transcribing"
	StateSegmenting     State = "segmenting"
	StateEnriching      State = "enriching"
	StateFormatting     State = "formatting"
	StatePersisting     State = "persisting"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

func (s State) String() string {
	return string(s)
}
