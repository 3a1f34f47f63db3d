package store

import "time"

// SourceType distinguishes remote URLs from local files.
type SourceType string

const (
	SourceTypeURL  SourceType = "url"
	SourceTypeFile SourceType = "file"
)

// Record is the durable metadata row written once per successful run.
// ID is the transcription provider's identifier and the natural primary key.
type Record struct {
	ID              string
	SourceURL       string
	SourceType      SourceType
	Title           string
	Description     string
	Channel         string
	ChannelURL      string
	DurationSeconds int
	Speakers        []string
	FilePath        string
	CreatedAt       time.Time
	RawMetadata     string
	Content         string
}

// Filters narrows Query results. Zero values mean "no constraint".
type Filters struct {
	SourceType    SourceType
	Channel       string
	TitleContains string
	Limit         int
}
