// Package assemblyai implements the transcription provider client. The
// provider works asynchronously (upload, create transcript, poll until a
// terminal status); that polling loop is hidden in here so callers see a
// single blocking Transcribe call. A terminal "error" status from the
// provider is surfaced as a fatal error.
package assemblyai
