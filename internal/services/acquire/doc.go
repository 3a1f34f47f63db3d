// Package acquire resolves transcription inputs to local audio files. Local
// paths are validated and passed through; remote references are downloaded
// with yt-dlp, which also yields page metadata (title, description,
// uploader). Every remote resolution returns a cleanup callback the
// orchestrator must invoke on all exit paths.
package acquire
