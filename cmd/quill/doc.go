// Command quill turns audio — a local file or a remote URL — into a
// speaker-attributed, paragraph-formatted transcript document, and keeps a
// searchable record of everything it has transcribed.
package main
