// Package organizer decides what a saved transcript is called and where it
// lands. It derives a document title from the available metadata, sanitizes
// it into a filename, probes for collisions so existing files are never
// overwritten, and writes the rendered document atomically.
package organizer
