// Package store persists transcript metadata in an embedded SQLite
// database. Each run writes a single record keyed by the transcription
// provider's id; re-running the same id replaces the prior row wholesale.
// A file lock alongside the database guards against concurrent writer
// processes sharing one data directory.
package store
