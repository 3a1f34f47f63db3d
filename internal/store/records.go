package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const recordColumns = `id, source_url, source_type, title, description, channel,
    channel_url, duration_seconds, speakers_json, file_path, created_at,
    raw_metadata, content`

// Upsert inserts the record or, when a row with the same id exists, replaces
// it wholesale. Re-processing a source yields exactly one row per provider id.
func (s *Store) Upsert(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		return errors.New("record id required")
	}
	speakersJSON, err := json.Marshal(rec.Speakers)
	if err != nil {
		return fmt.Errorf("marshal speakers: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO transcripts (
            id, source_url, source_type, title, description, channel,
            channel_url, duration_seconds, speakers_json, file_path,
            created_at, raw_metadata, content
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            source_url = excluded.source_url,
            source_type = excluded.source_type,
            title = excluded.title,
            description = excluded.description,
            channel = excluded.channel,
            channel_url = excluded.channel_url,
            duration_seconds = excluded.duration_seconds,
            speakers_json = excluded.speakers_json,
            file_path = excluded.file_path,
            created_at = excluded.created_at,
            raw_metadata = excluded.raw_metadata,
            content = excluded.content`,
		rec.ID,
		nullableString(rec.SourceURL),
		string(rec.SourceType),
		rec.Title,
		nullableString(rec.Description),
		nullableString(rec.Channel),
		nullableString(rec.ChannelURL),
		rec.DurationSeconds,
		string(speakersJSON),
		rec.FilePath,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		nullableString(rec.RawMetadata),
		rec.Content,
	)
	if err != nil {
		return fmt.Errorf("upsert transcript: %w", err)
	}
	return nil
}

// GetByID fetches a record by provider identifier. Returns nil when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM transcripts WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// FindBySource looks up a record by its original source reference. Used as
// the duplicate gate before any paid work begins.
func (s *Store) FindBySource(ctx context.Context, sourceRef string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM transcripts WHERE source_url = ? ORDER BY created_at DESC LIMIT 1`,
		sourceRef)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// Query returns records matching the filters, newest first.
func (s *Store) Query(ctx context.Context, filters Filters) ([]*Record, error) {
	var (
		clauses []string
		args    []any
	)
	if filters.SourceType != "" {
		clauses = append(clauses, "source_type = ?")
		args = append(args, string(filters.SourceType))
	}
	if filters.Channel != "" {
		clauses = append(clauses, "channel = ?")
		args = append(args, filters.Channel)
	}
	if filters.TitleContains != "" {
		clauses = append(clauses, "title LIKE ?")
		args = append(args, "%"+filters.TitleContains+"%")
	}

	query := `SELECT ` + recordColumns + ` FROM transcripts`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transcripts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*Record
	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcripts: %w", err)
	}
	return records, nil
}

// List returns all records, newest first.
func (s *Store) List(ctx context.Context) ([]*Record, error) {
	return s.Query(ctx, Filters{})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec          Record
		sourceURL    sql.NullString
		sourceType   string
		description  sql.NullString
		channel      sql.NullString
		channelURL   sql.NullString
		speakersJSON string
		createdAt    string
		rawMetadata  sql.NullString
	)
	err := row.Scan(
		&rec.ID,
		&sourceURL,
		&sourceType,
		&rec.Title,
		&description,
		&channel,
		&channelURL,
		&rec.DurationSeconds,
		&speakersJSON,
		&rec.FilePath,
		&createdAt,
		&rawMetadata,
		&rec.Content,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan transcript: %w", err)
	}

	rec.SourceURL = sourceURL.String
	rec.SourceType = SourceType(sourceType)
	rec.Description = description.String
	rec.Channel = channel.String
	rec.ChannelURL = channelURL.String
	rec.RawMetadata = rawMetadata.String

	if speakersJSON != "" {
		if err := json.Unmarshal([]byte(speakersJSON), &rec.Speakers); err != nil {
			return nil, fmt.Errorf("decode speakers: %w", err)
		}
	}
	if ts, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
		rec.CreatedAt = ts
	}

	return &rec, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
