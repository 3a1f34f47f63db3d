package store_test

import (
	"context"
	"testing"
	"time"

	"quill/internal/store"
	"quill/internal/testsupport"
)

func sampleRecord(id, sourceURL string) *store.Record {
	return &store.Record{
		ID:              id,
		SourceURL:       sourceURL,
		SourceType:      store.SourceTypeURL,
		Title:           "Episode 42",
		Channel:         "Example Show",
		DurationSeconds: 3600,
		Speakers:        []string{"Jane Doe", "John Smith"},
		FilePath:        "/tmp/episode-42.md",
		CreatedAt:       time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		Content:         "[00:00] **Jane Doe**: Welcome.\n",
	}
}

func TestUpsertAndGetByID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	rec := sampleRecord("tr_1", "https://example.com/ep42")
	if err := st.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := st.GetByID(ctx, "tr_1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("expected record, got nil")
	}
	if got.Title != "Episode 42" || got.Channel != "Example Show" {
		t.Errorf("unexpected record: %+v", got)
	}
	if len(got.Speakers) != 2 || got.Speakers[0] != "Jane Doe" {
		t.Errorf("speakers not round-tripped: %v", got.Speakers)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("created_at drifted: %v vs %v", got.CreatedAt, rec.CreatedAt)
	}
}

func TestUpsertReplacesExistingRow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := sampleRecord("tr_1", "https://example.com/ep42")
	if err := st.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	second := sampleRecord("tr_1", "https://example.com/ep42")
	second.Title = "Episode 42 (remastered)"
	second.FilePath = "/tmp/episode-42 (2).md"
	if err := st.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}

	records, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected exactly one row after re-upsert, got %d", len(records))
	}
	if records[0].Title != "Episode 42 (remastered)" {
		t.Errorf("row not replaced: %+v", records[0])
	}
}

func TestFindBySource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := st.Upsert(ctx, sampleRecord("tr_1", "https://example.com/ep42")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := st.FindBySource(ctx, "https://example.com/ep42")
	if err != nil {
		t.Fatalf("FindBySource: %v", err)
	}
	if got == nil || got.ID != "tr_1" {
		t.Fatalf("expected tr_1, got %+v", got)
	}

	missing, err := st.FindBySource(ctx, "https://example.com/other")
	if err != nil {
		t.Fatalf("FindBySource miss: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown source, got %+v", missing)
	}
}

func TestQueryFilters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a := sampleRecord("tr_a", "https://example.com/a")
	a.Channel = "Show A"
	b := sampleRecord("tr_b", "https://example.com/b")
	b.Channel = "Show B"
	b.Title = "Deep Dive"
	c := sampleRecord("tr_c", "")
	c.SourceType = store.SourceTypeFile
	c.SourceURL = ""

	for _, rec := range []*store.Record{a, b, c} {
		if err := st.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert %s: %v", rec.ID, err)
		}
	}

	byChannel, err := st.Query(ctx, store.Filters{Channel: "Show B"})
	if err != nil {
		t.Fatalf("Query channel: %v", err)
	}
	if len(byChannel) != 1 || byChannel[0].ID != "tr_b" {
		t.Errorf("channel filter: got %d records", len(byChannel))
	}

	byType, err := st.Query(ctx, store.Filters{SourceType: store.SourceTypeFile})
	if err != nil {
		t.Fatalf("Query type: %v", err)
	}
	if len(byType) != 1 || byType[0].ID != "tr_c" {
		t.Errorf("source type filter: got %d records", len(byType))
	}

	byTitle, err := st.Query(ctx, store.Filters{TitleContains: "deep"})
	if err != nil {
		t.Fatalf("Query title: %v", err)
	}
	if len(byTitle) != 1 || byTitle[0].ID != "tr_b" {
		t.Errorf("title filter: got %d records", len(byTitle))
	}

	limited, err := st.Query(ctx, store.Filters{Limit: 2})
	if err != nil {
		t.Fatalf("Query limit: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limit filter: got %d records", len(limited))
	}
}

func TestOpenRejectsSecondWriter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := testsupport.MustOpenStore(t, cfg)
	_ = first

	if _, err := store.Open(cfg); err == nil {
		t.Fatal("expected second Open on same data dir to fail")
	}
}
