package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lysyi3m/catfacts-collector/app/facts"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "archive", "facts.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func strPtr(s string) *string {
	return &s
}

func TestNewConnection(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create blocker: %v", err)
	}

	_, err := NewConnection(filepath.Join(blocker, "facts.db"))
	if err == nil {
		t.Error("Expected error for a path below a regular file")
	}
}

func TestRunMigrations(t *testing.T) {
	db := newTestDB(t)

	version, dirty, err := RunMigrations(db)
	if err != nil {
		t.Fatalf("Expected repeated migration run to succeed, got %v", err)
	}
	if version != 2 {
		t.Errorf("Expected version 2, got %d", version)
	}
	if dirty {
		t.Error("Expected clean migration state")
	}
}

func TestFactRepositoryUpsert(t *testing.T) {
	db := newTestDB(t)
	repo := NewFactRepository(db)
	ctx := context.Background()

	firstRun := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	created := time.Date(2018, 3, 1, 21, 20, 2, 713000000, time.UTC)

	items := []facts.Fact{
		{ID: "1", Text: strPtr("Cats purr"), Type: strPtr("cat"), Upvotes: 3, CreatedAt: &created, ExtractedAt: firstRun},
		{ID: "2", Text: strPtr("Cats nap"), ExtractedAt: firstRun},
	}

	n, err := repo.UpsertFacts(ctx, items, firstRun)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 stored facts, got %d", n)
	}

	secondRun := firstRun.Add(time.Hour)
	items[0].Upvotes = 5
	items[0].ExtractedAt = secondRun
	if _, err := repo.UpsertFacts(ctx, items[:1], secondRun); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	count, err := repo.GetFactCount(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 facts, got %d", count)
	}

	stored, err := repo.GetFact(ctx, "1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if stored == nil {
		t.Fatal("Expected stored fact")
	}
	if stored.Upvotes != 5 {
		t.Errorf("Expected refreshed upvotes 5, got %d", stored.Upvotes)
	}
	if stored.SeenCount != 2 {
		t.Errorf("Expected seen count 2, got %d", stored.SeenCount)
	}
	if !stored.FirstSeenAt.Equal(firstRun) {
		t.Errorf("Expected first seen %v, got %v", firstRun, stored.FirstSeenAt)
	}
	if !stored.LastSeenAt.Equal(secondRun) {
		t.Errorf("Expected last seen %v, got %v", secondRun, stored.LastSeenAt)
	}
	if stored.CreatedAt == nil || !stored.CreatedAt.Equal(created) {
		t.Errorf("Expected created_at %v, got %v", created, stored.CreatedAt)
	}
	if stored.Type == nil || *stored.Type != "cat" {
		t.Errorf("Expected type cat, got %v", stored.Type)
	}

	other, err := repo.GetFact(ctx, "2")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if other.Type != nil || other.UpdatedAt != nil {
		t.Error("Expected nil optional fields")
	}
}

func TestFactRepositoryGetMissing(t *testing.T) {
	repo := NewFactRepository(newTestDB(t))

	stored, err := repo.GetFact(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if stored != nil {
		t.Errorf("Expected nil for missing fact, got %+v", stored)
	}
}

func TestRunRepository(t *testing.T) {
	repo := NewRunRepository(newTestDB(t))
	ctx := context.Background()

	last, err := repo.GetLastRun(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if last != nil {
		t.Error("Expected no runs in empty archive")
	}

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := []Run{
		{ID: "run-1", StartedAt: started, FinishedAt: started.Add(time.Second), Status: "success", Strategy: "bulk", Fetched: 10, Valid: 9, Skipped: 1, Written: 8, Duplicates: 1, OutputPath: "data/cat_facts.csv"},
		{ID: "run-2", StartedAt: started.Add(time.Hour), FinishedAt: started.Add(time.Hour + time.Second), Status: "failed", Strategy: "paginated", Error: "disk full"},
	}
	for _, run := range runs {
		if err := repo.InsertRun(ctx, run); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	count, err := repo.GetRunCount(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 runs, got %d", count)
	}

	last, err = repo.GetLastRun(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if last.ID != "run-2" || last.Status != "failed" || last.Error != "disk full" {
		t.Errorf("Unexpected last run: %+v", last)
	}
	if !last.StartedAt.Equal(runs[1].StartedAt) {
		t.Errorf("Expected started_at %v, got %v", runs[1].StartedAt, last.StartedAt)
	}
}
