package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lysyi3m/catfacts-collector/app/facts"
)

// FactRepository archives facts across runs, keyed by fact id.
type FactRepository struct {
	db *DB
}

func NewFactRepository(db *DB) *FactRepository {
	return &FactRepository{db: db}
}

// UpsertFacts stores items in one transaction. Known ids keep their
// first_seen_at and have their content, last_seen_at and seen_count refreshed.
func (r *FactRepository) UpsertFacts(ctx context.Context, items []facts.Fact, seenAt time.Time) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO facts (
			id, text, type, user_id, user_name, upvotes, user_upvoted,
			created_at, updated_at, deleted, source, used, sent_count, length,
			extracted_at, first_seen_at, last_seen_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			text = excluded.text,
			type = excluded.type,
			user_id = excluded.user_id,
			user_name = excluded.user_name,
			upvotes = excluded.upvotes,
			user_upvoted = excluded.user_upvoted,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			deleted = excluded.deleted,
			source = excluded.source,
			used = excluded.used,
			sent_count = excluded.sent_count,
			length = excluded.length,
			extracted_at = excluded.extracted_at,
			last_seen_at = excluded.last_seen_at,
			seen_count = facts.seen_count + 1
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare fact upsert: %w", err)
	}
	defer stmt.Close()

	seen := timeValue(seenAt)
	for _, f := range items {
		_, err := stmt.ExecContext(ctx,
			f.ID,
			nullable(f.Text),
			nullable(f.Type),
			nullable(f.UserID),
			nullable(f.UserName),
			f.Upvotes,
			nullable(f.UserUpvoted),
			nullableTime(f.CreatedAt),
			nullableTime(f.UpdatedAt),
			f.Deleted,
			nullable(f.Source),
			nullable(f.Used),
			nullable(f.SentCount),
			nullable(f.Length),
			timeValue(f.ExtractedAt),
			seen,
			seen,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert fact %s: %w", f.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit facts: %w", err)
	}

	return len(items), nil
}

func (r *FactRepository) GetFact(ctx context.Context, id string) (*StoredFact, error) {
	var (
		f                                StoredFact
		text, typ, userID, userName      sql.NullString
		createdAt, updatedAt             sql.NullString
		extractedAt, firstSeen, lastSeen string
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, text, type, user_id, user_name, upvotes, created_at, updated_at,
		       deleted, extracted_at, first_seen_at, last_seen_at, seen_count
		FROM facts WHERE id = ?
	`, id).Scan(&f.ID, &text, &typ, &userID, &userName, &f.Upvotes, &createdAt, &updatedAt,
		&f.Deleted, &extractedAt, &firstSeen, &lastSeen, &f.SeenCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fact: %w", err)
	}

	f.Text = nullString(text)
	f.Type = nullString(typ)
	f.UserID = nullString(userID)
	f.UserName = nullString(userName)

	if f.CreatedAt, err = parseNullTime(createdAt); err != nil {
		return nil, err
	}
	if f.UpdatedAt, err = parseNullTime(updatedAt); err != nil {
		return nil, err
	}
	if f.ExtractedAt, err = parseTime(extractedAt); err != nil {
		return nil, err
	}
	if f.FirstSeenAt, err = parseTime(firstSeen); err != nil {
		return nil, err
	}
	if f.LastSeenAt, err = parseTime(lastSeen); err != nil {
		return nil, err
	}

	return &f, nil
}

func (r *FactRepository) GetFactCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM facts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get fact count: %w", err)
	}
	return count, nil
}

func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// storedTimeLayout is fixed width so stored values sort chronologically as text.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func timeValue(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return timeValue(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored time %q: %w", s, err)
	}
	return t, nil
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
