package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type RunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) InsertRun(ctx context.Context, run Run) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, started_at, finished_at, status, strategy,
			fetched, valid, skipped, written, duplicates, output_path, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, timeValue(run.StartedAt), timeValue(run.FinishedAt), run.Status, run.Strategy,
		run.Fetched, run.Valid, run.Skipped, run.Written, run.Duplicates, run.OutputPath, run.Error)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// GetLastRun returns the most recently started run, or nil when none exist.
func (r *RunRepository) GetLastRun(ctx context.Context) (*Run, error) {
	var (
		run                 Run
		started, finished   string
		outputPath, errText sql.NullString
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, status, strategy,
		       fetched, valid, skipped, written, duplicates, output_path, error
		FROM runs
		ORDER BY started_at DESC
		LIMIT 1
	`).Scan(&run.ID, &started, &finished, &run.Status, &run.Strategy,
		&run.Fetched, &run.Valid, &run.Skipped, &run.Written, &run.Duplicates, &outputPath, &errText)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last run: %w", err)
	}

	if run.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if run.FinishedAt, err = parseTime(finished); err != nil {
		return nil, err
	}
	run.OutputPath = outputPath.String
	run.Error = errText.String

	return &run, nil
}

func (r *RunRepository) GetRunCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get run count: %w", err)
	}
	return count, nil
}
