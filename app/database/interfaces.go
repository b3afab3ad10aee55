package database

import (
	"context"
	"time"

	"github.com/lysyi3m/catfacts-collector/app/facts"
)

type FactStore interface {
	UpsertFacts(ctx context.Context, items []facts.Fact, seenAt time.Time) (int, error)
	GetFact(ctx context.Context, id string) (*StoredFact, error)
	GetFactCount(ctx context.Context) (int, error)
}

type RunStore interface {
	InsertRun(ctx context.Context, run Run) error
	GetLastRun(ctx context.Context) (*Run, error)
	GetRunCount(ctx context.Context) (int, error)
}
