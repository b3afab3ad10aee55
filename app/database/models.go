package database

import (
	"time"
)

// StoredFact is an archived fact with its sighting history.
type StoredFact struct {
	ID          string
	Text        *string
	Type        *string
	UserID      *string
	UserName    *string
	Upvotes     int
	CreatedAt   *time.Time
	UpdatedAt   *time.Time
	Deleted     bool
	ExtractedAt time.Time
	FirstSeenAt time.Time
	LastSeenAt  time.Time
	SeenCount   int
}

// Run records the outcome of one extraction run.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Strategy   string
	Fetched    int
	Valid      int
	Skipped    int
	Written    int
	Duplicates int
	OutputPath string
	Error      string
}
