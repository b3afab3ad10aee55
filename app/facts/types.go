package facts

import (
	"errors"
	"time"
)

var (
	ErrMalformedRecord = errors.New("malformed record")
	ErrPersistence     = errors.New("persistence error")
)

// RawRecord is one element of an upstream response, normally a map[string]any.
type RawRecord = any

// Fact is a validated, flattened cat fact. Nil pointers are written as empty cells.
type Fact struct {
	ID          string
	Text        *string
	Type        *string
	UserID      *string
	UserName    *string
	Upvotes     int
	UserUpvoted *bool
	CreatedAt   *time.Time
	UpdatedAt   *time.Time
	Deleted     bool
	Source      *string
	Used        *bool
	SentCount   *int
	Length      *int
	ExtractedAt time.Time
}

// Columns is the CSV header in output order.
var Columns = []string{
	"id",
	"text",
	"type",
	"user_id",
	"user_name",
	"upvotes",
	"user_upvoted",
	"created_at",
	"updated_at",
	"deleted",
	"source",
	"used",
	"sent_count",
	"length",
	"extracted_at",
}

type TypeCount struct {
	Type  string
	Count int
}

// Summary describes one written CSV file.
type Summary struct {
	Path          string
	Records       int
	Columns       int
	FileSize      int64
	Duplicates    int
	Types         []TypeCount
	OldestCreated *time.Time
	NewestCreated *time.Time
	UpvotesTotal  int
	UpvotesMean   float64
}
