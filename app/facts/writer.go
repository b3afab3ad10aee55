package facts

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"
)

type CSVWriter struct{}

func NewCSVWriter() *CSVWriter {
	return &CSVWriter{}
}

// Run deduplicates, sorts and writes facts to path, replacing any existing file.
// It returns nil and writes nothing when facts is empty.
func (w *CSVWriter) Run(facts []Fact, path string) (*Summary, error) {
	if len(facts) == 0 {
		slog.Warn("No facts to save")
		return nil, nil
	}

	unique, duplicates := Deduplicate(facts)
	if duplicates > 0 {
		slog.Info("Duplicates removed", "count", duplicates)
	}
	SortByUpdated(unique)

	if err := writeFile(unique, path); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to stat %s: %w", ErrPersistence, path, err)
	}

	summary := Summarize(unique)
	summary.Path = path
	summary.FileSize = info.Size()
	summary.Duplicates = duplicates

	slog.Info("Facts saved", "path", path, "records", summary.Records)
	LogSummary(summary)

	return summary, nil
}

// Deduplicate keeps the first fact for every id, preserving input order.
func Deduplicate(facts []Fact) ([]Fact, int) {
	seen := make(map[string]struct{}, len(facts))
	unique := make([]Fact, 0, len(facts))

	for _, f := range facts {
		if _, ok := seen[f.ID]; ok {
			continue
		}
		seen[f.ID] = struct{}{}
		unique = append(unique, f)
	}

	return unique, len(facts) - len(unique)
}

// SortByUpdated orders facts by UpdatedAt, newest first, with unknown times last.
// Equal keys keep their relative order.
func SortByUpdated(facts []Fact) {
	slices.SortStableFunc(facts, func(a, b Fact) int {
		switch {
		case a.UpdatedAt == nil && b.UpdatedAt == nil:
			return 0
		case a.UpdatedAt == nil:
			return 1
		case b.UpdatedAt == nil:
			return -1
		}
		return b.UpdatedAt.Compare(*a.UpdatedAt)
	})
}

func writeFile(facts []Fact, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create output directory: %w", ErrPersistence, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %w", ErrPersistence, err)
	}
	defer os.Remove(tmp.Name())

	cw := csv.NewWriter(tmp)
	if err := cw.Write(Columns); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to write header: %w", ErrPersistence, err)
	}
	for _, f := range facts {
		if err := cw.Write(row(f)); err != nil {
			tmp.Close()
			return fmt.Errorf("%w: failed to write row %s: %w", ErrPersistence, f.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to flush csv: %w", ErrPersistence, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed to close temp file: %w", ErrPersistence, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("%w: failed to set file mode: %w", ErrPersistence, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: failed to replace %s: %w", ErrPersistence, path, err)
	}

	return nil
}

func row(f Fact) []string {
	return []string{
		f.ID,
		str(f.Text),
		str(f.Type),
		str(f.UserID),
		str(f.UserName),
		strconv.Itoa(f.Upvotes),
		boolPtr(f.UserUpvoted),
		FormatTime(f.CreatedAt),
		FormatTime(f.UpdatedAt),
		strconv.FormatBool(f.Deleted),
		str(f.Source),
		boolPtr(f.Used),
		intPtr(f.SentCount),
		intPtr(f.Length),
		FormatTime(&f.ExtractedAt),
	}
}

// FormatTime renders t as RFC 3339 with millisecond precision, or "" when nil.
func FormatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02T15:04:05.000Z07:00")
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func boolPtr(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

func intPtr(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
