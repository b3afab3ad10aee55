package facts

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
)

// Summarize computes statistics over already deduplicated facts.
func Summarize(facts []Fact) *Summary {
	s := &Summary{
		Records: len(facts),
		Columns: len(Columns),
	}

	counts := map[string]int{}
	for _, f := range facts {
		if f.Type != nil {
			counts[*f.Type]++
		}
		if f.CreatedAt != nil {
			if s.OldestCreated == nil || f.CreatedAt.Before(*s.OldestCreated) {
				s.OldestCreated = f.CreatedAt
			}
			if s.NewestCreated == nil || f.CreatedAt.After(*s.NewestCreated) {
				s.NewestCreated = f.CreatedAt
			}
		}
		s.UpvotesTotal += f.Upvotes
	}

	for t, c := range counts {
		s.Types = append(s.Types, TypeCount{Type: t, Count: c})
	}
	slices.SortFunc(s.Types, func(a, b TypeCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Type, b.Type))
	})

	if len(facts) > 0 {
		s.UpvotesMean = float64(s.UpvotesTotal) / float64(len(facts))
	}

	return s
}

func LogSummary(s *Summary) {
	if s == nil {
		return
	}

	slog.Info("Data statistics",
		"records", s.Records,
		"columns", s.Columns,
		"file_size_kb", fmt.Sprintf("%.2f", float64(s.FileSize)/1024),
		"duplicates_removed", s.Duplicates)

	for _, tc := range s.Types {
		slog.Info("Type distribution", "type", tc.Type, "count", tc.Count)
	}

	if s.OldestCreated != nil {
		slog.Info("Data period",
			"oldest", FormatTime(s.OldestCreated),
			"newest", FormatTime(s.NewestCreated))
	}

	slog.Info("Upvotes",
		"total", s.UpvotesTotal,
		"mean", fmt.Sprintf("%.2f", s.UpvotesMean))
}
