package facts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/lysyi3m/catfacts-collector/app/cfg"
)

// Requester is the part of the HTTP fetcher the source depends on.
type Requester interface {
	Request(ctx context.Context, path string, query url.Values, method string) (any, error)
}

// Source pulls raw fact records from the upstream API using one fetch strategy.
type Source struct {
	requester  Requester
	profile    cfg.Profile
	maxRecords int
}

func NewSource(requester Requester, profile cfg.Profile, maxRecords int) *Source {
	return &Source{
		requester:  requester,
		profile:    profile,
		maxRecords: maxRecords,
	}
}

// FetchAll returns every record the upstream yields for animalType.
// Upstream failures are logged and end the fetch early; only context
// cancellation is returned as an error.
func (s *Source) FetchAll(ctx context.Context, animalType string) ([]RawRecord, error) {
	var (
		records []RawRecord
		err     error
	)

	switch s.profile.Strategy {
	case cfg.StrategyBulk:
		records, err = s.fetchBulk(ctx, animalType)
	case cfg.StrategyPaginated:
		records, err = s.fetchPaginated(ctx)
	default:
		return nil, fmt.Errorf("unsupported fetch strategy %q", s.profile.Strategy)
	}
	if err != nil {
		return nil, err
	}

	if s.maxRecords > 0 && len(records) > s.maxRecords {
		slog.Info("Record limit reached", "received", len(records), "max_records", s.maxRecords)
		records = records[:s.maxRecords]
	}

	slog.Info("Facts fetched", "strategy", string(s.profile.Strategy), "count", len(records))

	return records, nil
}

func (s *Source) fetchBulk(ctx context.Context, animalType string) ([]RawRecord, error) {
	query := url.Values{}
	query.Set("animal_type", animalType)
	query.Set("amount", strconv.Itoa(s.profile.BulkAmount))

	slog.Info("Fetching facts", "strategy", "bulk", "animal_type", animalType, "amount", s.profile.BulkAmount)

	data, err := s.requester.Request(ctx, s.profile.Endpoints.Random, query, http.MethodGet)
	if err != nil {
		if isCancellation(ctx, err) {
			return nil, err
		}
		slog.Error("Failed to fetch facts", "strategy", "bulk", "error", err)
		return []RawRecord{}, nil
	}

	switch v := data.(type) {
	case []any:
		return v, nil
	case map[string]any:
		return []RawRecord{v}, nil
	default:
		slog.Warn("Unexpected response shape", "strategy", "bulk", "type", fmt.Sprintf("%T", data))
		return []RawRecord{}, nil
	}
}

func (s *Source) fetchPaginated(ctx context.Context) ([]RawRecord, error) {
	records := []RawRecord{}

	for page := 1; page <= s.profile.MaxPages; page++ {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(s.profile.PageSize))
		query.Set("page", strconv.Itoa(page))

		slog.Debug("Fetching page", "page", page, "limit", s.profile.PageSize)

		data, err := s.requester.Request(ctx, s.profile.Endpoints.List, query, http.MethodGet)
		if err != nil {
			if isCancellation(ctx, err) {
				return nil, err
			}
			slog.Error("Failed to fetch page", "page", page, "error", err)
			break
		}

		wrapper, ok := data.(map[string]any)
		if !ok {
			slog.Warn("Unexpected response shape", "page", page, "type", fmt.Sprintf("%T", data))
			break
		}
		items, ok := wrapper["data"].([]any)
		if !ok {
			slog.Warn("Response has no data list", "page", page)
			break
		}
		if len(items) == 0 {
			slog.Debug("Empty page, stopping", "page", page)
			break
		}

		records = append(records, items...)

		lastPage, hasLastPage := intValue(wrapper["last_page"])
		slog.Info("Page fetched", "page", page, "last_page", lastPage, "count", len(items), "total", len(records))

		if hasLastPage && page >= lastPage {
			break
		}
		if s.maxRecords > 0 && len(records) >= s.maxRecords {
			break
		}
	}

	return records, nil
}

func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}
