package facts

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"testing"

	"github.com/lysyi3m/catfacts-collector/app/cfg"
)

type fakeRequester struct {
	responses []any
	errs      []error
	paths     []string
	queries   []url.Values
}

func (f *fakeRequester) Request(ctx context.Context, path string, query url.Values, method string) (any, error) {
	i := len(f.paths)
	f.paths = append(f.paths, path)
	f.queries = append(f.queries, query)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return nil, errors.New("no more responses")
}

func testProfile(strategy cfg.Strategy, maxPages int) cfg.Profile {
	return cfg.Profile{
		Strategy:   strategy,
		Endpoints:  cfg.Endpoints{List: "/facts", Random: "/facts/random"},
		PageSize:   2,
		MaxPages:   maxPages,
		BulkAmount: 500,
	}
}

func page(lastPage int, texts ...string) map[string]any {
	data := make([]any, 0, len(texts))
	for _, t := range texts {
		data = append(data, map[string]any{"fact": t})
	}
	return map[string]any{
		"current_page": json.Number("1"),
		"data":         data,
		"last_page":    json.Number(strconv.Itoa(lastPage)),
	}
}

func TestFetchAllPaginatedStopsAtLastPage(t *testing.T) {
	requester := &fakeRequester{responses: []any{
		page(3, "a", "b"),
		page(3, "c", "d"),
		page(3, "e", "f"),
		page(3, "g", "h"),
	}}
	source := NewSource(requester, testProfile(cfg.StrategyPaginated, 10), 0)

	records, err := source.FetchAll(context.Background(), "cat")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(requester.paths) != 3 {
		t.Errorf("Expected 3 requests, got %d", len(requester.paths))
	}
	if len(records) != 6 {
		t.Errorf("Expected 6 records, got %d", len(records))
	}
	for i, q := range requester.queries {
		if q.Get("page") != strconv.Itoa(i+1) {
			t.Errorf("Expected page %d, got %s", i+1, q.Get("page"))
		}
		if q.Get("limit") != "2" {
			t.Errorf("Expected limit 2, got %s", q.Get("limit"))
		}
	}
	if requester.paths[0] != "/facts" {
		t.Errorf("Expected path /facts, got %s", requester.paths[0])
	}
}

func TestFetchAllPaginatedStopsOnEmptyPage(t *testing.T) {
	requester := &fakeRequester{responses: []any{
		page(10, "a", "b"),
		page(10),
	}}
	source := NewSource(requester, testProfile(cfg.StrategyPaginated, 10), 0)

	records, err := source.FetchAll(context.Background(), "cat")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(requester.paths) != 2 {
		t.Errorf("Expected 2 requests, got %d", len(requester.paths))
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 records, got %d", len(records))
	}
}

func TestFetchAllPaginatedKeepsPartialResultsOnError(t *testing.T) {
	requester := &fakeRequester{
		responses: []any{page(5, "a", "b")},
		errs:      []error{nil, errors.New("retries exhausted")},
	}
	source := NewSource(requester, testProfile(cfg.StrategyPaginated, 10), 0)

	records, err := source.FetchAll(context.Background(), "cat")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(requester.paths) != 2 {
		t.Errorf("Expected 2 requests, got %d", len(requester.paths))
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 records, got %d", len(records))
	}
}

func TestFetchAllPaginatedMissingData(t *testing.T) {
	requester := &fakeRequester{responses: []any{
		map[string]any{"message": "not found"},
	}}
	source := NewSource(requester, testProfile(cfg.StrategyPaginated, 10), 0)

	records, err := source.FetchAll(context.Background(), "cat")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected 0 records, got %d", len(records))
	}
	if len(requester.paths) != 1 {
		t.Errorf("Expected 1 request, got %d", len(requester.paths))
	}
}

func TestFetchAllPaginatedRespectsMaxPages(t *testing.T) {
	requester := &fakeRequester{responses: []any{
		page(50, "a", "b"),
		page(50, "c", "d"),
		page(50, "e", "f"),
	}}
	source := NewSource(requester, testProfile(cfg.StrategyPaginated, 2), 0)

	records, err := source.FetchAll(context.Background(), "cat")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(requester.paths) != 2 {
		t.Errorf("Expected 2 requests, got %d", len(requester.paths))
	}
	if len(records) != 4 {
		t.Errorf("Expected 4 records, got %d", len(records))
	}
}

func TestFetchAllBulkList(t *testing.T) {
	requester := &fakeRequester{responses: []any{
		[]any{
			map[string]any{"_id": "1", "text": "a"},
			map[string]any{"_id": "2", "text": "b"},
		},
	}}
	source := NewSource(requester, testProfile(cfg.StrategyBulk, 10), 0)

	records, err := source.FetchAll(context.Background(), "cat")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(records) != 2 {
		t.Errorf("Expected 2 records, got %d", len(records))
	}
	if requester.paths[0] != "/facts/random" {
		t.Errorf("Expected path /facts/random, got %s", requester.paths[0])
	}
	q := requester.queries[0]
	if q.Get("animal_type") != "cat" {
		t.Errorf("Expected animal_type cat, got %s", q.Get("animal_type"))
	}
	if q.Get("amount") != "500" {
		t.Errorf("Expected amount 500, got %s", q.Get("amount"))
	}
}

func TestFetchAllBulkSingleObject(t *testing.T) {
	requester := &fakeRequester{responses: []any{
		map[string]any{"_id": "1", "text": "a"},
	}}
	source := NewSource(requester, testProfile(cfg.StrategyBulk, 10), 0)

	records, err := source.FetchAll(context.Background(), "cat")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 record, got %d", len(records))
	}
}

func TestFetchAllBulkFailureYieldsEmpty(t *testing.T) {
	requester := &fakeRequester{errs: []error{errors.New("retries exhausted")}}
	source := NewSource(requester, testProfile(cfg.StrategyBulk, 10), 0)

	records, err := source.FetchAll(context.Background(), "cat")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("Expected empty record list, got %v", records)
	}
}

func TestFetchAllBulkUnexpectedShape(t *testing.T) {
	requester := &fakeRequester{responses: []any{"unexpected"}}
	source := NewSource(requester, testProfile(cfg.StrategyBulk, 10), 0)

	records, err := source.FetchAll(context.Background(), "cat")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected 0 records, got %d", len(records))
	}
}

func TestFetchAllMaxRecords(t *testing.T) {
	items := []any{}
	for i := 0; i < 5; i++ {
		items = append(items, map[string]any{"_id": strconv.Itoa(i)})
	}
	requester := &fakeRequester{responses: []any{items}}
	source := NewSource(requester, testProfile(cfg.StrategyBulk, 10), 3)

	records, err := source.FetchAll(context.Background(), "cat")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("Expected 3 records, got %d", len(records))
	}
}

func TestFetchAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, strategy := range []cfg.Strategy{cfg.StrategyBulk, cfg.StrategyPaginated} {
		requester := &fakeRequester{}
		source := NewSource(requester, testProfile(strategy, 10), 0)

		_, err := source.FetchAll(ctx, "cat")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled for %s, got %v", strategy, err)
		}
	}
}

func TestFetchAllUnsupportedStrategy(t *testing.T) {
	source := NewSource(&fakeRequester{}, testProfile(cfg.StrategyAuto, 10), 0)

	if _, err := source.FetchAll(context.Background(), "cat"); err == nil {
		t.Error("Expected error for unresolved strategy")
	}
}
