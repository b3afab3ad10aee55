package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/catfacts-collector/app/cfg"
	"github.com/lysyi3m/catfacts-collector/app/database"
	"github.com/lysyi3m/catfacts-collector/app/facts"
	"github.com/lysyi3m/catfacts-collector/app/fetcher"
	"github.com/lysyi3m/catfacts-collector/app/metrics"
)

const (
	RunStatusSuccess     = "success"
	RunStatusFailed      = "failed"
	RunStatusInterrupted = "interrupted"
)

// ExtractFactsTask runs one extraction: fetch, validate, write CSV and archive.
type ExtractFactsTask struct {
	Task
	config    *cfg.Cfg
	validator *facts.Validator
	writer    *facts.CSVWriter
	factStore database.FactStore
	runStore  database.RunStore
	metrics   *metrics.Metrics
}

// NewExtractFactsTask builds the task. factStore and runStore may be nil to disable the archive.
func NewExtractFactsTask(config *cfg.Cfg, validator *facts.Validator, writer *facts.CSVWriter,
	factStore database.FactStore, runStore database.RunStore, m *metrics.Metrics) *ExtractFactsTask {
	return &ExtractFactsTask{
		Task:      NewTask(TaskTypeExtractFacts),
		config:    config,
		validator: validator,
		writer:    writer,
		factStore: factStore,
		runStore:  runStore,
		metrics:   m,
	}
}

func (t *ExtractFactsTask) Execute(ctx context.Context) (err error) {
	run := database.Run{
		ID:         t.ID,
		StartedAt:  time.Now().UTC(),
		Status:     RunStatusFailed,
		Strategy:   string(t.config.Profile.Strategy),
		OutputPath: t.config.OutputPath(),
	}
	defer func() {
		t.finish(ctx, &run, err)
	}()

	slog.Info("Starting cat facts extraction", "run_id", t.ID, "version", t.config.Version)

	if err := t.config.EnsureDirectories(); err != nil {
		return fmt.Errorf("%w: failed to prepare directories: %w", facts.ErrPersistence, err)
	}

	slog.Info("Configuration", t.config.Display()...)
	t.logPreviousRun(ctx)

	client := fetcher.New(fetcher.Options{
		BaseURL:     t.config.APIBaseURL,
		Timeout:     t.config.APITimeout,
		MaxAttempts: t.config.APIMaxRetries,
		RetryDelay:  t.config.APIRetryDelay,
		VerifySSL:   t.config.APIVerifySSL,
		UserAgent:   t.config.UserAgent,
		RateLimit:   t.config.APIRateLimit,
	}, t.metrics)
	defer client.Close()

	extractedAt := time.Now().UTC()

	source := facts.NewSource(client, t.config.Profile, t.config.MaxRecords)
	records, err := source.FetchAll(ctx, t.config.AnimalType)
	if err != nil {
		return fmt.Errorf("failed to fetch facts: %w", err)
	}
	run.Fetched = len(records)
	if len(records) == 0 {
		slog.Warn("No records received from the API")
	}

	valid, skipped := t.validator.Run(records, extractedAt)
	run.Valid = len(valid)
	run.Skipped = skipped
	t.metrics.ObserveValidation(len(records), len(valid), skipped)

	summary, err := t.writer.Run(valid, t.config.OutputPath())
	if err != nil {
		return fmt.Errorf("failed to save facts: %w", err)
	}
	if summary != nil {
		run.Written = summary.Records
		run.Duplicates = summary.Duplicates
	}

	if t.factStore != nil && len(valid) > 0 {
		unique, _ := facts.Deduplicate(valid)
		stored, err := t.factStore.UpsertFacts(ctx, unique, extractedAt)
		if err != nil {
			return fmt.Errorf("%w: failed to archive facts: %w", facts.ErrPersistence, err)
		}
		total, err := t.factStore.GetFactCount(ctx)
		if err != nil {
			return fmt.Errorf("%w: failed to count archived facts: %w", facts.ErrPersistence, err)
		}
		slog.Info("Facts archived", "count", stored, "total", total)
	}

	run.Status = RunStatusSuccess
	return nil
}

// logPreviousRun reports the archived run history. Lookup failures are not fatal.
func (t *ExtractFactsTask) logPreviousRun(ctx context.Context) {
	if t.runStore == nil {
		return
	}

	count, err := t.runStore.GetRunCount(ctx)
	if err != nil {
		slog.Warn("Failed to count previous runs", "error", err)
		return
	}
	last, err := t.runStore.GetLastRun(ctx)
	if err != nil {
		slog.Warn("Failed to load previous run", "error", err)
		return
	}
	if last == nil {
		slog.Info("No previous runs recorded")
		return
	}

	slog.Info("Previous run",
		"runs", count,
		"run_id", last.ID,
		"status", last.Status,
		"written", last.Written,
		"finished_at", last.FinishedAt.Format(time.RFC3339))
}

// finish records the run outcome in metrics and the archive. Failures here are logged only.
func (t *ExtractFactsTask) finish(ctx context.Context, run *database.Run, err error) {
	run.FinishedAt = time.Now().UTC()
	duration := t.GetDuration()

	if err != nil {
		run.Error = err.Error()
		if errors.Is(err, context.Canceled) {
			run.Status = RunStatusInterrupted
		}
	}

	t.metrics.ObserveWrite(run.Written, run.Duplicates)
	t.metrics.ObserveRun(run.Status, duration, run.FinishedAt)
	if werr := t.metrics.WriteTextfile(t.config.MetricsFile); werr != nil {
		slog.Warn("Failed to write metrics file", "path", t.config.MetricsFile, "error", werr)
	}

	if t.runStore != nil {
		if serr := t.runStore.InsertRun(context.WithoutCancel(ctx), *run); serr != nil {
			slog.Warn("Failed to record run", "run_id", run.ID, "error", serr)
		}
	}

	if run.Status == RunStatusSuccess {
		slog.Info("Extraction completed successfully",
			"run_id", run.ID,
			"records", run.Written,
			"output", run.OutputPath,
			"duration", duration.String())
	}
}
