package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "catfacts"

// Attempt outcomes recorded by the HTTP fetcher.
const (
	OutcomeSuccess      = "success"
	OutcomeRateLimited  = "rate_limited"
	OutcomeServerError  = "server_error"
	OutcomeClientError  = "client_error"
	OutcomeNetworkError = "network_error"
)

// Metrics holds the collector's run metrics in a private registry.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	requestAttempts   *prometheus.CounterVec
	recordsFetched    prometheus.Counter
	recordsValid      prometheus.Counter
	recordsSkipped    prometheus.Counter
	recordsWritten    prometheus.Gauge
	duplicatesRemoved prometheus.Gauge
	runsTotal         *prometheus.CounterVec
	runDuration       prometheus.Gauge
	lastSuccess       prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_attempts_total",
			Help:      "HTTP request attempts against the upstream API by outcome",
		}, []string{"outcome"}),
		recordsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_fetched_total",
			Help:      "Raw records received from the upstream API",
		}),
		recordsValid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_valid_total",
			Help:      "Records that passed validation",
		}),
		recordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Records skipped as malformed",
		}),
		recordsWritten: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_written",
			Help:      "Rows written to the CSV output by the last run",
		}),
		duplicatesRemoved: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "duplicates_removed",
			Help:      "Duplicate ids dropped by the last run",
		}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Extraction runs by status",
		}, []string{"status"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last extraction run",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
	}

	m.registry.MustRegister(
		m.requestAttempts,
		m.recordsFetched,
		m.recordsValid,
		m.recordsSkipped,
		m.recordsWritten,
		m.duplicatesRemoved,
		m.runsTotal,
		m.runDuration,
		m.lastSuccess,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAttempt(outcome string) {
	if m == nil {
		return
	}
	m.requestAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveValidation(fetched, valid, skipped int) {
	if m == nil {
		return
	}
	m.recordsFetched.Add(float64(fetched))
	m.recordsValid.Add(float64(valid))
	m.recordsSkipped.Add(float64(skipped))
}

func (m *Metrics) ObserveWrite(written, duplicates int) {
	if m == nil {
		return
	}
	m.recordsWritten.Set(float64(written))
	m.duplicatesRemoved.Set(float64(duplicates))
}

func (m *Metrics) ObserveRun(status string, duration time.Duration, finishedAt time.Time) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.Set(duration.Seconds())
	if status == "success" {
		m.lastSuccess.Set(float64(finishedAt.Unix()))
	}
}

// WriteTextfile writes all metrics in the Prometheus text format for a textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
