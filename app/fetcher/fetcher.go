package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/lysyi3m/catfacts-collector/app/metrics"
)

const (
	maxBodyBytes  = 32 << 20
	maxErrorBytes = 512
)

type Options struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
	VerifySSL   bool
	UserAgent   string
	RateLimit   float64 // requests per second, 0 disables pacing
}

// Fetcher issues JSON requests against the upstream API with bounded retries.
// It owns an HTTP session that must be released with Close.
type Fetcher struct {
	baseURL     string
	client      *http.Client
	transport   *http.Transport
	maxAttempts int
	retryDelay  time.Duration
	userAgent   string
	limiter     *rate.Limiter
	metrics     *metrics.Metrics
	sleep       func(ctx context.Context, d time.Duration) error
	closeOnce   sync.Once
}

func New(opts Options, m *metrics.Metrics) *Fetcher {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: !opts.VerifySSL},
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	if !opts.VerifySSL {
		slog.Warn("TLS certificate verification disabled, use only in development")
	}
	slog.Info("API client initialized", "base_url", opts.BaseURL)

	return &Fetcher{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		client:      &http.Client{Timeout: opts.Timeout, Transport: transport},
		transport:   transport,
		maxAttempts: maxAttempts,
		retryDelay:  opts.RetryDelay,
		userAgent:   opts.UserAgent,
		limiter:     rate.NewLimiter(limit, 1),
		metrics:     m,
		sleep:       sleepContext,
	}
}

// Request sends method to path with query and returns the decoded JSON body.
// Numbers are decoded as json.Number.
func (f *Fetcher) Request(ctx context.Context, path string, query url.Values, method string) (any, error) {
	endpoint, err := f.resolve(path, query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		slog.Debug("Sending request", "attempt", attempt, "max_attempts", f.maxAttempts, "method", method, "url", endpoint)

		body, err := f.do(req)
		if err == nil {
			f.metrics.ObserveAttempt(metrics.OutcomeSuccess)
			slog.Debug("Request succeeded", "url", endpoint, "attempt", attempt)
			return decode(body)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		var wait time.Duration
		var statusErr *StatusError
		switch {
		case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests:
			f.metrics.ObserveAttempt(metrics.OutcomeRateLimited)
			wait = f.retryDelay * time.Duration(attempt)
			slog.Warn("Rate limit reached", "url", endpoint, "attempt", attempt, "wait", wait.String())
		case errors.As(err, &statusErr) && statusErr.Transient():
			f.metrics.ObserveAttempt(metrics.OutcomeServerError)
			wait = f.retryDelay
			slog.Error("Server error", "url", endpoint, "attempt", attempt, "status", statusErr.StatusCode)
		case errors.As(err, &statusErr):
			f.metrics.ObserveAttempt(metrics.OutcomeClientError)
			slog.Error("Request rejected", "url", endpoint, "status", statusErr.StatusCode, "error", err)
			return nil, err
		default:
			f.metrics.ObserveAttempt(metrics.OutcomeNetworkError)
			wait = f.retryDelay
			slog.Error("Request failed", "url", endpoint, "attempt", attempt, "error", err)
		}

		lastErr = err
		if attempt == f.maxAttempts {
			break
		}
		if err := f.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: %d attempts to %s: %w", ErrExhaustedRetries, f.maxAttempts, endpoint, lastErr)
}

// Close releases the pooled connections. Safe to call more than once.
func (f *Fetcher) Close() {
	f.closeOnce.Do(func() {
		f.transport.CloseIdleConnections()
		slog.Info("API client closed")
	})
}

func (f *Fetcher) resolve(path string, query url.Values) (string, error) {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u, err := url.Parse(f.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("failed to build request URL: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

func (f *Fetcher) do(req *http.Request) ([]byte, error) {
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        req.URL.String(),
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

func decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return v, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
