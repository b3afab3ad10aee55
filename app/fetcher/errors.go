package fetcher

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrExhaustedRetries is returned when every attempt of a request failed with a transient error.
var ErrExhaustedRetries = errors.New("exhausted retries")

// StatusError is a non-2xx response from the upstream API.
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP error: %s from %s: %s", e.Status, e.URL, e.Body)
	}
	return fmt.Sprintf("HTTP error: %s from %s", e.Status, e.URL)
}

// Transient reports whether the status is worth retrying (429 and 5xx).
func (e *StatusError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}
