package api

import (
	"math/rand/v2"
	"sync"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 500
	maxRandomAmount  = 500
	listAnimalType   = "cat"
)

// FactSummary is a list entry in the catfact.ninja format.
type FactSummary struct {
	Fact   string `json:"fact"`
	Length int    `json:"length"`
}

type FactsPage struct {
	CurrentPage int           `json:"current_page"`
	Data        []FactSummary `json:"data"`
	From        *int          `json:"from"`
	To          *int          `json:"to"`
	LastPage    int           `json:"last_page"`
	PerPage     int           `json:"per_page"`
	Total       int           `json:"total"`
	Path        string        `json:"path"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type Options struct {
	// Seed makes random selection reproducible; 0 seeds from the clock.
	Seed uint64
	// FailFirst answers the first N fact requests with 503.
	FailFirst int
}

type Handler struct {
	facts     []map[string]any
	listFacts []FactSummary

	mu  sync.Mutex
	rng *rand.Rand
}
