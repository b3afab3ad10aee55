package api

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
)

func NewHandler(facts []map[string]any, opts Options) *Handler {
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	h := &Handler{
		facts: facts,
		rng:   rand.New(rand.NewPCG(seed, seed>>1)),
	}

	for _, f := range facts {
		if f["type"] != listAnimalType {
			continue
		}
		text, _ := f["text"].(string)
		h.listFacts = append(h.listFacts, FactSummary{Fact: text, Length: utf8.RuneCountInString(text)})
	}

	return h
}

// GetFacts serves one page of cat facts.
func (h *Handler) GetFacts(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultPageLimit)
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
		return
	}
	limit = min(limit, maxPageLimit)

	page, err := queryInt(c, "page", 1)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "page must be an integer"})
		return
	}
	page = max(page, 1)

	total := len(h.listFacts)
	resp := FactsPage{
		CurrentPage: page,
		Data:        []FactSummary{},
		LastPage:    max(1, (total+limit-1)/limit),
		PerPage:     limit,
		Total:       total,
		Path:        c.Request.URL.Path,
	}

	start := (page - 1) * limit
	if start < total {
		end := min(start+limit, total)
		resp.Data = h.listFacts[start:end]
		from, to := start+1, end
		resp.From, resp.To = &from, &to
	}

	c.JSON(http.StatusOK, resp)
}

// GetRandomFacts serves amount random facts of one animal type, sampled with replacement.
// A single fact is returned as an object, more than one as a list.
func (h *Handler) GetRandomFacts(c *gin.Context) {
	amount, err := queryInt(c, "amount", 1)
	if err != nil || amount < 1 || amount > maxRandomAmount {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("amount must be between 1 and %d", maxRandomAmount)})
		return
	}

	animalType := c.DefaultQuery("animal_type", listAnimalType)
	var pool []map[string]any
	for _, f := range h.facts {
		if f["type"] == animalType {
			pool = append(pool, f)
		}
	}
	if len(pool) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("no facts for animal type %q", animalType)})
		return
	}

	picked := make([]map[string]any, amount)
	h.mu.Lock()
	for i := range picked {
		picked[i] = pool[h.rng.IntN(len(pool))]
	}
	h.mu.Unlock()

	if amount == 1 {
		c.JSON(http.StatusOK, picked[0])
		return
	}
	c.JSON(http.StatusOK, picked)
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"facts":     len(h.facts),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
