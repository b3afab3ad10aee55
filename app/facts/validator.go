package facts

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// factNamespace scopes derived ids so they never collide with other UUIDv5 users.
var factNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://catfact.ninja/facts"))

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Run normalizes each record independently. Records that cannot be normalized
// are logged and counted as skipped.
func (v *Validator) Run(records []RawRecord, extractedAt time.Time) ([]Fact, int) {
	facts := make([]Fact, 0, len(records))
	skipped := 0

	for i, record := range records {
		fact, err := v.Normalize(record, extractedAt)
		if err != nil {
			slog.Warn("Skipping invalid record", "index", i, "error", err)
			skipped++
			continue
		}
		facts = append(facts, fact)
	}

	slog.Info("Validation completed", "valid", len(facts), "skipped", skipped)

	return facts, skipped
}

func (v *Validator) Normalize(record RawRecord, extractedAt time.Time) (Fact, error) {
	m, ok := record.(map[string]any)
	if !ok {
		return Fact{}, fmt.Errorf("%w: expected object, got %T", ErrMalformedRecord, record)
	}

	fact := Fact{ExtractedAt: extractedAt}
	var err error

	if fact.Text, err = pickString(m, "fact", "text"); err != nil {
		return Fact{}, err
	}

	id, err := pickString(m, "_id", "id")
	if err != nil {
		return Fact{}, err
	}
	switch {
	case id != nil:
		fact.ID = *id
	case fact.Text != nil:
		fact.ID = DeriveID(*fact.Text)
	default:
		return Fact{}, fmt.Errorf("%w: record has neither id nor text", ErrMalformedRecord)
	}

	if fact.Type, err = pickString(m, "type"); err != nil {
		return Fact{}, err
	}

	userID, userName, err := userFields(m)
	if err != nil {
		return Fact{}, err
	}
	if fact.UserID, err = pickString(m, "user_id"); err != nil {
		return Fact{}, err
	}
	if fact.UserID == nil {
		fact.UserID = userID
	}
	fact.UserName = userName

	upvotes, err := pickInt(m, "upvotes")
	if err != nil {
		return Fact{}, err
	}
	if upvotes != nil {
		fact.Upvotes = *upvotes
	}

	if fact.UserUpvoted, err = pickBool(m, "userUpvoted", "user_upvoted"); err != nil {
		return Fact{}, err
	}
	if fact.CreatedAt, err = pickTime(m, "createdAt", "created_at"); err != nil {
		return Fact{}, err
	}
	if fact.UpdatedAt, err = pickTime(m, "updatedAt", "updated_at"); err != nil {
		return Fact{}, err
	}

	deleted, err := pickBool(m, "deleted")
	if err != nil {
		return Fact{}, err
	}
	if deleted != nil {
		fact.Deleted = *deleted
	}

	if fact.Source, err = pickString(m, "source"); err != nil {
		return Fact{}, err
	}
	if fact.Used, err = pickBool(m, "used"); err != nil {
		return Fact{}, err
	}

	if fact.SentCount, err = pickInt(m, "sentCount", "sent_count"); err != nil {
		return Fact{}, err
	}
	if status, ok := m["status"].(map[string]any); ok && fact.SentCount == nil {
		if fact.SentCount, err = pickInt(status, "sentCount", "sent_count"); err != nil {
			return Fact{}, err
		}
	}

	if fact.Length, err = pickInt(m, "length"); err != nil {
		return Fact{}, err
	}
	if (fact.Length == nil || *fact.Length == 0) && fact.Text != nil {
		n := utf8.RuneCountInString(*fact.Text)
		fact.Length = &n
	}

	return fact, nil
}

// DeriveID returns a stable id for a fact that arrives without one.
// Equal texts up to Unicode normalization and surrounding whitespace share an id.
func DeriveID(text string) string {
	normalized := norm.NFC.String(strings.TrimSpace(text))
	return uuid.NewSHA1(factNamespace, []byte(normalized)).String()
}
