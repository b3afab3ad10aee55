package facts

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Accepted timestamp layouts. Layouts without a zone are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func fieldError(key string, v any) error {
	return fmt.Errorf("%w: field %q has unexpected type %T", ErrMalformedRecord, key, v)
}

// pickString returns the first non-blank string among keys.
func pickString(m map[string]any, keys ...string) (*string, error) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if strings.TrimSpace(s) == "" {
				continue
			}
			return &s, nil
		case json.Number:
			str := s.String()
			return &str, nil
		default:
			return nil, fieldError(k, v)
		}
	}
	return nil, nil
}

func pickInt(m map[string]any, keys ...string) (*int, error) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		n, err := toInt(v)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrMalformedRecord, k, err)
		}
		return &n, nil
	}
	return nil, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, err
		}
		return integral(f)
	case float64:
		return integral(n)
	case int:
		return n, nil
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	}
	return 0, fmt.Errorf("unexpected type %T", v)
}

func integral(f float64) (int, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	if f < float64(math.MinInt) || f >= float64(math.MaxInt) {
		return 0, fmt.Errorf("%v is out of range", f)
	}
	return int(f), nil
}

func pickBool(m map[string]any, keys ...string) (*bool, error) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		var (
			b   bool
			err error
		)
		switch t := v.(type) {
		case bool:
			b = t
		case string:
			b, err = strconv.ParseBool(strings.TrimSpace(t))
		case json.Number:
			b, err = strconv.ParseBool(t.String())
		default:
			return nil, fieldError(k, v)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrMalformedRecord, k, err)
		}
		return &b, nil
	}
	return nil, nil
}

// pickTime parses the first present timestamp. Unparseable values yield nil.
func pickTime(m map[string]any, keys ...string) (*time.Time, error) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if parsed, ok := parseTimestamp(t); ok {
				return &parsed, nil
			}
		case json.Number:
			f, err := t.Float64()
			if err != nil {
				return nil, nil
			}
			return unixTime(f), nil
		case float64:
			return unixTime(t), nil
		default:
			return nil, fieldError(k, v)
		}
	}
	return nil, nil
}

// Upper bound on epoch seconds before the int64 conversion.
const maxUnixSeconds = 1 << 62

// unixTime converts fractional Unix seconds, returning nil when out of range.
func unixTime(f float64) *time.Time {
	if math.IsNaN(f) || math.Abs(f) >= maxUnixSeconds {
		return nil
	}
	sec, frac := math.Modf(f)
	parsed := time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()
	return &parsed
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// userFields extracts the author id and display name from the "user" field,
// which is either a plain id string or an object with _id and name.
func userFields(m map[string]any) (*string, *string, error) {
	v, ok := m["user"]
	if !ok || v == nil {
		return nil, nil, nil
	}

	switch u := v.(type) {
	case string:
		if strings.TrimSpace(u) == "" {
			return nil, nil, nil
		}
		return &u, nil, nil
	case map[string]any:
		id, err := pickString(u, "_id", "id")
		if err != nil {
			return nil, nil, err
		}
		var full string
		switch name := u["name"].(type) {
		case map[string]any:
			first, _ := name["first"].(string)
			last, _ := name["last"].(string)
			full = strings.TrimSpace(first + " " + last)
		case string:
			full = strings.TrimSpace(name)
		case nil:
		default:
			return nil, nil, fieldError("user.name", name)
		}
		if full == "" {
			return id, nil, nil
		}
		return id, &full, nil
	default:
		return nil, nil, fieldError("user", v)
	}
}
