package api

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed fixtures/facts.json
var defaultFixture []byte

// LoadFixture reads facts from a JSON array file, or the built-in set when path is empty.
func LoadFixture(path string) ([]map[string]any, error) {
	data := defaultFixture
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var facts []map[string]any
	if err := dec.Decode(&facts); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}

	for i, f := range facts {
		text, _ := f["text"].(string)
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("fixture entry %d has no text", i)
		}
	}

	return facts, nil
}
