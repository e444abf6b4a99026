// Package schemaimport loads the optional column-type hint document
// that can accompany an IMPORT/CSV load, so types don't have to be
// inferred (spec §4.8 supplement). Adapted from the teacher's
// pkg/schema/loader.go JSON/YAML auto-detect shape, narrowed to just
// a column name/type/constraint list instead of a full multi-table
// schema document.
package schemaimport

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/essadb/essadb/pkg/relation"
	"github.com/essadb/essadb/pkg/value"
)

// Hints is one IMPORT's column-type pin list.
type Hints struct {
	Columns []struct {
		Name          string `json:"name" yaml:"name"`
		Type          string `json:"type" yaml:"type"`
		NotNull       bool   `json:"not_null,omitempty" yaml:"not_null,omitempty"`
		Unique        bool   `json:"unique,omitempty" yaml:"unique,omitempty"`
		AutoIncrement bool   `json:"auto_increment,omitempty" yaml:"auto_increment,omitempty"`
	} `json:"columns" yaml:"columns"`
}

// Load reads a Hints document, auto-detecting JSON vs YAML the same
// way the teacher's SchemaLoader.LoadFromFile does: by extension
// first, falling back to try-JSON-then-YAML.
func Load(path string) ([]relation.Column, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema hint file: %w", err)
	}

	var h Hints
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".json"):
		err = json.Unmarshal(data, &h)
	case strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml"):
		err = yaml.Unmarshal(data, &h)
	default:
		if jerr := json.Unmarshal(data, &h); jerr != nil {
			err = yaml.Unmarshal(data, &h)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema hint file: %w", err)
	}

	cols := make([]relation.Column, len(h.Columns))
	for i, c := range h.Columns {
		typ, ok := value.TypeFromString(c.Type)
		if !ok {
			return nil, fmt.Errorf("unknown column type '%s' for column '%s'", c.Type, c.Name)
		}
		cols[i] = relation.Column{
			Name: c.Name, Type: typ,
			NotNull: c.NotNull, Unique: c.Unique, AutoIncrement: c.AutoIncrement,
			Default: value.NewNull(),
		}
	}
	return cols, nil
}
