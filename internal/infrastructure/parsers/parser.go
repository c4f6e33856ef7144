// Package parsers reads entity batches from JSON and CSV files.
package parsers

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

// RawEntity is one input row before it is handed to the pipeline.
type RawEntity struct {
	Type    string         `json:"type"`
	ID      string         `json:"id"`
	Data    map[string]any `json:"data,omitempty"`
	LineNum int            `json:"-"` // Line number in source file (set by parser)
}

// Ref converts the row into an entity reference.
func (e RawEntity) Ref() entities.EntityRef {
	return entities.EntityRef{
		Type: entities.NormalizeTypeName(e.Type),
		ID:   strings.TrimSpace(e.ID),
		Data: e.Data,
	}
}

func (e RawEntity) validate() error {
	if strings.TrimSpace(e.Type) == "" {
		return fmt.Errorf("line %d: missing entity type", e.LineNum)
	}
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("line %d: missing entity id", e.LineNum)
	}
	return nil
}

// Parser defines the interface for parsing entities from various formats.
type Parser interface {
	Parse(r io.Reader) ([]RawEntity, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	return ForFormat(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// Refs converts parsed rows into entity references.
func Refs(rows []RawEntity) []entities.EntityRef {
	refs := make([]entities.EntityRef, len(rows))
	for i, row := range rows {
		refs[i] = row.Ref()
	}
	return refs
}
