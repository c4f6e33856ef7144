package parsers

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses an array of {type, id, data} objects.
type JSONParser struct{}

// Parse reads JSON from the reader and returns parsed entities.
func (p *JSONParser) Parse(r io.Reader) ([]RawEntity, error) {
	var rows []RawEntity

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&rows); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	// Set line numbers (array index + 1, 1-indexed)
	for i := range rows {
		rows[i].LineNum = i + 1
		if err := rows[i].validate(); err != nil {
			return nil, err
		}
	}

	return rows, nil
}
