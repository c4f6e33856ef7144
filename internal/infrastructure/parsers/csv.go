package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVParser parses entities from CSV.
// The header must contain type and id; every other column is a data field.
// An empty cell is a null value.
type CSVParser struct{}

type csvHeader struct {
	typeIdx int
	idIdx   int
	fields  map[int]string
}

// Parse reads CSV from the reader and returns parsed entities.
func (p *CSVParser) Parse(r io.Reader) ([]RawEntity, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, header)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (*csvHeader, error) {
	row, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	h := &csvHeader{typeIdx: -1, idIdx: -1, fields: make(map[int]string)}
	for i, col := range row {
		col = strings.TrimSpace(col)
		switch col {
		case "type":
			h.typeIdx = i
		case "id":
			h.idIdx = i
		case "":
			return nil, fmt.Errorf("column %d has an empty name", i+1)
		default:
			h.fields[i] = col
		}
	}

	if h.typeIdx < 0 {
		return nil, fmt.Errorf("missing required column: type")
	}
	if h.idIdx < 0 {
		return nil, fmt.Errorf("missing required column: id")
	}

	return h, nil
}

// readRecords reads all data rows.
func (p *CSVParser) readRecords(reader *csv.Reader, header *csvHeader) ([]RawEntity, error) {
	rows := []RawEntity{}
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		row := p.parseRecord(record, header, lineNum)
		if err := row.validate(); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// parseRecord converts a CSV record to a RawEntity. Rows of a file without
// data columns carry nil data so they are loaded from the content store.
func (p *CSVParser) parseRecord(record []string, header *csvHeader, lineNum int) RawEntity {
	row := RawEntity{
		Type:    getColumn(record, header.typeIdx),
		ID:      getColumn(record, header.idIdx),
		LineNum: lineNum,
	}
	if len(header.fields) == 0 {
		return row
	}

	row.Data = make(map[string]any, len(header.fields))
	for idx, name := range header.fields {
		if v := getColumn(record, idx); v != "" {
			row.Data[name] = v
		} else {
			row.Data[name] = nil
		}
	}
	return row
}

// getColumn safely retrieves a column value from a record.
func getColumn(record []string, idx int) string {
	if idx >= 0 && idx < len(record) {
		return record[idx]
	}
	return ""
}
