package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/waikato/maiaflow/errors"
)

// Missing is the cell text read as a missing value.
const Missing = "?"

// ReadCSV reads a CSV document with a header line into a Table. A column is
// numeric when every non-missing cell parses as a float. The column named
// target, if non-empty, is marked as the target.
func ReadCSV(r io.Reader, target string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: empty document", errors.ErrParsingFailed),
			"dataset", "ReadCSV", "read header")
	}
	if err != nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrParsingFailed, err),
			"dataset", "ReadCSV", "read header")
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrParsingFailed, err),
			"dataset", "ReadCSV", "read records")
	}

	headers := make([]ColumnHeader, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		headers[i] = ColumnHeader{Name: name, Numeric: numericColumn(records, i), Target: name == target}
	}
	schema, err := NewSchema(headers...)
	if err != nil {
		return nil, errors.Wrap(err, "dataset", "ReadCSV", "build schema")
	}
	if target != "" && schema.TargetIndex() < 0 {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: no column %q", errors.ErrInvalidConfig, target),
			"dataset", "ReadCSV", "locate target")
	}

	rows := make([]Row, len(records))
	for n, rec := range records {
		row := make(Row, len(rec))
		for i, cell := range rec {
			row[i] = parseCell(cell, headers[i].Numeric)
		}
		rows[n] = row
	}
	return NewTable(schema, rows...)
}

func numericColumn(records [][]string, col int) bool {
	seen := false
	for _, rec := range records {
		cell := strings.TrimSpace(rec[col])
		if cell == Missing || cell == "" {
			continue
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			return false
		}
		seen = true
	}
	return seen
}

func parseCell(cell string, numeric bool) any {
	cell = strings.TrimSpace(cell)
	if cell == Missing || cell == "" {
		return nil
	}
	if numeric {
		f, _ := strconv.ParseFloat(cell, 64)
		return f
	}
	return cell
}
