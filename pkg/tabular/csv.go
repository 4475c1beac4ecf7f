// Package tabular decodes uploaded CSV payloads into typed equipment
// readings, enforcing the required column set before any value is parsed.
package tabular

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/veronikad26/chemical-equip-analyser/pkg/apperrors"
	"github.com/veronikad26/chemical-equip-analyser/pkg/models"
)

// Required column labels, exact and case-sensitive. The labels double as
// the JSON keys on rendered rows, so they must not be normalized.
var RequiredColumns = []string{"Equipment Name", "Type", "Flowrate", "Pressure", "Temperature"}

// Table is an ordered sequence of readings plus the source header.
// Row order is preserved from the file; previews rely on it.
type Table struct {
	Header []string
	Rows   []models.EquipmentRow
}

// ValidateHeader checks that every required column is present. Extra
// columns are ignored. Returns a SchemaError listing exactly the missing
// set, in required-column order.
func ValidateHeader(header []string) error {
	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}

	var missing []string
	for _, col := range RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &apperrors.SchemaError{Missing: missing}
	}
	return nil
}

// ParseCSV decodes the payload into a Table. It fails fast on the header
// before touching any row, and rejects the whole table on the first value
// that cannot be coerced to a number; a partially-parsed upload is never
// returned.
func ParseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &apperrors.FormatError{Reason: "file is empty"}
	}
	if err != nil {
		return nil, &apperrors.FormatError{Reason: err.Error()}
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	if err := ValidateHeader(header); err != nil {
		return nil, err
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[col] = i
	}

	table := &Table{Header: header}
	line := 1 // header is line 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &apperrors.FormatError{Reason: err.Error()}
		}
		line++

		row := models.EquipmentRow{
			Name: strings.TrimSpace(record[index["Equipment Name"]]),
			Type: strings.TrimSpace(record[index["Type"]]),
		}
		if row.Flowrate, err = parseMetric(record, index, "Flowrate", line); err != nil {
			return nil, err
		}
		if row.Pressure, err = parseMetric(record, index, "Pressure", line); err != nil {
			return nil, err
		}
		if row.Temperature, err = parseMetric(record, index, "Temperature", line); err != nil {
			return nil, err
		}

		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// parseMetric coerces one numeric cell. NaN and infinities are rejected
// as well: a summary built from them could not satisfy min <= avg <= max.
func parseMetric(record []string, index map[string]int, column string, line int) (float64, error) {
	raw := strings.TrimSpace(record[index[column]])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &apperrors.CoercionError{Column: column, Value: raw, Line: line}
	}
	return v, nil
}
