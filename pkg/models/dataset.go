package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EquipmentRow is a single equipment reading from an uploaded CSV.
// JSON keys keep the original column labels so existing clients can
// render rows without remapping.
type EquipmentRow struct {
	Name        string  `json:"Equipment Name"`
	Type        string  `json:"Type"`
	Flowrate    float64 `json:"Flowrate"`
	Pressure    float64 `json:"Pressure"`
	Temperature float64 `json:"Temperature"`
}

// TypeCount is one entry of a dataset's equipment type distribution.
type TypeCount struct {
	Type  string
	Count int
}

// TypeDistribution maps equipment type labels to row counts. It is kept
// as an ordered slice (first-occurrence order from the source table) so
// that reports regenerate identically from a stored summary; it still
// marshals to a plain JSON object.
type TypeDistribution []TypeCount

// Total returns the sum of all counts.
func (d TypeDistribution) Total() int {
	total := 0
	for _, tc := range d {
		total += tc.Count
	}
	return total
}

// Get returns the count for a type label.
func (d TypeDistribution) Get(label string) (int, bool) {
	for _, tc := range d {
		if tc.Type == label {
			return tc.Count, true
		}
	}
	return 0, false
}

// MarshalJSON writes the distribution as a JSON object in slice order.
func (d TypeDistribution) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, tc := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(tc.Type)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", tc.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object token by token so key order survives
// the JSONB round trip through the database.
func (d *TypeDistribution) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("type_distribution: expected JSON object, got %v", tok)
	}

	out := TypeDistribution{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("type_distribution: non-string key %v", keyTok)
		}
		var count int
		if err := dec.Decode(&count); err != nil {
			return fmt.Errorf("type_distribution: count for %q: %w", key, err)
		}
		out = append(out, TypeCount{Type: key, Count: count})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*d = out
	return nil
}

// Summary holds the aggregate statistics derived from a dataset's rows.
// It is computed once at upload time and never mutated.
type Summary struct {
	EquipmentCount int `json:"equipment_count"`

	AvgFlowrate    float64 `json:"avg_flowrate"`
	MinFlowrate    float64 `json:"min_flowrate"`
	MaxFlowrate    float64 `json:"max_flowrate"`
	AvgPressure    float64 `json:"avg_pressure"`
	MinPressure    float64 `json:"min_pressure"`
	MaxPressure    float64 `json:"max_pressure"`
	AvgTemperature float64 `json:"avg_temperature"`
	MinTemperature float64 `json:"min_temperature"`
	MaxTemperature float64 `json:"max_temperature"`

	TypeDistribution TypeDistribution `json:"type_distribution"`
}

// Validate checks the internal consistency a persisted summary must have.
// A summary only exists for a non-empty validated table, so a violation
// here is a fault in the store, not bad user input.
func (s *Summary) Validate() error {
	if s.EquipmentCount <= 0 {
		return fmt.Errorf("equipment_count must be positive, got %d", s.EquipmentCount)
	}
	if total := s.TypeDistribution.Total(); total != s.EquipmentCount {
		return fmt.Errorf("type_distribution counts sum to %d, want %d", total, s.EquipmentCount)
	}
	for _, m := range []struct {
		name          string
		min, avg, max float64
	}{
		{"flowrate", s.MinFlowrate, s.AvgFlowrate, s.MaxFlowrate},
		{"pressure", s.MinPressure, s.AvgPressure, s.MaxPressure},
		{"temperature", s.MinTemperature, s.AvgTemperature, s.MaxTemperature},
	} {
		if m.min > m.avg || m.avg > m.max {
			return fmt.Errorf("%s: min %v, avg %v, max %v violate min <= avg <= max", m.name, m.min, m.avg, m.max)
		}
	}
	return nil
}

// Dataset is one immutable uploaded-and-summarized CSV, owned by one user.
// The raw file bytes live in the blob store under BlobRef; the dataset id
// is the join key between the record and the blob.
type Dataset struct {
	ID         uuid.UUID      `json:"id"`
	OwnerID    uuid.UUID      `json:"-"`
	Filename   string         `json:"filename"`
	UploadedAt time.Time      `json:"uploaded_at"`
	Summary    Summary        `json:"summary"`
	Rows       []EquipmentRow `json:"rows,omitempty"`
	BlobRef    string         `json:"-"`
	CreatedAt  time.Time      `json:"created_at"`
}
