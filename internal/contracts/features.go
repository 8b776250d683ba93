package contracts

import (
	"math"
	"time"
)

// FeatureVector is one engineered feature row for a ticker-day
// Values are aligned with FeatureTable.Columns; NaN marks a missing value.
type FeatureVector struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"`
	Values []float64 `json:"values"`
}

// FeatureTable is a column-ordered set of feature rows
// ⭐ SSOT: column order is carried with the data, never inferred from position
type FeatureTable struct {
	Columns []string        `json:"columns"`
	Rows    []FeatureVector `json:"rows"`
}

// Len returns the number of rows
func (t *FeatureTable) Len() int {
	return len(t.Rows)
}

// Empty reports whether the table has no rows
func (t *FeatureTable) Empty() bool {
	return len(t.Rows) == 0
}

// ColumnIndex returns the position of a column or -1
func (t *FeatureTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Row returns the ordered-map view of row i
func (t *FeatureTable) Row(i int) FeatureRow {
	r := t.Rows[i]
	return FeatureRow{
		Ticker: r.Ticker,
		Date:   r.Date,
		Names:  t.Columns,
		Values: r.Values,
	}
}

// Last returns the most recent row
func (t *FeatureTable) Last() FeatureRow {
	return t.Row(len(t.Rows) - 1)
}

// MissingCount counts NaN and infinite cells
func (t *FeatureTable) MissingCount() int {
	n := 0
	for _, r := range t.Rows {
		for _, v := range r.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				n++
			}
		}
	}
	return n
}

// Column extracts one column by name
func (t *FeatureTable) Column(name string) ([]float64, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Values[idx]
	}
	return out, true
}

// Append adds the rows of another table with the same column order
func (t *FeatureTable) Append(other *FeatureTable) {
	if len(t.Columns) == 0 {
		t.Columns = other.Columns
	}
	t.Rows = append(t.Rows, other.Rows...)
}

// FeatureRow is an ordered map of feature name to value for a single day
type FeatureRow struct {
	Ticker string
	Date   time.Time
	Names  []string
	Values []float64
}

// NewFeatureRow builds a row from a plain map; names are taken in the given order
func NewFeatureRow(names []string, values map[string]float64) FeatureRow {
	row := FeatureRow{Names: make([]string, 0, len(names)), Values: make([]float64, 0, len(names))}
	for _, n := range names {
		v, ok := values[n]
		if !ok {
			continue
		}
		row.Names = append(row.Names, n)
		row.Values = append(row.Values, v)
	}
	return row
}

// Get looks up a feature by name
func (r FeatureRow) Get(name string) (float64, bool) {
	for i, n := range r.Names {
		if n == name {
			return r.Values[i], true
		}
	}
	return 0, false
}
