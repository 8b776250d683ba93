package features

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/sentinel/internal/contracts"
)

// ErrBadFeatureCSV marks a feature file that cannot be read back as a table
var ErrBadFeatureCSV = errors.New("bad feature csv")

const dateLayout = "2006-01-02"

// WriteCSV writes a table as ticker,date,<columns...>
// Missing values are written as empty cells.
func WriteCSV(w io.Writer, t *contracts.FeatureTable) error {
	cw := csv.NewWriter(w)

	header := append([]string{"ticker", "date"}, t.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rec := make([]string, len(header))
	for _, r := range t.Rows {
		rec[0] = r.Ticker
		rec[1] = r.Date.Format(dateLayout)
		for j, v := range r.Values {
			rec[j+2] = formatCell(v)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %s %s: %w", r.Ticker, rec[1], err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a table written by WriteCSV
// Empty or non-numeric cells become NaN.
func ReadCSV(r io.Reader) (*contracts.FeatureTable, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrBadFeatureCSV, err)
	}
	if len(header) < 3 || !strings.EqualFold(header[0], "ticker") || !strings.EqualFold(header[1], "date") {
		return nil, fmt.Errorf("%w: header must start with ticker,date and name at least one feature", ErrBadFeatureCSV)
	}

	t := &contracts.FeatureTable{Columns: append([]string(nil), header[2:]...)}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadFeatureCSV, line, err)
		}

		date, err := time.Parse(dateLayout, rec[1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: date %q", ErrBadFeatureCSV, line, rec[1])
		}

		values := make([]float64, len(t.Columns))
		for j := range values {
			values[j] = parseCell(rec[j+2])
		}
		t.Rows = append(t.Rows, contracts.FeatureVector{Ticker: rec[0], Date: date, Values: values})
	}
	return t, nil
}

func formatCell(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseCell(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
