package features

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sentinel/internal/contracts"
)

func TestFeatureCSV_RoundTrip(t *testing.T) {
	d := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	table := &contracts.FeatureTable{
		Columns: []string{"volume_ratio", "rsi"},
		Rows: []contracts.FeatureVector{
			{Ticker: "GME", Date: d, Values: []float64{1.25, math.NaN()}},
			{Ticker: "GME", Date: d.AddDate(0, 0, 1), Values: []float64{0.1 + 0.2, 70}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ticker,date,volume_ratio,rsi", lines[0])
	assert.Equal(t, "GME,2024-03-04,1.25,", lines[1])

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, table.Columns, got.Columns)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, d, got.Rows[0].Date)
	assert.True(t, math.IsNaN(got.Rows[0].Values[1]))
	assert.Equal(t, 0.1+0.2, got.Rows[1].Values[0])
}

func TestFeatureCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"no features", "ticker,date\n"},
		{"wrong header", "date,ticker,x\n"},
		{"bad date", "ticker,date,x\nGME,04/03/2024,1\n"},
		{"ragged row", "ticker,date,x\nGME,2024-03-04\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.in))
			assert.True(t, errors.Is(err, ErrBadFeatureCSV), "got %v", err)
		})
	}
}

func TestFeatureCSV_EngineerOutput(t *testing.T) {
	e := NewEngineer(20, zerolog.Nop())
	table := e.ExtractTable("ABC", wavySeries(60))
	require.False(t, table.Empty())

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, Names(), got.Columns)
	assert.Equal(t, table.Len(), got.Len())
	assert.Equal(t, table.MissingCount(), got.MissingCount())
}
