package marketdata

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sentinel/internal/contracts"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestClean(t *testing.T) {
	bars := []contracts.DailyBar{
		{Date: day(3), Open: 10, High: 11, Low: 9, Close: 10, Volume: 100},
		{Date: day(1), Open: 10, High: 11, Low: 9, Close: 10, Volume: 100},
		{Date: day(2), Open: 10, High: 11, Low: 9, Close: 10, Volume: 0},            // zero volume
		{Date: day(4), Open: math.NaN(), High: 11, Low: 9, Close: 10, Volume: 100}, // NaN
		{Date: day(3), Open: 12, High: 13, Low: 11, Close: 12, Volume: 200},        // duplicate date
	}

	s, dropped := Clean(bars)
	require.Len(t, s, 2)
	assert.Equal(t, 3, dropped)
	assert.Equal(t, day(1), s[0].Date)
	assert.Equal(t, 12.0, s[1].Close, "duplicate keeps the last row")
	assert.NoError(t, s.Validate())
}

const sampleCSV = `Date,Open,High,Low,Close,Adj Close,Volume
2024-03-01,100,102,99,101,101,1000
2024-03-04,101,103,100,102,102,1200
2024-03-05,102,104,101,,103,1300
2024-03-06,103,105,102,104,104,0
2024-03-07 00:00:00-05:00,104,106,103,105,105,1500
`

func TestReadCSV(t *testing.T) {
	s, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	require.Len(t, s, 3)
	assert.Equal(t, day(1), s[0].Date)
	assert.Equal(t, day(7), s[2].Date)
	assert.Equal(t, 105.0, s[2].Close)
	assert.Equal(t, 1500.0, s[2].Volume)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"missing volume", "Date,Open,High,Low,Close\n2024-03-01,1,1,1,1\n"},
		{"bad date", "Date,Open,High,Low,Close,Volume\nyesterday,1,1,1,1,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	in, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, in))

	out, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestCSVSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "PUMP.csv"), []byte(sampleCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "BAD.csv"), []byte("nope\n"), 0o644))

	src := NewCSVSource(dir, zerolog.Nop())
	ctx := context.Background()

	tickers, err := src.ListTickers()
	require.NoError(t, err)
	assert.Equal(t, []string{"BAD", "PUMP"}, tickers)

	s, err := src.GetSeries(ctx, "pump", day(2), day(6))
	require.NoError(t, err)
	require.Len(t, s, 1)
	assert.Equal(t, day(4), s[0].Date)

	_, err = src.GetSeries(ctx, "NOPE", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ErrTickerNotFound)

	all, err := src.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Len(t, all["PUMP"], 3)
}
