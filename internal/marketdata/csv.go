package marketdata

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/sentinel/internal/contracts"
)

// ErrTickerNotFound is returned when no CSV file exists for a ticker
var ErrTickerNotFound = errors.New("ticker not found")

// dateLayouts are tried in order when parsing the Date column
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"01/02/2006",
}

var requiredColumns = []string{"date", "open", "high", "low", "close", "volume"}

// CSVSource reads <dir>/<TICKER>.csv files with Date,Open,High,Low,Close,Volume columns
// Extra columns (e.g. "Adj Close") are ignored; header matching is case-insensitive.
type CSVSource struct {
	dir string
	log zerolog.Logger
}

// NewCSVSource creates a source rooted at dir
func NewCSVSource(dir string, log zerolog.Logger) *CSVSource {
	return &CSVSource{
		dir: dir,
		log: log.With().Str("component", "marketdata.csv").Logger(),
	}
}

// Path returns the file backing a ticker
func (c *CSVSource) Path(ticker string) string {
	return filepath.Join(c.dir, strings.ToUpper(ticker)+".csv")
}

// GetSeries implements contracts.PriceRepository
// A zero from or to leaves that side of the range open.
func (c *CSVSource) GetSeries(ctx context.Context, ticker string, from, to time.Time) (contracts.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s, err := ReadFile(c.Path(ticker))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", ticker, ErrTickerNotFound)
	}
	if err != nil {
		return nil, err
	}
	return Between(s, from, to), nil
}

// ListTickers returns the tickers with a CSV file in the directory, sorted
func (c *CSVSource) ListTickers() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	tickers := make([]string, 0, len(matches))
	for _, m := range matches {
		tickers = append(tickers, strings.TrimSuffix(filepath.Base(m), filepath.Ext(m)))
	}
	sort.Strings(tickers)
	return tickers, nil
}

// LoadAll reads every ticker in the directory
// Unreadable files are logged and skipped.
func (c *CSVSource) LoadAll(ctx context.Context) (map[string]contracts.PriceSeries, error) {
	tickers, err := c.ListTickers()
	if err != nil {
		return nil, err
	}

	data := make(map[string]contracts.PriceSeries, len(tickers))
	for _, t := range tickers {
		s, err := c.GetSeries(ctx, t, time.Time{}, time.Time{})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.log.Warn().Err(err).Str("ticker", t).Msg("skipping unreadable price file")
			continue
		}
		data[t] = s
	}

	c.log.Info().Int("files", len(tickers)).Int("loaded", len(data)).Msg("price files loaded")
	return data, nil
}

// ReadFile parses one OHLCV CSV file
func ReadFile(path string) (contracts.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ReadCSV parses OHLCV rows and cleans them
func ReadCSV(r io.Reader) (contracts.PriceSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var bars []contracts.DailyBar
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		date, err := parseDate(field(rec, idx["date"]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		b := contracts.DailyBar{
			Date:   date,
			Open:   parseNumber(field(rec, idx["open"])),
			High:   parseNumber(field(rec, idx["high"])),
			Low:    parseNumber(field(rec, idx["low"])),
			Close:  parseNumber(field(rec, idx["close"])),
			Volume: parseNumber(field(rec, idx["volume"])),
		}
		bars = append(bars, b)
	}

	s, _ := Clean(bars)
	return s, nil
}

// WriteCSV writes a series in the format ReadCSV accepts
func WriteCSV(w io.Writer, s contracts.PriceSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Open", "High", "Low", "Close", "Volume"}); err != nil {
		return err
	}
	for _, b := range s {
		rec := []string{
			b.Date.Format("2006-01-02"),
			formatNumber(b.Open),
			formatNumber(b.High),
			formatNumber(b.Low),
			formatNumber(b.Close),
			formatNumber(b.Volume),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Between returns the bars dated within [from, to]
func Between(s contracts.PriceSeries, from, to time.Time) contracts.PriceSeries {
	out := make(contracts.PriceSeries, 0, len(s))
	for _, b := range s {
		if !from.IsZero() && b.Date.Before(from) {
			continue
		}
		if !to.IsZero() && b.Date.After(to) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", v)
}

// parseNumber returns NaN for blanks and garbage so Clean drops the row
func parseNumber(v string) float64 {
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	if err != nil {
		return nan
	}
	return f
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
