// Package features turns a daily OHLCV series into the engineered feature
// table consumed by the anomaly model.
package features

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/wonny/sentinel/internal/contracts"
)

// DefaultWindowDays is the rolling window used by ratio and volatility features
const DefaultWindowDays = 30

// Engineer extracts pump-and-dump features from price series
// ⭐ SSOT: 피처 계산은 여기서만
type Engineer struct {
	windowDays int
	log        zerolog.Logger
}

// NewEngineer creates a feature engineer; a non-positive window falls back to 30 days
func NewEngineer(windowDays int, log zerolog.Logger) *Engineer {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Engineer{
		windowDays: windowDays,
		log:        log.With().Str("component", "features.engineer").Logger(),
	}
}

// WindowDays returns the rolling window
func (e *Engineer) WindowDays() int {
	return e.windowDays
}

// Extract computes one feature row per bar
// Returns an empty table when the series is shorter than the window. Early rows
// contain NaN where a rolling window is not yet full.
func (e *Engineer) Extract(s contracts.PriceSeries) *contracts.FeatureTable {
	return e.ExtractTable("", s)
}

// ExtractTable is Extract with the ticker attached to every row
func (e *Engineer) ExtractTable(ticker string, s contracts.PriceSeries) *contracts.FeatureTable {
	table := &contracts.FeatureTable{Columns: Names()}
	if s.Len() == 0 || s.Len() < e.windowDays {
		return table
	}

	f := newFrame(s, e.windowDays)
	f.volumePriceDivergence()
	f.priceAcceleration()
	f.intradayPatterns()
	f.multiDayMomentum()
	f.liquidity()
	f.priceStability()
	f.volumeDistribution()
	f.calendar()
	f.reversal()

	cols := make([][]float64, len(names))
	for j, name := range names {
		cols[j] = f.cols[name]
	}

	table.Rows = make([]contracts.FeatureVector, f.len())
	for i := range table.Rows {
		values := make([]float64, len(names))
		for j := range cols {
			values[j] = cols[j][i]
		}
		table.Rows[i] = contracts.FeatureVector{
			Ticker: ticker,
			Date:   f.dates[i],
			Values: values,
		}
	}

	return table
}

// ExtractLatest returns the ordered feature row of the most recent bar
func (e *Engineer) ExtractLatest(ticker string, s contracts.PriceSeries) (contracts.FeatureRow, bool) {
	table := e.ExtractTable(ticker, s)
	if table.Empty() {
		return contracts.FeatureRow{}, false
	}
	return table.Last(), true
}

// ExtractAll builds one training table over many tickers and resolves missing values
// Tickers are processed in sorted order; tickers that yield no rows are skipped.
func (e *Engineer) ExtractAll(data map[string]contracts.PriceSeries, policy MissingPolicy) (*contracts.FeatureTable, error) {
	tickers := make([]string, 0, len(data))
	for ticker := range data {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	combined := &contracts.FeatureTable{Columns: Names()}
	for _, ticker := range tickers {
		s := data[ticker]
		if err := s.Validate(); err != nil {
			e.log.Warn().Err(err).Str("ticker", ticker).Msg("skip invalid series")
			continue
		}

		table := e.ExtractTable(ticker, s)
		if table.Empty() {
			e.log.Debug().Str("ticker", ticker).Int("rows", s.Len()).Msg("no features extracted")
			continue
		}
		combined.Append(table)
	}

	if combined.Empty() {
		return nil, fmt.Errorf("extract features: no rows from %d tickers", len(data))
	}

	before := combined.MissingCount()
	resolved, filled := Resolve(combined, policy)

	e.log.Info().
		Int("tickers", len(tickers)).
		Int("rows", resolved.Len()).
		Int("features", len(resolved.Columns)).
		Int("missing_before", before).
		Int("filled", filled).
		Str("policy", string(policy)).
		Msg("feature table built")

	return resolved, nil
}
