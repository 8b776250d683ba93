package risk

import (
	"fmt"
	"sort"

	"github.com/wonny/sentinel/internal/contracts"
)

// BatchCalculateRisk scores every ticker independently
// Errors and panics are isolated into the ticker's BatchItem. Items are ordered by ticker.
func (e *Engine) BatchCalculateRisk(data map[string]contracts.PriceSeries) []contracts.BatchItem {
	tickers := make([]string, 0, len(data))
	for ticker := range data {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	items := make([]contracts.BatchItem, 0, len(tickers))
	failed := 0
	for _, ticker := range tickers {
		item := e.ScoreItem(ticker, data[ticker])
		if item.Err != nil {
			failed++
		}
		items = append(items, item)
	}

	e.log.Info().
		Int("tickers", len(tickers)).
		Int("failed", failed).
		Msg("batch risk calculated")

	return items
}

// ScoreItem scores one ticker and never panics
func (e *Engine) ScoreItem(ticker string, s contracts.PriceSeries) (item contracts.BatchItem) {
	item.Ticker = ticker
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Str("ticker", ticker).Interface("panic", r).Msg("risk calculation panicked")
			item.Assessment = nil
			item.Err = fmt.Errorf("calculate risk %s: panic: %v", ticker, r)
		}
	}()

	a, err := e.CalculateRiskScore(s, ticker)
	if err != nil {
		item.Err = err
		return item
	}
	item.Assessment = a
	return item
}

// HighRiskStocks returns successful assessments scoring at least threshold, highest first
func HighRiskStocks(items []contracts.BatchItem, threshold int) []*contracts.RiskAssessment {
	var out []*contracts.RiskAssessment
	for _, it := range items {
		if it.Err != nil || it.Assessment == nil {
			continue
		}
		if it.Assessment.RiskScore >= threshold {
			out = append(out, it.Assessment)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RiskScore > out[j].RiskScore
	})
	return out
}
