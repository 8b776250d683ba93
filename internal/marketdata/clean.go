// Package marketdata loads daily OHLCV series from Postgres or CSV files.
package marketdata

import (
	"math"
	"sort"

	"github.com/wonny/sentinel/internal/contracts"
)

// Clean returns the bars that satisfy the PriceSeries contract, sorted by date
// Non-finite rows and rows with non-positive volume are dropped; a duplicated
// date keeps the last row seen.
func Clean(bars []contracts.DailyBar) (contracts.PriceSeries, int) {
	byDate := make(map[int64]int, len(bars))
	out := make(contracts.PriceSeries, 0, len(bars))
	dropped := 0

	for _, b := range bars {
		if !finite(b.Open, b.High, b.Low, b.Close, b.Volume) || b.Volume <= 0 {
			dropped++
			continue
		}
		key := b.Date.Unix()
		if i, ok := byDate[key]; ok {
			out[i] = b
			dropped++
			continue
		}
		byDate[key] = len(out)
		out = append(out, b)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, dropped
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

var nan = math.NaN()
