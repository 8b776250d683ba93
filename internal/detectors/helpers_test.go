package detectors

import (
	"time"

	"github.com/wonny/sentinel/internal/contracts"
)

var baseDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// buildSeries creates a daily series with High/Low at ±1% of the close
func buildSeries(closes, volumes []float64) contracts.PriceSeries {
	s := make(contracts.PriceSeries, len(closes))
	for i := range closes {
		s[i] = contracts.DailyBar{
			Date:   baseDate.AddDate(0, 0, i),
			Open:   closes[i],
			High:   closes[i] * 1.01,
			Low:    closes[i] * 0.99,
			Close:  closes[i],
			Volume: volumes[i],
		}
	}
	return s
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// zigzag alternates between lo and hi
func zigzag(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = lo
		} else {
			out[i] = hi
		}
	}
	return out
}
