package features

import "github.com/wonny/sentinel/internal/series"

// intradayPatterns: range, close location and opening gaps
func (f *frame) intradayPatterns() {
	rangePct := f.each(func(i int) float64 {
		return (f.high[i] - f.low[i]) / f.close[i] * 100
	})
	f.set("intraday_range_pct", rangePct)

	rangeRatio := ratioToAvg(rangePct, f.window)
	f.set("intraday_range_ratio", rangeRatio)

	f.set("close_position_in_range", f.each(func(i int) float64 {
		return (f.close[i] - f.low[i]) / (f.high[i] - f.low[i] + series.Epsilon)
	}))

	gap := f.each(func(i int) float64 {
		return (f.open[i] - f.prevClose[i]) / f.prevClose[i] * 100
	})
	f.set("gap_pct", gap)

	f.set("gap_filled", f.each(func(i int) float64 {
		up := gap[i] > 0 && f.low[i] <= f.prevClose[i]
		down := gap[i] < 0 && f.high[i] >= f.prevClose[i]
		return series.Bool(up || down)
	}))

	// same definition as intraday_range_ratio, kept as a separate column
	volRatio := make([]float64, len(rangeRatio))
	copy(volRatio, rangeRatio)
	f.set("intraday_volatility_ratio", volRatio)
}
