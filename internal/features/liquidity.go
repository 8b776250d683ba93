package features

import (
	"math"

	"github.com/wonny/sentinel/internal/series"
)

// liquidity: volume relative to price and per-unit price impact
func (f *frame) liquidity() {
	vpr := f.each(func(i int) float64 {
		return f.volume[i] / (f.close[i] + series.Epsilon)
	})
	f.set("volume_to_price_ratio", vpr)
	f.set("volume_price_ratio_vs_avg", ratioToAvg(vpr, f.window))

	dollar := f.each(func(i int) float64 {
		return f.volume[i] * f.close[i]
	})
	f.set("dollar_volume", dollar)
	f.set("dollar_volume_ratio", ratioToAvg(dollar, f.window))

	impact := f.each(func(i int) float64 {
		return math.Abs(f.ret[i]) / (f.volume[i] + series.Epsilon)
	})
	f.set("price_impact", impact)
	f.set("liquidity_score", inverse(impact))
}

// priceStability: return volatility, direction flips and high-low spread
func (f *frame) priceStability() {
	vol := series.RollingStd(f.ret, f.window)
	f.set("price_volatility", vol)
	f.set("volatility_ratio", ratioToAvg(vol, f.window*2))

	up := f.each(func(i int) float64 {
		return series.Bool(f.ret[i] > 0)
	})
	f.set("price_oscillation", series.RollingSum(series.Abs(series.Diff(up)), longMomentumDays))

	f.set("price_stability_score", inverse(vol))

	spread := f.each(func(i int) float64 {
		return (f.high[i] - f.low[i]) / f.close[i]
	})
	f.set("hl_spread", spread)
	f.set("hl_spread_ratio", ratioToAvg(spread, f.window))
}

// volumeDistribution: trend, dispersion and spike persistence of volume
func (f *frame) volumeDistribution() {
	f.set("volume_trend", series.Diff(series.RollingMean(f.volume, longMomentumDays)))

	std := series.RollingStd(f.volume, f.window)
	f.set("volume_consistency", f.each(func(i int) float64 {
		cv := std[i] / (f.volAvg[i] + series.Epsilon)
		return 1 / (cv + series.Epsilon)
	}))

	// 연속 고거래량 일수 (ratio > 2)
	duration := make([]float64, f.len())
	run := 0.0
	for i, r := range f.volRatio {
		if r > 2.0 {
			run++
		} else {
			run = 0
		}
		duration[i] = run
	}
	f.set("volume_spike_duration", duration)

	f.set("volume_mean_reversion", f.each(func(i int) float64 {
		return math.Abs(f.volRatio[i] - 1.0)
	}))
}
