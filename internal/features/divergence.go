package features

import (
	"math"

	"github.com/wonny/sentinel/internal/series"
)

// volumePriceDivergence: volume spikes that price does not follow
func (f *frame) volumePriceDivergence() {
	f.set("volume_price_correlation", series.RollingCorr(f.volume, f.ret, f.window))

	f.set("volume_price_ratio", f.each(func(i int) float64 {
		pct := math.Abs(f.ret[i] * 100)
		if pct == 0 {
			pct = math.NaN()
		}
		return f.volRatio[i] / (pct + 1)
	}))

	volAccel := series.Diff(series.PctChange(f.volume))
	priceAccel := series.Diff(f.ret)
	f.set("volume_acceleration", volAccel)
	f.set("price_acceleration", priceAccel)
	f.set("volume_price_accel_diff", f.each(func(i int) float64 {
		return volAccel[i] - priceAccel[i]
	}))

	f.set("volume_price_divergence", f.each(func(i int) float64 {
		spike := f.volume[i] > f.volAvg[i]*2
		sustained := f.close[i] > f.prevClose[i]
		return series.Bool(spike) - series.Bool(sustained)
	}))
}

// priceAcceleration: second and third differences of the close
func (f *frame) priceAcceleration() {
	accel := f.cols["price_acceleration"]

	f.set("price_acceleration_rate", series.Diff(accel))
	f.set("price_accel_magnitude", series.Abs(accel))

	mean := series.RollingMean(accel, f.window)
	std := series.RollingStd(accel, f.window)
	f.set("sudden_acceleration_zscore", f.each(func(i int) float64 {
		return (accel[i] - mean[i]) / (std[i] + series.Epsilon)
	}))

	next := series.Shift(accel, -1)
	f.set("acceleration_reversal", f.each(func(i int) float64 {
		return series.Bool(accel[i] > 0 && next[i] < 0)
	}))
}
