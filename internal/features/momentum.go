package features

import (
	"math"

	"github.com/wonny/sentinel/internal/series"
)

const (
	shortMomentumDays = 3
	longMomentumDays  = 5
)

// multiDayMomentum: 3/5-day return sums and their reversals
func (f *frame) multiDayMomentum() {
	m3 := series.RollingSum(f.ret, shortMomentumDays)
	f.set("momentum_3d", m3)
	f.set("momentum_5d", series.RollingSum(f.ret, longMomentumDays))
	f.set("momentum_change", series.Diff(m3))

	next := series.Shift(m3, -1)
	f.set("momentum_reversal", f.each(func(i int) float64 {
		return series.Bool(m3[i] > 0 && next[i] < 0)
	}))

	f.set("momentum_consistency", inverse(series.RollingStd(f.ret, longMomentumDays)))

	vol5 := series.RollingMean(f.volume, longMomentumDays)
	f.set("momentum_volume_ratio", f.each(func(i int) float64 {
		ratio := f.volume[i] / (vol5[i] + series.Epsilon)
		return math.Abs(m3[i]) / (ratio + series.Epsilon)
	}))
}
