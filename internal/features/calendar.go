package features

import (
	"math"
	"time"

	"github.com/wonny/sentinel/internal/series"
)

// calendar: weekday (Monday = 0) and month position
func (f *frame) calendar() {
	f.set("day_of_week", f.each(func(i int) float64 {
		return float64(mondayIndex(f.dates[i]))
	}))
	f.set("is_weekend", f.each(func(i int) float64 {
		return series.Bool(mondayIndex(f.dates[i]) >= 5)
	}))
	f.set("day_of_month", f.each(func(i int) float64 {
		return float64(f.dates[i].Day())
	}))
	f.set("is_month_end", f.each(func(i int) float64 {
		return series.Bool(f.dates[i].Day() >= 28)
	}))
	f.set("is_month_beginning", f.each(func(i int) float64 {
		return series.Bool(f.dates[i].Day() <= 3)
	}))
}

func mondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// reversal: spike-then-drop patterns using the next day's return
func (f *frame) reversal() {
	next := series.Shift(f.ret, -1)

	f.set("reversal_pattern", f.each(func(i int) float64 {
		return series.Bool(f.ret[i] > 0.05 && next[i] < -0.05)
	}))
	f.set("reversal_magnitude", f.each(func(i int) float64 {
		return math.Abs(f.ret[i]) + math.Abs(next[i])
	}))
	f.set("pump_dump_pattern", f.each(func(i int) float64 {
		return series.Bool(f.ret[i] > 0.10 && next[i] < -0.10)
	}))

	avg := series.RollingMean(f.close, f.window)
	nextClose := series.Shift(f.close, -1)
	f.set("price_reversal_score", f.each(func(i int) float64 {
		return series.Bool(f.close[i] > avg[i] && f.close[i] < nextClose[i])
	}))
}
