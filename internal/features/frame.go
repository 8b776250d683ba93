package features

import (
	"time"

	"github.com/wonny/sentinel/internal/contracts"
	"github.com/wonny/sentinel/internal/series"
)

// frame holds the raw columns and shared derived columns of one series
type frame struct {
	window int

	dates  []time.Time
	open   []float64
	high   []float64
	low    []float64
	close  []float64
	volume []float64

	ret       []float64 // close pct change (fraction)
	prevClose []float64
	volAvg    []float64 // rolling mean of volume over window
	volRatio  []float64 // volume / volAvg, no epsilon

	cols map[string][]float64
}

func newFrame(s contracts.PriceSeries, window int) *frame {
	f := &frame{
		window: window,
		dates:  s.Dates(),
		open:   s.Opens(),
		high:   s.Highs(),
		low:    s.Lows(),
		close:  s.Closes(),
		volume: s.Volumes(),
		cols:   make(map[string][]float64, len(names)),
	}
	f.ret = series.PctChange(f.close)
	f.prevClose = series.Shift(f.close, 1)
	f.volAvg = series.RollingMean(f.volume, window)
	f.volRatio = make([]float64, f.len())
	for i := range f.volRatio {
		f.volRatio[i] = f.volume[i] / f.volAvg[i]
	}
	return f
}

func (f *frame) len() int {
	return len(f.close)
}

func (f *frame) set(name string, col []float64) {
	f.cols[name] = col
}

// each builds a column by applying fn to every row index
func (f *frame) each(fn func(i int) float64) []float64 {
	out := make([]float64, f.len())
	for i := range out {
		out[i] = fn(i)
	}
	return out
}

// ratioToAvg returns x / (rollmean(x, window) + ε)
func ratioToAvg(x []float64, window int) []float64 {
	avg := series.RollingMean(x, window)
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] / (avg[i] + series.Epsilon)
	}
	return out
}

// inverse returns 1 / (x + ε)
func inverse(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = 1 / (v + series.Epsilon)
	}
	return out
}
