// Package series provides rolling window statistics over float64 columns.
//
// NaN is the missing-value marker. A window containing any NaN yields NaN and
// a window is only evaluated once it is full, so results line up with the
// usual dataframe semantics (min_periods = window, sample std with ddof = 1).
package series

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Epsilon is the additive guard used by ratio features
const Epsilon = 1e-8

// NaNs returns a slice of n NaN values
func NaNs(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// IsMissing reports NaN or ±Inf
func IsMissing(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// PctChange returns x[i]/x[i-1] - 1; the first value is NaN
// A zero predecessor yields ±Inf (or NaN for 0/0), as division does.
func PctChange(x []float64) []float64 {
	out := NaNs(len(x))
	for i := 1; i < len(x); i++ {
		out[i] = x[i]/x[i-1] - 1
	}
	return out
}

// Diff returns x[i] - x[i-1]; the first value is NaN
func Diff(x []float64) []float64 {
	out := NaNs(len(x))
	for i := 1; i < len(x); i++ {
		out[i] = x[i] - x[i-1]
	}
	return out
}

// Shift moves values by k positions. k > 0 lags (out[i] = x[i-k]),
// k < 0 leads (out[i] = x[i+|k|]). Vacated positions are NaN.
func Shift(x []float64, k int) []float64 {
	out := NaNs(len(x))
	for i := range x {
		j := i - k
		if j >= 0 && j < len(x) {
			out[i] = x[j]
		}
	}
	return out
}

// rolling applies fn to every full trailing window that contains no NaN
func rolling(x []float64, window int, fn func(w []float64) float64) []float64 {
	out := NaNs(len(x))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(x); i++ {
		w := x[i-window+1 : i+1]
		if hasNaN(w) {
			continue
		}
		out[i] = fn(w)
	}
	return out
}

func hasNaN(w []float64) bool {
	for _, v := range w {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// RollingMean is the trailing simple moving average
func RollingMean(x []float64, window int) []float64 {
	return rolling(x, window, func(w []float64) float64 {
		return stat.Mean(w, nil)
	})
}

// RollingStd is the trailing sample standard deviation (ddof = 1)
// A window of one value has no sample deviation and yields NaN.
func RollingStd(x []float64, window int) []float64 {
	return rolling(x, window, func(w []float64) float64 {
		if len(w) < 2 {
			return math.NaN()
		}
		return stat.StdDev(w, nil)
	})
}

// RollingSum is the trailing window sum
func RollingSum(x []float64, window int) []float64 {
	return rolling(x, window, func(w []float64) float64 {
		s := 0.0
		for _, v := range w {
			s += v
		}
		return s
	})
}

// RollingCorr is the trailing Pearson correlation of two aligned columns
// Windows where either side is NaN or constant yield NaN.
func RollingCorr(x, y []float64, window int) []float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	out := NaNs(n)
	if window < 2 {
		return out
	}
	for i := window - 1; i < n; i++ {
		wx := x[i-window+1 : i+1]
		wy := y[i-window+1 : i+1]
		if hasNaN(wx) || hasNaN(wy) || hasInf(wx) || hasInf(wy) {
			continue
		}
		if constant(wx) || constant(wy) {
			continue
		}
		out[i] = stat.Correlation(wx, wy, nil)
	}
	return out
}

func hasInf(w []float64) bool {
	for _, v := range w {
		if math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

func constant(w []float64) bool {
	for _, v := range w[1:] {
		if v != w[0] {
			return false
		}
	}
	return true
}

// Abs returns |x| element-wise; NaN stays NaN
func Abs(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Abs(v)
	}
	return out
}

// Bool converts a predicate column to 1/0
func Bool(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Median returns the median of the non-missing values, NaN when none remain
func Median(x []float64) float64 {
	vals := make([]float64, 0, len(x))
	for _, v := range x {
		if !IsMissing(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return math.NaN()
	}
	return Percentile(vals, 50)
}

// Percentile returns the q-th percentile (0~100) with linear interpolation
// between closest ranks. The input is not modified.
func Percentile(x []float64, q float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)

	pos := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo < 0 {
		lo = 0
	}
	if hi >= len(sorted) {
		hi = len(sorted) - 1
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
