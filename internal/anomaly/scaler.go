package anomaly

import "math"

// Scaler standardizes columns to zero mean and unit variance
// Population σ is used; a constant column keeps scale 1.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// fitScaler learns per-column mean and σ
func fitScaler(x [][]float64, ncols int) Scaler {
	s := Scaler{
		Mean:  make([]float64, ncols),
		Scale: make([]float64, ncols),
	}
	n := float64(len(x))

	for _, row := range x {
		for j, v := range row {
			s.Mean[j] += v
		}
	}
	for j := range s.Mean {
		s.Mean[j] /= n
	}

	for _, row := range x {
		for j, v := range row {
			d := v - s.Mean[j]
			s.Scale[j] += d * d
		}
	}
	for j := range s.Scale {
		std := math.Sqrt(s.Scale[j] / n)
		if std <= 1e-12*math.Max(1, math.Abs(s.Mean[j])) {
			std = 1
		}
		s.Scale[j] = std
	}

	return s
}

// transform returns a standardized copy of row
func (s Scaler) transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out
}
