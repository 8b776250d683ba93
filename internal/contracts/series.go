package contracts

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidSeries is returned when a price series breaks the ordering or numeric contract
var ErrInvalidSeries = errors.New("invalid price series")

// DailyBar is one trading day of OHLCV data
type DailyBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries is an ordered daily OHLCV series for one ticker
// ⭐ SSOT: detectors, feature engineer and the risk engine only read this type
// Owned by the caller; nothing in the engine mutates it.
type PriceSeries []DailyBar

// Len returns the number of bars
func (s PriceSeries) Len() int {
	return len(s)
}

// Last returns the most recent bar
func (s PriceSeries) Last() DailyBar {
	return s[len(s)-1]
}

// Opens returns the open column
func (s PriceSeries) Opens() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Open
	}
	return out
}

// Highs returns the high column
func (s PriceSeries) Highs() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.High
	}
	return out
}

// Lows returns the low column
func (s PriceSeries) Lows() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Low
	}
	return out
}

// Closes returns the close column
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Volumes returns the volume column
func (s PriceSeries) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Volume
	}
	return out
}

// Dates returns the date column
func (s PriceSeries) Dates() []time.Time {
	out := make([]time.Time, len(s))
	for i, b := range s {
		out[i] = b.Date
	}
	return out
}

// Validate checks ordering (strictly increasing dates), finiteness and non-negative volume
func (s PriceSeries) Validate() error {
	for i, b := range s {
		for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite value at row %d (%s)", ErrInvalidSeries, i, b.Date.Format("2006-01-02"))
			}
		}
		if b.Volume < 0 {
			return fmt.Errorf("%w: negative volume at row %d (%s)", ErrInvalidSeries, i, b.Date.Format("2006-01-02"))
		}
		if i > 0 && !b.Date.After(s[i-1].Date) {
			return fmt.Errorf("%w: dates not strictly increasing at row %d (%s)", ErrInvalidSeries, i, b.Date.Format("2006-01-02"))
		}
	}
	return nil
}
