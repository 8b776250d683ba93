package detectors

import (
	"math"

	"github.com/wonny/sentinel/internal/contracts"
	"github.com/wonny/sentinel/internal/series"
)

// =============================================================================
// Bollinger Bands
// =============================================================================

// CheckBollinger scores the last close against mean ± width·σ over window
func CheckBollinger(s contracts.PriceSeries, window int, width float64) contracts.BollingerReading {
	if s.Len() < window {
		return contracts.BollingerReading{Status: contracts.StatusInsufficientData}
	}

	closes := s.Closes()
	means := series.RollingMean(closes, window)
	stds := series.RollingStd(closes, window)

	last := len(closes) - 1
	price := closes[last]
	mid := means[last]
	upper := mid + width*stds[last]
	lower := mid - width*stds[last]

	if math.IsNaN(upper) || math.IsNaN(lower) {
		return contracts.BollingerReading{Status: contracts.StatusInvalidData}
	}

	reading := contracts.BollingerReading{
		Status:       contracts.StatusNormal,
		CurrentPrice: round2(price),
		UpperBand:    round2(upper),
		LowerBand:    round2(lower),
		MiddleBand:   round2(mid),
	}

	switch {
	case price > upper:
		deviation := (price - upper) / upper * 100
		reading.RiskScore = min(70+int(deviation*5), 100)
		reading.Status = contracts.StatusOverbought
	case price < lower:
		deviation := (lower - price) / lower * 100
		reading.RiskScore = min(70+int(deviation*5), 100)
		reading.Status = contracts.StatusOversold
	}

	return reading
}

// =============================================================================
// RSI
// =============================================================================

// CheckRSI computes a simple-average RSI and scores overbought/oversold extremes
// Needs window+1 closes so the first diff can fill the window.
func CheckRSI(s contracts.PriceSeries, window int) contracts.RSIReading {
	if s.Len() < window+1 {
		return contracts.RSIReading{Status: contracts.StatusInsufficientData}
	}

	delta := series.Diff(s.Closes())
	gains := make([]float64, len(delta))
	losses := make([]float64, len(delta))
	for i, v := range delta {
		switch {
		case math.IsNaN(v):
			// a NaN delta counts as neither gain nor loss
		case v > 0:
			gains[i] = v
		case v < 0:
			losses[i] = -v
		}
	}

	avgGain := series.RollingMean(gains, window)
	avgLoss := series.RollingMean(losses, window)

	last := len(delta) - 1
	rs := avgGain[last] / avgLoss[last]
	rsi := 100 - 100/(1+rs)

	if math.IsNaN(rsi) {
		return contracts.RSIReading{Status: contracts.StatusInvalidData}
	}

	value := round2(rsi)
	reading := contracts.RSIReading{Status: contracts.StatusNeutral, Value: &value}

	switch {
	case rsi >= 80:
		reading.RiskScore = 90
		reading.Status = contracts.StatusExtremelyOverbought
	case rsi >= 70:
		reading.RiskScore = 70
		reading.Status = contracts.StatusOverbought
	case rsi <= 20:
		reading.RiskScore = 90
		reading.Status = contracts.StatusExtremelyOversold
	case rsi <= 30:
		reading.RiskScore = 70
		reading.Status = contracts.StatusOversold
	}

	return reading
}

// =============================================================================
// Momentum
// =============================================================================

// CheckMomentum scores the percent change between close[-window] and the last close
func CheckMomentum(s contracts.PriceSeries, window int) contracts.MomentumReading {
	if s.Len() < window || window <= 0 {
		return contracts.MomentumReading{Status: contracts.StatusInsufficientData, PeriodDays: window}
	}

	closes := s.Closes()
	base := closes[len(closes)-window]
	pct := (closes[len(closes)-1] - base) / base * 100
	abs := math.Abs(pct)

	reading := contracts.MomentumReading{PeriodDays: window}
	switch {
	case abs >= 30:
		reading.RiskScore, reading.Status = 100, contracts.StatusExtremeMomentum
	case abs >= 20:
		reading.RiskScore, reading.Status = 85, contracts.StatusVeryHighMomentum
	case abs >= 15:
		reading.RiskScore, reading.Status = 70, contracts.StatusHighMomentum
	case abs >= 10:
		reading.RiskScore, reading.Status = 50, contracts.StatusModerateMomentum
	default:
		reading.RiskScore, reading.Status = 0, contracts.StatusNormalMomentum
	}

	rounded := round2(pct)
	reading.Percent = &rounded
	return reading
}
