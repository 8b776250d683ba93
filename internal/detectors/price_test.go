package detectors

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sentinel/internal/contracts"
)

func TestPriceRiskScore(t *testing.T) {
	tests := []struct {
		name string
		z    float64
		ret  float64
		want int
	}{
		{"calm", 0.5, 1, 0},
		{"mild z", 1.6, 2, 35},
		{"two sigma", -2.1, -3, 55},
		{"two and half", 2.6, 4, 70},
		{"three sigma", 3.2, 5, 85},
		{"four sigma", 4.5, 8, 100},
		{"boost 10", 2.1, 11, 65},
		{"boost 15", 2.1, -16, 70},
		{"boost 20", 0.2, 25, 20},
		{"boost capped", 3.5, 30, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PriceRiskScore(tt.z, tt.ret))
		})
	}
}

func TestPriceAnomalyDetector_Detect(t *testing.T) {
	d := NewPriceAnomalyDetector(DefaultPriceConfig(), zerolog.Nop())

	t.Run("short series", func(t *testing.T) {
		got := d.Detect(buildSeries(repeat(100, 20), repeat(1000, 20)))
		assert.Equal(t, 0, got.RiskScore)
		assert.False(t, got.IsSuspicious)
		assert.Nil(t, got.Evidence)
		assert.Equal(t, "Insufficient data (need at least 30 days)", got.Message)
	})

	t.Run("flat prices", func(t *testing.T) {
		got := d.Detect(buildSeries(repeat(100, 40), repeat(1000, 40)))
		assert.Equal(t, 0, got.RiskScore)
		assert.Equal(t, "Invalid price data", got.Message)
	})

	t.Run("pump day", func(t *testing.T) {
		closes := append(zigzag(100, 101, 40), 130)
		got := d.Detect(buildSeries(closes, repeat(1000, 41)))

		require.NotNil(t, got.Evidence)
		assert.Equal(t, 100, got.RiskScore)
		assert.True(t, got.IsSuspicious)
		assert.True(t, strings.HasPrefix(got.Message, "EXTREME PRICE ANOMALY: Price increased 28.7%"), got.Message)
		assert.Greater(t, got.Evidence.ZScore, 4.0)
		assert.InDelta(t, 28.71, got.Evidence.PriceChangePercent, 1e-9)
		assert.InDelta(t, 2.0, got.Evidence.IntradayVolatilityPercent, 1e-9)
		assert.Equal(t, 130.0, got.Evidence.CurrentPrice)
	})
}

func TestPriceAnomalyDetector_DetectMultipleIndicators(t *testing.T) {
	d := NewPriceAnomalyDetector(DefaultPriceConfig(), zerolog.Nop())

	t.Run("short series keeps soft failure", func(t *testing.T) {
		rising := make([]float64, 25)
		for i := range rising {
			rising[i] = 100 + float64(i)*3
		}
		got := d.DetectMultipleIndicators(buildSeries(rising, repeat(1000, 25)))
		assert.Equal(t, 0, got.RiskScore)
		assert.False(t, got.IsSuspicious)
		assert.Nil(t, got.Bollinger)
	})

	t.Run("pump day combines indicators", func(t *testing.T) {
		closes := append(zigzag(100, 101, 40), 130)
		got := d.DetectMultipleIndicators(buildSeries(closes, repeat(1000, 41)))

		require.NotNil(t, got.Bollinger)
		require.NotNil(t, got.RSI)
		require.NotNil(t, got.Momentum)
		want := CombineScores(100, got.Bollinger.RiskScore, got.RSI.RiskScore, got.Momentum.RiskScore)
		assert.Equal(t, want, got.RiskScore)
		assert.Equal(t, contracts.StatusOverbought, got.Bollinger.Status)
		assert.Equal(t, 100, got.Bollinger.RiskScore)
		assert.Equal(t, contracts.StatusVeryHighMomentum, got.Momentum.Status)
		assert.True(t, got.IsSuspicious)
	})

	t.Run("flat series scores zero", func(t *testing.T) {
		got := d.DetectMultipleIndicators(buildSeries(repeat(100, 40), repeat(1000, 40)))
		assert.Equal(t, 0, got.RiskScore)
		assert.False(t, got.IsSuspicious)
		assert.Equal(t, contracts.StatusInvalidData, got.RSI.Status)
		assert.Equal(t, contracts.StatusNormalMomentum, got.Momentum.Status)
	})
}

func TestCombineScores(t *testing.T) {
	assert.Equal(t, 100, CombineScores(100, 100, 100, 100))
	assert.Equal(t, 0, CombineScores(0, 0, 0, 0))
	// 40 + 17.5 + 18 + 7.5 = 83
	assert.Equal(t, 83, CombineScores(100, 70, 90, 50))
	// |z| = 3.5 alone: int(0.40·85) = 34
	assert.Equal(t, 85, PriceRiskScore(3.5, 5))
	assert.Equal(t, 34, CombineScores(PriceRiskScore(3.5, 5), 0, 0, 0))
	assert.Equal(t, 34, CombineScores(PriceRiskScore(-3.5, -5), 0, 0, 0))
}

func TestPriceAnomalyDetector_FlatThenPump(t *testing.T) {
	d := NewPriceAnomalyDetector(DefaultPriceConfig(), zerolog.Nop())
	closes := append(repeat(100, 39), 122)

	got := d.Detect(buildSeries(closes, repeat(1000, 40)))
	require.NotNil(t, got.Evidence)
	// z ≥ 4 → 100, +20 boost capped at 100
	assert.GreaterOrEqual(t, got.Evidence.ZScore, 4.0)
	assert.Equal(t, 100, got.RiskScore)
	assert.True(t, got.IsSuspicious)
}
