package detectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sentinel/internal/contracts"
)

func TestCheckBollinger(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		status contracts.IndicatorStatus
		score  int
	}{
		{"insufficient", repeat(100, 10), contracts.StatusInsufficientData, 0},
		{"flat inside band", repeat(100, 30), contracts.StatusNormal, 0},
		{"breaks upper band", append(repeat(100, 29), 120), contracts.StatusOverbought, 100},
		{"breaks lower band", append(repeat(100, 29), 99.8), contracts.StatusOversold, 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckBollinger(buildSeries(tt.closes, repeat(1, len(tt.closes))), 20, 2)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.score, got.RiskScore)
		})
	}
}

func TestCheckRSI(t *testing.T) {
	rising := make([]float64, 20)
	falling := make([]float64, 20)
	for i := range rising {
		rising[i] = 100 + float64(i)
		falling[i] = 100 - float64(i)
	}

	t.Run("insufficient", func(t *testing.T) {
		got := CheckRSI(buildSeries(rising[:14], repeat(1, 14)), 14)
		assert.Equal(t, contracts.StatusInsufficientData, got.Status)
		assert.Nil(t, got.Value)
	})

	t.Run("only gains", func(t *testing.T) {
		got := CheckRSI(buildSeries(rising, repeat(1, 20)), 14)
		require.NotNil(t, got.Value)
		assert.Equal(t, 100.0, *got.Value)
		assert.Equal(t, contracts.StatusExtremelyOverbought, got.Status)
		assert.Equal(t, 90, got.RiskScore)
	})

	t.Run("only losses", func(t *testing.T) {
		got := CheckRSI(buildSeries(falling, repeat(1, 20)), 14)
		require.NotNil(t, got.Value)
		assert.Equal(t, 0.0, *got.Value)
		assert.Equal(t, contracts.StatusExtremelyOversold, got.Status)
	})

	t.Run("flat is undefined", func(t *testing.T) {
		got := CheckRSI(buildSeries(repeat(50, 20), repeat(1, 20)), 14)
		assert.Equal(t, contracts.StatusInvalidData, got.Status)
		assert.Equal(t, 0, got.RiskScore)
	})

	t.Run("balanced is neutral", func(t *testing.T) {
		got := CheckRSI(buildSeries(zigzag(100, 101, 20), repeat(1, 20)), 14)
		require.NotNil(t, got.Value)
		assert.Equal(t, 50.0, *got.Value)
		assert.Equal(t, contracts.StatusNeutral, got.Status)
	})
}

func TestCheckMomentum(t *testing.T) {
	tests := []struct {
		last   float64
		status contracts.IndicatorStatus
		score  int
	}{
		{135, contracts.StatusExtremeMomentum, 100},
		{125, contracts.StatusVeryHighMomentum, 85},
		{84, contracts.StatusHighMomentum, 70},
		{111, contracts.StatusModerateMomentum, 50},
		{105, contracts.StatusNormalMomentum, 0},
	}

	for _, tt := range tests {
		closes := append(repeat(100, 14), tt.last)
		got := CheckMomentum(buildSeries(closes, repeat(1, 15)), 10)
		assert.Equal(t, tt.status, got.Status)
		assert.Equal(t, tt.score, got.RiskScore)
		require.NotNil(t, got.Percent)
		assert.Equal(t, 10, got.PeriodDays)
	}

	short := CheckMomentum(buildSeries(repeat(100, 5), repeat(1, 5)), 10)
	assert.Equal(t, contracts.StatusInsufficientData, short.Status)
}
