package risk

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sentinel/internal/contracts"
)

func TestBatchCalculateRisk(t *testing.T) {
	e := NewEngine(DefaultConfig(), zerolog.Nop())

	broken := flatSeries(40)
	broken[3].Close = -1
	broken[3].Volume = -5

	items := e.BatchCalculateRisk(map[string]contracts.PriceSeries{
		"PUMP":   pumpSeries(),
		"FLAT":   flatSeries(40),
		"BROKEN": broken,
	})

	require.Len(t, items, 3)
	assert.Equal(t, "BROKEN", items[0].Ticker)
	assert.Error(t, items[0].Err)
	assert.Nil(t, items[0].Assessment)

	assert.Equal(t, "FLAT", items[1].Ticker)
	require.NoError(t, items[1].Err)
	assert.Equal(t, 0, items[1].Assessment.RiskScore)

	assert.Equal(t, "PUMP", items[2].Ticker)
	require.NoError(t, items[2].Err)

	high := HighRiskStocks(items, 60)
	require.Len(t, high, 1)
	assert.Equal(t, "PUMP", high[0].Ticker)

	all := HighRiskStocks(items, 0)
	require.Len(t, all, 2)
	assert.GreaterOrEqual(t, all[0].RiskScore, all[1].RiskScore)
}

func TestScoreItemRecoversPanic(t *testing.T) {
	e := NewEngine(DefaultConfig(), zerolog.Nop())
	e.volume = nil // forces a nil dereference inside scoring

	item := e.ScoreItem("X", flatSeries(40))
	require.Error(t, item.Err)
	assert.True(t, strings.Contains(item.Err.Error(), "panic"))
	assert.Nil(t, item.Assessment)
}

func TestFormatAlert(t *testing.T) {
	e := NewEngine(DefaultConfig(), zerolog.Nop(), WithClock(fixedClock))

	a, err := e.CalculateRiskScore(pumpSeries(), "PUMP")
	require.NoError(t, err)

	text := FormatAlert(a)
	assert.True(t, strings.HasPrefix(text, "🚨 STOCK ALERT: PUMP"))
	assert.Contains(t, text, "Risk Score: 83/100 (EXTREME RISK)")
	assert.Contains(t, text, "  • 🚨 EXTREME volume spike (18.99x normal)")
	assert.Contains(t, text, "Recommendation: ⛔ DO NOT BUY")
	assert.True(t, strings.HasSuffix(text, "Detected at: 2024-06-01T12:00:00Z"))

	flat, err := e.CalculateRiskScore(flatSeries(40), "FLAT")
	require.NoError(t, err)
	assert.Contains(t, FormatAlert(flat), "Red Flags:\n  None\n")
}
