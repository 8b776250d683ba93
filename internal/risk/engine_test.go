package risk

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sentinel/internal/contracts"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func buildSeries(closes, volumes []float64) contracts.PriceSeries {
	s := make(contracts.PriceSeries, len(closes))
	for i := range closes {
		s[i] = contracts.DailyBar{
			Date:   day0.AddDate(0, 0, i),
			Open:   closes[i],
			High:   closes[i] * 1.01,
			Low:    closes[i] * 0.99,
			Close:  closes[i],
			Volume: volumes[i],
		}
	}
	return s
}

func flatSeries(n int) contracts.PriceSeries {
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i := range closes {
		closes[i] = 100
		volumes[i] = 1000
	}
	return buildSeries(closes, volumes)
}

// pumpSeries: 40 quiet zigzag days, then +28.7% on ~19x volume
func pumpSeries() contracts.PriceSeries {
	closes := make([]float64, 41)
	volumes := make([]float64, 41)
	for i := 0; i < 40; i++ {
		closes[i] = 100 + float64(i%2)
		volumes[i] = 1000
	}
	closes[40] = 130
	volumes[40] = 50000
	return buildSeries(closes, volumes)
}

// flatPumpSeries: 39 flat days, then day 40 trades 12x the 30-day average (today included) at +22%
func flatPumpSeries() contracts.PriceSeries {
	closes := make([]float64, 40)
	volumes := make([]float64, 40)
	for i := 0; i < 39; i++ {
		closes[i] = 100
		volumes[i] = 1800
	}
	// x / ((29·1800 + x) / 30) = 12 → x = 34800
	closes[39] = 122
	volumes[39] = 34800
	return buildSeries(closes, volumes)
}

type stubModel struct {
	pred  contracts.Prediction
	err   error
	panic bool
}

func (m stubModel) PredictSingle(row contracts.FeatureRow) (contracts.Prediction, error) {
	if m.panic {
		panic("corrupt forest")
	}
	return m.pred, m.err
}

func fixedClock() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestEngine_Weights(t *testing.T) {
	plain := NewEngine(DefaultConfig(), zerolog.Nop())
	assert.False(t, plain.MLEnabled())
	assert.Equal(t, FallbackWeights(), plain.Weights())

	withModel := NewEngine(DefaultConfig(), zerolog.Nop(), WithModel(stubModel{}))
	assert.True(t, withModel.MLEnabled())
	assert.Equal(t, ModelWeights(), withModel.Weights())
}

func TestEngine_FlatSeries(t *testing.T) {
	e := NewEngine(DefaultConfig(), zerolog.Nop(), WithClock(fixedClock))

	a, err := e.CalculateRiskScore(flatSeries(40), "FLAT")
	require.NoError(t, err)

	assert.Equal(t, "FLAT", a.Ticker)
	assert.Equal(t, 0, a.RiskScore)
	assert.Equal(t, contracts.RiskMinimal, a.RiskLevel)
	assert.False(t, a.IsSuspicious)
	assert.Empty(t, a.RedFlags)
	assert.Equal(t, "No significant anomalies detected - normal trading activity", a.Explanation)
	assert.Equal(t, "✅ NORMAL - No significant manipulation signals detected.", a.Recommendation)
	assert.False(t, a.MLStatus.Enabled)
	assert.Equal(t, "ML model not enabled", a.MLStatus.Error)
	assert.Equal(t, fixedClock(), a.AssessedAt)
	assert.Equal(t, day0.AddDate(0, 0, 39), a.AsOf)
}

func TestEngine_ShortSeries(t *testing.T) {
	e := NewEngine(DefaultConfig(), zerolog.Nop())
	s := pumpSeries()[25:]

	a, err := e.CalculateRiskScore(s, "SHORT")
	require.NoError(t, err)
	assert.Equal(t, 0, a.IndividualScores.Volume)
	assert.Equal(t, 0, a.IndividualScores.Price)
	assert.Equal(t, 0, a.RiskScore)
}

func TestEngine_PumpAndDump(t *testing.T) {
	tests := []struct {
		name          string
		series        contracts.PriceSeries
		wantPrice     int
		wantFlags     []string
		wantVolText   string
		wantPriceText string
		wantRSIText   string
	}{
		{
			name:      "flat prior, 12x volume, +22%",
			series:    flatPumpSeries(),
			wantPrice: 95,
			wantFlags: []string{
				"🚨 EXTREME volume spike (12.0x normal)",
				"🚨 EXTREME price movement (22.0%)",
				"🚨 RSI extremely overbought (100.0)",
				"⚠️ High price momentum (22.0%)",
				"🚨 CRITICAL: Both volume AND price showing anomalies (classic pump-and-dump pattern)",
			},
			wantVolText:   "Trading volume is 12.0x above normal",
			wantPriceText: "Price increased abnormally (22.0%, Z-score: ",
			wantRSIText:   "RSI indicates overbought condition (100.0)",
		},
		{
			name:      "zigzag prior, 19x volume, +28.7%",
			series:    pumpSeries(),
			wantPrice: 95,
			wantFlags: []string{
				"🚨 EXTREME volume spike (18.99x normal)",
				"🚨 EXTREME price movement (28.7%)",
				"🚨 RSI extremely overbought (85.71)",
				"⚠️ High price momentum (28.7%)",
				"🚨 CRITICAL: Both volume AND price showing anomalies (classic pump-and-dump pattern)",
			},
			wantVolText:   "Trading volume is 18.99x above normal",
			wantPriceText: "Price increased abnormally (28.7%, Z-score: ",
			wantRSIText:   "RSI indicates overbought condition (85.71)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(DefaultConfig(), zerolog.Nop())

			a, err := e.CalculateRiskScore(tt.series, "PUMP")
			require.NoError(t, err)

			assert.Equal(t, 100, a.IndividualScores.Volume)
			assert.Equal(t, tt.wantPrice, a.IndividualScores.Price)
			// 100·0.39 + 95·0.46 = 82.7
			assert.Equal(t, 83, a.RiskScore)
			assert.Equal(t, contracts.RiskExtreme, a.RiskLevel)
			assert.True(t, a.IsSuspicious)
			assert.Equal(t, tt.wantFlags, a.RedFlags)

			parts := strings.Split(a.Explanation, " | ")
			require.Len(t, parts, 4)
			assert.Equal(t, tt.wantVolText, parts[0])
			assert.True(t, strings.HasPrefix(parts[1], tt.wantPriceText), parts[1])
			assert.Equal(t, tt.wantRSIText, parts[2])
			assert.Equal(t, "Price above Bollinger Band upper limit", parts[3])
			assert.Equal(t, "⛔ DO NOT BUY - Extremely high manipulation risk. Likely pump-and-dump in progress.", a.Recommendation)
		})
	}
}

func TestEngine_WithModel(t *testing.T) {
	model := stubModel{pred: contracts.Prediction{Prediction: -1, AnomalyScore: -0.8, RiskScore: 92, IsAnomaly: true}}
	e := NewEngine(DefaultConfig(), zerolog.Nop(), WithModel(model))

	a, err := e.CalculateRiskScore(pumpSeries(), "PUMP")
	require.NoError(t, err)

	assert.True(t, a.MLStatus.Enabled)
	assert.Empty(t, a.MLStatus.Error)
	assert.Equal(t, 92.0, a.MLStatus.Score)
	// 100·0.30 + 95·0.35 + 92·0.25 = 86.25
	assert.Equal(t, 86, a.RiskScore)

	assert.Contains(t, a.RedFlags, "🚨 ML MODEL: EXTREME risk detected (score: 92)")
	assert.Contains(t, a.RedFlags, "🤖 ML MODEL: Anomaly pattern detected")
	assert.Equal(t, "🚨 CRITICAL: ML model AND statistical methods both flagging high risk", a.RedFlags[len(a.RedFlags)-1])
	assert.Contains(t, a.Explanation, "ML model detected high-risk pattern (score: 92)")
	assert.Contains(t, a.Explanation, "ML model flagged as anomaly pattern")

	mlDetails, ok := a.Details["ml"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, mlDetails["is_anomaly"])
}

func TestEngine_ModelFailures(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr string
	}{
		{"prediction error", []Option{WithModel(stubModel{err: errors.New("boom")})}, "ML prediction error: boom"},
		{"prediction panic", []Option{WithModel(stubModel{panic: true})}, "ML prediction error: corrupt forest"},
		{"load failure", []Option{WithModelError(errors.New("model bundle not found"))}, "model bundle not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(DefaultConfig(), zerolog.Nop(), tt.opts...)

			a, err := e.CalculateRiskScore(pumpSeries(), "PUMP")
			require.NoError(t, err)

			assert.False(t, a.MLStatus.Enabled)
			assert.Equal(t, tt.wantErr, a.MLStatus.Error)
			assert.Equal(t, 0.0, a.IndividualScores.ML)
			for _, f := range a.RedFlags {
				assert.NotContains(t, f, "ML MODEL")
			}
			assert.GreaterOrEqual(t, a.RiskScore, 80)
		})
	}
}

func TestEngine_InvalidSeries(t *testing.T) {
	e := NewEngine(DefaultConfig(), zerolog.Nop())
	s := flatSeries(40)
	s[10].Date = s[9].Date

	_, err := e.CalculateRiskScore(s, "BAD")
	assert.ErrorIs(t, err, contracts.ErrInvalidSeries)
}

func TestFinalScoreBounds(t *testing.T) {
	e := NewEngine(DefaultConfig(), zerolog.Nop(),
		WithModel(stubModel{pred: contracts.Prediction{RiskScore: 100, IsAnomaly: true}}))

	for _, s := range []contracts.PriceSeries{flatSeries(5), flatSeries(60), pumpSeries()} {
		a, err := e.CalculateRiskScore(s, "X")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, a.RiskScore, 0)
		assert.LessOrEqual(t, a.RiskScore, 100)
	}
}

func TestRecommendation(t *testing.T) {
	tests := []struct {
		score  int
		prefix string
	}{
		{95, "⛔ DO NOT BUY"},
		{80, "⛔ DO NOT BUY"},
		{60, "⚠️ AVOID"},
		{45, "⚡ CAUTION"},
		{20, "ℹ️ MONITOR"},
		{5, "✅ NORMAL"},
	}

	for _, tt := range tests {
		assert.True(t, strings.HasPrefix(Recommendation(tt.score), tt.prefix), "score %d", tt.score)
	}
}

func TestPyFloat(t *testing.T) {
	assert.Equal(t, "10.0", pyFloat(10))
	assert.Equal(t, "7.69", pyFloat(7.69))
	assert.Equal(t, "100.0", pyFloat(100))
}
