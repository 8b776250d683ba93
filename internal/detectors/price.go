package detectors

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/wonny/sentinel/internal/contracts"
	"github.com/wonny/sentinel/internal/series"
)

// PriceConfig holds price anomaly detection parameters
type PriceConfig struct {
	WindowDays      int     `yaml:"window_days" json:"window_days"`
	ZScoreThreshold float64 `yaml:"z_score_threshold" json:"z_score_threshold"`

	Indicators IndicatorWindows `yaml:"indicators" json:"indicators"`
}

// IndicatorWindows holds the fixed technical indicator windows
type IndicatorWindows struct {
	BollingerWindow int     `yaml:"bollinger_window" json:"bollinger_window"`
	BollingerWidth  float64 `yaml:"bollinger_width" json:"bollinger_width"` // σ multiplier
	RSIWindow       int     `yaml:"rsi_window" json:"rsi_window"`
	MomentumWindow  int     `yaml:"momentum_window" json:"momentum_window"`
}

// DefaultPriceConfig returns the 30-day / 2.0σ defaults with BB(20,2) RSI(14) MOM(10)
func DefaultPriceConfig() PriceConfig {
	return PriceConfig{
		WindowDays:      30,
		ZScoreThreshold: 2.0,
		Indicators: IndicatorWindows{
			BollingerWindow: 20,
			BollingerWidth:  2.0,
			RSIWindow:       14,
			MomentumWindow:  10,
		},
	}
}

// 지표 결합 가중치: Z-score 40%, Bollinger 25%, RSI 20%, Momentum 15%
const (
	weightZScore    = 0.40
	weightBollinger = 0.25
	weightRSI       = 0.20
	weightMomentum  = 0.15

	combinedSuspiciousScore = 60
)

// PriceAnomalyDetector flags daily returns that deviate from their rolling distribution
// ⭐ SSOT: 가격 이상 점수는 여기서만
type PriceAnomalyDetector struct {
	cfg PriceConfig
	log zerolog.Logger
}

// NewPriceAnomalyDetector creates a detector with the given parameters
func NewPriceAnomalyDetector(cfg PriceConfig, log zerolog.Logger) *PriceAnomalyDetector {
	return &PriceAnomalyDetector{
		cfg: cfg,
		log: log.With().Str("component", "detectors.price").Logger(),
	}
}

// Config returns the detector parameters
func (d *PriceAnomalyDetector) Config() PriceConfig {
	return d.cfg
}

// Detect computes the z-score of today's return against the rolling window
func (d *PriceAnomalyDetector) Detect(s contracts.PriceSeries) contracts.PriceDetection {
	if s.Len() == 0 || s.Len() < d.cfg.WindowDays {
		return contracts.PriceDetection{
			DetectionResult: contracts.DetectionResult{
				Message: insufficientDataMessage(d.cfg.WindowDays),
			},
		}
	}

	closes := s.Closes()
	returns := series.PctChange(closes)
	for i := range returns {
		returns[i] *= 100
	}
	means := series.RollingMean(returns, d.cfg.WindowDays)
	stds := series.RollingStd(returns, d.cfg.WindowDays)

	last := len(returns) - 1
	current := returns[last]
	mean := means[last]
	std := stds[last]

	if math.IsNaN(current) || math.IsNaN(std) || std == 0 {
		return contracts.PriceDetection{
			DetectionResult: contracts.DetectionResult{Message: "Invalid price data"},
		}
	}

	z := (current - mean) / std
	score := PriceRiskScore(z, current)

	bar := s.Last()
	prevClose := closes[last-1]

	return contracts.PriceDetection{
		DetectionResult: contracts.DetectionResult{
			IsSuspicious: math.Abs(z) >= d.cfg.ZScoreThreshold,
			RiskScore:    score,
			Message:      priceMessage(z, current, score),
		},
		Evidence: &contracts.PriceEvidence{
			ZScore:                    round2(z),
			CurrentReturnPercent:      round2(current),
			MeanReturnPercent:         round2(mean),
			StdDeviation:              round2(std),
			PriceChangePercent:        round2((bar.Close - prevClose) / prevClose * 100),
			IntradayVolatilityPercent: round2((bar.High - bar.Low) / bar.Close * 100),
			CurrentPrice:              round2(bar.Close),
			ThresholdUsed:             d.cfg.ZScoreThreshold,
		},
	}
}

// DetectMultipleIndicators blends the z-score with Bollinger, RSI and momentum readings
// A series shorter than the window returns the base soft failure unchanged.
func (d *PriceAnomalyDetector) DetectMultipleIndicators(s contracts.PriceSeries) contracts.PriceDetection {
	result := d.Detect(s)
	if s.Len() == 0 || s.Len() < d.cfg.WindowDays {
		return result
	}

	w := d.cfg.Indicators
	bb := CheckBollinger(s, w.BollingerWindow, w.BollingerWidth)
	rsi := CheckRSI(s, w.RSIWindow)
	mom := CheckMomentum(s, w.MomentumWindow)

	combined := CombineScores(result.RiskScore, bb.RiskScore, rsi.RiskScore, mom.RiskScore)

	d.log.Debug().
		Int("zscore_risk", result.RiskScore).
		Int("bollinger_risk", bb.RiskScore).
		Int("rsi_risk", rsi.RiskScore).
		Int("momentum_risk", mom.RiskScore).
		Int("combined", combined).
		Msg("price indicators combined")

	result.RiskScore = combined
	result.IsSuspicious = combined >= combinedSuspiciousScore
	result.Bollinger = &bb
	result.RSI = &rsi
	result.Momentum = &mom

	return result
}

// CombineScores is the fixed 40/25/20/15 weighted blend, truncated to int
func CombineScores(zscore, bollinger, rsi, momentum int) int {
	combined := float64(zscore)*weightZScore +
		float64(bollinger)*weightBollinger +
		float64(rsi)*weightRSI +
		float64(momentum)*weightMomentum
	return int(combined)
}

// PriceRiskScore maps |z| to a base score and boosts it for large absolute returns
func PriceRiskScore(z, returnPercent float64) int {
	absZ := math.Abs(z)
	absRet := math.Abs(returnPercent)

	var score int
	switch {
	case absZ >= 4:
		score = 100
	case absZ >= 3:
		score = 85
	case absZ >= 2.5:
		score = 70
	case absZ >= 2:
		score = 55
	case absZ >= 1.5:
		score = 35
	}

	switch {
	case absRet >= 20:
		score = min(score+20, 100)
	case absRet >= 15:
		score = min(score+15, 100)
	case absRet >= 10:
		score = min(score+10, 100)
	}

	return score
}

func priceMessage(z, returnPercent float64, score int) string {
	direction := "decreased"
	if returnPercent > 0 {
		direction = "increased"
	}
	abs := math.Abs(returnPercent)

	switch {
	case score >= 80:
		return fmt.Sprintf("EXTREME PRICE ANOMALY: Price %s %.1f%% (Z-score: %.1f). High manipulation risk!", direction, abs, z)
	case score >= 60:
		return fmt.Sprintf("HIGH PRICE ANOMALY: Price %s %.1f%% (Z-score: %.1f). Suspicious movement.", direction, abs, z)
	case score >= 40:
		return fmt.Sprintf("MODERATE PRICE ANOMALY: Price %s %.1f%% (Z-score: %.1f). Monitor closely.", direction, abs, z)
	default:
		return fmt.Sprintf("NORMAL PRICE MOVEMENT: Price %s %.1f%% (Z-score: %.1f).", direction, abs, z)
	}
}
