package detectors

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/wonny/sentinel/internal/contracts"
	"github.com/wonny/sentinel/internal/series"
)

// VolumeConfig holds volume spike detection parameters
type VolumeConfig struct {
	WindowDays     int     `yaml:"window_days" json:"window_days"`
	SpikeThreshold float64 `yaml:"spike_threshold" json:"spike_threshold"` // ratio vs trailing average
}

// DefaultVolumeConfig returns the 30-day / 2.0x defaults
func DefaultVolumeConfig() VolumeConfig {
	return VolumeConfig{
		WindowDays:     30,
		SpikeThreshold: 2.0,
	}
}

// realtimeJumpPercent 직전 관측 대비 이 비율(%) 초과 증가 시 가산점
const (
	realtimeJumpPercent = 100.0
	realtimeBoost       = 20
)

// VolumeSpikeDetector flags trading volume far above its trailing average
// ⭐ SSOT: 거래량 스파이크 점수는 여기서만
type VolumeSpikeDetector struct {
	cfg VolumeConfig
	log zerolog.Logger
}

// NewVolumeSpikeDetector creates a detector with the given parameters
func NewVolumeSpikeDetector(cfg VolumeConfig, log zerolog.Logger) *VolumeSpikeDetector {
	return &VolumeSpikeDetector{
		cfg: cfg,
		log: log.With().Str("component", "detectors.volume").Logger(),
	}
}

// Config returns the detector parameters
func (d *VolumeSpikeDetector) Config() VolumeConfig {
	return d.cfg
}

// Detect scores the most recent bar's volume against the trailing average
// The average includes today. Short or degenerate series fail softly with score 0.
func (d *VolumeSpikeDetector) Detect(s contracts.PriceSeries) contracts.VolumeDetection {
	if s.Len() == 0 || s.Len() < d.cfg.WindowDays {
		return contracts.VolumeDetection{
			DetectionResult: contracts.DetectionResult{
				Message: insufficientDataMessage(d.cfg.WindowDays),
			},
		}
	}

	volumes := s.Volumes()
	avg := series.RollingMean(volumes, d.cfg.WindowDays)
	current := volumes[len(volumes)-1]
	avgValue := avg[len(avg)-1]

	if math.IsNaN(avgValue) || avgValue == 0 {
		return contracts.VolumeDetection{
			DetectionResult: contracts.DetectionResult{Message: "Invalid volume data"},
		}
	}

	ratio := current / avgValue
	score := VolumeRiskScore(ratio)

	return contracts.VolumeDetection{
		DetectionResult: contracts.DetectionResult{
			IsSuspicious: ratio >= d.cfg.SpikeThreshold,
			RiskScore:    score,
			Message:      volumeMessage(ratio, score),
		},
		Evidence: &contracts.VolumeEvidence{
			CurrentVolume:      int64(current),
			AverageVolume:      int64(avgValue),
			VolumeRatio:        round2(ratio),
			PriceChangePercent: round2(lastPriceChangePercent(s)),
			ThresholdUsed:      d.cfg.SpikeThreshold,
		},
	}
}

// DetectRealtime compares the latest volume with the previous reading as well
// A jump above 100% adds 20 points (capped at 100) and forces the suspicious flag.
func (d *VolumeSpikeDetector) DetectRealtime(s, previous contracts.PriceSeries) contracts.VolumeDetection {
	result := d.Detect(s)
	if result.Evidence == nil || previous.Len() == 0 {
		return result
	}

	change := 0.0
	prevVolume := previous.Last().Volume
	if prevVolume != 0 {
		change = (s.Last().Volume - prevVolume) / prevVolume * 100
	}
	rounded := round2(change)
	result.RecentVolumeChangePercent = &rounded

	if change > realtimeJumpPercent {
		result.RiskScore = min(result.RiskScore+realtimeBoost, 100)
		result.IsSuspicious = true
		d.log.Debug().
			Float64("change_pct", change).
			Int("score", result.RiskScore).
			Msg("realtime volume jump")
	}

	return result
}

// BatchDetect runs Detect for every ticker; an invalid series becomes a zero-score result
func (d *VolumeSpikeDetector) BatchDetect(data map[string]contracts.PriceSeries) map[string]contracts.VolumeDetection {
	results := make(map[string]contracts.VolumeDetection, len(data))
	for ticker, s := range data {
		if err := s.Validate(); err != nil {
			d.log.Warn().Err(err).Str("ticker", ticker).Msg("skip invalid series")
			results[ticker] = contracts.VolumeDetection{
				DetectionResult: contracts.DetectionResult{
					Message: fmt.Sprintf("Error processing %s: %v", ticker, err),
				},
			}
			continue
		}
		results[ticker] = d.Detect(s)
	}
	return results
}

// TickerScore pairs a ticker with a risk score
type TickerScore struct {
	Ticker    string `json:"ticker"`
	RiskScore int    `json:"risk_score"`
}

// TopSuspicious returns up to n suspicious tickers ordered by score descending
func TopSuspicious(results map[string]contracts.VolumeDetection, n int) []TickerScore {
	out := make([]TickerScore, 0, len(results))
	for ticker, r := range results {
		if r.IsSuspicious {
			out = append(out, TickerScore{Ticker: ticker, RiskScore: r.RiskScore})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RiskScore != out[j].RiskScore {
			return out[i].RiskScore > out[j].RiskScore
		}
		return out[i].Ticker < out[j].Ticker
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// VolumeRiskScore maps a volume ratio to 0~100 (monotone step function)
func VolumeRiskScore(ratio float64) int {
	switch {
	case ratio >= 10:
		return 100
	case ratio >= 5:
		return 90
	case ratio >= 4:
		return 80
	case ratio >= 3:
		return 70
	case ratio >= 2.5:
		return 60
	case ratio >= 2:
		return 50
	case ratio >= 1.5:
		return 30
	default:
		return 0
	}
}

func volumeMessage(ratio float64, score int) string {
	switch {
	case score >= 80:
		return fmt.Sprintf("EXTREME VOLUME SPIKE: %.1fx normal volume detected. High manipulation risk!", ratio)
	case score >= 60:
		return fmt.Sprintf("HIGH VOLUME SPIKE: %.1fx normal volume detected. Suspicious activity.", ratio)
	case score >= 40:
		return fmt.Sprintf("MODERATE VOLUME SPIKE: %.1fx normal volume detected. Monitor closely.", ratio)
	case score >= 20:
		return fmt.Sprintf("SLIGHT VOLUME INCREASE: %.1fx normal volume. May be normal market activity.", ratio)
	default:
		return fmt.Sprintf("NORMAL VOLUME: %.1fx average. No anomaly detected.", ratio)
	}
}

func insufficientDataMessage(window int) string {
	return fmt.Sprintf("Insufficient data (need at least %d days)", window)
}

// lastPriceChangePercent 최근 1일 종가 변화율 (%)
func lastPriceChangePercent(s contracts.PriceSeries) float64 {
	if s.Len() < 2 {
		return 0
	}
	cur := s[s.Len()-1].Close
	prev := s[s.Len()-2].Close
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
