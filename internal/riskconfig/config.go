package riskconfig

import (
	"time"

	"github.com/wonny/sentinel/internal/anomaly"
	"github.com/wonny/sentinel/internal/detectors"
	"github.com/wonny/sentinel/internal/risk"
)

// Config는 리스크 엔진 전체 설정
type Config struct {
	Meta      Meta           `yaml:"meta" json:"meta"`
	Detectors Detectors      `yaml:"detectors" json:"detectors"`
	Features  Features       `yaml:"features" json:"features"`
	Model     anomaly.Config `yaml:"model" json:"model"`
	Fusion    Fusion         `yaml:"fusion" json:"fusion"`
	Scan      Scan           `yaml:"scan" json:"scan"`
}

// Meta 메타 정보
type Meta struct {
	ConfigID string `yaml:"config_id" json:"config_id"`
	Version  string `yaml:"version" json:"version"`
}

// Detectors 통계 탐지기 파라미터
type Detectors struct {
	Volume detectors.VolumeConfig `yaml:"volume" json:"volume"`
	Price  detectors.PriceConfig  `yaml:"price" json:"price"`
}

// Features 피처 추출 설정
type Features struct {
	WindowDays    int    `yaml:"window_days" json:"window_days"`
	MissingPolicy string `yaml:"missing_policy" json:"missing_policy"` // forward_fill | median | zero | drop
}

// Fusion 점수 결합 가중치
type Fusion struct {
	ModelWeights    risk.Weights `yaml:"model_weights" json:"model_weights"`
	FallbackWeights risk.Weights `yaml:"fallback_weights" json:"fallback_weights"`
}

// Scan 배치 스캔 설정
type Scan struct {
	HistoryDays       int `yaml:"history_days" json:"history_days"`
	HighRiskThreshold int `yaml:"high_risk_threshold" json:"high_risk_threshold"`
	CacheTTLMinutes   int `yaml:"cache_ttl_minutes" json:"cache_ttl_minutes"`
}

// CacheTTL returns the assessment cache lifetime
func (s Scan) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLMinutes) * time.Minute
}

// Default returns the built-in configuration
func Default() *Config {
	engine := risk.DefaultConfig()
	return &Config{
		Meta: Meta{
			ConfigID: "sentinel_default",
			Version:  "1",
		},
		Detectors: Detectors{
			Volume: engine.Volume,
			Price:  engine.Price,
		},
		Features: Features{
			WindowDays:    engine.FeatureWindowDays,
			MissingPolicy: "forward_fill",
		},
		Model: anomaly.DefaultConfig(),
		Fusion: Fusion{
			ModelWeights:    engine.ModelWeights,
			FallbackWeights: engine.FallbackWeights,
		},
		Scan: Scan{
			HistoryDays:       120,
			HighRiskThreshold: 60,
			CacheTTLMinutes:   30,
		},
	}
}

// EngineConfig maps the file layout onto risk.Config
func (c *Config) EngineConfig() risk.Config {
	return risk.Config{
		Volume:            c.Detectors.Volume,
		Price:             c.Detectors.Price,
		FeatureWindowDays: c.Features.WindowDays,
		ModelWeights:      c.Fusion.ModelWeights,
		FallbackWeights:   c.Fusion.FallbackWeights,
	}
}

// Snapshot 스캔 실행 시점의 설정 스냅샷 (재현성용)
type Snapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	ConfigID   string    `json:"config_id"`
	CreatedAt  time.Time `json:"created_at"`
}
