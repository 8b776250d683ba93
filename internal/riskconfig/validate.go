package riskconfig

import (
	"fmt"

	"github.com/wonny/sentinel/internal/features"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.ConfigID == "" {
		return ValidationError{"meta.config_id", "required"}
	}

	// === Detectors ===
	v := cfg.Detectors.Volume
	if v.WindowDays < 2 {
		return ValidationError{"detectors.volume.window_days", "must be >= 2"}
	}
	if v.SpikeThreshold <= 0 {
		return ValidationError{"detectors.volume.spike_threshold", "must be > 0"}
	}

	p := cfg.Detectors.Price
	if p.WindowDays < 2 {
		return ValidationError{"detectors.price.window_days", "must be >= 2"}
	}
	if p.ZScoreThreshold <= 0 {
		return ValidationError{"detectors.price.z_score_threshold", "must be > 0"}
	}
	ind := p.Indicators
	if ind.BollingerWindow < 2 || ind.RSIWindow < 1 || ind.MomentumWindow < 1 {
		return ValidationError{"detectors.price.indicators", "windows must be positive (bollinger >= 2)"}
	}
	if ind.BollingerWidth <= 0 {
		return ValidationError{"detectors.price.indicators.bollinger_width", "must be > 0"}
	}

	// === Features ===
	if cfg.Features.WindowDays < 2 {
		return ValidationError{"features.window_days", "must be >= 2"}
	}
	if _, err := features.ParsePolicy(cfg.Features.MissingPolicy); err != nil {
		return ValidationError{"features.missing_policy", err.Error()}
	}

	// === Model ===
	if err := cfg.Model.Validate(); err != nil {
		return ValidationError{"model", err.Error()}
	}

	// === Fusion ===
	if err := cfg.Fusion.ModelWeights.Validate(); err != nil {
		return ValidationError{"fusion.model_weights", err.Error()}
	}
	if err := cfg.Fusion.FallbackWeights.Validate(); err != nil {
		return ValidationError{"fusion.fallback_weights", err.Error()}
	}

	// === Scan ===
	if cfg.Scan.HistoryDays <= 0 {
		return ValidationError{"scan.history_days", "must be > 0"}
	}
	if cfg.Scan.HighRiskThreshold < 0 || cfg.Scan.HighRiskThreshold > 100 {
		return ValidationError{"scan.high_risk_threshold", "must be in range [0, 100]"}
	}
	if cfg.Scan.CacheTTLMinutes < 0 {
		return ValidationError{"scan.cache_ttl_minutes", "must be >= 0"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 히스토리가 탐지 윈도우보다 짧으면 모든 점수가 0
	longest := max(cfg.Detectors.Volume.WindowDays, cfg.Detectors.Price.WindowDays, cfg.Features.WindowDays)
	if cfg.Scan.HistoryDays < longest {
		warnings = append(warnings, Warning{
			Code:    "SHORT_HISTORY",
			Message: fmt.Sprintf("scan.history_days=%d < longest window %d: every ticker will score 0", cfg.Scan.HistoryDays, longest),
		})
	}

	if cfg.Model.TreeCount < 50 {
		warnings = append(warnings, Warning{
			Code:    "FEW_TREES",
			Message: "model.tree_count < 50: anomaly scores will be noisy",
		})
	}

	if cfg.Fusion.ModelWeights.ML == 0 {
		warnings = append(warnings, Warning{
			Code:    "ML_UNWEIGHTED",
			Message: "fusion.model_weights.ml = 0: an attached model has no effect",
		})
	}

	return warnings
}
