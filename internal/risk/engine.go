// Package risk fuses detector and model scores into a manipulation-risk assessment.
package risk

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/sentinel/internal/contracts"
	"github.com/wonny/sentinel/internal/detectors"
	"github.com/wonny/sentinel/internal/features"
)

// =============================================================================
// Configuration
// =============================================================================

// suspiciousScore 최종 점수가 이 값 이상이면 의심 종목
const suspiciousScore = 60

// Config holds detector parameters and fusion weights
type Config struct {
	Volume            detectors.VolumeConfig `yaml:"volume" json:"volume"`
	Price             detectors.PriceConfig  `yaml:"price" json:"price"`
	FeatureWindowDays int                    `yaml:"feature_window_days" json:"feature_window_days"`
	ModelWeights      Weights                `yaml:"model_weights" json:"model_weights"`
	FallbackWeights   Weights                `yaml:"fallback_weights" json:"fallback_weights"`
}

// DefaultConfig returns the 30-day detector defaults and the standard weight sets
func DefaultConfig() Config {
	return Config{
		Volume:            detectors.DefaultVolumeConfig(),
		Price:             detectors.DefaultPriceConfig(),
		FeatureWindowDays: features.DefaultWindowDays,
		ModelWeights:      ModelWeights(),
		FallbackWeights:   FallbackWeights(),
	}
}

// Validate checks windows and weight sums
func (c Config) Validate() error {
	if c.Volume.WindowDays <= 0 || c.Price.WindowDays <= 0 || c.FeatureWindowDays <= 0 {
		return errors.New("window days must be positive")
	}
	if err := c.ModelWeights.Validate(); err != nil {
		return fmt.Errorf("model weights: %w", err)
	}
	if err := c.FallbackWeights.Validate(); err != nil {
		return fmt.Errorf("fallback weights: %w", err)
	}
	return nil
}

// =============================================================================
// Engine
// =============================================================================

// Predictor scores a single feature row; *anomaly.Model satisfies it
type Predictor interface {
	PredictSingle(row contracts.FeatureRow) (contracts.Prediction, error)
}

// Option configures an Engine
type Option func(*Engine)

// WithModel attaches a trained outlier model
func WithModel(p Predictor) Option {
	return func(e *Engine) {
		e.model = p
	}
}

// WithModelError records why no model could be attached; it is reported in MLStatus
func WithModelError(err error) Option {
	return func(e *Engine) {
		e.modelErr = err
	}
}

// WithFeatureEngineer overrides the feature engineer used for model input
func WithFeatureEngineer(fe *features.Engineer) Option {
	return func(e *Engine) {
		e.features = fe
	}
}

// WithClock overrides the assessment timestamp source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine combines volume, price and model signals into a RiskAssessment
// ⭐ SSOT: 최종 리스크 점수 결합은 여기서만
// Stateless across calls; the attached model is only read.
type Engine struct {
	cfg      Config
	volume   *detectors.VolumeSpikeDetector
	price    *detectors.PriceAnomalyDetector
	features *features.Engineer
	model    Predictor
	modelErr error
	weights  Weights
	now      func() time.Time
	log      zerolog.Logger
}

// NewEngine creates a fusion engine
// Base weights are the model set when a model is attached, the fallback set otherwise.
func NewEngine(cfg Config, log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		volume: detectors.NewVolumeSpikeDetector(cfg.Volume, log),
		price:  detectors.NewPriceAnomalyDetector(cfg.Price, log),
		now:    time.Now,
		log:    log.With().Str("component", "risk.engine").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.features == nil {
		e.features = features.NewEngineer(cfg.FeatureWindowDays, log)
	}

	if e.model != nil {
		e.weights = cfg.ModelWeights
	} else {
		e.weights = cfg.FallbackWeights
	}

	e.log.Debug().
		Bool("ml_enabled", e.model != nil).
		Float64("w_volume", e.weights.Volume).
		Float64("w_price", e.weights.Price).
		Float64("w_ml", e.weights.ML).
		Msg("risk engine ready")

	return e
}

// MLEnabled reports whether a model is attached
func (e *Engine) MLEnabled() bool {
	return e.model != nil
}

// Weights returns the base weights in use
func (e *Engine) Weights() Weights {
	return e.weights
}

// mlOutcome is the model contribution for one call
type mlOutcome struct {
	available  bool
	score      float64
	err        string
	prediction *contracts.Prediction
}

// CalculateRiskScore runs all detectors and fuses their scores
// Returns an error only for a series that breaks the input contract.
func (e *Engine) CalculateRiskScore(s contracts.PriceSeries, ticker string) (*contracts.RiskAssessment, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("score %s: %w", ticker, err)
	}

	vol := e.volume.Detect(s)
	price := e.price.DetectMultipleIndicators(s)
	ml := e.scoreModel(s, ticker)
	social := 0 // no social signal source is wired

	w := Redistribute(e.weights, ml.available)
	weighted := float64(vol.RiskScore)*w.Volume +
		float64(price.RiskScore)*w.Price +
		float64(social)*w.Social +
		ml.score*w.ML
	final := int(math.Max(0, math.Min(100, math.Round(weighted))))

	level := contracts.RiskLevelFor(final)
	assessment := &contracts.RiskAssessment{
		Ticker:       ticker,
		RiskScore:    final,
		RiskLevel:    level,
		IsSuspicious: final >= suspiciousScore,
		IndividualScores: contracts.IndividualScores{
			Volume: vol.RiskScore,
			Price:  price.RiskScore,
			Social: social,
			ML:     ml.score,
		},
		MLStatus: contracts.MLStatus{
			Enabled: ml.available,
			Error:   ml.err,
			Score:   ml.score,
		},
		RedFlags:       redFlags(vol, price, ml),
		Explanation:    explanation(vol, price, ml, final),
		Recommendation: Recommendation(final),
		Details:        details(vol, price, ml),
		AssessedAt:     e.now().UTC(),
	}
	if s.Len() > 0 {
		assessment.AsOf = s.Last().Date
	}

	e.log.Debug().
		Str("ticker", ticker).
		Int("volume", vol.RiskScore).
		Int("price", price.RiskScore).
		Float64("ml", ml.score).
		Bool("ml_available", ml.available).
		Int("final", final).
		Str("level", string(level)).
		Msg("risk calculated")

	return assessment, nil
}

// scoreModel extracts the latest feature row and asks the model for a score
// Any failure, panic included, leaves the model out of this call.
func (e *Engine) scoreModel(s contracts.PriceSeries, ticker string) (out mlOutcome) {
	if e.model == nil {
		msg := "ML model not enabled"
		if e.modelErr != nil {
			msg = e.modelErr.Error()
		}
		return mlOutcome{err: msg}
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Str("ticker", ticker).Interface("panic", r).Msg("model prediction panicked")
			out = mlOutcome{err: fmt.Sprintf("ML prediction error: %v", r)}
		}
	}()

	row, ok := e.features.ExtractLatest(ticker, s)
	if !ok {
		return mlOutcome{err: "feature extraction returned no rows"}
	}

	pred, err := e.model.PredictSingle(row)
	if err != nil {
		e.log.Warn().Err(err).Str("ticker", ticker).Msg("model prediction failed")
		return mlOutcome{err: fmt.Sprintf("ML prediction error: %v", err)}
	}

	return mlOutcome{
		available:  true,
		score:      pred.RiskScore,
		prediction: &pred,
	}
}

func details(vol contracts.VolumeDetection, price contracts.PriceDetection, ml mlOutcome) map[string]any {
	d := map[string]any{
		"volume": vol,
		"price":  price,
	}
	switch {
	case ml.prediction != nil:
		d["ml"] = map[string]any{
			"anomaly_score": ml.prediction.AnomalyScore,
			"is_anomaly":    ml.prediction.IsAnomaly,
			"prediction":    ml.prediction.Prediction,
		}
	case ml.err != "":
		d["ml"] = map[string]any{
			"error":     ml.err,
			"available": false,
		}
	}
	return d
}
