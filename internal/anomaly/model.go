// Package anomaly implements the isolation-forest outlier model over the
// engineered feature table.
package anomaly

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/sentinel/internal/contracts"
	"github.com/wonny/sentinel/internal/series"
)

var (
	// ErrNotTrained is returned when predicting with a model that was never trained or loaded
	ErrNotTrained = errors.New("anomaly model not trained")
	// ErrFeatureMismatch is returned when input lacks a column the model was trained on
	ErrFeatureMismatch = errors.New("feature columns do not match trained model")
	// ErrBundleNotFound is returned when no model bundle exists at the requested path
	ErrBundleNotFound = errors.New("model bundle not found")
	// ErrInsufficientSamples is returned when the training table has fewer than two rows
	ErrInsufficientSamples = errors.New("at least two training samples required")
)

// defaultMaxSamples caps the per-tree subsample ("auto")
const defaultMaxSamples = 256

// Config holds isolation forest hyperparameters
type Config struct {
	Contamination float64 `yaml:"contamination" json:"contamination"` // expected outlier fraction
	TreeCount     int     `yaml:"tree_count" json:"tree_count"`
	MaxSamples    int     `yaml:"max_samples" json:"max_samples"` // 0 = min(256, n)
	RandomSeed    int64   `yaml:"random_seed" json:"random_seed"`
}

// DefaultConfig returns contamination 0.1, 100 trees, auto samples, seed 42
func DefaultConfig() Config {
	return Config{
		Contamination: 0.1,
		TreeCount:     100,
		MaxSamples:    0,
		RandomSeed:    42,
	}
}

// Validate checks hyperparameter ranges
func (c Config) Validate() error {
	if c.Contamination <= 0 || c.Contamination >= 1 {
		return fmt.Errorf("contamination must be in (0, 1), got %v", c.Contamination)
	}
	if c.TreeCount <= 0 {
		return fmt.Errorf("tree_count must be positive, got %d", c.TreeCount)
	}
	if c.MaxSamples < 0 {
		return fmt.Errorf("max_samples must be >= 0, got %d", c.MaxSamples)
	}
	return nil
}

// Model is the trained outlier detector
// Read-only after Train or Load; safe for concurrent prediction.
type Model struct {
	cfg     Config
	log     zerolog.Logger
	trained bool

	columns []string
	scaler  Scaler
	forest  *forest
	offset  float64
	summary contracts.TrainingSummary
}

// New creates an untrained model
func New(cfg Config, log zerolog.Logger) *Model {
	return &Model{
		cfg: cfg,
		log: log.With().Str("component", "anomaly.model").Logger(),
	}
}

// Trained reports whether the model can predict
func (m *Model) Trained() bool {
	return m.trained
}

// Columns returns the trained feature column order
func (m *Model) Columns() []string {
	out := make([]string, len(m.columns))
	copy(out, m.columns)
	return out
}

// Config returns the hyperparameters
func (m *Model) Config() Config {
	return m.cfg
}

// Summary returns the training summary
func (m *Model) Summary() contracts.TrainingSummary {
	return m.summary
}

// Offset returns the decision threshold on the raw score
func (m *Model) Offset() float64 {
	return m.offset
}

// Train fits the scaler and forest on the table
// With no columns given every table column is used. NaN cells are zero-filled.
func (m *Model) Train(ctx context.Context, table *contracts.FeatureTable, columns ...string) (contracts.TrainingSummary, error) {
	if err := m.cfg.Validate(); err != nil {
		return contracts.TrainingSummary{}, fmt.Errorf("train: %w", err)
	}
	if table == nil || table.Len() < 2 {
		return contracts.TrainingSummary{}, fmt.Errorf("train: %w", ErrInsufficientSamples)
	}
	if len(columns) == 0 {
		columns = table.Columns
	}

	x, filled, err := matrix(table, columns)
	if err != nil {
		return contracts.TrainingSummary{}, fmt.Errorf("train: %w", err)
	}
	if filled > 0 {
		m.log.Warn().Int("missing", filled).Msg("missing values filled with 0")
	}

	n := len(x)
	psi := m.cfg.MaxSamples
	if psi == 0 {
		psi = defaultMaxSamples
	}
	psi = min(psi, n)

	m.log.Info().
		Int("samples", n).
		Int("features", len(columns)).
		Float64("contamination", m.cfg.Contamination).
		Int("trees", m.cfg.TreeCount).
		Int("max_samples", psi).
		Msg("training isolation forest")

	scaler := fitScaler(x, len(columns))
	scaled := make([][]float64, n)
	for i, row := range x {
		scaled[i] = scaler.transform(row)
	}

	f, err := fitForest(ctx, scaled, m.cfg.TreeCount, psi, m.cfg.RandomSeed)
	if err != nil {
		return contracts.TrainingSummary{}, fmt.Errorf("train: %w", err)
	}

	scores := make([]float64, n)
	for i, row := range scaled {
		scores[i] = f.score(row)
	}
	offset := series.Percentile(scores, 100*m.cfg.Contamination)

	anomalies := 0
	for _, s := range scores {
		if s-offset < 0 {
			anomalies++
		}
	}

	m.columns = append([]string(nil), columns...)
	m.scaler = scaler
	m.forest = f
	m.offset = offset
	m.trained = true
	m.summary = contracts.TrainingSummary{
		Samples:           n,
		Features:          len(columns),
		AnomaliesDetected: anomalies,
		NormalDetected:    n - anomalies,
		AnomalyRate:       float64(anomalies) / float64(n),
		Contamination:     m.cfg.Contamination,
		TreeCount:         m.cfg.TreeCount,
		MissingFilled:     filled,
		TrainedAt:         time.Now().UTC(),
	}

	m.log.Info().
		Int("anomalies", anomalies).
		Float64("anomaly_rate", m.summary.AnomalyRate).
		Float64("offset", offset).
		Msg("model trained")

	return m.summary, nil
}

// Predict scores every row of the table
// Columns are realigned by name; risk is the inverted min-max of the batch scores.
func (m *Model) Predict(table *contracts.FeatureTable) ([]contracts.Prediction, error) {
	if !m.trained {
		return nil, ErrNotTrained
	}
	if table == nil || table.Empty() {
		return []contracts.Prediction{}, nil
	}

	x, _, err := matrix(table, m.columns)
	if err != nil {
		return nil, err
	}

	out := make([]contracts.Prediction, len(x))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, row := range x {
		score := m.forest.score(m.scaler.transform(row))
		label := m.label(score)
		out[i] = contracts.Prediction{
			Ticker:       table.Rows[i].Ticker,
			Date:         table.Rows[i].Date,
			Prediction:   label,
			AnomalyScore: score,
			IsAnomaly:    label == -1,
		}
		lo = math.Min(lo, score)
		hi = math.Max(hi, score)
	}

	for i := range out {
		risk := 50.0
		if hi != lo {
			risk = (1 - (out[i].AnomalyScore-lo)/(hi-lo)) * 100
		}
		out[i].RiskScore = clamp(risk, 0, 100)
	}

	return out, nil
}

// PredictSingle scores one feature row with the fixed piecewise risk mapping
// Missing columns and NaN values are treated as 0.
func (m *Model) PredictSingle(row contracts.FeatureRow) (contracts.Prediction, error) {
	if !m.trained {
		return contracts.Prediction{}, ErrNotTrained
	}

	values := make([]float64, len(m.columns))
	for j, name := range m.columns {
		v, ok := row.Get(name)
		if !ok || series.IsMissing(v) {
			v = 0
		}
		values[j] = v
	}

	score := m.forest.score(m.scaler.transform(values))
	label := m.label(score)

	return contracts.Prediction{
		Ticker:       row.Ticker,
		Date:         row.Date,
		Prediction:   label,
		AnomalyScore: score,
		RiskScore:    SingleRiskScore(score),
		IsAnomaly:    label == -1,
	}, nil
}

// SingleRiskScore maps a raw score to 0~100 without batch context
//
//	score < -0.5       → 80 + (|s| - 0.5)·40
//	-0.5 ≤ score < 0   → 60 + |s|·40
//	0 ≤ score < 0.5    → 30 + (0.5 - s)·60
//	score ≥ 0.5        → (1 - s)·60
func SingleRiskScore(score float64) float64 {
	var risk float64
	switch {
	case score < -0.5:
		risk = 80 + (math.Abs(score)-0.5)*40
	case score < 0:
		risk = 60 + math.Abs(score)*40
	case score < 0.5:
		risk = 30 + (0.5-score)*60
	default:
		risk = (1 - score) * 60
	}
	return clamp(risk, 0, 100)
}

func (m *Model) label(score float64) int {
	if score-m.offset < 0 {
		return -1
	}
	return 1
}

// scoreRaw scores an already standardized row
func (m *Model) scoreRaw(scaled []float64) float64 {
	return m.forest.score(scaled)
}

// matrix extracts columns by name; missing cells become 0
func matrix(table *contracts.FeatureTable, columns []string) ([][]float64, int, error) {
	idx := make([]int, len(columns))
	for j, name := range columns {
		idx[j] = table.ColumnIndex(name)
		if idx[j] < 0 {
			return nil, 0, fmt.Errorf("%w: missing column %q", ErrFeatureMismatch, name)
		}
	}

	filled := 0
	x := make([][]float64, table.Len())
	for i, r := range table.Rows {
		if len(r.Values) != len(table.Columns) {
			return nil, 0, fmt.Errorf("%w: row %d has %d values for %d columns",
				ErrFeatureMismatch, i, len(r.Values), len(table.Columns))
		}
		row := make([]float64, len(columns))
		for j, k := range idx {
			v := r.Values[k]
			if series.IsMissing(v) {
				v = 0
				filled++
			}
			row[j] = v
		}
		x[i] = row
	}
	return x, filled, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
