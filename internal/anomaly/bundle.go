package anomaly

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/wonny/sentinel/internal/contracts"
)

const bundleVersion = 1

// bundle is the on-disk model format
type bundle struct {
	Version  int                       `json:"version"`
	Config   Config                    `json:"config"`
	Columns  []string                  `json:"feature_columns"`
	Scaler   Scaler                    `json:"scaler"`
	Forest   *forest                   `json:"forest"`
	Offset   float64                   `json:"offset"`
	Training contracts.TrainingSummary `json:"training_info"`
}

// Save writes the model as one JSON bundle
// The file is written to a temp file in the same directory and renamed into place.
func (m *Model) Save(path string) error {
	if !m.trained {
		return fmt.Errorf("save model: %w", ErrNotTrained)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".model-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after rename

	b := bundle{
		Version:  bundleVersion,
		Config:   m.cfg,
		Columns:  m.columns,
		Scaler:   m.scaler,
		Forest:   m.forest,
		Offset:   m.offset,
		Training: m.summary,
	}
	if err := json.NewEncoder(tmp).Encode(&b); err != nil {
		tmp.Close()
		return fmt.Errorf("encode model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename model file: %w", err)
	}

	m.log.Info().Str("path", path).Int("features", len(m.columns)).Msg("model saved")
	return nil
}

// Load reads a bundle written by Save
func Load(path string, log zerolog.Logger) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBundleNotFound, path)
		}
		return nil, fmt.Errorf("read model: %w", err)
	}

	var b bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if err := b.validate(); err != nil {
		return nil, fmt.Errorf("invalid model %s: %w", path, err)
	}

	m := New(b.Config, log)
	m.columns = b.Columns
	m.scaler = b.Scaler
	m.forest = b.Forest
	m.offset = b.Offset
	m.summary = b.Training
	m.trained = true

	m.log.Info().
		Str("path", path).
		Int("trained_samples", b.Training.Samples).
		Msg("model loaded")

	return m, nil
}

func (b *bundle) validate() error {
	if b.Version != bundleVersion {
		return fmt.Errorf("unsupported bundle version %d", b.Version)
	}
	if err := b.Config.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if len(b.Columns) == 0 {
		return errors.New("no feature columns")
	}
	if len(b.Scaler.Mean) != len(b.Columns) || len(b.Scaler.Scale) != len(b.Columns) {
		return errors.New("scaler size does not match columns")
	}
	if b.Forest == nil || len(b.Forest.Trees) == 0 || b.Forest.MaxSamples < 1 {
		return errors.New("empty forest")
	}
	for ti, t := range b.Forest.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", ti)
		}
		// nodes are stored in pre-order: children always follow their parent
		for i, n := range t.Nodes {
			if n.Size < 1 {
				return fmt.Errorf("tree %d node %d has size %d", ti, i, n.Size)
			}
			if n.Left < 0 {
				continue
			}
			if n.Feature < 0 || n.Feature >= len(b.Columns) ||
				n.Left <= i || n.Left >= len(t.Nodes) ||
				n.Right <= i || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d has an invalid split at node %d", ti, i)
			}
		}
	}
	return nil
}

// Discover loads the first bundle found among candidate paths
// Used by hosts that want path lookup; the risk engine itself only takes an injected model.
func Discover(candidates []string, log zerolog.Logger) (*Model, string, error) {
	for _, path := range candidates {
		if path == "" {
			continue
		}
		m, err := Load(path, log)
		if errors.Is(err, ErrBundleNotFound) {
			continue
		}
		if err != nil {
			return nil, path, err
		}
		return m, path, nil
	}
	return nil, "", fmt.Errorf("%w: searched %d paths", ErrBundleNotFound, len(candidates))
}
