package riskconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := "../../configs/risk.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, yamlData, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, yamlData)

	assert.Equal(t, "sentinel_v1", cfg.Meta.ConfigID)
	assert.Equal(t, 30, cfg.Detectors.Volume.WindowDays)
	assert.Equal(t, 14, cfg.Detectors.Price.Indicators.RSIWindow)
	assert.Equal(t, 0.25, cfg.Fusion.ModelWeights.ML)

	// 동일 설정 → 동일 해시
	hash, err := Hash(cfg)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	hash2, err := Hash(cfg)
	require.NoError(t, err)
	assert.Equal(t, hash, hash2)
}

func TestParse_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("meta:\n  config_id: custom\nscan:\n  history_days: 200\n"))
	require.NoError(t, err)

	assert.Equal(t, "custom", cfg.Meta.ConfigID)
	assert.Equal(t, 200, cfg.Scan.HistoryDays)
	assert.Equal(t, Default().Detectors, cfg.Detectors)
	assert.Equal(t, Default().Fusion, cfg.Fusion)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("detectors:\n  volume:\n    window_dayz: 20\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window_dayz")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing id", func(c *Config) { c.Meta.ConfigID = "" }, "meta.config_id"},
		{"volume window", func(c *Config) { c.Detectors.Volume.WindowDays = 1 }, "detectors.volume.window_days"},
		{"spike threshold", func(c *Config) { c.Detectors.Volume.SpikeThreshold = 0 }, "detectors.volume.spike_threshold"},
		{"price window", func(c *Config) { c.Detectors.Price.WindowDays = 0 }, "detectors.price.window_days"},
		{"bollinger width", func(c *Config) { c.Detectors.Price.Indicators.BollingerWidth = -1 }, "detectors.price.indicators.bollinger_width"},
		{"missing policy", func(c *Config) { c.Features.MissingPolicy = "interpolate" }, "features.missing_policy"},
		{"contamination", func(c *Config) { c.Model.Contamination = 0.6 * 2 }, "model"},
		{"model weights", func(c *Config) { c.Fusion.ModelWeights.ML = 0.5 }, "fusion.model_weights"},
		{"fallback weights", func(c *Config) { c.Fusion.FallbackWeights.Price = -0.1 }, "fusion.fallback_weights"},
		{"threshold", func(c *Config) { c.Scan.HighRiskThreshold = 101 }, "scan.high_risk_threshold"},
	}

	require.NoError(t, Validate(Default()))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			var verr ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestHashChangesWithConfig(t *testing.T) {
	a := Default()
	b := Default()
	b.Detectors.Volume.SpikeThreshold = 3

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hb)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, data, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	// 기본값 YAML은 다시 읽어도 같은 설정
	path := filepath.Join(t.TempDir(), "risk.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, _, err := LoadOrDefault(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	_, _, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEngineConfigAndWarn(t *testing.T) {
	cfg := Default()
	ec := cfg.EngineConfig()
	require.NoError(t, ec.Validate())
	assert.Equal(t, cfg.Detectors.Volume, ec.Volume)
	assert.Equal(t, cfg.Fusion.FallbackWeights, ec.FallbackWeights)

	assert.Empty(t, Warn(cfg))

	cfg.Scan.HistoryDays = 20
	cfg.Model.TreeCount = 10
	codes := []string{}
	for _, w := range Warn(cfg) {
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []string{"SHORT_HISTORY", "FEW_TREES"}, codes)

	snap, err := NewSnapshot(cfg, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "sentinel_default", snap.ConfigID)
	assert.Len(t, snap.ConfigHash, 64)
}
