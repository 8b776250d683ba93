package commands

import (
	"fmt"

	"github.com/wonny/sentinel/internal/anomaly"
	"github.com/wonny/sentinel/internal/features"
	"github.com/wonny/sentinel/internal/risk"
	"github.com/wonny/sentinel/internal/riskconfig"
	"github.com/wonny/sentinel/pkg/config"
	"github.com/wonny/sentinel/pkg/logger"
)

// runtimeEnv bundles what every command needs
type runtimeEnv struct {
	cfg        *config.Config
	log        *logger.Logger
	risk       *riskconfig.Config
	riskYAML   []byte
	configHash string
}

// loadRuntime loads env config, the logger and the risk YAML
func loadRuntime() (*runtimeEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	path := riskConfigFile
	if path == "" {
		path = cfg.Model.RiskConfigPath
	}
	rc, data, err := riskconfig.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load risk config: %w", err)
	}
	for _, w := range riskconfig.Warn(rc) {
		log.WithFields(map[string]any{"code": w.Code}).Warn(w.Message)
	}

	hash, err := riskconfig.Hash(rc)
	if err != nil {
		return nil, fmt.Errorf("hash risk config: %w", err)
	}

	log.WithFields(map[string]any{
		"config_id":   rc.Meta.ConfigID,
		"config_hash": hash[:12],
	}).Debug("Risk config loaded")

	return &runtimeEnv{cfg: cfg, log: log, risk: rc, riskYAML: data, configHash: hash}, nil
}

// modelCandidates returns --model if set, else the configured lookup order
func (rt *runtimeEnv) modelCandidates() []string {
	if modelPath != "" {
		return []string{modelPath}
	}
	return rt.cfg.Model.Candidates()
}

// engine builds the fusion engine; a missing model degrades to the fallback weights
func (rt *runtimeEnv) engine() *risk.Engine {
	zl := rt.log.Zerolog()
	fe := features.NewEngineer(rt.risk.Features.WindowDays, zl)

	model, path, err := anomaly.Discover(rt.modelCandidates(), zl)
	if err != nil {
		rt.log.WithError(err).Warn("ML model unavailable, using statistical weights")
		return risk.NewEngine(rt.risk.EngineConfig(), zl, risk.WithFeatureEngineer(fe), risk.WithModelError(err))
	}

	rt.log.WithField("path", path).Info("ML model loaded")
	return risk.NewEngine(rt.risk.EngineConfig(), zl, risk.WithFeatureEngineer(fe), risk.WithModel(model))
}

// missingPolicy resolves a flag value, falling back to the risk config
func (rt *runtimeEnv) missingPolicy(flag string) (features.MissingPolicy, error) {
	if flag == "" {
		flag = rt.risk.Features.MissingPolicy
	}
	return features.ParsePolicy(flag)
}
