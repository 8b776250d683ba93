package logger_test

import (
	"errors"

	"github.com/wonny/sentinel/pkg/config"
	"github.com/wonny/sentinel/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	// Create logger (SSOT)
	log := logger.New(cfg)

	log.Debug("This won't appear (level is info)")
	log.Info("Scan started")
	log.Infof("Scored %d of %d tickers", 48, 50)
}

// Example_component demonstrates handing a tagged zerolog logger to a domain package
func Example_component() {
	log := logger.New(&config.Config{Env: "production", LogLevel: "info", LogFormat: "json"})

	engineLog := log.Component("risk.engine")
	engineLog.Info().Str("ticker", "GME").Int("risk_score", 83).Msg("risk calculated")

	log.WithError(errors.New("model bundle not found")).
		WithField("path", "models/isolation_forest.json").
		Warn("falling back to statistical weights")
}
