package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	riskConfigFile string
	modelPath      string
	verbose        bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Sentinel - 시세 조작 리스크 탐지 엔진",
	Long: `Sentinel Unified CLI

일봉 OHLCV 데이터로 거래량 급증, 가격 이상, Isolation Forest
이상치 점수를 결합해 0~100 조작 리스크 점수를 계산합니다.

Usage:
  go run ./cmd/sentinel [command]

Examples:
  go run ./cmd/sentinel score --csv data/GME.csv --ticker GME
  go run ./cmd/sentinel features --csv data/GME.csv --out gme_features.csv
  go run ./cmd/sentinel train --data data/ --out models/isolation_forest.json
  go run ./cmd/sentinel evaluate --data data/
  go run ./cmd/sentinel scan --tickers GME,AMC --save
  go run ./cmd/sentinel watch --tickers GME,AMC`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&riskConfigFile, "risk-config", "", "risk config YAML (default: RISK_CONFIG_PATH or built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&modelPath, "model", "", "model bundle path (default: MODEL_PATH or search paths)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
