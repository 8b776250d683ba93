package commands

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/sentinel/internal/marketdata"
	"github.com/wonny/sentinel/internal/risk"
)

var (
	scoreCSV    string
	scoreTicker string
	scoreJSON   bool
	scoreAlert  bool
)

// scoreCmd scores one ticker from a local OHLCV file
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "단일 종목 리스크 점수 계산",
	Long: `CSV 일봉 파일 하나로 리스크 점수를 계산합니다.

모델 번들이 없으면 통계 가중치(거래량 0.35 / 가격 0.40)로 계산합니다.

Example:
  go run ./cmd/sentinel score --csv data/GME.csv
  go run ./cmd/sentinel score --csv data/GME.csv --ticker GME --json`,
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().StringVar(&scoreCSV, "csv", "", "OHLCV CSV file (Date,Open,High,Low,Close,Volume)")
	scoreCmd.Flags().StringVar(&scoreTicker, "ticker", "", "ticker symbol (default: file name)")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "print the assessment as JSON")
	scoreCmd.Flags().BoolVar(&scoreAlert, "alert", false, "also print the alert text")
	_ = scoreCmd.MarkFlagRequired("csv")
}

func runScore(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}

	series, err := marketdata.ReadFile(scoreCSV)
	if err != nil {
		return fmt.Errorf("read %s: %w", scoreCSV, err)
	}

	ticker := tickerOrFileName(scoreTicker, scoreCSV)
	assessment, err := rt.engine().CalculateRiskScore(series, ticker)
	if err != nil {
		return fmt.Errorf("score %s: %w", ticker, err)
	}

	out := cmd.OutOrStdout()
	if scoreJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(assessment)
	}

	PrintAssessment(out, assessment)
	if scoreAlert {
		fmt.Fprintln(out)
		fmt.Fprintln(out, risk.FormatAlert(assessment))
	}
	return nil
}

// tickerOrFileName returns ticker, or the upper-cased base name of path
func tickerOrFileName(ticker, path string) string {
	if ticker != "" {
		return strings.ToUpper(ticker)
	}
	base := filepath.Base(path)
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}
