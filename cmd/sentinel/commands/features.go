package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/sentinel/internal/features"
	"github.com/wonny/sentinel/internal/marketdata"
)

var (
	featuresCSV     string
	featuresTicker  string
	featuresOut     string
	featuresMissing string
	featuresRaw     bool
)

// featuresCmd exports the engineered feature table of one ticker
var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "47개 피처 테이블 추출",
	Long: `CSV 일봉 파일에서 피처 테이블을 만들어 CSV로 저장합니다.

기본적으로 결측값 정책(risk config의 features.missing_policy)을 적용합니다.
--raw를 주면 결측값을 빈 칸으로 남깁니다.

Example:
  go run ./cmd/sentinel features --csv data/GME.csv --out gme_features.csv`,
	RunE: runFeatures,
}

func init() {
	rootCmd.AddCommand(featuresCmd)
	featuresCmd.Flags().StringVar(&featuresCSV, "csv", "", "OHLCV CSV file")
	featuresCmd.Flags().StringVar(&featuresTicker, "ticker", "", "ticker symbol (default: file name)")
	featuresCmd.Flags().StringVar(&featuresOut, "out", "", "output CSV (default: stdout)")
	featuresCmd.Flags().StringVar(&featuresMissing, "missing", "", "missing policy: forward_fill|median|zero|drop")
	featuresCmd.Flags().BoolVar(&featuresRaw, "raw", false, "keep missing values")
	_ = featuresCmd.MarkFlagRequired("csv")
}

func runFeatures(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}

	series, err := marketdata.ReadFile(featuresCSV)
	if err != nil {
		return fmt.Errorf("read %s: %w", featuresCSV, err)
	}

	ticker := tickerOrFileName(featuresTicker, featuresCSV)
	fe := features.NewEngineer(rt.risk.Features.WindowDays, rt.log.Zerolog())
	table := fe.ExtractTable(ticker, series)
	if table.Empty() {
		return fmt.Errorf("%s: need at least %d rows, got %d", ticker, fe.WindowDays(), series.Len())
	}

	if !featuresRaw {
		policy, err := rt.missingPolicy(featuresMissing)
		if err != nil {
			return err
		}
		var filled int
		table, filled = features.Resolve(table, policy)
		rt.log.WithFields(map[string]any{"policy": policy, "filled": filled}).Debug("Missing values resolved")
	}

	var w io.Writer = cmd.OutOrStdout()
	if featuresOut != "" {
		f, err := os.Create(featuresOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", featuresOut, err)
		}
		defer f.Close()
		w = f
	}

	if err := features.WriteCSV(w, table); err != nil {
		return fmt.Errorf("write features: %w", err)
	}

	if featuresOut != "" {
		PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("%d rows × %d features → %s", table.Len(), len(table.Columns), featuresOut))
	}
	return nil
}
