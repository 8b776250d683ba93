package commands

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wonny/sentinel/internal/anomaly"
	"github.com/wonny/sentinel/internal/contracts"
	"github.com/wonny/sentinel/internal/features"
	"github.com/wonny/sentinel/internal/marketdata"
	"github.com/wonny/sentinel/internal/risk"
)

var (
	evalData     string
	evalMissing  string
	evalStatDays int
	evalJSON     bool
)

// evaluateCmd runs the trained model over a data set and reports
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "모델 평가 리포트",
	Long: `학습된 모델로 전체 데이터를 예측하고 분포/종목별 리포트를 출력합니다.

--stat-days N: 종목별 최근 N일은 통계 탐지기 점수와 비교합니다 (0이면 생략).

Example:
  go run ./cmd/sentinel evaluate --data data/
  go run ./cmd/sentinel evaluate --data data/ --model models/isolation_forest.json --json`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evalData, "data", "", "directory of <TICKER>.csv price files")
	evaluateCmd.Flags().StringVar(&evalMissing, "missing", "", "missing policy: forward_fill|median|zero|drop")
	evaluateCmd.Flags().IntVar(&evalStatDays, "stat-days", 30, "recent days per ticker compared with detector scores")
	evaluateCmd.Flags().BoolVar(&evalJSON, "json", false, "print the report as JSON")
	_ = evaluateCmd.MarkFlagRequired("data")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	model, path, err := anomaly.Discover(rt.modelCandidates(), rt.log.Zerolog())
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	rt.log.WithField("path", path).Info("ML model loaded")

	data, err := marketdata.NewCSVSource(evalData, rt.log.Zerolog()).LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load %s: %w", evalData, err)
	}
	policy, err := rt.missingPolicy(evalMissing)
	if err != nil {
		return err
	}
	fe := features.NewEngineer(rt.risk.Features.WindowDays, rt.log.Zerolog())
	table, err := fe.ExtractAll(data, policy)
	if err != nil {
		return err
	}

	predictions, err := model.Predict(table)
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}

	report := anomaly.Evaluate(predictions)
	if evalStatDays > 0 {
		cmp := anomaly.CompareWithStatistical(predictions, statisticalScores(rt, data, evalStatDays))
		report.Comparison = &cmp
	}

	out := cmd.OutOrStdout()
	if evalJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	fmt.Fprint(out, report.String())
	return nil
}

// statisticalScores scores the last days of each ticker with the detector-only engine
func statisticalScores(rt *runtimeEnv, data map[string]contracts.PriceSeries, days int) []anomaly.StatisticalScore {
	engine := risk.NewEngine(rt.risk.EngineConfig(), rt.log.Zerolog())

	tickers := make([]string, 0, len(data))
	for t := range data {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	var out []anomaly.StatisticalScore
	for _, t := range tickers {
		s := data[t]
		start := max(1, s.Len()-days+1)
		for end := start; end <= s.Len(); end++ {
			a, err := engine.CalculateRiskScore(s[:end], t)
			if err != nil {
				continue
			}
			out = append(out, anomaly.StatisticalScore{
				Ticker:    t,
				Date:      s[end-1].Date,
				RiskScore: float64(a.RiskScore),
			})
		}
	}
	return out
}
