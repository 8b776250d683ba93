package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/sentinel/internal/anomaly"
	"github.com/wonny/sentinel/internal/contracts"
	"github.com/wonny/sentinel/internal/features"
	"github.com/wonny/sentinel/internal/marketdata"
)

var (
	trainData          string
	trainFeatures      string
	trainOut           string
	trainContamination float64
	trainTrees         int
	trainMissing       string
	trainTop           int
	trainTune          bool
)

// trainCmd fits the isolation forest and writes the model bundle
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Isolation Forest 모델 학습",
	Long: `종목별 CSV 디렉터리(또는 피처 CSV)로 이상치 모델을 학습하고 번들을 저장합니다.

--tune을 주면 contamination × tree 수 그리드를 비교만 하고 저장하지 않습니다.

Example:
  go run ./cmd/sentinel train --data data/ --out models/isolation_forest.json
  go run ./cmd/sentinel train --features all_features.csv --contamination 0.05
  go run ./cmd/sentinel train --data data/ --tune`,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
	trainCmd.Flags().StringVar(&trainData, "data", "", "directory of <TICKER>.csv price files")
	trainCmd.Flags().StringVar(&trainFeatures, "features", "", "feature CSV written by the features command")
	trainCmd.Flags().StringVar(&trainOut, "out", "", "bundle path (default: MODEL_PATH or first search path)")
	trainCmd.Flags().Float64Var(&trainContamination, "contamination", 0, "expected outlier fraction (default: risk config)")
	trainCmd.Flags().IntVar(&trainTrees, "trees", 0, "number of trees (default: risk config)")
	trainCmd.Flags().StringVar(&trainMissing, "missing", "", "missing policy: forward_fill|median|zero|drop")
	trainCmd.Flags().IntVar(&trainTop, "top", 10, "feature importance rows to print")
	trainCmd.Flags().BoolVar(&trainTune, "tune", false, "compare hyperparameters instead of saving")
	trainCmd.MarkFlagsOneRequired("data", "features")
	trainCmd.MarkFlagsMutuallyExclusive("data", "features")
}

func runTrain(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	table, err := rt.trainingTable(ctx, trainData, trainFeatures, trainMissing)
	if err != nil {
		return err
	}

	mcfg := rt.risk.Model
	if trainContamination > 0 {
		mcfg.Contamination = trainContamination
	}
	if trainTrees > 0 {
		mcfg.TreeCount = trainTrees
	}
	if err := mcfg.Validate(); err != nil {
		return err
	}

	if trainTune {
		results, err := anomaly.Tune(ctx, table, mcfg,
			[]float64{0.05, 0.1, 0.15, 0.2}, []int{50, 100, 200}, rt.log.Zerolog())
		if err != nil {
			return err
		}
		printTuning(cmd, results)
		return nil
	}

	model := anomaly.New(mcfg, rt.log.Zerolog())
	summary, err := model.Train(ctx, table)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	path := trainOut
	if path == "" {
		candidates := rt.cfg.Model.Candidates()
		if len(candidates) == 0 {
			return fmt.Errorf("no output path: set --out or MODEL_PATH")
		}
		path = candidates[0]
	}
	if err := model.Save(path); err != nil {
		return fmt.Errorf("save model: %w", err)
	}

	PrintHeader(out, "MODEL TRAINED",
		KV{"Bundle", path},
		KV{"Samples", fmt.Sprintf("%d", summary.Samples)},
		KV{"Features", fmt.Sprintf("%d", summary.Features)},
	)
	PrintKeyValue(out, "Anomalies", fmt.Sprintf("%d (%.1f%%)", summary.AnomaliesDetected, summary.AnomalyRate*100), 14)
	PrintKeyValue(out, "Normal", fmt.Sprintf("%d", summary.NormalDetected), 14)
	PrintKeyValue(out, "Contamination", fmt.Sprintf("%g", summary.Contamination), 14)
	PrintKeyValue(out, "Trees", fmt.Sprintf("%d", summary.TreeCount), 14)
	PrintKeyValue(out, "Filled", fmt.Sprintf("%d", summary.MissingFilled), 14)
	PrintSeparator(out)

	importance, err := model.FeatureImportance(trainTop)
	if err != nil {
		return err
	}
	widths := []int{32, 10}
	PrintTableHeader(out, []string{"FEATURE", "IMPORTANCE"}, widths)
	for _, fi := range importance {
		PrintTableRow(out, []string{fi.Feature, fmt.Sprintf("%.4f", fi.Importance)}, widths)
	}
	return nil
}

// trainingTable builds a resolved feature table from price files or a feature CSV
func (rt *runtimeEnv) trainingTable(ctx context.Context, dataDir, featureFile, missing string) (*contracts.FeatureTable, error) {
	policy, err := rt.missingPolicy(missing)
	if err != nil {
		return nil, err
	}

	if featureFile != "" {
		f, err := os.Open(featureFile)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", featureFile, err)
		}
		defer f.Close()

		table, err := features.ReadCSV(f)
		if err != nil {
			return nil, err
		}
		resolved, _ := features.Resolve(table, policy)
		if resolved.Empty() {
			return nil, fmt.Errorf("%s: no usable rows", featureFile)
		}
		return resolved, nil
	}

	data, err := marketdata.NewCSVSource(dataDir, rt.log.Zerolog()).LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", dataDir, err)
	}
	fe := features.NewEngineer(rt.risk.Features.WindowDays, rt.log.Zerolog())
	return fe.ExtractAll(data, policy)
}

func printTuning(cmd *cobra.Command, results []anomaly.TuningResult) {
	out := cmd.OutOrStdout()
	PrintHeader(out, "HYPERPARAMETER TUNING")

	widths := []int{13, 5, 12, 8, 8, 9}
	PrintTableHeader(out, []string{"CONTAMINATION", "TREES", "ANOMALY RATE", "AVG RISK", "STD RISK", "ANOMALIES"}, widths)
	for _, r := range results {
		PrintTableRow(out, []string{
			fmt.Sprintf("%g", r.Contamination),
			fmt.Sprintf("%d", r.TreeCount),
			fmt.Sprintf("%.3f", r.AnomalyRate),
			fmt.Sprintf("%.1f", r.AvgRisk),
			fmt.Sprintf("%.1f", r.StdRisk),
			fmt.Sprintf("%d", r.Anomalies),
		}, widths)
	}
}
