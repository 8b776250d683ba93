package anomaly

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/sentinel/internal/contracts"
)

// TuningResult is the outcome of one hyperparameter combination
type TuningResult struct {
	Contamination float64 `json:"contamination"`
	TreeCount     int     `json:"n_estimators"`
	AnomalyRate   float64 `json:"anomaly_rate"`
	AvgRisk       float64 `json:"avg_risk_score"`
	StdRisk       float64 `json:"std_risk_score"`
	Anomalies     int     `json:"n_anomalies"`
}

// Tune trains one model per (contamination, trees) pair and scores it on the training table
// Results are ordered by |anomaly_rate - contamination|, best first.
func Tune(ctx context.Context, table *contracts.FeatureTable, base Config, contaminations []float64, treeCounts []int, log zerolog.Logger) ([]TuningResult, error) {
	type job struct {
		contamination float64
		trees         int
	}
	var jobs []job
	for _, c := range contaminations {
		for _, n := range treeCounts {
			jobs = append(jobs, job{c, n})
		}
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("tune: empty parameter grid")
	}

	results := make([]TuningResult, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(2)
	for i, j := range jobs {
		g.Go(func() error {
			cfg := base
			cfg.Contamination = j.contamination
			cfg.TreeCount = j.trees

			m := New(cfg, zerolog.Nop())
			if _, err := m.Train(ctx, table); err != nil {
				return fmt.Errorf("contamination=%v trees=%d: %w", j.contamination, j.trees, err)
			}
			preds, err := m.Predict(table)
			if err != nil {
				return err
			}

			rep := Evaluate(preds)
			results[i] = TuningResult{
				Contamination: j.contamination,
				TreeCount:     j.trees,
				AnomalyRate:   rep.AnomalyRate,
				AvgRisk:       rep.Risk.Mean,
				StdRisk:       rep.Risk.Std,
				Anomalies:     rep.Anomalies,
			}
			log.Debug().
				Float64("contamination", j.contamination).
				Int("trees", j.trees).
				Float64("anomaly_rate", rep.AnomalyRate).
				Msg("tuning run done")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("tune: %w", err)
	}

	sort.SliceStable(results, func(a, b int) bool {
		return math.Abs(results[a].AnomalyRate-results[a].Contamination) <
			math.Abs(results[b].AnomalyRate-results[b].Contamination)
	})
	return results, nil
}
