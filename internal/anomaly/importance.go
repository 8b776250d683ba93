package anomaly

import (
	"math"
	"sort"
)

// FeatureImportance is the score sensitivity of one feature
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// FeatureImportance perturbs each standardized feature by one σ from the
// all-mean baseline and ranks features by the absolute score change.
func (m *Model) FeatureImportance(topN int) ([]FeatureImportance, error) {
	if !m.trained {
		return nil, ErrNotTrained
	}

	baseline := make([]float64, len(m.columns))
	base := m.scoreRaw(baseline)

	out := make([]FeatureImportance, len(m.columns))
	probe := make([]float64, len(m.columns))
	for j, name := range m.columns {
		probe[j] = 1
		out[j] = FeatureImportance{
			Feature:    name,
			Importance: math.Abs(m.scoreRaw(probe) - base),
		}
		probe[j] = 0
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Importance > out[j].Importance
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}
