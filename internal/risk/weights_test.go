package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightSets(t *testing.T) {
	tests := []struct {
		name string
		w    Weights
	}{
		{"model", ModelWeights()},
		{"fallback", FallbackWeights()},
		{"model redistributed", Redistribute(ModelWeights(), false)},
		{"fallback redistributed", Redistribute(FallbackWeights(), false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, 1.0, tt.w.Sum(), 1e-9)
			require.NoError(t, tt.w.Validate())
		})
	}
}

func TestRedistribute(t *testing.T) {
	base := FallbackWeights()

	got := Redistribute(base, false)
	assert.InDelta(t, 0.39, got.Volume, 1e-12)
	assert.InDelta(t, 0.46, got.Price, 1e-12)
	assert.InDelta(t, 0.15, got.Social, 1e-12)
	assert.Equal(t, 0.0, got.ML)

	assert.Equal(t, base, Redistribute(base, true))
	assert.Equal(t, FallbackWeights(), base, "input must not change")
}

func TestWeightsValidate(t *testing.T) {
	assert.Error(t, Weights{Volume: 0.5, Price: 0.4}.Validate())
	assert.Error(t, Weights{Volume: 1.2, Price: -0.2}.Validate())
}
