package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sentinel/internal/contracts"
)

func missingTable() *contracts.FeatureTable {
	nan := math.NaN()
	return &contracts.FeatureTable{
		Columns: []string{"a", "b"},
		Rows: []contracts.FeatureVector{
			{Ticker: "X", Values: []float64{nan, nan}},
			{Ticker: "X", Values: []float64{1, nan}},
			{Ticker: "X", Values: []float64{nan, nan}},
			{Ticker: "X", Values: []float64{3, nan}},
			{Ticker: "Y", Values: []float64{nan, 10}},
			{Ticker: "Y", Values: []float64{20, math.Inf(1)}},
		},
	}
}

func values(t *contracts.FeatureTable, col int) []float64 {
	out := make([]float64, t.Len())
	for i, r := range t.Rows {
		out[i] = r.Values[col]
	}
	return out
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		policy MissingPolicy
		rows   int
		colA   []float64
		colB   []float64
	}{
		{
			name:   "forward fill per ticker",
			policy: PolicyForwardFill,
			rows:   6,
			colA:   []float64{1, 1, 1, 3, 20, 20},
			colB:   []float64{0, 0, 0, 0, 10, 10},
		},
		{
			name:   "median per ticker",
			policy: PolicyMedian,
			rows:   6,
			colA:   []float64{2, 1, 2, 3, 20, 20},
			colB:   []float64{0, 0, 0, 0, 10, 10},
		},
		{
			name:   "zero",
			policy: PolicyZero,
			rows:   6,
			colA:   []float64{0, 1, 0, 3, 0, 20},
			colB:   []float64{0, 0, 0, 0, 10, 0},
		},
		{
			name:   "drop",
			policy: PolicyDrop,
			rows:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := missingTable()
			got, filled := Resolve(in, tt.policy)

			require.Equal(t, tt.rows, got.Len())
			assert.Equal(t, 0, got.MissingCount())
			if tt.rows > 0 {
				assert.Equal(t, tt.colA, values(got, 0))
				assert.Equal(t, tt.colB, values(got, 1))
				assert.Positive(t, filled)
			}
			assert.Equal(t, 8, in.MissingCount(), "input must not be modified")
		})
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("median")
	require.NoError(t, err)
	assert.Equal(t, PolicyMedian, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyForwardFill, p)

	_, err = ParsePolicy("interpolate")
	assert.Error(t, err)
}
