package risk

import (
	"fmt"
	"math"
)

// Weights are the fusion weights of the four sub-scores
type Weights struct {
	Volume float64 `yaml:"volume" json:"volume"`
	Price  float64 `yaml:"price" json:"price"`
	Social float64 `yaml:"social" json:"social"`
	ML     float64 `yaml:"ml" json:"ml"`
}

// ModelWeights is used when an outlier model is attached
func ModelWeights() Weights {
	return Weights{Volume: 0.30, Price: 0.35, Social: 0.10, ML: 0.25}
}

// FallbackWeights is used when no outlier model is attached
func FallbackWeights() Weights {
	return Weights{Volume: 0.35, Price: 0.40, Social: 0.15, ML: 0.10}
}

// Sum returns the total weight
func (w Weights) Sum() float64 {
	return w.Volume + w.Price + w.Social + w.ML
}

// Validate checks that weights are non-negative and sum to 1
func (w Weights) Validate() error {
	named := []struct {
		name string
		v    float64
	}{{"volume", w.Volume}, {"price", w.Price}, {"social", w.Social}, {"ml", w.ML}}
	for _, n := range named {
		if n.v < 0 {
			return fmt.Errorf("weight %s must be >= 0, got %v", n.name, n.v)
		}
	}
	if math.Abs(w.Sum()-1) > 1e-9 {
		return fmt.Errorf("weights must sum to 1, got %v", w.Sum())
	}
	return nil
}

// Redistribute moves the ML weight to volume (40%) and price (60%) when the
// model produced no score for this call. The input is not modified.
func Redistribute(w Weights, mlAvailable bool) Weights {
	if mlAvailable {
		return w
	}
	return Weights{
		Volume: w.Volume + w.ML*0.4,
		Price:  w.Price + w.ML*0.6,
		Social: w.Social,
		ML:     0,
	}
}
