package anomaly

import (
	"context"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

const eulerGamma = 0.5772156649

// node is one split or leaf of an isolation tree
// Leaves have Left == -1; Size is the number of training samples that reached the node.
type node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Size      int     `json:"n"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

// forest is an isolation forest over standardized rows
// ⭐ SSOT: 이상치 점수 계산은 여기서만
type forest struct {
	Trees      []tree `json:"trees"`
	MaxSamples int    `json:"max_samples"`
}

// averagePathLength is the expected path length of an unsuccessful BST search over n points
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		fn := float64(n)
		return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
	}
}

// fitForest grows nTrees trees on psi rows each, sampled without replacement
// Every tree draws its own seed from the master source so the result does not
// depend on goroutine scheduling.
func fitForest(ctx context.Context, x [][]float64, nTrees, psi int, seed int64) (*forest, error) {
	master := rand.New(rand.NewSource(seed))
	seeds := make([]int64, nTrees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	maxDepth := int(math.Ceil(math.Log2(math.Max(float64(psi), 2))))
	f := &forest{
		Trees:      make([]tree, nTrees),
		MaxSamples: psi,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < nTrees; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seeds[i]))
			idx := rng.Perm(len(x))[:psi]
			b := &treeBuilder{x: x, rng: rng, maxDepth: maxDepth}
			b.grow(idx, 0)
			f.Trees[i] = tree{Nodes: b.nodes}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return f, nil
}

type treeBuilder struct {
	x        [][]float64
	rng      *rand.Rand
	maxDepth int
	nodes    []node
}

// grow appends the subtree for idx and returns its node index
func (b *treeBuilder) grow(idx []int, depth int) int {
	pos := len(b.nodes)
	b.nodes = append(b.nodes, node{Feature: -1, Left: -1, Right: -1, Size: len(idx)})

	if depth >= b.maxDepth || len(idx) <= 1 {
		return pos
	}

	feature, lo, hi, ok := b.pickFeature(idx)
	if !ok {
		return pos
	}

	threshold := lo + b.rng.Float64()*(hi-lo)
	if threshold >= hi {
		threshold = lo
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[pos].Feature = feature
	b.nodes[pos].Threshold = threshold
	b.nodes[pos].Left = l
	b.nodes[pos].Right = r
	return pos
}

// pickFeature draws features in random order until one is not constant on idx
func (b *treeBuilder) pickFeature(idx []int) (int, float64, float64, bool) {
	nfeat := len(b.x[idx[0]])
	for _, feature := range b.rng.Perm(nfeat) {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, i := range idx {
			v := b.x[i][feature]
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if hi > lo {
			return feature, lo, hi, true
		}
	}
	return 0, 0, 0, false
}

// pathLength is the depth at which row is isolated, plus the leaf size correction
func (t tree) pathLength(row []float64) float64 {
	i, depth := 0, 0
	for {
		n := t.Nodes[i]
		if n.Left < 0 {
			return float64(depth) + averagePathLength(n.Size)
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
		depth++
	}
}

// score returns -2^(-E[h(x)]/c(ψ)); lower is more anomalous, range [-1, -0]
func (f *forest) score(row []float64) float64 {
	total := 0.0
	for _, t := range f.Trees {
		total += t.pathLength(row)
	}
	mean := total / float64(len(f.Trees))
	return -math.Pow(2, -mean/averagePathLength(f.MaxSamples))
}
