package forecast

import (
	"math"
	"math/rand"
	"sort"
)

// TreeNode is one node of a regression tree. Serializable so a fitted
// forest can be persisted as a model artifact.
type TreeNode struct {
	Leaf      bool      `json:"leaf"`
	Value     float64   `json:"value,omitempty"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
}

// Forest is an ensemble of CART regression trees fit on bootstrap
// samples; predictions average over trees. This is the "nonlinear-fit"
// regressor behind the cost forecast, refit from scratch per call.
type Forest struct {
	Trees []*TreeNode `json:"trees"`
}

// ForestConfig controls fitting. Zero values take the defaults.
type ForestConfig struct {
	Trees    int   // number of trees (default 200)
	MaxDepth int   // maximum tree depth (default 6)
	MinLeaf  int   // minimum samples per leaf (default 2)
	Seed     int64 // bootstrap sampling seed (default 1)
}

func (c ForestConfig) withDefaults() ForestConfig {
	if c.Trees <= 0 {
		c.Trees = 200
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 6
	}
	if c.MinLeaf <= 0 {
		c.MinLeaf = 2
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
	return c
}

// FitForest fits an ensemble on rows x (one feature vector per sample)
// with targets y. Callers guarantee len(x) == len(y) > 0 and uniform
// feature length.
func FitForest(x [][]float64, y []float64, cfg ForestConfig) *Forest {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed))

	f := &Forest{Trees: make([]*TreeNode, 0, cfg.Trees)}
	for t := 0; t < cfg.Trees; t++ {
		idx := make([]int, len(x))
		for i := range idx {
			idx[i] = rng.Intn(len(x))
		}
		f.Trees = append(f.Trees, buildTree(x, y, idx, 0, cfg))
	}
	return f
}

// Predict returns the ensemble mean for one feature vector.
func (f *Forest) Predict(features []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range f.Trees {
		sum += t.predict(features)
	}
	return sum / float64(len(f.Trees))
}

func (n *TreeNode) predict(features []float64) float64 {
	for !n.Leaf {
		if n.Feature < len(features) && features[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

func buildTree(x [][]float64, y []float64, idx []int, depth int, cfg ForestConfig) *TreeNode {
	if depth >= cfg.MaxDepth || len(idx) < 2*cfg.MinLeaf || uniform(y, idx) {
		return &TreeNode{Leaf: true, Value: meanAt(y, idx)}
	}

	feature, threshold, ok := bestSplit(x, y, idx, cfg.MinLeaf)
	if !ok {
		return &TreeNode{Leaf: true, Value: meanAt(y, idx)}
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < cfg.MinLeaf || len(right) < cfg.MinLeaf {
		return &TreeNode{Leaf: true, Value: meanAt(y, idx)}
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildTree(x, y, left, depth+1, cfg),
		Right:     buildTree(x, y, right, depth+1, cfg),
	}
}

// bestSplit scans every feature for the threshold minimizing the summed
// squared error of the two halves, via prefix sums over the sorted
// sample.
func bestSplit(x [][]float64, y []float64, idx []int, minLeaf int) (feature int, threshold float64, ok bool) {
	if len(idx) == 0 {
		return 0, 0, false
	}
	nFeatures := len(x[idx[0]])
	best := math.Inf(1)

	sorted := make([]int, len(idx))
	for f := 0; f < nFeatures; f++ {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, b int) bool { return x[sorted[a]][f] < x[sorted[b]][f] })

		n := len(sorted)
		var sumL, sqL float64
		var sumR, sqR float64
		for _, i := range sorted {
			sumR += y[i]
			sqR += y[i] * y[i]
		}

		for s := 0; s < n-1; s++ {
			v := y[sorted[s]]
			sumL += v
			sqL += v * v
			sumR -= v
			sqR -= v * v

			// can't split between identical feature values
			if x[sorted[s]][f] == x[sorted[s+1]][f] {
				continue
			}
			nl, nr := s+1, n-s-1
			if nl < minLeaf || nr < minLeaf {
				continue
			}

			sse := (sqL - sumL*sumL/float64(nl)) + (sqR - sumR*sumR/float64(nr))
			if sse < best {
				best = sse
				feature = f
				threshold = (x[sorted[s]][f] + x[sorted[s+1]][f]) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func uniform(y []float64, idx []int) bool {
	for _, i := range idx[1:] {
		if y[i] != y[idx[0]] {
			return false
		}
	}
	return true
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}
