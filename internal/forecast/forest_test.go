package forecast

import (
	"math"
	"testing"
)

func TestFitForestStepFunction(t *testing.T) {
	// Two clearly separated clusters: x<5 → 10, x>=5 → 100.
	var x [][]float64
	var y []float64
	for i := 0; i < 10; i++ {
		x = append(x, []float64{float64(i)})
		if i < 5 {
			y = append(y, 10)
		} else {
			y = append(y, 100)
		}
	}

	f := FitForest(x, y, ForestConfig{Trees: 50})
	low := f.Predict([]float64{1})
	high := f.Predict([]float64{8})

	if math.Abs(low-10) > 20 {
		t.Errorf("expected prediction near 10 for the low cluster, got %v", low)
	}
	if math.Abs(high-100) > 20 {
		t.Errorf("expected prediction near 100 for the high cluster, got %v", high)
	}
	if high <= low {
		t.Errorf("expected the split learned: low=%v high=%v", low, high)
	}
}

func TestFitForestUniformTarget(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}}
	y := []float64{42, 42, 42}

	f := FitForest(x, y, ForestConfig{Trees: 5})
	if got := f.Predict([]float64{99}); got != 42 {
		t.Errorf("expected uniform target to predict 42 everywhere, got %v", got)
	}
}

func TestFitForestDeterministicSeed(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}, {5}, {6}}
	y := []float64{5, 9, 2, 8, 1, 7}

	a := FitForest(x, y, ForestConfig{Trees: 20, Seed: 3})
	b := FitForest(x, y, ForestConfig{Trees: 20, Seed: 3})
	for _, probe := range []float64{0.5, 2.5, 4.5, 10} {
		if pa, pb := a.Predict([]float64{probe}), b.Predict([]float64{probe}); pa != pb {
			t.Errorf("probe %v: same seed gave %v and %v", probe, pa, pb)
		}
	}
}

func TestForestConfigDefaults(t *testing.T) {
	cfg := ForestConfig{}.withDefaults()
	if cfg.Trees != 200 || cfg.MaxDepth != 6 || cfg.MinLeaf != 2 || cfg.Seed != 1 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
