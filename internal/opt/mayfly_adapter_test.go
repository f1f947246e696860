package opt

import (
	"math"
	"testing"
)

// penaltyBowl is a smooth quadratic over the penalty search box with its
// minimum at (8, 128), the reference penalty pair.
func penaltyBowl(x []float64) float64 {
	d1 := x[0] - 8
	d2 := x[1] - 128
	return d1*d1 + d2*d2
}

func TestMayflyAdapter_FindsMinimum(t *testing.T) {
	optimizer := NewMayfly(200, 20, 42)

	lower := []float64{0, 0}
	upper := []float64{512, 512}
	best, cost := optimizer.Run(penaltyBowl, lower, upper, 2)

	if len(best) != 2 {
		t.Fatalf("Expected 2 parameters, got %d", len(best))
	}
	// The box is wide, so only rough convergence is asserted.
	if cost > 25 {
		t.Errorf("Expected cost near 0, got %f", cost)
	}
	if math.Abs(best[0]-8) > 5 || math.Abs(best[1]-128) > 5 {
		t.Errorf("Best = (%f, %f), expected near (8, 128)", best[0], best[1])
	}
}

func TestMayflyAdapter_Deterministic(t *testing.T) {
	lower := []float64{0, 0}
	upper := []float64{512, 512}

	// Same seed, same result (popSize must be >=20 for mayfly v0.1.0).
	_, cost1 := NewMayfly(50, 20, 123).Run(penaltyBowl, lower, upper, 2)
	_, cost2 := NewMayfly(50, 20, 123).Run(penaltyBowl, lower, upper, 2)

	if cost1 != cost2 {
		t.Errorf("Non-deterministic: cost1=%f, cost2=%f", cost1, cost2)
	}
}
