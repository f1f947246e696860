package sgm

import (
	"math/rand"
	"testing"
)

// randomPlane fills a width*height intensity plane with deterministic
// pseudo-random values in [0, 255).
func randomPlane(width, height int, seed int64) []float32 {
	rng := rand.New(rand.NewSource(seed))
	p := make([]float32, width*height)
	for i := range p {
		p[i] = float32(rng.Intn(256))
	}
	return p
}

func TestMatchCost_KnownValues(t *testing.T) {
	rightRow := []float32{10, 50, 30, 90}

	cases := []struct {
		name     string
		left     float32
		x, d     int
		expected float32
	}{
		{"zero diff", 30, 2, 0, 0},
		{"positive diff", 100, 2, 0, 70},
		{"negative diff", 5, 2, 0, 25},
		{"one step left", 100, 2, 1, 50},
		{"full reach", 90, 3, 3, 80},
		{"out of range", 100, 2, 3, SentinelCost},
		{"first column nonzero d", 100, 0, 1, SentinelCost},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := matchCost(tc.left, rightRow, tc.x, tc.d)
			if got != tc.expected {
				t.Errorf("matchCost(%g, x=%d, d=%d) = %g, want %g",
					tc.left, tc.x, tc.d, got, tc.expected)
			}
		})
	}
}

func TestCostVector_SentinelRegion(t *testing.T) {
	rightRow := []float32{10, 20, 30, 40, 50, 60}
	dst := make([]float32, 4)

	// At x=2, candidates d=3 read x-d=-1 and must be sentinel
	costVector(dst, 33, rightRow, 2)

	expected := []float32{3, 13, 23, SentinelCost}
	for d, want := range expected {
		if dst[d] != want {
			t.Errorf("cost[%d] = %g, want %g", d, dst[d], want)
		}
	}
}

func TestComputeCostVolume_MatchesPerPixel(t *testing.T) {
	cfg := Config{Width: 7, Height: 5, MaxDisp: 4, P1: 8, P2: 128, Paths: 1}
	left := randomPlane(cfg.Width, cfg.Height, 1)
	right := randomPlane(cfg.Width, cfg.Height, 2)

	vol := ComputeCostVolume(cfg, left, right)

	for y := 0; y < cfg.Height; y++ {
		rightRow := right[y*cfg.Width : (y+1)*cfg.Width]
		for x := 0; x < cfg.Width; x++ {
			for d := 0; d < cfg.MaxDisp; d++ {
				want := matchCost(left[y*cfg.Width+x], rightRow, x, d)
				if got := vol.At(x, y, d); got != want {
					t.Fatalf("volume (%d,%d,%d) = %g, want %g", x, y, d, got, want)
				}
			}
		}
	}
}

func TestCostVolume_SliceIsView(t *testing.T) {
	vol := NewCostVolume(3, 2, 4)
	vol.Slice(1, 1)[2] = 42

	if got := vol.At(1, 1, 2); got != 42 {
		t.Errorf("At(1,1,2) = %g after Slice write, want 42", got)
	}
}
