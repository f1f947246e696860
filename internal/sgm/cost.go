package sgm

// Matching-cost unit: per-pixel, per-disparity absolute difference between
// the left intensity at x and the right intensity at x-d. Candidates that
// would read left of the right image's first column get SentinelCost so the
// aggregation stage treats them as strongly disfavored without any
// special-casing downstream.

// matchCost returns |left - rightRow[x-d]|, or SentinelCost when x-d < 0.
// rightRow is the current row of the right image.
func matchCost(left float32, rightRow []float32, x, d int) float32 {
	if x-d < 0 {
		return SentinelCost
	}
	diff := left - rightRow[x-d]
	if diff < 0 {
		diff = -diff
	}
	return diff
}

// costVector fills dst[d] for every disparity candidate of one pixel.
// len(dst) is the disparity range D.
func costVector(dst []float32, left float32, rightRow []float32, x int) {
	for d := range dst {
		dst[d] = matchCost(left, rightRow, x, d)
	}
}

// CostVolume is a dense height x width x D tensor of float32 cells, used by
// the batch engine for both the matching costs C(p,d) and the per-direction
// aggregated costs L_r(p,d). Row-major, disparity fastest.
type CostVolume struct {
	Width   int
	Height  int
	MaxDisp int
	Cells   []float32
}

// NewCostVolume allocates a zeroed volume for the given geometry.
func NewCostVolume(width, height, maxDisp int) *CostVolume {
	return &CostVolume{
		Width:   width,
		Height:  height,
		MaxDisp: maxDisp,
		Cells:   make([]float32, width*height*maxDisp),
	}
}

// At returns the cell for pixel (x, y) and disparity d.
func (v *CostVolume) At(x, y, d int) float32 {
	return v.Cells[(y*v.Width+x)*v.MaxDisp+d]
}

// Slice returns the disparity vector of pixel (x, y) as a view into the
// volume. Mutations write through.
func (v *CostVolume) Slice(x, y int) []float32 {
	base := (y*v.Width + x) * v.MaxDisp
	return v.Cells[base : base+v.MaxDisp]
}

// ComputeCostVolume populates the full matching-cost volume for a frame.
// left and right are row-major intensity planes of cfg geometry.
func ComputeCostVolume(cfg Config, left, right []float32) *CostVolume {
	vol := NewCostVolume(cfg.Width, cfg.Height, cfg.MaxDisp)
	for y := 0; y < cfg.Height; y++ {
		rightRow := right[y*cfg.Width : (y+1)*cfg.Width]
		for x := 0; x < cfg.Width; x++ {
			costVector(vol.Slice(x, y), left[y*cfg.Width+x], rightRow, x)
		}
	}
	return vol
}
