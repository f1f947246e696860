package sgm

// Path aggregation: the SGM recursion
//
//	L_r(p,d) = C(p,d) + min( L_r(p-r,d),
//	                         L_r(p-r,d-1)+P1,
//	                         L_r(p-r,d+1)+P1,
//	                         min_k L_r(p-r,k)+P2 ) - min_k L_r(p-r,k)
//
// The trailing subtraction keeps values bounded over arbitrarily long paths:
// without it, costs grow without limit along a scanline. At a path start
// (predecessor outside the frame) the recursion degenerates to the raw
// matching cost.
//
// aggregateInto is shared by the batch and streaming engines so both perform
// the identical float operations in the identical order, which is what makes
// their outputs bit-for-bit equal.

// aggregateInto applies one recursion step: dst[d] = C(p,d) + transition(d)
// - prevMin, where prev is L_r(p-r, .) and prevMin its minimum. The d-1 and
// d+1 candidates are omitted at the ends of the disparity range.
func aggregateInto(dst, cost, prev []float32, prevMin, p1, p2 float32) {
	maxDisp := len(dst)
	jump := prevMin + p2
	for d := 0; d < maxDisp; d++ {
		best := prev[d]
		if d > 0 {
			if c := prev[d-1] + p1; c < best {
				best = c
			}
		}
		if d < maxDisp-1 {
			if c := prev[d+1] + p1; c < best {
				best = c
			}
		}
		if jump < best {
			best = jump
		}
		dst[d] = cost[d] + (best - prevMin)
	}
}

// vecMin returns the minimum of a non-empty cost vector.
func vecMin(v []float32) float32 {
	m := v[0]
	for _, c := range v[1:] {
		if c < m {
			m = c
		}
	}
	return m
}

// aggregatePath sweeps the whole frame along direction (dy, dx), filling out
// with L_r. The scan order follows the direction so every predecessor is
// visited before its successor; pixels whose predecessor lies outside the
// frame are path starts and copy the raw matching cost.
func aggregatePath(cfg Config, cost, out *CostVolume, dy, dx int) {
	yStart, yEnd, yStep := 0, cfg.Height, 1
	if dy < 0 {
		yStart, yEnd, yStep = cfg.Height-1, -1, -1
	}
	xStart, xEnd, xStep := 0, cfg.Width, 1
	if dx < 0 {
		xStart, xEnd, xStep = cfg.Width-1, -1, -1
	}

	for y := yStart; y != yEnd; y += yStep {
		for x := xStart; x != xEnd; x += xStep {
			prevY, prevX := y-dy, x-dx
			dst := out.Slice(x, y)
			if prevY < 0 || prevY >= cfg.Height || prevX < 0 || prevX >= cfg.Width {
				copy(dst, cost.Slice(x, y))
				continue
			}
			prev := out.Slice(prevX, prevY)
			aggregateInto(dst, cost.Slice(x, y), prev, vecMin(prev), cfg.P1, cfg.P2)
		}
	}
}
