package sgm

// Winner-take-all selection: sum the aggregated costs of the active
// directions per disparity and pick the arg-min. Stateless per step.

// sumInto accumulates src into dst element-wise.
func sumInto(dst, src []float32) {
	for d := range dst {
		dst[d] += src[d]
	}
}

// selectDisparity returns the index of the minimum summed cost. Ties go to
// the lowest index: the comparison is strict, so a later equal value never
// displaces an earlier winner.
func selectDisparity(sum []float32) int {
	best := 0
	bestCost := sum[0]
	for d := 1; d < len(sum); d++ {
		if sum[d] < bestCost {
			bestCost = sum[d]
			best = d
		}
	}
	return best
}
