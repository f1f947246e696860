package sgm

import (
	"log/slog"
	"sync"
)

// BatchEngine is the algorithmic reference: it materializes the full
// matching-cost volume, sweeps each active direction over the whole frame,
// then sums and selects per pixel. Directions run concurrently since each
// only reads the shared cost volume and writes its own aggregated volume.
type BatchEngine struct {
	cfg Config
}

// NewBatchEngine validates cfg and returns a batch engine.
func NewBatchEngine(cfg Config) (*BatchEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &BatchEngine{cfg: cfg}, nil
}

// Config returns the engine configuration.
func (e *BatchEngine) Config() Config {
	return e.cfg
}

// Compute runs the full batch pipeline over one frame.
func (e *BatchEngine) Compute(left, right []float32) (*DisparityMap, error) {
	cfg := e.cfg
	if err := checkPlanes(cfg, left, right); err != nil {
		return nil, err
	}

	cost := ComputeCostVolume(cfg, left, right)
	dirs := cfg.Directions()
	slog.Debug("batch aggregation start",
		"width", cfg.Width, "height", cfg.Height, "maxDisp", cfg.MaxDisp, "paths", len(dirs))

	aggregated := make([]*CostVolume, len(dirs))
	var wg sync.WaitGroup
	for i, dir := range dirs {
		aggregated[i] = NewCostVolume(cfg.Width, cfg.Height, cfg.MaxDisp)
		wg.Add(1)
		go func(vol *CostVolume, dir Direction) {
			defer wg.Done()
			dy, dx := dir.Vector()
			aggregatePath(cfg, cost, vol, dy, dx)
		}(aggregated[i], dir)
	}
	wg.Wait()

	out := NewDisparityMap(cfg.Width, cfg.Height)
	sum := make([]float32, cfg.MaxDisp)
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			for d := range sum {
				sum[d] = 0
			}
			for _, vol := range aggregated {
				sumInto(sum, vol.Slice(x, y))
			}
			out.Set(x, y, selectDisparity(sum))
		}
	}
	return out, nil
}
