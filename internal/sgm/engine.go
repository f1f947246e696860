package sgm

import "fmt"

// Engine computes a disparity map from a rectified grayscale stereo pair.
// left and right are row-major intensity planes matching the configured
// geometry. Both implementations are deterministic and produce bit-identical
// output for the same configuration and input.
type Engine interface {
	// Compute runs one full frame and returns the disparity map.
	Compute(left, right []float32) (*DisparityMap, error)

	// Config returns the immutable configuration the engine was built with.
	Config() Config
}

// Engine modes accepted by NewEngine.
const (
	ModeBatch  = "batch"
	ModeStream = "stream"
)

// NewEngine builds an engine of the requested mode after validating cfg.
func NewEngine(mode string, cfg Config) (Engine, error) {
	switch mode {
	case ModeBatch:
		return NewBatchEngine(cfg)
	case ModeStream:
		return NewStreamEngine(cfg)
	default:
		return nil, fmt.Errorf("unknown engine mode %q, want %q or %q", mode, ModeBatch, ModeStream)
	}
}

// checkPlanes verifies the input planes match the configured geometry.
func checkPlanes(cfg Config, left, right []float32) error {
	if len(left) != cfg.NumPixels() || len(right) != cfg.NumPixels() {
		return fmt.Errorf("input planes have %d/%d samples, config %dx%d needs %d",
			len(left), len(right), cfg.Width, cfg.Height, cfg.NumPixels())
	}
	return nil
}
