package sgm

import "fmt"

// Direction identifies one of the 1-D aggregation paths. Each direction
// enforces smoothness along its own scan line; subsets of directions form
// the 1/2/4-path topologies.
type Direction int

const (
	// DirHorizontal aggregates left to right along each row.
	DirHorizontal Direction = iota
	// DirVertical aggregates top to bottom along each column.
	DirVertical
	// DirDiagDownRight aggregates along the down-right diagonal, starting
	// from the top and left frame edges.
	DirDiagDownRight
	// DirDiagDownLeft aggregates along the down-left diagonal, starting
	// from the top and right frame edges.
	DirDiagDownLeft
)

func (d Direction) String() string {
	switch d {
	case DirHorizontal:
		return "horizontal"
	case DirVertical:
		return "vertical"
	case DirDiagDownRight:
		return "diag-down-right"
	case DirDiagDownLeft:
		return "diag-down-left"
	default:
		return "unknown"
	}
}

// Vector returns the direction's step (dy, dx). The predecessor of pixel
// (x, y) along the path is (x-dx, y-dy).
func (d Direction) Vector() (dy, dx int) {
	switch d {
	case DirHorizontal:
		return 0, 1
	case DirVertical:
		return 1, 0
	case DirDiagDownRight:
		return 1, 1
	case DirDiagDownLeft:
		return 1, -1
	default:
		return 0, 0
	}
}

// SentinelCost is the matching cost assigned when the disparity candidate
// points outside the right image (x-d < 0). Large enough to lose every
// comparison against a real absolute-difference cost.
const SentinelCost float32 = 1000

// Config holds the frame geometry and algorithm parameters for one run.
// All fields are immutable for the duration of a frame.
type Config struct {
	// Width and Height give the frame geometry in pixels.
	Width  int
	Height int

	// MaxDisp is the number of disparity candidates D; emitted disparities
	// lie in [0, D-1].
	MaxDisp int

	// P1 penalizes a disparity change of exactly 1 between path neighbors,
	// P2 penalizes any larger jump.
	P1 float32
	P2 float32

	// Paths selects the aggregation topology: 1 (horizontal),
	// 2 (horizontal+vertical) or 4 (adds both diagonals).
	Paths int
}

// DefaultConfig returns the parameter set of the reference hardware build.
func DefaultConfig() Config {
	return Config{
		Width:   272,
		Height:  240,
		MaxDisp: 16,
		P1:      8,
		P2:      128,
		Paths:   4,
	}
}

// Validate reports the first configuration error found. A pipeline must
// refuse to start on any error here rather than produce undefined output.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid frame geometry %dx%d: dimensions must be positive", c.Width, c.Height)
	}
	if c.MaxDisp <= 0 {
		return fmt.Errorf("invalid disparity range %d: must be positive", c.MaxDisp)
	}
	if c.P1 < 0 || c.P2 < 0 {
		return fmt.Errorf("invalid penalties P1=%g P2=%g: must be non-negative", c.P1, c.P2)
	}
	switch c.Paths {
	case 1, 2, 4:
	default:
		return fmt.Errorf("invalid path count %d: must be 1, 2 or 4", c.Paths)
	}
	return nil
}

// Directions returns the active aggregation directions for the configured
// topology, in a fixed order so summation is deterministic.
func (c Config) Directions() []Direction {
	switch c.Paths {
	case 1:
		return []Direction{DirHorizontal}
	case 2:
		return []Direction{DirHorizontal, DirVertical}
	default:
		return []Direction{DirHorizontal, DirVertical, DirDiagDownRight, DirDiagDownLeft}
	}
}

// NumPixels returns the number of pixels in one frame.
func (c Config) NumPixels() int {
	return c.Width * c.Height
}
