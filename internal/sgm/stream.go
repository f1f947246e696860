package sgm

import "log/slog"

// StreamEngine is the hardware-realistic realization: a single monotonic
// raster pass, one pixel per Step, with memory bounded to one line buffer
// per vertical/diagonal direction instead of a full-frame cost volume.
//
// The scan controller owns the (x, y) position and derives every path-start
// condition from it, so the engine restarts cleanly across frames with no
// external reset: the first row and first column legitimately start every
// path fresh, which also makes any stale buffer content unreachable.

// PixelSample is one raster-order input step: the left and right intensity
// at the controller's current position. Valid is false during stalls; an
// invalid sample leaves all state untouched.
type PixelSample struct {
	Left  float32
	Right float32
	Valid bool
}

// DisparityResult is one output step of the streaming pipeline.
type DisparityResult struct {
	X         int
	Y         int
	Disparity int
	Valid     bool
}

// pathState holds the rolling memory of one aggregation direction.
//
// The horizontal path only needs the previous step's vector (register
// class, O(D)). The vertical and diagonal paths need the row above at some
// column, so they carry a width x D line buffer. The down-right diagonal
// additionally carries a one-step delay register: it reads column x-1 of
// the row above, which the line buffer overwrote one step ago, so the value
// is stashed before each overwrite.
type pathState struct {
	dir     Direction
	width   int
	p1, p2  float32

	reg    []float32 // horizontal: L_r at (x-1, y)
	regMin float32

	lineCost [][]float32 // per column: L_r at (col, y-1), overwritten in place
	lineMin  []float32

	carry    []float32 // down-right diagonal: L_r at (x-1, y-1)
	carryMin float32
}

func newPathState(cfg Config, dir Direction) *pathState {
	p := &pathState{
		dir:   dir,
		width: cfg.Width,
		p1:    cfg.P1,
		p2:    cfg.P2,
	}
	switch dir {
	case DirHorizontal:
		p.reg = make([]float32, cfg.MaxDisp)
	default:
		p.lineCost = make([][]float32, cfg.Width)
		for i := range p.lineCost {
			p.lineCost[i] = make([]float32, cfg.MaxDisp)
		}
		p.lineMin = make([]float32, cfg.Width)
		if dir == DirDiagDownRight {
			p.carry = make([]float32, cfg.MaxDisp)
		}
	}
	return p
}

// step computes this direction's aggregated vector for the pixel at (x, y)
// into dst and publishes the state the successor pixel will read.
func (p *pathState) step(x, y int, cost, dst []float32) {
	switch p.dir {
	case DirHorizontal:
		if x == 0 {
			copy(dst, cost)
		} else {
			aggregateInto(dst, cost, p.reg, p.regMin, p.p1, p.p2)
		}
		copy(p.reg, dst)
		p.regMin = vecMin(dst)

	case DirVertical:
		if y == 0 {
			copy(dst, cost)
		} else {
			aggregateInto(dst, cost, p.lineCost[x], p.lineMin[x], p.p1, p.p2)
		}
		copy(p.lineCost[x], dst)
		p.lineMin[x] = vecMin(dst)

	case DirDiagDownRight:
		if y == 0 || x == 0 {
			copy(dst, cost)
		} else {
			aggregateInto(dst, cost, p.carry, p.carryMin, p.p1, p.p2)
		}
		// Stash the row-above value at this column before overwriting it;
		// the next step reads it as its (x-1, y-1) predecessor.
		copy(p.carry, p.lineCost[x])
		p.carryMin = p.lineMin[x]
		copy(p.lineCost[x], dst)
		p.lineMin[x] = vecMin(dst)

	case DirDiagDownLeft:
		if y == 0 || x == p.width-1 {
			copy(dst, cost)
		} else {
			// Column x+1 of the row above has not been overwritten yet in
			// this row's pass.
			aggregateInto(dst, cost, p.lineCost[x+1], p.lineMin[x+1], p.p1, p.p2)
		}
		copy(p.lineCost[x], dst)
		p.lineMin[x] = vecMin(dst)
	}
}

// StreamEngine drives the per-pixel pipeline. Not safe for concurrent use;
// each engine instance owns its path state exclusively.
type StreamEngine struct {
	cfg Config

	x, y int

	rightRow []float32 // right intensities of the current row, filled as samples arrive
	costBuf  []float32
	aggBuf   []float32
	sumBuf   []float32
	paths    []*pathState
}

// NewStreamEngine validates cfg and returns a streaming engine positioned
// at the top-left pixel.
func NewStreamEngine(cfg Config) (*StreamEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &StreamEngine{
		cfg:      cfg,
		rightRow: make([]float32, cfg.Width),
		costBuf:  make([]float32, cfg.MaxDisp),
		aggBuf:   make([]float32, cfg.MaxDisp),
		sumBuf:   make([]float32, cfg.MaxDisp),
	}
	for _, dir := range cfg.Directions() {
		e.paths = append(e.paths, newPathState(cfg, dir))
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *StreamEngine) Config() Config {
	return e.cfg
}

// Position returns the raster position the next valid sample will be
// attributed to.
func (e *StreamEngine) Position() (x, y int) {
	return e.x, e.y
}

// Step consumes one pixel sample and produces one disparity result. An
// invalid sample stalls the pipeline in place: nothing advances, nothing is
// written, and the returned result is invalid.
func (e *StreamEngine) Step(s PixelSample) DisparityResult {
	if !s.Valid {
		return DisparityResult{Valid: false}
	}

	x, y := e.x, e.y
	e.rightRow[x] = s.Right
	costVector(e.costBuf, s.Left, e.rightRow, x)

	for d := range e.sumBuf {
		e.sumBuf[d] = 0
	}
	for _, p := range e.paths {
		p.step(x, y, e.costBuf, e.aggBuf)
		sumInto(e.sumBuf, e.aggBuf)
	}

	e.advance()
	return DisparityResult{
		X:         x,
		Y:         y,
		Disparity: selectDisparity(e.sumBuf),
		Valid:     true,
	}
}

// advance moves the scan position one pixel in raster order, wrapping to
// (0, 0) after the last pixel of the frame.
func (e *StreamEngine) advance() {
	e.x++
	if e.x == e.cfg.Width {
		e.x = 0
		e.y++
		if e.y == e.cfg.Height {
			e.y = 0
		}
	}
}

// Compute runs one full frame through Step in raster order.
func (e *StreamEngine) Compute(left, right []float32) (*DisparityMap, error) {
	return e.ComputeProgress(left, right, nil)
}

// ComputeProgress runs one full frame, invoking onRow after each completed
// row when non-nil. Used by callers that report progress or trace row
// timings.
func (e *StreamEngine) ComputeProgress(left, right []float32, onRow func(y int)) (*DisparityMap, error) {
	cfg := e.cfg
	if err := checkPlanes(cfg, left, right); err != nil {
		return nil, err
	}
	slog.Debug("stream pass start",
		"width", cfg.Width, "height", cfg.Height, "maxDisp", cfg.MaxDisp, "paths", len(e.paths))

	out := NewDisparityMap(cfg.Width, cfg.Height)
	for y := 0; y < cfg.Height; y++ {
		row := y * cfg.Width
		for x := 0; x < cfg.Width; x++ {
			r := e.Step(PixelSample{Left: left[row+x], Right: right[row+x], Valid: true})
			out.Set(r.X, r.Y, r.Disparity)
		}
		if onRow != nil {
			onRow(y)
		}
	}
	return out, nil
}
