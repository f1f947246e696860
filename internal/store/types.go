package store

import (
	"time"

	"github.com/stereopipe/sgm/internal/sgm"
)

// RunConfig holds the configuration a matching run was started with.
// Geometry is recorded after any input scaling.
type RunConfig struct {
	LeftPath  string  `json:"leftPath"`
	RightPath string  `json:"rightPath"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	MaxDisp   int     `json:"maxDisp"`
	P1        float32 `json:"p1"`
	P2        float32 `json:"p2"`
	Paths     int     `json:"paths"`
	Engine    string  `json:"engine"` // stream or batch
	Scale     float64 `json:"scale,omitempty"`
}

// RunRecord is the persisted outcome of one matching run. The disparity
// data itself is stored alongside as disparity.png; the record carries
// everything needed to reproduce and compare the run.
type RunRecord struct {
	// RunID is the unique identifier for this run.
	RunID string `json:"runId"`

	// Config is the full configuration of the run.
	Config RunConfig `json:"config"`

	// Metrics holds comparison metrics against a reference map, when one
	// was supplied.
	Metrics *sgm.Metrics `json:"metrics,omitempty"`

	// ElapsedMS is the wall-clock matching time in milliseconds.
	ElapsedMS int64 `json:"elapsedMs"`

	// Timestamp records when the run completed.
	Timestamp time.Time `json:"timestamp"`

	// Disparity is the raw disparity stream in raster order.
	Disparity []int `json:"disparity,omitempty"`
}

// RunInfo contains metadata about a run without the full disparity data.
// Used for listing runs efficiently.
type RunInfo struct {
	RunID     string    `json:"runId"`
	Engine    string    `json:"engine"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	MaxDisp   int       `json:"maxDisp"`
	Paths     int       `json:"paths"`
	ElapsedMS int64     `json:"elapsedMs"`
	Timestamp time.Time `json:"timestamp"`
}

// Info extracts listing metadata from a full record.
func (r *RunRecord) Info() RunInfo {
	return RunInfo{
		RunID:     r.RunID,
		Engine:    r.Config.Engine,
		Width:     r.Config.Width,
		Height:    r.Config.Height,
		MaxDisp:   r.Config.MaxDisp,
		Paths:     r.Config.Paths,
		ElapsedMS: r.ElapsedMS,
		Timestamp: r.Timestamp,
	}
}

// Map reconstructs the disparity map from the record.
// Returns nil if the record was saved without disparity data.
func (r *RunRecord) Map() *sgm.DisparityMap {
	if r.Disparity == nil {
		return nil
	}
	return &sgm.DisparityMap{
		Width:  r.Config.Width,
		Height: r.Config.Height,
		Data:   r.Disparity,
	}
}
