package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stereopipe/sgm/internal/imageio"
	"github.com/stereopipe/sgm/internal/sgm"
	"github.com/stereopipe/sgm/internal/store"
)

// progressRows is how many completed rows accumulate between SSE events.
const progressRows = 8

// runJob executes a matching job in the background. If runStore is not nil
// the completed run is persisted under the job's ID.
func runJob(ctx context.Context, jm *JobManager, runStore store.Store, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	}); err != nil {
		return err
	}

	slog.Info("Starting job", "job_id", jobID,
		"left", job.Config.LeftPath, "right", job.Config.RightPath)

	left, right, err := loadPair(job.Config)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	cfg := sgm.Config{
		Width:   left.Width,
		Height:  left.Height,
		MaxDisp: job.Config.MaxDisp,
		P1:      job.Config.P1,
		P2:      job.Config.P2,
		Paths:   job.Config.Paths,
	}
	engine, err := sgm.NewEngine(job.Config.Engine, cfg)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	jm.UpdateJob(jobID, func(j *Job) {
		j.Width = cfg.Width
		j.Height = cfg.Height
	})

	start := time.Now()
	result, err := computeWithProgress(ctx, jm, jobID, engine, left.Pix, right.Pix)
	if err != nil {
		if ctx.Err() != nil {
			markJobCancelled(jm, jobID)
			return nil
		}
		markJobFailed(jm, jobID, err)
		return err
	}
	elapsed := time.Since(start)

	runID := jobID
	if runStore != nil {
		record := &store.RunRecord{
			RunID: runID,
			Config: store.RunConfig{
				LeftPath:  job.Config.LeftPath,
				RightPath: job.Config.RightPath,
				Width:     cfg.Width,
				Height:    cfg.Height,
				MaxDisp:   cfg.MaxDisp,
				P1:        cfg.P1,
				P2:        cfg.P2,
				Paths:     cfg.Paths,
				Engine:    job.Config.Engine,
				Scale:     job.Config.Scale,
			},
			ElapsedMS: elapsed.Milliseconds(),
			Timestamp: time.Now(),
			Disparity: result.Data,
		}
		if err := runStore.SaveRun(runID, record); err != nil {
			markJobFailed(jm, jobID, fmt.Errorf("failed to persist run: %w", err))
			return err
		}
	}

	now := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.RowsDone = cfg.Height
		j.RunID = runID
		j.EndTime = &now
	})
	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:     jobID,
		State:     StateCompleted,
		RowsDone:  cfg.Height,
		TotalRows: cfg.Height,
		Timestamp: now,
	})

	slog.Info("Job completed", "job_id", jobID, "elapsed", elapsed,
		"pixels", cfg.NumPixels())
	return nil
}

// loadPair loads and pre-scales the stereo pair, verifying matching
// geometry.
func loadPair(config JobConfig) (left, right *imageio.Plane, err error) {
	left, err = imageio.LoadPlane(config.LeftPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load left image: %w", err)
	}
	right, err = imageio.LoadPlane(config.RightPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load right image: %w", err)
	}
	if config.Scale != 0 && config.Scale != 1 {
		left = imageio.Scale(left, config.Scale)
		right = imageio.Scale(right, config.Scale)
	}
	if left.Width != right.Width || left.Height != right.Height {
		return nil, nil, fmt.Errorf("stereo pair geometry mismatch: %dx%d vs %dx%d",
			left.Width, left.Height, right.Width, right.Height)
	}
	return left, right, nil
}

// computeWithProgress runs the engine, broadcasting row progress for
// streaming engines and checking for cancellation between rows.
func computeWithProgress(ctx context.Context, jm *JobManager, jobID string, engine sgm.Engine, left, right []float32) (*sgm.DisparityMap, error) {
	stream, ok := engine.(*sgm.StreamEngine)
	if !ok {
		// Batch engine has no per-row hook; it runs to completion.
		return engine.Compute(left, right)
	}

	total := engine.Config().Height
	var rowErr error
	result, err := stream.ComputeProgress(left, right, func(y int) {
		if ctx.Err() != nil {
			rowErr = ctx.Err()
			return
		}
		if (y+1)%progressRows != 0 && y+1 != total {
			return
		}
		jm.UpdateJob(jobID, func(j *Job) {
			j.RowsDone = y + 1
		})
		jm.broadcaster.Broadcast(ProgressEvent{
			JobID:     jobID,
			State:     StateRunning,
			RowsDone:  y + 1,
			TotalRows: total,
			Timestamp: time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}
	if rowErr != nil {
		return nil, rowErr
	}
	return result, nil
}

// markJobFailed updates a job to the failed state and broadcasts it.
func markJobFailed(jm *JobManager, jobID string, err error) {
	now := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &now
	})
	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:     jobID,
		State:     StateFailed,
		Timestamp: now,
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled updates a job to the cancelled state.
func markJobCancelled(jm *JobManager, jobID string) {
	now := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &now
	})
	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:     jobID,
		State:     StateCancelled,
		Timestamp: now,
	})
	slog.Info("Job cancelled", "job_id", jobID)
}
