// Package tune searches the P1/P2 penalty space against a ground-truth
// disparity map. The objective is the mean absolute disparity error of a
// full batch run with the candidate penalties.
package tune

import (
	"fmt"
	"log/slog"

	"github.com/stereopipe/sgm/internal/opt"
	"github.com/stereopipe/sgm/internal/sgm"
)

// Result holds the outcome of a penalty search.
type Result struct {
	// P1 and P2 are the best penalties found.
	P1 float32 `json:"p1"`
	P2 float32 `json:"p2"`

	// Score is the mean absolute disparity error at (P1, P2).
	Score float64 `json:"score"`

	// InitialScore is the error with the configured starting penalties.
	InitialScore float64 `json:"initialScore"`
}

// Penalties searches for the P1/P2 pair minimizing the mean absolute error
// against truth. cfg supplies geometry, disparity range and topology; its
// P1/P2 serve as the baseline for InitialScore. Candidates with P1 > P2 are
// rejected inside the objective so the optimizer never settles there.
func Penalties(cfg sgm.Config, left, right []float32, truth *sgm.DisparityMap, optimizer opt.Optimizer) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if truth.Width != cfg.Width || truth.Height != cfg.Height {
		return nil, fmt.Errorf("ground truth is %dx%d, config is %dx%d",
			truth.Width, truth.Height, cfg.Width, cfg.Height)
	}

	eval := func(params []float64) float64 {
		p1, p2 := float32(params[0]), float32(params[1])
		if p1 < 0 || p2 < 0 || p1 > p2 {
			return penaltyOrderCost
		}
		score, err := score(cfg, p1, p2, left, right, truth)
		if err != nil {
			return penaltyOrderCost
		}
		return score
	}

	initial, err := score(cfg, cfg.P1, cfg.P2, left, right, truth)
	if err != nil {
		return nil, err
	}
	slog.Info("penalty search start", "p1", cfg.P1, "p2", cfg.P2, "initial_score", initial)

	lower := []float64{0, 0}
	upper := []float64{penaltyUpperBound, penaltyUpperBound}
	best, bestScore := optimizer.Run(eval, lower, upper, 2)

	// The optimizer can only improve on the baseline; keep the baseline if
	// the search ended up worse.
	res := &Result{
		P1:           float32(best[0]),
		P2:           float32(best[1]),
		Score:        bestScore,
		InitialScore: initial,
	}
	if bestScore > initial {
		res.P1, res.P2, res.Score = cfg.P1, cfg.P2, initial
	}

	slog.Info("penalty search complete", "p1", res.P1, "p2", res.P2, "score", res.Score)
	return res, nil
}

const (
	// penaltyUpperBound caps the search space; beyond this the smoothness
	// term dominates every matching cost and the surface is flat.
	penaltyUpperBound = 512

	// penaltyOrderCost is returned for infeasible candidates (P1 > P2 or
	// out of range), far above any reachable disparity error.
	penaltyOrderCost = 1e9
)

// score runs a batch pass with the candidate penalties and returns the mean
// absolute disparity error against truth.
func score(cfg sgm.Config, p1, p2 float32, left, right []float32, truth *sgm.DisparityMap) (float64, error) {
	c := cfg
	c.P1, c.P2 = p1, p2
	engine, err := sgm.NewBatchEngine(c)
	if err != nil {
		return 0, err
	}
	out, err := engine.Compute(left, right)
	if err != nil {
		return 0, err
	}
	metrics, err := out.Compare(truth, 0)
	if err != nil {
		return 0, err
	}
	return metrics.MeanAbsError, nil
}
