package evo

import (
	"context"
	"fmt"
	"sync/atomic"

	"cmlsim/internal/model"
)

// RestartProgressFunc observes cumulative progress across all restarts.
// stepsDone counts scored generations over the whole run.
type RestartProgressFunc func(restart, restarts, stepsDone, totalSteps int, best model.GenerationBest)

// RestartController runs the GA several times from independent random
// populations and keeps the single best outcome. Restarts execute
// sequentially and share nothing but the cumulative step counter.
type RestartController struct {
	cfg      Config
	restarts int
	progress RestartProgressFunc

	steps atomic.Int64
}

func NewRestartController(cfg Config, restarts int, progress RestartProgressFunc) (*RestartController, error) {
	if restarts <= 0 {
		return nil, fmt.Errorf("restarts must be > 0")
	}
	// Validate the base configuration up front rather than on restart 1.
	if _, err := NewOptimizer(cfg); err != nil {
		return nil, err
	}
	return &RestartController{cfg: cfg, restarts: restarts, progress: progress}, nil
}

// Run executes all restarts and returns the best completed result ranked by
// re-evaluated final fitness. The boolean reports whether any restart
// completed; when the run is cancelled before that, no result is emitted.
func (c *RestartController) Run(ctx context.Context) (Result, bool, error) {
	totalSteps := c.restarts * c.cfg.Generations

	var best Result
	completed := 0

	for r := 0; r < c.restarts; r++ {
		if stopRequested(ctx, c.cfg.KeepRunning) {
			break
		}

		cfg := c.cfg
		cfg.Seed = c.cfg.Seed + uint64(r)
		restart := r
		cfg.Progress = func(generation, total int, genBest model.GenerationBest) {
			done := int(c.steps.Add(1))
			if c.progress != nil {
				c.progress(restart, c.restarts, done, totalSteps, genBest)
			}
		}

		optimizer, err := NewOptimizer(cfg)
		if err != nil {
			return Result{}, false, err
		}
		result, err := optimizer.Run(ctx)
		if err != nil {
			return Result{}, false, err
		}
		if !result.Completed {
			// Cancelled mid-restart: discard partial output.
			continue
		}

		// Re-score the winner so restarts are ranked on identical footing.
		result.BestFitness = c.cfg.Evaluator.Evaluate(result.Best, c.cfg.Data)
		if completed == 0 || result.BestFitness > best.BestFitness {
			best = result
		}
		completed++
	}

	if completed == 0 {
		return Result{}, false, nil
	}
	return best, true, nil
}

func stopRequested(ctx context.Context, keepRunning func() bool) bool {
	if ctx.Err() != nil {
		return true
	}
	return keepRunning != nil && !keepRunning()
}
