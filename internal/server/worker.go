package server

import (
	"log/slog"
	"time"

	"github.com/quadsopt/quads/internal/experiment"
)

// executeRun runs one optimization in the background and records its
// outcome on the managed run. Failures are captured on the run, never
// panicked or dropped.
func executeRun(rm *RunManager, runID string) {
	run, exists := rm.GetRun(runID)
	if !exists {
		slog.Error("Run vanished before execution", "run_id", runID)
		return
	}

	rm.UpdateRun(runID, func(r *Run) {
		r.State = StateRunning
	})

	cfg := run.Request.ToConfig()
	slog.Info("Starting run", "run_id", runID,
		"function", cfg.Function, "sampler", cfg.Sampler, "dim", cfg.Dim)

	if err := cfg.Validate(); err != nil {
		markRunFailed(rm, runID, err)
		return
	}

	result, err := experiment.RunOnce(cfg, cfg.Seed)
	if err != nil {
		markRunFailed(rm, runID, err)
		return
	}

	minValue := 0.0
	if n := len(result.History.MinValue); n > 0 {
		minValue = result.History.MinValue[n-1]
	}

	now := time.Now()
	rm.UpdateRun(runID, func(r *Run) {
		r.State = StateCompleted
		r.Status = result.Status
		r.MinValue = minValue
		r.Iterations = result.Iterations
		r.TotalEvals = result.TotalEvals
		r.History = result.History
		r.EndTime = &now
	})

	slog.Info("Run complete", "run_id", runID,
		"status", result.Status,
		"iterations", result.Iterations,
		"total_evals", result.TotalEvals,
		"min_value", minValue,
	)
}

// markRunFailed records a run failure.
func markRunFailed(rm *RunManager, runID string, err error) {
	slog.Error("Run failed", "run_id", runID, "error", err)
	now := time.Now()
	rm.UpdateRun(runID, func(r *Run) {
		r.State = StateFailed
		r.Error = err.Error()
		r.EndTime = &now
	})
}
