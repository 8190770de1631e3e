package quads

import (
	"errors"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Status is the terminal outcome of an optimization run.
type Status string

const (
	// StatusConverged: the best accepted point came within TerminateEps of
	// the reporting target, or the step size fell below TerminateStepSize.
	StatusConverged Status = "converged"

	// StatusTimedOut: a sampler exhausted its evaluation budget. History up
	// to the prior iteration is preserved; this is a recorded outcome, not
	// an error.
	StatusTimedOut Status = "timed_out"

	// StatusExhausted: the maximum iteration count was reached without
	// meeting either convergence condition.
	StatusExhausted Status = "exhausted"
)

// History holds the per-iteration record sequences, one entry appended per
// completed iteration. Params additionally contains the initial state at
// index 0. The loop owns these append-only; callers read them after the run.
type History struct {
	MinValue   []float64 `json:"minValue"`   // running minimum objective value
	Evals      []float64 `json:"evals"`      // evaluation cost of each iteration
	DistTarget []float64 `json:"distTarget"` // best accepted point's distance to target
	Params     []Param   `json:"params"`     // distribution state after each update
}

// Result is the terminal shape returned for every outcome.
type Result struct {
	Final      Param   `json:"final"`
	Status     Status  `json:"status"`
	Iterations int     `json:"iterations"`
	TotalEvals float64 `json:"totalEvals"`
	History    History `json:"history"`
}

// LoopConfig holds the run-level termination and reporting settings.
type LoopConfig struct {
	MaxIter           int
	NSamples          int       // accepted samples requested per iteration
	TerminateEps      float64   // convergence distance to the target point
	TerminateStepSize float64   // convergence floor for the step size
	Target            []float64 // reporting target; never steers the search
}

// Loop alternates sampling and distribution updates until a terminal state
// is reached. Single-threaded and synchronous; independent runs share no
// state and may execute concurrently.
type Loop struct {
	sampler Sampler
	updater Updater
	hp      HyperParam
	cfg     LoopConfig
}

// NewLoop wires a sampler and an updater into an optimization loop.
func NewLoop(sampler Sampler, updater Updater, hp HyperParam, cfg LoopConfig) *Loop {
	return &Loop{
		sampler: sampler,
		updater: updater,
		hp:      hp,
		cfg:     cfg,
	}
}

// Run executes the loop from the given initial state. A sampler evaluation
// budget failure ends the run with StatusTimedOut and a nil error; any other
// failure is a real error.
func (l *Loop) Run(init Param) (*Result, error) {
	if err := init.Validate(); err != nil {
		return nil, err
	}

	param := init
	hist := History{Params: []Param{init.Clone()}}
	minVal := math.Inf(1)
	var totalEvals float64
	status := StatusExhausted
	iterations := 0

	for i := 0; i < l.cfg.MaxIter; i++ {
		batch, err := l.sampler.Sample(param, l.cfg.NSamples)
		if err != nil {
			if errors.Is(err, ErrEvalLimit) {
				slog.Info("Sampler budget exhausted, ending run",
					"iteration", i, "error", err)
				status = StatusTimedOut
				break
			}
			return nil, err
		}

		next, err := l.updater.Update(param, batch, i, l.hp)
		if err != nil {
			return nil, err
		}
		param = next
		iterations = i + 1

		minVal = math.Min(minVal, floats.Min(batch.Values))
		dist := distToTarget(batch.Points, l.cfg.Target)
		totalEvals += batch.Evals

		hist.MinValue = append(hist.MinValue, minVal)
		hist.Evals = append(hist.Evals, batch.Evals)
		hist.DistTarget = append(hist.DistTarget, dist)
		hist.Params = append(hist.Params, param.Clone())

		slog.Debug("Iteration complete",
			"iteration", i,
			"min_value", minVal,
			"dist_target", dist,
			"evals", batch.Evals,
			"step_size", param.StepSize,
			"threshold", param.Threshold,
		)

		if dist < l.cfg.TerminateEps || param.StepSize < l.cfg.TerminateStepSize {
			status = StatusConverged
			break
		}
	}

	slog.Info("Run finished",
		"status", status,
		"iterations", iterations,
		"total_evals", totalEvals,
		"min_value", minVal,
	)

	return &Result{
		Final:      param,
		Status:     status,
		Iterations: iterations,
		TotalEvals: totalEvals,
		History:    hist,
	}, nil
}

// distToTarget returns the smallest Euclidean distance from any accepted
// point to the reporting target.
func distToTarget(points [][]float64, target []float64) float64 {
	best := math.Inf(1)
	for _, x := range points {
		d := floats.Distance(x, target, 2)
		if d < best {
			best = d
		}
	}
	return best
}
