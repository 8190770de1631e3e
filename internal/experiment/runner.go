// Package experiment orchestrates optimization trials: it builds runs from
// a Config, executes independent seeded trials (optionally in parallel, since
// trials share no state), and aggregates the cost statistics used to compare
// methods.
package experiment

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/quadsopt/quads/internal/objective"
	"github.com/quadsopt/quads/internal/oracle"
	"github.com/quadsopt/quads/internal/quads"
)

// TrialResult is one trial's outcome in the shape shared by all methods.
type TrialResult struct {
	Trial      int          `json:"trial"`
	Status     quads.Status `json:"status"`
	Converged  bool         `json:"converged"` // final distance to target below terminateEps
	Iterations int          `json:"iterations"`
	TotalEvals float64      `json:"totalEvals"`
	CumEvals   []float64    `json:"cumEvals"` // cumulative evaluation curve
	MinValue   []float64    `json:"minValue"`
	DistTarget []float64    `json:"distTarget"`
	Final      quads.Param  `json:"final"`
}

// Summary aggregates trial costs. Means and deviations over an empty group
// are NaN.
type Summary struct {
	Trials           int     `json:"trials"`
	SuccessRate      float64 `json:"successRate"`
	MeanEvalSuccess  float64 `json:"meanEvalSuccess"`
	StdEvalSuccess   float64 `json:"stdEvalSuccess"`
	MeanEvalFailure  float64 `json:"meanEvalFailure"`
	StdEvalFailure   float64 `json:"stdEvalFailure"`
	MeanEvalToGlobal float64 `json:"meanEvalToGlobal"`
}

// TrialsResult is the full experiment outcome.
type TrialsResult struct {
	Trials  []TrialResult `json:"trials"`
	Summary Summary       `json:"summary"`
}

// Method runs one trial of a named optimization method.
type Method interface {
	Name() string
	RunTrial(cfg Config, trial int, seed uint64) (TrialResult, error)
}

// methodFor resolves the configured method name.
func methodFor(name string) (Method, error) {
	switch name {
	case "quads":
		return quadsMethod{}, nil
	case "mayfly":
		return mayflyMethod{}, nil
	default:
		return nil, fmt.Errorf("unknown method: %q", name)
	}
}

// RunOnce builds and executes a single QuADS run from the config. The seed
// drives both the sampler and, on the quantum path, the oracle simulator.
func RunOnce(cfg Config, seed uint64) (*quads.Result, error) {
	obj, target, err := objective.Lookup(cfg.Function, cfg.Dim)
	if err != nil {
		return nil, err
	}

	mean := cfg.initMean()
	threshold := obj([][]float64{mean})[0]
	init := quads.NewParam(mean, quads.IdentityCov(cfg.Dim, cfg.InitStd), cfg.InitStep, threshold)

	samplerCfg := quads.SamplerConfig{
		Kind:           cfg.Sampler,
		EvalLimit:      cfg.EvalLimit,
		Seed:           seed,
		Digits:         cfg.Digits,
		OptimalAmplify: cfg.OptimalAmplify,
	}
	if cfg.Sampler == quads.SamplerQuantum {
		samplerCfg.Oracle = oracle.NewSimulator(seed)
	}
	sampler, err := quads.NewSampler(samplerCfg, obj)
	if err != nil {
		return nil, err
	}

	n := cfg.SampleCount()
	hp := quads.NewHyperParam(cfg.Quantile, cfg.SmoothingTh, cfg.Dim, n)
	loop := quads.NewLoop(sampler, quads.NewCMAUpdater(), hp, quads.LoopConfig{
		MaxIter:           cfg.MaxIter,
		NSamples:          n,
		TerminateEps:      cfg.TerminateEps,
		TerminateStepSize: cfg.TerminateStepSize,
		Target:            target,
	})

	return loop.Run(init)
}

// quadsMethod adapts a QuADS run to the common trial shape.
type quadsMethod struct{}

func (quadsMethod) Name() string { return "quads" }

func (quadsMethod) RunTrial(cfg Config, trial int, seed uint64) (TrialResult, error) {
	res, err := RunOnce(cfg, seed)
	if err != nil {
		return TrialResult{}, err
	}

	cum := make([]float64, len(res.History.Evals))
	floats.CumSum(cum, res.History.Evals)

	converged := false
	if n := len(res.History.DistTarget); n > 0 {
		converged = res.History.DistTarget[n-1] < cfg.TerminateEps
	}

	return TrialResult{
		Trial:      trial,
		Status:     res.Status,
		Converged:  converged,
		Iterations: res.Iterations,
		TotalEvals: res.TotalEvals,
		CumEvals:   cum,
		MinValue:   res.History.MinValue,
		DistTarget: res.History.DistTarget,
		Final:      res.Final,
	}, nil
}

// RunTrials executes cfg.Trials independent trials of the configured method,
// seeding trial t with Seed+t, and aggregates the outcome. Workers bounds
// trial parallelism; each trial owns its own state end to end.
func RunTrials(cfg Config) (*TrialsResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	method, err := methodFor(cfg.Method)
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > cfg.Trials {
		workers = cfg.Trials
	}

	slog.Info("Starting trials",
		"method", method.Name(),
		"function", cfg.Function,
		"dim", cfg.Dim,
		"trials", cfg.Trials,
		"workers", workers,
	)

	trials := make([]TrialResult, cfg.Trials)
	errs := make([]error, cfg.Trials)
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				trials[t], errs[t] = method.RunTrial(cfg, t, cfg.Seed+uint64(t))
			}
		}()
	}
	for t := 0; t < cfg.Trials; t++ {
		jobs <- t
	}
	close(jobs)
	wg.Wait()

	for t, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("trial %d: %w", t, err)
		}
	}

	summary := Summarize(trials)
	slog.Info("Trials complete",
		"success_rate", summary.SuccessRate,
		"mean_eval_to_global", summary.MeanEvalToGlobal,
	)

	return &TrialsResult{Trials: trials, Summary: summary}, nil
}

// Summarize computes the cost statistics over a set of trials. The expected
// evaluations-to-global figure charges each failure with a restart:
// meanFailure·(1−r)/r + meanSuccess for success rate r.
func Summarize(trials []TrialResult) Summary {
	var success, failure []float64
	for _, t := range trials {
		if t.Converged {
			success = append(success, t.TotalEvals)
		} else {
			failure = append(failure, t.TotalEvals)
		}
	}

	rate := float64(len(success)) / float64(len(trials))
	s := Summary{
		Trials:           len(trials),
		SuccessRate:      rate,
		MeanEvalSuccess:  math.NaN(),
		StdEvalSuccess:   math.NaN(),
		MeanEvalFailure:  math.NaN(),
		StdEvalFailure:   math.NaN(),
		MeanEvalToGlobal: math.NaN(),
	}

	if len(success) > 0 {
		s.MeanEvalSuccess = stat.Mean(success, nil)
		s.StdEvalSuccess = stat.StdDev(success, nil)
	}
	if len(failure) > 0 {
		s.MeanEvalFailure = stat.Mean(failure, nil)
		s.StdEvalFailure = stat.StdDev(failure, nil)
	}

	switch {
	case rate == 0:
		// unreachable in finite expectation; leave NaN
	case rate == 1:
		s.MeanEvalToGlobal = s.MeanEvalSuccess
	default:
		s.MeanEvalToGlobal = s.MeanEvalFailure*(1-rate)/rate + s.MeanEvalSuccess
	}

	return s
}
