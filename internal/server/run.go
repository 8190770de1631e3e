// Package server exposes optimization runs over an HTTP JSON API. Runs are
// executed by background workers and tracked in an in-memory manager keyed
// by generated IDs.
package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quadsopt/quads/internal/experiment"
	"github.com/quadsopt/quads/internal/quads"
)

// RunState is the lifecycle state of a managed run.
type RunState string

const (
	StatePending   RunState = "pending"
	StateRunning   RunState = "running"
	StateCompleted RunState = "completed"
	StateFailed    RunState = "failed"
)

// RunRequest is the JSON body accepted when creating a run. Zero-valued
// fields fall back to the experiment defaults.
type RunRequest struct {
	Function          string    `json:"function"`
	Dim               int       `json:"dim"`
	Sampler           string    `json:"sampler"`
	Digits            int       `json:"digits"`
	MaxIter           int       `json:"maxIter"`
	NSamples          int       `json:"nSamples"`
	EvalLimit         int       `json:"evalLimit"`
	Quantile          float64   `json:"quantile"`
	SmoothingTh       float64   `json:"smoothingTh"`
	TerminateEps      float64   `json:"terminateEps"`
	TerminateStepSize float64   `json:"terminateStepSize"`
	OptimalAmplify    bool      `json:"optimalAmplify"`
	Seed              uint64    `json:"seed"`
	InitMean          []float64 `json:"initMean"`
	InitStd           float64   `json:"initStd"`
	InitStep          float64   `json:"initStep"`
}

// ToConfig overlays the request on the experiment defaults.
func (r RunRequest) ToConfig() experiment.Config {
	cfg := experiment.DefaultConfig()
	cfg.Trials = 1

	if r.Function != "" {
		cfg.Function = r.Function
	}
	if r.Dim > 0 {
		cfg.Dim = r.Dim
	}
	if r.Sampler != "" {
		cfg.Sampler = r.Sampler
	}
	if r.Digits > 0 {
		cfg.Digits = r.Digits
	}
	if r.MaxIter > 0 {
		cfg.MaxIter = r.MaxIter
	}
	if r.NSamples > 0 {
		cfg.NSamples = r.NSamples
	}
	if r.EvalLimit > 0 {
		cfg.EvalLimit = r.EvalLimit
	}
	if r.Quantile > 0 {
		cfg.Quantile = r.Quantile
	}
	if r.SmoothingTh > 0 {
		cfg.SmoothingTh = r.SmoothingTh
	}
	if r.TerminateEps > 0 {
		cfg.TerminateEps = r.TerminateEps
	}
	if r.TerminateStepSize > 0 {
		cfg.TerminateStepSize = r.TerminateStepSize
	}
	if r.OptimalAmplify {
		cfg.OptimalAmplify = true
	}
	if r.Seed != 0 {
		cfg.Seed = r.Seed
	}
	if len(r.InitMean) > 0 {
		cfg.InitMean = r.InitMean
	}
	if r.InitStd > 0 {
		cfg.InitStd = r.InitStd
	}
	if r.InitStep > 0 {
		cfg.InitStep = r.InitStep
	}
	return cfg
}

// Run is one managed optimization run.
type Run struct {
	ID         string        `json:"id"`
	State      RunState      `json:"state"`
	Request    RunRequest    `json:"request"`
	Status     quads.Status  `json:"status,omitempty"`
	MinValue   float64       `json:"minValue"`
	Iterations int           `json:"iterations"`
	TotalEvals float64       `json:"totalEvals"`
	StartTime  time.Time     `json:"startTime"`
	EndTime    *time.Time    `json:"endTime,omitempty"`
	Error      string        `json:"error,omitempty"`
	History    quads.History `json:"-"` // served by the history endpoint only
}

// RunManager tracks run lifecycles. All accessors copy under the lock, so
// callers never share mutable state with the workers.
type RunManager struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewRunManager creates an empty manager.
func NewRunManager() *RunManager {
	return &RunManager{runs: make(map[string]*Run)}
}

// CreateRun registers a pending run for the given request.
func (rm *RunManager) CreateRun(req RunRequest) Run {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	run := &Run{
		ID:        uuid.New().String(),
		State:     StatePending,
		Request:   req,
		StartTime: time.Now(),
	}
	rm.runs[run.ID] = run
	return *run
}

// GetRun returns a snapshot of a run.
func (rm *RunManager) GetRun(id string) (Run, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	run, exists := rm.runs[id]
	if !exists {
		return Run{}, false
	}
	return *run, true
}

// ListRuns returns snapshots of all runs.
func (rm *RunManager) ListRuns() []Run {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	runs := make([]Run, 0, len(rm.runs))
	for _, run := range rm.runs {
		runs = append(runs, *run)
	}
	return runs
}

// UpdateRun atomically applies fn to a run.
func (rm *RunManager) UpdateRun(id string, fn func(*Run)) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	run, exists := rm.runs[id]
	if !exists {
		return fmt.Errorf("run not found: %s", id)
	}
	fn(run)
	return nil
}

// RunningRuns returns snapshots of runs currently executing.
func (rm *RunManager) RunningRuns() []Run {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	var running []Run
	for _, run := range rm.runs {
		if run.State == StateRunning {
			running = append(running, *run)
		}
	}
	return running
}
