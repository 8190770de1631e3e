// Package store persists optimization run results: a JSON artifact and a
// JSONL iteration trace per run on the filesystem, plus a SQLite summary
// index for listing and querying runs.
package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quadsopt/quads/internal/quads"
)

// RunConfig is the persisted copy of the settings that produced a run.
type RunConfig struct {
	Method            string  `json:"method"`
	Function          string  `json:"function"`
	Sampler           string  `json:"sampler"`
	Dim               int     `json:"dim"`
	Digits            int     `json:"digits,omitempty"`
	MaxIter           int     `json:"maxIter"`
	NSamples          int     `json:"nSamples"`
	EvalLimit         int     `json:"evalLimit"`
	Quantile          float64 `json:"quantile"`
	SmoothingTh       float64 `json:"smoothingTh"`
	TerminateEps      float64 `json:"terminateEps"`
	TerminateStepSize float64 `json:"terminateStepSize"`
	OptimalAmplify    bool    `json:"optimalAmplify,omitempty"`
	Seed              uint64  `json:"seed"`
}

// RunRecord is the full persisted result of one optimization run, including
// the four history sequences.
type RunRecord struct {
	RunID      string        `json:"runId"`
	Config     RunConfig     `json:"config"`
	Status     quads.Status  `json:"status"`
	Iterations int           `json:"iterations"`
	TotalEvals float64       `json:"totalEvals"`
	Final      quads.Param   `json:"final"`
	History    quads.History `json:"history"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// NewRunRecord builds a persistable record from a finished run.
func NewRunRecord(cfg RunConfig, res *quads.Result) *RunRecord {
	return &RunRecord{
		RunID:      uuid.New().String(),
		Config:     cfg,
		Status:     res.Status,
		Iterations: res.Iterations,
		TotalEvals: res.TotalEvals,
		Final:      res.Final,
		History:    res.History,
		CreatedAt:  time.Now().UTC(),
	}
}

// Validate checks that a record is complete enough to persist.
func (r *RunRecord) Validate() error {
	if r.RunID == "" {
		return fmt.Errorf("run record: runId cannot be empty")
	}
	if r.Config.Method == "" {
		return fmt.Errorf("run record: method cannot be empty")
	}
	if r.Status == "" {
		return fmt.Errorf("run record: status cannot be empty")
	}
	if r.Iterations < 0 {
		return fmt.Errorf("run record: iterations cannot be negative")
	}
	if r.CreatedAt.IsZero() {
		return fmt.Errorf("run record: createdAt cannot be zero")
	}
	return nil
}

// RunInfo is listing metadata without the history payload.
type RunInfo struct {
	RunID      string       `json:"runId"`
	Method     string       `json:"method"`
	Function   string       `json:"function"`
	Sampler    string       `json:"sampler"`
	Dim        int          `json:"dim"`
	Status     quads.Status `json:"status"`
	Iterations int          `json:"iterations"`
	TotalEvals float64      `json:"totalEvals"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// ToInfo strips a record down to its listing metadata.
func (r *RunRecord) ToInfo() RunInfo {
	return RunInfo{
		RunID:      r.RunID,
		Method:     r.Config.Method,
		Function:   r.Config.Function,
		Sampler:    r.Config.Sampler,
		Dim:        r.Config.Dim,
		Status:     r.Status,
		Iterations: r.Iterations,
		TotalEvals: r.TotalEvals,
		CreatedAt:  r.CreatedAt,
	}
}

// NotFoundError reports a missing run.
// Use errors.Is(err, ErrNotFound) to check for it.
type NotFoundError struct {
	RunID string
}

// ErrNotFound is the sentinel target for errors.Is checks.
var ErrNotFound = &NotFoundError{}

func (e *NotFoundError) Error() string {
	if e.RunID != "" {
		return "run not found: " + e.RunID
	}
	return "run not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
