package experiment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadsopt/quads/internal/quads"
)

func trial(converged bool, evals float64) TrialResult {
	return TrialResult{Converged: converged, TotalEvals: evals}
}

func TestSummarizeAllConverged(t *testing.T) {
	s := Summarize([]TrialResult{
		trial(true, 100),
		trial(true, 300),
	})

	assert.Equal(t, 2, s.Trials)
	assert.Equal(t, 1.0, s.SuccessRate)
	assert.InDelta(t, 200, s.MeanEvalSuccess, 1e-9)
	assert.True(t, math.IsNaN(s.MeanEvalFailure))
	// With no failures the expected cost is the success mean.
	assert.InDelta(t, 200, s.MeanEvalToGlobal, 1e-9)
}

func TestSummarizeMixed(t *testing.T) {
	s := Summarize([]TrialResult{
		trial(true, 100),
		trial(false, 400),
		trial(true, 200),
		trial(false, 600),
	})

	assert.Equal(t, 0.5, s.SuccessRate)
	assert.InDelta(t, 150, s.MeanEvalSuccess, 1e-9)
	assert.InDelta(t, 500, s.MeanEvalFailure, 1e-9)
	// meanFail·(1−r)/r + meanSuccess = 500·1 + 150
	assert.InDelta(t, 650, s.MeanEvalToGlobal, 1e-9)
}

func TestSummarizeNoneConverged(t *testing.T) {
	s := Summarize([]TrialResult{
		trial(false, 100),
	})

	assert.Equal(t, 0.0, s.SuccessRate)
	assert.True(t, math.IsNaN(s.MeanEvalSuccess))
	assert.True(t, math.IsNaN(s.MeanEvalToGlobal))
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Function = "sphere"
	cfg.Dim = 2
	cfg.MaxIter = 10
	cfg.EvalLimit = 100000
	cfg.Trials = 2
	cfg.Workers = 2
	cfg.InitMean = []float64{0.5}
	return cfg
}

func TestRunOnce(t *testing.T) {
	cfg := smallConfig()
	res, err := RunOnce(cfg, cfg.Seed)
	require.NoError(t, err)

	assert.Contains(t, []quads.Status{
		quads.StatusConverged, quads.StatusTimedOut, quads.StatusExhausted,
	}, res.Status)
	assert.LessOrEqual(t, res.Iterations, cfg.MaxIter)
	assert.Len(t, res.History.Params, len(res.History.MinValue)+1)
}

func TestRunOnceUnknownFunction(t *testing.T) {
	cfg := smallConfig()
	cfg.Function = "nonexistent"
	_, err := RunOnce(cfg, 1)
	assert.Error(t, err)
}

func TestRunTrials(t *testing.T) {
	res, err := RunTrials(smallConfig())
	require.NoError(t, err)

	require.Len(t, res.Trials, 2)
	assert.Equal(t, 2, res.Summary.Trials)
	for i, tr := range res.Trials {
		assert.Equal(t, i, tr.Trial)
		assert.Len(t, tr.CumEvals, len(tr.MinValue))
	}
}

func TestRunTrialsDeterministicPerSeed(t *testing.T) {
	a, err := RunTrials(smallConfig())
	require.NoError(t, err)
	b, err := RunTrials(smallConfig())
	require.NoError(t, err)

	for i := range a.Trials {
		assert.Equal(t, a.Trials[i].TotalEvals, b.Trials[i].TotalEvals)
		assert.Equal(t, a.Trials[i].MinValue, b.Trials[i].MinValue)
	}
}

func TestRunTrialsUnknownMethod(t *testing.T) {
	cfg := smallConfig()
	cfg.Method = "gradient"
	_, err := RunTrials(cfg)
	assert.Error(t, err)
}

func TestMayflyTrial(t *testing.T) {
	cfg := smallConfig()
	cfg.Method = "mayfly"
	cfg.MaxIter = 5
	cfg.PopSize = 10

	tr, err := mayflyMethod{}.RunTrial(cfg, 0, 1)
	require.NoError(t, err)

	// The baseline charges every individual each generation.
	assert.Equal(t, float64(cfg.MaxIter*cfg.PopSize), tr.TotalEvals)
	assert.Equal(t, cfg.MaxIter, tr.Iterations)
	assert.Len(t, tr.Final.Mean, cfg.Dim)
}
