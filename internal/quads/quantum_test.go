package quads

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// stubOracle returns the distribution mean as every sample at a fixed
// per-sample evaluation cost, or fails with a budget error when told to.
type stubOracle struct {
	cost     int
	failures int // fail the first N Sample calls with an EvalLimitError

	prepared int
	sampled  int
}

func (o *stubOracle) PrepareInitialState(digits, dim int, mean []float64, cov mat.Symmetric) (OracleState, error) {
	o.prepared++
	return struct{}{}, nil
}

func (o *stubOracle) Sample(obj Objective, mean []float64, cov mat.Symmetric, digits, dim int,
	threshold float64, optimalAmplify bool, init OracleState, evalLimit int) ([]float64, float64, int, error) {
	o.sampled++
	if o.sampled <= o.failures {
		return nil, 0, 0, &EvalLimitError{Limit: evalLimit, Evals: evalLimit + 1}
	}
	x := make([]float64, dim)
	copy(x, mean)
	return x, obj([][]float64{x})[0], o.cost, nil
}

func TestAmplitudeSampleAggregatesOracleCost(t *testing.T) {
	oracle := &stubOracle{cost: 3}
	s := NewAmplitudeSampler(sphereAt(2), oracle, 4, false, 1000)
	p := NewParam([]float64{0.1, 0.2}, IdentityCov(2, 1), 0.5, 1.0)

	n := 5
	batch, err := s.Sample(p, n)
	require.NoError(t, err)

	assert.Len(t, batch.Points, n)
	assert.Len(t, batch.Values, n)

	// Each sample request prepares a fresh state and costs exactly what the
	// collaborator reports; for the quantum path both cost axes coincide.
	assert.Equal(t, n, oracle.prepared)
	assert.Equal(t, n*oracle.cost, batch.RawEvals)
	assert.Equal(t, float64(n*oracle.cost), batch.Evals)
}

func TestAmplitudeSamplePropagatesEvalLimit(t *testing.T) {
	oracle := &stubOracle{cost: 2, failures: 1}
	s := NewAmplitudeSampler(sphereAt(2), oracle, 4, false, 50)
	p := NewParam([]float64{0, 0}, IdentityCov(2, 1), 0.5, 1.0)

	_, err := s.Sample(p, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEvalLimit))
}

func TestAmplitudeSamplePassesScaledCovariance(t *testing.T) {
	var gotCov mat.Symmetric
	oracle := &covCaptureOracle{inner: &stubOracle{cost: 1}, captured: &gotCov}
	s := NewAmplitudeSampler(sphereAt(2), oracle, 4, false, 100)
	p := NewParam([]float64{0, 0}, IdentityCov(2, 4), 0.5, 1.0)

	_, err := s.Sample(p, 1)
	require.NoError(t, err)
	require.NotNil(t, gotCov)

	// 4 * 0.5^2 = 1
	assert.InDelta(t, 1.0, gotCov.At(0, 0), 1e-12)
}

type covCaptureOracle struct {
	inner    *stubOracle
	captured *mat.Symmetric
}

func (o *covCaptureOracle) PrepareInitialState(digits, dim int, mean []float64, cov mat.Symmetric) (OracleState, error) {
	*o.captured = cov
	return o.inner.PrepareInitialState(digits, dim, mean, cov)
}

func (o *covCaptureOracle) Sample(obj Objective, mean []float64, cov mat.Symmetric, digits, dim int,
	threshold float64, optimalAmplify bool, init OracleState, evalLimit int) ([]float64, float64, int, error) {
	return o.inner.Sample(obj, mean, cov, digits, dim, threshold, optimalAmplify, init, evalLimit)
}
