package quads

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// OracleState is the opaque prepared initial state handed back by an
// OracleSampler and threaded into its Sample call. The core assumes nothing
// about its contents.
type OracleState interface{}

// OracleSampler is the external amplitude-amplification collaborator the
// quantum path delegates to. PrepareInitialState must be deterministic given
// its inputs. Sample returns one sub-threshold point, its objective value,
// and the number of oracle evaluations consumed; it fails with an
// EvalLimitError if the per-sample evaluation ceiling would be exceeded
// before a sub-threshold sample is found.
type OracleSampler interface {
	PrepareInitialState(digits, dim int, mean []float64, cov mat.Symmetric) (OracleState, error)

	Sample(obj Objective, mean []float64, cov mat.Symmetric, digits, dim int,
		threshold float64, optimalAmplify bool, init OracleState, evalLimit int) ([]float64, float64, int, error)
}

// AmplitudeSampler satisfies Sampler by requesting one sub-threshold sample
// at a time from an oracle collaborator and aggregating the actual oracle
// evaluation counts it reports.
type AmplitudeSampler struct {
	obj            Objective
	oracle         OracleSampler
	digits         int
	optimalAmplify bool
	evalLimit      int
}

// NewAmplitudeSampler creates a quantum-path sampler around the given
// oracle collaborator. digits is the quantization resolution passed through
// to state preparation; optimalAmplify selects the collaborator's
// closed-form amplification round count instead of its adaptive schedule.
func NewAmplitudeSampler(obj Objective, oracle OracleSampler, digits int, optimalAmplify bool, evalLimit int) *AmplitudeSampler {
	return &AmplitudeSampler{
		obj:            obj,
		oracle:         oracle,
		digits:         digits,
		optimalAmplify: optimalAmplify,
		evalLimit:      evalLimit,
	}
}

// Sample collects n accepted points, preparing a fresh initial state for
// each request. Any single-sample ceiling failure from the collaborator
// fails the whole iteration, mirroring the classical sampler's contract.
func (s *AmplitudeSampler) Sample(p Param, n int) (Batch, error) {
	dim := p.Dim()
	cov := p.ScaledCov()

	points := make([][]float64, 0, n)
	values := make([]float64, 0, n)
	total := 0

	for i := 0; i < n; i++ {
		state, err := s.oracle.PrepareInitialState(s.digits, dim, p.Mean, cov)
		if err != nil {
			return Batch{}, fmt.Errorf("prepare initial state: %w", err)
		}

		x, y, evals, err := s.oracle.Sample(s.obj, p.Mean, cov, s.digits, dim,
			p.Threshold, s.optimalAmplify, state, s.evalLimit)
		if err != nil {
			return Batch{}, err
		}

		total += evals
		points = append(points, x)
		values = append(values, y)
	}

	return Batch{
		Points:   points,
		Values:   values,
		Evals:    float64(total),
		RawEvals: total,
	}, nil
}
