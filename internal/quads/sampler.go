package quads

import (
	"fmt"
	"math"
)

// Objective evaluates a batch of points (rows) and returns one value per
// point. Implementations must be pure: no side effects, no internal state,
// and safe to call repeatedly with varying batch sizes.
type Objective func(points [][]float64) []float64

// Batch is the result of one sampling call: accepted points in order, their
// objective values, and the evaluation cost consumed producing them.
//
// Evals is the comparable cost axis shared by both sampler kinds: the actual
// oracle-evaluation count for the quantum sampler, and the estimated
// amplitude-equivalent count for the classical one. RawEvals is the number
// of objective evaluations actually performed (identical to Evals for the
// quantum path), kept so the empirical acceptance probability stays
// observable.
type Batch struct {
	Points   [][]float64
	Values   []float64
	Evals    float64
	RawEvals int
}

// Sampler produces n accepted sample/value pairs from the distribution
// described by p. Both implementations share one failure contract: an
// EvalLimitError when the per-call evaluation budget runs out before n
// accepts are collected. No partial batch is returned on failure.
type Sampler interface {
	Sample(p Param, n int) (Batch, error)
}

// Sampler kinds selectable at run configuration time.
const (
	SamplerClassical = "classical"
	SamplerQuantum   = "quantum"
)

// SamplerConfig carries everything needed to construct either sampler kind.
type SamplerConfig struct {
	Kind           string
	EvalLimit      int  // per-call evaluation budget ceiling
	Seed           uint64
	Digits         int  // quantization resolution for the quantum path
	OptimalAmplify bool // pass-through: oracle uses the closed-form round count
	Oracle         OracleSampler
}

// NewSampler constructs the configured sampler. An unrecognized kind fails
// immediately with an UnknownSamplerError so a misconfigured run aborts
// before any iteration executes.
func NewSampler(cfg SamplerConfig, obj Objective) (Sampler, error) {
	switch cfg.Kind {
	case SamplerClassical:
		return NewClassicalSampler(obj, cfg.EvalLimit, cfg.Seed), nil
	case SamplerQuantum:
		if cfg.Oracle == nil {
			return nil, fmt.Errorf("quantum sampler requires an oracle collaborator")
		}
		return NewAmplitudeSampler(obj, cfg.Oracle, cfg.Digits, cfg.OptimalAmplify, cfg.EvalLimit), nil
	default:
		return nil, &UnknownSamplerError{Kind: cfg.Kind}
	}
}

// OptimalAmplifyNum models the expected number of amplitude-amplification
// rounds an ideal quantum sampler needs per accepted sample when the
// acceptance probability is p. It is strictly decreasing on (0,1) and
// approaches 0 as p approaches 1.
func OptimalAmplifyNum(p float64) float64 {
	return math.Acos(math.Sqrt(p)) / (2 * math.Asin(math.Sqrt(p)))
}

// EvalLimitError reports that a sampling call exhausted its evaluation
// budget before reaching the requested accept count. The loop treats it as
// a normal terminal outcome, not a programming error.
// Use errors.Is(err, ErrEvalLimit) to check for it.
type EvalLimitError struct {
	Limit int
	Evals int
}

// ErrEvalLimit is the sentinel target for errors.Is checks.
var ErrEvalLimit = &EvalLimitError{}

func (e *EvalLimitError) Error() string {
	if e.Limit == 0 && e.Evals == 0 {
		return "evaluation limit exceeded"
	}
	return fmt.Sprintf("evaluation limit exceeded: %d evaluations, limit %d", e.Evals, e.Limit)
}

func (e *EvalLimitError) Is(target error) bool {
	_, ok := target.(*EvalLimitError)
	return ok
}

// UnknownSamplerError reports a sampler identifier that is neither
// "classical" nor "quantum". Fatal: the run aborts before iterating.
type UnknownSamplerError struct {
	Kind string
}

// ErrUnknownSampler is the sentinel target for errors.Is checks.
var ErrUnknownSampler = &UnknownSamplerError{}

func (e *UnknownSamplerError) Error() string {
	if e.Kind == "" {
		return "unknown sampler kind"
	}
	return "unknown sampler kind: " + e.Kind
}

func (e *UnknownSamplerError) Is(target error) bool {
	_, ok := target.(*UnknownSamplerError)
	return ok
}
