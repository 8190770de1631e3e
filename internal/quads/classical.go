package quads

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// drawBatchSize is the number of candidate points drawn and evaluated per
// round of rejection sampling, independent of the requested accept count.
const drawBatchSize = 100

// ClassicalSampler implements rejection sampling: draw i.i.d. normal
// vectors, evaluate the objective on each draw batch, and keep points whose
// value falls below the acceptance threshold until the requested count is
// reached.
//
// The reported cost is not the raw evaluation count but the evaluation count
// an ideal amplitude-amplifying sampler would have needed at the same
// empirical acceptance probability, so classical and quantum runs compare on
// a single cost axis.
type ClassicalSampler struct {
	obj       Objective
	evalLimit int
	normal    distuv.Normal
}

// NewClassicalSampler creates a seeded classical rejection sampler.
func NewClassicalSampler(obj Objective, evalLimit int, seed uint64) *ClassicalSampler {
	return &ClassicalSampler{
		obj:       obj,
		evalLimit: evalLimit,
		normal:    distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(seed)},
	}
}

// Sample returns exactly n accepted points, each with value strictly below
// p.Threshold, and the amplitude-equivalent evaluation cost. The covariance
// is factorized once and the whitening transform reused across draw batches.
//
// Evaluation accounting is exact: when a draw batch overshoots the target
// count, only evaluations up to and including the one producing the last
// needed accept are counted. The budget is checked between batches; crossing
// it before n accepts are collected fails with an EvalLimitError.
func (s *ClassicalSampler) Sample(p Param, n int) (Batch, error) {
	dim := p.Dim()

	var eig mat.EigenSym
	if !eig.Factorize(p.Cov, true) {
		return Batch{}, fmt.Errorf("classical sampler: covariance eigendecomposition failed")
	}
	eigvals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// bd = B·diag(√d): maps standard normals onto the covariance shape.
	// Tiny negative eigenvalues from roundoff are clamped to zero.
	bd := mat.NewDense(dim, dim, nil)
	for j := 0; j < dim; j++ {
		sd := math.Sqrt(math.Max(eigvals[j], 0))
		for i := 0; i < dim; i++ {
			bd.Set(i, j, vecs.At(i, j)*sd)
		}
	}

	accepted := make([][]float64, 0, n)
	acceptedVal := make([]float64, 0, n)
	evals := 0

	for len(accepted) < n {
		points := make([][]float64, drawBatchSize)
		z := make([]float64, dim)
		for k := range points {
			for d := range z {
				z[d] = s.normal.Rand()
			}
			x := make([]float64, dim)
			for i := 0; i < dim; i++ {
				var sum float64
				for j := 0; j < dim; j++ {
					sum += bd.At(i, j) * z[j]
				}
				x[i] = p.Mean[i] + p.StepSize*sum
			}
			points[k] = x
		}

		values := s.obj(points)

		lastIdx := -1
		for idx, v := range values {
			if v >= p.Threshold {
				continue
			}
			accepted = append(accepted, points[idx])
			acceptedVal = append(acceptedVal, v)
			lastIdx = idx
			if len(accepted) == n {
				break
			}
		}

		if len(accepted) == n {
			evals += lastIdx + 1
			break
		}

		evals += drawBatchSize
		if evals > s.evalLimit {
			return Batch{}, &EvalLimitError{Limit: s.evalLimit, Evals: evals}
		}
	}

	pAccept := float64(n) / float64(evals)
	estimated := (OptimalAmplifyNum(pAccept) + 1) * float64(n)

	return Batch{
		Points:   accepted,
		Values:   acceptedVal,
		Evals:    estimated,
		RawEvals: evals,
	}, nil
}
