package quads

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Updater produces the next distribution state from the previous one and an
// accepted sample batch. Implementations must preserve the state invariants:
// the covariance stays symmetric positive semi-definite and the step size
// stays positive. The exact coefficients are a strategy choice.
type Updater interface {
	Update(p Param, batch Batch, iter int, hp HyperParam) (Param, error)
}

// CMAUpdater is the default update strategy: select the elite fraction of
// the accepted batch by objective value, recombine the mean with log-rank
// weights, blend the covariance toward the elite dispersion (rank-mu form),
// adapt the step size from the ratio of observed to expected elite spread,
// and relax the threshold toward the batch best by the smoothing factor.
type CMAUpdater struct{}

// NewCMAUpdater returns the default update strategy.
func NewCMAUpdater() *CMAUpdater {
	return &CMAUpdater{}
}

// Update implements Updater. iter is accepted for strategies that anneal
// their coefficients; the default rule is stationary.
func (u *CMAUpdater) Update(p Param, batch Batch, iter int, hp HyperParam) (Param, error) {
	n := len(batch.Points)
	if n == 0 {
		return Param{}, fmt.Errorf("update: empty batch")
	}
	dim := p.Dim()

	// Rank the accepted batch by objective value, best first.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return batch.Values[order[a]] < batch.Values[order[b]]
	})

	elite := hp.EliteCount
	if elite > n {
		elite = n
	}

	// Renormalize the weights when the batch is smaller than the
	// configured elite count.
	weights := hp.Weights[:elite]
	wsum := floats.Sum(weights)

	// Weighted recombination of the elite.
	mean := make([]float64, dim)
	for i := 0; i < elite; i++ {
		w := weights[i] / wsum
		x := batch.Points[order[i]]
		for j := 0; j < dim; j++ {
			mean[j] += w * x[j]
		}
	}

	// Rank-mu covariance estimate from step-normalized elite deviations
	// around the previous mean. A convex blend of two PSD matrices, so the
	// invariant holds by construction.
	sigma := p.StepSize
	z := mat.NewSymDense(dim, nil)
	y := make([]float64, dim)
	var disp float64
	for i := 0; i < elite; i++ {
		w := weights[i] / wsum
		x := batch.Points[order[i]]
		for j := 0; j < dim; j++ {
			y[j] = (x[j] - p.Mean[j]) / sigma
		}
		z.SymRankOne(z, w, mat.NewVecDense(dim, y))
		disp += w * floats.Norm(y, 2)
	}

	prev := mat.NewSymDense(dim, nil)
	prev.ScaleSym(1-hp.CMu, p.Cov)
	rankMu := mat.NewSymDense(dim, nil)
	rankMu.ScaleSym(hp.CMu, z)
	cov := mat.NewSymDense(dim, nil)
	cov.AddSym(prev, rankMu)

	// Step-size adaptation: elite spread below the expected norm of a
	// standard normal shrinks the step, above grows it. The exponential
	// form keeps the step size positive.
	step := sigma * math.Exp(hp.CSigma*(disp/hp.ChiN-1))

	// Threshold relaxes smoothly toward the best accepted value instead of
	// jumping to it, so one lucky sample cannot over-tighten the boundary.
	best := floats.Min(batch.Values)
	threshold := (1-hp.SmoothingTh)*p.Threshold + hp.SmoothingTh*best

	return Param{
		Mean:      mean,
		Cov:       cov,
		StepSize:  step,
		Threshold: threshold,
	}, nil
}
