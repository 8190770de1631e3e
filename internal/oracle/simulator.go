// Package oracle simulates the amplitude-amplification sampler the quantum
// optimization path delegates to. The search distribution is quantized onto
// a grid, prepared as a real amplitude vector proportional to the square
// root of the normal density, and amplified with Grover rounds (phase flip
// of sub-threshold cells, reflection about the initial state). Cost is
// measured in oracle evaluations: each measurement attempt with r rounds
// costs r+1, the extra one verifying the measured point.
package oracle

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/quadsopt/quads/internal/quads"
)

// maxGridCells bounds the simulated state size; (2^digits)^dim cells beyond
// this would make state preparation impractical.
const maxGridCells = 1 << 22

// groverGrowth is the schedule factor for the adaptive round count when the
// marked fraction is unknown.
const groverGrowth = 6.0 / 5.0

// Simulator implements quads.OracleSampler.
type Simulator struct {
	rng *rand.Rand
}

// NewSimulator creates a seeded amplitude-amplification simulator.
func NewSimulator(seed uint64) *Simulator {
	return &Simulator{rng: rand.New(rand.NewSource(seed))}
}

// gridState is the prepared initial state: quantized cell centers and their
// normalized amplitudes.
type gridState struct {
	points [][]float64
	amps   []float64
}

// PrepareInitialState quantizes each axis into 2^digits cells spanning
// mean ± 4σ and encodes the normal density as a normalized real amplitude
// vector. Deterministic given its inputs.
func (s *Simulator) PrepareInitialState(digits, dim int, mean []float64, cov mat.Symmetric) (quads.OracleState, error) {
	if digits <= 0 {
		return nil, fmt.Errorf("oracle: digits must be positive, got %d", digits)
	}
	side := 1 << digits
	cells := 1
	for d := 0; d < dim; d++ {
		if cells > maxGridCells/side {
			return nil, fmt.Errorf("oracle: grid of %d digits x %d dims exceeds %d cells", digits, dim, maxGridCells)
		}
		cells *= side
	}

	lo := make([]float64, dim)
	step := make([]float64, dim)
	for d := 0; d < dim; d++ {
		sd := math.Sqrt(cov.At(d, d))
		lo[d] = mean[d] - 4*sd
		step[d] = 8 * sd / float64(side)
	}

	normal, ok := distmv.NewNormal(mean, cov, nil)
	if !ok {
		return nil, fmt.Errorf("oracle: covariance is not positive definite")
	}

	points := make([][]float64, cells)
	amps := make([]float64, cells)
	var norm float64
	for c := 0; c < cells; c++ {
		x := make([]float64, dim)
		rem := c
		for d := 0; d < dim; d++ {
			k := rem % side
			rem /= side
			x[d] = lo[d] + (float64(k)+0.5)*step[d]
		}
		points[c] = x
		amps[c] = math.Sqrt(normal.Prob(x))
		norm += amps[c] * amps[c]
	}
	if norm == 0 {
		return nil, fmt.Errorf("oracle: initial state has zero norm")
	}
	norm = math.Sqrt(norm)
	for c := range amps {
		amps[c] /= norm
	}

	return &gridState{points: points, amps: amps}, nil
}

// Sample amplifies the sub-threshold cells and measures until a marked cell
// is observed. With optimalAmplify the round count comes from the true
// marked probability in closed form; otherwise rounds are drawn uniformly
// from a geometrically growing window, the standard schedule for an unknown
// marked fraction. Fails with a quads.EvalLimitError when the accumulated
// oracle evaluations would exceed evalLimit before a marked cell is found.
func (s *Simulator) Sample(obj quads.Objective, mean []float64, cov mat.Symmetric, digits, dim int,
	threshold float64, optimalAmplify bool, init quads.OracleState, evalLimit int) ([]float64, float64, int, error) {

	st, ok := init.(*gridState)
	if !ok || st == nil {
		prepared, err := s.PrepareInitialState(digits, dim, mean, cov)
		if err != nil {
			return nil, 0, 0, err
		}
		st = prepared.(*gridState)
	}

	values := obj(st.points)
	marked := make([]bool, len(values))
	var pMarked float64
	anyMarked := false
	for i, v := range values {
		if v < threshold {
			marked[i] = true
			anyMarked = true
			pMarked += st.amps[i] * st.amps[i]
		}
	}

	maxWindow := math.Pi / 4 * math.Sqrt(float64(len(st.amps)))
	if maxWindow < 1 {
		maxWindow = 1
	}
	window := 1.0
	evals := 0

	for {
		var rounds int
		if optimalAmplify && anyMarked {
			rounds = int(math.Round(quads.OptimalAmplifyNum(pMarked)))
		} else {
			rounds = s.rng.Intn(int(math.Ceil(window)))
			window = math.Min(window*groverGrowth, maxWindow)
		}

		evals += rounds + 1
		if evals > evalLimit {
			return nil, 0, 0, &quads.EvalLimitError{Limit: evalLimit, Evals: evals}
		}

		amps := amplify(st.amps, marked, rounds)
		idx := s.measure(amps)
		if marked[idx] {
			point := make([]float64, dim)
			copy(point, st.points[idx])
			return point, values[idx], evals, nil
		}
	}
}

// amplify applies rounds Grover iterations to a copy of the initial
// amplitudes: phase-flip the marked cells, then reflect about the initial
// state.
func amplify(psi []float64, marked []bool, rounds int) []float64 {
	amps := make([]float64, len(psi))
	copy(amps, psi)

	for r := 0; r < rounds; r++ {
		for i := range amps {
			if marked[i] {
				amps[i] = -amps[i]
			}
		}

		var proj float64
		for i := range amps {
			proj += psi[i] * amps[i]
		}
		for i := range amps {
			amps[i] = 2*proj*psi[i] - amps[i]
		}
	}
	return amps
}

// measure samples a cell index from the squared-amplitude distribution.
func (s *Simulator) measure(amps []float64) int {
	u := s.rng.Float64()
	var cum float64
	for i, a := range amps {
		cum += a * a
		if u < cum {
			return i
		}
	}
	return len(amps) - 1
}
