package quads

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Param holds the search-distribution state for one iteration: the center
// and shape of the sampling normal, the global step-size multiplier, and the
// acceptance threshold. A sample is accepted iff its objective value is
// strictly below Threshold.
//
// Params are replaced wholesale each iteration, never mutated in place. The
// covariance is owned by the updater and stays symmetric positive
// semi-definite across updates.
type Param struct {
	Mean      []float64
	Cov       *mat.SymDense
	StepSize  float64
	Threshold float64
}

// NewParam creates a distribution state from user-supplied initial values.
func NewParam(mean []float64, cov *mat.SymDense, stepSize, threshold float64) Param {
	return Param{
		Mean:      mean,
		Cov:       cov,
		StepSize:  stepSize,
		Threshold: threshold,
	}
}

// IdentityCov returns a dim×dim identity covariance scaled by s.
func IdentityCov(dim int, s float64) *mat.SymDense {
	cov := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		cov.SetSym(i, i, s)
	}
	return cov
}

// Dim returns the dimensionality of the search space.
func (p Param) Dim() int {
	return len(p.Mean)
}

// ScaledCov returns Cov multiplied by StepSize², the effective covariance
// the samplers draw from.
func (p Param) ScaledCov() *mat.SymDense {
	dim := p.Dim()
	scaled := mat.NewSymDense(dim, nil)
	scaled.ScaleSym(p.StepSize*p.StepSize, p.Cov)
	return scaled
}

// Clone returns a deep copy of the parameter state.
func (p Param) Clone() Param {
	mean := make([]float64, len(p.Mean))
	copy(mean, p.Mean)

	var cov *mat.SymDense
	if p.Cov != nil {
		cov = mat.NewSymDense(p.Cov.SymmetricDim(), nil)
		cov.CopySym(p.Cov)
	}

	return Param{
		Mean:      mean,
		Cov:       cov,
		StepSize:  p.StepSize,
		Threshold: p.Threshold,
	}
}

// Validate checks structural consistency. Callers are expected to supply
// well-formed states; this is a cheap guard for configuration errors, not a
// full PSD check.
func (p Param) Validate() error {
	if len(p.Mean) == 0 {
		return fmt.Errorf("param: mean cannot be empty")
	}
	if p.Cov == nil {
		return fmt.Errorf("param: covariance cannot be nil")
	}
	if p.Cov.SymmetricDim() != len(p.Mean) {
		return fmt.Errorf("param: covariance is %dx%d but mean has %d dimensions",
			p.Cov.SymmetricDim(), p.Cov.SymmetricDim(), len(p.Mean))
	}
	if p.StepSize <= 0 {
		return fmt.Errorf("param: step size must be positive, got %v", p.StepSize)
	}
	if math.IsNaN(p.Threshold) || math.IsInf(p.Threshold, 0) {
		return fmt.Errorf("param: threshold must be finite, got %v", p.Threshold)
	}
	return nil
}

// paramJSON is the wire form of Param. The covariance is stored row-major.
type paramJSON struct {
	Mean      []float64 `json:"mean"`
	Cov       []float64 `json:"cov"`
	Dim       int       `json:"dim"`
	StepSize  float64   `json:"stepSize"`
	Threshold float64   `json:"threshold"`
}

// MarshalJSON implements json.Marshaler.
func (p Param) MarshalJSON() ([]byte, error) {
	dim := p.Dim()
	cov := make([]float64, 0, dim*dim)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			cov = append(cov, p.Cov.At(i, j))
		}
	}
	return json.Marshal(paramJSON{
		Mean:      p.Mean,
		Cov:       cov,
		Dim:       dim,
		StepSize:  p.StepSize,
		Threshold: p.Threshold,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Param) UnmarshalJSON(data []byte) error {
	var pj paramJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return err
	}
	if pj.Dim != len(pj.Mean) {
		return fmt.Errorf("param: dim %d does not match mean length %d", pj.Dim, len(pj.Mean))
	}
	if len(pj.Cov) != pj.Dim*pj.Dim {
		return fmt.Errorf("param: covariance has %d entries, want %d", len(pj.Cov), pj.Dim*pj.Dim)
	}
	cov := mat.NewSymDense(pj.Dim, nil)
	for i := 0; i < pj.Dim; i++ {
		for j := i; j < pj.Dim; j++ {
			cov.SetSym(i, j, pj.Cov[i*pj.Dim+j])
		}
	}
	p.Mean = pj.Mean
	p.Cov = cov
	p.StepSize = pj.StepSize
	p.Threshold = pj.Threshold
	return nil
}

// HyperParam holds the run-immutable tuning values consumed by the updater,
// plus the selection constants derived from them once at construction.
type HyperParam struct {
	// Quantile is the elite fraction of each accepted batch used to steer
	// the distribution update.
	Quantile float64

	// SmoothingTh is the convex blend weight moving the threshold toward
	// the best accepted value each iteration (0 = frozen, 1 = jump to best).
	SmoothingTh float64

	// Dim is the search-space dimensionality.
	Dim int

	// NSamples is the number of accepted samples requested per iteration.
	NSamples int

	// Derived selection constants.
	EliteCount int       // number of elite samples, at least 1
	Weights    []float64 // recombination weights over the elite, sum to 1
	MuEff      float64   // variance-effective selection mass
	CSigma     float64   // step-size learning rate
	CMu        float64   // rank-mu covariance learning rate
	ChiN       float64   // E‖N(0,I)‖ for Dim dimensions
}

// NewHyperParam derives the selection constants from the user-facing knobs.
// The weight and learning-rate forms follow standard evolution-strategy
// practice; the loop only relies on the invariants they preserve.
func NewHyperParam(quantile, smoothingTh float64, dim, nSamples int) HyperParam {
	elite := int(math.Round(quantile * float64(nSamples)))
	if elite < 1 {
		elite = 1
	}
	if elite > nSamples {
		elite = nSamples
	}

	weights := make([]float64, elite)
	var sum float64
	for i := range weights {
		weights[i] = math.Log(float64(elite)+0.5) - math.Log(float64(i+1))
		sum += weights[i]
	}
	var sumSq float64
	for i := range weights {
		weights[i] /= sum
		sumSq += weights[i] * weights[i]
	}
	muEff := 1 / sumSq

	d := float64(dim)
	return HyperParam{
		Quantile:    quantile,
		SmoothingTh: smoothingTh,
		Dim:         dim,
		NSamples:    nSamples,
		EliteCount:  elite,
		Weights:     weights,
		MuEff:       muEff,
		CSigma:      (muEff + 2) / (d + muEff + 5),
		CMu:         math.Min(1, muEff/(d*d+muEff)),
		ChiN:        math.Sqrt(d) * (1 - 1/(4*d) + 1/(21*d*d)),
	}
}
