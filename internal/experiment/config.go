package experiment

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quadsopt/quads/internal/quads"
)

// Config describes one experiment: the objective, the method, the sampler
// configuration, and the trial schedule. Zero fields are filled with
// defaults; the struct is treated as immutable once a run starts.
type Config struct {
	Function string `yaml:"function"` // objective name (sphere, rastrigin, griewank)
	Dim      int    `yaml:"dim"`
	Method   string `yaml:"method"`  // quads | mayfly
	Sampler  string `yaml:"sampler"` // classical | quantum (quads method only)
	Digits   int    `yaml:"digits"`  // quantization digits for the quantum path

	MaxIter           int     `yaml:"maxIter"`
	NSamples          int     `yaml:"nSamples"` // 0 = dimension heuristic
	EvalLimit         int     `yaml:"evalLimit"`
	Quantile          float64 `yaml:"quantile"`
	SmoothingTh       float64 `yaml:"smoothingTh"`
	TerminateEps      float64 `yaml:"terminateEps"`
	TerminateStepSize float64 `yaml:"terminateStepSize"`
	OptimalAmplify    bool    `yaml:"optimalAmplify"`

	Trials  int    `yaml:"trials"`
	Workers int    `yaml:"workers"` // concurrent trials; trials share no state
	Seed    uint64 `yaml:"seed"`

	// InitMean of length 1 is broadcast across all dimensions.
	InitMean []float64 `yaml:"initMean"`
	InitStd  float64   `yaml:"initStd"`
	InitStep float64   `yaml:"initStep"`

	// PopSize is the population size of the mayfly baseline method.
	PopSize int `yaml:"popSize"`
}

// DefaultConfig returns the baseline experiment settings.
func DefaultConfig() Config {
	return Config{
		Function:          "rastrigin",
		Dim:               2,
		Method:            "quads",
		Sampler:           quads.SamplerClassical,
		Digits:            8,
		MaxIter:           100,
		EvalLimit:         10000,
		Quantile:          0.2,
		SmoothingTh:       0.5,
		TerminateEps:      0.01,
		TerminateStepSize: 0.01,
		Trials:            10,
		Workers:           1,
		Seed:              42,
		InitMean:          []float64{0.8},
		InitStd:           1,
		InitStep:          0.5,
		PopSize:           30,
	}
}

// LoadConfig reads a YAML experiment file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the fields a typo most plausibly breaks. Sampler and
// function names are validated where they are resolved.
func (c Config) Validate() error {
	if c.Dim < 1 {
		return fmt.Errorf("config: dim must be at least 1, got %d", c.Dim)
	}
	if c.MaxIter < 1 {
		return fmt.Errorf("config: maxIter must be at least 1, got %d", c.MaxIter)
	}
	if c.Trials < 1 {
		return fmt.Errorf("config: trials must be at least 1, got %d", c.Trials)
	}
	if c.Quantile <= 0 || c.Quantile > 1 {
		return fmt.Errorf("config: quantile must be in (0,1], got %v", c.Quantile)
	}
	if c.SmoothingTh < 0 || c.SmoothingTh > 1 {
		return fmt.Errorf("config: smoothingTh must be in [0,1], got %v", c.SmoothingTh)
	}
	if c.InitStep <= 0 {
		return fmt.Errorf("config: initStep must be positive, got %v", c.InitStep)
	}
	if c.InitStd <= 0 {
		return fmt.Errorf("config: initStd must be positive, got %v", c.InitStd)
	}
	if len(c.InitMean) != 1 && len(c.InitMean) != c.Dim {
		return fmt.Errorf("config: initMean must have length 1 or %d, got %d", c.Dim, len(c.InitMean))
	}
	return nil
}

// SampleSize is the dimension heuristic for a full evolution-strategy
// population: 4 + 3·ln(dim), rounded down.
func SampleSize(dim int) int {
	return int(4 + math.Log(float64(dim))*3)
}

// SampleCount resolves the per-iteration accepted-sample count: the
// configured value when set, otherwise half the population heuristic plus
// one, since every accepted sample is already sub-threshold.
func (c Config) SampleCount() int {
	if c.NSamples > 0 {
		return c.NSamples
	}
	return SampleSize(c.Dim)/2 + 1
}

// initMean broadcasts a single-element InitMean across all dimensions.
func (c Config) initMean() []float64 {
	mean := make([]float64, c.Dim)
	if len(c.InitMean) == 1 {
		for i := range mean {
			mean[i] = c.InitMean[0]
		}
		return mean
	}
	copy(mean, c.InitMean)
	return mean
}
