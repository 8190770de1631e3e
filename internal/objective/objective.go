// Package objective provides the named benchmark functions optimization
// runs minimize. Every function is a pure batch evaluator centered on a
// fixed target point, so distance-to-target reporting has a known optimum.
package objective

import (
	"fmt"
	"math"
	"sort"

	"github.com/quadsopt/quads/internal/quads"
)

// Target returns the canonical target point for dim dimensions: components
// alternate 0.8 and 0.2.
func Target(dim int) []float64 {
	target := make([]float64, dim)
	for i := range target {
		if i%2 == 0 {
			target[i] = 0.8
		} else {
			target[i] = 0.2
		}
	}
	return target
}

// Sphere is the sum of squared deviations from the target. Global minimum 0
// at the target.
func Sphere(target []float64) quads.Objective {
	return func(points [][]float64) []float64 {
		values := make([]float64, len(points))
		for k, x := range points {
			var sum float64
			for i, t := range target {
				d := x[i] - t
				sum += d * d
			}
			values[k] = sum
		}
		return values
	}
}

// Rastrigin is a scaled, shifted Rastrigin variant with tight ripples:
// (20 + Σ 100(xᵢ−tᵢ)² − 10·cos(20π(xᵢ−tᵢ))) / 40.
func Rastrigin(target []float64) quads.Objective {
	return func(points [][]float64) []float64 {
		values := make([]float64, len(points))
		for k, x := range points {
			sum := 20.0
			for i, t := range target {
				d := x[i] - t
				sum += 100*d*d - 10*math.Cos(2*math.Pi*10*d)
			}
			values[k] = sum / 40
		}
		return values
	}
}

// Griewank is the shifted Griewank function: many shallow local minima over
// a quadratic bowl, global minimum 0 at the target.
func Griewank(target []float64) quads.Objective {
	return func(points [][]float64) []float64 {
		values := make([]float64, len(points))
		for k, x := range points {
			var sum float64
			prod := 1.0
			for i, t := range target {
				d := x[i] - t
				sum += d * d / 4000
				prod *= math.Cos(d / math.Sqrt(float64(i+1)))
			}
			values[k] = 1 + sum - prod
		}
		return values
	}
}

var builders = map[string]func(target []float64) quads.Objective{
	"sphere":    Sphere,
	"rastrigin": Rastrigin,
	"griewank":  Griewank,
}

// Names returns the registered function names, sorted.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves a function name to its batch evaluator and target point.
func Lookup(name string, dim int) (quads.Objective, []float64, error) {
	build, ok := builders[name]
	if !ok {
		return nil, nil, fmt.Errorf("unknown objective function: %q (have %v)", name, Names())
	}
	target := Target(dim)
	return build(target), target, nil
}
