package objective

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTarget(t *testing.T) {
	assert.Equal(t, []float64{0.8}, Target(1))
	assert.Equal(t, []float64{0.8, 0.2, 0.8, 0.2}, Target(4))
}

func TestFunctionsVanishAtTarget(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			obj, target, err := Lookup(name, 2)
			require.NoError(t, err)

			v := obj([][]float64{target})[0]
			assert.InDelta(t, 0.0, v, 1e-12, "%s must vanish at its target", name)
		})
	}
}

func TestFunctionsPositiveAwayFromTarget(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			obj, target, err := Lookup(name, 2)
			require.NoError(t, err)

			away := []float64{target[0] + 1.3, target[1] - 0.7}
			v := obj([][]float64{away})[0]
			assert.Greater(t, v, 0.0)
		})
	}
}

func TestObjectiveBatchShape(t *testing.T) {
	obj, _, err := Lookup("sphere", 2)
	require.NoError(t, err)

	points := [][]float64{{0, 0}, {1, 1}, {2, 2}}
	values := obj(points)
	assert.Len(t, values, len(points))
}

func TestSphereValue(t *testing.T) {
	obj := Sphere([]float64{1, 1})
	v := obj([][]float64{{2, 3}})[0]
	// (2-1)^2 + (3-1)^2 = 5
	assert.InDelta(t, 5.0, v, 1e-12)
}

func TestLookupUnknown(t *testing.T) {
	_, _, err := Lookup("ackley", 2)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ackley")
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	assert.True(t, sort.StringsAreSorted(names))
	assert.Contains(t, names, "sphere")
	assert.Contains(t, names, "rastrigin")
	assert.Contains(t, names, "griewank")
}
