// Package datagen generates random point sets for tests, benchmarks and
// dataset seeding.
package datagen

import (
	"github.com/valyala/fastrand"
)

func New(seed uint32) *Generator {
	g := &Generator{}
	g.rng.Seed(seed)
	return g
}

type Generator struct {
	rng fastrand.RNG
}

// Float64 returns a value in [0, 1).
func (g *Generator) Float64() float64 {
	return float64(g.rng.Uint32()) / (1 << 32)
}

// Uniform returns n points of the given dimensionality with coordinates
// drawn uniformly from [min, max).
func (g *Generator) Uniform(n, dims int, min, max float64) [][]float64 {
	points := make([][]float64, n)
	for i := 0; i < n; i++ {
		vec := make([]float64, dims)
		for j := 0; j < dims; j++ {
			vec[j] = min + g.Float64()*(max-min)
		}
		points[i] = vec
	}
	return points
}

// Clustered returns n points scattered around the given centers, each
// coordinate offset by at most spread in either direction. Points cycle
// through the centers round-robin.
func (g *Generator) Clustered(n int, centers [][]float64, spread float64) [][]float64 {
	points := make([][]float64, n)
	for i := 0; i < n; i++ {
		center := centers[i%len(centers)]
		vec := make([]float64, len(center))
		for j := range center {
			vec[j] = center[j] + (g.Float64()*2-1)*spread
		}
		points[i] = vec
	}
	return points
}
