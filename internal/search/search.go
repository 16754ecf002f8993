// Package search defines the pluggable nearest-neighbor engine used by the
// dataset index: a KD-tree implementation for production and a linear-scan
// implementation kept as the correctness reference.
package search

import (
	"proxi/internal/geom"
)

type AlgType string

const (
	AlgTypeKD    AlgType = "KD"
	AlgTypeBrute AlgType = "BRUTE"
)

type Config struct {
	Type AlgType `envconfig:"PROXI_SEARCH_ALG" default:"KD"`
}

func (c Config) SearchType() AlgType {
	return c.Type
}

// DistanceFn computes a metric distance between two vectors.
type DistanceFn func(vec, vec1 []float64) (float64, error)

// Match is one query result: a stored point and its opaque tag.
type Match struct {
	Point geom.Point
	Tag   interface{}
}

// Searcher answers proximity queries over a point set built wholesale.
// Build replaces the indexed contents; queries are safe to run
// concurrently between builds.
type Searcher interface {
	Build(points []geom.Point, tags []interface{}) error
	Len() int
	NearestNeighbors(target geom.Point, k int) ([]Match, bool, error)
	RadialSearch(center geom.Point, radius float64, k int) ([]Match, bool, error)
}

// ProvideFn returns a searcher for a dataset of the given dimensionality.
type ProvideFn func(dims int) (Searcher, error)
