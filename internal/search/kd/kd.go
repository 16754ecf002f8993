// Package kd adapts the array-backed KD-tree to the search.Searcher
// contract, serializing builds against concurrent read queries.
package kd

import (
	"sync"

	"proxi/internal/geom"
	"proxi/internal/search"
	"proxi/pkg/container/kdtree"
)

func NewKDAlg(dims int, distFn search.DistanceFn, opts ...kdtree.Option) *kd {
	return &kd{
		tree: kdtree.New(dims, kdtree.DistanceFn(distFn), opts...),
	}
}

type kd struct {
	mtx  sync.RWMutex
	tree *kdtree.Tree
}

func (b *kd) Build(points []geom.Point, tags []interface{}) error {
	vecs := make([][]float64, len(points))
	for i := range points {
		vecs[i] = points[i].Points()
	}
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.tree.Build(vecs, tags)
}

func (b *kd) Len() int {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	return b.tree.Len()
}

func (b *kd) NearestNeighbors(target geom.Point, k int) ([]search.Match, bool, error) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	results, found, err := b.tree.NearestNeighbors(target.Points(), k, matchResult)
	if err != nil {
		return nil, false, err
	}
	return matches(results), found, nil
}

func (b *kd) RadialSearch(center geom.Point, radius float64, k int) ([]search.Match, bool, error) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	results, found, err := b.tree.RadialSearch(center.Points(), radius, k, matchResult)
	if err != nil {
		return nil, false, err
	}
	return matches(results), found, nil
}

func matchResult(point []float64, tag interface{}) interface{} {
	return search.Match{Point: geom.NewPoint(point), Tag: tag}
}

func matches(results []interface{}) []search.Match {
	out := make([]search.Match, len(results))
	for i := range results {
		out[i] = results[i].(search.Match)
	}
	return out
}
