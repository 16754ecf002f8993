// Package brute is the linear-scan reference searcher: exact, O(n) per
// query, used to validate the KD-tree implementation and as a fallback
// engine for small datasets.
package brute

import (
	"fmt"
	"sync"

	"proxi/internal/geom"
	"proxi/internal/search"
	"proxi/pkg/container/pqueue"
)

func NewBruteAlg(distFn search.DistanceFn) *brute {
	return &brute{distFn: distFn}
}

type brute struct {
	mtx    sync.RWMutex
	distFn search.DistanceFn
	points []geom.Point
	tags   []interface{}
}

func (b *brute) Build(points []geom.Point, tags []interface{}) error {
	if len(points) == 0 {
		return fmt.Errorf("brute: empty point set")
	}
	if len(points) != len(tags) {
		return fmt.Errorf("brute: %d points, %d tags", len(points), len(tags))
	}
	pts := make([]geom.Point, len(points))
	copy(pts, points)
	tgs := make([]interface{}, len(tags))
	copy(tgs, tags)

	b.mtx.Lock()
	b.points = pts
	b.tags = tgs
	b.mtx.Unlock()
	return nil
}

func (b *brute) Len() int {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	return len(b.points)
}

func (b *brute) NearestNeighbors(target geom.Point, k int) ([]search.Match, bool, error) {
	if k <= 0 {
		return nil, false, nil
	}
	return b.scan(target, k, -1)
}

func (b *brute) RadialSearch(center geom.Point, radius float64, k int) ([]search.Match, bool, error) {
	b.mtx.RLock()
	capacity := k
	if k <= 0 {
		capacity = len(b.points)
	}
	b.mtx.RUnlock()
	return b.scan(center, capacity, radius*radius)
}

// scan pushes every stored point through a capped queue; a negative
// maxDistSq disables the radius cutoff.
func (b *brute) scan(target geom.Point, k int, maxDistSq float64) ([]search.Match, bool, error) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	if len(b.points) == 0 {
		return nil, false, nil
	}

	pq := pqueue.New(pqueue.WithOrderAsc(), pqueue.WithCap(uint(k)))
	for i := range b.points {
		distance, err := b.distFn(target.Points(), b.points[i].Points())
		if err != nil {
			return nil, false, fmt.Errorf(
				"unable to compute distance between %v and %v: %w",
				target.Points(), b.points[i].Points(), err,
			)
		}
		if maxDistSq >= 0 && distance > maxDistSq {
			continue
		}
		pq.Push(i, distance)
	}

	out := make([]search.Match, pq.Len())
	for i, value := range pq.PopAll() {
		idx := value.(int)
		out[i] = search.Match{Point: b.points[idx], Tag: b.tags[idx]}
	}
	return out, len(out) > 0, nil
}
