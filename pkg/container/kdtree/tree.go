// Package kdtree implements an array-backed balanced KD-tree over
// fixed-dimensionality point sets. Each stored point carries an opaque tag
// that is returned alongside matches but never participates in geometry.
//
// The tree is built once by recursive median splitting across rotating
// dimensions and is immutable afterwards; nearest-neighbor and radial
// queries run a branch-and-bound traversal pruned by axis-aligned bounding
// boxes and a capacity-bounded candidate queue. Any number of queries may
// run concurrently over a built tree, each query allocates its own scratch
// state.
package kdtree

import (
	"fmt"
	"math"
	"sort"

	"proxi/pkg/container/pqueue"
)

var (
	ErrEmptyInput  = fmt.Errorf("kdtree: empty point set")
	ErrLenMismatch = fmt.Errorf("kdtree: points and tags length mismatch")
	ErrDimensions  = fmt.Errorf("kdtree: point dimensionality mismatch")
)

// DistanceFn computes the distance between two points. The traversal
// pruning geometry assumes a metric for which per-axis clamping yields a
// lower bound of the true distance, such as the squared Euclidean form.
type DistanceFn func(vec, vec1 []float64) (float64, error)

// ResultFn materializes one retained candidate into a caller-visible
// result record.
type ResultFn func(point []float64, tag interface{}) interface{}

// WithBounds sets the sentinel min and max coordinate values used for the
// initial infinite bounding box. Defaults are ±math.MaxFloat64.
func WithBounds(min, max float64) Option {
	return func(t *Tree) {
		t.minBound = min
		t.maxBound = max
	}
}

type Option func(*Tree)

func New(dims int, distFn DistanceFn, opts ...Option) *Tree {
	t := &Tree{
		dims:     dims,
		distFn:   distFn,
		minBound: -math.MaxFloat64,
		maxBound: math.MaxFloat64,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tree stores points and tags in two parallel flat slices addressed as an
// implicit binary heap: left child 2i+1, right child 2i+2, parent (i-1)/2.
// A nil point slot is unoccupied.
type Tree struct {
	dims     int
	distFn   DistanceFn
	minBound float64
	maxBound float64

	points [][]float64
	tags   []interface{}
	count  int
}

func (t *Tree) Dimensions() int { return t.dims }

// Len returns the number of stored points.
func (t *Tree) Len() int { return t.count }

// Size returns the capacity of the flat storage, the smallest power of two
// strictly greater than the stored point count.
func (t *Tree) Size() int { return len(t.points) }

// PointAt returns the point at the given storage index, nil when the slot
// is unoccupied or out of range.
func (t *Tree) PointAt(idx int) []float64 {
	if !t.occupied(idx) {
		return nil
	}
	return t.points[idx]
}

func (t *Tree) TagAt(idx int) interface{} {
	if !t.occupied(idx) {
		return nil
	}
	return t.tags[idx]
}

// Build replaces the tree contents with a freshly partitioned copy of the
// given points and tags. It fails synchronously on empty input, mismatched
// lengths or wrong point dimensionality, leaving prior contents untouched.
func (t *Tree) Build(points [][]float64, tags []interface{}) error {
	if len(points) == 0 {
		return ErrEmptyInput
	}
	if len(points) != len(tags) {
		return fmt.Errorf("%w: %d points, %d tags", ErrLenMismatch, len(points), len(tags))
	}
	for i := range points {
		if len(points[i]) != t.dims {
			return fmt.Errorf("%w: point %d has %d dimensions, want %d", ErrDimensions, i, len(points[i]), t.dims)
		}
	}

	size := 1
	for size <= len(points) {
		size <<= 1
	}
	t.points = make([][]float64, size)
	t.tags = make([]interface{}, size)
	t.count = len(points)

	pts := make([][]float64, len(points))
	copy(pts, points)
	tgs := make([]interface{}, len(tags))
	copy(tgs, tags)
	t.generate(0, 0, pts, tgs)

	return nil
}

// generate stores the median of the subset at the node index and recurses
// into the child slots with the next splitting dimension. The element just
// past the midpoint wins on even-sized subsets, so a left subtree may hold
// one element more than its sibling.
func (t *Tree) generate(index, dim int, points [][]float64, tags []interface{}) {
	switch len(points) {
	case 0:
		return
	case 1:
		t.points[index] = points[0]
		t.tags[index] = tags[0]
	default:
		sort.Stable(&byDimension{dim: dim, points: points, tags: tags})
		mid := len(points) / 2
		t.points[index] = points[mid]
		t.tags[index] = tags[mid]
		next := (dim + 1) % t.dims
		t.generate(leftChildIndex(index), next, points[:mid], tags[:mid])
		t.generate(rightChildIndex(index), next, points[mid+1:], tags[mid+1:])
	}
}

// NearestNeighbors returns up to k stored points closest to the target,
// closest first, each materialized through resultFn. The boolean reports
// whether at least one result was found; k <= 0 and queries against an
// empty tree yield an empty result, not an error.
func (t *Tree) NearestNeighbors(target []float64, k int, resultFn ResultFn) ([]interface{}, bool, error) {
	if len(target) != t.dims {
		return nil, false, fmt.Errorf("%w: target has %d dimensions, want %d", ErrDimensions, len(target), t.dims)
	}
	if k <= 0 || t.count == 0 {
		return nil, false, nil
	}
	list := pqueue.New(pqueue.WithOrderAsc(), pqueue.WithCap(uint(k)))
	if err := t.search(0, target, t.infiniteBox(), 0, list, math.MaxFloat64); err != nil {
		return nil, false, err
	}
	return t.materialize(list, resultFn), list.Len() > 0, nil
}

// RadialSearch returns the stored points within the given radius of the
// center, closest first, capped at k results; k <= 0 lifts the cap to the
// stored point count. The radius is squared before comparison, matching a
// squared-Euclidean metric.
func (t *Tree) RadialSearch(center []float64, radius float64, k int, resultFn ResultFn) ([]interface{}, bool, error) {
	if len(center) != t.dims {
		return nil, false, fmt.Errorf("%w: center has %d dimensions, want %d", ErrDimensions, len(center), t.dims)
	}
	if t.count == 0 {
		return nil, false, nil
	}
	capacity := k
	if k <= 0 {
		capacity = t.count
	}
	list := pqueue.New(pqueue.WithOrderAsc(), pqueue.WithCap(uint(capacity)))
	if err := t.search(0, center, t.infiniteBox(), 0, list, radius*radius); err != nil {
		return nil, false, err
	}
	return t.materialize(list, resultFn), list.Len() > 0, nil
}

// search is the branch-and-bound traversal shared by both query kinds,
// bounded by the maximum admissible squared distance.
func (t *Tree) search(
	index int,
	target []float64,
	box *BBox,
	dim int,
	list *pqueue.Queue,
	maxDistSq float64,
) error {
	if !t.occupied(index) {
		return nil
	}
	point := t.points[index]

	left := box.Clone()
	left.Max[dim] = point[dim]
	right := box.Clone()
	right.Min[dim] = point[dim]

	nearer, further := left, right
	nearerIndex, furtherIndex := leftChildIndex(index), rightChildIndex(index)
	if target[dim] > point[dim] {
		nearer, further = right, left
		nearerIndex, furtherIndex = furtherIndex, nearerIndex
	}

	next := (dim + 1) % t.dims
	if err := t.search(nearerIndex, target, nearer, next, list, maxDistSq); err != nil {
		return err
	}

	// The clamped closest point of the further box lower-bounds every
	// distance reachable inside it.
	furtherDist, err := t.distFn(target, further.Closest(target))
	if err != nil {
		return err
	}
	if furtherDist <= maxDistSq && (!list.Full() || furtherDist < list.MaxPriority()) {
		if err := t.search(furtherIndex, target, further, next, list, maxDistSq); err != nil {
			return err
		}
	}

	nodeDist, err := t.distFn(target, point)
	if err != nil {
		return err
	}
	if nodeDist <= maxDistSq {
		list.Push(index, nodeDist)
	}
	return nil
}

func (t *Tree) materialize(list *pqueue.Queue, resultFn ResultFn) []interface{} {
	results := make([]interface{}, list.Len())
	for i := 0; i < list.Len(); i++ {
		value, _ := list.Seek(i)
		index := value.(int)
		results[i] = resultFn(t.points[index], t.tags[index])
	}
	return results
}

func (t *Tree) infiniteBox() *BBox {
	return NewBBox(t.dims, t.minBound, t.maxBound)
}

func (t *Tree) occupied(idx int) bool {
	return idx >= 0 && idx < len(t.points) && t.points[idx] != nil
}

type byDimension struct {
	dim    int
	points [][]float64
	tags   []interface{}
}

func (s *byDimension) Len() int {
	return len(s.points)
}

func (s *byDimension) Less(i, j int) bool {
	return s.points[i][s.dim] < s.points[j][s.dim]
}

func (s *byDimension) Swap(i, j int) {
	s.points[i], s.points[j] = s.points[j], s.points[i]
	s.tags[i], s.tags[j] = s.tags[j], s.tags[i]
}

func leftChildIndex(idx int) int { return 2*idx + 1 }

func rightChildIndex(idx int) int { return 2*idx + 2 }

func parentIndex(idx int) int { return (idx - 1) / 2 }
