package kdtree

// BBox is an axis-aligned bounding box described by per-dimension min and
// max corners. Boxes are transient search state: a traversal clones and
// narrows them, never sharing one mutably across sibling branches.
type BBox struct {
	Min []float64
	Max []float64
}

// NewBBox returns a box spanning [min, max] on every one of dims axes.
func NewBBox(dims int, min, max float64) *BBox {
	b := &BBox{
		Min: make([]float64, dims),
		Max: make([]float64, dims),
	}
	for i := 0; i < dims; i++ {
		b.Min[i] = min
		b.Max[i] = max
	}
	return b
}

func (b *BBox) Clone() *BBox {
	clone := &BBox{
		Min: make([]float64, len(b.Min)),
		Max: make([]float64, len(b.Max)),
	}
	copy(clone.Min, b.Min)
	copy(clone.Max, b.Max)
	return clone
}

// Closest returns the point inside the box nearest to the target by
// clamping each target coordinate into the box bounds on its axis. The
// result is a geometric lower-bound oracle, not a stored tree point.
func (b *BBox) Closest(target []float64) []float64 {
	closest := make([]float64, len(target))
	for i := range target {
		switch {
		case target[i] < b.Min[i]:
			closest[i] = b.Min[i]
		case target[i] > b.Max[i]:
			closest[i] = b.Max[i]
		default:
			closest[i] = target[i]
		}
	}
	return closest
}
