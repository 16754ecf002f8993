package kdtree

// Navigator is a read-only view over the flat tree storage at one node
// index. It is a transient (tree, index) pair computed per access, holds
// no cached state and never mutates the tree.
type Navigator struct {
	tree  *Tree
	index int
}

// Navigator returns a navigator positioned at the root, nil when the tree
// is empty or not built.
func (t *Tree) Navigator() *Navigator {
	if !t.occupied(0) {
		return nil
	}
	return &Navigator{tree: t}
}

func (n *Navigator) Index() int {
	return n.index
}

func (n *Navigator) Point() []float64 {
	return n.tree.points[n.index]
}

func (n *Navigator) Tag() interface{} {
	return n.tree.tags[n.index]
}

// Left returns the left-child navigator, nil when the slot is unoccupied.
func (n *Navigator) Left() *Navigator {
	return n.at(leftChildIndex(n.index))
}

// Right returns the right-child navigator, nil when the slot is unoccupied.
func (n *Navigator) Right() *Navigator {
	return n.at(rightChildIndex(n.index))
}

// Parent returns the parent navigator, nil at the root.
func (n *Navigator) Parent() *Navigator {
	if n.index == 0 {
		return nil
	}
	return n.at(parentIndex(n.index))
}

func (n *Navigator) at(idx int) *Navigator {
	if !n.tree.occupied(idx) {
		return nil
	}
	return &Navigator{tree: n.tree, index: idx}
}
