package pbvh

import (
	"github.com/achilleasa/sculptree/bbox"
)

// A Filter selects nodes during a search. It is evaluated for internal nodes
// as well as leaves; returning false for an internal node prunes its subtree.
type Filter func(n *Node) bool

// Select nodes whose bounds overlap bb.
func InBBox(bb bbox.BB) Filter {
	return func(n *Node) bool {
		return n.VB.Overlaps(bb)
	}
}

// Select leaves with any of the given flags set. Internal nodes always pass.
func WithFlag(flag NodeFlag) Filter {
	return func(n *Node) bool {
		return !n.IsLeaf() || n.Flag.Has(flag)
	}
}

// Select nodes that pass all filters.
func All(filters ...Filter) Filter {
	return func(n *Node) bool {
		for _, f := range filters {
			if f != nil && !f(n) {
				return false
			}
		}
		return true
	}
}

// SearchGather returns the leaves that pass filter in depth first order,
// left child before right child. A nil filter selects every leaf.
func (t *Tree) SearchGather(filter Filter) []int {
	t.assertBuilt()

	var out []int
	stack := make([]int, 1, t.opts.MaxDepth+2)
	stack[0] = 0
	for len(stack) > 0 {
		index := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &t.nodes[index]
		if filter != nil && !filter(n) {
			continue
		}
		if n.IsLeaf() {
			out = append(out, index)
			continue
		}
		stack = append(stack, n.ChildrenOffset+1, n.ChildrenOffset)
	}
	return out
}

// Set flags on every leaf.
func (t *Tree) MarkLeaves(flags NodeFlag) {
	for _, leaf := range t.Leaves() {
		t.nodes[leaf].Flag |= flags
	}
}
