package pbvh

import (
	"sort"

	"github.com/achilleasa/sculptree/bbox"
	"github.com/achilleasa/sculptree/parallel"
)

// Run fn for each node in nodes on the worker pool.
func (t *Tree) forNodes(nodes []int, fn func(node int)) {
	parallel.Range(len(nodes), t.parallelSettings(len(nodes)), func(i int) {
		fn(nodes[i])
	})
}

// Refresh the bounds of the ancestors of leaves from their children. Every
// ancestor is visited once, deepest first.
func (t *Tree) refreshAncestors(leaves []int, sel func(n *Node) *bbox.BB) {
	visited := make(map[int]bool)
	var ancestors []int
	for _, leaf := range leaves {
		for p := t.nodes[leaf].Parent; p != -1 && !visited[p]; p = t.nodes[p].Parent {
			visited[p] = true
			ancestors = append(ancestors, p)
		}
	}

	sort.Slice(ancestors, func(i, j int) bool {
		di, dj := t.nodes[ancestors[i]].Depth, t.nodes[ancestors[j]].Depth
		if di != dj {
			return di > dj
		}
		return ancestors[i] < ancestors[j]
	})

	for _, index := range ancestors {
		n := &t.nodes[index]
		left, right := &t.nodes[n.ChildrenOffset], &t.nodes[n.ChildrenOffset+1]
		*sel(n) = bbox.Union(*sel(left), *sel(right))
	}
}

// Recompute the bounds of leaves flagged with UpdateBB from the live vertex
// positions and propagate the change to their ancestors.
func (t *Tree) UpdateBB() {
	leaves := t.SearchGather(WithFlag(UpdateBB))
	if len(leaves) == 0 {
		return
	}

	t.forNodes(leaves, func(node int) {
		n := &t.nodes[node]
		n.VB = t.backend.leafBB(node)
		n.Flag &^= UpdateBB
	})
	t.refreshAncestors(leaves, func(n *Node) *bbox.BB { return &n.VB })
}

// Copy the current bounds of leaves flagged with UpdateOriginalBB into their
// original bounds and propagate the change to their ancestors.
func (t *Tree) UpdateOriginalBB() {
	leaves := t.SearchGather(WithFlag(UpdateOriginalBB))
	if len(leaves) == 0 {
		return
	}

	for _, leaf := range leaves {
		n := &t.nodes[leaf]
		n.OrigVB = n.VB
		n.Flag &^= UpdateOriginalBB
	}
	t.refreshAncestors(leaves, func(n *Node) *bbox.BB { return &n.OrigVB })
}

// Get the union of the bounds of leaves that need a redraw. The result is
// empty if no leaf is flagged.
func (t *Tree) RedrawBB() bbox.BB {
	bb := bbox.Empty()
	for _, leaf := range t.SearchGather(WithFlag(UpdateRedraw)) {
		bb.ExpandWith(t.nodes[leaf].VB)
	}
	return bb
}

// Clear pending redraw requests and schedule a draw buffer update for the
// affected leaves.
func (t *Tree) UpdateRedraw() {
	for _, leaf := range t.SearchGather(WithFlag(UpdateRedraw)) {
		n := &t.nodes[leaf]
		n.Flag &^= UpdateRedraw
		n.Flag |= UpdateDrawBuffers
	}
}

// Invoke fn for every leaf that needs its draw buffers updated or rebuilt and
// clear the request. fn receives the flags that were pending.
func (t *Tree) UpdateDrawBuffers(fn func(node int, pending NodeFlag)) {
	for _, leaf := range t.SearchGather(WithFlag(UpdateDrawBuffers | RebuildDrawBuffers)) {
		n := &t.nodes[leaf]
		pending := n.Flag & (UpdateDrawBuffers | RebuildDrawBuffers)
		n.Flag &^= pending
		if fn != nil {
			fn(leaf, pending)
		}
	}
}

// Recompute the FullyHidden flag of leaves flagged with UpdateVisibility.
func (t *Tree) UpdateVisibility() {
	leaves := t.SearchGather(WithFlag(UpdateVisibility))
	t.forNodes(leaves, func(node int) {
		n := &t.nodes[node]
		if t.backend.nodeFullyHidden(node) {
			n.Flag |= FullyHidden
		} else {
			n.Flag &^= FullyHidden
		}
		n.Flag &^= UpdateVisibility
	})
}

// Recompute the FullyMasked and FullyUnmasked flags of leaves flagged with
// UpdateMask.
func (t *Tree) UpdateMaskFlags() {
	leaves := t.SearchGather(WithFlag(UpdateMask))
	t.forNodes(leaves, func(node int) {
		fullyMasked, fullyUnmasked := true, true
		t.backend.forEachNodeVert(node, IterAll, func(v int, _ bool) {
			mask := t.backend.vertMask(v)
			if mask < 1 {
				fullyMasked = false
			}
			if mask > 0 {
				fullyUnmasked = false
			}
		})

		n := &t.nodes[node]
		n.Flag &^= FullyMasked | FullyUnmasked | UpdateMask
		if fullyMasked {
			n.Flag |= FullyMasked
		}
		if fullyUnmasked {
			n.Flag |= FullyUnmasked
		}
	})
}

// Recompute the normals of leaves flagged with UpdateNormals. Face normals
// are updated for all flagged leaves before any vertex normal is
// accumulated.
func (t *Tree) UpdateNormals() {
	leaves := t.SearchGather(WithFlag(UpdateNormals))
	if len(leaves) == 0 {
		return
	}

	t.forNodes(leaves, t.backend.updateFaceNormals)
	t.forNodes(leaves, func(node int) {
		t.backend.updateVertNormals(node)
		n := &t.nodes[node]
		n.Flag &^= UpdateNormals
		n.Flag |= UpdateDrawBuffers
	})
}
