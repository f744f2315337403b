package pbvh

import (
	"errors"
	"fmt"
)

var ErrInvariant = errors.New("pbvh: invariant violated")

func invariantErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

// Validate checks the structural invariants of the tree: node links, split
// termination, the primitive partition and unique vertex ownership. It is
// meant for tests and debugging; the cost is linear in the tree size.
func (t *Tree) Validate() error {
	t.assertBuilt()

	if err := t.validateNodes(); err != nil {
		return err
	}
	switch b := t.backend.(type) {
	case *facesBackend:
		if err := t.validatePrims(); err != nil {
			return err
		}
		return t.validateFaceVerts(b)
	case *gridsBackend:
		return t.validatePrims()
	case *bmeshBackend:
		return t.validateDyntopo(b)
	}
	return nil
}

func (t *Tree) validateNodes() error {
	if t.nodes[0].Parent != -1 {
		return invariantErr("root has parent %d", t.nodes[0].Parent)
	}
	for index := 0; index < t.totnode; index++ {
		n := &t.nodes[index]
		if n.IsLeaf() {
			if !n.Flag.Has(Leaf) {
				return invariantErr("leaf node %d is missing the Leaf flag", index)
			}
			if count := t.leafPrimCount(index); count > t.opts.LeafLimit && n.Depth < t.opts.MaxDepth {
				return invariantErr("leaf node %d at depth %d has %d primitives (limit %d)", index, n.Depth, count, t.opts.LeafLimit)
			}
			continue
		}

		if n.Flag.Has(Leaf) {
			return invariantErr("internal node %d has the Leaf flag", index)
		}
		first := n.ChildrenOffset
		if first <= index || first+1 >= t.totnode {
			return invariantErr("node %d has invalid children offset %d", index, first)
		}
		for c := first; c <= first+1; c++ {
			if t.nodes[c].Parent != index {
				return invariantErr("node %d is a child of %d but records parent %d", c, index, t.nodes[c].Parent)
			}
			if t.nodes[c].Depth != n.Depth+1 {
				return invariantErr("node %d has depth %d; expected %d", c, t.nodes[c].Depth, n.Depth+1)
			}
		}
	}
	return nil
}

// Every primitive must belong to exactly one leaf.
func (t *Tree) validatePrims() error {
	seen := make([]int, len(t.primIndices))
	for _, leaf := range t.Leaves() {
		for _, p := range t.NodePrims(leaf) {
			seen[p]++
		}
	}
	for p, count := range seen {
		if count != 1 {
			return invariantErr("primitive %d is referenced by %d leaves", p, count)
		}
	}
	return nil
}

// Every vertex must be unique to one leaf and listed by every leaf that has
// a face using it.
func (t *Tree) validateFaceVerts(b *facesBackend) error {
	owner := make([]int, b.mesh.NumVerts())
	for v := range owner {
		owner[v] = -1
	}
	for _, leaf := range t.Leaves() {
		verts, uniq := b.nodeVerts(leaf)
		for _, v := range verts[:uniq] {
			if owner[v] != -1 {
				return invariantErr("vertex %d is unique to leaves %d and %d", v, owner[v], leaf)
			}
			owner[v] = leaf
		}
	}

	for _, leaf := range t.Leaves() {
		verts, _ := b.nodeVerts(leaf)
		listed := make(map[int]bool, len(verts))
		for _, v := range verts {
			listed[v] = true
		}
		for _, p := range t.NodePrims(leaf) {
			for _, v := range b.mesh.PolyVerts(p) {
				if !listed[v] {
					return invariantErr("leaf %d does not list vertex %d of face %d", leaf, v, p)
				}
				if owner[v] == -1 {
					return invariantErr("vertex %d of face %d has no owner", v, p)
				}
			}
		}
	}
	return nil
}

func (t *Tree) validateDyntopo(b *bmeshBackend) error {
	bm := b.bm
	faceCount := 0
	for _, leaf := range t.Leaves() {
		n := &t.nodes[leaf]
		for _, f := range n.bmFaces.Items() {
			faceCount++
			if !bm.IsFaceAlive(f) {
				return invariantErr("leaf %d references dead face %d", leaf, f)
			}
			if owner := b.faceOwner(f); owner != leaf {
				return invariantErr("face %d is in leaf %d but owned by %d", f, leaf, owner)
			}
			for _, v := range bm.FaceVerts(f) {
				owner := b.vertOwner(v)
				switch {
				case owner == DyntopoNodeNone:
					return invariantErr("vertex %d of face %d has no owner", v, f)
				case owner == leaf && !n.bmUniqueVerts.Contains(v):
					return invariantErr("leaf %d owns vertex %d but does not list it", leaf, v)
				case owner != leaf && !n.bmOtherVerts.Contains(v):
					return invariantErr("leaf %d does not list shared vertex %d", leaf, v)
				}
			}
		}
		for _, v := range n.bmUniqueVerts.Items() {
			if owner := b.vertOwner(v); owner != leaf {
				return invariantErr("vertex %d is unique to leaf %d but owned by %d", v, leaf, owner)
			}
		}
		for _, v := range n.bmOtherVerts.Items() {
			if owner := b.vertOwner(v); owner == leaf || owner == DyntopoNodeNone {
				return invariantErr("shared vertex %d of leaf %d has owner %d", v, leaf, owner)
			}
		}
	}

	if faceCount != bm.NumFaces() {
		return invariantErr("tree references %d faces; mesh has %d", faceCount, bm.NumFaces())
	}
	return nil
}
