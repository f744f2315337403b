package pbvh

import (
	"github.com/achilleasa/sculptree/types"
)

// IterMode selects the vertices visited by ForEachVertex.
type IterMode uint8

// The supported iteration modes.
const (
	// Visit only the vertices owned by the node. Writes are safe when
	// nodes are processed concurrently.
	IterUnique IterMode = iota

	// Visit every vertex referenced by the node's faces.
	IterAll
)

// VertexData is the view of a vertex passed to ForEachVertex callbacks.
// Changes to Co and Mask are written back once the callback returns.
type VertexData struct {
	Index   int
	Co      types.Vec3
	No      types.Vec3
	Mask    float32
	Visible bool
	Unique  bool
}

// Invoke fn for the vertices of a leaf. Modified coordinates and mask values
// are written back to the backing mesh; the caller is responsible for
// flagging the node.
func (t *Tree) ForEachVertex(node int, mode IterMode, fn func(vd *VertexData)) {
	t.assertNode(node)
	b := t.backend
	b.forEachNodeVert(node, mode, func(v int, unique bool) {
		vd := VertexData{
			Index:   v,
			Co:      b.vertCo(v),
			No:      b.vertNo(v),
			Mask:    b.vertMask(v),
			Visible: b.vertVisible(v),
			Unique:  unique,
		}
		co, mask := vd.Co, vd.Mask

		fn(&vd)

		if vd.Co != co {
			b.setVertCo(v, vd.Co)
		}
		if vd.Mask != mask {
			b.setVertMask(v, vd.Mask)
		}
	})
}

// Get the upper bound (exclusive) of vertex ids.
func (t *Tree) VertexCount() int {
	t.assertBuilt()
	return t.backend.vertCount()
}

// Get the position of a vertex.
func (t *Tree) VertexCo(v int) types.Vec3 {
	return t.backend.vertCo(v)
}

// Get the normal of a vertex.
func (t *Tree) VertexNormal(v int) types.Vec3 {
	return t.backend.vertNo(v)
}

// Get the mask value of a vertex.
func (t *Tree) VertexMask(v int) float32 {
	return t.backend.vertMask(v)
}

// Set the mask value of a vertex.
func (t *Tree) SetVertexMask(v int, mask float32) {
	t.backend.setVertMask(v, mask)
}

// Returns true if the vertex is not hidden.
func (t *Tree) VertexVisible(v int) bool {
	return t.backend.vertVisible(v)
}

// Invoke fn for every vertex connected to v by an edge. Grid neighbors are
// limited to the grid containing v.
func (t *Tree) VertexNeighbors(v int, fn func(nb int)) {
	t.backend.vertNeighbors(v, fn)
}

// Copy the mask value of every vertex into a slice indexed by vertex id.
// Filters read neighbor values from a snapshot while writing the live mask.
func (t *Tree) MaskSnapshot() []float32 {
	t.assertBuilt()
	out := make([]float32, t.backend.vertCount())
	leaves := t.Leaves()
	t.forNodes(leaves, func(node int) {
		t.backend.forEachNodeVert(node, IterUnique, func(v int, _ bool) {
			out[v] = t.backend.vertMask(v)
		})
	})
	return out
}
