package pbvh

import (
	"github.com/achilleasa/sculptree/bbox"
)

// NodeFlag is a bitset of node state and pending update requests.
type NodeFlag uint32

// The supported node flags.
const (
	Leaf NodeFlag = 1 << iota
	UpdateNormals
	UpdateBB
	UpdateOriginalBB
	UpdateDrawBuffers
	UpdateRedraw
	UpdateMask
	UpdateVisibility
	RebuildDrawBuffers
	FullyHidden
	FullyMasked
	FullyUnmasked
	UpdateTopology
	UpdateTris
	UpdateOtherVerts
)

// The flags set on a node after its geometry has been modified.
const updateGeometry = UpdateBB | UpdateOriginalBB | UpdateNormals | UpdateRedraw | UpdateDrawBuffers

// Returns true if any of the bits in mask are set.
func (f NodeFlag) Has(mask NodeFlag) bool {
	return f&mask != 0
}

// TriBuf holds the draw triangulation of a dyntopo leaf. Tris index into
// Verts which lists vertex handles.
type TriBuf struct {
	Verts []int
	Tris  [][3]int
}

// Node is a BVH node. Leaves own a slice of the tree primitive array (faces
// and grids backends) or a set of faces (dyntopo backend).
type Node struct {
	// Current and original (at stroke start) bounds.
	VB     bbox.BB
	OrigVB bbox.BB

	// Index of the first child; 0 for leaves. Children are always stored
	// as an adjacent pair.
	ChildrenOffset int

	// Index of the parent node or -1 for the root.
	Parent int
	Depth  int

	Flag NodeFlag

	// Slice into Tree.primIndices.
	primStart int
	primCount int

	// Slice into Tree.vertIndices. The first UniqVerts entries are owned by
	// this node; the remaining FaceVerts are owned by other leaves.
	vertStart int
	UniqVerts int
	FaceVerts int

	// Dyntopo payload.
	bmFaces       *handleSet
	bmUniqueVerts *handleSet
	bmOtherVerts  *handleSet
	TriBuf        *TriBuf

	// Opaque handle owned by the draw collaborator.
	DrawBatches any

	// Ray traversal scratch.
	TMin float32
}

// Returns true if this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.ChildrenOffset == 0
}

// Get the number of primitives in a faces or grids leaf.
func (n *Node) PrimCount() int {
	return n.primCount
}

// Set the flags in mask.
func (n *Node) MarkFlags(mask NodeFlag) {
	n.Flag |= mask
}

// Request a bounds, normal and redraw update for this node.
func (n *Node) MarkUpdate() {
	n.Flag |= updateGeometry
}

// Request a mask flag recompute and redraw for this node.
func (n *Node) MarkUpdateMask() {
	n.Flag |= UpdateMask | UpdateDrawBuffers | UpdateRedraw
}

// Request a redraw for this node.
func (n *Node) MarkRedraw() {
	n.Flag |= UpdateDrawBuffers | UpdateRedraw
}

// Request a visibility update for this node.
func (n *Node) MarkUpdateVisibility() {
	n.Flag |= UpdateVisibility | RebuildDrawBuffers | UpdateDrawBuffers | UpdateRedraw
}
