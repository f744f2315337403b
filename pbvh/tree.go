// Package pbvh implements a dynamic bounding volume hierarchy that partitions
// a sculpt mesh into leaves of spatially coherent primitives.
//
// The tree supports three backends which are selected once at build time: a
// static face mesh, multiresolution grids and a dynamic topology mesh whose
// faces can be inserted and removed while the tree is live. Leaves carry
// dirty flags which drive incremental bounds, normal, mask and redraw
// updates. Vertex ownership is unique per leaf so that node passes can run
// concurrently without synchronizing writes.
package pbvh

import (
	"github.com/achilleasa/sculptree/bbox"
	"github.com/achilleasa/sculptree/bmesh"
	"github.com/achilleasa/sculptree/log"
	"github.com/achilleasa/sculptree/mesh"
	"github.com/achilleasa/sculptree/parallel"
)

// BackendType identifies the data provider of a tree.
type BackendType uint8

// The supported backends.
const (
	FacesBackend BackendType = iota
	GridsBackend
	BMeshBackend
)

func (b BackendType) String() string {
	switch b {
	case FacesBackend:
		return "faces"
	case GridsBackend:
		return "grids"
	case BMeshBackend:
		return "dyntopo"
	}
	return "unknown"
}

// Tree is a sculpt BVH.
type Tree struct {
	logger log.Logger
	opts   Options

	backend backend

	// Nodes are stored in a flat array; only the first totnode entries
	// are in use. The array capacity doubles on growth.
	nodes   []Node
	totnode int

	// Backing arrays for the primitive and vertex slices of leaves.
	primIndices []int
	vertIndices []int

	// Four entries per primIndices entry mapping each face corner to a
	// node local vertex index (-1 for unused corners).
	faceVertIndices []int32

	cache cacheKey
	built bool
}

func newTree(opts Options) (*Tree, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Tree{
		logger: log.New("pbvh"),
		opts:   opts,
	}, nil
}

// Make sure the node array can hold total nodes and bump the node count.
func (t *Tree) growNodes(total int) {
	if total > len(t.nodes) {
		capacity := len(t.nodes) * 2
		if capacity < total {
			capacity = total
		}
		nodes := make([]Node, capacity)
		copy(nodes, t.nodes[:t.totnode])
		t.nodes = nodes
	}
	t.totnode = total
}

// Append a pair of children for parent and return the index of the first
// one. Node pointers obtained before this call are invalidated.
func (t *Tree) allocChildPair(parent int) int {
	offset := t.totnode
	t.growNodes(offset + 2)

	depth := t.nodes[parent].Depth + 1
	for i := offset; i < offset+2; i++ {
		t.nodes[i] = Node{Parent: parent, Depth: depth}
	}
	t.nodes[parent].ChildrenOffset = offset
	t.nodes[parent].Flag &^= Leaf
	return offset
}

func (t *Tree) assertBuilt() {
	assert(t != nil && t.built, "tree has not been built")
}

func (t *Tree) assertNode(index int) {
	t.assertBuilt()
	assert(index >= 0 && index < t.totnode, "node index %d out of range [0, %d)", index, t.totnode)
}

// Get the backend type.
func (t *Tree) Backend() BackendType {
	t.assertBuilt()
	return t.backend.kind()
}

// Get the options the tree was built with.
func (t *Tree) Options() Options {
	return t.opts
}

// Get the number of nodes.
func (t *Tree) NumNodes() int {
	t.assertBuilt()
	return t.totnode
}

// Access a node by index.
func (t *Tree) Node(index int) *Node {
	t.assertNode(index)
	return &t.nodes[index]
}

// Get the indices of all leaves in traversal order.
func (t *Tree) Leaves() []int {
	return t.SearchGather(nil)
}

// Get the bounds of the whole tree.
func (t *Tree) Bounds() bbox.BB {
	t.assertBuilt()
	return t.nodes[0].VB
}

// Get the primitives (face or grid indices) of a faces or grids leaf.
func (t *Tree) NodePrims(index int) []int {
	t.assertNode(index)
	assert(t.backend.kind() != BMeshBackend, "dyntopo leaves do not have primitive slices")
	n := &t.nodes[index]
	return t.primIndices[n.primStart : n.primStart+n.primCount]
}

// Get the vertices referenced by a leaf. The first unique entries are owned
// by the leaf.
func (t *Tree) NodeVerts(index int) (verts []int, unique int) {
	t.assertNode(index)
	return t.backend.nodeVerts(index)
}

// Get the static mesh of a faces tree.
func (t *Tree) Mesh() *mesh.Mesh {
	t.assertBuilt()
	b, ok := t.backend.(*facesBackend)
	assert(ok, "%s tree has no face mesh", t.backend.kind())
	return b.mesh
}

// Get the grids of a grids tree.
func (t *Tree) Grids() *mesh.Grids {
	t.assertBuilt()
	b, ok := t.backend.(*gridsBackend)
	assert(ok, "%s tree has no grids", t.backend.kind())
	return b.grids
}

// Get the dynamic mesh of a dyntopo tree.
func (t *Tree) BMesh() *bmesh.Mesh {
	return t.dyntopo().bm
}

func (t *Tree) dyntopo() *bmeshBackend {
	t.assertBuilt()
	b, ok := t.backend.(*bmeshBackend)
	assert(ok, "operation requires a dyntopo tree; got %s", t.backend.kind())
	return b
}

// Get the executor settings for a pass over n nodes.
func (t *Tree) parallelSettings(n int) parallel.Settings {
	return ParallelSettings(t.opts.UseThreading, n)
}

// Ancestors of a node, nearest first.
func (t *Tree) forEachAncestor(index int, fn func(ancestor int)) {
	for p := t.nodes[index].Parent; p != -1; p = t.nodes[p].Parent {
		fn(p)
	}
}
