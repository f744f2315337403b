package pbvh

import (
	"github.com/achilleasa/sculptree/bmesh"
	"github.com/achilleasa/sculptree/types"
)

// BoundaryFlag classifies the boundaries a dyntopo vertex lies on.
type BoundaryFlag uint32

// The supported boundary flags.
const (
	BoundaryMesh BoundaryFlag = 1 << iota
	BoundaryFaceSet
	BoundarySeam
	BoundarySharp
	BoundaryUV

	// Set once the flags have been computed. Topology changes clear it.
	boundaryValid
)

// UV coordinates closer than this are considered equal.
const uvEpsilon = 1e-6

func (b *bmeshBackend) markBoundaryDirty(v int) {
	val := b.bm.VData.Int(v, b.cdBoundary)
	b.bm.VData.SetInt(v, b.cdBoundary, val&^int32(boundaryValid))
}

// Scan the faces and edges around v.
func (b *bmeshBackend) calcBoundary(v int) BoundaryFlag {
	bm := b.bm
	var flags BoundaryFlag

	faces := bm.VertFaces(v)
	var (
		firstSet int32
		firstUV  types.Vec2
		haveUV   bool
	)
	for i, f := range faces {
		fset := bm.FData.Int(f, b.cdFaceSet)
		if i == 0 {
			firstSet = fset
		} else if fset != firstSet {
			flags |= BoundaryFaceSet
		}

		uv, ok := bm.FaceVertUV(f, v)
		if !ok {
			continue
		}
		if !haveUV {
			firstUV, haveUV = uv, true
		} else if uv.DistSq(firstUV) > uvEpsilon*uvEpsilon {
			flags |= BoundaryUV
		}
	}

	bm.VertNeighbors(v, func(nb int) {
		if bm.EdgeFaceCount(v, nb) == 1 {
			flags |= BoundaryMesh
		}
		edgeFlags := bm.EdgeFlags(v, nb)
		if edgeFlags&bmesh.EdgeSeam != 0 {
			flags |= BoundarySeam
		}
		if edgeFlags&bmesh.EdgeSharp != 0 {
			flags |= BoundarySharp
		}
	})
	return flags
}

// VertexBoundary returns the boundary flags of a dyntopo vertex. Flags are
// recomputed lazily if a topology change touched the vertex since the last
// query. Concurrent callers must only query vertices their leaf owns.
func (t *Tree) VertexBoundary(v int) BoundaryFlag {
	b := t.dyntopo()
	val := BoundaryFlag(b.bm.VData.Int(v, b.cdBoundary))
	if val&boundaryValid == 0 {
		val = b.calcBoundary(v) | boundaryValid
		b.bm.VData.SetInt(v, b.cdBoundary, int32(val))
	}
	return val &^ boundaryValid
}

// Returns true if the boundary flags of v must be recomputed.
func (t *Tree) VertexBoundaryNeedsUpdate(v int) bool {
	b := t.dyntopo()
	return BoundaryFlag(b.bm.VData.Int(v, b.cdBoundary))&boundaryValid == 0
}

// Force a boundary flag recompute for v, e.g. after editing seams or face
// sets directly on the mesh.
func (t *Tree) MarkVertexBoundaryDirty(v int) {
	t.dyntopo().markBoundaryDirty(v)
}

// Recompute the stale boundary flags of the vertices owned by the given
// leaves.
func (t *Tree) UpdateBoundaryFlags(nodes []int) {
	b := t.dyntopo()
	t.forNodes(nodes, func(node int) {
		for _, v := range t.nodes[node].bmUniqueVerts.Items() {
			val := BoundaryFlag(b.bm.VData.Int(v, b.cdBoundary))
			if val&boundaryValid == 0 {
				b.bm.VData.SetInt(v, b.cdBoundary, int32(b.calcBoundary(v)|boundaryValid))
			}
		}
	})
}
