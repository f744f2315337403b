package pbvh

import (
	"github.com/achilleasa/sculptree/bbox"
	"github.com/achilleasa/sculptree/geom"
	"github.com/achilleasa/sculptree/types"
)

// backend adapts a mesh data provider to the tree. Vertex ids are backend
// specific: mesh vertex indices for faces, grid*gridArea+element for grids
// and vertex handles for dyntopo.
type backend interface {
	kind() BackendType

	// Build support.
	numPrims() int
	primBBC(prim int) bbox.BBC
	buildLeaf(node int)
	leafBB(node int) bbox.BB

	// Vertex access.
	vertCount() int
	forEachNodeVert(node int, mode IterMode, fn func(v int, unique bool))
	nodeVerts(node int) (verts []int, unique int)
	vertCo(v int) types.Vec3
	setVertCo(v int, co types.Vec3)
	vertNo(v int) types.Vec3
	vertMask(v int) float32
	setVertMask(v int, mask float32)
	vertVisible(v int) bool
	vertNeighbors(v int, fn func(nb int))

	// Node passes.
	updateFaceNormals(node int)
	updateVertNormals(node int)
	nodeFullyHidden(node int) bool

	// Queries.
	raycastNode(node int, ray geom.Ray, hit *RayHit) bool
	nearestNode(node int, ray geom.Ray, hit *NearestHit) bool

	cacheKey() cacheKey
}

// Record a closer hit on face and pick the face vertex nearest to the hit
// point as the active vertex.
func (h *RayHit) recordFace(ray geom.Ray, node, face int, normal types.Vec3, verts []int, co func(v int) types.Vec3) {
	h.Node = node
	h.Face = face
	h.FaceNormal = normal

	p := ray.At(h.Depth)
	best := float32(-1)
	for _, v := range verts {
		if d := co(v).DistSq(p); best < 0 || d < best {
			best = d
			h.Vertex = v
		}
	}
}
