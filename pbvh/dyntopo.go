package pbvh

import (
	"github.com/achilleasa/sculptree/bbox"
	"github.com/achilleasa/sculptree/bmesh"
	"github.com/achilleasa/sculptree/geom"
	"github.com/achilleasa/sculptree/types"
)

// DyntopoNodeNone is the owner of vertices and faces that do not belong to
// any leaf.
const DyntopoNodeNone = -1

// Custom data layers maintained by the dyntopo backend.
const (
	vertOwnerLayer = "pbvh_vert_owner"
	faceOwnerLayer = "pbvh_face_owner"
	boundaryLayer  = "pbvh_boundary"
)

// The flags set on leaves whose face set changed.
const updateTopology = updateGeometry | UpdateTopology | UpdateTris | UpdateOtherVerts | UpdateVisibility | UpdateMask

// bmeshBackend partitions the faces of a dynamic topology mesh. Each leaf
// keeps the set of faces it owns, the vertices it owns and the vertices of
// its faces that are owned by other leaves.
type bmeshBackend struct {
	t  *Tree
	bm *bmesh.Mesh

	// Face handles indexed by primitive; only valid during the build.
	faces []int

	// Custom data offsets. Owner slots store the leaf index + 1 so that
	// freshly allocated (zeroed) elements are unowned.
	cdVertOwner int
	cdFaceOwner int
	cdBoundary  int
	cdMask      int
	cdFaceSet   int
}

// Build a tree over the faces of a dynamic topology mesh. The mesh gains
// custom data layers that track the leaf owning each vertex and face.
func BuildBMesh(bm *bmesh.Mesh, opts Options) (*Tree, error) {
	t, err := newTree(opts)
	if err != nil {
		return nil, err
	}

	b := &bmeshBackend{t: t, bm: bm}
	b.cdVertOwner = bm.VData.AddLayer(vertOwnerLayer, bmesh.LayerInt)
	b.cdBoundary = bm.VData.AddLayer(boundaryLayer, bmesh.LayerInt)
	b.cdMask = bm.VData.AddLayer(bmesh.MaskLayer, bmesh.LayerFloat)
	b.cdFaceOwner = bm.FData.AddLayer(faceOwnerLayer, bmesh.LayerInt)
	b.cdFaceSet = bm.FData.AddLayer(bmesh.FaceSetLayer, bmesh.LayerInt)

	for v := 0; v < bm.VertCap(); v++ {
		if bm.IsVertAlive(v) {
			b.setVertOwner(v, DyntopoNodeNone)
			b.markBoundaryDirty(v)
		}
	}
	for f := 0; f < bm.FaceCap(); f++ {
		if bm.IsFaceAlive(f) {
			b.setFaceOwner(f, DyntopoNodeNone)
			b.faces = append(b.faces, f)
		}
	}

	t.backend = b
	t.build()
	b.faces = nil
	return t, nil
}

func (b *bmeshBackend) vertOwner(v int) int {
	return int(b.bm.VData.Int(v, b.cdVertOwner)) - 1
}

func (b *bmeshBackend) setVertOwner(v, node int) {
	b.bm.VData.SetInt(v, b.cdVertOwner, int32(node+1))
}

func (b *bmeshBackend) faceOwner(f int) int {
	return int(b.bm.FData.Int(f, b.cdFaceOwner)) - 1
}

func (b *bmeshBackend) setFaceOwner(f, node int) {
	b.bm.FData.SetInt(f, b.cdFaceOwner, int32(node+1))
}

func (b *bmeshBackend) faceBBC(f int) bbox.BBC {
	bb := bbox.Empty()
	for _, v := range b.bm.FaceVerts(f) {
		bb.Expand(b.bm.Vert(v).Co)
	}
	return bbox.NewBBC(bb)
}

func (b *bmeshBackend) kind() BackendType { return BMeshBackend }
func (b *bmeshBackend) numPrims() int { return len(b.faces) }

func (b *bmeshBackend) primBBC(prim int) bbox.BBC {
	return b.faceBBC(b.faces[prim])
}

func (b *bmeshBackend) buildLeaf(node int) {
	t := b.t
	n := &t.nodes[node]
	prims := t.primIndices[n.primStart : n.primStart+n.primCount]

	n.bmFaces = newHandleSet(len(prims))
	n.bmUniqueVerts = newHandleSet(len(prims))
	n.bmOtherVerts = newHandleSet(0)
	for _, p := range prims {
		b.attachFace(node, b.faces[p])
	}
	n.Flag |= UpdateTris | UpdateOtherVerts
}

// Add face f to the sets of leaf node and claim its unowned vertices.
func (b *bmeshBackend) attachFace(node, f int) {
	n := &b.t.nodes[node]
	n.bmFaces.Add(f)
	b.setFaceOwner(f, node)
	for _, v := range b.bm.FaceVerts(f) {
		switch owner := b.vertOwner(v); owner {
		case DyntopoNodeNone:
			b.setVertOwner(v, node)
			n.bmUniqueVerts.Add(v)
		case node:
		default:
			n.bmOtherVerts.Add(v)
		}
		b.markBoundaryDirty(v)
	}
}

func (b *bmeshBackend) leafBB(node int) bbox.BB {
	n := &b.t.nodes[node]
	bb := bbox.Empty()
	for _, f := range n.bmFaces.Items() {
		for _, v := range b.bm.FaceVerts(f) {
			bb.Expand(b.bm.Vert(v).Co)
		}
	}
	for _, v := range n.bmUniqueVerts.Items() {
		bb.Expand(b.bm.Vert(v).Co)
	}
	return bb
}

func (b *bmeshBackend) vertCount() int {
	return b.bm.VertCap()
}

func (b *bmeshBackend) nodeVerts(node int) ([]int, int) {
	n := &b.t.nodes[node]
	verts := make([]int, 0, n.bmUniqueVerts.Len()+n.bmOtherVerts.Len())
	verts = append(verts, n.bmUniqueVerts.Items()...)
	verts = append(verts, n.bmOtherVerts.Items()...)
	return verts, n.bmUniqueVerts.Len()
}

func (b *bmeshBackend) forEachNodeVert(node int, mode IterMode, fn func(v int, unique bool)) {
	n := &b.t.nodes[node]
	for _, v := range n.bmUniqueVerts.Items() {
		fn(v, true)
	}
	if mode == IterAll {
		for _, v := range n.bmOtherVerts.Items() {
			fn(v, false)
		}
	}
}

func (b *bmeshBackend) vertCo(v int) types.Vec3 { return b.bm.Vert(v).Co }
func (b *bmeshBackend) setVertCo(v int, co types.Vec3) { b.bm.Vert(v).Co = co }
func (b *bmeshBackend) vertNo(v int) types.Vec3 { return b.bm.Vert(v).No }
func (b *bmeshBackend) vertMask(v int) float32 { return b.bm.VData.Float(v, b.cdMask) }
func (b *bmeshBackend) setVertMask(v int, mask float32) { b.bm.VData.SetFloat(v, b.cdMask, mask) }
func (b *bmeshBackend) vertVisible(v int) bool { return !b.bm.Vert(v).Hidden }
func (b *bmeshBackend) vertNeighbors(v int, fn func(int)) { b.bm.VertNeighbors(v, fn) }

func (b *bmeshBackend) updateFaceNormals(node int) {
	for _, f := range b.t.nodes[node].bmFaces.Items() {
		b.bm.Face(f).No = b.bm.CalcFaceNormal(f)
	}
}

func (b *bmeshBackend) updateVertNormals(node int) {
	for _, v := range b.t.nodes[node].bmUniqueVerts.Items() {
		b.bm.Vert(v).No = b.bm.CalcVertNormal(v)
	}
}

func (b *bmeshBackend) nodeFullyHidden(node int) bool {
	faces := b.t.nodes[node].bmFaces.Items()
	if len(faces) == 0 {
		return false
	}
	for _, f := range faces {
		if !b.bm.Face(f).Hidden {
			return false
		}
	}
	return true
}

// Hidden faces are always skipped by the dyntopo backend.
func (b *bmeshBackend) raycastNode(node int, ray geom.Ray, hit *RayHit) bool {
	found := false
	for _, f := range b.t.nodes[node].bmFaces.Items() {
		face := b.bm.Face(f)
		if face.Hidden {
			continue
		}

		verts := face.Verts
		before := hit.Depth
		if len(verts) == 4 {
			hit.AddQuad(ray, b.vertCo(verts[0]), b.vertCo(verts[1]), b.vertCo(verts[2]), b.vertCo(verts[3]))
		} else {
			hit.AddTri(ray, b.vertCo(verts[0]), b.vertCo(verts[1]), b.vertCo(verts[2]))
		}
		if hit.Depth < before {
			found = true
			hit.recordFace(ray, node, f, b.bm.CalcFaceNormal(f), verts, b.vertCo)
		}
	}
	return found
}

func (b *bmeshBackend) nearestNode(node int, ray geom.Ray, hit *NearestHit) bool {
	found := false
	for _, f := range b.t.nodes[node].bmFaces.Items() {
		face := b.bm.Face(f)
		if face.Hidden {
			continue
		}

		verts := face.Verts
		var closer bool
		if len(verts) == 4 {
			closer = ray.NearestQuad(b.vertCo(verts[0]), b.vertCo(verts[1]), b.vertCo(verts[2]), b.vertCo(verts[3]), &hit.Depth, &hit.DistSq)
		} else {
			closer = ray.NearestTri(b.vertCo(verts[0]), b.vertCo(verts[1]), b.vertCo(verts[2]), &hit.Depth, &hit.DistSq)
		}
		if closer {
			found = true
			hit.Node = node
			hit.Face = f
		}
	}
	return found
}

func (b *bmeshBackend) cacheKey() cacheKey {
	return cacheKey{id: b.bm.ID, verts: b.bm.NumVerts(), prims: b.bm.NumFaces()}
}

// Returns true if v is used by a face owned by node other than exclude.
func (b *bmeshBackend) vertUsedByNode(v, node, exclude int) bool {
	for _, f := range b.bm.VertFaces(v) {
		if f != exclude && b.faceOwner(f) == node {
			return true
		}
	}
	return false
}

// Find a leaf other than skip that owns a face using v (ignoring face
// exclude). Returns DyntopoNodeNone if there is no such leaf.
func (b *bmeshBackend) otherFaceNode(v, skip, exclude int) int {
	for _, f := range b.bm.VertFaces(v) {
		if f == exclude {
			continue
		}
		if owner := b.faceOwner(f); owner != DyntopoNodeNone && owner != skip {
			return owner
		}
	}
	return DyntopoNodeNone
}

// Move the ownership of v to node. v must be referenced by one of node's
// faces.
func (b *bmeshBackend) transferVert(v, node int) {
	t := b.t
	if prev := b.vertOwner(v); prev != DyntopoNodeNone {
		t.nodes[prev].bmUniqueVerts.Remove(v)
		if b.vertUsedByNode(v, prev, -1) {
			t.nodes[prev].bmOtherVerts.Add(v)
		}
		t.nodes[prev].Flag |= updateTopology
	}
	n := &t.nodes[node]
	n.bmOtherVerts.Remove(v)
	n.bmUniqueVerts.Add(v)
	n.Flag |= updateTopology
	b.setVertOwner(v, node)
}
