package pbvh

import (
	"github.com/achilleasa/sculptree/bbox"
	"github.com/achilleasa/sculptree/geom"
	"github.com/achilleasa/sculptree/mesh"
	"github.com/achilleasa/sculptree/types"
)

// facesBackend partitions the faces of a static mesh. Positions, normals and
// masks are shared with the mesh.
type facesBackend struct {
	t    *Tree
	mesh *mesh.Mesh

	// The leaf owning each vertex or -1 for vertices without faces.
	vertOwner []int
}

// Build a tree over the faces of a static mesh.
func BuildFaces(m *mesh.Mesh, opts Options) (*Tree, error) {
	t, err := newTree(opts)
	if err != nil {
		return nil, err
	}

	m.EnsureVertPolyMap()
	b := &facesBackend{
		t:         t,
		mesh:      m,
		vertOwner: make([]int, m.NumVerts()),
	}
	for v := range b.vertOwner {
		b.vertOwner[v] = -1
	}
	t.backend = b
	t.build()
	return t, nil
}

func (b *facesBackend) kind() BackendType { return FacesBackend }
func (b *facesBackend) numPrims() int { return b.mesh.NumPolys() }

func (b *facesBackend) primBBC(prim int) bbox.BBC {
	return b.mesh.PolyBBC(prim)
}

func (b *facesBackend) buildLeaf(node int) {
	t := b.t
	n := &t.nodes[node]
	prims := t.primIndices[n.primStart : n.primStart+n.primCount]

	// Claim unowned vertices first; vertices owned by earlier leaves are
	// referenced as face verts.
	seen := make(map[int]bool, len(prims)*2)
	var uniq, other []int
	for _, p := range prims {
		for _, v := range b.mesh.PolyVerts(p) {
			if seen[v] {
				continue
			}
			seen[v] = true
			if b.vertOwner[v] == -1 {
				b.vertOwner[v] = node
				uniq = append(uniq, v)
			} else {
				other = append(other, v)
			}
		}
	}

	local := make(map[int]int32, len(uniq)+len(other))
	for i, v := range uniq {
		local[v] = int32(i)
	}
	for i, v := range other {
		local[v] = int32(len(uniq) + i)
	}
	for i, p := range prims {
		corners := t.faceVertIndices[(n.primStart+i)*4 : (n.primStart+i+1)*4]
		verts := b.mesh.PolyVerts(p)
		for c := range corners {
			corners[c] = -1
			if c < len(verts) {
				corners[c] = local[verts[c]]
			}
		}
	}

	n.vertStart = len(t.vertIndices)
	n.UniqVerts = len(uniq)
	n.FaceVerts = len(other)
	t.vertIndices = append(t.vertIndices, uniq...)
	t.vertIndices = append(t.vertIndices, other...)
}

func (b *facesBackend) leafBB(node int) bbox.BB {
	bb := bbox.Empty()
	verts, _ := b.nodeVerts(node)
	for _, v := range verts {
		bb.Expand(b.mesh.Positions[v])
	}
	return bb
}

func (b *facesBackend) vertCount() int {
	return b.mesh.NumVerts()
}

func (b *facesBackend) nodeVerts(node int) ([]int, int) {
	n := &b.t.nodes[node]
	return b.t.vertIndices[n.vertStart : n.vertStart+n.UniqVerts+n.FaceVerts], n.UniqVerts
}

func (b *facesBackend) forEachNodeVert(node int, mode IterMode, fn func(v int, unique bool)) {
	verts, uniq := b.nodeVerts(node)
	if mode == IterUnique {
		verts = verts[:uniq]
	}
	for i, v := range verts {
		fn(v, i < uniq)
	}
}

func (b *facesBackend) vertCo(v int) types.Vec3 { return b.mesh.Positions[v] }
func (b *facesBackend) setVertCo(v int, co types.Vec3) { b.mesh.Positions[v] = co }
func (b *facesBackend) vertNo(v int) types.Vec3 { return b.mesh.VertNormals[v] }
func (b *facesBackend) vertMask(v int) float32 { return b.mesh.Mask[v] }
func (b *facesBackend) setVertMask(v int, mask float32) { b.mesh.Mask[v] = mask }
func (b *facesBackend) vertVisible(v int) bool { return !b.mesh.HideVert[v] }
func (b *facesBackend) vertNeighbors(v int, fn func(int)) { b.mesh.VertNeighbors(v, fn) }

func (b *facesBackend) updateFaceNormals(node int) {
	m := b.mesh
	for _, p := range b.t.NodePrims(node) {
		m.PolyNormals[p] = m.CalcPolyNormal(p)
	}
}

func (b *facesBackend) updateVertNormals(node int) {
	m := b.mesh
	verts, uniq := b.nodeVerts(node)
	for _, v := range verts[:uniq] {
		var no types.Vec3
		for _, p := range m.VertPolys(v) {
			no = no.Add(m.PolyNormals[p])
		}
		if no.LenSq() > 0 {
			m.VertNormals[v] = no.Normalize()
		}
	}
}

func (b *facesBackend) nodeFullyHidden(node int) bool {
	prims := b.t.NodePrims(node)
	if len(prims) == 0 {
		return false
	}
	for _, p := range prims {
		if !b.mesh.IsPolyHidden(p) {
			return false
		}
	}
	return true
}

func (b *facesBackend) raycastNode(node int, ray geom.Ray, hit *RayHit) bool {
	m := b.mesh
	found := false
	for _, p := range b.t.NodePrims(node) {
		if b.t.opts.RespectHide && m.IsPolyHidden(p) {
			continue
		}

		verts := m.PolyVerts(p)
		co := m.Positions
		before := hit.Depth
		if len(verts) == 4 {
			hit.AddQuad(ray, co[verts[0]], co[verts[1]], co[verts[2]], co[verts[3]])
		} else {
			hit.AddTri(ray, co[verts[0]], co[verts[1]], co[verts[2]])
		}
		if hit.Depth < before {
			found = true
			hit.recordFace(ray, node, p, m.CalcPolyNormal(p), verts, b.vertCo)
		}
	}
	return found
}

func (b *facesBackend) nearestNode(node int, ray geom.Ray, hit *NearestHit) bool {
	m := b.mesh
	found := false
	for _, p := range b.t.NodePrims(node) {
		if b.t.opts.RespectHide && m.IsPolyHidden(p) {
			continue
		}

		verts := m.PolyVerts(p)
		co := m.Positions
		var closer bool
		if len(verts) == 4 {
			closer = ray.NearestQuad(co[verts[0]], co[verts[1]], co[verts[2]], co[verts[3]], &hit.Depth, &hit.DistSq)
		} else {
			closer = ray.NearestTri(co[verts[0]], co[verts[1]], co[verts[2]], &hit.Depth, &hit.DistSq)
		}
		if closer {
			found = true
			hit.Node = node
			hit.Face = p
		}
	}
	return found
}

func (b *facesBackend) cacheKey() cacheKey {
	return cacheKey{id: b.mesh.ID, verts: b.mesh.NumVerts(), prims: b.mesh.NumPolys()}
}
