package pbvh

import (
	"sort"

	"github.com/achilleasa/sculptree/bbox"
	"github.com/achilleasa/sculptree/bmesh"
	"github.com/achilleasa/sculptree/types"
)

// Get the leaf owning a vertex of a dyntopo tree.
func (t *Tree) VertOwner(v int) int {
	return t.dyntopo().vertOwner(v)
}

// Get the leaf owning a face of a dyntopo tree.
func (t *Tree) FaceOwner(f int) int {
	return t.dyntopo().faceOwner(f)
}

// Get the faces of a dyntopo leaf.
func (t *Tree) NodeFaces(node int) []int {
	t.dyntopo()
	t.assertNode(node)
	return append([]int(nil), t.nodes[node].bmFaces.Items()...)
}

// Descend from the root to the leaf that should receive a face with
// centroid c: the first child containing c, otherwise the child whose
// center is nearer.
func (t *Tree) lookupLeaf(c types.Vec3) int {
	node := 0
	for !t.nodes[node].IsLeaf() {
		first := t.nodes[node].ChildrenOffset
		a, b := &t.nodes[first], &t.nodes[first+1]
		switch {
		case a.VB.Contains(c):
			node = first
		case b.VB.Contains(c):
			node = first + 1
		case a.VB.IsEmpty():
			node = first + 1
		case b.VB.IsEmpty():
			node = first
		case c.DistSq(a.VB.Center()) <= c.DistSq(b.VB.Center()):
			node = first
		default:
			node = first + 1
		}
	}
	return node
}

// InsertFace adds a live face that is not yet part of the tree to the leaf
// containing its centroid. The leaf is split if it exceeds the leaf limit.
// Returns the leaf that ends up owning the face.
func (t *Tree) InsertFace(f int) int {
	b := t.dyntopo()
	assert(b.bm.IsFaceAlive(f), "face %d is not alive", f)
	assert(b.faceOwner(f) == DyntopoNodeNone, "face %d already belongs to node %d", f, b.faceOwner(f))

	bbc := b.faceBBC(f)
	node := t.lookupLeaf(bbc.Centroid)
	b.attachFace(node, f)

	t.nodes[node].Flag |= updateTopology
	t.nodes[node].VB.ExpandWith(bbc.BB)
	t.forEachAncestor(node, func(p int) {
		t.nodes[p].VB.ExpandWith(bbc.BB)
	})
	for _, v := range b.bm.FaceVerts(f) {
		if owner := b.vertOwner(v); owner != node {
			t.nodes[owner].Flag |= UpdateNormals | UpdateOtherVerts | UpdateRedraw | UpdateDrawBuffers
		}
	}

	b.splitLeaf(node)
	t.cache = b.cacheKey()
	return b.faceOwner(f)
}

// Split a dyntopo leaf that exceeds the leaf limit by moving its faces to a
// new pair of children partitioned at the median face centroid along the
// widest axis. Vertex ownership is re-derived for the children.
func (b *bmeshBackend) splitLeaf(node int) {
	t := b.t
	n := &t.nodes[node]
	if n.bmFaces.Len() <= t.opts.LeafLimit || n.Depth >= t.opts.MaxDepth {
		return
	}

	faces := append([]int(nil), n.bmFaces.Items()...)
	bbcs := make([]bbox.BBC, len(faces))
	cb := bbox.Empty()
	order := make([]int, len(faces))
	for i, f := range faces {
		bbcs[i] = b.faceBBC(f)
		cb.Expand(bbcs[i].Centroid)
		order[i] = i
	}
	axis := cb.WidestAxis()
	mid := len(faces) / 2
	nthElement(order, mid, func(i int) float32 {
		return bbcs[i].Centroid[axis]
	})

	released := append([]int(nil), n.bmUniqueVerts.Items()...)
	for _, v := range released {
		b.setVertOwner(v, DyntopoNodeNone)
	}
	for _, f := range faces {
		b.setFaceOwner(f, DyntopoNodeNone)
	}
	n.bmFaces, n.bmUniqueVerts, n.bmOtherVerts = nil, nil, nil
	n.TriBuf = nil
	n.DrawBatches = nil
	n.Flag = 0

	children := t.allocChildPair(node)
	for c, part := range [2][]int{order[:mid], order[mid:]} {
		child := children + c
		cn := &t.nodes[child]
		cn.Flag = leafBuildFlags | updateTopology
		cn.bmFaces = newHandleSet(len(part))
		cn.bmUniqueVerts = newHandleSet(len(part))
		cn.bmOtherVerts = newHandleSet(0)
		cn.VB = bbox.Empty()
		for _, i := range part {
			b.attachFace(child, faces[i])
			cn.VB.ExpandWith(bbcs[i].BB)
		}
		cn.OrigVB = cn.VB
	}

	// Released vertices that no child face uses move to another leaf that
	// uses them; isolated vertices stay with the first child.
	for _, v := range released {
		if b.vertOwner(v) != DyntopoNodeNone {
			continue
		}
		if other := b.otherFaceNode(v, DyntopoNodeNone, -1); other != DyntopoNodeNone {
			b.transferVert(v, other)
			continue
		}
		first := &t.nodes[children]
		b.setVertOwner(v, children)
		first.bmUniqueVerts.Add(v)
		first.VB.Expand(b.bm.Vert(v).Co)
		first.OrigVB.Expand(b.bm.Vert(v).Co)
	}

	b.splitLeaf(children)
	b.splitLeaf(children + 1)
}

// RemoveFace detaches a face from the tree without killing it. Vertices
// of the face that are no longer used by the leaf are released; owned ones
// move to another leaf that still uses them.
func (t *Tree) RemoveFace(f int) {
	b := t.dyntopo()
	node := b.faceOwner(f)
	assert(node != DyntopoNodeNone, "face %d is not part of the tree", f)

	n := &t.nodes[node]
	n.bmFaces.Remove(f)
	n.Flag |= updateTopology
	b.setFaceOwner(f, DyntopoNodeNone)

	for _, v := range b.bm.FaceVerts(f) {
		b.markBoundaryDirty(v)
		if b.vertUsedByNode(v, node, f) {
			continue
		}
		if b.vertOwner(v) != node {
			n.bmOtherVerts.Remove(v)
			continue
		}
		if other := b.otherFaceNode(v, node, f); other != DyntopoNodeNone {
			b.transferVert(v, other)
			continue
		}
		n.bmUniqueVerts.Remove(v)
		b.setVertOwner(v, DyntopoNodeNone)
	}
}

// DeleteFace detaches a face from the tree and kills it.
func (t *Tree) DeleteFace(f int) {
	b := t.dyntopo()
	t.RemoveFace(f)
	b.bm.KillFace(f)
	t.cache = b.cacheKey()
}

// RemoveVert detaches a vertex from every leaf that references it.
func (t *Tree) RemoveVert(v int) {
	b := t.dyntopo()
	if owner := b.vertOwner(v); owner != DyntopoNodeNone {
		t.nodes[owner].bmUniqueVerts.Remove(v)
		t.nodes[owner].Flag |= updateTopology
	}
	for _, f := range b.bm.VertFaces(v) {
		if owner := b.faceOwner(f); owner != DyntopoNodeNone {
			t.nodes[owner].bmOtherVerts.Remove(v)
			t.nodes[owner].Flag |= updateTopology
		}
	}
	b.setVertOwner(v, DyntopoNodeNone)
}

// DeleteVert removes a vertex and its faces from the tree and kills them.
func (t *Tree) DeleteVert(v int) {
	b := t.dyntopo()
	for _, f := range append([]int(nil), b.bm.VertFaces(v)...) {
		if b.faceOwner(f) != DyntopoNodeNone {
			t.RemoveFace(f)
		}
	}
	t.RemoveVert(v)
	b.bm.KillVert(v)
	t.cache = b.cacheKey()
}

// ReassignVert re-derives the owner of a vertex after its faces changed. The
// current owner is kept while it still uses the vertex. Returns the new
// owner.
func (t *Tree) ReassignVert(v int) int {
	b := t.dyntopo()
	owner := b.vertOwner(v)
	if owner != DyntopoNodeNone && b.vertUsedByNode(v, owner, -1) {
		return owner
	}

	next := b.otherFaceNode(v, DyntopoNodeNone, -1)
	if next == DyntopoNodeNone {
		if owner != DyntopoNodeNone {
			t.nodes[owner].bmUniqueVerts.Remove(v)
			t.nodes[owner].Flag |= updateTopology
			b.setVertOwner(v, DyntopoNodeNone)
		}
		return DyntopoNodeNone
	}

	b.transferVert(v, next)
	for _, f := range b.bm.VertFaces(v) {
		if fo := b.faceOwner(f); fo != DyntopoNodeNone && fo != next {
			t.nodes[fo].bmOtherVerts.Add(v)
		}
	}
	return next
}

// MoveVert updates the position of a vertex and flags the leaves that use
// it for a bounds and normal update.
func (t *Tree) MoveVert(v int, co types.Vec3) {
	b := t.dyntopo()
	b.bm.Vert(v).Co = co
	if owner := b.vertOwner(v); owner != DyntopoNodeNone {
		t.nodes[owner].Flag |= updateGeometry
	}
	for _, f := range b.bm.VertFaces(v) {
		if owner := b.faceOwner(f); owner != DyntopoNodeNone {
			t.nodes[owner].Flag |= updateGeometry
		}
	}
}

// AddVert adds an unowned vertex to the mesh. It becomes part of the tree
// once a face that uses it is inserted.
func (t *Tree) AddVert(co types.Vec3) int {
	b := t.dyntopo()
	v := b.bm.AddVert(co)
	b.markBoundaryDirty(v)
	t.cache = b.cacheKey()
	return v
}

type longEdge struct {
	key   bmesh.EdgeKey
	lenSq float32
}

// SubdivideLongEdges splits the triangle edges of the given leaves (all
// leaves if nodes is nil) that are longer than maxEdgeLen at their midpoint.
// Each adjacent triangle is replaced by two triangles which are inserted
// back into the tree. Quads are left untouched. Returns the number of split
// edges.
func (t *Tree) SubdivideLongEdges(nodes []int, maxEdgeLen float32) int {
	b := t.dyntopo()
	if nodes == nil {
		nodes = t.Leaves()
	}

	maxSq := maxEdgeLen * maxEdgeLen
	seen := make(map[bmesh.EdgeKey]bool)
	var edges []longEdge
	for _, node := range nodes {
		t.assertNode(node)
		for _, f := range t.nodes[node].bmFaces.Items() {
			verts := b.bm.FaceVerts(f)
			if len(verts) != 3 {
				continue
			}
			for i, v := range verts {
				key := bmesh.NewEdgeKey(v, verts[(i+1)%3])
				if seen[key] {
					continue
				}
				seen[key] = true
				if lenSq := b.vertCo(key.A).DistSq(b.vertCo(key.B)); lenSq > maxSq {
					edges = append(edges, longEdge{key: key, lenSq: lenSq})
				}
			}
		}
	}

	// Longest first; ties in handle order for determinism.
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].lenSq != edges[j].lenSq {
			return edges[i].lenSq > edges[j].lenSq
		}
		if edges[i].key.A != edges[j].key.A {
			return edges[i].key.A < edges[j].key.A
		}
		return edges[i].key.B < edges[j].key.B
	})

	split := 0
	for _, e := range edges {
		if b.splitEdge(e.key.A, e.key.B) {
			split++
		}
	}
	return split
}

// Split the edge (a, c) at its midpoint. Returns false if the edge no longer
// exists or is used by a non triangle face.
func (b *bmeshBackend) splitEdge(a, c int) bool {
	t, bm := b.t, b.bm
	if !bm.IsVertAlive(a) || !bm.IsVertAlive(c) {
		return false
	}

	var adjacent []int
	for _, f := range bm.VertFaces(a) {
		if bm.FaceHasEdge(f, a, c) {
			if len(bm.FaceVerts(f)) != 3 || b.faceOwner(f) == DyntopoNodeNone {
				return false
			}
			adjacent = append(adjacent, f)
		}
	}
	if len(adjacent) == 0 {
		return false
	}

	va, vc := *bm.Vert(a), *bm.Vert(c)
	m := t.AddVert(va.Co.Lerp(vc.Co, 0.5))
	vm := bm.Vert(m)
	vm.No = va.No.Add(vc.No).Normalize()
	vm.Hidden = va.Hidden && vc.Hidden
	b.setVertMask(m, 0.5*(b.vertMask(a)+b.vertMask(c)))

	for _, f := range adjacent {
		face := bm.Face(f)
		verts := append([]int(nil), face.Verts...)
		uvs := append([]types.Vec2(nil), face.UVs...)
		hidden := face.Hidden
		fset := bm.FData.Int(f, b.cdFaceSet)

		// Rotate so that the split edge is (verts[0], verts[1]) keeping
		// the face winding.
		for i := 0; i < 3 && !(verts[0] == a && verts[1] == c) && !(verts[0] == c && verts[1] == a); i++ {
			verts = append(verts[1:], verts[0])
			if uvs != nil {
				uvs = append(uvs[1:], uvs[0])
			}
		}

		t.DeleteFace(f)
		halves := [2][3]int{{verts[0], m, verts[2]}, {m, verts[1], verts[2]}}
		for h, tri := range halves {
			nf, err := bm.AddFace(tri[:])
			// The triangle vertices are live and distinct.
			assert(err == nil, "split edge (%d, %d): %v", a, c, err)

			bm.Face(nf).Hidden = hidden
			bm.FData.SetInt(nf, b.cdFaceSet, fset)
			if len(uvs) == 3 {
				mid := types.XY(0.5*(uvs[0][0]+uvs[1][0]), 0.5*(uvs[0][1]+uvs[1][1]))
				if h == 0 {
					bm.Face(nf).UVs = []types.Vec2{uvs[0], mid, uvs[2]}
				} else {
					bm.Face(nf).UVs = []types.Vec2{mid, uvs[1], uvs[2]}
				}
			}
			t.InsertFace(nf)
		}
	}

	if flags := bm.EdgeFlags(a, c); flags != 0 {
		bm.SetEdgeFlag(a, m, flags, true)
		bm.SetEdgeFlag(m, c, flags, true)
		bm.SetEdgeFlag(a, c, flags, false)
	}
	return true
}

// UpdateTris rebuilds the draw triangulation of dyntopo leaves flagged with
// UpdateTris. It is a no-op for other backends.
func (t *Tree) UpdateTris() {
	t.assertBuilt()
	b, ok := t.backend.(*bmeshBackend)
	if !ok {
		return
	}

	leaves := t.SearchGather(WithFlag(UpdateTris))
	t.forNodes(leaves, func(node int) {
		n := &t.nodes[node]
		verts, _ := b.nodeVerts(node)
		local := make(map[int]int, len(verts))
		for i, v := range verts {
			local[v] = i
		}

		buf := &TriBuf{Verts: verts}
		for _, f := range n.bmFaces.Items() {
			face := b.bm.Face(f)
			if face.Hidden {
				continue
			}
			fv := face.Verts
			buf.Tris = append(buf.Tris, [3]int{local[fv[0]], local[fv[1]], local[fv[2]]})
			if len(fv) == 4 {
				buf.Tris = append(buf.Tris, [3]int{local[fv[0]], local[fv[2]], local[fv[3]]})
			}
		}
		n.TriBuf = buf
		n.Flag &^= UpdateTris
		n.Flag |= UpdateDrawBuffers
	})
}
