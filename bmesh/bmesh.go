// Package bmesh implements the dynamic topology mesh edited by the dyntopo
// sculpt BVH backend.
//
// Vertices and faces are addressed by integer handles that remain stable
// until the element is killed; killed handles are recycled by later
// additions. Per element attributes live in offset addressed CustomData.
package bmesh

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/achilleasa/sculptree/geom"
	"github.com/achilleasa/sculptree/mesh"
	"github.com/achilleasa/sculptree/types"
)

// Well known custom data layer names.
const (
	MaskLayer    = "mask"
	FaceSetLayer = "face_set"
)

var (
	ErrFaceSize     = errors.New("bmesh: faces must have 3 or 4 vertices")
	ErrDeadVertex   = errors.New("bmesh: face references a killed vertex")
	ErrDuplicateVtx = errors.New("bmesh: face references the same vertex twice")
)

// EdgeFlag stores per edge marks.
type EdgeFlag uint8

// The supported edge flags.
const (
	EdgeSeam EdgeFlag = 1 << iota
	EdgeSharp
)

// EdgeKey identifies an undirected edge by its vertex handles.
type EdgeKey struct {
	A, B int
}

// Create an edge key; the handles are stored in ascending order.
func NewEdgeKey(a, b int) EdgeKey {
	if a > b {
		a, b = b, a
	}
	return EdgeKey{A: a, B: b}
}

// Vert is a mesh vertex.
type Vert struct {
	Co     types.Vec3
	No     types.Vec3
	Hidden bool

	faces []int
	alive bool
}

// Face is a triangle or a quad.
type Face struct {
	Verts []int
	// Optional per corner UV coordinates.
	UVs    []types.Vec2
	No     types.Vec3
	Hidden bool

	alive bool
}

// Mesh is a dynamic topology mesh.
type Mesh struct {
	ID uuid.UUID

	VData CustomData
	FData CustomData

	verts     []Vert
	faces     []Face
	freeVerts []int
	freeFaces []int
	totVert   int
	totFace   int

	edgeFlags map[EdgeKey]EdgeFlag
}

// Create an empty mesh.
func New() *Mesh {
	return &Mesh{
		ID:        uuid.New(),
		edgeFlags: make(map[EdgeKey]EdgeFlag),
	}
}

// Convert a static mesh into a dynamic topology mesh. Vertex and face handles
// match the static mesh indices. The mask and face set attributes are copied
// into custom data layers.
func FromMesh(m *mesh.Mesh) *Mesh {
	bm := New()
	maskOffset := bm.VData.AddLayer(MaskLayer, LayerFloat)
	fsetOffset := bm.FData.AddLayer(FaceSetLayer, LayerInt)

	for v, co := range m.Positions {
		bv := bm.AddVert(co)
		bm.VData.SetFloat(bv, maskOffset, m.Mask[v])
		bm.verts[bv].Hidden = m.HideVert[v]
	}
	for p := range m.Polys {
		f, err := bm.AddFace(m.PolyVerts(p))
		if err != nil {
			// The static mesh only contains valid tris and quads.
			panic(err)
		}
		bm.FData.SetInt(f, fsetOffset, m.FaceSets[p])
		bm.faces[f].Hidden = m.IsPolyHidden(p)
	}
	bm.UpdateNormals()
	return bm
}

// Get the number of live vertices.
func (bm *Mesh) NumVerts() int {
	return bm.totVert
}

// Get the number of live faces.
func (bm *Mesh) NumFaces() int {
	return bm.totFace
}

// Get the upper bound (exclusive) of vertex handles.
func (bm *Mesh) VertCap() int {
	return len(bm.verts)
}

// Get the upper bound (exclusive) of face handles.
func (bm *Mesh) FaceCap() int {
	return len(bm.faces)
}

// Returns true if v is a live vertex handle.
func (bm *Mesh) IsVertAlive(v int) bool {
	return v >= 0 && v < len(bm.verts) && bm.verts[v].alive
}

// Returns true if f is a live face handle.
func (bm *Mesh) IsFaceAlive(f int) bool {
	return f >= 0 && f < len(bm.faces) && bm.faces[f].alive
}

// Access a vertex.
func (bm *Mesh) Vert(v int) *Vert {
	return &bm.verts[v]
}

// Access a face.
func (bm *Mesh) Face(f int) *Face {
	return &bm.faces[f]
}

// Add a vertex and return its handle.
func (bm *Mesh) AddVert(co types.Vec3) int {
	var v int
	if n := len(bm.freeVerts); n > 0 {
		v = bm.freeVerts[n-1]
		bm.freeVerts = bm.freeVerts[:n-1]
		bm.verts[v] = Vert{faces: bm.verts[v].faces[:0]}
	} else {
		v = len(bm.verts)
		bm.verts = append(bm.verts, Vert{})
		bm.VData.ensure(len(bm.verts))
	}

	bm.VData.clear(v)
	bm.verts[v].Co = co
	bm.verts[v].alive = true
	bm.totVert++
	return v
}

// Add a face over existing vertices and return its handle.
func (bm *Mesh) AddFace(verts []int) (int, error) {
	if len(verts) < 3 || len(verts) > 4 {
		return -1, ErrFaceSize
	}
	for i, v := range verts {
		if !bm.IsVertAlive(v) {
			return -1, fmt.Errorf("%w (%d)", ErrDeadVertex, v)
		}
		for _, other := range verts[:i] {
			if other == v {
				return -1, fmt.Errorf("%w (%d)", ErrDuplicateVtx, v)
			}
		}
	}

	var f int
	if n := len(bm.freeFaces); n > 0 {
		f = bm.freeFaces[n-1]
		bm.freeFaces = bm.freeFaces[:n-1]
	} else {
		f = len(bm.faces)
		bm.faces = append(bm.faces, Face{})
		bm.FData.ensure(len(bm.faces))
	}

	bm.FData.clear(f)
	bm.faces[f] = Face{
		Verts: append([]int(nil), verts...),
		alive: true,
	}
	for _, v := range verts {
		bm.verts[v].faces = append(bm.verts[v].faces, f)
	}
	bm.faces[f].No = bm.CalcFaceNormal(f)
	bm.totFace++
	return f, nil
}

// Remove a face. Its vertices are kept. Killing a dead face is a no-op.
func (bm *Mesh) KillFace(f int) {
	if !bm.IsFaceAlive(f) {
		return
	}
	face := &bm.faces[f]
	for _, v := range face.Verts {
		vf := bm.verts[v].faces
		for i, other := range vf {
			if other == f {
				bm.verts[v].faces = append(vf[:i], vf[i+1:]...)
				break
			}
		}
	}

	*face = Face{}
	bm.freeFaces = append(bm.freeFaces, f)
	bm.totFace--
}

// Remove a vertex together with all faces that use it. Killing a dead vertex
// is a no-op.
func (bm *Mesh) KillVert(v int) {
	if !bm.IsVertAlive(v) {
		return
	}
	for len(bm.verts[v].faces) > 0 {
		bm.KillFace(bm.verts[v].faces[0])
	}
	bm.verts[v].alive = false
	bm.freeVerts = append(bm.freeVerts, v)
	bm.totVert--

	for key := range bm.edgeFlags {
		if key.A == v || key.B == v {
			delete(bm.edgeFlags, key)
		}
	}
}

// Get the faces that use a vertex. The returned slice must not be modified.
func (bm *Mesh) VertFaces(v int) []int {
	return bm.verts[v].faces
}

// Get the vertices of a face.
func (bm *Mesh) FaceVerts(f int) []int {
	return bm.faces[f].Verts
}

// Get the vertex average of a face.
func (bm *Mesh) FaceCentroid(f int) types.Vec3 {
	var c types.Vec3
	verts := bm.faces[f].Verts
	for _, v := range verts {
		c = c.Add(bm.verts[v].Co)
	}
	return c.Mul(1 / float32(len(verts)))
}

// Calculate the normal of a face from its current vertex positions.
func (bm *Mesh) CalcFaceNormal(f int) types.Vec3 {
	verts := bm.faces[f].Verts
	if len(verts) == 3 {
		return geom.PolyNormal(bm.verts[verts[0]].Co, bm.verts[verts[1]].Co, bm.verts[verts[2]].Co)
	}
	return geom.PolyNormal(bm.verts[verts[0]].Co, bm.verts[verts[1]].Co, bm.verts[verts[2]].Co, bm.verts[verts[3]].Co)
}

// Recalculate the normal of a vertex from the stored normals of its faces.
func (bm *Mesh) CalcVertNormal(v int) types.Vec3 {
	var no types.Vec3
	for _, f := range bm.verts[v].faces {
		no = no.Add(bm.faces[f].No)
	}
	if no.LenSq() == 0 {
		return bm.verts[v].No
	}
	return no.Normalize()
}

// Recalculate all face and vertex normals.
func (bm *Mesh) UpdateNormals() {
	for f := range bm.faces {
		if bm.faces[f].alive {
			bm.faces[f].No = bm.CalcFaceNormal(f)
		}
	}
	for v := range bm.verts {
		if bm.verts[v].alive {
			bm.verts[v].No = bm.CalcVertNormal(v)
		}
	}
}

// Invoke fn for every vertex that shares an edge with v. Each neighbor is
// reported once.
func (bm *Mesh) VertNeighbors(v int, fn func(nb int)) {
	var reported []int
	report := func(nb int) {
		for _, r := range reported {
			if r == nb {
				return
			}
		}
		reported = append(reported, nb)
		fn(nb)
	}

	for _, f := range bm.verts[v].faces {
		verts := bm.faces[f].Verts
		for corner, fv := range verts {
			if fv != v {
				continue
			}
			report(verts[(corner+len(verts)-1)%len(verts)])
			report(verts[(corner+1)%len(verts)])
		}
	}
}

// Returns true if the face has an edge between a and b.
func (bm *Mesh) FaceHasEdge(f, a, b int) bool {
	verts := bm.faces[f].Verts
	for i, v := range verts {
		next := verts[(i+1)%len(verts)]
		if (v == a && next == b) || (v == b && next == a) {
			return true
		}
	}
	return false
}

// Count the faces that share the edge between a and b.
func (bm *Mesh) EdgeFaceCount(a, b int) int {
	count := 0
	for _, f := range bm.verts[a].faces {
		if bm.FaceHasEdge(f, a, b) {
			count++
		}
	}
	return count
}

// Set or clear flags on the edge between a and b.
func (bm *Mesh) SetEdgeFlag(a, b int, flag EdgeFlag, set bool) {
	key := NewEdgeKey(a, b)
	cur := bm.edgeFlags[key]
	if set {
		cur |= flag
	} else {
		cur &^= flag
	}
	if cur == 0 {
		delete(bm.edgeFlags, key)
		return
	}
	bm.edgeFlags[key] = cur
}

// Get the flags of the edge between a and b.
func (bm *Mesh) EdgeFlags(a, b int) EdgeFlag {
	return bm.edgeFlags[NewEdgeKey(a, b)]
}

// Get the UV coordinate of vertex v in face f. The second return value is
// false if the face carries no UVs or does not use v.
func (bm *Mesh) FaceVertUV(f, v int) (types.Vec2, bool) {
	face := &bm.faces[f]
	if face.UVs == nil {
		return types.Vec2{}, false
	}
	for i, fv := range face.Verts {
		if fv == v {
			return face.UVs[i], true
		}
	}
	return types.Vec2{}, false
}

// Triangulate splits every quad into the triangles (0, 1, 2) and (0, 2, 3)
// carrying over visibility, UVs and the face set. Returns the number of
// quads that were split.
func (bm *Mesh) Triangulate() int {
	fsetOffset := bm.FData.LayerOffset(FaceSetLayer)

	split := 0
	for f, total := 0, len(bm.faces); f < total; f++ {
		face := &bm.faces[f]
		if !face.alive || len(face.Verts) != 4 {
			continue
		}

		verts := face.Verts
		uvs := face.UVs
		hidden := face.Hidden
		var fset int32
		if fsetOffset != -1 {
			fset = bm.FData.Int(f, fsetOffset)
		}
		bm.KillFace(f)

		for i, tri := range [2][3]int{{0, 1, 2}, {0, 2, 3}} {
			nf, err := bm.AddFace([]int{verts[tri[0]], verts[tri[1]], verts[tri[2]]})
			if err != nil {
				// The quad vertices are live and distinct.
				panic(fmt.Sprintf("bmesh: triangulate face %d (tri %d): %v", f, i, err))
			}
			bm.faces[nf].Hidden = hidden
			if uvs != nil {
				bm.faces[nf].UVs = []types.Vec2{uvs[tri[0]], uvs[tri[1]], uvs[tri[2]]}
			}
			if fsetOffset != -1 {
				bm.FData.SetInt(nf, fsetOffset, fset)
			}
		}
		split++
	}
	return split
}
