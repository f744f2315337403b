// Package mesh contains the static face mesh and multiresolution grid data
// providers that a sculpt BVH partitions.
//
// The BVH borrows the attribute arrays defined here (positions, normals,
// masks, visibility) and mutates them in place; it never owns them.
package mesh

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/achilleasa/sculptree/bbox"
	"github.com/achilleasa/sculptree/geom"
	"github.com/achilleasa/sculptree/types"
)

var (
	ErrUnsupportedFace = errors.New("mesh: only triangular and quad faces are supported")
	ErrVertexIndex     = errors.New("mesh: face references an out of range vertex")
	ErrNonQuadFace     = errors.New("mesh: multires grids require a quad-only base mesh")
	ErrInvalidLevel    = errors.New("mesh: grid subdivision level must be in [0, 8]")
)

// A polygon is a contiguous run of face corners (loops).
type Poly struct {
	LoopStart int
	TotLoop   int
}

// Mesh is a static face mesh whose faces are either triangles or quads.
type Mesh struct {
	// A unique id for this mesh instance. It changes whenever the topology
	// is replaced so that cached BVHs can detect staleness.
	ID uuid.UUID

	// Vertex attributes.
	Positions   []types.Vec3
	VertNormals []types.Vec3
	Mask        []float32
	HideVert    []bool

	// Face attributes.
	Polys       []Poly
	Loops       []int
	PolyNormals []types.Vec3
	HidePoly    []bool
	FaceSets    []int32

	// Lazily built vertex to poly adjacency.
	vertPolys [][]int
}

// Create a mesh from a set of vertex positions and a list of faces. Each face
// lists 3 or 4 vertex indices.
func New(positions []types.Vec3, faces [][]int) (*Mesh, error) {
	m := &Mesh{
		ID:          uuid.New(),
		Positions:   positions,
		VertNormals: make([]types.Vec3, len(positions)),
		Mask:        make([]float32, len(positions)),
		HideVert:    make([]bool, len(positions)),
		Polys:       make([]Poly, 0, len(faces)),
		PolyNormals: make([]types.Vec3, len(faces)),
		HidePoly:    make([]bool, len(faces)),
		FaceSets:    make([]int32, len(faces)),
	}

	for faceIndex, face := range faces {
		if len(face) < 3 || len(face) > 4 {
			return nil, fmt.Errorf("face %d: %w", faceIndex, ErrUnsupportedFace)
		}
		for _, v := range face {
			if v < 0 || v >= len(positions) {
				return nil, fmt.Errorf("face %d: %w (%d)", faceIndex, ErrVertexIndex, v)
			}
		}
		m.Polys = append(m.Polys, Poly{LoopStart: len(m.Loops), TotLoop: len(face)})
		m.Loops = append(m.Loops, face...)
		m.FaceSets[faceIndex] = 1
	}

	m.UpdateNormals()
	return m, nil
}

// Generate a planar mesh of nx * ny points in the XY plane (z = 0) with the
// given spacing. The points form (nx-1) * (ny-1) quads.
func NewPlane(nx, ny int, spacing float32) *Mesh {
	positions := make([]types.Vec3, 0, nx*ny)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			positions = append(positions, types.XYZ(float32(x)*spacing, float32(y)*spacing, 0))
		}
	}

	faces := make([][]int, 0, (nx-1)*(ny-1))
	for y := 0; y < ny-1; y++ {
		for x := 0; x < nx-1; x++ {
			v := y*nx + x
			faces = append(faces, []int{v, v + 1, v + nx + 1, v + nx})
		}
	}

	// The input is well-formed by construction.
	m, err := New(positions, faces)
	if err != nil {
		panic(err)
	}
	return m
}

// Get the number of vertices.
func (m *Mesh) NumVerts() int {
	return len(m.Positions)
}

// Get the number of faces.
func (m *Mesh) NumPolys() int {
	return len(m.Polys)
}

// Get the vertex indices of a face.
func (m *Mesh) PolyVerts(p int) []int {
	poly := m.Polys[p]
	return m.Loops[poly.LoopStart : poly.LoopStart+poly.TotLoop]
}

// Get the bounds of a face together with its centroid.
func (m *Mesh) PolyBBC(p int) bbox.BBC {
	bb := bbox.Empty()
	for _, v := range m.PolyVerts(p) {
		bb.Expand(m.Positions[v])
	}
	return bbox.NewBBC(bb)
}

// Get the vertex average of a face.
func (m *Mesh) PolyCentroid(p int) types.Vec3 {
	var c types.Vec3
	verts := m.PolyVerts(p)
	for _, v := range verts {
		c = c.Add(m.Positions[v])
	}
	return c.Mul(1 / float32(len(verts)))
}

// Calculate the normal of a face from the current vertex positions.
func (m *Mesh) CalcPolyNormal(p int) types.Vec3 {
	verts := m.PolyVerts(p)
	if len(verts) == 3 {
		return geom.PolyNormal(m.Positions[verts[0]], m.Positions[verts[1]], m.Positions[verts[2]])
	}
	return geom.PolyNormal(m.Positions[verts[0]], m.Positions[verts[1]], m.Positions[verts[2]], m.Positions[verts[3]])
}

// Returns true if the face is hidden.
func (m *Mesh) IsPolyHidden(p int) bool {
	return m.HidePoly != nil && m.HidePoly[p]
}

// Build the vertex to face adjacency map if it does not exist yet. The map
// must be built before concurrent readers use VertPolys.
func (m *Mesh) EnsureVertPolyMap() {
	if m.vertPolys != nil {
		return
	}

	counts := make([]int, len(m.Positions))
	for _, v := range m.Loops {
		counts[v]++
	}

	m.vertPolys = make([][]int, len(m.Positions))
	for v, count := range counts {
		m.vertPolys[v] = make([]int, 0, count)
	}
	for p := range m.Polys {
		for _, v := range m.PolyVerts(p) {
			m.vertPolys[v] = append(m.vertPolys[v], p)
		}
	}
}

// Get the faces that use vertex v.
func (m *Mesh) VertPolys(v int) []int {
	m.EnsureVertPolyMap()
	return m.vertPolys[v]
}

// Invoke fn for every vertex that shares an edge with v. Each neighbor is
// reported once.
func (m *Mesh) VertNeighbors(v int, fn func(nb int)) {
	var (
		buf  [16]int
		seen = buf[:0]
	)
	visited := func(nb int) bool {
		for _, s := range seen {
			if s == nb {
				return true
			}
		}
		seen = append(seen, nb)
		return false
	}

	for _, p := range m.VertPolys(v) {
		verts := m.PolyVerts(p)
		for corner, pv := range verts {
			if pv != v {
				continue
			}
			prev := verts[(corner+len(verts)-1)%len(verts)]
			next := verts[(corner+1)%len(verts)]
			if !visited(prev) {
				fn(prev)
			}
			if !visited(next) {
				fn(next)
			}
		}
	}
}

// Recalculate all face and vertex normals.
func (m *Mesh) UpdateNormals() {
	for p := range m.Polys {
		m.PolyNormals[p] = m.CalcPolyNormal(p)
	}
	for v := range m.VertNormals {
		m.VertNormals[v] = types.Vec3{}
	}
	for p := range m.Polys {
		for _, v := range m.PolyVerts(p) {
			m.VertNormals[v] = m.VertNormals[v].Add(m.PolyNormals[p])
		}
	}
	for v := range m.VertNormals {
		m.VertNormals[v] = m.VertNormals[v].Normalize()
	}
}
