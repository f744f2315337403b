package mesh

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/achilleasa/sculptree/bbox"
	"github.com/achilleasa/sculptree/geom"
	"github.com/achilleasa/sculptree/types"
)

// The maximum supported grid subdivision level.
const MaxGridLevel = 8

// GridKey describes the layout of the grids produced at a subdivision level.
type GridKey struct {
	Level int
	// Number of elements along each grid side (2^level + 1).
	Size int
}

// Get the number of elements in a single grid.
func (k GridKey) Area() int {
	return k.Size * k.Size
}

// Get the index of element (x, y) inside a grid.
func (k GridKey) Index(x, y int) int {
	return y*k.Size + x
}

// GridElem is a single multires grid sample.
type GridElem struct {
	Co   types.Vec3
	No   types.Vec3
	Mask float32
}

// A SubdivEvaluator computes the grid elements for a base mesh face. It is
// the boundary to the subdivision surface collaborator.
type SubdivEvaluator interface {
	EvalGrid(base *Mesh, grid int, key GridKey, out []GridElem)
}

// BilinearEvaluator produces grids by bilinearly interpolating the corners of
// each base quad.
type BilinearEvaluator struct{}

// EvalGrid implements SubdivEvaluator.
func (BilinearEvaluator) EvalGrid(base *Mesh, grid int, key GridKey, out []GridElem) {
	verts := base.PolyVerts(grid)
	c0, c1, c2, c3 := base.Positions[verts[0]], base.Positions[verts[1]], base.Positions[verts[2]], base.Positions[verts[3]]
	m0, m1, m2, m3 := base.Mask[verts[0]], base.Mask[verts[1]], base.Mask[verts[2]], base.Mask[verts[3]]
	no := base.PolyNormals[grid]

	step := 1 / float32(key.Size-1)
	for y := 0; y < key.Size; y++ {
		v := float32(y) * step
		for x := 0; x < key.Size; x++ {
			u := float32(x) * step
			bottom := c0.Lerp(c1, u)
			top := c3.Lerp(c2, u)
			mb := m0 + (m1-m0)*u
			mt := m3 + (m2-m3)*u
			out[key.Index(x, y)] = GridElem{
				Co:   bottom.Lerp(top, v),
				No:   no,
				Mask: mb + (mt-mb)*v,
			}
		}
	}
}

// Grids holds one multires grid per base mesh quad.
type Grids struct {
	ID   uuid.UUID
	Key  GridKey
	Base *Mesh

	Elems [][]GridElem
	// Per element visibility; a nil entry means the whole grid is visible.
	Hidden   [][]bool
	FaceSets []int32

	eval SubdivEvaluator
}

// Generate the grids for a quad-only base mesh at the given level.
func NewGrids(base *Mesh, level int, eval SubdivEvaluator) (*Grids, error) {
	if level < 0 || level > MaxGridLevel {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidLevel, level)
	}
	for p, poly := range base.Polys {
		if poly.TotLoop != 4 {
			return nil, fmt.Errorf("face %d: %w", p, ErrNonQuadFace)
		}
	}
	if eval == nil {
		eval = BilinearEvaluator{}
	}

	key := GridKey{Level: level, Size: (1 << uint(level)) + 1}
	g := &Grids{
		ID:       uuid.New(),
		Key:      key,
		Base:     base,
		Elems:    make([][]GridElem, len(base.Polys)),
		Hidden:   make([][]bool, len(base.Polys)),
		FaceSets: make([]int32, len(base.Polys)),
		eval:     eval,
	}
	for i := range g.Elems {
		g.Elems[i] = make([]GridElem, key.Area())
		g.FaceSets[i] = base.FaceSets[i]
	}
	g.Reevaluate()
	return g, nil
}

// Get the number of grids.
func (g *Grids) NumGrids() int {
	return len(g.Elems)
}

// Recompute all grid elements from the base mesh.
func (g *Grids) Reevaluate() {
	for i := range g.Elems {
		g.eval.EvalGrid(g.Base, i, g.Key, g.Elems[i])
	}
}

// Get the bounds of a grid together with its centroid.
func (g *Grids) GridBBC(grid int) bbox.BBC {
	bb := bbox.Empty()
	for _, e := range g.Elems[grid] {
		bb.Expand(e.Co)
	}
	return bbox.NewBBC(bb)
}

// Returns true if the grid cell whose lower-left corner is (x, y) is hidden.
// A cell is hidden when any of its corners is hidden.
func (g *Grids) IsCellHidden(grid, x, y int) bool {
	hidden := g.Hidden[grid]
	if hidden == nil {
		return false
	}
	k := g.Key
	return hidden[k.Index(x, y)] || hidden[k.Index(x+1, y)] ||
		hidden[k.Index(x+1, y+1)] || hidden[k.Index(x, y+1)]
}

// Mark a grid element as hidden or visible.
func (g *Grids) SetHidden(grid, elem int, hidden bool) {
	if g.Hidden[grid] == nil {
		if !hidden {
			return
		}
		g.Hidden[grid] = make([]bool, g.Key.Area())
	}
	g.Hidden[grid][elem] = hidden
}

// Invoke fn for the 4-connected neighbors of an element within its grid.
func (g *Grids) ElemNeighbors(elem int, fn func(nb int)) {
	size := g.Key.Size
	x, y := elem%size, elem/size
	if x > 0 {
		fn(elem - 1)
	}
	if x < size-1 {
		fn(elem + 1)
	}
	if y > 0 {
		fn(elem - size)
	}
	if y < size-1 {
		fn(elem + size)
	}
}

// Recompute the element normals of a grid by averaging the normals of the
// cells that share each element.
func (g *Grids) UpdateGridNormals(grid int) {
	k := g.Key
	elems := g.Elems[grid]
	if k.Size < 2 {
		return
	}

	acc := make([]types.Vec3, len(elems))
	for y := 0; y < k.Size-1; y++ {
		for x := 0; x < k.Size-1; x++ {
			i0, i1, i2, i3 := k.Index(x, y), k.Index(x+1, y), k.Index(x+1, y+1), k.Index(x, y+1)
			no := geom.PolyNormal(elems[i0].Co, elems[i1].Co, elems[i2].Co, elems[i3].Co)
			acc[i0] = acc[i0].Add(no)
			acc[i1] = acc[i1].Add(no)
			acc[i2] = acc[i2].Add(no)
			acc[i3] = acc[i3].Add(no)
		}
	}
	for i := range elems {
		elems[i].No = acc[i].Normalize()
	}
}
