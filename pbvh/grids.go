package pbvh

import (
	"github.com/achilleasa/sculptree/bbox"
	"github.com/achilleasa/sculptree/geom"
	"github.com/achilleasa/sculptree/mesh"
	"github.com/achilleasa/sculptree/types"
)

// gridsBackend partitions multires grids. Each grid belongs to exactly one
// leaf so every grid element is unique to the leaf of its grid.
type gridsBackend struct {
	t     *Tree
	grids *mesh.Grids
	area  int
}

// Build a tree over a set of multires grids.
func BuildGrids(g *mesh.Grids, opts Options) (*Tree, error) {
	t, err := newTree(opts)
	if err != nil {
		return nil, err
	}

	t.backend = &gridsBackend{
		t:     t,
		grids: g,
		area:  g.Key.Area(),
	}
	t.build()
	return t, nil
}

func (b *gridsBackend) kind() BackendType { return GridsBackend }
func (b *gridsBackend) numPrims() int { return b.grids.NumGrids() }

func (b *gridsBackend) primBBC(prim int) bbox.BBC {
	return b.grids.GridBBC(prim)
}

func (b *gridsBackend) buildLeaf(node int) {
	n := &b.t.nodes[node]
	n.UniqVerts = n.primCount * b.area
	n.FaceVerts = 0
}

func (b *gridsBackend) leafBB(node int) bbox.BB {
	bb := bbox.Empty()
	for _, grid := range b.t.NodePrims(node) {
		for _, e := range b.grids.Elems[grid] {
			bb.Expand(e.Co)
		}
	}
	return bb
}

func (b *gridsBackend) vertCount() int {
	return b.grids.NumGrids() * b.area
}

// Split a vertex id into its grid and element index.
func (b *gridsBackend) split(v int) (grid, elem int) {
	return v / b.area, v % b.area
}

func (b *gridsBackend) nodeVerts(node int) ([]int, int) {
	prims := b.t.NodePrims(node)
	verts := make([]int, 0, len(prims)*b.area)
	for _, grid := range prims {
		for e := 0; e < b.area; e++ {
			verts = append(verts, grid*b.area+e)
		}
	}
	return verts, len(verts)
}

func (b *gridsBackend) forEachNodeVert(node int, _ IterMode, fn func(v int, unique bool)) {
	for _, grid := range b.t.NodePrims(node) {
		for e := 0; e < b.area; e++ {
			fn(grid*b.area+e, true)
		}
	}
}

func (b *gridsBackend) elem(v int) *mesh.GridElem {
	grid, e := b.split(v)
	return &b.grids.Elems[grid][e]
}

func (b *gridsBackend) vertCo(v int) types.Vec3 { return b.elem(v).Co }
func (b *gridsBackend) setVertCo(v int, co types.Vec3) { b.elem(v).Co = co }
func (b *gridsBackend) vertNo(v int) types.Vec3 { return b.elem(v).No }
func (b *gridsBackend) vertMask(v int) float32 { return b.elem(v).Mask }
func (b *gridsBackend) setVertMask(v int, mask float32) { b.elem(v).Mask = mask }

func (b *gridsBackend) vertVisible(v int) bool {
	grid, e := b.split(v)
	hidden := b.grids.Hidden[grid]
	return hidden == nil || !hidden[e]
}

func (b *gridsBackend) vertNeighbors(v int, fn func(int)) {
	grid, e := b.split(v)
	base := grid * b.area
	b.grids.ElemNeighbors(e, func(nb int) {
		fn(base + nb)
	})
}

// Grids do not store face normals.
func (b *gridsBackend) updateFaceNormals(int) {}

func (b *gridsBackend) updateVertNormals(node int) {
	for _, grid := range b.t.NodePrims(node) {
		b.grids.UpdateGridNormals(grid)
	}
}

func (b *gridsBackend) nodeFullyHidden(node int) bool {
	prims := b.t.NodePrims(node)
	if len(prims) == 0 {
		return false
	}
	for _, grid := range prims {
		hidden := b.grids.Hidden[grid]
		if hidden == nil {
			return false
		}
		for _, h := range hidden {
			if !h {
				return false
			}
		}
	}
	return true
}

// Invoke fn for every cell of a grid passing the vertex ids of its corners.
func (b *gridsBackend) forEachCell(grid int, fn func(x, y int, corners [4]int)) {
	k := b.grids.Key
	base := grid * b.area
	for y := 0; y < k.Size-1; y++ {
		for x := 0; x < k.Size-1; x++ {
			if b.t.opts.RespectHide && b.grids.IsCellHidden(grid, x, y) {
				continue
			}
			fn(x, y, [4]int{
				base + k.Index(x, y),
				base + k.Index(x+1, y),
				base + k.Index(x+1, y+1),
				base + k.Index(x, y+1),
			})
		}
	}
}

func (b *gridsBackend) raycastNode(node int, ray geom.Ray, hit *RayHit) bool {
	found := false
	for _, grid := range b.t.NodePrims(node) {
		b.forEachCell(grid, func(_, _ int, c [4]int) {
			before := hit.Depth
			hit.AddQuad(ray, b.vertCo(c[0]), b.vertCo(c[1]), b.vertCo(c[2]), b.vertCo(c[3]))
			if hit.Depth < before {
				found = true
				normal := geom.PolyNormal(b.vertCo(c[0]), b.vertCo(c[1]), b.vertCo(c[2]), b.vertCo(c[3]))
				hit.recordFace(ray, node, grid, normal, c[:], b.vertCo)
			}
		})
	}
	return found
}

func (b *gridsBackend) nearestNode(node int, ray geom.Ray, hit *NearestHit) bool {
	found := false
	for _, grid := range b.t.NodePrims(node) {
		b.forEachCell(grid, func(_, _ int, c [4]int) {
			if ray.NearestQuad(b.vertCo(c[0]), b.vertCo(c[1]), b.vertCo(c[2]), b.vertCo(c[3]), &hit.Depth, &hit.DistSq) {
				found = true
				hit.Node = node
				hit.Face = grid
			}
		})
	}
	return found
}

func (b *gridsBackend) cacheKey() cacheKey {
	return cacheKey{id: b.grids.ID, verts: b.vertCount(), prims: b.grids.NumGrids()}
}
