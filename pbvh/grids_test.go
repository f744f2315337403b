package pbvh

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/achilleasa/sculptree/bbox"
	"github.com/achilleasa/sculptree/geom"
	"github.com/achilleasa/sculptree/mesh"
	"github.com/achilleasa/sculptree/types"
)

func buildGridsTree(t *testing.T, leafLimit int) (*Tree, *mesh.Grids) {
	t.Helper()
	g, err := mesh.NewGrids(mesh.NewPlane(5, 5, 1), 2, nil)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.LeafLimit = leafLimit
	tree, err := BuildGrids(g, opts)
	require.NoError(t, err)
	return tree, g
}

func TestBuildGrids(t *testing.T) {
	tree, g := buildGridsTree(t, 4)

	require.Equal(t, GridsBackend, tree.Backend())
	require.Len(t, tree.Leaves(), 4)
	require.NoError(t, tree.Validate())
	require.Equal(t, 16*25, tree.VertexCount())
	require.Equal(t, bbox.New(types.XYZ(0, 0, 0), types.XYZ(4, 4, 0)), tree.Bounds())
	require.True(t, tree.IsCacheValid(g))

	visits := make([]int, tree.VertexCount())
	for _, leaf := range tree.Leaves() {
		tree.ForEachVertex(leaf, IterAll, func(vd *VertexData) {
			visits[vd.Index]++
		})
	}
	for v, count := range visits {
		if count != 1 {
			t.Fatalf("expected grid vertex %d to be visited once; got %d", v, count)
		}
	}
}

func TestGridsNeighborsStayInGrid(t *testing.T) {
	tree, g := buildGridsTree(t, 4)
	area := g.Key.Area()

	// Element (0, 0) of grid 3.
	var nbs []int
	tree.VertexNeighbors(3*area, func(nb int) { nbs = append(nbs, nb) })
	sort.Ints(nbs)
	require.Equal(t, []int{3*area + 1, 3*area + 5}, nbs)
}

func TestGridsRaycastAndHide(t *testing.T) {
	tree, g := buildGridsTree(t, 4)

	// Base quad 5 spans (1,1)-(2,2); its grid cells are 0.25 wide.
	ray := geom.NewRay(types.XYZ(1.3, 1.6, 3), types.XYZ(0, 0, -1))
	hit, ok := tree.Raycast(ray)
	require.True(t, ok)
	require.Equal(t, 5, hit.Face)
	require.InDelta(t, 3.0, hit.Depth, 1e-5)

	// Element (1, 2) at (1.25, 1.5) is the nearest cell corner.
	require.Equal(t, 5*g.Key.Area()+g.Key.Index(1, 2), hit.Vertex)

	g.SetHidden(5, g.Key.Index(1, 2), true)
	_, ok = tree.Raycast(ray)
	require.False(t, ok)

	near, ok := tree.FindNearestToRay(ray)
	require.True(t, ok)
	require.Equal(t, 5, near.Face)
	require.Greater(t, near.DistSq, float32(0))
}

func TestGridsUpdateBBAndNormals(t *testing.T) {
	tree, g := buildGridsTree(t, 4)

	leaf := tree.Leaves()[0]
	tree.ForEachVertex(leaf, IterUnique, func(vd *VertexData) {
		vd.Co[2] = vd.Co[0]
	})
	tree.Node(leaf).MarkUpdate()
	tree.UpdateBB()
	tree.UpdateNormals()

	grid := tree.NodePrims(leaf)[0]
	require.InDelta(t, -0.7071, g.Elems[grid][g.Key.Index(2, 2)].No[0], 1e-3)
	require.Greater(t, tree.Bounds().Max[2], float32(0))
	requireNestedBounds(t, tree)
}
