package pbvh

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/achilleasa/sculptree/bbox"
	"github.com/achilleasa/sculptree/log"
	"github.com/achilleasa/sculptree/mesh"
	"github.com/achilleasa/sculptree/types"
)

func init() {
	log.Discard()
}

func buildPlane(t *testing.T, nx, ny, leafLimit, maxDepth int) (*Tree, *mesh.Mesh) {
	t.Helper()
	m := mesh.NewPlane(nx, ny, 1)
	opts := DefaultOptions()
	opts.LeafLimit = leafLimit
	opts.MaxDepth = maxDepth
	tree, err := BuildFaces(m, opts)
	require.NoError(t, err)
	return tree, m
}

func TestBuildPlaneDepthCapped(t *testing.T) {
	tree, m := buildPlane(t, 10, 10, 10, 1)

	leaves := tree.Leaves()
	if len(leaves) != 2 {
		t.Fatalf("expected 2 leaves; got %d", len(leaves))
	}
	require.Equal(t, 3, tree.NumNodes())
	require.Equal(t, bbox.New(types.XYZ(0, 0, 0), types.XYZ(9, 9, 0)), tree.Bounds())
	require.NoError(t, tree.Validate())

	total := 0
	for _, leaf := range leaves {
		prims := tree.NodePrims(leaf)
		total += len(prims)

		// Leaf bounds tightly enclose the leaf quads.
		tight := bbox.Empty()
		for _, p := range prims {
			tight.ExpandWith(m.PolyBBC(p).BB)
		}
		require.Equal(t, tight, tree.Node(leaf).VB)
		require.Equal(t, 1, tree.Node(leaf).Depth)
	}
	require.Equal(t, 81, total)
	require.Equal(t, []int{40, 41}, []int{tree.Node(leaves[0]).PrimCount(), tree.Node(leaves[1]).PrimCount()})
}

func TestBuildLeafLimits(t *testing.T) {
	specs := []struct {
		leafLimit int
		expLeaves int
		expNodes  int
	}{
		{81, 1, 1},
		{40, 3, 5},
		{10, 9, 17},
		{1, 81, 161},
	}

	for specIndex, spec := range specs {
		tree, _ := buildPlane(t, 10, 10, spec.leafLimit, DefaultMaxDepth)
		if got := len(tree.Leaves()); got != spec.expLeaves {
			t.Fatalf("[spec %d] expected %d leaves; got %d", specIndex, spec.expLeaves, got)
		}
		if got := tree.NumNodes(); got != spec.expNodes {
			t.Fatalf("[spec %d] expected %d nodes; got %d", specIndex, spec.expNodes, got)
		}
		if err := tree.Validate(); err != nil {
			t.Fatalf("[spec %d] %v", specIndex, err)
		}
		for _, leaf := range tree.Leaves() {
			if count := tree.Node(leaf).PrimCount(); count > spec.leafLimit {
				t.Fatalf("[spec %d] leaf %d has %d prims; limit is %d", specIndex, leaf, count, spec.leafLimit)
			}
		}
		require.Equal(t, bbox.New(types.XYZ(0, 0, 0), types.XYZ(9, 9, 0)), tree.Bounds())
	}
}

func TestBuildDepthCapForcesLeaves(t *testing.T) {
	tree, _ := buildPlane(t, 10, 10, 1, 3)
	require.Len(t, tree.Leaves(), 8)
	for _, leaf := range tree.Leaves() {
		require.Equal(t, 3, tree.Node(leaf).Depth)
	}
	require.NoError(t, tree.Validate())
}

func TestBuildDegenerateGeometry(t *testing.T) {
	// All faces share the same centroid; the median split must still
	// terminate.
	positions := []types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	faces := make([][]int, 50)
	for i := range faces {
		faces[i] = []int{0, 1, 2}
	}
	m, err := mesh.New(positions, faces)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.LeafLimit = 4
	tree, err := BuildFaces(m, opts)
	require.NoError(t, err)
	require.NoError(t, tree.Validate())
}

func TestBuildEmptyMesh(t *testing.T) {
	m, err := mesh.New(nil, nil)
	require.NoError(t, err)

	tree, err := BuildFaces(m, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 1, tree.NumNodes())
	require.True(t, tree.Bounds().IsEmpty())
	require.NoError(t, tree.Validate())
}

func TestVertexOwnership(t *testing.T) {
	tree, m := buildPlane(t, 10, 10, 10, DefaultMaxDepth)

	uniqueVisits := make([]int, m.NumVerts())
	for _, leaf := range tree.Leaves() {
		tree.ForEachVertex(leaf, IterUnique, func(vd *VertexData) {
			require.True(t, vd.Unique)
			uniqueVisits[vd.Index]++
		})
	}
	for v, count := range uniqueVisits {
		if count != 1 {
			t.Fatalf("expected vertex %d to be unique to one leaf; got %d", v, count)
		}
	}

	st := tree.Stats()
	require.Equal(t, 100, st.UniqueVerts)
	require.Equal(t, 81, st.Prims)
	require.Equal(t, "faces", st.Backend)
	require.Greater(t, st.SharedVerts, 0)
}

func TestInvalidOptions(t *testing.T) {
	specs := []Options{
		{LeafLimit: 0, MaxDepth: 10},
		{LeafLimit: 10, MaxDepth: -1},
		{LeafLimit: 10, MaxDepth: DefaultMaxDepth + 1},
	}
	for specIndex, opts := range specs {
		if _, err := BuildFaces(mesh.NewPlane(2, 2, 1), opts); err == nil {
			t.Fatalf("[spec %d] expected an error", specIndex)
		}
	}
}

func TestContractViolationsPanic(t *testing.T) {
	var unbuilt *Tree
	require.Panics(t, func() { unbuilt.NumNodes() })
	require.Panics(t, func() { (&Tree{}).Leaves() })

	tree, _ := buildPlane(t, 3, 3, 1, DefaultMaxDepth)
	require.Panics(t, func() { tree.Node(tree.NumNodes()) })
	require.Panics(t, func() { tree.BMesh() })
	require.Panics(t, func() { tree.InsertFace(0) })
	require.Panics(t, func() { tree.Grids() })
	require.NotPanics(t, func() { tree.Mesh() })
}

func TestNthElement(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 50; iter++ {
		keys := make([]float32, 1+rng.Intn(200))
		items := make([]int, len(keys))
		for i := range keys {
			keys[i] = float32(rng.Intn(20))
			items[i] = i
		}
		k := rng.Intn(len(items))

		nthElement(items, k, func(i int) float32 { return keys[i] })

		pivot := keys[items[k]]
		for i, item := range items {
			if i < k && keys[item] > pivot {
				t.Fatalf("[iter %d] item at %d has key %f > pivot %f", iter, i, keys[item], pivot)
			}
			if i > k && keys[item] < pivot {
				t.Fatalf("[iter %d] item at %d has key %f < pivot %f", iter, i, keys[item], pivot)
			}
		}
	}
}

func TestCacheValidity(t *testing.T) {
	tree, m := buildPlane(t, 4, 4, 4, DefaultMaxDepth)
	require.True(t, tree.IsCacheValid(m))
	require.False(t, tree.IsCacheValid(mesh.NewPlane(4, 4, 1)))
	require.False(t, tree.IsCacheValid("not a mesh"))

	g, err := mesh.NewGrids(m, 1, nil)
	require.NoError(t, err)
	require.False(t, tree.IsCacheValid(g))
}

func TestStatsTable(t *testing.T) {
	tree, _ := buildPlane(t, 10, 10, 10, DefaultMaxDepth)
	table := tree.StatsTable()
	require.Contains(t, table, "Backend")
	require.Contains(t, table, "faces")
	require.Contains(t, table, "Total")
}
