package pbvh

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/achilleasa/sculptree/bbox"
	"github.com/achilleasa/sculptree/types"
)

// Flag every leaf that references vertex v.
func markLeavesUsing(tree *Tree, v int, flags NodeFlag) {
	for _, leaf := range tree.Leaves() {
		verts, _ := tree.NodeVerts(leaf)
		for _, nv := range verts {
			if nv == v {
				tree.Node(leaf).MarkFlags(flags)
				break
			}
		}
	}
}

// Check that every internal node bounds are the union of its children.
func requireNestedBounds(t *testing.T, tree *Tree) {
	t.Helper()
	for index := 0; index < tree.NumNodes(); index++ {
		n := tree.Node(index)
		if n.IsLeaf() {
			continue
		}
		union := bbox.Union(tree.Node(n.ChildrenOffset).VB, tree.Node(n.ChildrenOffset+1).VB)
		if n.VB != union {
			t.Fatalf("node %d bounds %v do not match children union %v", index, n.VB, union)
		}
	}
}

func TestUpdateBB(t *testing.T) {
	tree, m := buildPlane(t, 10, 10, 10, DefaultMaxDepth)

	// Lift vertex (4, 4).
	v := 44
	m.Positions[v][2] = 5
	markLeavesUsing(tree, v, UpdateBB)

	tree.UpdateBB()
	require.Equal(t, bbox.New(types.XYZ(0, 0, 0), types.XYZ(9, 9, 5)), tree.Bounds())
	requireNestedBounds(t, tree)
	require.Empty(t, tree.SearchGather(WithFlag(UpdateBB)))

	// Idempotent.
	before := make([]bbox.BB, tree.NumNodes())
	for i := range before {
		before[i] = tree.Node(i).VB
	}
	tree.MarkLeaves(UpdateBB)
	tree.UpdateBB()
	for i := range before {
		require.Equal(t, before[i], tree.Node(i).VB, "node %d", i)
	}

	// Original bounds follow only when requested.
	require.Equal(t, float32(0), tree.Node(0).OrigVB.Max[2])
	tree.MarkLeaves(UpdateOriginalBB)
	tree.UpdateOriginalBB()
	require.Equal(t, tree.Bounds(), tree.Node(0).OrigVB)
}

func TestUpdateBBShrinks(t *testing.T) {
	tree, m := buildPlane(t, 10, 10, 10, DefaultMaxDepth)

	for v := range m.Positions {
		m.Positions[v] = m.Positions[v].Mul(0.5)
	}
	tree.MarkLeaves(UpdateBB)
	tree.UpdateBB()

	exp := bbox.New(types.XYZ(0, 0, 0), types.XYZ(4.5, 4.5, 0))
	if got := tree.Bounds(); !got.ApproxEqual(exp, 1e-6) {
		t.Fatalf("expected bounds %v; got %v", exp, got)
	}
	requireNestedBounds(t, tree)
}

func TestSearchGather(t *testing.T) {
	tree, _ := buildPlane(t, 10, 10, 10, DefaultMaxDepth)

	query := bbox.New(types.XYZ(-1, -1, -1), types.XYZ(1.5, 1.5, 1))
	got := tree.SearchGather(InBBox(query))
	require.NotEmpty(t, got)

	selected := make(map[int]bool)
	for _, leaf := range got {
		selected[leaf] = true
	}
	for _, leaf := range tree.Leaves() {
		overlaps := tree.Node(leaf).VB.Overlaps(query)
		if overlaps != selected[leaf] {
			t.Fatalf("leaf %d: overlap=%t but selected=%t", leaf, overlaps, selected[leaf])
		}
	}

	// Combined filters.
	tree.UpdateRedraw()
	tree.Node(got[0]).MarkRedraw()
	require.Equal(t, []int{got[0]}, tree.SearchGather(All(InBBox(query), WithFlag(UpdateRedraw))))
	require.Equal(t, tree.Leaves(), tree.SearchGather(All()))
}

func TestRedraw(t *testing.T) {
	tree, _ := buildPlane(t, 10, 10, 10, DefaultMaxDepth)

	// Freshly built leaves request a redraw.
	require.Equal(t, tree.Bounds(), tree.RedrawBB())
	tree.UpdateRedraw()
	require.True(t, tree.RedrawBB().IsEmpty())

	leaf := tree.Leaves()[3]
	tree.Node(leaf).MarkRedraw()
	require.Equal(t, tree.Node(leaf).VB, tree.RedrawBB())

	var drawn []int
	tree.UpdateDrawBuffers(func(node int, pending NodeFlag) {
		drawn = append(drawn, node)
	})
	require.Len(t, drawn, len(tree.Leaves()))

	drawn = drawn[:0]
	tree.UpdateDrawBuffers(func(node int, pending NodeFlag) {
		drawn = append(drawn, node)
	})
	require.Empty(t, drawn)
}

func TestUpdateNormals(t *testing.T) {
	tree, m := buildPlane(t, 10, 10, 10, DefaultMaxDepth)

	// Tilt the plane to z = x.
	for v := range m.Positions {
		m.Positions[v][2] = m.Positions[v][0]
	}
	tree.MarkLeaves(UpdateNormals)
	tree.UpdateNormals()

	exp := types.XYZ(-1, 0, 1).Normalize()
	for v, no := range m.VertNormals {
		for axis := 0; axis < 3; axis++ {
			if d := no[axis] - exp[axis]; d > 1e-5 || d < -1e-5 {
				t.Fatalf("vertex %d: expected normal %v; got %v", v, exp, no)
			}
		}
	}
	require.Empty(t, tree.SearchGather(WithFlag(UpdateNormals)))
}

func TestMaskAndVisibilityFlags(t *testing.T) {
	tree, m := buildPlane(t, 10, 10, 10, DefaultMaxDepth)

	for _, leaf := range tree.Leaves() {
		n := tree.Node(leaf)
		require.True(t, n.Flag.Has(FullyUnmasked))
		require.False(t, n.Flag.Has(FullyMasked|FullyHidden))
	}

	for v := range m.Mask {
		m.Mask[v] = 1
	}
	tree.MarkLeaves(UpdateMask)
	tree.UpdateMaskFlags()
	for _, leaf := range tree.Leaves() {
		n := tree.Node(leaf)
		require.True(t, n.Flag.Has(FullyMasked))
		require.False(t, n.Flag.Has(FullyUnmasked|UpdateMask))
	}

	leaf := tree.Leaves()[0]
	for _, p := range tree.NodePrims(leaf) {
		m.HidePoly[p] = true
	}
	tree.Node(leaf).MarkUpdateVisibility()
	tree.UpdateVisibility()
	require.True(t, tree.Node(leaf).Flag.Has(FullyHidden))
	require.False(t, tree.Node(tree.Leaves()[1]).Flag.Has(FullyHidden))
}

func TestForEachVertexWriteBack(t *testing.T) {
	tree, m := buildPlane(t, 10, 10, 10, DefaultMaxDepth)

	leaves := tree.Leaves()
	tree.forNodes(leaves, func(node int) {
		tree.ForEachVertex(node, IterUnique, func(vd *VertexData) {
			vd.Mask = 0.25
			vd.Co[2] = 1
		})
	})

	for v := range m.Mask {
		require.Equal(t, float32(0.25), m.Mask[v])
		require.Equal(t, float32(1), m.Positions[v][2])
	}
	snapshot := tree.MaskSnapshot()
	require.Len(t, snapshot, 100)
	require.Equal(t, float32(0.25), snapshot[57])
}
