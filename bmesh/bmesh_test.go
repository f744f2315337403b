package bmesh

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/achilleasa/sculptree/mesh"
	"github.com/achilleasa/sculptree/types"
)

func TestCustomDataRelayout(t *testing.T) {
	var cd CustomData
	a := cd.AddLayer("a", LayerInt)
	cd.ensure(3)
	for e := 0; e < 3; e++ {
		cd.SetInt(e, a, int32(e+10))
	}

	b := cd.AddLayer("b", LayerFloat)
	require.Equal(t, 0, a)
	require.Equal(t, 1, b)
	require.Equal(t, 2, cd.Stride())
	require.Equal(t, a, cd.AddLayer("a", LayerInt))
	require.Equal(t, -1, cd.LayerOffset("missing"))

	for e := 0; e < 3; e++ {
		if got := cd.Int(e, a); got != int32(e+10) {
			t.Fatalf("[elem %d] expected layer a to survive relayout; got %d", e, got)
		}
		require.Zero(t, cd.Float(e, b))
	}

	cd.SetFloat(1, b, 0.25)
	require.Equal(t, float32(0.25), cd.Float(1, b))
	require.Equal(t, int32(11), cd.Int(1, a))
}

func TestAddKill(t *testing.T) {
	bm := New()
	v0 := bm.AddVert(types.XYZ(0, 0, 0))
	v1 := bm.AddVert(types.XYZ(1, 0, 0))
	v2 := bm.AddVert(types.XYZ(0, 1, 0))
	v3 := bm.AddVert(types.XYZ(1, 1, 0))

	f0, err := bm.AddFace([]int{v0, v1, v2})
	require.NoError(t, err)
	f1, err := bm.AddFace([]int{v1, v3, v2})
	require.NoError(t, err)

	require.Equal(t, 4, bm.NumVerts())
	require.Equal(t, 2, bm.NumFaces())
	require.InDelta(t, 1.0, bm.Face(f0).No[2], 1e-6)
	require.Equal(t, 2, bm.EdgeFaceCount(v1, v2))
	require.Equal(t, 1, bm.EdgeFaceCount(v0, v1))

	var nbs []int
	bm.VertNeighbors(v1, func(nb int) { nbs = append(nbs, nb) })
	sort.Ints(nbs)
	require.Equal(t, []int{v0, v2, v3}, nbs)

	_, err = bm.AddFace([]int{v0, v1})
	require.ErrorIs(t, err, ErrFaceSize)
	_, err = bm.AddFace([]int{v0, v1, v1})
	require.ErrorIs(t, err, ErrDuplicateVtx)

	bm.KillFace(f1)
	require.Equal(t, 1, bm.NumFaces())
	require.False(t, bm.IsFaceAlive(f1))
	require.Empty(t, bm.VertFaces(v3))

	// Killed handles are recycled.
	f2, err := bm.AddFace([]int{v1, v3, v2})
	require.NoError(t, err)
	require.Equal(t, f1, f2)

	bm.SetEdgeFlag(v0, v2, EdgeSeam, true)
	require.Equal(t, EdgeSeam, bm.EdgeFlags(v2, v0))

	bm.KillVert(v0)
	require.False(t, bm.IsVertAlive(v0))
	require.False(t, bm.IsFaceAlive(f0))
	require.Equal(t, 3, bm.NumVerts())
	require.Equal(t, 1, bm.NumFaces())
	require.Zero(t, bm.EdgeFlags(v0, v2))

	// Killing dead handles does not touch the counts or the free lists.
	bm.KillVert(v0)
	bm.KillFace(f0)
	require.Equal(t, 3, bm.NumVerts())
	require.Equal(t, 1, bm.NumFaces())
	require.Equal(t, v0, bm.AddVert(types.XYZ(0, 0, 0)))
	require.NotEqual(t, v0, bm.AddVert(types.XYZ(0, 0, 1)))
	bm.KillVert(v0)

	_, err = bm.AddFace([]int{v0, v1, v2})
	require.ErrorIs(t, err, ErrDeadVertex)
}

func TestFromMesh(t *testing.T) {
	m := mesh.NewPlane(3, 3, 1)
	m.Mask[4] = 0.75
	m.FaceSets[2] = 7

	bm := FromMesh(m)
	require.Equal(t, 9, bm.NumVerts())
	require.Equal(t, 4, bm.NumFaces())

	maskOffset := bm.VData.LayerOffset(MaskLayer)
	fsetOffset := bm.FData.LayerOffset(FaceSetLayer)
	require.Equal(t, float32(0.75), bm.VData.Float(4, maskOffset))
	require.Equal(t, int32(7), bm.FData.Int(2, fsetOffset))
	require.Equal(t, types.XYZ(0.5, 0.5, 0), bm.FaceCentroid(0))
	require.InDelta(t, 1.0, bm.Vert(4).No[2], 1e-6)
}

func TestTriangulate(t *testing.T) {
	m := mesh.NewPlane(3, 3, 1)
	m.FaceSets[1] = 3
	bm := FromMesh(m)

	if got := bm.Triangulate(); got != 4 {
		t.Fatalf("expected 4 quads to be split; got %d", got)
	}
	require.Equal(t, 8, bm.NumFaces())

	fsetOffset := bm.FData.LayerOffset(FaceSetLayer)
	for f := 0; f < bm.FaceCap(); f++ {
		require.True(t, bm.IsFaceAlive(f))
		require.Len(t, bm.FaceVerts(f), 3)
		require.InDelta(t, 1.0, bm.Face(f).No[2], 1e-6)
	}

	// The first triangle reuses the quad handle; the second one is appended.
	require.Equal(t, []int{1, 2, 5}, bm.FaceVerts(1))
	require.Equal(t, int32(3), bm.FData.Int(1, fsetOffset))
	require.Equal(t, []int{1, 5, 4}, bm.FaceVerts(5))
	require.Equal(t, int32(3), bm.FData.Int(5, fsetOffset))

	// Every quad diagonal is now shared by two triangles.
	require.Equal(t, 2, bm.EdgeFaceCount(0, 4))
}
