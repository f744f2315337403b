package pbvh

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/achilleasa/sculptree/geom"
	"github.com/achilleasa/sculptree/mesh"
	"github.com/achilleasa/sculptree/types"
)

func TestRaycastFaces(t *testing.T) {
	tree, m := buildPlane(t, 10, 10, 10, DefaultMaxDepth)

	ray := geom.NewRay(types.XYZ(2.3, 3.2, 5), types.XYZ(0, 0, -1))
	hit, ok := tree.Raycast(ray)
	require.True(t, ok)
	require.InDelta(t, 5.0, hit.Depth, 1e-5)
	require.Equal(t, 1, hit.HitCount)
	require.Equal(t, 3*9+2, hit.Face)
	require.Equal(t, 3*10+2, hit.Vertex)
	require.InDelta(t, 1.0, hit.FaceNormal[2], 1e-6)
	require.Contains(t, tree.NodePrims(hit.Node), hit.Face)

	_, ok = tree.Raycast(geom.NewRay(types.XYZ(20, 20, 5), types.XYZ(0, 0, -1)))
	require.False(t, ok)

	// Pointing away from the surface.
	_, ok = tree.Raycast(geom.NewRay(types.XYZ(2.3, 3.2, 5), types.XYZ(0, 0, 1)))
	require.False(t, ok)

	// Hidden faces are skipped when hiding is respected.
	m.HidePoly[hit.Face] = true
	_, ok = tree.Raycast(ray)
	require.False(t, ok)

	tree.opts.RespectHide = false
	_, ok = tree.Raycast(ray)
	require.True(t, ok)
}

func TestRaycastClosestOfStack(t *testing.T) {
	// Two parallel quads at z=0 and z=2.
	positions := []types.Vec3{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 2}, {1, 0, 2}, {1, 1, 2}, {0, 1, 2},
	}
	m, err := mesh.New(positions, [][]int{{0, 1, 2, 3}, {4, 5, 6, 7}})
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.LeafLimit = 1
	tree, err := BuildFaces(m, opts)
	require.NoError(t, err)
	require.Len(t, tree.Leaves(), 2)

	hit, ok := tree.Raycast(geom.NewRay(types.XYZ(0.25, 0.5, 5), types.XYZ(0, 0, -1)))
	require.True(t, ok)
	require.Equal(t, 1, hit.Face)
	require.InDelta(t, 3.0, hit.Depth, 1e-5)
}

func TestFindNearestToRay(t *testing.T) {
	tree, _ := buildPlane(t, 10, 10, 10, DefaultMaxDepth)

	hit, ok := tree.FindNearestToRay(geom.NewRay(types.XYZ(12, 4.5, 5), types.XYZ(0, 0, -1)))
	require.True(t, ok)
	require.Equal(t, 4*9+8, hit.Face)
	require.InDelta(t, 9.0, hit.DistSq, 1e-4)
	require.InDelta(t, 5.0, hit.Depth, 1e-4)

	// A ray through the surface has a zero distance.
	hit, ok = tree.FindNearestToRay(geom.NewRay(types.XYZ(2.3, 3.2, 5), types.XYZ(0, 0, -1)))
	require.True(t, ok)
	require.Zero(t, hit.DistSq)
	require.Equal(t, 3*9+2, hit.Face)
}
