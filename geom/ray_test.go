package geom

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/require"

	"github.com/achilleasa/sculptree/types"
)

var (
	q0 = types.XYZ(0, 0, 0)
	q1 = types.XYZ(1, 0, 0)
	q2 = types.XYZ(1, 1, 0)
	q3 = types.XYZ(0, 1, 0)
)

func TestIntersectTri(t *testing.T) {
	r := NewRay(types.XYZ(0.25, 0.25, 5), types.XYZ(0, 0, -1))

	depth, ok := r.IntersectTri(q0, q1, q2)
	require.True(t, ok)
	require.InDelta(t, 5.0, depth, 1e-5)

	// Both windings hit
	depth, ok = r.IntersectTri(q2, q1, q0)
	require.True(t, ok)
	require.InDelta(t, 5.0, depth, 1e-5)

	// Outside the triangle but inside the quad
	below := NewRay(types.XYZ(0.75, 0.25, 5), types.XYZ(0, 0, -1))
	_, ok = below.IntersectTri(q0, q2, q3)
	require.False(t, ok)
	_, ok = below.IntersectTri(q0, q1, q2)
	require.True(t, ok)

	// Degenerate triangle
	_, ok = r.IntersectTri(q0, q0, q1)
	require.False(t, ok)

	// Triangle behind the origin
	back := NewRay(types.XYZ(0.25, 0.25, 5), types.XYZ(0, 0, 1))
	_, ok = back.IntersectTri(q0, q1, q2)
	require.False(t, ok)
}

func TestClosestQuad(t *testing.T) {
	r := NewRay(types.XYZ(0.25, 0.75, 2), types.XYZ(0, 0, -1))

	depth := float32(math32.MaxFloat32)
	require.True(t, r.ClosestQuad(q0, q1, q2, q3, &depth))
	require.InDelta(t, 2.0, depth, 1e-5)

	// A farther quad does not replace the closer hit
	far := types.XYZ(0, 0, -1)
	require.False(t, r.ClosestQuad(q0.Add(far), q1.Add(far), q2.Add(far), q3.Add(far), &depth))
	require.InDelta(t, 2.0, depth, 1e-5)
}

func TestDepthHit(t *testing.T) {
	r := NewRay(types.XYZ(0.25, 0.25, 5), types.XYZ(0, 0, -1))
	h := NewDepthHit()

	near := types.XYZ(0, 0, 2)
	require.True(t, h.AddTri(r, q0, q1, q2))
	require.True(t, h.AddTri(r, q0.Add(near), q1.Add(near), q2.Add(near)))

	require.Equal(t, 2, h.HitCount)
	require.InDelta(t, 3.0, h.Depth, 1e-5)
	require.InDelta(t, 5.0, h.BackDepth, 1e-5)
}

func TestNearest(t *testing.T) {
	// Ray passing one unit to the right of the quad
	r := NewRay(types.XYZ(2, 0.5, 5), types.XYZ(0, 0, -1))

	depth := float32(math32.MaxFloat32)
	distSq := float32(math32.MaxFloat32)
	require.True(t, r.NearestQuad(q0, q1, q2, q3, &depth, &distSq))
	require.InDelta(t, 1.0, distSq, 1e-5)
	require.InDelta(t, 5.0, depth, 1e-5)

	// Intersecting rays have zero distance
	r = NewRay(types.XYZ(0.5, 0.5, 5), types.XYZ(0, 0, -1))
	dsq, d := r.DistSqToTri(q0, q1, q2)
	require.Equal(t, float32(0), dsq)
	require.InDelta(t, 5.0, d, 1e-5)
}

func TestPolyNormal(t *testing.T) {
	n := PolyNormal(q0, q1, q2, q3)
	require.InDelta(t, 1.0, n[2], 1e-6)

	n = PolyNormal(q2, q1, q0)
	require.InDelta(t, -1.0, n[2], 1e-6)
}
