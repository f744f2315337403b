package bbox

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/achilleasa/sculptree/types"
)

func TestExpand(t *testing.T) {
	bb := Empty()
	require.True(t, bb.IsEmpty())

	bb.Expand(types.XYZ(1, 2, 3))
	bb.Expand(types.XYZ(-1, 0, 5))
	require.Equal(t, types.XYZ(-1, 0, 3), bb.Min)
	require.Equal(t, types.XYZ(1, 2, 5), bb.Max)

	// Expanding with a point that is already inside is a no-op
	before := bb
	bb.Expand(types.XYZ(0, 1, 4))
	require.Equal(t, before, bb)
}

func TestExpandWith(t *testing.T) {
	a := New(types.XYZ(0, 0, 0), types.XYZ(1, 1, 1))
	b := New(types.XYZ(2, -1, 0), types.XYZ(3, 0, 1))

	u := Union(a, b)
	require.Equal(t, types.XYZ(0, -1, 0), u.Min)
	require.Equal(t, types.XYZ(3, 1, 1), u.Max)

	// Union with an empty box leaves the box untouched
	require.Equal(t, a, Union(a, Empty()))
}

func TestWidestAxis(t *testing.T) {
	specs := []struct {
		max types.Vec3
		exp Axis
	}{
		{types.XYZ(3, 1, 1), XAxis},
		{types.XYZ(1, 3, 1), YAxis},
		{types.XYZ(1, 1, 3), ZAxis},
		// ties go to the first axis
		{types.XYZ(2, 2, 2), XAxis},
		{types.XYZ(1, 2, 2), YAxis},
		{types.XYZ(2, 1, 2), XAxis},
	}

	for index, s := range specs {
		bb := New(types.Vec3{}, s.max)
		if got := bb.WidestAxis(); got != s.exp {
			t.Fatalf("[spec %d] expected widest axis %d; got %d", index, s.exp, got)
		}
	}
}

func TestIntersectAndVolume(t *testing.T) {
	a := New(types.XYZ(0, 0, 0), types.XYZ(2, 2, 2))
	b := New(types.XYZ(1, 1, 1), types.XYZ(3, 3, 3))

	isect := Intersect(a, b)
	require.False(t, isect.IsEmpty())
	require.Equal(t, float32(1), isect.Volume())
	require.Equal(t, float32(8), a.Volume())

	c := New(types.XYZ(5, 5, 5), types.XYZ(6, 6, 6))
	require.True(t, Intersect(a, c).IsEmpty())
	require.Equal(t, float32(0), Intersect(a, c).Volume())
	require.False(t, a.Overlaps(c))
	require.True(t, a.Overlaps(b))
}

func TestRayIntersect(t *testing.T) {
	bb := New(types.XYZ(-1, -1, -1), types.XYZ(1, 1, 1))

	inv := func(d types.Vec3) types.Vec3 {
		return types.XYZ(1/d[0], 1/d[1], 1/d[2])
	}

	tmin, ok := bb.RayIntersect(types.XYZ(0, 0, -5), inv(types.XYZ(0, 0, 1)))
	require.True(t, ok)
	require.InDelta(t, 4.0, tmin, 1e-6)

	// Origin inside the box
	tmin, ok = bb.RayIntersect(types.XYZ(0, 0, 0), inv(types.XYZ(0, 0, 1)))
	require.True(t, ok)
	require.Equal(t, float32(0), tmin)

	// Pointing away
	_, ok = bb.RayIntersect(types.XYZ(0, 0, -5), inv(types.XYZ(0, 0, -1)))
	require.False(t, ok)

	// Miss
	_, ok = bb.RayIntersect(types.XYZ(5, 0, -5), inv(types.XYZ(0, 0, 1)))
	require.False(t, ok)

	_, ok = Empty().RayIntersect(types.XYZ(0, 0, -5), inv(types.XYZ(0, 0, 1)))
	require.False(t, ok)
}

func TestCentroid(t *testing.T) {
	bbc := NewBBC(New(types.XYZ(0, 0, 0), types.XYZ(2, 4, 6)))
	require.Equal(t, types.XYZ(1, 2, 3), bbc.Centroid)
}

func TestApproxEqual(t *testing.T) {
	a := New(types.XYZ(0, 0, 0), types.XYZ(1, 1, 1))
	b := New(types.XYZ(0, 0, 0.0005), types.XYZ(1, 1, 1))
	require.True(t, a.ApproxEqual(b, 1e-3))
	require.False(t, a.ApproxEqual(b, 1e-4))
}
