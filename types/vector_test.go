package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMinMaxVec3(t *testing.T) {
	a := XYZ(1, -2, 3)
	b := XYZ(-1, 2, 3)

	require.Equal(t, XYZ(-1, -2, 3), MinVec3(a, b))
	require.Equal(t, XYZ(1, 2, 3), MaxVec3(a, b))
}

func TestNormalize(t *testing.T) {
	n := XYZ(3, 0, 4).Normalize()
	require.InDelta(t, 0.6, n[0], 1e-6)
	require.InDelta(t, 0.8, n[2], 1e-6)
	require.InDelta(t, 1.0, n.Len(), 1e-6)

	require.Equal(t, Vec3{}, Vec3{}.Normalize())
}

func TestCross(t *testing.T) {
	require.Equal(t, XYZ(0, 0, 1), XYZ(1, 0, 0).Cross(XYZ(0, 1, 0)))
}
