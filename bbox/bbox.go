// Package bbox implements the axis-aligned bounding boxes used by the
// sculpt BVH.
//
// A box must start out empty (see Empty) before it is expanded. Empty and
// degenerate intersections are signalled by Min > Max on at least one axis.
package bbox

import (
	"github.com/chewxy/math32"

	"github.com/achilleasa/sculptree/types"
)

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis
)

// An axis-aligned bounding box.
type BB struct {
	Min types.Vec3
	Max types.Vec3
}

// An axis-aligned bounding box with a cached centroid.
type BBC struct {
	BB
	Centroid types.Vec3
}

// Get an empty box: [+inf, -inf] on every axis.
func Empty() BB {
	var bb BB
	bb.Reset()
	return bb
}

// Create a box from two corners.
func New(min, max types.Vec3) BB {
	return BB{Min: min, Max: max}
}

// Reset the box to the empty state.
func (bb *BB) Reset() {
	bb.Min = types.Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32}
	bb.Max = types.Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32}
}

// Expand the box so that it contains p. This is a no-op if p is already inside.
func (bb *BB) Expand(p types.Vec3) {
	bb.Min = types.MinVec3(bb.Min, p)
	bb.Max = types.MaxVec3(bb.Max, p)
}

// Expand the box to the union of itself and other.
func (bb *BB) ExpandWith(other BB) {
	bb.Min = types.MinVec3(bb.Min, other.Min)
	bb.Max = types.MaxVec3(bb.Max, other.Max)
}

// Union returns the union of two boxes.
func Union(a, b BB) BB {
	a.ExpandWith(b)
	return a
}

// Return the axis with the widest extent. Ties are resolved in axis order.
func (bb BB) WidestAxis() Axis {
	dim := bb.Max.Sub(bb.Min)

	if dim[0] >= dim[1] {
		if dim[0] >= dim[2] {
			return XAxis
		}
		return ZAxis
	}

	if dim[1] >= dim[2] {
		return YAxis
	}
	return ZAxis
}

// Intersect returns the intersection of a and b. The result may be empty;
// callers must check IsEmpty.
func Intersect(a, b BB) BB {
	return BB{
		Min: types.MaxVec3(a.Min, b.Min),
		Max: types.MinVec3(a.Max, b.Max),
	}
}

// Returns true if Min > Max on any axis.
func (bb BB) IsEmpty() bool {
	return bb.Min[0] > bb.Max[0] || bb.Min[1] > bb.Max[1] || bb.Min[2] > bb.Max[2]
}

// Volume of the box; empty boxes have zero volume.
func (bb BB) Volume() float32 {
	if bb.IsEmpty() {
		return 0
	}
	dim := bb.Max.Sub(bb.Min)
	return dim[0] * dim[1] * dim[2]
}

// Center of the box.
func (bb BB) Center() types.Vec3 {
	return bb.Min.Add(bb.Max).Mul(0.5)
}

// Returns true if p lies inside the box or on its boundary.
func (bb BB) Contains(p types.Vec3) bool {
	for axis := 0; axis < 3; axis++ {
		if p[axis] < bb.Min[axis] || p[axis] > bb.Max[axis] {
			return false
		}
	}
	return true
}

// Returns true if the two boxes share at least one point.
func (bb BB) Overlaps(other BB) bool {
	return !Intersect(bb, other).IsEmpty()
}

// Returns true if both boxes have identical extents within eps.
func (bb BB) ApproxEqual(other BB, eps float32) bool {
	for axis := 0; axis < 3; axis++ {
		if math32.Abs(bb.Min[axis]-other.Min[axis]) > eps || math32.Abs(bb.Max[axis]-other.Max[axis]) > eps {
			return false
		}
	}
	return true
}

// Slab test against a ray defined by its origin and the reciprocal of its
// direction. On a hit tmin holds the entry distance (clamped to 0 when the
// origin lies inside the box).
func (bb BB) RayIntersect(origin, invDir types.Vec3) (tmin float32, ok bool) {
	if bb.IsEmpty() {
		return 0, false
	}

	tmin = -math32.MaxFloat32
	tmax := float32(math32.MaxFloat32)
	for axis := 0; axis < 3; axis++ {
		t0 := (bb.Min[axis] - origin[axis]) * invDir[axis]
		t1 := (bb.Max[axis] - origin[axis]) * invDir[axis]
		if math32.IsNaN(t0) || math32.IsNaN(t1) {
			// Ray parallel to the slab and origin on one of its planes.
			continue
		}
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tmin = math32.Max(tmin, t0)
		tmax = math32.Min(tmax, t1)
		if tmin > tmax {
			return 0, false
		}
	}

	if tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		tmin = 0
	}
	return tmin, true
}

// Create a BBC from a box, computing its centroid.
func NewBBC(bb BB) BBC {
	bbc := BBC{BB: bb}
	bbc.UpdateCentroid()
	return bbc
}

// Recalculate the centroid from the current extents.
func (bbc *BBC) UpdateCentroid() {
	bbc.Centroid = bbc.BB.Center()
}
