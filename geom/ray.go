// Package geom contains the ray/primitive routines used for picking and
// brush falloff queries against the sculpt BVH.
//
// None of these functions fail: degenerate triangles and parallel rays are
// reported as misses.
package geom

import (
	"github.com/chewxy/math32"

	"github.com/achilleasa/sculptree/types"
)

// Determinants smaller than this are treated as a ray parallel to the triangle.
const isectEpsilon = 1e-8

// A ray with a normalized direction.
type Ray struct {
	Origin types.Vec3
	Dir    types.Vec3

	invDir types.Vec3
}

// Create a ray. The direction is normalized.
func NewRay(origin, dir types.Vec3) Ray {
	dir = dir.Normalize()
	return Ray{
		Origin: origin,
		Dir:    dir,
		invDir: types.XYZ(1/dir[0], 1/dir[1], 1/dir[2]),
	}
}

// Get the reciprocal of the ray direction; used by slab tests.
func (r Ray) InvDir() types.Vec3 {
	return r.invDir
}

// Get the point at distance t along the ray.
func (r Ray) At(t float32) types.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// Intersect the ray with a triangle using the Möller–Trumbore algorithm. Both
// windings are accepted; hits behind the ray origin are rejected.
func (r Ray) IntersectTri(t0, t1, t2 types.Vec3) (depth float32, ok bool) {
	e1 := t1.Sub(t0)
	e2 := t2.Sub(t0)
	p := r.Dir.Cross(e2)
	det := e1.Dot(p)
	if math32.Abs(det) < isectEpsilon {
		return 0, false
	}

	invDet := 1 / det
	s := r.Origin.Sub(t0)
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(e1)
	v := r.Dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	depth = e2.Dot(q) * invDet
	if depth < 0 {
		return 0, false
	}
	return depth, true
}

// Test a triangle and update depth if the hit is closer than the current value.
func (r Ray) ClosestTri(t0, t1, t2 types.Vec3, depth *float32) bool {
	d, ok := r.IntersectTri(t0, t1, t2)
	if ok && d < *depth {
		*depth = d
		return true
	}
	return false
}

// Test a quad as the two triangles (t0, t1, t2) and (t0, t2, t3) and update
// depth if either one yields a closer hit.
func (r Ray) ClosestQuad(t0, t1, t2, t3 types.Vec3, depth *float32) bool {
	hit := r.ClosestTri(t0, t1, t2, depth)
	if r.ClosestTri(t0, t2, t3, depth) {
		hit = true
	}
	return hit
}

// DepthHit accumulates the closest and the second closest (back face) hit
// along a ray together with the total number of hits. It is used for
// see-through picking.
type DepthHit struct {
	Depth     float32
	BackDepth float32
	HitCount  int
}

// Create a DepthHit with no recorded hits.
func NewDepthHit() DepthHit {
	return DepthHit{Depth: math32.MaxFloat32, BackDepth: math32.MaxFloat32}
}

// Test a triangle and record the hit. Returns true if the ray hits the triangle.
func (h *DepthHit) AddTri(r Ray, t0, t1, t2 types.Vec3) bool {
	d, ok := r.IntersectTri(t0, t1, t2)
	if !ok {
		return false
	}

	h.HitCount++
	if d < h.Depth {
		h.BackDepth = h.Depth
		h.Depth = d
	} else if d > h.Depth && d <= h.BackDepth {
		h.BackDepth = d
	}
	return true
}

// Test a quad as two triangles and record any hits.
func (h *DepthHit) AddQuad(r Ray, t0, t1, t2, t3 types.Vec3) bool {
	hit := h.AddTri(r, t0, t1, t2)
	if h.AddTri(r, t0, t2, t3) {
		hit = true
	}
	return hit
}
