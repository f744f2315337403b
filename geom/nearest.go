package geom

import (
	"github.com/achilleasa/sculptree/types"
)

// Find the parameter along segment (v0, v1) of the point closest to the ray
// line. Returns false when the segment is parallel to the ray.
func (r Ray) closestSegmentParam(v0, v1 types.Vec3) (lambda float32, ok bool) {
	a := v1.Sub(v0)
	t := v0.Sub(r.Origin)
	n := a.Cross(r.Dir)
	nlen := n.LenSq()
	if nlen == 0 {
		return 0, false
	}

	c := n.Sub(t)
	cray := c.Cross(r.Dir)
	return cray.Dot(n) / nlen, true
}

// Get the squared distance between the ray and segment (v0, v1) together with
// the depth along the ray of the closest approach.
func (r Ray) DistSqToSegment(v0, v1 types.Vec3) (distSq, depth float32) {
	var point types.Vec3
	if lambda, ok := r.closestSegmentParam(v0, v1); ok {
		switch {
		case lambda <= 0:
			point = v0
		case lambda >= 1:
			point = v1
		default:
			point = v0.Lerp(v1, lambda)
		}
	} else {
		point = v0
	}

	dvec := point.Sub(r.Origin)
	depth = dvec.Dot(r.Dir)
	distSq = dvec.LenSq() - depth*depth
	if distSq < 0 {
		distSq = 0
	}
	return distSq, depth
}

// Get the squared distance between the ray and a triangle. Rays that
// intersect the triangle have a zero distance.
func (r Ray) DistSqToTri(t0, t1, t2 types.Vec3) (distSq, depth float32) {
	if d, ok := r.IntersectTri(t0, t1, t2); ok {
		return 0, d
	}

	distSq, depth = r.DistSqToSegment(t0, t1)
	if dsq, dd := r.DistSqToSegment(t1, t2); dsq < distSq {
		distSq, depth = dsq, dd
	}
	if dsq, dd := r.DistSqToSegment(t2, t0); dsq < distSq {
		distSq, depth = dsq, dd
	}
	return distSq, depth
}

// Update depth and distSq if the triangle is closer to the ray than the
// current best.
func (r Ray) NearestTri(t0, t1, t2 types.Vec3, depth, distSq *float32) bool {
	dsq, d := r.DistSqToTri(t0, t1, t2)
	if dsq < *distSq {
		*distSq = dsq
		*depth = d
		return true
	}
	return false
}

// Update depth and distSq if the quad (as two triangles) is closer to the ray
// than the current best.
func (r Ray) NearestQuad(t0, t1, t2, t3 types.Vec3, depth, distSq *float32) bool {
	hit := r.NearestTri(t0, t1, t2, depth, distSq)
	if r.NearestTri(t0, t2, t3, depth, distSq) {
		hit = true
	}
	return hit
}

// Calculate the (unnormalized) normal of a polygon using Newell's method.
func PolyNormal(verts ...types.Vec3) types.Vec3 {
	var n types.Vec3
	for i := range verts {
		cur := verts[i]
		next := verts[(i+1)%len(verts)]
		n[0] += (cur[1] - next[1]) * (cur[2] + next[2])
		n[1] += (cur[2] - next[2]) * (cur[0] + next[0])
		n[2] += (cur[0] - next[0]) * (cur[1] + next[1])
	}
	return n.Normalize()
}
