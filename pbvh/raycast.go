package pbvh

import (
	"sort"

	"github.com/chewxy/math32"

	"github.com/achilleasa/sculptree/geom"
	"github.com/achilleasa/sculptree/parallel"
	"github.com/achilleasa/sculptree/types"
)

// RayHit describes the closest surface hit along a ray.
type RayHit struct {
	geom.DepthHit

	// The leaf and face (mesh face, grid or face handle) that produced
	// the closest hit.
	Node int
	Face int

	// The vertex of the hit face nearest to the hit point.
	Vertex int

	FaceNormal types.Vec3
}

// NearestHit describes the primitive closest to a ray.
type NearestHit struct {
	DistSq float32
	Depth  float32
	Node   int
	Face   int
}

// Collect the leaves whose bounds are hit by the ray ordered by entry
// distance. Each leaf's TMin is updated.
func (t *Tree) rayLeaves(ray geom.Ray) []int {
	invDir := ray.InvDir()
	skipHidden := t.opts.RespectHide || t.backend.kind() == BMeshBackend

	var leaves []int
	stack := make([]int, 1, t.opts.MaxDepth+2)
	stack[0] = 0
	for len(stack) > 0 {
		index := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &t.nodes[index]
		tmin, ok := n.VB.RayIntersect(ray.Origin, invDir)
		if !ok {
			continue
		}
		if !n.IsLeaf() {
			stack = append(stack, n.ChildrenOffset+1, n.ChildrenOffset)
			continue
		}
		if skipHidden && n.Flag.Has(FullyHidden) {
			continue
		}
		n.TMin = tmin
		leaves = append(leaves, index)
	}

	sort.SliceStable(leaves, func(i, j int) bool {
		return t.nodes[leaves[i]].TMin < t.nodes[leaves[j]].TMin
	})
	return leaves
}

// Raycast finds the closest surface hit along a ray. Leaves are visited in
// order of their entry distance and the traversal stops once the closest
// hit lies before the next leaf.
func (t *Tree) Raycast(ray geom.Ray) (RayHit, bool) {
	t.assertBuilt()

	hit := RayHit{DepthHit: geom.NewDepthHit(), Node: -1, Face: -1, Vertex: -1}
	found := false
	for _, leaf := range t.rayLeaves(ray) {
		if found && t.nodes[leaf].TMin > hit.Depth {
			break
		}
		if t.backend.raycastNode(leaf, ray, &hit) {
			found = true
		}
	}
	return hit, found
}

func newNearestHit() NearestHit {
	return NearestHit{DistSq: math32.MaxFloat32, Depth: math32.MaxFloat32, Node: -1, Face: -1}
}

// FindNearestToRay finds the primitive closest to a ray. It is used for
// brush falloff when the ray misses the surface. The leaves are searched
// concurrently and the per worker results reduced by distance.
func (t *Tree) FindNearestToRay(ray geom.Ray) (NearestHit, bool) {
	t.assertBuilt()

	var leaves []int
	if t.opts.RespectHide || t.backend.kind() == BMeshBackend {
		leaves = t.SearchGather(func(n *Node) bool {
			return !n.IsLeaf() || !n.Flag.Has(FullyHidden)
		})
	} else {
		leaves = t.Leaves()
	}

	hit := parallel.RangeReduce(
		len(leaves),
		t.parallelSettings(len(leaves)),
		newNearestHit,
		func(i int, acc *NearestHit) {
			t.backend.nearestNode(leaves[i], ray, acc)
		},
		func(dst, src *NearestHit) {
			if src.DistSq < dst.DistSq || (src.DistSq == dst.DistSq && src.Depth < dst.Depth) {
				*dst = *src
			}
		},
	)
	return hit, hit.Face != -1
}
