package sculpt

import (
	"github.com/chewxy/math32"

	"github.com/achilleasa/sculptree/parallel"
	"github.com/achilleasa/sculptree/pbvh"
	"github.com/achilleasa/sculptree/types"
)

// Dirty ranges narrower than this are treated as flat.
const minDirtyRange = 0.0001

// DirtyMaskOptions configure ApplyDirtyMask.
type DirtyMaskOptions struct {
	// Don't generate clean values for convex areas.
	DirtyOnly bool

	// Optional undo hook.
	OnUndoPush UndoPushFunc
}

// DirtyRange is the range of cavity angles found across the mesh.
type DirtyRange struct {
	Min float32
	Max float32
}

func emptyDirtyRange() DirtyRange {
	return DirtyRange{Min: math32.MaxFloat32, Max: -math32.MaxFloat32}
}

func (r *DirtyRange) add(v float32) {
	r.Min = math32.Min(r.Min, v)
	r.Max = math32.Max(r.Max, v)
}

func (r *DirtyRange) merge(o *DirtyRange) {
	r.Min = math32.Min(r.Min, o.Min)
	r.Max = math32.Max(r.Max, o.Max)
}

// Angle between the vertex normal and the average direction towards its
// neighbors. Values above pi/2 indicate convex areas.
func cavityAngle(tree *pbvh.Tree, v int, co, no types.Vec3) float32 {
	var (
		avg   types.Vec3
		total int
	)
	tree.VertexNeighbors(v, func(nb int) {
		avg = avg.Add(tree.VertexCo(nb).Sub(co).Normalize())
		total++
	})
	if total == 0 {
		return 0
	}

	avg = avg.Mul(1 / float32(total))
	dot := math32.Max(-1, math32.Min(avg.Dot(no), 1))
	return math32.Max(math32.Acos(dot), 0)
}

// ApplyDirtyMask adds a cavity based term to the mask of every vertex. The
// cavity angle range is computed with a parallel reduction over all leaves
// before the mask is updated. Returns the cavity range.
func ApplyDirtyMask(tree *pbvh.Tree, opts DirtyMaskOptions) DirtyRange {
	nodes := prepareNodes(tree, opts.OnUndoPush)
	settings := nodeSettings(tree, nodes)

	dr := parallel.RangeReduce(len(nodes), settings, emptyDirtyRange,
		func(i int, acc *DirtyRange) {
			tree.ForEachVertex(nodes[i], pbvh.IterUnique, func(vd *pbvh.VertexData) {
				acc.add(cavityAngle(tree, vd.Index, vd.Co, vd.No))
			})
		},
		func(dst, src *DirtyRange) { dst.merge(src) },
	)

	scale := dr.Max - dr.Min
	if scale < minDirtyRange {
		scale = 0
	} else {
		scale = 1 / scale
	}

	parallel.Range(len(nodes), settings, func(i int) {
		node := nodes[i]
		tree.ForEachVertex(node, pbvh.IterUnique, func(vd *pbvh.VertexData) {
			angle := cavityAngle(tree, vd.Index, vd.Co, vd.No)
			mask := vd.Mask + (1 - (angle-dr.Min)*scale)
			if opts.DirtyOnly {
				mask = math32.Min(mask, 0.5) * 2
			}
			vd.Mask = clamp01(mask)
		})
		tree.Node(node).MarkUpdateMask()
	})

	tree.UpdateMaskFlags()
	logger.Debugf("applied dirty mask to %d nodes (cavity range [%f, %f])", len(nodes), dr.Min, dr.Max)
	return dr
}
