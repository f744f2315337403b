package pbvh

import (
	"time"

	"github.com/achilleasa/sculptree/bbox"
)

// The flags set on freshly built leaves.
const leafBuildFlags = Leaf | RebuildDrawBuffers | UpdateDrawBuffers | UpdateRedraw | UpdateVisibility | UpdateMask

type buildStats struct {
	leaves   int
	maxDepth int
	took     time.Duration
}

// Build the tree from the backend primitives.
func (t *Tree) build() {
	start := time.Now()

	totprim := t.backend.numPrims()
	prims := make([]bbox.BBC, totprim)
	for p := range prims {
		prims[p] = t.backend.primBBC(p)
	}

	t.primIndices = make([]int, totprim)
	for p := range t.primIndices {
		t.primIndices[p] = p
	}
	t.faceVertIndices = make([]int32, totprim*4)
	t.vertIndices = t.vertIndices[:0]

	t.nodes = nil
	t.totnode = 0
	t.growNodes(1)
	t.nodes[0] = Node{Parent: -1}

	var stats buildStats
	t.buildNode(0, 0, totprim, prims, &stats)
	t.cache = t.backend.cacheKey()
	t.built = true

	t.UpdateVisibility()
	t.UpdateMaskFlags()

	stats.took = time.Since(start)
	t.logger.Debugf(
		"%s BVH build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d",
		t.backend.kind(), stats.took.Nanoseconds()/1e6, stats.maxDepth, t.totnode, stats.leaves,
	)
}

// Build the subtree rooted at node over primIndices[start:start+count].
// Nodes with at most LeafLimit primitives or at MaxDepth become leaves;
// otherwise the range is split at the median primitive centroid along the
// widest axis of the centroid bounds.
func (t *Tree) buildNode(node, start, count int, prims []bbox.BBC, stats *buildStats) {
	vb := bbox.Empty()
	cb := bbox.Empty()
	for _, p := range t.primIndices[start : start+count] {
		vb.ExpandWith(prims[p].BB)
		cb.Expand(prims[p].Centroid)
	}

	n := &t.nodes[node]
	n.VB = vb
	n.OrigVB = vb
	if n.Depth > stats.maxDepth {
		stats.maxDepth = n.Depth
	}

	if count <= t.opts.LeafLimit || n.Depth >= t.opts.MaxDepth {
		n.Flag |= leafBuildFlags
		n.primStart = start
		n.primCount = count
		t.backend.buildLeaf(node)
		stats.leaves++
		return
	}

	axis := cb.WidestAxis()
	mid := count / 2
	nthElement(t.primIndices[start:start+count], mid, func(p int) float32 {
		return prims[p].Centroid[axis]
	})

	children := t.allocChildPair(node)
	t.buildNode(children, start, mid, prims, stats)
	t.buildNode(children+1, start+mid, count-mid, prims, stats)
}

// Partially sort items so that the element at position k is the one that
// would be there if items were sorted by key, with no larger keys before it
// and no smaller keys after it. Runs in expected linear time.
func nthElement(items []int, k int, key func(item int) float32) {
	lo, hi := 0, len(items)-1
	for lo < hi {
		pivot := key(items[lo+(hi-lo)/2])
		i, j := lo, hi
		for i <= j {
			for key(items[i]) < pivot {
				i++
			}
			for key(items[j]) > pivot {
				j--
			}
			if i <= j {
				items[i], items[j] = items[j], items[i]
				i++
				j--
			}
		}

		switch {
		case k <= j:
			hi = j
		case k >= i:
			lo = i
		default:
			return
		}
	}
}
