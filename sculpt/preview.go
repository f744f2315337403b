package sculpt

import (
	"fmt"

	"github.com/achilleasa/sculptree/parallel"
	"github.com/achilleasa/sculptree/pbvh"
)

// PreviewType selects the pair of filters stepped by a PreviewFilter.
type PreviewType uint8

// The supported preview filters. Forward steps apply the first filter of
// the pair and backward steps the second.
const (
	PreviewSmoothSharpen PreviewType = iota
	PreviewGrowShrink
)

// Step computation runs on the worker pool for meshes with more than
// previewMinParallel vertices.
const (
	previewMinParallel  = 1000
	previewGranularity  = 1000
	previewSharpenDelta = 0.03
)

type stepFunc func(tree *pbvh.Tree, v int, mask []float32) float32

// A deltaStep stores the sparse difference between two consecutive steps.
type deltaStep struct {
	index []int
	delta []float32
}

func newDeltaStep(from, to []float32) *deltaStep {
	ds := new(deltaStep)
	for i := range from {
		if from[i] != to[i] {
			ds.index = append(ds.index, i)
			ds.delta = append(ds.delta, to[i]-from[i])
		}
	}
	return ds
}

// PreviewFilter steps a mask filter back and forth interactively. Each step
// is computed once and stored as a delta against its neighbor step so that
// revisiting a step only replays the stored delta.
type PreviewFilter struct {
	tree       *pbvh.Tree
	nodes      []int
	iterations int

	forward  stepFunc
	backward stepFunc

	current int
	deltas  map[int]*deltaStep
}

// NewPreviewFilter prepares an interactive filter that runs iterations
// filter passes per step.
func NewPreviewFilter(tree *pbvh.Tree, typ PreviewType, iterations int, undo UndoPushFunc) (*PreviewFilter, error) {
	if iterations < MinIterations || iterations > MaxIterations {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIterations, iterations)
	}

	p := &PreviewFilter{
		tree:       tree,
		iterations: iterations,
		deltas:     make(map[int]*deltaStep),
	}
	switch typ {
	case PreviewSmoothSharpen:
		p.forward, p.backward = neighborAverage, previewSharpen
	case PreviewGrowShrink:
		p.forward, p.backward = neighborMax, neighborMin
	default:
		return nil, fmt.Errorf("%w: preview type %d", ErrUnknownFilter, typ)
	}
	p.nodes = prepareNodes(tree, undo)
	return p, nil
}

func previewSharpen(tree *pbvh.Tree, v int, mask []float32) float32 {
	cur := mask[v]
	val := neighborAverage(tree, v, mask) - cur
	next := cur - previewSharpenDelta
	if cur > 0.5 {
		next = cur + previewSharpenDelta
	}
	return clamp01(next + val/2)
}

// Get the current step.
func (p *PreviewFilter) Step() int {
	return p.current
}

// SetStep moves the filter one step at a time until target is reached.
func (p *PreviewFilter) SetStep(target int) {
	for p.current != target {
		next, index, forward := p.current+1, p.current, true
		if target < p.current {
			next, index, forward = p.current-1, p.current-1, false
		}

		if ds, ok := p.deltas[index]; ok {
			p.replay(ds, forward)
		} else {
			p.computeStep(index, forward)
		}
		p.current = next
	}
}

// Finish flags the filtered leaves for a mask update.
func (p *PreviewFilter) Finish() {
	for _, node := range p.nodes {
		p.tree.Node(node).MarkUpdateMask()
	}
	p.tree.UpdateMaskFlags()
}

func (p *PreviewFilter) replay(ds *deltaStep, forward bool) {
	next := p.tree.MaskSnapshot()
	for i, v := range ds.index {
		if forward {
			next[v] += ds.delta[i]
		} else {
			next[v] -= ds.delta[i]
		}
	}
	p.apply(next)
}

func (p *PreviewFilter) computeStep(index int, forward bool) {
	fn := p.backward
	if forward {
		fn = p.forward
	}

	original := p.tree.MaskSnapshot()
	current := original
	for i := 0; i < p.iterations; i++ {
		current = p.stepPass(current, fn)
	}

	// Deltas always point from the lower step to the higher one.
	if forward {
		p.deltas[index] = newDeltaStep(original, current)
	} else {
		p.deltas[index] = newDeltaStep(current, original)
	}
	logger.Debugf("stored preview step %d (%d modified values)", index, len(p.deltas[index].index))
	p.apply(current)
}

func (p *PreviewFilter) stepPass(current []float32, fn stepFunc) []float32 {
	next := make([]float32, len(current))
	settings := parallel.Settings{
		UseThreading: len(current) > previewMinParallel,
		Granularity:  previewGranularity,
	}
	parallel.Range(len(current), settings, func(v int) {
		next[v] = fn(p.tree, v, current)
	})
	return next
}

func (p *PreviewFilter) apply(mask []float32) {
	parallel.Range(len(p.nodes), nodeSettings(p.tree, p.nodes), func(i int) {
		node := p.nodes[i]
		update := false
		p.tree.ForEachVertex(node, pbvh.IterUnique, func(vd *pbvh.VertexData) {
			if vd.Mask != mask[vd.Index] {
				vd.Mask = mask[vd.Index]
				update = true
			}
		})
		if update {
			p.tree.Node(node).MarkRedraw()
		}
	})
}
