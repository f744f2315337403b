package sculpt

import (
	"fmt"
	"strings"

	"github.com/achilleasa/sculptree/parallel"
	"github.com/achilleasa/sculptree/pbvh"
)

// FilterType selects the operation applied by ApplyMaskFilter.
type FilterType uint8

// The supported mask filters.
const (
	FilterSmooth           FilterType = 0
	FilterSharpen          FilterType = 1
	FilterGrow             FilterType = 2
	FilterShrink           FilterType = 3
	FilterContrastIncrease FilterType = 5
	FilterContrastDecrease FilterType = 6
)

var filterNames = map[FilterType]string{
	FilterSmooth:           "smooth",
	FilterSharpen:          "sharpen",
	FilterGrow:             "grow",
	FilterShrink:           "shrink",
	FilterContrastIncrease: "contrast-increase",
	FilterContrastDecrease: "contrast-decrease",
}

func (t FilterType) String() string {
	if name, ok := filterNames[t]; ok {
		return name
	}
	return fmt.Sprintf("FilterType(%d)", uint8(t))
}

// ParseFilterType maps a filter name (e.g. "grow" or "contrast-increase") to
// a FilterType.
func ParseFilterType(name string) (FilterType, error) {
	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for typ, typName := range filterNames {
		if typName == name {
			return typ, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
}

// Change applied by the sharpen filter towards the closest extreme.
const sharpenStep = 0.05

// Contrast change applied per iteration by the contrast filters.
const contrastStep = 0.1

const floatEpsilon = 1.1920929e-7

// One iteration is applied for every autoIterationVerts mesh vertices.
const autoIterationVerts = 50000

// MaskFilterOptions configure ApplyMaskFilter.
type MaskFilterOptions struct {
	Type FilterType

	// The number of filter iterations; ignored if AutoIterationCount is set.
	Iterations int

	// Derive the iteration count from the mesh vertex count.
	AutoIterationCount bool

	// Optional undo hook.
	OnUndoPush UndoPushFunc
}

// Get the default mask filter options.
func DefaultMaskFilterOptions() MaskFilterOptions {
	return MaskFilterOptions{
		Type:       FilterSmooth,
		Iterations: 1,
	}
}

func (opts MaskFilterOptions) validate() error {
	if _, ok := filterNames[opts.Type]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownFilter, uint8(opts.Type))
	}
	if !opts.AutoIterationCount && (opts.Iterations < MinIterations || opts.Iterations > MaxIterations) {
		return fmt.Errorf("%w: %d", ErrInvalidIterations, opts.Iterations)
	}
	return nil
}

// Compute the gain and offset of a contrast filter pass. A positive contrast
// spreads values away from 0.5; a negative one pulls them towards it.
func ContrastGainOffset(contrast float32) (gain, offset float32) {
	delta := contrast / 2
	gain = 1 - 2*delta
	if contrast > 0 {
		if gain == 0 {
			gain = floatEpsilon
		}
		gain = 1 / gain
	}
	return gain, -gain * delta
}

// ApplyMaskFilter runs a mask filter over every leaf of the tree. Leaves
// whose mask values changed are flagged with UpdateMask.
func ApplyMaskFilter(tree *pbvh.Tree, opts MaskFilterOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}

	iterations := opts.Iterations
	if opts.AutoIterationCount {
		iterations = tree.VertexCount()/autoIterationVerts + 1
	}

	nodes := prepareNodes(tree, opts.OnUndoPush)
	for i := 0; i < iterations; i++ {
		filterPass(tree, nodes, opts.Type)
	}
	logger.Debugf("applied %s mask filter (%d iterations) to %d nodes", opts.Type, iterations, len(nodes))
	return nil
}

// SmoothMask applies the smooth filter to a set of leaves.
func SmoothMask(tree *pbvh.Tree, nodes []int, iterations int) {
	for i := 0; i < iterations; i++ {
		filterPass(tree, nodes, FilterSmooth)
	}
}

func filterPass(tree *pbvh.Tree, nodes []int, typ FilterType) {
	var gain, offset float32
	switch typ {
	case FilterContrastIncrease:
		gain, offset = ContrastGainOffset(contrastStep)
	case FilterContrastDecrease:
		gain, offset = ContrastGainOffset(-contrastStep)
	}

	snapshot := tree.MaskSnapshot()
	parallel.Range(len(nodes), nodeSettings(tree, nodes), func(i int) {
		node := nodes[i]
		update := false
		tree.ForEachVertex(node, pbvh.IterUnique, func(vd *pbvh.VertexData) {
			prev := vd.Mask
			switch typ {
			case FilterSmooth:
				vd.Mask = neighborAverage(tree, vd.Index, snapshot)
			case FilterSharpen:
				val := neighborAverage(tree, vd.Index, snapshot) - vd.Mask
				if vd.Mask > 0.5 {
					vd.Mask += sharpenStep
				} else {
					vd.Mask -= sharpenStep
				}
				vd.Mask += val / 2
			case FilterGrow:
				vd.Mask = neighborMax(tree, vd.Index, snapshot)
			case FilterShrink:
				vd.Mask = neighborMin(tree, vd.Index, snapshot)
			case FilterContrastIncrease, FilterContrastDecrease:
				vd.Mask = gain*vd.Mask + offset
			}
			vd.Mask = clamp01(vd.Mask)
			if vd.Mask != prev {
				update = true
			}
		})
		if update {
			tree.Node(node).MarkUpdateMask()
		}
	})
}

// Average mask of the neighbors of v. Vertices without neighbors keep their
// own value.
func neighborAverage(tree *pbvh.Tree, v int, mask []float32) float32 {
	var (
		sum   float32
		total int
	)
	tree.VertexNeighbors(v, func(nb int) {
		sum += mask[nb]
		total++
	})
	if total == 0 {
		return mask[v]
	}
	return sum / float32(total)
}

func neighborMax(tree *pbvh.Tree, v int, mask []float32) float32 {
	var max float32
	tree.VertexNeighbors(v, func(nb int) {
		if mask[nb] > max {
			max = mask[nb]
		}
	})
	return max
}

func neighborMin(tree *pbvh.Tree, v int, mask []float32) float32 {
	var min float32 = 1
	tree.VertexNeighbors(v, func(nb int) {
		if mask[nb] < min {
			min = mask[nb]
		}
	})
	return min
}
