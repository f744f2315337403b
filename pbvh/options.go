package pbvh

import (
	"fmt"

	"github.com/achilleasa/sculptree/parallel"
)

const (
	// The default maximum number of primitives in a leaf.
	DefaultLeafLimit = 128

	// The hard limit on tree depth. Traversals never need a deeper stack.
	DefaultMaxDepth = 100
)

// Options configure tree construction and queries.
type Options struct {
	// Nodes with at most this many primitives become leaves.
	LeafLimit int

	// Nodes at this depth always become leaves.
	MaxDepth int

	// If set, hidden faces and grid cells are skipped by ray queries on
	// the faces and grids backends. The dyntopo backend always skips them.
	RespectHide bool

	// If false, node passes run on the calling goroutine.
	UseThreading bool
}

// Get the default options.
func DefaultOptions() Options {
	return Options{
		LeafLimit:    DefaultLeafLimit,
		MaxDepth:     DefaultMaxDepth,
		RespectHide:  true,
		UseThreading: true,
	}
}

func (o Options) validate() error {
	if o.LeafLimit < 1 {
		return fmt.Errorf("%w: leaf limit must be positive (got %d)", ErrInvalidOptions, o.LeafLimit)
	}
	if o.MaxDepth < 0 || o.MaxDepth > DefaultMaxDepth {
		return fmt.Errorf("%w: max depth must be in [0, %d] (got %d)", ErrInvalidOptions, DefaultMaxDepth, o.MaxDepth)
	}
	return nil
}

// Get the executor settings for a pass over totnode nodes. Node passes are
// threaded when there is more than one node to process.
func ParallelSettings(useThreading bool, totnode int) parallel.Settings {
	s := parallel.DefaultSettings()
	s.UseThreading = useThreading && totnode > 1
	s.Granularity = 1
	return s
}
