// Package sculpt implements mask editing operations on top of a pbvh.Tree.
//
// Every operation runs as a region parallel pass over the tree leaves. Each
// leaf only writes the vertices it owns while neighbor values are read from a
// snapshot captured before the pass.
package sculpt

import (
	"errors"

	"github.com/chewxy/math32"

	"github.com/achilleasa/sculptree/log"
	"github.com/achilleasa/sculptree/parallel"
	"github.com/achilleasa/sculptree/pbvh"
)

var (
	ErrUnknownFilter     = errors.New("sculpt: unknown filter type")
	ErrInvalidIterations = errors.New("sculpt: iterations must be in the [1, 100] range")
)

// The supported iteration range for filters.
const (
	MinIterations = 1
	MaxIterations = 100
)

// UndoPushFunc is invoked once per leaf before an operation modifies the
// leaf's mask values.
type UndoPushFunc func(node int)

var logger = log.New("sculpt")

func clamp01(v float32) float32 {
	return math32.Max(0, math32.Min(v, 1))
}

// Gather the leaves an operation runs on and push undo state for them.
func prepareNodes(tree *pbvh.Tree, undo UndoPushFunc) []int {
	nodes := tree.SearchGather(nil)
	if undo != nil {
		for _, node := range nodes {
			undo(node)
		}
	}
	return nodes
}

func nodeSettings(tree *pbvh.Tree, nodes []int) parallel.Settings {
	return pbvh.ParallelSettings(tree.Options().UseThreading, len(nodes))
}
