package cmd

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/achilleasa/sculptree/pbvh"
)

// BuildTree builds a tree over a mesh and displays its statistics.
func BuildTree(ctx *cli.Context) error {
	setupLogging(ctx)

	tree, err := loadTree(ctx)
	if err != nil {
		logger.Error(err)
		return err
	}

	if maxEdge := ctx.Float64("max-edge"); maxEdge > 0 {
		if tree.Backend() != pbvh.BMeshBackend {
			return fmt.Errorf("--max-edge requires the %s backend", pbvh.BMeshBackend)
		}
		split := tree.SubdivideLongEdges(nil, float32(maxEdge))
		tree.UpdateBB()
		tree.UpdateNormals()
		logger.Noticef("split %d edges longer than %g", split, maxEdge)
	}

	if ctx.Bool("validate") {
		if err := tree.Validate(); err != nil {
			logger.Error(err)
			return err
		}
		logger.Notice("tree invariants verified")
	}

	return printResult(ctx, tree.Stats(), tree.StatsTable)
}
