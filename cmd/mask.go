package cmd

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/achilleasa/sculptree/pbvh"
	"github.com/achilleasa/sculptree/sculpt"
)

// Set the initial mask of every vertex and optionally fully mask a single
// seed vertex.
func initMask(ctx *cli.Context, tree *pbvh.Tree) error {
	initial := float32(ctx.Float64("init"))
	if initial < 0 || initial > 1 {
		return fmt.Errorf("--init must be in the [0, 1] range; got %g", initial)
	}
	for _, leaf := range tree.Leaves() {
		tree.ForEachVertex(leaf, pbvh.IterUnique, func(vd *pbvh.VertexData) {
			vd.Mask = initial
		})
	}

	if seed := ctx.Int("seed-vertex"); seed >= 0 {
		if seed >= tree.VertexCount() {
			return fmt.Errorf("--seed-vertex %d is out of range [0, %d)", seed, tree.VertexCount())
		}
		tree.SetVertexMask(seed, 1)
	}
	tree.MarkLeaves(pbvh.UpdateMask)
	tree.UpdateMaskFlags()
	return nil
}

func countMaskUpdates(tree *pbvh.Tree) int {
	return len(tree.SearchGather(pbvh.WithFlag(pbvh.UpdateMask)))
}

// MaskFilter applies a mask filter and displays the resulting mask.
func MaskFilter(ctx *cli.Context) error {
	setupLogging(ctx)

	typ, err := sculpt.ParseFilterType(ctx.String("type"))
	if err != nil {
		return err
	}

	tree, err := loadTree(ctx)
	if err != nil {
		logger.Error(err)
		return err
	}
	if err = initMask(ctx, tree); err != nil {
		return err
	}

	err = sculpt.ApplyMaskFilter(tree, sculpt.MaskFilterOptions{
		Type:               typ,
		Iterations:         ctx.Int("iterations"),
		AutoIterationCount: ctx.Bool("auto-iterations"),
	})
	if err != nil {
		return err
	}

	updated := countMaskUpdates(tree)
	tree.UpdateMaskFlags()
	summary := summarizeMask(tree, updated)
	return printResult(ctx, summary, summary.Table)
}

// DirtyMask generates a cavity mask and displays the resulting mask.
func DirtyMask(ctx *cli.Context) error {
	setupLogging(ctx)

	tree, err := loadTree(ctx)
	if err != nil {
		logger.Error(err)
		return err
	}
	if err = initMask(ctx, tree); err != nil {
		return err
	}

	dr := sculpt.ApplyDirtyMask(tree, sculpt.DirtyMaskOptions{DirtyOnly: ctx.Bool("dirty-only")})
	logger.Infof("cavity angle range: [%f, %f]", dr.Min, dr.Max)

	summary := summarizeMask(tree, len(tree.Leaves()))
	return printResult(ctx, summary, summary.Table)
}
