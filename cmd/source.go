package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli"

	"github.com/achilleasa/sculptree/asset/reader"
	"github.com/achilleasa/sculptree/bmesh"
	"github.com/achilleasa/sculptree/mesh"
	"github.com/achilleasa/sculptree/pbvh"
	"github.com/achilleasa/sculptree/types"
)

var errNoSource = errors.New("either a mesh file or the --plane flag must be specified")

// Flags shared by all commands that build a tree.
var TreeFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "backend, b",
		Value: pbvh.FacesBackend.String(),
		Usage: "tree backend: faces, grids or dyntopo",
	},
	cli.StringFlag{
		Name:  "plane",
		Usage: "generate a NxM vertex plane instead of loading a mesh file",
	},
	cli.IntFlag{
		Name:  "leaf-limit",
		Value: pbvh.DefaultLeafLimit,
		Usage: "max primitives per leaf",
	},
	cli.IntFlag{
		Name:  "max-depth",
		Value: pbvh.DefaultMaxDepth,
		Usage: "max tree depth",
	},
	cli.IntFlag{
		Name:  "grid-level",
		Value: 2,
		Usage: "subdivision level for the grids backend",
	},
	cli.BoolFlag{
		Name:  "no-threading",
		Usage: "run all node passes on a single goroutine",
	},
	cli.BoolFlag{
		Name:  "ignore-hidden",
		Usage: "do not skip hidden faces (faces and grids backends)",
	},
	cli.BoolFlag{
		Name:  "json",
		Usage: "print results as JSON",
	},
}

// Parse a "NxM" plane size.
func parsePlane(spec string) (nx, ny int, err error) {
	parts := strings.Split(strings.ToLower(spec), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid plane size %q; expected NxM", spec)
	}
	if nx, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, fmt.Errorf("invalid plane size %q: %w", spec, err)
	}
	if ny, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, fmt.Errorf("invalid plane size %q: %w", spec, err)
	}
	if nx < 2 || ny < 2 {
		return 0, 0, fmt.Errorf("invalid plane size %q; need at least 2x2 vertices", spec)
	}
	return nx, ny, nil
}

// Parse a "x,y,z" vector.
func parseVec3(spec string) (types.Vec3, error) {
	var v types.Vec3
	parts := strings.Split(spec, ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("invalid vector %q; expected x,y,z", spec)
	}
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return v, fmt.Errorf("invalid vector %q: %w", spec, err)
		}
		v[i] = float32(f)
	}
	return v, nil
}

func loadMesh(ctx *cli.Context) (*mesh.Mesh, error) {
	if spec := ctx.String("plane"); spec != "" {
		nx, ny, err := parsePlane(spec)
		if err != nil {
			return nil, err
		}
		return mesh.NewPlane(nx, ny, 1), nil
	}
	if ctx.NArg() != 1 {
		return nil, errNoSource
	}
	return reader.ReadMesh(ctx.Args().First())
}

func treeOptions(ctx *cli.Context) pbvh.Options {
	opts := pbvh.DefaultOptions()
	opts.LeafLimit = ctx.Int("leaf-limit")
	opts.MaxDepth = ctx.Int("max-depth")
	opts.UseThreading = !ctx.Bool("no-threading")
	opts.RespectHide = !ctx.Bool("ignore-hidden")
	return opts
}

// Load the mesh selected by the command flags and build a tree over it using
// the selected backend.
func loadTree(ctx *cli.Context) (*pbvh.Tree, error) {
	m, err := loadMesh(ctx)
	if err != nil {
		return nil, err
	}

	opts := treeOptions(ctx)
	start := time.Now()

	var tree *pbvh.Tree
	switch backend := ctx.String("backend"); backend {
	case pbvh.FacesBackend.String():
		tree, err = pbvh.BuildFaces(m, opts)
	case pbvh.GridsBackend.String():
		var grids *mesh.Grids
		if grids, err = mesh.NewGrids(m, ctx.Int("grid-level"), mesh.BilinearEvaluator{}); err != nil {
			return nil, err
		}
		tree, err = pbvh.BuildGrids(grids, opts)
	case pbvh.BMeshBackend.String():
		bm := bmesh.FromMesh(m)
		if split := bm.Triangulate(); split != 0 {
			logger.Infof("triangulated %d quads for dynamic topology", split)
		}
		tree, err = pbvh.BuildBMesh(bm, opts)
	default:
		return nil, fmt.Errorf("unsupported backend %q", backend)
	}
	if err != nil {
		return nil, err
	}

	logger.Infof("built %s tree with %d nodes in %d ms", tree.Backend(), tree.NumNodes(), time.Since(start).Nanoseconds()/1e6)
	return tree, nil
}
