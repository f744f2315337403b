package main

import (
	"os"

	"github.com/urfave/cli"

	"github.com/achilleasa/sculptree/cmd"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	maskFlags := []cli.Flag{
		cli.Float64Flag{
			Name:  "init",
			Value: 0,
			Usage: "initial mask value for all vertices",
		},
		cli.IntFlag{
			Name:  "seed-vertex",
			Value: -1,
			Usage: "fully mask this vertex before applying the operation",
		},
	}

	app := cli.NewApp()
	app.Name = "sculptree"
	app.Usage = "build and query dynamic BVH trees over sculpting meshes"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "build",
			Usage: "build a tree over a mesh and display its statistics",
			Description: `
Load a mesh from a wavefront obj file (or generate a plane with --plane NxM),
partition it using the selected backend and print a summary of the resulting
tree. With the dyntopo backend, --max-edge splits all triangle edges longer than
the given length before printing the summary.`,
			ArgsUsage: "[mesh.obj]",
			Flags: append([]cli.Flag{
				cli.Float64Flag{
					Name:  "max-edge",
					Usage: "split dyntopo edges longer than this value",
				},
				cli.BoolFlag{
					Name:  "validate",
					Usage: "verify the tree invariants",
				},
			}, cmd.TreeFlags...),
			Action: cmd.BuildTree,
		},
		{
			Name:      "mask-filter",
			Usage:     "apply a mask filter and display the resulting mask",
			ArgsUsage: "[mesh.obj]",
			Flags: append(append([]cli.Flag{
				cli.StringFlag{
					Name:  "type, t",
					Value: "smooth",
					Usage: "filter type: smooth, sharpen, grow, shrink, contrast-increase or contrast-decrease",
				},
				cli.IntFlag{
					Name:  "iterations, i",
					Value: 1,
					Usage: "number of filter iterations [1, 100]",
				},
				cli.BoolFlag{
					Name:  "auto-iterations",
					Usage: "derive the iteration count from the vertex count",
				},
			}, maskFlags...), cmd.TreeFlags...),
			Action: cmd.MaskFilter,
		},
		{
			Name:      "dirty-mask",
			Usage:     "generate a mask from the mesh cavity",
			ArgsUsage: "[mesh.obj]",
			Flags: append(append([]cli.Flag{
				cli.BoolFlag{
					Name:  "dirty-only",
					Usage: "don't generate clean values for convex areas",
				},
			}, maskFlags...), cmd.TreeFlags...),
			Action: cmd.DirtyMask,
		},
		{
			Name:      "raycast",
			Usage:     "cast a ray against the mesh",
			ArgsUsage: "[mesh.obj]",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "origin",
					Value: "0,0,10",
					Usage: "ray origin as x,y,z",
				},
				cli.StringFlag{
					Name:  "dir",
					Value: "0,0,-1",
					Usage: "ray direction as x,y,z",
				},
				cli.BoolFlag{
					Name:  "nearest",
					Usage: "report the primitive closest to the ray instead of the first hit",
				},
			}, cmd.TreeFlags...),
			Action: cmd.Raycast,
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
