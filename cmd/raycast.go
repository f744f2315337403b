package cmd

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/achilleasa/sculptree/geom"
	"github.com/achilleasa/sculptree/types"
)

// RaycastResult describes the outcome of a raycast command.
type RaycastResult struct {
	Hit      bool       `json:"hit"`
	Node     int        `json:"node"`
	Face     int        `json:"face"`
	Vertex   int        `json:"vertex,omitempty"`
	Depth    float32    `json:"depth"`
	DistSq   float32    `json:"dist_sq,omitempty"`
	Position types.Vec3 `json:"position"`
}

func (r RaycastResult) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Ray", "Value"})
	if !r.Hit {
		table.Append([]string{"Hit", "no"})
		table.Render()
		return buf.String()
	}
	table.Append([]string{"Hit", "yes"})
	table.Append([]string{"Node", fmt.Sprint(r.Node)})
	table.Append([]string{"Face", fmt.Sprint(r.Face)})
	table.Append([]string{"Vertex", fmt.Sprint(r.Vertex)})
	table.Append([]string{"Depth", fmt.Sprintf("%.4f", r.Depth)})
	table.Append([]string{"Distance^2", fmt.Sprintf("%.4f", r.DistSq)})
	table.Append([]string{"Position", fmt.Sprint(r.Position)})
	table.Render()
	return buf.String()
}

// Raycast casts a ray against the tree and reports the closest hit or, with
// --nearest, the primitive closest to the ray.
func Raycast(ctx *cli.Context) error {
	setupLogging(ctx)

	origin, err := parseVec3(ctx.String("origin"))
	if err != nil {
		return err
	}
	dir, err := parseVec3(ctx.String("dir"))
	if err != nil {
		return err
	}
	if dir.LenSq() == 0 {
		return fmt.Errorf("--dir must be non-zero")
	}

	tree, err := loadTree(ctx)
	if err != nil {
		logger.Error(err)
		return err
	}

	ray := geom.NewRay(origin, dir)
	var res RaycastResult
	if ctx.Bool("nearest") {
		if hit, ok := tree.FindNearestToRay(ray); ok {
			res = RaycastResult{Hit: true, Node: hit.Node, Face: hit.Face, Depth: hit.Depth, DistSq: hit.DistSq}
		}
	} else if hit, ok := tree.Raycast(ray); ok {
		res = RaycastResult{Hit: true, Node: hit.Node, Face: hit.Face, Vertex: hit.Vertex, Depth: hit.Depth}
	}
	if res.Hit {
		res.Position = ray.At(res.Depth)
	}
	return printResult(ctx, res, res.Table)
}
