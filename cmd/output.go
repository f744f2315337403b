package cmd

import (
	"bytes"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/segmentio/encoding/json"
	"github.com/urfave/cli"

	"github.com/achilleasa/sculptree/pbvh"
)

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// Print the value as JSON if requested or render it using the table
// callback otherwise.
func printResult(ctx *cli.Context, v interface{}, table func() string) error {
	if ctx.Bool("json") {
		return writeJSON(ctx.App.Writer, v)
	}
	_, err := fmt.Fprint(ctx.App.Writer, table())
	return err
}

// MaskSummary describes the distribution of mask values after an operation.
type MaskSummary struct {
	Vertices     int     `json:"vertices"`
	Min          float32 `json:"min"`
	Max          float32 `json:"max"`
	Mean         float64 `json:"mean"`
	Masked       int     `json:"masked"`
	UpdatedNodes int     `json:"updated_nodes"`
}

// Summarize the mask of the vertices owned by the tree leaves.
func summarizeMask(tree *pbvh.Tree, updated int) MaskSummary {
	summary := MaskSummary{Min: 1, UpdatedNodes: updated}
	var sum float64
	for _, leaf := range tree.Leaves() {
		tree.ForEachVertex(leaf, pbvh.IterUnique, func(vd *pbvh.VertexData) {
			summary.Vertices++
			sum += float64(vd.Mask)
			if vd.Mask < summary.Min {
				summary.Min = vd.Mask
			}
			if vd.Mask > summary.Max {
				summary.Max = vd.Mask
			}
			if vd.Mask > 0 {
				summary.Masked++
			}
		})
	}
	if summary.Vertices > 0 {
		summary.Mean = sum / float64(summary.Vertices)
	} else {
		summary.Min = 0
	}
	return summary
}

func (s MaskSummary) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Mask", "Value"})
	table.Append([]string{"Vertices", fmt.Sprint(s.Vertices)})
	table.Append([]string{"Masked vertices", fmt.Sprint(s.Masked)})
	table.Append([]string{"Min / mean / max", fmt.Sprintf("%.4f / %.4f / %.4f", s.Min, s.Mean, s.Max)})
	table.Append([]string{"Updated nodes", fmt.Sprint(s.UpdatedNodes)})
	table.Render()
	return buf.String()
}
