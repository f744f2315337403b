package pbvh

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/achilleasa/sculptree/bbox"
)

// Stats summarizes the shape of a tree.
type Stats struct {
	Backend      string  `json:"backend"`
	Nodes        int     `json:"nodes"`
	Leaves       int     `json:"leaves"`
	MaxDepth     int     `json:"max_depth"`
	Prims        int     `json:"prims"`
	UniqueVerts  int     `json:"unique_verts"`
	SharedVerts  int     `json:"shared_verts"`
	MinLeafPrims int     `json:"min_leaf_prims"`
	MaxLeafPrims int     `json:"max_leaf_prims"`
	AvgLeafPrims float64 `json:"avg_leaf_prims"`
	Bounds       bbox.BB `json:"bounds"`
}

// Get the number of primitives (faces or grids) in a leaf.
func (t *Tree) leafPrimCount(leaf int) int {
	n := &t.nodes[leaf]
	if t.backend.kind() == BMeshBackend {
		return n.bmFaces.Len()
	}
	return n.primCount
}

// Collect tree statistics.
func (t *Tree) Stats() Stats {
	t.assertBuilt()

	st := Stats{
		Backend: t.backend.kind().String(),
		Nodes:   t.totnode,
		Bounds:  t.nodes[0].VB,
	}
	for _, leaf := range t.Leaves() {
		count := t.leafPrimCount(leaf)
		if st.Leaves == 0 || count < st.MinLeafPrims {
			st.MinLeafPrims = count
		}
		if count > st.MaxLeafPrims {
			st.MaxLeafPrims = count
		}
		if depth := t.nodes[leaf].Depth; depth > st.MaxDepth {
			st.MaxDepth = depth
		}
		verts, uniq := t.backend.nodeVerts(leaf)
		st.UniqueVerts += uniq
		st.SharedVerts += len(verts) - uniq
		st.Prims += count
		st.Leaves++
	}
	if st.Leaves > 0 {
		st.AvgLeafPrims = float64(st.Prims) / float64(st.Leaves)
	}
	return st
}

// Build a tabular representation of the tree statistics and memory use.
func (t *Tree) StatsTable() string {
	st := t.Stats()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Section", "Item", "Value"})
	table.Append([]string{"Tree", "Backend", st.Backend})
	table.Append([]string{"", "Nodes", fmt.Sprint(st.Nodes)})
	table.Append([]string{"", "Leaves", fmt.Sprint(st.Leaves)})
	table.Append([]string{"", "Max depth", fmt.Sprint(st.MaxDepth)})
	table.Append([]string{"", "Bounds", fmt.Sprintf("%v - %v", st.Bounds.Min, st.Bounds.Max)})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Leaves", "Primitives", fmt.Sprint(st.Prims)})
	table.Append([]string{"", "Min/avg/max per leaf", fmt.Sprintf("%d / %.1f / %d", st.MinLeafPrims, st.AvgLeafPrims, st.MaxLeafPrims)})
	table.Append([]string{"", "Unique verts", fmt.Sprint(st.UniqueVerts)})
	table.Append([]string{"", "Shared verts", fmt.Sprint(st.SharedVerts)})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Memory", "Nodes", fmtSize(t.nodes[:t.totnode])})
	table.Append([]string{"", "Prim indices", fmtSize(t.primIndices)})
	table.Append([]string{"", "Vert indices", fmtSize(t.vertIndices)})
	table.Append([]string{"", "Corner indices", fmtSize(t.faceVertIndices)})
	table.SetFooter([]string{"Total", " ", strings.TrimLeft(fmtSize(t.nodes[:t.totnode], t.primIndices, t.vertIndices, t.faceVertIndices), " ")})

	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float32
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
