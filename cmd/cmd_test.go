package cmd

import (
	"bytes"
	"testing"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"

	"github.com/achilleasa/sculptree/log"
	"github.com/achilleasa/sculptree/pbvh"
)

func init() {
	log.Discard()
}

func runApp(t *testing.T, args ...string) []byte {
	t.Helper()

	var buf bytes.Buffer
	app := cli.NewApp()
	app.Writer = &buf
	app.Commands = []cli.Command{
		{
			Name: "build",
			Flags: append([]cli.Flag{
				cli.Float64Flag{Name: "max-edge"},
				cli.BoolFlag{Name: "validate"},
			}, TreeFlags...),
			Action: BuildTree,
		},
		{
			Name: "mask-filter",
			Flags: append([]cli.Flag{
				cli.StringFlag{Name: "type", Value: "smooth"},
				cli.IntFlag{Name: "iterations", Value: 1},
				cli.BoolFlag{Name: "auto-iterations"},
				cli.Float64Flag{Name: "init"},
				cli.IntFlag{Name: "seed-vertex", Value: -1},
			}, TreeFlags...),
			Action: MaskFilter,
		},
		{
			Name: "dirty-mask",
			Flags: append([]cli.Flag{
				cli.BoolFlag{Name: "dirty-only"},
				cli.Float64Flag{Name: "init"},
				cli.IntFlag{Name: "seed-vertex", Value: -1},
			}, TreeFlags...),
			Action: DirtyMask,
		},
		{
			Name: "raycast",
			Flags: append([]cli.Flag{
				cli.StringFlag{Name: "origin", Value: "0,0,10"},
				cli.StringFlag{Name: "dir", Value: "0,0,-1"},
				cli.BoolFlag{Name: "nearest"},
			}, TreeFlags...),
			Action: Raycast,
		},
	}

	require.NoError(t, app.Run(append([]string{"sculptree"}, args...)))
	return buf.Bytes()
}

func TestBuildCommand(t *testing.T) {
	var st pbvh.Stats
	out := runApp(t, "build", "--plane", "10x10", "--leaf-limit", "10", "--validate", "--json")
	require.NoError(t, json.Unmarshal(out, &st))
	require.Equal(t, "faces", st.Backend)
	require.Equal(t, 17, st.Nodes)
	require.Equal(t, 9, st.Leaves)
	require.Equal(t, 81, st.Prims)
	require.Equal(t, 100, st.UniqueVerts)

	out = runApp(t, "build", "--plane", "10x10", "--backend", "dyntopo", "--leaf-limit", "16", "--max-edge", "1.2", "--validate", "--json")
	require.NoError(t, json.Unmarshal(out, &st))
	require.Equal(t, "dyntopo", st.Backend)
	require.Equal(t, 324, st.Prims)
	require.Equal(t, 181, st.UniqueVerts)

	out = runApp(t, "build", "--plane", "5x5", "--backend", "grids", "--grid-level", "2", "--json")
	require.NoError(t, json.Unmarshal(out, &st))
	require.Equal(t, "grids", st.Backend)
	require.Equal(t, 16, st.Prims)

	table := string(runApp(t, "build", "--plane", "4x4"))
	require.Contains(t, table, "Backend")
	require.Contains(t, table, "faces")
}

func TestMaskFilterCommand(t *testing.T) {
	var summary MaskSummary
	out := runApp(t, "mask-filter", "--plane", "10x10", "--leaf-limit", "10", "--type", "grow", "--seed-vertex", "44", "--json")
	require.NoError(t, json.Unmarshal(out, &summary))
	require.Equal(t, 100, summary.Vertices)
	require.Equal(t, 4, summary.Masked)
	require.Equal(t, float32(1), summary.Max)
	require.NotZero(t, summary.UpdatedNodes)

	out = runApp(t, "mask-filter", "--plane", "10x10", "--type", "contrast-increase", "--init", "0.6", "--json")
	require.NoError(t, json.Unmarshal(out, &summary))
	require.InDelta(t, 0.6111111, summary.Min, 1e-5)
	require.InDelta(t, 0.6111111, summary.Max, 1e-5)
}

func TestDirtyMaskCommand(t *testing.T) {
	var summary MaskSummary
	out := runApp(t, "dirty-mask", "--plane", "5x5", "--json")
	require.NoError(t, json.Unmarshal(out, &summary))

	// A flat plane has no cavities so every vertex ends up fully masked.
	require.Equal(t, 25, summary.Vertices)
	require.Equal(t, 25, summary.Masked)
	require.InDelta(t, 1.0, summary.Min, 1e-6)
	require.InDelta(t, 1.0, summary.Mean, 1e-6)
}

func TestRaycastCommand(t *testing.T) {
	var res RaycastResult
	out := runApp(t, "raycast", "--plane", "10x10", "--leaf-limit", "10", "--origin", "2.3,3.2,5", "--json")
	require.NoError(t, json.Unmarshal(out, &res))
	require.True(t, res.Hit)
	require.Equal(t, 29, res.Face)
	require.Equal(t, 32, res.Vertex)
	require.InDelta(t, 5.0, res.Depth, 1e-5)
	require.InDelta(t, 2.3, res.Position[0], 1e-5)

	out = runApp(t, "raycast", "--plane", "10x10", "--origin", "20,20,5", "--json")
	res = RaycastResult{}
	require.NoError(t, json.Unmarshal(out, &res))
	require.False(t, res.Hit)
}
