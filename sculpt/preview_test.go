package sculpt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/achilleasa/sculptree/pbvh"
)

func TestPreviewFilterGrowShrink(t *testing.T) {
	tree, m := buildMaskedPlane(t, 0)
	m.Mask[44] = 1
	original := append([]float32(nil), m.Mask...)

	undoCount := 0
	p, err := NewPreviewFilter(tree, PreviewGrowShrink, 1, func(int) { undoCount++ })
	require.NoError(t, err)
	require.Equal(t, len(tree.Leaves()), undoCount)
	require.Zero(t, p.Step())

	p.SetStep(1)
	require.Equal(t, 1, p.Step())
	require.Zero(t, m.Mask[44])
	for _, nb := range []int{43, 45, 34, 54} {
		require.Equal(t, float32(1), m.Mask[nb])
	}

	// Stepping back replays the stored delta.
	p.SetStep(0)
	require.Equal(t, original, m.Mask)

	p.SetStep(-1)
	for v, mask := range m.Mask {
		if mask != 0 {
			t.Fatalf("expected vertex %d to be unmasked after shrinking; got %f", v, mask)
		}
	}

	p.SetStep(0)
	require.Equal(t, original, m.Mask)

	// Multi step jumps go through every intermediate step.
	p.SetStep(2)
	require.Equal(t, 2, p.Step())
	require.Equal(t, float32(1), m.Mask[44])
	require.Equal(t, float32(1), m.Mask[46])
	p.SetStep(0)
	require.Equal(t, original, m.Mask)

	tree.UpdateMaskFlags()
	p.Finish()
	for _, leaf := range tree.Leaves() {
		require.False(t, tree.Node(leaf).Flag.Has(pbvh.UpdateMask))
	}
}

func TestPreviewFilterSmoothSharpen(t *testing.T) {
	tree, m := buildMaskedPlane(t, 0.6)

	p, err := NewPreviewFilter(tree, PreviewSmoothSharpen, 3, nil)
	require.NoError(t, err)

	// Smoothing a uniform mask is a no-op.
	p.SetStep(1)
	for _, mask := range m.Mask {
		require.Equal(t, float32(0.6), mask)
	}

	p.SetStep(-1)
	for _, mask := range m.Mask {
		require.InDelta(t, 0.69, mask, 1e-5)
	}
	p.SetStep(0)
	for _, mask := range m.Mask {
		require.InDelta(t, 0.6, mask, 1e-5)
	}
}

func TestPreviewFilterValidation(t *testing.T) {
	tree, _ := buildMaskedPlane(t, 0)

	_, err := NewPreviewFilter(tree, PreviewGrowShrink, 0, nil)
	require.ErrorIs(t, err, ErrInvalidIterations)
	_, err = NewPreviewFilter(tree, PreviewType(9), 1, nil)
	require.ErrorIs(t, err, ErrUnknownFilter)
}
