package fsa

import (
	"fmt"

	"github.com/voxgraph/prunedfsa/ragged"
)

// DenseScores is a batched ragged [fsa][frame] of dense per-symbol
// log-likelihood vectors, width L+1 (column 0 reserved for the final
// symbol, accessed via label+1). Per-FSA frame counts may differ; by
// convention the last frame of each FSA is a sentinel with value 0 at
// column 0 and -Inf elsewhere.
type DenseScores struct {
	Shape  *ragged.Shape // axes: fsa -> frame
	Width  int32
	Values []float32 // len == total frames across all fsas * Width, row-major per frame
}

// NewDenseScores validates shapes and returns a DenseScores.
func NewDenseScores(frameRowSplits []int32, width int32, values []float32) (*DenseScores, error) {
	shape, err := ragged.NewShape([][]int32{frameRowSplits})
	if err != nil {
		return nil, fmt.Errorf("fsa: building dense-scores shape: %w", err)
	}
	wantLen := int64(shape.NumElements()) * int64(width)
	if int64(len(values)) != wantLen {
		return nil, fmt.Errorf("fsa: %d values vs %d expected (%d frames * width %d): %w", len(values), wantLen, shape.NumElements(), width, ragged.ErrValuesLengthMismatch)
	}
	return &DenseScores{Shape: shape, Width: width, Values: values}, nil
}

// NumFsas returns the batch width.
func (d *DenseScores) NumFsas() int32 { return d.Shape.TotSize(0) }

// NumFrames returns the number of frames (including the sentinel
// final frame) belonging to fsa.
func (d *DenseScores) NumFrames(fsa int32) int32 {
	rs := d.Shape.RowSplits(1)
	return rs[fsa+1] - rs[fsa]
}

// FrameOffset returns the global frame index of fsa's frame 0
// (spec.md §4.7's `fsa_row_offset`).
func (d *DenseScores) FrameOffset(fsa int32) int32 {
	return d.Shape.RowSplits(1)[fsa]
}

// Frame returns the dense score vector for fsa's local frame t.
func (d *DenseScores) Frame(fsa, t int32) []float32 {
	g := d.FrameOffset(fsa) + t
	return d.Values[int64(g)*int64(d.Width) : int64(g+1)*int64(d.Width)]
}

// Acoustic returns scores[fsa][t][label+1], the acoustic score for
// label on fsa's local frame t (spec.md §4.2).
func (d *DenseScores) Acoustic(fsa, t, label int32) float32 {
	return d.Frame(fsa, t)[label+1]
}
