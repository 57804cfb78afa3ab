package ragged

import "fmt"

// Shape describes the nesting structure of a ragged tensor: for an
// N-axis shape there are N-1 row-splits layers, layer i mapping axis i
// to axis i+1. Axis 0 always has exactly one "row" (the outermost
// list has implicit single parent) unless the caller builds a shape
// whose axis 0 is itself ragged over a batch — in this engine axis 0
// is always the fsa axis and is represented as an ordinary row-splits
// layer like any other, so NumAxes() == len(rowSplits)+1.
//
// RowIDs layers are derived lazily from RowSplits and cached.
type Shape struct {
	rowSplits [][]int32
	rowIDs    [][]int32 // same length as rowSplits; rowIDs[i] derived from rowSplits[i]
}

// NewShape validates and constructs a Shape from row-splits layers
// ordered outermost-axis-first. Each layer must be non-decreasing,
// start at 0, and its last element must equal the length-1 of the
// next layer. The final layer's last element is the leaf count;
// NewShape has no values to check it against (New does that).
//
// Complexity: O(total elements) for validation.
func NewShape(rowSplitsLayers [][]int32) (*Shape, error) {
	for li, rs := range rowSplitsLayers {
		if len(rs) == 0 {
			return nil, fmt.Errorf("ragged: layer %d: %w", li, ErrEmptyRowSplits)
		}
		if rs[0] != 0 {
			return nil, fmt.Errorf("ragged: layer %d: %w", li, ErrRowSplitsZero)
		}
		for i := 1; i < len(rs); i++ {
			if rs[i] < rs[i-1] {
				return nil, fmt.Errorf("ragged: layer %d at %d: %w", li, i, ErrNonMonotoneRowSplits)
			}
		}
		if li+1 < len(rowSplitsLayers) {
			next := rowSplitsLayers[li+1]
			// next layer must have exactly rs[last]+1 entries (one row per
			// element produced by this layer).
			if int32(len(next)-1) != rs[len(rs)-1] {
				return nil, fmt.Errorf("ragged: layer %d->%d: %w", li, li+1, ErrLayerMismatch)
			}
		}
	}

	s := &Shape{
		rowSplits: rowSplitsLayers,
		rowIDs:    make([][]int32, len(rowSplitsLayers)),
	}
	return s, nil
}

// NumAxes returns the number of axes this shape describes.
func (s *Shape) NumAxes() int {
	return len(s.rowSplits) + 1
}

// TotSize returns the total number of elements at the given axis
// (axis 0 is always 1 "virtual root row" conceptually represented by
// the first layer's length-1; for axis==0 this returns the number of
// rows in layer 0).
func (s *Shape) TotSize(axis int) int32 {
	if axis == 0 {
		if len(s.rowSplits) == 0 {
			return 0
		}
		return int32(len(s.rowSplits[0]) - 1)
	}
	layer := s.rowSplits[axis-1]
	return layer[len(layer)-1]
}

// RowSplits returns the row-splits array mapping axis-1 to axis
// (axis must be in [1, NumAxes)).
func (s *Shape) RowSplits(axis int) []int32 {
	return s.rowSplits[axis-1]
}

// RowIDs returns (computing and caching if needed) the row-ids array
// for the given axis transition (axis must be in [1, NumAxes)).
func (s *Shape) RowIDs(axis int) []int32 {
	idx := axis - 1
	if s.rowIDs[idx] == nil {
		s.rowIDs[idx] = RowSplitsToRowIDs(s.rowSplits[idx])
	}
	return s.rowIDs[idx]
}

// NumElements returns the number of leaves (final axis element count).
func (s *Shape) NumElements() int32 {
	return s.TotSize(s.NumAxes() - 1)
}

// RowSplitsToRowIDs expands a row-splits array into a row-ids array:
// row-ids[k] = i such that rowSplits[i] <= k < rowSplits[i+1].
//
// Complexity: O(len(rowSplits) + rowSplits[last]).
func RowSplitsToRowIDs(rowSplits []int32) []int32 {
	if len(rowSplits) == 0 {
		return nil
	}
	n := rowSplits[len(rowSplits)-1]
	rowIDs := make([]int32, n)
	for row := 0; row < len(rowSplits)-1; row++ {
		begin, end := rowSplits[row], rowSplits[row+1]
		for k := begin; k < end; k++ {
			rowIDs[k] = int32(row)
		}
	}
	return rowIDs
}

// RowIDsToRowSplits compacts a row-ids array (monotone, values in
// [0, numRows)) back into a row-splits array of length numRows+1.
//
// Complexity: O(len(rowIDs) + numRows).
func RowIDsToRowSplits(rowIDs []int32, numRows int32) []int32 {
	rowSplits := make([]int32, numRows+1)
	for _, row := range rowIDs {
		rowSplits[row+1]++
	}
	for i := int32(1); i <= numRows; i++ {
		rowSplits[i] += rowSplits[i-1]
	}
	return rowSplits
}
