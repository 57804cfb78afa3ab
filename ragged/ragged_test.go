package ragged

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRowSplitsRoundTrip(t *testing.T) {
	rowSplits := []int32{0, 2, 2, 5}
	rowIDs := RowSplitsToRowIDs(rowSplits)
	require.Equal(t, []int32{0, 0, 2, 2, 2}, rowIDs)

	back := RowIDsToRowSplits(rowIDs, 3)
	require.Equal(t, rowSplits, back)
}

func TestNewShapeValidation(t *testing.T) {
	_, err := NewShape([][]int32{{0, 1, 3}, {0, 1, 2, 2}})
	require.NoError(t, err)

	_, err = NewShape([][]int32{{1, 2}})
	require.ErrorIs(t, err, ErrRowSplitsZero)

	_, err = NewShape([][]int32{{0, 2, 1}})
	require.ErrorIs(t, err, ErrNonMonotoneRowSplits)

	_, err = NewShape([][]int32{{0, 1, 3}, {0, 1, 2}})
	require.ErrorIs(t, err, ErrLayerMismatch)
}

func TestExclusiveSum(t *testing.T) {
	require.Equal(t, []int32{0, 2, 2, 5}, ExclusiveSum([]int32{2, 0, 3}))
}

func TestRenumber(t *testing.T) {
	keep := []bool{true, false, true, true, false}
	idx, kept := Renumber(keep)
	require.Equal(t, []int32{0, -1, 1, 2, -1}, idx)
	require.EqualValues(t, 3, kept)
}

func TestFilterLastAxis(t *testing.T) {
	// shape: 2 states, arcs: state0 has 3 arcs, state1 has 2 arcs.
	shape, err := NewShape([][]int32{{0, 3, 5}})
	require.NoError(t, err)
	keep := []bool{true, false, true, false, true}
	newShape, newIdx, err := FilterLastAxis(shape, keep)
	require.NoError(t, err)
	require.Equal(t, []int32{0, 2, 3}, newShape.RowSplits(1))
	require.Equal(t, []int32{0, -1, 1, -1, 2}, newIdx)
}

func TestMaxPerSublist(t *testing.T) {
	rowSplits := []int32{0, 2, 2, 4}
	values := []float32{1, 5, 3, 9}
	out := MaxPerSublist(rowSplits, values, float32(-1e30))
	require.InDelta(t, 5, out[0], 1e-6)
	require.Equal(t, float32(-1e30), out[1])
	require.InDelta(t, 9, out[2], 1e-6)
}

func TestRaggedNewAndRow(t *testing.T) {
	shape, err := NewShape([][]int32{{0, 2, 3}})
	require.NoError(t, err)

	_, err = New(shape, []string{"a", "b"})
	require.ErrorIs(t, err, ErrValuesLengthMismatch)

	r, err := New(shape, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.EqualValues(t, 3, r.NumElements())
	require.Equal(t, []string{"a", "b"}, r.Row(1, 0))
	require.Equal(t, []string{"c"}, r.Row(1, 1))
}
