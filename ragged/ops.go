package ragged

import "gonum.org/v1/gonum/floats"

// ExclusiveSum returns a slice of length len(vals)+1 where out[0]==0
// and out[i+1] = out[i] + vals[i]. Used to turn a per-element count
// (e.g. surviving arcs per state) into row-splits, and a keep-mask
// (as 0/1) into new compacted indices.
//
// Complexity: O(len(vals)).
func ExclusiveSum(vals []int32) []int32 {
	out := make([]int32, len(vals)+1)
	for i, v := range vals {
		out[i+1] = out[i] + v
	}
	return out
}

// Renumber computes, for a flat keep-mask over some axis's leaves, the
// new index of each kept element (its rank among kept elements) or -1
// if dropped, plus the total number kept. This is the primitive behind
// ForwardPass step 5 ("renumber arcs by keep_arc to obtain
// num_new_states") and BackwardPruner's batch-compaction.
//
// Complexity: O(len(keep)).
func Renumber(keep []bool) (newIndex []int32, numKept int32) {
	newIndex = make([]int32, len(keep))
	var next int32
	for i, k := range keep {
		if k {
			newIndex[i] = next
			next++
		} else {
			newIndex[i] = -1
		}
	}
	return newIndex, next
}

// FilterLastAxis collapses a shape's leaf axis according to a
// per-leaf keep-mask, recomputing that axis's row-splits so that each
// parent row retains only its kept children in original relative
// order. Shallower axes are untouched (parent counts do not change,
// only how many children each parent reports). Returns the new shape
// and, for every original leaf, its new index or -1 if dropped.
//
// Complexity: O(NumElements(shape)).
func FilterLastAxis(shape *Shape, keep []bool) (*Shape, []int32, error) {
	axis := shape.NumAxes() - 1
	if axis < 1 {
		return nil, nil, ErrAxisOutOfRange
	}
	rowSplits := shape.RowSplits(axis)
	if int32(len(keep)) != shape.NumElements() {
		return nil, nil, ErrValuesLengthMismatch
	}

	newIndex, _ := Renumber(keep)

	numRows := int32(len(rowSplits) - 1)
	counts := make([]int32, numRows)
	rowIDs := shape.RowIDs(axis)
	for i, k := range keep {
		if k {
			counts[rowIDs[i]]++
		}
	}
	newRowSplits := ExclusiveSum(counts)

	layers := make([][]int32, len(shape.rowSplits))
	copy(layers, shape.rowSplits)
	layers[axis-1] = newRowSplits

	newShape, err := NewShape(layers)
	if err != nil {
		return nil, nil, err
	}
	return newShape, newIndex, nil
}

// MaxPerSublist reduces values grouped by rowSplits into one max per
// row; rows with no elements get `empty` (conventionally -Inf for
// log-likelihoods). Uses gonum's floats.Max for the populated case.
//
// Complexity: O(len(values)).
func MaxPerSublist(rowSplits []int32, values []float32, empty float32) []float32 {
	numRows := len(rowSplits) - 1
	out := make([]float32, numRows)
	f64 := make([]float64, 0, 16)
	for row := 0; row < numRows; row++ {
		begin, end := rowSplits[row], rowSplits[row+1]
		if begin == end {
			out[row] = empty
			continue
		}
		f64 = f64[:0]
		for k := begin; k < end; k++ {
			f64 = append(f64, float64(values[k]))
		}
		out[row] = float32(floats.Max(f64))
	}
	return out
}
