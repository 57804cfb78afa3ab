package ragged

import "fmt"

// Ragged pairs a Shape with a flat slice of leaf values. T is any
// per-arc or per-state payload (e.g. StateInfo, ArcInfo).
type Ragged[T any] struct {
	Shape  *Shape
	Values []T
}

// New validates that values' length matches the shape's leaf count
// and returns a Ragged.
func New[T any](shape *Shape, values []T) (*Ragged[T], error) {
	if int32(len(values)) != shape.NumElements() {
		return nil, fmt.Errorf("ragged: %d values vs %d leaves: %w", len(values), shape.NumElements(), ErrValuesLengthMismatch)
	}
	return &Ragged[T]{Shape: shape, Values: values}, nil
}

// Row returns the sub-slice of Values belonging to row i at the given
// axis, i.e. the direct children of element i at axis-1. Only the leaf
// axis (axis == NumAxes()-1) is supported; any other axis panics.
func (r *Ragged[T]) Row(axis int, i int32) []T {
	if axis != r.Shape.NumAxes()-1 {
		panic("ragged: Row only supported directly above the leaf axis")
	}
	rs := r.Shape.RowSplits(axis)
	return r.Values[rs[i]:rs[i+1]]
}

// NumElements returns the number of leaves.
func (r *Ragged[T]) NumElements() int32 {
	return int32(len(r.Values))
}
