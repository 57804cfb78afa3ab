package ragged

import "errors"

// Sentinel errors for ragged shape construction and validation.
var (
	// ErrEmptyRowSplits indicates a row-splits layer with fewer than one element.
	ErrEmptyRowSplits = errors.New("ragged: row-splits must have at least one element")

	// ErrNonMonotoneRowSplits indicates a row-splits layer that is not
	// non-decreasing.
	ErrNonMonotoneRowSplits = errors.New("ragged: row-splits must be non-decreasing")

	// ErrRowSplitsZero indicates a row-splits layer whose first element is not 0.
	ErrRowSplitsZero = errors.New("ragged: row-splits[0] must be 0")

	// ErrLayerMismatch indicates two adjacent row-splits layers disagree on
	// the total size of the axis between them.
	ErrLayerMismatch = errors.New("ragged: row-splits layer size mismatch")

	// ErrAxisOutOfRange indicates an axis index outside [0, NumAxes).
	ErrAxisOutOfRange = errors.New("ragged: axis out of range")

	// ErrValuesLengthMismatch indicates Values does not match the shape's
	// final-axis element count.
	ErrValuesLengthMismatch = errors.New("ragged: values length does not match shape")
)
