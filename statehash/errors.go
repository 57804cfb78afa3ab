package statehash

import "errors"

// Sentinel errors for StateHash construction and use.
var (
	// ErrKeyTooLarge indicates max_key does not fit any supported
	// key-bit width (32, 36, 40): spec.md's CapacityExceeded class.
	ErrKeyTooLarge = errors.New("statehash: key count exceeds 2^40")

	// ErrZeroKey indicates a caller passed key==0, which is reserved
	// (keys are expected to already have +1 applied by the caller).
	ErrZeroKey = errors.New("statehash: key 0 is reserved, add 1 to your identifier")

	// ErrNotEmpty indicates Resize was called on a hash that still has
	// live entries; resizing is only valid between frames.
	ErrNotEmpty = errors.New("statehash: resize requires an empty hash")

	// ErrValueOverflow indicates a value does not fit the chosen
	// value-bit width (64-K): spec.md's CapacityExceeded class,
	// "per-frame arc count would not fit in the chosen value-bit width".
	ErrValueOverflow = errors.New("statehash: value exceeds value-bit width")
)
