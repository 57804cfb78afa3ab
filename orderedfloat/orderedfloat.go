// Package orderedfloat maps IEEE-754 float32 log-likelihoods to an
// order-preserving int64 representation so that forward_loglike can be
// updated with a lock-free atomic max (spec.md §9: "expose a small
// utility that maps IEEE-754 floats to an integer representation
// preserving numeric order ... use lock-free atomic-max on that
// integer").
package orderedfloat

import (
	"math"
	"sync/atomic"
)

// Ordered is the order-preserving integer encoding of a float32.
type Ordered = int64

// NegInf is the Ordered encoding of float32(-Inf); new StateInfo
// entries are initialized to this sentinel (spec.md §4.4 step 6).
var NegInf = ToOrdered(float32(math.Inf(-1)))

// ToOrdered maps f to an int64 such that a < b (as float32, NaN
// excluded) implies ToOrdered(a) < ToOrdered(b).
//
// IEEE-754 bit patterns sort correctly as unsigned integers within
// each sign: non-negative floats already sort in bit-pattern order,
// negative floats sort in reverse. Flipping all bits of a negative
// pattern reverses it back into ascending order, and setting the sign
// bit on a non-negative pattern pushes the whole non-negative range
// above the (now bit-flipped) negative range, so the two halves meet
// at the right boundary instead of overlapping.
func ToOrdered(f float32) Ordered {
	bits := math.Float32bits(f)
	if bits&0x80000000 != 0 {
		bits = ^bits
	} else {
		bits |= 0x80000000
	}
	return int64(bits)
}

// FromOrdered inverts ToOrdered.
func FromOrdered(o Ordered) float32 {
	bits := uint32(o)
	if bits&0x80000000 != 0 {
		bits &^= 0x80000000
	} else {
		bits = ^bits
	}
	return math.Float32frombits(bits)
}

// AtomicMax atomically sets *dst to the maximum of its current value
// and val, retrying on CAS failure. Returns the final stored value.
func AtomicMax(dst *atomic.Int64, val Ordered) Ordered {
	for {
		cur := dst.Load()
		if val <= cur {
			return cur
		}
		if dst.CompareAndSwap(cur, val) {
			return val
		}
	}
}
