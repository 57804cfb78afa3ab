package framestore

import (
	"sync/atomic"

	"github.com/voxgraph/prunedfsa/orderedfloat"
	"github.com/voxgraph/prunedfsa/ragged"
)

// StateInfo is a surviving (frame, state) entry (spec.md §3).
// Forward is the monotone-integer encoding of forward_loglike so it
// can be atomically maxed from many ArcExpander/ForwardPass workers.
type StateInfo struct {
	// AState is the index into the graph's state list (global, across
	// the batch's concatenated states).
	AState int32

	Forward atomic.Int64

	// Backward is written once by BackwardPruner; readers must only
	// access it after the backward sweep for this frame has completed.
	Backward float32
}

// NewStateInfo returns a StateInfo for graph state aState with
// forward_loglike initialized to -Inf (spec.md §4.4 step 6).
func NewStateInfo(aState int32) *StateInfo {
	s := &StateInfo{AState: aState}
	s.Forward.Store(orderedfloat.NegInf)
	return s
}

// ForwardLoglike returns the current forward log-like as a float32.
func (s *StateInfo) ForwardLoglike() float32 {
	return orderedfloat.FromOrdered(s.Forward.Load())
}

// ArcInfo is a surviving (frame, arc) entry (spec.md §3). Per spec.md
// §9's guidance, the union field (destination graph-state vs
// next-frame state index) is two explicit fields rather than bit
// reuse: DestGraphState is valid before dedup, DestStateIdx1 after.
type ArcInfo struct {
	// GraphArc indexes into the graph's arc list (global).
	GraphArc int32

	ArcLoglike float32
	EndLoglike float32

	// DestGraphState is the destination state's global graph-state
	// index, set by ArcExpander before deduplication.
	DestGraphState int32

	// DestStateIdx1 is the destination's next-frame state index after
	// ForwardPass deduplicates via StateHash; -1 means this arc was
	// pruned by the beam cutoff. An arc that lost the dedup race for
	// its destination still points at the winning arc's state.
	// BackwardPruner removes arcs that fail its keep test rather than
	// marking them -1.
	DestStateIdx1 int32
}

// FrameInfo is one time step: surviving states and their outgoing
// arcs, both ragged over the fsa axis (spec.md §3). Exclusively owned
// by FrameStore in time order; BackwardPruner mutates States/Arcs of a
// frame in place only for a range explicitly handed off by Forward.
type FrameInfo struct {
	// StatesShape is [fsa]->[state]; States holds one *StateInfo per
	// leaf (pointer because StateInfo carries an atomic field).
	StatesShape *ragged.Shape
	States      []*StateInfo

	// ArcsShape is [fsa]->[state]->[arc]; sharing StatesShape's fsa
	// axis, with its own state->arc row-splits layer appended.
	ArcsShape *ragged.Shape
	Arcs      []ArcInfo
}

// NumFsas returns the number of utterances represented in this frame.
func (f *FrameInfo) NumFsas() int32 { return f.StatesShape.TotSize(0) }

// StatesOf returns the states belonging to fsa.
func (f *FrameInfo) StatesOf(fsa int32) []*StateInfo {
	rs := f.StatesShape.RowSplits(1)
	return f.States[rs[fsa]:rs[fsa+1]]
}

// ArcsOfState returns the arcs of a global state index within this
// frame's Arcs slice.
func (f *FrameInfo) ArcsOfState(globalState int32) []ArcInfo {
	rs := f.ArcsShape.RowSplits(2)
	return f.Arcs[rs[globalState]:rs[globalState+1]]
}
