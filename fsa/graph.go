// Package fsa defines the batched decoding-graph (a_fsas) and dense
// acoustic-score (b_fsas) types that the engine intersects, following
// spec.md §3. Both are thin wrappers over ragged.Shape plus a flat
// values slice, in the style of core/types.go's documented,
// validated, sentinel-erroring constructors.
package fsa

import (
	"fmt"

	"github.com/voxgraph/prunedfsa/ragged"
)

// Arc is one outgoing transition of a decoding graph.
type Arc struct {
	// Src and Dest are state indices local to their FSA.
	Src, Dest int32
	// Label is the input symbol; -1 denotes a final arc.
	Label int32
	// Score is the arc's graph weight (log-domain).
	Score float32
}

// Graph is a batched set of decoding graphs, 3-axis ragged
// [fsa][state][arc]. Stride selects whether each utterance has its own
// graph (Stride==1) or all utterances share graph 0 (Stride==0).
type Graph struct {
	Shape  *ragged.Shape // axes: fsa -> state -> arc
	Arcs   []Arc
	Stride int32
}

// NewGraph validates rowSplits/arcs, arc labels and the stride flag,
// returning a Graph. It accepts FSAs with zero states; Validate
// rejects those (kept separate so callers building up a graph
// incrementally via intermediate invalid states don't pay for it
// twice).
func NewGraph(stateRowSplits, arcRowSplits []int32, arcs []Arc, stride int32) (*Graph, error) {
	if stride != 0 && stride != 1 {
		return nil, ErrStrideInvalid
	}
	shape, err := ragged.NewShape([][]int32{stateRowSplits, arcRowSplits})
	if err != nil {
		return nil, fmt.Errorf("fsa: building graph shape: %w", err)
	}
	rg, err := ragged.New(shape, arcs)
	if err != nil {
		return nil, fmt.Errorf("fsa: %w", err)
	}
	for _, a := range arcs {
		if a.Label < -1 {
			return nil, fmt.Errorf("fsa: label %d: %w", a.Label, ErrArcLabelInvalid)
		}
	}
	return &Graph{Shape: rg.Shape, Arcs: rg.Values, Stride: stride}, nil
}

// NumFsas returns the number of graphs in the batch (1 when shared).
func (g *Graph) NumFsas() int32 { return g.Shape.TotSize(0) }

// NumStates returns the number of states belonging to fsa.
func (g *Graph) NumStates(fsa int32) int32 {
	rs := g.Shape.RowSplits(1)
	return rs[fsa+1] - rs[fsa]
}

// StateOffset returns the global state index of fsa's local state 0.
func (g *Graph) StateOffset(fsa int32) int32 {
	return g.Shape.RowSplits(1)[fsa]
}

// ArcOffset returns the global arc index of globalState's first
// outgoing arc (spec.md §4.2's `graph.arc_offset[state.a_state]`).
func (g *Graph) ArcOffset(globalState int32) int32 {
	return g.Shape.RowSplits(2)[globalState]
}

// ArcsOf returns the outgoing arcs of globalState.
func (g *Graph) ArcsOf(globalState int32) []Arc {
	rs := g.Shape.RowSplits(2)
	return g.Arcs[rs[globalState]:rs[globalState+1]]
}

// FinalState returns the global index of fsa's final state: by
// convention (spec.md §3) the last state within the FSA, and reports
// ok==false if the FSA has no states.
func (g *Graph) FinalState(fsa int32) (int32, bool) {
	n := g.NumStates(fsa)
	if n == 0 {
		return 0, false
	}
	return g.StateOffset(fsa) + n - 1, true
}

// GraphIndex maps a per-utterance fsa index to the underlying graph
// index, honoring Stride (0 => always graph 0, 1 => identity).
func (g *Graph) GraphIndex(fsaIdx int32) int32 {
	return fsaIdx * g.Stride
}

// Validate checks spec.md §3's per-FSA invariants: exactly one start
// state and at most one final state. The start state is local state 0
// and the final state is the last state by convention, so neither is
// inspected further; Validate only rejects FSAs with zero states
// (SPEC_FULL.md §8.1). Arc labels are checked by NewGraph, not here.
func (g *Graph) Validate() error {
	for fsaIdx := int32(0); fsaIdx < g.NumFsas(); fsaIdx++ {
		if g.NumStates(fsaIdx) == 0 {
			return fmt.Errorf("fsa: fsa %d: %w", fsaIdx, ErrEmptyGraph)
		}
	}
	return nil
}
