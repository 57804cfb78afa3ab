package assemble

import (
	"fmt"

	gojson "github.com/goccy/go-json"

	"github.com/voxgraph/prunedfsa/ragged"
)

// Arc is one output transition of the assembled lattice. Src/Dest are
// indices into the lattice's flattened per-fsa state axis (the frame
// axis has already been folded away).
type Arc struct {
	Src, Dest int32
	Label     int32
	Loglike   float32
}

// Lattice is the final FsaVec the Assembler produces: a 3-axis ragged
// structure [fsa][state][arc], plus the two arc maps spec.md §4.7 step
// 4 calls for.
type Lattice struct {
	Shape *ragged.Shape // axes: fsa -> state -> arc
	Arcs  []Arc

	// ArcMapA indexes into the decoding graph's arc list; -1 marks an
	// arc synthesized by the allow-partial label rewrite.
	ArcMapA []int32
	// ArcMapB indexes into the dense score matrix's flat value slice
	// (fsa_row_offset+t)*width+(label+1); nil when the lattice was
	// assembled without score context (online/no-score mode).
	ArcMapB []int32
}

// NumFsas returns the batch width.
func (l *Lattice) NumFsas() int32 { return l.Shape.TotSize(0) }

// StatesOf returns the flattened per-fsa state-index range [begin,end).
func (l *Lattice) StatesOf(fsa int32) (begin, end int32) {
	rs := l.Shape.RowSplits(1)
	return rs[fsa], rs[fsa+1]
}

// ArcsOfState returns the arcs of a flattened state index.
func (l *Lattice) ArcsOfState(state int32) []Arc {
	rs := l.Shape.RowSplits(2)
	return l.Arcs[rs[state]:rs[state+1]]
}

// DebugJSON renders the lattice as a compact JSON document for test
// assertions and diagnostics, via goccy/go-json rather than
// encoding/json (one of the domain-stack dependencies of SPEC_FULL.md
// §4).
func (l *Lattice) DebugJSON() ([]byte, error) {
	type arcJSON struct {
		Src, Dest, Label int32
		Loglike          float32
	}
	doc := struct {
		StateRowSplits []int32 `json:"state_row_splits"`
		ArcRowSplits   []int32 `json:"arc_row_splits"`
		Arcs           []arcJSON
	}{
		StateRowSplits: l.Shape.RowSplits(1),
		ArcRowSplits:   l.Shape.RowSplits(2),
	}
	for _, a := range l.Arcs {
		doc.Arcs = append(doc.Arcs, arcJSON{a.Src, a.Dest, a.Label, a.Loglike})
	}
	b, err := gojson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("assemble: marshaling debug json: %w", err)
	}
	return b, nil
}

// BestPath walks fsa's lattice greedily by per-state best outgoing
// loglike and returns the label sequence and total score. It stops at
// the first state with no outgoing arcs (the fsa's terminal slot).
// This is a scoring convenience for tests (SPEC_FULL.md §7), not a
// general shortest-path search.
func BestPath(l *Lattice, fsa int32) (labels []int32, score float32) {
	begin, end := l.StatesOf(fsa)
	state := begin
	for state < end {
		arcs := l.ArcsOfState(state)
		if len(arcs) == 0 {
			break
		}
		best := arcs[0]
		for _, a := range arcs[1:] {
			if a.Loglike > best.Loglike {
				best = a
			}
		}
		if best.Label != -1 {
			labels = append(labels, best.Label)
		}
		score += best.Loglike
		state = best.Dest
	}
	return labels, score
}
