package arcexpand

import (
	"fmt"

	"github.com/voxgraph/prunedfsa/fsa"
	"github.com/voxgraph/prunedfsa/framestore"
	"github.com/voxgraph/prunedfsa/ragged"
)

// Params bundles the graph/scores context ArcExpander needs every
// frame; constant across the whole decode of one batch.
type Params struct {
	Graph        *fsa.Graph
	Scores       *fsa.DenseScores
	AllowPartial bool
}

// Expand populates cur.Arcs/cur.ArcsShape from cur.States for frame t,
// one ArcInfo per outgoing graph arc of every active state (spec.md
// §4.2). It mutates cur in place and also returns it for convenience.
//
// Complexity: O(total outgoing arcs of this frame's active states).
func Expand(p Params, cur *framestore.FrameInfo, t int32) (*framestore.FrameInfo, error) {
	numStates := int32(len(cur.States))
	fsaOfState := cur.StatesShape.RowIDs(1)

	counts := make([]int32, numStates)
	for i, st := range cur.States {
		counts[i] = int32(len(p.Graph.ArcsOf(st.AState)))
	}
	arcRowSplits := ragged.ExclusiveSum(counts)

	shape, err := ragged.NewShape([][]int32{cur.StatesShape.RowSplits(1), arcRowSplits})
	if err != nil {
		return nil, fmt.Errorf("arcexpand: building arc shape: %w", err)
	}

	arcs := make([]framestore.ArcInfo, shape.NumElements())

	for i, st := range cur.States {
		fsaIdx := fsaOfState[i]
		graphFsa := p.Graph.GraphIndex(fsaIdx)
		finalT := p.Scores.NumFrames(fsaIdx) - 1
		isFinalFrame := t == finalT-1

		localArcs := p.Graph.ArcsOf(st.AState)
		rewrite := false
		if isFinalFrame && p.AllowPartial {
			rewrite = !hasFinalArc(localArcs)
		}

		var rewriteDest int32
		if rewrite {
			finalState, ok := p.Graph.FinalState(graphFsa)
			if !ok {
				return nil, fmt.Errorf("arcexpand: fsa %d has no final state for partial rewrite", fsaIdx)
			}
			rewriteDest = finalState
		}

		base := arcRowSplits[i]
		stateOffset := p.Graph.StateOffset(graphFsa)
		graphArcBase := p.Graph.ArcOffset(st.AState)
		forward := st.ForwardLoglike()

		for j, a := range localArcs {
			var acoustic float32
			var dest int32
			if rewrite {
				acoustic = 0
				dest = rewriteDest
			} else {
				acoustic = p.Scores.Acoustic(fsaIdx, t, a.Label)
				dest = stateOffset + a.Dest
			}
			arcLoglike := a.Score + acoustic
			arcs[base+int32(j)] = framestore.ArcInfo{
				GraphArc:       graphArcBase + int32(j),
				ArcLoglike:     arcLoglike,
				EndLoglike:     forward + arcLoglike,
				DestGraphState: dest,
				DestStateIdx1:  -1,
			}
		}
	}

	cur.ArcsShape = shape
	cur.Arcs = arcs
	return cur, nil
}

func hasFinalArc(arcs []fsa.Arc) bool {
	for _, a := range arcs {
		if a.Label == -1 {
			return true
		}
	}
	return false
}
