package forward

import (
	"github.com/voxgraph/prunedfsa/fsa"
	"github.com/voxgraph/prunedfsa/framestore"
	"github.com/voxgraph/prunedfsa/orderedfloat"
	"github.com/voxgraph/prunedfsa/ragged"
)

// InitialFrame builds frame 0 for a fresh batch decode: one start
// state (graph's local state 0) per utterance, forward_loglike 0.
func InitialFrame(g *fsa.Graph, numSeqs int32) (*framestore.FrameInfo, error) {
	rowSplits := make([]int32, numSeqs+1)
	states := make([]*framestore.StateInfo, 0, numSeqs)
	for f := int32(0); f < numSeqs; f++ {
		graphFsa := g.GraphIndex(f)
		rowSplits[f] = int32(len(states))
		if g.NumStates(graphFsa) > 0 {
			s := framestore.NewStateInfo(g.StateOffset(graphFsa))
			s.Forward.Store(orderedfloat.ToOrdered(0))
			states = append(states, s)
		}
	}
	rowSplits[numSeqs] = int32(len(states))

	shape, err := ragged.NewShape([][]int32{rowSplits})
	if err != nil {
		return nil, err
	}
	return &framestore.FrameInfo{StatesShape: shape, States: states}, nil
}
