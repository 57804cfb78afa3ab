package backward

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voxgraph/prunedfsa/beam"
	"github.com/voxgraph/prunedfsa/forward"
	"github.com/voxgraph/prunedfsa/framestore"
	"github.com/voxgraph/prunedfsa/fsa"
	"github.com/voxgraph/prunedfsa/statehash"
)

func runLinearChain(t *testing.T, arcScores [2]float32) (*fsa.Graph, *framestore.Store) {
	t.Helper()
	g, err := fsa.NewGraph(
		[]int32{0, 3},
		[]int32{0, 1, 2, 2},
		[]fsa.Arc{
			{Src: 0, Dest: 1, Label: 1, Score: arcScores[0]},
			{Src: 1, Dest: 2, Label: -1, Score: arcScores[1]},
		}, 1)
	require.NoError(t, err)

	negInf := float32(math.Inf(-1))
	width := int32(3)
	values := []float32{
		negInf, negInf, 0,
		0, negInf, negInf,
		0, negInf, negInf,
	}
	scores, err := fsa.NewDenseScores([]int32{0, 3}, width, values)
	require.NoError(t, err)

	ctx := forward.NewContext(g, scores, 1000, 1, 10, beam.Tunables{}, false, 1)
	hash, err := statehash.New(uint64(g.NumStates(0)), 16)
	require.NoError(t, err)

	frame0, err := forward.InitialFrame(g, 1)
	require.NoError(t, err)
	r0, err := forward.Step(ctx, hash, frame0, 0)
	require.NoError(t, err)
	r1, err := forward.Step(ctx, hash, r0.Next, 1)
	require.NoError(t, err)

	store := framestore.NewStore(3)
	store.Append(frame0)
	store.Append(r0.Next)
	store.Append(r1.Next)
	return g, store
}

func TestPruneTimeRangeKeepsHealthyChain(t *testing.T) {
	g, store := runLinearChain(t, [2]float32{0, 0})

	p := NewPruner(g, 1000)
	require.NoError(t, p.PruneTimeRange(store, 0, 2))

	require.Len(t, store.Get(0).States, 1)
	require.Len(t, store.Get(0).Arcs, 1)
	require.InDelta(t, 0, store.Get(0).States[0].Backward, 1e-4)

	require.Len(t, store.Get(1).States, 1)
	require.Len(t, store.Get(1).Arcs, 1)
	require.InDelta(t, 0, store.Get(1).States[0].Backward, 1e-4)

	require.Len(t, store.Get(2).States, 1)
	require.InDelta(t, 0, store.Get(2).States[0].Backward, 1e-4)
}

// runTwoPathChain forwards a graph with two disjoint branches from the
// start state (0->1->3->5 at score 0, 0->2->4->5 at score -20) that
// merge on the final state 5, leaving a 4-frame store.
func runTwoPathChain(t *testing.T) (*fsa.Graph, *framestore.Store) {
	t.Helper()
	g, err := fsa.NewGraph(
		[]int32{0, 6},
		[]int32{0, 2, 3, 4, 5, 6, 6},
		[]fsa.Arc{
			{Src: 0, Dest: 1, Label: 1, Score: 0},
			{Src: 0, Dest: 2, Label: 1, Score: -20},
			{Src: 1, Dest: 3, Label: 1, Score: 0},
			{Src: 2, Dest: 4, Label: 1, Score: 0},
			{Src: 3, Dest: 5, Label: -1, Score: 0},
			{Src: 4, Dest: 5, Label: -1, Score: 0},
		}, 1)
	require.NoError(t, err)

	negInf := float32(math.Inf(-1))
	width := int32(3)
	values := []float32{
		negInf, negInf, 0,
		negInf, negInf, 0,
		0, negInf, negInf,
		0, negInf, negInf,
	}
	scores, err := fsa.NewDenseScores([]int32{0, 4}, width, values)
	require.NoError(t, err)

	ctx := forward.NewContext(g, scores, 1000, 1, 10, beam.Tunables{}, false, 1)
	hash, err := statehash.New(uint64(g.NumStates(0)), 16)
	require.NoError(t, err)

	store := framestore.NewStore(4)
	frame, err := forward.InitialFrame(g, 1)
	require.NoError(t, err)
	store.Append(frame)
	for step := int32(0); step < 3; step++ {
		r, err := forward.Step(ctx, hash, frame, step)
		require.NoError(t, err)
		frame = r.Next
		store.Append(frame)
	}
	return g, store
}

func TestPruneTimeRangeDropsBeyondOutputBeamAndPinsBeginT(t *testing.T) {
	// The losing branch trails the best path by 20, far outside an
	// output beam of 5, so the sweep drops it even though ForwardPass
	// (a much wider search beam) let it through.
	g, store := runTwoPathChain(t)

	p := NewPruner(g, 5)
	require.NoError(t, p.PruneTimeRange(store, 1, 3))

	// frame 2 (not pinned): the losing state (graph state 4) had no
	// surviving arc and isn't graph-final, so it is compacted away.
	require.Len(t, store.Get(2).States, 1)
	require.Equal(t, int32(3), store.Get(2).States[0].AState)
	require.Len(t, store.Get(2).Arcs, 1)

	// frame 1 (begin_t, pinned): the losing state (graph state 2)
	// survives by pinning even though its backward log-like is -Inf,
	// but its now-dead arc into frame 2 is dropped.
	require.Len(t, store.Get(1).States, 2)
	require.Equal(t, int32(2), store.Get(1).States[1].AState)
	require.Len(t, store.Get(1).Arcs, 1)
	require.True(t, math.IsInf(float64(store.Get(1).States[1].Backward), -1))

	// frame 3 (end_t) has its final-frame backward set.
	require.Len(t, store.Get(3).States, 1)
	require.InDelta(t, 0, store.Get(3).States[0].Backward, 1e-4)
}
