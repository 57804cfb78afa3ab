package assemble

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voxgraph/prunedfsa/backward"
	"github.com/voxgraph/prunedfsa/beam"
	"github.com/voxgraph/prunedfsa/forward"
	"github.com/voxgraph/prunedfsa/framestore"
	"github.com/voxgraph/prunedfsa/fsa"
	"github.com/voxgraph/prunedfsa/statehash"
)

// buildLinearChain runs the two-arc chain (label 1 then the final arc)
// through ForwardPass and BackwardPruner, leaving a 3-frame store ready
// for Build.
func buildLinearChain(t *testing.T) (*fsa.Graph, *fsa.DenseScores, *framestore.Store) {
	t.Helper()
	g, err := fsa.NewGraph(
		[]int32{0, 3},
		[]int32{0, 1, 2, 2},
		[]fsa.Arc{
			{Src: 0, Dest: 1, Label: 1, Score: 0},
			{Src: 1, Dest: 2, Label: -1, Score: 0},
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

	backward.SetBackwardProbsFinal(store.Get(2))
	p := backward.NewPruner(g, 1000)
	require.NoError(t, p.PruneTimeRange(store, 0, 2))

	return g, scores, store
}

func TestBuildLinearChainProducesSinglePath(t *testing.T) {
	g, scores, store := buildLinearChain(t)

	lat, err := Build(Params{Graph: g, Store: store, Scores: scores, AllowPartial: false})
	require.NoError(t, err)

	require.Equal(t, int32(1), lat.NumFsas())
	begin, end := lat.StatesOf(0)
	require.Equal(t, int32(0), begin)
	require.Equal(t, int32(3), end)

	labels, score := BestPath(lat, 0)
	require.Equal(t, []int32{1}, labels)
	require.InDelta(t, 0, score, 1e-4)

	require.Equal(t, []int32{0, 1}, lat.ArcMapA)
	require.Equal(t, []int32{2, 3}, lat.ArcMapB)

	doc, err := lat.DebugJSON()
	require.NoError(t, err)
	require.NotEmpty(t, doc)
}

func TestBuildWithoutScoresOmitsArcMapB(t *testing.T) {
	g, _, store := buildLinearChain(t)

	lat, err := Build(Params{Graph: g, Store: store, AllowPartial: false})
	require.NoError(t, err)
	require.Nil(t, lat.ArcMapB)
	require.Len(t, lat.Arcs, 2)
}

func TestBuildRejectsEmptyStore(t *testing.T) {
	g, _, _ := buildLinearChain(t)
	_, err := Build(Params{Graph: g, Store: framestore.NewStore(0)})
	require.ErrorIs(t, err, ErrEmptyStore)
}
