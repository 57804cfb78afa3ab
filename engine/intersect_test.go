package engine

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voxgraph/prunedfsa/assemble"
	"github.com/voxgraph/prunedfsa/fsa"
)

func negInf() float32 { return float32(math.Inf(-1)) }

func linearChainGraph(t *testing.T) *fsa.Graph {
	t.Helper()
	g, err := fsa.NewGraph(
		[]int32{0, 3},
		[]int32{0, 1, 2, 2},
		[]fsa.Arc{
			{Src: 0, Dest: 1, Label: 1, Score: 0},
			{Src: 1, Dest: 2, Label: -1, Score: 0},
		}, 1)
	require.NoError(t, err)
	return g
}

func linearChainScores(t *testing.T) *fsa.DenseScores {
	t.Helper()
	width := int32(3)
	values := []float32{
		negInf(), negInf(), 0,
		0, negInf(), negInf(),
		0, negInf(), negInf(),
	}
	scores, err := fsa.NewDenseScores([]int32{0, 3}, width, values)
	require.NoError(t, err)
	return scores
}

func defaultOptions() Options {
	return Options{SearchBeam: 1000, OutputBeam: 1000, MinActive: 1, MaxActive: 10}
}

func TestIntersectLinearChainFindsPath(t *testing.T) {
	g := linearChainGraph(t)
	scores := linearChainScores(t)

	res, err := Intersect(context.Background(), g, scores, defaultOptions())
	require.NoError(t, err)

	labels, score := assemble.BestPath(res.Lattice, 0)
	require.Equal(t, []int32{1}, labels)
	require.InDelta(t, 0, score, 1e-4)
}

func TestIntersectRejectsBadOptions(t *testing.T) {
	g := linearChainGraph(t)
	scores := linearChainScores(t)

	opts := defaultOptions()
	opts.MaxActive = opts.MinActive
	_, err := Intersect(context.Background(), g, scores, opts)
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestIntersectPrunesCompetingPath(t *testing.T) {
	// Two arcs into state 1: label 1 at score 0, label 2 at score -50,
	// far outside an output beam of 5.
	g, err := fsa.NewGraph(
		[]int32{0, 3},
		[]int32{0, 2, 3, 3},
		[]fsa.Arc{
			{Src: 0, Dest: 1, Label: 1, Score: 0},
			{Src: 0, Dest: 1, Label: 2, Score: -50},
			{Src: 1, Dest: 2, Label: -1, Score: 0},
		}, 1)
	require.NoError(t, err)

	width := int32(4)
	values := []float32{
		negInf(), negInf(), 0, 0,
		0, negInf(), negInf(), negInf(),
		0, negInf(), negInf(), negInf(),
	}
	scores, err := fsa.NewDenseScores([]int32{0, 3}, width, values)
	require.NoError(t, err)

	opts := defaultOptions()
	opts.OutputBeam = 5
	res, err := Intersect(context.Background(), g, scores, opts)
	require.NoError(t, err)

	labels, _ := assemble.BestPath(res.Lattice, 0)
	require.Equal(t, []int32{1}, labels)
}

func TestIntersectSingleFrameBatch(t *testing.T) {
	// A graph whose start state is already final: frame 0 is both
	// begin_t and end_t, no forward steps needed.
	g, err := fsa.NewGraph([]int32{0, 1}, []int32{0, 0}, nil, 1)
	require.NoError(t, err)

	scores, err := fsa.NewDenseScores([]int32{0, 1}, 1, []float32{0})
	require.NoError(t, err)

	res, err := Intersect(context.Background(), g, scores, defaultOptions())
	require.NoError(t, err)
	require.Equal(t, int32(1), res.Lattice.NumFsas())
}
