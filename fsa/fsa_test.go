package fsa

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func linearChainGraph(t *testing.T) *Graph {
	t.Helper()
	// one fsa, 3 states: 0->1 label 1, 1->2 label -1.
	stateRowSplits := []int32{0, 3}
	arcRowSplits := []int32{0, 1, 2, 2}
	arcs := []Arc{
		{Src: 0, Dest: 1, Label: 1, Score: 0},
		{Src: 1, Dest: 2, Label: -1, Score: 0},
	}
	g, err := NewGraph(stateRowSplits, arcRowSplits, arcs, 1)
	require.NoError(t, err)
	return g
}

func TestGraphBasics(t *testing.T) {
	g := linearChainGraph(t)
	require.EqualValues(t, 1, g.NumFsas())
	require.EqualValues(t, 3, g.NumStates(0))
	final, ok := g.FinalState(0)
	require.True(t, ok)
	require.EqualValues(t, 2, final)
	require.Len(t, g.ArcsOf(0), 1)
	require.Len(t, g.ArcsOf(2), 0)
	require.NoError(t, g.Validate())
}

func TestGraphEmptyInvalid(t *testing.T) {
	g, err := NewGraph([]int32{0, 0}, []int32{0}, nil, 1)
	require.NoError(t, err)
	require.ErrorIs(t, g.Validate(), ErrEmptyGraph)
}

func TestDenseScores(t *testing.T) {
	rowSplits := []int32{0, 3}
	width := int32(3)
	values := []float32{
		float32(negInf(t)), 0, float32(negInf(t)),
		float32(negInf(t)), 0, float32(negInf(t)),
		0, float32(negInf(t)), float32(negInf(t)),
	}
	d, err := NewDenseScores(rowSplits, width, values)
	require.NoError(t, err)
	require.EqualValues(t, 3, d.NumFrames(0))
	require.Equal(t, float32(0), d.Acoustic(0, 2, -1))
}

func negInf(t *testing.T) float64 {
	t.Helper()
	return math.Inf(-1)
}
