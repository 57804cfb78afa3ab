package assemble

import (
	"fmt"

	"github.com/voxgraph/prunedfsa/fsa"
	"github.com/voxgraph/prunedfsa/framestore"
	"github.com/voxgraph/prunedfsa/ragged"
)

// Params bundles everything Build needs to turn a batch's frames into
// a Lattice.
type Params struct {
	Graph  *fsa.Graph
	Store  *framestore.Store
	Scores *fsa.DenseScores // nil in online/no-score assembly
	// AllowPartial mirrors the engine flag: on the final frame of a
	// finished utterance, a non-final arc's output label is rewritten
	// to -1 and its graph-arc map entry marked synthesized.
	AllowPartial bool
}

// Build implements spec.md §4.7. Frames 0..T-1 of Store must carry
// Arcs (T = Store.Len()-1); frame T is states-only, the decode's
// terminal frame.
func Build(p Params) (*Lattice, error) {
	if p.Store.Len() == 0 {
		return nil, ErrEmptyStore
	}
	numFsas := p.Graph.NumFsas()
	T := p.Store.Len() - 1

	// stateOffset[f][t] is the flat, within-fsa index of frame t's
	// first state (frames 0..T contribute states; step 1's synthesized
	// completion slot, if any, is appended after frame T's states).
	stateOffset := make([][]int32, numFsas)
	fsaStateCount := make([]int32, numFsas)
	needsSynthFinal := make([]bool, numFsas)
	for f := int32(0); f < numFsas; f++ {
		stateOffset[f] = make([]int32, T+1)
		var running int32
		for t := int32(0); t <= T; t++ {
			stateOffset[f][t] = running
			running += int32(len(p.Store.Get(t).StatesOf(f)))
		}
		fsaStateCount[f] = running

		graphFsa := p.Graph.GraphIndex(f)
		if p.Graph.NumStates(graphFsa) == 0 {
			continue
		}
		finalState, ok := p.Graph.FinalState(graphFsa)
		if !ok {
			continue
		}
		// final_arcs_shape (step 1): this fsa had a start but frame T
		// doesn't already carry the graph's final state among its
		// survivors, so reserve one synthesized, arc-less terminal
		// slot rather than letting the lattice end on an arbitrary
		// non-final state.
		hasFinal := false
		for _, st := range p.Store.Get(T).StatesOf(f) {
			if st.AState == finalState {
				hasFinal = true
				break
			}
		}
		if !hasFinal {
			needsSynthFinal[f] = true
			fsaStateCount[f]++
		}
	}

	stateRowSplits := ragged.ExclusiveSum(fsaStateCount)

	type arcRec struct {
		arc     Arc
		graphArc int32
		scoreIdx int32
	}
	perStateArcs := make([][]arcRec, stateRowSplits[numFsas])

	for f := int32(0); f < numFsas; f++ {
		finalT := T
		if p.Scores != nil {
			finalT = p.Scores.NumFrames(f) - 1
		}
		for t := int32(0); t < T; t++ {
			frame := p.Store.Get(t)
			next := p.Store.Get(t + 1)
			fsaStateBase := frame.StatesShape.RowSplits(1)[f]
			nextFsaStateBase := next.StatesShape.RowSplits(1)[f]

			for local := range frame.StatesOf(f) {
				globalState := fsaStateBase + int32(local)
				flatSrc := stateRowSplits[f] + stateOffset[f][t] + int32(local)

				for _, a := range frame.ArcsOfState(globalState) {
					if a.DestStateIdx1 == -1 {
						continue
					}
					localDest := a.DestStateIdx1 - nextFsaStateBase
					flatDest := stateRowSplits[f] + stateOffset[f][t+1] + localDest

					label := p.Graph.Arcs[a.GraphArc].Label
					graphArcMap := a.GraphArc
					if t == finalT-1 && label != -1 && p.AllowPartial {
						label = -1
						graphArcMap = -1
					}

					scoreIdx := int32(-1)
					if p.Scores != nil {
						scoreIdx = (p.Scores.FrameOffset(f)+t)*p.Scores.Width + (label + 1)
					}

					perStateArcs[flatSrc] = append(perStateArcs[flatSrc], arcRec{
						arc:      Arc{Src: flatSrc, Dest: flatDest, Label: label, Loglike: a.ArcLoglike},
						graphArc: graphArcMap,
						scoreIdx: scoreIdx,
					})
				}
			}
		}
	}

	numStates := stateRowSplits[numFsas]
	arcCounts := make([]int32, numStates)
	for s := int32(0); s < numStates; s++ {
		arcCounts[s] = int32(len(perStateArcs[s]))
	}
	arcRowSplits := ragged.ExclusiveSum(arcCounts)

	shape, err := ragged.NewShape([][]int32{stateRowSplits, arcRowSplits})
	if err != nil {
		return nil, fmt.Errorf("assemble: building lattice shape: %w", err)
	}

	arcs := make([]Arc, 0, arcRowSplits[numStates])
	arcMapA := make([]int32, 0, arcRowSplits[numStates])
	var arcMapB []int32
	if p.Scores != nil {
		arcMapB = make([]int32, 0, arcRowSplits[numStates])
	}
	for s := int32(0); s < numStates; s++ {
		for _, rec := range perStateArcs[s] {
			arcs = append(arcs, rec.arc)
			arcMapA = append(arcMapA, rec.graphArc)
			if arcMapB != nil {
				arcMapB = append(arcMapB, rec.scoreIdx)
			}
		}
	}

	return &Lattice{Shape: shape, Arcs: arcs, ArcMapA: arcMapA, ArcMapB: arcMapB}, nil
}
