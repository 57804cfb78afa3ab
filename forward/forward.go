package forward

import (
	"fmt"
	"math"

	"github.com/voxgraph/prunedfsa/arcexpand"
	"github.com/voxgraph/prunedfsa/beam"
	"github.com/voxgraph/prunedfsa/fsa"
	"github.com/voxgraph/prunedfsa/framestore"
	"github.com/voxgraph/prunedfsa/orderedfloat"
	"github.com/voxgraph/prunedfsa/ragged"
	"github.com/voxgraph/prunedfsa/statehash"
)

// Context bundles the per-batch state ForwardPass needs on every
// frame: the graph/scores, each utterance's persistent BeamController
// (so online mode can carry beams across chunks), and the maximum
// local state count any single fsa's graph has, used as the
// multiplier in StateHash's packed key (spec.md §4.1).
type Context struct {
	Graph          *fsa.Graph
	Scores         *fsa.DenseScores
	AllowPartial   bool
	Beams          []*beam.Controller // one per utterance in the batch
	MaxLocalStates int32

	// Online suppresses BeamController's end-of-utterance
	// special-casing (spec.md §4.3 steps 3/5): a chunk boundary is not
	// the utterance's true end, so the batch entry point leaves this
	// false and the chunked entry point sets it true.
	Online bool
}

// NewContext derives MaxLocalStates from graph and builds one
// Controller per utterance.
func NewContext(g *fsa.Graph, scores *fsa.DenseScores, searchBeam float32, minActive, maxActive int32, tunables beam.Tunables, allowPartial bool, numSeqs int32) *Context {
	beams := make([]*beam.Controller, numSeqs)
	for i := range beams {
		beams[i] = beam.New(searchBeam, minActive, maxActive, tunables)
	}
	var maxLocal int32
	for f := int32(0); f < g.NumFsas(); f++ {
		if n := g.NumStates(f); n > maxLocal {
			maxLocal = n
		}
	}
	if maxLocal == 0 {
		maxLocal = 1
	}
	return &Context{Graph: g, Scores: scores, AllowPartial: allowPartial, Beams: beams, MaxLocalStates: maxLocal}
}

func (c *Context) packKey(fsaIdx, destGraphState int32) uint64 {
	graphFsa := c.Graph.GraphIndex(fsaIdx)
	local := destGraphState - c.Graph.StateOffset(graphFsa)
	return uint64(fsaIdx)*uint64(c.MaxLocalStates) + uint64(local) + 1
}

// Result is the outcome of one Step: the next frame (with States
// allocated and Forward set) and the cutoff used per utterance, kept
// around for diagnostics/tests.
type Result struct {
	Next    *framestore.FrameInfo
	Cutoffs []float32
}

// Step runs the nine-step forward cycle of spec.md §4.4 for frame t,
// given cur (States already populated) and the shared StateHash
// (guaranteed empty on entry and guaranteed empty again on return).
func Step(ctx *Context, hash *statehash.Hash, cur *framestore.FrameInfo, t int32) (*Result, error) {
	numFsas := cur.NumFsas()

	// Step 1: expand.
	if _, err := arcexpand.Expand(arcexpand.Params{Graph: ctx.Graph, Scores: ctx.Scores, AllowPartial: ctx.AllowPartial}, cur, t); err != nil {
		return nil, fmt.Errorf("forward: expand: %w", err)
	}
	numArcs := int32(len(cur.Arcs))

	stateRowSplits := cur.StatesShape.RowSplits(1)
	arcRowSplitsByState := cur.ArcsShape.RowSplits(2)
	fsaOfState := cur.StatesShape.RowIDs(1)

	// fsaArcSplits re-groups the already-per-state arc row-splits
	// straight to per-fsa boundaries (arcs stay contiguous across a
	// fsa's states), so ragged.MaxPerSublist can reduce every
	// utterance's expanded end-loglikes in one pass.
	fsaArcSplits := make([]int32, numFsas+1)
	for f := int32(0); f <= numFsas; f++ {
		fsaArcSplits[f] = arcRowSplitsByState[stateRowSplits[f]]
	}
	endLoglikes := make([]float32, numArcs)
	for i := int32(0); i < numArcs; i++ {
		endLoglikes[i] = cur.Arcs[i].EndLoglike
	}
	bestPerFsa := ragged.MaxPerSublist(fsaArcSplits, endLoglikes, float32(math.Inf(-1)))

	// Step 2: per-utterance cutoffs via BeamController.
	cutoffs := make([]float32, numFsas)
	for f := int32(0); f < numFsas; f++ {
		finalT := ctx.Scores.NumFrames(f) - 1
		active := stateRowSplits[f+1] - stateRowSplits[f]
		cutoffs[f] = ctx.Beams[f].Step(bestPerFsa[f], active, t, finalT, ctx.Online)
	}

	// arc -> owning fsa, derived from arc's owning state.
	arcState := cur.ArcsShape.RowIDs(2)
	arcFsa := func(arcIdx int32) int32 { return fsaOfState[arcState[arcIdx]] }

	// Step 3: resize hash if needed (guaranteed empty here).
	if err := hash.Resize(uint32(numArcs)); err != nil {
		return nil, fmt.Errorf("forward: resize: %w", err)
	}

	// Step 4: attempt dedup-insert for arcs passing the cutoff.
	passed := make([]bool, numArcs)
	keepArc := make([]bool, numArcs)
	entries := make([]statehash.Entry, numArcs)
	parallelEach(numArcs, func(i int32) {
		f := arcFsa(i)
		arc := &cur.Arcs[i]
		if arc.EndLoglike <= cutoffs[f] {
			return
		}
		passed[i] = true
		key := ctx.packKey(f, arc.DestGraphState)
		e, inserted := hash.Insert(key, uint64(i))
		entries[i] = e
		keepArc[i] = inserted
	})

	// Step 5: renumber by keep_arc -> new-frame state indices.
	newStateIdx, numNewStates := ragged.Renumber(keepArc)

	// Kept arcs' owning fsa, in surviving order, compacted straight back
	// into row-splits (fsa order is non-decreasing since arcs are
	// already grouped by fsa).
	keptFsaIDs := make([]int32, 0, numNewStates)
	for i := int32(0); i < numArcs; i++ {
		if keepArc[i] {
			keptFsaIDs = append(keptFsaIDs, arcFsa(i))
		}
	}
	nextStateRowSplits := ragged.RowIDsToRowSplits(keptFsaIDs, numFsas)
	nextShape, err := ragged.NewShape([][]int32{nextStateRowSplits})
	if err != nil {
		return nil, fmt.Errorf("forward: building next-state shape: %w", err)
	}

	// Step 6: allocate next.states, forward_loglike = -Inf.
	nextStates := make([]*framestore.StateInfo, numNewStates)
	for i := int32(0); i < numArcs; i++ {
		if keepArc[i] {
			nextStates[newStateIdx[i]] = framestore.NewStateInfo(cur.Arcs[i].DestGraphState)
		}
	}

	// Step 7: rewrite hash value from arc_idx to new-frame state index.
	for i := int32(0); i < numArcs; i++ {
		if keepArc[i] {
			hash.SetValueAt(entries[i], uint64(newStateIdx[i]))
		}
	}

	// Step 8: every surviving (cutoff-passing) arc looks up its
	// destination's new state index and atomically maxes forward_loglike.
	parallelEach(numArcs, func(i int32) {
		arc := &cur.Arcs[i]
		if !passed[i] {
			arc.DestStateIdx1 = -1
			return
		}
		key := ctx.packKey(arcFsa(i), arc.DestGraphState)
		if _, val, ok := hash.Find(key); ok {
			newIdx := int32(val)
			arc.DestStateIdx1 = newIdx
			orderedfloat.AtomicMax(&nextStates[newIdx].Forward, orderedfloat.ToOrdered(arc.EndLoglike))
		} else {
			arc.DestStateIdx1 = -1
		}
	})

	// Step 9: drain the hash so it is empty again at frame end.
	for i := int32(0); i < numArcs; i++ {
		if keepArc[i] {
			hash.DeleteAt(entries[i])
		}
	}

	next := &framestore.FrameInfo{StatesShape: nextShape, States: nextStates}
	return &Result{Next: next, Cutoffs: cutoffs}, nil
}
