package backward

import (
	"fmt"
	"math"

	"github.com/voxgraph/prunedfsa/framestore"
	"github.com/voxgraph/prunedfsa/fsa"
	"github.com/voxgraph/prunedfsa/ragged"
)

// keepFloor is the denormal-safe threshold for "finite" backward/forward
// log-likes (SPEC_FULL.md §8.3: `> -math.MaxFloat32/2`, not `!= -Inf`).
const keepFloor = -math.MaxFloat32 / 2

func isFinite(v float32) bool { return v > keepFloor }

func negInf32() float32 { return float32(math.Inf(-1)) }

// SetBackwardProbsFinal implements prune_time_range step 1: for each
// state of frame with finite forward_loglike, backward_loglike :=
// -forward_loglike; otherwise -Inf.
func SetBackwardProbsFinal(frame *framestore.FrameInfo) {
	for _, s := range frame.States {
		if fw := s.ForwardLoglike(); isFinite(fw) {
			s.Backward = -fw
		} else {
			s.Backward = negInf32()
		}
	}
}

// Pruner runs prune_time_range for one graph/output-beam pair.
type Pruner struct {
	Graph      *fsa.Graph
	OutputBeam float32
}

// NewPruner returns a Pruner bound to g and outputBeam.
func NewPruner(g *fsa.Graph, outputBeam float32) *Pruner {
	return &Pruner{Graph: g, OutputBeam: outputBeam}
}

// frameCompaction holds the per-frame keep decisions computed in the
// backward sweep, applied later once nothing still needs this frame's
// original (pre-compaction) indexing.
type frameCompaction struct {
	keepArc   []bool
	keepState []bool
}

// PruneTimeRange implements spec.md §4.5: the end_t-1..begin_t backward
// sweep followed by batch-compaction. store.Get(endT) must already be
// populated (typically the frame ForwardPass just produced); frames in
// [beginT, endT) are rewritten in place.
//
// Runs as two passes rather than one interleaved pass (grounded on
// flow/edmonds_karp.go's staged, numbered-step structure): pass one
// computes backward log-likes and keep decisions over the untouched
// frames so every frame's original indexing stays valid while it is
// read as another frame's destination; pass two applies the deferred
// renumbering/compaction, outermost frame first, carrying each frame's
// new state numbering forward so the next frame's arc destinations can
// be remapped.
func (p *Pruner) PruneTimeRange(store *framestore.Store, beginT, endT int32) error {
	if beginT > endT {
		return fmt.Errorf("backward: begin_t %d > end_t %d", beginT, endT)
	}
	final := store.Get(endT)
	if final == nil {
		return fmt.Errorf("backward: end_t %d: %w", endT, ErrFrameMissing)
	}
	SetBackwardProbsFinal(final)

	n := endT - beginT
	compactions := make([]frameCompaction, n)

	// Pass 1: step 2, descending, over the original (unmutated) frames.
	for t := endT - 1; t >= beginT; t-- {
		cur := store.Get(t)
		if cur == nil {
			return fmt.Errorf("backward: t %d: %w", t, ErrFrameMissing)
		}
		next := store.Get(t + 1)
		if next == nil {
			return fmt.Errorf("backward: t+1 %d: %w", t+1, ErrFrameMissing)
		}
		compactions[t-beginT] = p.sweepFrame(cur, next)
	}

	// Pass 2: apply compaction outermost (endT-1) to innermost (beginT),
	// remapping each frame's arcs using its successor's fresh numbering
	// before that successor's own state array is touched again.
	var nextStateIdx []int32 // nil means "no remap" (successor untouched)
	for t := endT - 1; t >= beginT; t-- {
		cur := store.Get(t)
		c := compactions[t-beginT]

		if nextStateIdx != nil {
			remapArcDest(cur.Arcs, nextStateIdx)
		}

		pinned := t == beginT
		idx, err := compactFrame(cur, c.keepArc, c.keepState, pinned)
		if err != nil {
			return fmt.Errorf("backward: compacting t=%d: %w", t, err)
		}
		nextStateIdx = idx
	}
	return nil
}

// sweepFrame implements step 2's per-arc and per-state keep decisions
// for frame cur, given its untouched successor next.
func (p *Pruner) sweepFrame(cur, next *framestore.FrameInfo) frameCompaction {
	numArcs := int32(len(cur.Arcs))
	numStates := int32(len(cur.States))
	keepArc := make([]bool, numArcs)
	keepState := make([]bool, numStates)

	arcOfState := cur.ArcsShape.RowIDs(2)
	fsaOfState := cur.StatesShape.RowIDs(1)

	arcBackBest := make([]float32, numStates)
	for i := range arcBackBest {
		arcBackBest[i] = negInf32()
	}

	for i := int32(0); i < numArcs; i++ {
		arc := &cur.Arcs[i]
		if arc.DestStateIdx1 == -1 {
			continue
		}
		srcState := arcOfState[i]
		src := cur.States[srcState]
		arcBack := arc.ArcLoglike + next.States[arc.DestStateIdx1].Backward
		if arcBack+src.ForwardLoglike() < -p.OutputBeam {
			continue
		}
		keepArc[i] = true
		if arcBack > arcBackBest[srcState] {
			arcBackBest[srcState] = arcBack
		}
	}

	for s := int32(0); s < numStates; s++ {
		best := arcBackBest[s]
		graphFsa := p.Graph.GraphIndex(fsaOfState[s])
		if final, ok := p.Graph.FinalState(graphFsa); ok && final == cur.States[s].AState {
			if cand := -cur.States[s].ForwardLoglike(); cand > best {
				best = cand
			}
		}
		cur.States[s].Backward = best
		keepState[s] = isFinite(best)
	}

	return frameCompaction{keepArc: keepArc, keepState: keepState}
}

// remapArcDest rewrites every arc's DestStateIdx1 through idx (a
// successor frame's fresh state numbering); arcs already marked
// pruned (-1) are left alone.
func remapArcDest(arcs []framestore.ArcInfo, idx []int32) {
	for i := range arcs {
		if arcs[i].DestStateIdx1 == -1 {
			continue
		}
		arcs[i].DestStateIdx1 = idx[arcs[i].DestStateIdx1]
	}
}

// compactFrame applies step 3's batch-compaction to a single frame:
// arcs are always filtered by keepArc, and (unless pinned) states are
// also filtered by keepState and reindexed, with arcs re-bucketed
// under their owning state's new index so ArcsShape's state axis stays
// aligned with the (possibly rebuilt) StatesShape. Returns the
// old-index -> new-index state map (-1 for dropped; identity when
// pinned) for the caller to use remapping the predecessor frame's arc
// destinations.
func compactFrame(f *framestore.FrameInfo, keepArc, keepState []bool, pinned bool) ([]int32, error) {
	oldArcOfState := f.ArcsShape.RowIDs(2)
	numOldStates := int32(len(f.States))

	var stateIdx []int32
	if pinned {
		stateIdx = make([]int32, numOldStates)
		for i := range stateIdx {
			stateIdx[i] = int32(i)
		}
	} else {
		fsaOfState := f.StatesShape.RowIDs(1)
		numFsas := f.StatesShape.TotSize(0)

		idx, numKept := ragged.Renumber(keepState)
		kept := make([]*framestore.StateInfo, numKept)
		keptFsaIDs := make([]int32, 0, numKept)
		for i, k := range keepState {
			if !k {
				continue
			}
			kept[idx[i]] = f.States[i]
			keptFsaIDs = append(keptFsaIDs, fsaOfState[i])
		}
		newStateRowSplits := ragged.RowIDsToRowSplits(keptFsaIDs, numFsas)
		shape, err := ragged.NewShape([][]int32{newStateRowSplits})
		if err != nil {
			return nil, fmt.Errorf("rebuilding state shape: %w", err)
		}
		f.StatesShape = shape
		f.States = kept
		stateIdx = idx
	}

	var arcShape *ragged.Shape
	keptArcs := make([]framestore.ArcInfo, 0, len(f.Arcs))
	if pinned {
		// States keep their index, so the arc axis's parent grouping is
		// unchanged: a plain leaf-axis filter applies directly.
		newShape, newArcIdx, err := ragged.FilterLastAxis(f.ArcsShape, keepArc)
		if err != nil {
			return nil, fmt.Errorf("filtering arcs: %w", err)
		}
		for i, ni := range newArcIdx {
			if ni != -1 {
				keptArcs = append(keptArcs, f.Arcs[i])
			}
		}
		arcShape = newShape
	} else {
		numNewStates := int32(len(f.States))
		arcCounts := make([]int32, numNewStates)
		for i, k := range keepArc {
			if !k {
				continue
			}
			newState := stateIdx[oldArcOfState[i]]
			keptArcs = append(keptArcs, f.Arcs[i])
			arcCounts[newState]++
		}
		newArcRowSplits := ragged.ExclusiveSum(arcCounts)
		shape, err := ragged.NewShape([][]int32{f.StatesShape.RowSplits(1), newArcRowSplits})
		if err != nil {
			return nil, fmt.Errorf("rebuilding arc shape: %w", err)
		}
		arcShape = shape
	}
	f.ArcsShape = arcShape
	f.Arcs = keptArcs

	return stateIdx, nil
}
