package engine

import (
	"context"
	"fmt"

	"github.com/voxgraph/prunedfsa/assemble"
	"github.com/voxgraph/prunedfsa/backward"
	"github.com/voxgraph/prunedfsa/beam"
	"github.com/voxgraph/prunedfsa/forward"
	"github.com/voxgraph/prunedfsa/framestore"
	"github.com/voxgraph/prunedfsa/fsa"
	"github.com/voxgraph/prunedfsa/orderedfloat"
	"github.com/voxgraph/prunedfsa/ragged"
	"github.com/voxgraph/prunedfsa/statehash"
)

// DecodeState is one utterance's persistent state across Decode calls
// (spec.md §4.8): its dynamic beam, and whether it has reached its
// graph's true final state. The zero value is ready for first use.
type DecodeState struct {
	Beam       *beam.Controller
	Done       bool
	TrueFinalT int32 // valid only once Done
}

// NewDecodeState returns a DecodeState ready for Decode's first-use
// initialization.
func NewDecodeState() *DecodeState { return &DecodeState{TrueFinalT: -1} }

// OnlineIntersecter implements §4.8's chunked decode entry point. It
// requires a single shared graph (a_fsas.outer_size == 1) and holds a
// batch-width FrameStore shared across all num_seqs utterances, since
// ForwardPass/BackwardPruner operate on the whole batch per frame;
// DecodeState only carries the per-utterance bookkeeping that is
// genuinely independent (beam, completion status) rather than
// attempting to slice the ragged per-frame state/arc shapes back into
// per-utterance stores between chunks.
type OnlineIntersecter struct {
	Graph   *fsa.Graph
	Opts    Options
	NumSeqs int32

	store       *framestore.Store
	initialized bool
}

// NewOnlineIntersecter validates graph/opts and returns an
// OnlineIntersecter for a fixed batch width.
func NewOnlineIntersecter(graph *fsa.Graph, opts Options, numSeqs int32) (*OnlineIntersecter, error) {
	if graph.NumFsas() != 1 || graph.Stride != 0 {
		return nil, configErr(ErrConfigInvalid, "Graph", "online intersecter requires a_fsas.outer_size == 1 (Stride 0, shared across the batch)")
	}
	if opts.SearchBeam <= 0 {
		return nil, configErr(ErrConfigInvalid, "SearchBeam", "must be positive")
	}
	if opts.OutputBeam <= 0 {
		return nil, configErr(ErrConfigInvalid, "OutputBeam", "must be positive")
	}
	if opts.MaxActive <= opts.MinActive {
		return nil, configErr(ErrConfigInvalid, "MaxActive", "must be greater than MinActive")
	}
	if err := graph.Validate(); err != nil {
		return nil, configErr(ErrConfigInvalid, "Graph", err.Error())
	}
	return &OnlineIntersecter{Graph: graph, Opts: opts, NumSeqs: numSeqs}, nil
}

// Decode runs chunk_size = scores.max_frames-1 real forward frames
// over the batch (spec.md §4.8), initializing any DecodeState on
// first use, then prunes once over the trailing window and returns a
// partial lattice covering all frames decoded so far (no arc_map_b:
// "b_fsas represents only a chunk").
func (oi *OnlineIntersecter) Decode(ctx context.Context, scores *fsa.DenseScores, states []*DecodeState) (*Result, error) {
	if int32(len(states)) != oi.NumSeqs {
		return nil, configErr(ErrShapeMismatch, "states", "len(states) must equal num_seqs")
	}
	if scores.NumFsas() != oi.NumSeqs {
		return nil, configErr(ErrShapeMismatch, "scores", "outer_size must equal num_seqs")
	}

	if !oi.initialized {
		frame0, err := forward.InitialFrame(oi.Graph, oi.NumSeqs)
		if err != nil {
			return nil, fmt.Errorf("engine: building initial frame: %w", err)
		}
		oi.store = framestore.NewStore(8)
		oi.store.Append(frame0)
		for _, s := range states {
			if s.Beam == nil {
				s.Beam = beam.New(oi.Opts.SearchBeam, oi.Opts.MinActive, oi.Opts.MaxActive, oi.Opts.Tunables)
			}
			s.TrueFinalT = -1
		}
		oi.initialized = true
	}

	var chunkSize int32
	for f := int32(0); f < oi.NumSeqs; f++ {
		if n := scores.NumFrames(f) - 1; n > chunkSize {
			chunkSize = n
		}
	}
	if chunkSize <= 0 {
		return nil, configErr(ErrConfigInvalid, "scores", "chunk must contain at least one real frame")
	}

	beams := make([]*beam.Controller, oi.NumSeqs)
	for i, s := range states {
		beams[i] = s.Beam
	}

	var maxLocal int32
	for f := int32(0); f < oi.Graph.NumFsas(); f++ {
		if n := oi.Graph.NumStates(f); n > maxLocal {
			maxLocal = n
		}
	}
	if maxLocal == 0 {
		maxLocal = 1
	}

	// AllowPartial is forced off for the real per-chunk steps: the
	// allow-partial final-frame rewrite belongs to the utterance's true
	// end, not a chunk boundary, which ArcExpander can't distinguish
	// from scores.NumFrames alone in online mode. The rewrite is instead
	// applied at assembly time against GetFinalFrame's synthesized
	// completion frame.
	fctx := &forward.Context{Graph: oi.Graph, Scores: scores, AllowPartial: false, Beams: beams, MaxLocalStates: maxLocal, Online: true}

	maxKey := uint64(oi.NumSeqs) * uint64(maxLocal)
	hash, err := statehash.New(maxKey, 1024)
	if err != nil {
		return nil, fmt.Errorf("engine: %s: %w", ErrCapacityExceeded, err)
	}

	tPrior := oi.store.Len() - 1
	for local := int32(0); local < chunkSize; local++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur := oi.store.Get(tPrior + local)
		r, err := forward.Step(fctx, hash, cur, local)
		if err != nil {
			return nil, fmt.Errorf("engine: online forward step %d: %w", local, err)
		}
		oi.store.Append(r.Next)
	}

	pruneBegin := tPrior - 2
	if pruneBegin < 0 {
		pruneBegin = 0
	}
	pruneEnd := tPrior + chunkSize

	pruner := backward.NewPruner(oi.Graph, oi.Opts.OutputBeam)
	if err := pruner.PruneTimeRange(oi.store, pruneBegin, pruneEnd); err != nil {
		return nil, fmt.Errorf("engine: online prune [%d,%d]: %w", pruneBegin, pruneEnd, err)
	}

	oi.markFinished(states, pruneEnd)

	lat, err := oi.AssemblePartial()
	if err != nil {
		return nil, err
	}
	return &Result{Lattice: lat, ArcMapA: lat.ArcMapA}, nil
}

// markFinished records each utterance that has reached its graph's
// true final state as of frame t, per spec.md §4.8's "records each
// utterance's true final frame index for later assembly".
func (oi *OnlineIntersecter) markFinished(states []*DecodeState, t int32) {
	frame := oi.store.Get(t)
	for f, st := range states {
		if st.Done {
			continue
		}
		graphFsa := oi.Graph.GraphIndex(int32(f))
		finalState, ok := oi.Graph.FinalState(graphFsa)
		if !ok {
			continue
		}
		for _, s := range frame.StatesOf(int32(f)) {
			if s.AState == finalState {
				st.Done = true
				st.TrueFinalT = t
				break
			}
		}
	}
}

// completion holds GetFinalFrame's synthesized frame together with the
// bridge arcs that reach it from the live store's last real frame: that
// frame was only ever a forward.Step's output (never its input), so it
// was never handed to ArcExpander and carries no Arcs of its own.
type completion struct {
	frame *framestore.FrameInfo
	// arcsByState holds, for each global state index of the store's
	// last real frame, the (0 or 1) bridge arcs reaching this frame.
	arcsByState [][]framestore.ArcInfo
}

// GetFinalFrame synthesizes a one-state-per-finished-utterance frame
// (spec.md §4.8): for every utterance, collapse every outgoing final
// graph arc (label -1) of its last real frame's active states into a
// single destination state, carrying the best forward log-like
// through; an utterance already sitting on its graph-final state
// carries that state's log-like through unchanged. FSAs with neither
// case contribute no state, matching the real decoder's "no
// hypothesis" outcome.
func (oi *OnlineIntersecter) GetFinalFrame() (*framestore.FrameInfo, error) {
	c, err := oi.buildCompletion()
	if err != nil {
		return nil, err
	}
	return c.frame, nil
}

func (oi *OnlineIntersecter) buildCompletion() (*completion, error) {
	t := oi.store.Len() - 1
	cur := oi.store.Get(t)
	numFsas := cur.NumFsas()
	fsaOfState := cur.StatesShape.RowIDs(1)

	type acc struct {
		has      bool
		fw       int64
		srcState int32 // -1 when the source is already the final state itself
		arc      framestore.ArcInfo
	}
	accs := make([]acc, numFsas)
	for f := range accs {
		accs[f].srcState = -1
	}

	for i, st := range cur.States {
		fsaIdx := fsaOfState[i]
		graphFsa := oi.Graph.GraphIndex(fsaIdx)
		finalState, ok := oi.Graph.FinalState(graphFsa)
		if !ok {
			continue
		}
		globalState := int32(i)
		if st.AState == finalState {
			ord := orderedfloat.ToOrdered(st.ForwardLoglike())
			if !accs[fsaIdx].has || ord > accs[fsaIdx].fw {
				accs[fsaIdx] = acc{has: true, fw: ord, srcState: -1}
			}
			continue
		}
		base := oi.Graph.ArcOffset(st.AState)
		for j, a := range oi.Graph.ArcsOf(st.AState) {
			if a.Label != -1 {
				continue
			}
			end := orderedfloat.ToOrdered(st.ForwardLoglike() + a.Score)
			if !accs[fsaIdx].has || end > accs[fsaIdx].fw {
				accs[fsaIdx] = acc{
					has:      true,
					fw:       end,
					srcState: globalState,
					arc: framestore.ArcInfo{
						GraphArc:       base + int32(j),
						ArcLoglike:     a.Score,
						EndLoglike:     st.ForwardLoglike() + a.Score,
						DestGraphState: finalState,
					},
				}
			}
		}
	}

	rowSplits := make([]int32, numFsas+1)
	newStates := make([]*framestore.StateInfo, 0, numFsas)
	destGlobal := make([]int32, numFsas)
	for f := int32(0); f < numFsas; f++ {
		rowSplits[f] = int32(len(newStates))
		destGlobal[f] = int32(len(newStates))
		if !accs[f].has {
			continue
		}
		graphFsa := oi.Graph.GraphIndex(f)
		finalState, ok := oi.Graph.FinalState(graphFsa)
		if !ok {
			return nil, fmt.Errorf("engine: fsa %d has no final state for GetFinalFrame", f)
		}
		s := framestore.NewStateInfo(finalState)
		s.Forward.Store(accs[f].fw)
		newStates = append(newStates, s)
	}
	rowSplits[numFsas] = int32(len(newStates))

	shape, err := ragged.NewShape([][]int32{rowSplits})
	if err != nil {
		return nil, fmt.Errorf("engine: building final-frame shape: %w", err)
	}

	arcsByState := make([][]framestore.ArcInfo, len(cur.States))
	for f := int32(0); f < numFsas; f++ {
		if !accs[f].has || accs[f].srcState == -1 {
			continue
		}
		a := accs[f].arc
		a.DestStateIdx1 = destGlobal[f]
		arcsByState[accs[f].srcState] = []framestore.ArcInfo{a}
	}

	return &completion{
		frame:       &framestore.FrameInfo{StatesShape: shape, States: newStates},
		arcsByState: arcsByState,
	}, nil
}

// AssemblePartial builds a lattice covering every frame decoded so far
// plus a synthesized completion frame, without advancing real
// decoding (spec.md §4.8): the live store is left untouched. The live
// store's last real frame is cloned with its bridge arcs filled in,
// since it was never expanded by ArcExpander (it has only ever been a
// forward.Step output, never an input).
func (oi *OnlineIntersecter) AssemblePartial() (*assemble.Lattice, error) {
	c, err := oi.buildCompletion()
	if err != nil {
		return nil, err
	}

	lastT := oi.store.Len() - 1
	last := oi.store.Get(lastT)
	arcCounts := make([]int32, len(c.arcsByState))
	for i, arcs := range c.arcsByState {
		arcCounts[i] = int32(len(arcs))
	}
	arcRowSplits := ragged.ExclusiveSum(arcCounts)
	arcsShape, err := ragged.NewShape([][]int32{last.StatesShape.RowSplits(1), arcRowSplits})
	if err != nil {
		return nil, fmt.Errorf("engine: building bridge-arc shape: %w", err)
	}
	arcs := make([]framestore.ArcInfo, arcRowSplits[len(arcCounts)])
	for i, as := range c.arcsByState {
		copy(arcs[arcRowSplits[i]:arcRowSplits[i+1]], as)
	}
	lastClone := &framestore.FrameInfo{
		StatesShape: last.StatesShape,
		States:      last.States,
		ArcsShape:   arcsShape,
		Arcs:        arcs,
	}

	tmp := framestore.NewStore(int(oi.store.Len()) + 1)
	for t := int32(0); t < lastT; t++ {
		tmp.Append(oi.store.Get(t))
	}
	tmp.Append(lastClone)
	tmp.Append(c.frame)

	return assemble.Build(assemble.Params{Graph: oi.Graph, Store: tmp, Scores: nil, AllowPartial: oi.Opts.AllowPartial})
}
