// Package engine implements the two entry points of spec.md §6:
// Intersect (batch) and OnlineIntersecter (chunked), wiring together
// ForwardPass, BackwardPruner and Assembler via the handshake-driven
// orchestration of §4.6/§5. Follows the teacher's core/api.go thin-
// facade pattern: the package itself holds no algorithm, only the
// wiring between the focused packages that do.
package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/voxgraph/prunedfsa/assemble"
	"github.com/voxgraph/prunedfsa/backward"
	"github.com/voxgraph/prunedfsa/forward"
	"github.com/voxgraph/prunedfsa/framestore"
	"github.com/voxgraph/prunedfsa/fsa"
	"github.com/voxgraph/prunedfsa/statehash"
)

const (
	pruneWindow = 30 // spec.md §4.6 prune_num_frames
	pruneStride = 20 // spec.md §4.6 prune_shift
)

// Result is the batch entry point's output (spec.md §6).
type Result struct {
	Lattice *assemble.Lattice
	ArcMapA []int32
	ArcMapB []int32
}

// Intersect runs the full forward/backward pruned intersection over
// scores against graph and assembles the resulting lattice (spec.md
// §4.4-§4.7). ctx is honored only at frame boundaries (spec.md §5:
// "no other suspension occurs inside the per-frame kernels").
func Intersect(ctx context.Context, graph *fsa.Graph, scores *fsa.DenseScores, opts Options) (*Result, error) {
	numSeqs := scores.NumFsas()
	if err := opts.Validate(graph, scores, numSeqs); err != nil {
		return nil, err
	}

	fctx := forward.NewContext(graph, scores, opts.SearchBeam, opts.MinActive, opts.MaxActive, opts.Tunables, opts.AllowPartial, numSeqs)

	maxKey := uint64(numSeqs) * uint64(fctx.MaxLocalStates)
	hash, err := statehash.New(maxKey, 1024)
	if err != nil {
		return nil, fmt.Errorf("engine: %s: %w", ErrCapacityExceeded, err)
	}

	store := framestore.NewStore(64)
	frame0, err := forward.InitialFrame(graph, numSeqs)
	if err != nil {
		return nil, fmt.Errorf("engine: building initial frame: %w", err)
	}
	store.Append(frame0)

	var finalT int32
	for f := int32(0); f < numSeqs; f++ {
		if n := scores.NumFrames(f) - 1; n > finalT {
			finalT = n
		}
	}
	pruner := backward.NewPruner(graph, opts.OutputBeam)

	if finalT == 0 {
		// Single-frame batch: frame 0 is already the terminal frame, so
		// there is nothing to forward-step or prune beyond setting its
		// backward log-likes for the invariants Assembler/tests rely on.
		backward.SetBackwardProbsFinal(store.Get(0))
		lat, err := assemble.Build(assemble.Params{Graph: graph, Store: store, Scores: scores, AllowPartial: opts.AllowPartial})
		if err != nil {
			return nil, fmt.Errorf("engine: assembling lattice: %w", err)
		}
		return &Result{Lattice: lat, ArcMapA: lat.ArcMapA, ArcMapB: lat.ArcMapB}, nil
	}

	schedule := framestore.Schedule(finalT+1, pruneWindow, pruneStride)
	if err := runForwardBackward(ctx, fctx, hash, store, schedule, pruner, finalT); err != nil {
		return nil, err
	}

	lat, err := assemble.Build(assemble.Params{Graph: graph, Store: store, Scores: scores, AllowPartial: opts.AllowPartial})
	if err != nil {
		return nil, fmt.Errorf("engine: assembling lattice: %w", err)
	}
	return &Result{Lattice: lat, ArcMapA: lat.ArcMapA, ArcMapB: lat.ArcMapB}, nil
}

// runForwardBackward drives the Forward worker over t=0..finalT and a
// Backward worker over the precomputed prune windows, coordinated by
// the two counting handshakes of spec.md §5: backwardReady (Forward
// signals, Backward awaits, once per scheduled t) and forwardGate
// (acquired by Forward right after signaling, released by Backward
// once it finishes a window) so Forward is only ever blocked by the
// *previous* window, capping memory to roughly one window ahead.
func runForwardBackward(ctx context.Context, fctx *forward.Context, hash *statehash.Hash, store *framestore.Store, schedule []framestore.Window, pruner *backward.Pruner, finalT int32) error {
	numWindows := int64(len(schedule))
	backwardReady := semaphore.NewWeighted(numWindows)
	if numWindows > 0 {
		if err := backwardReady.Acquire(context.Background(), numWindows); err != nil {
			return fmt.Errorf("engine: priming backward_ready: %w", err)
		}
	}
	forwardGate := semaphore.NewWeighted(1)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for t := int32(0); t < finalT; t++ {
			if err := gctx.Err(); err != nil {
				return err
			}
			cur := store.Get(t)
			r, err := forward.Step(fctx, hash, cur, t)
			if err != nil {
				return fmt.Errorf("engine: forward step %d: %w", t, err)
			}
			store.Append(r.Next)

			// schedule's End is a frame count (half-open), so the window
			// completes once t+1 real frames beyond frame 0 exist, i.e.
			// store.Len() == t+2.
			if scheduledWindow(schedule, t) {
				backwardReady.Release(1)
				if err := forwardGate.Acquire(gctx, 1); err != nil {
					return fmt.Errorf("engine: forward_gate: %w", err)
				}
			}
		}
		return nil
	})

	g.Go(func() error {
		for _, w := range schedule {
			if err := backwardReady.Acquire(gctx, 1); err != nil {
				return fmt.Errorf("engine: backward_ready: %w", err)
			}
			endT := w.End - 1 // schedule's End is exclusive; prune_time_range's end_t is inclusive.
			if err := pruner.PruneTimeRange(store, w.Begin, endT); err != nil {
				return fmt.Errorf("engine: prune window [%d,%d]: %w", w.Begin, endT, err)
			}
			forwardGate.Release(1)
		}
		return nil
	})

	return g.Wait()
}

// scheduledWindow reports whether do_pruning_after[t] is set: some
// window's exclusive End equals t+2, i.e. frames 0..t+1 (t+2 frames,
// since frame 0 predates the loop) are now all present in store.
func scheduledWindow(schedule []framestore.Window, t int32) bool {
	for _, w := range schedule {
		if w.End == t+2 {
			return true
		}
	}
	return false
}
