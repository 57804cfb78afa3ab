// Package prunedfsa implements pruned forward/backward intersection
// of a batch of weighted finite-state decoding graphs against dense
// per-frame acoustic scores, producing a compact output lattice.
//
// What is this?
//
//	A thread-safe, narrowly-scoped library built around one core loop:
//
//	  - Forward pass: expand every active state's outgoing arcs one
//	    frame at a time, apply a dynamic per-utterance beam, dedup
//	    destination states via a fixed-capacity concurrent hash
//	  - Backward pass: sweep a trailing window of already-forwarded
//	    frames end-to-start, drop states/arcs outside an output beam,
//	    compact the survivors in place
//	  - Assembly: flatten the surviving per-frame states/arcs into one
//	    ragged lattice, with arc maps back into the input graph and
//	    score matrix
//
// The whole pipeline is organized as a handful of narrow packages, each
// owning one stage:
//
//	fsa/         — the batched decoding-graph and dense-score types
//	ragged/      — the row-splits/row-ids tensor primitives everything
//	               else is built from
//	statehash/   — the concurrent dedup table ForwardPass drives per frame
//	beam/        — the per-utterance dynamic pruning beam
//	arcexpand/   — per-frame arc enumeration and end-loglike computation
//	forward/     — the per-frame forward cycle (expand, cutoff, dedup, drain)
//	backward/    — the trailing-window backward sweep and compaction
//	framestore/  — the append-only per-frame store and its prune schedule
//	assemble/    — flattening surviving frames into the output lattice
//	engine/      — the two entry points: batch Intersect and chunked
//	               OnlineIntersecter
//
// See SPEC_FULL.md for the full module-by-module specification this
// engine implements, and DESIGN.md for how each package maps onto it.
//
//	go get github.com/voxgraph/prunedfsa
package prunedfsa
