// Package forward implements ForwardPass (spec.md §4.4): the
// per-frame cycle that expands arcs, computes cutoffs via
// BeamController, deduplicates destination states through StateHash,
// allocates the next frame's states, and writes max-reduced forward
// log-likes atomically.
//
// Parallel steps use plain goroutines over chunked index ranges
// rather than a custom thread-pool type (SPEC_FULL.md §9: "thread
// pool is Go's goroutine scheduler, not a custom pool").
package forward
