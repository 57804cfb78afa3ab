// Package backward implements BackwardPruner (spec.md §4.5):
// prune_time_range's backward log-like sweep and the batch-compaction
// that follows it, run by the sidecar worker the engine drives via
// the handshakes in engine/.
package backward
