// Package framestore owns the per-time-step FrameInfo records in
// sequence order (spec.md §4.6) and precomputes the backward-pruning
// window schedule (Schedule): overlapping windows of `window` frames,
// advancing by `stride` each trigger, first window clamped to begin
// at 0.
package framestore
