// Package ragged provides the RaggedPrimitives this engine is built on:
// nested sequences described by row-splits/row-ids arrays, with
// renumbering via keep-masks, leaf-axis filtering, and exclusive-sum and
// max-per-sublist reductions. Shapes are built only from explicit
// row-splits layers (NewShape); there is no regular-shape constructor.
//
// A Shape describes the nesting structure only (one []int32 row-splits
// array per axis transition); a Ragged[T] pairs a Shape with a flat
// Values slice holding the leaves. Most engine code builds a Shape
// once per frame and reuses it for both the StateInfo and ArcInfo
// payloads that share it.
//
// Invariants (mirrors spec.md §3): row-splits strictly non-decreasing;
// row-ids monotone; row-ids[row-splits[i]] == i for non-empty rows.
package ragged
