// Package assemble implements Assembler (spec.md §4.7): turning the
// frames a completed (or partially completed) decode left in a
// framestore.Store into a single 3-axis lattice per batch, [fsa][state]
// [arc], with the frame axis folded away (step 5) rather than
// materialized and then stripped — the two are equivalent, and the
// frame-axis merge of step 2 is realized directly as flat state/arc
// index bookkeeping (grounded on matrix/impl_builder.go's incremental
// shape construction) rather than through a generic stack-then-reduce
// primitive, since the merge needs fsa outermost/frame innermost and a
// generic axis-0 stack of per-frame shapes produces the opposite
// ordering.
package assemble
