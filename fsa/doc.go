// Package fsa defines the decoding-graph and dense-score types the
// pruned intersection engine consumes: Graph (a_fsas), a 3-axis
// ragged [fsa][state][arc], and DenseScores (b_fsas), a ragged
// [fsa][frame] of dense per-symbol acoustic log-likelihoods.
package fsa
