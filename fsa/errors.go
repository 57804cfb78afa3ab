package fsa

import "errors"

// Sentinel errors for graph and dense-score validation (spec.md §7's
// ConfigInvalid / ShapeMismatch classes).
var (
	// ErrEmptyGraph indicates an FSA with zero states: spec.md §9 Open
	// Question 1, resolved as a construction-time error rather than a
	// silently empty lattice (see SPEC_FULL.md §8.1).
	ErrEmptyGraph = errors.New("fsa: graph has zero states")

	// ErrMultipleFinalStates indicates more than one state in an FSA
	// has no outgoing arcs, violating "at most one final state per FSA".
	ErrMultipleFinalStates = errors.New("fsa: more than one final state")

	// ErrStrideInvalid indicates a_fsas_stride outside {0, 1}.
	ErrStrideInvalid = errors.New("fsa: a_fsas_stride must be 0 or 1")

	// ErrOuterSizeMismatch indicates a_fsas.outer_size is neither 1 nor
	// num_seqs (spec.md §6 precondition).
	ErrOuterSizeMismatch = errors.New("fsa: a_fsas.outer_size must be 1 or match num_seqs")

	// ErrArcLabelInvalid indicates an arc label below -1.
	ErrArcLabelInvalid = errors.New("fsa: arc label must be >= -1")
)
