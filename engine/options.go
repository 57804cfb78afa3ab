package engine

import (
	"github.com/voxgraph/prunedfsa/beam"
	"github.com/voxgraph/prunedfsa/fsa"
)

// Context is a trivial device/memory-context marker (SPEC_FULL.md §9:
// this engine has no real accelerator backend, so device compatibility
// is reduced to an equality check on an opaque tag). The zero value is
// the default ("host") context; callers that never construct one of
// their own always match.
type Context struct {
	tag string
}

// NewContext returns a Context tagged with name, for callers wiring up
// more than one logical device/arena and wanting ContextMismatch
// caught at construction rather than deep inside the forward loop.
func NewContext(name string) Context { return Context{tag: name} }

func (c Context) compatible(other Context) bool { return c.tag == other.tag }

// Options bundles the tunable parameters shared by both entry points
// (spec.md §6), following the teacher's FlowOptions pattern: a plain
// struct of knobs plus a single Validate.
type Options struct {
	SearchBeam   float32
	OutputBeam   float32
	MinActive    int32
	MaxActive    int32
	AllowPartial bool
	Tunables     beam.Tunables

	GraphContext Context
	ScoreContext Context
}

// Validate checks spec.md §6's error conditions against graph/scores
// up front (SPEC_FULL.md §7's supplemented feature), returning a typed
// *ConfigError naming the offending field instead of failing deep
// inside ForwardPass.
func (o Options) Validate(graph *fsa.Graph, scores *fsa.DenseScores, numSeqs int32) error {
	if !o.GraphContext.compatible(o.ScoreContext) {
		return configErr(ErrContextMismatch, "GraphContext", "graph and scores contexts differ")
	}
	if o.SearchBeam <= 0 {
		return configErr(ErrConfigInvalid, "SearchBeam", "must be positive")
	}
	if o.OutputBeam <= 0 {
		return configErr(ErrConfigInvalid, "OutputBeam", "must be positive")
	}
	if o.MaxActive <= o.MinActive {
		return configErr(ErrConfigInvalid, "MaxActive", "must be greater than MinActive")
	}
	if o.MinActive < 0 {
		return configErr(ErrConfigInvalid, "MinActive", "must be non-negative")
	}
	outer := graph.NumFsas()
	if outer != 1 && outer != numSeqs {
		return configErr(ErrShapeMismatch, "Graph", "outer_size must be 1 or num_seqs")
	}
	if scores.NumFsas() != numSeqs {
		return configErr(ErrShapeMismatch, "Scores", "outer_size must equal num_seqs")
	}
	if err := graph.Validate(); err != nil {
		return configErr(ErrConfigInvalid, "Graph", err.Error())
	}
	return nil
}
