// Package beam implements the per-utterance dynamic beam and pruning
// cutoff of spec.md §4.3. Configuration follows the teacher's
// flow.FlowOptions pattern: a struct of tunables with a private
// normalize() filling defaults, never panicking.
package beam

import (
	"math"
)

// Tunables exposes the otherwise-hardcoded constants of spec.md §4.3
// as a configuration hook (SPEC_FULL.md §8.2's Open Question
// resolution), defaulting to the spec's literal values.
type Tunables struct {
	// GrowthFactor multiplies the beam when too few states are active
	// (spec default 1.25).
	GrowthFactor float32
	// ShrinkFactor multiplies the beam when too many states are active
	// (spec default 0.8).
	ShrinkFactor float32
	// ReturnWeight is the search_beam weight in the gradual-return
	// blend `beam <- (1-ReturnWeight)*beam + ReturnWeight*search_beam`
	// (spec default 0.2).
	ReturnWeight float32
	// Lookahead is how many frames before the end "near-end" handling
	// (raising min_active, disabling shrink) begins (spec default 5).
	Lookahead int32
}

// DefaultTunables returns the spec's literal constants.
func DefaultTunables() Tunables {
	return Tunables{
		GrowthFactor: 1.25,
		ShrinkFactor: 0.8,
		ReturnWeight: 0.2,
		Lookahead:    5,
	}
}

func (t *Tunables) normalize() {
	d := DefaultTunables()
	if t.GrowthFactor == 0 {
		t.GrowthFactor = d.GrowthFactor
	}
	if t.ShrinkFactor == 0 {
		t.ShrinkFactor = d.ShrinkFactor
	}
	if t.ReturnWeight == 0 {
		t.ReturnWeight = d.ReturnWeight
	}
	if t.Lookahead == 0 {
		t.Lookahead = d.Lookahead
	}
}

// Controller tracks one utterance's dynamic beam across frames.
type Controller struct {
	SearchBeam float32
	MinActive  int32
	MaxActive  int32
	Tunables   Tunables

	beam float32
}

// New returns a Controller with its beam initialized to searchBeam
// (spec.md §4.3: "initialized to search_beam").
func New(searchBeam float32, minActive, maxActive int32, tunables Tunables) *Controller {
	tunables.normalize()
	return &Controller{
		SearchBeam: searchBeam,
		MinActive:  minActive,
		MaxActive:  maxActive,
		Tunables:   tunables,
		beam:       searchBeam,
	}
}

// Beam returns the controller's current beam (for DecodeState carry
// in online mode).
func (c *Controller) Beam() float32 { return c.beam }

// SetBeam restores a previously-carried beam (online mode resumption).
func (c *Controller) SetBeam(b float32) { c.beam = b }

// Step runs one frame of spec.md §4.3's five update rules and returns
// the cutoff to apply to this frame's expanded arcs. best is the
// largest end_loglike among every arc expanded for this utterance on
// this frame (callers derive it with ragged.MaxPerSublist, grouping
// the batch's arcs by utterance); active is the number of states that
// were active on entry to this frame (inputs to expansion); t is the
// 0-based frame index; finalT is this utterance's final frame index
// (the loop's upper bound); and online indicates chunked-decoding
// mode (where the §4.3 step 3/5 end-of-utterance special-casing never
// applies, since a chunk rarely ends the utterance).
func (c *Controller) Step(best float32, active, t, finalT int32, online bool) float32 {
	nearEnd := !online && t+c.Tunables.Lookahead >= finalT
	effectiveMinActive := c.MinActive
	if nearEnd {
		if half := c.MaxActive / 2; half > effectiveMinActive {
			effectiveMinActive = half
		}
	}

	if active <= c.MaxActive {
		if active >= effectiveMinActive || active == 0 {
			c.beam = (1-c.Tunables.ReturnWeight)*c.beam + c.Tunables.ReturnWeight*c.SearchBeam
		} else {
			if c.beam < c.SearchBeam {
				c.beam = c.SearchBeam
			}
			c.beam *= c.Tunables.GrowthFactor
		}
	} else {
		if online || t+c.Tunables.Lookahead < finalT {
			if c.beam > c.SearchBeam {
				c.beam = c.SearchBeam
			}
			c.beam *= c.Tunables.ShrinkFactor
		}
		// else: too many active on a final frame; leave beam unchanged
		// to protect final states (spec.md §4.3 step 4).
	}

	if !online && t == finalT-1 {
		c.beam = float32(math.Inf(1))
	}

	return best - c.beam
}
