package rules

import (
	"github.com/xDarkicex/mcsat/clause"
	"github.com/xDarkicex/mcsat/variable"
)

// Resolver accumulates a running resolvent across a sequence of
// resolution steps (spec §4.5 "Start Boolean resolution with the
// conflict clause" ... "Resolve it into the running resolvent"). It
// is a set of literals keyed by the full (variable, polarity) pair so
// duplicate literals collapse, matching standard clausal resolution.
type Resolver struct {
	lits map[variable.Literal]bool
}

// NewResolver starts a resolution chain from an initial clause.
func NewResolver(initial []variable.Literal) *Resolver {
	r := &Resolver{lits: make(map[variable.Literal]bool, len(initial))}
	for _, l := range initial {
		r.lits[l] = true
	}
	return r
}

// ResolveOut eliminates pivot: whichever literal over pivot is
// currently present is dropped, and every literal of other except the
// one over pivot is added (spec §4.6 "Fourier-Motzkin resolution" uses
// the analogous elimination; Boolean resolution is the degenerate
// two-literal-kind case).
func (r *Resolver) ResolveOut(pivot variable.Variable, other []variable.Literal) {
	for l := range r.lits {
		if l.Var() == pivot {
			delete(r.lits, l)
		}
	}
	for _, l := range other {
		if l.Var() == pivot {
			continue
		}
		r.lits[l] = true
	}
}

// Literals returns the current resolvent. Order is unspecified; the
// clause database only requires non-emptiness and a stable literal
// set.
func (r *Resolver) Literals() []variable.Literal {
	out := make([]variable.Literal, 0, len(r.lits))
	for l := range r.lits {
		out = append(out, l)
	}
	return out
}

// Len reports how many distinct literals are currently in the
// resolvent.
func (r *Resolver) Len() int { return len(r.lits) }

// Commit finalizes the resolvent into db under the given rule id
// (spec §4.5 step 7 "the resulting resolvent is committed with rule id
// Resolution").
func (r *Resolver) Commit(db *clause.DB, rule clause.RuleID) clause.CRef {
	return db.Commit(r.Literals(), rule)
}
