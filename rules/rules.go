// Package rules supplies the proof-rule identities the core commits
// clauses under, and the stateful resolution builder the solver's
// conflict analysis and the arithmetic plugin's Fourier-Motzkin
// explanation both use (spec §2 "Resolution / proof rules").
package rules

import "github.com/xDarkicex/mcsat/clause"

// Rule ids beyond clause.RuleInput. Declared here, not in package
// clause, to keep the clause arena's core vocabulary independent of
// which theories are wired into a given solver.
const (
	// Resolution marks a clause produced by Boolean 1-UIP resolution
	// (spec §4.5 step 7).
	Resolution clause.RuleID = clause.RuleFirstUserRule + iota
	// FourierMotzkin marks a clause produced by eliminating a variable
	// between two opposing linear constraints (spec §4.6).
	FourierMotzkin
	// FourierMotzkinDiseq is the disequality case-split variant of the
	// same elimination (spec §4.6 "A specialized variant handles
	// disequalities by case-splitting").
	FourierMotzkinDiseq
	// Ackermann marks a congruence lemma produced by the equality
	// rule (spec §1 "Out of scope"/§6 "equality/Ackermann rule" —
	// specified at the interface level only; see AckermannLemma).
	Ackermann
)
