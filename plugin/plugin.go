// Package plugin defines the theory-plugin contract the MCSAT loop
// dispatches against, the feature-bitmask capability model the
// dispatch fabric uses to avoid ever calling an operation a plugin
// hasn't claimed (spec §9 "Plugin polymorphism"), and the registry
// plugins register into by string id (spec §6 "Plugin registry /
// factory").
package plugin

import (
	"github.com/xDarkicex/mcsat/clause"
	"github.com/xDarkicex/mcsat/term"
	"github.com/xDarkicex/mcsat/trail"
	"github.com/xDarkicex/mcsat/variable"
)

// Feature is a capability bit a plugin declares (spec §6 "feature
// set ⊆ {CAN_PROPAGATE, CAN_DECIDE}").
type Feature uint8

const (
	CanPropagate Feature = 1 << iota
	CanDecide
)

// Has reports whether f includes the bits in want.
func (f Feature) Has(want Feature) bool { return f&want == want }

// Request is the sink a plugin uses to ask the solver loop for
// backtrack/restart/GC/propagate (spec §4.5 "Request handling", §6).
// It is passed to every plugin factory so a plugin can hold it for the
// lifetime of the search.
type Request interface {
	// RequestBacktrack asks for a pop to level, offering cr as a clause
	// the solver should re-propagate or decide on after the pop.
	RequestBacktrack(level int, cr clause.CRef)
	RequestRestart()
	RequestGC()
	RequestPropagate()
}

// Plugin is the interface every theory plugin implements (spec §6
// "Plugin interface").
type Plugin interface {
	Name() string
	Features() Feature

	// Check is invoked on assertion; it may only observe.
	Check(t term.Term)

	// Propagate may record propagations and may raise requests. Only
	// called on plugins whose Features() includes CanPropagate.
	Propagate(tok *trail.PropagationToken)

	// Decide may record at most one decision. Only called on plugins
	// whose Features() includes CanDecide.
	Decide(tok *trail.DecisionToken)

	// DecideWithHints is the variant used during post-backtrack
	// recovery, when the solver suggests candidate literals.
	DecideWithHints(tok *trail.DecisionToken, hints []variable.Literal)

	NotifyAssertion(t term.Term)
	NotifyBackjump(vars []variable.Variable)
	NotifyRestart()
	NotifyConflict()
	NotifyConflictResolution(cr clause.CRef)

	// GCMark adds every variable/clause this plugin still needs to the
	// keep sets (spec §4.3 "Mark").
	GCMark(keepVars map[variable.Variable]bool, keepClauses map[clause.CRef]bool)

	// GCRelocate rewrites every handle this plugin holds (spec §4.3
	// "Relocate").
	GCRelocate(varReloc variable.Relocation, clauseReloc clause.RelocationInfo)
}
