package plugin

import (
	"github.com/xDarkicex/mcsat/clause"
	"github.com/xDarkicex/mcsat/mlog"
	"github.com/xDarkicex/mcsat/term"
	"github.com/xDarkicex/mcsat/trail"
	"github.com/xDarkicex/mcsat/variable"
)

var log = mlog.For("plugin")

// Fabric holds the active plugins for one solver session and dispatches
// propagation/decision calls, routing plugin-originated requests back
// to the solver (spec §2 "Plugin fabric"). It never invokes an
// operation a plugin hasn't claimed via Features() (spec §9 "Plugin
// polymorphism").
type Fabric struct {
	all         []Plugin
	propagators []Plugin
	deciders    []Plugin
}

// NewFabric creates an empty fabric.
func NewFabric() *Fabric { return &Fabric{} }

// Register adds p to the fabric, filing it into the propagate/decide
// sequences its declared features claim.
func (f *Fabric) Register(p Plugin) {
	f.all = append(f.all, p)
	if p.Features().Has(CanPropagate) {
		f.propagators = append(f.propagators, p)
	}
	if p.Features().Has(CanDecide) {
		f.deciders = append(f.deciders, p)
	}
}

// Plugins returns every registered plugin, in registration order.
func (f *Fabric) Plugins() []Plugin { return f.all }

// NotifyAssertion fans out to every plugin (spec §6 "notifyAssertion").
func (f *Fabric) NotifyAssertion(t term.Term) {
	for _, p := range f.all {
		p.NotifyAssertion(t)
	}
}

// NotifyBackjump fans out the unset variables to every plugin.
func (f *Fabric) NotifyBackjump(vars []variable.Variable) {
	for _, p := range f.all {
		p.NotifyBackjump(vars)
	}
}

// NotifyRestart fans out to every plugin.
func (f *Fabric) NotifyRestart() {
	for _, p := range f.all {
		p.NotifyRestart()
	}
}

// NotifyConflict fans out to every plugin.
func (f *Fabric) NotifyConflict() {
	for _, p := range f.all {
		p.NotifyConflict()
	}
}

// NotifyConflictResolution fans out to every plugin.
func (f *Fabric) NotifyConflictResolution(cr clause.CRef) {
	for _, p := range f.all {
		p.NotifyConflictResolution(cr)
	}
}

// DispatchPropagateRound runs one round-robin pass of Propagate over
// every plugin that claims CanPropagate, handing each its own token,
// and reports whether any plugin recorded a propagation (spec §4.5
// "The solver runs plugins round-robin until a full round produces no
// propagations").
func (f *Fabric) DispatchPropagateRound(tr *trail.Trail, mode trail.PropagationMode) (progress bool) {
	for _, p := range f.propagators {
		tok := tr.NewPropagationToken(mode)
		p.Propagate(tok)
		if tok.Used() {
			progress = true
		}
		if !tr.Consistent() {
			log.WithField("plugin", p.Name()).Debug("propagation produced a conflict")
			return progress
		}
	}
	return progress
}

// DispatchDecide asks each plugin claiming CanDecide, in turn, to
// record a decision, stopping at the first that does. It returns
// false if no plugin had a decision to make (spec §4.5 "decide — no
// decision + complete -> SAT").
func (f *Fabric) DispatchDecide(tr *trail.Trail) bool {
	for _, p := range f.deciders {
		tok := tr.NewDecisionToken()
		p.Decide(tok)
		if tok.Used() {
			return true
		}
	}
	return false
}

// DispatchDecideWithHints is the post-backtrack recovery variant (spec
// §6 "decide(DecisionToken, literalHints)").
func (f *Fabric) DispatchDecideWithHints(tr *trail.Trail, hints []variable.Literal) bool {
	for _, p := range f.deciders {
		tok := tr.NewDecisionToken()
		p.DecideWithHints(tok, hints)
		if tok.Used() {
			return true
		}
	}
	return false
}

// GCMark collects the keep sets from every plugin (spec §4.3 "every
// plugin's gcMark").
func (f *Fabric) GCMark(keepVars map[variable.Variable]bool, keepClauses map[clause.CRef]bool) {
	for _, p := range f.all {
		p.GCMark(keepVars, keepClauses)
	}
}

// GCRelocate fans out relocation maps to every plugin (spec §4.3
// "Plugins receive gcRelocate").
func (f *Fabric) GCRelocate(varReloc variable.Relocation, clauseReloc clause.RelocationInfo) {
	for _, p := range f.all {
		p.GCRelocate(varReloc, clauseReloc)
	}
}
