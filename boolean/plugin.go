package boolean

import (
	"github.com/xDarkicex/mcsat/clause"
	"github.com/xDarkicex/mcsat/plugin"
	"github.com/xDarkicex/mcsat/stats"
	"github.com/xDarkicex/mcsat/term"
	"github.com/xDarkicex/mcsat/trail"
	"github.com/xDarkicex/mcsat/variable"
)

// Plugin is the Boolean BCP/decision plugin: it wakes on every trail
// assignment of a Boolean-typed variable, propagates via the two-
// watched-literal scheme in WatchSet, and decides the first
// unassigned Boolean variable it is offered, phase-saving its last
// value (spec §2, §6; grounded on the watcher-list idiom the same
// pack members as WatchSet, plus sat.VSIDSHeuristic's phaseCache for
// the saved-phase decision rule).
type Plugin struct {
	vdb *variable.DB
	db  *clause.DB
	tr  *trail.Trail
	req plugin.Request
	st  *stats.Registry

	watches *WatchSet
	scanned int

	pendingUnits []clause.CRef

	decisionQueue []variable.Variable
	queued        map[variable.Variable]bool
	savedPhase    map[variable.Variable]bool
}

// NewPlugin constructs the Boolean plugin. Every Boolean variable
// vdb interns from this point on is enqueued as a decision candidate.
func NewPlugin(vdb *variable.DB, db *clause.DB, tr *trail.Trail, req plugin.Request, st *stats.Registry) *Plugin {
	p := &Plugin{
		vdb:        vdb,
		db:         db,
		tr:         tr,
		req:        req,
		st:         st,
		watches:    NewWatchSet(db),
		queued:     make(map[variable.Variable]bool),
		savedPhase: make(map[variable.Variable]bool),
	}
	vdb.NewVariableNotifyListener(func(v variable.Variable) {
		if vdb.TypeIndexOf(v) == variable.Bool {
			p.enqueue(v)
		}
	})
	return p
}

func (p *Plugin) enqueue(v variable.Variable) {
	if p.queued[v] {
		return
	}
	p.queued[v] = true
	p.decisionQueue = append(p.decisionQueue, v)
}

// RegisterClause installs watches for a freshly committed clause so
// BCP sees it on the next propagation round. The solver loop calls
// this for every clause assertion intake commits (input and
// Tseitin-converted); learnt clauses get their watches through
// NotifyConflictResolution instead. A unit clause has no second assignment event to
// wake it through the watch scheme, so it is queued to force its
// literal directly on the next Propagate (mirroring the immediate
// enqueue a watched-literal solver performs when a unit clause is
// added, e.g. MiniSat's addClause).
func (p *Plugin) RegisterClause(cr clause.CRef) {
	p.watches.Register(cr)
	if cl := p.db.Get(cr); len(cl.Literals) == 1 {
		p.pendingUnits = append(p.pendingUnits, cr)
	}
}

func (p *Plugin) Name() string { return "boolean" }

func (p *Plugin) Features() plugin.Feature { return plugin.CanPropagate | plugin.CanDecide }

func (p *Plugin) Check(t term.Term) {}

func (p *Plugin) NotifyAssertion(t term.Term) {}

// Propagate walks every trail element committed since the last call,
// waking the clauses watching the now-falsified literal over each
// newly assigned Boolean variable (spec §4.5 "Propagation fixpoint").
func (p *Plugin) Propagate(tok *trail.PropagationToken) {
	pending := p.pendingUnits
	p.pendingUnits = nil
	for _, cr := range pending {
		lit := p.db.Get(cr).Literals[0]
		p.st.Propagations.WithLabelValues(stats.KindClausal).Inc()
		tok.Propagate(lit, cr)
		if !p.tr.Consistent() {
			return
		}
	}
	for p.scanned < p.tr.Size() {
		v := p.tr.ElementAt(p.scanned).Var
		p.scanned++
		if p.vdb.TypeIndexOf(v) != variable.Bool {
			continue
		}
		falsified := p.falsifiedLiteral(v)
		p.savedPhase[v] = !falsified.Polarity()
		p.wake(tok, falsified)
		if !p.tr.Consistent() {
			return
		}
	}
}

func (p *Plugin) falsifiedLiteral(v variable.Variable) variable.Literal {
	if p.tr.IsTrue(variable.Lit(v, true)) {
		return variable.Lit(v, false)
	}
	return variable.Lit(v, true)
}

func (p *Plugin) wake(tok *trail.PropagationToken, falsified variable.Literal) {
	for _, cr := range p.watches.WatchersOf(falsified) {
		p.examine(tok, cr, falsified)
		if !p.tr.Consistent() {
			return
		}
	}
}

func (p *Plugin) examine(tok *trail.PropagationToken, cr clause.CRef, falsified variable.Literal) {
	cl := p.db.Get(cr)
	other := p.watches.Other(cr, falsified)
	if p.tr.IsTrue(other) {
		return
	}
	for _, l := range cl.Literals {
		if l == falsified || l == other {
			continue
		}
		if !p.tr.IsFalse(l) {
			p.watches.Retarget(cr, falsified, l)
			return
		}
	}
	p.st.Propagations.WithLabelValues(stats.KindClausal).Inc()
	tok.Propagate(other, cr)
}

// Decide assigns the first still-unassigned queued variable, reusing
// its saved phase if one was recorded.
func (p *Plugin) Decide(tok *trail.DecisionToken) {
	for len(p.decisionQueue) > 0 {
		v := p.decisionQueue[0]
		p.decisionQueue = p.decisionQueue[1:]
		p.queued[v] = false
		if p.tr.HasValue(v) {
			continue
		}
		phase := p.savedPhase[v]
		p.st.Decisions.Inc()
		tok.DecideBoolean(variable.Lit(v, phase))
		return
	}
}

// DecideWithHints tries each hint's variable first.
func (p *Plugin) DecideWithHints(tok *trail.DecisionToken, hints []variable.Literal) {
	for _, h := range hints {
		if !p.tr.HasValue(h.Var()) {
			p.st.Decisions.Inc()
			tok.DecideBoolean(h)
			return
		}
	}
	p.Decide(tok)
}

func (p *Plugin) NotifyBackjump(vars []variable.Variable) {
	for _, v := range vars {
		if p.vdb.TypeIndexOf(v) == variable.Bool {
			p.enqueue(v)
		}
	}
	if p.scanned > p.tr.Size() {
		p.scanned = p.tr.Size()
	}
}

func (p *Plugin) NotifyRestart() {}

func (p *Plugin) NotifyConflict() {}

func (p *Plugin) NotifyConflictResolution(cr clause.CRef) {
	p.watches.Register(cr)
}

func (p *Plugin) GCMark(keepVars map[variable.Variable]bool, keepClauses map[clause.CRef]bool) {
	for cr := range p.watches.watches {
		keepClauses[cr] = true
	}
}

func (p *Plugin) GCRelocate(varReloc variable.Relocation, clauseReloc clause.RelocationInfo) {
	newByLit := make(map[variable.Literal][]clause.CRef, len(p.watches.byLit))
	for l, crs := range p.watches.byLit {
		nl := variable.Lit(varReloc.Apply(l.Var()), l.Polarity())
		kept := make([]clause.CRef, 0, len(crs))
		for _, cr := range crs {
			if nc := clauseReloc.Apply(cr); nc != clause.Null {
				kept = append(kept, nc)
			}
		}
		if len(kept) > 0 {
			newByLit[nl] = kept
		}
	}
	p.watches.byLit = newByLit

	newWatches := make(map[clause.CRef][2]variable.Literal, len(p.watches.watches))
	for cr, pair := range p.watches.watches {
		nc := clauseReloc.Apply(cr)
		if nc == clause.Null {
			continue
		}
		newWatches[nc] = [2]variable.Literal{
			variable.Lit(varReloc.Apply(pair[0].Var()), pair[0].Polarity()),
			variable.Lit(varReloc.Apply(pair[1].Var()), pair[1].Polarity()),
		}
	}
	p.watches.watches = newWatches

	newQueue := make([]variable.Variable, 0, len(p.decisionQueue))
	for _, v := range p.decisionQueue {
		if nv := varReloc.Apply(v); nv != variable.Null {
			newQueue = append(newQueue, nv)
		}
	}
	p.decisionQueue = newQueue

	newPending := make([]clause.CRef, 0, len(p.pendingUnits))
	for _, cr := range p.pendingUnits {
		if nc := clauseReloc.Apply(cr); nc != clause.Null {
			newPending = append(newPending, nc)
		}
	}
	p.pendingUnits = newPending
}
