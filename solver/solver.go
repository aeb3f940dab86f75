// Package solver implements the MCSAT loop described in spec §4.5: it
// owns the context stack, variable database, clause farm and trail,
// drives the plugin fabric through the propagate/analyze/process/
// decide cycle, and performs GC and restart orchestration between
// decisions. Grounded on the teacher's sat/cdcl.go driver loop and
// sat/conflict_analysis.go's FirstUIPAnalyzer, reworked over the
// opaque-handle trail/clause/variable packages instead of the
// teacher's pointer-based Clause/DecisionTrail.
package solver

import (
	"github.com/xDarkicex/mcsat/arith"
	"github.com/xDarkicex/mcsat/boolean"
	"github.com/xDarkicex/mcsat/clause"
	"github.com/xDarkicex/mcsat/ctx"
	"github.com/xDarkicex/mcsat/mlog"
	"github.com/xDarkicex/mcsat/plugin"
	"github.com/xDarkicex/mcsat/stats"
	"github.com/xDarkicex/mcsat/term"
	"github.com/xDarkicex/mcsat/trail"
	"github.com/xDarkicex/mcsat/variable"
)

var log = mlog.For("solver")

// Config selects the behavior the spec leaves to the driver (spec §9
// "Open questions").
type Config struct {
	// GCOnRestart runs a GC pass immediately after every restart, in
	// addition to any explicitly requested GC. The source always does
	// this regardless of the request flag (a branch the spec flags as
	// possibly unintentional); the spec treats it as a driver choice.
	GCOnRestart bool
	// ArithIsInteger selects whether the wired arithmetic plugin's
	// variables are integer- or rational-sorted, driving Picker's
	// integer-nearest-middle case (spec §4.6 "Value picking").
	ArithIsInteger bool
}

// clauseRegistrar is implemented by plugins (the Boolean BCP plugin)
// that need to install watches on every freshly committed clause. It
// is not part of plugin.Plugin: only plugins with a stake in clausal
// propagation implement it.
type clauseRegistrar interface {
	RegisterClause(cr clause.CRef)
}

// Solver drives one MCSAT search (spec §6 "Input API").
type Solver struct {
	cfg Config

	ctx  *ctx.Context
	vdb  *variable.DB
	farm *clause.Farm
	db   *clause.DB
	tr   *trail.Trail

	registry *plugin.Registry
	fabric   *plugin.Fabric
	stats    *stats.Registry
	conv     *boolean.Converter

	registrars []clauseRegistrar

	learnts    []clause.CRef
	learntBump float64

	backtrackRequested bool
	backtrackLevel     int
	backtrackHint      clause.CRef
	restartRequested   bool
	gcRequested        bool
}

// New constructs an empty solver and wires the boolean and arithmetic
// plugins the core ships with (spec §2 "Plugin fabric").
func New(cfg Config) *Solver {
	c := ctx.New()
	vdb := variable.New()
	farm := clause.NewFarm()
	db := farm.NewClauseDB("clauses")

	trueVar := vdb.Intern(trail.TrueTerm, variable.Bool)
	falseVar := vdb.Intern(trail.FalseTerm, variable.Bool)
	tr := trail.New(db, trueVar, falseVar)
	vdb.NewVariableNotifyListener(tr.GrowModel)

	s := &Solver{
		cfg:        cfg,
		ctx:        c,
		vdb:        vdb,
		farm:       farm,
		db:         db,
		tr:         tr,
		registry:   plugin.NewRegistry(),
		fabric:     plugin.NewFabric(),
		stats:      stats.New(),
		conv:       boolean.NewConverter(vdb, db),
		learntBump: 1.0,
	}

	arithTy := vdb.RegisterType("Arith")

	s.registry.Register("boolean", func(db *clause.DB, tr *trail.Trail, req plugin.Request) (plugin.Plugin, error) {
		return boolean.NewPlugin(vdb, db, tr, req, s.stats), nil
	})
	s.registry.Register("arith", func(db *clause.DB, tr *trail.Trail, req plugin.Request) (plugin.Plugin, error) {
		return arith.NewPlugin(c, vdb, db, tr, req, s.stats, arithTy, cfg.ArithIsInteger), nil
	})

	for _, id := range []string{"boolean", "arith"} {
		if err := s.loadPlugin(id); err != nil {
			panic(err)
		}
	}
	return s
}

func (s *Solver) loadPlugin(id string) error {
	p, err := s.registry.Create(id, s.db, s.tr, s)
	if err != nil {
		return err
	}
	s.fabric.Register(p)
	if r, ok := p.(clauseRegistrar); ok {
		s.registrars = append(s.registrars, r)
	}
	return nil
}

// VariableDB exposes the variable database for callers building terms
// to assert.
func (s *Solver) VariableDB() *variable.DB { return s.vdb }

// Stats exposes the published counters (spec §6 "Persisted state").
func (s *Solver) Stats() *stats.Registry { return s.stats }

// RequestBacktrack implements plugin.Request.
func (s *Solver) RequestBacktrack(level int, cr clause.CRef) {
	if !s.backtrackRequested || level < s.backtrackLevel {
		s.backtrackLevel = level
		s.backtrackHint = cr
	} else if level == s.backtrackLevel && s.backtrackHint == clause.Null {
		s.backtrackHint = cr
	}
	s.backtrackRequested = true
}

// RequestRestart implements plugin.Request.
func (s *Solver) RequestRestart() { s.restartRequested = true }

// RequestGC implements plugin.Request.
func (s *Solver) RequestGC() { s.gcRequested = true }

// RequestPropagate implements plugin.Request as a no-op: nothing is
// recorded, and the propagation fixpoint loop runs another round only
// when some plugin's token was used in the last one. A plugin that
// changes internal state without writing the trail (e.g. the
// arithmetic plugin deriving a bound) gets no extra pass from it.
func (s *Solver) RequestPropagate() {}

// onNewClause fans a freshly committed clause out to every plugin
// that wants to watch it (spec §4.5 "Assertion intake").
func (s *Solver) onNewClause(cr clause.CRef) {
	for _, r := range s.registrars {
		r.RegisterClause(cr)
	}
}

// AddAssertion rewrites and interns φ, notifies the plugin fabric, and
// optionally drives one PROPAGATION_INIT round (spec §6 "addAssertion
// (term, processNow)").
func (s *Solver) AddAssertion(t term.Term, processNow bool) {
	s.checkAssertion(t)
	for _, cr := range s.conv.Assert(t) {
		s.onNewClause(cr)
	}
	s.fabric.NotifyAssertion(t)
	if processNow {
		s.propagateFixpoint(trail.PropagationInit)
	}
}

// checkAssertion walks every subterm of t, in post-order, letting each
// plugin's Check observe it (spec §6 "check() — invoked on assertion,
// may only observe"). Nodes no plugin recognizes are simply ignored.
func (s *Solver) checkAssertion(t term.Term) {
	for _, ch := range t.Children() {
		s.checkAssertion(ch)
	}
	for _, p := range s.fabric.Plugins() {
		p.Check(t)
	}
}

// Check runs the MCSAT loop to completion, returning true for SAT and
// false for UNSAT (spec §6 "check() -> Bool").
func (s *Solver) Check() bool {
	for {
		if !s.propagateFixpoint(trail.PropagationNormal) {
			return false
		}
		s.processRequests()
		if s.decide() {
			continue
		}
		if !s.propagateFixpoint(trail.PropagationComplete) {
			return false
		}
		s.processRequests()
		if !s.decide() {
			return true
		}
	}
}

// decide asks the fabric for one decision, opening a matching context
// level when one is taken so CDBoundsModel's undo log (and anything
// else registered on the context) stays in lockstep with the trail's
// own decision levels (spec §4.1, §4.6 "Bounds model").
func (s *Solver) decide() bool {
	if !s.fabric.DispatchDecide(s.tr) {
		return false
	}
	s.ctx.Push()
	return true
}

// decideWithHints is the post-backtrack analogue of decide.
func (s *Solver) decideWithHints(hints []variable.Literal) bool {
	if !s.fabric.DispatchDecideWithHints(s.tr, hints) {
		return false
	}
	s.ctx.Push()
	return true
}

// Value reports the model value of an assigned variable as a term, or
// nil if it is unassigned (spec §6 "Post-SAT value(variable) ->
// term").
func (s *Solver) Value(v variable.Variable) term.Term {
	if !s.tr.HasValue(v) {
		return nil
	}
	return s.vdb.TermOf(s.tr.Value(v))
}

// propagateFixpoint runs dispatch rounds at mode until a full round
// produces no propagations, handling any conflict that arises along
// the way (spec §4.5 "Propagation fixpoint"). It returns false the
// moment a conflict analysis determines UNSAT.
func (s *Solver) propagateFixpoint(mode trail.PropagationMode) bool {
	for {
		progress := s.fabric.DispatchPropagateRound(s.tr, mode)
		if !s.tr.Consistent() {
			if !s.handleConflict() {
				return false
			}
			continue
		}
		if !progress {
			return true
		}
	}
}

// handleConflict runs conflict analysis on the current inconsistent
// trail and applies its outcome, returning false iff the conflict was
// at level 0 (logical UNSAT, spec §7 "Logical UNSAT").
func (s *Solver) handleConflict() bool {
	s.stats.Conflicts.Inc()
	s.fabric.NotifyConflict()

	cr, backtrackLevel, unsatLevel0 := s.analyzeConflict()
	if unsatLevel0 {
		log.Debug("conflict analysis reached a level-0 conflict")
		return false
	}

	s.fabric.NotifyConflictResolution(cr)
	s.RequestBacktrack(backtrackLevel, cr)
	s.applyBacktrack()
	return true
}

// processRequests drains and applies any pending backtrack, restart,
// or GC request, in that priority order (spec §4.5 "Request
// handling").
func (s *Solver) processRequests() {
	if s.backtrackRequested {
		if s.tr.DecisionLevel() == 0 {
			s.backtrackRequested = false
		} else {
			s.applyBacktrack()
		}
	}
	if s.restartRequested {
		s.applyRestart()
	}
	if s.gcRequested {
		s.runGC()
	}
}

// applyBacktrack pops to the coalesced requested level, notifies
// plugins of the unset variables, and offers the hinted clause as a
// propagation or decision candidate (spec §4.5 "Backtrack").
func (s *Solver) applyBacktrack() {
	level, ok := s.takeBacktrackRequest()
	if !ok {
		return
	}
	if level > s.tr.DecisionLevel() {
		level = s.tr.DecisionLevel()
	}
	unset := s.tr.PopToLevel(level)
	s.ctx.PopTo(level)
	s.fabric.NotifyBackjump(unset)

	hintCR := s.backtrackHint
	s.backtrackHint = clause.Null
	if hintCR == clause.Null {
		return
	}
	cl := s.db.Get(hintCR)
	var hints []variable.Literal
	for _, l := range cl.Literals {
		if !s.tr.HasValue(l.Var()) {
			hints = append(hints, l)
		}
	}
	if len(hints) == 1 && s.clausePropagates(cl) {
		tok := s.tr.NewPropagationToken(trail.PropagationNormal)
		tok.Propagate(hints[0], hintCR)
		return
	}
	if len(hints) > 0 {
		s.decideWithHints(hints)
	}
}

// clausePropagates reports whether cl has exactly one unassigned
// literal and every other literal is false, the standard unit-clause
// BCP condition (spec §4.5 "clause[1] already false and clause[0]
// unassigned -> propagate clause[0]").
func (s *Solver) clausePropagates(cl *clause.Clause) bool {
	unassigned := 0
	for _, l := range cl.Literals {
		if !s.tr.HasValue(l.Var()) {
			unassigned++
			continue
		}
		if s.tr.IsTrue(l) {
			return false
		}
	}
	return unassigned == 1
}

func (s *Solver) takeBacktrackRequest() (int, bool) {
	if !s.backtrackRequested {
		return 0, false
	}
	s.backtrackRequested = false
	return s.backtrackLevel, true
}

// applyRestart pops to level 0, notifies plugins, and optionally runs
// GC (spec §4.5 "Restart").
func (s *Solver) applyRestart() {
	s.restartRequested = false
	s.stats.Restarts.Inc()
	unset := s.tr.PopToLevel(0)
	s.ctx.PopTo(0)
	s.fabric.NotifyBackjump(unset)
	s.fabric.NotifyRestart()
	if s.cfg.GCOnRestart || s.gcRequested {
		s.runGC()
	}
}
