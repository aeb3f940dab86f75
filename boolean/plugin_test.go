package boolean

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xDarkicex/mcsat/clause"
	"github.com/xDarkicex/mcsat/stats"
	"github.com/xDarkicex/mcsat/term"
	"github.com/xDarkicex/mcsat/trail"
	"github.com/xDarkicex/mcsat/variable"
)

// noRequest implements plugin.Request as a no-op sink, for tests that
// drive the Boolean plugin directly without a full solver loop.
type noRequest struct{}

func (noRequest) RequestBacktrack(level int, cr clause.CRef) {}
func (noRequest) RequestRestart()                            {}
func (noRequest) RequestGC()                                 {}
func (noRequest) RequestPropagate()                          {}

// newTestFixture wires a variable database, clause arena, trail and
// Boolean plugin together the way solver.New does, scoped to package
// boolean so BCP can be exercised without the rest of the MCSAT loop.
func newTestFixture(t *testing.T) (*variable.DB, *clause.DB, *trail.Trail, *Plugin) {
	vdb := variable.New()
	farm := clause.NewFarm()
	db := farm.NewClauseDB("clauses")

	trueVar := vdb.Intern(trail.TrueTerm, variable.Bool)
	falseVar := vdb.Intern(trail.FalseTerm, variable.Bool)
	tr := trail.New(db, trueVar, falseVar)
	vdb.NewVariableNotifyListener(tr.GrowModel)

	p := NewPlugin(vdb, db, tr, noRequest{}, stats.New())
	return vdb, db, tr, p
}

func runToFixpoint(tr *trail.Trail, p *Plugin) {
	for {
		tok := tr.NewPropagationToken(trail.PropagationNormal)
		p.Propagate(tok)
		if !tok.Used() || !tr.Consistent() {
			return
		}
	}
}

// TestPluginPropagatesFreshUnitClause is the regression test for the
// pendingUnits fix: a unit clause committed and registered after the
// plugin has already scanned the trail must still force its literal
// on the very next Propagate call, since the two-watched-literal
// scheme alone never wakes a unit clause that has no prior watcher.
func TestPluginPropagatesFreshUnitClause(t *testing.T) {
	vdb, db, tr, p := newTestFixture(t)

	pVar := vdb.Intern(term.Atom("p"), variable.Bool)
	runToFixpoint(tr, p) // settle with no clauses yet

	cr := db.Commit([]variable.Literal{variable.Lit(pVar, true)}, clause.RuleInput)
	p.RegisterClause(cr)

	runToFixpoint(tr, p)
	require.True(t, tr.IsTrue(variable.Lit(pVar, true)))
}

// TestPluginTwoWatchedLiteralPropagation covers spec §4.5's BCP
// propagation: asserting p and committing (¬p ∨ q) must force q true
// once p is assigned.
func TestPluginTwoWatchedLiteralPropagation(t *testing.T) {
	vdb, db, tr, p := newTestFixture(t)

	pVar := vdb.Intern(term.Atom("p"), variable.Bool)
	qVar := vdb.Intern(term.Atom("q"), variable.Bool)

	cr := db.Commit([]variable.Literal{variable.Lit(pVar, false), variable.Lit(qVar, true)}, clause.RuleInput)
	p.RegisterClause(cr)

	unit := db.Commit([]variable.Literal{variable.Lit(pVar, true)}, clause.RuleInput)
	p.RegisterClause(unit)

	runToFixpoint(tr, p)
	require.True(t, tr.IsTrue(variable.Lit(qVar, true)))
	require.True(t, tr.Consistent())
}

// TestPluginDetectsClausalConflict covers a direct Boolean
// contradiction: unit clauses forcing p and ¬p must leave the trail
// inconsistent with a non-empty InconsistentPropagations list.
func TestPluginDetectsClausalConflict(t *testing.T) {
	vdb, db, tr, p := newTestFixture(t)

	pVar := vdb.Intern(term.Atom("p"), variable.Bool)

	cr1 := db.Commit([]variable.Literal{variable.Lit(pVar, true)}, clause.RuleInput)
	p.RegisterClause(cr1)
	runToFixpoint(tr, p)
	require.True(t, tr.Consistent())

	cr2 := db.Commit([]variable.Literal{variable.Lit(pVar, false)}, clause.RuleInput)
	p.RegisterClause(cr2)
	runToFixpoint(tr, p)

	require.False(t, tr.Consistent())
	require.NotEmpty(t, tr.InconsistentPropagations())
}

// TestPluginDecideAssignsQueuedVariable covers the decision path: a
// freshly interned Boolean variable is offered to Decide once nothing
// propagates it.
func TestPluginDecideAssignsQueuedVariable(t *testing.T) {
	vdb, _, tr, p := newTestFixture(t)

	// Interned after the plugin is constructed, so the fresh-variable
	// listener enqueues it for Decide (the true/false constants, which
	// predate the listener's registration, do not need a decision).
	vdb.Intern(term.Atom("p"), variable.Bool)

	tok := tr.NewDecisionToken()
	p.Decide(tok)
	require.True(t, tok.Used())
}

// TestPluginRetargetsWatchOnFalsification covers the watch-retargeting
// path: a three-literal clause must move its watch off a falsified
// literal onto a still-unassigned one instead of propagating early.
func TestPluginRetargetsWatchOnFalsification(t *testing.T) {
	vdb, db, tr, p := newTestFixture(t)

	a := vdb.Intern(term.Atom("a"), variable.Bool)
	b := vdb.Intern(term.Atom("b"), variable.Bool)
	c := vdb.Intern(term.Atom("c"), variable.Bool)

	cr := db.Commit([]variable.Literal{variable.Lit(a, true), variable.Lit(b, true), variable.Lit(c, true)}, clause.RuleInput)
	p.RegisterClause(cr)

	unit := db.Commit([]variable.Literal{variable.Lit(a, false)}, clause.RuleInput)
	p.RegisterClause(unit)

	runToFixpoint(tr, p)
	require.True(t, tr.Consistent())
	require.False(t, tr.HasValue(b))
	require.False(t, tr.HasValue(c))
}
