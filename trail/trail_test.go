package trail

import (
	"testing"

	"github.com/xDarkicex/mcsat/clause"
	"github.com/xDarkicex/mcsat/term"
	"github.com/xDarkicex/mcsat/variable"
)

func newTestTrail(t *testing.T) (*Trail, *clause.DB, func(typ variable.TypeIndex, name string) variable.Variable, variable.Variable, variable.Variable) {
	t.Helper()
	farm := clause.NewFarm()
	db := farm.NewClauseDB("problem_clauses")
	vdb := newVarDB()
	trueVar := vdb.Intern(TrueTerm, variable.Bool)
	falseVar := vdb.Intern(FalseTerm, variable.Bool)
	tr := New(db, trueVar, falseVar)
	tr.GrowModel(trueVar)
	tr.GrowModel(falseVar)
	mk := func(typ variable.TypeIndex, name string) variable.Variable {
		v := vdb.Intern(term.Atom(name), typ)
		tr.GrowModel(v)
		return v
	}
	return tr, db, mk, trueVar, falseVar
}

// newVarDB avoids importing the variable package's own test helpers;
// this is a thin local wrapper so trail tests don't need the solver
// wiring that normally hooks GrowModel to variable interning.
func newVarDB() *dbShim { return &dbShim{} }

type dbShim struct{ next int32 }

func (d *dbShim) Intern(tm term.Term, typ variable.TypeIndex) variable.Variable {
	v := variable.Variable(d.next)
	d.next++
	return v
}

func TestPushAndValue(t *testing.T) {
	tr, db, mk, trueVar, _ := newTestTrail(t)
	a := mk(variable.Bool, "a")

	cr := db.Commit([]variable.Literal{variable.Lit(a, true)}, clause.RuleInput)
	tok := tr.NewPropagationToken(PropagationInit)
	tok.Propagate(variable.Lit(a, true), cr)

	if !tr.HasValue(a) {
		t.Fatalf("expected a to have a value")
	}
	if tr.Value(a) != trueVar {
		t.Fatalf("expected a = true")
	}
	if !tr.IsTrue(variable.Lit(a, true)) {
		t.Fatalf("expected literal a to be true")
	}
	if !tr.IsFalse(variable.Lit(a, false)) {
		t.Fatalf("expected literal ~a to be false")
	}
}

func TestConflictingPropagationMarksInconsistent(t *testing.T) {
	tr, db, mk, _, _ := newTestTrail(t)
	a := mk(variable.Bool, "a")

	cr1 := db.Commit([]variable.Literal{variable.Lit(a, true)}, clause.RuleInput)
	tok := tr.NewPropagationToken(PropagationNormal)
	tok.Propagate(variable.Lit(a, true), cr1)

	cr2 := db.Commit([]variable.Literal{variable.Lit(a, false)}, clause.RuleInput)
	tok.Propagate(variable.Lit(a, false), cr2)

	if tr.Consistent() {
		t.Fatalf("expected trail to be inconsistent")
	}
	got := tr.InconsistentPropagations()
	if len(got) != 1 || got[0] != cr2 {
		t.Fatalf("expected inconsistent propagations to contain cr2, got %v", got)
	}
}

func TestDecisionLevelsAndPopToLevel(t *testing.T) {
	tr, db, mk, _, _ := newTestTrail(t)
	a := mk(variable.Bool, "a")
	b := mk(variable.Bool, "b")
	c := mk(variable.Bool, "c")

	dtok := tr.NewDecisionToken()
	dtok.DecideBoolean(variable.Lit(a, true))
	if tr.DecisionLevel() != 1 {
		t.Fatalf("expected decision level 1, got %d", tr.DecisionLevel())
	}

	dtok2 := tr.NewDecisionToken()
	dtok2.DecideBoolean(variable.Lit(b, true))
	if tr.DecisionLevel() != 2 {
		t.Fatalf("expected decision level 2, got %d", tr.DecisionLevel())
	}

	cr := db.Commit([]variable.Literal{variable.Lit(c, true), variable.Lit(b, false)}, clause.RuleInput)
	ptok := tr.NewPropagationToken(PropagationNormal)
	ptok.Propagate(variable.Lit(c, true), cr)
	if tr.DecisionLevelOf(c) != 2 {
		t.Fatalf("expected c at level 2, got %d", tr.DecisionLevelOf(c))
	}

	unset := tr.PopToLevel(1)
	if tr.DecisionLevel() != 1 {
		t.Fatalf("expected decision level 1 after pop, got %d", tr.DecisionLevel())
	}
	if tr.HasValue(b) || tr.HasValue(c) {
		t.Fatalf("expected b and c unassigned after pop")
	}
	if tr.HasValue(a) == false {
		t.Fatalf("expected a to survive the pop")
	}
	if len(unset) != 2 {
		t.Fatalf("expected 2 unset variables, got %d", len(unset))
	}
	// reverse assignment order: c was assigned after b
	if unset[0] != c || unset[1] != b {
		t.Fatalf("expected unset order [c, b], got %v", unset)
	}
}

func TestReasonResolvesOnDemandProvider(t *testing.T) {
	tr, _, mk, _, _ := newTestTrail(t)
	x := mk(variable.Bool, "x")
	y := mk(variable.Bool, "y")

	dtok := tr.NewDecisionToken()
	dtok.DecideBoolean(variable.Lit(y, true))

	provider := stubProvider{premises: []variable.Literal{variable.Lit(y, true)}}
	ptok := tr.NewPropagationToken(PropagationNormal)
	ptok.PropagateSemantic(variable.Lit(x, true), provider)

	if !tr.HasReason(x) {
		t.Fatalf("expected x to have a reason")
	}
	cr := tr.Reason(x)
	cr2 := tr.Reason(x)
	if cr != cr2 {
		t.Fatalf("expected cached reason to be reused")
	}
}

type stubProvider struct{ premises []variable.Literal }

func (s stubProvider) Explain(l variable.Literal) []variable.Literal { return s.premises }

func TestPopAfterLevel0InvariantPreserved(t *testing.T) {
	tr, _, mk, _, _ := newTestTrail(t)
	a := mk(variable.Bool, "a")
	dtok := tr.NewDecisionToken()
	dtok.DecideBoolean(variable.Lit(a, true))

	tr.PopToLevel(0)
	if tr.Size() != tr.SizeAtLevel(0) {
		t.Fatalf("expected size() == size(0) after popToLevel(0)")
	}
	if tr.DecisionLevel() != 0 {
		t.Fatalf("expected decision level 0")
	}
}
