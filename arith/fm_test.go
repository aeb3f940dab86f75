package arith

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xDarkicex/mcsat/clause"
	"github.com/xDarkicex/mcsat/rules"
	"github.com/xDarkicex/mcsat/term"
	"github.com/xDarkicex/mcsat/variable"
)

func rat(n int64) *big.Rat { return big.NewRat(n, 1) }

// TestEliminateCancelsTargetCoefficient covers spec §4.6's Fourier-
// Motzkin elimination step directly: combining x >= 5 and -x >= -3
// (i.e. x <= 3) over x must produce a variable-free false constraint.
func TestEliminateCancelsTargetCoefficient(t *testing.T) {
	x := variable.Variable(0)
	pos := LinearConstraint{Kind: GEQ, Coeffs: map[variable.Variable]*big.Rat{
		x: rat(1), variable.Null: rat(-5),
	}}
	neg := LinearConstraint{Kind: GEQ, Coeffs: map[variable.Variable]*big.Rat{
		x: rat(-1), variable.Null: rat(3),
	}}

	merged := eliminate(pos, neg, x)
	require.Empty(t, merged.Variables())
	require.True(t, isFalse(merged))
}

// TestResolveCoreFindsFalsityAcrossSharedVariable covers the multi-
// premise resolution path, eliminating one variable shared by two
// premises down to a trivially false constant constraint.
func TestResolveCoreFindsFalsityAcrossSharedVariable(t *testing.T) {
	vdb := variable.New()
	arithTy := vdb.RegisterType("Int")
	x := internAtom(vdb, arithTy, "x")

	geqLit := geqLiteral(vdb, x, 5)
	leqLit := leqLiteral(vdb, x, 3)

	cGeq, ok := Parse(geqLit, vdb)
	require.True(t, ok)
	cLeq, ok := Parse(leqLit, vdb)
	require.True(t, ok)

	_, _, falsified := resolveCore([]premise{{lit: cGeq, src: geqLit}, {lit: cLeq, src: leqLit}})
	require.True(t, falsified)
}

// TestResolveCoreFailsOnSatisfiablePremises covers the non-conflict
// path: x >= 1 and x <= 10 never resolve to falsity.
func TestResolveCoreFailsOnSatisfiablePremises(t *testing.T) {
	vdb := variable.New()
	arithTy := vdb.RegisterType("Int")
	x := internAtom(vdb, arithTy, "x")

	geqLit := geqLiteral(vdb, x, 1)
	leqLit := leqLiteral(vdb, x, 10)

	cGeq, _ := Parse(geqLit, vdb)
	cLeq, _ := Parse(leqLit, vdb)

	_, _, falsified := resolveCore([]premise{{lit: cGeq, src: geqLit}, {lit: cLeq, src: leqLit}})
	require.False(t, falsified)
}

// TestExplainBuildsNegatedPremiseClause covers spec §4.6's conflict
// explanation contract: Explain commits a clause of the negated
// premise literals for an unsatisfiable set.
func TestExplainBuildsNegatedPremiseClause(t *testing.T) {
	vdb := variable.New()
	arithTy := vdb.RegisterType("Int")
	x := internAtom(vdb, arithTy, "x")

	farm := clause.NewFarm()
	db := farm.NewClauseDB("clauses")

	geqLit := geqLiteral(vdb, x, 5)
	leqLit := leqLiteral(vdb, x, 3)

	cr := Explain(db, vdb, []variable.Literal{geqLit, leqLit}, rules.FourierMotzkin)
	cl := db.Get(cr)
	require.ElementsMatch(t, []variable.Literal{geqLit.Negate(), leqLit.Negate()}, cl.Literals)
	require.Equal(t, rules.FourierMotzkin, cl.Rule)
}

// TestMinimizeResolventDropsRedundantPremise covers dropping a premise
// that is not needed to derive falsity: a third, slack, bound must not
// survive minimization.
func TestMinimizeResolventDropsRedundantPremise(t *testing.T) {
	vdb := variable.New()
	arithTy := vdb.RegisterType("Int")
	x := internAtom(vdb, arithTy, "x")

	geqLit := geqLiteral(vdb, x, 5)
	leqLit := leqLiteral(vdb, x, 3)
	slackLit := geqLiteral(vdb, x, 0)

	cGeq, _ := Parse(geqLit, vdb)
	cLeq, _ := Parse(leqLit, vdb)
	cSlack, _ := Parse(slackLit, vdb)

	premises := []premise{{lit: cGeq, src: geqLit}, {lit: cLeq, src: leqLit}, {lit: cSlack, src: slackLit}}
	minimized := minimizeResolvent(premises)
	require.Len(t, minimized, 2)
}

func geqLiteral(vdb *variable.DB, x variable.Variable, n int64) variable.Literal {
	atom := term.GEQ(vdb.TermOf(x), term.ConstInt(n))
	v := vdb.Intern(atom, variable.Bool)
	return variable.Lit(v, true)
}

func leqLiteral(vdb *variable.DB, x variable.Variable, n int64) variable.Literal {
	atom := term.LEQ(vdb.TermOf(x), term.ConstInt(n))
	v := vdb.Intern(atom, variable.Bool)
	return variable.Lit(v, true)
}
