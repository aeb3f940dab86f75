package boolean

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xDarkicex/mcsat/clause"
	"github.com/xDarkicex/mcsat/term"
	"github.com/xDarkicex/mcsat/variable"
)

func newTestDB() (*variable.DB, *clause.DB) {
	vdb := variable.New()
	farm := clause.NewFarm()
	db := farm.NewClauseDB("clauses")
	return vdb, db
}

// clauseSets returns each committed clause's literals in stored order,
// index-aligned with crs.
func clauseSets(db *clause.DB, crs []clause.CRef) [][]variable.Literal {
	out := make([][]variable.Literal, len(crs))
	for i, cr := range crs {
		out[i] = db.Get(cr).Literals
	}
	return out
}

// TestConverterAssertAtomCommitsUnitClause covers the base case: a
// bare atom assertion Tseitin-converts to just the forcing unit
// clause, since an atom needs no auxiliary variable.
func TestConverterAssertAtomCommitsUnitClause(t *testing.T) {
	vdb, db := newTestDB()
	conv := NewConverter(vdb, db)

	p := term.Atom("p")
	crs := conv.Assert(p)
	require.Len(t, crs, 1)

	pv := vdb.VariableOf(p)
	require.Equal(t, []variable.Literal{variable.Lit(pv, true)}, clauseSets(db, crs)[0])
}

// TestConverterAssertOrIntroducesEquisatisfiableClauses covers the
// n-ary OR Tseitin transform (spec's CNF plugin): asserting p ∨ q must
// commit the aux<->disjunction clauses plus the forcing unit on aux.
func TestConverterAssertOrIntroducesEquisatisfiableClauses(t *testing.T) {
	vdb, db := newTestDB()
	conv := NewConverter(vdb, db)

	p, q := term.Atom("p"), term.Atom("q")
	crs := conv.Assert(term.Or(p, q))
	// (¬aux ∨ p ∨ q), (aux ∨ ¬p), (aux ∨ ¬q), (aux) — 4 clauses total.
	require.Len(t, crs, 4)

	pv, qv := vdb.VariableOf(p), vdb.VariableOf(q)
	require.True(t, pv != variable.Null)
	require.True(t, qv != variable.Null)

	unit := db.Get(crs[len(crs)-1]).Literals
	require.Len(t, unit, 1)
	auxV := unit[0].Var()
	require.True(t, unit[0].Polarity())

	big := db.Get(crs[0]).Literals
	require.Len(t, big, 3)
	require.Contains(t, big, variable.Lit(auxV, false))
	require.Contains(t, big, variable.Lit(pv, true))
	require.Contains(t, big, variable.Lit(qv, true))
}

// TestConverterAssertImpliesMatchesTruthTable covers the implication
// Tseitin transform by checking every one of the 4 Boolean assignments
// to (a,b) against the committed clause set's truth value for aux.
func TestConverterAssertImpliesMatchesTruthTable(t *testing.T) {
	vdb, db := newTestDB()
	conv := NewConverter(vdb, db)

	p, q := term.Atom("a"), term.Atom("b")
	crs := conv.Assert(term.Implies(p, q))
	require.Len(t, crs, 4)

	pv, qv := vdb.VariableOf(p), vdb.VariableOf(q)
	auxV := db.Get(crs[len(crs)-1]).Literals[0].Var()

	equivClauses := crs[:3]
	for _, ab := range []struct{ a, b bool }{
		{true, true}, {true, false}, {false, true}, {false, false},
	} {
		correctAux := !ab.a || ab.b

		good := map[variable.Variable]bool{pv: ab.a, qv: ab.b, auxV: correctAux}
		for _, cr := range equivClauses {
			require.True(t, clauseSatisfied(db.Get(cr).Literals, good),
				"a=%v b=%v aux=%v (correct) must satisfy every aux<->implies clause", ab.a, ab.b, correctAux)
		}

		bad := map[variable.Variable]bool{pv: ab.a, qv: ab.b, auxV: !correctAux}
		violated := false
		for _, cr := range equivClauses {
			if !clauseSatisfied(db.Get(cr).Literals, bad) {
				violated = true
			}
		}
		require.True(t, violated, "a=%v b=%v aux=%v (wrong) must violate some aux<->implies clause", ab.a, ab.b, !correctAux)
	}
}

func clauseSatisfied(lits []variable.Literal, assign map[variable.Variable]bool) bool {
	for _, l := range lits {
		if assign[l.Var()] == l.Polarity() {
			return true
		}
	}
	return false
}
