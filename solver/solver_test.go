package solver

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xDarkicex/mcsat/term"
)

func a(name string) term.Term { return term.Atom(name) }

func TestCheckBooleanDisjunctionIsSAT(t *testing.T) {
	s := New(Config{})
	s.AddAssertion(term.Or(a("p"), a("q")), true)
	require.True(t, s.Check())
}

// TestCheckBooleanContradictionIsUNSAT covers spec §8's "pure SAT
// propagation chain that ends in a level-0 resolvent": asserting both
// p and ¬p propagates a direct conflict with no open decision to
// backtrack through.
func TestCheckBooleanContradictionIsUNSAT(t *testing.T) {
	s := New(Config{})
	s.AddAssertion(a("p"), true)
	s.AddAssertion(term.Not(a("p")), true)
	require.False(t, s.Check())
}

func TestCheckBooleanImplicationChainIsSAT(t *testing.T) {
	s := New(Config{})
	s.AddAssertion(term.Implies(a("p"), a("q")), true)
	s.AddAssertion(a("p"), true)
	require.True(t, s.Check())
	require.Equal(t, term.Atom("true"), s.Value(s.VariableDB().VariableOf(a("q"))))
}

// TestCheckArithBoundConflict covers spec §8's linear-arithmetic bound
// conflict scenario: x >= 5 and x <= 3 have no common model and must
// be refuted by the Fourier-Motzkin explanation path, not BCP.
func TestCheckArithBoundConflict(t *testing.T) {
	s := New(Config{ArithIsInteger: true})
	x := term.Atom("x")
	s.AddAssertion(term.GEQ(x, term.ConstInt(5)), true)
	s.AddAssertion(term.LEQ(x, term.ConstInt(3)), true)
	require.False(t, s.Check())
}

// TestCheckArithRangeIsSAT covers picking a witness value inside a
// satisfiable integer range, exercising Picker's integer-nearest-
// middle case end to end.
func TestCheckArithRangeIsSAT(t *testing.T) {
	s := New(Config{ArithIsInteger: true})
	x := term.Atom("x")
	s.AddAssertion(term.GEQ(x, term.ConstInt(1)), true)
	s.AddAssertion(term.LEQ(x, term.ConstInt(10)), true)
	require.True(t, s.Check())

	xv := s.VariableDB().VariableOf(x)
	val := s.Value(xv)
	require.NotNil(t, val)
	require.Equal(t, term.KindConst, val.Kind())
	r := val.Rat()
	require.True(t, r.Cmp(big.NewRat(1, 1)) >= 0)
	require.True(t, r.Cmp(big.NewRat(10, 1)) <= 0)
}

// TestCheckArithDisequalitiesNarrowRange covers spec §8's "integer
// picking with disequalities" scenario: x in [1,3] with x != 2 forces
// the picker off the interval midpoint.
func TestCheckArithDisequalitiesNarrowRange(t *testing.T) {
	s := New(Config{ArithIsInteger: true})
	x := term.Atom("x")
	s.AddAssertion(term.GEQ(x, term.ConstInt(1)), true)
	s.AddAssertion(term.LEQ(x, term.ConstInt(3)), true)
	s.AddAssertion(term.Distinct(x, term.ConstInt(2)), true)
	require.True(t, s.Check())

	xv := s.VariableDB().VariableOf(x)
	r := s.Value(xv).Rat()
	require.NotEqual(t, 0, r.Cmp(big.NewRat(2, 1)))
}

// TestCheckArithMultiVariableBoundIsConsistent covers unit propagation
// over a constraint with more than one variable: once y is pinned, the
// bound derived for the remaining unbound x must account for y's
// actual value (coeff*value), not just y's raw coefficient, so the
// final model must satisfy the original two-variable inequality.
func TestCheckArithMultiVariableBoundIsConsistent(t *testing.T) {
	s := New(Config{})
	x, y := term.Atom("x"), term.Atom("y")
	s.AddAssertion(term.Eq(y, term.ConstInt(10)), true)
	s.AddAssertion(term.GT(term.Plus(term.Mult(term.ConstInt(2), x), term.Mult(term.ConstInt(3), y)), term.ConstInt(-1)), true)
	require.True(t, s.Check())

	xv := s.VariableDB().VariableOf(x)
	xr := s.Value(xv).Rat()

	lhs := new(big.Rat).Mul(big.NewRat(2, 1), xr)
	lhs.Add(lhs, big.NewRat(30, 1))
	require.True(t, lhs.Cmp(big.NewRat(-1, 1)) > 0)
}

// TestCheckMixedBooleanArithConflict covers a clause whose atom is a
// linear inequality mixed with a purely Boolean clause, exercising
// both plugins' Check/Propagate paths in the same round.
func TestCheckMixedBooleanArithConflict(t *testing.T) {
	s := New(Config{ArithIsInteger: true})
	x := term.Atom("x")
	guard := a("g")
	s.AddAssertion(term.Implies(guard, term.GT(x, term.ConstInt(0))), true)
	s.AddAssertion(guard, true)
	s.AddAssertion(term.LEQ(x, term.ConstInt(0)), true)
	require.False(t, s.Check())
}

// TestRunGCPreservesSatisfiability exercises the solver's GC
// orchestration (spec §4.3) on a solved instance: requesting a GC
// after Check must not disturb the already-assigned model.
func TestRunGCPreservesSatisfiability(t *testing.T) {
	s := New(Config{})
	s.AddAssertion(term.Or(a("p"), a("q")), true)
	require.True(t, s.Check())

	pv := s.VariableDB().VariableOf(a("p"))
	before := s.Value(pv)

	s.RequestGC()
	s.processRequests()

	require.Equal(t, before, s.Value(pv))
}
