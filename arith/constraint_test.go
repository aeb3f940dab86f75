package arith

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xDarkicex/mcsat/term"
	"github.com/xDarkicex/mcsat/variable"
)

// valMap is the narrowest Valuation a test needs.
type valMap map[variable.Variable]*big.Rat

func (m valMap) RatValue(v variable.Variable) (*big.Rat, bool) {
	r, ok := m[v]
	return r, ok
}

func internAtom(vdb *variable.DB, typ variable.TypeIndex, name string) variable.Variable {
	return vdb.Intern(term.Atom(name), typ)
}

// TestParseToLiteralRoundTrips covers spec §8's constraint parse/
// round-trip scenario: parsing x + 2*y >= 3 and reifying it back
// through ToLiteral must parse again to an equivalent constraint.
func TestParseToLiteralRoundTrips(t *testing.T) {
	vdb := variable.New()
	arithTy := vdb.RegisterType("Real")
	x := internAtom(vdb, arithTy, "x")
	y := internAtom(vdb, arithTy, "y")

	sum := term.Plus(vdb.TermOf(x), term.Mult(term.ConstInt(2), vdb.TermOf(y)))
	atom := term.GEQ(sum, term.ConstInt(3))
	v := vdb.Intern(atom, variable.Bool)
	lit := variable.Lit(v, true)

	c, ok := Parse(lit, vdb)
	require.True(t, ok)
	require.Equal(t, GEQ, c.Kind)
	require.Equal(t, big.NewRat(1, 1), c.GetCoefficient(x))
	require.Equal(t, big.NewRat(2, 1), c.GetCoefficient(y))
	require.Equal(t, big.NewRat(-3, 1), c.Constant())

	reified := c.ToLiteral(vdb)
	c2, ok := Parse(reified, vdb)
	require.True(t, ok)
	require.Equal(t, c.Kind, c2.Kind)
	require.Equal(t, 0, c.GetCoefficient(x).Cmp(c2.GetCoefficient(x)))
	require.Equal(t, 0, c.GetCoefficient(y).Cmp(c2.GetCoefficient(y)))
	require.Equal(t, 0, c.Constant().Cmp(c2.Constant()))
}

// TestParseRejectsNonLinearAtom covers spec §7's "parse rejection"
// edge case: a multiplication of two non-constant children declines
// rather than erroring.
func TestParseRejectsNonLinearAtom(t *testing.T) {
	vdb := variable.New()
	arithTy := vdb.RegisterType("Real")
	x := internAtom(vdb, arithTy, "x")
	y := internAtom(vdb, arithTy, "y")

	atom := term.GT(term.Mult(vdb.TermOf(x), vdb.TermOf(y)), term.ConstInt(0))
	v := vdb.Intern(atom, variable.Bool)

	_, ok := Parse(variable.Lit(v, true), vdb)
	require.False(t, ok)
}

// TestParseNegatedLiteralNegatesKind covers asserting ¬(x < 3), which
// must parse to the GEQ-canonicalized form rather than LT.
func TestParseNegatedLiteralNegatesKind(t *testing.T) {
	vdb := variable.New()
	arithTy := vdb.RegisterType("Real")
	x := internAtom(vdb, arithTy, "x")

	atom := term.LT(vdb.TermOf(x), term.ConstInt(3))
	v := vdb.Intern(atom, variable.Bool)

	c, ok := Parse(variable.Lit(v, false), vdb)
	require.True(t, ok)
	require.Equal(t, GEQ, c.Kind)
}

func TestEvaluateReportsUnknownForMissingValue(t *testing.T) {
	vdb := variable.New()
	arithTy := vdb.RegisterType("Real")
	x := internAtom(vdb, arithTy, "x")

	c := LinearConstraint{
		Coeffs: map[variable.Variable]*big.Rat{x: big.NewRat(1, 1), variable.Null: big.NewRat(-5, 1)},
		Kind:   GEQ,
	}
	_, ok := c.Evaluate(valMap{})
	require.False(t, ok)

	result, ok := c.Evaluate(valMap{x: big.NewRat(5, 1)})
	require.True(t, ok)
	require.True(t, result)

	result, ok = c.Evaluate(valMap{x: big.NewRat(4, 1)})
	require.True(t, ok)
	require.False(t, result)
}

func TestFlipKindIsInvolution(t *testing.T) {
	for _, k := range []Kind{LT, LEQ, GT, GEQ, EQ, DISTINCT} {
		require.Equal(t, k, flipKind(flipKind(k)))
	}
}

func TestNegateKindIsInvolution(t *testing.T) {
	for _, k := range []Kind{LT, LEQ, GT, GEQ, EQ, DISTINCT} {
		require.Equal(t, k, negateKind(negateKind(k)))
	}
}
