// Package arith implements the Fourier-Motzkin plugin described in
// spec §4.6: linear-constraint parsing, the context-dependent bounds
// model, unit-constraint watching, value picking, and
// Fourier-Motzkin resolution for conflict explanation. Grounded on
// original_source/src/mcsat/fm/{fm_plugin.h,linear_constraint.cpp}
// and src/mcsat/util/var_priority_queue.h.
package arith

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/xDarkicex/mcsat/mlog"
	"github.com/xDarkicex/mcsat/term"
	"github.com/xDarkicex/mcsat/variable"
)

var log = mlog.For("arith")

// Kind is a linear-constraint relation. The six raw values mirror the
// term-level relations a literal can be built over; after Parse
// canonicalizes, a LinearConstraint's Kind is always one of
// {EQ, GT, GEQ, DISTINCT} (spec §3, §4.6).
type Kind int

const (
	LT Kind = iota
	LEQ
	GT
	GEQ
	EQ
	DISTINCT
)

func (k Kind) String() string {
	return [...]string{"LT", "LEQ", "GT", "GEQ", "EQ", "DISTINCT"}[k]
}

// negateKind is "not (a rel b)" over the raw six-value relation space.
func negateKind(k Kind) Kind {
	switch k {
	case LT:
		return GEQ
	case LEQ:
		return GT
	case GT:
		return LEQ
	case GEQ:
		return LT
	case EQ:
		return DISTINCT
	case DISTINCT:
		return EQ
	}
	panic(fmt.Sprintf("arith: negateKind called with unknown kind %v", k))
}

// flipKind is the sign-flip companion to multiplying a constraint's
// LHS by -1. It is implemented as a genuine involution (LT<->GT,
// LEQ<->GEQ); spec §9 flags the source's GT->GT branch as a likely
// typo and requires following the involution property instead.
func flipKind(k Kind) Kind {
	switch k {
	case LT:
		return GT
	case GT:
		return LT
	case LEQ:
		return GEQ
	case GEQ:
		return LEQ
	default:
		return k
	}
}

func kindOfTermKind(tk term.Kind) (Kind, bool) {
	switch tk {
	case term.KindLT:
		return LT, true
	case term.KindLEQ:
		return LEQ, true
	case term.KindGT:
		return GT, true
	case term.KindGEQ:
		return GEQ, true
	case term.KindEq:
		return EQ, true
	case term.KindDistinct:
		return DISTINCT, true
	default:
		return 0, false
	}
}

func (k Kind) termKind() term.Kind {
	switch k {
	case GT:
		return term.KindGT
	case GEQ:
		return term.KindGEQ
	case EQ:
		return term.KindEq
	case DISTINCT:
		return term.KindDistinct
	default:
		panic(fmt.Sprintf("arith: termKind called with non-canonical kind %v", k))
	}
}

// LinearConstraint is Σ coeff·var + const (rel) 0, with coefficients
// pruned to drop zero entries except the constant term, which is
// always present under the variable.Null key (spec §3 "Linear
// constraint").
type LinearConstraint struct {
	Coeffs map[variable.Variable]*big.Rat
	Kind   Kind
}

func emptyConstraint(k Kind) LinearConstraint {
	return LinearConstraint{Coeffs: map[variable.Variable]*big.Rat{variable.Null: new(big.Rat)}, Kind: k}
}

// GetCoefficient returns the coefficient of v, or 0 if absent.
func (c LinearConstraint) GetCoefficient(v variable.Variable) *big.Rat {
	if r, ok := c.Coeffs[v]; ok {
		return r
	}
	return new(big.Rat)
}

// Constant returns the constant term.
func (c LinearConstraint) Constant() *big.Rat { return c.GetCoefficient(variable.Null) }

// Variables returns the (non-null) variables appearing in c, sorted
// for deterministic iteration.
func (c LinearConstraint) Variables() []variable.Variable {
	vars := make([]variable.Variable, 0, len(c.Coeffs))
	for v := range c.Coeffs {
		if v != variable.Null {
			vars = append(vars, v)
		}
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i] < vars[j] })
	return vars
}

func (c LinearConstraint) String() string {
	parts := make([]string, 0, len(c.Coeffs))
	for _, v := range c.Variables() {
		parts = append(parts, fmt.Sprintf("(%s*%s)", c.Coeffs[v].RatString(), v))
	}
	if cst := c.Constant(); cst.Sign() != 0 {
		parts = append(parts, cst.RatString())
	}
	return fmt.Sprintf("LinearConstraint[%s, %v]", c.Kind, parts)
}

// addCoeff adds delta to coeffs[v], creating the entry if absent.
func addCoeff(coeffs map[variable.Variable]*big.Rat, v variable.Variable, delta *big.Rat) {
	cur, ok := coeffs[v]
	if !ok {
		cur = new(big.Rat)
		coeffs[v] = cur
	}
	cur.Add(cur, delta)
}

func (c *LinearConstraint) prune() {
	for v, r := range c.Coeffs {
		if v != variable.Null && r.Sign() == 0 {
			delete(c.Coeffs, v)
		}
	}
	if _, ok := c.Coeffs[variable.Null]; !ok {
		c.Coeffs[variable.Null] = new(big.Rat)
	}
}

// Parse walks lit's underlying term recursively, accumulating
// Σ coeff·var + const (rel) 0 (spec §4.6 "Constraint parsing"). It
// returns false (declining the atom, not an error — spec §7 "Parse
// rejection") for non-linear forms: a MULT with neither child
// constant, divisions, or any other shape the core doesn't recognize.
func Parse(lit variable.Literal, vdb *variable.DB) (LinearConstraint, bool) {
	node := vdb.TermOf(lit.Var())
	rawKind, ok := kindOfTermKind(node.Kind())
	if !ok {
		return LinearConstraint{}, false
	}
	if !lit.Polarity() {
		rawKind = negateKind(rawKind)
	}

	mult := big.NewRat(1, 1)
	if rawKind == LT || rawKind == LEQ {
		mult = big.NewRat(-1, 1)
		rawKind = flipKind(rawKind)
	}

	children := node.Children()
	if len(children) != 2 {
		return LinearConstraint{}, false
	}

	coeffs := map[variable.Variable]*big.Rat{variable.Null: new(big.Rat)}
	if !parseTerm(children[0], mult, vdb, coeffs) {
		return LinearConstraint{}, false
	}
	negMult := new(big.Rat).Neg(mult)
	if !parseTerm(children[1], negMult, vdb, coeffs) {
		return LinearConstraint{}, false
	}

	out := LinearConstraint{Coeffs: coeffs, Kind: rawKind}
	out.prune()
	return out, true
}

func parseTerm(t term.Term, mult *big.Rat, vdb *variable.DB, coeffs map[variable.Variable]*big.Rat) bool {
	switch t.Kind() {
	case term.KindConst:
		addCoeff(coeffs, variable.Null, new(big.Rat).Mul(mult, t.Rat()))
		return true
	case term.KindAtom:
		v := vdb.VariableOf(t)
		if v == variable.Null {
			// Not yet interned: assertion intake always interns every
			// arithmetic variable before a constraint is parsed (spec
			// §4.5 "walk each normalized formula to intern all
			// variables"); a term the database has never seen is
			// genuinely not a linear atom we can resolve.
			return false
		}
		addCoeff(coeffs, v, new(big.Rat).Set(mult))
		return true
	case term.KindPlus:
		for _, ch := range t.Children() {
			if !parseTerm(ch, mult, vdb, coeffs) {
				return false
			}
		}
		return true
	case term.KindMinus:
		ch := t.Children()
		if len(ch) != 2 {
			return false
		}
		if !parseTerm(ch[0], mult, vdb, coeffs) {
			return false
		}
		return parseTerm(ch[1], new(big.Rat).Neg(mult), vdb, coeffs)
	case term.KindUMinus:
		ch := t.Children()
		if len(ch) != 1 {
			return false
		}
		return parseTerm(ch[0], new(big.Rat).Neg(mult), vdb, coeffs)
	case term.KindMult:
		ch := t.Children()
		if len(ch) != 2 {
			return false
		}
		if ch[0].Kind() == term.KindConst {
			return parseTerm(ch[1], new(big.Rat).Mul(mult, ch[0].Rat()), vdb, coeffs)
		}
		if ch[1].Kind() == term.KindConst {
			return parseTerm(ch[0], new(big.Rat).Mul(mult, ch[1].Rat()), vdb, coeffs)
		}
		return false
	default:
		return false
	}
}

// Valuation is the narrow read-only view of the current model Evaluate
// needs: a rational value for an arithmetic variable, if it has one.
type Valuation interface {
	RatValue(v variable.Variable) (*big.Rat, bool)
}

// Evaluate computes whether c currently holds, given val. The second
// return is false if some variable in c has no value yet.
func (c LinearConstraint) Evaluate(val Valuation) (result bool, ok bool) {
	sum := new(big.Rat)
	for v, coeff := range c.Coeffs {
		if v == variable.Null {
			sum.Add(sum, coeff)
			continue
		}
		r, has := val.RatValue(v)
		if !has {
			return false, false
		}
		sum.Add(sum, new(big.Rat).Mul(coeff, r))
	}
	switch c.Kind {
	case EQ:
		return sum.Sign() == 0, true
	case GT:
		return sum.Sign() > 0, true
	case GEQ:
		return sum.Sign() >= 0, true
	case DISTINCT:
		return sum.Sign() != 0, true
	}
	return false, false
}

// Multiply scales every coefficient by m, which must be positive
// (spec §4.6 "Fourier-Motzkin resolution" multiplies by positive
// coefficient magnitudes only).
func (c *LinearConstraint) Multiply(m *big.Rat) {
	if m.Sign() <= 0 {
		panic("arith: LinearConstraint.Multiply requires a positive multiplier")
	}
	for v, coeff := range c.Coeffs {
		coeff.Mul(coeff, m)
		c.Coeffs[v] = coeff
	}
}

// Add accumulates other*m into c in place, adjusting c's Kind per the
// standard Fourier-Motzkin addition table: EQ takes on whatever the
// other side is, GT absorbs anything and stays GT, GEQ becomes GT only
// if the other side is GT (spec §4.6).
func (c *LinearConstraint) Add(other LinearConstraint, m *big.Rat) {
	switch c.Kind {
	case EQ:
		c.Kind = other.Kind
	case GT:
		// GT + anything is GT.
	case GEQ:
		if other.Kind == GT {
			c.Kind = GT
		}
	default:
		panic(fmt.Sprintf("arith: Add called on a constraint of kind %v", c.Kind))
	}
	for v, coeff := range other.Coeffs {
		next := new(big.Rat).Add(c.GetCoefficient(v), new(big.Rat).Mul(m, coeff))
		if next.Sign() == 0 && v != variable.Null {
			delete(c.Coeffs, v)
		} else {
			c.Coeffs[v] = next
		}
	}
}

// ToLiteral reifies c as a (positively polarized) literal, interning
// the constructed atom term into vdb. Parse(lit); ToLiteral() round-
// trips modulo kind canonicalization and the elimination of
// zero-coefficient terms (spec §8).
func (c LinearConstraint) ToLiteral(vdb *variable.DB) variable.Literal {
	vars := c.Variables()
	var sum term.Term
	if len(vars) == 0 {
		sum = term.Const(c.Constant())
	} else {
		parts := make([]term.Term, 0, len(vars)+1)
		for _, v := range vars {
			parts = append(parts, term.Mult(term.Const(c.Coeffs[v]), vdb.TermOf(v)))
		}
		if cst := c.Constant(); cst.Sign() != 0 {
			parts = append(parts, term.Const(cst))
		}
		if len(parts) == 1 {
			sum = parts[0]
		} else {
			sum = term.Plus(parts...)
		}
	}
	atom := build(c.Kind.termKind(), sum, term.ConstInt(0))
	v := vdb.Intern(atom, variable.Bool)
	return variable.Lit(v, true)
}

func build(k term.Kind, a, b term.Term) term.Term {
	switch k {
	case term.KindGT:
		return term.GT(a, b)
	case term.KindGEQ:
		return term.GEQ(a, b)
	case term.KindEq:
		return term.Eq(a, b)
	case term.KindDistinct:
		return term.Distinct(a, b)
	default:
		panic("arith: build called with non-relational kind")
	}
}
