// Package variable owns the dense integer variable indices the rest
// of the solver addresses everything by, and the literals built over
// them. See spec §3 ("Variable", "Literal") and §4.2.
package variable

import "fmt"

// Variable is a dense, type-tagged index. It never changes identity
// but may be relocated by GC (see DB.PerformGC); callers that hold a
// Variable across a GC must apply the returned Relocation.
type Variable int32

// Null is the distinguished "no variable" value.
const Null Variable = -1

func (v Variable) String() string {
	if v == Null {
		return "null"
	}
	return fmt.Sprintf("v%d", int32(v))
}

// TypeIndex partitions variables by theory (spec §2, §3). Boolean is
// always index 0; further indices are assigned by DB.RegisterType in
// registration order, mirroring the teacher's pattern of fixed,
// well-known system names plus open extension (core.LogicSystem).
type TypeIndex int

const (
	// Bool is the fixed type index for Boolean-sorted variables.
	Bool TypeIndex = 0
)

// Literal is a variable plus a polarity bit, packed into a single
// machine word the way CDCL engines in this corpus do it (see
// yass/gophersat's Lit: Var()/Negation()/IsPositive()). Literal zero
// value is the positive literal over variable 0; NullLiteral is the
// literal over the null variable.
type Literal int64

// Lit builds the literal over v with the given polarity; polarity
// true denotes the variable asserted true (over a theory-atom
// variable, the constraint asserted as given rather than negated).
func Lit(v Variable, polarity bool) Literal {
	neg := int64(0)
	if !polarity {
		neg = 1
	}
	return Literal(int64(v)<<1 | neg)
}

// NullLiteral is the literal over the null variable.
var NullLiteral = Lit(Null, true)

// Var returns the variable the literal is over.
func (l Literal) Var() Variable { return Variable(int64(l) >> 1) }

// Polarity returns true for a positive (unnegated) literal.
func (l Literal) Polarity() bool { return int64(l)&1 == 0 }

// Negate returns ~l; double negation is involutive and var(l)==var(~l)
// by construction (spec §3).
func (l Literal) Negate() Literal { return Literal(int64(l) ^ 1) }

func (l Literal) String() string {
	if l.Polarity() {
		return l.Var().String()
	}
	return "~" + l.Var().String()
}

// BoolValue is the three-valued result of looking up a Boolean
// variable's value in the trail's model (spec §3 "two distinguished
// constants TRUE and FALSE").
type BoolValue int

const (
	Unknown BoolValue = iota
	True
	False
)

// Negate flips True/False and leaves Unknown alone, matching
// value(~l) == negate(value(l)) (spec §8).
func (b BoolValue) Negate() BoolValue {
	switch b {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}
