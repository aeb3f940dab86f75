// Package term is the boundary to the external term/expression library.
// Term construction, hash-consing and rewriting live outside the MCSAT
// core (spec §1); this package supplies only the minimal opaque term
// shape the core needs to drive parsing, interning and tests: atoms
// (uninterpreted leaves, including Boolean variables), rational
// constants, and the handful of linear-arithmetic operators the
// Fourier-Motzkin plugin's parser recognizes.
package term

import (
	"fmt"
	"hash/fnv"
	"math/big"
)

// Kind discriminates the term shapes the core understands. Anything
// else (divisions, non-constant multiplicands, uninterpreted function
// applications with more than zero arguments) is opaque to the core
// and is only ever compared/hashed, never walked arithmetically.
type Kind int

const (
	KindAtom Kind = iota
	KindConst
	KindPlus
	KindMinus
	KindUMinus
	KindMult
	// Relational kinds are the atoms the Fourier-Motzkin parser
	// recognizes: two arithmetic children related by <, <=, >, >=, =,
	// or !=. Interning one of these yields a Boolean-typed variable
	// whose literal denotes a (possibly negated) linear constraint
	// (spec §3 "Literal").
	KindLT
	KindLEQ
	KindGT
	KindGEQ
	KindEq
	KindDistinct
	// Propositional connectives the CNF/Tseitin conversion in package
	// boolean recognizes. Arithmetic atoms (the relational kinds above)
	// may appear as children of these, where package boolean treats
	// them as opaque leaves; the two term families meet only at
	// atom/relation boundaries.
	KindNot
	KindAnd
	KindOr
	KindImplies
	KindIff
)

// Term is the opaque handle the variable database interns and the
// arithmetic plugin parses. Implementations must give value semantics
// for Equal/Hash: two structurally identical terms must compare equal
// and hash identically, matching the hash-consing contract the real
// expression library would provide.
type Term interface {
	Kind() Kind
	Children() []Term
	// Rat is only meaningful when Kind() == KindConst.
	Rat() *big.Rat
	// Name is only meaningful when Kind() == KindAtom.
	Name() string
	String() string
	Equal(other Term) bool
	Hash() uint64
}

type atomTerm struct{ name string }

func Atom(name string) Term { return atomTerm{name: name} }

func (a atomTerm) Kind() Kind        { return KindAtom }
func (a atomTerm) Children() []Term  { return nil }
func (a atomTerm) Rat() *big.Rat     { return nil }
func (a atomTerm) Name() string      { return a.name }
func (a atomTerm) String() string    { return a.name }
func (a atomTerm) Equal(o Term) bool { return o.Kind() == KindAtom && o.Name() == a.name }
func (a atomTerm) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte{byte(KindAtom)})
	h.Write([]byte(a.name))
	return h.Sum64()
}

type constTerm struct{ v *big.Rat }

// Const builds an exact rational constant term.
func Const(v *big.Rat) Term { return constTerm{v: new(big.Rat).Set(v)} }

// ConstInt is a convenience constructor for integer constants.
func ConstInt(n int64) Term { return constTerm{v: big.NewRat(n, 1)} }

func (c constTerm) Kind() Kind       { return KindConst }
func (c constTerm) Children() []Term { return nil }
func (c constTerm) Rat() *big.Rat    { return c.v }
func (c constTerm) Name() string     { return "" }
func (c constTerm) String() string   { return c.v.RatString() }
func (c constTerm) Equal(o Term) bool {
	return o.Kind() == KindConst && o.Rat().Cmp(c.v) == 0
}
func (c constTerm) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte{byte(KindConst)})
	h.Write([]byte(c.v.RatString()))
	return h.Sum64()
}

type compoundTerm struct {
	kind     Kind
	children []Term
}

func build(k Kind, children ...Term) Term {
	return compoundTerm{kind: k, children: children}
}

// Plus builds a variadic sum term.
func Plus(terms ...Term) Term { return build(KindPlus, terms...) }

// Minus builds a binary subtraction term a - b.
func Minus(a, b Term) Term { return build(KindMinus, a, b) }

// UMinus builds a unary negation term.
func UMinus(a Term) Term { return build(KindUMinus, a) }

// Mult builds a multiplication term; the parser only accepts this form
// when one side is a constant.
func Mult(a, b Term) Term { return build(KindMult, a, b) }

// LT, LEQ, GT, GEQ, Eq and Distinct build the relational atoms the
// arithmetic plugin parses into linear constraints.
func LT(a, b Term) Term       { return build(KindLT, a, b) }
func LEQ(a, b Term) Term      { return build(KindLEQ, a, b) }
func GT(a, b Term) Term       { return build(KindGT, a, b) }
func GEQ(a, b Term) Term      { return build(KindGEQ, a, b) }
func Eq(a, b Term) Term       { return build(KindEq, a, b) }
func Distinct(a, b Term) Term { return build(KindDistinct, a, b) }

// Not, And, Or, Implies and Iff build propositional connective terms;
// And/Or are variadic, matching the n-ary Tseitin transform package
// boolean applies to them.
func Not(a Term) Term          { return build(KindNot, a) }
func And(terms ...Term) Term   { return build(KindAnd, terms...) }
func Or(terms ...Term) Term    { return build(KindOr, terms...) }
func Implies(a, b Term) Term   { return build(KindImplies, a, b) }
func Iff(a, b Term) Term       { return build(KindIff, a, b) }

func (c compoundTerm) Kind() Kind       { return c.kind }
func (c compoundTerm) Children() []Term { return c.children }
func (c compoundTerm) Rat() *big.Rat    { return nil }
func (c compoundTerm) Name() string     { return "" }
func (c compoundTerm) String() string {
	parts := make([]string, len(c.children))
	for i, ch := range c.children {
		parts[i] = ch.String()
	}
	names := map[Kind]string{
		KindPlus: "plus", KindMinus: "minus", KindUMinus: "uminus", KindMult: "mult",
		KindLT: "lt", KindLEQ: "leq", KindGT: "gt", KindGEQ: "geq",
		KindEq: "eq", KindDistinct: "distinct",
		KindNot: "not", KindAnd: "and", KindOr: "or", KindImplies: "implies", KindIff: "iff",
	}
	return fmt.Sprintf("%s%v", names[c.kind], parts)
}
func (c compoundTerm) Equal(o Term) bool {
	if o.Kind() != c.kind || len(o.Children()) != len(c.children) {
		return false
	}
	for i, ch := range c.children {
		if !ch.Equal(o.Children()[i]) {
			return false
		}
	}
	return true
}
func (c compoundTerm) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte{byte(c.kind)})
	for _, ch := range c.children {
		var buf [8]byte
		v := ch.Hash()
		for i := range buf {
			buf[i] = byte(v >> (8 * i))
		}
		h.Write(buf[:])
	}
	return h.Sum64()
}
