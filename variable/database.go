package variable

import (
	"github.com/pkg/errors"

	"github.com/xDarkicex/mcsat/mlog"
	"github.com/xDarkicex/mcsat/term"
)

var log = mlog.For("variable")

// NewVariableNotify is invoked, in registration order, the first time
// a term is interned into a fresh variable (spec §4.2).
type NewVariableNotify func(v Variable)

// DB is the variable database: the mapping between terms and dense
// variable indices, partitioned by type index (spec §2 "Variable
// Database").
type DB struct {
	typeOf    []TypeIndex
	termOf    []term.Term
	varOf     map[uint64][]entry
	listeners []NewVariableNotify
	typeNames []string
}

type entry struct {
	t term.Term
	v Variable
}

// New creates an empty database. Boolean (type index Bool) is always
// registered first so Bool == 0.
func New() *DB {
	db := &DB{
		varOf: make(map[uint64][]entry),
	}
	db.typeNames = append(db.typeNames, "Bool")
	return db
}

// RegisterType adds a new type index (e.g. "Int", "Real") and returns
// it. Order of registration is significant only in that it fixes the
// returned index; it does not need to be deterministic across runs for
// correctness, only within one.
func (db *DB) RegisterType(name string) TypeIndex {
	db.typeNames = append(db.typeNames, name)
	return TypeIndex(len(db.typeNames) - 1)
}

// NewVariableNotifyListener registers a listener invoked on every
// fresh intern, in registration order (spec §4.2).
func (db *DB) NewVariableNotifyListener(l NewVariableNotify) {
	db.listeners = append(db.listeners, l)
}

// HasVariable reports whether t has already been interned.
func (db *DB) HasVariable(t term.Term) bool {
	_, ok := db.lookup(t)
	return ok
}

// VariableOf returns the variable for an already-interned term, or
// Null if none exists. Unlike Intern this never creates one.
func (db *DB) VariableOf(t term.Term) Variable {
	if v, ok := db.lookup(t); ok {
		return v
	}
	return Null
}

func (db *DB) lookup(t term.Term) (Variable, bool) {
	bucket := db.varOf[t.Hash()]
	for _, e := range bucket {
		if e.t.Equal(t) {
			return e.v, true
		}
	}
	return Null, false
}

// Intern returns the variable for t, creating and notifying listeners
// if this is the first time t has been seen (spec §4.2, idempotent).
func (db *DB) Intern(t term.Term, typ TypeIndex) Variable {
	if v, ok := db.lookup(t); ok {
		return v
	}
	v := Variable(len(db.typeOf))
	db.typeOf = append(db.typeOf, typ)
	db.termOf = append(db.termOf, t)
	h := t.Hash()
	db.varOf[h] = append(db.varOf[h], entry{t: t, v: v})

	for _, l := range db.listeners {
		l(v)
	}
	return v
}

// TypeIndexOf reports the type index a variable was interned with. It
// panics on the null variable or an unknown index: a correct caller
// never passes either (spec §7 invariant violations).
func (db *DB) TypeIndexOf(v Variable) TypeIndex {
	if v == Null || int(v) >= len(db.typeOf) {
		panic(errors.Errorf("variable: TypeIndexOf called on invalid variable %v", v))
	}
	return db.typeOf[v]
}

// TermOf returns the term a variable was interned from.
func (db *DB) TermOf(v Variable) term.Term {
	if v == Null || int(v) >= len(db.termOf) {
		panic(errors.Errorf("variable: TermOf called on invalid variable %v", v))
	}
	return db.termOf[v]
}

// NumVariables is the number of live variables (dense range [0, N)).
func (db *DB) NumVariables() int { return len(db.typeOf) }

// Relocation maps every variable live before a GC to either its new,
// compacted index, or Null if it was not in the keep set (spec §4.2,
// §4.3 "relocation map").
type Relocation struct {
	oldToNew []Variable
}

// Apply maps an old variable to its post-GC index, or Null if it was
// collected.
func (r Relocation) Apply(v Variable) Variable {
	if v == Null {
		return Null
	}
	if int(v) >= len(r.oldToNew) {
		return Null
	}
	return r.oldToNew[v]
}

// PerformGC compacts the database to exactly keepSet, preserving the
// relative order of surviving variables, and returns the relocation
// map every holder of a Variable must apply to its own state (spec
// §4.2, §4.3 two-phase GC protocol).
func (db *DB) PerformGC(keepSet map[Variable]bool) Relocation {
	reloc := Relocation{oldToNew: make([]Variable, len(db.typeOf))}
	for i := range reloc.oldToNew {
		reloc.oldToNew[i] = Null
	}

	newTypeOf := make([]TypeIndex, 0, len(keepSet))
	newTermOf := make([]term.Term, 0, len(keepSet))
	for old := Variable(0); int(old) < len(db.typeOf); old++ {
		if !keepSet[old] {
			continue
		}
		newV := Variable(len(newTypeOf))
		reloc.oldToNew[old] = newV
		newTypeOf = append(newTypeOf, db.typeOf[old])
		newTermOf = append(newTermOf, db.termOf[old])
	}

	db.typeOf = newTypeOf
	db.termOf = newTermOf

	newVarOf := make(map[uint64][]entry, len(db.varOf))
	for h, bucket := range db.varOf {
		for _, e := range bucket {
			if nv := reloc.oldToNew[e.v]; nv != Null {
				newVarOf[h] = append(newVarOf[h], entry{t: e.t, v: nv})
			}
		}
	}
	db.varOf = newVarOf

	log.WithField("kept", len(newTypeOf)).Debug("variable GC complete")
	return reloc
}
