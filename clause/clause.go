// Package clause implements the arena-allocated clause database ("clause
// farm") the spec calls for in §2 and §4.3: clauses are referenced by
// opaque CRef handles, never by pointer, so that GC can compact and
// relocate the arena without invalidating every holder at once.
package clause

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/xDarkicex/mcsat/mlog"
	"github.com/xDarkicex/mcsat/variable"
)

var log = mlog.For("clause")

// RuleID names the proof rule that produced a clause (spec §3
// "Clause"). Values below are the rules the core itself commits;
// package rules defines further ids (Resolution, FourierMotzkin,
// Ackermann) layered on top without creating an import cycle.
type RuleID int

const (
	// RuleInput marks a clause that came directly from assertion intake
	// (the CNF plugin handing the solver an input clause), matching
	// cvc4's InputClauseRule.
	RuleInput RuleID = iota
	// RuleFirstUserRule is the first id free for use by package rules.
	RuleFirstUserRule
)

// CRef is an opaque handle into a ClauseDB's arena (spec §4.3). It is
// stable until the arena is GC'd; holders must apply the
// RelocationInfo from the next GC to every CRef they keep across it.
type CRef struct{ idx int32 }

// Null is the distinguished "no clause" handle.
var Null = CRef{idx: -1}

func (r CRef) String() string {
	if r == Null {
		return "cref(null)"
	}
	return fmt.Sprintf("cref(%d)", r.idx)
}

// Clause is an ordered, non-empty sequence of literals plus its rule
// id and refcount (spec §3). Package boolean takes positions 0 and 1
// as a clause's first two watches; literals are never reordered
// afterwards, so later watches may sit at any position. Clauses the
// trail builds from a ReasonProvider put the propagated literal at
// position 0; clausal reasons and learnt clauses keep the order they
// were committed in.
type Clause struct {
	Literals []variable.Literal
	Rule     RuleID
	Activity float64
	refcount int32
}

func (c *Clause) String() string {
	return fmt.Sprintf("%v", c.Literals)
}

// clauseSlot is nil once a clause has been collected out from under a
// surviving weak CRef (never observed in practice: GC always relocates
// before any plugin resumes, per spec §5 "Clause GC relocation is
// atomic with respect to plugin observation").
type clauseSlot struct {
	clause *Clause
}

// DB is one independent clause arena (spec §4.3 "newClauseDB(name)").
type DB struct {
	name   string
	slots  []clauseSlot
	strong map[int32]int32 // idx -> strong refcount, entries removed at zero
}

func newDB(name string) *DB {
	return &DB{name: name, strong: make(map[int32]int32)}
}

// Name is the arena's identifying label, e.g. "problem_clauses".
func (db *DB) Name() string { return db.name }

// Commit stores a new clause and returns a stable handle to it (spec
// §4.3). literals must be non-empty; a correct caller never commits
// the empty clause through this path (level-0 conflicts are surfaced
// by the trail's inconsistent-propagation list, not as an empty
// clause).
func (db *DB) Commit(literals []variable.Literal, rule RuleID) CRef {
	if len(literals) == 0 {
		panic(errors.New("clause: Commit called with zero literals"))
	}
	idx := int32(len(db.slots))
	lits := append([]variable.Literal(nil), literals...)
	db.slots = append(db.slots, clauseSlot{clause: &Clause{Literals: lits, Rule: rule}})
	return CRef{idx: idx}
}

// Get dereferences a handle. It panics on a stale or out-of-range
// handle: per spec §5, no plugin is ever handed a CRef across a GC
// without relocation, so this should never happen in a correct driver.
func (db *DB) Get(r CRef) *Clause {
	if r == Null || int(r.idx) >= len(db.slots) || db.slots[r.idx].clause == nil {
		panic(errors.Errorf("clause: Get called with invalid CRef %v in arena %q", r, db.name))
	}
	return db.slots[r.idx].clause
}

// Retain increments the strong refcount of r (spec §4.3 "strong
// handles participate in refcounting").
func (db *DB) Retain(r CRef) {
	db.strong[r.idx]++
}

// Release decrements the strong refcount of r.
func (db *DB) Release(r CRef) {
	if n := db.strong[r.idx]; n > 1 {
		db.strong[r.idx] = n - 1
	} else {
		delete(db.strong, r.idx)
	}
}

// IsStronglyHeld reports whether r currently has a positive strong
// refcount.
func (db *DB) IsStronglyHeld(r CRef) bool {
	return db.strong[r.idx] > 0
}

// NumClauses is the number of live (possibly collected-and-compacted)
// clauses currently in the arena.
func (db *DB) NumClauses() int { return len(db.slots) }

// RelocationInfo maps every CRef live before a GC to its new,
// compacted CRef, or to Null if it was not in the keep set (spec §4.3
// "ClauseRelocationInfo").
type RelocationInfo struct {
	oldToNew map[int32]CRef
}

// Apply maps an old CRef to its post-GC handle, or Null if collected.
func (ri RelocationInfo) Apply(r CRef) CRef {
	if r == Null {
		return Null
	}
	if nr, ok := ri.oldToNew[r.idx]; ok {
		return nr
	}
	return Null
}

// Relocate compacts the arena to exactly the clauses in keep, applying
// varReloc to every surviving clause's literals, and returns the
// RelocationInfo callers must apply to their own CRefs (spec §4.3
// phase 2 "Relocate"). Strongly-held clauses are always kept
// regardless of whether they appear in keep.
func (db *DB) Relocate(keep map[CRef]bool, varReloc variable.Relocation) RelocationInfo {
	ri := RelocationInfo{oldToNew: make(map[int32]CRef)}
	newSlots := make([]clauseSlot, 0, len(db.slots))
	newStrong := make(map[int32]int32)

	for idx := range db.slots {
		old := CRef{idx: int32(idx)}
		slot := db.slots[idx]
		if slot.clause == nil {
			continue
		}
		if !keep[old] && db.strong[old.idx] == 0 {
			continue
		}
		newLits := make([]variable.Literal, len(slot.clause.Literals))
		for i, l := range slot.clause.Literals {
			nv := varReloc.Apply(l.Var())
			if nv == variable.Null {
				panic(errors.Errorf("clause: Relocate kept clause referencing collected variable %v", l.Var()))
			}
			newLits[i] = variable.Lit(nv, l.Polarity())
		}
		newIdx := int32(len(newSlots))
		newSlots = append(newSlots, clauseSlot{clause: &Clause{
			Literals: newLits,
			Rule:     slot.clause.Rule,
			Activity: slot.clause.Activity,
		}})
		ri.oldToNew[old.idx] = CRef{idx: newIdx}
		if n := db.strong[old.idx]; n > 0 {
			newStrong[newIdx] = n
		}
	}

	db.slots = newSlots
	db.strong = newStrong
	log.WithField("arena", db.name).WithField("kept", len(newSlots)).Debug("clause GC complete")
	return ri
}
