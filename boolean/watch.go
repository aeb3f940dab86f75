package boolean

import (
	"github.com/xDarkicex/mcsat/clause"
	"github.com/xDarkicex/mcsat/variable"
)

// WatchSet is the two-watched-literal index: each registered clause
// names two literals whose falsification wakes it, the idiom
// other_examples/afb5254c_rhartert-yass__internal-sat-solver.go.go and
// 7551c36c_DoOR-Team-gophersat__solver-solver.go.go both use for BCP.
// A unit clause watches its single literal twice.
type WatchSet struct {
	db      *clause.DB
	byLit   map[variable.Literal][]clause.CRef
	watches map[clause.CRef][2]variable.Literal
}

// NewWatchSet creates an empty watch index over db.
func NewWatchSet(db *clause.DB) *WatchSet {
	return &WatchSet{
		db:      db,
		byLit:   make(map[variable.Literal][]clause.CRef),
		watches: make(map[clause.CRef][2]variable.Literal),
	}
}

// Register installs the initial watch pair for a freshly committed
// clause.
func (w *WatchSet) Register(cr clause.CRef) {
	cl := w.db.Get(cr)
	if len(cl.Literals) == 1 {
		l := cl.Literals[0]
		w.watches[cr] = [2]variable.Literal{l, l}
		w.addWatch(l, cr)
		return
	}
	a, b := cl.Literals[0], cl.Literals[1]
	w.watches[cr] = [2]variable.Literal{a, b}
	w.addWatch(a, cr)
	w.addWatch(b, cr)
}

func (w *WatchSet) addWatch(l variable.Literal, cr clause.CRef) {
	w.byLit[l] = append(w.byLit[l], cr)
}

func (w *WatchSet) removeWatch(l variable.Literal, cr clause.CRef) {
	lst := w.byLit[l]
	for i, x := range lst {
		if x == cr {
			w.byLit[l] = append(lst[:i], lst[i+1:]...)
			return
		}
	}
}

// WatchersOf returns the clauses currently watching l, as a snapshot
// safe to iterate while Retarget mutates the underlying index.
func (w *WatchSet) WatchersOf(l variable.Literal) []clause.CRef {
	return append([]clause.CRef(nil), w.byLit[l]...)
}

// Other returns the watch literal of cr that is not falsified.
func (w *WatchSet) Other(cr clause.CRef, falsified variable.Literal) variable.Literal {
	pair := w.watches[cr]
	if pair[0] == falsified {
		return pair[1]
	}
	return pair[0]
}

// Retarget moves cr's watch away from falsified onto next.
func (w *WatchSet) Retarget(cr clause.CRef, falsified, next variable.Literal) {
	pair := w.watches[cr]
	if pair[0] == falsified {
		pair[0] = next
	} else {
		pair[1] = next
	}
	w.watches[cr] = pair
	w.removeWatch(falsified, cr)
	w.addWatch(next, cr)
}
