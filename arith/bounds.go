package arith

import (
	"math/big"

	"github.com/xDarkicex/mcsat/ctx"
	"github.com/xDarkicex/mcsat/variable"
)

// Bound is a single lower or upper bound on a variable, carrying the
// literal that justified it and the trail level it was asserted at
// (spec §4.6 "Bounds model").
type Bound struct {
	Value  *big.Rat
	Strict bool
	Reason variable.Literal
	Level  int
}

// DisequalEntry records one x != value fact.
type DisequalEntry struct {
	Value  *big.Rat
	Reason variable.Literal
}

func improvesLower(next, cur *Bound) bool {
	if cur == nil {
		return true
	}
	c := next.Value.Cmp(cur.Value)
	if c > 0 {
		return true
	}
	return c == 0 && next.Strict && !cur.Strict
}

func improvesUpper(next, cur *Bound) bool {
	if cur == nil {
		return true
	}
	c := next.Value.Cmp(cur.Value)
	if c < 0 {
		return true
	}
	return c == 0 && next.Strict && !cur.Strict
}

type boundKind int

const (
	lowerKind boundKind = iota
	upperKind
	diseqKind
)

type undoEntry struct {
	kind      boundKind
	v         variable.Variable
	prevLower *Bound
	prevUpper *Bound
	prevLen   int
	level     int
}

// CDBoundsModel is the context-dependent per-variable bounds and
// disequality model (spec §4.6 "Bounds model"): every update is logged
// so that OnPop can restore the exact prior mapping, the same pattern
// ctx.CDO/CDList use for their own undo trails but specialized here
// because variables arrive dynamically rather than being known at
// construction time.
type CDBoundsModel struct {
	c     *ctx.Context
	lower map[variable.Variable]*Bound
	upper map[variable.Variable]*Bound
	diseq map[variable.Variable][]DisequalEntry
	log   []undoEntry

	conflicted map[variable.Variable]bool
}

// NewCDBoundsModel creates a bounds model registered against c so that
// Context.Pop/PopTo drives its undo log.
func NewCDBoundsModel(c *ctx.Context) *CDBoundsModel {
	m := &CDBoundsModel{
		c:          c,
		lower:      make(map[variable.Variable]*Bound),
		upper:      make(map[variable.Variable]*Bound),
		diseq:      make(map[variable.Variable][]DisequalEntry),
		conflicted: make(map[variable.Variable]bool),
	}
	c.Register(m)
	return m
}

// Lower and Upper return the current tightest bound for v, if any.
func (m *CDBoundsModel) Lower(v variable.Variable) (*Bound, bool) { b, ok := m.lower[v]; return b, ok }
func (m *CDBoundsModel) Upper(v variable.Variable) (*Bound, bool) { b, ok := m.upper[v]; return b, ok }

// Disequalities returns the disequality facts currently asserted on v.
func (m *CDBoundsModel) Disequalities(v variable.Variable) []DisequalEntry { return m.diseq[v] }

// InConflict reports whether v's bounds (and disequalities) are
// jointly unsatisfiable.
func (m *CDBoundsModel) InConflict(v variable.Variable) bool { return m.conflicted[v] }

// ConflictedVariables lists every variable currently in conflict.
func (m *CDBoundsModel) ConflictedVariables() []variable.Variable {
	out := make([]variable.Variable, 0, len(m.conflicted))
	for v := range m.conflicted {
		out = append(out, v)
	}
	return out
}

// UpdateLowerBound installs b as v's lower bound if it strictly
// improves on the current one, returning whether it was installed.
func (m *CDBoundsModel) UpdateLowerBound(v variable.Variable, b Bound) bool {
	cur := m.lower[v]
	if !improvesLower(&b, cur) {
		return false
	}
	m.log = append(m.log, undoEntry{kind: lowerKind, v: v, prevLower: cur, level: m.c.Level()})
	nb := b
	m.lower[v] = &nb
	m.checkConflict(v)
	return true
}

// UpdateUpperBound is the upper-bound analogue of UpdateLowerBound.
func (m *CDBoundsModel) UpdateUpperBound(v variable.Variable, b Bound) bool {
	cur := m.upper[v]
	if !improvesUpper(&b, cur) {
		return false
	}
	m.log = append(m.log, undoEntry{kind: upperKind, v: v, prevUpper: cur, level: m.c.Level()})
	nb := b
	m.upper[v] = &nb
	m.checkConflict(v)
	return true
}

// AddDisequality records x != value, returning false if that exact
// value was already recorded as disequal.
func (m *CDBoundsModel) AddDisequality(v variable.Variable, value *big.Rat, reason variable.Literal) bool {
	for _, d := range m.diseq[v] {
		if d.Value.Cmp(value) == 0 {
			return false
		}
	}
	prevLen := len(m.diseq[v])
	m.diseq[v] = append(m.diseq[v], DisequalEntry{Value: value, Reason: reason})
	m.log = append(m.log, undoEntry{kind: diseqKind, v: v, prevLen: prevLen, level: m.c.Level()})
	m.checkConflict(v)
	return true
}

func (m *CDBoundsModel) checkConflict(v variable.Variable) {
	lo, up := m.lower[v], m.upper[v]
	conflict := false
	if lo != nil && up != nil {
		c := lo.Value.Cmp(up.Value)
		switch {
		case c > 0:
			conflict = true
		case c == 0 && (lo.Strict || up.Strict):
			conflict = true
		case c == 0:
			for _, d := range m.diseq[v] {
				if d.Value.Cmp(lo.Value) == 0 {
					conflict = true
					break
				}
			}
		}
	}
	if conflict {
		m.conflicted[v] = true
	} else {
		delete(m.conflicted, v)
	}
}

// OnPop implements ctx.Notify, unwinding every undo entry recorded at
// a level above the popped-to level.
func (m *CDBoundsModel) OnPop(level int) {
	touched := make(map[variable.Variable]bool)
	for len(m.log) > 0 && m.log[len(m.log)-1].level > level {
		e := m.log[len(m.log)-1]
		m.log = m.log[:len(m.log)-1]
		switch e.kind {
		case lowerKind:
			if e.prevLower == nil {
				delete(m.lower, e.v)
			} else {
				m.lower[e.v] = e.prevLower
			}
		case upperKind:
			if e.prevUpper == nil {
				delete(m.upper, e.v)
			} else {
				m.upper[e.v] = e.prevUpper
			}
		case diseqKind:
			m.diseq[e.v] = m.diseq[e.v][:e.prevLen]
			if len(m.diseq[e.v]) == 0 {
				delete(m.diseq, e.v)
			}
		}
		touched[e.v] = true
	}
	for v := range touched {
		m.checkConflict(v)
	}
}
