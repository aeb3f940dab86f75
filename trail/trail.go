// Package trail implements the solver's authoritative assignment
// record (spec §3 "Trail", §4.4). Plugins never write it directly:
// they are handed propagation/decision tokens for one dispatch round
// and the trail applies their recorded work, enforcing the ordering
// and consistency invariants itself.
package trail

import (
	"github.com/pkg/errors"

	"github.com/xDarkicex/mcsat/clause"
	"github.com/xDarkicex/mcsat/ctx"
	"github.com/xDarkicex/mcsat/mlog"
	"github.com/xDarkicex/mcsat/term"
	"github.com/xDarkicex/mcsat/variable"
)

var log = mlog.For("trail")

// ElementType discriminates the four kinds of trail element (spec §3).
type ElementType int

const (
	BooleanDecision ElementType = iota
	SemanticDecision
	ClausalPropagation
	SemanticPropagation
)

// Element is one trail entry: it records only the variable that
// became assigned and the event that assigned it (spec §3).
type Element struct {
	Type ElementType
	Var  variable.Variable
}

// ReasonProvider supplies, on demand, the literals that imply the
// propagation of l; every literal it returns must already be in the
// trail before l (spec §4.4 "reason providers"). The arithmetic
// plugin's semantic propagations use this instead of eagerly
// committing a clause for every model-evaluated atom.
type ReasonProvider interface {
	Explain(l variable.Literal) []variable.Literal
}

// Trail is the solver's assignment record.
type Trail struct {
	clauses *clause.DB // arena used to materialize on-demand reasons

	elements   []Element
	levelStart []int // levelStart[k] = trail length when level k began

	posOf map[variable.Variable]int // variable -> its trail index

	model  []variable.Variable // variable -> value-variable (Null if unassigned)
	trueV  variable.Variable
	falseV variable.Variable

	reasonClause   map[variable.Variable]clause.CRef
	reasonProvider map[variable.Variable]ReasonProvider
	resolvedReason map[variable.Variable]clause.CRef // provider results, cached

	consistent              bool
	inconsistentPropagations []clause.CRef

	backtrackRequested bool
	backtrackLevel     int
}

// New creates an empty trail at decision level 0. trueVar/falseVar are
// the two distinguished Boolean constants the variable database
// interned for term.Atom("true")/"false" (spec §3 "two distinguished
// constants TRUE and FALSE").
func New(clauses *clause.DB, trueVar, falseVar variable.Variable) *Trail {
	return &Trail{
		clauses:        clauses,
		levelStart:     []int{0},
		posOf:          make(map[variable.Variable]int),
		trueV:          trueVar,
		falseV:         falseVar,
		reasonClause:   make(map[variable.Variable]clause.CRef),
		reasonProvider: make(map[variable.Variable]ReasonProvider),
		resolvedReason: make(map[variable.Variable]clause.CRef),
		consistent:     true,
	}
}

// GrowModel extends the model array so variable v can be assigned.
// The solver calls this from a variable.NewVariableNotify listener, so
// every interned variable always has a slot by the time anything
// tries to assign it.
func (t *Trail) GrowModel(v variable.Variable) {
	for len(t.model) <= int(v) {
		t.model = append(t.model, variable.Null)
	}
}

// Size returns the current trail length.
func (t *Trail) Size() int { return len(t.elements) }

// SizeAtLevel returns the trail length at the end of level (spec §4.4
// "size(level)").
func (t *Trail) SizeAtLevel(level int) int {
	if level+1 < len(t.levelStart) {
		return t.levelStart[level+1]
	}
	return len(t.elements)
}

// DecisionLevel returns the current decision level (number of
// decisions taken so far).
func (t *Trail) DecisionLevel() int { return len(t.levelStart) - 1 }

// Consistent reports whether any propagation has contradicted the
// current model since the last pop (spec §4.4 "consistent()").
func (t *Trail) Consistent() bool { return t.consistent }

// HasValue reports whether v is bound in the model.
func (t *Trail) HasValue(v variable.Variable) bool {
	return int(v) < len(t.model) && t.model[v] != variable.Null
}

// Value returns the value-variable v is bound to, or variable.Null if
// unassigned (spec §4.4 "value(literal/variable)").
func (t *Trail) Value(v variable.Variable) variable.Variable {
	if int(v) >= len(t.model) {
		return variable.Null
	}
	return t.model[v]
}

// ValueOfLiteral returns the value-variable l evaluates to under the
// current model, flipping TRUE/FALSE for a negated literal (spec §4.4,
// mirroring cvc4's SolverTrail::value(Literal)).
func (t *Trail) ValueOfLiteral(l variable.Literal) variable.Variable {
	base := t.Value(l.Var())
	if base == variable.Null || l.Polarity() {
		return base
	}
	switch base {
	case t.trueV:
		return t.falseV
	case t.falseV:
		return t.trueV
	default:
		return base
	}
}

// IsTrue reports whether l currently evaluates to the TRUE constant.
func (t *Trail) IsTrue(l variable.Literal) bool { return t.ValueOfLiteral(l) == t.trueV }

// IsFalse reports whether l currently evaluates to the FALSE constant.
func (t *Trail) IsFalse(l variable.Literal) bool { return t.ValueOfLiteral(l) == t.falseV }

// DecisionLevelOf returns the decision level at which v was assigned.
// It panics if v is unassigned: a correct caller always checks
// HasValue first (spec §7 invariant violation).
func (t *Trail) DecisionLevelOf(v variable.Variable) int {
	pos, ok := t.posOf[v]
	if !ok {
		panic(errors.Errorf("trail: DecisionLevelOf called on unassigned variable %v", v))
	}
	return t.levelOfPosition(pos)
}

func (t *Trail) levelOfPosition(pos int) int {
	// levelStart is sorted ascending; find the last level whose start
	// is <= pos. Linear scan is fine: decision-level counts stay small
	// relative to trail growth within one search.
	level := 0
	for i := len(t.levelStart) - 1; i >= 0; i-- {
		if t.levelStart[i] <= pos {
			level = i
			break
		}
	}
	return level
}

// HasReason reports whether v was propagated (as opposed to decided).
func (t *Trail) HasReason(v variable.Variable) bool {
	if _, ok := t.reasonClause[v]; ok {
		return true
	}
	_, ok := t.reasonProvider[v]
	return ok
}

// Reason returns the clause that justifies v's propagation, resolving
// an on-demand provider the first time it is asked (spec §4.4
// "resolves on-demand providers on first call"). It panics if v has no
// reason (a decision, or unassigned): a correct caller always checks
// HasReason first.
func (t *Trail) Reason(v variable.Variable) clause.CRef {
	if cr, ok := t.reasonClause[v]; ok {
		return cr
	}
	if cr, ok := t.resolvedReason[v]; ok {
		return cr
	}
	provider, ok := t.reasonProvider[v]
	if !ok {
		panic(errors.Errorf("trail: Reason called on variable %v with no reason", v))
	}
	lit := variable.Lit(v, t.Value(v) == t.trueV)
	premises := provider.Explain(lit)
	lits := make([]variable.Literal, 0, len(premises)+1)
	lits = append(lits, lit)
	for _, p := range premises {
		lits = append(lits, p.Negate())
	}
	cr := t.clauses.Commit(lits, clause.RuleInput)
	t.resolvedReason[v] = cr
	return cr
}

// InconsistentPropagations lists the clauses whose propagation
// contradicted the current model since the last pop (spec §4.4).
func (t *Trail) InconsistentPropagations() []clause.CRef {
	return t.inconsistentPropagations
}

// RequestBacktrack advisorily asks the solver loop to pop before
// resuming dispatch (spec §4.4). Coalescing to the minimum requested
// level is the solver loop's job (spec §4.5), not the trail's.
func (t *Trail) RequestBacktrack(level int) {
	if !t.backtrackRequested || level < t.backtrackLevel {
		t.backtrackLevel = level
	}
	t.backtrackRequested = true
}

// TakeBacktrackRequest returns and clears any pending backtrack
// request.
func (t *Trail) TakeBacktrackRequest() (level int, ok bool) {
	if !t.backtrackRequested {
		return 0, false
	}
	t.backtrackRequested = false
	return t.backtrackLevel, true
}

// ElementAt returns the i-th trail element.
func (t *Trail) ElementAt(i int) Element { return t.elements[i] }

// newDecisionLevel opens a fresh decision level starting at the
// current trail length.
func (t *Trail) newDecisionLevel() {
	t.levelStart = append(t.levelStart, len(t.elements))
}

// PopToLevel truncates the trail to size(level), unbinding every
// variable beyond it, clearing reasons at those positions, resetting
// consistency, and returning the unbound variables in reverse
// assignment order (spec §4.4 "Pop semantics").
func (t *Trail) PopToLevel(level int) []variable.Variable {
	if level > t.DecisionLevel() {
		panic(errors.Errorf("trail: PopToLevel(%d) requested above current level %d", level, t.DecisionLevel()))
	}
	target := t.SizeAtLevel(level)
	var unset []variable.Variable
	for len(t.elements) > target {
		i := len(t.elements) - 1
		e := t.elements[i]
		unset = append(unset, e.Var)
		t.model[e.Var] = variable.Null
		delete(t.posOf, e.Var)
		delete(t.reasonClause, e.Var)
		delete(t.reasonProvider, e.Var)
		delete(t.resolvedReason, e.Var)
		t.elements = t.elements[:i]
	}
	t.levelStart = t.levelStart[:level+1]
	t.consistent = true
	t.inconsistentPropagations = nil
	return unset
}

// GCMark adds every variable and clause the trail itself still
// references to the keep sets: the two Boolean constants, every
// currently assigned variable, and every reason clause (spec §4.3
// "mark from trail + learnt pool + every plugin").
func (t *Trail) GCMark(keepVars map[variable.Variable]bool, keepClauses map[clause.CRef]bool) {
	keepVars[t.trueV] = true
	keepVars[t.falseV] = true
	for _, e := range t.elements {
		keepVars[e.Var] = true
	}
	for _, cr := range t.reasonClause {
		keepClauses[cr] = true
	}
	for _, cr := range t.resolvedReason {
		keepClauses[cr] = true
	}
}

// GCRelocate rewrites every variable and clause handle the trail holds
// (spec §4.3 "relocate"). A correct caller only invokes this once the
// mark phase has guaranteed every currently-assigned variable survives
// GC; an assigned variable relocating to Null would desynchronize the
// model and is never expected here.
func (t *Trail) GCRelocate(varReloc variable.Relocation, clauseReloc clause.RelocationInfo) {
	t.trueV = varReloc.Apply(t.trueV)
	t.falseV = varReloc.Apply(t.falseV)

	var newModel []variable.Variable
	grow := func(v variable.Variable) {
		for len(newModel) <= int(v) {
			newModel = append(newModel, variable.Null)
		}
	}

	newPosOf := make(map[variable.Variable]int, len(t.posOf))
	for oldV, pos := range t.posOf {
		nv := varReloc.Apply(oldV)
		if nv == variable.Null {
			panic(errors.Errorf("trail: GCRelocate collected assigned variable %v", oldV))
		}
		newPosOf[nv] = pos
		grow(nv)
		newModel[nv] = varReloc.Apply(t.model[oldV])
	}
	t.posOf = newPosOf
	t.model = newModel

	for i := range t.elements {
		t.elements[i].Var = varReloc.Apply(t.elements[i].Var)
	}

	newReasonClause := make(map[variable.Variable]clause.CRef, len(t.reasonClause))
	for v, cr := range t.reasonClause {
		if nv := varReloc.Apply(v); nv != variable.Null {
			if ncr := clauseReloc.Apply(cr); ncr != clause.Null {
				newReasonClause[nv] = ncr
			}
		}
	}
	t.reasonClause = newReasonClause

	newReasonProvider := make(map[variable.Variable]ReasonProvider, len(t.reasonProvider))
	for v, p := range t.reasonProvider {
		if nv := varReloc.Apply(v); nv != variable.Null {
			newReasonProvider[nv] = p
		}
	}
	t.reasonProvider = newReasonProvider

	newResolvedReason := make(map[variable.Variable]clause.CRef, len(t.resolvedReason))
	for v, cr := range t.resolvedReason {
		if nv := varReloc.Apply(v); nv != variable.Null {
			if ncr := clauseReloc.Apply(cr); ncr != clause.Null {
				newResolvedReason[nv] = ncr
			}
		}
	}
	t.resolvedReason = newResolvedReason
}

var _ ctx.Notify = (*popNotifyAdapter)(nil)

// popNotifyAdapter lets a *Trail be registered directly on a
// ctx.Context alongside bounds models and reason maps, so a single
// Context.Pop drives every context-dependent object in lockstep (spec
// §5 "Context-dependent objects observe pops in FIFO order").
type popNotifyAdapter struct {
	t *Trail
}

func (a *popNotifyAdapter) OnPop(level int) { a.t.PopToLevel(level) }

// AsContextNotify exposes the trail as a ctx.Notify for callers that
// want popToLevel to ride along with an existing push/pop cadence
// (the MCSAT loop instead drives PopToLevel explicitly and skips
// this).
func (t *Trail) AsContextNotify() ctx.Notify { return &popNotifyAdapter{t: t} }

// TrueTerm and FalseTerm are the canonical atoms the solver interns once at
// startup for the Boolean constants.
var (
	TrueTerm  = term.Atom("true")
	FalseTerm = term.Atom("false")
)
