package arith

import (
	"math/big"

	"github.com/xDarkicex/mcsat/clause"
	"github.com/xDarkicex/mcsat/ctx"
	"github.com/xDarkicex/mcsat/plugin"
	"github.com/xDarkicex/mcsat/rules"
	"github.com/xDarkicex/mcsat/stats"
	"github.com/xDarkicex/mcsat/term"
	"github.com/xDarkicex/mcsat/trail"
	"github.com/xDarkicex/mcsat/variable"
)

// Plugin is the Fourier-Motzkin arithmetic plugin: it parses asserted
// atoms into LinearConstraints, maintains a bounds model across the
// unassigned arithmetic variables those constraints mention, decides
// values for them via Picker, and explains conflicts via Explain
// (spec §4.6). Grounded on original_source/src/mcsat/fm/fm_plugin.cpp.
type Plugin struct {
	vdb       *variable.DB
	db        *clause.DB
	tr        *trail.Trail
	req       plugin.Request
	st        *stats.Registry
	arithTy   variable.TypeIndex
	isInteger bool

	bounds      *CDBoundsModel
	watch       *WatchManager
	queue       *VariablePriorityQueue
	picker      *Picker
	reasonCache *ctx.CDInsertHashMap[variable.Variable, []variable.Literal]

	constraints []LinearConstraint
	srcLit      []variable.Literal
	byVar       map[variable.Variable]ConstraintID

	scanned         int
	freshConstraint []ConstraintID
}

// NewPlugin constructs the arithmetic plugin. arithTy is the type
// index the plugin's decision variables are interned under (an
// Int/Real type the caller registered on vdb, distinct from
// variable.Bool); c drives the bounds model's undo log the same way
// it drives the trail's. isInteger tells the value-picking heuristic
// whether this solver's arithmetic variables are integer- or
// rational-sorted (spec §4.6 "Value picking" table, which only offers
// the integer-nearest-middle case for integer-sorted variables); one
// Plugin instance owns the whole arithmetic domain, so a solver picks
// a single global sort rather than mixing Int and Real in one run.
func NewPlugin(c *ctx.Context, vdb *variable.DB, db *clause.DB, tr *trail.Trail, req plugin.Request, st *stats.Registry, arithTy variable.TypeIndex, isInteger bool) *Plugin {
	p := &Plugin{
		vdb:         vdb,
		db:          db,
		tr:          tr,
		req:         req,
		st:          st,
		arithTy:     arithTy,
		isInteger:   isInteger,
		bounds:      NewCDBoundsModel(c),
		watch:       NewWatchManager(),
		queue:       NewVariablePriorityQueue(),
		picker:      NewPicker(),
		reasonCache: ctx.NewCDInsertHashMap[variable.Variable, []variable.Literal](c),
		byVar:       make(map[variable.Variable]ConstraintID),
	}
	vdb.NewVariableNotifyListener(func(v variable.Variable) {
		if vdb.TypeIndexOf(v) == arithTy {
			p.queue.Enqueue(v)
		}
	})
	return p
}

func (p *Plugin) Name() string { return "arith" }

func (p *Plugin) Features() plugin.Feature { return plugin.CanPropagate | plugin.CanDecide }

// RatValue implements Valuation over the trail: an assigned
// arithmetic variable's model value is itself a variable interned
// from a constant term.
func (p *Plugin) RatValue(v variable.Variable) (*big.Rat, bool) {
	if !p.tr.HasValue(v) {
		return nil, false
	}
	valVar := p.tr.Value(v)
	t := p.vdb.TermOf(valVar)
	if t.Kind() != term.KindConst {
		return nil, false
	}
	return t.Rat(), true
}

func (p *Plugin) isAssigned(v variable.Variable) bool { return p.tr.HasValue(v) }

// Check observes an asserted atom term; if it is a relation this
// plugin recognizes, the atom's arithmetic leaves are interned and
// the constraint is registered and watched (spec §6 "Check").
func (p *Plugin) Check(t term.Term) {
	if _, ok := kindOfTermKind(t.Kind()); !ok {
		return
	}
	boolVar := p.vdb.Intern(t, variable.Bool)
	if _, ok := p.byVar[boolVar]; ok {
		return
	}
	for _, leaf := range collectAtoms(t) {
		if !p.vdb.HasVariable(leaf) {
			p.vdb.Intern(leaf, p.arithTy)
		}
	}
	lit := variable.Lit(boolVar, true)
	c, ok := Parse(lit, p.vdb)
	if !ok {
		return
	}
	id := ConstraintID(len(p.constraints))
	p.constraints = append(p.constraints, c)
	p.srcLit = append(p.srcLit, lit)
	p.byVar[boolVar] = id
	for _, v := range c.Variables() {
		p.watch.Watch(v, id)
		p.queue.NewVariable(v)
	}
	p.freshConstraint = append(p.freshConstraint, id)
}

func collectAtoms(t term.Term) []term.Term {
	switch t.Kind() {
	case term.KindAtom:
		return []term.Term{t}
	case term.KindConst:
		return nil
	default:
		var out []term.Term
		for _, ch := range t.Children() {
			out = append(out, collectAtoms(ch)...)
		}
		return out
	}
}

// Propagate re-examines only the constraints a newly assigned variable
// could have changed the unit-state of, via WatchManager.Notify, plus
// any constraint Check registered since the last call (which needs its
// first look regardless of trail position): fully-assigned constraints
// are checked against their (if any) asserted atom value, unit
// constraints feed new bounds into the bounds model when their atom is
// already asserted, and unit constraints whose both-sided bounds
// already force a truth value propagate their atom semantically (spec
// §4.6 "Unit propagation"). Grounded on original_source/src/mcsat/fm/
// fm_plugin.cpp's AssignedWatchManager-driven propagate loop, in place
// of rescanning every registered constraint each round.
func (p *Plugin) Propagate(tok *trail.PropagationToken) {
	fresh := p.freshConstraint
	p.freshConstraint = nil
	for _, id := range fresh {
		p.propagateOne(tok, id)
		if !p.tr.Consistent() {
			return
		}
	}
	for p.scanned < p.tr.Size() {
		v := p.tr.ElementAt(p.scanned).Var
		p.scanned++
		for _, id := range p.watch.Notify(v) {
			p.propagateOne(tok, id)
			if !p.tr.Consistent() {
				return
			}
		}
		if id, ok := p.byVar[v]; ok {
			p.propagateOne(tok, id)
			if !p.tr.Consistent() {
				return
			}
		}
	}
}

func (p *Plugin) propagateOne(tok *trail.PropagationToken, id ConstraintID) {
	c := p.constraints[id]
	lit := p.srcLit[id]
	boolVar := lit.Var()
	info := ComputeUnitInfo(c, p.isAssigned)

	switch info.State {
	case FullyAssigned:
		truth, ok := c.Evaluate(p)
		if !ok {
			return
		}
		if p.tr.HasValue(boolVar) {
			assertedTrue := p.tr.IsTrue(variable.Lit(boolVar, true))
			if assertedTrue != truth {
				p.signalConflict(tok, p.explainPremises(id, assertedTrue), rules.FourierMotzkin)
			}
			return
		}
		p.reasonCache.Insert(boolVar, p.explainPremises(id, true)[1:])
		p.st.FMPropagationsS.Inc()
		p.st.Propagations.WithLabelValues(stats.KindSemantic).Inc()
		tok.PropagateSemantic(variable.Lit(boolVar, truth), &cachedReason{p: p, v: boolVar})

	case Unit:
		x := info.Unbound
		if p.tr.HasValue(boolVar) {
			assertedTrue := p.tr.IsTrue(variable.Lit(boolVar, true))
			if !p.deriveBound(c, x, assertedTrue, variable.Lit(boolVar, assertedTrue)) {
				return
			}
			p.req.RequestPropagate()
			// Crossing lower and upper bounds are refuted by Fourier-Motzkin
			// over the two literals that installed them.
			if p.bounds.InConflict(x) {
				lo, _ := p.bounds.Lower(x)
				up, _ := p.bounds.Upper(x)
				if lo.Value.Cmp(up.Value) > 0 || lo.Strict || up.Strict {
					p.signalConflict(tok, []variable.Literal{lo.Reason, up.Reason}, rules.FourierMotzkin)
					return
				}
			}
			// x's bound just tightened without x itself gaining a trail
			// entry, so the other constraints watching x need examining
			// now: the incremental trail scan in Propagate only wakes on
			// a variable's assignment, not a bound update.
			for _, other := range p.watch.Notify(x) {
				if other == id {
					continue
				}
				p.propagateOne(tok, other)
				if !p.tr.Consistent() {
					return
				}
			}
			return
		}
		lower, hasLower := p.bounds.Lower(x)
		upper, hasUpper := p.bounds.Upper(x)
		if !hasLower || !hasUpper {
			return
		}
		truth, ok := impliedByBounds(c, x, lower, upper, p)
		if !ok {
			return
		}
		p.reasonCache.Insert(boolVar, boundReasonLiterals(p, x))
		p.st.FMPropagationsD.Inc()
		p.st.Propagations.WithLabelValues(stats.KindSemantic).Inc()
		tok.PropagateSemantic(variable.Lit(boolVar, truth), &cachedReason{p: p, v: boolVar})
	}
}

// deriveBound installs the bound implied by asserting c (with polarity
// assertedTrue) once c is unit in x, per the standard single-variable
// projection of a linear inequality/equality/disequality: Σ coeff*x +
// rest (kind) 0 becomes x (kind) -rest/coeff, flipping the relation
// direction when dividing by a negative coefficient. When the atom is
// asserted false, c's relation is negated first — which, for GT/GEQ,
// also negates the expression (not(e>0) is (-e>=0), not a mere kind
// swap) since the bounds model only speaks GT/GEQ/EQ/DISTINCT. It
// reports whether the bounds model changed.
func (p *Plugin) deriveBound(c LinearConstraint, x variable.Variable, assertedTrue bool, reason variable.Literal) bool {
	kind := c.Kind
	a := c.GetCoefficient(x)
	rest := restForPivot(c, x, p)
	if !assertedTrue {
		switch kind {
		case EQ:
			kind = DISTINCT
		case DISTINCT:
			kind = EQ
		case GT:
			kind = GEQ
			a, rest = new(big.Rat).Neg(a), new(big.Rat).Neg(rest)
		case GEQ:
			kind = GT
			a, rest = new(big.Rat).Neg(a), new(big.Rat).Neg(rest)
		}
	}
	if a.Sign() == 0 {
		return false
	}
	bound := new(big.Rat).Neg(rest)
	bound.Quo(bound, a)
	flip := a.Sign() < 0
	level := p.tr.DecisionLevelOf(reason.Var())

	switch kind {
	case EQ:
		lo := p.bounds.UpdateLowerBound(x, Bound{Value: bound, Strict: false, Reason: reason, Level: level})
		up := p.bounds.UpdateUpperBound(x, Bound{Value: bound, Strict: false, Reason: reason, Level: level})
		return lo || up
	case DISTINCT:
		return p.bounds.AddDisequality(x, bound, reason)
	case GT, GEQ:
		strict := kind == GT
		if flip {
			return p.bounds.UpdateUpperBound(x, Bound{Value: bound, Strict: strict, Reason: reason, Level: level})
		}
		return p.bounds.UpdateLowerBound(x, Bound{Value: bound, Strict: strict, Reason: reason, Level: level})
	}
	return false
}

// restForPivot folds every coefficient of c other than x's into a
// single constant: the constant term itself, plus coeff*value for
// every other variable, each of which is already assigned whenever c
// is unit in x (spec §4.6 "Unit propagation").
func restForPivot(c LinearConstraint, x variable.Variable, val Valuation) *big.Rat {
	rest := new(big.Rat)
	for v, coeff := range c.Coeffs {
		if v == x {
			continue
		}
		if v == variable.Null {
			rest.Add(rest, coeff)
			continue
		}
		r, ok := val.RatValue(v)
		if !ok {
			continue
		}
		contrib := new(big.Rat).Mul(coeff, r)
		rest.Add(rest, contrib)
	}
	return rest
}

// impliedByBounds checks whether c, unit in x, necessarily holds (or
// necessarily fails) for every value x could take given lower/upper,
// by evaluating the folded single-variable inequality at both
// endpoints (sound because it is monotonic in x).
func impliedByBounds(c LinearConstraint, x variable.Variable, lower, upper *Bound, val Valuation) (truth bool, ok bool) {
	a := c.GetCoefficient(x)
	if a.Sign() == 0 {
		return false, false
	}
	rest := restForPivot(c, x, val)
	evalAt := func(at *big.Rat) *big.Rat {
		r := new(big.Rat).Mul(a, at)
		return r.Add(r, rest)
	}
	satAt := func(e *big.Rat) bool {
		switch c.Kind {
		case EQ:
			return e.Sign() == 0
		case GT:
			return e.Sign() > 0
		case GEQ:
			return e.Sign() >= 0
		case DISTINCT:
			return e.Sign() != 0
		}
		return false
	}
	lo := evalAt(lower.Value)
	hi := evalAt(upper.Value)
	loOK, hiOK := satAt(lo), satAt(hi)
	if c.Kind == DISTINCT && lo.Sign() != hi.Sign() {
		return false, false
	}
	if loOK && hiOK {
		return true, true
	}
	if !loOK && !hiOK && c.Kind != EQ && c.Kind != DISTINCT {
		return false, true
	}
	return false, false
}

func (p *Plugin) signalConflict(tok *trail.PropagationToken, lits []variable.Literal, rule clause.RuleID) {
	p.st.FMConflicts.Inc()
	cr := Explain(p.db, p.vdb, lits, rule)
	tok.Propagate(lits[0].Negate(), cr)
}

// explainPremises gathers the currently-true literals that justify
// why constraint id's variables hold the values they do, plus the
// asserted atom literal itself, for Explain to resolve.
func (p *Plugin) explainPremises(id ConstraintID, assertedTrue bool) []variable.Literal {
	c := p.constraints[id]
	lits := []variable.Literal{variable.Lit(p.srcLit[id].Var(), assertedTrue)}
	for _, v := range c.Variables() {
		if lo, ok := p.bounds.Lower(v); ok {
			lits = append(lits, lo.Reason)
		}
		if up, ok := p.bounds.Upper(v); ok {
			lits = append(lits, up.Reason)
		}
	}
	return lits
}

// boundReasonLiterals collects v's lower and upper bound literals, the
// premises for a bounds-implied (deductive) propagation of a unit
// constraint in v.
func boundReasonLiterals(p *Plugin, v variable.Variable) []variable.Literal {
	var out []variable.Literal
	if lo, ok := p.bounds.Lower(v); ok {
		out = append(out, lo.Reason)
	}
	if up, ok := p.bounds.Upper(v); ok {
		out = append(out, up.Reason)
	}
	return out
}

// cachedReason explains a semantic propagation from the premises
// snapshotted into p.reasonCache at the moment the propagation was
// made, rather than recomputing them from the live bounds model; the
// bounds that justified the propagation may have moved on by the time
// Explain is called. Grounded on original_source/src/mcsat/
// solver_trail.h's ReasonProvider contract and the CDInsertHashMap it
// names as the structure such a provider snapshots into.
type cachedReason struct {
	p *Plugin
	v variable.Variable
}

func (r *cachedReason) Explain(variable.Literal) []variable.Literal {
	lits, ok := r.p.reasonCache.Get(r.v)
	if !ok {
		panic("arith: cachedReason.Explain called for a variable with no cached reason")
	}
	return lits
}

// Decide picks the highest-priority enqueued arithmetic variable and
// assigns it a value chosen by Picker (spec §4.6 "Decisions").
func (p *Plugin) Decide(tok *trail.DecisionToken) {
	for !p.queue.Empty() {
		v := p.queue.Pop()
		if p.tr.HasValue(v) {
			continue
		}
		p.decideValue(tok, v)
		return
	}
}

// DecideWithHints tries each hint literal's variable before falling
// back to the normal queue order.
func (p *Plugin) DecideWithHints(tok *trail.DecisionToken, hints []variable.Literal) {
	for _, h := range hints {
		if id, ok := p.byVar[h.Var()]; ok {
			for _, v := range p.constraints[id].Variables() {
				if !p.tr.HasValue(v) {
					p.decideValue(tok, v)
					return
				}
			}
		}
	}
	p.Decide(tok)
}

func (p *Plugin) decideValue(tok *trail.DecisionToken, v variable.Variable) {
	lower, _ := p.bounds.Lower(v)
	upper, _ := p.bounds.Upper(v)
	diseq := p.bounds.Disequalities(v)
	val := p.picker.Pick(v, lower, upper, diseq, p.isInteger)
	valVar := p.vdb.Intern(term.Const(val), p.arithTy)
	p.st.FMDecisions.Inc()
	p.st.Decisions.Inc()
	tok.DecideSemantic(v, valVar)
}

func (p *Plugin) NotifyAssertion(t term.Term) {}

func (p *Plugin) NotifyBackjump(vars []variable.Variable) {
	for _, v := range vars {
		if p.isArithVariable(v) {
			p.queue.Enqueue(v)
		}
	}
	if p.scanned > p.tr.Size() {
		p.scanned = p.tr.Size()
	}
}

func (p *Plugin) isArithVariable(v variable.Variable) bool {
	for _, c := range p.constraints {
		if _, ok := c.Coeffs[v]; ok {
			return true
		}
	}
	return false
}

func (p *Plugin) NotifyRestart() {}

func (p *Plugin) NotifyConflict() {}

// NotifyConflictResolution bumps every arithmetic variable mentioned
// by the learnt clause's literals, the FM-plugin analogue of VSIDS
// bumping (spec §4.6, mirroring sat.VSIDSHeuristic.Update).
func (p *Plugin) NotifyConflictResolution(cr clause.CRef) {
	cl := p.db.Get(cr)
	for _, l := range cl.Literals {
		if id, ok := p.byVar[l.Var()]; ok {
			for _, v := range p.constraints[id].Variables() {
				p.queue.BumpVariable(v)
			}
		}
	}
}

func (p *Plugin) GCMark(keepVars map[variable.Variable]bool, keepClauses map[clause.CRef]bool) {
	for _, c := range p.constraints {
		for _, v := range c.Variables() {
			keepVars[v] = true
		}
	}
	for _, lit := range p.srcLit {
		keepVars[lit.Var()] = true
	}
}

func (p *Plugin) GCRelocate(varReloc variable.Relocation, clauseReloc clause.RelocationInfo) {
	for i, c := range p.constraints {
		coeffs := make(map[variable.Variable]*big.Rat, len(c.Coeffs))
		for v, coeff := range c.Coeffs {
			coeffs[varReloc.Apply(v)] = coeff
		}
		p.constraints[i] = LinearConstraint{Coeffs: coeffs, Kind: c.Kind}
	}
	for i, lit := range p.srcLit {
		p.srcLit[i] = variable.Lit(varReloc.Apply(lit.Var()), lit.Polarity())
	}
	byVar := make(map[variable.Variable]ConstraintID, len(p.byVar))
	for v, id := range p.byVar {
		byVar[varReloc.Apply(v)] = id
	}
	p.byVar = byVar
	p.watch.Relocate(varReloc)
}
