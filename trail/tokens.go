package trail

import (
	"github.com/pkg/errors"

	"github.com/xDarkicex/mcsat/clause"
	"github.com/xDarkicex/mcsat/variable"
)

// PropagationMode climbs in strength across a fixpoint round (spec
// §4.5 "Propagation fixpoint").
type PropagationMode int

const (
	// PropagationInit settles the trail immediately after assertion
	// intake.
	PropagationInit PropagationMode = iota
	// PropagationNormal runs between decisions.
	PropagationNormal
	// PropagationComplete runs only when no plugin wants to decide, as
	// a completeness check.
	PropagationComplete
)

// PropagationToken is handed to exactly one plugin for one dispatch
// call. A plugin never writes the trail directly (spec §4.4 "A plugin
// never writes the trail directly").
type PropagationToken struct {
	t    *Trail
	mode PropagationMode
	used bool
}

// NewPropagationToken creates a token for one dispatch call in the
// given mode.
func (t *Trail) NewPropagationToken(mode PropagationMode) *PropagationToken {
	return &PropagationToken{t: t, mode: mode}
}

// Mode reports the propagation strength this round is running at.
func (tok *PropagationToken) Mode() PropagationMode { return tok.mode }

// Used reports whether the token recorded any propagation; an unused
// token after a dispatch round signals fixpoint (spec §4.4).
func (tok *PropagationToken) Used() bool { return tok.used }

// Propagate records a clausal propagation: l is forced true because
// reason is a clause with every other literal false (spec §3
// "CLAUSAL_PROPAGATION").
func (tok *PropagationToken) Propagate(l variable.Literal, reason clause.CRef) {
	tok.used = true
	tok.t.pushClausal(l, reason)
}

// PropagateSemantic records a semantic propagation: l is forced true
// because its atom evaluates under the current model, explained
// on-demand by provider (spec §3 "SEMANTIC_PROPAGATION").
func (tok *PropagationToken) PropagateSemantic(l variable.Literal, provider ReasonProvider) {
	tok.used = true
	tok.t.pushSemantic(l, provider)
}

// DecisionToken is handed to exactly one plugin per decide() call; at
// most one literal or (variable, value) pair may be recorded (spec
// §4.4 "Decision tokens").
type DecisionToken struct {
	t    *Trail
	used bool
}

// NewDecisionToken creates a fresh, unused decision token.
func (t *Trail) NewDecisionToken() *DecisionToken {
	return &DecisionToken{t: t}
}

// Used reports whether the token recorded a decision.
func (tok *DecisionToken) Used() bool { return tok.used }

// DecideBoolean records a Boolean decision, opening a new decision
// level.
func (tok *DecisionToken) DecideBoolean(l variable.Literal) {
	if tok.used {
		panic(errors.New("trail: DecisionToken used more than once"))
	}
	tok.used = true
	tok.t.pushBooleanDecision(l)
}

// DecideSemantic records a non-Boolean decision binding v to the
// value-variable value, opening a new decision level.
func (tok *DecisionToken) DecideSemantic(v, value variable.Variable) {
	if tok.used {
		panic(errors.New("trail: DecisionToken used more than once"))
	}
	tok.used = true
	tok.t.pushSemanticDecision(v, value)
}

func (t *Trail) requirePushable() {
	if !t.consistent {
		panic(errors.New("trail: push attempted while trail is inconsistent"))
	}
}

func (t *Trail) pushClausal(l variable.Literal, reason clause.CRef) {
	t.requirePushable()
	v := l.Var()
	desired := t.valueForPolarity(l.Polarity())
	if t.HasValue(v) {
		if t.model[v] == desired {
			return
		}
		t.consistent = false
		t.inconsistentPropagations = append(t.inconsistentPropagations, reason)
		return
	}
	t.appendElement(ClausalPropagation, v, desired)
	t.reasonClause[v] = reason
}

func (t *Trail) pushSemantic(l variable.Literal, provider ReasonProvider) {
	t.requirePushable()
	v := l.Var()
	desired := t.valueForPolarity(l.Polarity())
	if t.HasValue(v) {
		if t.model[v] == desired {
			return
		}
		t.consistent = false
		t.inconsistentPropagations = append(t.inconsistentPropagations, t.materializeReason(l, provider))
		return
	}
	t.appendElement(SemanticPropagation, v, desired)
	t.reasonProvider[v] = provider
}

func (t *Trail) pushBooleanDecision(l variable.Literal) {
	t.requirePushable()
	t.newDecisionLevel()
	t.appendElement(BooleanDecision, l.Var(), t.valueForPolarity(l.Polarity()))
}

func (t *Trail) pushSemanticDecision(v, value variable.Variable) {
	t.requirePushable()
	t.newDecisionLevel()
	t.appendElement(SemanticDecision, v, value)
}

func (t *Trail) valueForPolarity(polarity bool) variable.Variable {
	if polarity {
		return t.trueV
	}
	return t.falseV
}

func (t *Trail) appendElement(typ ElementType, v, value variable.Variable) {
	pos := len(t.elements)
	t.elements = append(t.elements, Element{Type: typ, Var: v})
	t.posOf[v] = pos
	t.GrowModel(v)
	t.model[v] = value
}

// materializeReason builds and commits the implying clause for l from
// provider's premises without installing it as v's cached reason (used
// only to produce a CRef for the inconsistent-propagation list).
func (t *Trail) materializeReason(l variable.Literal, provider ReasonProvider) clause.CRef {
	premises := provider.Explain(l)
	lits := make([]variable.Literal, 0, len(premises)+1)
	lits = append(lits, l)
	for _, p := range premises {
		lits = append(lits, p.Negate())
	}
	return t.clauses.Commit(lits, clause.RuleInput)
}
