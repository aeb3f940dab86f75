// Package boolean is the Boolean theory plugin: Tseitin CNF
// conversion of propositional structure into input clauses, and a
// two-watched-literal BCP plugin dispatched through the same
// plugin.Plugin contract the arithmetic plugin implements (spec §2
// "CNF plugin", §6 "Plugin interface"). Grounded on the teacher's
// sat/cnf_converter.go Tseitin transform, reworked over
// variable.Literal/clause.DB instead of string-keyed Literal/CNF, and
// on yass/gophersat's watcher-list idiom for BCP.
package boolean

import (
	"strconv"

	"github.com/xDarkicex/mcsat/clause"
	"github.com/xDarkicex/mcsat/mlog"
	"github.com/xDarkicex/mcsat/term"
	"github.com/xDarkicex/mcsat/variable"
)

var log = mlog.For("boolean")

// Converter performs a Tseitin transformation of propositional
// structure (spec's CNF plugin, specified at the interface level):
// each connective introduces a fresh auxiliary Boolean variable
// related to its children by the standard equisatisfiable clause set,
// committed directly into db rather than buffered the way the
// teacher's CNFConverter.cnf field does, since our clause.DB already
// is the buffer.
type Converter struct {
	vdb *variable.DB
	db  *clause.DB

	committed []clause.CRef
}

// NewConverter creates a Tseitin converter committing clauses into db
// and interning auxiliary/atom variables into vdb.
func NewConverter(vdb *variable.DB, db *clause.DB) *Converter {
	return &Converter{vdb: vdb, db: db}
}

// Assert Tseitin-converts t and commits a unit clause forcing its root
// true, mirroring ConvertExpression's final "add unit clause to
// ensure root is true" step. It returns every clause committed along
// the way, in commit order, so the caller can wire fresh watches onto
// each (spec §4.5 "Assertion intake").
func (c *Converter) Assert(t term.Term) []clause.CRef {
	root := c.transform(t)
	c.commit([]variable.Literal{variable.Lit(root, true)}, clause.RuleInput)
	log.WithField("clauses", c.db.NumClauses()).Debug("assertion converted to CNF")
	out := c.committed
	c.committed = nil
	return out
}

func (c *Converter) commit(lits []variable.Literal, rule clause.RuleID) clause.CRef {
	cr := c.db.Commit(lits, rule)
	c.committed = append(c.committed, cr)
	return cr
}

func (c *Converter) transform(t term.Term) variable.Variable {
	switch t.Kind() {
	case term.KindNot:
		child := c.transform(t.Children()[0])
		aux := c.freshAux()
		// aux <-> ¬child: (aux ∨ child) ∧ (¬aux ∨ ¬child)
		c.commit([]variable.Literal{variable.Lit(aux, true), variable.Lit(child, true)}, clause.RuleInput)
		c.commit([]variable.Literal{variable.Lit(aux, false), variable.Lit(child, false)}, clause.RuleInput)
		return aux

	case term.KindAnd:
		children := t.Children()
		childVars := make([]variable.Variable, len(children))
		for i, ch := range children {
			childVars[i] = c.transform(ch)
		}
		aux := c.freshAux()
		// (¬aux ∨ childi) for each child
		for _, cv := range childVars {
			c.commit([]variable.Literal{variable.Lit(aux, false), variable.Lit(cv, true)}, clause.RuleInput)
		}
		// (aux ∨ ¬child1 ∨ ... ∨ ¬childN)
		lits := make([]variable.Literal, 0, len(childVars)+1)
		lits = append(lits, variable.Lit(aux, true))
		for _, cv := range childVars {
			lits = append(lits, variable.Lit(cv, false))
		}
		c.commit(lits, clause.RuleInput)
		return aux

	case term.KindOr:
		children := t.Children()
		childVars := make([]variable.Variable, len(children))
		for i, ch := range children {
			childVars[i] = c.transform(ch)
		}
		aux := c.freshAux()
		// (¬aux ∨ child1 ∨ ... ∨ childN)
		lits := make([]variable.Literal, 0, len(childVars)+1)
		lits = append(lits, variable.Lit(aux, false))
		for _, cv := range childVars {
			lits = append(lits, variable.Lit(cv, true))
		}
		c.commit(lits, clause.RuleInput)
		// (aux ∨ ¬childi) for each child
		for _, cv := range childVars {
			c.commit([]variable.Literal{variable.Lit(aux, true), variable.Lit(cv, false)}, clause.RuleInput)
		}
		return aux

	case term.KindImplies:
		ch := t.Children()
		a, b := c.transform(ch[0]), c.transform(ch[1])
		aux := c.freshAux()
		// aux <-> (a -> b) i.e. aux <-> (¬a ∨ b)
		c.commit([]variable.Literal{variable.Lit(aux, false), variable.Lit(a, false), variable.Lit(b, true)}, clause.RuleInput)
		c.commit([]variable.Literal{variable.Lit(aux, true), variable.Lit(a, true)}, clause.RuleInput)
		c.commit([]variable.Literal{variable.Lit(aux, true), variable.Lit(b, false)}, clause.RuleInput)
		return aux

	case term.KindIff:
		ch := t.Children()
		a, b := c.transform(ch[0]), c.transform(ch[1])
		aux := c.freshAux()
		// aux <-> (a <-> b)
		c.commit([]variable.Literal{variable.Lit(aux, false), variable.Lit(a, false), variable.Lit(b, true)}, clause.RuleInput)
		c.commit([]variable.Literal{variable.Lit(aux, false), variable.Lit(a, true), variable.Lit(b, false)}, clause.RuleInput)
		c.commit([]variable.Literal{variable.Lit(aux, true), variable.Lit(a, true), variable.Lit(b, true)}, clause.RuleInput)
		c.commit([]variable.Literal{variable.Lit(aux, true), variable.Lit(a, false), variable.Lit(b, false)}, clause.RuleInput)
		return aux

	default:
		// An atom or a relational (arithmetic) term: interned as-is,
		// letting the arithmetic plugin's Check recognize it later.
		return c.vdb.Intern(t, variable.Bool)
	}
}

func (c *Converter) freshAux() variable.Variable {
	name := term.Atom("$tseitin" + strconv.Itoa(c.vdb.NumVariables()))
	return c.vdb.Intern(name, variable.Bool)
}
