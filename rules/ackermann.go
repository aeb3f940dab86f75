package rules

import (
	"github.com/xDarkicex/mcsat/clause"
	"github.com/xDarkicex/mcsat/variable"
)

// AckermannLemma builds the congruence clause (f(a)=f(b)) ∨ ¬(a=b):
// the Ackermann rule's one and only obligation, per cvc4's
// ackermann_rule.cpp. Equality/Ackermann is specified only at the
// interface level (spec §1, §6); this constructor is the concrete
// shape a future equality plugin calls, without that plugin itself
// being part of the core.
func AckermannLemma(db *clause.DB, fEq, aEq variable.Literal) clause.CRef {
	return db.Commit([]variable.Literal{fEq, aEq.Negate()}, Ackermann)
}
