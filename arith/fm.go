package arith

import (
	"math/big"

	"github.com/xDarkicex/mcsat/clause"
	"github.com/xDarkicex/mcsat/variable"
)

func cloneConstraint(c LinearConstraint) LinearConstraint {
	coeffs := make(map[variable.Variable]*big.Rat, len(c.Coeffs))
	for v, r := range c.Coeffs {
		coeffs[v] = new(big.Rat).Set(r)
	}
	return LinearConstraint{Coeffs: coeffs, Kind: c.Kind}
}

// eliminate combines pos (whose coefficient on target is positive) and
// neg (whose coefficient on target is negative) into a constraint free
// of target, scaling each by a positive multiplier so the target
// coefficients cancel exactly (spec §4.6 "Fourier-Motzkin resolution").
func eliminate(pos, neg LinearConstraint, target variable.Variable) LinearConstraint {
	cPos := pos.GetCoefficient(target)
	cNeg := neg.GetCoefficient(target)
	if cPos.Sign() <= 0 || cNeg.Sign() >= 0 {
		panic("arith: eliminate requires pos/neg coefficients of opposite, nonzero sign")
	}
	m1 := new(big.Rat).Neg(cNeg)
	m2 := new(big.Rat).Set(cPos)
	result := cloneConstraint(pos)
	result.Multiply(m1)
	result.Add(neg, m2)
	return result
}

// isFalse reports whether a fully-eliminated, variable-free constraint
// is unsatisfiable on its own: the trivial-falsity check that
// terminates Fourier-Motzkin elimination.
func isFalse(c LinearConstraint) bool {
	if len(c.Variables()) != 0 {
		return false
	}
	k := c.Constant()
	switch c.Kind {
	case EQ:
		return k.Sign() != 0
	case GT:
		return k.Sign() <= 0
	case GEQ:
		return k.Sign() < 0
	case DISTINCT:
		return k.Sign() == 0
	}
	return false
}

// premise pairs a parsed constraint with the literal it came from, so
// the final explanation clause can be built from the original
// literals rather than the (possibly rescaled) constraints.
type premise struct {
	lit LinearConstraint
	src variable.Literal
}

// resolveCore runs Fourier-Motzkin elimination over premises,
// eliminating one shared variable at a time, until either a trivially
// false constraint remains (success) or no eliminable variable can be
// found (failure — the caller passed a satisfiable or underdetermined
// set).
func resolveCore(premises []premise) (LinearConstraint, []variable.Literal, bool) {
	constraints := make([]LinearConstraint, len(premises))
	lits := make([]variable.Literal, len(premises))
	for i, p := range premises {
		constraints[i] = p.lit
		lits[i] = p.src
	}

	for {
		for _, c := range constraints {
			if isFalse(c) {
				return c, lits, true
			}
		}
		allConst := true
		for _, c := range constraints {
			if len(c.Variables()) != 0 {
				allConst = false
				break
			}
		}
		if allConst {
			acc := constraints[0]
			accLits := []variable.Literal{lits[0]}
			for i := 1; i < len(constraints); i++ {
				acc.Add(constraints[i], big.NewRat(1, 1))
				accLits = append(accLits, lits[i])
			}
			return acc, accLits, isFalse(acc)
		}

		// Find a variable with both a positive- and negative-coefficient
		// occurrence across the current constraint set.
		target := variable.Null
		posIdx, negIdx := -1, -1
		for _, c := range constraints {
			for _, v := range c.Variables() {
				target = v
				posIdx, negIdx = -1, -1
				for i, c2 := range constraints {
					coeff := c2.GetCoefficient(v)
					if coeff.Sign() > 0 && posIdx == -1 {
						posIdx = i
					}
					if coeff.Sign() < 0 && negIdx == -1 {
						negIdx = i
					}
				}
				if posIdx != -1 && negIdx != -1 {
					break
				}
				target = variable.Null
			}
			if target != variable.Null {
				break
			}
		}
		if target == variable.Null {
			return LinearConstraint{}, nil, false
		}

		merged := eliminate(constraints[posIdx], constraints[negIdx], target)
		mergedLits := append(append([]variable.Literal{}, lits[posIdx]), lits[negIdx])

		next := make([]LinearConstraint, 0, len(constraints)-1)
		nextLits := make([]variable.Literal, 0, len(lits)-1)
		for i := range constraints {
			if i == posIdx || i == negIdx {
				continue
			}
			next = append(next, constraints[i])
			nextLits = append(nextLits, lits[i])
		}
		next = append(next, merged)
		nextLits = append(nextLits, mergedLits...)
		constraints, lits = next, nextLits
	}
}

// minimizeResolvent drops premises that are not needed to derive
// falsity, trying each in turn and keeping the drop only if the
// remainder still resolves to false (spec §4.6 "minimizeResolvent").
func minimizeResolvent(premises []premise) []premise {
	cur := premises
	for i := 0; i < len(cur); {
		trial := make([]premise, 0, len(cur)-1)
		trial = append(trial, cur[:i]...)
		trial = append(trial, cur[i+1:]...)
		if len(trial) < 2 {
			i++
			continue
		}
		if _, _, ok := resolveCore(trial); ok {
			cur = trial
			continue
		}
		i++
	}
	return cur
}

// Explain builds the conflict-explanation clause for a set of literals
// whose parsed linear constraints are jointly unsatisfiable: it
// minimizes the premise set, then commits ¬l for each surviving
// literal under rule (rules.FourierMotzkin or rules.FourierMotzkinDiseq).
// Explain panics if the literals do not resolve to a trivially false
// constraint; callers (the plugin's conflict detection) only invoke it
// once CDBoundsModel has already confirmed the conflict.
func Explain(db *clause.DB, vdb *variable.DB, lits []variable.Literal, rule clause.RuleID) clause.CRef {
	premises := make([]premise, 0, len(lits))
	for _, l := range lits {
		c, ok := Parse(l, vdb)
		if !ok {
			panic("arith: Explain given a literal that does not parse as a linear constraint")
		}
		premises = append(premises, premise{lit: c, src: l})
	}
	if _, _, ok := resolveCore(premises); !ok {
		panic("arith: Explain given a satisfiable premise set")
	}
	premises = minimizeResolvent(premises)

	out := make([]variable.Literal, len(premises))
	for i, p := range premises {
		out[i] = p.src.Negate()
	}
	return db.Commit(out, rule)
}
