package solver

import (
	"github.com/xDarkicex/mcsat/clause"
	"github.com/xDarkicex/mcsat/rules"
	"github.com/xDarkicex/mcsat/trail"
	"github.com/xDarkicex/mcsat/variable"
)

// analyzeConflict performs Boolean 1-UIP conflict analysis (spec §4.5
// "Conflict analysis (1-UIP)", steps 1-8), grounded on the teacher's
// sat/conflict_analysis.go FirstUIPAnalyzer.Analyze, reworked over
// variable.Literal/clause.CRef/rules.Resolver in place of the
// teacher's string-keyed Literal/*Clause. It returns the committed
// resolvent, the level to backtrack to, and whether the conflict was
// already at level 0 (logical UNSAT).
func (s *Solver) analyzeConflict() (cr clause.CRef, backtrackLevel int, unsatLevel0 bool) {
	level := s.tr.DecisionLevel()
	conflicts := s.tr.InconsistentPropagations()
	conflictCR := conflicts[0]
	conflictClause := s.db.Get(conflictCR)
	if conflictClause.Rule == rules.Resolution {
		s.bumpLearntActivity(conflictCR)
	}

	resolver := rules.NewResolver(conflictClause.Literals)

	varsSeen := make(map[variable.Variable]bool)
	varsWithReason := make(map[variable.Variable]bool)
	count := 0
	for _, l := range conflictClause.Literals {
		if s.tr.HasValue(l.Var()) && s.tr.DecisionLevelOf(l.Var()) == level {
			varsSeen[l.Var()] = true
			count++
			if s.tr.HasReason(l.Var()) {
				varsWithReason[l.Var()] = true
			}
		}
	}

	pos := s.tr.Size() - 1
	blockedBySemanticDecision := false
	for count > 1 && pos >= 0 {
		v := s.tr.ElementAt(pos).Var
		if !varsWithReason[v] {
			pos--
			continue
		}
		elem := s.tr.ElementAt(pos)
		if elem.Type == trail.BooleanDecision || elem.Type == trail.SemanticDecision {
			if elem.Type == trail.SemanticDecision && s.tr.DecisionLevelOf(v) == level {
				blockedBySemanticDecision = true
			}
			break
		}

		reasonCR := s.tr.Reason(v)
		reasonLits := s.db.Get(reasonCR).Literals
		resolver.ResolveOut(v, reasonLits)
		count--

		for _, rl := range reasonLits {
			if rl.Var() == v || varsSeen[rl.Var()] {
				continue
			}
			if s.tr.HasValue(rl.Var()) && s.tr.DecisionLevelOf(rl.Var()) == level {
				varsSeen[rl.Var()] = true
				count++
				if s.tr.HasReason(rl.Var()) {
					varsWithReason[rl.Var()] = true
				}
			}
		}
		pos--
	}

	cr = resolver.Commit(s.db, rules.Resolution)
	s.registerLearnt(cr)

	if count > 1 || blockedBySemanticDecision {
		// Semantic blockade: no Boolean 1-UIP exists at this level.
		// Request a pop to L-1 and let the solver re-decide on the
		// resolvent after it (spec §4.5 step 8).
		return cr, level - 1, false
	}

	return cr, s.computeBacktrackLevel(cr, level), level == 0
}

// computeBacktrackLevel returns the highest decision level, strictly
// below level, among cr's literals: the standard non-chronological
// backjump target. A resolvent with no literal below level backjumps
// to 0.
func (s *Solver) computeBacktrackLevel(cr clause.CRef, level int) int {
	best := 0
	for _, l := range s.db.Get(cr).Literals {
		if !s.tr.HasValue(l.Var()) {
			continue
		}
		lvl := s.tr.DecisionLevelOf(l.Var())
		if lvl < level && lvl > best {
			best = lvl
		}
	}
	return best
}
