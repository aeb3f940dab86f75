package solver

import (
	"github.com/xDarkicex/mcsat/clause"
	"github.com/xDarkicex/mcsat/variable"
)

// runGC performs the two-phase mark/relocate GC the spec lays out in
// §4.3: collect keep sets from the trail, the learnt pool and every
// plugin, compact the variable database and the clause arena, then
// fan the resulting relocation maps back out to the trail and every
// plugin so their opaque handles stay valid.
func (s *Solver) runGC() {
	s.gcRequested = false

	s.shrinkLearnts()

	keepVars := make(map[variable.Variable]bool)
	keepClauses := make(map[clause.CRef]bool)

	s.tr.GCMark(keepVars, keepClauses)
	s.fabric.GCMark(keepVars, keepClauses)
	for _, cr := range s.learnts {
		keepClauses[cr] = true
	}

	varReloc := s.vdb.PerformGC(keepVars)
	clauseReloc := s.db.Relocate(keepClauses, varReloc)

	s.tr.GCRelocate(varReloc, clauseReloc)
	s.fabric.GCRelocate(varReloc, clauseReloc)

	newLearnts := s.learnts[:0]
	for _, cr := range s.learnts {
		if ncr := clauseReloc.Apply(cr); ncr != clause.Null {
			newLearnts = append(newLearnts, ncr)
		}
	}
	s.learnts = newLearnts

	if s.backtrackHint != clause.Null {
		s.backtrackHint = clauseReloc.Apply(s.backtrackHint)
	}

	log.WithField("vars", s.vdb.NumVariables()).WithField("clauses", s.db.NumClauses()).Debug("GC complete")
}
