package solver

import (
	"sort"

	"github.com/xDarkicex/mcsat/clause"
)

// Learnt-clause activity bump/rescale (spec §4.5 "Learnt-clause
// activity"): scores are bumped on reuse and rescaled once any score
// exceeds activityRescaleThreshold, the same adaptive-increment idiom
// arith.VariablePriorityQueue uses for VSIDS. Per the spec's correction
// of the source's conflict_analysis.cc bug, rescaling walks the FULL
// learnt pool, not a half-open range starting over at begin() each
// time.
const (
	activityRescaleThreshold = 1e20
	activityRescaleFactor    = 1e-20
)

// registerLearnt tracks cr as a learnt clause, seeded at the current
// max activity across the learnt pool so a freshly learnt clause isn't
// the first one GC's shrink pass discards.
func (s *Solver) registerLearnt(cr clause.CRef) {
	s.db.Get(cr).Activity = s.maxLearntActivity()
	s.learnts = append(s.learnts, cr)
}

// bumpLearntActivity increases cr's activity by the current bump
// amount, rescaling every learnt clause's activity (and the bump
// amount itself) if the result crosses activityRescaleThreshold.
func (s *Solver) bumpLearntActivity(cr clause.CRef) {
	cl := s.db.Get(cr)
	cl.Activity += s.learntBump
	if cl.Activity > activityRescaleThreshold {
		s.rescaleLearntActivity()
	}
}

// rescaleLearntActivity divides every learnt clause's activity (and
// the bump amount) by activityRescaleThreshold, iterating the entire
// s.learnts pool.
func (s *Solver) rescaleLearntActivity() {
	for _, cr := range s.learnts {
		s.db.Get(cr).Activity *= activityRescaleFactor
	}
	s.learntBump *= activityRescaleFactor
}

// maxLearntActivity returns the highest activity currently held by any
// learnt clause, or 0 if none have been learnt yet.
func (s *Solver) maxLearntActivity() float64 {
	best := 0.0
	for _, cr := range s.learnts {
		if a := s.db.Get(cr).Activity; a > best {
			best = a
		}
	}
	return best
}

// shrinkLearnts drops the lower-scoring half of the learnt-clause pool
// (spec §4.5 GC integration), sorting s.learnts by Activity descending
// and truncating. Called from runGC before the mark phase. A dropped
// clause leaves only the learnt pool: the Boolean plugin's GCMark
// keeps every clause it watches, learnt clauses included, so the
// arena keeps it and BCP goes on using it.
func (s *Solver) shrinkLearnts() {
	sort.Slice(s.learnts, func(i, j int) bool {
		return s.db.Get(s.learnts[i]).Activity > s.db.Get(s.learnts[j]).Activity
	})
	keep := len(s.learnts) - len(s.learnts)/2
	s.learnts = s.learnts[:keep]
}
