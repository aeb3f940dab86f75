package arith

import "github.com/xDarkicex/mcsat/variable"

// ConstraintState classifies a constraint by how many of its
// variables still lack a value (spec §4.6 "Unit propagation").
type ConstraintState int

const (
	NotUnit ConstraintState = iota
	Unit
	FullyAssigned
)

// UnitInfo is the result of scanning a constraint's variables.
type UnitInfo struct {
	State   ConstraintState
	Unbound variable.Variable
}

// ComputeUnitInfo scans c's variables through isAssigned, classifying
// it as fully assigned, unit in exactly one variable, or not unit.
func ComputeUnitInfo(c LinearConstraint, isAssigned func(variable.Variable) bool) UnitInfo {
	unbound := variable.Null
	count := 0
	for v := range c.Coeffs {
		if v == variable.Null {
			continue
		}
		if !isAssigned(v) {
			count++
			unbound = v
			if count > 1 {
				return UnitInfo{State: NotUnit}
			}
		}
	}
	switch count {
	case 0:
		return UnitInfo{State: FullyAssigned}
	case 1:
		return UnitInfo{State: Unit, Unbound: unbound}
	default:
		return UnitInfo{State: NotUnit}
	}
}

// ConstraintID indexes into the owning plugin's constraint slice.
type ConstraintID int

// WatchManager tracks, for each arithmetic variable, which constraints
// mention it. When a variable is assigned, Notify returns exactly the
// constraints that need their UnitInfo recomputed, instead of
// rescanning the whole constraint set — the same role cvc4's
// AssignedWatchManager plays for fm_plugin (original_source/src/mcsat/
// fm/fm_plugin.cpp).
type WatchManager struct {
	watches map[variable.Variable][]ConstraintID
}

// NewWatchManager creates an empty watch manager.
func NewWatchManager() *WatchManager {
	return &WatchManager{watches: make(map[variable.Variable][]ConstraintID)}
}

// Watch registers id as interested in v's assignment.
func (w *WatchManager) Watch(v variable.Variable, id ConstraintID) {
	w.watches[v] = append(w.watches[v], id)
}

// Notify returns the constraints watching v, in registration order.
func (w *WatchManager) Notify(v variable.Variable) []ConstraintID {
	return w.watches[v]
}

// Relocate rebuilds the watch map under a GC variable relocation, so
// watches keyed on a pre-GC variable index still match the trail
// elements Plugin.Propagate scans after the variable database compacts
// (spec §4.3 "relocation map").
func (w *WatchManager) Relocate(varReloc variable.Relocation) {
	relocated := make(map[variable.Variable][]ConstraintID, len(w.watches))
	for v, ids := range w.watches {
		relocated[varReloc.Apply(v)] = ids
	}
	w.watches = relocated
}
