package arith

import "math/big"

// Picker implements the value-picking heuristic of spec §4.6 "Value
// picking": given the current bounds and disequalities on a unit
// variable, choose a concrete value consistent with all of them,
// preferring small integers and reusing the last pick when it is
// still feasible. Grounded on original_source/src/mcsat/fm/
// fm_plugin.cpp's pick_value, whose integer-nearest-middle,
// bisection-around-the-midpoint, and bounded-scan-past-disequalities cases
// this mirrors.
type Picker struct {
	cache map[interface{}]*big.Rat
}

// NewPicker creates an empty picker. Cache keys are caller-supplied
// (typically the arithmetic variable being picked for).
func NewPicker() *Picker { return &Picker{cache: make(map[interface{}]*big.Rat)} }

var (
	hundred = big.NewRat(100, 1)
	half    = big.NewRat(1, 2)
	zero    = new(big.Rat)
)

func feasible(v *big.Rat, lower, upper *Bound, diseq []DisequalEntry) bool {
	if lower != nil {
		if lower.Strict && v.Cmp(lower.Value) <= 0 {
			return false
		}
		if !lower.Strict && v.Cmp(lower.Value) < 0 {
			return false
		}
	}
	if upper != nil {
		if upper.Strict && v.Cmp(upper.Value) >= 0 {
			return false
		}
		if !upper.Strict && v.Cmp(upper.Value) > 0 {
			return false
		}
	}
	for _, d := range diseq {
		if v.Cmp(d.Value) == 0 {
			return false
		}
	}
	return true
}

// scan walks outward from start in steps of stride (±1, ±2, …) until a
// feasible value is found. Since diseq is finite, this always
// terminates within len(diseq)+2 steps in either direction.
func scan(start *big.Rat, stride *big.Rat, lower, upper *Bound, diseq []DisequalEntry) *big.Rat {
	if feasible(start, lower, upper, diseq) {
		return start
	}
	limit := len(diseq) + 2
	for i := 1; i <= limit; i++ {
		delta := new(big.Rat).Mul(stride, big.NewRat(int64(i), 1))
		up := new(big.Rat).Add(start, delta)
		if feasible(up, lower, upper, diseq) {
			return up
		}
		down := new(big.Rat).Sub(start, delta)
		if feasible(down, lower, upper, diseq) {
			return down
		}
	}
	// Bounds and disequalities were already checked for joint
	// satisfiability by CDBoundsModel.checkConflict; reaching here means
	// the caller picked for a variable in conflict, a usage error.
	panic("arith: Picker.scan exhausted without finding a feasible value")
}

func isInt(v *big.Rat) bool { return v.IsInt() }

func floorRat(v *big.Rat) *big.Rat {
	q := new(big.Int).Div(v.Num(), v.Denom())
	return new(big.Rat).SetInt(q)
}

func ceilRat(v *big.Rat) *big.Rat {
	f := floorRat(v)
	if f.Cmp(v) == 0 {
		return f
	}
	return new(big.Rat).Add(f, big.NewRat(1, 1))
}

// Pick chooses a value for a unit variable bounded by lower/upper and
// constrained away from diseq, integer-valued if isInteger. key
// identifies the variable for cache reuse across calls; pass nil to
// disable caching.
func (p *Picker) Pick(key interface{}, lower, upper *Bound, diseq []DisequalEntry, isInteger bool) *big.Rat {
	if key != nil {
		if cached, ok := p.cache[key]; ok && feasible(cached, lower, upper, diseq) {
			return cached
		}
	}
	v := p.pick(lower, upper, diseq, isInteger)
	if key != nil {
		p.cache[key] = v
	}
	return v
}

func (p *Picker) pick(lower, upper *Bound, diseq []DisequalEntry, isInteger bool) *big.Rat {
	switch {
	case lower != nil && upper != nil:
		mid := new(big.Rat).Add(lower.Value, upper.Value)
		mid.Mul(mid, half)
		if isInteger {
			candidate := roundNearest(mid)
			if !feasible(candidate, lower, upper, diseq) {
				candidate = scan(candidate, big.NewRat(1, 1), lower, upper, diseq)
			}
			return candidate
		}
		if feasible(mid, lower, upper, diseq) {
			return mid
		}
		// Try points on both sides of the midpoint, a quarter of the span
		// away at first and halving that offset each round, until one is
		// clear of every disequality; failing that, scan outward from the
		// midpoint in steps of 1/1000.
		span := new(big.Rat).Sub(upper.Value, lower.Value)
		step := new(big.Rat).Quo(span, big.NewRat(4, 1))
		for i := 0; i < len(diseq)+4; i++ {
			candidate := new(big.Rat).Add(mid, step)
			if feasible(candidate, lower, upper, diseq) {
				return candidate
			}
			candidate = new(big.Rat).Sub(mid, step)
			if feasible(candidate, lower, upper, diseq) {
				return candidate
			}
			step.Mul(step, half)
		}
		return scan(mid, big.NewRat(1, 1000), lower, upper, diseq)

	case lower != nil:
		var start *big.Rat
		if lower.Value.Sign() >= 0 {
			start = new(big.Rat).Add(lower.Value, hundred)
		} else if feasible(zero, lower, upper, diseq) {
			start = new(big.Rat).Set(zero)
		} else {
			start = new(big.Rat).Add(lower.Value, big.NewRat(1, 1))
		}
		if isInteger {
			start = roundNearest(start)
		}
		return scan(start, big.NewRat(1, 1), lower, upper, diseq)

	case upper != nil:
		var start *big.Rat
		if upper.Value.Sign() <= 0 {
			start = new(big.Rat).Sub(upper.Value, hundred)
		} else {
			start = new(big.Rat).Set(zero)
		}
		if isInteger {
			start = roundNearest(start)
		}
		return scan(start, big.NewRat(1, 1), lower, upper, diseq)

	default:
		start := new(big.Rat).Set(zero)
		return scan(start, big.NewRat(1, 1), lower, upper, diseq)
	}
}

// roundNearest rounds v to the nearest integer, breaking ties toward
// zero (the "bias toward 0" rule spec §4.6 describes for the
// integer-nearest-middle case).
func roundNearest(v *big.Rat) *big.Rat {
	if isInt(v) {
		return new(big.Rat).Set(v)
	}
	f := floorRat(v)
	c := ceilRat(v)
	df := new(big.Rat).Sub(v, f)
	dc := new(big.Rat).Sub(c, v)
	cmp := df.Cmp(dc)
	switch {
	case cmp < 0:
		return f
	case cmp > 0:
		return c
	default:
		if f.Sign() >= 0 {
			return f
		}
		return c
	}
}
