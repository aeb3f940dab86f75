package arith

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestPickerIntegerNearestMiddle covers spec §4.6's integer-nearest-
// middle case: a range with an exact integer midpoint picks it.
func TestPickerIntegerNearestMiddle(t *testing.T) {
	p := NewPicker()
	lo := &Bound{Value: big.NewRat(2, 1)}
	up := &Bound{Value: big.NewRat(8, 1)}

	v := p.Pick("x", lo, up, nil, true)
	require.Equal(t, 0, v.Cmp(big.NewRat(5, 1)))
}

// TestPickerAvoidsDisequalities covers the "integer picking with
// disequalities" scenario from spec §8: x in [1,3], x != 2 must not
// pick 2.
func TestPickerAvoidsDisequalities(t *testing.T) {
	p := NewPicker()
	lo := &Bound{Value: big.NewRat(1, 1)}
	up := &Bound{Value: big.NewRat(3, 1)}
	diseq := []DisequalEntry{{Value: big.NewRat(2, 1)}}

	v := p.Pick("x", lo, up, diseq, true)
	require.NotEqual(t, 0, v.Cmp(big.NewRat(2, 1)))
	require.True(t, v.Cmp(lo.Value) >= 0)
	require.True(t, v.Cmp(up.Value) <= 0)
}

// TestPickerReusesCachedValueWhenStillFeasible covers the "reuse last
// pick" clause of spec §4.6's value-picking heuristic.
func TestPickerReusesCachedValueWhenStillFeasible(t *testing.T) {
	p := NewPicker()
	lo := &Bound{Value: big.NewRat(0, 1)}
	up := &Bound{Value: big.NewRat(100, 1)}

	first := p.Pick("x", lo, up, nil, true)
	second := p.Pick("x", lo, up, nil, true)
	require.Equal(t, 0, first.Cmp(second))
}

// TestPickerDropsCacheWhenNoLongerFeasible covers the cache-miss path:
// a tightened range that excludes the cached value must pick fresh.
func TestPickerDropsCacheWhenNoLongerFeasible(t *testing.T) {
	p := NewPicker()
	wideLo := &Bound{Value: big.NewRat(0, 1)}
	wideUp := &Bound{Value: big.NewRat(100, 1)}
	p.Pick("x", wideLo, wideUp, nil, true)

	narrowLo := &Bound{Value: big.NewRat(60, 1)}
	narrowUp := &Bound{Value: big.NewRat(62, 1)}
	v := p.Pick("x", narrowLo, narrowUp, nil, true)
	require.True(t, v.Cmp(narrowLo.Value) >= 0)
	require.True(t, v.Cmp(narrowUp.Value) <= 0)
}

// TestPickerLowerBoundOnlyPicksFeasibleValue covers the one-sided
// lower-bound case.
func TestPickerLowerBoundOnlyPicksFeasibleValue(t *testing.T) {
	p := NewPicker()
	lo := &Bound{Value: big.NewRat(-3, 1)}
	v := p.Pick(nil, lo, nil, nil, true)
	require.True(t, v.Cmp(lo.Value) >= 0)
}

// TestPickerUnboundedPicksZero covers the fully unbounded case.
func TestPickerUnboundedPicksZero(t *testing.T) {
	p := NewPicker()
	v := p.Pick(nil, nil, nil, nil, true)
	require.Equal(t, 0, v.Sign())
}

func TestRoundNearestBreaksTiesTowardZero(t *testing.T) {
	require.Equal(t, 0, roundNearest(big.NewRat(1, 2)).Cmp(big.NewRat(0, 1)))
	require.Equal(t, 0, roundNearest(big.NewRat(-1, 2)).Cmp(big.NewRat(0, 1)))
	require.Equal(t, 0, roundNearest(big.NewRat(3, 2)).Cmp(big.NewRat(1, 1)))
}
