package arith

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xDarkicex/mcsat/ctx"
	"github.com/xDarkicex/mcsat/variable"
)

// TestBoundsModelTracksTightestBound covers spec §4.6's bounds-model
// update rule: a later bound only installs if it strictly improves on
// the current one.
func TestBoundsModelTracksTightestBound(t *testing.T) {
	c := ctx.New()
	m := NewCDBoundsModel(c)
	v := variable.Variable(0)

	installed := m.UpdateLowerBound(v, Bound{Value: big.NewRat(1, 1)})
	require.True(t, installed)

	installed = m.UpdateLowerBound(v, Bound{Value: big.NewRat(0, 1)})
	require.False(t, installed)

	installed = m.UpdateLowerBound(v, Bound{Value: big.NewRat(2, 1)})
	require.True(t, installed)

	lo, ok := m.Lower(v)
	require.True(t, ok)
	require.Equal(t, 0, lo.Value.Cmp(big.NewRat(2, 1)))
}

// TestBoundsModelDetectsConflict covers the lower > upper conflict
// case from spec §8 ("x >= 5 and x <= 3").
func TestBoundsModelDetectsConflict(t *testing.T) {
	c := ctx.New()
	m := NewCDBoundsModel(c)
	v := variable.Variable(0)

	m.UpdateLowerBound(v, Bound{Value: big.NewRat(5, 1)})
	require.False(t, m.InConflict(v))
	m.UpdateUpperBound(v, Bound{Value: big.NewRat(3, 1)})
	require.True(t, m.InConflict(v))
	require.Contains(t, m.ConflictedVariables(), v)
}

// TestBoundsModelEqualBoundDisequalityConflict covers the edge case
// where lower == upper but that single feasible point is excluded by a
// disequality.
func TestBoundsModelEqualBoundDisequalityConflict(t *testing.T) {
	c := ctx.New()
	m := NewCDBoundsModel(c)
	v := variable.Variable(0)

	m.UpdateLowerBound(v, Bound{Value: big.NewRat(2, 1)})
	m.UpdateUpperBound(v, Bound{Value: big.NewRat(2, 1)})
	require.False(t, m.InConflict(v))

	m.AddDisequality(v, big.NewRat(2, 1), variable.NullLiteral)
	require.True(t, m.InConflict(v))
}

// TestBoundsModelOnPopUndoesAboveLevel covers spec §4.1's context-
// dependent undo contract: popping below the level a bound was
// installed at restores the prior mapping exactly.
func TestBoundsModelOnPopUndoesAboveLevel(t *testing.T) {
	c := ctx.New()
	m := NewCDBoundsModel(c)
	v := variable.Variable(0)

	m.UpdateLowerBound(v, Bound{Value: big.NewRat(1, 1)})

	c.Push()
	m.UpdateLowerBound(v, Bound{Value: big.NewRat(10, 1)})
	lo, _ := m.Lower(v)
	require.Equal(t, 0, lo.Value.Cmp(big.NewRat(10, 1)))

	c.Pop()
	lo, ok := m.Lower(v)
	require.True(t, ok)
	require.Equal(t, 0, lo.Value.Cmp(big.NewRat(1, 1)))
}

// TestBoundsModelOnPopRemovesBoundInstalledAtThatLevel covers popping
// all the way back to before any bound existed for v.
func TestBoundsModelOnPopRemovesBoundInstalledAtThatLevel(t *testing.T) {
	c := ctx.New()
	m := NewCDBoundsModel(c)
	v := variable.Variable(0)

	c.Push()
	m.UpdateLowerBound(v, Bound{Value: big.NewRat(1, 1)})
	c.Pop()

	_, ok := m.Lower(v)
	require.False(t, ok)
}

// TestBoundsModelDisequalityUndo covers OnPop unwinding an appended
// disequality entry back to its prior length.
func TestBoundsModelDisequalityUndo(t *testing.T) {
	c := ctx.New()
	m := NewCDBoundsModel(c)
	v := variable.Variable(0)

	m.AddDisequality(v, big.NewRat(1, 1), variable.NullLiteral)
	c.Push()
	m.AddDisequality(v, big.NewRat(2, 1), variable.NullLiteral)
	require.Len(t, m.Disequalities(v), 2)

	c.Pop()
	require.Len(t, m.Disequalities(v), 1)
	require.Equal(t, 0, m.Disequalities(v)[0].Value.Cmp(big.NewRat(1, 1)))
}
