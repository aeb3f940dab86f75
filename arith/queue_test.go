package arith

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xDarkicex/mcsat/variable"
)

func TestVariablePriorityQueuePopsHighestScore(t *testing.T) {
	q := NewVariablePriorityQueue()
	a, b, c := variable.Variable(0), variable.Variable(1), variable.Variable(2)
	q.NewVariable(a)
	q.NewVariable(b)
	q.NewVariable(c)
	q.Enqueue(a)
	q.Enqueue(b)
	q.Enqueue(c)

	q.BumpVariable(b)
	q.BumpVariable(b)
	q.BumpVariable(c)

	require.Equal(t, b, q.Pop())
	require.Equal(t, c, q.Pop())
	require.Equal(t, a, q.Pop())
	require.True(t, q.Empty())
}

func TestVariablePriorityQueueEnqueueIsIdempotent(t *testing.T) {
	q := NewVariablePriorityQueue()
	a := variable.Variable(0)
	q.Enqueue(a)
	q.Enqueue(a)
	require.True(t, q.InQueue(a))
	q.Pop()
	require.False(t, q.InQueue(a))
	require.True(t, q.Empty())
}

// TestVariablePriorityQueueRescaleSafety covers spec §8's "rescale
// safety keeping scores in a sane range": repeated bumps that cross
// the rescale threshold must not change Pop's relative ordering.
func TestVariablePriorityQueueRescaleSafety(t *testing.T) {
	q := NewVariablePriorityQueue()
	q.rescaleAt = 3
	a, b := variable.Variable(0), variable.Variable(1)
	q.NewVariable(a)
	q.NewVariable(b)
	q.Enqueue(a)
	q.Enqueue(b)

	for i := 0; i < 5; i++ {
		q.BumpVariable(b)
	}
	q.BumpVariable(a)

	require.Equal(t, b, q.Pop())
	require.Equal(t, a, q.Pop())
}
