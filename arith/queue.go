package arith

import (
	"container/heap"

	"github.com/xDarkicex/mcsat/variable"
)

// VariablePriorityQueue orders the arithmetic variables of a single
// type by a bumped-and-decayed score, for the plugin's decision
// heuristic (spec §4.6 "Decisions"). Grounded on original_source/src/
// mcsat/util/var_priority_queue.h (score vector + positional index +
// bump/rescale), reimplemented over container/heap in place of its
// pb_ds update-heap since Go's standard library has no equivalent;
// the bump-then-decay scaling itself follows the same adaptive-
// increment idiom as sat.VSIDSHeuristic.
type VariablePriorityQueue struct {
	scores map[variable.Variable]float64
	index  map[variable.Variable]int
	items  []variable.Variable
	queued map[variable.Variable]bool

	bumpAmount    float64
	rescaleAt     float64
}

// NewVariablePriorityQueue creates an empty queue.
func NewVariablePriorityQueue() *VariablePriorityQueue {
	return &VariablePriorityQueue{
		scores:     make(map[variable.Variable]float64),
		index:      make(map[variable.Variable]int),
		queued:     make(map[variable.Variable]bool),
		bumpAmount: 1.0,
		rescaleAt:  1e100,
	}
}

// NewVariable starts tracking var at score 0, without enqueueing it.
func (q *VariablePriorityQueue) NewVariable(v variable.Variable) {
	if _, ok := q.scores[v]; ok {
		return
	}
	q.scores[v] = 0
}

// GetScore returns v's current score.
func (q *VariablePriorityQueue) GetScore(v variable.Variable) float64 { return q.scores[v] }

// InQueue reports whether v is currently enqueued for decision.
func (q *VariablePriorityQueue) InQueue(v variable.Variable) bool { return q.queued[v] }

// Empty reports whether the queue has no enqueued variables.
func (q *VariablePriorityQueue) Empty() bool { return len(q.items) == 0 }

// Enqueue makes v eligible for Pop, if it is not already queued.
func (q *VariablePriorityQueue) Enqueue(v variable.Variable) {
	if q.queued[v] {
		return
	}
	if _, ok := q.scores[v]; !ok {
		q.scores[v] = 0
	}
	q.queued[v] = true
	heap.Push((*pqHeap)(q), v)
}

// Pop removes and returns the highest-scored enqueued variable.
func (q *VariablePriorityQueue) Pop() variable.Variable {
	v := heap.Pop((*pqHeap)(q)).(variable.Variable)
	delete(q.queued, v)
	return v
}

// BumpVariable increases v's score by the queue's current bump
// amount, rescaling every score (and the bump amount itself) once v's
// score has grown past the overflow-avoidance threshold rescaleAt — the
// same adaptive-increment technique sat.VSIDSHeuristic.Update uses.
func (q *VariablePriorityQueue) BumpVariable(v variable.Variable) {
	q.scores[v] += q.bumpAmount
	if q.queued[v] {
		heap.Fix((*pqHeap)(q), q.index[v])
	}
	if q.scores[v] > q.rescaleAt {
		q.rescale()
	}
}

// Decay grows the bump amount, the VSIDS-style way of implementing
// exponential score decay without touching every stored score.
func (q *VariablePriorityQueue) Decay(factor float64) {
	q.bumpAmount /= factor
	if q.bumpAmount > q.rescaleAt {
		q.rescale()
	}
}

func (q *VariablePriorityQueue) rescale() {
	for v := range q.scores {
		q.scores[v] /= q.rescaleAt
	}
	q.bumpAmount /= q.rescaleAt
	if len(q.items) > 1 {
		heap.Init((*pqHeap)(q))
	}
}

// pqHeap adapts VariablePriorityQueue onto container/heap.Interface.
type pqHeap VariablePriorityQueue

func (h *pqHeap) Len() int { return len(h.items) }
func (h *pqHeap) Less(i, j int) bool {
	return h.scores[h.items[i]] > h.scores[h.items[j]]
}
func (h *pqHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.index[h.items[i]] = i
	h.index[h.items[j]] = j
}
func (h *pqHeap) Push(x interface{}) {
	v := x.(variable.Variable)
	h.index[v] = len(h.items)
	h.items = append(h.items, v)
}
func (h *pqHeap) Pop() interface{} {
	n := len(h.items)
	v := h.items[n-1]
	h.items = h.items[:n-1]
	delete(h.index, v)
	return v
}
