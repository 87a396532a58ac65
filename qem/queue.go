package qem

import (
	"container/heap"

	"go.viam.com/meshkit/halfedge"
)

// entry is a queued edge with the cost it had when pushed. An entry whose cost no longer
// matches the edge's live cost is stale and is discarded on pop.
type entry struct {
	edge halfedge.EdgeID
	cost float64
}

// edgeQueue is a min-heap of entries ordered by cost, then by edge handle.
type edgeQueue []entry

func (q edgeQueue) Len() int { return len(q) }

func (q edgeQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].edge < q[j].edge
}

func (q edgeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *edgeQueue) Push(x interface{}) {
	*q = append(*q, x.(entry))
}

func (q *edgeQueue) Pop() interface{} {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}

func (q *edgeQueue) push(e halfedge.EdgeID, cost float64) {
	heap.Push(q, entry{edge: e, cost: cost})
}

func (q *edgeQueue) pop() entry {
	return heap.Pop(q).(entry)
}
