// Package pq is a binary min-heap of cell indices keyed by a float priority,
// shared by the priority-flood, lake, flood-fill and A* loops.
package pq

import "container/heap"

type item struct {
	cell     int
	priority float64
	seq      int
}

type items []item

func (h items) Len() int { return len(h) }
func (h items) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h items) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *items) Push(x any)   { *h = append(*h, x.(item)) }
func (h *items) Pop() any {
	old := *h
	it := old[len(old)-1]
	*h = old[:len(old)-1]
	return it
}

// Queue pops the lowest priority first; equal priorities pop in insertion
// order so results are deterministic.
type Queue struct {
	h   items
	seq int
}

// New returns an empty queue with room for capacity items.
func New(capacity int) *Queue {
	return &Queue{h: make(items, 0, capacity)}
}

func (q *Queue) Len() int { return q.h.Len() }

func (q *Queue) Push(cell int, priority float64) {
	heap.Push(&q.h, item{cell: cell, priority: priority, seq: q.seq})
	q.seq++
}

// Pop removes and returns the lowest-priority cell.
func (q *Queue) Pop() (cell int, priority float64) {
	it := heap.Pop(&q.h).(item)
	return it.cell, it.priority
}

// Peek returns the lowest priority without removing it. ok is false when the
// queue is empty.
func (q *Queue) Peek() (priority float64, ok bool) {
	if len(q.h) == 0 {
		return 0, false
	}
	return q.h[0].priority, true
}
