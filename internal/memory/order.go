package memory

import (
	"container/heap"
)

// expiryHeap orders entries by deadline, then by key. It backs size limit
// eviction. It may still hold entries go-cache has dropped on its own;
// those are discarded when popped or pruned.
type expiryHeap[T any] []*entry[T]

var _ heap.Interface = (*expiryHeap[int])(nil)

func (h expiryHeap[T]) Len() int { return len(h) }

func (h expiryHeap[T]) Less(i, j int) bool {
	if h[i].expires != h[j].expires {
		return h[i].expires < h[j].expires
	}
	return h[i].key < h[j].key
}

func (h expiryHeap[T]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *expiryHeap[T]) Push(x interface{}) {
	e := x.(*entry[T])
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *expiryHeap[T]) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

func (h *expiryHeap[T]) add(e *entry[T]) {
	heap.Push(h, e)
}

func (h *expiryHeap[T]) popMin() *entry[T] {
	return heap.Pop(h).(*entry[T])
}

// remove drops e if it is still in the heap.
func (h *expiryHeap[T]) remove(e *entry[T]) {
	if h.holds(e) {
		heap.Remove(h, e.index)
	}
}

// update restores the position of e after its deadline moved.
func (h *expiryHeap[T]) update(e *entry[T]) {
	if h.holds(e) {
		heap.Fix(h, e.index)
	}
}

// retain keeps the entries keep accepts and rebuilds the heap.
func (h *expiryHeap[T]) retain(keep func(*entry[T]) bool) {
	old := *h
	live := old[:0]
	for _, e := range old {
		if keep(e) {
			e.index = len(live)
			live = append(live, e)
		} else {
			e.index = -1
		}
	}
	for i := len(live); i < len(old); i++ {
		old[i] = nil
	}
	*h = live
	heap.Init(h)
}

func (h expiryHeap[T]) holds(e *entry[T]) bool {
	return e.index >= 0 && e.index < len(h) && h[e.index] == e
}
