package queue

import (
	"sync/atomic"
)

// Queue is a FIFO buffer. The scheduler uses it to hold schedule and cancel
// requests issued while commands are being iterated.
type Queue[T any] struct {
	items atomic.Pointer[[]T]
}

func (q *Queue[T]) Len() int {
	return len(*q.items.Load())
}

func (q *Queue[T]) Pop() (T, bool) {
	var zero T
	items := *q.items.Load()
	if len(items) == 0 {
		return zero, false
	}
	item := items[0]
	items = items[1:]
	q.items.Store(&items)
	return item, true
}

func (q *Queue[T]) Push(items ...T) {
	current := *q.items.Load()
	current = append(current, items...)
	q.items.Store(&current)
}

// Drain empties the queue and returns its contents in insertion order.
func (q *Queue[T]) Drain() []T {
	empty := []T{}
	return *q.items.Swap(&empty)
}

func New[T any](maybeSize ...int) *Queue[T] {
	var items []T
	if len(maybeSize) > 0 {
		items = make([]T, 0, maybeSize[0])
	}
	q := &Queue[T]{}
	q.items.Store(&items)
	return q
}
