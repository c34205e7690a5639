package pipeline

import "sync"

// queue is a bounded ring with drop-oldest overflow: a push never blocks and
// never fails; when full, the oldest queued item is discarded in favor of the
// newest. Freshness over completeness - a stale frame produces a stale,
// misleading fatigue reading.
//
// Single producer, single consumer. Pop blocks on a sync.Cond until an item
// arrives or the queue is closed.
type queue[T any] struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []T
	head  int
	count int

	dropped uint64
	closed  bool
}

func newQueue[T any](capacity int) *queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	q := &queue[T]{items: make([]T, capacity)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push enqueues v, evicting the oldest item when full. Returns the number of
// items dropped by this push (0 or 1). Push on a closed queue is a no-op.
func (q *queue[T]) push(v T) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0
	}

	var droppedNow int
	if q.count == len(q.items) {
		var zero T
		q.items[q.head] = zero
		q.head = (q.head + 1) % len(q.items)
		q.count--
		q.dropped++
		droppedNow = 1
	}

	q.items[(q.head+q.count)%len(q.items)] = v
	q.count++
	q.cond.Signal()
	return droppedNow
}

// pop blocks until an item is available or the queue is closed and drained.
// The second return is false only on closed-and-empty.
func (q *queue[T]) pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 {
		if q.closed {
			var zero T
			return zero, false
		}
		q.cond.Wait()
	}

	v := q.items[q.head]
	var zero T
	q.items[q.head] = zero
	q.head = (q.head + 1) % len(q.items)
	q.count--
	return v, true
}

// close wakes any blocked consumer. Items already queued remain poppable so
// the consumer can drain.
func (q *queue[T]) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

func (q *queue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

func (q *queue[T]) drops() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
