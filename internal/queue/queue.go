// Package queue implements an unbounded FIFO work queue with completion tracking.
//
// Every Put must be matched by exactly one Done after the item has been handled.
// Join blocks until all items put so far have been taken and marked done.
package queue

import (
	"context"
	"sync"

	"hotsoonripper/internal/errs"
)

// Queue is safe for concurrent use. The zero value is not usable; use New.
type Queue[T any] struct {
	mu      sync.Mutex
	items   []T
	head    int
	pending int // put but not yet done
	closed  bool
	wake    chan struct{} // closed and replaced whenever items arrive or the queue closes
	idle    chan struct{} // closed while pending == 0
}

// New returns an empty queue.
func New[T any]() *Queue[T] {
	idle := make(chan struct{})
	close(idle)

	return &Queue[T]{
		wake: make(chan struct{}),
		idle: idle,
	}
}

// Put appends items to the tail of the queue. Putting onto a closed queue returns errs.ErrQueueClosed.
func (q *Queue[T]) Put(items ...T) error {
	if len(items) == 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errs.ErrQueueClosed
	}

	if q.pending == 0 {
		q.idle = make(chan struct{})
	}

	q.pending += len(items)
	q.items = append(q.items, items...)

	close(q.wake)
	q.wake = make(chan struct{})

	return nil
}

// Get removes and returns the head of the queue, blocking while it is empty.
// It returns errs.ErrQueueClosed once the queue is closed and ctx.Err() if ctx ends first.
func (q *Queue[T]) Get(ctx context.Context) (T, error) {
	var zero T

	for {
		q.mu.Lock()

		if q.closed {
			q.mu.Unlock()

			return zero, errs.ErrQueueClosed
		}

		if q.head < len(q.items) {
			item := q.items[q.head]
			q.items[q.head] = zero
			q.head++
			q.compact()
			q.mu.Unlock()

			return item, nil
		}

		wake := q.wake
		q.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// compact drops the consumed prefix once it dominates the backing array. Caller holds mu.
func (q *Queue[T]) compact() {
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0

		return
	}

	if q.head > 64 && q.head*2 > len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
}

// Done marks one taken item as handled. It panics when called more often than Put.
func (q *Queue[T]) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending <= 0 {
		panic("queue: Done called more times than Put")
	}

	q.pending--
	if q.pending == 0 {
		close(q.idle)
	}
}

// Join blocks until every item put so far has been marked done.
// It returns immediately when nothing is outstanding.
func (q *Queue[T]) Join(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of items waiting to be taken.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items) - q.head
}

// Pending returns the number of items put but not yet marked done.
func (q *Queue[T]) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.pending
}

// Close wakes every blocked Get. Items still waiting are dropped from Get's point of view.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.wake)
}
