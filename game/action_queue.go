package game

import (
	"errors"
	"sync"
)

// ErrQueueFull is returned when a client intent does not fit in the queue.
var ErrQueueFull = errors.New("action queue full")

// ActionQueue is the thread-safe inbox between producers (network readers,
// timers) and the tick engine, its only consumer. Push never blocks.
type ActionQueue struct {
	mu       sync.Mutex
	pending  []Action
	intents  int
	capacity int
	dropped  uint64
}

// NewActionQueue returns a queue holding at most capacity client intents.
// System actions are never refused.
func NewActionQueue(capacity int) *ActionQueue {
	return &ActionQueue{
		pending:  make([]Action, 0, 64),
		capacity: capacity,
	}
}

// Push appends action in arrival order.
func (q *ActionQueue) Push(action Action) error {
	if action == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	if !action.system() {
		if q.capacity > 0 && q.intents >= q.capacity {
			q.dropped++
			return ErrQueueFull
		}
		q.intents++
	}
	q.pending = append(q.pending, action)
	return nil
}

// Drain atomically takes every pending action, oldest first.
func (q *ActionQueue) Drain() []Action {
	q.mu.Lock()
	batch := q.pending
	q.pending = make([]Action, 0, cap(batch))
	q.intents = 0
	q.mu.Unlock()
	return batch
}

// Len returns the number of pending actions.
func (q *ActionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Dropped returns how many intents were refused since creation.
func (q *ActionQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
