package engine

import (
	"sync"
)

// TaskQueue is a thread-safe FIFO of channel names. Dequeuing is
// non-blocking: a worker that finds the queue empty goes idle instead of
// waiting, and the shared lock guarantees no channel is handed to two
// workers.
type TaskQueue struct {
	mu    sync.Mutex
	items []string
}

// NewTaskQueue creates an empty queue.
func NewTaskQueue() *TaskQueue {
	return &TaskQueue{}
}

// Enqueue appends a channel name to the back of the queue.
func (q *TaskQueue) Enqueue(name string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, name)
}

// TryDequeue removes and returns the front of the queue, or ok=false when
// the queue is empty.
func (q *TaskQueue) TryDequeue() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return "", false
	}
	name := q.items[0]
	q.items = q.items[1:]
	return name, true
}

// Len returns the number of queued channel names.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
