package engine

import (
	"sync/atomic"
)

// WorkerStatus is the observable state of one execution unit.
type WorkerStatus int32

const (
	// StatusIdle is both the initial state and the terminal state reached by
	// draining the queue.
	StatusIdle WorkerStatus = iota
	// StatusRunning means the worker currently owns one channel's job.
	StatusRunning
	// StatusStopped is the terminal state reached through cancellation.
	StatusStopped
)

// String returns the status in the form surfaced to the caller.
func (s WorkerStatus) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Worker is one concurrent execution unit draining the shared task queue.
// Cancellation is cooperative: Stop raises a flag that the unit checks before
// dequeuing the next channel and before starting each item fetch; an
// in-flight extractor call is never interrupted.
type Worker struct {
	id      int
	status  atomic.Int32
	channel atomic.Value
	stop    atomic.Bool
	done    chan struct{}
}

func newWorker(id int) *Worker {
	w := &Worker{
		id:   id,
		done: make(chan struct{}),
	}
	w.channel.Store("")
	return w
}

// ID returns the worker's identifier within its pool.
func (w *Worker) ID() int {
	return w.id
}

// Status returns the worker's current state.
func (w *Worker) Status() WorkerStatus {
	return WorkerStatus(w.status.Load())
}

// Channel returns the channel name currently being processed, or "".
func (w *Worker) Channel() string {
	name, _ := w.channel.Load().(string)
	return name
}

// Stop requests cooperative cancellation. At most one in-flight item
// operation finishes after the flag is observed.
func (w *Worker) Stop() {
	w.stop.Store(true)
}

// Stopping reports whether cancellation has been requested.
func (w *Worker) Stopping() bool {
	return w.stop.Load()
}

// Done is closed when the worker reaches a terminal state.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) setRunning(channelName string) {
	w.channel.Store(channelName)
	w.status.Store(int32(StatusRunning))
}

func (w *Worker) setTerminal(status WorkerStatus) {
	w.channel.Store("")
	w.status.Store(int32(status))
}
