package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrStopped is returned by a job when its worker's stop flag was observed.
var ErrStopped = errors.New("worker stopped")

// JobRunner executes one channel's worth of work to completion. Per-item
// failures are handled inside Run; an error return is channel-level.
type JobRunner interface {
	Run(ctx context.Context, w *Worker, channelName string) error
}

// Pool drains a shared task queue with a fixed number of workers. Each
// worker owns the channel it dequeued exclusively until its job completes,
// and terminates only through queue exhaustion or cancellation, never
// because one channel failed.
type Pool struct {
	runner JobRunner
	queue  *TaskQueue

	mu      sync.Mutex
	workers []*Worker
	nextID  int
	wg      sync.WaitGroup
}

// NewPool creates a pool that executes jobs with the given runner.
func NewPool(runner JobRunner) *Pool {
	return &Pool{
		runner: runner,
		queue:  NewTaskQueue(),
	}
}

// Submit enqueues each channel name exactly once and spawns workerCount
// independent workers to drain the queue. Returns the spawned workers so the
// caller can observe or stop them individually.
func (p *Pool) Submit(ctx context.Context, channelNames []string, workerCount int) []*Worker {
	for _, name := range channelNames {
		p.queue.Enqueue(name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	spawned := make([]*Worker, 0, workerCount)
	for i := 0; i < workerCount; i++ {
		p.nextID++
		w := newWorker(p.nextID)
		p.workers = append(p.workers, w)
		spawned = append(spawned, w)

		p.wg.Add(1)
		go p.runWorker(ctx, w)
	}
	return spawned
}

func (p *Pool) runWorker(ctx context.Context, w *Worker) {
	defer p.wg.Done()
	defer close(w.done)

	for {
		if w.Stopping() || ctx.Err() != nil {
			w.setTerminal(StatusStopped)
			log.Info().Int("worker", w.ID()).Msg("Worker stopped")
			return
		}

		channelName, ok := p.queue.TryDequeue()
		if !ok {
			w.setTerminal(StatusIdle)
			log.Info().Int("worker", w.ID()).Msg("Worker idle, queue drained")
			return
		}

		w.setRunning(channelName)
		log.Info().Int("worker", w.ID()).Str("channel", channelName).Msg("Worker picked up channel")

		if err := p.runOne(ctx, w, channelName); err != nil {
			if errors.Is(err, ErrStopped) {
				w.setTerminal(StatusStopped)
				log.Info().Int("worker", w.ID()).Str("channel", channelName).Msg("Worker stopped mid-channel")
				return
			}
			// Channel-level failure: surface it and move on to the next
			// queued channel.
			log.Error().Err(err).Int("worker", w.ID()).Str("channel", channelName).Msg("Channel job failed")
		}
	}
}

// runOne guards the job boundary: a panic inside a job is converted into a
// channel-level error so the pool keeps draining.
func (p *Pool) runOne(ctx context.Context, w *Worker, channelName string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v\n%s", r, debug.Stack())
		}
	}()
	return p.runner.Run(ctx, w, channelName)
}

// StopAll raises the stop flag on every worker.
func (p *Pool) StopAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, w := range p.workers {
		w.Stop()
	}
}

// Workers returns a snapshot of all workers ever spawned by this pool.
func (p *Pool) Workers() []*Worker {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Worker, len(p.workers))
	copy(out, p.workers)
	return out
}

// QueueLen returns the number of channels not yet dequeued.
func (p *Pool) QueueLen() int {
	return p.queue.Len()
}

// Wait blocks until every spawned worker has reached a terminal state.
func (p *Pool) Wait() {
	p.wg.Wait()
}
