// Package worker provides the bounded pool that runs analysis pipelines. The
// queue is deliberately finite; a full queue is surfaced to the submitter
// rather than buffered without limit.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
)

// ErrQueueFull is returned by Submit when the task queue is saturated.
var ErrQueueFull = errors.New("worker queue full")

// Task is one unit of work run by the pool.
type Task func(ctx context.Context) error

// Pool runs tasks on a fixed number of goroutines over a bounded queue.
type Pool struct {
	wg    sync.WaitGroup
	tasks chan Task
	quit  chan struct{}
	n     int
}

// NewPool creates a pool with the given worker and queue sizes. Non-positive
// workers defaults to the CPU count; non-positive queueSize to workers*4.
func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = workers * 4
	}
	return &Pool{tasks: make(chan Task, queueSize), quit: make(chan struct{}), n: workers}
}

// Start launches the workers. They stop when ctx is cancelled or Stop is
// called.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case task := <-p.tasks:
					if task == nil {
						continue
					}
					if err := task(ctx); err != nil {
						slog.Error("worker task error", "worker", id, "error", err)
					}
				}
			}
		}(i)
	}
}

// Stop shuts the workers down and waits for in-flight tasks to finish.
// Queued tasks that have not started are abandoned.
func (p *Pool) Stop() {
	close(p.quit)
	p.wg.Wait()
}

// Submit enqueues a task without blocking. When the queue is full it returns
// ErrQueueFull so the caller can refuse the work instead of stalling.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}
