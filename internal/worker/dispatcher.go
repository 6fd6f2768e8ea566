// Package worker provides the in-process job queue that carries claim
// lifecycle transitions. Stage handoff (submit→verify, verify→broadcast)
// is a queued job consumed by a worker pool rather than an unawaited
// network call; a full queue is reported to the caller, who logs it and
// moves on.
package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Job represents a unit of work to be executed by the pool
type Job interface {
	// Name identifies the job kind in logs
	Name() string

	// Execute runs the job. Errors are logged by the dispatcher, never
	// returned to the scheduling caller.
	Execute(ctx context.Context) error
}

var (
	// ErrQueueFull indicates the transition queue is saturated
	ErrQueueFull = errors.New("transition queue full")

	// ErrStopped indicates the dispatcher is shut down
	ErrStopped = errors.New("dispatcher stopped")
)

// Dispatcher manages a pool of workers consuming the transition queue
type Dispatcher struct {
	workers    int
	jobs       chan Job
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	logger     *zap.Logger
	stopOnce   sync.Once
}

// NewDispatcher creates a dispatcher with the given worker count and
// queue capacity
func NewDispatcher(workers, queueSize int, logger *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = workers * 2
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Dispatcher{
		workers:    workers,
		jobs:       make(chan Job, queueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		logger:     logger,
	}
}

// Start launches the worker goroutines
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// worker consumes jobs until the dispatcher is shut down
func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		case job, ok := <-d.jobs:
			if !ok {
				return
			}
			if err := job.Execute(d.ctx); err != nil {
				d.logger.Error("job failed",
					zap.String("job", job.Name()),
					zap.Int("worker", id),
					zap.Error(err))
			}
		}
	}
}

// Schedule enqueues a job without blocking. Returns ErrQueueFull when
// the queue is saturated and ErrStopped after shutdown; callers log the
// error and continue.
func (d *Dispatcher) Schedule(job Job) error {
	select {
	case <-d.ctx.Done():
		return ErrStopped
	default:
	}

	select {
	case d.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops the workers. Queued jobs that have not started are
// dropped; in-flight jobs observe the cancelled context.
func (d *Dispatcher) Shutdown() {
	d.stopOnce.Do(func() {
		d.cancelFunc()
		d.wg.Wait()
	})
}
