// package dispatch runs execution, grading, and detection requests as
// independent units of work on a fixed pool of workers
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"gitlab.com/bluapt.net/internal/core/ports/primary"
	"gitlab.com/bluapt.net/internal/metrics"
)

// Task is one unit of work. Run's result is delivered on Done exactly once.
type Task struct {
	ID   string
	Ctx  context.Context
	Run  func(ctx context.Context) (interface{}, error)
	Done chan TaskResult
}

// TaskResult carries a task's value or error back to the submitter.
type TaskResult struct {
	Value interface{}
	Err   error
}

// NewTask wraps a work function with a buffered completion channel
func NewTask(id string, ctx context.Context, run func(ctx context.Context) (interface{}, error)) *Task {
	return &Task{
		ID:   id,
		Ctx:  ctx,
		Run:  run,
		Done: make(chan TaskResult, 1),
	}
}

// Dispatcher owns the queue and the worker pool. No ordering is
// guaranteed between tasks; each task runs on exactly one worker.
type Dispatcher struct {
	queue   chan *Task
	workers int
	logger  primary.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher with a bounded queue
func NewDispatcher(workers, queueCapacity int, logger primary.Logger) *Dispatcher {
	return &Dispatcher{
		queue:   make(chan *Task, queueCapacity),
		workers: workers,
		logger:  logger,
	}
}

// Start launches the worker pool. Workers drain until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
	d.logger.Info("Dispatcher started", "workers", d.workers, "queueCapacity", cap(d.queue))
}

// Submit enqueues a task, failing fast when the queue is full or the
// task's context already expired.
func (d *Dispatcher) Submit(task *Task) error {
	select {
	case d.queue <- task:
		metrics.QueueDepth.Set(float64(len(d.queue)))
		return nil
	case <-task.Ctx.Done():
		return task.Ctx.Err()
	default:
		return fmt.Errorf("dispatch queue is full")
	}
}

// Wait blocks until all workers have stopped
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	d.logger.Debug("Worker started", "workerId", id)

	for {
		select {
		case <-ctx.Done():
			d.logger.Debug("Worker stopping", "workerId", id)
			return
		case task := <-d.queue:
			metrics.QueueDepth.Set(float64(len(d.queue)))
			d.process(task, id)
		}
	}
}

func (d *Dispatcher) process(task *Task, workerID int) {
	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	d.logger.Debug("Processing task", "taskId", task.ID, "workerId", workerID)

	if err := task.Ctx.Err(); err != nil {
		task.Done <- TaskResult{Err: err}
		return
	}

	value, err := task.Run(task.Ctx)
	if err != nil {
		d.logger.Warn("Task failed", "taskId", task.ID, "error", err)
	}
	task.Done <- TaskResult{Value: value, Err: err}
}
