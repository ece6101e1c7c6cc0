package editflow

import (
	"context"
	"sync"
)

// Task is one unit of work scheduled on a queue.
type Task func(ctx context.Context) (any, error)

// TaskResult carries a finished task's outcome to its caller.
type TaskResult struct {
	Value any
	Err   error
}

type queuedTask struct {
	ctx  context.Context
	fn   Task
	done chan TaskResult
}

// TaskQueue serializes document-mutating operations: a single worker drains
// tasks in FIFO order, so at most one operation is in flight per page
// instance. A failing task rejects only its own caller; tasks scheduled after
// it still run.
type TaskQueue struct {
	mu      sync.Mutex
	pending []queuedTask
	running bool
	idle    []chan struct{}
}

// NewTaskQueue returns an empty queue. The worker goroutine starts on first
// enqueue and exits whenever the queue drains.
func NewTaskQueue() *TaskQueue {
	return &TaskQueue{}
}

// Enqueue schedules a task and returns a channel that receives its result
// exactly once. The task's context is captured at enqueue time; a context
// already cancelled when the worker reaches the task short-circuits it.
func (q *TaskQueue) Enqueue(ctx context.Context, fn Task) <-chan TaskResult {
	done := make(chan TaskResult, 1)
	q.mu.Lock()
	q.pending = append(q.pending, queuedTask{ctx: ctx, fn: fn, done: done})
	if !q.running {
		q.running = true
		go q.work()
	}
	q.mu.Unlock()
	return done
}

// Run schedules a task and blocks until it finishes or ctx is cancelled.
// Cancellation of ctx abandons the wait, not the task.
func (q *TaskQueue) Run(ctx context.Context, fn Task) (any, error) {
	select {
	case result := <-q.Enqueue(ctx, fn):
		return result.Value, result.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AwaitIdle blocks until every task enqueued so far has finished.
func (q *TaskQueue) AwaitIdle() {
	q.mu.Lock()
	if !q.running && len(q.pending) == 0 {
		q.mu.Unlock()
		return
	}
	waiter := make(chan struct{})
	q.idle = append(q.idle, waiter)
	q.mu.Unlock()
	<-waiter
}

func (q *TaskQueue) work() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			for _, waiter := range q.idle {
				close(waiter)
			}
			q.idle = nil
			q.mu.Unlock()
			return
		}
		next := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		if err := next.ctx.Err(); err != nil {
			next.done <- TaskResult{Err: err}
			continue
		}
		value, err := next.fn(next.ctx)
		next.done <- TaskResult{Value: value, Err: err}
	}
}
