// Package dispatch provides serial execution queues. A Queue runs submitted
// tasks one at a time, in submission order, on a single dedicated goroutine.
//
// The authsdk uses two queues per coordinator: a work queue that serializes
// session mutations, and a callback queue that is the one fixed context every
// completion is delivered on. Each task receives a context stamped with the
// queue's identity so callers can verify which queue they are running on.
package dispatch

import (
	"context"
	"sync"

	"github.com/lumenauth/lumen/pkg/idx"
)

// Queue is a serial executor.
type Queue struct {
	id   idx.ID
	name string

	mu     sync.Mutex
	closed bool
	tasks  chan func(context.Context)
	done   chan struct{}
}

// NewQueue starts a queue with a dedicated worker goroutine. The name shows
// up in queue identity comparisons and log output only.
func NewQueue(name string) *Queue {
	q := &Queue{
		id:    idx.New(),
		name:  name,
		tasks: make(chan func(context.Context), 64),
		done:  make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)

	base := WithQueue(context.Background(), q)
	for task := range q.tasks {
		task(base)
	}
}

// ID returns the queue's unique identifier.
func (q *Queue) ID() idx.ID { return q.id }

// Name returns the queue's display name.
func (q *Queue) Name() string { return q.name }

// Async enqueues fn to run after all previously enqueued tasks. It never runs
// fn inline. Tasks enqueued after Close are dropped.
func (q *Queue) Async(fn func(ctx context.Context)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.tasks <- fn
}

// Flush blocks until every task enqueued before the call has finished.
func (q *Queue) Flush() {
	ran := make(chan struct{})
	q.Async(func(context.Context) { close(ran) })

	select {
	case <-ran:
	case <-q.done:
	}
}

// Close stops the queue after draining already-enqueued tasks and waits for
// the worker to exit. Safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
	q.mu.Unlock()

	<-q.done
}

type ctxKey struct{}

// WithQueue stamps ctx with the queue's identity.
func WithQueue(ctx context.Context, q *Queue) context.Context {
	return context.WithValue(ctx, ctxKey{}, q)
}

// FromContext returns the queue the current task is running on, or nil when
// ctx did not originate from a queue task.
func FromContext(ctx context.Context) *Queue {
	q, _ := ctx.Value(ctxKey{}).(*Queue)
	return q
}

// QueueID returns the identity of the queue ctx originated from, or idx.Zero.
func QueueID(ctx context.Context) idx.ID {
	if q := FromContext(ctx); q != nil {
		return q.id
	}
	return idx.Zero
}
