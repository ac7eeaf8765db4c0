package orchestrator

import (
	"context"
	"sync"
)

// job is one unit of work for the loop. abort runs instead of run when the
// loop stops before reaching it.
type job struct {
	run   func(ctx context.Context)
	abort func()
}

// jobQueue is an unbounded FIFO. Producers never block, so effects performed
// on the loop goroutine may enqueue follow-up work without deadlocking.
type jobQueue struct {
	mu     sync.Mutex
	jobs   []job
	closed bool
	signal chan struct{}
}

func newJobQueue() *jobQueue {
	return &jobQueue{
		jobs:   make([]job, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// enqueue appends j and reports false once the queue is closed.
func (q *jobQueue) enqueue(j job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.jobs = append(q.jobs, j)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

func (q *jobQueue) tryDequeue() (job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return job{}, false
	}
	j := q.jobs[0]
	q.jobs[0] = job{}
	if len(q.jobs) == 1 {
		q.jobs = q.jobs[:0]
	} else {
		q.jobs = q.jobs[1:]
	}
	return j, true
}

func (q *jobQueue) wait() <-chan struct{} {
	return q.signal
}

// close stops intake and returns the jobs that never ran.
func (q *jobQueue) close() []job {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.signal)
	left := q.jobs
	q.jobs = nil
	return left
}
