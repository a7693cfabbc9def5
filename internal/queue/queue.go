// Package queue implements the bounded admission queue: a FIFO of jobs with
// a fixed capacity, immediate rejection when full, and a tracking map that
// backs status reporting and cooperative cancellation.
package queue

import (
	"context"
	"fmt"
	"sync"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 50

// State is a tracked job's position in the queue lifecycle.
type State string

const (
	StateQueued  State = "queued"
	StateRunning State = "running"
)

// Status is a point-in-time snapshot of the queue.
type Status struct {
	Pending  int
	Active   int
	Capacity int
}

// fullError signals that the queue is at capacity.
type fullError struct{ capacity int }

func (e fullError) Error() string { return fmt.Sprintf("queue full (capacity %d)", e.capacity) }

// IsFull reports whether err is a queue-full rejection.
func IsFull(err error) bool {
	_, ok := err.(fullError)
	return ok
}

type entry struct {
	job   *Job
	state State
}

// Queue is safe for any number of concurrent submitters and consumers.
// Its critical sections cover only handoff and bookkeeping, never job execution.
type Queue struct {
	ch chan *Job

	mu      sync.Mutex
	tracked map[string]*entry
	active  int
}

// New returns an empty queue holding at most capacity pending jobs.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{ch: make(chan *Job, capacity), tracked: make(map[string]*entry)}
}

// Capacity returns the fixed pending capacity.
func (q *Queue) Capacity() int { return cap(q.ch) }

// Submit admits j or rejects it immediately when the queue is full.
func (q *Queue) Submit(j *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if j.token == nil {
		j.token = NewCancelToken()
	}
	select {
	case q.ch <- j:
		q.tracked[j.ID] = &entry{job: j, state: StateQueued}
		return nil
	default:
		return fullError{capacity: cap(q.ch)}
	}
}

// Dequeue blocks until a job is available or ctx is done. The returned job
// is tracked as running until Done is called for it.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	select {
	case j := <-q.ch:
		q.markRunning(j)
		return j, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryDequeue is the non-blocking form of Dequeue.
func (q *Queue) TryDequeue() (*Job, bool) {
	select {
	case j := <-q.ch:
		q.markRunning(j)
		return j, true
	default:
		return nil, false
	}
}

func (q *Queue) markRunning(j *Job) {
	q.mu.Lock()
	if e, ok := q.tracked[j.ID]; ok && e.state != StateRunning {
		e.state = StateRunning
		q.active++
	}
	q.mu.Unlock()
}

// Done removes a job from tracking once its execution has ended.
func (q *Queue) Done(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.tracked[id]
	if !ok {
		return
	}
	if e.state == StateRunning {
		q.active--
	}
	delete(q.tracked, id)
}

// Cancel flips the cooperative flag of a tracked job. It never interrupts
// running work; it reports false for ids that are not tracked.
func (q *Queue) Cancel(id string) bool {
	q.mu.Lock()
	e, ok := q.tracked[id]
	q.mu.Unlock()
	if !ok {
		return false
	}
	e.job.Token().Cancel()
	return true
}

// Lookup returns the tracked state of a job.
func (q *Queue) Lookup(id string) (State, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.tracked[id]
	if !ok {
		return "", false
	}
	return e.state, true
}

// Status never blocks on handoff.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Status{Pending: len(q.ch), Active: q.active, Capacity: cap(q.ch)}
}
