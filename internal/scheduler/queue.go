package scheduler

import (
	"sort"
	"sync"
	"time"

	"mindloop/internal/types"
)

// =============================================================================
// PRIORITY QUEUE
// =============================================================================
// Jobs are ordered by (-priority, insertion_seq): higher priority first,
// FIFO within a priority. Workers block on dequeue with a bounded wait.

type queuedJob struct {
	job types.CognitiveJob
	seq int64
}

// jobQueue is a mutex/cond guarded priority queue. Enqueued jobs take
// increasing positive sequence numbers; spliced jobs take decreasing
// negative ones so they sort ahead of everything already queued.
type jobQueue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	items    []queuedJob
	seq      int64
	frontSeq int64
	closed   bool
}

func newJobQueue() *jobQueue {
	q := &jobQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue inserts a job in priority order.
func (q *jobQueue) Enqueue(job types.CognitiveJob) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.seq++
	q.insert(queuedJob{job: job, seq: q.seq})
	q.cond.Signal()
}

// insert keeps items sorted. Caller holds the lock.
func (q *jobQueue) insert(item queuedJob) {
	idx := sort.Search(len(q.items), func(i int) bool {
		if q.items[i].job.Priority != item.job.Priority {
			return q.items[i].job.Priority < item.job.Priority
		}
		return q.items[i].seq > item.seq
	})
	q.items = append(q.items, queuedJob{})
	copy(q.items[idx+1:], q.items[idx:])
	q.items[idx] = item
}

// Splice inserts a job at the literal head of its priority band: it jumps
// ahead of every job already queued, including earlier splices and earlier
// jobs at the same priority.
func (q *jobQueue) Splice(job types.CognitiveJob) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.frontSeq--
	q.insert(queuedJob{job: job, seq: q.frontSeq})
	q.cond.Signal()
}

// Dequeue pops the highest-priority job, waiting up to maxWait. The boolean
// is false on timeout or queue closure.
func (q *jobQueue) Dequeue(maxWait time.Duration) (types.CognitiveJob, bool) {
	deadline := time.Now().Add(maxWait)

	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		if q.closed {
			return types.CognitiveJob{}, false
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return types.CognitiveJob{}, false
		}
		// sync.Cond has no timed wait; a timer broadcast bounds the sleep.
		timer := time.AfterFunc(remaining, func() {
			q.mu.Lock()
			q.cond.Broadcast()
			q.mu.Unlock()
		})
		q.cond.Wait()
		timer.Stop()
	}

	item := q.items[0]
	q.items = q.items[1:]
	return item.job, true
}

// Len returns the current queue depth.
func (q *jobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close wakes all waiters and discards queued jobs.
func (q *jobQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.items = nil
	q.cond.Broadcast()
}
