// Package queue implements the bounded, watermarked FIFO between the
// splitter and the worker pool: a single mutex plus two condition
// variables, deliberately not a lock-free ring, so the three-watermark
// hysteresis policy and cooperative early-terminate stay easy to verify.
package queue

import (
	"sync"

	"github.com/c360/xmltrace/internal/model"
	"github.com/c360/xmltrace/internal/xerrors"
)

// Watermarks holds the three thresholds derived from worker count N.
type Watermarks struct {
	High int
	Mid  int
	Low  int
}

// WatermarksFor derives HIGH=N*128, MID=N*32, LOW=N*8 from the worker count.
func WatermarksFor(n int) Watermarks {
	return Watermarks{High: n * 128, Mid: n * 32, Low: n * 8}
}

// Queue is the FIFO of Fragments feeding the worker pool.
type Queue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	items []model.Fragment
	wm    Watermarks

	aboveHigh bool // hysteresis latch: true after hitting HIGH, until LOW

	splitterFinished bool
	earlyTerminate   bool

	aliveWorkers int
}

// New constructs a Queue with the given watermarks and initial worker count
// (the alive-worker counter workers decrement as they exit).
func New(wm Watermarks, workerCount int) *Queue {
	q := &Queue{wm: wm, aliveWorkers: workerCount}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Push blocks until size < HIGH, the splitter is (wrongly) marked finished
// (a program bug), or early-terminate is requested (returns without
// pushing). pushed reports whether f actually entered the queue; a caller
// driving its own read loop (the splitter feed) should treat pushed==false
// as a signal to stop reading rather than continuing to push into a killed
// queue.
func (q *Queue) Push(f model.Fragment) (pushed bool, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) >= q.wm.High && !q.earlyTerminate {
		if q.splitterFinished {
			return false, xerrors.WrapProgramBug(xerrors.ErrQueueMisuse, "queue", "Push", "splitter already finished")
		}
		q.aboveHigh = true
		q.notFull.Wait()
	}
	if q.earlyTerminate {
		return false, nil
	}

	q.items = append(q.items, f)
	q.notEmpty.Signal()
	return true, nil
}

// Pop blocks while the queue is empty and the splitter has not finished and
// no early-terminate is set. It returns ok=false once the splitter has
// finished and the queue has drained, signalling the caller (a worker) to
// exit.
func (q *Queue) Pop() (f model.Fragment, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.splitterFinished && !q.earlyTerminate {
		q.notEmpty.Wait()
	}

	if q.earlyTerminate {
		return model.Fragment{}, false
	}
	if len(q.items) == 0 && q.splitterFinished {
		return model.Fragment{}, false
	}

	f = q.items[0]
	q.items = q.items[1:]

	if q.aboveHigh && len(q.items) <= q.wm.Low {
		q.aboveHigh = false
		q.notFull.Broadcast()
	}

	return f, true
}

// Len returns the current queue depth (for metrics and tests).
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// FinishSplitter marks that the splitter produced its last fragment; woken
// workers that find the queue empty will now exit instead of blocking.
func (q *Queue) FinishSplitter() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.splitterFinished = true
	q.notEmpty.Broadcast()
}

// Kill sets the early-terminate flag to true, unblocking any waiter.
func (q *Queue) Kill() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.earlyTerminate = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// WorkerExiting decrements the alive-worker counter and reports whether this
// call drove it to zero — the signal that all extractors are done.
func (q *Queue) WorkerExiting() (last bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.aliveWorkers--
	return q.aliveWorkers == 0
}
