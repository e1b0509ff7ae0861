// Package executor implements the single-threaded in-order executor: a
// min-heap reassembler that runs deferred OrderedTask closures strictly by
// sequence number, restoring the splitter's total order to worker side
// effects. Built on container/heap plus a mutex and condition variable.
package executor

import (
	"container/heap"
	"sync"

	"github.com/c360/xmltrace/internal/model"
	"github.com/c360/xmltrace/internal/xerrors"
)

// taskHeap is a min-heap of OrderedTasks keyed by SeqNum.
type taskHeap []model.OrderedTask

func (h taskHeap) Len() int            { return len(h) }
func (h taskHeap) Less(i, j int) bool  { return h[i].SeqNum < h[j].SeqNum }
func (h taskHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x interface{}) { *h = append(*h, x.(model.OrderedTask)) }
func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Executor is the single-threaded in-order reassembler.
type Executor struct {
	mu   sync.Mutex
	cond *sync.Cond

	heap taskHeap

	nextExpected int64

	noMoreTasks    bool
	earlyTerminate bool

	// failure is the first-writer-wins stored failure, surfaced to the
	// lifecycle via Err() after Run returns.
	failure error

	// finished is called exactly once, when the executor transitions from
	// "all tasks up to no-more-tasks consumed" to done, i.e. the
	// ExtractorFinished -> InOrderExecutorFinished lifecycle edge. It is
	// invoked with the executor's mutex NOT held.
	finished func()
}

// New constructs an Executor. finished is invoked once, without the
// executor's lock held, when the executor drains cleanly to completion.
func New(finished func()) *Executor {
	e := &Executor{finished: finished}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// Insert schedules a closure to run once nextExpected reaches seq.
func (e *Executor) Insert(seq int64, run func()) {
	e.mu.Lock()
	heap.Push(&e.heap, model.OrderedTask{SeqNum: seq, Run: run})
	shouldSignal := seq == e.nextExpected
	e.mu.Unlock()
	if shouldSignal {
		e.cond.Broadcast()
	}
}

// NoMoreTasks records that the worker pool has finished submitting tasks
// (all workers have exited).
func (e *Executor) NoMoreTasks() {
	e.mu.Lock()
	e.noMoreTasks = true
	e.mu.Unlock()
	e.cond.Broadcast()
}

// Kill sets the early-terminate flag, unblocking Run.
func (e *Executor) Kill() {
	e.mu.Lock()
	e.earlyTerminate = true
	e.mu.Unlock()
	e.cond.Broadcast()
}

// Fail stores the first failure (first-writer-wins) and requests
// early-terminate.
func (e *Executor) Fail(err error) {
	e.mu.Lock()
	if e.failure == nil {
		e.failure = err
	}
	e.earlyTerminate = true
	e.mu.Unlock()
	e.cond.Broadcast()
}

// Err returns the stored failure, if any.
func (e *Executor) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failure
}

// Run is the executor's main loop; it returns when early-terminate is set or
// when it drains cleanly (heap empty and NoMoreTasks called), in which case
// it invokes finished exactly once.
func (e *Executor) Run() {
	for {
		e.mu.Lock()
		for {
			if e.earlyTerminate {
				e.mu.Unlock()
				return
			}
			if len(e.heap) > 0 && e.heap[0].SeqNum == e.nextExpected {
				break
			}
			if e.noMoreTasks && len(e.heap) == 0 {
				e.mu.Unlock()
				e.finished()
				return
			}
			if e.noMoreTasks && len(e.heap) > 0 && e.heap[0].SeqNum != e.nextExpected {
				err := xerrors.WrapProgramBug(xerrors.ErrExecutorGap, "executor", "Run",
					"heap top seq_num does not match next_expected with no more tasks pending")
				e.failure = err
				e.earlyTerminate = true
				e.mu.Unlock()
				return
			}
			e.cond.Wait()
		}

		var toRun []func()
		for len(e.heap) > 0 && e.heap[0].SeqNum == e.nextExpected {
			task := heap.Pop(&e.heap).(model.OrderedTask)
			toRun = append(toRun, task.Run)
			e.nextExpected++
		}
		e.mu.Unlock()

		for _, run := range toRun {
			run()
		}
	}
}
