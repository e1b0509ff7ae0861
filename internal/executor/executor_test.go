package executor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutorRunsInOrder(t *testing.T) {
	var mu sync.Mutex
	var order []int

	finishedCh := make(chan struct{})
	e := New(func() { close(finishedCh) })

	go e.Run()

	// Insert out of order; executor must still run 0,1,2,3.
	for _, seq := range []int64{3, 1, 0, 2} {
		seq := seq
		e.Insert(seq, func() {
			mu.Lock()
			order = append(order, int(seq))
			mu.Unlock()
		})
	}
	e.NoMoreTasks()

	select {
	case <-finishedCh:
	case <-time.After(time.Second):
		t.Fatal("executor did not finish")
	}

	require.NoError(t, e.Err())
	assert.Equal(t, []int{0, 1, 2, 3}, order)
}

func TestExecutorGapIsProgramBug(t *testing.T) {
	finishedCh := make(chan struct{})
	e := New(func() { close(finishedCh) })
	go e.Run()

	e.Insert(0, func() {})
	e.Insert(2, func() {}) // gap: seq 1 never arrives
	e.NoMoreTasks()

	deadline := time.After(time.Second)
	for e.Err() == nil {
		select {
		case <-deadline:
			t.Fatal("executor never surfaced the gap")
		case <-time.After(10 * time.Millisecond):
		}
	}
	assert.Contains(t, e.Err().Error(), "gap")
}

func TestExecutorKillStopsRun(t *testing.T) {
	e := New(func() {})
	doneCh := make(chan struct{})
	go func() {
		e.Run()
		close(doneCh)
	}()

	e.Kill()

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Kill")
	}
}

func TestExecutorSequentialInsertionNoGaps(t *testing.T) {
	const n = 500
	var mu sync.Mutex
	var order []int

	finishedCh := make(chan struct{})
	e := New(func() { close(finishedCh) })
	go e.Run()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Insert(int64(i), func() {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
			})
		}()
	}
	wg.Wait()
	e.NoMoreTasks()

	select {
	case <-finishedCh:
	case <-time.After(2 * time.Second):
		t.Fatal("executor did not finish")
	}

	require.NoError(t, e.Err())
	require.Len(t, order, n)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}
