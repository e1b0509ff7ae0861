package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/c360/xmltrace/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermarksFor(t *testing.T) {
	wm := WatermarksFor(16)
	assert.Equal(t, 16*128, wm.High)
	assert.Equal(t, 16*32, wm.Mid)
	assert.Equal(t, 16*8, wm.Low)
}

func TestQueuePushPopOrder(t *testing.T) {
	q := New(WatermarksFor(4), 1)
	for i := 0; i < 5; i++ {
		_, err := q.Push(model.Fragment{SeqNum: int64(i)})
		require.NoError(t, err)
	}
	for i := 0; i < 5; i++ {
		f, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, int64(i), f.SeqNum)
	}
}

// TestQueueBackpressure verifies that with a single worker and HIGH=128
// (N=1), the splitter must block once 128 fragments are unprocessed, and
// draining down to LOW=8 releases exactly one blocked push.
func TestQueueBackpressure(t *testing.T) {
	wm := WatermarksFor(1) // HIGH=128, LOW=8
	q := New(wm, 1)

	for i := 0; i < wm.High; i++ {
		_, err := q.Push(model.Fragment{SeqNum: int64(i)})
		require.NoError(t, err)
	}
	assert.Equal(t, wm.High, q.Len())

	pushed := make(chan struct{})
	go func() {
		ok, err := q.Push(model.Fragment{SeqNum: int64(wm.High)})
		require.NoError(t, err)
		assert.True(t, ok)
		close(pushed)
	}()

	// The blocked push must not complete while size stays at HIGH.
	select {
	case <-pushed:
		t.Fatal("push completed before queue drained to LOW")
	case <-time.After(50 * time.Millisecond):
	}

	// Drain down to LOW; this should release the blocked pusher.
	for q.Len() > wm.Low {
		_, ok := q.Pop()
		require.True(t, ok)
	}

	select {
	case <-pushed:
	case <-time.After(time.Second):
		t.Fatal("push did not unblock after draining to LOW")
	}
}

func TestQueuePopAfterSplitterFinishedDrains(t *testing.T) {
	q := New(WatermarksFor(1), 1)
	_, err := q.Push(model.Fragment{SeqNum: 0})
	require.NoError(t, err)
	q.FinishSplitter()

	f, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, int64(0), f.SeqNum)

	_, ok = q.Pop()
	assert.False(t, ok, "pop on empty+finished queue must report done")
}

func TestQueueKillUnblocksPushAndPop(t *testing.T) {
	wm := WatermarksFor(1)
	q := New(wm, 2)

	for i := 0; i < wm.High; i++ {
		_, err := q.Push(model.Fragment{SeqNum: int64(i)})
		require.NoError(t, err)
	}

	q2 := New(WatermarksFor(1), 1)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = q.Push(model.Fragment{})
	}()
	go func() {
		defer wg.Done()
		_, ok := q2.Pop()
		assert.False(t, ok)
	}()

	q.Kill()
	q2.Kill()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Kill did not unblock waiters")
	}
}

func TestQueuePushReportsNotPushedAfterKill(t *testing.T) {
	q := New(WatermarksFor(1), 1)
	q.Kill()

	pushed, err := q.Push(model.Fragment{SeqNum: 0})
	require.NoError(t, err)
	assert.False(t, pushed, "Push after Kill must report pushed=false without enqueuing")
	assert.Equal(t, 0, q.Len())
}

func TestQueueWorkerExitingReportsLast(t *testing.T) {
	q := New(WatermarksFor(1), 2)
	assert.False(t, q.WorkerExiting())
	assert.True(t, q.WorkerExiting())
}
