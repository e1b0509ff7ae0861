package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/c360/xmltrace/internal/actions"
	"github.com/c360/xmltrace/internal/executor"
	"github.com/c360/xmltrace/internal/metrics"
	"github.com/c360/xmltrace/internal/queue"
	"github.com/c360/xmltrace/internal/splitter"
	"github.com/c360/xmltrace/internal/state"
	"github.com/c360/xmltrace/internal/worker"
	"github.com/c360/xmltrace/internal/xerrors"
)

// Config describes one end-to-end run: an ordered list of input sources fed
// through a fixed worker pool and a single mode's action registry.
type Config struct {
	Sources  []splitter.Source
	Workers  int
	Registry *actions.Registry
	State    *state.State
	Logger   *slog.Logger
	FastPath bool
	Metrics  *worker.Metrics

	// PromMetrics, if non-nil, receives queue depth, split-fragment counts,
	// and lifecycle-stage updates over the run. A nil PromMetrics disables
	// this instrumentation entirely.
	PromMetrics *metrics.Metrics
}

// Run drives one complete pipeline execution, blocking until the input is
// exhausted and every scheduled OrderedTask has run, or until ctx is
// cancelled or a fatal error occurs. It returns the first fatal error, if
// any; callers are responsible for flushing cfg.State afterward regardless of
// the returned error, since partial output may already be buffered.
func Run(ctx context.Context, cfg Config) error {
	var onStage func(Stage)
	if cfg.PromMetrics != nil {
		onStage = func(s Stage) { cfg.PromMetrics.SetStage(stageNames, s.String()) }
	}
	tracker := NewTracker(cfg.Logger, onStage)

	q := queue.New(queue.WatermarksFor(cfg.Workers), cfg.Workers)

	finished := make(chan struct{})
	var closeFinishedOnce sync.Once
	ex := executor.New(func() { closeFinishedOnce.Do(func() { close(finished) }) })

	actx := &actions.Context{Exec: ex, State: cfg.State, Logger: cfg.Logger}
	pool := worker.New(cfg.Workers, q, cfg.Registry, actx, cfg.Metrics)
	sp := splitter.New(cfg.Sources, splitter.WithFastPath(cfg.FastPath))

	tracker.Transition(AllRunning)

	var exWG sync.WaitGroup
	exWG.Add(1)
	go func() {
		defer exWG.Done()
		ex.Run()
	}()

	pool.Start()

	// The splitter-feed and pool-drain goroutines are the two stages an
	// errgroup can usefully join: either failing cancels gctx, which the
	// watcher below turns into a Kill() on the queue and executor. The
	// watcher itself stays outside the group since gctx.Done() never fires
	// on a clean run, which would otherwise leave g.Wait() blocked forever.
	g, gctx := errgroup.WithContext(ctx)

	cancelWatch := make(chan struct{})
	defer close(cancelWatch)
	go func() {
		select {
		case <-gctx.Done():
			q.Kill()
			ex.Kill()
		case <-cancelWatch:
		}
	}()

	g.Go(func() error {
		if err := feedQueue(sp, q, cfg.PromMetrics); err != nil {
			ex.Fail(err)
			q.Kill()
			return err
		}
		q.FinishSplitter()
		tracker.Transition(SplitterFinished)
		return nil
	})

	g.Go(func() error {
		pool.Wait()
		return nil
	})

	groupErr := g.Wait()
	tracker.Transition(ExtractorFinished)

	exWG.Wait()
	select {
	case <-finished:
	default:
	}

	if err := ex.Err(); err != nil {
		tracker.Fail(err)
		return err
	}
	if groupErr != nil {
		tracker.Fail(groupErr)
		return groupErr
	}
	if ctx.Err() != nil {
		tracker.Fail(ctx.Err())
		return ctx.Err()
	}
	tracker.Transition(InOrderExecutorFinished)
	return nil
}

// feedQueue drains the splitter and pushes every fragment to q, in order.
// A truncated final fragment (input cut off mid-document) is a fatal input
// error, not a warn-and-skip condition. On a worker-triggered failure (the
// queue has been killed), pushed comes back false and the loop stops
// calling sp.Next() immediately rather than reading the remainder of a
// multi-GB input just to discard it against a dead queue.
func feedQueue(sp *splitter.Splitter, q *queue.Queue, m *metrics.Metrics) error {
	for {
		frag, ok, err := sp.Next()
		if err != nil {
			return xerrors.WrapIO(err, "pipeline", "feedQueue", "read from input sources")
		}
		if !ok {
			break
		}
		pushed, err := q.Push(frag)
		if err != nil {
			return err
		}
		if !pushed {
			return nil
		}
		if m != nil {
			m.FragmentsSplit.Inc()
			m.QueueDepth.Set(float64(q.Len()))
		}
	}
	if sp.Truncated() {
		return xerrors.WrapInput(xerrors.ErrTruncatedFragment, "pipeline", "feedQueue",
			"final fragment truncated mid-document")
	}
	return nil
}
