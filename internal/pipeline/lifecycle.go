// Package pipeline wires the splitter, bounded queue, worker pool, and
// in-order executor into the run's lifecycle state machine:
// Initializing -> AllRunning -> SplitterFinished -> ExtractorFinished ->
// InOrderExecutorFinished, with Failed reachable from any state.
package pipeline

import (
	"log/slog"
	"sync"
)

// Stage names one point in the run's lifecycle.
type Stage int

const (
	Initializing Stage = iota
	AllRunning
	SplitterFinished
	ExtractorFinished
	InOrderExecutorFinished
	Failed
)

// stageNames lists every Stage's string form, in declaration order, for
// SetStage's single-sample-gauge sweep.
var stageNames = []string{
	Initializing.String(),
	AllRunning.String(),
	SplitterFinished.String(),
	ExtractorFinished.String(),
	InOrderExecutorFinished.String(),
	Failed.String(),
}

func (s Stage) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case AllRunning:
		return "all_running"
	case SplitterFinished:
		return "splitter_finished"
	case ExtractorFinished:
		return "extractor_finished"
	case InOrderExecutorFinished:
		return "in_order_executor_finished"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Tracker records the run's current lifecycle stage and the first failure
// (first-writer-wins), logging every transition.
type Tracker struct {
	mu      sync.Mutex
	stage   Stage
	err     error
	logger  *slog.Logger
	onStage func(Stage)
}

// NewTracker constructs a Tracker starting at Initializing. onStage, if
// non-nil, is invoked (without the tracker's lock held) on every transition,
// including the implicit one into Initializing.
func NewTracker(logger *slog.Logger, onStage func(Stage)) *Tracker {
	t := &Tracker{stage: Initializing, logger: logger, onStage: onStage}
	if onStage != nil {
		onStage(Initializing)
	}
	return t
}

// Transition moves the tracker to stage, unless a failure was already
// recorded (Failed is terminal).
func (t *Tracker) Transition(stage Stage) {
	t.mu.Lock()
	if t.stage == Failed {
		t.mu.Unlock()
		return
	}
	t.stage = stage
	t.mu.Unlock()
	t.logger.Info("lifecycle transition", "stage", stage.String())
	if t.onStage != nil {
		t.onStage(stage)
	}
}

// Fail records the first failure and moves the tracker to Failed.
func (t *Tracker) Fail(err error) {
	t.mu.Lock()
	if t.err != nil {
		t.mu.Unlock()
		return
	}
	t.err = err
	t.stage = Failed
	t.mu.Unlock()
	t.logger.Error("lifecycle transition", "stage", Failed.String(), "error", err)
	if t.onStage != nil {
		t.onStage(Failed)
	}
}

// Stage returns the current stage.
func (t *Tracker) Stage() Stage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stage
}

// Err returns the first recorded failure, if any.
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}
