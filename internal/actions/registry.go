// Package actions implements the ActionRegistry: an ordered list of
// (predicate, action) pairs a worker consults per parsed document. Only the
// first matching pair runs; every mode's registry ends with an unconditional
// sentinel so every seq_num produces exactly one OrderedTask.
package actions

import (
	"log/slog"
	"strconv"

	"github.com/c360/xmltrace/internal/executor"
	"github.com/c360/xmltrace/internal/model"
	"github.com/c360/xmltrace/internal/state"
	"github.com/c360/xmltrace/internal/xerrors"
	"github.com/c360/xmltrace/internal/xmltree"
)

// Context carries what an Action needs to schedule its OrderedTask: the
// executor to insert into, the process-wide state, and a logger for local
// warn-and-continue recovery.
type Context struct {
	Exec   *executor.Executor
	State  *state.State
	Logger *slog.Logger
}

// Predicate decides whether Action should run for this document. Must be
// pure and cheap.
type Predicate func(tree *xmltree.Node, job model.Fragment) bool

// Action may parse further and must schedule exactly one OrderedTask with
// job.SeqNum via ctx.Exec.Insert before returning (even an empty task).
type Action func(tree *xmltree.Node, job model.Fragment, ctx *Context)

// Rule is one (predicate, action) pair.
type Rule struct {
	Predicate Predicate
	Action    Action
}

// Registry is the ordered, write-once-at-Initializing, read-many-by-workers
// action list.
type Registry struct {
	Rules []Rule
}

// Always is the unconditional predicate used by single-action modes and by
// every registry's sentinel entry.
func Always(*xmltree.Node, model.Fragment) bool { return true }

// EmptyTask schedules a no-op OrderedTask, used as the sentinel action that
// guarantees every seq_num produces exactly one task even when nothing
// upstream matched.
func EmptyTask(_ *xmltree.Node, job model.Fragment, ctx *Context) {
	ctx.Exec.Insert(job.SeqNum, func() {})
}

// Dispatch runs the first matching rule's Action. If no rule matches, that
// is a program bug: the sentinel guarantees this cannot happen in a
// correctly constructed Registry.
func (r *Registry) Dispatch(tree *xmltree.Node, job model.Fragment, ctx *Context) error {
	for _, rule := range r.Rules {
		if rule.Predicate(tree, job) {
			rule.Action(tree, job, ctx)
			return nil
		}
	}
	return xerrors.WrapProgramBug(xerrors.ErrNoActionMatch, "actions", "Dispatch",
		"no predicate matched job seq_num="+strconv.FormatInt(job.SeqNum, 10))
}

// packetType extracts the dm_log_packet's type_id pair. The parsed root is
// the dm_log_packet element itself (see internal/xmltree), so this iterates
// its direct "pair" children.
func packetType(tree *xmltree.Node) (string, bool) {
	return pairValue(tree, "type_id")
}

// packetTimestamp extracts the timestamp pair, defaulting to "timestamp
// N/A" when the key is absent.
func packetTimestamp(tree *xmltree.Node) string {
	if v, ok := pairValue(tree, "timestamp"); ok {
		return v
	}
	return "timestamp N/A"
}

func pairValue(tree *xmltree.Node, key string) (string, bool) {
	for _, c := range tree.Children {
		if c.Name != "pair" {
			continue
		}
		if k, ok := c.Attr("key"); ok && k == key {
			return c.Text, true
		}
	}
	return "", false
}

// isPacketType reports whether the document's type_id equals name.
func isPacketType(tree *xmltree.Node, name string) bool {
	t, ok := packetType(tree)
	return ok && t == name
}
