package actions

import (
	"github.com/c360/xmltrace/internal/model"
	"github.com/c360/xmltrace/internal/reorder"
	"github.com/c360/xmltrace/internal/tsparse"
	"github.com/c360/xmltrace/internal/xmltree"
)

// BuildReorderRegistry builds the reorder-mode registry: a single
// unconditional rule that feeds every fragment through window.Update.
// window is mutated exclusively from within OrderedTask closures, i.e. by
// the executor goroutine, matching the process-wide state ownership rule.
func BuildReorderRegistry(window *reorder.Window) *Registry {
	return &Registry{Rules: []Rule{
		{Predicate: Always, Action: updateReorderWindow(window)},
	}}
}

func updateReorderWindow(window *reorder.Window) Action {
	return func(tree *xmltree.Node, job model.Fragment, ctx *Context) {
		tsStr := packetTimestamp(tree)
		micros, err := tsparse.ParseMicros(tsStr)
		if err != nil {
			ctx.Exec.Insert(job.SeqNum, func() {
				ctx.Logger.Warn("dropping fragment: unparseable timestamp",
					"file", job.FileName, "line", job.StartLine, "timestamp", tsStr)
			})
			return
		}

		text := job.Text
		ctx.Exec.Insert(job.SeqNum, func() {
			for _, evicted := range window.Update(micros, text) {
				if err := ctx.State.WriteFragment(evicted); err != nil {
					ctx.Exec.Fail(err)
					return
				}
			}
		})
	}
}

// FlushReorderWindow drains the remaining entries at shutdown, in
// ascending-timestamp order.
func FlushReorderWindow(window *reorder.Window, st interface {
	WriteFragment([]byte) error
}) error {
	for _, text := range window.Flush() {
		if err := st.WriteFragment(text); err != nil {
			return err
		}
	}
	return nil
}
