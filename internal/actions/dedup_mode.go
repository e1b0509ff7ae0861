package actions

import (
	"github.com/c360/xmltrace/internal/model"
	"github.com/c360/xmltrace/internal/tsparse"
	"github.com/c360/xmltrace/internal/xmltree"
)

// BuildDedupRegistry builds the dedup-mode registry: a single unconditional
// rule that echoes the fragment iff its timestamp (microsecond resolution)
// is >= every previously emitted timestamp.
func BuildDedupRegistry() *Registry {
	return &Registry{Rules: []Rule{
		{Predicate: Always, Action: echoIfNew},
	}}
}

func echoIfNew(tree *xmltree.Node, job model.Fragment, ctx *Context) {
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
		st := ctx.State
		if st.LatestSeenTimestampSeen && micros < st.LatestSeenTimestampMicros {
			ctx.Logger.Warn("dropping packet: timestamp regression",
				"file", job.FileName, "line", job.StartLine,
				"got_us", micros, "latest_us", st.LatestSeenTimestampMicros)
			return
		}
		if err := st.WriteFragment(text); err != nil {
			ctx.Exec.Fail(err)
			return
		}
		st.LatestSeenTimestampMicros = micros
		st.LatestSeenTimestampSeen = true
	})
}
