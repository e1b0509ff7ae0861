package actions

import (
	"github.com/c360/xmltrace/internal/model"
	"github.com/c360/xmltrace/internal/rangefile"
	"github.com/c360/xmltrace/internal/tsparse"
	"github.com/c360/xmltrace/internal/xerrors"
	"github.com/c360/xmltrace/internal/xmltree"
)

// BuildRangeRegistry builds the range-mode registry: a single unconditional
// rule that echoes the fragment iff its timestamp (seconds resolution)
// falls within any configured range.
func BuildRangeRegistry(ranges []rangefile.Range) *Registry {
	return &Registry{Rules: []Rule{
		{Predicate: Always, Action: echoWithinTimeRange(ranges)},
	}}
}

func echoWithinTimeRange(ranges []rangefile.Range) Action {
	return func(tree *xmltree.Node, job model.Fragment, ctx *Context) {
		tsStr := packetTimestamp(tree)
		secs, err := tsparse.ParseSeconds(tsStr)
		if err != nil {
			// Unlike dedup and reorder, range mode does not recover from an
			// unparseable timestamp: the run fails at this fragment's turn.
			ferr := xerrors.WrapInput(err, "actions", "echoWithinTimeRange",
				"parse timestamp of fragment from "+job.FileName)
			ctx.Exec.Insert(job.SeqNum, func() { ctx.Exec.Fail(ferr) })
			return
		}

		inRange := rangefile.Contains(ranges, secs)
		text := job.Text
		ctx.Exec.Insert(job.SeqNum, func() {
			if inRange {
				if err := ctx.State.WriteFragment(text); err != nil {
					ctx.Exec.Fail(err)
				}
			}
		})
	}
}
