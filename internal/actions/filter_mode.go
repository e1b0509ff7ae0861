package actions

import (
	"regexp"

	"github.com/c360/xmltrace/internal/model"
	"github.com/c360/xmltrace/internal/xmltree"
)

// BuildFilterRegistry builds the filter-mode registry: a single
// unconditional rule that echoes the fragment iff its type_id matches re.
func BuildFilterRegistry(re *regexp.Regexp) *Registry {
	return &Registry{Rules: []Rule{
		{Predicate: Always, Action: echoIfTypeMatch(re)},
	}}
}

func echoIfTypeMatch(re *regexp.Regexp) Action {
	return func(tree *xmltree.Node, job model.Fragment, ctx *Context) {
		matched := false
		if t, ok := packetType(tree); ok {
			matched = re.MatchString(t)
		}
		text := job.Text
		ctx.Exec.Insert(job.SeqNum, func() {
			if matched {
				if err := ctx.State.WriteFragment(text); err != nil {
					ctx.Exec.Fail(err)
				}
			}
		})
	}
}
