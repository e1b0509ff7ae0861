package actions

import (
	"log/slog"

	"github.com/c360/xmltrace/internal/extract"
	"github.com/c360/xmltrace/internal/model"
	"github.com/c360/xmltrace/internal/xmltree"
)

// BuildExtractRegistry builds the extract-mode registry: for each requested
// name, in order, it appends a (type-match, extract) rule if the name is
// known; unknown names warn on stderr and are ignored. The list always ends
// with the unconditional empty-task sentinel.
func BuildExtractRegistry(names []string, logger *slog.Logger) *Registry {
	reg := &Registry{}
	for _, name := range names {
		entry, ok := extract.Catalog[name]
		if !ok {
			logger.Warn("unknown extractor name, ignoring", "name", name)
			continue
		}
		reg.Rules = append(reg.Rules, Rule{
			Predicate: func(tree *xmltree.Node, _ model.Fragment) bool { return entry.TypeMatch(tree) },
			Action:    extractAction(entry),
		})
		logger.Info("extractor enabled", "name", name)
	}
	reg.Rules = append(reg.Rules, Rule{Predicate: Always, Action: EmptyTask})
	return reg
}

func extractAction(entry extract.Entry) Action {
	return func(tree *xmltree.Node, job model.Fragment, ctx *Context) {
		ts := packetTimestamp(tree)
		// entry.Run may mutate process-wide state (e.g. action_pdcp_cipher_data_pdu
		// records the last-seen PDCP timestamp), so it must run on the executor
		// goroutine like every other side effect, not here on the worker.
		ctx.Exec.Insert(job.SeqNum, func() {
			lines := entry.Run(tree, ts, ctx.State)
			for _, line := range lines {
				if err := ctx.State.WriteLine(line); err != nil {
					ctx.Exec.Fail(err)
					return
				}
			}
		})
	}
}
