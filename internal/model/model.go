// Package model defines the data types shared across the splitter, queue,
// worker pool, and executor stages.
package model

// Fragment is the unit passed from the splitter to a worker: one top-level
// XML document plus its sequence number and source coordinates.
type Fragment struct {
	SeqNum    int64
	Text      []byte
	FileName  string
	StartLine int
	EndLine   int
}

// OrderedTask is a deferred side-effect closure carrying the originating
// sequence number. The in-order executor runs these strictly by SeqNum.
type OrderedTask struct {
	SeqNum int64
	Run    func()
}
