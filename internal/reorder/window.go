// Package reorder implements the bounded, timestamp-keyed reorder window
// used only by reorder mode: a tail-biased insert (input arrives
// near-sorted) followed by eviction of every entry whose distance from the
// current maximum timestamp exceeds the tolerance.
package reorder

import (
	"sort"

	"github.com/c360/xmltrace/internal/xerrors"
)

// entry pairs a timestamp (microseconds) with the fragment text to emit.
type entry struct {
	ts   int64
	text []byte
}

// Window is an ordered multi-mapping timestamp -> fragment text.
type Window struct {
	tolerance int64
	entries   []entry // kept sorted ascending by ts
}

// New constructs a Window. tolerance <= 0 is rejected as an argument error.
func New(tolerance int64) (*Window, error) {
	if tolerance <= 0 {
		return nil, xerrors.WrapArgument(xerrors.ErrInvalidTolerance, "reorder", "New", "tolerance must be positive")
	}
	return &Window{tolerance: tolerance}, nil
}

// Update inserts (ts, text) and evicts (returning) every entry whose
// distance from the new maximum timestamp exceeds the tolerance, in
// ascending-timestamp order. After Update returns, the window's span is
// guaranteed <= tolerance.
func (w *Window) Update(ts int64, text []byte) (evicted [][]byte) {
	w.insert(entry{ts: ts, text: text})

	tsMax := w.entries[len(w.entries)-1].ts
	cut := 0
	for cut < len(w.entries) && tsMax-w.entries[cut].ts > w.tolerance {
		cut++
	}
	if cut > 0 {
		for i := 0; i < cut; i++ {
			evicted = append(evicted, w.entries[i].text)
		}
		w.entries = w.entries[cut:]
	}
	return evicted
}

// insert places e in ascending-ts order, scanning from the tail since input
// arrives near-sorted.
func (w *Window) insert(e entry) {
	i := len(w.entries)
	for i > 0 && w.entries[i-1].ts > e.ts {
		i--
	}
	if i == len(w.entries) {
		w.entries = append(w.entries, e)
		return
	}
	// When the tail scan walked back more than 32 entries, the position is
	// recomputed by binary search, which places e before (not after) any
	// entries with an equal timestamp; near-sorted input keeps this branch
	// cold.
	if len(w.entries)-i > 32 {
		i = sort.Search(len(w.entries), func(j int) bool { return w.entries[j].ts >= e.ts })
	}
	w.entries = append(w.entries, entry{})
	copy(w.entries[i+1:], w.entries[i:])
	w.entries[i] = e
}

// Flush emits all remaining entries in ascending-timestamp order and clears
// the window.
func (w *Window) Flush() [][]byte {
	out := make([][]byte, len(w.entries))
	for i, e := range w.entries {
		out[i] = e.text
	}
	w.entries = nil
	return out
}

// Len reports the number of entries currently held (for tests/metrics).
func (w *Window) Len() int { return len(w.entries) }
