// Package splitter implements the single-threaded lexical finite-state
// machine that carves an input byte stream into syntactically self-contained
// top-level XML fragments, without validating XML grammar.
package splitter

import (
	"bytes"
	"io"

	"github.com/c360/xmltrace/internal/model"
	"github.com/c360/xmltrace/internal/reader"
)

// state names the five FSM states used to lexically split fragments.
type state int

const (
	angleClosed state = iota
	angleOpen
	creatingSubtree
	creatingField
	closingSubtree
)

// Source is one named input stream in the ordered InputSource list.
type Source struct {
	Name string
	R    io.Reader
}

// Splitter produces a lazy, finite, non-restartable sequence of Fragments
// with contiguous SeqNum starting at 0.
type Splitter struct {
	sources  []Source
	srcIdx   int
	cur      *reader.Reader
	fastPath bool

	state state
	depth int

	buffering   bool
	buf         bytes.Buffer
	startLine   int
	currentLine int
	seqNum      int64

	justEnteredSubtree bool

	done bool
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithFastPath enables or disables the aligned-chunk fast path. Default on.
func WithFastPath(enabled bool) Option {
	return func(s *Splitter) { s.fastPath = enabled }
}

// New constructs a Splitter over the given ordered sources.
func New(sources []Source, opts ...Option) *Splitter {
	s := &Splitter{sources: sources, fastPath: true, currentLine: 1}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Splitter) advanceSource() bool {
	if s.cur != nil {
		s.srcIdx++
	}
	if s.srcIdx >= len(s.sources) {
		return false
	}
	s.cur = reader.New(s.sources[s.srcIdx].R, s.sources[s.srcIdx].Name)
	s.currentLine = 1
	return true
}

func (s *Splitter) currentName() string {
	if s.srcIdx < len(s.sources) {
		return s.sources[s.srcIdx].Name
	}
	return ""
}

// Next returns the next Fragment, or ok=false when all sources are
// exhausted. err is non-nil only for underlying I/O failures.
func (s *Splitter) Next() (frag model.Fragment, ok bool, err error) {
	if s.done {
		return model.Fragment{}, false, nil
	}
	if s.cur == nil {
		if !s.advanceSource() {
			s.done = true
			return model.Fragment{}, false, nil
		}
	}

	for {
		c, present, rerr := s.cur.ReadByte()
		if rerr != nil {
			return model.Fragment{}, false, rerr
		}
		if !present {
			// EOF on this source.
			if s.buffering {
				// Fragment truncated mid-stream; emit what we have and stop
				// entirely rather than splicing in the next file's bytes.
				s.done = true
				return s.emit(), true, nil
			}
			if !s.advanceSource() {
				s.done = true
				return model.Fragment{}, false, nil
			}
			continue
		}

		if frag, emitted, ferr := s.step(c); ferr != nil {
			return model.Fragment{}, false, ferr
		} else if emitted {
			return frag, true, nil
		}
	}
}

// step processes one byte through the FSM, appending to the in-flight
// fragment buffer as needed. If a fragment completes, ok=true.
func (s *Splitter) step(c byte) (frag model.Fragment, ok bool, err error) {
	if c == '\n' {
		s.currentLine++
	}

	startingFragment := !s.buffering && s.state == angleClosed && s.depth == 0 && c == '<'
	if startingFragment {
		s.buffering = true
		s.buf.Reset()
		s.startLine = s.currentLine
	}

	if s.buffering {
		s.buf.WriteByte(c)
	}

	prevState := s.state
	switch s.state {
	case angleClosed:
		if c == '<' {
			s.state = angleOpen
		}
	case angleOpen:
		if c == '/' {
			s.state = closingSubtree
		} else {
			s.state = creatingSubtree
		}
	case creatingSubtree:
		switch c {
		case '>':
			s.state = angleClosed
			s.depth++
		case '/':
			s.state = creatingField
		}
	case creatingField:
		if c == '>' {
			s.state = angleClosed
		} else {
			s.state = creatingSubtree
		}
	case closingSubtree:
		if c == '>' {
			s.state = angleClosed
			s.depth--
		}
	}

	s.justEnteredSubtree = prevState == angleOpen && s.state == creatingSubtree
	if s.justEnteredSubtree {
		s.runFastPath()
	}

	if s.buffering && s.state == angleClosed && s.depth == 0 {
		return s.emit(), true, nil
	}
	return model.Fragment{}, false, nil
}

// runFastPath attempts aligned 16-byte reads while the FSM sits in
// CreatingSubtree with the just-entered flag set. It disarms itself after
// the first failed (or partial) attempt and resumes single-byte stepping.
func (s *Splitter) runFastPath() {
	if !s.fastPath {
		return
	}
	for {
		chunk, newlines, ok, err := s.cur.ReadAlignedChunk()
		if err != nil || !ok {
			return
		}
		s.buf.Write(chunk[:])
		s.currentLine += newlines
	}
}

func (s *Splitter) emit() model.Fragment {
	text := make([]byte, s.buf.Len())
	copy(text, s.buf.Bytes())
	f := model.Fragment{
		SeqNum:    s.seqNum,
		Text:      text,
		FileName:  s.currentName(),
		StartLine: s.startLine,
		EndLine:   s.currentLine,
	}
	s.seqNum++
	s.buffering = false
	s.buf.Reset()
	return f
}

// Truncated reports whether the last Fragment returned by Next was cut off
// mid-document by EOF (depth > 0 when the stream ended). Callers that want
// to treat a truncated final fragment as a hard input error, rather than
// silently accepting a partial document, should check this after the final
// successful Next call.
func (s *Splitter) Truncated() bool {
	return s.done && s.depth != 0
}
