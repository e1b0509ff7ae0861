// Package reader implements the buffered byte-level source abstraction the
// lexical splitter consumes: single-byte reads plus an optional aligned
// 16-byte fast-path read that stands in for a SIMD chunk scan, using
// bytes.ContainsAny since Go has no portable SIMD intrinsics without cgo or
// assembly.
package reader

import (
	"bufio"
	"bytes"
	"io"

	"github.com/c360/xmltrace/internal/xerrors"
)

// ChunkWidth is the width of an aligned fast-path read.
const ChunkWidth = 16

// minBufSize is the minimum internal buffer size for each source.
const minBufSize = 16 * 1024

// sentinels are the bytes that make the fast-path bail out: any of these
// inside the next 16 bytes means the caller must fall back to byte-at-a-time
// stepping so the FSM sees each one individually.
const sentinels = "<>/"

// Reader wraps one input stream, offering byte-at-a-time reads and an
// optional aligned chunk read that succeeds only when the next ChunkWidth
// bytes contain none of '<', '>', '/'.
type Reader struct {
	br   *bufio.Reader
	name string
}

// New wraps r, tagged with name for error messages and Fragment.FileName.
func New(r io.Reader, name string) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, minBufSize), name: name}
}

// Name returns the source name this reader was constructed with.
func (r *Reader) Name() string { return r.name }

// ReadByte returns the next byte, or ok=false at EOF. Any non-EOF I/O error
// is returned classified as an I/O error.
func (r *Reader) ReadByte() (b byte, ok bool, err error) {
	c, err := r.br.ReadByte()
	if err != nil {
		if err == io.EOF {
			return 0, false, nil
		}
		return 0, false, xerrors.WrapIO(err, "reader", "ReadByte", "read from "+r.name)
	}
	return c, true, nil
}

// ReadAlignedChunk attempts to consume ChunkWidth bytes at once. It succeeds
// (ok=true) only if none of those bytes is '<', '>', or '/'; otherwise it
// consumes nothing and returns ok=false so the caller falls back to
// ReadByte. newlines is the count of '\n' within the consumed chunk.
func (r *Reader) ReadAlignedChunk() (chunk [ChunkWidth]byte, newlines int, ok bool, err error) {
	peek, peekErr := r.br.Peek(ChunkWidth)
	if len(peek) < ChunkWidth {
		// Not enough buffered bytes for a full aligned chunk; fall back.
		// A real I/O error (other than EOF) still needs surfacing.
		if peekErr != nil && peekErr != io.EOF && peekErr != bufio.ErrBufferFull {
			return chunk, 0, false, xerrors.WrapIO(peekErr, "reader", "ReadAlignedChunk", "peek from "+r.name)
		}
		return chunk, 0, false, nil
	}

	if bytes.ContainsAny(peek, sentinels) {
		return chunk, 0, false, nil
	}

	copy(chunk[:], peek)
	for _, c := range chunk {
		if c == '\n' {
			newlines++
		}
	}

	if _, err := r.br.Discard(ChunkWidth); err != nil {
		return chunk, 0, false, xerrors.WrapIO(err, "reader", "ReadAlignedChunk", "discard from "+r.name)
	}

	return chunk, newlines, true, nil
}
