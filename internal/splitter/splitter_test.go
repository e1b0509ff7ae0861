package splitter

import (
	"strings"
	"testing"

	"github.com/c360/xmltrace/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, s *Splitter) []model.Fragment {
	t.Helper()
	var out []model.Fragment
	for {
		f, ok, err := s.Next()
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, f)
	}
}

func TestSplitterBasic(t *testing.T) {
	// S1: basic splitter.
	src := []Source{{Name: "in", R: strings.NewReader(`<a><b/></a><c></c>`)}}
	frags := collect(t, New(src))
	require.Len(t, frags, 2)
	assert.Equal(t, int64(0), frags[0].SeqNum)
	assert.Equal(t, "<a><b/></a>", string(frags[0].Text))
	assert.Equal(t, 1, frags[0].StartLine)
	assert.Equal(t, 1, frags[0].EndLine)

	assert.Equal(t, int64(1), frags[1].SeqNum)
	assert.Equal(t, "<c></c>", string(frags[1].Text))
	assert.Equal(t, 1, frags[1].StartLine)
	assert.Equal(t, 1, frags[1].EndLine)
}

func TestSplitterLineTracking(t *testing.T) {
	// S2: line tracking across fragments.
	input := "<a>\n</a>\n<b></b>"
	src := []Source{{Name: "in", R: strings.NewReader(input)}}
	frags := collect(t, New(src))
	require.Len(t, frags, 2)
	assert.Equal(t, "<a>\n</a>", string(frags[0].Text))
	assert.Equal(t, 1, frags[0].StartLine)
	assert.Equal(t, 2, frags[0].EndLine)

	assert.Equal(t, "<b></b>", string(frags[1].Text))
	assert.Equal(t, 3, frags[1].StartLine)
	assert.Equal(t, 3, frags[1].EndLine)
}

func TestSplitterEmptyInput(t *testing.T) {
	src := []Source{{Name: "in", R: strings.NewReader("")}}
	frags := collect(t, New(src))
	assert.Empty(t, frags)
}

func TestSplitterSelfClosingTopLevel(t *testing.T) {
	src := []Source{{Name: "in", R: strings.NewReader(`<x/>`)}}
	frags := collect(t, New(src))
	require.Len(t, frags, 1)
	assert.Equal(t, "<x/>", string(frags[0].Text))
}

func TestSplitterFastPathBitForBitIdentical(t *testing.T) {
	input := `<pkt attr1="aaaaaaaaaaaaaaaaaaaaaaaaaaaa" attr2="bbbbbbbbbbbbbbbbbbbbbbb"><pair key="timestamp">2024-01-01 00:00:00</pair></pkt>`
	src1 := []Source{{Name: "in", R: strings.NewReader(input)}}
	src2 := []Source{{Name: "in", R: strings.NewReader(input)}}

	withFast := collect(t, New(src1, WithFastPath(true)))
	withoutFast := collect(t, New(src2, WithFastPath(false)))

	require.Len(t, withFast, 1)
	require.Len(t, withoutFast, 1)
	assert.Equal(t, withoutFast[0].Text, withFast[0].Text)
	assert.Equal(t, withoutFast[0].StartLine, withFast[0].StartLine)
	assert.Equal(t, withoutFast[0].EndLine, withFast[0].EndLine)
}

func TestSplitterMultipleFiles(t *testing.T) {
	src := []Source{
		{Name: "a.xml", R: strings.NewReader("<a></a>\n")},
		{Name: "b.xml", R: strings.NewReader("<b></b>")},
	}
	frags := collect(t, New(src))
	require.Len(t, frags, 2)
	assert.Equal(t, "a.xml", frags[0].FileName)
	assert.Equal(t, "b.xml", frags[1].FileName)
	// line numbers reset at file boundary
	assert.Equal(t, 1, frags[1].StartLine)
}

func TestSplitterContiguousSeqNums(t *testing.T) {
	input := strings.Repeat(`<p><pair key="type_id">X</pair></p>`, 50)
	src := []Source{{Name: "in", R: strings.NewReader(input)}}
	frags := collect(t, New(src))
	require.Len(t, frags, 50)
	for i, f := range frags {
		assert.Equal(t, int64(i), f.SeqNum)
		assert.True(t, len(f.Text) > 0 && f.Text[0] == '<' && f.Text[len(f.Text)-1] == '>')
	}
}
