package xmltree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimplePacket(t *testing.T) {
	input := `<dm_log_packet><pair key="timestamp">2024-01-01 00:00:00</pair><pair key="type_id">LTE_RRC_OTA_Packet</pair></dm_log_packet>`
	root, err := Parse([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, "dm_log_packet", root.Name)
	require.Len(t, root.Children, 2)

	ts := root.Children[0]
	key, ok := ts.Attr("key")
	require.True(t, ok)
	assert.Equal(t, "timestamp", key)
	assert.Equal(t, "2024-01-01 00:00:00", ts.Text)
}

func TestParseSelfClosing(t *testing.T) {
	root, err := Parse([]byte(`<x/>`))
	require.NoError(t, err)
	assert.Equal(t, "x", root.Name)
	assert.Empty(t, root.Children)
}

func TestParseMalformedReturnsError(t *testing.T) {
	_, err := Parse([]byte(`<a><b></a>`))
	assert.Error(t, err)
}

func TestFindWithAttribute(t *testing.T) {
	input := `<root><item key="type_id">A</item><nested><item key="type_id">B</item></nested></root>`
	root, err := Parse([]byte(input))
	require.NoError(t, err)

	matches := root.FindWithAttribute("key", "type_id")
	require.Len(t, matches, 2)
	assert.Equal(t, "A", matches[0].Text)
	assert.Equal(t, "B", matches[1].Text)
}

func TestFindAllByName(t *testing.T) {
	input := `<root><pair>1</pair><child><pair>2</pair></child></root>`
	root, err := Parse([]byte(input))
	require.NoError(t, err)
	pairs := root.FindAll("pair")
	assert.Len(t, pairs, 2)
}
