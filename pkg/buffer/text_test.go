package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTextBuilder_Terminated(t *testing.T) {
	sb := NewTextBuilderWithContents("gopher")
	require.Equal(t, 7, sb.Cap(), "capacity includes the terminator")
	require.Equal(t, 6, sb.Len())
	require.Equal(t, byte(0), sb.contents[sb.Len()])
}

func TestTextBuilder_AppendReallocatesExactly(t *testing.T) {
	sb := NewTextBuilder(4)
	sb.AppendChar('a')
	sb.AppendChar('b')
	require.Equal(t, 4, sb.Cap(), "still fits, no reallocation")

	sb.AppendChar('c')
	sb.AppendChar('d')
	require.Equal(t, 5, sb.Cap())
	require.Equal(t, "abcd", sb.String())

	sb.AppendContents("\r\n")
	require.Equal(t, 7, sb.Cap())
	require.True(t, sb.Equal("abcd\r\n"))

	last, ok := sb.LastChar()
	require.True(t, ok)
	require.Equal(t, byte('\n'), last)
}

func TestTextBuilder_SetContents(t *testing.T) {
	sb := NewTextBuilder(32)
	sb.SetContents("short")
	require.Equal(t, 32, sb.Cap(), "no shrinking on set")
	require.Equal(t, "short", sb.String())

	sb.SetContents("a much longer piece of text than thirty-two bytes")
	require.Equal(t, len("a much longer piece of text than thirty-two bytes")+1, sb.Cap())

	sb.SetContents("x")
	require.Equal(t, "x", sb.String())
	require.Equal(t, byte(0), sb.contents[1])
}

func TestTextBuilder_Release(t *testing.T) {
	sb := NewTextBuilderWithContents("abc")
	sb.Release()
	require.True(t, sb.Released())
	require.Equal(t, 0, sb.Len())
	require.Equal(t, "", sb.String())

	sb.Release()
	require.True(t, sb.Released(), "double release is safe for TextBuilder")

	var zero TextBuilder
	_, ok := zero.LastChar()
	require.False(t, ok)
	zero.AppendChar('z')
	require.Equal(t, "z", zero.String())
}

func TestTextView(t *testing.T) {
	v := NewTextView("host.example")
	require.Equal(t, 12, v.Len())
	require.Equal(t, "host.example", v.String())

	empty := NewTextView("")
	require.Equal(t, TextView{}, empty, "empty input yields the canonical empty view")
	empty.Release()
	require.True(t, empty.IsEmpty())

	sb := NewTextBuilderWithContents("from builder")
	fromSb := NewTextViewFromBuilder(&sb)
	sb.SetContents("mutated")
	require.Equal(t, "from builder", fromSb.String())

	v.Release()
	require.True(t, v.IsEmpty())
	require.Equal(t, "", v.String())
	v.Release()
}
