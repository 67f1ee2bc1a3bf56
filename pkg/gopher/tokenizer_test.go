package gopher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func collectTokens(t *testing.T, source string) []string {
	t.Helper()
	tz := NewTokenizer([]byte(source))
	var out []string
	for i := 0; i < 64; i++ {
		tok := tz.Next()
		if IsEOF(&tok) {
			return out
		}
		out = append(out, tok.String())
	}
	t.Fatalf("tokenizer did not reach the end of %q", source)
	return nil
}

func TestTokenizer_LineTypeCharacter(t *testing.T) {
	tz := NewTokenizer([]byte("1Test\tfoo\r\n"))

	tok := tz.Next()
	require.Equal(t, "1", tok.String())
	require.Equal(t, 1, tz.Pos())

	tok = tz.Next()
	require.Equal(t, "Test", tok.String())
	require.Equal(t, 6, tz.Pos(), "the tab is consumed")

	tok = tz.Next()
	require.Equal(t, "foo", tok.String())

	tok = tz.Next()
	require.Equal(t, "\r\n", tok.String())

	tok = tz.Next()
	require.True(t, IsEOF(&tok))
	require.Equal(t, 0, tok.Cap())
}

func TestTokenizer_Lines(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name:   "full line",
			source: "1Home\t/\thost.example\t70\r\n",
			want:   []string{"1", "Home", "/", "host.example", "70", "\r\n"},
		},
		{
			name:   "two lines",
			source: "0a\tb\r\niInfo\r\n",
			want:   []string{"0", "a", "b", "\r\n", "i", "Info", "\r\n"},
		},
		{
			name:   "empty field",
			source: "iText\t\tnull.host\t1\r\n",
			want:   []string{"i", "Text", "", "null.host", "1", "\r\n"},
		},
		{
			name:   "lf only",
			source: "1a\tb\n",
			want:   []string{"1", "a", "b", "\n"},
		},
		{
			name:   "spaces are content",
			source: "1two words\t/x y\r\n",
			want:   []string{"1", "two words", "/x y", "\r\n"},
		},
		{
			name:   "nul ends the stream",
			source: "1a\x00\tb",
			want:   []string{"1", "a"},
		},
		{
			name:   "empty",
			source: "",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, collectTokens(t, tt.source))
		})
	}
}

func TestNextToken_Cursor(t *testing.T) {
	src := []byte("1a\tb")
	pos := 0
	NextToken(src, &pos)
	require.Equal(t, 1, pos)

	tok := NextToken(src, &pos)
	require.Equal(t, "a", tok.String())
	require.Equal(t, 3, pos)

	tok = NextToken(src, &pos)
	require.Equal(t, "b", tok.String())
	require.Equal(t, len(src), pos)

	tok = NextToken(src, &pos)
	require.True(t, IsEOF(&tok))
	require.Equal(t, len(src), pos, "the end of the source is sticky")
}
