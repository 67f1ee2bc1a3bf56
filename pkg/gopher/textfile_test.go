package gopher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTextFile(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "dot lines are removed and the terminator stops",
			in:   "Line1\n.\nLine2\n.\r\n",
			want: "Line1\nLine2\n",
		},
		{
			name: "crlf document",
			in:   "Hello\r\nWorld\r\n.\r\n",
			want: "Hello\r\nWorld\r\n",
		},
		{
			name: "stuffed dots are unstuffed",
			in:   "a\n..hidden\n.b\n",
			want: "a\n.hidden\nb\n",
		},
		{
			name: "nothing after the terminator",
			in:   "keep\n.\r\nlost\n",
			want: "keep\n",
		},
		{
			name: "leading dot is content",
			in:   ".profile\n",
			want: ".profile\n",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ParseTextFile([]byte(tt.in))
			require.Equal(t, tt.want, out.String())
			require.Equal(t, len(tt.want), out.Len(), "the length stops at the terminator")
		})
	}
}
