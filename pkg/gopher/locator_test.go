package gopher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLocator(t *testing.T) {
	tests := []struct {
		in   string
		want Locator
	}{
		{"gopher.example", Locator{Host: "gopher.example", Port: 70, Type: TypeMenu, Selector: "/"}},
		{"gopher.example/1/docs", Locator{Host: "gopher.example", Port: 70, Type: TypeMenu, Selector: "/docs"}},
		{"gopher.example/0/about.txt", Locator{Host: "gopher.example", Port: 70, Type: TypeTextFile, Selector: "/about.txt"}},
		{"gopher.example/docs", Locator{Host: "gopher.example", Port: 70, Type: TypeMenu, Selector: "/docs"}},
		{"gopher.example:7070/7/search", Locator{Host: "gopher.example", Port: 7070, Type: TypeIndexServer, Selector: "/search"}},
		{"gopher://gopher.example", Locator{Host: "gopher.example", Port: 70, Type: TypeMenu, Selector: ""}},
		{"gopher://gopher.example/0/file.txt", Locator{Host: "gopher.example", Port: 70, Type: TypeTextFile, Selector: "/file.txt"}},
		{"GOPHER://gopher.example:71/1", Locator{Host: "gopher.example", Port: 71, Type: TypeMenu, Selector: ""}},
		{"[::1]:7070/1/", Locator{Host: "::1", Port: 7070, Type: TypeMenu, Selector: "/"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLocator(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseLocator_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", ":70", "host:port", "host:0", "gopher:///1/"} {
		_, err := ParseLocator(in)
		require.ErrorIs(t, err, ErrInvalidLocator, "input %q", in)
	}
}

func TestLocator_String(t *testing.T) {
	loc := Locator{Host: "gopher.example", Port: 70, Type: TypeTextFile, Selector: "/about.txt"}
	require.Equal(t, "gopher.example/0/about.txt", loc.String())
	require.Equal(t, "gopher://gopher.example/0/about.txt", loc.URL())

	loc.Port = 7070
	require.Equal(t, "gopher.example:7070/0/about.txt", loc.String())

	back, err := ParseLocator(loc.String())
	require.NoError(t, err)
	require.Equal(t, loc, back)

	for _, sel := range []string{"docs", "", "docs/sub"} {
		loc := Locator{Host: "gopher.example", Port: 70, Type: TypeMenu, Selector: sel}
		require.Equal(t, "gopher://gopher.example/1"+sel, loc.String())

		back, err := ParseLocator(loc.String())
		require.NoError(t, err)
		require.Equal(t, loc, back, "selector %q", sel)
	}
}
