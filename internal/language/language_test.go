package language

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseQueryError(t *testing.T) {
	_, err := ParseQuery("query {")
	require.Error(t, err)

	var gqlErr *Error
	require.True(t, errors.As(err, &gqlErr))
	require.NotEmpty(t, gqlErr.Locations)
	require.Equal(t, 1, gqlErr.Locations[0].Line)
}

func TestPrint(t *testing.T) {
	doc, err := ParseQuery(`
		query   Q { user { id   name } }
		fragment F on User{ id ...G }
	`)
	require.NoError(t, err)
	require.Len(t, doc.Operations, 1)
	require.Len(t, doc.Fragments, 1)

	require.Equal(t, "query Q {\n  user {\n    id\n    name\n  }\n}", PrintOperation(doc.Operations[0]))
	require.Equal(t, "fragment F on User {\n  id\n  ... G\n}", PrintFragment(doc.Fragments[0]))
}

func TestExecutableSource(t *testing.T) {
	tests := map[string]struct {
		source   string
		want     string
		stripped bool
	}{
		"executable only": {
			source: "query Q { a }",
			want:   "query Q { a }",
		},
		"trailing type": {
			source:   "query Q { a }\ntype T { x: Int }",
			want:     "query Q { a }\n                 ",
			stripped: true,
		},
		"bodiless definitions": {
			source:   "scalar Date\nfragment F on type { a }\nunion U = A | B",
			want:     "           \nfragment F on type { a }\n               ",
			stripped: true,
		},
		"described type between operations": {
			source:   "{ a }\n\"doc\"\ninput I { query: Int }\nmutation M($query: I) { b }",
			want:     "{ a }\n     \n                      \nmutation M($query: I) { b }",
			stripped: true,
		},
		"lexer error": {
			source: "type T { \"unterminated }",
			want:   "type T { \"unterminated }",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, stripped := ExecutableSource(tt.source)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.stripped, stripped)
		})
	}
}
