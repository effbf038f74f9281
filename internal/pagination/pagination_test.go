package pagination

import (
	"testing"

	"github.com/stretchr/testify/require"

	document "github.com/hanpama/opexport/internal/document"
	schema "github.com/hanpama/opexport/internal/schema"
)

const testSDL = `
type Query {
  users(first: Int, after: String): UserConnection
  usersNoArgs: UserConnection
  usersWrongArg(first: Int, after: Int): UserConnection
  bare(first: Int, after: String): BareConnection
  viewer: User
}

type User {
  id: ID!
  friends(first: Int!, after: String, last: Int): UserConnection
}

type UserConnection {
  edges: [UserEdge]
  pageInfo: PageInfo!
}

type UserEdge {
  cursor: String
  node: User
}

type BareConnection {
  edges: [UserEdge]
}

type PageInfo {
  hasNextPage: Boolean!
  endCursor: String
}
`

func mustSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.BuildFromSDL(testSDL)
	require.NoError(t, err)
	return s
}

func detect(t *testing.T, s *schema.Schema, text string) [][]string {
	t.Helper()
	defs, err := document.Parse(text)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	paths := [][]string{}
	for _, site := range Detect(s, defs[0]) {
		paths = append(paths, site.Path)
	}
	return paths
}

func TestDetect(t *testing.T) {
	s := mustSchema(t)

	tests := []struct {
		name string
		doc  string
		want [][]string
	}{
		{
			name: "root connection",
			doc:  `query { users(first: 10) { edges { node { id } } pageInfo { endCursor } } }`,
			want: [][]string{{"users"}},
		},
		{
			name: "nested and aliased",
			doc:  `query { me: viewer { pals: friends(first: 5) { edges { cursor node { id } } } } }`,
			want: [][]string{{"me", "pals"}},
		},
		{
			name: "inside connection node",
			doc: `fragment F on Query {
				users { edges { node { friends { edges { node { id } } } } } }
			}`,
			want: [][]string{{"users"}, {"users", "edges", "node", "friends"}},
		},
		{
			name: "missing arguments",
			doc:  `query { usersNoArgs { edges { node { id } } } }`,
			want: [][]string{},
		},
		{
			name: "wrong argument type",
			doc:  `query { usersWrongArg { edges { node { id } } } }`,
			want: [][]string{},
		},
		{
			name: "no pageInfo on connection type",
			doc:  `query { bare { edges { node { id } } } }`,
			want: [][]string{},
		},
		{
			name: "edges without node",
			doc:  `query { users { edges { cursor } } }`,
			want: [][]string{},
		},
		{
			name: "no edges selected",
			doc:  `query { users { pageInfo { hasNextPage } } }`,
			want: [][]string{},
		},
		{
			name: "unknown fields",
			doc:  `query { nothing { edges { node { id } } } }`,
			want: [][]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, detect(t, s, tt.doc))
		})
	}
}

func TestDetectWithoutSchema(t *testing.T) {
	require.Equal(t, [][]string{}, detect(t, nil, `query { users { edges { node { id } } } }`))
}
