package operation

import (
	"testing"

	"github.com/stretchr/testify/require"

	document "github.com/hanpama/opexport/internal/document"
)

func TestFormatVariableName(t *testing.T) {
	tests := map[string]string{
		"getUser":        "GET_USER",
		"GetUser":        "GET_USER",
		"query":          "QUERY",
		"userFields":     "USER_FIELDS",
		"fetchAPIStatus": "FETCH_A_P_I_STATUS",
		"x":              "X",
		"":               "",
		"already_snake":  "ALREADY_SNAKE",
	}
	for in, want := range tests {
		require.Equal(t, want, FormatVariableName(in), in)
	}
}

func mustDefinitions(t *testing.T, text string) []document.Definition {
	t.Helper()
	defs, err := document.Parse(text)
	require.NoError(t, err)
	return defs
}

func TestNames(t *testing.T) {
	defs := mustDefinitions(t, `
		query { a }
		mutation DoIt { b }
		fragment F on T { c }
	`)
	require.Len(t, defs, 3)

	require.Equal(t, "query", Name(defs[0]))
	require.Equal(t, "<Unnamed:query>", DisplayName(defs[0]))
	require.Equal(t, "DoIt", Name(defs[1]))
	require.Equal(t, "DoIt", DisplayName(defs[1]))
	require.Equal(t, "F", Name(defs[2]))
	require.Equal(t, "F", DisplayName(defs[2]))
}

func TestNewData(t *testing.T) {
	defs := mustDefinitions(t, `
		query GetUser($id: ID!, $flag: Boolean) { user(id: $id) { ...U } }
		fragment U on User { id }
	`)
	frags := document.Fragments(defs)

	d := NewData(defs[0], frags, map[string]any{"id": "1", "flag": false, "other": 2}, nil)
	require.Equal(t, "GetUser", d.Name)
	require.Equal(t, "GetUser", d.DisplayName)
	require.Equal(t, document.KindQuery, d.Type)
	require.Equal(t, "GET_USER", d.VariableName)
	require.Equal(t, map[string]any{"id": "1"}, d.Variables)
	require.Equal(t, []string{"U"}, d.DependencyNames())
	require.Same(t, frags[0], d.FragmentDependencies[0])
	require.Nil(t, d.PaginationSites)
	require.Contains(t, d.Query, "query GetUser")

	f := NewData(defs[1], frags, map[string]any{"id": "1"}, nil)
	require.Equal(t, document.KindFragment, f.Type)
	require.Equal(t, "fragment U on User {\n  id\n}", f.Query)
	require.Empty(t, f.Variables)
	require.NotNil(t, f.Variables)
	require.Empty(t, f.FragmentDependencies)
}

func TestFirstNamed(t *testing.T) {
	list := []*Data{
		{Name: "query"},
		{Name: " mutation "},
		{Name: "Named"},
		{Name: "Other"},
	}
	require.False(t, IsNamed(list[0]))
	require.False(t, IsNamed(list[1]))
	require.True(t, IsNamed(list[2]))
	require.Same(t, list[2], FirstNamed(list))
	require.Nil(t, FirstNamed(list[:2]))
	require.Nil(t, FirstNamed(nil))
}

func TestFirstNamedSkipsFragments(t *testing.T) {
	require.False(t, IsNamed(&Data{Name: "A", Type: document.KindFragment}))

	res := Compute(Input{Document: "query Q { ...A } fragment A on Query { a }"})
	require.Len(t, res.DataList, 2)
	require.Equal(t, "A", res.DataList[0].Name)

	first := FirstNamed(res.DataList)
	require.NotNil(t, first)
	require.Equal(t, "Q", first.Name)
	require.Equal(t, document.KindQuery, first.Type)
}
