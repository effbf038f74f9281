package dependency

import (
	"testing"

	"github.com/stretchr/testify/require"

	document "github.com/hanpama/opexport/internal/document"
)

func parse(t *testing.T, text string) []document.Definition {
	t.Helper()
	defs, err := document.Parse(text)
	require.NoError(t, err)
	return defs
}

func TestDirectDependenciesOnly(t *testing.T) {
	defs := parse(t, `
		query Q { ...A }
		fragment A on T { ...B }
		fragment B on T { f }
	`)
	frags := document.Fragments(defs)

	require.Equal(t, []string{"A"}, Names(FindFragmentDependencies(frags, defs[0])))
	require.Equal(t, []string{"B"}, Names(FindFragmentDependencies(frags, defs[1])))
	require.Empty(t, FindFragmentDependencies(frags, defs[2]))
}

func TestNestedSpreads(t *testing.T) {
	defs := parse(t, `
		query Q {
			user {
				...A
				friends {
					... on User { ...B }
					...A
				}
			}
			... @include(if: true) { ...C }
		}
		fragment A on User { id }
		fragment B on User { id }
		fragment C on Query { __typename }
	`)
	frags := document.Fragments(defs)
	require.Equal(t, []string{"A", "B", "C"}, Names(FindFragmentDependencies(frags, defs[0])))
}

func TestUnresolvedSpreadDropped(t *testing.T) {
	defs := parse(t, `
		query Q { ...Missing ...A }
		fragment A on T { f }
	`)
	frags := document.Fragments(defs)
	require.Equal(t, []string{"A"}, Names(FindFragmentDependencies(frags, defs[0])))
}

func TestSelfReference(t *testing.T) {
	defs := parse(t, `fragment A on T { f ...A }`)
	frags := document.Fragments(defs)
	require.Equal(t, []string{"A"}, Names(FindFragmentDependencies(frags, defs[0])))
}
