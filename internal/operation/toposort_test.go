package operation

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	document "github.com/hanpama/opexport/internal/document"
)

func dataList(t *testing.T, text string) []*Data {
	t.Helper()
	defs := mustDefinitions(t, text)
	frags := document.Fragments(defs)
	list := make([]*Data, len(defs))
	for i, def := range defs {
		list[i] = NewData(def, frags, nil, nil)
	}
	return list
}

func names(list []*Data) []string {
	out := make([]string, len(list))
	for i, d := range list {
		out[i] = d.Name
	}
	return out
}

// requireValidOrder checks that every resolved dependency precedes its dependent.
func requireValidOrder(t *testing.T, sorted []*Data) {
	t.Helper()
	index := make(map[string]int)
	for i, d := range sorted {
		if d.Type == document.KindFragment {
			index[d.Name] = i
		}
	}
	for i, d := range sorted {
		for _, dep := range d.FragmentDependencies {
			j, ok := index[dep.Name()]
			require.True(t, ok, dep.Name())
			require.Less(t, j, i, "%s must precede %s", dep.Name(), d.Name)
		}
	}
}

func TestToposortOrder(t *testing.T) {
	list := dataList(t, `
		query Q { ...A }
		fragment A on T { ...B }
		fragment B on T { f }
	`)
	sorted := Toposort(list, nil)
	require.Equal(t, []string{"B", "A", "Q"}, names(sorted))
	requireValidOrder(t, sorted)
}

func TestToposortKeepsInputOrderOfIndependentRecords(t *testing.T) {
	list := dataList(t, `
		fragment Z on T { z }
		query One { ...Y }
		query Two { a }
		fragment Y on T { ...Z y }
		mutation Three { ...Z }
	`)
	sorted := Toposort(list, nil)
	require.Equal(t, []string{"Z", "Y", "One", "Two", "Three"}, names(sorted))
	requireValidOrder(t, sorted)
}

func TestToposortAnonymousOperations(t *testing.T) {
	list := dataList(t, `
		{ a }
		{ ...F }
		fragment F on T { f }
	`)
	sorted := Toposort(list, nil)
	require.Equal(t, []string{"query", "F", "query"}, names(sorted))
	require.Same(t, list[0], sorted[0])
	require.Same(t, list[1], sorted[2])
}

func TestToposortCycle(t *testing.T) {
	list := dataList(t, `
		query Q { ...A }
		fragment A on T { ...B }
		fragment B on T { ...A }
	`)
	core, logs := observer.New(zap.WarnLevel)

	sorted := Toposort(list, zap.New(core))
	require.ElementsMatch(t, list, sorted)
	require.Equal(t, []string{"B", "A", "Q"}, names(sorted))
	require.Equal(t, 1, logs.FilterMessage("operation graph has a cycle").Len())
}

func TestToposortSelfCycle(t *testing.T) {
	list := dataList(t, `fragment A on T { ...A }`)
	sorted := Toposort(list, nil)
	require.Equal(t, []string{"A"}, names(sorted))
}

func TestToposortEmpty(t *testing.T) {
	require.Empty(t, Toposort(nil, nil))
}
