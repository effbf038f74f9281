// Package dependency finds the fragments a definition spreads.
package dependency

import (
	document "github.com/hanpama/opexport/internal/document"
	language "github.com/hanpama/opexport/internal/language"
)

// FindFragmentDependencies returns the fragments spread directly by def, at
// any depth of its own selection set but without following the spreads.
// Each fragment appears once, in order of first spread. Spreads naming a
// fragment that is not in all are dropped.
func FindFragmentDependencies(all []*document.Fragment, def document.Definition) []*document.Fragment {
	var deps []*document.Fragment
	seen := make(map[string]bool)
	collect(all, def.SelectionSet(), seen, &deps)
	return deps
}

func collect(all []*document.Fragment, selectionSet language.SelectionSet, seen map[string]bool, deps *[]*document.Fragment) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			collect(all, sel.SelectionSet, seen, deps)
		case *language.InlineFragment:
			collect(all, sel.SelectionSet, seen, deps)
		case *language.FragmentSpread:
			if seen[sel.Name] {
				continue
			}
			frag, ok := document.FindFragment(all, sel.Name)
			if !ok {
				continue
			}
			seen[sel.Name] = true
			*deps = append(*deps, frag)
		}
	}
}

// Names returns the names of fragments.
func Names(fragments []*document.Fragment) []string {
	out := make([]string, len(fragments))
	for i, f := range fragments {
		out[i] = f.Name()
	}
	return out
}
