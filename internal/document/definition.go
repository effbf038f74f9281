// Package document turns GraphQL document text into the executable
// definitions the exporter works on.
package document

import (
	language "github.com/hanpama/opexport/internal/language"
)

// Kind is the operation kind of a definition, or "fragment".
type Kind string

const (
	KindQuery        Kind = "query"
	KindMutation     Kind = "mutation"
	KindSubscription Kind = "subscription"
	KindFragment     Kind = "fragment"
)

// Definition is either an *Operation or a *Fragment.
type Definition interface {
	// Name is the declared name; empty for anonymous operations.
	Name() string
	Kind() Kind
	SelectionSet() language.SelectionSet
	Position() *language.Position
	isDefinition()
}

// Operation wraps a query, mutation or subscription definition.
type Operation struct {
	Node *language.OperationDefinition
}

func (o *Operation) Name() string                        { return o.Node.Name }
func (o *Operation) Kind() Kind                          { return Kind(o.Node.Operation) }
func (o *Operation) SelectionSet() language.SelectionSet { return o.Node.SelectionSet }
func (o *Operation) Position() *language.Position        { return o.Node.Position }
func (*Operation) isDefinition()                         {}

// Fragment wraps a named fragment definition.
type Fragment struct {
	Node *language.FragmentDefinition
}

func (f *Fragment) Name() string                        { return f.Node.Name }
func (f *Fragment) Kind() Kind                          { return KindFragment }
func (f *Fragment) SelectionSet() language.SelectionSet { return f.Node.SelectionSet }
func (f *Fragment) Position() *language.Position        { return f.Node.Position }
func (*Fragment) isDefinition()                         {}

// TypeCondition is the type the fragment applies to.
func (f *Fragment) TypeCondition() string { return f.Node.TypeCondition }

// Print renders the definition with the canonical printer.
func Print(def Definition) string {
	switch d := def.(type) {
	case *Operation:
		return language.PrintOperation(d.Node)
	case *Fragment:
		return language.PrintFragment(d.Node)
	}
	return ""
}

// Fragments returns the fragments of defs in order.
func Fragments(defs []Definition) []*Fragment {
	var out []*Fragment
	for _, def := range defs {
		if f, ok := def.(*Fragment); ok {
			out = append(out, f)
		}
	}
	return out
}

// Operations returns the operations of defs in order.
func Operations(defs []Definition) []*Operation {
	var out []*Operation
	for _, def := range defs {
		if o, ok := def.(*Operation); ok {
			out = append(out, o)
		}
	}
	return out
}

// FindFragment returns the first fragment named name.
func FindFragment(fragments []*Fragment, name string) (*Fragment, bool) {
	for _, f := range fragments {
		if f.Name() == name {
			return f, true
		}
	}
	return nil, false
}
