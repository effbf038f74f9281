// Package varinfer recovers the GraphQL type of every variable a fragment
// uses. Fragments declare no variables, so the type is found by replaying the
// variable's position against the schema.
package varinfer

import (
	"fmt"

	"go.uber.org/zap"

	document "github.com/hanpama/opexport/internal/document"
	language "github.com/hanpama/opexport/internal/language"
	schema "github.com/hanpama/opexport/internal/schema"
	visit "github.com/hanpama/opexport/internal/visit"
)

// VariableType is a variable name with its type in SDL notation, e.g. "ID!".
type VariableType struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Table maps fragment names to the variables they use.
type Table map[string][]VariableType

type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger receives a warning for every variable whose type cannot be found.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, f := range opts {
		f(&o)
	}
	return o
}

// FindFragmentVariables returns a table with a single entry for frag. Each
// distinct variable appears once, typed by its first usage. Variables whose
// position cannot be resolved against s are left out.
func FindFragmentVariables(s *schema.Schema, frag *document.Fragment, opts ...Option) Table {
	o := newOptions(opts)
	vars := []VariableType{}
	seen := make(map[string]bool)

	visit.Walk(s, frag, &visit.Visitor{
		EnterVariable: func(c *visit.Cursor, v *language.Value) {
			if seen[v.Raw] {
				return
			}
			t, err := ResolvePath(s, frag.TypeCondition(), c.Path())
			if err != nil {
				o.logger.Warn("cannot resolve variable type",
					zap.String("fragment", frag.Name()),
					zap.String("variable", v.Raw),
					zap.Error(err),
				)
				return
			}
			seen[v.Raw] = true
			vars = append(vars, VariableType{Name: v.Raw, Type: t.String()})
		},
	})

	return Table{frag.Name(): vars}
}

// FindAll merges FindFragmentVariables over frags. The first fragment of a
// given name wins.
func FindAll(s *schema.Schema, frags []*document.Fragment, opts ...Option) Table {
	out := make(Table, len(frags))
	for _, f := range frags {
		if _, ok := out[f.Name()]; ok {
			continue
		}
		for name, vars := range FindFragmentVariables(s, f, opts...) {
			out[name] = vars
		}
	}
	return out
}

// ComputeDeepFragmentVariables extends each fragment's own variables with
// those of every fragment reachable through deps. Own variables come first,
// then dependencies depth-first in order; a name already present is skipped.
// Each fragment is visited at most once per closure, so cycles terminate.
func ComputeDeepFragmentVariables(shallow Table, deps map[string][]string) Table {
	out := make(Table, len(shallow))
	for name := range shallow {
		vars := []VariableType{}
		seenVar := make(map[string]bool)
		visited := make(map[string]bool)

		var walk func(string)
		walk = func(frag string) {
			if visited[frag] {
				return
			}
			visited[frag] = true
			for _, v := range shallow[frag] {
				if seenVar[v.Name] {
					continue
				}
				seenVar[v.Name] = true
				vars = append(vars, v)
			}
			for _, dep := range deps[frag] {
				walk(dep)
			}
		}
		walk(name)
		out[name] = vars
	}
	return out
}

// UnresolvedError reports the path segment at which replay stopped.
type UnresolvedError struct {
	Segment visit.Segment
	Reason  string
}

func (e *UnresolvedError) Error() string {
	if e.Segment.Name == "" {
		return fmt.Sprintf("%s: %s", e.Segment.Kind, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", e.Segment.Kind, e.Segment.Name, e.Reason)
}

// ResolvePath replays path from the type named root and returns the input
// type at its end.
func ResolvePath(s *schema.Schema, root string, path []visit.Segment) (*schema.TypeRef, error) {
	st := state{typ: s.Type(root)}
	if st.typ == nil {
		return nil, fmt.Errorf("unknown type %q", root)
	}
	for _, seg := range path {
		next, err := st.step(s, seg)
		if err != nil {
			return nil, err
		}
		st = next
	}
	if st.value == nil {
		return nil, fmt.Errorf("path does not end at an input position")
	}
	return st.value, nil
}

type state struct {
	typ       *schema.Type
	field     *schema.Field
	directive *schema.Directive
	value     *schema.TypeRef
}

func (st state) step(s *schema.Schema, seg visit.Segment) (state, error) {
	fail := func(format string, args ...any) (state, error) {
		return state{}, &UnresolvedError{Segment: seg, Reason: fmt.Sprintf(format, args...)}
	}

	switch seg.Kind {
	case visit.SegmentField:
		if st.typ == nil {
			return fail("no selection context")
		}
		f := st.typ.FieldByName(seg.Name)
		if f == nil {
			return fail("not a field of %s", st.typ.Name)
		}
		return state{typ: s.Type(f.Type.GetNamedType()), field: f}, nil

	case visit.SegmentInlineFragment:
		if seg.Name == "" {
			return state{typ: st.typ}, nil
		}
		t := s.Type(seg.Name)
		if t == nil {
			return fail("unknown type")
		}
		return state{typ: t}, nil

	case visit.SegmentDirective:
		d := s.Directive(seg.Name)
		if d == nil {
			return fail("unknown directive")
		}
		st.directive = d
		return st, nil

	case visit.SegmentArgument:
		var arg *schema.InputValue
		switch {
		case st.directive != nil:
			arg = st.directive.ArgumentByName(seg.Name)
		case st.field != nil:
			arg = st.field.ArgumentByName(seg.Name)
		default:
			return fail("argument outside a field or directive")
		}
		if arg == nil {
			return fail("undefined argument")
		}
		st.value = arg.Type
		return st, nil

	case visit.SegmentObjectField:
		t := s.Type(st.value.GetNamedType())
		if t == nil || t.Kind != schema.TypeKindInputObject {
			return fail("%s is not an input object", st.value)
		}
		f := t.InputFieldByName(seg.Name)
		if f == nil {
			return fail("not a field of %s", t.Name)
		}
		st.value = f.Type
		return st, nil

	case visit.SegmentListItem:
		elem := st.value.ListElem()
		if elem == nil {
			return fail("%s is not a list", st.value)
		}
		st.value = elem
		return st, nil
	}
	return fail("unexpected segment")
}
