// Package visit walks a definition's selection tree while tracking, at every
// node, the schema types in effect and the path of ancestors leading to it.
package visit

import (
	document "github.com/hanpama/opexport/internal/document"
	language "github.com/hanpama/opexport/internal/language"
	schema "github.com/hanpama/opexport/internal/schema"
)

type SegmentKind int

const (
	SegmentField SegmentKind = iota
	SegmentInlineFragment
	SegmentDirective
	SegmentArgument
	SegmentObjectField
	SegmentListItem
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentField:
		return "field"
	case SegmentInlineFragment:
		return "inline fragment"
	case SegmentDirective:
		return "directive"
	case SegmentArgument:
		return "argument"
	case SegmentObjectField:
		return "object field"
	case SegmentListItem:
		return "list item"
	}
	return "unknown"
}

// Segment is one step from the definition root towards a node. Name is the
// field name (not the alias), the inline fragment's type condition (possibly
// empty), the directive, argument or object field name, and empty for list items.
type Segment struct {
	Kind SegmentKind
	Name string
}

// Visitor callbacks are all optional.
type Visitor struct {
	EnterField          func(c *Cursor, f *language.Field)
	LeaveField          func(c *Cursor, f *language.Field)
	EnterInlineFragment func(c *Cursor, f *language.InlineFragment)
	EnterFragmentSpread func(c *Cursor, s *language.FragmentSpread)
	EnterVariable       func(c *Cursor, v *language.Value)
}

// Cursor exposes the walk state to visitor callbacks. It is only valid for
// the duration of a callback.
type Cursor struct {
	schema *schema.Schema
	path   []Segment
	fields []*language.Field

	parentType *schema.Type
	fieldDef   *schema.Field
	inputType  *schema.TypeRef
}

// Schema is the schema the walk is typed against; may be nil.
func (c *Cursor) Schema() *schema.Schema { return c.schema }

// Path returns a copy of the ancestor path, the current node included.
func (c *Cursor) Path() []Segment { return append([]Segment(nil), c.path...) }

// ParentType is the composite type the current field is selected on.
func (c *Cursor) ParentType() *schema.Type { return c.parentType }

// FieldDef is the definition of the innermost field, nil when unknown.
func (c *Cursor) FieldDef() *schema.Field { return c.fieldDef }

// Type is the output type of the innermost field.
func (c *Cursor) Type() *schema.TypeRef {
	if c.fieldDef == nil {
		return nil
	}
	return c.fieldDef.Type
}

// InputType is the type expected for the current value.
func (c *Cursor) InputType() *schema.TypeRef { return c.inputType }

// Fields returns the enclosing fields, outermost first, the current one included.
func (c *Cursor) Fields() []*language.Field { return append([]*language.Field(nil), c.fields...) }

// ResponsePath returns the response keys of the enclosing fields.
func (c *Cursor) ResponsePath() []string {
	out := make([]string, len(c.fields))
	for i, f := range c.fields {
		out[i] = responseKey(f)
	}
	return out
}

func responseKey(f *language.Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// Walk visits def depth-first. With a nil schema, or below names the schema
// does not know, the walk continues with nil type information.
func Walk(s *schema.Schema, def document.Definition, v *Visitor) {
	w := &walker{v: v, c: &Cursor{schema: s}}
	var root *schema.Type
	var dirs language.DirectiveList
	switch d := def.(type) {
	case *document.Operation:
		root = s.RootType(string(d.Node.Operation))
		dirs = d.Node.Directives
	case *document.Fragment:
		root = s.Type(d.Node.TypeCondition)
		dirs = d.Node.Directives
	}
	w.walkDirectives(dirs)
	w.walkSelectionSet(root, def.SelectionSet())
}

type walker struct {
	v *Visitor
	c *Cursor
}

func (w *walker) push(kind SegmentKind, name string) {
	w.c.path = append(w.c.path, Segment{Kind: kind, Name: name})
}

func (w *walker) pop() { w.c.path = w.c.path[:len(w.c.path)-1] }

func (w *walker) walkSelectionSet(parent *schema.Type, set language.SelectionSet) {
	for _, selection := range set {
		switch sel := selection.(type) {
		case *language.Field:
			w.walkField(parent, sel)
		case *language.InlineFragment:
			typ := parent
			if sel.TypeCondition != "" {
				typ = w.c.schema.Type(sel.TypeCondition)
			}
			w.push(SegmentInlineFragment, sel.TypeCondition)
			w.c.parentType = parent
			if w.v.EnterInlineFragment != nil {
				w.v.EnterInlineFragment(w.c, sel)
			}
			w.walkDirectives(sel.Directives)
			w.walkSelectionSet(typ, sel.SelectionSet)
			w.pop()
		case *language.FragmentSpread:
			w.c.parentType = parent
			if w.v.EnterFragmentSpread != nil {
				w.v.EnterFragmentSpread(w.c, sel)
			}
			w.walkDirectives(sel.Directives)
		}
	}
}

func (w *walker) walkField(parent *schema.Type, f *language.Field) {
	def := parent.FieldByName(f.Name)
	w.push(SegmentField, f.Name)
	w.c.fields = append(w.c.fields, f)
	restore := func() {
		w.c.parentType = parent
		w.c.fieldDef = def
	}
	restore()
	if w.v.EnterField != nil {
		w.v.EnterField(w.c, f)
	}

	for _, arg := range f.Arguments {
		w.push(SegmentArgument, arg.Name)
		w.walkValue(arg.Value, typeOf(def.ArgumentByName(arg.Name)))
		w.pop()
	}
	w.walkDirectives(f.Directives)

	var child *schema.Type
	if def != nil {
		child = w.c.schema.Type(def.Type.GetNamedType())
	}
	w.walkSelectionSet(child, f.SelectionSet)

	restore()
	if w.v.LeaveField != nil {
		w.v.LeaveField(w.c, f)
	}
	w.c.fields = w.c.fields[:len(w.c.fields)-1]
	w.pop()
}

func (w *walker) walkDirectives(dirs language.DirectiveList) {
	for _, dir := range dirs {
		def := w.c.schema.Directive(dir.Name)
		w.push(SegmentDirective, dir.Name)
		for _, arg := range dir.Arguments {
			w.push(SegmentArgument, arg.Name)
			w.walkValue(arg.Value, typeOf(def.ArgumentByName(arg.Name)))
			w.pop()
		}
		w.pop()
	}
}

func (w *walker) walkValue(v *language.Value, expected *schema.TypeRef) {
	if v == nil {
		return
	}
	w.c.inputType = expected
	switch v.Kind {
	case language.Variable:
		if w.v.EnterVariable != nil {
			w.v.EnterVariable(w.c, v)
		}
	case language.ListValue:
		elem := expected.ListElem()
		for _, child := range v.Children {
			w.push(SegmentListItem, "")
			w.walkValue(child.Value, elem)
			w.pop()
		}
	case language.ObjectValue:
		var input *schema.Type
		if t := w.c.schema.Type(expected.GetNamedType()); t != nil && t.Kind == schema.TypeKindInputObject {
			input = t
		}
		for _, child := range v.Children {
			w.push(SegmentObjectField, child.Name)
			w.walkValue(child.Value, typeOf(input.InputFieldByName(child.Name)))
			w.pop()
		}
	}
	w.c.inputType = nil
}

func typeOf(v *schema.InputValue) *schema.TypeRef {
	if v == nil {
		return nil
	}
	return v.Type
}
