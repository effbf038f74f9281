package schema

import (
	"fmt"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// BuildFromSDL parses and validates SDL and returns the corresponding Schema.
// Built-in scalars and directives come from the GraphQL prelude.
func BuildFromSDL(sdl string) (*Schema, error) {
	return BuildFromSources(&ast.Source{Name: "schema.graphql", Input: sdl})
}

// BuildFromSources is BuildFromSDL for several named SDL sources that are
// merged (type extensions included) before conversion.
func BuildFromSources(sources ...*ast.Source) (*Schema, error) {
	doc, err := gqlparser.LoadSchema(sources...)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	return BuildFromAST(doc), nil
}

// BuildFromAST converts a validated gqlparser schema into a Schema.
func BuildFromAST(doc *ast.Schema) *Schema {
	s := NewSchema(doc.Description)
	if doc.Query != nil {
		s.SetQueryType(doc.Query.Name)
	}
	if doc.Mutation != nil {
		s.SetMutationType(doc.Mutation.Name)
	}
	if doc.Subscription != nil {
		s.SetSubscriptionType(doc.Subscription.Name)
	}
	s.AddBuiltins()

	for _, def := range sortedDefinitions(doc.Types) {
		if def.BuiltIn {
			continue
		}
		switch def.Kind {
		case ast.Object:
			s.AddType(buildComposite(def, TypeKindObject))
		case ast.Interface:
			s.AddType(buildComposite(def, TypeKindInterface))
		case ast.Union:
			s.AddType(buildUnion(def))
		case ast.Enum:
			s.AddType(buildEnum(def))
		case ast.InputObject:
			s.AddType(buildInput(def))
		case ast.Scalar:
			s.AddType(buildScalar(def))
		}
	}
	for _, dir := range sortedDefinitions(doc.Directives) {
		if dir.Position != nil && dir.Position.Src != nil && dir.Position.Src.BuiltIn {
			continue
		}
		s.AddDirective(buildDirective(dir))
	}
	return s
}

func buildComposite(def *ast.Definition, kind TypeKind) *Type {
	t := NewType(def.Name, kind, def.Description)
	for _, name := range def.Interfaces {
		t.AddInterface(name)
	}
	for _, fieldDef := range def.Fields {
		if isIntrospectionName(fieldDef.Name) {
			continue
		}
		t.AddField(buildField(fieldDef))
	}
	return t
}

func buildField(def *ast.FieldDefinition) *Field {
	f := NewField(def.Name, def.Description, buildTypeRef(def.Type))
	if reason, ok := deprecation(def.Directives); ok {
		f.Deprecate(reason)
	}
	for _, arg := range def.Arguments {
		f.AddArgument(buildArgument(arg))
	}
	return f
}

func buildArgument(def *ast.ArgumentDefinition) *InputValue {
	in := NewInputValue(def.Name, def.Description, buildTypeRef(def.Type)).SetDefault(buildValue(def.DefaultValue))
	if reason, ok := deprecation(def.Directives); ok {
		in.Deprecate(reason)
	}
	return in
}

func buildEnum(def *ast.Definition) *Type {
	t := NewType(def.Name, TypeKindEnum, def.Description)
	for _, v := range def.EnumValues {
		e := NewEnumValue(v.Name, v.Description)
		if reason, ok := deprecation(v.Directives); ok {
			e.Deprecate(reason)
		}
		t.AddEnumValue(e)
	}
	return t
}

func buildInput(def *ast.Definition) *Type {
	t := NewType(def.Name, TypeKindInputObject, def.Description).
		SetOneOf(def.Directives.ForName("oneOf") != nil)
	for _, fieldDef := range def.Fields {
		in := NewInputValue(fieldDef.Name, fieldDef.Description, buildTypeRef(fieldDef.Type)).
			SetDefault(buildValue(fieldDef.DefaultValue))
		if reason, ok := deprecation(fieldDef.Directives); ok {
			in.Deprecate(reason)
		}
		t.AddInputField(in)
	}
	return t
}

func buildUnion(def *ast.Definition) *Type {
	t := NewType(def.Name, TypeKindUnion, def.Description)
	for _, name := range def.Types {
		t.AddPossibleType(name)
	}
	return t
}

func buildScalar(def *ast.Definition) *Type {
	t := NewType(def.Name, TypeKindScalar, def.Description)
	if d := def.Directives.ForName("specifiedBy"); d != nil {
		if arg := d.Arguments.ForName("url"); arg != nil && arg.Value != nil {
			t.SetSpecifiedByURL(arg.Value.Raw)
		}
	}
	return t
}

func buildDirective(def *ast.DirectiveDefinition) *Directive {
	d := NewDirective(def.Name, def.Description).SetRepeatable(def.IsRepeatable)
	for _, loc := range def.Locations {
		d.Locations = append(d.Locations, string(loc))
	}
	for _, arg := range def.Arguments {
		d.AddArgument(buildArgument(arg))
	}
	return d
}

func buildTypeRef(t *ast.Type) *TypeRef {
	if t == nil {
		return nil
	}
	var ref *TypeRef
	if t.NamedType != "" {
		ref = NamedType(t.NamedType)
	} else {
		ref = ListType(buildTypeRef(t.Elem))
	}
	if t.NonNull {
		ref = NonNullType(ref)
	}
	return ref
}

// enumLiteral keeps enum default values unquoted when rendered.
type enumLiteral string

func (e enumLiteral) String() string { return string(e) }

func buildValue(v *ast.Value) any {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case ast.EnumValue:
		return enumLiteral(v.Raw)
	case ast.ListValue:
		out := make([]any, 0, len(v.Children))
		for _, c := range v.Children {
			out = append(out, buildValue(c.Value))
		}
		return out
	case ast.ObjectValue:
		out := make(map[string]any, len(v.Children))
		for _, c := range v.Children {
			out[c.Name] = buildValue(c.Value)
		}
		return out
	}
	val, err := v.Value(nil)
	if err != nil {
		return v.Raw
	}
	return val
}

func deprecation(dirs ast.DirectiveList) (string, bool) {
	d := dirs.ForName("deprecated")
	if d == nil {
		return "", false
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return arg.Value.Raw, true
	}
	return "", true
}

func isIntrospectionName(name string) bool {
	return len(name) > 1 && name[0] == '_' && name[1] == '_'
}
