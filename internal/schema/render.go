package schema

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
)

// Render produces SDL from the Schema.
// Deterministic ordering: type/directive names sorted lexicographically.
// Built-in scalars and directives are left to the prelude.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	var buf bytes.Buffer
	formatter.NewFormatter(&buf, formatter.WithIndent("  ")).FormatSchemaDocument(ToAST(s))
	return strings.TrimRight(buf.String(), "\n") + "\n"
}

// ToAST converts the model back into a gqlparser schema document.
func ToAST(s *Schema) *ast.SchemaDocument {
	doc := &ast.SchemaDocument{}
	if def := schemaDefinition(s); def != nil {
		doc.Schema = append(doc.Schema, def)
	}

	for _, name := range sortedKeys(s.Types) {
		typ := s.Types[name]
		if isBuiltinType(typ) {
			continue
		}
		doc.Definitions = append(doc.Definitions, astDefinition(typ))
	}
	for _, name := range sortedKeys(s.Directives) {
		dir := s.Directives[name]
		if isBuiltinDirective(dir) {
			continue
		}
		doc.Directives = append(doc.Directives, astDirectiveDefinition(dir))
	}
	return doc
}

// schemaDefinition is only emitted when a root type does not use its
// conventional name.
func schemaDefinition(s *Schema) *ast.SchemaDefinition {
	roots := []struct {
		op   ast.Operation
		name string
	}{
		{ast.Query, s.QueryType},
		{ast.Mutation, s.MutationType},
		{ast.Subscription, s.SubscriptionType},
	}
	conventional := true
	def := &ast.SchemaDefinition{Description: s.Description}
	for _, r := range roots {
		if r.name == "" {
			continue
		}
		if !strings.EqualFold(r.name, string(r.op)) {
			conventional = false
		}
		def.OperationTypes = append(def.OperationTypes, &ast.OperationTypeDefinition{Operation: r.op, Type: r.name})
	}
	if conventional && s.Description == "" {
		return nil
	}
	return def
}

func astDefinition(typ *Type) *ast.Definition {
	def := &ast.Definition{
		Kind:        ast.DefinitionKind(typ.Kind),
		Name:        typ.Name,
		Description: typ.Description,
	}
	switch typ.Kind {
	case TypeKindObject, TypeKindInterface:
		def.Interfaces = append(def.Interfaces, typ.Interfaces...)
		for _, f := range typ.Fields {
			def.Fields = append(def.Fields, &ast.FieldDefinition{
				Name:        f.Name,
				Description: f.Description,
				Arguments:   astArguments(f.Arguments),
				Type:        astType(f.Type),
				Directives:  deprecatedDirective(f.IsDeprecated, f.DeprecationReason),
			})
		}
	case TypeKindUnion:
		def.Types = append(def.Types, typ.PossibleTypes...)
	case TypeKindEnum:
		for _, v := range typ.EnumValues {
			def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{
				Name:        v.Name,
				Description: v.Description,
				Directives:  deprecatedDirective(v.IsDeprecated, v.DeprecationReason),
			})
		}
	case TypeKindInputObject:
		if typ.OneOf {
			def.Directives = append(def.Directives, &ast.Directive{Name: "oneOf"})
		}
		for _, v := range typ.InputFields {
			def.Fields = append(def.Fields, &ast.FieldDefinition{
				Name:         v.Name,
				Description:  v.Description,
				Type:         astType(v.Type),
				DefaultValue: astValue(v.DefaultValue),
				Directives:   deprecatedDirective(v.IsDeprecated, v.DeprecationReason),
			})
		}
	case TypeKindScalar:
		if typ.SpecifiedByURL != nil {
			def.Directives = append(def.Directives, &ast.Directive{
				Name:      "specifiedBy",
				Arguments: ast.ArgumentList{{Name: "url", Value: astValue(*typ.SpecifiedByURL)}},
			})
		}
	}
	return def
}

func astDirectiveDefinition(d *Directive) *ast.DirectiveDefinition {
	def := &ast.DirectiveDefinition{
		Name:         d.Name,
		Description:  d.Description,
		Arguments:    astArguments(d.Arguments),
		IsRepeatable: d.IsRepeatable,
		Position:     &ast.Position{Src: &ast.Source{}},
	}
	for _, loc := range d.Locations {
		def.Locations = append(def.Locations, ast.DirectiveLocation(loc))
	}
	return def
}

func astArguments(values []*InputValue) ast.ArgumentDefinitionList {
	var out ast.ArgumentDefinitionList
	for _, v := range values {
		out = append(out, &ast.ArgumentDefinition{
			Name:         v.Name,
			Description:  v.Description,
			Type:         astType(v.Type),
			DefaultValue: astValue(v.DefaultValue),
			Directives:   deprecatedDirective(v.IsDeprecated, v.DeprecationReason),
		})
	}
	return out
}

func deprecatedDirective(deprecated bool, reason string) ast.DirectiveList {
	if !deprecated {
		return nil
	}
	d := &ast.Directive{Name: "deprecated"}
	if reason != "" {
		d.Arguments = ast.ArgumentList{{Name: "reason", Value: astValue(reason)}}
	}
	return ast.DirectiveList{d}
}

func astType(t *TypeRef) *ast.Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case TypeRefKindList:
		return &ast.Type{Elem: astType(t.OfType)}
	case TypeRefKindNonNull:
		inner := astType(t.OfType)
		if inner == nil {
			return nil
		}
		nonNull := *inner
		nonNull.NonNull = true
		return &nonNull
	default:
		return &ast.Type{NamedType: t.Named}
	}
}

// astValue converts a default value held by the model into a literal.
// Values of other types (enum names, introspected defaults) print verbatim.
func astValue(value any) *ast.Value {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return &ast.Value{Kind: ast.StringValue, Raw: v}
	case bool:
		return &ast.Value{Kind: ast.BooleanValue, Raw: strconv.FormatBool(v)}
	case int:
		return &ast.Value{Kind: ast.IntValue, Raw: strconv.Itoa(v)}
	case int32:
		return &ast.Value{Kind: ast.IntValue, Raw: strconv.FormatInt(int64(v), 10)}
	case int64:
		return &ast.Value{Kind: ast.IntValue, Raw: strconv.FormatInt(v, 10)}
	case float32:
		return &ast.Value{Kind: ast.FloatValue, Raw: strconv.FormatFloat(float64(v), 'g', -1, 32)}
	case float64:
		return &ast.Value{Kind: ast.FloatValue, Raw: strconv.FormatFloat(v, 'g', -1, 64)}
	case []any:
		list := &ast.Value{Kind: ast.ListValue}
		for _, item := range v {
			list.Children = append(list.Children, &ast.ChildValue{Value: literalOrNull(item)})
		}
		return list
	case map[string]any:
		obj := &ast.Value{Kind: ast.ObjectValue}
		for _, k := range sortedKeys(v) {
			obj.Children = append(obj.Children, &ast.ChildValue{Name: k, Value: literalOrNull(v[k])})
		}
		return obj
	default:
		return &ast.Value{Kind: ast.EnumValue, Raw: fmt.Sprint(v)}
	}
}

func literalOrNull(value any) *ast.Value {
	if value == nil {
		return &ast.Value{Kind: ast.NullValue, Raw: "null"}
	}
	return astValue(value)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func renderTypeRef(t *TypeRef) string {
	if at := astType(t); at != nil {
		return at.String()
	}
	return ""
}
