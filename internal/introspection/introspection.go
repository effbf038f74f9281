// Package introspection rebuilds a schema from the JSON result of a standard
// introspection query, the form in which GraphQL IDEs usually hold their schema.
package introspection

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	schema "github.com/hanpama/opexport/internal/schema"
)

// Query is the introspection query whose result Decode understands.
const Query = `query IntrospectionQuery {
  __schema {
    description
    queryType { name }
    mutationType { name }
    subscriptionType { name }
    types { ...FullType }
    directives {
      name
      description
      isRepeatable
      locations
      args { ...InputValue }
    }
  }
}

fragment FullType on __Type {
  kind
  name
  description
  specifiedByURL
  isOneOf
  fields(includeDeprecated: true) {
    name
    description
    args(includeDeprecated: true) { ...InputValue }
    type { ...TypeRef }
    isDeprecated
    deprecationReason
  }
  inputFields(includeDeprecated: true) { ...InputValue }
  interfaces { ...TypeRef }
  enumValues(includeDeprecated: true) {
    name
    description
    isDeprecated
    deprecationReason
  }
  possibleTypes { ...TypeRef }
}

fragment InputValue on __InputValue {
  name
  description
  type { ...TypeRef }
  defaultValue
  isDeprecated
  deprecationReason
}

fragment TypeRef on __Type {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType {
        kind
        name
        ofType {
          kind
          name
          ofType {
            kind
            name
            ofType {
              kind
              name
              ofType {
                kind
                name
              }
            }
          }
        }
      }
    }
  }
}`

// ErrNoSchema is returned when the payload carries no __schema object.
var ErrNoSchema = errors.New("introspection result has no __schema")

type envelope struct {
	Data   *payload   `json:"data"`
	Schema *rawSchema `json:"__schema"`
}

type payload struct {
	Schema *rawSchema `json:"__schema"`
}

type rawSchema struct {
	Description      string         `json:"description"`
	QueryType        *namedRef      `json:"queryType"`
	MutationType     *namedRef      `json:"mutationType"`
	SubscriptionType *namedRef      `json:"subscriptionType"`
	Types            []rawType      `json:"types"`
	Directives       []rawDirective `json:"directives"`
}

type namedRef struct {
	Name string `json:"name"`
}

type rawType struct {
	Kind           string          `json:"kind"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	SpecifiedByURL *string         `json:"specifiedByURL"`
	IsOneOf        bool            `json:"isOneOf"`
	Fields         []rawField      `json:"fields"`
	InputFields    []rawInputValue `json:"inputFields"`
	Interfaces     []rawTypeRef    `json:"interfaces"`
	EnumValues     []rawEnumValue  `json:"enumValues"`
	PossibleTypes  []rawTypeRef    `json:"possibleTypes"`
}

type rawField struct {
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Args              []rawInputValue `json:"args"`
	Type              *rawTypeRef     `json:"type"`
	IsDeprecated      bool            `json:"isDeprecated"`
	DeprecationReason string          `json:"deprecationReason"`
}

type rawInputValue struct {
	Name              string      `json:"name"`
	Description       string      `json:"description"`
	Type              *rawTypeRef `json:"type"`
	DefaultValue      *string     `json:"defaultValue"`
	IsDeprecated      bool        `json:"isDeprecated"`
	DeprecationReason string      `json:"deprecationReason"`
}

type rawEnumValue struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	IsDeprecated      bool   `json:"isDeprecated"`
	DeprecationReason string `json:"deprecationReason"`
}

type rawTypeRef struct {
	Kind   string      `json:"kind"`
	Name   string      `json:"name"`
	OfType *rawTypeRef `json:"ofType"`
}

type rawDirective struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	IsRepeatable bool            `json:"isRepeatable"`
	Locations    []string        `json:"locations"`
	Args         []rawInputValue `json:"args"`
}

// Decode parses an introspection result, either the full response
// ({"data":{"__schema":...}}) or the bare data object ({"__schema":...}).
func Decode(data []byte) (*schema.Schema, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode introspection: %w", err)
	}
	raw := env.Schema
	if raw == nil && env.Data != nil {
		raw = env.Data.Schema
	}
	if raw == nil {
		return nil, ErrNoSchema
	}
	return build(raw)
}

func build(raw *rawSchema) (*schema.Schema, error) {
	s := schema.NewSchema(raw.Description)
	if raw.QueryType != nil {
		s.SetQueryType(raw.QueryType.Name)
	}
	if raw.MutationType != nil {
		s.SetMutationType(raw.MutationType.Name)
	}
	if raw.SubscriptionType != nil {
		s.SetSubscriptionType(raw.SubscriptionType.Name)
	}
	s.AddBuiltins()

	for _, rt := range raw.Types {
		if rt.Name == "" || isIntrospectionName(rt.Name) || s.Types[rt.Name] != nil {
			continue
		}
		t, err := buildType(rt)
		if err != nil {
			return nil, err
		}
		s.AddType(t)
	}
	for _, rd := range raw.Directives {
		if s.Directives[rd.Name] != nil || isSpecifiedDirective(rd.Name) {
			continue
		}
		d := schema.NewDirective(rd.Name, rd.Description).SetRepeatable(rd.IsRepeatable)
		d.Locations = append(d.Locations, rd.Locations...)
		for _, a := range rd.Args {
			in, err := buildInputValue(a)
			if err != nil {
				return nil, fmt.Errorf("directive @%s: %w", rd.Name, err)
			}
			d.AddArgument(in)
		}
		s.AddDirective(d)
	}
	return s, nil
}

func buildType(rt rawType) (*schema.Type, error) {
	t := schema.NewType(rt.Name, schema.TypeKind(rt.Kind), rt.Description)
	switch t.Kind {
	case schema.TypeKindScalar:
		if rt.SpecifiedByURL != nil {
			t.SetSpecifiedByURL(*rt.SpecifiedByURL)
		}
	case schema.TypeKindObject, schema.TypeKindInterface:
		for _, iface := range rt.Interfaces {
			t.AddInterface(iface.Name)
		}
		for _, rf := range rt.Fields {
			ref, err := buildTypeRef(rf.Type)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", rt.Name, rf.Name, err)
			}
			f := schema.NewField(rf.Name, rf.Description, ref)
			if rf.IsDeprecated {
				f.Deprecate(rf.DeprecationReason)
			}
			for _, a := range rf.Args {
				in, err := buildInputValue(a)
				if err != nil {
					return nil, fmt.Errorf("%s.%s: %w", rt.Name, rf.Name, err)
				}
				f.AddArgument(in)
			}
			t.AddField(f)
		}
	case schema.TypeKindUnion:
		for _, pt := range rt.PossibleTypes {
			t.AddPossibleType(pt.Name)
		}
	case schema.TypeKindEnum:
		for _, ev := range rt.EnumValues {
			v := schema.NewEnumValue(ev.Name, ev.Description)
			if ev.IsDeprecated {
				v.Deprecate(ev.DeprecationReason)
			}
			t.AddEnumValue(v)
		}
	case schema.TypeKindInputObject:
		t.SetOneOf(rt.IsOneOf)
		for _, a := range rt.InputFields {
			in, err := buildInputValue(a)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", rt.Name, err)
			}
			t.AddInputField(in)
		}
	default:
		return nil, fmt.Errorf("type %s: unknown kind %q", rt.Name, rt.Kind)
	}
	return t, nil
}

func buildInputValue(a rawInputValue) (*schema.InputValue, error) {
	ref, err := buildTypeRef(a.Type)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.Name, err)
	}
	in := schema.NewInputValue(a.Name, a.Description, ref)
	if a.DefaultValue != nil {
		in.SetDefault(defaultLiteral(*a.DefaultValue))
	}
	if a.IsDeprecated {
		in.Deprecate(a.DeprecationReason)
	}
	return in, nil
}

func buildTypeRef(r *rawTypeRef) (*schema.TypeRef, error) {
	if r == nil {
		return nil, errors.New("missing type reference")
	}
	switch r.Kind {
	case "NON_NULL":
		inner, err := buildTypeRef(r.OfType)
		if err != nil {
			return nil, err
		}
		return schema.NonNullType(inner), nil
	case "LIST":
		inner, err := buildTypeRef(r.OfType)
		if err != nil {
			return nil, err
		}
		return schema.ListType(inner), nil
	}
	if r.Name == "" {
		return nil, fmt.Errorf("unnamed %s type reference", r.Kind)
	}
	return schema.NamedType(r.Name), nil
}

// defaultLiteral carries an introspected default value, which is already
// GraphQL source text, through to rendering unchanged.
type defaultLiteral string

func (d defaultLiteral) String() string { return string(d) }

func isIntrospectionName(name string) bool {
	return len(name) > 1 && name[0] == '_' && name[1] == '_'
}

func isSpecifiedDirective(name string) bool {
	switch name {
	case "deprecated", "specifiedBy", "oneOf", "defer":
		return true
	}
	return false
}
