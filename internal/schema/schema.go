package schema

// Schema represents the complete GraphQL schema
type Schema struct {
	QueryType        string
	MutationType     string
	SubscriptionType string
	Types            map[string]*Type // All named types keyed by name
	Directives       map[string]*Directive
	Description      string
}

// GetQueryType returns the root query type (may be nil if absent)
func (s *Schema) GetQueryType() *Type { return s.Types[s.QueryType] }

// GetMutationType returns the root mutation type (may be nil if absent)
func (s *Schema) GetMutationType() *Type { return s.Types[s.MutationType] }

// GetSubscriptionType returns the root subscription type (may be nil if absent)
func (s *Schema) GetSubscriptionType() *Type { return s.Types[s.SubscriptionType] }

// Type is a named GraphQL type (object, interface, union, scalar, enum, input)
type Type struct {
	Name           string
	Kind           TypeKind
	Description    string
	Fields         []*Field      // For OBJECT and INTERFACE
	Interfaces     []string      // For OBJECT and INTERFACE (implemented/extended)
	PossibleTypes  []string      // For INTERFACE and UNION
	EnumValues     []*EnumValue  // For ENUM
	InputFields    []*InputValue // For INPUT_OBJECT
	SpecifiedByURL *string
	OneOf          bool
}

// Field represents a field on an object or interface
type Field struct {
	Name              string
	Description       string
	Type              *TypeRef
	Arguments         []*InputValue
	IsDeprecated      bool
	DeprecationReason string
}

// TypeKind represents the kind of GraphQL type
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// TypeRef represents a reference to a type (can be wrapped)
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef // For List and NonNull
	Named  string   // For named types
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

// Helper functions for TypeRef
func (t *TypeRef) IsNonNull() bool {
	return t != nil && t.Kind == TypeRefKindNonNull
}

func (t *TypeRef) IsList() bool {
	if t.Kind == TypeRefKindList {
		return true
	}
	if t.Kind == TypeRefKindNonNull && t.OfType != nil {
		return t.OfType.Kind == TypeRefKindList
	}
	return false
}

func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeRefKindNonNull || t.Kind == TypeRefKindList {
		return t.OfType
	}
	return t
}

func (t *TypeRef) GetNamedType() string {
	current := t
	for current != nil {
		if current.Named != "" {
			return current.Named
		}
		current = current.OfType
	}
	return ""
}

type EnumValue struct {
	Name              string
	Description       string
	IsDeprecated      bool
	DeprecationReason string
}

type InputValue struct {
	Name              string
	Description       string
	Type              *TypeRef
	DefaultValue      any
	IsDeprecated      bool
	DeprecationReason string
}

type Directive struct {
	Name         string
	Description  string
	Locations    []string
	Arguments    []*InputValue
	IsRepeatable bool
}

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

// IsNonNull reports whether the type is wrapped with Non-Null.
func IsNonNull(t *TypeRef) bool { return t != nil && t.IsNonNull() }

// IsList reports whether the type is (or is wrapped by) a list type.
func IsList(t *TypeRef) bool { return t != nil && t.IsList() }

// Unwrap removes one layer of Non-Null or List wrapping and returns the inner type.
func Unwrap(t *TypeRef) *TypeRef { return t.Unwrap() }

// GetNamedType returns the innermost named type for the given reference.
func GetNamedType(t *TypeRef) string { return t.GetNamedType() }

// Type returns the named type, or nil.
func (s *Schema) Type(name string) *Type {
	if s == nil {
		return nil
	}
	return s.Types[name]
}

// Directive returns the named directive definition, or nil.
func (s *Schema) Directive(name string) *Directive {
	if s == nil {
		return nil
	}
	return s.Directives[name]
}

// RootType returns the root type for an operation kind ("query", "mutation", "subscription").
func (s *Schema) RootType(operation string) *Type {
	if s == nil {
		return nil
	}
	switch operation {
	case "query":
		return s.GetQueryType()
	case "mutation":
		return s.GetMutationType()
	case "subscription":
		return s.GetSubscriptionType()
	}
	return nil
}

// FieldByName finds an output field on an object or interface.
func (t *Type) FieldByName(name string) *Field {
	if t == nil {
		return nil
	}
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// InputFieldByName finds a field on an input object.
func (t *Type) InputFieldByName(name string) *InputValue {
	if t == nil {
		return nil
	}
	for _, f := range t.InputFields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// IsComposite reports whether selections can be made on t.
func (t *Type) IsComposite() bool {
	return t != nil && (t.Kind == TypeKindObject || t.Kind == TypeKindInterface || t.Kind == TypeKindUnion)
}

func (f *Field) ArgumentByName(name string) *InputValue {
	if f == nil {
		return nil
	}
	return findInputValue(f.Arguments, name)
}

func (d *Directive) ArgumentByName(name string) *InputValue {
	if d == nil {
		return nil
	}
	return findInputValue(d.Arguments, name)
}

func findInputValue(values []*InputValue, name string) *InputValue {
	for _, v := range values {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// String renders the reference in SDL notation, e.g. "[ID!]!".
func (t *TypeRef) String() string { return renderTypeRef(t) }

// ListElem strips Non-Null and returns the element type of a list, or nil
// when t is not a list.
func (t *TypeRef) ListElem() *TypeRef {
	if t == nil {
		return nil
	}
	if t.Kind == TypeRefKindNonNull {
		t = t.OfType
	}
	if t == nil || t.Kind != TypeRefKindList {
		return nil
	}
	return t.OfType
}
