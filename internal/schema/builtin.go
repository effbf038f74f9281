package schema

// Built-in scalars and the directives usable in executable documents,
// mirroring the gqlparser prelude.

var (
	stringType  = builtinScalar("String", "The `String` scalar type represents textual data, represented as UTF-8 character sequences.")
	intType     = builtinScalar("Int", "The `Int` scalar type represents non-fractional signed whole numeric values.")
	floatType   = builtinScalar("Float", "The `Float` scalar type represents signed double-precision fractional values.")
	booleanType = builtinScalar("Boolean", "The `Boolean` scalar type represents `true` or `false`.")
	idType      = builtinScalar("ID", "The `ID` scalar type represents a unique identifier, often used to refetch an object or as a key for caching.")
)

var (
	includeDirective = NewDirective("include", "Directs the executor to include this field or fragment only when the `if` argument is true.").
				AddArgument(NewInputValue("if", "Included when true.", NonNullType(NamedType("Boolean")))).
				AddLocations("FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT")

	skipDirective = NewDirective("skip", "Directs the executor to skip this field or fragment when the `if` argument is true.").
			AddArgument(NewInputValue("if", "Skipped when true.", NonNullType(NamedType("Boolean")))).
			AddLocations("FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT")

	deferDirective = NewDirective("defer", "Directs the executor to defer this fragment when the `if` argument is true or undefined.").
			AddArgument(NewInputValue("if", "Deferred by default.", NamedType("Boolean")).SetDefault(true)).
			AddArgument(NewInputValue("label", "Identifies the deferred payload.", NamedType("String"))).
			AddLocations("FRAGMENT_SPREAD", "INLINE_FRAGMENT")
)

func builtinScalar(name, description string) *Type {
	return NewType(name, TypeKindScalar, description)
}

func isBuiltinType(t *Type) bool {
	switch t {
	case stringType, intType, floatType, booleanType, idType:
		return true
	}
	return false
}

func isBuiltinDirective(d *Directive) bool {
	switch d {
	case includeDirective, skipDirective, deferDirective:
		return true
	}
	return false
}
