// Package pagination finds Relay-style connection fields in a definition.
package pagination

import (
	"strings"

	document "github.com/hanpama/opexport/internal/document"
	language "github.com/hanpama/opexport/internal/language"
	schema "github.com/hanpama/opexport/internal/schema"
	visit "github.com/hanpama/opexport/internal/visit"
)

// Site is a paginated field and the response keys leading to it, the field's
// own key last.
type Site struct {
	Field *language.Field
	Path  []string
}

// Detect returns the connection fields of def in traversal order. A field
// qualifies when
//
//   - its type is named *Connection and declares pageInfo of a *PageInfo type,
//   - it accepts first: Int and after: String,
//   - it selects edges of an *Edge type, which in turn selects node.
//
// Fields that miss any of these are skipped. With a nil schema nothing matches.
func Detect(s *schema.Schema, def document.Definition) []Site {
	var sites []Site
	visit.Walk(s, def, &visit.Visitor{
		EnterField: func(c *visit.Cursor, f *language.Field) {
			if isConnection(s, c.FieldDef(), f) {
				sites = append(sites, Site{Field: f, Path: c.ResponsePath()})
			}
		},
	})
	return sites
}

func isConnection(s *schema.Schema, def *schema.Field, f *language.Field) bool {
	if def == nil {
		return false
	}
	conn := s.Type(def.Type.GetNamedType())
	if conn == nil || !strings.HasSuffix(conn.Name, "Connection") {
		return false
	}
	if !hasArgument(def, "first", "Int") || !hasArgument(def, "after", "String") {
		return false
	}
	pageInfo := conn.FieldByName("pageInfo")
	if pageInfo == nil || !strings.HasSuffix(pageInfo.Type.GetNamedType(), "PageInfo") {
		return false
	}
	edgesDef := conn.FieldByName("edges")
	if edgesDef == nil || !strings.HasSuffix(edgesDef.Type.GetNamedType(), "Edge") {
		return false
	}
	edges := selectedField(f.SelectionSet, "edges")
	return edges != nil && selectedField(edges.SelectionSet, "node") != nil
}

func hasArgument(def *schema.Field, name, typeName string) bool {
	arg := def.ArgumentByName(name)
	return arg != nil && arg.Type.GetNamedType() == typeName
}

func selectedField(set language.SelectionSet, name string) *language.Field {
	for _, sel := range set {
		if f, ok := sel.(*language.Field); ok && f.Name == name {
			return f
		}
	}
	return nil
}
