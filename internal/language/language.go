// Package language exposes the GraphQL syntax tree, parser and printer.
package language

import (
	"bytes"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

// ParseQuery parses executable GraphQL. Syntax errors are *Error values.
func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// PrintOperation renders a single operation in canonical form.
func PrintOperation(op *OperationDefinition) string {
	var buf bytes.Buffer
	formatter.NewFormatter(&buf, formatter.WithIndent("  ")).
		FormatQueryDocument(&QueryDocument{Operations: OperationList{op}})
	return strings.TrimSpace(buf.String())
}

// PrintFragment renders a single fragment definition in canonical form.
func PrintFragment(frag *FragmentDefinition) string {
	var buf bytes.Buffer
	formatter.NewFormatter(&buf, formatter.WithIndent("  ")).
		FormatQueryDocument(&QueryDocument{Fragments: FragmentDefinitionList{frag}})
	return strings.TrimSpace(buf.String())
}
