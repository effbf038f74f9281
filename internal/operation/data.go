// Package operation assembles the ordered operation-data list handed to code
// generators.
package operation

import (
	"strings"

	"github.com/hanpama/opexport/internal/dependency"
	document "github.com/hanpama/opexport/internal/document"
	"github.com/hanpama/opexport/internal/pagination"
	schema "github.com/hanpama/opexport/internal/schema"
	"github.com/hanpama/opexport/internal/variables"
)

// Data describes one operation or fragment. It is not modified after
// construction.
type Data struct {
	// Query is the definition printed in canonical form.
	Query string
	// Name is the declared name, or the kind for anonymous operations.
	Name        string
	DisplayName string
	Type        document.Kind
	// VariableName is Name as a constant identifier, e.g. GET_USER.
	VariableName string
	// Variables holds the supplied values the definition declares.
	Variables            map[string]any
	Definition           document.Definition
	FragmentDependencies []*document.Fragment
	// PaginationSites is nil when no schema was supplied.
	PaginationSites []pagination.Site
}

// NewData builds the record for def. fragments is the lookup set for
// dependency resolution; s may be nil.
func NewData(def document.Definition, fragments []*document.Fragment, supplied map[string]any, s *schema.Schema) *Data {
	name := Name(def)
	d := &Data{
		Query:                document.Print(def),
		Name:                 name,
		DisplayName:          DisplayName(def),
		Type:                 def.Kind(),
		VariableName:         FormatVariableName(name),
		Variables:            variables.Used(supplied, def),
		Definition:           def,
		FragmentDependencies: dependency.FindFragmentDependencies(fragments, def),
	}
	if s != nil {
		d.PaginationSites = pagination.Detect(s, def)
		if d.PaginationSites == nil {
			d.PaginationSites = []pagination.Site{}
		}
	}
	return d
}

// DependencyNames lists the names of the fragments d spreads directly.
func (d *Data) DependencyNames() []string {
	return dependency.Names(d.FragmentDependencies)
}

// Name returns the declared name of def, or its kind when it has none.
func Name(def document.Definition) string {
	if n := def.Name(); n != "" {
		return n
	}
	return string(def.Kind())
}

// DisplayName is like Name but marks anonymous operations as <Unnamed:kind>.
func DisplayName(def document.Definition) string {
	if n := def.Name(); n != "" {
		return n
	}
	return "<Unnamed:" + string(def.Kind()) + ">"
}

// FormatVariableName capitalises name, puts an underscore before every other
// ASCII capital and upper-cases the result: getUser becomes GET_USER.
func FormatVariableName(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

var unnamed = []string{
	string(document.KindQuery),
	string(document.KindMutation),
	string(document.KindSubscription),
}

// IsNamed reports whether d is an operation carrying a declared name rather
// than its kind. Fragments are never named operations.
func IsNamed(d *Data) bool {
	if d.Type == document.KindFragment {
		return false
	}
	name := strings.TrimSpace(d.Name)
	for _, u := range unnamed {
		if name == u {
			return false
		}
	}
	return true
}

// FirstNamed returns the first named operation of list, or nil.
func FirstNamed(list []*Data) *Data {
	for _, d := range list {
		if IsNamed(d) {
			return d
		}
	}
	return nil
}
