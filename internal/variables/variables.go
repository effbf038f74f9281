// Package variables scopes a caller supplied variable bag down to what a
// single definition declares.
package variables

import (
	"encoding/json"
	"math"
	"reflect"

	document "github.com/hanpama/opexport/internal/document"
)

// Used returns the entries of supplied that def declares. Only truthy values
// are kept: a declared variable supplied as nil, false, 0, NaN or "" is left
// out, exactly as if it had not been supplied. Fragments declare nothing.
func Used(supplied map[string]any, def document.Definition) map[string]any {
	used := map[string]any{}
	op, ok := def.(*document.Operation)
	if !ok {
		return used
	}
	for _, v := range op.Node.VariableDefinitions {
		value, present := supplied[v.Variable]
		if present && Truthy(value) {
			used[v.Variable] = value
		}
	}
	return used
}

// Truthy reports whether v counts as set. Composite values (maps, slices,
// structs) are always truthy, even when empty.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		return err != nil || (f != 0 && !math.IsNaN(f))
	case float64:
		return x != 0 && !math.IsNaN(x)
	case float32:
		return x != 0 && !math.IsNaN(float64(x))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.String:
		return rv.Len() > 0
	case reflect.Bool:
		return rv.Bool()
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}
