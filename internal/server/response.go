package server

import (
	document "github.com/hanpama/opexport/internal/document"
	operation "github.com/hanpama/opexport/internal/operation"
	"github.com/hanpama/opexport/internal/varinfer"
)

// Response is the JSON view of an operation.Result.
type Response struct {
	// DefaultOperation is the first operation with a declared name.
	DefaultOperation      string                 `json:"defaultOperation,omitempty"`
	Operations            []OperationData        `json:"operations"`
	FragmentVariables     varinfer.Table         `json:"fragmentVariables,omitempty"`
	DeepFragmentVariables varinfer.Table         `json:"deepFragmentVariables,omitempty"`
	Violations            []*operation.Violation `json:"violations"`
}

type OperationData struct {
	Name                 string           `json:"name"`
	DisplayName          string           `json:"displayName"`
	Type                 document.Kind    `json:"type"`
	VariableName         string           `json:"variableName"`
	Query                string           `json:"query"`
	Variables            map[string]any   `json:"variables"`
	FragmentDependencies []string         `json:"fragmentDependencies"`
	PaginationSites      []PaginationSite `json:"paginationSites,omitempty"`
}

type PaginationSite struct {
	Field string   `json:"field"`
	Path  []string `json:"path"`
}

// NewResponse converts res, keeping the order of res.DataList.
func NewResponse(res *operation.Result) *Response {
	out := &Response{
		Operations:            make([]OperationData, len(res.DataList)),
		FragmentVariables:     res.FragmentVariables,
		DeepFragmentVariables: res.DeepFragmentVariables,
		Violations:            res.Violations,
	}
	if d := operation.FirstNamed(res.DataList); d != nil {
		out.DefaultOperation = d.Name
	}
	for i, d := range res.DataList {
		od := OperationData{
			Name:                 d.Name,
			DisplayName:          d.DisplayName,
			Type:                 d.Type,
			VariableName:         d.VariableName,
			Query:                d.Query,
			Variables:            d.Variables,
			FragmentDependencies: d.DependencyNames(),
		}
		for _, site := range d.PaginationSites {
			od.PaginationSites = append(od.PaginationSites, PaginationSite{Field: site.Field.Name, Path: site.Path})
		}
		out.Operations[i] = od
	}
	return out
}

type errorBody struct {
	Errors []errorMessage `json:"errors"`
}

type errorMessage struct {
	Message string `json:"message"`
}

func errorResponse(message string) errorBody {
	return errorBody{Errors: []errorMessage{{Message: message}}}
}
