package operation

import (
	"errors"
	"fmt"

	document "github.com/hanpama/opexport/internal/document"
	language "github.com/hanpama/opexport/internal/language"
)

// Violation is a problem found in the document. Computation carries on past
// violations with whatever could be resolved.
type Violation struct {
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

func violationWithPosition(message string, pos *language.Position) *Violation {
	v := &Violation{Message: message}
	if pos != nil {
		v.Line = pos.Line
		v.Column = pos.Column
	}
	return v
}

func violationDuplicateFragment(frag *document.Fragment) *Violation {
	return violationWithPosition(
		fmt.Sprintf("fragment %q is defined more than once", frag.Name()),
		frag.Position(),
	)
}

func violationParse(err error) *Violation {
	var gqlErr *language.Error
	if errors.As(err, &gqlErr) {
		v := &Violation{Message: gqlErr.Message}
		if len(gqlErr.Locations) > 0 {
			v.Line = gqlErr.Locations[0].Line
			v.Column = gqlErr.Locations[0].Column
		}
		return v
	}
	return &Violation{Message: err.Error()}
}
