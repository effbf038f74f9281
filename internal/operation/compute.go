package operation

import (
	"go.uber.org/zap"

	document "github.com/hanpama/opexport/internal/document"
	schema "github.com/hanpama/opexport/internal/schema"
	"github.com/hanpama/opexport/internal/varinfer"
)

// Input is one computation request. Variables and Schema are optional.
type Input struct {
	Document  string
	Variables map[string]any
	Schema    *schema.Schema
}

// Result is the outcome of Compute. The fragment variable tables are nil
// when no schema was supplied.
type Result struct {
	OperationDefinitions  []*document.Operation
	FragmentDefinitions   []*document.Fragment
	DataList              []*Data
	FragmentVariables     varinfer.Table
	DeepFragmentVariables varinfer.Table
	Violations            []*Violation
	// ParseError is the reason the document did not parse, if it did not.
	ParseError error
}

type Option func(*options)

type options struct {
	logger *zap.Logger
	source document.Source
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCache parses through c instead of a fresh single-entry cache.
func WithCache(c document.Source) Option {
	return func(o *options) { o.source = c }
}

// Compute parses in.Document and returns one record per operation and
// fragment, ordered by Toposort. Subscriptions are left out. A document that
// does not parse yields empty lists and a violation.
func Compute(in Input, opts ...Option) *Result {
	o := options{logger: zap.NewNop()}
	for _, f := range opts {
		f(&o)
	}
	if o.source == nil {
		o.source = document.NewCache()
	}

	res := &Result{
		OperationDefinitions: []*document.Operation{},
		FragmentDefinitions:  []*document.Fragment{},
		DataList:             []*Data{},
		Violations:           []*Violation{},
	}

	defs, err := o.source.Lookup(in.Document)
	if err != nil {
		res.ParseError = err
		o.logger.Debug("document does not parse", zap.Error(err))
		res.Violations = append(res.Violations, violationParse(err))
	}
	defs = dedupeFragments(defs, res, o.logger)

	for _, def := range defs {
		switch d := def.(type) {
		case *document.Operation:
			res.OperationDefinitions = append(res.OperationDefinitions, d)
		case *document.Fragment:
			res.FragmentDefinitions = append(res.FragmentDefinitions, d)
		}
	}

	list := make([]*Data, 0, len(defs))
	for _, def := range defs {
		list = append(list, NewData(def, res.FragmentDefinitions, in.Variables, in.Schema))
	}
	res.DataList = Toposort(list, o.logger)

	if in.Schema != nil {
		res.FragmentVariables = varinfer.FindAll(in.Schema, res.FragmentDefinitions, varinfer.WithLogger(o.logger))
		deps := make(map[string][]string)
		for _, d := range list {
			if d.Type == document.KindFragment {
				deps[d.Name] = d.DependencyNames()
			}
		}
		res.DeepFragmentVariables = varinfer.ComputeDeepFragmentVariables(res.FragmentVariables, deps)
	}

	o.logger.Debug("operations computed",
		zap.Int("operations", len(res.OperationDefinitions)),
		zap.Int("fragments", len(res.FragmentDefinitions)),
		zap.Int("violations", len(res.Violations)),
	)
	return res
}

// dedupeFragments drops every fragment whose name was already defined
// earlier in defs, recording a violation for each.
func dedupeFragments(defs []document.Definition, res *Result, logger *zap.Logger) []document.Definition {
	seen := make(map[string]bool)
	out := make([]document.Definition, 0, len(defs))
	for _, def := range defs {
		if frag, ok := def.(*document.Fragment); ok {
			if seen[frag.Name()] {
				logger.Warn("duplicate fragment ignored", zap.String("fragment", frag.Name()))
				res.Violations = append(res.Violations, violationDuplicateFragment(frag))
				continue
			}
			seen[frag.Name()] = true
		}
		out = append(out, def)
	}
	return out
}
