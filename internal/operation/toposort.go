package operation

import (
	"go.uber.org/zap"

	document "github.com/hanpama/opexport/internal/document"
)

type mark uint8

const (
	unvisited mark = iota
	inProgress
	done
)

// Toposort orders list so that every fragment precedes the records that
// spread it. Records are taken in input order and independent records keep
// their relative order. A dependency is resolved to the first fragment record
// of that name; unknown names are ignored. An edge closing a cycle is logged
// and skipped, so the result is always a permutation of list.
func Toposort(list []*Data, logger *zap.Logger) []*Data {
	if logger == nil {
		logger = zap.NewNop()
	}
	fragmentIndex := make(map[string]int)
	for i, d := range list {
		if d.Type != document.KindFragment {
			continue
		}
		if _, ok := fragmentIndex[d.Name]; !ok {
			fragmentIndex[d.Name] = i
		}
	}

	marks := make([]mark, len(list))
	sorted := make([]*Data, 0, len(list))

	var visit func(i int)
	visit = func(i int) {
		marks[i] = inProgress
		for _, dep := range list[i].FragmentDependencies {
			j, ok := fragmentIndex[dep.Name()]
			if !ok {
				continue
			}
			switch marks[j] {
			case inProgress:
				logger.Warn("operation graph has a cycle",
					zap.String("from", list[i].Name),
					zap.String("to", list[j].Name),
				)
			case unvisited:
				visit(j)
			}
		}
		marks[i] = done
		sorted = append(sorted, list[i])
	}

	for i := range list {
		if marks[i] == unvisited {
			visit(i)
		}
	}
	return sorted
}
