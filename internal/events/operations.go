// Package events defines the payloads published on the event bus.
package events

import "time"

// OperationsStart is emitted before a document is resolved.
type OperationsStart struct {
	DocumentSize int
	HasSchema    bool
}

// OperationsComputed is emitted once a document has been resolved.
type OperationsComputed struct {
	Operations int
	Fragments  int
	Violations int
	// ParseFailed is set when the document did not parse.
	ParseFailed bool
	Duration    time.Duration
}
