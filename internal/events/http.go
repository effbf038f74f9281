package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted when the operations endpoint receives a request.
type HTTPStart struct {
	Request   *http.Request
	RequestID string
}

// HTTPFinish is emitted after the response has been written.
type HTTPFinish struct {
	Request   *http.Request
	RequestID string
	Status    int
	Bytes     int
	Duration  time.Duration
}
