// Package reqid carries a per-request identifier through contexts.
package reqid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Header is the HTTP header a request ID is read from and echoed in.
const Header = "X-Request-ID"

type key struct{}

// NewContext returns a copy of parent carrying a fresh random ID, and the ID.
func NewContext(parent context.Context) (context.Context, string) {
	return WithID(parent, uuid.NewString())
}

// WithID returns a copy of parent carrying id.
func WithID(parent context.Context, id string) (context.Context, string) {
	return context.WithValue(parent, key{}, id), id
}

// FromRequest reuses a well-formed ID sent by the client and otherwise
// generates one.
func FromRequest(r *http.Request) (context.Context, string) {
	if v := r.Header.Get(Header); v != "" {
		if _, err := uuid.Parse(v); err == nil {
			return WithID(r.Context(), v)
		}
	}
	return NewContext(r.Context())
}

// FromContext extracts the request ID from ctx.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(key{}).(string)
	return id, ok
}
