package server

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	document "github.com/hanpama/opexport/internal/document"
	eventbus "github.com/hanpama/opexport/internal/eventbus"
	events "github.com/hanpama/opexport/internal/events"
	operation "github.com/hanpama/opexport/internal/operation"
	reqid "github.com/hanpama/opexport/internal/reqid"
	schema "github.com/hanpama/opexport/internal/schema"
)

// Handler is an http.Handler that resolves GraphQL documents into operation
// data against the schema it was created with.
type Handler struct {
	schema *schema.Schema
	cache  *document.SyncCache
	opt    Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// CacheSize is the number of distinct documents whose parse is kept.
	CacheSize int

	Logger *zap.Logger
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithCacheSize(n int) Option { return func(o *Options) { o.CacheSize = n } }
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

// New creates a handler resolving documents against s, which may be nil.
func New(s *schema.Schema, opts ...Option) *Handler {
	op := Options{Timeout: 10 * time.Second, CacheSize: 64, Logger: zap.NewNop()}
	for _, f := range opts {
		f(&op)
	}
	return &Handler{
		schema: s,
		cache:  document.NewSyncCache(document.WithCapacity(op.CacheSize)),
		opt:    op,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, rid := reqid.FromRequest(r)
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}
	w.Header().Set(reqid.Header, rid)

	rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r, RequestID: rid})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{
			Request:   r,
			RequestID: rid,
			Status:    rw.status,
			Bytes:     rw.bytes,
			Duration:  time.Since(start),
		})
	}()
	log := h.opt.Logger.With(zap.String("request_id", rid))

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(rw, r, h.opt.CORS)
		}
		rw.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		h.writeJSON(rw, http.StatusMethodNotAllowed, errorResponse("method not allowed"))
		return
	}

	req, rerr := parseRequest(r, h.opt.MaxBodyBytes)
	if rerr != nil {
		log.Debug("rejecting request", zap.String("reason", rerr.message))
		h.writeJSON(rw, rerr.status, errorResponse(rerr.message))
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(rw, r, h.opt.CORS)
	}

	if err := ctx.Err(); err != nil {
		h.writeJSON(rw, http.StatusServiceUnavailable, errorResponse(err.Error()))
		return
	}

	res := h.compute(ctx, req, log)
	h.writeJSON(rw, http.StatusOK, NewResponse(res))
}

func (h *Handler) compute(ctx context.Context, req Request, log *zap.Logger) *operation.Result {
	start := time.Now()
	eventbus.Publish(ctx, events.OperationsStart{DocumentSize: len(req.Query), HasSchema: h.schema != nil})

	res := operation.Compute(
		operation.Input{Document: req.Query, Variables: req.Variables, Schema: h.schema},
		operation.WithLogger(log),
		operation.WithCache(h.cache),
	)

	eventbus.Publish(ctx, events.OperationsComputed{
		Operations:  len(res.OperationDefinitions),
		Fragments:   len(res.FragmentDefinitions),
		Violations:  len(res.Violations),
		ParseFailed: res.ParseError != nil,
		Duration:    time.Since(start),
	})
	return res
}

// ------------------ Request parsing ------------------

// Request is the body of a POST to the operations endpoint.
type Request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type requestError struct {
	status  int
	message string
}

func badRequest(message string) *requestError {
	return &requestError{status: http.StatusBadRequest, message: message}
}

func parseRequest(r *http.Request, maxBody int64) (Request, *requestError) {
	if r.Method == http.MethodGet {
		q := r.URL.Query().Get("query")
		if q == "" {
			return Request{}, badRequest("missing 'query'")
		}
		vars := map[string]any{}
		if v := r.URL.Query().Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &vars); err != nil {
				return Request{}, badRequest("invalid 'variables' JSON")
			}
		}
		return Request{Query: q, Variables: vars}, nil
	}

	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" && !strings.HasPrefix(ct, "application/json;") {
		return Request{}, &requestError{status: http.StatusUnsupportedMediaType, message: "unsupported Content-Type"}
	}
	defer r.Body.Close()
	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return Request{}, badRequest("failed to read body")
	}
	if maxBody > 0 && int64(len(body)) > maxBody {
		return Request{}, &requestError{status: http.StatusRequestEntityTooLarge, message: "body too large"}
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return Request{}, badRequest("invalid JSON")
	}
	if req.Query == "" {
		return Request{}, badRequest("missing 'query'")
	}
	if req.Variables == nil {
		req.Variables = map[string]any{}
	}
	return req, nil
}

// ------------------ Response formatting ------------------

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if h.opt.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		h.opt.Logger.Warn("encode response", zap.Error(err))
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	if contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
