package otel

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	eventbus "github.com/hanpama/opexport/internal/eventbus"
	events "github.com/hanpama/opexport/internal/events"
	reqid "github.com/hanpama/opexport/internal/reqid"
)

func TestSubscriberSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	bus := eventbus.New()
	sub := &subscriber{tracer: tp.Tracer("test")}
	unsubscribe := sub.register(bus)
	defer unsubscribe()

	ctx, rid := reqid.NewContext(context.Background())
	r := httptest.NewRequest("POST", "/operations", nil)

	eventbus.Emit(ctx, bus, events.HTTPStart{Request: r, RequestID: rid})
	eventbus.Emit(ctx, bus, events.OperationsStart{DocumentSize: 10, HasSchema: true})
	eventbus.Emit(ctx, bus, events.OperationsComputed{Operations: 1, Fragments: 2, ParseFailed: true})
	eventbus.Emit(ctx, bus, events.HTTPFinish{Request: r, RequestID: rid, Status: 200})

	spans := rec.Ended()
	require.Len(t, spans, 2)
	compute, request := spans[0], spans[1]
	require.Equal(t, "opexport.compute", compute.Name())
	require.Equal(t, "http.request", request.Name())
	require.Equal(t, request.SpanContext().SpanID(), compute.Parent().SpanID())
	require.Equal(t, codes.Error, compute.Status().Code)
	require.Equal(t, codes.Unset, request.Status().Code)
}

func TestSubscriberIgnoresUnknownRequests(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	bus := eventbus.New()
	sub := &subscriber{tracer: tp.Tracer("test")}
	sub.register(bus)

	r := httptest.NewRequest("GET", "/operations", nil)
	eventbus.Emit(context.Background(), bus, events.HTTPFinish{Request: r, RequestID: "missing", Status: 500})
	eventbus.Emit(context.Background(), bus, events.OperationsComputed{})
	require.Empty(t, rec.Ended())
}

func TestSetupWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), "", "opexport", eventbus.New())
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
