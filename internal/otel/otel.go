// Package otel turns bus events into OpenTelemetry spans.
package otel

import (
	"context"
	"sync"

	eventbus "github.com/hanpama/opexport/internal/eventbus"
	events "github.com/hanpama/opexport/internal/events"
	reqid "github.com/hanpama/opexport/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Setup exports traces over OTLP/gRPC to endpoint and subscribes to bus.
// If endpoint is empty, no telemetry is configured.
func Setup(ctx context.Context, endpoint, service string, bus *eventbus.Bus) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	sub := &subscriber{tracer: tp.Tracer("opexport")}
	unsubscribe := sub.register(bus)

	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

type subscriber struct {
	tracer    trace.Tracer
	httpSpans sync.Map // rid -> trace.Span
	opSpans   sync.Map // rid -> trace.Span
}

func (s *subscriber) register(bus *eventbus.Bus) (unsubscribe func()) {
	unsubs := []func(){
		eventbus.On(bus, func(ctx context.Context, e events.HTTPStart) {
			_, span := s.tracer.Start(ctx, "http.request")
			span.SetAttributes(
				semconv.HTTPMethodKey.String(e.Request.Method),
				attribute.String("http.target", e.Request.URL.Path),
				attribute.String("http.request_id", e.RequestID),
			)
			s.httpSpans.Store(e.RequestID, span)
		}),

		eventbus.On(bus, func(ctx context.Context, e events.HTTPFinish) {
			v, ok := s.httpSpans.LoadAndDelete(e.RequestID)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(
				semconv.HTTPStatusCodeKey.Int(e.Status),
				attribute.Int("http.response_size", e.Bytes),
			)
			if e.Status >= 500 {
				span.SetStatus(codes.Error, "")
			}
			span.End()
		}),

		eventbus.On(bus, func(ctx context.Context, e events.OperationsStart) {
			rid, _ := reqid.FromContext(ctx)
			parent := ctx
			if v, ok := s.httpSpans.Load(rid); ok {
				parent = trace.ContextWithSpan(ctx, v.(trace.Span))
			}
			_, span := s.tracer.Start(parent, "opexport.compute")
			span.SetAttributes(
				attribute.Int("opexport.document_size", e.DocumentSize),
				attribute.Bool("opexport.schema", e.HasSchema),
			)
			s.opSpans.Store(rid, span)
		}),

		eventbus.On(bus, func(ctx context.Context, e events.OperationsComputed) {
			rid, _ := reqid.FromContext(ctx)
			v, ok := s.opSpans.LoadAndDelete(rid)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(
				attribute.Int("opexport.operations", e.Operations),
				attribute.Int("opexport.fragments", e.Fragments),
				attribute.Int("opexport.violations", e.Violations),
			)
			if e.ParseFailed {
				span.SetStatus(codes.Error, "document does not parse")
			}
			span.End()
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
