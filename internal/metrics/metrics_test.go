package metrics

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	eventbus "github.com/hanpama/opexport/internal/eventbus"
	events "github.com/hanpama/opexport/internal/events"
)

func TestCollectorRecordsEvents(t *testing.T) {
	c := New()
	bus := eventbus.New()
	unsubscribe := c.Subscribe(bus)

	ctx := context.Background()
	r := httptest.NewRequest("POST", "/operations", nil)
	eventbus.Emit(ctx, bus, events.HTTPFinish{Request: r, Status: 200, Duration: time.Millisecond})
	eventbus.Emit(ctx, bus, events.HTTPFinish{Request: r, Status: 400})
	eventbus.Emit(ctx, bus, events.OperationsComputed{Operations: 2, Fragments: 3, Violations: 1})
	eventbus.Emit(ctx, bus, events.OperationsComputed{ParseFailed: true, Violations: 1})

	require.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("POST", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("POST", "400")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.computations.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.computations.WithLabelValues("parse_error")))
	require.Equal(t, 2.0, testutil.ToFloat64(c.definitions.WithLabelValues("operation")))
	require.Equal(t, 3.0, testutil.ToFloat64(c.definitions.WithLabelValues("fragment")))
	require.Equal(t, 2.0, testutil.ToFloat64(c.violations))

	unsubscribe()
	eventbus.Emit(ctx, bus, events.OperationsComputed{Operations: 5})
	require.Equal(t, 2.0, testutil.ToFloat64(c.definitions.WithLabelValues("operation")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := New()
	bus := eventbus.New()
	c.Subscribe(bus)
	eventbus.Emit(context.Background(), bus, events.OperationsComputed{Operations: 1})

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, w.Code)
	body := w.Body.String()
	require.True(t, strings.Contains(body, `opexport_definitions_total{kind="operation"} 1`), body)
	require.Contains(t, body, "go_goroutines")
}
