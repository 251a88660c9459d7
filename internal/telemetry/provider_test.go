package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
		_ = tp.Shutdown(t.Context())
	})

	return recorder
}

// waitForSpans polls because the server span ends after the response is
// already on the wire.
func waitForSpans(t *testing.T, recorder *tracetest.SpanRecorder, n int) []sdktrace.ReadOnlySpan {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		spans := waitForSpans(t, recorder, 1)
		if len(spans) >= n || time.Now().After(deadline) {
			return spans
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNewServerHandler(t *testing.T) {
	recorder := useRecorder(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/items", WithHTTPRoute(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	server := httptest.NewServer(NewServerHandler(mux, "test-service"))
	defer server.Close()

	client := NewHTTPClient(5 * time.Second)
	resp, err := client.Get(server.URL + "/api/items")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var serverSpan sdktrace.ReadOnlySpan
	var clientSpans int
	for _, span := range waitForSpans(t, recorder, 2) {
		switch span.SpanKind() {
		case oteltrace.SpanKindServer:
			serverSpan = span
		case oteltrace.SpanKindClient:
			clientSpans++
		}
	}

	if clientSpans != 1 {
		t.Errorf("expected 1 client span, got %d", clientSpans)
	}
	if serverSpan == nil {
		t.Fatal("expected a server span")
	}
	if serverSpan.Name() != "GET /api/items" {
		t.Errorf("expected span name %q, got %q", "GET /api/items", serverSpan.Name())
	}
	if !serverSpan.Parent().IsValid() {
		t.Error("expected server span to continue the client trace")
	}

	var route string
	for _, attr := range serverSpan.Attributes() {
		if attr.Key == semconv.HTTPRouteKey {
			route = attr.Value.AsString()
		}
	}
	if route != "GET /api/items" {
		t.Errorf("expected http.route %q, got %q", "GET /api/items", route)
	}
}

func TestNewServerHandler_UnmatchedRoute(t *testing.T) {
	recorder := useRecorder(t)

	server := httptest.NewServer(NewServerHandler(http.NewServeMux(), "test-service"))
	defer server.Close()

	resp, err := server.Client().Get(server.URL + "/missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = resp.Body.Close()

	spans := waitForSpans(t, recorder, 1)
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "GET /missing" {
		t.Errorf("expected span name %q, got %q", "GET /missing", spans[0].Name())
	}
}
