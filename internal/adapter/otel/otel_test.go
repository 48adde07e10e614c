package otel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Strob0t/RentMatch/internal/config"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if s, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range s.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	return sums
}

func TestMetricsRecord(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetricsFrom(mp.Meter(meterName))
	if err != nil {
		t.Fatalf("NewMetricsFrom: %v", err)
	}

	ctx := context.Background()
	m.QueryServed(ctx, 3)
	m.QueryForbidden(ctx, "owner_not_verified")
	m.ContactCreated(ctx, false)
	m.ContactCreated(ctx, true)
	m.ContactRejected(ctx, "DUPLICATE_CONTACT")
	m.Dispatched(ctx, "sync", true, 10*time.Millisecond, nil)
	m.Dispatched(ctx, "sync", false, 10*time.Millisecond, errors.New("down"))

	got := collect(t, reader)
	want := map[string]int64{
		"rentmatch.marketplace.queries":           1,
		"rentmatch.marketplace.queries_forbidden": 1,
		"rentmatch.contacts.created":              2,
		"rentmatch.contacts.rejected":             1,
		"rentmatch.contacts.delivery_degraded":    1,
		"rentmatch.notifications.created":         1,
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("%s = %d, want %d", name, got[name], v)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.QueryServed(ctx, 1)
	m.QueryForbidden(ctx, "x")
	m.ContactCreated(ctx, true)
	m.ContactRejected(ctx, "x")
	m.Dispatched(ctx, "queue", true, time.Second, nil)
}

func TestInitWithoutEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), "rentmatch-test", config.Telemetry{})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSpanNameUsesRoutePattern(t *testing.T) {
	var got string
	r := chi.NewRouter()
	r.Get("/notifications/{id}", func(_ http.ResponseWriter, req *http.Request) {
		got = spanName("", req)
	})

	req := httptest.NewRequest(http.MethodGet, "/notifications/abc-123", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	if got != "GET /notifications/{id}" {
		t.Fatalf("span name = %q", got)
	}
}

func TestEndSpanRecordsError(t *testing.T) {
	_, span := StartDispatchSpan(context.Background(), "c-1", "sync")
	EndSpan(span, errors.New("boom"))
	_, span = StartQuerySpan(context.Background(), "o-1", "recent")
	EndSpan(span, nil)
}
