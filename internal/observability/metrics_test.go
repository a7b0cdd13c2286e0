package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	metrics.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}

	body := rr.Body.String()
	if !strings.Contains(body, "odyssey_jobs_total") {
		t.Fatalf("expected body to contain odyssey_jobs_total, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	metricsRR := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(metricsRR, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	metricsBody := metricsRR.Body.String()
	if !strings.Contains(metricsBody, "http_requests_total{code=\"418\",route=\"/test\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", metricsBody)
	}
	if !strings.Contains(metricsBody, "http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", metricsBody)
	}
}

func TestDomainCountersAreNilSafeAndRecorded(t *testing.T) {
	var nilMetrics *Metrics
	nilMetrics.Provisioned("TAX_SETTING")
	nilMetrics.Compensation("TAX_SETTING", "failed")
	nilMetrics.DeleteRefused("owned")
	nilMetrics.JobCompleted("coa:integrity", "ok")
	nilMetrics.IntegrityViolations(3)

	metrics := NewMetrics()
	metrics.Provisioned("TAX_SETTING")
	metrics.Provisioned("TAX_SETTING")
	metrics.Compensation("SALES_ACCOUNT", "succeeded")
	metrics.DeleteRefused("has_children")
	metrics.IntegrityViolations(2)

	if got := testutil.ToFloat64(metrics.provisioned.WithLabelValues("TAX_SETTING")); got != 2 {
		t.Fatalf("expected 2 provisioned, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.compensations.WithLabelValues("SALES_ACCOUNT", "succeeded")); got != 1 {
		t.Fatalf("expected 1 compensation, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.deleteRefused.WithLabelValues("has_children")); got != 1 {
		t.Fatalf("expected 1 refusal, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.violations); got != 2 {
		t.Fatalf("expected violations gauge 2, got %v", got)
	}
}
