package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rentease/rentease-backend/pkg/metrics"
)

func TestLoggingRecordsRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(reg)

	router := chi.NewRouter()
	router.Use(Logging(nil, httpMetrics))
	router.Get("/api/v1/orders/{orderId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/3f9a", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var found bool
	for _, family := range families {
		if family.GetName() != "rentease_http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			if labels["route"] == "/api/v1/orders/{orderId}" && labels["status"] == "418" {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("expected request counter labelled with the route pattern")
	}
}
