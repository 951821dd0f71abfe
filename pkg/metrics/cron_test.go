package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCronJobMetrics(reg)
	job := "test-job"
	metrics.ObserveDuration(job, 250*time.Millisecond)
	metrics.IncSuccess(job)
	metrics.IncFailure(job)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "rentease_cron_job_runs_total", "result", "success"); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "rentease_cron_job_runs_total", "result", "failure"); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	last := findMetricFamily(mfs, "rentease_cron_job_last_success_timestamp_seconds")
	if last == nil || last.GetMetric()[0].GetGauge().GetValue() <= 0 {
		t.Fatalf("expected last success timestamp to be set")
	}

	if got, err := fetchHistogramSum(mfs, "rentease_cron_job_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestCheckoutMetricsCountsOutcomesAndOrders(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCheckoutMetrics(reg)

	metrics.Observe(CheckoutOutcomeSuccess, 2)
	metrics.Observe(CheckoutOutcomeEmptyCart, 0)
	metrics.ObserveCoupon(false)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "rentease_checkout_attempts_total", "outcome", CheckoutOutcomeSuccess); err != nil || got != 1 {
		t.Fatalf("expected success=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "rentease_checkout_coupons_total", "result", "dropped"); err != nil || got != 1 {
		t.Fatalf("expected dropped=1, got %f (%v)", got, err)
	}
	orders := findMetricFamily(mfs, "rentease_checkout_orders_created_total")
	if orders == nil || orders.GetMetric()[0].GetCounter().GetValue() != 2 {
		t.Fatalf("expected 2 orders created")
	}
}

func TestNilRecordersAreSafe(t *testing.T) {
	var cron *CronJobMetrics
	cron.IncSuccess("x")
	cron.IncSkipped()
	NewCronJobMetrics(nil).IncFailure("x")
	NewCheckoutMetrics(nil).Observe(CheckoutOutcomeError, 0)
	NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Millisecond)
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg)
	metrics.Observe("GET", "/api/v1/products", 200, 10*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "rentease_http_requests_total", "route", "/api/v1/products"); err != nil || got != 1 {
		t.Fatalf("expected one request, got %f (%v)", got, err)
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
