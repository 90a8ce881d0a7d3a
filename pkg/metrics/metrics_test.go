package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
)

func TestPOSMetricsCountsInvoicesAndRevenue(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPOSMetrics(reg)
	m.InvoiceFinalized("Downtown Store", decimal.RequireFromString("10.584"))
	m.InvoiceFinalized("Downtown Store", decimal.RequireFromString("5"))
	m.CheckoutRejected("empty_cart")
	m.CheckoutRejected("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "pos_invoices_finalized_total", "store", "Downtown Store"); err != nil || got != 2 {
		t.Fatalf("expected 2 invoices, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "pos_invoice_revenue_total", "store", "Downtown Store"); err != nil || got < 15.58 || got > 15.59 {
		t.Fatalf("expected revenue ~15.584, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "pos_checkout_rejected_total", "reason", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected blank reason to map to unknown, got %f (%v)", got, err)
	}
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("GET", "/api/v1/products", 200, 20*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "http_requests_total", "status", "200"); err != nil || got != 1 {
		t.Fatalf("expected one request, got %f (%v)", got, err)
	}
	if mf := findMetricFamily(mfs, "http_request_duration_seconds"); mf == nil {
		t.Fatal("expected duration histogram")
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	NewPOSMetrics(nil).InvoiceFinalized("x", decimal.NewFromInt(1))
	NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Millisecond)
	var m *POSMetrics
	m.CheckoutRejected("x")
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

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, lp := range labels {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}
