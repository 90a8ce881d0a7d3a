package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// POSMetrics records checkout outcomes.
type POSMetrics struct {
	finalized *prometheus.CounterVec
	revenue   *prometheus.CounterVec
	rejected  *prometheus.CounterVec
}

// NewPOSMetrics registers the checkout metrics on reg. A nil registerer yields
// a no-op recorder.
func NewPOSMetrics(reg prometheus.Registerer) *POSMetrics {
	if reg == nil {
		return &POSMetrics{}
	}
	finalized := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_invoices_finalized_total",
		Help: "Invoices created by checkout.",
	}, []string{"store"})
	revenue := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_invoice_revenue_total",
		Help: "Sum of finalized invoice totals.",
	}, []string{"store"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_checkout_rejected_total",
		Help: "Checkout attempts rejected before an invoice was created.",
	}, []string{"reason"})
	reg.MustRegister(finalized, revenue, rejected)
	return &POSMetrics{finalized: finalized, revenue: revenue, rejected: rejected}
}

// InvoiceFinalized counts one invoice and adds its total to the revenue counter.
func (m *POSMetrics) InvoiceFinalized(store string, total decimal.Decimal) {
	if m == nil || m.finalized == nil {
		return
	}
	label := normalizeLabel(store)
	m.finalized.WithLabelValues(label).Inc()
	m.revenue.WithLabelValues(label).Add(total.InexactFloat64())
}

// CheckoutRejected counts a refused checkout, e.g. "empty_cart" or "out_of_stock".
func (m *POSMetrics) CheckoutRejected(reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
