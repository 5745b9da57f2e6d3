package obs

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics groups Prometheus collectors for the teller.
type CheckoutMetrics struct {
	Checkouts     *prometheus.CounterVec
	Registrations *prometheus.CounterVec
	Discounts     *prometheus.CounterVec
	DiscountCents prometheus.Counter
	ReceiptLines  prometheus.Histogram
}

// NewCheckoutMetrics registers and returns checkout collectors. Collectors that
// are already registered on reg are reused.
func NewCheckoutMetrics(namespace string, reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &CheckoutMetrics{
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Count of checkout attempts by outcome.",
		}, []string{"result"}),
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Count of offer and bundle registrations by outcome.",
		}, []string{"kind", "result"}),
		Discounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discounts_applied_total",
			Help:      "Count of discounts attached to receipts by promotion type.",
		}, []string{"kind"}),
		DiscountCents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_cents_total",
			Help:      "Sum of granted discounts in cents.",
		}),
		ReceiptLines: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "receipt_lines",
			Help:      "Distribution of line items per receipt.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
	}
	mustRegister(reg, &m.Checkouts)
	mustRegister(reg, &m.Registrations)
	mustRegister(reg, &m.Discounts)
	mustRegister(reg, &m.DiscountCents)
	mustRegister(reg, &m.ReceiptLines)
	return m
}

// ObserveCheckout records the outcome of a checkout.
func (m *CheckoutMetrics) ObserveCheckout(result string, lines int) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(result).Inc()
	if result == "ok" {
		m.ReceiptLines.Observe(float64(lines))
	}
}

// ObserveDiscount records a granted discount. amountCents is the (negative)
// receipt amount.
func (m *CheckoutMetrics) ObserveDiscount(kind string, amountCents int64) {
	if m == nil {
		return
	}
	m.Discounts.WithLabelValues(kind).Inc()
	if amountCents < 0 {
		m.DiscountCents.Add(float64(-amountCents))
	}
}

// ObserveRegistration records an offer or bundle registration outcome.
func (m *CheckoutMetrics) ObserveRegistration(kind, result string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(kind, result).Inc()
}

// mustRegister registers *c, swapping in the existing collector on duplicates.
func mustRegister[T prometheus.Collector](reg prometheus.Registerer, c *T) {
	if err := reg.Register(*c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				*c = existing
				return
			}
		}
		panic(fmt.Errorf("register collector: %w", err))
	}
}
