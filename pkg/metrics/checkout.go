package metrics

import "github.com/prometheus/client_golang/prometheus"

// Checkout outcomes.
const (
	CheckoutOutcomeSuccess     = "success"
	CheckoutOutcomeEmptyCart   = "empty_cart"
	CheckoutOutcomeUnavailable = "unavailable"
	CheckoutOutcomeError       = "error"
)

// CheckoutMetrics counts checkout attempts and the orders they produce.
type CheckoutMetrics struct {
	attempts *prometheus.CounterVec
	orders   prometheus.Counter
	coupons  *prometheus.CounterVec
}

// NewCheckoutMetrics registers checkout counters on reg. A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "attempts_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "orders_created_total",
		Help:      "Rental orders created by checkout.",
	})
	coupons := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "coupons_total",
		Help:      "Coupons presented at checkout by result.",
	}, []string{"result"})
	reg.MustRegister(attempts, orders, coupons)
	return &CheckoutMetrics{attempts: attempts, orders: orders, coupons: coupons}
}

// Observe records one checkout attempt and, on success, the number of orders created.
func (c *CheckoutMetrics) Observe(outcome string, ordersCreated int) {
	if c == nil || c.attempts == nil {
		return
	}
	c.attempts.WithLabelValues(normalizeLabel(outcome)).Inc()
	if ordersCreated > 0 {
		c.orders.Add(float64(ordersCreated))
	}
}

// ObserveCoupon records whether a presented coupon was applied or dropped.
func (c *CheckoutMetrics) ObserveCoupon(applied bool) {
	if c == nil || c.coupons == nil {
		return
	}
	result := "dropped"
	if applied {
		result = "applied"
	}
	c.coupons.WithLabelValues(result).Inc()
}
