package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Verification result labels.
const (
	VerifyResultCompleted         = "completed"
	VerifyResultSignatureMismatch = "signature_mismatch"
	VerifyResultReplay            = "replay"
	VerifyResultFailed            = "failed"
)

// CheckoutMetrics records the money-path counters: staged checkouts, payment
// verification outcomes, materialized orders, and POS sales by tender.
type CheckoutMetrics struct {
	checkoutsPrepared    prometheus.Counter
	paymentVerifications *prometheus.CounterVec
	ordersMaterialized   prometheus.Counter
	posSales             *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	checkoutsPrepared := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkouts_prepared_total",
		Help: "Pending checkouts staged against the payment gateway.",
	})
	paymentVerifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Payment verification attempts by outcome.",
	}, []string{"result"})
	ordersMaterialized := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_materialized_total",
		Help: "Per-vendor orders created from verified payments.",
	})
	posSales := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_sales_total",
		Help: "Completed point-of-sale checkouts by payment method.",
	}, []string{"method"})
	reg.MustRegister(checkoutsPrepared, paymentVerifications, ordersMaterialized, posSales)
	return &CheckoutMetrics{
		checkoutsPrepared:    checkoutsPrepared,
		paymentVerifications: paymentVerifications,
		ordersMaterialized:   ordersMaterialized,
		posSales:             posSales,
	}
}

// IncCheckoutPrepared increments the staged checkout counter.
func (c *CheckoutMetrics) IncCheckoutPrepared() {
	if c == nil || c.checkoutsPrepared == nil {
		return
	}
	c.checkoutsPrepared.Inc()
}

// IncPaymentVerification increments the verification counter for the outcome.
func (c *CheckoutMetrics) IncPaymentVerification(result string) {
	if c == nil || c.paymentVerifications == nil {
		return
	}
	c.paymentVerifications.WithLabelValues(normalizeLabel(result)).Inc()
}

// AddOrdersMaterialized records n per-vendor orders created by one checkout.
func (c *CheckoutMetrics) AddOrdersMaterialized(n int) {
	if c == nil || c.ordersMaterialized == nil || n <= 0 {
		return
	}
	c.ordersMaterialized.Add(float64(n))
}

// IncPOSSale increments the POS sale counter for the payment method.
func (c *CheckoutMetrics) IncPOSSale(method string) {
	if c == nil || c.posSales == nil {
		return
	}
	c.posSales.WithLabelValues(normalizeLabel(method)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
