package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// BusinessMetrics holds Prometheus metrics for storefront activity.
// Every Record method is a no-op on a nil receiver, so code paths work
// unchanged when metrics were never initialised (tests, tools).
type BusinessMetrics struct {
	// Catalog
	CatalogQueries *prometheus.CounterVec
	CatalogResults prometheus.Histogram
	ItemViews      *prometheus.CounterVec

	// Cart
	CartMutations *prometheus.CounterVec
	CartValue     prometheus.Histogram

	// Submissions
	Submissions      *prometheus.CounterVec
	OrderValue       *prometheus.HistogramVec
	OrderItemCount   prometheus.Histogram
	LineItemFailures prometheus.Counter

	// Notifications
	Notifications *prometheus.CounterVec
	EmailDuration *prometheus.HistogramVec
}

// NewBusinessMetrics creates and registers all business metrics
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "lavka"
	}

	subsystem := "business"

	return &BusinessMetrics{
		// =======================================================================
		// Catalog
		// =======================================================================
		CatalogQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "catalog_queries_total",
				Help:      "Total catalog queries",
			},
			[]string{"kind", "sort", "filtered"}, // filtered: yes when any criteria applied
		),
		CatalogResults: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "catalog_query_results",
				Help:      "Number of items matching a catalog query before pagination",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		ItemViews: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "item_views_total",
				Help:      "Total catalog item detail views",
			},
			[]string{"kind"},
		),

		// =======================================================================
		// Cart
		// =======================================================================
		CartMutations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_mutations_total",
				Help:      "Total cart mutations",
			},
			[]string{"action"}, // action: add, update, remove, clear
		),
		CartValue: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_subtotal_bgn",
				Help:      "Cart subtotal after a mutation",
				Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000},
			},
		),

		// =======================================================================
		// Submissions
		// =======================================================================
		Submissions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "submissions_total",
				Help:      "Order and booking submissions by outcome",
			},
			[]string{"kind", "outcome"}, // outcome: success, degraded, invalid, failed
		),
		OrderValue: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_total_bgn",
				Help:      "Order grand total",
				Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000},
			},
			[]string{"payment_method"},
		),
		OrderItemCount: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_item_count",
				Help:      "Number of units per order",
				Buckets:   []float64{1, 2, 3, 5, 10, 20},
			},
		),
		LineItemFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_line_item_failures_total",
				Help:      "Orders whose line items could not be stored",
			},
		),

		// =======================================================================
		// Notifications
		// =======================================================================
		Notifications: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "notifications_total",
				Help:      "Notification attempts by recipient and result",
			},
			[]string{"kind", "recipient", "result"}, // recipient: customer, operator
		),
		EmailDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "email_send_duration_seconds",
				Help:      "Email provider call duration",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"provider"},
		),
	}
}

// Global instance for easy access from handlers
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace)
	return Business
}

// RecordCatalogQuery counts a query and its unpaginated result size.
func (m *BusinessMetrics) RecordCatalogQuery(kind, sort string, filtered bool, total int) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "all"
	}
	if sort == "" {
		sort = "none"
	}
	f := "no"
	if filtered {
		f = "yes"
	}
	m.CatalogQueries.WithLabelValues(kind, sort, f).Inc()
	m.CatalogResults.Observe(float64(total))
}

// RecordItemView counts an item detail view.
func (m *BusinessMetrics) RecordItemView(kind string) {
	if m == nil {
		return
	}
	m.ItemViews.WithLabelValues(kind).Inc()
}

// RecordCartMutation counts a cart change and the resulting subtotal.
func (m *BusinessMetrics) RecordCartMutation(action string, subtotal decimal.Decimal) {
	if m == nil {
		return
	}
	m.CartMutations.WithLabelValues(action).Inc()
	m.CartValue.Observe(subtotal.InexactFloat64())
}

// RecordSubmission counts one order or booking outcome.
func (m *BusinessMetrics) RecordSubmission(kind, outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(kind, outcome).Inc()
}

// RecordOrder observes a persisted order.
func (m *BusinessMetrics) RecordOrder(paymentMethod string, total decimal.Decimal, units int) {
	if m == nil {
		return
	}
	m.OrderValue.WithLabelValues(paymentMethod).Observe(total.InexactFloat64())
	m.OrderItemCount.Observe(float64(units))
}

// RecordLineItemFailure counts an order stored without its line items.
func (m *BusinessMetrics) RecordLineItemFailure() {
	if m == nil {
		return
	}
	m.LineItemFailures.Inc()
}

// RecordNotification counts one notification attempt.
func (m *BusinessMetrics) RecordNotification(kind, recipient string, err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.Notifications.WithLabelValues(kind, recipient, result).Inc()
}

// ObserveEmail records how long a provider call took.
func (m *BusinessMetrics) ObserveEmail(provider string, seconds float64) {
	if m == nil {
		return
	}
	m.EmailDuration.WithLabelValues(provider).Observe(seconds)
}
