package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FulfillmentMetrics records ledger and pick activity.
type FulfillmentMetrics struct {
	movements        *prometheus.CounterVec
	picksStarted     prometheus.Counter
	picksCompleted   prometheus.Counter
	pickDuration     prometheus.Histogram
	conflictRetries  prometheus.Counter
	shortfallRejects prometheus.Counter
}

// NewFulfillmentMetrics registers the fulfillment metrics on the provided registerer.
func NewFulfillmentMetrics(reg prometheus.Registerer) *FulfillmentMetrics {
	if reg == nil {
		return &FulfillmentMetrics{}
	}
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_movements_applied",
		Help: "Ledger movements applied, by source type.",
	}, []string{"source_type"})
	picksStarted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_picks_started",
		Help: "Orders moved into IN_PICK.",
	})
	picksCompleted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_picks_completed",
		Help: "Orders moved into PREPARED.",
	})
	pickDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_pick_duration_seconds",
		Help:    "Wall time between pick start and completion.",
		Buckets: prometheus.DefBuckets,
	})
	conflictRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_write_conflict_retries",
		Help: "Optimistic lock conflicts that triggered a retry.",
	})
	shortfallRejects := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_shortfall_rejections",
		Help: "Order-sourced batches rejected for insufficient stock.",
	})
	reg.MustRegister(movements, picksStarted, picksCompleted, pickDuration, conflictRetries, shortfallRejects)
	return &FulfillmentMetrics{
		movements:        movements,
		picksStarted:     picksStarted,
		picksCompleted:   picksCompleted,
		pickDuration:     pickDuration,
		conflictRetries:  conflictRetries,
		shortfallRejects: shortfallRejects,
	}
}

// IncMovements adds applied movements for the given source type.
func (m *FulfillmentMetrics) IncMovements(sourceType string, count int) {
	if m == nil || m.movements == nil {
		return
	}
	m.movements.WithLabelValues(normalizeLabel(sourceType)).Add(float64(count))
}

// IncPicksStarted increments the pick start counter.
func (m *FulfillmentMetrics) IncPicksStarted() {
	if m == nil || m.picksStarted == nil {
		return
	}
	m.picksStarted.Inc()
}

// IncPicksCompleted increments the pick completion counter.
func (m *FulfillmentMetrics) IncPicksCompleted() {
	if m == nil || m.picksCompleted == nil {
		return
	}
	m.picksCompleted.Inc()
}

// ObservePickDuration records the elapsed pick time.
func (m *FulfillmentMetrics) ObservePickDuration(duration time.Duration) {
	if m == nil || m.pickDuration == nil {
		return
	}
	m.pickDuration.Observe(duration.Seconds())
}

// IncConflictRetries increments the optimistic lock retry counter.
func (m *FulfillmentMetrics) IncConflictRetries() {
	if m == nil || m.conflictRetries == nil {
		return
	}
	m.conflictRetries.Inc()
}

// IncShortfallRejections increments the insufficient stock counter.
func (m *FulfillmentMetrics) IncShortfallRejections() {
	if m == nil || m.shortfallRejects == nil {
		return
	}
	m.shortfallRejects.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
