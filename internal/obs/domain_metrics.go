package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// LineItemGenerateTotal counts line item generation outcomes.
	LineItemGenerateTotal *prometheus.CounterVec
	// LineItemGenerateLatency records generation latency in milliseconds.
	LineItemGenerateLatency prometheus.Histogram
	// LineItemAddOns observes how many add-ons a generated line carries.
	LineItemAddOns prometheus.Histogram
	// PriceCacheTotal counts region price cache lookups by result.
	PriceCacheTotal *prometheus.CounterVec
	// BreakerState exposes breaker state per target: 0=closed, 1=open, 2=half-open.
	BreakerState *prometheus.GaugeVec
	// BreakerTransitions counts breaker state changes.
	BreakerTransitions *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		LineItemGenerateTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lineitem_generate_total",
			Help:      "Count of line item generation outcomes.",
		}, []string{"result"})
		LineItemGenerateLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lineitem_generate_duration_ms",
			Help:      "Latency for line item generation in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		})
		LineItemAddOns = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lineitem_add_ons",
			Help:      "Number of add-ons requested per generated line item.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16},
		})
		PriceCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_cache_total",
			Help:      "Count of region price cache lookups by result.",
		}, []string{"result"})
		BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Current breaker state: 0=closed,1=open,2=half-open.",
		}, []string{"target"})
		BreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transition_total",
			Help:      "Count of breaker state transitions.",
		}, []string{"target", "from", "to"})

		mustRegisterCollector(reg, LineItemGenerateTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				LineItemGenerateTotal = v
			}
		})
		mustRegisterCollector(reg, LineItemGenerateLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				LineItemGenerateLatency = v
			}
		})
		mustRegisterCollector(reg, LineItemAddOns, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				LineItemAddOns = v
			}
		})
		mustRegisterCollector(reg, PriceCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PriceCacheTotal = v
			}
		})
		mustRegisterCollector(reg, BreakerState, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.GaugeVec); ok {
				BreakerState = v
			}
		})
		mustRegisterCollector(reg, BreakerTransitions, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BreakerTransitions = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
