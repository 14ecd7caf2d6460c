// Package metrics exposes the quote workflow counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Simplici0/blinds/internal/quote"
)

// Metrics records store commits, applied actions and pricing passes.
type Metrics struct {
	actions       *prometheus.CounterVec
	commits       prometheus.Counter
	pricingErrors prometheus.Counter
	calculation   prometheus.Histogram
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blinds_actions_total",
			Help: "Actions that changed the quote state, by action type.",
		}, []string{"type"}),
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blinds_commits_total",
			Help: "Committed state versions.",
		}),
		pricingErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blinds_pricing_errors_total",
			Help: "Pricing passes that left at least one item unpriced.",
		}),
		calculation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "blinds_calculation_seconds",
			Help:    "Duration of a full calculate-and-sum pass.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	for _, c := range []prometheus.Collector{m.actions, m.commits, m.pricingErrors, m.calculation} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ActionApplied(actionType string) {
	m.actions.WithLabelValues(actionType).Inc()
}

func (m *Metrics) PricingError() {
	m.pricingErrors.Inc()
}

func (m *Metrics) CalculationDuration(d time.Duration) {
	m.calculation.Observe(d.Seconds())
}

// ObserveStore counts every commit of store. The returned func unsubscribes.
func (m *Metrics) ObserveStore(store *quote.Store) func() {
	return store.Subscribe(func(prev, next quote.Snapshot, _ quote.Action) {
		if next.Version != prev.Version {
			m.commits.Inc()
		}
	})
}
