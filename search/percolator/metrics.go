package percolator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts load outcomes. A nil *Metrics records nothing.
type Metrics struct {
	QueriesTotal *prometheus.CounterVec
	LoadDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with registerer when
// it is not nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "percolator_queries_total",
				Help: "Stored query documents visited while loading, by outcome (loaded, skipped, empty, failed).",
			},
			[]string{"outcome"},
		),
		LoadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "percolator_load_duration_seconds",
				Help:    "Time to scan an index and build the query registry.",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
		),
	}

	if registerer != nil {
		registerer.MustRegister(m.QueriesTotal, m.LoadDuration)
	}

	return m
}

func (m *Metrics) observeOutcome(outcome loadOutcome) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(outcome.String()).Inc()
}

func (m *Metrics) observeLoad(duration time.Duration) {
	if m == nil {
		return
	}
	m.LoadDuration.Observe(duration.Seconds())
}
