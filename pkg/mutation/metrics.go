package mutation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "notes"

// Metrics holds the Prometheus collectors of the mutation handler.
type Metrics struct {
	MutationsTotal *prometheus.CounterVec
	DeleteDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
// A nil registerer yields unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MutationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "mutations_total",
			Help:      "Submitted mutations by intent and outcome.",
		}, []string{"intent", "outcome"}),
		DeleteDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "delete_duration_seconds",
			Help:      "Time spent serving delete intents, simulated latency included.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 2.5, 5},
		}),
	}
}

func (m *Metrics) observe(res Result) {
	if m == nil {
		return
	}
	// Intent is user input; keep the label set bounded.
	intent := "unknown"
	switch res.Intent {
	case IntentCreate, IntentDelete:
		intent = string(res.Intent)
	}
	outcome := "ok"
	if !res.OK() {
		outcome = string(res.Kind)
	}
	m.MutationsTotal.WithLabelValues(intent, outcome).Inc()
}
