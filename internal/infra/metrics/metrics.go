package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Spok95/packing-station/internal/cache"
)

type Metrics struct {
	tasks    *prometheus.CounterVec
	inFlight prometheus.Gauge
	scans    *prometheus.CounterVec
	cache    *prometheus.CounterVec
}

// New регистрирует метрики в reg. Станция передаёт свой реестр, его же
// отдаёт /metrics.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "station",
			Name:      "tasks_total",
			Help:      "Background tasks by kind and outcome.",
		}, []string{"kind", "outcome"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "station",
			Name:      "tasks_in_flight",
			Help:      "Background tasks currently running.",
		}),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "station",
			Name:      "scans_total",
			Help:      "Item scans by outcome.",
		}, []string{"outcome"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "station",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by kind and result.",
		}, []string{"kind", "result"}),
	}
	reg.MustRegister(m.tasks, m.inFlight, m.scans, m.cache)
	return m
}

func (m *Metrics) TaskStarted() { m.inFlight.Inc() }

func (m *Metrics) TaskFinished(kind, outcome string) {
	m.inFlight.Dec()
	m.tasks.WithLabelValues(kind, outcome).Inc()
}

// Scan outcome: matched | already_scanned | not_in_box | error
func (m *Metrics) Scan(outcome string) { m.scans.WithLabelValues(outcome).Inc() }

func (m *Metrics) CacheLookup(kind cache.Kind, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(string(kind), result).Inc()
}
