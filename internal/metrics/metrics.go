package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var Registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, Registry)

var (
	EventsRecorded = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagesentry_events_recorded_total",
			Help: "Security events appended to a session log",
		},
		[]string{"event", "severity"},
	)

	StoreFailures = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagesentry_store_failures_total",
			Help: "Session store reads or writes that failed and were ignored",
		},
		[]string{"op"},
	)

	EventsEvicted = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "pagesentry_events_evicted_total",
			Help: "Events dropped from the front of a full session log",
		},
	)

	ActivePages = promauto.With(registerer).NewGauge(
		prometheus.GaugeOpts{
			Name: "pagesentry_active_pages",
			Help: "Page scopes currently attached to the agent",
		},
	)

	SignalsReceived = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagesentry_signals_total",
			Help: "Browser signals delivered to observers",
		},
		[]string{"kind", "prevented"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}
