package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeUpdated  = "updated"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Metrics: счётчики админки. У каждого экземпляра свой registry,
// поэтому в тестах можно поднимать несколько роутеров.
type Metrics struct {
	registry *prometheus.Registry

	FormRenders    *prometheus.CounterVec
	Updates        *prometheus.CounterVec
	UpdateDuration *prometheus.HistogramVec
	HistoryWritten *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		FormRenders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_form_renders_total",
				Help: "Total number of edit forms rendered",
			},
			[]string{"model"},
		),

		Updates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_record_updates_total",
				Help: "Total number of record updates by outcome",
			},
			[]string{"model", "outcome"},
		),

		UpdateDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "admin_record_update_duration_seconds",
				Help:    "Duration of record update handling",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model"},
		),

		HistoryWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_history_entries_total",
				Help: "Total number of history entries produced by updates",
			},
			[]string{"model"},
		),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
