package mongostore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MustRegisterMetrics registers the executor metrics on registry.
// It panics if metrics with the same names are already registered.
func MustRegisterMetrics(registry *prometheus.Registry) {
	registry.MustRegister(commandDuration, commandCounter, documentsCounter)
}

func sampleCommand(kind string, elapsed time.Duration, docs int64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	labels := prometheus.Labels{
		"status": status,
		"kind":   kind,
	}
	commandDuration.With(labels).Observe(elapsed.Seconds())
	commandCounter.With(labels).Inc()
	if err == nil {
		documentsCounter.With(prometheus.Labels{"kind": kind}).Add(float64(docs))
	}
}

var (
	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "archdsl_command_duration_seconds",
			Help:    "Duration of document store commands",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status", "kind"},
	)
	commandCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archdsl_command_total",
			Help: "Total of document store commands",
		},
		[]string{"status", "kind"},
	)
	documentsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archdsl_command_documents_total",
			Help: "Documents returned or affected by successful commands",
		},
		[]string{"kind"},
	)
)
