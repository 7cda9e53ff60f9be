// Package metrics counts what instrumentation runs did.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sirkon/jumbotrace/events"
	"github.com/sirkon/jumbotrace/internal/diag"
)

// Unit statuses.
const (
	StatusInstrumented = "instrumented"
	StatusUntouched    = "untouched"
	StatusFailed       = "failed"
	StatusSkipped      = "skipped"
)

// Metrics holds counters of a run on a registry of its own.
type Metrics struct {
	reg *prometheus.Registry

	probes      *prometheus.CounterVec
	units       *prometheus.CounterVec
	diagnostics *prometheus.CounterVec
	duration    prometheus.Histogram
}

// New creates metrics registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		probes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jumbotrace_probes_total",
			Help: "Total number of inserted probes, labelled by event kind.",
		}, []string{"kind"}),
		units: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jumbotrace_units_total",
			Help: "Total number of processed files, labelled by status.",
		}, []string{"status"}),
		diagnostics: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jumbotrace_diagnostics_total",
			Help: "Total number of diagnostics, labelled by code.",
		}, []string{"code"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "jumbotrace_package_duration_ms",
			Help:    "Time spent on instrumenting a package in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}),
	}
}

// Probes adds n probes of kind k.
func (m *Metrics) Probes(k events.Kind, n int) {
	m.probes.WithLabelValues(k.String()).Add(float64(n))
}

// Unit counts a file with the given status.
func (m *Metrics) Unit(status string) {
	m.units.WithLabelValues(status).Inc()
}

// Diagnostics counts reports by code.
func (m *Metrics) Diagnostics(reports []diag.Report) {
	for _, r := range reports {
		m.diagnostics.WithLabelValues(r.Code.String()).Inc()
	}
}

// Package records the time a package took.
func (m *Metrics) Package(d time.Duration) {
	m.duration.Observe(float64(d) / float64(time.Millisecond))
}

// WriteFile writes metrics in the text exposition format.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
