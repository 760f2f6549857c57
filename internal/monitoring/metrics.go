package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects run statistics on a private registry so several runs in
// one process (and tests) never collide on the default registerer.
type Metrics struct {
	registry *prometheus.Registry

	pathsTotal       *prometheus.CounterVec
	ruinedPaths      *prometheus.CounterVec
	sweepPoints      *prometheus.GaugeVec
	evaluationTiming *prometheus.HistogramVec
	errorsTotal      *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pathsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sizing_lab_simulated_paths_total",
				Help: "Total number of simulated equity paths",
			},
			[]string{"analysis"},
		),
		ruinedPaths: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sizing_lab_ruined_paths_total",
				Help: "Simulated paths that breached the drawdown threshold",
			},
			[]string{"analysis"},
		),
		sweepPoints: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sizing_lab_sweep_points_completed",
				Help: "Grid points evaluated in the current sweep",
			},
			[]string{"analysis"},
		),
		evaluationTiming: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sizing_lab_point_duration_seconds",
				Help:    "Time spent evaluating one grid point",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"analysis"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sizing_lab_errors_total",
				Help: "Total number of errors by category",
			},
			[]string{"category"},
		),
	}

	m.registry.MustRegister(m.pathsTotal, m.ruinedPaths, m.sweepPoints, m.evaluationTiming, m.errorsTotal)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordPaths adds simulated and ruined path counts. Safe on a nil receiver.
func (m *Metrics) RecordPaths(analysis string, total, ruined int) {
	if m == nil {
		return
	}
	m.pathsTotal.WithLabelValues(analysis).Add(float64(total))
	m.ruinedPaths.WithLabelValues(analysis).Add(float64(ruined))
}

// SetSweepProgress sets the number of grid points completed
func (m *Metrics) SetSweepProgress(analysis string, done int) {
	if m == nil {
		return
	}
	m.sweepPoints.WithLabelValues(analysis).Set(float64(done))
}

// ObserveDuration records the evaluation time of one grid point
func (m *Metrics) ObserveDuration(analysis string, d time.Duration) {
	if m == nil {
		return
	}
	m.evaluationTiming.WithLabelValues(analysis).Observe(d.Seconds())
}

// RecordError records an error metric
func (m *Metrics) RecordError(category string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(category).Inc()
}

// WriteTextfile writes the registry in the text exposition format, for the
// node exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
