package provisioner

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects per-run counters for the node_exporter textfile
// collector.
type Metrics struct {
	registry *prometheus.Registry

	resourcesTotal   *prometheus.CounterVec
	resourceDuration *prometheus.HistogramVec
	runDuration      prometheus.Gauge
	lastRunSuccess   prometheus.Gauge
	lastRunTimestamp prometheus.Gauge
}

// NewMetrics returns metrics registered on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		resourcesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rabbitmq_provisioner",
				Name:      "resources_total",
				Help:      "Resources applied in the last run by phase, type and result",
			},
			[]string{"phase", "type", "result"},
		),
		resourceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "rabbitmq_provisioner",
				Name:      "resource_duration_seconds",
				Help:      "Time spent applying a resource",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
			},
			[]string{"type"},
		),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rabbitmq_provisioner",
			Name:      "run_duration_seconds",
			Help:      "Duration of the last run",
		}),
		lastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rabbitmq_provisioner",
			Name:      "last_run_success",
			Help:      "Whether the last run converged (1) or failed (0)",
		}),
		lastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rabbitmq_provisioner",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}
	m.registry.MustRegister(m.resourcesTotal, m.resourceDuration, m.runDuration, m.lastRunSuccess, m.lastRunTimestamp)
	return m
}

func (m *Metrics) recordResource(phase Phase, typ, result string, seconds float64) {
	m.resourcesTotal.WithLabelValues(string(phase), typ, result).Inc()
	m.resourceDuration.WithLabelValues(typ).Observe(seconds)
}

func (m *Metrics) recordRun(report *Report) {
	m.runDuration.Set(report.Duration.Seconds())
	m.lastRunTimestamp.Set(float64(report.Started.Add(report.Duration).Unix()))
	if report.Failed == "" {
		m.lastRunSuccess.Set(1)
	} else {
		m.lastRunSuccess.Set(0)
	}
}

// WriteTextfile writes the metrics in the Prometheus text format to path.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
