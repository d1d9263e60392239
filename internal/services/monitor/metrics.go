package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	cycles    prometheus.Counter
	checks    prometheus.Counter
	malformed prometheus.Counter
	results   *prometheus.CounterVec
	alerts    prometheus.Counter
	errors    *prometheus.CounterVec
	rotations *prometheus.CounterVec
	latency   prometheus.Histogram
	cycleDur  prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		cycles: f.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_cycles_total", Help: "Probe cycles started",
		}),
		checks: f.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_checks_probed_total", Help: "Checks probed",
		}),
		malformed: f.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_checks_malformed_total", Help: "Check records rejected by validation",
		}),
		results: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_check_results_total", Help: "Computed check states",
		}, []string{"state"}),
		alerts: f.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_alerts_total", Help: "State transitions that warranted an alert",
		}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_errors_total", Help: "Pipeline errors by stage",
		}, []string{"stage"}),
		rotations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_log_rotations_total", Help: "Log rotations by result",
		}, []string{"result"}),
		latency: f.NewHistogram(prometheus.HistogramOpts{
			Name: "sentinel_probe_latency_seconds", Help: "Probe latency",
			Buckets: prometheus.DefBuckets,
		}),
		cycleDur: f.NewHistogram(prometheus.HistogramOpts{
			Name: "sentinel_cycle_duration_seconds", Help: "Probe cycle duration",
			Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 60},
		}),
	}
}
