package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector groups the process metrics exposed at /metrics. All methods are
// nil-safe so components can take it as an optional dependency.
type Collector struct {
	speedTestsTotal   *prometheus.CounterVec
	speedTestDuration prometheus.Histogram
	activeTargets     prometheus.Gauge
}

func NewCollector() *Collector {
	return &Collector{
		speedTestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "netmon_speed_tests_total",
			Help: "Completed speed test cycles by status",
		}, []string{"status"}),

		speedTestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "netmon_speed_test_duration_seconds",
			Help:    "Wall-clock duration of one measurement cycle",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),

		activeTargets: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "netmon_active_targets",
			Help: "Number of targets with an active monitoring schedule",
		}),
	}
}

func (c *Collector) ObserveTest(status string, d time.Duration) {
	if c == nil {
		return
	}
	c.speedTestsTotal.WithLabelValues(status).Inc()
	c.speedTestDuration.Observe(d.Seconds())
}

func (c *Collector) SetActiveTargets(n int) {
	if c == nil {
		return
	}
	c.activeTargets.Set(float64(n))
}
