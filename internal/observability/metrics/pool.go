package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PoolMetrics tracks recognition worker-pool utilization.
type PoolMetrics struct {
	busyWorkers  prometheus.Gauge
	waiters      prometheus.Gauge
	acquireWait  prometheus.Histogram
	recognitions *prometheus.CounterVec
}

func NewPoolMetrics(registry *prometheus.Registry) *PoolMetrics {
	busyWorkers := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ocr_pool",
		Name:      "busy_workers",
		Help:      "Recognition engines currently leased to a caller.",
	})
	waiters := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ocr_pool",
		Name:      "waiters",
		Help:      "Callers blocked waiting for an idle engine.",
	})
	acquireWait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "ocr_pool",
		Name:      "acquire_wait_seconds",
		Help:      "Time spent waiting for an idle engine.",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 60},
	})
	recognitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ocr_pool",
			Name:      "recognitions_total",
			Help:      "Total recognition calls by outcome.",
		},
		[]string{"status"},
	)

	if registry != nil {
		registry.MustRegister(busyWorkers, waiters, acquireWait, recognitions)
	}

	return &PoolMetrics{
		busyWorkers:  busyWorkers,
		waiters:      waiters,
		acquireWait:  acquireWait,
		recognitions: recognitions,
	}
}

func (m *PoolMetrics) WaiterEnqueued() { m.waiters.Inc() }
func (m *PoolMetrics) WaiterDequeued() { m.waiters.Dec() }
func (m *PoolMetrics) WorkerBusy()     { m.busyWorkers.Inc() }
func (m *PoolMetrics) WorkerIdle()     { m.busyWorkers.Dec() }

func (m *PoolMetrics) ObserveAcquireWait(wait time.Duration) {
	m.acquireWait.Observe(wait.Seconds())
}

func (m *PoolMetrics) RecognitionDone(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.recognitions.WithLabelValues(status).Inc()
}
