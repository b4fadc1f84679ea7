package buffer

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/waikato/maiaflow/metric"
)

// bufferMetrics holds Prometheus metrics for buffer operations. A nil
// *bufferMetrics records nothing.
type bufferMetrics struct {
	writes prometheus.Counter
	reads  prometheus.Counter
	drops  prometheus.Counter
	size   prometheus.Gauge
	util   prometheus.Gauge
}

func newBufferMetrics(registry *metric.MetricsRegistry, prefix string) (*bufferMetrics, error) {
	labels := prometheus.Labels{"node": prefix}
	m := &bufferMetrics{
		writes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "maiaflow",
			Subsystem:   "buffer",
			Name:        "writes_total",
			ConstLabels: labels,
			Help:        "Total number of buffer writes",
		}),
		reads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "maiaflow",
			Subsystem:   "buffer",
			Name:        "reads_total",
			ConstLabels: labels,
			Help:        "Total number of buffer reads",
		}),
		drops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "maiaflow",
			Subsystem:   "buffer",
			Name:        "drops_total",
			ConstLabels: labels,
			Help:        "Total number of items dropped by the overflow policy",
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "maiaflow",
			Subsystem:   "buffer",
			Name:        "size",
			ConstLabels: labels,
			Help:        "Current number of items in buffer",
		}),
		util: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "maiaflow",
			Subsystem:   "buffer",
			Name:        "utilization",
			ConstLabels: labels,
			Help:        "Buffer utilization (0.0 to 1.0)",
		}),
	}

	if err := registry.RegisterCounter(prefix, "buffer_writes", m.writes); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "buffer_reads", m.reads); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "buffer_drops", m.drops); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(prefix, "buffer_size", m.size); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(prefix, "buffer_utilization", m.util); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *bufferMetrics) recordWrite(size, capacity int) {
	if m == nil {
		return
	}
	m.writes.Inc()
	m.setSize(size, capacity)
}

func (m *bufferMetrics) recordRead(size, capacity int) {
	if m == nil {
		return
	}
	m.reads.Inc()
	m.setSize(size, capacity)
}

func (m *bufferMetrics) recordDrop() {
	if m == nil {
		return
	}
	m.drops.Inc()
}

func (m *bufferMetrics) setSize(size, capacity int) {
	m.size.Set(float64(size))
	m.util.Set(float64(size) / float64(capacity))
}
