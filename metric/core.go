package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the runtime-level metrics shared by every node
type Metrics struct {
	// Node lifecycle
	NodeState      *prometheus.GaugeVec
	NodeIterations *prometheus.CounterVec
	NodeFailures   *prometheus.CounterVec
	SelectWait     *prometheus.HistogramVec
	TeardownTime   *prometheus.HistogramVec

	// Topology
	TopologyRuns   *prometheus.CounterVec
	NodesRunning   prometheus.Gauge
	ConfigsLoaded  prometheus.Counter
	ConfigFailures prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all runtime metrics
func NewMetrics() *Metrics {
	return &Metrics{
		NodeState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "maiaflow",
				Subsystem: "node",
				Name:      "state",
				Help:      "Node lifecycle state (0=not_started, 1=pre_loop, 2=looping, 3=post_loop, 4=terminated, 5=failed)",
			},
			[]string{"node"},
		),

		NodeIterations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "maiaflow",
				Subsystem: "node",
				Name:      "iterations_total",
				Help:      "Total number of loop body invocations",
			},
			[]string{"node"},
		),

		NodeFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "maiaflow",
				Subsystem: "node",
				Name:      "failures_total",
				Help:      "Total number of node activations that ended in failure",
			},
			[]string{"node", "class"},
		),

		SelectWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "maiaflow",
				Subsystem: "node",
				Name:      "select_wait_seconds",
				Help:      "Time spent suspended in a multiplexed receive",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"node"},
		),

		TeardownTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "maiaflow",
				Subsystem: "node",
				Name:      "teardown_seconds",
				Help:      "Duration of post-loop teardown",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"node"},
		),

		TopologyRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "maiaflow",
				Subsystem: "topology",
				Name:      "runs_total",
				Help:      "Total number of topology runs by outcome",
			},
			[]string{"topology", "status"},
		),

		NodesRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "maiaflow",
				Subsystem: "topology",
				Name:      "nodes_running",
				Help:      "Number of node tasks currently running",
			},
		),

		ConfigsLoaded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "maiaflow",
				Subsystem: "config",
				Name:      "loaded_total",
				Help:      "Total number of topology documents loaded",
			},
		),

		ConfigFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "maiaflow",
				Subsystem: "config",
				Name:      "failures_total",
				Help:      "Total number of topology documents rejected",
			},
		),
	}
}

func (c *Metrics) register(reg prometheus.Registerer) {
	reg.MustRegister(
		c.NodeState,
		c.NodeIterations,
		c.NodeFailures,
		c.SelectWait,
		c.TeardownTime,
		c.TopologyRuns,
		c.NodesRunning,
		c.ConfigsLoaded,
		c.ConfigFailures,
	)
}

// The record methods are nil-safe so nodes built without a registry skip them.

// RecordNodeState updates the lifecycle state gauge
func (c *Metrics) RecordNodeState(node string, state int) {
	if c == nil {
		return
	}
	c.NodeState.WithLabelValues(node).Set(float64(state))
}

// RecordIteration increments the loop body counter
func (c *Metrics) RecordIteration(node string) {
	if c == nil {
		return
	}
	c.NodeIterations.WithLabelValues(node).Inc()
}

// RecordFailure increments the failure counter for an error class
func (c *Metrics) RecordFailure(node, class string) {
	if c == nil {
		return
	}
	c.NodeFailures.WithLabelValues(node, class).Inc()
}

// RecordSelectWait records time spent waiting in a select
func (c *Metrics) RecordSelectWait(node string, d time.Duration) {
	if c == nil {
		return
	}
	c.SelectWait.WithLabelValues(node).Observe(d.Seconds())
}

// RecordTeardown records post-loop duration
func (c *Metrics) RecordTeardown(node string, d time.Duration) {
	if c == nil {
		return
	}
	c.TeardownTime.WithLabelValues(node).Observe(d.Seconds())
}

// RecordTopologyRun counts a finished topology run
func (c *Metrics) RecordTopologyRun(topology, status string) {
	if c == nil {
		return
	}
	c.TopologyRuns.WithLabelValues(topology, status).Inc()
}

// NodeStarted increments the running-node gauge
func (c *Metrics) NodeStarted() {
	if c == nil {
		return
	}
	c.NodesRunning.Inc()
}

// NodeStopped decrements the running-node gauge
func (c *Metrics) NodeStopped() {
	if c == nil {
		return
	}
	c.NodesRunning.Dec()
}

// RecordConfigLoad counts a loaded or rejected topology document
func (c *Metrics) RecordConfigLoad(ok bool) {
	if c == nil {
		return
	}
	if ok {
		c.ConfigsLoaded.Inc()
		return
	}
	c.ConfigFailures.Inc()
}
