// Package metric provides Prometheus-based metrics collection and an HTTP
// exposition server for the maiaflow runtime.
//
// # Architecture
//
// The package has three layers:
//
//  1. Core metrics: runtime-level metrics registered automatically (Metrics type).
//     Node state, loop iterations, failures by error class, select wait time,
//     teardown time and topology run outcomes.
//  2. Node registry: nodes register their own collectors through the
//     MetricsRegistrar interface, keyed by owner and metric name. Port delivery
//     counters are registered this way as CounterFuncs.
//  3. HTTP server: /metrics via promhttp, /health backed by a HealthFunc.
//
// # Basic Usage
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry, nil)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        slog.Error("metrics server stopped", "error", err)
//	    }
//	}()
//	defer server.Stop(context.Background())
//
//	registry.CoreMetrics().RecordIteration("learner")
//
// Every Record method on Metrics is nil-safe, so nodes built without a registry
// can call them unconditionally.
//
// # Registering node metrics
//
//	counter := prometheus.NewCounter(prometheus.CounterOpts{
//	    Namespace: "maiaflow",
//	    Subsystem: "collect",
//	    Name:      "values_total",
//	    Help:      "Values received by the sink",
//	    ConstLabels: prometheus.Labels{"node": name},
//	})
//	if err := registry.RegisterCounter(name, "values_total", counter); err != nil {
//	    return err
//	}
//
// Registering the same owner and metric name twice fails with an invalid-class
// error. UnregisterOwner removes all of a node's metrics at once.
package metric
