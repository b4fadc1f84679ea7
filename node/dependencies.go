package node

import (
	"log/slog"
	"time"

	"github.com/waikato/maiaflow/metric"
)

// DefaultTeardownTimeout bounds PostLoop when Dependencies leaves it unset.
const DefaultTeardownTimeout = 5 * time.Second

// Dependencies provides the runtime services a node is constructed with.
type Dependencies struct {
	Logger          *slog.Logger            // Structured logger (can be nil, defaults to slog.Default())
	MetricsRegistry *metric.MetricsRegistry // Metrics registry for Prometheus (can be nil)
	TeardownTimeout time.Duration           // Bound on PostLoop (zero means DefaultTeardownTimeout)
	DefaultBuffer   int                     // Input channel capacity unless a port sets its own
}

// GetLogger returns the configured logger or a default logger if none is provided
func (d Dependencies) GetLogger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// GetLoggerWithNode returns a logger carrying the node name
func (d Dependencies) GetLoggerWithNode(name string) *slog.Logger {
	return d.GetLogger().With("node", name)
}

func (d Dependencies) teardownTimeout() time.Duration {
	if d.TeardownTimeout > 0 {
		return d.TeardownTimeout
	}
	return DefaultTeardownTimeout
}
