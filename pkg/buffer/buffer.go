// Package buffer provides a generic, thread-safe bounded ring buffer.
//
// The buffer never blocks: when it is full the overflow policy decides whether
// the oldest retained item or the incoming item is discarded. Backpressure
// between nodes belongs to ports; this buffer is for sinks and diagnostics that
// keep a bounded window of recent values.
//
// Statistics are always collected. Prometheus metrics are optional via WithMetrics.
package buffer

// Buffer represents a bounded buffer parameterized by item type T.
type Buffer[T any] interface {
	// Write adds an item, applying the overflow policy when full.
	Write(item T) error

	// Read retrieves and removes the oldest item.
	Read() (T, bool)

	// Values returns a snapshot of the retained items, oldest first.
	Values() []T

	Size() int
	Capacity() int
	Clear()

	// Stats returns buffer statistics.
	Stats() *Statistics

	// Close rejects further writes.
	Close() error
}

// OverflowPolicy defines how the buffer behaves when it reaches capacity.
type OverflowPolicy int

const (
	// DropOldest removes the oldest item to make room for new items.
	DropOldest OverflowPolicy = iota

	// DropNewest drops new items when the buffer is full.
	DropNewest
)

// String returns a human-readable representation of the overflow policy.
func (p OverflowPolicy) String() string {
	switch p {
	case DropOldest:
		return "DropOldest"
	case DropNewest:
		return "DropNewest"
	default:
		return "Unknown"
	}
}

// ParseOverflowPolicy maps a configuration string to a policy.
func ParseOverflowPolicy(s string) (OverflowPolicy, bool) {
	switch s {
	case "", "drop_oldest", "DropOldest":
		return DropOldest, true
	case "drop_newest", "DropNewest":
		return DropNewest, true
	default:
		return DropOldest, false
	}
}

// DropCallback is called with each item discarded by the overflow policy.
type DropCallback[T any] func(item T)

// NewRing creates a ring buffer with the given capacity. A capacity below one
// is raised to one. It fails only when metric registration fails.
func NewRing[T any](capacity int, options ...Option[T]) (Buffer[T], error) {
	return newRing(capacity, applyOptions(options...))
}
