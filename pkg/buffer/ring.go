package buffer

import (
	"sync"

	"github.com/waikato/maiaflow/errors"
)

type ring[T any] struct {
	mu       sync.RWMutex
	items    []T
	capacity int
	size     int
	head     int // next write position
	tail     int // next read position
	closed   bool

	stats   *Statistics
	metrics *bufferMetrics
	opts    *bufferOptions[T]
}

func newRing[T any](capacity int, opts *bufferOptions[T]) (*ring[T], error) {
	if capacity <= 0 {
		capacity = 1
	}

	var metrics *bufferMetrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newBufferMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.Wrap(err, "buffer", "NewRing", "metrics registration")
		}
	}

	return &ring[T]{
		items:    make([]T, capacity),
		capacity: capacity,
		stats:    NewStatistics(),
		metrics:  metrics,
		opts:     opts,
	}, nil
}

func (r *ring[T]) Write(item T) error {
	var (
		dropped    T
		hasDropped bool
	)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return errors.WrapInvalid(errors.ErrPortClosed, "Buffer", "Write", "buffer closed")
	}

	if r.size == r.capacity {
		r.stats.drop()
		r.metrics.recordDrop()

		if r.opts.overflowPolicy == DropNewest {
			r.mu.Unlock()
			if r.opts.dropCallback != nil {
				r.opts.dropCallback(item)
			}
			return nil
		}

		dropped, hasDropped = r.items[r.tail], true
		r.tail = (r.tail + 1) % r.capacity
		r.size--
	}

	r.items[r.head] = item
	r.head = (r.head + 1) % r.capacity
	r.size++

	r.stats.write(r.size)
	r.metrics.recordWrite(r.size, r.capacity)
	r.mu.Unlock()

	// Callbacks run outside the lock so they may touch the buffer.
	if hasDropped && r.opts.dropCallback != nil {
		r.opts.dropCallback(dropped)
	}
	return nil
}

func (r *ring[T]) Read() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	if r.size == 0 {
		return zero, false
	}

	item := r.items[r.tail]
	r.items[r.tail] = zero
	r.tail = (r.tail + 1) % r.capacity
	r.size--

	r.stats.read(r.size)
	r.metrics.recordRead(r.size, r.capacity)
	return item, true
}

func (r *ring[T]) Values() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.items[(r.tail+i)%r.capacity]
	}
	return out
}

func (r *ring[T]) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

func (r *ring[T]) Capacity() int {
	return r.capacity
}

func (r *ring[T]) Clear() {
	r.mu.Lock()
	var zero T
	for i := range r.items {
		r.items[i] = zero
	}
	r.head, r.tail, r.size = 0, 0, 0
	r.stats.setSize(0)
	if r.metrics != nil {
		r.metrics.setSize(0, r.capacity)
	}
	r.mu.Unlock()
}

func (r *ring[T]) Stats() *Statistics {
	return r.stats
}

func (r *ring[T]) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
