package buffer

import (
	"sync/atomic"
	"time"
)

// Statistics tracks buffer activity. All methods are safe for concurrent use.
type Statistics struct {
	writes  atomic.Int64
	reads   atomic.Int64
	drops   atomic.Int64
	size    atomic.Int64
	maxSize atomic.Int64

	startTime time.Time
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{startTime: time.Now()}
}

func (s *Statistics) write(size int) {
	s.writes.Add(1)
	s.setSize(size)
}

func (s *Statistics) read(size int) {
	s.reads.Add(1)
	s.setSize(size)
}

func (s *Statistics) drop() {
	s.drops.Add(1)
}

func (s *Statistics) setSize(size int) {
	n := int64(size)
	s.size.Store(n)
	for {
		current := s.maxSize.Load()
		if n <= current || s.maxSize.CompareAndSwap(current, n) {
			return
		}
	}
}

// Writes returns the total number of accepted writes.
func (s *Statistics) Writes() int64 { return s.writes.Load() }

// Reads returns the total number of reads.
func (s *Statistics) Reads() int64 { return s.reads.Load() }

// Drops returns the total number of dropped items.
func (s *Statistics) Drops() int64 { return s.drops.Load() }

// CurrentSize returns the current number of items.
func (s *Statistics) CurrentSize() int64 { return s.size.Load() }

// MaxSize returns the most items the buffer has held.
func (s *Statistics) MaxSize() int64 { return s.maxSize.Load() }

// Throughput returns accepted writes per second since creation.
func (s *Statistics) Throughput() float64 {
	elapsed := time.Since(s.startTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.Writes()) / elapsed
}

// Summary returns the statistics as log attributes.
func (s *Statistics) Summary() []any {
	return []any{
		"writes", s.Writes(),
		"reads", s.Reads(),
		"drops", s.Drops(),
		"size", s.CurrentSize(),
		"max_size", s.MaxSize(),
	}
}
