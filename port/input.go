package port

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/waikato/maiaflow/errors"
)

// Input is the receiving end of a connection. Only the owning node pulls from it.
type Input[T any] struct {
	name string
	opts options

	ch        chan T
	done      chan struct{} // closed by the consumer
	upClosed  chan struct{} // closed when the upstream output closes
	connected atomic.Bool

	closeOnce sync.Once
	upOnce    sync.Once
	stats     counters
}

// NewInput creates an unconnected input. An unconnected input reads as closed.
func NewInput[T any](name string, opts ...Option) *Input[T] {
	o := applyOptions(opts)
	return &Input[T]{
		name:     name,
		opts:     o,
		ch:       make(chan T, o.buffer),
		done:     make(chan struct{}),
		upClosed: make(chan struct{}),
	}
}

// Name returns the port name.
func (in *Input[T]) Name() string { return in.name }

// Info describes the input.
func (in *Input[T]) Info() Info {
	return Info{
		Name:        in.name,
		Direction:   DirectionInput,
		Type:        typeName(in.elemType()),
		Description: in.opts.description,
		Required:    in.opts.required,
		Connected:   in.connected.Load(),
		Buffer:      in.opts.buffer,
		Closed:      in.IsClosed(),
	}
}

// Stats returns delivery counters. Pushed counts values accepted into the
// channel and Pulled counts values handed to the consumer.
func (in *Input[T]) Stats() Stats { return in.stats.snapshot() }

// IsClosed reports whether nothing more can be pulled: the consumer closed the
// input, it was never connected, or its upstream closed and nothing is pending.
func (in *Input[T]) IsClosed() bool {
	select {
	case <-in.done:
		return true
	default:
	}
	if !in.connected.Load() {
		return true
	}
	select {
	case <-in.upClosed:
		return len(in.ch) == 0
	default:
		return false
	}
}

// Close closes the input from the consumer side. Pending values are discarded
// and a producer blocked pushing to this input is released. Idempotent.
func (in *Input[T]) Close() {
	in.closeOnce.Do(func() {
		close(in.done)
		for {
			select {
			case _, ok := <-in.ch:
				if !ok {
					return
				}
			default:
				return
			}
		}
	})
}

// PullOrAbort waits for the next value. It returns the value and true, or the
// zero value and false when the input is closed with nothing pending. The error
// is non-nil only when ctx ends first.
func (in *Input[T]) PullOrAbort(ctx context.Context) (T, bool, error) {
	var zero T
	if !in.connected.Load() {
		return zero, false, nil
	}
	select {
	case <-in.done:
		return zero, false, nil
	default:
	}

	select {
	case v, ok := <-in.ch:
		if !ok {
			return zero, false, nil
		}
		in.stats.pulled.Add(1)
		return v, true, nil
	case <-in.done:
		return zero, false, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (in *Input[T]) elemType() reflect.Type {
	return reflect.TypeFor[T]()
}

func (in *Input[T]) attach() bool {
	return in.connected.CompareAndSwap(false, true)
}

func (in *Input[T]) consumerClosed() bool {
	select {
	case <-in.done:
		return true
	default:
		return false
	}
}

// offer hands v to the consumer. It reports false without error when the
// consumer has closed the input, and fails when the producer side closes or
// the push is cancelled.
func (in *Input[T]) offer(ctx context.Context, v any, closing <-chan struct{}) (bool, error) {
	val, err := in.convert(v)
	if err != nil {
		return false, err
	}
	if in.consumerClosed() {
		return false, nil
	}

	select {
	case in.ch <- val:
		in.stats.pushed.Add(1)
		return true, nil
	case <-in.done:
		return false, nil
	case <-closing:
		return false, errors.ErrPortClosed
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (in *Input[T]) convert(v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	if val, ok := v.(T); ok {
		return val, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(in.elemType()) {
		return rv.Convert(in.elemType()).Interface().(T), nil
	}
	return zero, typeMismatch("Input", "offer", rv.Type(), in.elemType(), in.name)
}

// closeUpstream is called by the connected output when it closes. No send is in
// flight: the output holds its write lock.
func (in *Input[T]) closeUpstream() {
	in.upOnce.Do(func() {
		close(in.upClosed)
		close(in.ch)
	})
}

func (in *Input[T]) chanValue() reflect.Value {
	return reflect.ValueOf(in.ch)
}
