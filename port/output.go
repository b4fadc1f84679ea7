package port

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/waikato/maiaflow/errors"
)

// Output is the sending end of one or more connections. Values pushed to an
// output are broadcast to every open connected input in connection order.
type Output[T any] struct {
	name string
	opts options

	mu        sync.RWMutex // held for reading while pushing, for writing while closing or wiring
	peers     []Inlet
	closing   chan struct{}
	closeOnce sync.Once
	stats     counters
}

// NewOutput creates an unconnected output. An unconnected output reads as closed.
func NewOutput[T any](name string, opts ...Option) *Output[T] {
	return &Output[T]{
		name:    name,
		opts:    applyOptions(opts),
		closing: make(chan struct{}),
	}
}

// Name returns the port name.
func (o *Output[T]) Name() string { return o.name }

// Info describes the output.
func (o *Output[T]) Info() Info {
	o.mu.RLock()
	connected := len(o.peers) > 0
	o.mu.RUnlock()

	return Info{
		Name:        o.name,
		Direction:   DirectionOutput,
		Type:        typeName(reflect.TypeFor[T]()),
		Description: o.opts.description,
		Required:    o.opts.required,
		Connected:   connected,
		Closed:      o.IsClosed(),
	}
}

// Stats returns delivery counters. Pushed counts values delivered to at least one consumer.
func (o *Output[T]) Stats() Stats { return o.stats.snapshot() }

// IsClosed reports whether pushing can no longer deliver: the output was
// closed, it has no connections, or every connected consumer closed its input.
func (o *Output[T]) IsClosed() bool {
	if o.closed() {
		return true
	}

	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, p := range o.peers {
		if !p.consumerClosed() {
			return false
		}
	}
	return true
}

func (o *Output[T]) closed() bool {
	select {
	case <-o.closing:
		return true
	default:
		return false
	}
}

// Push delivers v to every open connected input, suspending under
// backpressure. It fails with ErrPortClosed when the output is closed or no
// consumer accepted the value, and with the context error when ctx ends first.
func (o *Output[T]) Push(ctx context.Context, v T) error {
	if o.closed() {
		return errors.Wrap(errors.ErrPortClosed, "Output", "Push", fmt.Sprintf("push to %q", o.name))
	}

	o.mu.RLock()
	defer o.mu.RUnlock()

	// Close may have completed between the check above and taking the lock.
	if o.closed() {
		return errors.Wrap(errors.ErrPortClosed, "Output", "Push", fmt.Sprintf("push to %q", o.name))
	}

	delivered := false
	for _, p := range o.peers {
		ok, err := p.offer(ctx, v, o.closing)
		if err != nil {
			return errors.Wrap(err, "Output", "Push", fmt.Sprintf("push to %q", o.name))
		}
		delivered = delivered || ok
	}
	if !delivered {
		return errors.Wrap(errors.ErrPortClosed, "Output", "Push",
			fmt.Sprintf("push to %q: no open consumer", o.name))
	}

	o.stats.pushed.Add(1)
	return nil
}

// Close closes the output. Connected inputs keep their pending values and read
// as closed once drained. Pushes blocked on this output are released with
// ErrPortClosed. Idempotent.
func (o *Output[T]) Close() {
	o.closeOnce.Do(func() {
		close(o.closing)

		o.mu.Lock()
		defer o.mu.Unlock()
		for _, p := range o.peers {
			p.closeUpstream()
		}
	})
}

// ConnectTo wires this output to in.
func (o *Output[T]) ConnectTo(in Inlet) error {
	have := reflect.TypeFor[T]()
	if !have.AssignableTo(in.elemType()) {
		return typeMismatch("Output", "ConnectTo", have, in.elemType(),
			fmt.Sprintf("%s -> %s", o.name, in.Name()))
	}
	if !in.attach() {
		return errors.WrapInvalid(errors.ErrAlreadyConnected, "Output", "ConnectTo",
			fmt.Sprintf("connect %s -> %s", o.name, in.Name()))
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.peers = append(o.peers, in)
	if o.closed() {
		in.closeUpstream()
	}
	return nil
}

func typeMismatch(component, method string, have, want reflect.Type, what string) error {
	return errors.WrapInvalid(
		fmt.Errorf("%w: %s is not assignable to %s", errors.ErrPortTypeMismatch, typeName(have), typeName(want)),
		component, method, what)
}
