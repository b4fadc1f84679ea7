package port

import (
	"context"
	"reflect"
	"sync/atomic"
)

// Direction for data flow
type Direction string

// Direction constants for port data flow
const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

// Info describes a port for topology analysis and listings.
type Info struct {
	Name        string    `json:"name"`
	Direction   Direction `json:"direction"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Required    bool      `json:"required"`
	Connected   bool      `json:"connected"`
	Buffer      int       `json:"buffer,omitempty"`
	Closed      bool      `json:"closed"`
}

// Stats holds delivery counters for a port.
type Stats struct {
	Pushed int64 `json:"pushed"`
	Pulled int64 `json:"pulled"`
}

// Port is the behaviour shared by inputs and outputs regardless of element type.
type Port interface {
	Name() string
	Info() Info
	IsClosed() bool
	Close()
	Stats() Stats
}

// Inlet is the type-erased view of an Input. It is implemented only by *Input[T].
type Inlet interface {
	Port

	elemType() reflect.Type
	attach() bool
	offer(ctx context.Context, v any, closing <-chan struct{}) (bool, error)
	consumerClosed() bool
	closeUpstream()
}

// Outlet is the type-erased view of an Output. It is implemented only by *Output[T].
type Outlet interface {
	Port

	// ConnectTo wires this output to in. The output's element type must be
	// assignable to the input's and the input must not already have an upstream.
	ConnectTo(in Inlet) error
}

// Option configures a port.
type Option func(*options)

type options struct {
	description string
	required    bool
	buffer      int
}

// WithBuffer sets the input channel capacity. Zero, the default, is a
// rendezvous hand-off. It has no effect on outputs.
func WithBuffer(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.buffer = n
		}
	}
}

// WithDescription sets the human-readable description.
func WithDescription(desc string) Option {
	return func(o *options) {
		o.description = desc
	}
}

// Required marks the port as one that must be connected for the topology to validate.
func Required() Option {
	return func(o *options) {
		o.required = true
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

type counters struct {
	pushed atomic.Int64
	pulled atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{Pushed: c.pushed.Load(), Pulled: c.pulled.Load()}
}

// AllClosed reports whether every given output is closed. With no outputs it
// reports true.
func AllClosed(outlets ...Outlet) bool {
	for _, o := range outlets {
		if !o.IsClosed() {
			return false
		}
	}
	return true
}

// Connect wires out to in.
func Connect(out Outlet, in Inlet) error {
	return out.ConnectTo(in)
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
