package node

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/waikato/maiaflow/metric"
	"github.com/waikato/maiaflow/port"
)

// Loop is the contract a concrete node implements. Run drives it.
type Loop interface {
	// PreLoop runs once per activation before looping.
	PreLoop(ctx context.Context) error
	// LoopCondition is evaluated before every iteration. It must not have side effects.
	LoopCondition() bool
	// MainLoopInner runs one iteration of the loop body.
	MainLoopInner(ctx context.Context) (Step, error)
	// PostLoop runs exactly once per activation unless the activation failed.
	PostLoop(ctx context.Context) error
}

// Node is a runnable node. Concrete nodes satisfy it by embedding *Base and
// implementing Loop.
type Node interface {
	Loop

	Name() string
	Meta() Metadata
	State() State
	Inputs() []port.Inlet
	Outputs() []port.Outlet

	base() *Base
}

// Metadata describes the kind of node
type Metadata struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
}

// Base carries the state every node shares: identity, declared ports, logging,
// metrics and the lifecycle flags Run uses.
type Base struct {
	name     string
	meta     Metadata
	logger   *slog.Logger
	registry *metric.MetricsRegistry
	metrics  *metric.Metrics

	teardownTimeout time.Duration
	defaultBuffer   int

	inputs  []port.Inlet
	outputs []port.Outlet

	state       atomic.Int32
	running     atomic.Bool
	stopped     atomic.Bool
	activations atomic.Int64
	iterations  atomic.Int64

	teardownOnce *sync.Once
	selector     port.Selector
}

// NewBase creates the shared node state.
func NewBase(name string, meta Metadata, deps Dependencies) *Base {
	return &Base{
		name:            name,
		meta:            meta,
		logger:          deps.GetLoggerWithNode(name),
		registry:        deps.MetricsRegistry,
		metrics:         deps.MetricsRegistry.CoreMetrics(),
		teardownTimeout: deps.teardownTimeout(),
		defaultBuffer:   deps.DefaultBuffer,
	}
}

func (b *Base) base() *Base { return b }

// Name returns the node instance name.
func (b *Base) Name() string { return b.name }

// Meta returns the node metadata.
func (b *Base) Meta() Metadata { return b.meta }

// Logger returns the node logger.
func (b *Base) Logger() *slog.Logger { return b.logger }

// Metrics returns the registry the node was built with, possibly nil.
func (b *Base) Metrics() *metric.MetricsRegistry { return b.registry }

// State returns the current lifecycle state.
func (b *Base) State() State { return State(b.state.Load()) }

// Inputs returns the declared inputs in declaration order.
func (b *Base) Inputs() []port.Inlet { return b.inputs }

// Outputs returns the declared outputs in declaration order.
func (b *Base) Outputs() []port.Outlet { return b.outputs }

// Iterations returns the number of loop body invocations across all activations.
func (b *Base) Iterations() int64 { return b.iterations.Load() }

// Stop ends looping after the current iteration. It is equivalent to the loop
// condition becoming false and is reset at the start of every activation.
func (b *Base) Stop() { b.stopped.Store(true) }

// Stopped reports whether Stop was called during the current activation.
func (b *Base) Stopped() bool { return b.stopped.Load() }

// Select runs one multiplexed receive over cases and records the time spent.
func (b *Base) Select(ctx context.Context, cases ...port.Case) (port.Result, error) {
	start := time.Now()
	res, err := b.selector.SelectOrAbort(ctx, cases...)
	b.metrics.RecordSelectWait(b.name, time.Since(start))
	return res, err
}

func (b *Base) setState(s State) {
	b.state.Store(int32(s))
	b.metrics.RecordNodeState(b.name, int(s))
}

func (b *Base) closePorts() {
	for _, in := range b.inputs {
		in.Close()
	}
	for _, out := range b.outputs {
		out.Close()
	}
}

func (b *Base) checkPortName(name string) {
	for _, in := range b.inputs {
		if in.Name() == name {
			panic(fmt.Sprintf("node %q: duplicate port name %q", b.name, name))
		}
	}
	for _, out := range b.outputs {
		if out.Name() == name {
			panic(fmt.Sprintf("node %q: duplicate port name %q", b.name, name))
		}
	}
}

// registerPortCounter exports a port's delivery count as a CounterFunc.
func (b *Base) registerPortCounter(p port.Port, direction port.Direction, value func(port.Stats) int64) {
	if b.registry == nil {
		return
	}
	counter := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "maiaflow",
		Subsystem: "port",
		Name:      "values_total",
		Help:      "Values delivered through a port",
		ConstLabels: prometheus.Labels{
			"node":      b.name,
			"port":      p.Name(),
			"direction": string(direction),
		},
	}, func() float64 { return float64(value(p.Stats())) })

	if err := b.registry.RegisterCollector(b.name, "port_"+string(direction)+"_"+p.Name(), counter); err != nil {
		b.logger.Warn("port metrics not registered", "port", p.Name(), "error", err)
	}
}

// NewInput declares an input on b. Port names are unique within a node.
func NewInput[T any](b *Base, name string, opts ...port.Option) *port.Input[T] {
	b.checkPortName(name)
	opts = append([]port.Option{port.WithBuffer(b.defaultBuffer)}, opts...)
	in := port.NewInput[T](name, opts...)
	b.inputs = append(b.inputs, in)
	b.registerPortCounter(in, port.DirectionInput, func(s port.Stats) int64 { return s.Pulled })
	return in
}

// NewOutput declares an output on b. Port names are unique within a node.
func NewOutput[T any](b *Base, name string, opts ...port.Option) *port.Output[T] {
	b.checkPortName(name)
	out := port.NewOutput[T](name, opts...)
	b.outputs = append(b.outputs, out)
	b.registerPortCounter(out, port.DirectionOutput, func(s port.Stats) int64 { return s.Pushed })
	return out
}

// FindInput returns the input of n with the given name.
func FindInput(n Node, name string) (port.Inlet, bool) {
	for _, in := range n.Inputs() {
		if in.Name() == name {
			return in, true
		}
	}
	return nil, false
}

// FindOutput returns the output of n with the given name.
func FindOutput(n Node, name string) (port.Outlet, bool) {
	for _, out := range n.Outputs() {
		if out.Name() == name {
			return out, true
		}
	}
	return nil, false
}
