package topology

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/waikato/maiaflow/config"
	"github.com/waikato/maiaflow/errors"
	"github.com/waikato/maiaflow/metric"
	"github.com/waikato/maiaflow/node"
	"github.com/waikato/maiaflow/port"
)

// PortRef references a specific port on a node
type PortRef struct {
	Node string `json:"node"`
	Port string `json:"port"`
}

// Ref builds a PortRef.
func Ref(nodeName, portName string) PortRef {
	return PortRef{Node: nodeName, Port: portName}
}

// ParseRef parses a "node.port" reference.
func ParseRef(s string) (PortRef, error) {
	nodeName, portName, err := config.SplitRef(s)
	if err != nil {
		return PortRef{}, err
	}
	return PortRef{Node: nodeName, Port: portName}, nil
}

// String returns the "node.port" form.
func (r PortRef) String() string {
	return r.Node + "." + r.Port
}

// Edge is one wired connection.
type Edge struct {
	From PortRef `json:"from"`
	To   PortRef `json:"to"`
	Type string  `json:"type"`
}

// Option configures a Topology.
type Option func(*Topology)

// WithLogger sets the logger used for run logs.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Topology) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithMetrics records run outcomes in registry.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(t *Topology) {
		t.metrics = registry.CoreMetrics()
	}
}

// Topology is a named graph of nodes.
type Topology struct {
	name    string
	logger  *slog.Logger
	metrics *metric.Metrics

	mu    sync.RWMutex
	nodes map[string]node.Node
	order []string
	edges []Edge

	running atomic.Bool
	started atomic.Bool
}

// New creates an empty topology.
func New(name string, opts ...Option) *Topology {
	t := &Topology{
		name:   name,
		logger: slog.Default(),
		nodes:  make(map[string]node.Node),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With("topology", name)
	return t
}

// Name returns the topology name.
func (t *Topology) Name() string { return t.name }

// Add adds a node. Names must be valid and unique.
func (t *Topology) Add(n node.Node) error {
	if n == nil {
		return errors.WrapInvalid(fmt.Errorf("%w: nil node", errors.ErrInvalidConfig), "Topology", "Add", "add node")
	}
	if t.started.Load() {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Topology", "Add", n.Name())
	}
	if err := node.ValidateName(n.Name()); err != nil {
		return errors.Wrap(err, "Topology", "Add", "validate name")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.nodes[n.Name()]; exists {
		return errors.WrapInvalid(fmt.Errorf("%w: %q", errors.ErrDuplicateNodeName, n.Name()),
			"Topology", "Add", "add node")
	}
	t.nodes[n.Name()] = n
	t.order = append(t.order, n.Name())
	return nil
}

// Connect wires the output at from to the input at to.
func (t *Topology) Connect(from, to PortRef) error {
	if t.started.Load() {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Topology", "Connect", from.String())
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	src, ok := t.nodes[from.Node]
	if !ok {
		return errors.WrapInvalid(fmt.Errorf("%w: %q", errors.ErrNodeNotFound, from.Node),
			"Topology", "Connect", from.String())
	}
	dst, ok := t.nodes[to.Node]
	if !ok {
		return errors.WrapInvalid(fmt.Errorf("%w: %q", errors.ErrNodeNotFound, to.Node),
			"Topology", "Connect", to.String())
	}

	out, ok := node.FindOutput(src, from.Port)
	if !ok {
		return errors.WrapInvalid(fmt.Errorf("%w: output %s", errors.ErrPortNotFound, from),
			"Topology", "Connect", from.String())
	}
	in, ok := node.FindInput(dst, to.Port)
	if !ok {
		return errors.WrapInvalid(fmt.Errorf("%w: input %s", errors.ErrPortNotFound, to),
			"Topology", "Connect", to.String())
	}

	if err := port.Connect(out, in); err != nil {
		return errors.Wrap(err, "Topology", "Connect", fmt.Sprintf("%s -> %s", from, to))
	}
	t.edges = append(t.edges, Edge{From: from, To: to, Type: out.Info().Type})
	return nil
}

// Node returns the named node.
func (t *Topology) Node(name string) (node.Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[name]
	return n, ok
}

// Nodes returns the nodes in the order they were added.
func (t *Topology) Nodes() []node.Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]node.Node, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.nodes[name])
	}
	return out
}

// Edges returns a copy of the wired connections.
func (t *Topology) Edges() []Edge {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Edge, len(t.edges))
	copy(out, t.edges)
	return out
}

// Validate fails when a required input has no upstream.
func (t *Topology) Validate() error {
	var missing []string
	for _, n := range t.Nodes() {
		for _, in := range n.Inputs() {
			info := in.Info()
			if info.Required && !info.Connected {
				missing = append(missing, Ref(n.Name(), info.Name).String())
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrRequiredUnwired, missing),
		"Topology", "Validate", "required inputs")
}

// Build creates every node in cfg through registry, wires the connections and
// validates the result. Runtime settings from cfg override those in deps.
func Build(cfg *config.Config, registry *node.Registry, deps node.Dependencies, opts ...Option) (*Topology, error) {
	if cfg == nil || registry == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Topology", "Build", "config and registry")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Runtime.TeardownTimeout > 0 {
		deps.TeardownTimeout = cfg.Runtime.TeardownTimeout.Std()
	}
	if cfg.Runtime.DefaultBuffer > 0 {
		deps.DefaultBuffer = cfg.Runtime.DefaultBuffer
	}

	opts = append([]Option{WithLogger(deps.Logger), WithMetrics(deps.MetricsRegistry)}, opts...)
	t := New(cfg.Name, opts...)

	for _, name := range cfg.NodeNames() {
		nc := cfg.Nodes[name]
		n, err := registry.Create(name, nc.Type, nc.Config, deps)
		if err != nil {
			return nil, errors.Wrap(err, "Topology", "Build", fmt.Sprintf("create node %q", name))
		}
		if err := t.Add(n); err != nil {
			return nil, err
		}
	}

	for _, conn := range cfg.Connections {
		from, err := ParseRef(conn.From)
		if err != nil {
			return nil, err
		}
		to, err := ParseRef(conn.To)
		if err != nil {
			return nil, err
		}
		if err := t.Connect(from, to); err != nil {
			return nil, err
		}
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
