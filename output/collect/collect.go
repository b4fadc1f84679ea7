package collect

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/waikato/maiaflow/errors"
	"github.com/waikato/maiaflow/node"
	"github.com/waikato/maiaflow/pkg/buffer"
	"github.com/waikato/maiaflow/port"
)

// FactoryName is the node factory name
const FactoryName = "collect"

// InputPort receives the collected values
const InputPort = "input"

// Node is the collect sink.
type Node struct {
	*node.Base

	config Config
	input  *port.Input[any]
	recent buffer.Buffer[any]

	file   *os.File
	writer *bufio.Writer

	received atomic.Int64
	written  atomic.Int64
}

// New creates a collect sink.
func New(name string, cfg Config, deps node.Dependencies) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Capacity == 0 {
		cfg.Capacity = DefaultCapacity
	}
	policy, _ := buffer.ParseOverflowPolicy(cfg.Overflow)

	recent, err := buffer.NewRing[any](cfg.Capacity,
		buffer.WithOverflowPolicy[any](policy),
		buffer.WithMetrics[any](deps.MetricsRegistry, name))
	if err != nil {
		return nil, errors.Wrap(err, "Collect", "New", "create ring buffer")
	}

	b := node.NewBase(name, node.Metadata{
		Type:        FactoryName,
		Description: "Logs and retains the values it receives",
		Version:     "1.0.0",
	}, deps)
	return &Node{
		Base:   b,
		config: cfg,
		input:  node.NewInput[any](b, InputPort, port.WithDescription("Values to collect")),
		recent: recent,
	}, nil
}

// Values returns the retained values, oldest first.
func (n *Node) Values() []any { return n.recent.Values() }

// Received returns the number of values received across activations.
func (n *Node) Received() int64 { return n.received.Load() }

// Stats returns the ring buffer statistics.
func (n *Node) Stats() *buffer.Statistics { return n.recent.Stats() }

// PreLoop opens the output file, if any.
func (n *Node) PreLoop(context.Context) error {
	if n.config.Path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(n.config.Path), 0o755); err != nil {
		return errors.Wrap(err, "Collect", "PreLoop", "create output directory")
	}

	flags := os.O_CREATE | os.O_WRONLY
	if n.config.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(n.config.Path, flags, 0o644)
	if err != nil {
		return errors.Wrap(err, "Collect", "PreLoop", "open output file")
	}
	n.file = f
	n.writer = bufio.NewWriter(f)
	return nil
}

// LoopCondition holds until the input closes.
func (n *Node) LoopCondition() bool { return !n.input.IsClosed() }

// MainLoopInner collects one value. A failed or panicking iteration closes
// the output file, since Run skips PostLoop after it.
func (n *Node) MainLoopInner(ctx context.Context) (step node.Step, err error) {
	completed := false
	defer func() {
		if !completed || err != nil {
			_ = n.closeFile()
		}
	}()

	v, ok, err := n.input.PullOrAbort(ctx)
	if err != nil {
		return node.Continue, err
	}
	if !ok {
		completed = true
		return node.Abort, nil
	}

	count := n.received.Add(1)
	if n.config.LogValues {
		n.Logger().Info("value received", "n", count, "type", fmt.Sprintf("%T", v), "value", v)
	} else {
		n.Logger().Debug("value received", "n", count, "type", fmt.Sprintf("%T", v))
	}

	if err := n.recent.Write(v); err != nil {
		n.Logger().Warn("value not retained", "error", err)
	}
	if err := n.writeLine(v); err != nil {
		return node.Continue, err
	}
	completed = true
	return node.Continue, nil
}

// PostLoop flushes the output file and logs a summary.
func (n *Node) PostLoop(context.Context) error {
	err := n.closeFile()
	attrs := append([]any{"received", n.received.Load(), "written", n.written.Load()}, n.recent.Stats().Summary()...)
	n.Logger().Info("collection finished", attrs...)
	return err
}

func (n *Node) writeLine(v any) error {
	if n.writer == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		// not every payload is JSON-encodable; fall back to its printed form
		data, _ = json.Marshal(fmt.Sprint(v))
	}
	if _, err := n.writer.Write(append(data, '\n')); err != nil {
		return errors.Wrap(err, "Collect", "writeLine", "write value")
	}
	n.written.Add(1)
	return nil
}

func (n *Node) closeFile() error {
	if n.file == nil {
		return nil
	}
	flushErr := n.writer.Flush()
	closeErr := n.file.Close()
	n.file, n.writer = nil, nil
	if flushErr != nil {
		return errors.Wrap(flushErr, "Collect", "closeFile", "flush output file")
	}
	if closeErr != nil {
		return errors.Wrap(closeErr, "Collect", "closeFile", "close output file")
	}
	return nil
}
