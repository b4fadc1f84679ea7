package csvsource

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/waikato/maiaflow/dataset"
	"github.com/waikato/maiaflow/errors"
	"github.com/waikato/maiaflow/node"
	"github.com/waikato/maiaflow/port"
)

// FactoryName is the node factory name
const FactoryName = "csv-source"

// Port names
const (
	SchemaPort = "schema"
	DataPort   = "data"
)

// Config holds configuration for the CSV source
type Config struct {
	Path    string `json:"path"`
	Target  string `json:"target,omitempty"`
	OneShot bool   `json:"one_shot,omitempty"`
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Path == "" {
		return errors.WrapInvalid(fmt.Errorf("%w: path is required", errors.ErrMissingConfig),
			"CSVSourceConfig", "Validate", "path check")
	}
	return nil
}

const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "path": {"type": "string", "minLength": 1, "description": "CSV file to read"},
    "target": {"type": "string", "description": "Name of the target column"},
    "one_shot": {"type": "boolean", "description": "Push a single-pass stream instead of a batch"}
  },
  "required": ["path"],
  "additionalProperties": false
}`

// Node is the CSV source.
type Node struct {
	*node.Base

	config    Config
	schemaOut *port.Output[dataset.Schema]
	dataOut   *port.Output[dataset.Stream]

	table *dataset.Table
}

// New creates a CSV source. The file is read when the node starts.
func New(name string, cfg Config, deps node.Dependencies) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := node.NewBase(name, node.Metadata{
		Type:        FactoryName,
		Description: "Reads a CSV file into a dataset",
		Version:     "1.0.0",
	}, deps)
	return &Node{
		Base:      b,
		config:    cfg,
		schemaOut: node.NewOutput[dataset.Schema](b, SchemaPort, port.WithDescription("Schema of the file")),
		dataOut:   node.NewOutput[dataset.Stream](b, DataPort, port.WithDescription("Rows of the file")),
	}, nil
}

// PreLoop reads the file.
func (n *Node) PreLoop(context.Context) error {
	f, err := os.Open(n.config.Path)
	if err != nil {
		return errors.Wrap(err, "CSVSource", "PreLoop", "open file")
	}
	defer f.Close()

	table, err := dataset.ReadCSV(f, n.config.Target)
	if err != nil {
		return errors.Wrap(err, "CSVSource", "PreLoop", fmt.Sprintf("read %s", n.config.Path))
	}
	n.table = table
	n.Logger().Info("dataset loaded", "path", n.config.Path, "rows", table.Len(), "schema", table.Schema().String())
	return nil
}

// LoopCondition holds while either output has a consumer.
func (n *Node) LoopCondition() bool {
	return !port.AllClosed(n.schemaOut, n.dataOut)
}

// MainLoopInner pushes the schema and the data once, then stops.
func (n *Node) MainLoopInner(ctx context.Context) (node.Step, error) {
	n.Stop()

	if err := pushOpen(ctx, n.schemaOut, n.table.Schema()); err != nil {
		return node.Continue, err
	}

	var data dataset.Stream = n.table
	if n.config.OneShot {
		data = dataset.NewStream(n.table.Schema(), n.table.Rows())
	}
	if err := pushOpen(ctx, n.dataOut, data); err != nil {
		return node.Continue, err
	}
	return node.Continue, nil
}

// PostLoop has nothing to tear down.
func (n *Node) PostLoop(context.Context) error { return nil }

// pushOpen pushes v, treating an output without consumers as done.
func pushOpen[T any](ctx context.Context, out *port.Output[T], v T) error {
	if err := out.Push(ctx, v); err != nil && !stderrors.Is(err, errors.ErrPortClosed) {
		return err
	}
	return nil
}
