package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/waikato/maiaflow/errors"
	"github.com/waikato/maiaflow/node"
)

// Config is a topology document.
type Config struct {
	Name        string                `json:"name"`
	Version     string                `json:"version,omitempty"`
	Runtime     RuntimeConfig         `json:"runtime"`
	Nodes       map[string]NodeConfig `json:"nodes"`
	Connections []ConnectionConfig    `json:"connections,omitempty"`
}

// RuntimeConfig holds settings applied to every node.
type RuntimeConfig struct {
	TeardownTimeout Duration `json:"teardown_timeout,omitempty"` // Bound on each node's PostLoop
	DefaultBuffer   int      `json:"default_buffer,omitempty"`   // Input capacity unless a port sets its own
}

// NodeConfig is one node instance: the factory that builds it and the raw
// configuration handed to that factory.
type NodeConfig struct {
	Type   string          `json:"type"`
	Config json.RawMessage `json:"config,omitempty"`
}

// ConnectionConfig wires an output to an input, both as "node.port".
type ConnectionConfig struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Duration is a time.Duration written as a Go duration string ("5s") or a
// number of nanoseconds.
type Duration time.Duration

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", val, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(time.Duration(val))
	case nil:
		*d = 0
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
	return nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Validate checks names, factories and connection references.
func (c *Config) Validate() error {
	if c.Name != "" {
		if err := node.ValidateName(c.Name); err != nil {
			return errors.Wrap(err, "Config", "Validate", "topology name")
		}
	}
	if len(c.Nodes) == 0 {
		return errors.WrapInvalid(fmt.Errorf("%w: no nodes defined", errors.ErrMissingConfig),
			"Config", "Validate", "nodes check")
	}
	if c.Runtime.TeardownTimeout < 0 {
		return errors.WrapInvalid(fmt.Errorf("%w: runtime.teardown_timeout cannot be negative", errors.ErrInvalidConfig),
			"Config", "Validate", "runtime check")
	}
	if c.Runtime.DefaultBuffer < 0 {
		return errors.WrapInvalid(fmt.Errorf("%w: runtime.default_buffer cannot be negative", errors.ErrInvalidConfig),
			"Config", "Validate", "runtime check")
	}

	for _, name := range c.NodeNames() {
		if err := node.ValidateName(name); err != nil {
			return errors.Wrap(err, "Config", "Validate", fmt.Sprintf("node %q", name))
		}
		if c.Nodes[name].Type == "" {
			return errors.WrapInvalid(fmt.Errorf("%w: node %q has no type", errors.ErrMissingConfig, name),
				"Config", "Validate", "node type check")
		}
	}

	for i, conn := range c.Connections {
		for _, ref := range []string{conn.From, conn.To} {
			nodeName, _, err := SplitRef(ref)
			if err != nil {
				return errors.Wrap(err, "Config", "Validate", fmt.Sprintf("connection %d", i))
			}
			if _, ok := c.Nodes[nodeName]; !ok {
				return errors.WrapInvalid(fmt.Errorf("%w: %q in connection %d", errors.ErrNodeNotFound, nodeName, i),
					"Config", "Validate", "connection reference")
			}
		}
	}
	return nil
}

// NodeNames returns the node instance names, sorted.
func (c *Config) NodeNames() []string {
	names := make([]string, 0, len(c.Nodes))
	for name := range c.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// SplitRef splits a "node.port" reference.
func SplitRef(ref string) (nodeName, portName string, err error) {
	nodeName, portName, ok := strings.Cut(ref, ".")
	if !ok || nodeName == "" || portName == "" {
		return "", "", errors.WrapInvalid(
			fmt.Errorf("%w: reference %q is not node.port", errors.ErrInvalidConfig, ref),
			"Config", "SplitRef", "parse reference")
	}
	return nodeName, portName, nil
}
