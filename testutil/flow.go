package testutil

import (
	"encoding/json"
)

// TopologyBuilder is a helper for building topology documents programmatically.
type TopologyBuilder struct {
	name        string
	runtime     map[string]any
	nodes       map[string]map[string]any
	connections []map[string]string
}

// NewTopologyBuilder creates a new builder.
func NewTopologyBuilder(name string) *TopologyBuilder {
	return &TopologyBuilder{
		name:  name,
		nodes: make(map[string]map[string]any),
	}
}

// AddNode adds a node instance built by factory.
func (tb *TopologyBuilder) AddNode(name, factory string, config map[string]any) *TopologyBuilder {
	n := map[string]any{"type": factory}
	if config != nil {
		n["config"] = config
	}
	tb.nodes[name] = n
	return tb
}

// Connect wires two "node.port" references.
func (tb *TopologyBuilder) Connect(from, to string) *TopologyBuilder {
	tb.connections = append(tb.connections, map[string]string{"from": from, "to": to})
	return tb
}

// WithRuntime sets runtime settings such as "teardown_timeout".
func (tb *TopologyBuilder) WithRuntime(key string, value any) *TopologyBuilder {
	if tb.runtime == nil {
		tb.runtime = make(map[string]any)
	}
	tb.runtime[key] = value
	return tb
}

// Build returns the document as a map.
func (tb *TopologyBuilder) Build() map[string]any {
	nodes := make(map[string]any, len(tb.nodes))
	for name, n := range tb.nodes {
		nodes[name] = n
	}
	doc := map[string]any{
		"name":  tb.name,
		"nodes": nodes,
	}
	if len(tb.connections) > 0 {
		doc["connections"] = tb.connections
	}
	if tb.runtime != nil {
		doc["runtime"] = tb.runtime
	}
	return doc
}

// BuildJSON returns the document as JSON.
func (tb *TopologyBuilder) BuildJSON() ([]byte, error) {
	return json.Marshal(tb.Build())
}

// LearnerTopology returns a new-learner source feeding a learner node whose
// learner output is collected.
func LearnerTopology() *TopologyBuilder {
	return NewTopologyBuilder("learner-demo").
		AddNode("source", "new-learner", map[string]any{"factory": "majority"}).
		AddNode("learner", "learner-node", nil).
		AddNode("sink", "collect", nil).
		Connect("source.output", "learner.learner_input").
		Connect("learner.learner", "sink.input")
}
