package learnernode

import (
	"encoding/json"

	"github.com/waikato/maiaflow/errors"
	"github.com/waikato/maiaflow/node"
)

// The learner node takes no configuration.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false
}`

// Registration returns the node registration
func Registration() *node.Registration {
	return &node.Registration{
		Name:        FactoryName,
		Description: "Handles the life-cycle of a learner",
		Version:     "1.0.0",
		Schema:      json.RawMessage(configSchema),
		Factory: func(name string, rawConfig json.RawMessage, deps node.Dependencies) (node.Node, error) {
			if err := node.CheckConfig(rawConfig); err != nil {
				return nil, errors.Wrap(err, "learner-node-factory", "create", "config check")
			}
			return New(name, deps), nil
		},
	}
}

// Register registers the learner node with the registry
func Register(registry *node.Registry) error {
	return registry.RegisterFactory(Registration())
}
