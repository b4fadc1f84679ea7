package newlearner

import (
	"encoding/json"

	"github.com/waikato/maiaflow/errors"
	"github.com/waikato/maiaflow/learner"
	"github.com/waikato/maiaflow/node"
)

// Registration returns the node registration. learners resolves factory
// names; nil means learner.DefaultRegistry.
func Registration(learners *learner.Registry) *node.Registration {
	return &node.Registration{
		Name:        FactoryName,
		Description: "Creates instances of a learner from a configured factory",
		Version:     "1.0.0",
		Schema:      json.RawMessage(configSchema),
		Factory: func(name string, rawConfig json.RawMessage, deps node.Dependencies) (node.Node, error) {
			var cfg Config
			if err := node.SafeUnmarshal(rawConfig, &cfg); err != nil {
				return nil, errors.Wrap(err, "new-learner-factory", "create", "config parsing")
			}
			return New(name, cfg, learners, deps)
		},
	}
}

// Register registers the new-learner node with the registry
func Register(registry *node.Registry, learners *learner.Registry) error {
	return registry.RegisterFactory(Registration(learners))
}
