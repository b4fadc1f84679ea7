package collect

import (
	"encoding/json"

	"github.com/waikato/maiaflow/errors"
	"github.com/waikato/maiaflow/node"
)

// Registration returns the node registration
func Registration() *node.Registration {
	return &node.Registration{
		Name:        FactoryName,
		Description: "Logs and retains the values it receives",
		Version:     "1.0.0",
		Schema:      json.RawMessage(configSchema),
		Factory: func(name string, rawConfig json.RawMessage, deps node.Dependencies) (node.Node, error) {
			cfg := DefaultConfig()
			if err := node.SafeUnmarshal(rawConfig, &cfg); err != nil {
				return nil, errors.Wrap(err, "collect-factory", "create", "config parsing")
			}
			return New(name, cfg, deps)
		},
	}
}

// Register registers the collect sink with the registry
func Register(registry *node.Registry) error {
	return registry.RegisterFactory(Registration())
}
