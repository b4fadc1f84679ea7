package node

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/waikato/maiaflow/errors"
)

// MaxNameLength bounds node and factory names
const MaxNameLength = 128

// Factory creates a node instance from its raw configuration. Factories parse
// and validate configuration and declare ports; they do no I/O.
type Factory func(name string, rawConfig json.RawMessage, deps Dependencies) (Node, error)

// Registration holds a factory and its metadata
type Registration struct {
	Name        string          `json:"name"`             // Factory name (e.g., "new-learner")
	Description string          `json:"description"`      // Human-readable description
	Version     string          `json:"version"`          // Factory version
	Schema      json.RawMessage `json:"schema,omitempty"` // JSON Schema for the node configuration
	Factory     Factory         `json:"-"`

	compiled *gojsonschema.Schema
}

// Registry maps factory names to registrations. It is safe for concurrent use.
type Registry struct {
	factories map[string]*Registration
	mu        sync.RWMutex
}

// NewRegistry creates a new empty registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]*Registration),
	}
}

// RegisterFactory registers a node factory. The schema, if any, is compiled now
// so a broken schema fails at registration rather than at first use.
func (r *Registry) RegisterFactory(registration *Registration) error {
	if registration == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterFactory", "registration validation")
	}
	if err := ValidateName(registration.Name); err != nil {
		return errors.Wrap(err, "Registry", "RegisterFactory", "factory name validation")
	}
	if registration.Factory == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterFactory", "factory function validation")
	}

	if len(registration.Schema) > 0 {
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(registration.Schema))
		if err != nil {
			return errors.WrapInvalid(err, "Registry", "RegisterFactory",
				fmt.Sprintf("compile schema for %q", registration.Name))
		}
		registration.compiled = compiled
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[registration.Name]; exists {
		msg := fmt.Errorf("factory '%s' is already registered", registration.Name)
		return errors.WrapInvalid(msg, "Registry", "RegisterFactory", "duplicate factory check")
	}

	r.factories[registration.Name] = registration
	return nil
}

// Lookup returns the registration for a factory name
func (r *Registry) Lookup(factory string) (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.factories[factory]
	return reg, ok
}

// Registrations returns all registrations sorted by name
func (r *Registry) Registrations() []*Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Registration, 0, len(r.factories))
	for _, reg := range r.factories {
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Create validates rawConfig against the factory's schema and builds the node.
// Every failure is classified invalid and happens before the node runs.
func (r *Registry) Create(instance, factory string, rawConfig json.RawMessage, deps Dependencies) (Node, error) {
	if err := ValidateName(instance); err != nil {
		return nil, errors.Wrap(err, "Registry", "Create", "instance name validation")
	}

	registration, ok := r.Lookup(factory)
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: '%s'", errors.ErrUnknownFactory, factory),
			"Registry", "Create", "factory lookup")
	}

	if len(rawConfig) == 0 {
		rawConfig = json.RawMessage("{}")
	}

	if err := registration.validate(rawConfig); err != nil {
		return nil, errors.Wrap(err, "Registry", "Create", fmt.Sprintf("config validation for %q", instance))
	}

	n, err := registration.Factory(instance, rawConfig, deps)
	if err != nil {
		if errors.IsInvalid(err) {
			return nil, errors.Wrap(err, "Registry", "Create", "factory execution")
		}
		return nil, errors.WrapInvalid(err, "Registry", "Create", "factory execution")
	}
	return n, nil
}

func (reg *Registration) validate(rawConfig json.RawMessage) error {
	if reg.compiled == nil {
		return nil
	}

	result, err := reg.compiled.Validate(gojsonschema.NewBytesLoader(rawConfig))
	if err != nil {
		return errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
			reg.Name, "validate", "parse config")
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return errors.WrapInvalid(
		fmt.Errorf("%w: %s", errors.ErrInvalidConfig, strings.Join(msgs, "; ")),
		reg.Name, "validate", "schema validation")
}

// ValidateName checks a node or factory name. Names are used in "node.port"
// references so dots are not allowed.
func ValidateName(name string) error {
	if name == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "ConfigValidator", "ValidateName", "empty name")
	}
	if len(name) > MaxNameLength {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "ConfigValidator", "ValidateName", "name too long")
	}
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_') {
			return errors.WrapInvalid(
				fmt.Errorf("%w: %q", errors.ErrInvalidConfig, name),
				"ConfigValidator", "ValidateName", "invalid name characters")
		}
	}
	return nil
}
