package learner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/waikato/maiaflow/errors"
)

// Factory creates learners from a configuration fixed at construction.
type Factory interface {
	Name() string
	Create() (Learner, error)
}

// Constructor builds a Factory from a learner configuration. Rejecting the
// configuration is a configuration error.
type Constructor func(rawConfig json.RawMessage) (Factory, error)

// Registry maps factory names to constructors. It is safe for concurrent use.
type Registry struct {
	constructors map[string]Constructor
	mu           sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// DefaultRegistry returns a registry holding the built-in learners.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(MajorityName, NewMajorityFactory)
	_ = r.Register(IncrementalMajorityName, NewIncrementalMajorityFactory)
	return r
}

// Register adds a constructor under name.
func (r *Registry) Register(name string, c Constructor) error {
	if name == "" || c == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "LearnerRegistry", "Register", "constructor validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.constructors[name]; exists {
		return errors.WrapInvalid(fmt.Errorf("learner factory '%s' is already registered", name),
			"LearnerRegistry", "Register", "duplicate factory check")
	}
	r.constructors[name] = c
	return nil
}

// Factory builds the named factory from rawConfig. Unknown names and rejected
// configurations are configuration errors.
func (r *Registry) Factory(name string, rawConfig json.RawMessage) (Factory, error) {
	r.mu.RLock()
	c, ok := r.constructors[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: learner factory '%s'", errors.ErrUnknownFactory, name),
			"LearnerRegistry", "Factory", "factory lookup")
	}

	f, err := c(rawConfig)
	if err != nil {
		if errors.IsInvalid(err) {
			return nil, errors.Wrap(err, "LearnerRegistry", "Factory", fmt.Sprintf("configure %q", name))
		}
		return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
			"LearnerRegistry", "Factory", fmt.Sprintf("configure %q", name))
	}
	return f, nil
}

// Names returns the registered factory names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// decodeStrict unmarshals a learner configuration, rejecting unknown fields so
// a configuration meant for a different learner is caught at construction.
func decodeStrict(rawConfig json.RawMessage, v any, component string) error {
	if len(bytes.TrimSpace(rawConfig)) == 0 || string(bytes.TrimSpace(rawConfig)) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(rawConfig))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
			component, "decode", "learner config")
	}
	return nil
}
