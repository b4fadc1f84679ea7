// Package noderegistry registers the standard maiaflow node factories.
package noderegistry

import (
	"errors"

	pkgerrors "github.com/waikato/maiaflow/errors"
	csvsource "github.com/waikato/maiaflow/input/csv_source"
	newlearner "github.com/waikato/maiaflow/input/new_learner"
	"github.com/waikato/maiaflow/learner"
	"github.com/waikato/maiaflow/node"
	"github.com/waikato/maiaflow/output/collect"
	learnernode "github.com/waikato/maiaflow/processor/learner_node"
)

// Register registers every standard node factory with the provided registry:
//
// Sources:
//   - new-learner (creates learners from a learner factory)
//   - csv-source (reads a CSV file into a dataset)
//
// Processors:
//   - learner-node (owns the life-cycle of a learner)
//
// Sinks:
//   - collect (logs and retains values)
//
// learners resolves the learner factory names new-learner nodes refer to; nil
// means learner.DefaultRegistry.
func Register(registry *node.Registry, learners *learner.Registry) error {
	if registry == nil {
		return pkgerrors.WrapFatal(
			errors.New("registry cannot be nil"),
			"NodeRegistry", "Register", "registry validation")
	}
	if learners == nil {
		learners = learner.DefaultRegistry()
	}

	// Sources
	if err := newlearner.Register(registry, learners); err != nil {
		return pkgerrors.WrapInvalid(err, "NodeRegistry", "Register", "new-learner node registration")
	}
	if err := csvsource.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "NodeRegistry", "Register", "csv-source node registration")
	}

	// Processors
	if err := learnernode.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "NodeRegistry", "Register", "learner-node registration")
	}

	// Sinks
	if err := collect.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "NodeRegistry", "Register", "collect node registration")
	}

	return nil
}

// NewRegistry returns a node registry holding every standard factory.
func NewRegistry(learners *learner.Registry) (*node.Registry, error) {
	r := node.NewRegistry()
	if err := Register(r, learners); err != nil {
		return nil, err
	}
	return r, nil
}
