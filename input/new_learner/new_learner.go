package newlearner

import (
	"context"

	"github.com/waikato/maiaflow/errors"
	"github.com/waikato/maiaflow/learner"
	"github.com/waikato/maiaflow/node"
	"github.com/waikato/maiaflow/port"
)

// FactoryName is the node factory name
const FactoryName = "new-learner"

// OutputPort carries the created learners
const OutputPort = "output"

// Node is the new-learner source.
type Node struct {
	*node.Source[learner.Learner]

	config  Config
	factory learner.Factory

	// times counts productions across activations
	times int
}

// New builds a new-learner source. The learner factory is resolved and
// configured here so configuration errors surface before the node runs.
func New(name string, cfg Config, learners *learner.Registry, deps node.Dependencies) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if learners == nil {
		learners = learner.DefaultRegistry()
	}

	factory, err := learners.Factory(cfg.Factory, cfg.LearnerConfig)
	if err != nil {
		return nil, errors.Wrap(err, "NewLearner", "New", "learner factory construction")
	}

	b := node.NewBase(name, node.Metadata{
		Type:        FactoryName,
		Description: "Creates instances of a learner",
		Version:     "1.0.0",
	}, deps)

	n := &Node{config: cfg, factory: factory}
	n.Source = node.NewSource[learner.Learner](b, OutputPort, n,
		port.WithDescription("Learner instances created by the factory"))
	return n, nil
}

// Produce creates the next learner, stopping the node once the repeat bound is
// passed. The learner in hand is still pushed.
func (n *Node) Produce(context.Context) (learner.Learner, error) {
	if n.config.Repeat != nil {
		n.times++
		if n.times > *n.config.Repeat {
			n.Stop()
		}
	} else {
		n.Stop()
	}

	l, err := n.factory.Create()
	if err != nil {
		return nil, errors.WrapFatal(err, "NewLearner", "Produce", "create learner")
	}
	n.Logger().Debug("learner created", "factory", n.factory.Name(), "times", n.times)
	return l, nil
}

// Times returns how many productions have been counted against the repeat bound.
func (n *Node) Times() int { return n.times }
