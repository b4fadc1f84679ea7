package learnernode

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/waikato/maiaflow/dataset"
	"github.com/waikato/maiaflow/errors"
	"github.com/waikato/maiaflow/learner"
	"github.com/waikato/maiaflow/node"
	"github.com/waikato/maiaflow/port"
)

// FactoryName is the node factory name
const FactoryName = "learner-node"

// Port names
const (
	LearnerInputPort    = "learner_input"
	InitialisePort      = "initialise"
	TrainPort           = "train"
	PredictionInputPort = "prediction_input"
	PushLearnerPort     = "push_learner"
	LearnerOutputPort   = "learner"
	PredictionsPort     = "predictions"
)

// Prediction pairs an input row with the learner's prediction for it.
type Prediction struct {
	Row        dataset.Row `json:"row"`
	Prediction dataset.Row `json:"prediction"`
}

// Node handles the life-cycle of a learner.
type Node struct {
	*node.Base

	learnerInput    *port.Input[learner.Learner]
	initialise      *port.Input[dataset.Schema]
	train           *port.Input[dataset.Stream]
	predictionInput *port.Input[dataset.Stream]
	pushLearner     *port.Input[any]

	learnerOutput *port.Output[learner.Learner]
	predictions   *port.Output[Prediction]

	onLearner    port.Case
	onInitialise port.Case
	onTrain      port.Case
	onPredict    port.Case
	onPush       port.Case

	handle *learner.Handle
}

// New creates a learner node and declares its ports.
func New(name string, deps node.Dependencies) *Node {
	b := node.NewBase(name, node.Metadata{
		Type:        FactoryName,
		Description: "Handles the life-cycle of a learner",
		Version:     "1.0.0",
	}, deps)

	n := &Node{
		Base: b,
		learnerInput: node.NewInput[learner.Learner](b, LearnerInputPort, port.Required(),
			port.WithDescription("Supplies a learner to the node")),
		initialise: node.NewInput[dataset.Schema](b, InitialisePort,
			port.WithDescription("Initialises the learner")),
		train: node.NewInput[dataset.Stream](b, TrainPort,
			port.WithDescription("Provides a data-set to train the learner on")),
		predictionInput: node.NewInput[dataset.Stream](b, PredictionInputPort,
			port.WithDescription("Rows to make predictions from")),
		pushLearner: node.NewInput[any](b, PushLearnerPort,
			port.WithDescription("Outputs the learner in its current state each time this input receives any value")),
		learnerOutput: node.NewOutput[learner.Learner](b, LearnerOutputPort,
			port.WithDescription("Supplies the current state of the learner")),
		predictions: node.NewOutput[Prediction](b, PredictionsPort,
			port.WithDescription("Outputs the results of predictions")),
	}

	n.onLearner = port.On(n.learnerInput, n.handleLearner)
	n.onInitialise = port.On(n.initialise, n.handleInitialise)
	n.onTrain = port.On(n.train, n.handleTrain)
	n.onPredict = port.On(n.predictionInput, n.handlePredict)
	n.onPush = port.On(n.pushLearner, n.handlePushLearner)
	return n
}

// Learner returns the held learner, or nil before the first one arrives.
func (n *Node) Learner() learner.Learner {
	if n.handle == nil {
		return nil
	}
	return n.handle.Learner()
}

// PreLoop waits for the first learner.
func (n *Node) PreLoop(ctx context.Context) error {
	l, ok, err := n.learnerInput.PullOrAbort(ctx)
	if err != nil {
		return err
	}
	if !ok {
		// Upstream may have closed because the run was cancelled.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.ErrNoLearner
	}
	return n.hold(l)
}

// LoopCondition holds while either output has a consumer.
func (n *Node) LoopCondition() bool {
	return !port.AllClosed(n.predictions, n.learnerOutput)
}

// MainLoopInner handles one value from the currently relevant inputs.
func (n *Node) MainLoopInner(ctx context.Context) (node.Step, error) {
	res, err := n.Select(ctx, n.currentInputs()...)
	if err != nil {
		return node.Continue, err
	}
	if res.Aborted {
		n.Logger().Debug("all relevant inputs closed")
		return node.Abort, nil
	}
	return node.Continue, nil
}

// PostLoop pushes the held learner once.
func (n *Node) PostLoop(ctx context.Context) error {
	if err := n.learnerOutput.Push(ctx, n.handle.Learner()); err != nil {
		if stderrors.Is(err, errors.ErrPortClosed) {
			n.Logger().Debug("final learner not delivered", "port", LearnerOutputPort, "reason", err)
			return nil
		}
		return errors.Wrap(err, "LearnerNode", "PostLoop", "push final learner")
	}
	return nil
}

// currentInputs returns the inputs relevant to the held learner. Training and
// prediction data is only accepted once the learner is initialised.
func (n *Node) currentInputs() []port.Case {
	if n.handle.IsInitialised() {
		return []port.Case{n.onTrain, n.onPredict, n.onPush, n.onLearner, n.onInitialise}
	}
	return []port.Case{n.onPush, n.onLearner, n.onInitialise}
}

func (n *Node) hold(l learner.Learner) error {
	h, err := learner.NewHandle(l)
	if err != nil {
		return atPort(err, LearnerInputPort)
	}
	n.handle = h
	n.Logger().Debug("learner received", "learner", h.String(), "initialised", h.IsInitialised())
	return nil
}

func (n *Node) handleLearner(_ context.Context, l learner.Learner) error {
	return n.hold(l)
}

func (n *Node) handleInitialise(_ context.Context, schema dataset.Schema) error {
	if err := n.handle.Initialise(schema); err != nil {
		return errors.Wrap(err, "LearnerNode", "handleInitialise", "initialise learner")
	}
	n.Logger().Debug("learner initialised", "schema", schema.String())
	return nil
}

func (n *Node) handleTrain(ctx context.Context, stream dataset.Stream) error {
	if stream == nil {
		return atPort(errors.NewContractViolation("", "dataset.Stream", nil, errors.ErrInvalidData), TrainPort)
	}
	if err := n.handle.Train(ctx, stream); err != nil {
		return atPort(err, TrainPort)
	}
	n.Logger().Debug("learner trained", "learner", n.handle.String())
	return nil
}

func (n *Node) handlePredict(ctx context.Context, stream dataset.Stream) error {
	if stream == nil {
		return atPort(errors.NewContractViolation("", "dataset.Stream", nil, errors.ErrInvalidData), PredictionInputPort)
	}

	count := 0
	for row := range stream.Rows() {
		if n.predictions.IsClosed() {
			break
		}
		p, err := n.handle.Predict(row)
		if err != nil {
			return errors.Wrap(err, "LearnerNode", "handlePredict", fmt.Sprintf("predict row %d", count))
		}
		if err := n.predictions.Push(ctx, Prediction{Row: row, Prediction: p}); err != nil {
			if stderrors.Is(err, errors.ErrPortClosed) {
				break
			}
			return err
		}
		count++
	}
	n.Logger().Debug("predictions made", "count", count)
	return nil
}

func (n *Node) handlePushLearner(ctx context.Context, _ any) error {
	if err := n.learnerOutput.Push(ctx, n.handle.Learner()); err != nil {
		if stderrors.Is(err, errors.ErrPortClosed) {
			n.Logger().Debug("learner not delivered", "port", LearnerOutputPort, "reason", err)
			return nil
		}
		return err
	}
	return nil
}

// atPort names the receiving port on a contract violation.
func atPort(err error, name string) error {
	var cv *errors.ContractViolation
	if stderrors.As(err, &cv) && cv.Port == "" {
		cv.Port = name
	}
	return err
}
