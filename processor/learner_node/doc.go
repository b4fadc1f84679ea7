// Package learnernode provides the learner node, which owns the life-cycle of
// one learner at a time: it receives the learner, initialises it, trains it,
// makes predictions with it and hands it on.
//
// # Ports
//
//	Inputs:
//	  learner_input     learner.Learner   replaces the held learner (required)
//	  initialise        dataset.Schema    initialises the held learner
//	  train             dataset.Stream    trains the held learner
//	  prediction_input  dataset.Stream    rows to predict
//	  push_learner      any               pushes the held learner on "learner"
//
//	Outputs:
//	  learner           learner.Learner   the held learner
//	  predictions       Prediction        (row, prediction) pairs
//
// # Behaviour
//
// PreLoop waits for the first learner; if learner_input closes first the node
// fails with errors.ErrNoLearner. Until the held learner is initialised only
// push_learner, learner_input and initialise are listened to, so training and
// prediction data stays queued on its port. The listened set is recomputed
// before every select.
//
// Training dispatches on the learner's capability. A batch learner sent a
// stream that is not a dataset.Batch is a contract violation and ends the node.
//
// Predictions stop early when every consumer of predictions has left; the
// rest of the stream is discarded without error.
//
// The node loops while at least one of its outputs is open. On the way out it
// pushes the held learner once on "learner".
package learnernode
