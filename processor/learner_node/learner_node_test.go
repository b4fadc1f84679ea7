package learnernode

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waikato/maiaflow/dataset"
	"github.com/waikato/maiaflow/errors"
	"github.com/waikato/maiaflow/learner"
	"github.com/waikato/maiaflow/node"
	"github.com/waikato/maiaflow/port"
	"github.com/waikato/maiaflow/testutil"
)

// harness wires every port of a learner node to the test.
type harness struct {
	node *Node

	learners   *port.Output[learner.Learner]
	schemas    *port.Output[dataset.Schema]
	train      *port.Output[dataset.Stream]
	predict    *port.Output[dataset.Stream]
	push       *port.Output[any]
	learnerOut *port.Input[learner.Learner]
	preds      *port.Input[Prediction]
}

func newHarness(t *testing.T, buffer, predBuffer int) *harness {
	t.Helper()
	n := New("learner", node.Dependencies{DefaultBuffer: buffer})
	return &harness{
		node:       n,
		learners:   testutil.Feed[learner.Learner](t, n, LearnerInputPort),
		schemas:    testutil.Feed[dataset.Schema](t, n, InitialisePort),
		train:      testutil.Feed[dataset.Stream](t, n, TrainPort),
		predict:    testutil.Feed[dataset.Stream](t, n, PredictionInputPort),
		push:       testutil.Feed[any](t, n, PushLearnerPort),
		learnerOut: testutil.Sink[learner.Learner](t, n, LearnerOutputPort, 8),
		preds:      testutil.Sink[Prediction](t, n, PredictionsPort, predBuffer),
	}
}

func (h *harness) closeInputs() {
	h.learners.Close()
	h.schemas.Close()
	h.train.Close()
	h.predict.Close()
	h.push.Close()
}

func TestLearnerNode_SelectAbortRunsPostLoopOnce(t *testing.T) {
	h := newHarness(t, 4, 8)
	l := testutil.NewMockIncrementalLearner("mock")

	done := testutil.Start(context.Background(), h.node)
	testutil.Push[learner.Learner](t, h.learners, l)
	h.closeInputs()

	require.NoError(t, testutil.WaitRun(t, done))
	assert.Equal(t, node.StateTerminated, h.node.State())

	got := testutil.Drain(t, h.learnerOut)
	require.Len(t, got, 1, "the held learner is pushed exactly once on the way out")
	assert.Same(t, l, got[0])
	assert.Empty(t, testutil.Drain(t, h.preds))
}

func TestLearnerNode_TrainingWaitsForInitialisation(t *testing.T) {
	h := newHarness(t, 4, 8)
	l := testutil.NewMockIncrementalLearner("mock")
	schema := testutil.WeatherSchema()

	// Training data is queued before the learner is initialised.
	testutil.Push[learner.Learner](t, h.learners, l)
	testutil.Push[dataset.Stream](t, h.train, testutil.WeatherTable())

	done := testutil.Start(context.Background(), h.node)
	testutil.Push(t, h.schemas, schema)

	testutil.Push[any](t, h.push, struct{}{})
	pushed := testutil.Pull(t, h.learnerOut)
	assert.Same(t, l, pushed)

	h.closeInputs()
	require.NoError(t, testutil.WaitRun(t, done))

	calls := l.Calls()
	require.NotEmpty(t, calls)
	assert.Equal(t, testutil.CallInitialise, calls[0], "nothing is trained before initialisation")
	assert.Contains(t, calls, testutil.CallTrain)
	assert.Equal(t, len(testutil.WeatherRows()), l.TrainedRows())
}

func TestLearnerNode_CurrentInputs(t *testing.T) {
	n := New("learner", node.Dependencies{})
	l := testutil.NewMockBatchLearner("mock")
	require.NoError(t, n.hold(l))

	names := func() []string {
		var out []string
		for _, c := range n.currentInputs() {
			out = append(out, c.Input().Name())
		}
		return out
	}

	assert.Equal(t, []string{PushLearnerPort, LearnerInputPort, InitialisePort}, names())

	require.NoError(t, l.Initialise(testutil.WeatherSchema()))
	assert.Equal(t,
		[]string{TrainPort, PredictionInputPort, PushLearnerPort, LearnerInputPort, InitialisePort},
		names())
}

func trainedMajority(t *testing.T) learner.Learner {
	t.Helper()
	f, err := learner.DefaultRegistry().Factory(learner.MajorityName, nil)
	require.NoError(t, err)
	maj, err := f.Create()
	require.NoError(t, err)
	require.NoError(t, maj.Initialise(testutil.WeatherSchema()))
	require.NoError(t, maj.(learner.BatchTrainer).TrainBatch(context.Background(), testutil.WeatherTable()))
	return maj
}

func TestLearnerNode_PartialPredictionConsumption(t *testing.T) {
	tests := []struct {
		name       string
		predBuffer int
		// most predictions the node may have delivered before the consumer left
		maxPushed int64
	}{
		{name: "rendezvous consumer", predBuffer: 0, maxPushed: 2},
		{name: "buffered consumer", predBuffer: 1, maxPushed: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 4, tt.predBuffer)
			schema := testutil.WeatherSchema()

			done := testutil.Start(context.Background(), h.node)
			testutil.Push(t, h.learners, trainedMajority(t))

			rows := testutil.WeatherRows()[:5]
			testutil.Push(t, h.predict, dataset.StreamOf(schema, rows...))

			first := testutil.Pull(t, h.preds)
			second := testutil.Pull(t, h.preds)
			h.preds.Close()

			assert.Equal(t, rows[0], first.Row)
			assert.Equal(t, rows[1], second.Row)
			assert.Equal(t, dataset.Row{"yes"}, first.Prediction)

			h.closeInputs()
			require.NoError(t, testutil.WaitRun(t, done), "an early-closed consumer is not an error")
			assert.Equal(t, node.StateTerminated, h.node.State())
			assert.Len(t, testutil.Drain(t, h.learnerOut), 1)

			assert.Equal(t, int64(2), h.preds.Stats().Pulled)
			pushed := h.node.predictions.Stats().Pushed
			assert.GreaterOrEqual(t, pushed, int64(2))
			assert.LessOrEqual(t, pushed, tt.maxPushed, "prediction stops once the consumer closes")
		})
	}
}

func TestLearnerNode_LearnerReplacement(t *testing.T) {
	// rendezvous inputs: each push returns once the node has taken the value
	h := newHarness(t, 0, 8)
	first := testutil.NewMockIncrementalLearner("first")
	second := testutil.NewMockBatchLearner("second")

	done := testutil.Start(context.Background(), h.node)
	testutil.Push[learner.Learner](t, h.learners, first)
	testutil.Push[learner.Learner](t, h.learners, second)
	testutil.Push[any](t, h.push, nil)

	assert.Same(t, second, testutil.Pull(t, h.learnerOut))

	h.closeInputs()
	require.NoError(t, testutil.WaitRun(t, done))
	assert.Same(t, second, testutil.Pull(t, h.learnerOut))
}

func TestLearnerNode_NoLearnerIsFatal(t *testing.T) {
	h := newHarness(t, 0, 0)
	h.closeInputs()

	err := node.Run(context.Background(), h.node)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoLearner)
	assert.True(t, errors.IsFatal(err))
	assert.Equal(t, node.StateFailed, h.node.State())
	assert.Empty(t, testutil.Drain(t, h.learnerOut), "PostLoop is skipped after a failed PreLoop")
}

func TestLearnerNode_BatchLearnerGivenStreamIsContractViolation(t *testing.T) {
	h := newHarness(t, 4, 8)
	l := testutil.NewMockBatchLearner("batch")
	schema := testutil.WeatherSchema()

	testutil.Push[learner.Learner](t, h.learners, l)
	testutil.Push(t, h.schemas, schema)
	done := testutil.Start(context.Background(), h.node)
	testutil.Push(t, h.train, dataset.StreamOf(schema, testutil.WeatherRows()...))

	err := testutil.WaitRun(t, done)
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
	assert.ErrorIs(t, err, errors.ErrNotBatch)

	var cv *errors.ContractViolation
	require.True(t, stderrors.As(err, &cv))
	assert.Equal(t, "learner", cv.Node)
	assert.Equal(t, TrainPort, cv.Port)
	assert.Equal(t, "dataset.Batch", cv.Expected)
	assert.NotEmpty(t, cv.Actual)
	assert.Equal(t, node.StateFailed, h.node.State())
}

func TestLearnerNode_NoOpenOutputsEndsImmediately(t *testing.T) {
	n := New("learner", node.Dependencies{DefaultBuffer: 1})
	learners := testutil.Feed[learner.Learner](t, n, LearnerInputPort)
	testutil.Push[learner.Learner](t, learners, testutil.NewMockIncrementalLearner("mock"))

	require.NoError(t, node.Run(context.Background(), n))
	assert.Equal(t, int64(0), n.Iterations())
}

func TestRegistration(t *testing.T) {
	reg := node.NewRegistry()
	require.NoError(t, Register(reg))

	n, err := reg.Create("learner", FactoryName, nil, node.Dependencies{})
	require.NoError(t, err)
	assert.Len(t, n.Inputs(), 5)
	assert.Len(t, n.Outputs(), 2)

	_, err = reg.Create("learner", FactoryName, []byte(`{"mode": "fast"}`), node.Dependencies{})
	assert.True(t, errors.IsInvalid(err))
}
