package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/waikato/maiaflow/dataset"
)

// Calls recorded by the mock learners
const (
	CallInitialise = "initialise"
	CallTrain      = "train"
	CallPredict    = "predict"
)

// ErrMockFailed is returned by mock learners configured to fail.
var ErrMockFailed = errors.New("mock operation failed")

type mockLearner struct {
	mu sync.Mutex

	name        string
	initialised bool
	calls       []string
	trainedRows int

	// Prediction is returned by Predict
	Prediction dataset.Row
	// TrainErr, when set, is returned by training
	TrainErr error
}

func (m *mockLearner) Name() string { return m.name }

func (m *mockLearner) IsInitialised() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialised
}

func (m *mockLearner) Initialise(dataset.Schema) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, CallInitialise)
	m.initialised = true
	return nil
}

func (m *mockLearner) Predict(dataset.Row) (dataset.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, CallPredict)
	return m.Prediction, nil
}

func (m *mockLearner) train(ctx context.Context, rows func(yield func(dataset.Row) bool)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, CallTrain)
	if m.TrainErr != nil {
		return m.TrainErr
	}
	for range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.trainedRows++
	}
	return nil
}

// Calls returns the recorded calls in order.
func (m *mockLearner) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// TrainedRows returns how many rows training has consumed.
func (m *mockLearner) TrainedRows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trainedRows
}

// MockIncrementalLearner trains from any stream.
type MockIncrementalLearner struct {
	mockLearner
}

// NewMockIncrementalLearner creates an uninitialised incremental mock.
func NewMockIncrementalLearner(name string) *MockIncrementalLearner {
	return &MockIncrementalLearner{mockLearner{name: name, Prediction: dataset.Row{"mock"}}}
}

// TrainIncremental records the call and consumes the stream.
func (m *MockIncrementalLearner) TrainIncremental(ctx context.Context, stream dataset.Stream) error {
	return m.train(ctx, stream.Rows())
}

// MockBatchLearner trains from batches only.
type MockBatchLearner struct {
	mockLearner
}

// NewMockBatchLearner creates an uninitialised batch mock.
func NewMockBatchLearner(name string) *MockBatchLearner {
	return &MockBatchLearner{mockLearner{name: name, Prediction: dataset.Row{"mock"}}}
}

// TrainBatch records the call and consumes the batch.
func (m *MockBatchLearner) TrainBatch(ctx context.Context, batch dataset.Batch) error {
	return m.train(ctx, batch.Rows())
}
