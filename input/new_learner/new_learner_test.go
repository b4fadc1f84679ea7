package newlearner

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waikato/maiaflow/errors"
	"github.com/waikato/maiaflow/learner"
	"github.com/waikato/maiaflow/node"
	"github.com/waikato/maiaflow/port"
)

func intPtr(v int) *int { return &v }

// drain runs n to completion against a buffered sink and returns what it pushed.
func drain(t *testing.T, n *Node) []learner.Learner {
	t.Helper()
	sink := port.NewInput[learner.Learner]("sink", port.WithBuffer(16))
	require.NoError(t, port.Connect(n.Output(), sink))
	require.NoError(t, node.Run(context.Background(), n))

	var got []learner.Learner
	for {
		l, ok, err := sink.PullOrAbort(context.Background())
		require.NoError(t, err)
		if !ok {
			return got
		}
		got = append(got, l)
	}
}

func TestNewLearner_RepeatBound(t *testing.T) {
	tests := []struct {
		name   string
		repeat *int
		want   int
	}{
		{"absent produces one", nil, 1},
		{"zero produces one", intPtr(0), 1},
		{"two produces three", intPtr(2), 3},
		{"five produces six", intPtr(5), 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := New("source", Config{Factory: learner.MajorityName, Repeat: tt.repeat}, nil, node.Dependencies{})
			require.NoError(t, err)

			got := drain(t, n)
			assert.Len(t, got, tt.want)
			assert.Equal(t, node.StateTerminated, n.State())
			for i := 1; i < len(got); i++ {
				assert.NotSame(t, got[i-1], got[i], "every production is a fresh learner")
			}
		})
	}
}

func TestNewLearner_CounterPersistsAcrossActivations(t *testing.T) {
	n, err := New("source", Config{Factory: learner.MajorityName, Repeat: intPtr(2)}, nil, node.Dependencies{})
	require.NoError(t, err)

	require.Len(t, drain(t, n), 3)
	assert.Equal(t, 3, n.Times())

	// Ports never reopen, so a second activation finds its output closed.
	require.NoError(t, node.Run(context.Background(), n))
	assert.Equal(t, 3, n.Times())
}

func TestNewLearner_NegativeRepeatRejected(t *testing.T) {
	_, err := New("source", Config{Factory: learner.MajorityName, Repeat: intPtr(-1)}, nil, node.Dependencies{})
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.Contains(t, err.Error(), "can't be negative")
}

func TestNewLearner_FactoryErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing factory", Config{}},
		{"unknown factory", Config{Factory: "svm"}},
		{"config for another learner", Config{Factory: learner.MajorityName, LearnerConfig: json.RawMessage(`{"kernel": "rbf"}`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("source", tt.cfg, learner.DefaultRegistry(), node.Dependencies{})
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestNewLearner_LearnerConfigReachesFactory(t *testing.T) {
	n, err := New("source", Config{
		Factory:       learner.IncrementalMajorityName,
		LearnerConfig: json.RawMessage(`{"default": "unknown"}`),
	}, nil, node.Dependencies{})
	require.NoError(t, err)

	got := drain(t, n)
	require.Len(t, got, 1)
	h, err := learner.NewHandle(got[0])
	require.NoError(t, err)
	assert.Equal(t, "incremental", h.Capability().String())
}

func TestRegistration(t *testing.T) {
	reg := node.NewRegistry()
	require.NoError(t, Register(reg, nil))

	tests := []struct {
		name    string
		config  string
		wantErr bool
	}{
		{"valid", `{"factory": "majority", "repeat": 2}`, false},
		{"negative repeat", `{"factory": "majority", "repeat": -1}`, true},
		{"missing factory", `{"repeat": 1}`, true},
		{"unknown field", `{"factory": "majority", "times": 1}`, true},
		{"unknown learner", `{"factory": "knn"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := reg.Create("source", FactoryName, json.RawMessage(tt.config), node.Dependencies{})
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalid(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, FactoryName, n.Meta().Type)
			assert.Equal(t, node.StateNotStarted, n.State())
			_, ok := node.FindOutput(n, OutputPort)
			assert.True(t, ok)
		})
	}
}
