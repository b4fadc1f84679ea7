package collect

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waikato/maiaflow/errors"
	"github.com/waikato/maiaflow/metric"
	"github.com/waikato/maiaflow/node"
	"github.com/waikato/maiaflow/port"
)

// feed wires an output of T to the sink and pushes values in a goroutine,
// closing the output afterwards.
func feed[T any](t *testing.T, n *Node, values ...T) {
	t.Helper()
	out := port.NewOutput[T]("feed")
	require.NoError(t, port.Connect(out, n.input))
	go func() {
		defer out.Close()
		for _, v := range values {
			if err := out.Push(context.Background(), v); err != nil {
				return
			}
		}
	}()
}

func TestCollect_RetainsMostRecent(t *testing.T) {
	n, err := New("sink", Config{Capacity: 3}, node.Dependencies{})
	require.NoError(t, err)
	feed(t, n, 1, 2, 3, 4, 5)

	require.NoError(t, node.Run(context.Background(), n))

	assert.Equal(t, []any{3, 4, 5}, n.Values())
	assert.Equal(t, int64(5), n.Received())
	assert.Equal(t, int64(2), n.Stats().Drops())
	assert.Equal(t, node.StateTerminated, n.State())
}

func TestCollect_DropNewest(t *testing.T) {
	n, err := New("sink", Config{Capacity: 2, Overflow: "drop_newest"}, node.Dependencies{})
	require.NoError(t, err)
	feed(t, n, "a", "b", "c")

	require.NoError(t, node.Run(context.Background(), n))
	assert.Equal(t, []any{"a", "b"}, n.Values())
}

func TestCollect_UnwiredInputEndsImmediately(t *testing.T) {
	n, err := New("sink", DefaultConfig(), node.Dependencies{})
	require.NoError(t, err)

	require.NoError(t, node.Run(context.Background(), n))
	assert.Empty(t, n.Values())
	assert.Equal(t, int64(0), n.Iterations())
}

func TestCollect_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "values.jsonl")
	n, err := New("sink", Config{Path: path}, node.Dependencies{})
	require.NoError(t, err)

	type pair struct {
		Row        []any `json:"row"`
		Prediction []any `json:"prediction"`
	}
	feed(t, n, pair{Row: []any{"sunny"}, Prediction: []any{"no"}}, pair{Row: []any{"rainy"}, Prediction: []any{"yes"}})

	require.NoError(t, node.Run(context.Background(), n))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, lines, 2)
	assert.Equal(t, []any{"yes"}, lines[1]["prediction"])
}

// unencodable panics when written as JSON.
type unencodable struct{}

func (unencodable) MarshalJSON() ([]byte, error) { panic("cannot encode") }

func TestCollect_FailedActivationClosesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "values.jsonl")
	n, err := New("sink", Config{Path: path}, node.Dependencies{})
	require.NoError(t, err)
	feed[any](t, n, "kept", unencodable{})

	err = node.Run(context.Background(), n)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNodePanic)
	assert.Equal(t, node.StateFailed, n.State())
	assert.Nil(t, n.file, "the output file is closed without PostLoop")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\"kept\"\n", string(data), "lines written before the failure are flushed")
}

func TestCollect_BufferMetrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	n, err := New("sink", Config{Capacity: 1}, node.Dependencies{MetricsRegistry: registry})
	require.NoError(t, err)
	feed(t, n, 1, 2)

	require.NoError(t, node.Run(context.Background(), n))

	count, err := testutil.GatherAndCount(registry.PrometheusRegistry(), "maiaflow_buffer_drops_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"zero capacity uses default", Config{}, false},
		{"negative capacity", Config{Capacity: -1}, true},
		{"unknown overflow", Config{Overflow: "block"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalid(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRegistration(t *testing.T) {
	reg := node.NewRegistry()
	require.NoError(t, Register(reg))

	n, err := reg.Create("sink", FactoryName, nil, node.Dependencies{})
	require.NoError(t, err)
	assert.Len(t, n.Inputs(), 1)

	_, err = reg.Create("sink", FactoryName, json.RawMessage(`{"overflow": "block"}`), node.Dependencies{})
	assert.True(t, errors.IsInvalid(err))
}
