package node

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waikato/maiaflow/errors"
	"github.com/waikato/maiaflow/metric"
	"github.com/waikato/maiaflow/port"
)

const waitFor = 2 * time.Second

// relay forwards its input to its output and counts lifecycle calls.
type relay struct {
	*Base
	in  *port.Input[int]
	out *port.Output[int]

	preLoops  atomic.Int32
	postLoops atomic.Int32
	received  []int

	preErr   error
	bodyErr  error
	postErr  error
	panicMsg string
	stopAt   int
}

func newRelay(t *testing.T, deps Dependencies) *relay {
	t.Helper()
	b := NewBase("relay", Metadata{Type: "relay"}, deps)
	return &relay{
		Base: b,
		in:   NewInput[int](b, "input", port.Required()),
		out:  NewOutput[int](b, "output"),
	}
}

func (r *relay) PreLoop(context.Context) error {
	r.preLoops.Add(1)
	return r.preErr
}

func (r *relay) LoopCondition() bool { return !r.out.IsClosed() }

func (r *relay) MainLoopInner(ctx context.Context) (Step, error) {
	if r.panicMsg != "" {
		panic(r.panicMsg)
	}
	if r.bodyErr != nil {
		return Continue, r.bodyErr
	}
	res, err := r.Select(ctx, port.On(r.in, func(ctx context.Context, v int) error {
		r.received = append(r.received, v)
		if r.stopAt > 0 && len(r.received) == r.stopAt {
			r.Stop()
		}
		return r.out.Push(ctx, v)
	}))
	if err != nil {
		return Continue, err
	}
	if res.Aborted {
		return Abort, nil
	}
	return Continue, nil
}

func (r *relay) PostLoop(context.Context) error {
	r.postLoops.Add(1)
	return r.postErr
}

// wire connects an upstream output to the relay input and the relay output to a
// downstream input, returning both far ends.
func wire(t *testing.T, r *relay, buffer int) (*port.Output[int], *port.Input[int]) {
	t.Helper()
	up := port.NewOutput[int]("up")
	down := port.NewInput[int]("down", port.WithBuffer(buffer))
	require.NoError(t, port.Connect(up, r.in))
	require.NoError(t, port.Connect(r.out, down))
	return up, down
}

func runAsync(ctx context.Context, n Node) <-chan error {
	done := make(chan error, 1)
	go func() { done <- Run(ctx, n) }()
	return done
}

func waitRun(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(waitFor):
		t.Fatal("node did not finish")
		return nil
	}
}

func TestRun_SelectAbortRunsTeardownOnce(t *testing.T) {
	r := newRelay(t, Dependencies{})
	up, down := wire(t, r, 10)

	done := runAsync(context.Background(), r)
	ctx := context.Background()
	require.NoError(t, up.Push(ctx, 1))
	require.NoError(t, up.Push(ctx, 2))
	up.Close()

	require.NoError(t, waitRun(t, done))
	assert.Equal(t, []int{1, 2}, r.received)
	assert.Equal(t, int32(1), r.preLoops.Load())
	assert.Equal(t, int32(1), r.postLoops.Load())
	assert.Equal(t, StateTerminated, r.State())

	// ports are closed on exit: downstream drains then aborts
	for _, want := range []int{1, 2} {
		v, ok, err := down.PullOrAbort(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, v)
	}
	_, ok, err := down.PullOrAbort(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRun_TeardownExactlyOnceOnEveryPath(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, r *relay) context.Context
	}{
		{
			name: "loop condition false before first iteration",
			setup: func(t *testing.T, r *relay) context.Context {
				// relay output never wired: condition is false immediately
				require.NoError(t, port.Connect(port.NewOutput[int]("up"), r.in))
				return context.Background()
			},
		},
		{
			name: "selector abort",
			setup: func(t *testing.T, r *relay) context.Context {
				up, _ := wire(t, r, 1)
				up.Close()
				return context.Background()
			},
		},
		{
			name: "stop called from handler",
			setup: func(t *testing.T, r *relay) context.Context {
				up, _ := wire(t, r, 5)
				r.stopAt = 1
				go func() { _ = up.Push(context.Background(), 9) }()
				return context.Background()
			},
		},
		{
			name: "downstream consumer left",
			setup: func(t *testing.T, r *relay) context.Context {
				_, down := wire(t, r, 0)
				down.Close()
				return context.Background()
			},
		},
		{
			name: "context cancelled",
			setup: func(t *testing.T, r *relay) context.Context {
				wire(t, r, 0)
				ctx, cancel := context.WithCancel(context.Background())
				time.AfterFunc(20*time.Millisecond, cancel)
				return ctx
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRelay(t, Dependencies{})
			ctx := tt.setup(t, r)

			require.NoError(t, waitRun(t, runAsync(ctx, r)))
			assert.Equal(t, int32(1), r.postLoops.Load())
			assert.Equal(t, StateTerminated, r.State())
			assert.Equal(t, r.stopAt > 0, r.Stopped())
		})
	}
}

func TestRun_TeardownContextSurvivesCancellation(t *testing.T) {
	var teardownErr error
	r := newRelay(t, Dependencies{TeardownTimeout: time.Second})
	wire(t, r, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	probe := &teardownProbe{relay: r, seen: &teardownErr}
	require.NoError(t, Run(ctx, probe))
	assert.NoError(t, teardownErr, "post-loop context must not inherit cancellation")
}

type teardownProbe struct {
	*relay
	seen *error
}

func (p *teardownProbe) PostLoop(ctx context.Context) error {
	*p.seen = ctx.Err()
	deadline, ok := ctx.Deadline()
	if !ok || time.Until(deadline) > time.Second {
		*p.seen = stderrors.New("teardown context is not bounded")
	}
	return nil
}

func TestRun_FailuresSkipTeardown(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(r *relay)
		wantIs  error
	}{
		{"pre-loop error", func(r *relay) { r.preErr = errors.ErrNoLearner }, errors.ErrNoLearner},
		{"body error", func(r *relay) { r.bodyErr = stderrors.New("learner exploded") }, nil},
		{"panic", func(r *relay) { r.panicMsg = "boom" }, errors.ErrNodePanic},
		{"contract violation", func(r *relay) {
			r.bodyErr = errors.NewContractViolation("train", "dataset.Batch", 3, nil)
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := metric.NewMetricsRegistry()
			r := newRelay(t, Dependencies{MetricsRegistry: registry})
			up, down := wire(t, r, 0)
			tt.prepare(r)

			err := waitRun(t, runAsync(context.Background(), r))
			require.Error(t, err)
			assert.True(t, errors.IsFatal(err), "got %v", err)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			assert.Contains(t, err.Error(), "relay.")
			assert.Equal(t, int32(0), r.postLoops.Load())
			assert.Equal(t, StateFailed, r.State())

			// failure closes the node's ports
			assert.True(t, up.IsClosed())
			assert.True(t, down.IsClosed())
			assert.Equal(t, 1.0, testutil.ToFloat64(
				registry.CoreMetrics().NodeFailures.WithLabelValues("relay", "fatal")))
		})
	}
}

func TestRun_ContractViolationNamesNode(t *testing.T) {
	r := newRelay(t, Dependencies{})
	wire(t, r, 0)
	r.bodyErr = errors.NewContractViolation("train", "dataset.Batch", 3, nil)

	err := Run(context.Background(), r)
	var cv *errors.ContractViolation
	require.True(t, stderrors.As(err, &cv))
	assert.Equal(t, "relay", cv.Node)
	assert.Equal(t, "train", cv.Port)
}

func TestRun_PostLoopErrorFails(t *testing.T) {
	r := newRelay(t, Dependencies{})
	up, _ := wire(t, r, 0)
	up.Close()
	r.postErr = stderrors.New("flush failed")

	err := Run(context.Background(), r)
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
	assert.Equal(t, int32(1), r.postLoops.Load())
	assert.Equal(t, StateFailed, r.State())
}

func TestRun_AlreadyStarted(t *testing.T) {
	r := newRelay(t, Dependencies{})
	up, _ := wire(t, r, 0)

	done := runAsync(context.Background(), r)
	require.Eventually(t, func() bool { return r.State() == StateLooping }, waitFor, time.Millisecond)

	err := Run(context.Background(), r)
	assert.ErrorIs(t, err, errors.ErrAlreadyStarted)
	assert.True(t, errors.IsInvalid(err))

	up.Close()
	require.NoError(t, waitRun(t, done))
}

func TestRun_CancelledDuringPreLoopIsTransient(t *testing.T) {
	r := newRelay(t, Dependencies{})
	wire(t, r, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.preErr = ctx.Err()

	err := Run(ctx, r)
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.Equal(t, StateFailed, r.State())
}

func TestNewInput_DefaultBufferAndMetrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	b := NewBase("sink", Metadata{Type: "sink"}, Dependencies{MetricsRegistry: registry, DefaultBuffer: 3})

	in := NewInput[int](b, "input")
	custom := NewInput[int](b, "custom", port.WithBuffer(1))
	assert.Equal(t, 3, in.Info().Buffer)
	assert.Equal(t, 1, custom.Info().Buffer)

	out := port.NewOutput[int]("up")
	require.NoError(t, port.Connect(out, in))
	require.NoError(t, out.Push(context.Background(), 1))
	_, _, _ = in.PullOrAbort(context.Background())

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)
	found := false
	for _, mf := range families {
		if mf.GetName() == "maiaflow_port_values_total" {
			found = true
			assert.Len(t, mf.GetMetric(), 2)
		}
	}
	assert.True(t, found)

	assert.Panics(t, func() { NewOutput[int](b, "input") })

	got, ok := FindInput(&relay{Base: b}, "custom")
	require.True(t, ok)
	assert.Equal(t, "custom", got.Name())
	_, ok = FindOutput(&relay{Base: b}, "missing")
	assert.False(t, ok)
}
