package port

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waikato/maiaflow/errors"
)

const waitFor = 2 * time.Second

func connected[T any](t *testing.T, buffer int) (*Output[T], *Input[T]) {
	t.Helper()
	out := NewOutput[T]("out")
	in := NewInput[T]("in", WithBuffer(buffer))
	require.NoError(t, Connect(out, in))
	return out, in
}

func TestConnect_TypeChecking(t *testing.T) {
	type learner interface{ Name() string }

	tests := []struct {
		name    string
		out     Outlet
		in      Inlet
		wantErr error
	}{
		{"same type", NewOutput[int]("o"), NewInput[int]("i"), nil},
		{"concrete to any", NewOutput[*time.Timer]("o"), NewInput[any]("i"), nil},
		{"mismatch", NewOutput[int]("o"), NewInput[string]("i"), errors.ErrPortTypeMismatch},
		{"interface not implemented", NewOutput[int]("o"), NewInput[learner]("i"), errors.ErrPortTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Connect(tt.out, tt.in)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.True(t, tt.in.Info().Connected)
				assert.True(t, tt.out.Info().Connected)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, errors.IsInvalid(err))
			assert.False(t, tt.in.Info().Connected)
		})
	}
}

func TestConnect_SingleUpstream(t *testing.T) {
	in := NewInput[int]("in")
	require.NoError(t, Connect(NewOutput[int]("a"), in))

	err := Connect(NewOutput[int]("b"), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAlreadyConnected)
}

func TestUnconnectedPortsReadClosed(t *testing.T) {
	in := NewInput[int]("in")
	out := NewOutput[int]("out")

	assert.True(t, in.IsClosed())
	assert.True(t, out.IsClosed())

	_, ok, err := in.PullOrAbort(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	err = out.Push(context.Background(), 1)
	assert.ErrorIs(t, err, errors.ErrPortClosed)
}

func TestPushPull_FIFO(t *testing.T) {
	out, in := connected[string](t, 3)
	ctx := context.Background()

	for _, v := range []string{"A", "B", "C"} {
		require.NoError(t, out.Push(ctx, v))
	}

	for _, want := range []string{"A", "B", "C"} {
		got, ok, err := in.PullOrAbort(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	assert.Equal(t, Stats{Pushed: 3}, out.Stats())
	assert.Equal(t, Stats{Pushed: 3, Pulled: 3}, in.Stats())
}

func TestRendezvousPushWaitsForConsumer(t *testing.T) {
	out, in := connected[int](t, 0)
	ctx := context.Background()

	pushed := make(chan error, 1)
	go func() { pushed <- out.Push(ctx, 42) }()

	select {
	case <-pushed:
		t.Fatal("push completed without a consumer")
	case <-time.After(20 * time.Millisecond):
	}

	v, ok, err := in.PullOrAbort(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 42, v)
	require.NoError(t, <-pushed)
}

func TestOutputClose_DrainsPendingThenAborts(t *testing.T) {
	out, in := connected[int](t, 2)
	ctx := context.Background()

	require.NoError(t, out.Push(ctx, 1))
	require.NoError(t, out.Push(ctx, 2))
	out.Close()
	out.Close()

	assert.True(t, out.IsClosed())
	assert.False(t, in.IsClosed(), "pending values keep the input open")

	for _, want := range []int{1, 2} {
		v, ok, err := in.PullOrAbort(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, v)
	}

	assert.True(t, in.IsClosed())
	_, ok, err := in.PullOrAbort(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	err = out.Push(ctx, 3)
	assert.ErrorIs(t, err, errors.ErrPortClosed)
}

func TestOutputClose_WakesBlockedPull(t *testing.T) {
	out, in := connected[int](t, 0)

	result := make(chan bool, 1)
	go func() {
		_, ok, _ := in.PullOrAbort(context.Background())
		result <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	out.Close()

	select {
	case ok := <-result:
		assert.False(t, ok)
	case <-time.After(waitFor):
		t.Fatal("pull was not woken by close")
	}
}

func TestOutputClose_ReleasesBlockedPush(t *testing.T) {
	out, _ := connected[int](t, 0)

	pushed := make(chan error, 1)
	go func() { pushed <- out.Push(context.Background(), 1) }()

	time.Sleep(10 * time.Millisecond)
	out.Close()

	select {
	case err := <-pushed:
		assert.ErrorIs(t, err, errors.ErrPortClosed)
	case <-time.After(waitFor):
		t.Fatal("push was not released by close")
	}
}

func TestInputClose_ReleasesProducerAndClosesOutput(t *testing.T) {
	out, in := connected[int](t, 0)

	pushed := make(chan error, 1)
	go func() { pushed <- out.Push(context.Background(), 1) }()

	time.Sleep(10 * time.Millisecond)
	in.Close()
	in.Close()

	select {
	case err := <-pushed:
		assert.ErrorIs(t, err, errors.ErrPortClosed)
	case <-time.After(waitFor):
		t.Fatal("push was not released by consumer close")
	}

	assert.True(t, in.IsClosed())
	assert.True(t, out.IsClosed(), "an output whose consumers left is closed")
}

func TestInputClose_DiscardsPending(t *testing.T) {
	out, in := connected[int](t, 3)
	require.NoError(t, out.Push(context.Background(), 1))

	in.Close()
	_, ok, err := in.PullOrAbort(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBroadcast(t *testing.T) {
	out := NewOutput[int]("out")
	a := NewInput[int]("a", WithBuffer(1))
	b := NewInput[int]("b", WithBuffer(1))
	require.NoError(t, Connect(out, a))
	require.NoError(t, Connect(out, b))

	require.NoError(t, out.Push(context.Background(), 7))

	va, _, _ := a.PullOrAbort(context.Background())
	vb, _, _ := b.PullOrAbort(context.Background())
	assert.Equal(t, 7, va)
	assert.Equal(t, 7, vb)

	// One consumer leaving keeps the output open for the other
	a.Close()
	assert.False(t, out.IsClosed())
	require.NoError(t, out.Push(context.Background(), 8))
	vb, _, _ = b.PullOrAbort(context.Background())
	assert.Equal(t, 8, vb)

	b.Close()
	assert.True(t, out.IsClosed())
}

func TestConnectAfterClose(t *testing.T) {
	out := NewOutput[int]("out")
	out.Close()

	in := NewInput[int]("in")
	require.NoError(t, Connect(out, in))
	assert.True(t, in.IsClosed())
}

func TestPullOrAbort_ContextCancelled(t *testing.T) {
	_, in := connected[int](t, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, ok, err := in.PullOrAbort(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPush_ContextCancelled(t *testing.T) {
	out, _ := connected[int](t, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := out.Push(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAllClosed(t *testing.T) {
	a, ain := connected[int](t, 0)
	b, _ := connected[int](t, 0)

	assert.True(t, AllClosed())
	assert.False(t, AllClosed(a, b))

	ain.Close()
	assert.False(t, AllClosed(a, b), "closing one output leaves the sibling open")

	b.Close()
	assert.True(t, AllClosed(a, b))
}

func TestInfo(t *testing.T) {
	in := NewInput[int]("train", WithBuffer(4), WithDescription("training data"), Required())
	info := in.Info()

	assert.Equal(t, "train", info.Name)
	assert.Equal(t, DirectionInput, info.Direction)
	assert.Equal(t, "int", info.Type)
	assert.Equal(t, "training data", info.Description)
	assert.True(t, info.Required)
	assert.False(t, info.Connected)
	assert.Equal(t, 4, info.Buffer)

	out := NewOutput[string]("predictions")
	assert.Equal(t, DirectionOutput, out.Info().Direction)
	assert.Equal(t, "string", out.Info().Type)
}
