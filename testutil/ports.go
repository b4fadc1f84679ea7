package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/waikato/maiaflow/node"
	"github.com/waikato/maiaflow/port"
)

// DefaultTimeout bounds the blocking helpers.
const DefaultTimeout = 5 * time.Second

// Feed returns an output wired to the named input of n.
func Feed[T any](t *testing.T, n node.Node, input string) *port.Output[T] {
	t.Helper()
	in, ok := node.FindInput(n, input)
	require.True(t, ok, "node %s has no input %q", n.Name(), input)

	out := port.NewOutput[T]("feed_" + input)
	require.NoError(t, port.Connect(out, in))
	return out
}

// Sink returns an input wired to the named output of n.
func Sink[T any](t *testing.T, n node.Node, output string, buffer int) *port.Input[T] {
	t.Helper()
	out, ok := node.FindOutput(n, output)
	require.True(t, ok, "node %s has no output %q", n.Name(), output)

	in := port.NewInput[T]("sink_"+output, port.WithBuffer(buffer))
	require.NoError(t, port.Connect(out, in))
	return in
}

// Drain pulls from in until it aborts and returns the values received.
func Drain[T any](t *testing.T, in *port.Input[T]) []T {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	var got []T
	for {
		v, ok, err := in.PullOrAbort(ctx)
		require.NoError(t, err, "drain %s", in.Name())
		if !ok {
			return got
		}
		got = append(got, v)
	}
}

// Pull pulls exactly one value from in.
func Pull[T any](t *testing.T, in *port.Input[T]) T {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	v, ok, err := in.PullOrAbort(ctx)
	require.NoError(t, err, "pull %s", in.Name())
	require.True(t, ok, "input %s aborted", in.Name())
	return v
}

// Push pushes v on out, failing the test on error.
func Push[T any](t *testing.T, out *port.Output[T], v T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()
	require.NoError(t, out.Push(ctx, v), "push %s", out.Name())
}

// Start runs n on its own goroutine. The returned channel yields Run's error.
func Start(ctx context.Context, n node.Node) <-chan error {
	done := make(chan error, 1)
	go func() { done <- node.Run(ctx, n) }()
	return done
}

// WaitRun waits for a node started with Start to finish.
func WaitRun(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(DefaultTimeout):
		t.Fatal("node did not finish")
		return nil
	}
}
