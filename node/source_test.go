package node

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waikato/maiaflow/errors"
	"github.com/waikato/maiaflow/port"
)

// countdown produces n, n-1, ... and stops after producing 1.
type countdown struct {
	src  *Source[int]
	next int
	err  error
}

func (c *countdown) Produce(context.Context) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	v := c.next
	c.next--
	if c.next == 0 {
		c.src.Stop()
	}
	return v, nil
}

func newCountdown(from int) *countdown {
	c := &countdown{next: from}
	b := NewBase("countdown", Metadata{Type: "countdown"}, Dependencies{})
	c.src = NewSource[int](b, "output", c)
	return c
}

func TestSource_StopStillPushesItemInHand(t *testing.T) {
	c := newCountdown(3)
	sink := port.NewInput[int]("sink", port.WithBuffer(10))
	require.NoError(t, port.Connect(c.src.Output(), sink))

	require.NoError(t, Run(context.Background(), c.src))

	var got []int
	for {
		v, ok, err := sink.PullOrAbort(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []int{3, 2, 1}, got)
	assert.Equal(t, StateTerminated, c.src.State())
	assert.True(t, c.src.Stopped())
}

func TestSource_ConsumerLeavingEndsNormally(t *testing.T) {
	c := newCountdown(100)
	sink := port.NewInput[int]("sink")
	require.NoError(t, port.Connect(c.src.Output(), sink))

	done := runAsync(context.Background(), c.src)
	v, ok, err := sink.PullOrAbort(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 100, v)
	sink.Close()

	require.NoError(t, waitRun(t, done))
	assert.Equal(t, StateTerminated, c.src.State())
}

func TestSource_UnconnectedOutputNeverProduces(t *testing.T) {
	c := newCountdown(5)

	require.NoError(t, Run(context.Background(), c.src))
	assert.Equal(t, 5, c.next)
}

func TestSource_ProduceErrorIsFatal(t *testing.T) {
	c := newCountdown(5)
	c.err = stderrors.New("factory failed")
	sink := port.NewInput[int]("sink")
	require.NoError(t, port.Connect(c.src.Output(), sink))

	err := Run(context.Background(), c.src)
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
	assert.Equal(t, StateFailed, c.src.State())
}
