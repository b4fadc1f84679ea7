package node

import (
	"context"
	stderrors "errors"

	"github.com/waikato/maiaflow/errors"
	"github.com/waikato/maiaflow/port"
)

// Producer yields the items a Source pushes. Produce may call Stop on the
// source's Base; the item it returns is still pushed before looping ends.
type Producer[T any] interface {
	Produce(ctx context.Context) (T, error)
}

// Source is a node with a single output that pushes one produced item per
// iteration while the output is open.
type Source[T any] struct {
	*Base

	out      *port.Output[T]
	producer Producer[T]
}

// NewSource declares the output on b and returns a source driving producer.
func NewSource[T any](b *Base, output string, producer Producer[T], opts ...port.Option) *Source[T] {
	return &Source[T]{
		Base:     b,
		out:      NewOutput[T](b, output, opts...),
		producer: producer,
	}
}

// Output returns the source's output port.
func (s *Source[T]) Output() *port.Output[T] { return s.out }

// PreLoop has nothing to set up.
func (s *Source[T]) PreLoop(context.Context) error { return nil }

// LoopCondition holds while someone can still consume.
func (s *Source[T]) LoopCondition() bool { return !s.out.IsClosed() }

// MainLoopInner produces one item and pushes it. A push refused because every
// consumer left ends the loop normally.
func (s *Source[T]) MainLoopInner(ctx context.Context) (Step, error) {
	item, err := s.producer.Produce(ctx)
	if err != nil {
		return Continue, err
	}
	if err := s.out.Push(ctx, item); err != nil {
		if stderrors.Is(err, errors.ErrPortClosed) {
			s.logger.Debug("source output closed", "port", s.out.Name())
			return Abort, nil
		}
		return Continue, err
	}
	return Continue, nil
}

// PostLoop has nothing to tear down.
func (s *Source[T]) PostLoop(context.Context) error { return nil }
