// Package port provides typed, closable endpoints that carry values between
// nodes, and the Selector that multiplexes receives over several inputs.
//
// # Connections
//
// An Output[T] is connected to one or more Input[U] with Connect, provided T is
// assignable to U. An input accepts exactly one upstream. Pushing broadcasts to
// every connected input that is still open, in connection order, and suspends
// while a consumer is not ready. Values on one connection are delivered in the
// order they were pushed.
//
// # Closing
//
// Both ends close idempotently and never reopen.
//
//   - Output.Close: connected inputs keep their pending values; once drained
//     they read as closed. A push blocked on the output is released with
//     errors.ErrPortClosed.
//   - Input.Close: the consumer is gone. Pending values are discarded and a
//     producer blocked on this input is released. An output whose consumers
//     have all closed reads as closed, which is how producers learn to stop.
//
// Unconnected ports read as closed.
//
// # Receiving
//
// End of input is a value, not an error:
//
//	v, ok, err := in.PullOrAbort(ctx)
//	if err != nil {
//	    return err // ctx ended
//	}
//	if !ok {
//	    // closed with nothing pending
//	}
//
// Several inputs are multiplexed with a Selector:
//
//	var sel port.Selector
//	res, err := sel.SelectOrAbort(ctx,
//	    port.On(train, func(ctx context.Context, s dataset.Stream) error { ... }),
//	    port.On(predict, func(ctx context.Context, s dataset.Stream) error { ... }),
//	)
//
// Exactly one handler runs per call. The case list is read fresh on every call,
// so a node may offer a different set each iteration.
package port
