package port

import (
	"context"
	"reflect"
)

// Case pairs an input with the handler run when that input yields a value.
// Build cases with On.
type Case struct {
	input  Inlet
	ch     func() reflect.Value
	done   func() <-chan struct{}
	handle func(ctx context.Context, v reflect.Value) error
}

// On registers fn as the handler for values arriving on in.
func On[T any](in *Input[T], fn func(ctx context.Context, v T) error) Case {
	return Case{
		input: in,
		ch:    in.chanValue,
		done:  func() <-chan struct{} { return in.done },
		handle: func(ctx context.Context, rv reflect.Value) error {
			in.stats.pulled.Add(1)
			var v T
			if iv := rv.Interface(); iv != nil {
				v = iv.(T)
			}
			return fn(ctx, v)
		},
	}
}

// Input returns the case's input.
func (c Case) Input() Inlet { return c.input }

// Result reports the outcome of a select: the input whose handler ran, or Aborted
// when every candidate input was closed.
type Result struct {
	Port    string
	Input   Inlet
	Aborted bool
}

// Selector multiplexes receives over a changing set of inputs. When several
// inputs are ready at once it polls them round-robin starting after the input
// that fired last, so a perpetually ready input cannot starve the others. The
// zero value is ready to use. A Selector belongs to one node and is not safe for
// concurrent use.
type Selector struct {
	last Inlet
}

// SelectOrAbort waits until exactly one of the cases' inputs yields a value and
// runs that case's handler on the calling goroutine. Closed inputs are ignored;
// when none remain, including for an empty case list, it returns Aborted
// immediately. The handler's error is returned as-is. The error is also non-nil
// when ctx ends first.
func (s *Selector) SelectOrAbort(ctx context.Context, cases ...Case) (Result, error) {
	for {
		open := s.order(cases)
		if len(open) == 0 {
			return Result{Aborted: true}, nil
		}

		// Fast path: first ready input in round-robin order.
		drained := false
		for _, c := range open {
			v, ok := c.ch().TryRecv()
			if !v.IsValid() {
				continue
			}
			if !ok {
				// upstream closed and drained
				drained = true
				continue
			}
			return s.fire(ctx, c, v)
		}
		if drained {
			continue
		}

		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		// Slow path: block on every open input, its consumer close and ctx.
		selectCases := make([]reflect.SelectCase, 0, 2*len(open)+1)
		for _, c := range open {
			selectCases = append(selectCases,
				reflect.SelectCase{Dir: reflect.SelectRecv, Chan: c.ch()},
				reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(c.done())},
			)
		}
		selectCases = append(selectCases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())})

		chosen, v, ok := reflect.Select(selectCases)
		switch {
		case chosen == len(selectCases)-1:
			return Result{}, ctx.Err()
		case chosen%2 == 1:
			// consumer closed the input; re-evaluate the set
			continue
		case !ok:
			// upstream closed; re-evaluate the set
			continue
		default:
			return s.fire(ctx, open[chosen/2], v)
		}
	}
}

func (s *Selector) fire(ctx context.Context, c Case, v reflect.Value) (Result, error) {
	s.last = c.input
	res := Result{Port: c.input.Name(), Input: c.input}
	return res, c.handle(ctx, v)
}

// order returns the open cases rotated to start after the last fired input.
func (s *Selector) order(cases []Case) []Case {
	open := make([]Case, 0, len(cases))
	start := 0
	for _, c := range cases {
		if c.input == nil || c.input.IsClosed() {
			continue
		}
		if s.last != nil && c.input == s.last {
			start = len(open) + 1
		}
		open = append(open, c)
	}
	if start == 0 || start >= len(open) {
		return open
	}
	rotated := make([]Case, 0, len(open))
	rotated = append(rotated, open[start:]...)
	return append(rotated, open[:start]...)
}
