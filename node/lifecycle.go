package node

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/waikato/maiaflow/errors"
)

// Run drives one activation of n:
//
//	NotStarted -> PreLoop -> Looping -> PostLoop -> Terminated
//
// Looping ends when Stop is called, the loop condition is false, the body
// returns Abort, or ctx ends. Every one of those paths runs PostLoop exactly
// once, with a context that outlives ctx but is bounded by the teardown
// timeout. An error from PreLoop or the body, or a panic, skips PostLoop,
// leaves the node in StateFailed and is returned classified with the node name.
//
// Every declared port is closed when Run returns, whichever path it took, so
// neighbouring nodes observe the exit. Private node fields persist across
// activations. Only one activation may run at a time.
func Run(ctx context.Context, n Node) (err error) {
	b := n.base()
	if !b.running.CompareAndSwap(false, true) {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, b.name, "Run", "start activation")
	}
	defer b.running.Store(false)

	b.stopped.Store(false)
	b.teardownOnce = new(sync.Once)
	activation := b.activations.Add(1)
	log := b.logger.With("activation", activation)

	b.metrics.NodeStarted()
	defer b.metrics.NodeStopped()
	defer b.closePorts()

	defer func() {
		if r := recover(); r != nil {
			err = b.fail(fmt.Errorf("%w: %v", errors.ErrNodePanic, r), "Run", "node body", false)
			log.Error("node panicked", "panic", r)
		}
	}()

	b.setState(StatePreLoop)
	log.Debug("node pre-loop")
	if err := n.PreLoop(ctx); err != nil {
		return b.fail(err, "PreLoop", "pre-loop", ctx.Err() != nil)
	}

	b.setState(StateLooping)
	log.Debug("node looping")
	iterations := 0
	for !b.Stopped() && n.LoopCondition() {
		if ctx.Err() != nil {
			log.Debug("node cancelled", "reason", ctx.Err())
			break
		}

		step, err := n.MainLoopInner(ctx)
		iterations++
		b.iterations.Add(1)
		b.metrics.RecordIteration(b.name)

		if err != nil {
			if ctx.Err() != nil && errors.IsTransient(err) {
				log.Debug("node cancelled", "reason", ctx.Err())
				break
			}
			return b.fail(err, "MainLoopInner", "loop body", false)
		}
		if step == Abort {
			log.Debug("node loop aborted")
			break
		}
	}

	if err := b.teardown(ctx, n); err != nil {
		return err
	}

	b.setState(StateTerminated)
	log.Debug("node terminated", "iterations", iterations, "stopped", b.Stopped())
	return nil
}

// teardown runs PostLoop once for the current activation.
func (b *Base) teardown(ctx context.Context, n Node) error {
	var err error
	b.teardownOnce.Do(func() {
		b.setState(StatePostLoop)
		tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.teardownTimeout)
		defer cancel()

		start := time.Now()
		err = n.PostLoop(tctx)
		b.metrics.RecordTeardown(b.name, time.Since(start))
	})
	if err != nil {
		return b.fail(err, "PostLoop", "post-loop", false)
	}
	return nil
}

// fail records a failed activation and returns err classified with node
// context: transient when the activation was cancelled, fatal otherwise.
// Contract violations are stamped with the node name.
func (b *Base) fail(err error, method, action string, cancelled bool) error {
	var cv *errors.ContractViolation
	if stderrors.As(err, &cv) && cv.Node == "" {
		cv.Node = b.name
	}

	var classified error
	if cancelled && errors.IsTransient(err) {
		classified = errors.WrapTransient(err, b.name, method, action)
	} else {
		classified = errors.WrapFatal(err, b.name, method, action)
	}

	b.setState(StateFailed)
	class := errors.Classify(classified).String()
	b.metrics.RecordFailure(b.name, class)
	b.logger.Error("node failed", "phase", action, "class", class, "error", err)
	return classified
}
