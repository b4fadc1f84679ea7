package topology

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/waikato/maiaflow/errors"
	"github.com/waikato/maiaflow/node"
)

// Run outcomes recorded in the topology runs metric.
const (
	RunCompleted = "completed"
	RunFailed    = "failed"
	RunCancelled = "cancelled"
)

// Run starts every node and blocks until all have returned. It returns the
// first node error. Cancelling ctx cancels every node.
//
// A topology runs once: nodes close their ports on exit and ports never reopen.
func (t *Topology) Run(ctx context.Context) error {
	if !t.running.CompareAndSwap(false, true) {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Topology", "Run", "start run")
	}
	defer t.running.Store(false)
	if !t.started.CompareAndSwap(false, true) {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Topology", "Run", "topology already ran")
	}

	runID := uuid.New().String()
	log := t.logger.With("run_id", runID)
	nodes := t.Nodes()
	log.Info("topology starting", "nodes", len(nodes), "edges", len(t.Edges()))

	g, gctx := errgroup.WithContext(ctx)
	for _, n := range nodes {
		g.Go(func() error {
			if err := node.Run(gctx, n); err != nil {
				log.Error("node exited with error", "node", n.Name(), "class", errors.Classify(err).String(), "error", err)
				return err
			}
			log.Debug("node finished", "node", n.Name())
			return nil
		})
	}

	err := g.Wait()
	status := RunCompleted
	switch {
	case err != nil && ctx.Err() != nil && errors.IsTransient(err):
		status = RunCancelled
	case err != nil:
		status = RunFailed
	case ctx.Err() != nil:
		status = RunCancelled
	}
	t.metrics.RecordTopologyRun(t.name, status)

	if err != nil {
		log.Error("topology failed", "status", status, "error", err)
		return err
	}
	log.Info("topology finished", "status", status)
	if status == RunCancelled {
		return errors.WrapTransient(ctx.Err(), "Topology", "Run", "run cancelled")
	}
	return nil
}
