// Package learner defines the learner payload carried between nodes: the
// Learner contract, the closed training capability decided when a learner is
// first held, and configurable factories that create learners.
package learner

import (
	"context"
	"fmt"

	"github.com/waikato/maiaflow/dataset"
	"github.com/waikato/maiaflow/errors"
)

// Learner is a trainable predictor. A usable learner also implements exactly
// one of IncrementalTrainer or BatchTrainer.
type Learner interface {
	Name() string
	IsInitialised() bool
	Initialise(schema dataset.Schema) error
	Predict(row dataset.Row) (dataset.Row, error)
}

// IncrementalTrainer learns from rows as they stream past.
type IncrementalTrainer interface {
	Learner
	TrainIncremental(ctx context.Context, stream dataset.Stream) error
}

// BatchTrainer learns from a fully materialised batch.
type BatchTrainer interface {
	Learner
	TrainBatch(ctx context.Context, batch dataset.Batch) error
}

// Capability is how a learner trains. It is one of Incremental or Batch.
type Capability interface {
	String() string
	capability()
}

// Incremental is the capability of learners that train from streams.
type Incremental struct{ Trainer IncrementalTrainer }

// Batch is the capability of learners that train from batches.
type Batch struct{ Trainer BatchTrainer }

func (Incremental) capability() {}

func (Batch) capability() {}

func (Incremental) String() string { return "incremental" }

func (Batch) String() string { return "batch" }

// CapabilityOf decides a learner's capability. A learner implementing both
// shapes is treated as incremental, since it can consume any stream.
func CapabilityOf(l Learner) (Capability, error) {
	switch t := l.(type) {
	case IncrementalTrainer:
		return Incremental{Trainer: t}, nil
	case BatchTrainer:
		return Batch{Trainer: t}, nil
	default:
		return nil, errors.NewContractViolation("", "learner.IncrementalTrainer or learner.BatchTrainer", l, errors.ErrNotTrainable)
	}
}

// Handle is a held learner with its capability decided once.
type Handle struct {
	learner    Learner
	capability Capability
}

// NewHandle wraps l. A nil learner or one with no training shape is a contract
// violation.
func NewHandle(l Learner) (*Handle, error) {
	if l == nil {
		return nil, errors.NewContractViolation("", "learner.Learner", nil, errors.ErrNotTrainable)
	}
	c, err := CapabilityOf(l)
	if err != nil {
		return nil, err
	}
	return &Handle{learner: l, capability: c}, nil
}

// Learner returns the held learner unchanged.
func (h *Handle) Learner() Learner { return h.learner }

// Capability returns the training capability.
func (h *Handle) Capability() Capability { return h.capability }

// IsInitialised reports whether the learner has been initialised with a schema.
func (h *Handle) IsInitialised() bool { return h.learner.IsInitialised() }

// Initialise initialises the learner with schema.
func (h *Handle) Initialise(schema dataset.Schema) error {
	return h.learner.Initialise(schema)
}

// Predict predicts for one row.
func (h *Handle) Predict(row dataset.Row) (dataset.Row, error) {
	return h.learner.Predict(row)
}

// Train dispatches on the capability. A batch learner given a stream that is
// not a dataset.Batch is a contract violation wrapping ErrNotBatch.
func (h *Handle) Train(ctx context.Context, stream dataset.Stream) error {
	switch c := h.capability.(type) {
	case Incremental:
		return c.Trainer.TrainIncremental(ctx, stream)
	case Batch:
		batch, ok := stream.(dataset.Batch)
		if !ok {
			return errors.NewContractViolation("", "dataset.Batch", stream, errors.ErrNotBatch)
		}
		return c.Trainer.TrainBatch(ctx, batch)
	default:
		return fmt.Errorf("unknown capability %T", c)
	}
}

// String names the learner and its capability.
func (h *Handle) String() string {
	return fmt.Sprintf("%s(%s)", h.learner.Name(), h.capability)
}
