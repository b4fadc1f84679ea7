package learner

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/waikato/maiaflow/dataset"
	"github.com/waikato/maiaflow/errors"
)

// Built-in factory names
const (
	MajorityName            = "majority"
	IncrementalMajorityName = "incremental-majority"
)

// MajorityConfig configures the majority learners.
type MajorityConfig struct {
	// Default is predicted before any training row with a target value is seen.
	Default any `json:"default,omitempty"`
}

// majority predicts the most frequent target value, or the mean for a numeric
// target. Ties go to the value seen first.
type majority struct {
	name string
	cfg  MajorityConfig

	mu       sync.RWMutex
	schema   dataset.Schema
	target   int
	numeric  bool
	counts   map[string]int
	order    []string
	sum      float64
	observed int
}

func (m *majority) setup(name string, cfg MajorityConfig) {
	m.name = name
	m.cfg = cfg
	m.target = -1
}

func (m *majority) Name() string { return m.name }

func (m *majority) IsInitialised() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.target >= 0
}

// Initialise resets the learner for schema, which must have a target column.
func (m *majority) Initialise(schema dataset.Schema) error {
	idx := schema.TargetIndex()
	if idx < 0 {
		return errors.WrapInvalid(fmt.Errorf("%w: schema %s has no target", errors.ErrInvalidData, schema),
			m.name, "Initialise", "locate target")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.schema = schema
	m.target = idx
	m.numeric = schema.Headers[idx].Numeric
	m.counts = make(map[string]int)
	m.order = nil
	m.sum = 0
	m.observed = 0
	return nil
}

func (m *majority) observe(row dataset.Row) error {
	if m.target < 0 {
		return errors.WrapFatal(fmt.Errorf("learner %s is not initialised", m.name), m.name, "train", "observe row")
	}
	if len(row) != m.schema.Len() {
		return errors.WrapInvalid(
			fmt.Errorf("%w: row has %d values, schema has %d", errors.ErrInvalidData, len(row), m.schema.Len()),
			m.name, "train", "observe row")
	}
	v := row[m.target]
	if v == nil {
		return nil
	}

	m.observed++
	if m.numeric {
		f, ok := v.(float64)
		if !ok {
			return errors.WrapInvalid(fmt.Errorf("%w: target %v is not numeric", errors.ErrInvalidData, v),
				m.name, "train", "observe row")
		}
		m.sum += f
		return nil
	}

	key := fmt.Sprint(v)
	if _, seen := m.counts[key]; !seen {
		m.order = append(m.order, key)
	}
	m.counts[key]++
	return nil
}

// Predict returns a one-value row holding the prediction.
func (m *majority) Predict(dataset.Row) (dataset.Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.target < 0 {
		return nil, errors.WrapFatal(fmt.Errorf("learner %s is not initialised", m.name), m.name, "Predict", "predict")
	}
	if m.observed == 0 {
		return dataset.Row{m.cfg.Default}, nil
	}
	if m.numeric {
		return dataset.Row{m.sum / float64(m.observed)}, nil
	}

	best, bestCount := "", -1
	for _, key := range m.order {
		if c := m.counts[key]; c > bestCount {
			best, bestCount = key, c
		}
	}
	return dataset.Row{best}, nil
}

// Distribution returns the observed target value counts, for diagnostics.
func (m *majority) Distribution() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out
}

// Majority is the batch majority learner.
type Majority struct {
	majority
}

// TrainBatch replaces the learned distribution with the batch's.
func (m *Majority) TrainBatch(ctx context.Context, batch dataset.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counts = make(map[string]int)
	m.order = nil
	m.sum = 0
	m.observed = 0
	for i := 0; i < batch.Len(); i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := m.observe(batch.At(i)); err != nil {
			return err
		}
	}
	return nil
}

// IncrementalMajority is the incremental majority learner. Training adds to
// what it has already seen.
type IncrementalMajority struct {
	majority
}

// TrainIncremental folds every row of stream into the distribution.
func (m *IncrementalMajority) TrainIncremental(ctx context.Context, stream dataset.Stream) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for row := range stream.Rows() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.observe(row); err != nil {
			return err
		}
	}
	return nil
}

type majorityFactory struct {
	name        string
	cfg         MajorityConfig
	incremental bool
}

func (f majorityFactory) Name() string { return f.name }

func (f majorityFactory) Create() (Learner, error) {
	if f.incremental {
		l := &IncrementalMajority{}
		l.setup(f.name, f.cfg)
		return l, nil
	}
	l := &Majority{}
	l.setup(f.name, f.cfg)
	return l, nil
}

// NewMajorityFactory builds a factory for batch majority learners.
func NewMajorityFactory(rawConfig json.RawMessage) (Factory, error) {
	var cfg MajorityConfig
	if err := decodeStrict(rawConfig, &cfg, "MajorityFactory"); err != nil {
		return nil, err
	}
	return majorityFactory{name: MajorityName, cfg: cfg}, nil
}

// NewIncrementalMajorityFactory builds a factory for incremental majority learners.
func NewIncrementalMajorityFactory(rawConfig json.RawMessage) (Factory, error) {
	var cfg MajorityConfig
	if err := decodeStrict(rawConfig, &cfg, "IncrementalMajorityFactory"); err != nil {
		return nil, err
	}
	return majorityFactory{name: IncrementalMajorityName, cfg: cfg, incremental: true}, nil
}

// String summarises the learned distribution.
func (m *majority) String() string {
	dist := m.Distribution()
	keys := make([]string, 0, len(dist))
	for k := range dist {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(m.name)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s:%d", k, dist[k])
	}
	b.WriteByte('}')
	return b.String()
}
