// Package dataset carries tabular data between nodes: a Schema of column
// headers, rows, and streams of rows that are either one-shot or fully
// materialised batches.
package dataset

import (
	"fmt"
	"iter"
	"strings"
	"sync"

	"github.com/waikato/maiaflow/errors"
)

// ColumnHeader describes one column.
type ColumnHeader struct {
	Name    string `json:"name"`
	Numeric bool   `json:"numeric"`
	Target  bool   `json:"target,omitempty"`
}

// Schema is the ordered set of column headers a learner is initialised with.
type Schema struct {
	Headers []ColumnHeader `json:"headers"`
}

// NewSchema builds a schema and checks that column names are unique and at
// most one column is the target.
func NewSchema(headers ...ColumnHeader) (Schema, error) {
	seen := make(map[string]struct{}, len(headers))
	targets := 0
	for _, h := range headers {
		if h.Name == "" {
			return Schema{}, errors.WrapInvalid(errors.ErrInvalidData, "Schema", "New", "empty column name")
		}
		if _, dup := seen[h.Name]; dup {
			return Schema{}, errors.WrapInvalid(
				fmt.Errorf("%w: duplicate column %q", errors.ErrInvalidData, h.Name),
				"Schema", "New", "column validation")
		}
		seen[h.Name] = struct{}{}
		if h.Target {
			targets++
		}
	}
	if targets > 1 {
		return Schema{}, errors.WrapInvalid(
			fmt.Errorf("%w: %d target columns", errors.ErrInvalidData, targets),
			"Schema", "New", "target validation")
	}
	return Schema{Headers: headers}, nil
}

// Len returns the number of columns.
func (s Schema) Len() int { return len(s.Headers) }

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, h := range s.Headers {
		if h.Name == name {
			return i
		}
	}
	return -1
}

// TargetIndex returns the position of the target column, or -1 when there is none.
func (s Schema) TargetIndex() int {
	for i, h := range s.Headers {
		if h.Target {
			return i
		}
	}
	return -1
}

// Target returns the target column header.
func (s Schema) Target() (ColumnHeader, bool) {
	if i := s.TargetIndex(); i >= 0 {
		return s.Headers[i], true
	}
	return ColumnHeader{}, false
}

// String lists the column names, marking the target.
func (s Schema) String() string {
	names := make([]string, len(s.Headers))
	for i, h := range s.Headers {
		names[i] = h.Name
		if h.Target {
			names[i] += "*"
		}
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// Row is one record. Numeric columns hold float64, nominal columns string, and
// missing values nil.
type Row []any

// Stream is a sequence of rows sharing one schema.
type Stream interface {
	Schema() Schema
	Rows() iter.Seq[Row]
}

// Batch is a Stream whose rows are all available up front and can be visited
// any number of times.
type Batch interface {
	Stream
	Len() int
	At(i int) Row
}

// Table is an in-memory Batch.
type Table struct {
	schema Schema
	rows   []Row
}

// NewTable builds a table, checking every row has one value per column.
func NewTable(schema Schema, rows ...Row) (*Table, error) {
	for i, r := range rows {
		if len(r) != schema.Len() {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: row %d has %d values, schema has %d columns",
					errors.ErrInvalidData, i, len(r), schema.Len()),
				"Table", "New", "row validation")
		}
	}
	return &Table{schema: schema, rows: rows}, nil
}

// Schema returns the table schema.
func (t *Table) Schema() Schema { return t.schema }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// At returns row i.
func (t *Table) At(i int) Row { return t.rows[i] }

// Rows iterates the rows in order.
func (t *Table) Rows() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for _, r := range t.rows {
			if !yield(r) {
				return
			}
		}
	}
}

// Append adds a row.
func (t *Table) Append(r Row) error {
	if len(r) != t.schema.Len() {
		return errors.WrapInvalid(
			fmt.Errorf("%w: row has %d values, schema has %d columns", errors.ErrInvalidData, len(r), t.schema.Len()),
			"Table", "Append", "row validation")
	}
	t.rows = append(t.rows, r)
	return nil
}

// oneShot is a Stream that can be iterated once. It deliberately is not a Batch.
type oneShot struct {
	schema Schema
	seq    iter.Seq[Row]
	once   sync.Once
}

// NewStream wraps seq as a one-shot stream. Iterating it a second time yields nothing.
func NewStream(schema Schema, seq iter.Seq[Row]) Stream {
	return &oneShot{schema: schema, seq: seq}
}

func (s *oneShot) Schema() Schema { return s.schema }

func (s *oneShot) Rows() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		used := true
		s.once.Do(func() { used = false })
		if used {
			return
		}
		s.seq(yield)
	}
}

// StreamOf returns a one-shot stream over rows. Unlike a Table it is not a Batch.
func StreamOf(schema Schema, rows ...Row) Stream {
	return NewStream(schema, func(yield func(Row) bool) {
		for _, r := range rows {
			if !yield(r) {
				return
			}
		}
	})
}

// Collect materialises a stream into a Table. A stream that is already a Table
// is returned as-is.
func Collect(s Stream) (*Table, error) {
	if t, ok := s.(*Table); ok {
		return t, nil
	}
	t, err := NewTable(s.Schema())
	if err != nil {
		return nil, err
	}
	for r := range s.Rows() {
		if err := t.Append(r); err != nil {
			return nil, errors.Wrap(err, "dataset", "Collect", "append row")
		}
	}
	return t, nil
}
