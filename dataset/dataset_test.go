package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waikato/maiaflow/errors"
)

func weatherSchema(t *testing.T) Schema {
	t.Helper()
	s, err := NewSchema(
		ColumnHeader{Name: "outlook"},
		ColumnHeader{Name: "temperature", Numeric: true},
		ColumnHeader{Name: "play", Target: true},
	)
	require.NoError(t, err)
	return s
}

func TestNewSchema(t *testing.T) {
	tests := []struct {
		name    string
		headers []ColumnHeader
		wantErr bool
	}{
		{"valid", []ColumnHeader{{Name: "a"}, {Name: "b", Target: true}}, false},
		{"no target", []ColumnHeader{{Name: "a"}}, false},
		{"empty name", []ColumnHeader{{Name: ""}}, true},
		{"duplicate", []ColumnHeader{{Name: "a"}, {Name: "a"}}, true},
		{"two targets", []ColumnHeader{{Name: "a", Target: true}, {Name: "b", Target: true}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema(tt.headers...)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalid(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSchemaLookup(t *testing.T) {
	s := weatherSchema(t)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 1, s.Index("temperature"))
	assert.Equal(t, -1, s.Index("humidity"))
	assert.Equal(t, 2, s.TargetIndex())

	target, ok := s.Target()
	require.True(t, ok)
	assert.Equal(t, "play", target.Name)
	assert.Equal(t, "[outlook, temperature, play*]", s.String())
}

func TestTable(t *testing.T) {
	s := weatherSchema(t)
	table, err := NewTable(s, Row{"sunny", 30.0, "no"}, Row{"rainy", 18.0, "yes"})
	require.NoError(t, err)

	var batch Batch = table
	assert.Equal(t, 2, batch.Len())
	assert.Equal(t, "rainy", batch.At(1)[0])

	// a batch can be visited repeatedly
	for pass := 0; pass < 2; pass++ {
		count := 0
		for range table.Rows() {
			count++
		}
		assert.Equal(t, 2, count)
	}

	require.NoError(t, table.Append(Row{"overcast", 21.0, "yes"}))
	assert.Error(t, table.Append(Row{"short"}))

	_, err = NewTable(s, Row{"too", "few"})
	assert.True(t, errors.IsInvalid(err))
}

func TestOneShotStream(t *testing.T) {
	s := weatherSchema(t)
	stream := StreamOf(s, Row{"sunny", 30.0, "no"}, Row{"rainy", 18.0, "yes"})

	_, isBatch := stream.(Batch)
	assert.False(t, isBatch, "a one-shot stream is not a batch")

	var first []Row
	for r := range stream.Rows() {
		first = append(first, r)
	}
	assert.Len(t, first, 2)

	second := 0
	for range stream.Rows() {
		second++
	}
	assert.Zero(t, second)
}

func TestStreamEarlyBreak(t *testing.T) {
	s := weatherSchema(t)
	stream := StreamOf(s, Row{"a", 1.0, "x"}, Row{"b", 2.0, "y"}, Row{"c", 3.0, "z"})

	seen := 0
	for range stream.Rows() {
		seen++
		if seen == 1 {
			break
		}
	}
	assert.Equal(t, 1, seen)
}

func TestCollect(t *testing.T) {
	s := weatherSchema(t)
	table, err := Collect(StreamOf(s, Row{"sunny", 30.0, "no"}))
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	same, err := Collect(table)
	require.NoError(t, err)
	assert.Same(t, table, same)
}

func TestReadCSV(t *testing.T) {
	doc := `outlook, temperature, play
sunny, 30, no
rainy, ?, yes
overcast, 21.5, yes
`
	table, err := ReadCSV(strings.NewReader(doc), "play")
	require.NoError(t, err)

	schema := table.Schema()
	assert.Equal(t, []ColumnHeader{
		{Name: "outlook"},
		{Name: "temperature", Numeric: true},
		{Name: "play", Target: true},
	}, schema.Headers)

	require.Equal(t, 3, table.Len())
	assert.Equal(t, Row{"sunny", 30.0, "no"}, table.At(0))
	assert.Nil(t, table.At(1)[1])
	assert.Equal(t, 21.5, table.At(2)[1])
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		target string
	}{
		{"empty", "", ""},
		{"ragged", "a,b\n1\n", ""},
		{"missing target", "a,b\n1,2\n", "c"},
		{"duplicate header", "a,a\n1,2\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.doc), tt.target)
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err), "got %v", err)
		})
	}
}
