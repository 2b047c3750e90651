// Package dataframe provides the in-memory columnar table used by the
// examination pipeline: named Arrow-backed columns with derivation, masking,
// melting, grouped counting, quantiles and pairwise correlation.
package dataframe

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/medviz/internal/errors"
	"github.com/paveg/medviz/internal/validation"
)

// DataFrame represents a table of data with typed columns
type DataFrame struct {
	columns map[string]ISeries
	order   []string // Maintains column order
	mem     memory.Allocator
}

// New creates a new DataFrame from a slice of ISeries. Tables derived from
// it are built with the Go allocator.
func New(series ...ISeries) *DataFrame {
	return NewWithAllocator(nil, series...)
}

// NewWithAllocator creates a new DataFrame whose derived tables (filtered,
// melted, grouped) are built with mem. A nil mem selects the Go allocator.
func NewWithAllocator(mem memory.Allocator, series ...ISeries) *DataFrame {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	columns := make(map[string]ISeries)
	order := make([]string, 0, len(series))

	for _, s := range series {
		name := s.Name()
		columns[name] = s
		order = append(order, name)
	}

	return &DataFrame{
		columns: columns,
		order:   order,
		mem:     mem,
	}
}

// Allocator returns the allocator new columns of this table are built with
func (df *DataFrame) Allocator() memory.Allocator {
	return df.mem
}

// Columns returns the names of all columns in order
func (df *DataFrame) Columns() []string {
	if len(df.order) == 0 {
		return []string{}
	}
	return append([]string(nil), df.order...)
}

// Len returns the number of rows (assumes all columns have same length)
func (df *DataFrame) Len() int {
	if len(df.order) == 0 {
		return 0
	}
	return df.columns[df.order[0]].Len()
}

// Width returns the number of columns
func (df *DataFrame) Width() int {
	return len(df.columns)
}

// Column returns the series for the given column name
func (df *DataFrame) Column(name string) (ISeries, bool) {
	series, exists := df.columns[name]
	return series, exists
}

// HasColumn checks if a column exists
func (df *DataFrame) HasColumn(name string) bool {
	_, exists := df.columns[name]
	return exists
}

// SetColumn adds s to the DataFrame in place, replacing and releasing any
// existing column with the same name. The DataFrame takes ownership of s.
func (df *DataFrame) SetColumn(s ISeries) error {
	if df.Width() > 0 {
		if err := validation.ValidateLength(df.Len(), s.Len(), "SetColumn", s.Name()); err != nil {
			return err
		}
	}

	name := s.Name()
	if old, exists := df.columns[name]; exists {
		old.Release()
	} else {
		df.order = append(df.order, name)
	}
	df.columns[name] = s
	return nil
}

// String returns a string representation of the DataFrame
func (df *DataFrame) String() string {
	if len(df.columns) == 0 {
		return "DataFrame[empty]"
	}

	parts := []string{fmt.Sprintf("DataFrame[%dx%d]", df.Len(), df.Width())}

	for _, name := range df.order {
		series := df.columns[name]
		parts = append(parts, fmt.Sprintf("  %s: %s", name, series.DataType().String()))
	}

	return strings.Join(parts, "\n")
}

// Filter returns a new DataFrame holding the rows where mask is true.
// The result has the same columns and types even when no row is kept.
func (df *DataFrame) Filter(mask []bool) (*DataFrame, error) {
	if err := validation.ValidateLength(df.Len(), len(mask), "Filter", "mask"); err != nil {
		return nil, err
	}

	indices := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			indices = append(indices, i)
		}
	}

	return df.take(indices)
}

// take gathers the given rows of every column into a new DataFrame
func (df *DataFrame) take(indices []int) (*DataFrame, error) {
	taken := make([]ISeries, 0, len(df.order))

	for _, name := range df.order {
		s, err := takeSeries(df.columns[name], indices, df.mem)
		if err != nil {
			for _, t := range taken {
				t.Release()
			}
			return nil, fmt.Errorf("taking rows of column %s: %w", name, err)
		}
		taken = append(taken, s)
	}

	return NewWithAllocator(df.mem, taken...), nil
}

// valueArray is the subset of typed Arrow arrays that expose Value(i)
type valueArray[T any] interface {
	arrow.Array
	Value(i int) T
}

// takeSeries builds a new series from the rows of s at indices, keeping nulls
func takeSeries(s ISeries, indices []int, mem memory.Allocator) (ISeries, error) {
	arr := s.Array()
	if arr == nil {
		return nil, errors.NewInternalError("take", fmt.Errorf("column %s has no data", s.Name()))
	}
	defer arr.Release()

	switch typed := arr.(type) {
	case *array.Int64:
		return takeTyped[int64](s.Name(), typed, indices, mem)
	case *array.Float64:
		return takeTyped[float64](s.Name(), typed, indices, mem)
	case *array.String:
		return takeTyped[string](s.Name(), typed, indices, mem)
	case *array.Boolean:
		return takeTyped[bool](s.Name(), typed, indices, mem)
	default:
		return nil, errors.NewUnsupportedTypeError("take", arr.DataType().String())
	}
}

func takeTyped[T any](name string, arr valueArray[T], indices []int, mem memory.Allocator) (ISeries, error) {
	values := make([]T, len(indices))
	var valid []bool
	if arr.NullN() > 0 {
		valid = make([]bool, len(indices))
	}

	for i, idx := range indices {
		if arr.IsNull(idx) {
			continue
		}
		values[i] = arr.Value(idx)
		if valid != nil {
			valid[i] = true
		}
	}

	return newSeries(name, values, valid, mem)
}

// Release releases all underlying Arrow memory
func (df *DataFrame) Release() {
	for _, series := range df.columns {
		series.Release()
	}
}
