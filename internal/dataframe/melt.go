package dataframe

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/medviz/internal/errors"
	"github.com/paveg/medviz/internal/series"
	"github.com/paveg/medviz/internal/validation"
)

// Column names produced by Melt
const (
	VariableColumn = "variable"
	ValueColumn    = "value"
)

// Melt reshapes the DataFrame from wide to long format. The result has the
// id column, a "variable" column holding the source column name and a
// "value" column. Rows are ordered by valueColumns, then by source row.
//
// The value column is int64 when every value column is int64, float64 when
// they are all numeric and string otherwise.
func (df *DataFrame) Melt(idColumn string, valueColumns []string) (*DataFrame, error) {
	if len(valueColumns) == 0 {
		return nil, errors.NewInvalidInputError("Melt", "no value columns given")
	}
	if err := validation.ValidateColumns(df, "Melt", append([]string{idColumn}, valueColumns...)...); err != nil {
		return nil, err
	}

	n := df.Len()
	total := n * len(valueColumns)
	mem := df.mem

	indices := make([]int, 0, total)
	variables := make([]string, 0, total)
	for _, name := range valueColumns {
		for i := 0; i < n; i++ {
			indices = append(indices, i)
			variables = append(variables, name)
		}
	}

	id, err := takeSeries(df.columns[idColumn], indices, mem)
	if err != nil {
		return nil, fmt.Errorf("repeating id column %s: %w", idColumn, err)
	}

	variable := series.New(VariableColumn, variables, mem)

	value, err := df.stackValues(valueColumns, total, mem)
	if err != nil {
		id.Release()
		variable.Release()
		return nil, err
	}

	return NewWithAllocator(mem, id, variable, value), nil
}

// stackValues concatenates the value columns into one series
func (df *DataFrame) stackValues(names []string, total int, mem memory.Allocator) (ISeries, error) {
	allInt, allNumeric := true, true
	for _, name := range names {
		dt := df.columns[name].DataType()
		if dt.ID() != arrow.INT64 {
			allInt = false
		}
		if !IsNumeric(dt) {
			allNumeric = false
		}
	}

	valid := make([]bool, 0, total)

	switch {
	case allInt:
		values := make([]int64, 0, total)
		for _, name := range names {
			arr := df.columns[name].Array()
			typed := arr.(*array.Int64)
			for i := 0; i < typed.Len(); i++ {
				values = append(values, typed.Value(i))
				valid = append(valid, typed.IsValid(i))
			}
			arr.Release()
		}
		return newSeries(ValueColumn, values, valid, mem)

	case allNumeric:
		values := make([]float64, 0, total)
		for _, name := range names {
			col, colValid, err := df.numericColumn("Melt", name)
			if err != nil {
				return nil, err
			}
			values = append(values, col...)
			valid = append(valid, colValid...)
		}
		return newSeries(ValueColumn, values, valid, mem)

	default:
		values := make([]string, 0, total)
		for _, name := range names {
			s := df.columns[name]
			for i := 0; i < s.Len(); i++ {
				values = append(values, s.GetAsString(i))
				valid = append(valid, !s.IsNull(i))
			}
		}
		return newSeries(ValueColumn, values, valid, mem)
	}
}

func newSeries[T any](name string, values []T, valid []bool, mem memory.Allocator) (ISeries, error) {
	s, err := series.NewWithValidity(name, values, valid, mem)
	if err != nil {
		return nil, err
	}
	return s, nil
}
