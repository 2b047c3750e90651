package dataframe

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paveg/medviz/internal/errors"
)

// IsNumeric reports whether the Arrow type is one the numeric operations accept
func IsNumeric(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.INT64, arrow.FLOAT64:
		return true
	default:
		return false
	}
}

// NumericColumns returns the names of int64 and float64 columns in order
func (df *DataFrame) NumericColumns() []string {
	names := make([]string, 0, len(df.order))
	for _, name := range df.order {
		if IsNumeric(df.columns[name].DataType()) {
			names = append(names, name)
		}
	}
	return names
}

// Float64s returns the named column as float64 values. Every value must be
// present and numeric; op names the calling operation in returned errors.
func (df *DataFrame) Float64s(op, name string) ([]float64, error) {
	values, valid, err := df.numericColumn(op, name)
	if err != nil {
		return nil, err
	}
	for i, ok := range valid {
		if !ok {
			return nil, errors.NewMissingValueError(op, name, i)
		}
	}
	return values, nil
}

// NullableFloat64s returns the named column as float64 values plus a validity
// slice; valid[i] is false where the value is null.
func (df *DataFrame) NullableFloat64s(op, name string) ([]float64, []bool, error) {
	return df.numericColumn(op, name)
}

// numericColumn returns the column as float64 values plus a validity slice
func (df *DataFrame) numericColumn(op, name string) ([]float64, []bool, error) {
	s, exists := df.columns[name]
	if !exists {
		return nil, nil, errors.NewColumnNotFoundError(op, name)
	}
	if !IsNumeric(s.DataType()) {
		return nil, nil, errors.NewNonNumericError(op, name, s.DataType().String())
	}

	arr := s.Array()
	defer arr.Release()

	values := make([]float64, arr.Len())
	valid := make([]bool, arr.Len())

	switch typed := arr.(type) {
	case *array.Int64:
		for i := 0; i < typed.Len(); i++ {
			if typed.IsValid(i) {
				values[i] = float64(typed.Value(i))
				valid[i] = true
			}
		}
	case *array.Float64:
		for i := 0; i < typed.Len(); i++ {
			if typed.IsValid(i) {
				values[i] = typed.Value(i)
				valid[i] = true
			}
		}
	}

	return values, valid, nil
}
