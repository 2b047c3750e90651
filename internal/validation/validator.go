// Package validation provides input validation utilities for DataFrame operations.
// Validators cover column existence, length consistency, numeric ranges and
// non-empty inputs, and can be combined with CompoundValidator.
package validation

import (
	"fmt"

	"github.com/paveg/medviz/internal/errors"
)

// Validator interface for input validation
type Validator interface {
	Validate() error
}

// ColumnProvider interface for types that provide column information
type ColumnProvider interface {
	HasColumn(name string) bool
	Columns() []string
	Len() int
	Width() int
}

// ColumnValidator validates column existence and properties
type ColumnValidator struct {
	df      ColumnProvider
	columns []string
	op      string
}

// NewColumnValidator creates a validator for column operations
func NewColumnValidator(df ColumnProvider, op string, columns ...string) *ColumnValidator {
	return &ColumnValidator{
		df:      df,
		columns: columns,
		op:      op,
	}
}

// Validate checks if all columns exist in the DataFrame
func (v *ColumnValidator) Validate() error {
	for _, column := range v.columns {
		if !v.df.HasColumn(column) {
			return errors.NewColumnNotFoundError(v.op, column)
		}
	}
	return nil
}

// LengthValidator validates array length consistency
type LengthValidator struct {
	expected int
	actual   int
	op       string
	context  string
}

// NewLengthValidator creates a validator for length consistency
func NewLengthValidator(expected, actual int, op, context string) *LengthValidator {
	return &LengthValidator{
		expected: expected,
		actual:   actual,
		op:       op,
		context:  context,
	}
}

// Validate checks if lengths match
func (v *LengthValidator) Validate() error {
	if v.expected != v.actual {
		message := fmt.Sprintf("%s: expected length %d, got %d", v.context, v.expected, v.actual)
		return errors.NewValidationError(v.op, "", message)
	}
	return nil
}

// RangeValidator checks that a numeric parameter lies in [min, max]
type RangeValidator struct {
	value float64
	min   float64
	max   float64
	op    string
	name  string
}

// NewRangeValidator creates a validator for a closed numeric interval
func NewRangeValidator(value, minValue, maxValue float64, op, name string) *RangeValidator {
	return &RangeValidator{
		value: value,
		min:   minValue,
		max:   maxValue,
		op:    op,
		name:  name,
	}
}

// Validate checks if the value is within bounds
func (v *RangeValidator) Validate() error {
	if v.value < v.min || v.value > v.max {
		message := fmt.Sprintf("%s %g out of range [%g, %g]", v.name, v.value, v.min, v.max)
		return errors.NewInvalidInputError(v.op, message)
	}
	return nil
}

// EmptyDataFrameValidator validates operations on empty DataFrames
type EmptyDataFrameValidator struct {
	df ColumnProvider
	op string
}

// NewEmptyDataFrameValidator creates a validator for empty DataFrame checks
func NewEmptyDataFrameValidator(df ColumnProvider, op string) *EmptyDataFrameValidator {
	return &EmptyDataFrameValidator{
		df: df,
		op: op,
	}
}

// Validate checks if DataFrame is empty when operation requires data
func (v *EmptyDataFrameValidator) Validate() error {
	if v.df.Len() == 0 {
		return &errors.DataFrameError{
			Op:      v.op,
			Message: "operation not supported on empty DataFrame",
		}
	}
	return nil
}

// CompoundValidator combines multiple validators
type CompoundValidator struct {
	validators []Validator
}

// NewCompoundValidator creates a validator that checks multiple conditions
func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{
		validators: validators,
	}
}

// Validate runs all validators and returns the first error encountered
func (v *CompoundValidator) Validate() error {
	for _, validator := range v.validators {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Convenience validation functions

// ValidateColumns is a convenience function for column validation
func ValidateColumns(df ColumnProvider, op string, columns ...string) error {
	return NewColumnValidator(df, op, columns...).Validate()
}

// ValidateLength is a convenience function for length validation
func ValidateLength(expected, actual int, op, context string) error {
	return NewLengthValidator(expected, actual, op, context).Validate()
}

// ValidateRange is a convenience function for range validation
func ValidateRange(value, minValue, maxValue float64, op, name string) error {
	return NewRangeValidator(value, minValue, maxValue, op, name).Validate()
}

// ValidateNotEmpty is a convenience function for empty DataFrame validation
func ValidateNotEmpty(df ColumnProvider, op string) error {
	return NewEmptyDataFrameValidator(df, op).Validate()
}
