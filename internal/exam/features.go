package exam

import (
	"fmt"

	"github.com/paveg/medviz/internal/dataframe"
	"github.com/paveg/medviz/internal/errors"
	"github.com/paveg/medviz/internal/series"
)

// BMI returns the body mass index for a height in centimetres and a
// weight in kilograms.
func BMI(heightCm, weightKg float64) float64 {
	m := heightCm / 100
	return weightKg / (m * m)
}

// DeriveOverweight adds (or replaces) the int64 overweight column: 1 when
// the row's BMI is strictly greater than threshold, else 0. Height and
// weight must be present and numeric on every row, and height positive.
func DeriveOverweight(df *dataframe.DataFrame, threshold float64) error {
	const op = "DeriveOverweight"

	heights, err := df.Float64s(op, Height)
	if err != nil {
		return err
	}
	weights, err := df.Float64s(op, Weight)
	if err != nil {
		return err
	}

	flags := make([]int64, len(heights))
	for i, h := range heights {
		if h <= 0 {
			return errors.NewValidationError(op, Height, fmt.Sprintf("non-positive height %g at row %d", h, i))
		}
		if BMI(h, weights[i]) > threshold {
			flags[i] = 1
		}
	}

	s := series.New(Overweight, flags, df.Allocator())
	if err := df.SetColumn(s); err != nil {
		s.Release()
		return err
	}
	return nil
}

// Normalize rewrites each named column in place so that 1 becomes 0 (good)
// and any other value becomes 1 (bad). With no names it normalizes
// NormalizedColumns. Missing values are an error naming the column.
func Normalize(df *dataframe.DataFrame, columns ...string) error {
	const op = "Normalize"
	if len(columns) == 0 {
		columns = NormalizedColumns
	}

	mem := df.Allocator()
	for _, name := range columns {
		values, err := df.Float64s(op, name)
		if err != nil {
			return err
		}

		out := make([]int64, len(values))
		for i, v := range values {
			if v != 1 {
				out[i] = 1
			}
		}

		s := series.New(name, out, mem)
		if err := df.SetColumn(s); err != nil {
			s.Release()
			return err
		}
	}
	return nil
}
