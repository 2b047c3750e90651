package exam

import (
	"github.com/paveg/medviz/internal/dataframe"
	"github.com/paveg/medviz/internal/errors"
	"github.com/paveg/medviz/internal/validation"
)

// FilterBounds are the inclusive height and weight bounds used by
// FilterForCorrelation, taken from the unfiltered table.
type FilterBounds struct {
	HeightLow  float64 `json:"height_low" yaml:"height_low"`
	HeightHigh float64 `json:"height_high" yaml:"height_high"`
	WeightLow  float64 `json:"weight_low" yaml:"weight_low"`
	WeightHigh float64 `json:"weight_high" yaml:"weight_high"`
}

// Contains reports whether a height and weight lie within the bounds.
func (b FilterBounds) Contains(height, weight float64) bool {
	return height >= b.HeightLow && height <= b.HeightHigh &&
		weight >= b.WeightLow && weight <= b.WeightHigh
}

// Bounds computes the lower and upper quantiles of height and weight.
func Bounds(df *dataframe.DataFrame, lower, upper float64) (FilterBounds, error) {
	if lower > upper {
		return FilterBounds{}, errors.NewInvalidInputError("Bounds", "lower quantile exceeds upper quantile")
	}

	h, err := df.Quantiles(Height, lower, upper)
	if err != nil {
		return FilterBounds{}, err
	}
	w, err := df.Quantiles(Weight, lower, upper)
	if err != nil {
		return FilterBounds{}, err
	}
	return FilterBounds{HeightLow: h[0], HeightHigh: h[1], WeightLow: w[0], WeightHigh: w[1]}, nil
}

// FilterForCorrelation keeps the rows where ap_lo <= ap_hi and height and
// weight lie within the [lower, upper] quantiles of the input table. All
// conditions form a single mask over the input, so the quantiles are not
// recomputed between conditions. Rows with a null in any tested column are
// dropped.
func FilterForCorrelation(df *dataframe.DataFrame, lower, upper float64) (*dataframe.DataFrame, FilterBounds, error) {
	const op = "FilterForCorrelation"

	if err := validation.ValidateColumns(df, op, APHi, APLo, Height, Weight); err != nil {
		return nil, FilterBounds{}, err
	}

	bounds, err := Bounds(df, lower, upper)
	if err != nil {
		return nil, FilterBounds{}, err
	}

	apHi, hiValid, err := df.NullableFloat64s(op, APHi)
	if err != nil {
		return nil, FilterBounds{}, err
	}
	apLo, loValid, err := df.NullableFloat64s(op, APLo)
	if err != nil {
		return nil, FilterBounds{}, err
	}
	height, hValid, err := df.NullableFloat64s(op, Height)
	if err != nil {
		return nil, FilterBounds{}, err
	}
	weight, wValid, err := df.NullableFloat64s(op, Weight)
	if err != nil {
		return nil, FilterBounds{}, err
	}

	mask := make([]bool, df.Len())
	for i := range mask {
		if !hiValid[i] || !loValid[i] || !hValid[i] || !wValid[i] {
			continue
		}
		mask[i] = apLo[i] <= apHi[i] && bounds.Contains(height[i], weight[i])
	}

	filtered, err := df.Filter(mask)
	if err != nil {
		return nil, FilterBounds{}, err
	}
	return filtered, bounds, nil
}
