// Package exam holds the medical examination domain: loading the
// examination table, deriving the overweight indicator, normalizing
// cholesterol and glucose, reshaping to long format and filtering rows for
// the correlation heat map.
package exam

// Columns of the examination table.
const (
	ID          = "id"
	Age         = "age"
	Gender      = "gender"
	Height      = "height"
	Weight      = "weight"
	APHi        = "ap_hi"
	APLo        = "ap_lo"
	Cholesterol = "cholesterol"
	Gluc        = "gluc"
	Smoke       = "smoke"
	Alco        = "alco"
	Active      = "active"
	Cardio      = "cardio"
	Overweight  = "overweight"
)

// DefaultOverweightThreshold is the BMI above which a row is overweight.
const DefaultOverweightThreshold = 25.0

// Default quantiles bounding height and weight for the correlation filter.
const (
	DefaultLowerQuantile = 0.025
	DefaultUpperQuantile = 0.975
)

// RequiredColumns lists the columns Load insists on.
var RequiredColumns = []string{
	Height, Weight, APHi, APLo, Cholesterol, Gluc, Smoke, Alco, Active, Cardio,
}

// NormalizedColumns are the columns Normalize rewrites by default.
var NormalizedColumns = []string{Cholesterol, Gluc}

// indicators is kept in ascending order.
var indicators = []string{Active, Alco, Cholesterol, Gluc, Overweight, Smoke}

// Indicators returns the categorical indicators of the count plot in
// ascending order.
func Indicators() []string {
	out := make([]string, len(indicators))
	copy(out, indicators)
	return out
}
