package exam

import (
	"github.com/paveg/medviz/internal/dataframe"
)

// Reshape melts the indicators into long format keyed on cardio. The result
// has columns cardio, variable and value with one row per source row and
// indicator, grouped by indicator in ascending order.
func Reshape(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	return df.Melt(Cardio, Indicators())
}

// CategoryCount is the number of long-format rows sharing a cardio value,
// indicator and indicator value.
type CategoryCount struct {
	Cardio   int64  `json:"cardio" yaml:"cardio"`
	Variable string `json:"variable" yaml:"variable"`
	Value    int64  `json:"value" yaml:"value"`
	Total    int64  `json:"total" yaml:"total"`
}

// CountIndicators counts long-format rows by (cardio, variable, value),
// sorted ascending by those keys.
func CountIndicators(long *dataframe.DataFrame) ([]CategoryCount, error) {
	const op = "CountIndicators"

	grouped, err := long.CountBy(Cardio, dataframe.VariableColumn, dataframe.ValueColumn)
	if err != nil {
		return nil, err
	}
	defer grouped.Release()

	cardio, err := grouped.Float64s(op, Cardio)
	if err != nil {
		return nil, err
	}
	values, err := grouped.Float64s(op, dataframe.ValueColumn)
	if err != nil {
		return nil, err
	}
	totals, err := grouped.Float64s(op, dataframe.CountColumn)
	if err != nil {
		return nil, err
	}
	variables, _ := grouped.Column(dataframe.VariableColumn)

	counts := make([]CategoryCount, grouped.Len())
	for i := range counts {
		counts[i] = CategoryCount{
			Cardio:   int64(cardio[i]),
			Variable: variables.GetAsString(i),
			Value:    int64(values[i]),
			Total:    int64(totals[i]),
		}
	}
	return counts, nil
}
