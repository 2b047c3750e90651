package exam_test

import (
	"sort"
	"testing"

	"github.com/paveg/medviz/internal/dataframe"
	"github.com/paveg/medviz/internal/exam"
	"github.com/paveg/medviz/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndicators(t *testing.T) {
	got := exam.Indicators()
	assert.Equal(t, []string{"active", "alco", "cholesterol", "gluc", "overweight", "smoke"}, got)
	assert.True(t, sort.StringsAreSorted(got))

	got[0] = "changed"
	assert.Equal(t, "active", exam.Indicators()[0])
}

func prepared(t *testing.T, rows ...testutil.ExamRow) *dataframe.DataFrame {
	t.Helper()
	df := testutil.CreateExamFrame(nil, rows...)
	require.NoError(t, exam.DeriveOverweight(df, exam.DefaultOverweightThreshold))
	require.NoError(t, exam.Normalize(df))
	return df
}

func TestReshape(t *testing.T) {
	df := prepared(t)
	defer df.Release()

	long, err := exam.Reshape(df)
	require.NoError(t, err)
	defer long.Release()

	assert.Equal(t, []string{exam.Cardio, dataframe.VariableColumn, dataframe.ValueColumn}, long.Columns())
	assert.Equal(t, df.Len()*6, long.Len())

	variables, _ := long.Column(dataframe.VariableColumn)
	assert.Equal(t, "active", variables.GetAsString(0))
	assert.Equal(t, "alco", variables.GetAsString(df.Len()))
	assert.Equal(t, "smoke", variables.GetAsString(long.Len()-1))

	values := testutil.Int64Column(t, long, dataframe.ValueColumn)
	overweightStart := 4 * df.Len()
	assert.Equal(t, testutil.Int64Column(t, df, exam.Overweight), values[overweightStart:overweightStart+df.Len()])
}

func TestCountIndicators(t *testing.T) {
	df := prepared(t)
	defer df.Release()

	long, err := exam.Reshape(df)
	require.NoError(t, err)
	defer long.Release()

	counts, err := exam.CountIndicators(long)
	require.NoError(t, err)

	assert.Equal(t, exam.CategoryCount{Cardio: 0, Variable: "active", Value: 0, Total: 3}, counts[0])
	assert.Equal(t, exam.CategoryCount{Cardio: 0, Variable: "active", Value: 1, Total: 5}, counts[1])

	perGroup := map[[2]any]int64{}
	var total int64
	for _, c := range counts {
		perGroup[[2]any{c.Cardio, c.Variable}] += c.Total
		total += c.Total
		if c.Cardio == 1 && c.Variable == exam.Overweight && c.Value == 1 {
			assert.Equal(t, int64(3), c.Total)
		}
	}
	assert.Equal(t, int64(long.Len()), total)
	for key, n := range perGroup {
		if key[0] == int64(0) {
			assert.Equal(t, int64(8), n, "%v", key)
		} else {
			assert.Equal(t, int64(4), n, "%v", key)
		}
	}
}
