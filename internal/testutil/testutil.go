// Package testutil provides shared fixtures for tests: memory setup and
// examination tables built in memory or written to CSV.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/medviz/internal/dataframe"
	"github.com/paveg/medviz/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ExamHeader is the header line of the examination CSV.
const ExamHeader = "id,age,gender,height,weight,ap_hi,ap_lo,cholesterol,gluc,smoke,alco,active,cardio"

// TestMemoryContext provides memory allocator with automatic cleanup.
type TestMemoryContext struct {
	Allocator memory.Allocator
	cleanup   func()
}

// Release performs cleanup of the memory context.
func (tmc *TestMemoryContext) Release() {
	if tmc.cleanup != nil {
		tmc.cleanup()
	}
}

// SetupMemoryTest creates a checked allocator and, on Release, asserts that
// every allocation made through it was freed.
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
func SetupMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	allocator := memory.NewCheckedAllocator(memory.NewGoAllocator())

	return &TestMemoryContext{
		Allocator: allocator,
		cleanup: func() {
			allocator.AssertSize(tb, 0)
		},
	}
}

// ExamRow is one row of the examination table.
type ExamRow struct {
	ID, Age, Gender, Height int64
	Weight                  float64
	APHi, APLo              int64
	Cholesterol, Gluc       int64
	Smoke, Alco, Active     int64
	Cardio                  int64
}

// SampleExamRows returns a small examination sample. Row 9 has ap_lo above
// ap_hi and row 10 is 160 cm / 70 kg.
func SampleExamRows() []ExamRow {
	return []ExamRow{
		{0, 18393, 2, 168, 62, 110, 80, 1, 1, 0, 0, 1, 0},
		{1, 20228, 1, 156, 85, 140, 90, 3, 1, 0, 0, 1, 1},
		{2, 18857, 1, 165, 64, 130, 70, 3, 1, 0, 0, 0, 1},
		{3, 17623, 2, 169, 82, 150, 100, 1, 1, 0, 0, 1, 1},
		{4, 17474, 1, 156, 56, 100, 60, 1, 1, 0, 0, 0, 0},
		{8, 21914, 1, 151, 67, 120, 80, 2, 2, 0, 0, 0, 0},
		{9, 22113, 1, 157, 93, 130, 80, 3, 1, 0, 0, 1, 0},
		{12, 22584, 2, 178, 95, 130, 90, 3, 3, 0, 0, 1, 1},
		{13, 17668, 1, 158, 71, 110, 120, 1, 1, 0, 0, 1, 0},
		{14, 19834, 1, 160, 70, 120, 80, 1, 1, 1, 1, 1, 0},
		{15, 22530, 1, 164, 68, 110, 60, 1, 1, 0, 0, 0, 0},
		{16, 18815, 2, 173, 60, 120, 80, 1, 1, 0, 0, 1, 0},
	}
}

// ExamRows returns n rows cycling through SampleExamRows with fresh ids.
func ExamRows(n int) []ExamRow {
	base := SampleExamRows()
	rows := make([]ExamRow, n)
	for i := range rows {
		rows[i] = base[i%len(base)]
		rows[i].ID = int64(i)
	}
	return rows
}

// CreateExamFrame builds an examination table from rows, or from
// SampleExamRows when rows is empty.
func CreateExamFrame(allocator memory.Allocator, rows ...ExamRow) *dataframe.DataFrame {
	if len(rows) == 0 {
		rows = SampleExamRows()
	}

	ints := func(get func(ExamRow) int64) []int64 {
		out := make([]int64, len(rows))
		for i, r := range rows {
			out[i] = get(r)
		}
		return out
	}
	weights := make([]float64, len(rows))
	for i, r := range rows {
		weights[i] = r.Weight
	}

	return dataframe.NewWithAllocator(allocator,
		series.New("id", ints(func(r ExamRow) int64 { return r.ID }), allocator),
		series.New("age", ints(func(r ExamRow) int64 { return r.Age }), allocator),
		series.New("gender", ints(func(r ExamRow) int64 { return r.Gender }), allocator),
		series.New("height", ints(func(r ExamRow) int64 { return r.Height }), allocator),
		series.New("weight", weights, allocator),
		series.New("ap_hi", ints(func(r ExamRow) int64 { return r.APHi }), allocator),
		series.New("ap_lo", ints(func(r ExamRow) int64 { return r.APLo }), allocator),
		series.New("cholesterol", ints(func(r ExamRow) int64 { return r.Cholesterol }), allocator),
		series.New("gluc", ints(func(r ExamRow) int64 { return r.Gluc }), allocator),
		series.New("smoke", ints(func(r ExamRow) int64 { return r.Smoke }), allocator),
		series.New("alco", ints(func(r ExamRow) int64 { return r.Alco }), allocator),
		series.New("active", ints(func(r ExamRow) int64 { return r.Active }), allocator),
		series.New("cardio", ints(func(r ExamRow) int64 { return r.Cardio }), allocator),
	)
}

// ExamCSV renders rows as examination CSV text with a header.
func ExamCSV(rows ...ExamRow) string {
	var sb strings.Builder
	sb.WriteString(ExamHeader)
	sb.WriteByte('\n')
	for _, r := range rows {
		fmt.Fprintf(&sb, "%d,%d,%d,%d,%s,%d,%d,%d,%d,%d,%d,%d,%d\n",
			r.ID, r.Age, r.Gender, r.Height, strconv.FormatFloat(r.Weight, 'f', 1, 64),
			r.APHi, r.APLo, r.Cholesterol, r.Gluc, r.Smoke, r.Alco, r.Active, r.Cardio)
	}
	return sb.String()
}

// WriteExamCSV writes rows (SampleExamRows when empty) to a CSV file in dir
// and returns its path.
func WriteExamCSV(tb testing.TB, dir string, rows ...ExamRow) string {
	tb.Helper()
	if len(rows) == 0 {
		rows = SampleExamRows()
	}
	path := filepath.Join(dir, "medical_examination.csv")
	require.NoError(tb, os.WriteFile(path, []byte(ExamCSV(rows...)), 0o600))
	return path
}

// AssertDataFrameHasColumns verifies that a DataFrame has the expected columns.
func AssertDataFrameHasColumns(t *testing.T, df *dataframe.DataFrame, expectedColumns []string) {
	t.Helper()

	require.NotNil(t, df, "DataFrame should not be nil")
	assert.Len(t, df.Columns(), len(expectedColumns), "column count should match")

	for _, col := range expectedColumns {
		assert.True(t, df.HasColumn(col), "DataFrame should have column %s", col)
	}
}

// Int64Column returns a column's values as int64, failing the test when the
// column is missing.
func Int64Column(t *testing.T, df *dataframe.DataFrame, name string) []int64 {
	t.Helper()

	values, err := df.Float64s("test", name)
	require.NoError(t, err)

	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return out
}
