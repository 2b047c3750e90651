package io_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/medviz/internal/dataframe"
	"github.com/paveg/medviz/internal/io"
	"github.com/paveg/medviz/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVReader(t *testing.T) {
	mem := memory.NewGoAllocator()

	t.Run("reads simple CSV with headers", func(t *testing.T) {
		csvData := `id,height,weight,gender
0,168,62.0,2
1,156,85.5,1
2,165,64.0,1`

		reader := io.NewCSVReader(strings.NewReader(csvData), io.DefaultCSVOptions(), mem)
		df, err := reader.Read()
		require.NoError(t, err)
		defer df.Release()

		assert.Equal(t, 3, df.Len())
		assert.Equal(t, []string{"id", "height", "weight", "gender"}, df.Columns())

		heightCol, exists := df.Column("height")
		require.True(t, exists)
		assert.Equal(t, arrow.INT64, heightCol.DataType().ID())
		heightArray := heightCol.Array()
		defer heightArray.Release()
		assert.Equal(t, int64(156), heightArray.(*array.Int64).Value(1))

		weightCol, exists := df.Column("weight")
		require.True(t, exists)
		assert.Equal(t, arrow.FLOAT64, weightCol.DataType().ID())
		weightArray := weightCol.Array()
		defer weightArray.Release()
		assert.InDelta(t, 85.5, weightArray.(*array.Float64).Value(1), 1e-9)
	})

	t.Run("reads CSV without headers", func(t *testing.T) {
		options := io.DefaultCSVOptions()
		options.Header = false

		reader := io.NewCSVReader(strings.NewReader("1,2\n3,4"), options, mem)
		df, err := reader.Read()
		require.NoError(t, err)
		defer df.Release()

		assert.Equal(t, 2, df.Len())
		assert.Equal(t, []string{"column_0", "column_1"}, df.Columns())
	})

	t.Run("reads CSV with custom delimiter", func(t *testing.T) {
		options := io.DefaultCSVOptions()
		options.Delimiter = ';'

		reader := io.NewCSVReader(strings.NewReader("ap_hi;ap_lo\n110;80\n140;90"), options, mem)
		df, err := reader.Read()
		require.NoError(t, err)
		defer df.Release()

		assert.Equal(t, []string{"ap_hi", "ap_lo"}, df.Columns())
		assert.Equal(t, 2, df.Len())
	})

	t.Run("empty input yields empty frame", func(t *testing.T) {
		reader := io.NewCSVReader(strings.NewReader(""), io.DefaultCSVOptions(), mem)
		df, err := reader.Read()
		require.NoError(t, err)
		defer df.Release()

		assert.Equal(t, 0, df.Len())
		assert.Equal(t, 0, df.Width())
	})

	t.Run("header only", func(t *testing.T) {
		reader := io.NewCSVReader(strings.NewReader("id,cardio\n"), io.DefaultCSVOptions(), mem)
		df, err := reader.Read()
		require.NoError(t, err)
		defer df.Release()

		assert.Equal(t, 0, df.Len())
		assert.Equal(t, []string{"id", "cardio"}, df.Columns())
	})

	t.Run("ragged rows are rejected", func(t *testing.T) {
		reader := io.NewCSVReader(strings.NewReader("a,b\n1,2\n3"), io.DefaultCSVOptions(), mem)
		_, err := reader.Read()
		require.Error(t, err)
	})
}

func TestCSVReaderNulls(t *testing.T) {
	mem := memory.NewGoAllocator()

	csvData := `height,weight,note
168,,ok
,70.5,
170,80.0,fine`

	reader := io.NewCSVReader(strings.NewReader(csvData), io.DefaultCSVOptions(), mem)
	df, err := reader.Read()
	require.NoError(t, err)
	defer df.Release()

	height, _ := df.Column("height")
	assert.Equal(t, arrow.INT64, height.DataType().ID(), "empty fields must not demote the type")
	assert.False(t, height.IsNull(0))
	assert.True(t, height.IsNull(1))

	weight, _ := df.Column("weight")
	assert.Equal(t, arrow.FLOAT64, weight.DataType().ID())
	assert.True(t, weight.IsNull(0))
	assert.Equal(t, "70.5", weight.GetAsString(1))

	note, _ := df.Column("note")
	assert.Equal(t, arrow.STRING, note.DataType().ID())
	assert.True(t, note.IsNull(1))
}

func TestCSVTypeInference(t *testing.T) {
	mem := memory.NewGoAllocator()

	tests := []struct {
		name     string
		values   string
		expected arrow.Type
	}{
		{"integers", "1\n2\n-3", arrow.INT64},
		{"mixed int and float", "1\n2.5\n3", arrow.FLOAT64},
		{"booleans", "true\nFALSE\ntrue", arrow.BOOL},
		{"text", "a\n1\nb", arrow.STRING},
		{"all empty", "\"\"\n\"\"", arrow.STRING},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := io.NewCSVReader(strings.NewReader("col\n"+tt.values), io.DefaultCSVOptions(), mem)
			df, err := reader.Read()
			require.NoError(t, err)
			defer df.Release()

			col, ok := df.Column("col")
			require.True(t, ok)
			assert.Equal(t, tt.expected, col.DataType().ID())
		})
	}
}

func TestCSVWriter(t *testing.T) {
	mem := memory.NewGoAllocator()

	t.Run("writes header and rows", func(t *testing.T) {
		df := dataframe.New(
			series.New("cardio", []int64{0, 1}, mem),
			series.New("variable", []string{"active", "alco"}, mem),
			series.New("bmi", []float64{24.5, 31.25}, mem),
		)
		defer df.Release()

		var buf bytes.Buffer
		require.NoError(t, io.NewCSVWriter(&buf, io.DefaultCSVOptions()).Write(df))

		expected := "cardio,variable,bmi\n0,active,24.5\n1,alco,31.25\n"
		assert.Equal(t, expected, buf.String())
	})

	t.Run("nulls are written as empty fields", func(t *testing.T) {
		s, err := series.NewWithValidity("weight", []float64{70, 0}, []bool{true, false}, mem)
		require.NoError(t, err)
		df := dataframe.New(series.New("id", []int64{1, 2}, mem), s)
		defer df.Release()

		var buf bytes.Buffer
		require.NoError(t, io.NewCSVWriter(&buf, io.DefaultCSVOptions()).Write(df))
		assert.Equal(t, "id,weight\n1,70\n2,\n", buf.String())
	})

	t.Run("round trip keeps values", func(t *testing.T) {
		df := dataframe.New(
			series.New("height", []int64{160, 175}, mem),
			series.New("weight", []float64{70.5, 80}, mem),
		)
		defer df.Release()

		var buf bytes.Buffer
		options := io.DefaultCSVOptions()
		options.Delimiter = '\t'
		require.NoError(t, io.NewCSVWriter(&buf, options).Write(df))

		back, err := io.NewCSVReader(&buf, options, mem).Read()
		require.NoError(t, err)
		defer back.Release()

		weights, err := back.Float64s("test", "weight")
		require.NoError(t, err)
		assert.Equal(t, []float64{70.5, 80}, weights)
	})
}
