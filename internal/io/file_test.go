package io_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/medviz/internal/dataframe"
	"github.com/paveg/medviz/internal/io"
	"github.com/paveg/medviz/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, io.FormatCSV, io.FormatFromPath("medical_examination.csv"))
	assert.Equal(t, io.FormatCSV, io.FormatFromPath("data.txt"))
	assert.Equal(t, io.FormatParquet, io.FormatFromPath("exam.parquet"))
	assert.Equal(t, io.FormatParquet, io.FormatFromPath("EXAM.PQ"))
}

func TestParseFormat(t *testing.T) {
	f, err := io.ParseFormat("Parquet")
	require.NoError(t, err)
	assert.Equal(t, io.FormatParquet, f)
	assert.Equal(t, ".parquet", f.Extension())

	_, err = io.ParseFormat("xlsx")
	require.Error(t, err)
}

func TestReadWriteFile(t *testing.T) {
	mem := memory.NewGoAllocator()
	dir := t.TempDir()

	df := dataframe.New(
		series.New("id", []int64{1, 2}, mem),
		series.New("weight", []float64{70, 82.5}, mem),
	)
	defer df.Release()

	for _, format := range []io.Format{io.FormatCSV, io.FormatParquet} {
		t.Run(string(format), func(t *testing.T) {
			path := filepath.Join(dir, "table"+format.Extension())
			require.NoError(t, io.WriteFile(path, format, df, io.DefaultCSVOptions()))

			back, err := io.ReadFile(path, io.DefaultCSVOptions(), mem)
			require.NoError(t, err)
			defer back.Release()

			assert.Equal(t, df.Columns(), back.Columns())
			weights, err := back.Float64s("test", "weight")
			require.NoError(t, err)
			assert.Equal(t, []float64{70, 82.5}, weights)
		})
	}

	t.Run("missing file names the path", func(t *testing.T) {
		path := filepath.Join(dir, "absent.csv")
		_, err := io.ReadFile(path, io.DefaultCSVOptions(), mem)
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Contains(t, err.Error(), path)
	})
}
