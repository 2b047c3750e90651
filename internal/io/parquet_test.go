package io_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/medviz/internal/dataframe"
	"github.com/paveg/medviz/internal/io"
	"github.com/paveg/medviz/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createParquetTestDataFrame(t *testing.T, mem memory.Allocator) *dataframe.DataFrame {
	t.Helper()
	return dataframe.New(
		series.New("cardio", []int64{0, 1, 1}, mem),
		series.New("variable", []string{"active", "gluc", "smoke"}, mem),
		series.New("weight", []float64{62, 85.5, 64}, mem),
		series.New("flag", []bool{true, false, true}, mem),
	)
}

func TestParquetRoundTrip(t *testing.T) {
	mem := memory.NewGoAllocator()

	for _, compression := range []string{"snappy", "gzip", "zstd", "uncompressed"} {
		t.Run(compression, func(t *testing.T) {
			df := createParquetTestDataFrame(t, mem)
			defer df.Release()

			options := io.DefaultParquetOptions()
			options.Compression = compression

			buf := new(bytes.Buffer)
			require.NoError(t, io.NewParquetWriter(buf, options).Write(df))

			result, err := io.NewParquetReader(bytes.NewReader(buf.Bytes()), options, mem).Read()
			require.NoError(t, err)
			defer result.Release()

			assert.Equal(t, df.Columns(), result.Columns())
			assert.Equal(t, df.Len(), result.Len())
			for _, name := range df.Columns() {
				want, _ := df.Column(name)
				got, _ := result.Column(name)
				assert.Equal(t, want.DataType().ID(), got.DataType().ID(), name)
				for i := 0; i < df.Len(); i++ {
					assert.Equal(t, want.GetAsString(i), got.GetAsString(i), "%s[%d]", name, i)
				}
			}
		})
	}
}

func TestParquetNulls(t *testing.T) {
	mem := memory.NewGoAllocator()

	height, err := series.NewWithValidity("height", []int64{160, 0, 170}, []bool{true, false, true}, mem)
	require.NoError(t, err)
	df := dataframe.New(height)
	defer df.Release()

	buf := new(bytes.Buffer)
	require.NoError(t, io.NewParquetWriter(buf, io.DefaultParquetOptions()).Write(df))

	result, err := io.NewParquetReader(buf, io.DefaultParquetOptions(), mem).Read()
	require.NoError(t, err)
	defer result.Release()

	col, ok := result.Column("height")
	require.True(t, ok)
	assert.Equal(t, arrow.INT64, col.DataType().ID())
	assert.False(t, col.IsNull(0))
	assert.True(t, col.IsNull(1))
	assert.Equal(t, "170", col.GetAsString(2))
}

func TestParquetReaderErrors(t *testing.T) {
	mem := memory.NewGoAllocator()

	t.Run("empty input", func(t *testing.T) {
		_, err := io.NewParquetReader(bytes.NewReader(nil), io.DefaultParquetOptions(), mem).Read()
		require.Error(t, err)
	})

	t.Run("not parquet", func(t *testing.T) {
		data := bytes.NewReader([]byte("id,height\n1,160\n"))
		_, err := io.NewParquetReader(data, io.DefaultParquetOptions(), mem).Read()
		require.Error(t, err)
	})
}

func TestParquetWriterLeavesSinkOpen(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := createParquetTestDataFrame(t, mem)
	defer df.Release()

	path := filepath.Join(t.TempDir(), "long.parquet")
	f, err := os.Create(path)
	require.NoError(t, err)

	require.NoError(t, io.NewParquetWriter(f, io.DefaultParquetOptions()).Write(df))
	require.NoError(t, f.Close(), "the caller closes the file it passed in")

	back, err := io.ReadFile(path, io.DefaultCSVOptions(), mem)
	require.NoError(t, err)
	defer back.Release()
	assert.Equal(t, df.Len(), back.Len())
}
