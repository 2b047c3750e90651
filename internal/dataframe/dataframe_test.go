package dataframe_test

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/medviz/internal/dataframe"
	dferrors "github.com/paveg/medviz/internal/errors"
	"github.com/paveg/medviz/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPressureFrame(mem memory.Allocator) *dataframe.DataFrame {
	return dataframe.New(
		series.New("id", []int64{1, 2, 3, 4}, mem),
		series.New("ap_hi", []int64{110, 140, 110, 100}, mem),
		series.New("ap_lo", []int64{80, 90, 120, 60}, mem),
		series.New("weight", []float64{62, 85, 64, 82}, mem),
		series.New("note", []string{"a", "b", "c", "d"}, mem),
	)
}

func TestDataFrameBasics(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := newPressureFrame(mem)
	defer df.Release()

	assert.Equal(t, 4, df.Len())
	assert.Equal(t, 5, df.Width())
	assert.Equal(t, []string{"id", "ap_hi", "ap_lo", "weight", "note"}, df.Columns())
	assert.True(t, df.HasColumn("ap_lo"))
	assert.False(t, df.HasColumn("cardio"))
	assert.Contains(t, df.String(), "DataFrame[4x5]")
	assert.Equal(t, []string{"id", "ap_hi", "ap_lo", "weight"}, df.NumericColumns())

	empty := dataframe.New()
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, "DataFrame[empty]", empty.String())
}

func TestSetColumn(t *testing.T) {
	mem := memory.NewGoAllocator()

	t.Run("appends new column", func(t *testing.T) {
		df := newPressureFrame(mem)
		defer df.Release()

		require.NoError(t, df.SetColumn(series.New("cardio", []int64{0, 1, 1, 0}, mem)))
		assert.Equal(t, "cardio", df.Columns()[5])
	})

	t.Run("replaces existing column in place", func(t *testing.T) {
		df := newPressureFrame(mem)
		defer df.Release()

		require.NoError(t, df.SetColumn(series.New("ap_hi", []int64{1, 1, 1, 1}, mem)))
		assert.Equal(t, 5, df.Width())
		assert.Equal(t, "ap_hi", df.Columns()[1])

		col, ok := df.Column("ap_hi")
		require.True(t, ok)
		assert.Equal(t, "1", col.GetAsString(3))
	})

	t.Run("rejects length mismatch", func(t *testing.T) {
		df := newPressureFrame(mem)
		defer df.Release()

		s := series.New("cardio", []int64{0, 1}, mem)
		defer s.Release()
		err := df.SetColumn(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected length 4, got 2")
	})
}

func TestFilter(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := newPressureFrame(mem)
	defer df.Release()

	t.Run("keeps masked rows", func(t *testing.T) {
		filtered, err := df.Filter([]bool{true, false, false, true})
		require.NoError(t, err)
		defer filtered.Release()

		assert.Equal(t, 2, filtered.Len())
		assert.Equal(t, df.Columns(), filtered.Columns())

		ids, err := filtered.Float64s("test", "id")
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 4}, ids)

		note, _ := filtered.Column("note")
		assert.Equal(t, "d", note.GetAsString(1))
	})

	t.Run("empty result keeps schema", func(t *testing.T) {
		filtered, err := df.Filter(make([]bool, 4))
		require.NoError(t, err)
		defer filtered.Release()

		assert.Equal(t, 0, filtered.Len())
		assert.Equal(t, 5, filtered.Width())
		assert.Equal(t, df.NumericColumns(), filtered.NumericColumns())
	})

	t.Run("mask length mismatch", func(t *testing.T) {
		_, err := df.Filter([]bool{true})
		require.Error(t, err)
	})

	t.Run("preserves nulls", func(t *testing.T) {
		w, err := series.NewWithValidity("weight", []float64{60, 0}, []bool{true, false}, mem)
		require.NoError(t, err)
		withNull := dataframe.New(w)
		defer withNull.Release()

		filtered, err := withNull.Filter([]bool{false, true})
		require.NoError(t, err)
		defer filtered.Release()

		col, _ := filtered.Column("weight")
		assert.True(t, col.IsNull(0))
	})
}

func TestFloat64s(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := newPressureFrame(mem)
	defer df.Release()

	t.Run("converts int64", func(t *testing.T) {
		v, err := df.Float64s("test", "ap_hi")
		require.NoError(t, err)
		assert.Equal(t, []float64{110, 140, 110, 100}, v)
	})

	t.Run("missing column", func(t *testing.T) {
		_, err := df.Float64s("DeriveOverweight", "height")
		var dfErr *dferrors.DataFrameError
		require.ErrorAs(t, err, &dfErr)
		assert.Equal(t, "height", dfErr.Column)
		assert.Equal(t, "column does not exist", dfErr.Message)
	})

	t.Run("non numeric column", func(t *testing.T) {
		_, err := df.Float64s("DeriveOverweight", "note")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "'note'")
		assert.Contains(t, err.Error(), "expected numeric values")
	})

	t.Run("null value", func(t *testing.T) {
		h, err := series.NewWithValidity("height", []int64{160, 0}, []bool{true, false}, mem)
		require.NoError(t, err)
		withNull := dataframe.New(h)
		defer withNull.Release()

		_, err = withNull.Float64s("DeriveOverweight", "height")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing value at row 1")

		values, valid, err := withNull.NullableFloat64s("FilterForCorrelation", "height")
		require.NoError(t, err)
		assert.Equal(t, []float64{160, 0}, values)
		assert.Equal(t, []bool{true, false}, valid)
	})
}

func TestDerivedTablesUseFrameAllocator(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	df := dataframe.NewWithAllocator(mem,
		series.New("cardio", []int64{0, 1, 1, 0}, mem),
		series.New("ap_hi", []int64{110, 140, 110, 100}, mem),
		series.New("ap_lo", []int64{80, 90, 120, 60}, mem),
	)
	defer df.Release()
	assert.Same(t, mem, df.Allocator())

	derive := map[string]func() (*dataframe.DataFrame, error){
		"filter": func() (*dataframe.DataFrame, error) { return df.Filter([]bool{true, false, true, true}) },
		"melt":   func() (*dataframe.DataFrame, error) { return df.Melt("cardio", []string{"ap_hi", "ap_lo"}) },
		"count":  func() (*dataframe.DataFrame, error) { return df.CountBy("cardio") },
	}
	for name, fn := range derive {
		t.Run(name, func(t *testing.T) {
			before := mem.CurrentAlloc()
			derived, err := fn()
			require.NoError(t, err)
			defer derived.Release()

			assert.Same(t, mem, derived.Allocator())
			assert.Greater(t, mem.CurrentAlloc(), before)
		})
	}

	t.Run("nil selects the Go allocator", func(t *testing.T) {
		assert.NotNil(t, dataframe.NewWithAllocator(nil).Allocator())
		assert.NotNil(t, dataframe.New().Allocator())
	})
}
