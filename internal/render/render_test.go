package render_test

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/paveg/medviz/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func sampleCounts() []render.Count {
	var counts []render.Count
	for _, facet := range []int64{0, 1} {
		for i, variable := range []string{"active", "alco", "cholesterol", "gluc", "overweight", "smoke"} {
			counts = append(counts,
				render.Count{Facet: facet, Variable: variable, Value: 0, Total: int64(10 + i)},
				render.Count{Facet: facet, Variable: variable, Value: 1, Total: int64(20 - i)},
			)
		}
	}
	return counts
}

func heatMapOptions() render.HeatMapOptions {
	return render.HeatMapOptions{
		Min:              0,
		Max:              0.25,
		ColorBarShrink:   0.7,
		AnnotationFormat: "%.1f",
		Width:            render.Inches(6),
		Height:           render.Inches(6),
		DPI:              50,
	}
}

func TestUpperTriangleMask(t *testing.T) {
	mask := render.UpperTriangleMask(3, false)
	assert.Equal(t, [][]bool{
		{true, true, true},
		{false, true, true},
		{false, false, true},
	}, mask)

	withDiagonal := render.UpperTriangleMask(3, true)
	for i := 0; i < 3; i++ {
		assert.False(t, withDiagonal[i][i])
		for j := 0; j < 3; j++ {
			assert.Equal(t, j > i, withDiagonal[i][j])
		}
	}

	assert.Empty(t, render.UpperTriangleMask(0, false))
}

func TestCatPlot(t *testing.T) {
	fig, err := render.CatPlot(sampleCounts(), render.CatPlotOptions{
		FacetName: "cardio",
		Width:     render.Inches(8),
		Height:    render.Inches(4),
		DPI:       50,
	})
	require.NoError(t, err)

	t.Run("png", func(t *testing.T) {
		var buf bytes.Buffer
		n, err := fig.WriteTo(&buf, "png")
		require.NoError(t, err)
		assert.Equal(t, int64(buf.Len()), n)
		assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
	})

	t.Run("svg", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := fig.WriteTo(&buf, "svg")
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "<svg")
		assert.Contains(t, buf.String(), "cardio = 1")
		assert.Contains(t, buf.String(), "overweight")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := fig.WriteTo(&bytes.Buffer{}, "bmp")
		require.Error(t, err)
	})

	t.Run("no counts", func(t *testing.T) {
		_, err := render.CatPlot(nil, render.CatPlotOptions{})
		require.Error(t, err)
	})
}

func TestHeatMap(t *testing.T) {
	labels := []string{"age", "height", "weight"}
	values := [][]float64{
		{1, 0.05, 0.3},
		{0.05, 1, -0.2},
		{0.3, -0.2, 1},
	}

	t.Run("renders png", func(t *testing.T) {
		fig, err := render.HeatMap(labels, values, heatMapOptions())
		require.NoError(t, err)

		var buf bytes.Buffer
		_, err = fig.WriteTo(&buf, "png")
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
	})

	t.Run("annotations cover the lower triangle only", func(t *testing.T) {
		fig, err := render.HeatMap(labels, values, heatMapOptions())
		require.NoError(t, err)

		var buf bytes.Buffer
		_, err = fig.WriteTo(&buf, "svg")
		require.NoError(t, err)
		svg := buf.String()

		assert.Contains(t, svg, ">0.1<", "0.05 is shown with one decimal")
		assert.Contains(t, svg, ">-0.2<")
		assert.NotContains(t, svg, ">1.0<", "the diagonal is masked")
	})

	t.Run("diagonal can be shown", func(t *testing.T) {
		opts := heatMapOptions()
		opts.ShowDiagonal = true
		fig, err := render.HeatMap(labels, values, opts)
		require.NoError(t, err)

		var buf bytes.Buffer
		_, err = fig.WriteTo(&buf, "svg")
		require.NoError(t, err)
		assert.Contains(t, buf.String(), ">1.0<")
	})

	t.Run("undefined matrix renders blank", func(t *testing.T) {
		nan := math.NaN()
		blank := [][]float64{{nan, nan}, {nan, nan}}
		fig, err := render.HeatMap([]string{"a", "b"}, blank, heatMapOptions())
		require.NoError(t, err)

		var buf bytes.Buffer
		_, err = fig.WriteTo(&buf, "png")
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := render.HeatMap(nil, nil, heatMapOptions())
		require.Error(t, err)

		_, err = render.HeatMap(labels, values[:2], heatMapOptions())
		require.Error(t, err)

		opts := heatMapOptions()
		opts.Max = opts.Min
		_, err = render.HeatMap(labels, values, opts)
		require.Error(t, err)
	})
}

func TestFigureSave(t *testing.T) {
	fig, err := render.CatPlot(sampleCounts(), render.CatPlotOptions{
		FacetName: "cardio", Width: render.Inches(6), Height: render.Inches(3), DPI: 40,
	})
	require.NoError(t, err)

	dir := t.TempDir()
	for _, name := range []string{"catplot.png", "catplot.svg", "catplot.pdf"} {
		path := filepath.Join(dir, name)
		require.NoError(t, fig.Save(path))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size(), name)
	}

	require.Error(t, fig.Save(filepath.Join(dir, "catplot")))
}
