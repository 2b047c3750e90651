package render

import (
	"fmt"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Count is one bar of the count plot: the number of rows in facet Facet
// whose Variable has value Value.
type Count struct {
	Facet    int64
	Variable string
	Value    int64
	Total    int64
}

// CatPlotOptions controls the count plot.
type CatPlotOptions struct {
	FacetName string // column the facets split on
	Width     vg.Length
	Height    vg.Length
	DPI       int
}

// CatPlot draws one bar chart per distinct facet value, in ascending order.
// Each chart has one group of bars per variable (sorted) and one bar per
// value, coloured by value. Facets share the y axis.
func CatPlot(counts []Count, opts CatPlotOptions) (*Figure, error) {
	if len(counts) == 0 {
		return nil, fmt.Errorf("no counts to plot")
	}

	var facets, values []int64
	var variables []string
	for _, c := range counts {
		facets = appendUnique(facets, c.Facet)
		values = appendUnique(values, c.Value)
		variables = appendUnique(variables, c.Variable)
	}
	slices.Sort(facets)
	slices.Sort(values)
	slices.Sort(variables)

	varIndex := make(map[string]int, len(variables))
	for i, v := range variables {
		varIndex[v] = i
	}

	var maxTotal int64
	for _, c := range counts {
		maxTotal = max(maxTotal, c.Total)
	}

	plots := make([][]*plot.Plot, 1)
	for fi, facet := range facets {
		p := plot.New()
		p.Title.Text = fmt.Sprintf("%s = %d", opts.FacetName, facet)
		p.X.Label.Text = "variable"
		p.Y.Label.Text = "total"
		p.Y.Min = 0
		p.Y.Max = float64(maxTotal) * 1.05

		barWidth := vg.Points(60) / vg.Length(len(values))
		for vi, value := range values {
			heights := make(plotter.Values, len(variables))
			for _, c := range counts {
				if c.Facet == facet && c.Value == value {
					heights[varIndex[c.Variable]] = float64(c.Total)
				}
			}

			bars, err := plotter.NewBarChart(heights, barWidth)
			if err != nil {
				return nil, fmt.Errorf("bars for %s = %d: %w", opts.FacetName, facet, err)
			}
			bars.LineStyle.Width = 0
			bars.Color = plotutil.Color(vi)
			bars.Offset = barWidth * (vg.Length(vi) - vg.Length(len(values)-1)/2)
			p.Add(bars)

			if fi == len(facets)-1 {
				p.Legend.Add(fmt.Sprintf("value = %d", value), bars)
			}
		}

		p.Legend.Top = true
		p.NominalX(variables...)
		plots[0] = append(plots[0], p)
	}

	tiles := draw.Tiles{
		Rows:      1,
		Cols:      len(facets),
		PadX:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}

	return &Figure{
		Width:  opts.Width,
		Height: opts.Height,
		DPI:    opts.DPI,
		draw: func(dc draw.Canvas) {
			canvases := plot.Align(plots, tiles, dc)
			for j, p := range plots[0] {
				p.Draw(canvases[0][j])
			}
		},
	}, nil
}

func appendUnique[T comparable](s []T, v T) []T {
	if slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}
