package render

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// paletteSize is the number of discrete colours in the heat map palette.
const paletteSize = 256

// HeatMapOptions controls the correlation heat map.
type HeatMapOptions struct {
	Min, Max         float64 // colour scale; values outside are clamped
	ColorBarShrink   float64 // colour bar height relative to the map
	AnnotationFormat string  // printf format of cell annotations
	ShowDiagonal     bool    // draw the diagonal instead of masking it
	Width            vg.Length
	Height           vg.Length
	DPI              int
}

// UpperTriangleMask returns an n x n mask where true marks a hidden cell:
// every cell above the diagonal, and the diagonal itself unless
// showDiagonal is set.
func UpperTriangleMask(n int, showDiagonal bool) [][]bool {
	mask := make([][]bool, n)
	for i := range mask {
		mask[i] = make([]bool, n)
		for j := range mask[i] {
			mask[i][j] = j > i || (j == i && !showDiagonal)
		}
	}
	return mask
}

// cellGrid exposes a square matrix as a plotter.GridXYZ. Row 0 is drawn at
// the top; masked and undefined cells are NaN.
type cellGrid struct {
	values [][]float64
	mask   [][]bool
}

func (g cellGrid) Dims() (c, r int) { return len(g.values), len(g.values) }

func (g cellGrid) Z(c, r int) float64 {
	i := len(g.values) - 1 - r
	if g.mask[i][c] {
		return math.NaN()
	}
	return g.values[i][c]
}

func (g cellGrid) X(c int) float64 { return float64(c) }

func (g cellGrid) Y(r int) float64 { return float64(r) }

// HeatMap draws the lower triangle of the square matrix values with labels
// on both axes, one annotation per visible defined cell and a colour bar.
// Cells are square and there are no grid lines.
func HeatMap(labels []string, values [][]float64, opts HeatMapOptions) (*Figure, error) {
	n := len(labels)
	if n == 0 {
		return nil, fmt.Errorf("empty correlation matrix")
	}
	if len(values) != n {
		return nil, fmt.Errorf("matrix has %d rows for %d labels", len(values), n)
	}
	for i, row := range values {
		if len(row) != n {
			return nil, fmt.Errorf("matrix row %d has %d values, want %d", i, len(row), n)
		}
	}
	if opts.Min >= opts.Max {
		return nil, fmt.Errorf("colour scale min %g must be below max %g", opts.Min, opts.Max)
	}
	format := opts.AnnotationFormat
	if format == "" {
		format = "%.1f"
	}

	cm := moreland.ExtendedBlackBody()
	cm.SetMin(opts.Min)
	cm.SetMax(opts.Max)
	pal := cm.Palette(paletteSize)
	colors := pal.Colors()

	grid := cellGrid{values: values, mask: UpperTriangleMask(n, opts.ShowDiagonal)}
	hm := plotter.NewHeatMap(grid, pal)
	hm.Min, hm.Max = opts.Min, opts.Max
	hm.Underflow = colors[0]
	hm.Overflow = colors[len(colors)-1]
	hm.NaN = nil

	p := plot.New()
	p.Add(hm)
	p.X.Tick.Marker = axisTicks(labels, false)
	p.Y.Tick.Marker = axisTicks(labels, true)
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.X.Padding, p.Y.Padding = 0, 0

	annotations, err := annotate(grid, format, opts, colors)
	if err != nil {
		return nil, err
	}
	if annotations != nil {
		p.Add(annotations)
	}

	bar := plot.New()
	bar.Add(&plotter.ColorBar{ColorMap: cm, Vertical: true})
	bar.HideX()
	bar.Y.Padding = 0

	shrink := opts.ColorBarShrink
	if shrink <= 0 || shrink > 1 {
		shrink = 1
	}

	return &Figure{
		Width:  opts.Width,
		Height: opts.Height,
		DPI:    opts.DPI,
		draw: func(dc draw.Canvas) {
			drawHeatMap(dc, p, bar, shrink)
		},
	}, nil
}

// drawHeatMap lays out the map on the left with a square data area and the
// colour bar on the right, vertically centred on the data area.
func drawHeatMap(dc draw.Canvas, p, bar *plot.Plot, shrink float64) {
	const barShare = 0.15

	width := dc.Max.X - dc.Min.X
	mapArea := draw.Crop(dc, 0, -width*barShare, 0, 0)

	data := p.DataCanvas(mapArea)
	dw, dh := data.Max.X-data.Min.X, data.Max.Y-data.Min.Y
	if dw > dh {
		mapArea = draw.Crop(mapArea, 0, -(dw - dh), 0, 0)
	} else {
		mapArea = draw.Crop(mapArea, 0, 0, dh-dw, 0)
	}
	p.Draw(mapArea)

	data = p.DataCanvas(mapArea)
	side := data.Max.Y - data.Min.Y
	barHeight := side * vg.Length(shrink)
	margin := (side - barHeight) / 2

	barArea := dc
	barArea.Min.X = mapArea.Max.X + vg.Millimeter*4
	barArea.Max.X = barArea.Min.X + width*barShare*0.6
	barArea.Min.Y = data.Min.Y + margin
	barArea.Max.Y = data.Max.Y - margin
	bar.Draw(barArea)
}

func axisTicks(labels []string, reversed bool) plot.ConstantTicks {
	ticks := make(plot.ConstantTicks, len(labels))
	for i, label := range labels {
		pos := i
		if reversed {
			pos = len(labels) - 1 - i
		}
		ticks[i] = plot.Tick{Value: float64(pos), Label: label}
	}
	return ticks
}

// annotate labels every visible defined cell with its value. Text is white
// on the darker half of the palette and black on the lighter half.
func annotate(grid cellGrid, format string, opts HeatMapOptions, colors []color.Color) (*plotter.Labels, error) {
	var xys plotter.XYs
	var texts []string
	var dark []bool

	c, r := grid.Dims()
	for row := 0; row < r; row++ {
		for col := 0; col < c; col++ {
			v := grid.Z(col, row)
			if math.IsNaN(v) {
				continue
			}
			xys = append(xys, plotter.XY{X: grid.X(col), Y: grid.Y(row)})
			texts = append(texts, fmt.Sprintf(format, v))
			dark = append(dark, v < opts.Min+(opts.Max-opts.Min)/2)
		}
	}
	if len(xys) == 0 {
		return nil, nil
	}

	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return nil, fmt.Errorf("annotations: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
		if dark[i] {
			labels.TextStyle[i].Color = color.White
		} else {
			labels.TextStyle[i].Color = colors[0]
		}
	}
	return labels, nil
}
