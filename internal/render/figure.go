// Package render draws the count plot and the correlation heat map with
// gonum/plot and writes them as image or vector files.
package render

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// DefaultDPI is the resolution of raster output when none is given.
const DefaultDPI = 100

// Figure is a rendered chart that can be written in any supported format.
type Figure struct {
	Width, Height vg.Length
	DPI           int
	draw          func(dc draw.Canvas)
}

// WriteTo draws the figure in format (png, jpg, tif, svg, pdf or eps) and
// writes it to w.
func (f *Figure) WriteTo(w io.Writer, format string) (int64, error) {
	c, err := f.canvas(format)
	if err != nil {
		return 0, err
	}

	dc := draw.New(c)
	dc.SetColor(color.White)
	dc.Fill(dc.Rectangle.Path())
	f.draw(dc)

	return c.WriteTo(w)
}

// Save writes the figure to path, choosing the format from its extension.
func (f *Figure) Save(path string) error {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if format == "" {
		return fmt.Errorf("no file extension in %s", path)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := f.WriteTo(out, format); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

func (f *Figure) canvas(format string) (vg.CanvasWriterTo, error) {
	dpi := f.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	raster := func() *vgimg.Canvas {
		return vgimg.NewWith(vgimg.UseWH(f.Width, f.Height), vgimg.UseDPI(dpi))
	}

	switch strings.ToLower(format) {
	case "png":
		return vgimg.PngCanvas{Canvas: raster()}, nil
	case "jpg", "jpeg":
		return vgimg.JpegCanvas{Canvas: raster()}, nil
	case "tif", "tiff":
		return vgimg.TiffCanvas{Canvas: raster()}, nil
	default:
		c, err := draw.NewFormattedCanvas(f.Width, f.Height, strings.ToLower(format))
		if err != nil {
			return nil, fmt.Errorf("unsupported figure format %q: %w", format, err)
		}
		return c, nil
	}
}

// Inches converts a size in inches to a vg.Length.
func Inches(v float64) vg.Length {
	return vg.Length(v) * vg.Inch
}
