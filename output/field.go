/*
Copyright © 2026 the streamconc authors.
This file is part of streamconc.

streamconc is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

streamconc is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with streamconc.  If not, see <http://www.gnu.org/licenses/>.
*/

package output

import (
	"fmt"
	"image/color"
	"os"
	"sort"

	"github.com/ctessum/plotextra"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// fieldGrid adapts a concentration field to plotter.GridXYZ with distance
// on the horizontal axis and time on the vertical axis.
type fieldGrid struct {
	x, t  []float64
	field mat.Matrix
}

func (g fieldGrid) Dims() (c, r int)   { return len(g.x), len(g.t) }
func (g fieldGrid) Z(c, r int) float64 { return g.field.At(r, c) }
func (g fieldGrid) X(c int) float64    { return g.x[c] }
func (g fieldGrid) Y(r int) float64    { return g.t[r] }

// HighCutPercentile is the fraction of field values that are shown with the
// main color scale in PlotField. Larger values are shown with a separate
// overflow scale so that a few high values near the source do not wash out
// the rest of the figure.
var HighCutPercentile = 0.99

// PlotField plots the whole space-time concentration field as a heat map
// with a color bar and writes it to filename as a PNG image.
func PlotField(filename, title string, x, t []float64, field mat.Matrix) error {
	nt, nx := field.Dims()
	if nx != len(x) || nt != len(t) {
		return fmt.Errorf("output: field is %d×%d but grid is %d×%d", nt, nx, len(t), len(x))
	}
	if nx < 2 || nt < 2 {
		return fmt.Errorf("output: field must have at least 2 nodes and 2 time levels to plot")
	}
	cm, highCut, err := fieldColorMap(field)
	if err != nil {
		return err
	}

	p, err := plot.New()
	if err != nil {
		return fmt.Errorf("output: %v", err)
	}
	p.Title.Text = title
	p.X.Label.Text = DistanceLabel
	p.Y.Label.Text = TimeLabel
	pal, err := sampledPalette(cm, paletteColors)
	if err != nil {
		return err
	}
	hm := plotter.NewHeatMap(fieldGrid{x: x, t: t, field: field}, pal)
	hm.Min, hm.Max = cm.Min(), cm.Max()
	p.Add(hm)

	bar, err := plot.New()
	if err != nil {
		return fmt.Errorf("output: %v", err)
	}
	bar.Add(&plotter.ColorBar{ColorMap: cm, Vertical: true})
	bar.HideX()
	bar.Y.Label.Text = ConcentrationLabel
	bar.Y.Padding = 0
	if highCut < cm.Max() {
		bar.Y.Scale = plotextra.BrokenScale{
			HighCut:         highCut,
			HighCutFraction: 0.9,
		}
		bar.Y.Tick.Marker = plotextra.BrokenTicks{
			HighCut: highCut,
		}
	}

	const barWidth = 1.4 * vg.Inch
	img := vgimg.New(Width+barWidth, Height)
	dc := draw.New(img)
	p.Draw(draw.Crop(dc, 0, -barWidth, 0, 0))
	bar.Draw(draw.Crop(dc, Width, -0.4*vg.Inch, 0, -0.3*vg.Inch))

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("output: %v", err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("output: writing %s: %v", filename, err)
	}
	return f.Close()
}

// paletteColors is the number of colors in the heat map palette.
const paletteColors = 1024

// colors implements palette.Palette.
type colors []color.Color

func (c colors) Colors() []color.Color { return c }

// sampledPalette returns n colors from cm evenly spaced in value between
// cm.Min() and cm.Max(), so that the heat map, which scales its palette
// linearly, shows the same colors as the color bar.
func sampledPalette(cm palette.ColorMap, n int) (colors, error) {
	min, max := cm.Min(), cm.Max()
	p := make(colors, n)
	for i := range p {
		v := min + (max-min)*float64(i)/float64(n-1)
		if i == n-1 || v > max {
			v = max
		}
		c, err := cm.At(v)
		if err != nil {
			return nil, fmt.Errorf("output: creating heat map palette: %v", err)
		}
		p[i] = c
	}
	return p, nil
}

// fieldColorMap creates a color map spanning the range of the field whose
// color scale breaks at HighCutPercentile.
func fieldColorMap(field mat.Matrix) (*plotextra.BrokenColorMap, float64, error) {
	r, c := field.Dims()
	vals := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			vals = append(vals, field.At(i, j))
		}
	}
	sort.Float64s(vals)
	min, max := vals[0], vals[len(vals)-1]
	if min == max {
		max = min + 1
	}
	highCut := vals[int(HighCutPercentile*float64(len(vals)-1))]
	if highCut <= min {
		highCut = max
	}

	overflow, err := moreland.NewLuminance([]color.Color{
		color.NRGBA{G: 176, A: 255},
		color.NRGBA{G: 255, A: 255},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("output: %v", err)
	}
	cm := &plotextra.BrokenColorMap{
		Base:     moreland.ExtendedBlackBody(),
		OverFlow: palette.Reverse(overflow),
	}
	cm.SetMin(min)
	cm.SetMax(max)
	cm.SetHighCut(highCut)
	return cm, highCut, nil
}
