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

// Package output creates figures and data files from streamconc simulation
// results.
package output

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Axis labels.
const (
	DistanceLabel      = "Distance downstream, x (m)"
	TimeLabel          = "Time, t (s)"
	ConcentrationLabel = "Pollutant concentration, Θ (µg/m³)"
)

// Figure dimensions.
var (
	Width  = 6 * vg.Inch
	Height = 4 * vg.Inch
)

// newPlot creates a plot with the given title and axis labels and
// background grid lines.
func newPlot(title, xLabel string) (*plot.Plot, error) {
	p, err := plot.New()
	if err != nil {
		return nil, fmt.Errorf("output: %v", err)
	}
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = ConcentrationLabel
	p.Add(plotter.NewGrid())
	return p, nil
}

func xys(x, y []float64) (plotter.XYs, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("output: %d coordinates but %d values", len(x), len(y))
	}
	xy := make(plotter.XYs, len(x))
	for i := range x {
		xy[i].X = x[i]
		xy[i].Y = y[i]
	}
	return xy, nil
}

func save(p *plot.Plot, filename string) error {
	if err := p.Save(Width, Height, filename); err != nil {
		return fmt.Errorf("output: saving %s: %v", filename, err)
	}
	return nil
}

// PlotProfile plots concentration theta against distance x at the given
// time [s] and saves the figure to filename. The image format is determined
// by the file extension.
func PlotProfile(filename, title string, x, theta []float64, time float64) error {
	p, err := newPlot(fmt.Sprintf("%s\nProfile at t = %.0f s", title, time), DistanceLabel)
	if err != nil {
		return err
	}
	xy, err := xys(x, theta)
	if err != nil {
		return err
	}
	l, err := plotter.NewLine(xy)
	if err != nil {
		return fmt.Errorf("output: %v", err)
	}
	p.Add(l)
	return save(p, filename)
}

// PlotTimeSeries plots the upstream boundary concentration against time t
// and saves the figure to filename.
func PlotTimeSeries(filename, title string, t, boundary []float64) error {
	p, err := newPlot(title+"\nUpstream boundary concentration at x = 0", TimeLabel)
	if err != nil {
		return err
	}
	xy, err := xys(t, boundary)
	if err != nil {
		return err
	}
	l, err := plotter.NewLine(xy)
	if err != nil {
		return fmt.Errorf("output: %v", err)
	}
	p.Add(l)
	return save(p, filename)
}

// PlotProfiles plots several concentration profiles on the same
// distance axis, each with a legend entry from labels, and saves the
// figure to filename.
func PlotProfiles(filename, title string, x []float64, profiles [][]float64, labels []string, time float64) error {
	if len(profiles) != len(labels) {
		return fmt.Errorf("output: %d profiles but %d labels", len(profiles), len(labels))
	}
	p, err := newPlot(fmt.Sprintf("%s\nFinal-time comparison at t = %.0f s", title, time), DistanceLabel)
	if err != nil {
		return err
	}
	p.Legend.Top = true
	for i, theta := range profiles {
		xy, err := xys(x, theta)
		if err != nil {
			return err
		}
		l, err := plotter.NewLine(xy)
		if err != nil {
			return fmt.Errorf("output: %v", err)
		}
		l.Color = plotutil.Color(i)
		l.Dashes = plotutil.Dashes(i)
		p.Add(l)
		p.Legend.Add(labels[i], l)
	}
	return save(p, filename)
}
