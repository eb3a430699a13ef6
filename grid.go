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

package streamconc

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrDomain is returned when a domain length, duration or step size is not a
// positive, finite number.
var ErrDomain = errors.New("streamconc: invalid domain")

// ErrLength is returned when the length of an input sequence does not match
// the grid it is used with.
var ErrLength = errors.New("streamconc: length mismatch")

// BuildGrid returns uniformly spaced spatial coordinates spanning [0, L] with
// spacing dx and temporal coordinates spanning [0, T] with spacing dt. Both
// end points are included. The number of spatial nodes is round(L/dx)+1 and
// the number of time levels is round(T/dt)+1. A step larger than the span
// results in a two-point sequence.
func BuildGrid(L, T, dx, dt float64) (x, t []float64, err error) {
	names := []string{"L", "T", "dx", "dt"}
	for i, v := range []float64{L, T, dx, dt} {
		if !(v > 0) || math.IsInf(v, 0) {
			return nil, nil, fmt.Errorf("%w: %s=%g but should be >0", ErrDomain, names[i], v)
		}
	}
	x = span(L, dx)
	t = span(T, dt)
	return x, t, nil
}

// span returns round(end/step)+1 evenly spaced values from 0 to end.
func span(end, step float64) []float64 {
	n := int(math.Round(end/step)) + 1
	if n < 2 {
		n = 2
	}
	s := floats.Span(make([]float64, n), 0, end)
	s[n-1] = end // Span can be off by round-off at the upper end.
	return s
}

// Grid holds the spatial and temporal coordinates of a simulation. The
// coordinates cannot be changed after the grid is created.
type Grid struct {
	Length   float64 // Stream length [m]
	Duration float64 // Simulated time [s]
	Dx       float64 // Spatial step [m]
	Dt       float64 // Time step [s]

	x, t []float64
}

// NewGrid creates a new grid. See BuildGrid for details.
func NewGrid(L, T, dx, dt float64) (*Grid, error) {
	x, t, err := BuildGrid(L, T, dx, dt)
	if err != nil {
		return nil, err
	}
	return &Grid{Length: L, Duration: T, Dx: dx, Dt: dt, x: x, t: t}, nil
}

// X returns a copy of the spatial coordinates [m].
func (g *Grid) X() []float64 { return append([]float64(nil), g.x...) }

// T returns a copy of the temporal coordinates [s].
func (g *Grid) T() []float64 { return append([]float64(nil), g.t...) }

// Nx returns the number of spatial nodes.
func (g *Grid) Nx() int { return len(g.x) }

// Nt returns the number of time levels.
func (g *Grid) Nt() int { return len(g.t) }
