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
	"fmt"
	"math"

	"github.com/ctessum/unit"
)

// DefaultCFLWarn is the Courant number above which Solve warns that the
// discretization is losing accuracy.
const DefaultCFLWarn = 1.0

// Velocity is the stream velocity [m/s]. It is either Uniform, which applies
// the same value at every node, or Spatial, which holds one value per node.
type Velocity interface {
	// Resolve returns the velocity at each of nx nodes.
	Resolve(nx int) ([]float64, error)

	isVelocity()
}

// Uniform is a velocity that is the same at every spatial node.
type Uniform float64

// Resolve returns u broadcast to nx nodes.
func (u Uniform) Resolve(nx int) ([]float64, error) {
	o := make([]float64, nx)
	for i := range o {
		o[i] = float64(u)
	}
	return o, nil
}

func (Uniform) isVelocity() {}

// Spatial is a velocity with one value for each spatial node.
type Spatial []float64

// Resolve returns a copy of u. It fails unless len(u) == nx.
func (u Spatial) Resolve(nx int) ([]float64, error) {
	if len(u) != nx {
		return nil, fmt.Errorf("%w: velocity has %d values but the grid has %d nodes", ErrLength, len(u), nx)
	}
	return append([]float64(nil), u...), nil
}

func (Spatial) isVelocity() {}

// CourantNumber returns max(|u|·Δt/Δx) over all nodes.
func CourantNumber(u Velocity, Δt, Δx float64) float64 {
	r := Δt / Δx
	switch v := u.(type) {
	case Uniform:
		return math.Abs(float64(v)) * r
	case Spatial:
		var c float64
		for _, ui := range v {
			c = math.Max(c, math.Abs(ui)*r)
		}
		return c
	default:
		panic(fmt.Errorf("streamconc: invalid velocity type %T", u))
	}
}

// CourantDimensions calculates the Courant number from dimensioned
// quantities. It returns an error unless u is a speed, Δt is a time and Δx is
// a length.
func CourantDimensions(u, Δt, Δx *unit.Unit) (float64, error) {
	for _, q := range []struct {
		name string
		v    *unit.Unit
		d    unit.Dimensions
	}{
		{"velocity", u, unit.MeterPerSecond},
		{"time step", Δt, unit.Second},
		{"spatial step", Δx, unit.Meter},
	} {
		if err := q.v.Check(q.d); err != nil {
			return math.NaN(), fmt.Errorf("streamconc: %s: %v", q.name, err)
		}
	}
	c := unit.Div(unit.Mul(u, Δt), Δx)
	if err := c.Check(unit.Dimensions{}); err != nil {
		return math.NaN(), fmt.Errorf("streamconc: Courant number: %v", err)
	}
	return math.Abs(c.Value()), nil
}

// Coefficients holds the per-node coefficients of the linear system solved at
// each time level:
//
//	A[i]·θⁿ⁺¹[i] = θⁿ[i]/Δt + B[i]·θⁿ⁺¹[i-1]
//
// where A[i] = 1/Δt + u[i]/Δx and B[i] = u[i]/Δx. A[i] cannot be zero for
// Δt > 0 and non-negative u.
type Coefficients struct {
	A, B []float64

	invΔt float64
}

// BuildCoefficients resolves the velocity onto nx nodes and calculates the
// coefficients for time step Δt [s] and spatial step Δx [m].
func BuildCoefficients(u Velocity, Δt, Δx float64, nx int) (*Coefficients, error) {
	if u == nil {
		return nil, fmt.Errorf("%w: velocity is nil", ErrDomain)
	}
	uu, err := u.Resolve(nx)
	if err != nil {
		return nil, err
	}
	c := &Coefficients{
		A:     make([]float64, nx),
		B:     make([]float64, nx),
		invΔt: 1 / Δt,
	}
	for i, ui := range uu {
		c.B[i] = ui / Δx
		c.A[i] = c.invΔt + c.B[i]
	}
	return c, nil
}

// Step returns the concentrations at the next time level given the
// concentrations prev at the current level and the upstream boundary value
// for the next level.
func Step(prev []float64, c *Coefficients, boundary float64) ([]float64, error) {
	if len(prev) != len(c.A) {
		return nil, fmt.Errorf("%w: field has %d values but coefficients have %d", ErrLength, len(prev), len(c.A))
	}
	next := make([]float64, len(prev))
	c.sweep(next, prev, boundary)
	return next, nil
}

// sweep solves the bidiagonal system by forward substitution, writing the
// result into next. Node i depends on the new value at node i-1, so the loop
// must run in increasing order.
func (c *Coefficients) sweep(next, prev []float64, boundary float64) {
	next[0] = boundary
	for i := 1; i < len(next); i++ {
		next[i] = (prev[i]*c.invΔt + c.B[i]*next[i-1]) / c.A[i]
	}
}
