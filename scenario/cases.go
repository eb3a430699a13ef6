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

package scenario

import (
	"fmt"

	"github.com/spatialmodel/streamconc"
	"github.com/spatialmodel/streamconc/ingest"
	"gonum.org/v1/gonum/mat"
)

// Case holds everything needed to run one simulation.
type Case struct {
	// Name is a short identifier used in file names, e.g. "case1".
	Name string

	// Title describes the case in figure titles.
	Title string

	Grid     *streamconc.Grid
	Theta0   []float64 // Initial condition [μg/m³]
	Boundary []float64 // Upstream boundary history [μg/m³]
	Velocity streamconc.Velocity

	// TimeVaryingBoundary is true when the boundary history is worth
	// plotting separately.
	TimeVaryingBoundary bool
}

// Solve runs the simulation for the case.
func (c *Case) Solve(opts ...streamconc.SolveOption) (*mat.Dense, error) {
	field, err := streamconc.Solve(c.Theta0, c.Boundary, c.Grid.X(), c.Grid.T(), c.Velocity, c.Grid.Dx, c.Grid.Dt, opts...)
	if err != nil {
		return nil, fmt.Errorf("scenario: %s: %w", c.Name, err)
	}
	return field, nil
}

// Case1 is the baseline case: a concentration spike at the source, a
// constant upstream boundary and a constant velocity.
func Case1(g *streamconc.Grid, source, u float64) *Case {
	return &Case{
		Name:                "case1",
		Title:               "Test Case 1: Concentration vs distance (baseline case)",
		Grid:                g,
		Theta0:              SpikeAtSource(g.X(), source),
		Boundary:            ConstantBoundary(g.T(), source),
		Velocity:            streamconc.Uniform(u),
		TimeVaryingBoundary: true,
	}
}

// Case2 is the same as Case1 except that the initial condition is a
// measured profile interpolated onto the grid.
func Case2(g *streamconc.Grid, source, u float64, p *ingest.Profile, policy ingest.Policy) (*Case, error) {
	theta0, err := p.Interpolate(g.X(), policy)
	if err != nil {
		return nil, fmt.Errorf("scenario: case2 initial conditions: %w", err)
	}
	return &Case{
		Name:     "case2",
		Title:    "Test Case 2: Concentration vs distance (initial condition from CSV)",
		Grid:     g,
		Theta0:   theta0,
		Boundary: ConstantBoundary(g.T(), source),
		Velocity: streamconc.Uniform(u),
	}, nil
}

// Case4 has an upstream boundary concentration that decays exponentially
// at rate k [1/s].
func Case4(g *streamconc.Grid, source, u, k float64) *Case {
	return &Case{
		Name:                "case4",
		Title:               "Test Case 4: Concentration vs distance (decaying source)",
		Grid:                g,
		Theta0:              SpikeAtSource(g.X(), source),
		Boundary:            ExpDecayBoundary(g.T(), source, k),
		Velocity:            streamconc.Uniform(u),
		TimeVaryingBoundary: true,
	}
}

// Case5 has a velocity that varies randomly along the stream by up to
// fraction p of u. The seed makes the field reproducible.
func Case5(g *streamconc.Grid, source, u float64, seed int64, p float64) (*Case, error) {
	v, err := PerturbedVelocity(g.X(), u, seed, p)
	if err != nil {
		return nil, err
	}
	return &Case{
		Name:     "case5",
		Title:    "Test Case 5: Concentration vs distance (variable velocity)",
		Grid:     g,
		Theta0:   SpikeAtSource(g.X(), source),
		Boundary: ConstantBoundary(g.T(), source),
		Velocity: v,
	}, nil
}
