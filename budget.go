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

	"github.com/ctessum/atmos/advect"
	"gonum.org/v1/gonum/mat"
)

// Budget is a mass budget of a simulation, per unit cross-sectional area.
// Each slice has one value per time level.
type Budget struct {
	// Stored is the mass in the domain downstream of the boundary node
	// [μg/m²].
	Stored []float64

	// Inflow and Outflow are the mass fluxes across the upstream and
	// downstream edges of the domain [μg/m²/s].
	Inflow, Outflow []float64

	// Residual is Stored minus the initial storage and the accumulated net
	// inflow [μg/m²]. It is zero to round-off for a uniform velocity; for a
	// spatially varying velocity the advective form of the equation
	// does not conserve mass and the residual shows by how much.
	Residual []float64
}

// MassBudget calculates the mass budget of a concentration field returned by
// Solve for velocity u, spatial step dx and time step dt.
func MassBudget(field *mat.Dense, u Velocity, dx, dt float64) (*Budget, error) {
	nt, nx := field.Dims()
	if nx < 2 {
		return nil, fmt.Errorf("%w: a mass budget needs at least 2 nodes but the field has %d", ErrLength, nx)
	}
	uu, err := u.Resolve(nx)
	if err != nil {
		return nil, err
	}
	b := &Budget{
		Stored:   make([]float64, nt),
		Inflow:   make([]float64, nt),
		Outflow:  make([]float64, nt),
		Residual: make([]float64, nt),
	}
	var accumulated float64
	for n := 0; n < nt; n++ {
		row := field.RawRowView(n)
		for _, v := range row[1:] {
			b.Stored[n] += v * dx
		}
		// Fluxes are converted from concentration change rates to mass
		// fluxes by multiplying by the cell length.
		b.Inflow[n] = advect.UpwindFlux(uu[1], row[0], row[1], dx) * dx
		b.Outflow[n] = advect.UpwindFlux(uu[nx-1], row[nx-1], 0, dx) * dx
		if n > 0 {
			accumulated += (b.Inflow[n] - b.Outflow[n]) * dt
		}
		b.Residual[n] = b.Stored[n] - b.Stored[0] - accumulated
	}
	return b, nil
}

// Finite reports whether every value in field is a finite number.
func Finite(field *mat.Dense) bool {
	r, c := field.Dims()
	for n := 0; n < r; n++ {
		for _, v := range field.RawRowView(n)[:c] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
