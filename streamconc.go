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

// Package streamconc is a one-dimensional model of the advective transport
// of a dissolved pollutant along a stream.
//
// The governing equation
//
//	∂θ/∂t + u(x) ∂θ/∂x = 0
//
// is discretized with backward Euler in time and an upwind difference in
// space. The resulting linear system at each time level is lower
// bidiagonal and is solved exactly by a single forward-substitution sweep,
// so the scheme is stable at any Courant number. The Courant number is
// still reported because large values degrade accuracy.
package streamconc

// Version gives the version number.
const Version = "1.0.0"
