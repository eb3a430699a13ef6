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
	"io"
	"math"
	"time"
)

// StepManipulator is a function that is run after each time level n (at
// time t [s]) has been calculated. row holds the concentrations at that level
// and must not be modified. Returning an error stops the simulation.
type StepManipulator func(n int, t float64, row []float64) error

// Log writes simulation status messages to w.
func Log(w io.Writer) StepManipulator {
	startTime := time.Now()
	stepTime := time.Now()
	return func(n int, t float64, row []float64) error {
		max := math.Inf(-1)
		for _, v := range row {
			max = math.Max(max, v)
		}
		fmt.Fprintf(w, "Time level %-4d  walltime=%6.3gs  Δwalltime=%4.2gs  "+
			"t=%.4gs  max θ=%.4g\n",
			n, time.Since(startTime).Seconds(), time.Since(stepTime).Seconds(), t, max)
		stepTime = time.Now()
		return nil
	}
}

// CheckFinite returns an error at the first time level that contains a NaN
// or infinite concentration. Solve does not check for these itself, so
// this can be used when the input data come from an untrusted source.
func CheckFinite() StepManipulator {
	return func(n int, t float64, row []float64) error {
		for i, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("streamconc: non-finite concentration %g at node %d, time level %d (t=%gs)", v, i, n, t)
			}
		}
		return nil
	}
}
