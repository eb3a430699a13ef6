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

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// CFLWarning reports that the Courant number of a simulation exceeds the
// warning threshold. The simulation still runs; the implicit scheme is
// stable at any Courant number but loses accuracy.
type CFLWarning struct {
	Courant, Threshold float64
}

func (w CFLWarning) String() string {
	return fmt.Sprintf("Courant number %.3g exceeds %.3g; results may be inaccurate", w.Courant, w.Threshold)
}

// Diagnostics holds information about a completed call to Solve.
type Diagnostics struct {
	Courant  float64
	Warnings []CFLWarning
}

// solver holds the settings of one call to Solve.
type solver struct {
	cflWarn   float64
	log       logrus.FieldLogger
	report    *Diagnostics
	afterStep []StepManipulator
}

// SolveOption changes the way Solve runs.
type SolveOption func(*solver) error

// CFLWarn sets the Courant number above which Solve emits a warning.
// The default is DefaultCFLWarn.
func CFLWarn(threshold float64) SolveOption {
	return func(s *solver) error {
		if !(threshold > 0) {
			return fmt.Errorf("streamconc: CFL warning threshold must be >0 but is %g", threshold)
		}
		s.cflWarn = threshold
		return nil
	}
}

// Logger sets where warnings are written. The default is the logrus
// standard logger.
func Logger(l logrus.FieldLogger) SolveOption {
	return func(s *solver) error {
		s.log = l
		return nil
	}
}

// Report causes Solve to store its diagnostics in d.
func Report(d *Diagnostics) SolveOption {
	return func(s *solver) error {
		s.report = d
		return nil
	}
}

// AfterStep adds functions to be run after each time level is calculated.
func AfterStep(f ...StepManipulator) SolveOption {
	return func(s *solver) error {
		s.afterStep = append(s.afterStep, f...)
		return nil
	}
}

// Solve calculates pollutant concentrations at every node of x for every time
// in t. theta0 is the initial concentration at each node and boundary is the
// concentration at the upstream node (index 0) at each time. u is the stream
// velocity and dx and dt are the spatial and temporal steps.
//
// The result has one row per time level and one column per node. Row 0 is a
// copy of theta0 and column 0 of every later row equals the boundary value at
// that time. Inputs are not modified. Non-finite inputs are propagated rather
// than detected.
func Solve(theta0, boundary, x, t []float64, u Velocity, dx, dt float64, opts ...SolveOption) (*mat.Dense, error) {
	if u == nil {
		return nil, fmt.Errorf("%w: velocity is nil", ErrDomain)
	}
	nx, nt := len(x), len(t)
	if len(theta0) != nx {
		return nil, fmt.Errorf("%w: initial condition has %d values but the grid has %d nodes", ErrLength, len(theta0), nx)
	}
	if len(boundary) != nt {
		return nil, fmt.Errorf("%w: boundary history has %d values but the grid has %d time levels", ErrLength, len(boundary), nt)
	}
	if nx == 0 || nt == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrDomain)
	}
	s := &solver{cflWarn: DefaultCFLWarn, log: logrus.StandardLogger()}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	c, err := BuildCoefficients(u, dt, dx, nx)
	if err != nil {
		return nil, err
	}

	diag := Diagnostics{Courant: CourantNumber(u, dt, dx)}
	if diag.Courant > s.cflWarn {
		w := CFLWarning{Courant: diag.Courant, Threshold: s.cflWarn}
		diag.Warnings = append(diag.Warnings, w)
		s.log.WithFields(logrus.Fields{
			"courant":   w.Courant,
			"threshold": w.Threshold,
		}).Warn(w.String())
	}
	if s.report != nil {
		*s.report = diag
	}

	field := mat.NewDense(nt, nx, nil)
	field.SetRow(0, theta0)
	for _, f := range s.afterStep {
		if err := f(0, t[0], field.RawRowView(0)); err != nil {
			return nil, err
		}
	}
	for n := 1; n < nt; n++ {
		c.sweep(field.RawRowView(n), field.RawRowView(n-1), boundary[n])
		for _, f := range s.afterStep {
			if err := f(n, t[n], field.RawRowView(n)); err != nil {
				return nil, err
			}
		}
	}
	return field, nil
}
