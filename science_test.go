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
	"math"
	"testing"

	"github.com/ctessum/unit"
	"gonum.org/v1/gonum/mat"
)

func TestCourantNumber(t *testing.T) {
	var tests = []struct {
		name   string
		u      Velocity
		dt, dx float64
		want   float64
	}{
		{name: "uniform", u: Uniform(0.2), dt: 0.1, dx: 0.1, want: 0.2},
		{name: "baseline", u: Uniform(0.1), dt: 10, dx: 0.2, want: 5},
		{name: "negative", u: Uniform(-0.5), dt: 1, dx: 1, want: 0.5},
		{name: "spatial", u: Spatial{0.1, 0.3, 0.2}, dt: 2, dx: 1, want: 0.6},
		{name: "spatial negative", u: Spatial{0.1, -0.4, 0.2}, dt: 1, dx: 1, want: 0.4},
		{name: "still", u: Uniform(0), dt: 1, dx: 1, want: 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			have := CourantNumber(test.u, test.dt, test.dx)
			if different(have, test.want, 1.e-14) {
				t.Errorf("have %g, want %g", have, test.want)
			}
		})
	}
	if c := CourantNumber(Uniform(0.2), 0.1, 0.1); c != 0.2 {
		t.Errorf("Courant number = %v, want exactly 0.2", c)
	}
}

func TestCourantDimensions(t *testing.T) {
	c, err := CourantDimensions(
		unit.New(0.1, unit.MeterPerSecond),
		unit.New(10, unit.Second),
		unit.New(0.2, unit.Meter),
	)
	if err != nil {
		t.Fatal(err)
	}
	if different(c, 5, 1.e-14) {
		t.Errorf("Courant number = %g, want 5", c)
	}

	_, err = CourantDimensions(
		unit.New(0.1, unit.MeterPerSecond),
		unit.New(0.2, unit.Meter),
		unit.New(10, unit.Second),
	)
	if err == nil {
		t.Error("swapped time and spatial steps should fail")
	}
}

func TestBuildCoefficients(t *testing.T) {
	const dt, dx = 10., 0.2
	c, err := BuildCoefficients(Spatial{0, 0.1, 0.2}, dt, dx, 3)
	if err != nil {
		t.Fatal(err)
	}
	wantA := []float64{0.1, 0.1 + 0.5, 0.1 + 1}
	wantB := []float64{0, 0.5, 1}
	for i := range wantA {
		if different(c.A[i], wantA[i], 1.e-14) {
			t.Errorf("A[%d] = %g, want %g", i, c.A[i], wantA[i])
		}
		if absDifferent(c.B[i], wantB[i], 1.e-14) {
			t.Errorf("B[%d] = %g, want %g", i, c.B[i], wantB[i])
		}
	}

	u, err := BuildCoefficients(Uniform(0.1), dt, dx, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(u.A) != 4 || len(u.B) != 4 {
		t.Fatalf("uniform velocity resolved to %d nodes, want 4", len(u.A))
	}
	for i := range u.A {
		if u.A[i] != u.A[0] || u.B[i] != u.B[0] {
			t.Errorf("node %d coefficients differ from node 0", i)
		}
	}

	if _, err := BuildCoefficients(Spatial{0.1, 0.1}, dt, dx, 3); !errors.Is(err, ErrLength) {
		t.Errorf("err = %v, want ErrLength", err)
	}
	if _, err := BuildCoefficients(nil, dt, dx, 3); !errors.Is(err, ErrDomain) {
		t.Errorf("nil velocity: err = %v, want ErrDomain", err)
	}
}

func TestSpatialResolveCopies(t *testing.T) {
	s := Spatial{1, 2, 3}
	r, err := s.Resolve(3)
	if err != nil {
		t.Fatal(err)
	}
	r[0] = 100
	if s[0] != 1 {
		t.Error("Resolve returned a view of the velocity")
	}
}

// The forward sweep should give the same answer as solving the lower
// bidiagonal system directly.
func TestStepMatchesTriangularSolve(t *testing.T) {
	const dt, dx = 0.5, 0.25
	u := Spatial{0.3, 0.1, 0.4, 0.2, 0.25, 0.05}
	nx := len(u)
	prev := []float64{2, 1.5, 0.25, 0, 3, 1}
	const boundary = 1.75

	c, err := BuildCoefficients(u, dt, dx, nx)
	if err != nil {
		t.Fatal(err)
	}
	have, err := Step(prev, c, boundary)
	if err != nil {
		t.Fatal(err)
	}

	m := mat.NewTriDense(nx, mat.Lower, nil)
	rhs := mat.NewVecDense(nx, nil)
	m.SetTri(0, 0, 1)
	rhs.SetVec(0, boundary)
	for i := 1; i < nx; i++ {
		m.SetTri(i, i, c.A[i])
		m.SetTri(i, i-1, -c.B[i])
		rhs.SetVec(i, prev[i]/dt)
	}
	var want mat.VecDense
	if err := want.SolveVec(m, rhs); err != nil {
		t.Fatal(err)
	}
	for i := range have {
		if different(have[i], want.AtVec(i), 1.e-12) {
			t.Errorf("node %d: have %g, want %g", i, have[i], want.AtVec(i))
		}
	}

	// The discretized equation should hold at every interior node.
	for i := 1; i < nx; i++ {
		residual := (have[i]-prev[i])/dt + u[i]*(have[i]-have[i-1])/dx
		if math.Abs(residual) > 1.e-12 {
			t.Errorf("node %d: residual %g", i, residual)
		}
	}
}

func TestStepLength(t *testing.T) {
	c, err := BuildCoefficients(Uniform(1), 1, 1, 4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Step(make([]float64, 3), c, 0); !errors.Is(err, ErrLength) {
		t.Errorf("err = %v, want ErrLength", err)
	}
}

func TestStepDoesNotModifyInput(t *testing.T) {
	c, err := BuildCoefficients(Uniform(1), 1, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	prev := []float64{0, 1, 2}
	if _, err := Step(prev, c, 5); err != nil {
		t.Fatal(err)
	}
	if prev[0] != 0 || prev[1] != 1 || prev[2] != 2 {
		t.Errorf("prev was modified: %v", prev)
	}
}
