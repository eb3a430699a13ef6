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
	"context"
	"math"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kr/pretty"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spatialmodel/streamconc"
	"github.com/spatialmodel/streamconc/ingest"
)

func different(a, b, tolerance float64) bool {
	return 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) != math.IsNaN(b)
}

func testGrid(t *testing.T) *streamconc.Grid {
	g, err := streamconc.NewGrid(20, 300, 0.2, 10)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestGenerators(t *testing.T) {
	x := []float64{0, 1, 2}
	tt := []float64{0, 10, 20, 30}
	if diff := pretty.Diff(SpikeAtSource(x, 250), []float64{250, 0, 0}); len(diff) > 0 {
		t.Errorf("spike: %v", diff)
	}
	if diff := pretty.Diff(ConstantBoundary(tt, 3), []float64{3, 3, 3, 3}); len(diff) > 0 {
		t.Errorf("constant: %v", diff)
	}
	b := ExpDecayBoundary(tt, 250, 0.01)
	for i, ti := range tt {
		if want := 250 * math.Exp(-0.01*ti); b[i] != want {
			t.Errorf("decay at t=%g: %g, want %g", ti, b[i], want)
		}
	}
	if b[0] != 250 {
		t.Errorf("decay should start at the source concentration, not %g", b[0])
	}
}

func TestPerturbedVelocity(t *testing.T) {
	x := make([]float64, 101)
	u1, err := PerturbedVelocity(x, 0.1, 0, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	u2, _ := PerturbedVelocity(x, 0.1, 0, 0.1)
	u3, _ := PerturbedVelocity(x, 0.1, 1, 0.1)
	if diff := pretty.Diff(u1, u2); len(diff) > 0 {
		t.Error("the same seed should give the same field")
	}
	if len(pretty.Diff(u1, u3)) == 0 {
		t.Error("different seeds should give different fields")
	}
	var varies bool
	for _, v := range u1 {
		if v < 0.09 || v > 0.11 {
			t.Errorf("velocity %g outside of ±10%%", v)
		}
		if v != 0.1 {
			varies = true
		}
	}
	if !varies {
		t.Error("velocity is not perturbed")
	}

	u4, err := PerturbedVelocity(x, 0.1, 0, 3)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range u4 {
		if v < 0 {
			t.Errorf("negative velocity %g", v)
		}
	}
	if _, err := PerturbedVelocity(x, 0.1, 0, -1); err == nil {
		t.Error("negative perturbation should fail")
	}
}

func TestExpressionBoundary(t *testing.T) {
	tt := []float64{0, 10, 20, 300}
	b, err := ExpressionBoundary(tt, "theta_source * exp(-k * t)", map[string]float64{"theta_source": 250, "k": 0.01})
	if err != nil {
		t.Fatal(err)
	}
	want := ExpDecayBoundary(tt, 250, 0.01)
	for i := range b {
		if different(b[i], want[i], 1.e-12) {
			t.Errorf("t=%g: %g, want %g", tt[i], b[i], want[i])
		}
	}

	b, err = ExpressionBoundary(tt, "max(100 - t, 0) + sqrt(4)", nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(b, []float64{102, 92, 82, 2}); len(diff) > 0 {
		t.Errorf("piecewise boundary: %v", diff)
	}

	for _, expr := range []string{"a * t", "exp(t", "exp(1, 2)", "t > 1"} {
		if _, err := ExpressionBoundary(tt, expr, nil); err == nil {
			t.Errorf("expression %q should fail", expr)
		}
	}
}

func TestExpressionVelocity(t *testing.T) {
	x := []float64{0, 10, 20}
	u, err := ExpressionVelocity(x, "u * (1 + x / L)", map[string]float64{"u": 0.1, "L": 20})
	if err != nil {
		t.Fatal(err)
	}
	want := streamconc.Spatial{0.1, 0.15, 0.2}
	for i := range u {
		if different(u[i], want[i], 1.e-12) {
			t.Errorf("x=%g: %g, want %g", x[i], u[i], want[i])
		}
	}
	if _, err := ExpressionVelocity(x, "0.1 - x", nil); err == nil {
		t.Error("negative velocity should fail")
	}
}

func TestCases(t *testing.T) {
	g := testGrid(t)
	logger, _ := test.NewNullLogger()
	p := &ingest.Profile{X: []float64{0, 10, 20}, Theta: []float64{250, 50, 0}}

	c2, err := Case2(g, 250, 0.1, p, ingest.Clamp)
	if err != nil {
		t.Fatal(err)
	}
	c5, err := Case5(g, 250, 0.1, 0, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	cases := []*Case{Case1(g, 250, 0.1), c2, Case4(g, 250, 0.1, 0.01), c5}
	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			field, err := c.Solve(streamconc.Logger(logger))
			if err != nil {
				t.Fatal(err)
			}
			nt, nx := field.Dims()
			if nt != 31 || nx != 101 {
				t.Errorf("shape = (%d, %d)", nt, nx)
			}
			if !streamconc.Finite(field) {
				t.Error("field is not finite")
			}
			if field.At(nt-1, 0) != c.Boundary[nt-1] {
				t.Error("boundary not applied")
			}
		})
	}
	if _, ok := c5.Velocity.(streamconc.Spatial); !ok {
		t.Errorf("case 5 velocity is %T", c5.Velocity)
	}
	if different(c2.Theta0[50], 50, 1.e-12) {
		t.Errorf("case 2 θ(x=10) = %g, want 50", c2.Theta0[50])
	}
	if _, err := Case2(g, 250, 0.1, &ingest.Profile{X: []float64{0, 10}, Theta: []float64{1, 1}}, ingest.Reject); err == nil {
		t.Error("a profile that does not cover the grid should be rejected")
	}
}

func TestSets(t *testing.T) {
	base := Params{L: 20, T: 300, Dx: 0.2, Dt: 10, U: 0.1}
	sets := Sets(base, DefaultFactors.U, DefaultFactors.Dx, DefaultFactors.Dt)
	want := []Params{
		{Label: "u = 0.050 m/s", Group: "u", L: 20, T: 300, Dx: 0.2, Dt: 10, U: 0.05},
		{Label: "u = 0.100 m/s", Group: "u", L: 20, T: 300, Dx: 0.2, Dt: 10, U: 0.1},
		{Label: "u = 0.200 m/s", Group: "u", L: 20, T: 300, Dx: 0.2, Dt: 10, U: 0.2},
		{Label: "Δx = 0.200 m", Group: "dx", L: 20, T: 300, Dx: 0.2, Dt: 10, U: 0.1},
		{Label: "Δx = 0.100 m", Group: "dx", L: 20, T: 300, Dx: 0.1, Dt: 10, U: 0.1},
		{Label: "Δt = 10.0 s", Group: "dt", L: 20, T: 300, Dx: 0.2, Dt: 10, U: 0.1},
		{Label: "Δt = 5.0 s", Group: "dt", L: 20, T: 300, Dx: 0.2, Dt: 5, U: 0.1},
	}
	if diff := pretty.Diff(sets, want); len(diff) > 0 {
		t.Errorf("sets differ: %v", diff)
	}
	names, groups := Groups(sets)
	if diff := pretty.Diff(names, []string{"u", "dx", "dt"}); len(diff) > 0 {
		t.Errorf("group names: %v", diff)
	}
	if diff := pretty.Diff(groups["dx"], []int{3, 4}); len(diff) > 0 {
		t.Errorf("dx group: %v", diff)
	}
}

func TestSweep(t *testing.T) {
	base := Params{L: 2, T: 20, Dx: 0.1, Dt: 1, U: 0.1}
	sets := Sets(base, DefaultFactors.U, DefaultFactors.Dx, DefaultFactors.Dt)
	xRef, _, err := streamconc.BuildGrid(base.L, base.T, base.Dx, base.Dt)
	if err != nil {
		t.Fatal(err)
	}
	logger, _ := test.NewNullLogger()
	var solves int32
	count := func(n int, t float64, row []float64) error {
		if n == 0 {
			atomic.AddInt32(&solves, 1)
		}
		return nil
	}
	s := NewSweeper(250, 100, streamconc.Logger(logger), streamconc.AfterStep(count))
	results, err := s.Run(context.Background(), xRef, sets)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(sets) {
		t.Fatalf("got %d results, want %d", len(results), len(sets))
	}
	first := atomic.LoadInt32(&solves)
	if first < 5 || first > int32(len(sets)) {
		t.Errorf("ran %d simulations", first)
	}
	for i, r := range results {
		if r.Label != sets[i].Label {
			t.Errorf("result %d is for %s, want %s", i, r.Label, sets[i].Label)
		}
		if len(r.Profile) != len(xRef) {
			t.Errorf("%s: profile has %d values, want %d", r.Label, len(r.Profile), len(xRef))
		}
		if r.Profile[0] != 250 {
			t.Errorf("%s: boundary = %g", r.Label, r.Profile[0])
		}
	}
	// The base parameters appear in every group.
	if diff := pretty.Diff(results[1].Profile, results[3].Profile); len(diff) > 0 {
		t.Error("identical parameters gave different results")
	}
	// A faster stream carries more pollutant downstream.
	mid := len(xRef) / 2
	if !(results[0].Profile[mid] < results[1].Profile[mid] && results[1].Profile[mid] < results[2].Profile[mid]) {
		t.Errorf("concentrations at x=%g do not increase with velocity: %g, %g, %g", xRef[mid],
			results[0].Profile[mid], results[1].Profile[mid], results[2].Profile[mid])
	}

	if _, err := s.Run(context.Background(), xRef, sets); err != nil {
		t.Fatal(err)
	}
	if second := atomic.LoadInt32(&solves); second != first {
		t.Errorf("repeated sweep ran %d more simulations, want 0", second-first)
	}
}

func TestSweepInvalid(t *testing.T) {
	sets := []Params{{Label: "bad", L: 1, T: 1, Dx: 0, Dt: 1, U: 1}}
	if _, err := Sweep(context.Background(), []float64{0, 1}, sets, 1); err == nil {
		t.Error("expected an error")
	}
}

const suiteTOML = `
[[Case]]
Name = "pulse"
Title = "Decaying pulse in an accelerating stream"
Boundary = "theta_source * exp(-k * t)"
Velocity = "u * (1 + x / L)"
[Case.Params]
k = 0.01

[[Case]]
Name = "measured"
InitialConditionsFile = "initial_conditions.csv"
`

func TestLoadSuite(t *testing.T) {
	s, err := LoadSuite(strings.NewReader(suiteTOML))
	if err != nil {
		t.Fatal(err)
	}
	want := &Suite{Cases: []SuiteCase{
		{
			Name:     "pulse",
			Title:    "Decaying pulse in an accelerating stream",
			Boundary: "theta_source * exp(-k * t)",
			Velocity: "u * (1 + x / L)",
			Params:   map[string]float64{"k": 0.01},
		},
		{Name: "measured", InitialConditionsFile: "initial_conditions.csv"},
	}}
	if diff := pretty.Diff(s, want); len(diff) > 0 {
		t.Errorf("suite differs: %v", diff)
	}

	g := testGrid(t)
	cases, err := s.Build(g, 250, 0.1, ingest.Clamp, "../ingest/testdata")
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) != 2 {
		t.Fatalf("got %d cases", len(cases))
	}
	pulse, measured := cases[0], cases[1]
	wantB := ExpDecayBoundary(g.T(), 250, 0.01)
	for i := range wantB {
		if different(pulse.Boundary[i], wantB[i], 1.e-12) {
			t.Errorf("pulse boundary %d = %g, want %g", i, pulse.Boundary[i], wantB[i])
		}
	}
	u := pulse.Velocity.(streamconc.Spatial)
	if different(u[len(u)-1], 0.2, 1.e-12) {
		t.Errorf("pulse velocity at x=L = %g, want 0.2", u[len(u)-1])
	}
	if !pulse.TimeVaryingBoundary || measured.TimeVaryingBoundary {
		t.Error("TimeVaryingBoundary is wrong")
	}
	if measured.Title != "measured" || measured.Velocity != streamconc.Uniform(0.1) {
		t.Errorf("measured defaults: %+v", measured)
	}
	if measured.Theta0[0] != 250 || measured.Theta0[len(measured.Theta0)-1] != 1.2 {
		t.Errorf("measured initial condition = %v", measured.Theta0)
	}
}

func TestLoadSuiteInvalid(t *testing.T) {
	for name, in := range map[string]string{
		"unknown key": "[[Case]]\nName = \"a\"\nSpeed = 1\n",
		"no name":     "[[Case]]\nTitle = \"a\"\n",
		"duplicate":   "[[Case]]\nName = \"a\"\n[[Case]]\nName = \"a\"\n",
		"syntax":      "[[Case]\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadSuite(strings.NewReader(in)); err == nil {
				t.Error("expected an error")
			}
		})
	}

	s := &Suite{Cases: []SuiteCase{{Name: "a", Boundary: "undefined * t"}}}
	if _, err := s.Build(testGrid(t), 1, 1, ingest.Clamp, ""); err == nil {
		t.Error("undefined variables should fail")
	}
}
