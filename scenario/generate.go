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

// Package scenario generates the inputs of streamconc simulations: initial
// conditions, upstream boundary histories and velocity fields, either from
// built-in shapes or from user-supplied expressions. It also defines the
// standard test cases and runs sensitivity sweeps over them.
package scenario

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/Knetic/govaluate"
	"github.com/spatialmodel/streamconc"
)

// SpikeAtSource returns an initial condition that is source at the
// upstream node and zero everywhere else.
func SpikeAtSource(x []float64, source float64) []float64 {
	theta0 := make([]float64, len(x))
	if len(theta0) > 0 {
		theta0[0] = source
	}
	return theta0
}

// ConstantBoundary returns a boundary history that is source at every time.
func ConstantBoundary(t []float64, source float64) []float64 {
	b := make([]float64, len(t))
	for i := range b {
		b[i] = source
	}
	return b
}

// ExpDecayBoundary returns the boundary history source·exp(-k·t), where
// k [1/s] is the decay rate.
func ExpDecayBoundary(t []float64, source, k float64) []float64 {
	b := make([]float64, len(t))
	for i, ti := range t {
		b[i] = source * math.Exp(-k*ti)
	}
	return b
}

// PerturbedVelocity returns a velocity field where each node is base
// multiplied by (1+ε) with ε drawn uniformly from [-p, p). Negative
// velocities are set to zero. The same seed always gives the same field.
func PerturbedVelocity(x []float64, base float64, seed int64, p float64) (streamconc.Spatial, error) {
	if p < 0 || math.IsNaN(p) {
		return nil, fmt.Errorf("scenario: perturbation fraction must be >= 0 but is %g", p)
	}
	r := rand.New(rand.NewSource(seed))
	u := make(streamconc.Spatial, len(x))
	for i := range u {
		ε := (2*r.Float64() - 1) * p
		u[i] = math.Max(base*(1+ε), 0)
	}
	return u, nil
}

// functions are available in boundary and velocity expressions.
var functions = map[string]govaluate.ExpressionFunction{
	"exp":  unary("exp", math.Exp),
	"sin":  unary("sin", math.Sin),
	"cos":  unary("cos", math.Cos),
	"sqrt": unary("sqrt", math.Sqrt),
	"max":  binary("max", math.Max),
	"min":  binary("min", math.Min),
}

func unary(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("scenario: got %d arguments for function '%s', but needs 1", len(args), name)
		}
		v, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("scenario: argument of '%s' is %T, not a number", name, args[0])
		}
		return f(v), nil
	}
}

func binary(name string, f func(float64, float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("scenario: got %d arguments for function '%s', but needs 2", len(args), name)
		}
		a, ok1 := args[0].(float64)
		b, ok2 := args[1].(float64)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("scenario: arguments of '%s' must be numbers", name)
		}
		return f(a, b), nil
	}
}

// evaluate evaluates expr at every value of coord, which is made
// available in the expression under the name variable along with the
// given parameters.
func evaluate(expr, variable string, coord []float64, params map[string]float64) ([]float64, error) {
	e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, functions)
	if err != nil {
		return nil, fmt.Errorf("scenario: parsing expression %q: %v", expr, err)
	}
	vars := make(map[string]interface{}, len(params)+1)
	for k, v := range params {
		vars[k] = v
	}
	for _, v := range e.Vars() {
		if _, ok := vars[v]; !ok && v != variable {
			return nil, fmt.Errorf("scenario: expression %q: undefined variable '%s'", expr, v)
		}
	}
	o := make([]float64, len(coord))
	for i, c := range coord {
		vars[variable] = c
		r, err := e.Evaluate(vars)
		if err != nil {
			return nil, fmt.Errorf("scenario: evaluating %q at %s=%g: %v", expr, variable, c, err)
		}
		v, ok := r.(float64)
		if !ok {
			return nil, fmt.Errorf("scenario: expression %q gives %T, not a number", expr, r)
		}
		o[i] = v
	}
	return o, nil
}

// ExpressionBoundary evaluates expr at each time in t to create a boundary
// history. The time [s] is available as the variable 't' and params holds
// any other variables the expression uses, for example
//
//	theta_source * exp(-k * t)
func ExpressionBoundary(t []float64, expr string, params map[string]float64) ([]float64, error) {
	return evaluate(expr, "t", t, params)
}

// ExpressionVelocity evaluates expr at each location in x to create a
// spatially varying velocity field. The distance downstream [m] is
// available as the variable 'x'. Negative results are an error.
func ExpressionVelocity(x []float64, expr string, params map[string]float64) (streamconc.Spatial, error) {
	u, err := evaluate(expr, "x", x, params)
	if err != nil {
		return nil, err
	}
	for i, v := range u {
		if v < 0 {
			return nil, fmt.Errorf("scenario: velocity expression %q is negative (%g) at x=%g", expr, v, x[i])
		}
	}
	return streamconc.Spatial(u), nil
}
