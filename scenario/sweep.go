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
	"fmt"
	"runtime"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/spatialmodel/streamconc"
	"github.com/spatialmodel/streamconc/ingest"
	"github.com/spatialmodel/streamconc/internal/hash"
)

// Params are the physical and numerical parameters of one member of a
// sensitivity set.
type Params struct {
	// Label describes the parameter being varied, e.g. "u = 0.050 m/s".
	Label string

	// Group is the parameter that is varied: "u", "dx" or "dt".
	Group string

	L, T, Dx, Dt, U float64
}

// DefaultFactors are the multipliers applied to the base velocity, spatial
// step and time step to create sensitivity sets.
var DefaultFactors = struct {
	U, Dx, Dt []float64
}{
	U:  []float64{0.5, 1, 2},
	Dx: []float64{1, 0.5},
	Dt: []float64{1, 0.5},
}

// Sets returns sensitivity sets that vary the velocity, spatial step and
// time step of base one at a time by the given factors. Sets within a group
// are in the order of the factors.
func Sets(base Params, uFactors, dxFactors, dtFactors []float64) []Params {
	var o []Params
	for _, f := range uFactors {
		p := base
		p.Group, p.U = "u", base.U*f
		p.Label = fmt.Sprintf("u = %.3f m/s", p.U)
		o = append(o, p)
	}
	for _, f := range dxFactors {
		p := base
		p.Group, p.Dx = "dx", base.Dx*f
		p.Label = fmt.Sprintf("Δx = %.3f m", p.Dx)
		o = append(o, p)
	}
	for _, f := range dtFactors {
		p := base
		p.Group, p.Dt = "dt", base.Dt*f
		p.Label = fmt.Sprintf("Δt = %.1f s", p.Dt)
		o = append(o, p)
	}
	return o
}

// Groups splits sets into the groups they belong to, keeping the order in
// which each group first appears.
func Groups(sets []Params) (names []string, groups map[string][]int) {
	groups = make(map[string][]int)
	for i, p := range sets {
		if _, ok := groups[p.Group]; !ok {
			names = append(names, p.Group)
		}
		groups[p.Group] = append(groups[p.Group], i)
	}
	return names, groups
}

// Result is the final concentration profile of one sensitivity set.
type Result struct {
	Params

	// Profile is the final concentration interpolated onto the
	// reference grid.
	Profile []float64
}

// solveRequest identifies a simulation independently of how it is labeled,
// so sets that appear in more than one group are only run once.
type solveRequest struct {
	L, T, Dx, Dt, U, Source float64
}

// finalProfile is the output of one sensitivity simulation on its own grid.
type finalProfile struct {
	x, theta []float64
}

// A Sweeper runs sensitivity simulations concurrently. Results of
// previous simulations are reused. A Sweeper is safe for concurrent use.
type Sweeper struct {
	Source float64

	opts  []streamconc.SolveOption
	cache *requestcache.Cache
}

// NewSweeper creates a Sweeper where the initial condition is a spike of
// concentration source at the upstream node and the boundary
// concentration is held at source. Up to cacheSize results are kept in
// memory. opts are passed to every simulation; they must be safe for
// concurrent use, so streamconc.Report should not be used here.
func NewSweeper(source float64, cacheSize int, opts ...streamconc.SolveOption) *Sweeper {
	s := &Sweeper{Source: source, opts: opts}
	s.cache = requestcache.NewCache(s.solve, runtime.GOMAXPROCS(-1),
		requestcache.Deduplicate(), requestcache.Memory(cacheSize))
	return s
}

func (s *Sweeper) solve(ctx context.Context, request interface{}) (interface{}, error) {
	r := request.(solveRequest)
	g, err := streamconc.NewGrid(r.L, r.T, r.Dx, r.Dt)
	if err != nil {
		return nil, err
	}
	c := Case1(g, r.Source, r.U)
	field, err := c.Solve(s.opts...)
	if err != nil {
		return nil, err
	}
	nt, _ := field.Dims()
	theta := append([]float64(nil), field.RawRowView(nt-1)...)
	return finalProfile{x: g.X(), theta: theta}, nil
}

// Run simulates each set and interpolates its final profile onto xRef.
func (s *Sweeper) Run(ctx context.Context, xRef []float64, sets []Params) ([]Result, error) {
	results := make([]Result, len(sets))
	errs := make([]error, len(sets))
	var wg sync.WaitGroup
	wg.Add(len(sets))
	for i, p := range sets {
		go func(i int, p Params) {
			defer wg.Done()
			req := solveRequest{L: p.L, T: p.T, Dx: p.Dx, Dt: p.Dt, U: p.U, Source: s.Source}
			r, err := s.cache.NewRequest(ctx, req, hash.Key(req)).Result()
			if err != nil {
				errs[i] = fmt.Errorf("scenario: sensitivity set %q: %v", p.Label, err)
				return
			}
			f := r.(finalProfile)
			profile, err := ingest.Interpolate(xRef, f.x, f.theta, ingest.Clamp)
			if err != nil {
				errs[i] = fmt.Errorf("scenario: sensitivity set %q: %v", p.Label, err)
				return
			}
			results[i] = Result{Params: p, Profile: profile}
		}(i, p)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Sweep runs the sensitivity sets with a new Sweeper. See NewSweeper and
// Sweeper.Run for details.
func Sweep(ctx context.Context, xRef []float64, sets []Params, source float64, opts ...streamconc.SolveOption) ([]Result, error) {
	return NewSweeper(source, len(sets)+1, opts...).Run(ctx, xRef, sets)
}
