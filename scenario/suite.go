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
	"io"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spatialmodel/streamconc"
	"github.com/spatialmodel/streamconc/ingest"
)

// Suite is a list of user-defined cases read from a TOML file, for example:
//
//	[[Case]]
//	Name = "pulse"
//	Title = "Decaying pulse in an accelerating stream"
//	Boundary = "theta_source * exp(-k * t)"
//	Velocity = "u * (1 + x / L)"
//	[Case.Params]
//	k = 0.01
//
// The variables theta_source, u, L, T, dx and dt are always available in
// expressions and are set from the simulation configuration.
type Suite struct {
	Cases []SuiteCase `toml:"Case"`
}

// SuiteCase is one case in a Suite.
type SuiteCase struct {
	Name  string
	Title string

	// Boundary is an expression of time 't' [s] giving the upstream
	// boundary concentration [μg/m³]. If empty, the boundary is held
	// at the source concentration.
	Boundary string

	// Velocity is an expression of distance 'x' [m] giving the stream
	// velocity [m/s]. If empty, the configured uniform velocity is used.
	Velocity string

	// InitialConditionsFile is a CSV or Excel profile, relative to the
	// directory of the suite file. If empty, the initial condition is a
	// spike at the source.
	InitialConditionsFile string

	// Params are extra variables available in the expressions.
	Params map[string]float64
}

// LoadSuite reads a suite from r. Unknown keys are an error.
func LoadSuite(r io.Reader) (*Suite, error) {
	s := new(Suite)
	md, err := toml.DecodeReader(r, s)
	if err != nil {
		return nil, fmt.Errorf("scenario: reading suite: %v", err)
	}
	if u := md.Undecoded(); len(u) > 0 {
		keys := make([]string, len(u))
		for i, k := range u {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("scenario: reading suite: unknown keys %s", strings.Join(keys, ", "))
	}
	names := make(map[string]bool)
	for i, c := range s.Cases {
		if c.Name == "" {
			return nil, fmt.Errorf("scenario: suite case %d has no name", i)
		}
		if names[c.Name] {
			return nil, fmt.Errorf("scenario: duplicate suite case name '%s'", c.Name)
		}
		names[c.Name] = true
	}
	return s, nil
}

// Build creates the cases in the suite on grid g. dir is the directory
// that initial condition files are relative to.
func (s *Suite) Build(g *streamconc.Grid, source, u float64, policy ingest.Policy, dir string) ([]*Case, error) {
	base := map[string]float64{
		"theta_source": source,
		"u":            u,
		"L":            g.Length,
		"T":            g.Duration,
		"dx":           g.Dx,
		"dt":           g.Dt,
	}
	cases := make([]*Case, len(s.Cases))
	for i, sc := range s.Cases {
		params := make(map[string]float64, len(base)+len(sc.Params))
		for k, v := range base {
			params[k] = v
		}
		for k, v := range sc.Params {
			params[k] = v
		}
		c := &Case{
			Name:  sc.Name,
			Title: sc.Title,
			Grid:  g,
		}
		if c.Title == "" {
			c.Title = sc.Name
		}
		var err error
		if sc.Boundary == "" {
			c.Boundary = ConstantBoundary(g.T(), source)
		} else {
			if c.Boundary, err = ExpressionBoundary(g.T(), sc.Boundary, params); err != nil {
				return nil, fmt.Errorf("scenario: case '%s' boundary: %v", sc.Name, err)
			}
			c.TimeVaryingBoundary = true
		}
		if sc.Velocity == "" {
			c.Velocity = streamconc.Uniform(u)
		} else {
			if c.Velocity, err = ExpressionVelocity(g.X(), sc.Velocity, params); err != nil {
				return nil, fmt.Errorf("scenario: case '%s' velocity: %v", sc.Name, err)
			}
		}
		if sc.InitialConditionsFile == "" {
			c.Theta0 = SpikeAtSource(g.X(), source)
		} else {
			path := sc.InitialConditionsFile
			if !filepath.IsAbs(path) {
				path = filepath.Join(dir, path)
			}
			p, err := ingest.ReadProfile(path)
			if err != nil {
				return nil, fmt.Errorf("scenario: case '%s': %w", sc.Name, err)
			}
			if c.Theta0, err = p.Interpolate(g.X(), policy); err != nil {
				return nil, fmt.Errorf("scenario: case '%s' initial conditions: %w", sc.Name, err)
			}
		}
		cases[i] = c
	}
	return cases, nil
}
