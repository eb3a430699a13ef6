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

package streamconcutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/streamconc"
	"github.com/spatialmodel/streamconc/ingest"
	"github.com/spatialmodel/streamconc/output"
	"github.com/spatialmodel/streamconc/scenario"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

// Summary describes the result of one case.
type Summary struct {
	Name    string
	Courant float64

	// Min, Max and Mean summarize the final concentration profile [μg/m³].
	Min, Max, Mean float64

	// Residual is the mass budget residual at the final time [μg/m²].
	Residual float64
}

// session holds the state shared by the cases in one command.
type session struct {
	cfg      *RunConfig
	log      *logrus.Logger
	out      io.Writer
	grid     *streamconc.Grid
	summary  []Summary
	warnings int
}

// newSession creates the output directory and log file and sets up logging
// to both the log file and the command output. The returned function must
// be called when the session is finished.
func newSession(cmd *cobra.Command, cfg *RunConfig) (*session, func(), error) {
	logfile, err := os.Create(cfg.LogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("streamconc: problem creating log file: %v", err)
	}
	mw := io.MultiWriter(cmd.OutOrStdout(), logfile)
	logger := logrus.New()
	logger.Out = mw
	logger.Formatter = &logrus.TextFormatter{DisableColors: true, FullTimestamp: true}

	d := cfg.Domain
	g, err := streamconc.NewGrid(d.L, d.T, d.Dx, d.Dt)
	if err != nil {
		logfile.Close()
		return nil, nil, err
	}
	logger.WithFields(logrus.Fields{
		"L":       d.L,
		"T":       d.T,
		"dx":      d.Dx,
		"dt":      d.Dt,
		"u":       d.U,
		"nx":      g.Nx(),
		"nt":      g.Nt(),
		"courant": d.Courant,
	}).Info("streamconc starting")
	s := &session{cfg: cfg, log: logger, out: mw, grid: g}
	return s, func() { logfile.Close() }, nil
}

func (s *session) file(name string) string {
	return filepath.Join(s.cfg.OutputDir, name)
}

// solveOptions returns the options for solving case name, filling in
// diagnostics d.
func (s *session) solveOptions(name string, d *streamconc.Diagnostics) []streamconc.SolveOption {
	opts := []streamconc.SolveOption{
		streamconc.Logger(s.log.WithField("case", name)),
		streamconc.CFLWarn(s.cfg.CFLWarn),
		streamconc.Report(d),
		streamconc.AfterStep(streamconc.CheckFinite()),
	}
	if s.cfg.LogSteps {
		opts = append(opts, streamconc.AfterStep(streamconc.Log(s.out)))
	}
	return opts
}

// runCase solves c and saves its figures and, optionally, its NetCDF file.
func (s *session) runCase(c *scenario.Case) error {
	start := time.Now()
	var d streamconc.Diagnostics
	field, err := c.Solve(s.solveOptions(c.Name, &d)...)
	if err != nil {
		return err
	}
	s.warnings += len(d.Warnings)
	x, t := c.Grid.X(), c.Grid.T()
	nt, _ := field.Dims()
	final := mat.Row(nil, nt-1, field)

	if c.TimeVaryingBoundary {
		title := fmt.Sprintf("%s: Concentration vs time at x = 0", caseLabel(c))
		if err := output.PlotTimeSeries(s.file(c.Name+"_boundary_condition.png"), title, t, c.Boundary); err != nil {
			return err
		}
	}
	if err := output.PlotProfile(s.file(c.Name+"_final_profile.png"), c.Title, x, final, t[nt-1]); err != nil {
		return err
	}
	if err := output.PlotField(s.file(c.Name+"_field.png"), c.Title, x, t, field); err != nil {
		return err
	}
	if s.cfg.NetCDF {
		attrs := map[string]string{
			"case":  c.Name,
			"title": c.Title,
			"dx":    fmt.Sprintf("%g m", c.Grid.Dx),
			"dt":    fmt.Sprintf("%g s", c.Grid.Dt),
		}
		if err := output.WriteNetCDF(s.file(c.Name+".ncf"), x, t, field, attrs); err != nil {
			return err
		}
	}

	b, err := streamconc.MassBudget(field, c.Velocity, c.Grid.Dx, c.Grid.Dt)
	if err != nil {
		return err
	}
	sum := Summary{
		Name:     c.Name,
		Courant:  d.Courant,
		Min:      stats.StatsMin(final),
		Max:      stats.StatsMax(final),
		Mean:     stats.StatsMean(final),
		Residual: b.Residual[nt-1],
	}
	s.summary = append(s.summary, sum)
	s.log.WithFields(logrus.Fields{
		"case":     c.Name,
		"courant":  d.Courant,
		"max":      sum.Max,
		"residual": sum.Residual,
		"walltime": time.Since(start).Seconds(),
	}).Info("case finished")
	return nil
}

// caseLabel returns the part of the case title before any colon.
func caseLabel(c *scenario.Case) string {
	for i, r := range c.Title {
		if r == ':' {
			return c.Title[:i]
		}
	}
	return c.Title
}

var sensitivityTitles = map[string]string{
	"u":  "Test Case 3: Concentration vs distance (sensitivity to u)",
	"dx": "Test Case 3: Concentration vs distance (sensitivity to Δx)",
	"dt": "Test Case 3: Concentration vs distance (sensitivity to Δt)",
}

// sensitivity runs the sensitivity sets concurrently and plots each group
// of final profiles on the base grid.
func (s *session) sensitivity() error {
	d := s.cfg.Domain
	sets := scenario.Sets(d.Params(), s.cfg.VelocityFactors, s.cfg.DxFactors, s.cfg.DtFactors)
	logger := s.log.WithField("case", "case3")
	results, err := scenario.Sweep(context.Background(), s.grid.X(), sets, d.ThetaSource,
		streamconc.Logger(logger), streamconc.CFLWarn(s.cfg.CFLWarn))
	if err != nil {
		return err
	}
	names, groups := scenario.Groups(sets)
	for _, g := range names {
		var profiles [][]float64
		var labels []string
		for _, i := range groups[g] {
			profiles = append(profiles, results[i].Profile)
			labels = append(labels, results[i].Label)
		}
		title, ok := sensitivityTitles[g]
		if !ok {
			title = "Test Case 3: Concentration vs distance (sensitivity to " + g + ")"
		}
		if err := output.PlotProfiles(s.file("case3_sensitivity_to_"+g+".png"), title, s.grid.X(), profiles, labels, d.T); err != nil {
			return err
		}
	}
	logger.WithField("sets", len(sets)).Info("sensitivity tests finished")
	return nil
}

// printSummary writes a table of the case summaries.
func (s *session) printSummary() {
	w := tabwriter.NewWriter(s.out, 0, 8, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "case\tCourant\tmin θ\tmax θ\tmean θ\tmass residual\t")
	for _, r := range s.summary {
		fmt.Fprintf(w, "%s\t%.3g\t%.4g\t%.4g\t%.4g\t%.2g\t\n", r.Name, r.Courant, r.Min, r.Max, r.Mean, r.Residual)
	}
	w.Flush()
	if s.warnings > 0 {
		s.log.Warnf("%d case(s) exceeded the Courant number warning threshold of %g", s.warnings, s.cfg.CFLWarn)
	}
}

// Run runs the standard test cases, or the cases in cfg.SuiteFile if it
// is set, saving figures and data to cfg.OutputDir.
//
// The standard cases are:
//   - case1: a concentration spike at the source with a constant boundary;
//   - case2: a measured initial profile from cfg.InitialConditionsFile
//     (skipped if none is given);
//   - case3: sensitivity to velocity, spatial step and time step;
//   - case4: a boundary concentration that decays at cfg.DecayRate;
//   - case5: a velocity that varies randomly by up to cfg.Perturbation.
//
// cmd is the cobra.Command instance where Run is called from; log
// messages are written to its output as well as to cfg.LogFile.
func Run(cmd *cobra.Command, cfg *RunConfig) error {
	s, done, err := newSession(cmd, cfg)
	if err != nil {
		return err
	}
	defer done()

	if cfg.SuiteFile != "" {
		f, err := os.Open(cfg.SuiteFile)
		if err != nil {
			return fmt.Errorf("streamconc: opening SuiteFile: %v", err)
		}
		suite, err := scenario.LoadSuite(f)
		f.Close()
		if err != nil {
			return err
		}
		cases, err := suite.Build(s.grid, cfg.Domain.ThetaSource, cfg.Domain.U, cfg.ExtrapolationPolicy, filepath.Dir(cfg.SuiteFile))
		if err != nil {
			return err
		}
		for _, c := range cases {
			if err := s.runCase(c); err != nil {
				return err
			}
		}
		s.printSummary()
		return nil
	}

	d := cfg.Domain
	if err := s.runCase(scenario.Case1(s.grid, d.ThetaSource, d.U)); err != nil {
		return err
	}
	if cfg.InitialConditionsFile != "" {
		p, err := ingest.ReadProfile(cfg.InitialConditionsFile)
		if err != nil {
			return err
		}
		c2, err := scenario.Case2(s.grid, d.ThetaSource, d.U, p, cfg.ExtrapolationPolicy)
		if err != nil {
			return err
		}
		if err := s.runCase(c2); err != nil {
			return err
		}
	} else {
		s.log.Info("InitialConditionsFile is not set; skipping case2")
	}
	if err := s.sensitivity(); err != nil {
		return err
	}
	if err := s.runCase(scenario.Case4(s.grid, d.ThetaSource, d.U, cfg.DecayRate)); err != nil {
		return err
	}
	c5, err := scenario.Case5(s.grid, d.ThetaSource, d.U, cfg.Seed, cfg.Perturbation)
	if err != nil {
		return err
	}
	if err := s.runCase(c5); err != nil {
		return err
	}
	s.printSummary()
	return nil
}

// Solve runs the single case sc.
func Solve(cmd *cobra.Command, cfg *RunConfig, sc *scenario.SuiteCase) error {
	s, done, err := newSession(cmd, cfg)
	if err != nil {
		return err
	}
	defer done()
	suite := &scenario.Suite{Cases: []scenario.SuiteCase{*sc}}
	cases, err := suite.Build(s.grid, cfg.Domain.ThetaSource, cfg.Domain.U, cfg.ExtrapolationPolicy, "")
	if err != nil {
		return err
	}
	if err := s.runCase(cases[0]); err != nil {
		return err
	}
	s.printSummary()
	return nil
}

// Sensitivity runs only the sensitivity tests.
func Sensitivity(cmd *cobra.Command, cfg *RunConfig) error {
	s, done, err := newSession(cmd, cfg)
	if err != nil {
		return err
	}
	defer done()
	return s.sensitivity()
}
