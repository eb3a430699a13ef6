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
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/unit"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/streamconc"
	"github.com/spatialmodel/streamconc/ingest"
	"github.com/spatialmodel/streamconc/scenario"
	"github.com/spf13/cast"
)

// DomainConfig holds the physical and numerical parameters of a simulation.
type DomainConfig struct {
	L, T, Dx, Dt float64

	// U is the stream velocity [m/s].
	U float64

	// ThetaSource is the upstream concentration [μg/m³].
	ThetaSource float64

	// Courant is the Courant number of the configuration.
	Courant float64
}

// Params returns the parameters of d as a sensitivity set member.
func (d *DomainConfig) Params() scenario.Params {
	return scenario.Params{L: d.L, T: d.T, Dx: d.Dx, Dt: d.Dt, U: d.U}
}

// GetDomainConfig unmarshals and checks the domain parameters in a viper
// configuration.
func GetDomainConfig(cfg *viper.Viper) (*DomainConfig, error) {
	d := &DomainConfig{
		L:           cfg.GetFloat64("L"),
		T:           cfg.GetFloat64("T"),
		Dx:          cfg.GetFloat64("dx"),
		Dt:          cfg.GetFloat64("dt"),
		U:           cfg.GetFloat64("u"),
		ThetaSource: cfg.GetFloat64("ThetaSource"),
	}
	vars := []float64{d.L, d.T, d.Dx, d.Dt}
	varNames := []string{"L", "T", "dx", "dt"}
	for i, v := range vars {
		if !(v > 0) {
			return nil, fmt.Errorf("streamconc: parsing domain configuration: %s=%g but should be >0", varNames[i], v)
		}
	}
	if d.U < 0 {
		return nil, fmt.Errorf("streamconc: parsing domain configuration: u=%g but should be >=0", d.U)
	}
	if d.ThetaSource < 0 {
		return nil, fmt.Errorf("streamconc: parsing domain configuration: ThetaSource=%g but should be >=0", d.ThetaSource)
	}
	c, err := streamconc.CourantDimensions(
		unit.New(d.U, unit.MeterPerSecond),
		unit.New(d.Dt, unit.Second),
		unit.New(d.Dx, unit.Meter),
	)
	if err != nil {
		return nil, fmt.Errorf("streamconc: parsing domain configuration: %v", err)
	}
	d.Courant = c
	return d, nil
}

// RunConfig holds the configuration of the run, solve and sweep commands.
type RunConfig struct {
	Domain *DomainConfig

	DecayRate    float64
	Seed         int64
	Perturbation float64

	InitialConditionsFile string
	ExtrapolationPolicy   ingest.Policy

	CFLWarn   float64
	OutputDir string
	LogFile   string
	NetCDF    bool
	LogSteps  bool
	SuiteFile string

	VelocityFactors, DxFactors, DtFactors []float64
}

// GetRunConfig unmarshals and checks a viper configuration.
func GetRunConfig(cfg *viper.Viper) (*RunConfig, error) {
	d, err := GetDomainConfig(cfg)
	if err != nil {
		return nil, err
	}
	policy, err := ingest.ParsePolicy(cfg.GetString("ExtrapolationPolicy"))
	if err != nil {
		return nil, fmt.Errorf("streamconc: ExtrapolationPolicy: %v", err)
	}
	outputDir, err := checkOutputDir(cfg.GetString("OutputDir"))
	if err != nil {
		return nil, err
	}
	c := &RunConfig{
		Domain:                d,
		DecayRate:             cfg.GetFloat64("DecayRate"),
		Seed:                  cast.ToInt64(cfg.Get("Seed")),
		Perturbation:          cfg.GetFloat64("Perturbation"),
		InitialConditionsFile: os.ExpandEnv(cfg.GetString("InitialConditionsFile")),
		ExtrapolationPolicy:   policy,
		CFLWarn:               cfg.GetFloat64("CFLWarn"),
		OutputDir:             outputDir,
		LogFile:               checkLogFile(os.ExpandEnv(cfg.GetString("LogFile")), outputDir),
		NetCDF:                cfg.GetBool("NetCDF"),
		LogSteps:              cfg.GetBool("LogSteps"),
		SuiteFile:             os.ExpandEnv(cfg.GetString("SuiteFile")),
	}
	if !(c.CFLWarn > 0) {
		return nil, fmt.Errorf("streamconc: CFLWarn=%g but should be >0", c.CFLWarn)
	}
	if c.Perturbation < 0 {
		return nil, fmt.Errorf("streamconc: Perturbation=%g but should be >=0", c.Perturbation)
	}
	for _, f := range []struct {
		name string
		dst  *[]float64
	}{
		{"Sweep.VelocityFactors", &c.VelocityFactors},
		{"Sweep.DxFactors", &c.DxFactors},
		{"Sweep.DtFactors", &c.DtFactors},
	} {
		v, err := toFloat64SliceE(cfg.Get(f.name))
		if err != nil {
			return nil, fmt.Errorf("streamconc: %s: %v", f.name, err)
		}
		for _, vv := range v {
			if !(vv > 0) {
				return nil, fmt.Errorf("streamconc: %s: factor %g should be >0", f.name, vv)
			}
		}
		*f.dst = v
	}
	return c, nil
}

// SolveCase creates the single case run by the solve command from a viper
// configuration.
func SolveCase(cfg *viper.Viper) (*scenario.SuiteCase, error) {
	params, err := getFloatParams("Params", cfg)
	if err != nil {
		return nil, err
	}
	name := cfg.GetString("Name")
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("streamconc: Name '%s' must be a non-empty file name", name)
	}
	return &scenario.SuiteCase{
		Name:                  name,
		Title:                 name,
		Boundary:              cfg.GetString("Boundary"),
		Velocity:              cfg.GetString("Velocity"),
		InitialConditionsFile: os.ExpandEnv(cfg.GetString("InitialConditionsFile")),
		Params:                params,
	}, nil
}

// checkOutputDir makes sure that the output directory is specified, expands
// any environment variables, and creates the directory if necessary.
func checkOutputDir(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf(`streamconc: you need to specify an output directory configuration variable (for example: OutputDir="results")`)
	}
	dir = os.ExpandEnv(dir)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return dir, fmt.Errorf("streamconc: creating OutputDir: %v", err)
	}
	return dir, nil
}

// checkLogFile fills in a default value for the log file path if one isn't
// specified.
func checkLogFile(logFile, outputDir string) string {
	if logFile == "" {
		logFile = filepath.Join(outputDir, "streamconc.log")
	}
	return logFile
}

// toFloat64SliceE returns a []float64 from a configuration value that is
// either a list from a configuration file or a JSON array from a
// command-line argument.
func toFloat64SliceE(s interface{}) ([]float64, error) {
	switch v := s.(type) {
	case []float64:
		return v, nil
	case []interface{}:
		o := make([]float64, len(v))
		for i, val := range v {
			f, err := cast.ToFloat64E(val)
			if err != nil {
				return nil, err
			}
			o[i] = f
		}
		return o, nil
	case string:
		var o []float64
		if err := json.Unmarshal([]byte(v), &o); err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, fmt.Errorf("invalid type %T", s)
	}
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return map[string]string{}, nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		o := make(map[string]string)
		if v == "" {
			return o, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("streamconc: parsing %s: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("streamconc: invalid type for %s: %#v", varName, i)
	}
}

// getFloatParams returns a map of expression parameters from a viper
// configuration.
func getFloatParams(varName string, cfg *viper.Viper) (map[string]float64, error) {
	i := cfg.Get(varName)
	var m map[string]interface{}
	switch v := i.(type) {
	case map[string]interface{}:
		m = v
	default:
		s, err := GetStringMapString(varName, cfg)
		if err != nil {
			return nil, err
		}
		m = make(map[string]interface{}, len(s))
		for k, vv := range s {
			m[k] = vv
		}
	}
	o := make(map[string]float64, len(m))
	for k, v := range m {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, fmt.Errorf("streamconc: parsing %s.%s: %v", varName, k, err)
		}
		o[k] = f
	}
	return o, nil
}
