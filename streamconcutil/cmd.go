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

// Package streamconcutil contains the streamconc command-line interface:
// the configuration options, the command tree, the driver that runs the
// standard test cases, and a browser-based form for setting options.
package streamconcutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/ctessum/gobra"
	"github.com/lnashier/viper"
	"github.com/skratchdot/open-golang/open"
	"github.com/spatialmodel/streamconc"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// allSets are the flag sets of every command that runs a simulation.
	allSets := func() []*pflag.FlagSet {
		return []*pflag.FlagSet{runCmd.Flags(), solveCmd.Flags(), sweepCmd.Flags()}
	}
	// Options are the configuration options available to streamconc.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "L",
			usage: `
              L is the length of the stream [m].`,
			defaultVal: 20.0,
			flagsets:   allSets(),
		},
		{
			name: "T",
			usage: `
              T is the simulated duration [s].`,
			defaultVal: 300.0,
			flagsets:   allSets(),
		},
		{
			name: "dx",
			usage: `
              dx is the spatial step [m].`,
			defaultVal: 0.2,
			flagsets:   allSets(),
		},
		{
			name: "dt",
			usage: `
              dt is the time step [s].`,
			defaultVal: 10.0,
			flagsets:   allSets(),
		},
		{
			name: "u",
			usage: `
              u is the stream velocity [m/s].`,
			shorthand:  "u",
			defaultVal: 0.1,
			flagsets:   allSets(),
		},
		{
			name: "ThetaSource",
			usage: `
              ThetaSource is the pollutant concentration at the upstream
              boundary at the start of the simulation [μg/m³].`,
			defaultVal: 250.0,
			flagsets:   allSets(),
		},
		{
			name: "CFLWarn",
			usage: `
              CFLWarn is the Courant number above which a warning is
              logged that results may be inaccurate. The simulation
              continues regardless.`,
			defaultVal: streamconc.DefaultCFLWarn,
			flagsets:   allSets(),
		},
		{
			name: "DecayRate",
			usage: `
              DecayRate is the rate [1/s] at which the boundary
              concentration decays in the decaying-source case.`,
			defaultVal: 0.01,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Seed",
			usage: `
              Seed is the random number seed for the variable-velocity case.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Perturbation",
			usage: `
              Perturbation is the maximum fractional random change in velocity
              along the stream in the variable-velocity case.`,
			defaultVal: 0.1,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "InitialConditionsFile",
			usage: `
              InitialConditionsFile is a CSV (.csv) or Excel (.xlsx) file
              holding a measured concentration profile, with distance
              downstream [m] in the first column and concentration [μg/m³]
              in the second. It is used for the measured-profile case by
              'run' and as the initial condition by 'solve'. If empty,
              'run' skips the measured-profile case and 'solve' starts
              from a spike at the source. It can include environment
              variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), solveCmd.Flags()},
		},
		{
			name: "ExtrapolationPolicy",
			usage: `
              ExtrapolationPolicy specifies what happens when the grid extends
              beyond the distances in InitialConditionsFile: 'clamp' uses the
              nearest measured value and 'reject' stops with an error.`,
			defaultVal: "clamp",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), solveCmd.Flags()},
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the directory where figures and data files are
              saved. It is created if it does not exist. It can include
              environment variables.`,
			shorthand:  "o",
			defaultVal: "results",
			flagsets:   allSets(),
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. It can
              include environment variables. If LogFile is left blank, the
              logfile will be saved in OutputDir as streamconc.log.`,
			defaultVal: "",
			flagsets:   allSets(),
		},
		{
			name: "NetCDF",
			usage: `
              NetCDF specifies whether to save the full concentration field of
              each case to a NetCDF file in OutputDir.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), solveCmd.Flags()},
		},
		{
			name: "LogSteps",
			usage: `
              LogSteps specifies whether to log every time level of each
              simulation.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), solveCmd.Flags()},
		},
		{
			name: "SuiteFile",
			usage: `
              SuiteFile is a TOML file listing cases to run instead of the
              built-in test cases. Each [[Case]] can specify a Name, a Title,
              a Boundary expression of time 't', a Velocity expression of
              distance 'x', an InitialConditionsFile, and extra Params.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Sweep.VelocityFactors",
			usage: `
              Sweep.VelocityFactors are the multiples of u used in the
              velocity sensitivity test.`,
			defaultVal: []float64{0.5, 1, 2},
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), sweepCmd.Flags()},
		},
		{
			name: "Sweep.DxFactors",
			usage: `
              Sweep.DxFactors are the multiples of dx used in the spatial
              step sensitivity test.`,
			defaultVal: []float64{1, 0.5},
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), sweepCmd.Flags()},
		},
		{
			name: "Sweep.DtFactors",
			usage: `
              Sweep.DtFactors are the multiples of dt used in the time
              step sensitivity test.`,
			defaultVal: []float64{1, 0.5},
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), sweepCmd.Flags()},
		},
		{
			name: "Name",
			usage: `
              Name is the name of the case run by 'solve'. It is used in
              output file names.`,
			defaultVal: "solve",
			flagsets:   []*pflag.FlagSet{solveCmd.Flags()},
		},
		{
			name: "Boundary",
			usage: `
              Boundary is an expression giving the upstream boundary
              concentration [μg/m³] as a function of time 't' [s], for
              example 'theta_source * exp(-0.01 * t)'. The variables
              theta_source, u, L, T, dx, dt and any in Params are available.
              If empty, the boundary is held at ThetaSource.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{solveCmd.Flags()},
		},
		{
			name: "Velocity",
			usage: `
              Velocity is an expression giving the stream velocity [m/s] as a
              function of distance downstream 'x' [m]. If empty, the velocity
              is u everywhere.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{solveCmd.Flags()},
		},
		{
			name: "Params",
			usage: `
              Params are extra variables available in the Boundary and
              Velocity expressions.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{solveCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("STREAMCONC")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case []float64, map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(bytes.TrimSpace(b.Bytes()))
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(solveCmd)
	Root.AddCommand(sweepCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("streamconc: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "streamconc",
	Short: "A one-dimensional stream pollutant transport model.",
	Long: `streamconc simulates the advection of a dissolved pollutant along a
stream using an implicit upwind finite difference scheme.
Use the subcommands specified below to access the model functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'STREAMCONC_var' where 'var' is the
name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of streamconc.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "streamconc v%s\n", streamconc.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the standard test cases.",
	Long: `run simulates the standard test cases: a spike at the source with a
constant boundary, a measured initial profile (if InitialConditionsFile is set),
sensitivity to the velocity and step sizes, a decaying source, and a randomly
varying velocity. If SuiteFile is set, the cases in that file are run instead.
Figures of each result are saved in OutputDir.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := GetRunConfig(Cfg)
		if err != nil {
			return err
		}
		return Run(cmd, c)
	},
	DisableAutoGenTag: true,
}

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Run a single case.",
	Long: `solve runs a single simulation whose boundary history and velocity
are given by the Boundary and Velocity expressions and whose initial condition
is read from InitialConditionsFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := GetRunConfig(Cfg)
		if err != nil {
			return err
		}
		sc, err := SolveCase(Cfg)
		if err != nil {
			return err
		}
		return Solve(cmd, c, sc)
	},
	DisableAutoGenTag: true,
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the sensitivity tests.",
	Long: `sweep runs only the sensitivity tests, varying the velocity, the
spatial step and the time step one at a time by the factors in the Sweep
configuration variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := GetRunConfig(Cfg)
		if err != nil {
			return err
		}
		return Sensitivity(cmd, c)
	},
	DisableAutoGenTag: true,
}

// setConfigHandler reads the configuration file given by the "config"
// form value and responds with the resulting configuration as JSON.
func setConfigHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	configFile := r.Form.Get("config")
	if configFile == "" {
		http.Error(w, "streamconc: missing config parameter", http.StatusBadRequest)
		return
	}
	if err := Root.PersistentFlags().Set("config", configFile); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// Values set directly on Cfg take precedence over flags.
	Cfg.Set("config", configFile)
	if err := setConfig(); err != nil {
		http.Error(w, err.Error(), http.StatusNoContent)
		return
	}
	config := make(map[string]interface{})
	for _, option := range options {
		config[option.name] = Cfg.Get(option.name)
	}
	e := json.NewEncoder(w)
	if err := e.Encode(config); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// StartWebServer starts the web server.
func StartWebServer() {
	setConfig() // Ignore any errors for now.

	http.HandleFunc("/setConfig", setConfigHandler)

	log.Println("Loading front-end...")

	for _, cmd := range []*cobra.Command{Root, versionCmd, runCmd, solveCmd, sweepCmd} {
		cmd.SilenceUsage = true // We don't want the usage messages in the GUI.
	}

	const address = "localhost:7272"
	const tmpl = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>streamconc</title>
	<style>
		html, body {padding: 0; margin: 2% 0; font-family: sans-serif;}
		.container { max-width: 700px; margin: 0 auto; padding: 10px; }
		div[id^="gobra-"] blockquote { border-left: 3px solid #bbb; margin: .3em; color: #333; padding-left: 5px; font-size: 75%; }
		div[id^="gobra-"] code { font-weight: bold; }
		div[id^="gobra-"] input { font-family: monospace; margin-left: .2em; width: 50%; outline:none; }
		.red-border{ border: 1px solid #c35; }
		.green-border{ border: 1px solid #3c5; }
		.blue-border{ border: 1px solid #35c; }
	</style>
</head>
<body>
<div class="container">
	<h1>streamconc</h1>
	<p>Configure the simulation below.</p>
	<p>
		Color key: black=default;
		<font color="red">red</font>=error;
		<font color="green">green</font>=value from config file;
		<font color="blue">blue</font>=user entered
	</p>
	<div>
		{{.}}
	</div>
</div>

<script>
// If the configuration file is changed, send the new file path
// to the server and update fields

let allFlags = [...document.querySelectorAll('[data-name]')];
allFlags.forEach(x => {
	let inputField = x.children[0];
	inputField.addEventListener("input", e => {
		inputField.classList.remove("green-border");
		inputField.classList.add("blue-border");
	})
})

let configInput = allFlags.filter(x => x.dataset.name == "config")[0].children[0];
configInput.addEventListener("input", e => {
	fetch("http://` + address + `/setConfig?config="+configInput.value)
		.then( res => {
			if (res.status !== 200) {
				if (res.status == 204) {
					configInput.classList.remove("blue-border");
					configInput.classList.remove("green-border");
					configInput.classList.add("red-border");
				}
			} else {
				res.json().then( data => {
					configInput.classList.remove("red-border");
					for (let key in data)
						for(let f of allFlags)
							if (f.dataset.name == key) {
								let input = f.children[0];
								var newValue = JSON.stringify(data[key]).replace(/^"+|"+$/g,'');
								if (input.value != newValue) {
									input.value = newValue
									input.classList.remove("blue-border");
									input.classList.add("green-border");
								}
							}
				})
			}
		})
		.catch( err => {
			console.log("Error fetching /setConfig", err)
		})
})
</script>
</body>
</html>`

	output := template.Must(template.New("").Parse(tmpl))
	server := gobra.Server{Root: Root, ServerAddress: address, AllowCORS: false, HTML: output}
	log.Println("Server starting... ")
	open.Run("http://" + address)
	fmt.Println("If not opened automatically, please visit http://" + address)
	server.Start()
}
