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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spatialmodel/streamconc"
	"github.com/spatialmodel/streamconc/output"
)

// setup points the configuration at the example configuration file and
// a new output directory, which it returns.
func setup(t *testing.T) string {
	t.Helper()
	testdata, err := filepath.Abs("testdata")
	if err != nil {
		t.Fatal(err)
	}
	os.Setenv("STREAMCONC_TESTDATA", testdata)
	dir := t.TempDir()
	Cfg.Set("config", "testdata/configExample.toml")
	Cfg.Set("OutputDir", dir)
	// Use a small domain so the tests run quickly.
	Cfg.Set("L", 2.0)
	Cfg.Set("T", 20.0)
	Cfg.Set("dx", 0.1)
	Cfg.Set("dt", 1.0)
	Cfg.Set("SuiteFile", "")
	return dir
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	b := new(bytes.Buffer)
	Root.SetOutput(b)
	Root.SetArgs(args)
	if err := Root.Execute(); err != nil {
		t.Fatalf("%v\n%s", err, b.String())
	}
	return b.String()
}

func checkFiles(t *testing.T, dir string, files ...string) {
	t.Helper()
	for _, f := range files {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Errorf("missing output file: %v", err)
		}
	}
}

func TestVersion(t *testing.T) {
	out := execute(t, "version")
	if want := "streamconc v" + streamconc.Version; !strings.Contains(out, want) {
		t.Errorf("output %q does not contain %q", out, want)
	}
}

func TestRun(t *testing.T) {
	dir := setup(t)
	out := execute(t, "run")
	checkFiles(t, dir,
		"streamconc.log",
		"case1_boundary_condition.png",
		"case1_final_profile.png",
		"case1_field.png",
		"case1.ncf",
		"case2_final_profile.png",
		"case3_sensitivity_to_u.png",
		"case3_sensitivity_to_dx.png",
		"case3_sensitivity_to_dt.png",
		"case4_boundary_condition.png",
		"case4_final_profile.png",
		"case5_final_profile.png",
	)
	for _, c := range []string{"case1", "case2", "case4", "case5"} {
		if !strings.Contains(out, c) {
			t.Errorf("summary is missing %s:\n%s", c, out)
		}
	}
	// The default velocity gives a Courant number of 1, so the faster
	// sensitivity sets should warn.
	if !strings.Contains(out, "exceeds") {
		t.Errorf("expected a Courant number warning:\n%s", out)
	}

	x, tt, field, err := output.ReadNetCDF(filepath.Join(dir, "case1.ncf"))
	if err != nil {
		t.Fatal(err)
	}
	if len(x) != 21 || len(tt) != 21 {
		t.Errorf("grid is %d×%d, want 21×21", len(tt), len(x))
	}
	if field.At(len(tt)-1, 0) != 250 {
		t.Errorf("boundary = %g, want 250", field.At(len(tt)-1, 0))
	}

	log, err := os.ReadFile(filepath.Join(dir, "streamconc.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(log), "case finished") {
		t.Error("log file is missing case messages")
	}
}

func TestRunSuite(t *testing.T) {
	dir := setup(t)
	Cfg.Set("SuiteFile", "testdata/suite.toml")
	defer Cfg.Set("SuiteFile", "")
	out := execute(t, "run")
	checkFiles(t, dir,
		"pulse_boundary_condition.png",
		"pulse_final_profile.png",
		"measured_final_profile.png",
	)
	if _, err := os.Stat(filepath.Join(dir, "case1_final_profile.png")); err == nil {
		t.Error("built-in cases should not run with a suite file")
	}
	if !strings.Contains(out, "pulse") || !strings.Contains(out, "measured") {
		t.Errorf("summary is missing suite cases:\n%s", out)
	}
}

func TestSolve(t *testing.T) {
	dir := setup(t)
	Cfg.Set("Name", "wave")
	Cfg.Set("Boundary", "theta_source * (1 + sin(w * t)) / 2")
	Cfg.Set("Velocity", "u")
	Cfg.Set("Params", `{"w": "0.5"}`)
	Cfg.Set("InitialConditionsFile", "")
	defer func() {
		Cfg.Set("Name", "solve")
		Cfg.Set("Boundary", "")
		Cfg.Set("Velocity", "")
		Cfg.Set("Params", "{}")
		Cfg.Set("InitialConditionsFile", "${STREAMCONC_TESTDATA}/initial_conditions.csv")
	}()
	out := execute(t, "solve")
	checkFiles(t, dir, "wave_boundary_condition.png", "wave_final_profile.png", "wave_field.png")
	if !strings.Contains(out, "wave") {
		t.Errorf("summary is missing the case:\n%s", out)
	}
}

func TestSweep(t *testing.T) {
	dir := setup(t)
	Cfg.Set("Sweep.VelocityFactors", "[1, 1.5]")
	defer Cfg.Set("Sweep.VelocityFactors", "[0.5, 1, 2]")
	execute(t, "sweep")
	checkFiles(t, dir,
		"case3_sensitivity_to_u.png",
		"case3_sensitivity_to_dx.png",
		"case3_sensitivity_to_dt.png",
	)
	if _, err := os.Stat(filepath.Join(dir, "case1_final_profile.png")); err == nil {
		t.Error("sweep should only run the sensitivity tests")
	}
}

func TestSetConfigHandler(t *testing.T) {
	setup(t)
	defer Cfg.Set("config", "testdata/configExample.toml")

	get := func(query string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		setConfigHandler(w, httptest.NewRequest("GET", "/setConfig"+query, nil))
		return w
	}

	w := get("?config=testdata/configExample.toml")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var config map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&config); err != nil {
		t.Fatal(err)
	}
	if config["config"] != "testdata/configExample.toml" {
		t.Errorf("config = %v", config["config"])
	}
	if _, ok := config["ThetaSource"]; !ok {
		t.Error("response is missing ThetaSource")
	}
	if f := Root.PersistentFlags().Lookup("config"); f.Value.String() != "testdata/configExample.toml" {
		t.Errorf("config flag = %q", f.Value.String())
	}

	if w := get("?config=testdata/missing.toml"); w.Code != http.StatusNoContent {
		t.Errorf("missing file: status %d, want %d", w.Code, http.StatusNoContent)
	}
	if w := get(""); w.Code != http.StatusBadRequest {
		t.Errorf("no config: status %d, want %d", w.Code, http.StatusBadRequest)
	}
}
