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

package output

import (
	"fmt"
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"gonum.org/v1/gonum/mat"
)

// WriteNetCDF writes the coordinates x [m] and t [s] and the concentration
// field [μg/m³] with shape (len(t), len(x)) to a new NetCDF file. attrs
// are added as global attributes, for example to record the simulation
// parameters.
func WriteNetCDF(filename string, x, t []float64, field mat.Matrix, attrs map[string]string) error {
	nt, nx := field.Dims()
	if nx != len(x) || nt != len(t) {
		return fmt.Errorf("output: field is %d×%d but grid is %d×%d", nt, nx, len(t), len(x))
	}
	h := cdf.NewHeader([]string{"time", "x"}, []int{nt, nx})
	h.AddAttribute("", "comment", "One-dimensional stream pollutant concentrations")
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.AddAttribute("", k, attrs[k])
	}

	h.AddVariable("x", []string{"x"}, []float64{0})
	h.AddAttribute("x", "description", "Distance downstream")
	h.AddAttribute("x", "units", "m")
	h.AddVariable("time", []string{"time"}, []float64{0})
	h.AddAttribute("time", "description", "Time since the start of the simulation")
	h.AddAttribute("time", "units", "s")
	h.AddVariable("theta", []string{"time", "x"}, []float64{0})
	h.AddAttribute("theta", "description", "Pollutant concentration")
	h.AddAttribute("theta", "units", "μg m-3")
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("output: creating netcdf file: %v", err)
	}

	ff, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("output: creating netcdf file: %v", err)
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		ff.Close()
		return fmt.Errorf("output: creating netcdf file: %v", err)
	}
	theta := make([]float64, 0, nt*nx)
	for n := 0; n < nt; n++ {
		for i := 0; i < nx; i++ {
			theta = append(theta, field.At(n, i))
		}
	}
	for _, v := range []struct {
		name string
		data []float64
	}{{"x", x}, {"time", t}, {"theta", theta}} {
		if err := writeVar(f, v.name, v.data); err != nil {
			ff.Close()
			return err
		}
	}
	return ff.Close()
}

func writeVar(f *cdf.File, name string, data []float64) error {
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("output: writing variable %s to netcdf file: %v", name, err)
	}
	return nil
}

// ReadNetCDF reads a file written by WriteNetCDF.
func ReadNetCDF(filename string) (x, t []float64, field *mat.Dense, err error) {
	ff, err := os.Open(filename)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("output: %v", err)
	}
	defer ff.Close()
	f, err := cdf.Open(ff)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("output: opening netcdf file: %v", err)
	}
	if x, err = readVar(f, "x"); err != nil {
		return nil, nil, nil, err
	}
	if t, err = readVar(f, "time"); err != nil {
		return nil, nil, nil, err
	}
	theta, err := readVar(f, "theta")
	if err != nil {
		return nil, nil, nil, err
	}
	if len(theta) != len(x)*len(t) {
		return nil, nil, nil, fmt.Errorf("output: netcdf variable theta has %d values; want %d", len(theta), len(x)*len(t))
	}
	return x, t, mat.NewDense(len(t), len(x), theta), nil
}

func readVar(f *cdf.File, name string) ([]float64, error) {
	if len(f.Header.Lengths(name)) == 0 {
		return nil, fmt.Errorf("output: netcdf file has no variable %s", name)
	}
	r := f.Reader(name, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("output: reading netcdf variable %s: %v", name, err)
	}
	data, ok := buf.([]float64)
	if !ok {
		return nil, fmt.Errorf("output: netcdf variable %s has type %T; want []float64", name, buf)
	}
	return data, nil
}
