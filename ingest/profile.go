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

// Package ingest reads measured concentration profiles and interpolates
// them onto a simulation grid.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/tealeg/xlsx"
)

// ErrFormat is returned when a profile file cannot be parsed.
var ErrFormat = errors.New("ingest: invalid profile format")

// Profile is a measured concentration profile.
type Profile struct {
	X     []float64 // Distance downstream [m], increasing.
	Theta []float64 // Concentration [μg/m³].
}

// Len, Less and Swap implement sort.Interface, sorting by X.
func (p *Profile) Len() int           { return len(p.X) }
func (p *Profile) Less(i, j int) bool { return p.X[i] < p.X[j] }
func (p *Profile) Swap(i, j int) {
	p.X[i], p.X[j] = p.X[j], p.X[i]
	p.Theta[i], p.Theta[j] = p.Theta[j], p.Theta[i]
}

// Interpolate interpolates the profile onto x. See the Interpolate
// function for details.
func (p *Profile) Interpolate(x []float64, policy Policy) ([]float64, error) {
	return Interpolate(x, p.X, p.Theta, policy)
}

// ReadProfile reads a profile from a file whose format is determined by its
// extension: ".csv" for comma-separated text or ".xlsx" for a Microsoft
// Excel workbook. The first column is the distance downstream and the
// second column is the concentration. A first row that is not numeric is
// treated as a header. Rows do not need to be in order.
func ReadProfile(path string) (*Profile, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("ingest: %v", err)
		}
		defer f.Close()
		p, err := ReadCSV(f)
		if err != nil {
			return nil, fmt.Errorf("%w (file %s)", err, path)
		}
		return p, nil
	case ".xlsx":
		return ReadXLSX(path)
	default:
		return nil, fmt.Errorf("%w: unsupported file extension in %s", ErrFormat, path)
	}
}

// ReadCSV reads a profile from comma-separated text.
func ReadCSV(r io.Reader) (*Profile, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		rows = append(rows, rec)
	}
	return fromRows(rows)
}

// ReadXLSX reads a profile from the first sheet of an Excel workbook.
func ReadXLSX(path string) (*Profile, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: opening xlsx file: %v", err)
	}
	if len(f.Sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrFormat, path)
	}
	s := f.Sheets[0]
	rows := make([][]string, 0, s.MaxRow)
	for j := 0; j < s.MaxRow; j++ {
		x := strings.TrimSpace(s.Cell(j, 0).Value)
		theta := strings.TrimSpace(s.Cell(j, 1).Value)
		if x == "" && theta == "" {
			continue
		}
		rows = append(rows, []string{x, theta})
	}
	p, err := fromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%w (file %s)", err, path)
	}
	return p, nil
}

// fromRows parses the first two columns of rows into a sorted profile.
func fromRows(rows [][]string) (*Profile, error) {
	p := new(Profile)
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("%w: row %d has %d columns but needs 2", ErrFormat, i+1, len(row))
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		theta, errT := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if errX != nil || errT != nil {
			if i == 0 {
				continue // header
			}
			return nil, fmt.Errorf("%w: row %d: '%s', '%s' are not numbers", ErrFormat, i+1, row[0], row[1])
		}
		p.X = append(p.X, x)
		p.Theta = append(p.Theta, theta)
	}
	if len(p.X) == 0 {
		return nil, fmt.Errorf("%w: no data", ErrFormat)
	}
	sort.Stable(p)
	return p, nil
}
