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

package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrOutOfRange is returned by Interpolate when the Reject policy is used and
// the grid extends beyond the data.
var ErrOutOfRange = errors.New("ingest: grid outside of data range")

// Policy specifies how Interpolate treats grid points outside of the range
// of the data.
type Policy int

const (
	// Clamp uses the first or last data value for grid points before
	// or after the data.
	Clamp Policy = iota

	// Reject returns an error if any grid point is outside of the data.
	Reject
)

func (p Policy) String() string {
	switch p {
	case Clamp:
		return "clamp"
	case Reject:
		return "reject"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy returns the policy with the given name ("clamp" or "reject").
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clamp":
		return Clamp, nil
	case "reject":
		return Reject, nil
	default:
		return Clamp, fmt.Errorf("ingest: invalid extrapolation policy '%s'; valid options are 'clamp' and 'reject'", s)
	}
}

// Interpolate linearly interpolates the data (xData, yData) onto x.
// xData must be sorted in increasing order; repeated values are allowed and
// the last of them is used. Grid points outside of the data range are
// handled according to policy.
func Interpolate(x, xData, yData []float64, policy Policy) ([]float64, error) {
	if len(xData) != len(yData) {
		return nil, fmt.Errorf("ingest: interpolation data lengths %d and %d differ", len(xData), len(yData))
	}
	if len(xData) == 0 {
		return nil, fmt.Errorf("ingest: no data to interpolate")
	}
	for i := 1; i < len(xData); i++ {
		if xData[i] < xData[i-1] {
			return nil, fmt.Errorf("ingest: interpolation data are not sorted at index %d", i)
		}
	}
	first, last := xData[0], xData[len(xData)-1]
	o := make([]float64, len(x))
	j := 0
	for i, xi := range x {
		switch {
		case xi < first || xi > last:
			if policy == Reject {
				return nil, fmt.Errorf("%w: x=%g is outside of [%g, %g]", ErrOutOfRange, xi, first, last)
			}
			if xi < first {
				o[i] = yData[0]
			} else {
				o[i] = yData[len(yData)-1]
			}
			continue
		case xi == last:
			o[i] = yData[len(yData)-1]
			continue
		}
		// Find j such that xData[j] <= xi < xData[j+1]. x is usually
		// increasing, so the search continues from the last position.
		if j >= len(xData)-1 || xData[j] > xi {
			j = 0
		}
		for xData[j+1] <= xi {
			j++
		}
		f := (xi - xData[j]) / (xData[j+1] - xData[j])
		o[i] = yData[j] + f*(yData[j+1]-yData[j])
	}
	return o, nil
}
