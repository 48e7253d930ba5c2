// seehuhn.de/go/dvi - a library for reading and rewriting DVI files
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package pagesize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Length is a physical length, stored in millimetres.
type Length float64

const mmPerInch = 25.4

// Common lengths.
const (
	Millimetre Length = 1
	Centimetre Length = 10
	Inch       Length = mmPerInch
	Point      Length = mmPerInch / 72.27 // TeX point
	BigPoint   Length = mmPerInch / 72    // PostScript point
)

// FromInch returns the length corresponding to x inches.
func FromInch(x float64) Length {
	return Length(x * mmPerInch)
}

// MM returns the length in millimetres.
func (l Length) MM() float64 {
	return float64(l)
}

// CM returns the length in centimetres.
func (l Length) CM() float64 {
	return float64(l) / 10
}

// Inch returns the length in inches.
func (l Length) Inch() float64 {
	return float64(l) / mmPerInch
}

// Pixels returns the length in device pixels for a device with the given
// resolution in dots per inch.  The result is truncated towards zero.
func (l Length) Pixels(dpi float64) int {
	return int(l.Inch() * dpi)
}

func (l Length) String() string {
	return strconv.FormatFloat(float64(l), 'f', -1, 64) + "mm"
}

// units lists the recognised unit names.
var units = []struct {
	name string
	size Length
}{
	{"mm", Millimetre},
	{"millimeter", Millimetre},
	{"cm", Centimetre},
	{"centimeter", Centimetre},
	{"inch", Inch},
	{"in", Inch},
	{"pt", Point},
	{"point", Point},
	{"bp", BigPoint},
	{"bigpoint", BigPoint},
	{"pc", 12 * Point},
	{"pica", 12 * Point},
	{"dd", 1238.0 / 1157.0 * Point},
	{"didot", 1238.0 / 1157.0 * Point},
	{"cc", 12 * 1238.0 / 1157.0 * Point},
	{"cicero", 12 * 1238.0 / 1157.0 * Point},
	{"sp", Point / 65536},
}

var errNoUnit = errors.New("missing unit")

// ParseLength converts a string such as "12.3mm", "8.5 in" or "15dd" to
// a Length.
func ParseLength(s string) (Length, error) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if c >= '0' && c <= '9' || c == '.' || c == '-' || c == '+' {
			end++
			continue
		}
		break
	}
	num, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, fmt.Errorf("length %q: %w", s, err)
	}
	unit := strings.ToLower(strings.TrimSpace(s[end:]))
	if unit == "" {
		return 0, fmt.Errorf("length %q: %w", s, errNoUnit)
	}
	for _, u := range units {
		if u.name == unit {
			return Length(num) * u.size, nil
		}
	}
	return 0, fmt.Errorf("length %q: unknown unit %q", s, unit)
}
