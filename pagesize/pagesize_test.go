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
	"math"
	"testing"
)

func TestParseLength(t *testing.T) {
	cases := []struct {
		in   string
		mm   float64
		fail bool
	}{
		{"12mm", 12, false},
		{"1.5cm", 15, false},
		{"2in", 50.8, false},
		{"2 inch", 50.8, false},
		{"72bp", 25.4, false},
		{"72.27pt", 25.4, false},
		{"1pc", 12 * 25.4 / 72.27, false},
		{"65536sp", 25.4 / 72.27, false},
		{"12", 0, true},
		{"mm", 0, true},
		{"3furlong", 0, true},
	}
	for _, test := range cases {
		l, err := ParseLength(test.in)
		if (err != nil) != test.fail {
			t.Errorf("%q: unexpected error state %v", test.in, err)
			continue
		}
		if !test.fail && math.Abs(l.MM()-test.mm) > 1e-9 {
			t.Errorf("%q: got %gmm, want %gmm", test.in, l.MM(), test.mm)
		}
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		in     string
		name   string
		orient Orientation
		w, h   float64
	}{
		{"DIN A4", "DIN A4", Portrait, 210, 297},
		{"US Letter", "US Letter", Portrait, 215.9, 279.4},
		{"297x210", "DIN A4", Landscape, 297, 210},
		{"209x298", "DIN A4", Portrait, 210, 297},
		{"100x120", "", Portrait, 100, 120},
		{"10x2000", "", Portrait, 50, 1200},
		{"597.50787pt,845.04684pt", "DIN A4", Portrait, 210, 297},
		{"8.5in,11in", "US Letter", Portrait, 215.9, 279.4},
		{"11in,8.5in", "US Letter", Landscape, 279.4, 215.9},
	}
	for _, test := range cases {
		s, err := Parse(test.in)
		if err != nil {
			t.Errorf("%q: %v", test.in, err)
			continue
		}
		if s.Name() != test.name {
			t.Errorf("%q: name %q, want %q", test.in, s.Name(), test.name)
		}
		if s.Orientation() != test.orient {
			t.Errorf("%q: orientation %v, want %v", test.in, s.Orientation(), test.orient)
		}
		if math.Abs(s.Width.MM()-test.w) > 1e-6 || math.Abs(s.Height.MM()-test.h) > 1e-6 {
			t.Errorf("%q: size %gx%g, want %gx%g", test.in, s.Width.MM(), s.Height.MM(), test.w, test.h)
		}
	}

	for _, bad := range []string{"", "A4", "axb", "12pt;13pt", "1furlong,2furlong"} {
		if _, err := Parse(bad); err == nil {
			t.Errorf("%q: expected an error", bad)
		}
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	for _, s := range []Size{Default(), New(100, 150), New(420, 297)} {
		s2, err := Parse(s.Serialize())
		if err != nil {
			t.Fatal(err)
		}
		if !s.NearlyEqual(s2) || s.Name() != s2.Name() {
			t.Errorf("%v serialized as %q parsed as %v", s, s.Serialize(), s2)
		}
	}
}
