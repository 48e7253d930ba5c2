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

package fontpool

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"seehuhn.de/go/geom/matrix"
	geompath "seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
	pstype1 "seehuhn.de/go/postscript/type1"
)

func TestType1Outline(t *testing.T) {
	g := &pstype1.Glyph{WidthX: 500}
	g.MoveTo(100, 0)
	g.LineTo(400, 0)
	g.CurveTo(400, 200, 300, 300, 200, 300)
	g.ClosePath()

	enc := make([]string, 256)
	enc['A'] = "A"
	enc['B'] = "B"
	src := &type1Source{font: &pstype1.Font{
		FontInfo: &pstype1.FontInfo{
			FontMatrix: matrix.Matrix{0.001, 0, 0, 0.001, 0, 0},
		},
		Outlines: &pstype1.Outlines{
			Glyphs:   map[string]*pstype1.Glyph{"A": g},
			Encoding: enc,
		},
	}}

	got, ok := src.Outline('A')
	if !ok {
		t.Fatal("no outline for A")
	}
	want := Outline{
		{Cmd: geompath.CmdMoveTo, Points: []vec.Vec2{{X: 0.1, Y: 0}}},
		{Cmd: geompath.CmdLineTo, Points: []vec.Vec2{{X: 0.4, Y: 0}}},
		{Cmd: geompath.CmdCubeTo, Points: []vec.Vec2{{X: 0.4, Y: 0.2}, {X: 0.3, Y: 0.3}, {X: 0.2, Y: 0.3}}},
		{Cmd: geompath.CmdClose},
	}
	approx := cmp.Comparer(func(a, b float64) bool {
		d := a - b
		return d < 1e-9 && d > -1e-9
	})
	if d := cmp.Diff(want, got, approx); d != "" {
		t.Errorf("outline mismatch (-want +got):\n%s", d)
	}

	if _, ok := src.Outline('B'); ok {
		t.Error("outline for glyph missing from the font")
	}
	if _, ok := src.Outline(300); ok {
		t.Error("outline for code outside the encoding")
	}
}
