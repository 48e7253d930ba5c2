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
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"

	geompath "seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
	pstype1 "seehuhn.de/go/postscript/type1"
	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/glyph"
)

// Segment is one drawing command of a glyph outline.  The number of points
// is 1 for MoveTo and LineTo, 2 for QuadTo, 3 for CubeTo and 0 for Close.
type Segment struct {
	Cmd    geompath.Command
	Points []vec.Vec2
}

// Outline is the shape of a glyph.  Coordinates are in units of the font
// size, with the y-axis pointing up.
type Outline []Segment

// glyphSource maps character codes to outlines.
type glyphSource interface {
	Outline(code uint32) (Outline, bool)
}

var errUnknownOutlineFormat = errors.New("unknown font file format")

// loadOutlines reads a Type 1 or OpenType font file.
func loadOutlines(fname string) (glyphSource, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	switch {
	case isType1(data):
		psFont, err := pstype1.Read(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fname, err)
		}
		return &type1Source{font: psFont}, nil
	case isSfnt(data):
		f, err := sfnt.Read(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fname, err)
		}
		return newSfntSource(f), nil
	}
	return nil, fmt.Errorf("%s: %w", fname, errUnknownOutlineFormat)
}

func isType1(data []byte) bool {
	if len(data) > 0 && data[0] == 0x80 { // pfb segment marker
		return true
	}
	return bytes.HasPrefix(data, []byte("%!PS-AdobeFont")) ||
		bytes.HasPrefix(data, []byte("%!FontType1"))
}

func isSfnt(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	switch string(data[:4]) {
	case "OTTO", "true", "\x00\x01\x00\x00":
		return true
	}
	return false
}

type type1Source struct {
	font *pstype1.Font
}

func (s *type1Source) Outline(code uint32) (Outline, bool) {
	if int(code) >= len(s.font.Encoding) {
		return nil, false
	}
	name := s.font.Encoding[code]
	g := s.font.Glyphs[name]
	if g == nil {
		return nil, false
	}

	q := s.font.FontMatrix[0]
	pt := func(args []float64) vec.Vec2 {
		return vec.Vec2{X: args[0] * q, Y: args[1] * q}
	}
	var res Outline
	for _, op := range g.Cmds {
		var seg Segment
		switch op.Op {
		case pstype1.OpMoveTo, pstype1.OpLineTo:
			if len(op.Args) < 2 {
				continue
			}
			seg.Cmd = geompath.CmdLineTo
			if op.Op == pstype1.OpMoveTo {
				seg.Cmd = geompath.CmdMoveTo
			}
			seg.Points = []vec.Vec2{pt(op.Args)}
		case pstype1.OpCurveTo:
			if len(op.Args) < 6 {
				continue
			}
			seg.Cmd = geompath.CmdCubeTo
			seg.Points = []vec.Vec2{pt(op.Args[0:]), pt(op.Args[2:]), pt(op.Args[4:])}
		case pstype1.OpClosePath:
			seg.Cmd = geompath.CmdClose
		default:
			continue
		}
		res = append(res, seg)
	}
	return res, true
}

type sfntSource struct {
	font  *sfnt.Font
	cmap  func(rune) glyph.ID
	scale float64
}

func newSfntSource(f *sfnt.Font) *sfntSource {
	s := &sfntSource{
		font:  f,
		scale: 1 / float64(f.UnitsPerEm),
	}
	if subtable, err := f.CMapTable.GetBest(); err == nil && subtable != nil {
		s.cmap = subtable.Lookup
	}
	return s
}

func (s *sfntSource) Outline(code uint32) (Outline, bool) {
	if s.font.Outlines == nil {
		return nil, false
	}
	gid := glyph.ID(code)
	if s.cmap != nil {
		if g := s.cmap(rune(code)); g != 0 {
			gid = g
		}
	}
	if gid == 0 {
		return nil, false
	}

	var res Outline
	for cmd, points := range s.font.Outlines.Path(gid) {
		pts := slices.Clone(points)
		for i := range pts {
			pts[i].X *= s.scale
			pts[i].Y *= s.scale
		}
		res = append(res, Segment{Cmd: cmd, Points: pts})
	}
	return res, true
}
