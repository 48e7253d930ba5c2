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

// Package pagesize describes paper formats and physical lengths.
package pagesize

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Orientation distinguishes portrait from landscape use of a named format.
type Orientation int

// Possible orientations.
const (
	Portrait Orientation = iota
	Landscape
)

func (o Orientation) String() string {
	if o == Landscape {
		return "landscape"
	}
	return "portrait"
}

type format struct {
	name          string
	width, height Length
}

var formats = []format{
	{"DIN A0", 841, 1189},
	{"DIN A1", 594, 841},
	{"DIN A2", 420, 594},
	{"DIN A3", 297, 420},
	{"DIN A4", 210, 297},
	{"DIN A5", 148.5, 210},
	{"DIN B4", 250, 353},
	{"DIN B5", 176, 250},
	{"US Letter", 215.9, 279.4},
	{"US Legal", 215.9, 355.6},
}

const defaultFormat = 4 // DIN A4

// Limits for page dimensions.  Sizes outside this range are clamped.
const (
	MinLength Length = 50
	MaxLength Length = 1200
)

// snapTolerance is the largest deviation, in mm, for which a size is
// identified with one of the named formats.
const snapTolerance = 2

// Size is the size of a page.
type Size struct {
	Width, Height Length

	// format is an index into formats, or -1 for sizes without a name.
	format int
}

// Default returns the default page size, DIN A4 portrait.
func Default() Size {
	f := formats[defaultFormat]
	return Size{Width: f.width, Height: f.height, format: defaultFormat}
}

// Names returns the names of all known paper formats.
func Names() []string {
	res := make([]string, len(formats))
	for i, f := range formats {
		res[i] = f.name
	}
	return res
}

// New returns the page size with the given dimensions.  The dimensions are
// clamped to [MinLength, MaxLength], and sizes within 2mm of a named format
// (in either orientation) are snapped to that format.
func New(width, height Length) Size {
	s := Size{Width: clamp(width), Height: clamp(height), format: -1}
	s.snap()
	return s
}

func clamp(l Length) Length {
	if l < MinLength {
		return MinLength
	}
	if l > MaxLength {
		return MaxLength
	}
	return l
}

func (s *Size) snap() {
	for i, f := range formats {
		if near(f.width, s.Width) && near(f.height, s.Height) {
			s.Width, s.Height, s.format = f.width, f.height, i
			return
		}
		if near(f.height, s.Width) && near(f.width, s.Height) {
			s.Width, s.Height, s.format = f.height, f.width, i
			return
		}
	}
	s.format = -1
}

func near(a, b Length) bool {
	return math.Abs(float64(a-b)) <= snapTolerance
}

var errSyntax = errors.New("unrecognised page size")

// Parse reads a page size.  Three forms are understood: the name of a paper
// format ("DIN A4"), "<width>x<height>" with both numbers in millimetres,
// and "<width><unit>,<height><unit>" as used by the papersize special.
func Parse(spec string) (Size, error) {
	for i, f := range formats {
		if f.name == spec {
			return Size{Width: f.width, Height: f.height, format: i}, nil
		}
	}

	if w, h, ok := strings.Cut(spec, "x"); ok {
		wmm, err1 := strconv.ParseFloat(strings.TrimSpace(w), 64)
		hmm, err2 := strconv.ParseFloat(strings.TrimSpace(h), 64)
		if err1 == nil && err2 == nil {
			return New(Length(wmm), Length(hmm)), nil
		}
	}

	if w, h, ok := strings.Cut(spec, ","); ok {
		if i := strings.IndexByte(h, ','); i >= 0 {
			h = h[:i]
		}
		wl, err1 := ParseLength(w)
		hl, err2 := ParseLength(h)
		if err1 == nil && err2 == nil {
			return New(wl, hl), nil
		}
	}

	return Size{}, fmt.Errorf("%q: %w", spec, errSyntax)
}

// IsZero reports whether s is the zero Size.
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// Name returns the name of the paper format, or the empty string if the
// size does not correspond to a named format.
func (s Size) Name() string {
	if s.IsZero() || s.format < 0 || s.format >= len(formats) {
		return ""
	}
	return formats[s.format].name
}

// Orientation returns Landscape if the page is a named format turned
// sideways.  Pages without a name are reported as Portrait.
func (s Size) Orientation() Orientation {
	if s.Name() == "" {
		return Portrait
	}
	if s.Width == formats[s.format].width {
		return Portrait
	}
	return Landscape
}

// Serialize returns a string which Parse maps back to s.
func (s Size) Serialize() string {
	if name := s.Name(); name != "" && math.Abs(float64(formats[s.format].height-s.Height)) <= 0.5 {
		return name
	}
	return strconv.FormatFloat(s.Width.MM(), 'g', -1, 64) + "x" +
		strconv.FormatFloat(s.Height.MM(), 'g', -1, 64)
}

func (s Size) String() string {
	if name := s.Name(); name != "" {
		return name + "/" + s.Orientation().String()
	}
	return fmt.Sprintf("%.0fx%.0f mm", s.Width.MM(), s.Height.MM())
}

// NearlyEqual reports whether two sizes differ by less than 2mm in each
// dimension.
func (s Size) NearlyEqual(other Size) bool {
	return near(s.Width, other.Width) && near(s.Height, other.Height)
}
