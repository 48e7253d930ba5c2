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

package special

import (
	"strconv"
	"strings"

	"seehuhn.de/go/geom/rect"
)

// Include describes a graphics inclusion from a PSfile= special.
//
// The bounding box is given in PostScript big points.  RWi and RHi give
// the desired width and height of the graphic in tenths of a big point;
// zero means the value is not set.
type Include struct {
	File string

	Llx, Lly, Urx, Ury int
	RWi, RHi           int
	Angle              int
	Clip               bool
}

// ParseInclude parses the argument of a PSfile= special, for example
// `fig.eps llx=0 lly=0 urx=72 ury=72 rwi=720`.
//
// The file name extends up to the first space and may be enclosed in
// double quotes.  Unknown or malformed parameters are ignored.
func ParseInclude(arg string) *Include {
	cmd := simplifyWhiteSpace(arg)

	inc := &Include{}
	var rest string
	if i := strings.IndexByte(cmd, ' '); i >= 0 {
		inc.File = cmd[:i]
		rest = cmd[i:]
	} else {
		inc.File = cmd
	}
	if n := len(inc.File); n >= 2 && inc.File[0] == '"' && inc.File[n-1] == '"' {
		inc.File = inc.File[1 : n-1]
	}

	// Parameters are only searched after the file name, since the file
	// name could contain the keywords.
	params := []struct {
		key string
		val *int
	}{
		{"llx=", &inc.Llx},
		{"lly=", &inc.Lly},
		{"urx=", &inc.Urx},
		{"ury=", &inc.Ury},
		{"rwi=", &inc.RWi},
		{"rhi=", &inc.RHi},
		{"angle=", &inc.Angle},
	}
	for _, p := range params {
		idx := strings.Index(rest, p.key)
		if idx < 0 {
			continue
		}
		val := rest[idx+len(p.key):]
		if j := strings.IndexByte(val, ' '); j >= 0 {
			val = val[:j]
		}
		if x, err := strconv.Atoi(val); err == nil {
			*p.val = x
		}
	}
	inc.Clip = strings.Contains(rest, " clip")

	return inc
}

// Ext returns the lower-case file name extension, without the dot.
// If the file name contains no dot, the whole name is returned.
func (inc *Include) Ext() string {
	name := inc.File
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}

// IsRaster reports whether the file name indicates a raster image, which
// cannot be included into PostScript output.
func (inc *Include) IsRaster() bool {
	switch inc.Ext() {
	case "png", "gif", "jpg", "jpeg", "bmp", "tif", "tiff", "webp":
		return true
	default:
		return false
	}
}

// IsPDF reports whether the file name indicates a PDF file.
func (inc *Include) IsPDF() bool {
	return inc.Ext() == "pdf"
}

// BBox returns the bounding box of the graphic, in big points.
func (inc *Include) BBox() rect.Rect {
	return rect.Rect{
		LLx: float64(inc.Llx),
		LLy: float64(inc.Lly),
		URx: float64(inc.Urx),
		URy: float64(inc.Ury),
	}
}

// Size returns the size of the graphic on the page, in big points.
// This takes the rwi and rhi parameters into account.
func (inc *Include) Size() (width, height float64) {
	box := inc.BBox()
	width, height = box.Dx(), box.Dy()
	if inc.RWi != 0 && width != 0 {
		height = height * float64(inc.RWi) / 10 / width
		width = float64(inc.RWi) / 10
	}
	if inc.RHi != 0 && height != 0 {
		width = width * float64(inc.RHi) / 10 / height
		height = float64(inc.RHi) / 10
	}
	return width, height
}
