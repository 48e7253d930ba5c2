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
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// The functions in this file generate the PostScript code which is passed
// to the rasterizer.  The code relies on the procedures defined in the
// dvips prolog files (special.pro): @beginspecial, @setspecial, and so on.
//
// Positions are given as the h and v registers of the DVI interpreter.
// PostScript coordinates are in units of 1/300 inch, relative to the
// one-inch margin.

// psNumber formats a number the way the C printf format "%g" does.
func psNumber(x float64) string {
	return strconv.FormatFloat(x, 'g', 6, 64)
}

// Moveto returns the PostScript code to move to the given position.
func Moveto(h, v int64) string {
	psH := float64(h)*300/(65536*1200) - 300
	psV := float64(v)*300/1200 - 300
	return " " + psNumber(psH) + " " + psNumber(psV) + " moveto\n"
}

// BangPS wraps the argument of a "!" special for inclusion into the
// PostScript header.
func BangPS(code string) string {
	return " @defspecial \n" + code + " @fedspecial \n"
}

// QuotePS wraps the argument of a '"' special at the given position.
func QuotePS(h, v int64, code string) string {
	return Moveto(h, v) + " @beginspecial @setspecial \n" + code + " @endspecial \n"
}

// HeaderPS returns the PostScript code to load a header file.
func HeaderPS(file string) string {
	return " (" + file + ") run\n"
}

// DirectPS converts a ps: special into PostScript code.  The payload must
// include the "ps:" prefix.  The forms "ps::[begin]", "ps::[end]" and
// "ps::" are recognized; only "ps::[begin]" and plain "ps:" code is
// positioned at the current point.
func DirectPS(h, v int64, payload string) string {
	switch {
	case hasPrefixFold(payload, "ps::[begin]"):
		return Moveto(h, v) + " " + payload[11:] + "\n"
	case hasPrefixFold(payload, "ps::[end]"):
		return " " + payload[9:] + "\n"
	case hasPrefixFold(payload, "ps::"):
		return " " + payload[4:] + "\n"
	default:
		return Moveto(h, v) + " " + payload[3:] + "\n"
	}
}

// specialParams returns the @beginspecial parameters for a graphic.
func (inc *Include) specialParams() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, " %d @llx %d @lly %d @urx %d @ury", inc.Llx, inc.Lly, inc.Urx, inc.Ury)
	if inc.RWi != 0 {
		fmt.Fprintf(&buf, " %d @rwi", inc.RWi)
	}
	if inc.RHi != 0 {
		fmt.Fprintf(&buf, " %d @rhi", inc.RHi)
	}
	if inc.Angle != 0 {
		fmt.Fprintf(&buf, " %d @angle", inc.Angle)
	}
	if inc.Clip {
		buf.WriteString(" @clip")
	}
	return buf.String()
}

// IncludePS returns the PostScript code to include the graphic from the
// file fileName, which must be readable by the PostScript interpreter.
func IncludePS(h, v int64, inc *Include, fileName string) string {
	return Moveto(h, v) +
		"@beginspecial " +
		inc.specialParams() +
		" @setspecial \n" +
		HeaderPS(fileName) +
		"@endspecial \n"
}

// EmbeddedPS returns the payload of a ps: special which contains the
// complete PostScript code of a graphic.  Comments are removed from the
// code, and all white space is collapsed into single spaces.
func EmbeddedPS(inc *Include, content []byte) string {
	var buf strings.Builder
	buf.WriteString("ps: @beginspecial")
	buf.WriteString(inc.specialParams())
	buf.WriteString(" @setspecial\n")

	lines := bufio.NewScanner(bytes.NewReader(content))
	lines.Buffer(nil, len(content)+1)
	for lines.Scan() {
		line, _, _ := strings.Cut(lines.Text(), "%")
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	buf.WriteString("@endspecial")

	return simplifyWhiteSpace(buf.String())
}
