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

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"seehuhn.de/go/postscript"
)

// Hyperref describes the information which the hyperref package encodes in
// pdfmark operators when the dvips driver is used.
type Hyperref struct {
	// DefinesAnchor is set for /DEST pdfmarks.  The anchor is located at
	// the position of the special.
	DefinesAnchor bool

	// DefinesBookmark is set for /OUT pdfmarks.  The bookmark points to
	// the anchor Anchor and has Count children.
	DefinesBookmark bool

	Anchor string
	Title  string
	Count  int
}

// ParseHyperref recognizes the PostScript code emitted by hyperref for
// links, anchors and bookmarks.  If the second return value is true, the
// special must not be passed on to a PostScript interpreter.  Anchors and
// bookmarks are returned in the Hyperref value; all other recognized code
// is only needed for PDF generation and can be ignored.
func ParseHyperref(payload string) (Hyperref, bool) {
	const sdict = "ps:SDict begin"
	if !strings.HasPrefix(payload, sdict) {
		return Hyperref{}, false
	}

	switch {
	case payload == sdict+" H.S end", payload == sdict+" H.R end":
		// start and end of a link rectangle
		return Hyperref{}, true
	case strings.HasSuffix(payload, "H.A end"), strings.HasSuffix(payload, "H.L end"):
		// end of an anchor or link
		return Hyperref{}, true
	case strings.HasPrefix(payload, sdict+" /product where{pop product(Distiller)"):
		return Hyperref{}, true
	}

	if !strings.HasPrefix(payload, sdict+" [") || !strings.HasSuffix(payload, " pdfmark end") {
		return Hyperref{}, false
	}

	var res Hyperref
	if strings.Contains(payload, "/DEST") {
		res.DefinesAnchor = true
		res.Anchor = parenGroup(payload, 1)
	}
	if strings.Contains(payload, "/Dest") && strings.Contains(payload, "/Title") {
		res.DefinesBookmark = true
		res.Anchor = parenGroup(payload, 1)
		res.Title = DecodePDFString(parenGroup(payload, 2))
		res.Count = outlineCount(payload)
	}
	return res, true
}

// parenGroup returns the text after the n-th opening parenthesis, up to the
// next closing parenthesis.
func parenGroup(s string, n int) string {
	parts := strings.Split(s, "(")
	if n >= len(parts) {
		return ""
	}
	res, _, _ := strings.Cut(parts[n], ")")
	return res
}

// outlineCount returns the number of children of an outline entry.
// hyperref writes negative counts for closed entries.  The number may be
// followed directly by the next key, as in "/Count -2/Dest".
func outlineCount(s string) int {
	_, after, found := strings.Cut(s, "/Count")
	if !found {
		return 0
	}
	after = strings.TrimLeft(after, " \t\r\n")
	if after != "" && (after[0] == '-' || after[0] == '+') {
		after = after[1:]
	}
	n := 0
	for n < len(after) && after[n] >= '0' && after[n] <= '9' {
		n++
	}
	count, err := strconv.Atoi(after[:n])
	if err != nil {
		return 0
	}
	return count
}

// DecodePDFString converts the body of a PostScript string literal, as used
// for PDF text strings, into a Go string.  Escape sequences are resolved
// the way a PostScript interpreter does.  The resulting bytes are decoded
// as UTF-16 if they start with a byte order mark, and as ISO 8859-1
// otherwise.
func DecodePDFString(raw string) string {
	data := []byte(raw)

	intp := postscript.NewInterpreter()
	intp.MaxOps = 16
	err := intp.ExecuteString("(" + raw + ")")
	if err == nil && len(intp.Stack) == 1 {
		if s, ok := intp.Stack[0].(postscript.String); ok {
			data = []byte(s)
		}
	}

	if len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF {
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		if res, err := dec.Bytes(data); err == nil {
			return string(res)
		}
	}
	res, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(res)
}
