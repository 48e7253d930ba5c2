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
	"strings"

	"golang.org/x/net/html"
)

// HTMLTag is the content of an html: special.
type HTMLTag struct {
	// Name is the value of the name attribute of an <A> tag.
	Name string

	// Href is the value of the href attribute of an <A> tag.
	Href string

	// End is true for the closing </A> tag.
	End bool
}

// ParseHTML parses the hypertext tag in an html: special, for example
// `html:<A name="sec.intro">`.  Only <A> tags are recognized; the second
// return value is false for all other content.
func ParseHTML(payload string) (HTMLTag, bool) {
	if !hasPrefixFold(payload, "html:") {
		return HTMLTag{}, false
	}

	z := html.NewTokenizer(strings.NewReader(payload[5:]))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return HTMLTag{}, false
		case html.EndTagToken:
			tok := z.Token()
			if tok.Data == "a" {
				return HTMLTag{End: true}, true
			}
			return HTMLTag{}, false
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "a" {
				return HTMLTag{}, false
			}
			var tag HTMLTag
			for _, attr := range tok.Attr {
				switch attr.Key {
				case "name":
					tag.Name = attr.Val
				case "href":
					tag.Href = attr.Val
				}
			}
			return tag, true
		}
	}
}
