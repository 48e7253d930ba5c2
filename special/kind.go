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

// Package special decodes the payload of DVI special commands.
//
// Specials are free-form strings which TeX macro packages use to pass
// information to the DVI driver.  This package recognizes the directives
// understood by dvips-compatible drivers: page sizes, background colours,
// hypertext anchors, source positions, and the different ways of embedding
// PostScript code and graphics.
package special

import (
	"fmt"
	"strings"
)

// Kind identifies the directive contained in a special.
type Kind int

// These are the directives recognized by Classify.
const (
	Unrecognized  Kind = iota
	Papersize          // papersize=<width>,<height>
	Background         // background <colour>
	HTMLAnchor         // html:<A name="...">
	HTMLHref           // html:<A href="...">
	HTMLAnchorEnd      // html:</A>
	PSHeader           // header=<file>
	PSBang             // !<PostScript for the prolog>
	PSQuote            // "<PostScript>
	PSDirect           // ps:<PostScript>
	PSFile             // PSfile=<file> llx=... lly=... urx=... ury=...
	Source             // src:<line><file>
)

func (k Kind) String() string {
	switch k {
	case Unrecognized:
		return "unrecognized"
	case Papersize:
		return "papersize"
	case Background:
		return "background"
	case HTMLAnchor:
		return "html anchor"
	case HTMLHref:
		return "html href"
	case HTMLAnchorEnd:
		return "html anchor end"
	case PSHeader:
		return "PostScript header"
	case PSBang:
		return "PostScript bang"
	case PSQuote:
		return "PostScript quote"
	case PSDirect:
		return "PostScript direct"
	case PSFile:
		return "PostScript file"
	case Source:
		return "source"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

type prefix struct {
	text string
	kind Kind
	keep bool // whether the argument includes the prefix
}

// The order matters: a special is classified by the first matching entry.
var prefixes = []prefix{
	{"papersize", Papersize, false},
	{"background", Background, false},
	{"html:<A name=", HTMLAnchor, true},
	{"html:<A href=", HTMLHref, true},
	{"header=", PSHeader, false},
	{"!", PSBang, false},
	{"\"", PSQuote, false},
	{"ps:", PSDirect, true},
	{"PSfile=", PSFile, false},
	{"src:", Source, false},
	{"html:</A>", HTMLAnchorEnd, true},
}

// Classify determines the kind of a special.  The returned argument is the
// part of the payload after the directive keyword.  For HTML specials and
// for PSDirect the complete payload is returned.
//
// Keywords are matched without regard to case.
func Classify(payload string) (Kind, string) {
	for _, p := range prefixes {
		if hasPrefixFold(payload, p.text) {
			if p.keep {
				return p.kind, payload
			}
			return p.kind, payload[len(p.text):]
		}
	}
	return Unrecognized, payload
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// simplifyWhiteSpace removes leading and trailing white space and replaces
// every internal run of white space with a single space character.
func simplifyWhiteSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
