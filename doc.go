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

// Package dvi provides support for reading and rewriting DVI files.
//
// A DVI file, as written by TeX, consists of a preamble, a sequence of
// pages and a postamble.  Each page is a program for a small stack machine;
// the interpreter for these programs lives in the package
// seehuhn.de/go/dvi/interp.
//
// A Document holds the contents of a DVI file in memory, together with a
// table of page offsets:
//
//	doc, err := dvi.Open("paper.dvi")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer doc.Close()
//	fmt.Println(doc.TotalPages(), "pages")
//
// Documents can be modified in place.  Patch inserts, removes or replaces
// bytes inside a page and keeps all file offsets consistent.  Renumber
// overwrites the TeX page counters by sequential page numbers.
package dvi
