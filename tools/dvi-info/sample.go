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

package main

import (
	"os"

	"seehuhn.de/go/dvi"
)

// writeSample writes a short document which exercises the most common
// DVI commands and specials.
func writeSample(fname string) error {
	const pt = 65536

	w := dvi.NewWriter(build.DVIComment())
	w.DefineFont(dvi.FontDef{Num: 0, Checksum: 0x4bf16079, Scale: 10 * pt, Design: 10 * pt, Name: "cmr10"})

	w.BeginPage(1)
	w.Special("papersize=210mm,297mm")
	w.Special(`ps:SDict begin [/Count -1/Dest (section.1) cvn/Title (Introduction) /OUT pdfmark end`)
	w.Down(72 * pt)
	w.Right(72 * pt)
	w.Special(`ps:SDict begin [/View [/XYZ H.V]/Dest (section.1) cvn /DEST pdfmark end`)
	w.Special("src:1sample.tex")
	w.Font(0)
	for _, c := range "Sample" {
		w.SetChar(uint32(c))
	}
	w.Down(14 * pt)
	w.Push()
	w.Special(`html:<A href="https://www.seehuhn.de/">`)
	w.SetRule(pt/2, 100*pt)
	w.Special("html:</A>")
	w.Pop()
	w.EndPage()

	w.BeginPage(2)
	w.Special(`ps:SDict begin [/Dest (section.2) cvn/Title (Details) /OUT pdfmark end`)
	w.Down(72 * pt)
	w.Special(`ps:SDict begin [/View [/XYZ H.V]/Dest (section.2) cvn /DEST pdfmark end`)
	w.Special(`html:<A name="details">`)
	w.Special("src:10sample.tex")
	w.Font(0)
	for _, c := range "Details" {
		w.SetChar(uint32(c))
	}
	w.EndPage()

	data, err := w.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(fname, data, 0o644)
}
