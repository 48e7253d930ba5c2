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

package dvi

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// pageBody returns the commands between BOP and EOP of the given page.
func pageBody(t *testing.T, data []byte, page int) []byte {
	t.Helper()
	doc, err := Read(data, "")
	if err != nil {
		t.Fatal(err)
	}
	start, end, err := doc.PageRange(page)
	if err != nil {
		t.Fatal(err)
	}
	if data[end-1] != EOP {
		t.Fatalf("page %d does not end with EOP", page)
	}
	return data[start+BOPSize : end-1]
}

func TestWriterEncoding(t *testing.T) {
	cmr10 := FontDef{Num: 70, Scale: 655360, Design: 655360, Name: "cmr10"}

	w := NewWriter("test")
	w.DefineFont(cmr10)
	w.BeginPage(1)
	w.Right(100)
	w.Right(-32768)
	w.Down(1 << 24)
	w.SetChar('A')
	w.SetChar(200)
	w.PutChar(3)
	w.Special("ab")
	w.Push()
	w.Repeat(Y0)
	w.Pop()
	w.EndPage()
	w.BeginPage(2)
	w.Font(70)
	w.EndPage()
	data, err := w.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	if !IsValid(data) {
		t.Fatal("output is not a valid DVI file")
	}
	if len(data)%4 != 0 {
		t.Errorf("file length %d is not a multiple of 4", len(data))
	}

	got := pageBody(t, data, 0)
	want := []byte{
		Right1, 100,
		Right2, 0x80, 0x00,
		Down4, 0x01, 0x00, 0x00, 0x00,
		'A',
		Set1, 200,
		Put1, 3,
		XXX1, 2, 'a', 'b',
		Push, Y0, Pop,
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("page 1 (-want +got):\n%s", d)
	}

	// The font definition precedes the first selection, and font
	// numbers from 64 need FNT1.
	got = pageBody(t, data, 1)
	if got[0] != FntDef1 || got[1] != 70 {
		t.Errorf("page 2 starts with % x, want a font definition", got[:2])
	}
	if got[len(got)-2] != Fnt1 || got[len(got)-1] != 70 {
		t.Errorf("page 2 ends with % x, want FNT1 70", got[len(got)-2:])
	}

	doc, err := Read(data, "")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Generator != "test" {
		t.Errorf("generator %q, want %q", doc.Generator, "test")
	}
	if d := cmp.Diff([]FontDef{cmr10}, doc.Fonts, cmp.FilterPath(func(p cmp.Path) bool {
		return p.Last().String() == ".Enlargement"
	}, cmp.Ignore())); d != "" {
		t.Errorf("fonts (-want +got):\n%s", d)
	}
	counts, err := doc.Counts(1)
	if err != nil {
		t.Fatal(err)
	}
	if counts[0] != 2 {
		t.Errorf("count0 of page 2 is %d, want 2", counts[0])
	}
}

func TestWriterErrors(t *testing.T) {
	cases := []struct {
		name string
		fn   func(w *Writer)
		msg  string
	}{
		{"outside", func(w *Writer) { w.SetChar('x') }, "outside of a page"},
		{"unfinished", func(w *Writer) { w.BeginPage() }, "not finished"},
		{"nested", func(w *Writer) { w.BeginPage(); w.BeginPage() }, "inside a page"},
		{"pop", func(w *Writer) { w.BeginPage(); w.Pop() }, "pop without push"},
		{"unbalanced", func(w *Writer) { w.BeginPage(); w.Push(); w.EndPage() }, "unbalanced"},
		{"undefined", func(w *Writer) { w.BeginPage(); w.Font(3) }, "not defined"},
		{"twice", func(w *Writer) {
			w.DefineFont(FontDef{Num: 1, Name: "a"})
			w.DefineFont(FontDef{Num: 1, Name: "b"})
		}, "defined twice"},
		{"repeat", func(w *Writer) { w.BeginPage(); w.Repeat(Right1) }, "invalid repeat"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWriter("")
			c.fn(w)
			_, err := w.Bytes()
			if err == nil {
				t.Fatal("missing error")
			}
			if !strings.Contains(err.Error(), c.msg) {
				t.Errorf("error %q does not mention %q", err, c.msg)
			}
		})
	}
}

func TestWriterSticky(t *testing.T) {
	w := NewWriter("")
	w.BeginPage()
	w.Pop()
	w.Font(99)
	w.EndPage()
	_, err := w.Bytes()
	if err == nil || !strings.Contains(err.Error(), "pop without push") {
		t.Errorf("got %v, want the first error", err)
	}
}
