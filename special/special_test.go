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
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		in   string
		kind Kind
		arg  string
	}{
		{"papersize=210mm,297mm", Papersize, "=210mm,297mm"},
		{"PaperSize=a4", Papersize, "=a4"},
		{"background rgb 1 0 0", Background, " rgb 1 0 0"},
		{`html:<A name="x">`, HTMLAnchor, `html:<A name="x">`},
		{`html:<a href="y">`, HTMLHref, `html:<a href="y">`},
		{"html:</A>", HTMLAnchorEnd, "html:</A>"},
		{"header=pstricks.pro", PSHeader, "pstricks.pro"},
		{"!/x 1 def", PSBang, "/x 1 def"},
		{`"0 0 moveto`, PSQuote, "0 0 moveto"},
		{"ps: 1 setgray", PSDirect, "ps: 1 setgray"},
		{"PS::[begin] x", PSDirect, "PS::[begin] x"},
		{"PSfile=a.eps llx=0", PSFile, "a.eps llx=0"},
		{"psfile=a.eps", PSFile, "a.eps"},
		{"src:12file.tex", Source, "12file.tex"},
		{"color push gray 0", Unrecognized, "color push gray 0"},
		{"", Unrecognized, ""},
	}
	for _, c := range cases {
		kind, arg := Classify(c.in)
		if kind != c.kind || arg != c.arg {
			t.Errorf("Classify(%q) = %v, %q; want %v, %q", c.in, kind, arg, c.kind, c.arg)
		}
	}
}

func TestParsePapersize(t *testing.T) {
	size, err := ParsePapersize("=597.50787pt,845.04684pt")
	if err != nil {
		t.Fatal(err)
	}
	if name := size.Name(); name != "DIN A4" {
		t.Errorf("got page size %q, want DIN A4", name)
	}

	for _, bad := range []string{"", "210mm,297mm", "=", "=banana"} {
		if _, err := ParsePapersize(bad); err == nil {
			t.Errorf("ParsePapersize(%q) succeeded", bad)
		}
	}
}

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want color.NRGBA
		ok   bool
	}{
		{"gray 0.5", color.NRGBA{128, 128, 128, 255}, true},
		{"rgb 1 0 0", color.NRGBA{255, 0, 0, 255}, true},
		{"rgb 2 -1 0", color.NRGBA{255, 0, 0, 255}, true},
		{"cmyk 0 1 1 0", color.NRGBA{255, 0, 0, 255}, true},
		{"hsb 0 1 1", color.NRGBA{255, 0, 0, 255}, true},
		{"hsb 0.5 1 1", color.NRGBA{0, 255, 255, 255}, true},
		{"Red", color.NRGBA{255, 0, 0, 255}, true},
		{"Gray", color.NRGBA{128, 128, 128, 255}, true},
		{"  white ", color.NRGBA{255, 255, 255, 255}, true},
		{"aliceblue", color.NRGBA{240, 248, 255, 255}, true},
		{"rgb 1 0", color.NRGBA{}, false},
		{"gray x", color.NRGBA{}, false},
		{"nosuchcolour", color.NRGBA{}, false},
		{"", color.NRGBA{}, false},
	}
	for _, c := range cases {
		got, ok := ParseColor(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("ParseColor(%q) = %v, %t; want %v, %t", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestParseHTML(t *testing.T) {
	cases := []struct {
		in   string
		want HTMLTag
		ok   bool
	}{
		{`html:<A name="sec.1">`, HTMLTag{Name: "sec.1"}, true},
		{`html:<a href="http://example.org/?a=1">`, HTMLTag{Href: "http://example.org/?a=1"}, true},
		{`html:<A href="#page.3">`, HTMLTag{Href: "#page.3"}, true},
		{"html:</A>", HTMLTag{End: true}, true},
		{`html:<img src="x.png">`, HTMLTag{}, false},
		{"html:", HTMLTag{}, false},
		{`<A name="x">`, HTMLTag{}, false},
	}
	for _, c := range cases {
		got, ok := ParseHTML(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("ParseHTML(%q) = %v, %t; want %v, %t", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestParseInclude(t *testing.T) {
	cases := []struct {
		in   string
		want *Include
	}{
		{
			"fig.eps llx=0 lly=0 urx=72 ury=72 rwi=720",
			&Include{File: "fig.eps", Urx: 72, Ury: 72, RWi: 720},
		},
		{
			`  "plot.eps"   llx=-10 lly=5  urx=100 ury=50 rhi=300 angle=90 clip`,
			&Include{File: "plot.eps", Llx: -10, Lly: 5, Urx: 100, Ury: 50, RHi: 300, Angle: 90, Clip: true},
		},
		{
			"llx=3.eps",
			&Include{File: "llx=3.eps"},
		},
		{
			"a.eps llx=x urx=12",
			&Include{File: "a.eps", Urx: 12},
		},
	}
	for _, c := range cases {
		got := ParseInclude(c.in)
		if d := cmp.Diff(c.want, got); d != "" {
			t.Errorf("ParseInclude(%q) (-want +got):\n%s", c.in, d)
		}
	}
}

func TestIncludeKind(t *testing.T) {
	cases := []struct {
		file   string
		ext    string
		raster bool
		pdf    bool
	}{
		{"fig.eps", "eps", false, false},
		{"photo.JPG", "jpg", true, false},
		{"dir.v2/pic.png", "png", true, false},
		{"graph.pdf", "pdf", false, true},
		{"noext", "noext", false, false},
	}
	for _, c := range cases {
		inc := &Include{File: c.file}
		if got := inc.Ext(); got != c.ext {
			t.Errorf("%s: Ext() = %q, want %q", c.file, got, c.ext)
		}
		if got := inc.IsRaster(); got != c.raster {
			t.Errorf("%s: IsRaster() = %t", c.file, got)
		}
		if got := inc.IsPDF(); got != c.pdf {
			t.Errorf("%s: IsPDF() = %t", c.file, got)
		}
	}
}

func TestIncludeSize(t *testing.T) {
	inc := &Include{Urx: 200, Ury: 100}
	if w, h := inc.Size(); w != 200 || h != 100 {
		t.Errorf("natural size = %g x %g", w, h)
	}
	inc.RWi = 1000
	if w, h := inc.Size(); w != 100 || h != 50 {
		t.Errorf("size with rwi = %g x %g", w, h)
	}
	inc.RWi = 0
	inc.RHi = 2000
	if w, h := inc.Size(); w != 400 || h != 200 {
		t.Errorf("size with rhi = %g x %g", w, h)
	}
}

func TestParseHyperref(t *testing.T) {
	cases := []struct {
		in      string
		want    Hyperref
		handled bool
	}{
		{"ps:SDict begin H.S end", Hyperref{}, true},
		{"ps:SDict begin H.R end", Hyperref{}, true},
		{"ps:SDict begin 12 H.A end", Hyperref{}, true},
		{"ps:SDict begin [/H /I/Border [0 0 1]/Color [1 0 0] H.L end", Hyperref{}, true},
		{"ps:SDict begin /product where{pop product(Distiller)search{pop pop pop}{pop}ifelse}if end", Hyperref{}, true},
		{
			"ps:SDict begin [/View [/XYZ H.V]/Dest (page.2) cvn /DEST pdfmark end",
			Hyperref{DefinesAnchor: true, Anchor: "page.2"},
			true,
		},
		{
			"ps:SDict begin [/Count -2/Dest (section.1) cvn/Title (Introduction) /OUT pdfmark end",
			Hyperref{DefinesBookmark: true, Anchor: "section.1", Title: "Introduction", Count: 2},
			true,
		},
		{
			"ps:SDict begin [/Dest (section*.3) cvn/Title (Gr\\374\\337e) /OUT pdfmark end",
			Hyperref{DefinesBookmark: true, Anchor: "section*.3", Title: "Grüße"},
			true,
		},
		{"ps:SDict begin /x 1 def end", Hyperref{}, false},
		{"ps: 0 0 moveto", Hyperref{}, false},
	}
	for _, c := range cases {
		got, handled := ParseHyperref(c.in)
		if handled != c.handled {
			t.Errorf("%q: handled = %t, want %t", c.in, handled, c.handled)
		}
		if d := cmp.Diff(c.want, got); d != "" {
			t.Errorf("%q (-want +got):\n%s", c.in, d)
		}
	}
}

func TestOutlineCount(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"[/Count -2/Dest (section.1) cvn", 2},
		{"[/Count -12/Dest (section.1) cvn", 12},
		{"[/Count 3 /Dest (chapter.1) cvn", 3},
		{"[/Count\t+4/Dest (chapter.1) cvn", 4},
		{"[/Count/Dest (chapter.1) cvn", 0},
		{"[/Dest (chapter.1) cvn", 0},
	}
	for _, c := range cases {
		if got := outlineCount(c.in); got != c.want {
			t.Errorf("%q: got %d, want %d", c.in, got, c.want)
		}
	}
}

func TestDecodePDFString(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{`a\(b\)`, "a(b)"},
		{`tab\there`, "tab\there"},
		{`\374ber`, "über"},
		{`\376\377\000A\000\344`, "Aä"},
		{"caf\xe9", "café"},
	}
	for _, c := range cases {
		if got := DecodePDFString(c.in); got != c.want {
			t.Errorf("DecodePDFString(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPostScriptWrappers(t *testing.T) {
	const h0, v0 = 1200 << 16, 1200

	if got, want := Moveto(h0, v0), " 0 0 moveto\n"; got != want {
		t.Errorf("Moveto = %q, want %q", got, want)
	}
	if got, want := Moveto(2400<<16, 1201), " 300 0.25 moveto\n"; got != want {
		t.Errorf("Moveto = %q, want %q", got, want)
	}

	cases := []struct {
		got, want string
	}{
		{BangPS("/a 1 def"), " @defspecial \n/a 1 def @fedspecial \n"},
		{QuotePS(h0, v0, "newpath"), " 0 0 moveto\n @beginspecial @setspecial \nnewpath @endspecial \n"},
		{HeaderPS("/tmp/x.pro"), " (/tmp/x.pro) run\n"},
		{DirectPS(h0, v0, "ps::[begin] gsave"), " 0 0 moveto\n  gsave\n"},
		{DirectPS(h0, v0, "ps::[end] grestore"), "  grestore\n"},
		{DirectPS(h0, v0, "ps:: 1 setgray"), "  1 setgray\n"},
		{DirectPS(h0, v0, "ps:0 setgray"), " 0 0 moveto\n 0 setgray\n"},
		{
			IncludePS(h0, v0, &Include{Urx: 72, Ury: 72, RWi: 720, Clip: true}, "/x/fig.eps"),
			" 0 0 moveto\n@beginspecial  0 @llx 0 @lly 72 @urx 72 @ury 720 @rwi @clip @setspecial \n (/x/fig.eps) run\n@endspecial \n",
		},
		{
			EmbeddedPS(&Include{Urx: 72, Ury: 72, RWi: 720},
				[]byte("%!PS\n0 0 moveto % comment\n  1 1 lineto\r\n")),
			"ps: @beginspecial 0 @llx 0 @lly 72 @urx 72 @ury 720 @rwi @setspecial 0 0 moveto 1 1 lineto @endspecial",
		},
	}
	for i, c := range cases {
		if c.got != c.want {
			t.Errorf("%d: got %q, want %q", i, c.got, c.want)
		}
	}
}
