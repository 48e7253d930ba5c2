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

package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"seehuhn.de/go/dvi"
	"seehuhn.de/go/dvi/fontpool"
	"seehuhn.de/go/dvi/srcmap"
)

// oneInch is one inch in DVI units, for documents written by dvi.Writer.
const oneInch = 4736286

// The origin of a page is one inch below and one inch to the right of the
// top left corner of the paper, so a position after Down(oneInch) is two
// inches from the top.

// testLocator finds files in a single directory.
type testLocator struct {
	dir string
}

func (l *testLocator) Locate(_ context.Context, name, _ string) (string, bool) {
	fname := filepath.Join(l.dir, name)
	if _, err := os.Stat(fname); err != nil {
		return "", false
	}
	return fname, true
}

func (l *testLocator) ConvertPDF(_ context.Context, _ *dvi.Document, src string) (string, bool) {
	dst := strings.TrimSuffix(src, ".pdf") + ".ps"
	err := os.WriteFile(dst, []byte("%!PS\n1 1 moveto\n"), 0o644)
	return dst, err == nil
}

func noFind(context.Context, string) (string, error) {
	return "", os.ErrNotExist
}

// buildDoc writes a document with one page per function.
func buildDoc(t *testing.T, dir string, pages ...func(w *dvi.Writer)) *dvi.Document {
	t.Helper()
	w := dvi.NewWriter("render test")
	for i, page := range pages {
		w.BeginPage(int32(i + 1))
		page(w)
		w.EndPage()
	}
	data, err := w.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	doc, err := dvi.Read(data, filepath.Join(dir, "test.dvi"))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func newTestSession(t *testing.T, dir string, doc *dvi.Document) *Session {
	t.Helper()
	s := NewSession(&Options{
		Resolution: 72,
		Fonts:      fontpool.New(&fontpool.Options{Find: noFind}),
		Locator:    &testLocator{dir: dir},
	})
	if err := s.SetFile(context.Background(), doc); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPrescanAnchors(t *testing.T) {
	dir := t.TempDir()
	doc := buildDoc(t, dir,
		func(w *dvi.Writer) {
			w.Down(oneInch)
			w.Special(`html:<A name="intro">`)
			w.Special(`ps:SDict begin [/Count -1/Dest (section.1) cvn/Title (Introduction) /OUT pdfmark end`)
		},
		func(w *dvi.Writer) {
			w.Down(2 * oneInch)
			w.Special(`ps:SDict begin [/View [/XYZ H.V]/Dest (section.1) cvn /DEST pdfmark end`)
			w.Special(`ps:SDict begin [/Dest (section.2) cvn/Title (Details) /OUT pdfmark end`)
		},
	)
	s := newTestSession(t, dir, doc)

	a, ok := s.Anchor("intro")
	if !ok {
		t.Fatal("anchor intro not found")
	}
	if a.Page != 1 || math.Abs(a.Distance.Inch()-2) > 0.01 {
		t.Errorf("intro = %v, want page 1 at 2in", a)
	}

	sec, ok := s.Anchor("section.1")
	if !ok {
		t.Fatal("anchor section.1 not found")
	}
	if sec.Page != 2 || math.Abs(sec.Distance.Inch()-3) > 0.01 {
		t.Errorf("section.1 = %v, want page 2 at 3in", sec)
	}

	pre := s.Prebookmarks()
	if len(pre) != 2 || pre[0].Title != "Introduction" || pre[0].Count != 1 {
		t.Errorf("unexpected prebookmarks %v", pre)
	}

	bm := s.Bookmarks()
	if len(bm) != 1 {
		t.Fatalf("got %d top-level bookmarks, want 1", len(bm))
	}
	if bm[0].Position != sec {
		t.Errorf("bookmark position %v, want %v", bm[0].Position, sec)
	}
	if len(bm[0].Children) != 1 || bm[0].Children[0].Title != "Details" {
		t.Errorf("unexpected children %v", bm[0].Children)
	}
	if bm[0].Children[0].Position.IsValid() {
		t.Errorf("bookmark with unknown anchor has valid position")
	}
}

func TestPrescanPapersize(t *testing.T) {
	dir := t.TempDir()
	doc := buildDoc(t, dir,
		func(w *dvi.Writer) {},
		func(w *dvi.Writer) { w.Special("papersize=100mm,150mm") },
		func(w *dvi.Writer) { w.Special("papersize=garbage") },
	)
	s := newTestSession(t, dir, doc)

	if _, ok := s.SizeOfPage(1); ok {
		t.Error("page 1 has a paper size")
	}
	for _, page := range []int{2, 3} {
		size, ok := s.SizeOfPage(page)
		if !ok {
			t.Errorf("page %d has no paper size", page)
			continue
		}
		if math.Abs(float64(size.Width)-100) > 1e-6 || math.Abs(float64(size.Height)-150) > 1e-6 {
			t.Errorf("page %d: size %v", page, size)
		}
	}
	if doc.SuggestedPageSize == nil || math.Abs(float64(doc.SuggestedPageSize.Width)-100) > 1e-6 {
		t.Errorf("suggested page size %v", doc.SuggestedPageSize)
	}

	want := []Warning{{Page: 3, Message: `the papersize data "=garbage" could not be parsed`}}
	if d := cmp.Diff(want, s.Warnings()); d != "" {
		t.Errorf("warnings (-want +got):\n%s", d)
	}
}

func TestPrescanBackground(t *testing.T) {
	dir := t.TempDir()
	doc := buildDoc(t, dir,
		func(w *dvi.Writer) {},
		func(w *dvi.Writer) { w.Special("background rgb 1 0 0") },
		func(w *dvi.Writer) {},
		func(w *dvi.Writer) { w.Special("background nosuchcolour") },
	)
	s := newTestSession(t, dir, doc)

	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	red := color.NRGBA{R: 255, A: 255}
	want := []color.NRGBA{white, red, red, red}
	for i, c := range want {
		if got := s.Background(i + 1); got != c {
			t.Errorf("page %d: background %v, want %v", i+1, got, c)
		}
	}
	if w := s.Warnings(); len(w) != 1 || w[0].Page != 4 {
		t.Errorf("unexpected warnings %v", w)
	}
}

func TestPrescanPostScript(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "fig.eps"), []byte("%!PS\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc := buildDoc(t, dir,
		func(w *dvi.Writer) {
			w.Special("! /foo 1 def")
			w.Special(`" newpath`)
			w.Special("PSfile=fig.eps llx=0 lly=0 urx=72 ury=72")
			w.Special("PSfile=photo.png llx=0 lly=0 urx=72 ury=72")
			w.Special("PSfile=missing.eps llx=0 lly=0 urx=72 ury=72")
		},
		func(w *dvi.Writer) {},
	)
	s := newTestSession(t, dir, doc)

	if got := s.opt.PostScript.IncludePath; got != dir {
		t.Errorf("Ghostscript include path %q, want %q", got, dir)
	}
	if h := s.opt.PostScript.Header(); !strings.Contains(h, "/foo 1 def") {
		t.Errorf("header %q does not contain the bang special", h)
	}
	ps := s.PostScript(1)
	if !strings.Contains(ps, "newpath") {
		t.Errorf("page code %q does not contain the quote special", ps)
	}
	if !strings.Contains(ps, filepath.Join(dir, "fig.eps")) {
		t.Errorf("page code %q does not include fig.eps", ps)
	}
	if s.PostScript(2) != "" {
		t.Errorf("page 2 has PostScript code %q", s.PostScript(2))
	}

	if doc.NumberOfExternalPSFiles != 2 {
		t.Errorf("%d PostScript files, want 2", doc.NumberOfExternalPSFiles)
	}
	if doc.NumberOfExternalNonPSFiles != 1 {
		t.Errorf("%d other files, want 1", doc.NumberOfExternalNonPSFiles)
	}

	want := []Warning{{Page: 1, Message: `the PostScript file "missing.eps" could not be found`}}
	if d := cmp.Diff(want, s.Warnings()); d != "" {
		t.Errorf("warnings (-want +got):\n%s", d)
	}
}

func TestPrescanMissingFont(t *testing.T) {
	dir := t.TempDir()
	w := dvi.NewWriter("render test")
	w.DefineFont(dvi.FontDef{Num: 0, Scale: 655360, Design: 655360, Name: "nofont"})
	w.BeginPage(1)
	w.Font(0)
	w.SetChar('A')
	w.EndPage()
	data, err := w.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	doc, err := dvi.Read(data, filepath.Join(dir, "test.dvi"))
	if err != nil {
		t.Fatal(err)
	}
	s := newTestSession(t, dir, doc)

	warnings := s.Warnings()
	if len(warnings) != 1 || warnings[0].Page != 0 || !strings.Contains(warnings[0].Message, "nofont") {
		t.Errorf("unexpected warnings %v", warnings)
	}
}

func TestParseReference(t *testing.T) {
	dir := t.TempDir()
	doc := buildDoc(t, dir,
		func(w *dvi.Writer) {},
		func(w *dvi.Writer) {
			w.Down(oneInch)
			w.Special("src:10chap.tex")
			w.Down(oneInch)
			w.Special("src:20chap.tex")
		},
		func(w *dvi.Writer) {},
	)
	s := newTestSession(t, dir, doc)
	if !doc.HasSourceSpecials {
		t.Error("source specials not detected")
	}
	if n := len(s.SourceAnchors()); n != 2 {
		t.Errorf("%d source anchors, want 2", n)
	}

	for _, c := range []struct {
		ref  string
		page int
	}{
		{"2", 2},
		{"-5", 0},
		{"99", 3},
	} {
		a, err := s.ParseReference(c.ref)
		if err != nil {
			t.Errorf("%q: %v", c.ref, err)
		} else if a.Page != c.page {
			t.Errorf("%q: page %d, want %d", c.ref, a.Page, c.page)
		}
	}

	a, err := s.ParseReference("src:15chap.tex")
	if err != nil {
		t.Fatal(err)
	}
	if a.Page != 2 || math.Abs(a.Distance.Inch()-2) > 0.01 {
		t.Errorf("src:15chap.tex resolved to %v, want page 2 at 2in", a)
	}

	_, err = s.ParseReference("src:5chap.tex")
	if !errors.Is(err, srcmap.ErrReferenceNotFound) {
		t.Errorf("src:5chap.tex: got error %v", err)
	}
	_, err = s.ParseReference("src:5other.tex")
	if !errors.Is(err, srcmap.ErrNoSourceInfo) {
		t.Errorf("src:5other.tex: got error %v", err)
	}
	var refErr *ReferenceError
	if !errors.As(err, &refErr) || refErr.Line != 5 {
		t.Errorf("src:5other.tex: got error %#v", err)
	}
	_, err = s.ParseReference("chapter one")
	if !errors.Is(err, ErrInvalidReference) {
		t.Errorf("invalid reference: got error %v", err)
	}
}

func TestEmbedPostScript(t *testing.T) {
	dir := t.TempDir()
	eps := "%!PS-Adobe-3.0 EPSF-3.0\n%%BoundingBox: 0 0 10 10\n0 0 moveto % start\n"
	if err := os.WriteFile(filepath.Join(dir, "fig.eps"), []byte(eps), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "pic.pdf"), []byte("%PDF-1.4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc := buildDoc(t, dir,
		func(w *dvi.Writer) {
			w.Special("PSfile=fig.eps llx=0 lly=0 urx=10 ury=10")
			w.PutRule(65536, 65536)
		},
		func(w *dvi.Writer) {
			w.Special("PSfile=pic.pdf llx=0 lly=0 urx=10 ury=10")
			w.Special("PSfile=photo.png llx=0 lly=0 urx=10 ury=10")
			w.Special("PSfile=gone.eps llx=0 lly=0 urx=10 ury=10")
		},
	)
	s := newTestSession(t, dir, doc)

	oldSize := doc.Size()
	oldPost := doc.PostambleOffset()
	oldPage2 := doc.PageOffsets()[1]

	n, warnings, err := s.EmbedPostScript(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("%d files embedded, want 2", n)
	}
	if len(warnings) != 1 || warnings[0].Page != 2 {
		t.Errorf("unexpected warnings %v", warnings)
	}
	if !s.Modified() {
		t.Error("document not marked as modified")
	}

	delta := doc.Size() - oldSize
	if delta <= 0 {
		t.Fatalf("file did not grow: %d -> %d", oldSize, doc.Size())
	}
	if doc.PostambleOffset() != oldPost+delta {
		t.Errorf("postamble at %d, want %d", doc.PostambleOffset(), oldPost+delta)
	}
	if doc.PageOffsets()[1] <= oldPage2 {
		t.Errorf("page 2 did not move: %d -> %d", oldPage2, doc.PageOffsets()[1])
	}

	// the document is valid and has been rescanned
	if _, err := dvi.Read(doc.Data(), "check.dvi"); err != nil {
		t.Fatal(err)
	}
	if doc.NumberOfExternalPSFiles != 1 {
		t.Errorf("%d external PostScript files remain, want 1", doc.NumberOfExternalPSFiles)
	}
	if ps := s.PostScript(1); !strings.Contains(ps, "0 0 moveto") || strings.Contains(ps, "start") {
		t.Errorf("unexpected page code %q", ps)
	}
	if ps := s.PostScript(2); !strings.Contains(ps, "1 1 moveto") {
		t.Errorf("converted PDF not embedded: %q", ps)
	}
}

func TestStripPapersize(t *testing.T) {
	dir := t.TempDir()
	doc := buildDoc(t, dir,
		func(w *dvi.Writer) {
			w.Special("papersize=100mm,150mm")
			w.Special("header=foo.pro")
		},
		func(w *dvi.Writer) { w.Special("papersize=a5") },
	)
	before := append([]byte(nil), doc.Data()...)

	n, err := StripPapersize(doc)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("%d specials removed, want 2", n)
	}
	if len(doc.Data()) != len(before) {
		t.Errorf("length changed from %d to %d", len(before), len(doc.Data()))
	}

	s := newTestSession(t, dir, doc)
	if _, ok := s.SizeOfPage(1); ok {
		t.Error("papersize special survived")
	}
	if !strings.Contains(string(doc.Data()), "header=foo.pro") {
		t.Error("other specials were removed")
	}
}

func TestDrawPage(t *testing.T) {
	dir := t.TempDir()
	doc := buildDoc(t, dir,
		func(w *dvi.Writer) {
			w.Special("background gray 0.5")
			w.Down(oneInch)
			w.Right(oneInch)
			w.Special(`html:<A href="https://example.org/">`)
			w.PutRule(10*65536, 10*65536)
			w.Special("html:</A>")
			w.Right(oneInch)
			w.Special("PSfile=fig.eps llx=0 lly=0 urx=72 ury=72")
		},
	)
	s := newTestSession(t, dir, doc)

	page, err := s.DrawPage(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	bounds := page.Image.Bounds()
	if bounds != image.Rect(0, 0, 595, 841) && bounds != image.Rect(0, 0, 595, 842) {
		t.Errorf("image size %v", bounds)
	}

	// The rule is 10pt square with its lower left corner at (2in, 2in),
	// i.e. at pixel (144, 144) give or take a rounding error.
	rulePixel := image.Pt(148, 140)
	black := color.RGBA{A: 255}
	if c := page.Image.RGBAAt(rulePixel.X, rulePixel.Y); c != black {
		t.Errorf("rule pixel has colour %v", c)
	}
	if c := page.Image.RGBAAt(10, 10); c.R != c.G || c.R < 120 || c.R > 135 {
		t.Errorf("background pixel has colour %v", c)
	}

	// The placeholder for fig.eps covers (3in, 1in)-(4in, 2in), with a
	// black frame and a grey interior.
	if c := page.Image.RGBAAt(252, 108); c.R != 211 {
		t.Errorf("placeholder pixel has colour %v", c)
	}

	if len(page.Links) != 1 {
		t.Fatalf("got %d links, want 1", len(page.Links))
	}
	link := page.Links[0]
	if link.URL != "https://example.org/" {
		t.Errorf("link URL %q", link.URL)
	}
	if !rulePixel.In(link.Box) {
		t.Errorf("link box %v does not cover the rule", link.Box)
	}

	if _, err := s.DrawPage(context.Background(), 2); err == nil {
		t.Error("drawing a non-existent page succeeded")
	}
}

func TestSetFileTruncated(t *testing.T) {
	dir := t.TempDir()
	good := buildDoc(t, dir, func(w *dvi.Writer) {
		w.Down(oneInch)
		w.Special(`html:<A name="intro">`)
	})
	s := newTestSession(t, dir, good)

	// The special claims 200 bytes of payload, but the page ends after 3.
	bad := buildDoc(t, dir, func(w *dvi.Writer) {
		w.Special(`html:<A name="other">`)
		w.Raw(dvi.XXX1, 200, 'a', 'b', 'c')
	})
	err := s.SetFile(context.Background(), bad)
	if !errors.Is(err, dvi.ErrTruncated) {
		t.Fatalf("SetFile: got error %v, want %v", err, dvi.ErrTruncated)
	}

	fname := filepath.Join(dir, "bad.dvi")
	if err := bad.SaveAs(fname); err != nil {
		t.Fatal(err)
	}
	err = s.Load(context.Background(), fname)
	if !errors.Is(err, dvi.ErrTruncated) {
		t.Errorf("Load: got error %v, want %v", err, dvi.ErrTruncated)
	}

	if s.Document() != good {
		t.Error("the corrupt document replaced the previous one")
	}
	a, ok := s.Anchor("intro")
	if !ok || a.Page != 1 {
		t.Errorf("anchor intro = %v, %t after failed load", a, ok)
	}
	if _, ok := s.Anchor("other"); ok {
		t.Error("anchor from the corrupt document was installed")
	}
	if w := s.Warnings(); len(w) != 0 {
		t.Errorf("unexpected warnings %v", w)
	}
}

func TestNoDocument(t *testing.T) {
	s := NewSession(nil)
	if _, err := s.DrawPage(context.Background(), 1); !errors.Is(err, ErrNoDocument) {
		t.Errorf("DrawPage: got error %v", err)
	}
	if _, err := s.ParseReference("1"); !errors.Is(err, ErrNoDocument) {
		t.Errorf("ParseReference: got error %v", err)
	}
	if _, _, err := s.EmbedPostScript(context.Background()); !errors.Is(err, ErrNoDocument) {
		t.Errorf("EmbedPostScript: got error %v", err)
	}
	if _, err := s.ScratchCopy(); !errors.Is(err, ErrNoDocument) {
		t.Errorf("ScratchCopy: got error %v", err)
	}
}
