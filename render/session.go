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

// Package render implements a viewer session for DVI files.
//
// A Session owns one DVI document.  When a document is loaded, all pages
// are scanned once to collect the information which is needed before any
// page is shown: hyperlink anchors, bookmarks, source specials, page sizes,
// background colours and the PostScript code of every page.  Afterwards,
// pages can be drawn into images, references can be resolved, and
// external graphics can be embedded into the document.
//
// All methods of a Session are safe for concurrent use, but only one of
// them runs at any time.
package render

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"

	"seehuhn.de/go/dvi"
	"seehuhn.de/go/dvi/anchor"
	"seehuhn.de/go/dvi/fontpool"
	"seehuhn.de/go/dvi/internal/ghostscript"
	"seehuhn.de/go/dvi/internal/locate"
	"seehuhn.de/go/dvi/interp"
	"seehuhn.de/go/dvi/pagesize"
	"seehuhn.de/go/dvi/srcmap"
)

// Locator finds the external files referenced by a document.
type Locator interface {
	// Locate finds a file, trying the name as given and relative to
	// baseDir first.
	Locate(ctx context.Context, name, baseDir string) (string, bool)

	// ConvertPDF converts a PDF graphic into a PostScript file.  Results
	// are memoized in the document.
	ConvertPDF(ctx context.Context, doc *dvi.Document, src string) (string, bool)
}

// ErrNoDocument is returned by methods which need a document, if no
// document is loaded.
var ErrNoDocument = errors.New("no document loaded")

// Options configure a Session.  The zero value gives useful defaults.
type Options struct {
	// Resolution is the device resolution in dots per inch.  If this is
	// zero, interp.DefaultResolution is used.
	Resolution float64

	// Logger receives diagnostic messages.
	Logger *slog.Logger

	// Fonts is the font pool used to load fonts.  If this is nil, a
	// private pool is created.
	Fonts *fontpool.Pool

	// PostScript renders the PostScript parts of pages.  If this is nil,
	// a private rasterizer is created.
	PostScript *ghostscript.Rasterizer

	// Locator finds included graphics and PostScript headers.  If this is
	// nil, a locate.Locator using kpsewhich is used.
	Locator Locator

	// ShowPostScript enables rendering of PostScript graphics.  If this is
	// false, included graphics are represented by placeholder boxes.
	ShowPostScript bool
}

// Warning is a problem found while processing a document, which did not
// prevent the rest of the document from being processed.
type Warning struct {
	Page    int // page number, starting from 1; zero for the whole document
	Message string
}

func (w Warning) String() string {
	if w.Page == 0 {
		return w.Message
	}
	return fmt.Sprintf("page %d: %s", w.Page, w.Message)
}

// Session is a DVI document together with the information extracted from
// it.
type Session struct {
	opt Options

	mu sync.Mutex

	doc   *dvi.Document
	fonts map[uint32]interp.Font

	anchors      anchor.Index
	prebookmarks []anchor.PreBookmark
	bookmarks    []*anchor.Bookmark
	sources      srcmap.Map
	pageSizes    []*pagesize.Size

	fontWarnings []Warning
	warnings     []Warning
	modified     bool
}

// NewSession creates a session without a document.
func NewSession(opt *Options) *Session {
	s := &Session{}
	if opt != nil {
		s.opt = *opt
	}
	if s.opt.Resolution <= 0 {
		s.opt.Resolution = interp.DefaultResolution
	}
	if s.opt.Logger == nil {
		s.opt.Logger = slog.New(slog.DiscardHandler)
	}
	if s.opt.Fonts == nil {
		s.opt.Fonts = fontpool.New(&fontpool.Options{
			Logger:   s.opt.Logger,
			Outlines: true,
		})
	}
	if s.opt.PostScript == nil {
		s.opt.PostScript = ghostscript.New(s.opt.Logger)
	}
	if s.opt.Locator == nil {
		s.opt.Locator = &locate.Locator{Logger: s.opt.Logger}
	}
	return s
}

// Load reads a DVI file and makes it the current document of the session.
// If the file cannot be read or is corrupt, the previous document is kept.
func (s *Session) Load(ctx context.Context, fname string) error {
	doc, err := dvi.Open(fname)
	if err != nil {
		return err
	}
	err = s.SetFile(ctx, doc)
	if err != nil {
		doc.Close()
		return err
	}
	return nil
}

// SetFile makes doc the current document of the session, and scans all
// pages.  Problems found while scanning are available via Warnings.
// The previous document, if any, is closed.
//
// If a page of doc extends beyond the end of the file, an error wrapping
// dvi.ErrTruncated is returned and the session keeps its previous state.
func (s *Session) SetFile(ctx context.Context, doc *dvi.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fonts := make(map[uint32]interp.Font, len(doc.Fonts))
	var fontWarnings []Warning
	for _, def := range doc.Fonts {
		f := s.opt.Fonts.Define(ctx, def)
		if err := f.Err(); err != nil {
			fontWarnings = append(fontWarnings, Warning{Message: err.Error()})
		}
		fonts[def.Num] = f
	}

	res, err := s.prescan(ctx, doc, fonts)
	if err != nil {
		return err
	}

	if s.doc != nil && s.doc != doc {
		if err := s.doc.Close(); err != nil {
			s.opt.Logger.Warn("cannot remove converted files", "error", err)
		}
	}

	s.doc = doc
	s.fonts = fonts
	s.fontWarnings = fontWarnings
	s.modified = false
	s.opt.PostScript.IncludePath = ""
	if doc.FileName != "" {
		s.opt.PostScript.IncludePath = filepath.Dir(doc.FileName)
	}
	s.install(res)
	return nil
}

// rescan runs the prescan pass over the current document again.
func (s *Session) rescan(ctx context.Context) error {
	res, err := s.prescan(ctx, s.doc, s.fonts)
	if err != nil {
		return err
	}
	s.install(res)
	return nil
}

// install replaces all information derived from the document by the
// results of a prescan pass.
func (s *Session) install(res *scanResult) {
	s.opt.PostScript.Clear()
	res.commit(s.opt.PostScript)

	s.anchors = res.anchors
	s.prebookmarks = res.prebookmarks
	s.bookmarks = anchor.Build(res.prebookmarks, &res.anchors)
	s.sources = res.sources
	s.pageSizes = res.pageSizes
	s.warnings = append(slices.Clone(s.fontWarnings), res.warnings...)
}

// Modified reports whether the document was changed since it was loaded,
// for example by EmbedPostScript.
func (s *Session) Modified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modified
}

// Close releases the current document and removes the temporary files
// of the session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.opt.PostScript.Clear()
	err := s.opt.PostScript.Close()
	if s.doc == nil {
		return err
	}
	if err2 := s.doc.Close(); err == nil {
		err = err2
	}
	s.doc = nil
	s.fonts = nil
	s.anchors.Clear()
	s.prebookmarks = nil
	s.bookmarks = nil
	s.sources.Reset()
	s.pageSizes = nil
	s.fontWarnings = nil
	s.warnings = nil
	s.modified = false
	return err
}

// Document returns the current document, or nil if no document is loaded.
func (s *Session) Document() *dvi.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// ScratchCopy returns an independent copy of the current document, which
// can be modified without affecting the session.
func (s *Session) ScratchCopy() (*dvi.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil, ErrNoDocument
	}
	return s.doc.Copy(), nil
}

// Warnings returns the problems found while scanning the document.
func (s *Session) Warnings() []Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Warning(nil), s.warnings...)
}

// SizeOfPage returns the paper size for a page, numbered from 1.  The
// second return value is false if the document does not specify a paper
// size for this page; in this case the default size is returned.
func (s *Session) SizeOfPage(page int) (pagesize.Size, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sizeOfPage(page)
}

func (s *Session) sizeOfPage(page int) (pagesize.Size, bool) {
	if page < 1 || page > len(s.pageSizes) || s.pageSizes[page-1] == nil {
		return pagesize.Default(), false
	}
	return *s.pageSizes[page-1], true
}

// SourceAnchors returns the positions of all source specials, in document
// order.
func (s *Session) SourceAnchors() []srcmap.SourceAnchor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sources.All()
}

// Prebookmarks returns the flat list of bookmarks, as found in the
// document.
func (s *Session) Prebookmarks() []anchor.PreBookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]anchor.PreBookmark(nil), s.prebookmarks...)
}

// Bookmarks returns the table of contents of the document.
func (s *Session) Bookmarks() []*anchor.Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookmarks
}

// Anchor returns the position of a named anchor.
func (s *Session) Anchor(name string) (anchor.Anchor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anchors.Get(name)
}

// AnchorNames returns the names of all anchors, in alphabetical order.
func (s *Session) AnchorNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anchors.Names()
}

// Background returns the background colour of a page, numbered from 1.
func (s *Session) Background(page int) color.NRGBA {
	return s.opt.PostScript.Background(page - 1)
}

// PostScript returns the PostScript code collected for a page, numbered
// from 1.
func (s *Session) PostScript(page int) string {
	return s.opt.PostScript.PostScript(page - 1)
}
