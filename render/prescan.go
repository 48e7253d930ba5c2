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
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"seehuhn.de/go/dvi"
	"seehuhn.de/go/dvi/anchor"
	"seehuhn.de/go/dvi/internal/ghostscript"
	"seehuhn.de/go/dvi/interp"
	"seehuhn.de/go/dvi/pagesize"
	"seehuhn.de/go/dvi/special"
	"seehuhn.de/go/dvi/srcmap"
)

// scanResult collects the information found by the prescan pass.
type scanResult struct {
	anchors      anchor.Index
	prebookmarks []anchor.PreBookmark
	sources      srcmap.Map
	warnings     []Warning

	pageSizes   []*pagesize.Size
	backgrounds []*color.NRGBA
	header      strings.Builder
	pagePS      []string
}

// commit hands the collected PostScript code and background colours to
// the rasterizer.
func (res *scanResult) commit(r *ghostscript.Rasterizer) {
	r.SetHeader(res.header.String())
	for page, code := range res.pagePS {
		if code != "" {
			r.SetPostScript(page, code)
		}
	}
	for page, bg := range res.backgrounds {
		if bg != nil {
			r.SetBackground(page, *bg)
		}
	}
}

// prescan runs all pages of doc once, without drawing anything.  The
// counters and the suggested page size in doc are updated.
//
// Most problems are recorded as warnings.  A page which runs past the end
// of the file makes the whole document unusable; in this case the error
// is returned.
func (s *Session) prescan(ctx context.Context, doc *dvi.Document, fonts map[uint32]interp.Font) (*scanResult, error) {
	n := doc.TotalPages()
	res := &scanResult{
		pageSizes:   make([]*pagesize.Size, n),
		backgrounds: make([]*color.NRGBA, n),
		pagePS:      make([]string, n),
	}

	doc.NumberOfExternalPSFiles = 0
	doc.NumberOfExternalNonPSFiles = 0
	doc.HasSourceSpecials = false
	doc.SuggestedPageSize = nil

	h := &prescanHandler{
		ctx:     ctx,
		s:       s,
		doc:     doc,
		res:     res,
		baseDir: filepath.Dir(doc.FileName),
	}
	ip := &interp.Interpreter{
		Doc:        doc,
		Fonts:      fonts,
		Handler:    h,
		Mode:       interp.Prescan,
		Resolution: s.opt.Resolution,
		Unknown: func(page, pos int, op byte) {
			s.opt.Logger.Debug("page ends with unknown opcode",
				"page", page+1, "pos", pos, "opcode", op)
		},
	}
	for page := range n {
		h.ps.Reset()
		err := ip.Run(page)
		if errors.Is(err, dvi.ErrTruncated) {
			return nil, err
		} else if err != nil {
			res.warnings = append(res.warnings, pageWarning(page, err))
		}
		res.pagePS[page] = h.ps.String()
	}
	return res, nil
}

// pageWarning converts an interpreter error into a warning.
func pageWarning(page int, err error) Warning {
	var pe *interp.PageError
	if errors.As(err, &pe) {
		return Warning{
			Page:    pe.Page + 1,
			Message: fmt.Sprintf("%v (at byte %d)", pe.Err, pe.Pos),
		}
	}
	return Warning{Page: page + 1, Message: err.Error()}
}

// prescanHandler interprets the specials of a document during the prescan
// pass.
type prescanHandler struct {
	interp.NopHandler

	ctx     context.Context
	s       *Session
	doc     *dvi.Document
	res     *scanResult
	baseDir string

	ps strings.Builder // PostScript code of the current page
}

func (h *prescanHandler) warn(st *interp.State, format string, args ...any) {
	h.res.warnings = append(h.res.warnings, Warning{
		Page:    st.Page + 1,
		Message: fmt.Sprintf(format, args...),
	})
}

// position returns the anchor for the current point.
func position(st *interp.State) anchor.Anchor {
	return anchor.Anchor{
		Page:     st.Page + 1,
		Distance: pagesize.FromInch(float64(st.V) / 1200),
	}
}

// Special implements the interp.Handler interface.
func (h *prescanHandler) Special(st *interp.State, sp interp.Special) error {
	kind, arg := special.Classify(sp.Payload)
	switch kind {
	case special.Papersize:
		size, err := special.ParsePapersize(arg)
		if err != nil {
			h.warn(st, "the papersize data %q could not be parsed", strings.TrimSpace(arg))
			return nil
		}
		for page := st.Page; page < len(h.res.pageSizes); page++ {
			h.res.pageSizes[page] = &size
		}
		h.doc.SuggestedPageSize = &size

	case special.Background:
		col, ok := special.ParseColor(strings.TrimSpace(arg))
		if !ok {
			h.warn(st, "unknown colour %q", strings.TrimSpace(arg))
			return nil
		}
		for page := st.Page; page < len(h.res.backgrounds); page++ {
			h.res.backgrounds[page] = &col
		}

	case special.HTMLAnchor:
		if tag, ok := special.ParseHTML(arg); ok && tag.Name != "" {
			h.res.anchors.Set(tag.Name, position(st))
		}

	case special.PSHeader:
		fname, ok := h.s.opt.Locator.Locate(h.ctx, strings.TrimSpace(arg), h.baseDir)
		if ok {
			h.res.header.WriteString(special.HeaderPS(fname))
		}

	case special.PSBang:
		h.res.header.WriteString(special.BangPS(arg))

	case special.PSQuote:
		h.ps.WriteString(special.QuotePS(st.H, st.V, arg))

	case special.PSDirect:
		if ref, ok := special.ParseHyperref(arg); ok {
			if ref.DefinesAnchor {
				h.res.anchors.Set(ref.Anchor, position(st))
			}
			if ref.DefinesBookmark {
				h.res.prebookmarks = append(h.res.prebookmarks, anchor.PreBookmark{
					Title:  ref.Title,
					Anchor: ref.Anchor,
					Count:  ref.Count,
				})
			}
			return nil
		}
		h.ps.WriteString(special.DirectPS(st.H, st.V, arg))

	case special.PSFile:
		h.includeGraphic(st, special.ParseInclude(arg))

	case special.Source:
		loc := srcmap.ParseSpecial(arg, h.doc.FileName)
		h.res.sources.Add(srcmap.SourceAnchor{
			File:     loc.File,
			Line:     loc.Line,
			Position: position(st),
		})
		h.doc.HasSourceSpecials = true
	}
	return nil
}

// includeGraphic generates the PostScript code for a PSfile= special.
// Raster images are only counted, since they are drawn directly when the
// page is rendered.
func (h *prescanHandler) includeGraphic(st *interp.State, inc *special.Include) {
	if inc.IsRaster() {
		h.doc.NumberOfExternalNonPSFiles++
		return
	}
	h.doc.NumberOfExternalPSFiles++

	loc := h.s.opt.Locator
	fname, ok := loc.Locate(h.ctx, inc.File, h.baseDir)
	if ok && inc.IsPDF() {
		fname, ok = loc.ConvertPDF(h.ctx, h.doc, fname)
	}
	if !ok {
		h.warn(st, "the PostScript file %q could not be found", inc.File)
		return
	}
	h.ps.WriteString(special.IncludePS(st.H, st.V, inc, fname))
}
