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
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"seehuhn.de/go/dvi"
	"seehuhn.de/go/dvi/interp"
	"seehuhn.de/go/dvi/special"
)

// patch is a pending replacement of a special command.
type patch struct {
	at, oldLen int
	repl       []byte
}

// applyPatches applies patches to doc, starting with the one closest to
// the end of the file so that the offsets of the remaining patches stay
// valid.  Each patch is applied atomically; if one fails, the patches
// already applied are kept.
func applyPatches(doc *dvi.Document, patches []patch) (int, error) {
	slices.SortFunc(patches, func(a, b patch) int { return b.at - a.at })
	for i, p := range patches {
		if _, err := doc.Patch(p.at, p.oldLen, p.repl); err != nil {
			return i, err
		}
	}
	return len(patches), nil
}

// EmbedPostScript replaces all PSfile= specials which refer to PostScript
// or PDF files by ps: specials containing the contents of these files.
// PDF files are converted to PostScript first.  Afterwards the document
// no longer depends on the external files, and can be saved.
//
// The return value is the number of embedded files.  Files which cannot be
// found are reported as warnings.
func (s *Session) EmbedPostScript(ctx context.Context) (int, []Warning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return 0, nil, ErrNoDocument
	}
	doc := s.doc

	h := &embedHandler{
		ctx:     ctx,
		loc:     s.opt.Locator,
		doc:     doc,
		baseDir: filepath.Dir(doc.FileName),
	}
	ip := &interp.Interpreter{
		Doc:        doc,
		Fonts:      s.fonts,
		Handler:    h,
		Mode:       interp.Prescan,
		Resolution: s.opt.Resolution,
	}
	for page := range doc.TotalPages() {
		if err := ctx.Err(); err != nil {
			return 0, nil, err
		}
		if err := ip.Run(page); err != nil {
			h.warnings = append(h.warnings, pageWarning(page, err))
		}
	}

	n, err := applyPatches(doc, h.patches)
	if n > 0 {
		s.modified = true
		if err2 := s.rescan(ctx); err == nil {
			err = err2
		}
	}
	if err != nil {
		return n, h.warnings, fmt.Errorf("embedding PostScript: %w", err)
	}
	return n, h.warnings, nil
}

type embedHandler struct {
	interp.NopHandler

	ctx     context.Context
	loc     Locator
	doc     *dvi.Document
	baseDir string

	patches  []patch
	warnings []Warning
}

// Special implements the interp.Handler interface.
func (h *embedHandler) Special(st *interp.State, sp interp.Special) error {
	kind, arg := special.Classify(sp.Payload)
	if kind != special.PSFile {
		return nil
	}
	inc := special.ParseInclude(arg)
	if inc.IsRaster() {
		return nil
	}

	fname, ok := h.loc.Locate(h.ctx, inc.File, h.baseDir)
	if !ok {
		h.warnings = append(h.warnings, Warning{
			Page:    st.Page + 1,
			Message: fmt.Sprintf("the PostScript file %q could not be found", inc.File),
		})
		return nil
	}
	content, err := os.ReadFile(fname)
	if err != nil {
		h.warnings = append(h.warnings, Warning{Page: st.Page + 1, Message: err.Error()})
		return nil
	}

	switch {
	case bytes.HasPrefix(content, []byte("%PDF")):
		psName, ok := h.loc.ConvertPDF(h.ctx, h.doc, fname)
		if !ok {
			h.warnings = append(h.warnings, Warning{
				Page:    st.Page + 1,
				Message: fmt.Sprintf("the PDF file %q could not be converted to PostScript", inc.File),
			})
			return nil
		}
		content, err = os.ReadFile(psName)
		if err != nil {
			h.warnings = append(h.warnings, Warning{Page: st.Page + 1, Message: err.Error()})
			return nil
		}
	case bytes.HasPrefix(content, []byte("%!")), bytes.HasPrefix(content, []byte{0xC5, 0xD0, 0xD3, 0xC6}):
		// PostScript or DOS EPS
	default:
		return nil
	}

	ps := special.EmbeddedPS(inc, content)
	h.patches = append(h.patches, patch{
		at:     sp.Offset,
		oldLen: sp.End - sp.Offset,
		repl:   dvi.SpecialCommand([]byte(ps)),
	})
	return nil
}

// StripPapersize overwrites all papersize specials in doc with NOP
// commands.  The length of the file does not change.  Some converters
// refuse to override the page size given on the command line, if the
// document contains papersize specials.
//
// The return value is the number of specials removed.
func StripPapersize(doc *dvi.Document) (int, error) {
	h := &papersizeHandler{}
	ip := &interp.Interpreter{
		Doc:     doc,
		Fonts:   placeholderFonts(doc),
		Handler: h,
		Mode:    interp.Prescan,
	}
	for page := range doc.TotalPages() {
		// Broken pages are skipped; the converter will complain about them.
		_ = ip.Run(page)
	}

	for _, sp := range h.specials {
		if err := doc.FillNOP(sp.Offset, sp.End); err != nil {
			return 0, err
		}
	}
	return len(h.specials), nil
}

type papersizeHandler struct {
	interp.NopHandler
	specials []interp.Special
}

func (h *papersizeHandler) Special(_ *interp.State, sp interp.Special) error {
	if kind, _ := special.Classify(sp.Payload); kind == special.Papersize {
		h.specials = append(h.specials, sp)
	}
	return nil
}

// placeholderFont is used where only the structure of a document matters,
// not the positions on the page.
type placeholderFont struct {
	scale uint32
}

func (f placeholderFont) ScaledSize() uint32 { return f.scale }

func (f placeholderFont) Advance(uint32) (int32, bool) { return 0, true }

func placeholderFonts(doc *dvi.Document) map[uint32]interp.Font {
	res := make(map[uint32]interp.Font, len(doc.Fonts))
	for _, def := range doc.Fonts {
		res[def.Num] = placeholderFont{scale: def.Scale}
	}
	return res
}
