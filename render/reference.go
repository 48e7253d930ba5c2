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
	"errors"
	"fmt"
	"strconv"
	"strings"

	"seehuhn.de/go/dvi/anchor"
	"seehuhn.de/go/dvi/srcmap"
)

// ErrInvalidReference is returned by ParseReference for references which
// are neither page numbers nor source references.
var ErrInvalidReference = errors.New("invalid reference")

// ParseReference resolves a reference to a position in the document.
//
// A reference can be a page number, which is clamped to the valid range
// of pages, or a source reference of the form "src:<line><file>".  Source
// references are resolved to the closest preceding source special in the
// given file.  If the document contains no source specials for the file,
// the error wraps srcmap.ErrNoSourceInfo; if the file only has source
// specials after the given line, the error wraps
// srcmap.ErrReferenceNotFound.
func (s *Session) ParseReference(ref string) (anchor.Anchor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return anchor.Anchor{}, ErrNoDocument
	}

	if page, err := strconv.Atoi(ref); err == nil {
		page = max(page, 0)
		page = min(page, s.doc.TotalPages())
		return anchor.Anchor{Page: page}, nil
	}

	if len(ref) >= 4 && strings.EqualFold(ref[:4], "src:") {
		loc := srcmap.Split(ref, s.doc.FileName)
		sa, err := s.sources.FindNearest(loc.File, loc.Line)
		if err != nil {
			return anchor.Anchor{}, &ReferenceError{File: loc.File, Line: loc.Line, Err: err}
		}
		return sa.Position, nil
	}

	return anchor.Anchor{}, ErrInvalidReference
}

// ReferenceError is returned when a source reference cannot be resolved.
type ReferenceError struct {
	File string
	Line int
	Err  error
}

func (err *ReferenceError) Error() string {
	return fmt.Sprintf("line %d in %s: %v", err.Line, err.File, err.Err)
}

func (err *ReferenceError) Unwrap() error {
	return err.Err
}
