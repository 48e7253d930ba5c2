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

// Package anchor collects named positions in a DVI document and assembles
// the table of contents.
package anchor

import (
	"fmt"
	"slices"

	"golang.org/x/exp/maps"

	"seehuhn.de/go/dvi/pagesize"
)

// Anchor is a position in a document.
type Anchor struct {
	// Page is the page number, starting from 1.  Zero denotes an invalid
	// anchor.
	Page int

	// Distance is the distance from the top of the page.
	Distance pagesize.Length
}

// IsValid reports whether the anchor refers to a page.
func (a Anchor) IsValid() bool {
	return a.Page > 0
}

func (a Anchor) String() string {
	if !a.IsValid() {
		return "<invalid>"
	}
	return fmt.Sprintf("page %d, %s from top", a.Page, a.Distance)
}

// Index maps anchor names to positions.
// The zero value is an empty index, ready to use.
type Index struct {
	anchors map[string]Anchor
}

// Set records the position of a named anchor.  If the name is already in
// use, the old position is replaced.
func (ix *Index) Set(name string, a Anchor) {
	if ix.anchors == nil {
		ix.anchors = make(map[string]Anchor)
	}
	ix.anchors[name] = a
}

// Get returns the position of a named anchor.
func (ix *Index) Get(name string) (Anchor, bool) {
	a, ok := ix.anchors[name]
	return a, ok
}

// Len returns the number of anchors.
func (ix *Index) Len() int {
	return len(ix.anchors)
}

// Names returns the anchor names in sorted order.
func (ix *Index) Names() []string {
	names := maps.Keys(ix.anchors)
	slices.Sort(names)
	return names
}

// Clear removes all anchors.
func (ix *Index) Clear() {
	clear(ix.anchors)
}
