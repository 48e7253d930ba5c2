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

package anchor

// PreBookmark is a table of contents entry, as found in the document.
// The entries are stored in document order, and Count gives the number of
// entries which are children of this one.
type PreBookmark struct {
	Title  string
	Anchor string
	Count  int
}

// Bookmark is an entry in the table of contents.
type Bookmark struct {
	Title    string
	Position Anchor
	Children []*Bookmark
}

// Build assembles the table of contents from a list of pre-bookmarks.
// The positions of the entries are looked up in ix; entries with unknown
// anchors get an invalid position.
//
// The child counts determine the tree structure: every entry is the child
// of the most recent entry which still expects children.  If no entry
// expects children, the new entry is added at the top level.
func Build(pre []PreBookmark, ix *Index) []*Bookmark {
	var top []*Bookmark
	var open []*Bookmark // parents waiting for a child, innermost last
	for _, p := range pre {
		b := &Bookmark{Title: p.Title}
		if ix != nil {
			b.Position, _ = ix.Get(p.Anchor)
		}

		if n := len(open); n == 0 {
			top = append(top, b)
		} else {
			parent := open[n-1]
			parent.Children = append(parent.Children, b)
			open = open[:n-1]
		}

		for range p.Count {
			open = append(open, b)
		}
	}
	return top
}
