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

// Package srcmap relates positions in TeX source files to positions in a
// DVI document.
//
// TeX can be instructed (for example with the --src-specials option) to
// write specials of the form "src:<line><file>" into the DVI file.  These
// are collected into a Map, which can then be used for forward search:
// given a line in a source file, find the corresponding place in the
// document.
package srcmap

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"seehuhn.de/go/dvi/anchor"
)

// SourceExt is the extension tried when a source file name is given
// without one.
const SourceExt = ".tex"

// Location is a line in a source file.
type Location struct {
	File   string
	Line   int
	Exists bool // whether File was found on disk
}

// Split separates the line number and the file name in a source
// reference such as "src:100chapter1.tex".  The "src:" prefix is
// optional.  Relative file names are resolved against the directory of
// the DVI file dviFile.
//
// Since there is no separator between the line number and the file name,
// file names which start with a digit are ambiguous.  Split first assumes
// that all leading digits belong to the line number.  If the resulting
// file does not exist, digits are moved one at a time from the end of the
// line number to the start of the file name, until an existing file is
// found.  The last candidate is the whole token as a file name, with line
// number 0.  In each step, the name with SourceExt appended is tried as
// well.  If no file is found, the first guess is returned with Exists set
// to false.
func Split(token, dviFile string) Location {
	token = strings.TrimSpace(token)
	if len(token) >= 4 && strings.EqualFold(token[:4], "src:") {
		token = token[4:]
	}

	n := 0
	for n < len(token) && token[n] >= '0' && token[n] <= '9' {
		n++
	}
	digits, rest := token[:n], token[n:]
	dir := filepath.Dir(dviFile)

	for i := len(digits); i >= 0; i-- {
		name := resolve(dir, digits[i:]+rest)
		for _, cand := range []string{name, name + SourceExt} {
			if fileExists(cand) {
				return Location{File: cand, Line: atoi(digits[:i]), Exists: true}
			}
		}
	}

	return Location{File: resolve(dir, rest), Line: atoi(digits)}
}

// ParseSpecial parses the argument of a src: special, as written by TeX.
// All leading digits form the line number, the rest is the file name.
// Relative file names are resolved against the directory of dviFile.
// Unlike Split, the file system is not consulted.
func ParseSpecial(arg, dviFile string) Location {
	n := 0
	for n < len(arg) && arg[n] >= '0' && arg[n] <= '9' {
		n++
	}
	return Location{
		File: resolve(filepath.Dir(dviFile), arg[n:]),
		Line: atoi(arg[:n]),
	}
}

func resolve(dir, name string) string {
	name = strings.TrimSpace(name)
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(dir, name)
}

func fileExists(name string) bool {
	fi, err := os.Stat(name)
	return err == nil && !fi.IsDir()
}

func atoi(s string) int {
	x, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return x
}

// SourceAnchor records that a source line was typeset at a given position.
type SourceAnchor struct {
	File     string
	Line     int
	Position anchor.Anchor
}

var (
	// ErrNoSourceInfo indicates that the document contains no source
	// specials for the requested file.
	ErrNoSourceInfo = errors.New("no source information in this document")

	// ErrReferenceNotFound indicates that the document contains source
	// specials for the file, but none at or before the requested line.
	ErrReferenceNotFound = errors.New("reference not found")
)

// Map holds the source anchors of a document, in document order.
type Map struct {
	anchors []SourceAnchor
}

// Add appends a source anchor.
func (m *Map) Add(a SourceAnchor) {
	m.anchors = append(m.anchors, a)
}

// Len returns the number of source anchors.
func (m *Map) Len() int {
	return len(m.anchors)
}

// All returns a copy of all source anchors, in document order.
func (m *Map) All() []SourceAnchor {
	res := make([]SourceAnchor, len(m.anchors))
	copy(res, m.anchors)
	return res
}

// Reset removes all anchors.
func (m *Map) Reset() {
	m.anchors = m.anchors[:0]
}

// FindNearest returns the anchor for the given file with the largest line
// number not exceeding line.  File names match if they are equal, or if
// they differ only by SourceExt.  If several anchors share the best line
// number, the first one in document order is used.
func (m *Map) FindNearest(file string, line int) (SourceAnchor, error) {
	file = strings.TrimSpace(file)

	seen := false
	best := -1
	for i, a := range m.anchors {
		if !sameFile(file, strings.TrimSpace(a.File)) {
			continue
		}
		seen = true
		if a.Line <= line && (best < 0 || a.Line > m.anchors[best].Line) {
			best = i
		}
	}

	switch {
	case best >= 0:
		return m.anchors[best], nil
	case seen:
		return SourceAnchor{}, ErrReferenceNotFound
	default:
		return SourceAnchor{}, ErrNoSourceInfo
	}
}

func sameFile(a, b string) bool {
	return a == b || a == b+SourceExt || a+SourceExt == b
}
