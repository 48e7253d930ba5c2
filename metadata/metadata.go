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

// Package metadata describes DVI documents by XMP metadata packets.
//
// Besides the Dublin Core title and the creation data from the XMP basic
// namespace, a packet contains the properties from the preamble and the
// postamble of the DVI file, in the namespace given by [DVI].
package metadata

import (
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/text/language"

	"seehuhn.de/go/xmp"

	"seehuhn.de/go/dvi"
)

// DVI is the XMP namespace for the properties of DVI files.
type DVI struct {
	_             xmp.Namespace `xmp:"http://seehuhn.de/ns/dvi/1.0/"`
	_             xmp.Prefix    `xmp:"dvi"`
	Generator     xmp.Text
	Pages         xmp.Text
	Fonts         xmp.Text // comma separated, sorted by name
	Magnification xmp.Text
}

// basic holds the properties of the XMP basic namespace set by this package.
type basic struct {
	_           xmp.Namespace `xmp:"http://ns.adobe.com/xap/1.0/"`
	_           xmp.Prefix    `xmp:"xmp"`
	CreateDate  xmp.Date
	CreatorTool xmp.AgentName
}

// DefaultCreatorTool is used if Options.CreatorTool is empty.
const DefaultCreatorTool = "seehuhn.de/go/dvi"

// Options control the contents of a metadata packet.
type Options struct {
	// Title is the document title.  If this is empty, the file name
	// without directory and extension is used.
	Title string

	// Language is the language of the title.  The zero value is
	// language.Und.
	Language language.Tag

	// CreatorTool names the program which created the packet.
	CreatorTool string

	// Date is the creation date.  If this is zero, the current time is
	// used.
	Date time.Time
}

// Stream is an XMP metadata packet.
type Stream struct {
	Data *xmp.Packet
}

// New creates the metadata packet for a document.
func New(doc *dvi.Document, opt *Options) (*Stream, error) {
	if opt == nil {
		opt = &Options{}
	}

	title := opt.Title
	if title == "" {
		base := filepath.Base(doc.FileName)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	tool := opt.CreatorTool
	if tool == "" {
		tool = DefaultCreatorTool
	}
	date := opt.Date
	if date.IsZero() {
		date = time.Now()
	}

	dc := &xmp.DublinCore{}
	dc.Title.Set(opt.Language, title)

	b := &basic{
		CreateDate:  xmp.NewDate(date),
		CreatorTool: xmp.NewAgentName(tool),
	}

	d := &DVI{
		Generator:     xmp.NewText(strings.TrimSpace(doc.Generator)),
		Pages:         xmp.NewText(strconv.Itoa(doc.TotalPages())),
		Fonts:         xmp.NewText(strings.Join(fontNames(doc), ", ")),
		Magnification: xmp.NewText(strconv.FormatUint(uint64(doc.Magnification), 10)),
	}

	packet := xmp.NewPacket()
	err := packet.Set(dc, b, d)
	if err != nil {
		return nil, err
	}
	return &Stream{Data: packet}, nil
}

// fontNames returns the names of all fonts used in doc, without
// duplicates, in alphabetical order.
func fontNames(doc *dvi.Document) []string {
	seen := make(map[string]bool, len(doc.Fonts))
	for _, def := range doc.Fonts {
		seen[def.Name] = true
	}
	names := maps.Keys(seen)
	slices.Sort(names)
	return names
}

// Read reads an XMP packet.
func Read(r io.Reader) (*Stream, error) {
	packet, err := xmp.Read(r)
	if err != nil {
		return nil, err
	}
	return &Stream{Data: packet}, nil
}

// Write writes the packet in XML format.
func (s *Stream) Write(w io.Writer, pretty bool) error {
	return s.Data.Write(w, &xmp.PacketOptions{Pretty: pretty})
}

// DVI returns the DVI specific properties of the packet.
func (s *Stream) DVI() *DVI {
	d := &DVI{}
	s.Data.Get(d)
	return d
}

// Equal reports whether s and other represent the same XMP metadata.
func (s *Stream) Equal(other *Stream) bool {
	if s == nil || other == nil {
		return s == other
	}

	return s.Data.Equal(other.Data)
}
