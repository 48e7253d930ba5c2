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

package dvi

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"seehuhn.de/go/dvi/pagesize"
)

// FontDef is a font definition from the postamble of a DVI file.
type FontDef struct {
	Num      uint32 // font number used by the FNT commands
	Checksum uint32 // checksum of the TFM file, as seen by TeX
	Scale    uint32 // scaled size in DVI units
	Design   uint32 // design size in DVI units
	Area     string // directory part of the name, usually empty
	Name     string // name of the font, e.g. "cmr10"

	// Enlargement is the factor by which the font must be magnified,
	// computed as scale*mag/(design*1000).
	Enlargement float64
}

// Document is a DVI file held in memory.
//
// The page offsets satisfy the following invariant: there are
// TotalPages()+1 offsets, they are strictly increasing, the first
// TotalPages() point to BOP commands and the last one equals the offset
// of the postamble.
type Document struct {
	// FileName is the absolute path of the file the document was read from.
	// It is empty for documents created from memory.
	FileName string

	// Generator is the comment from the preamble, usually the name of the
	// program and the date when the file was written.
	Generator string

	Numerator     uint32
	Denominator   uint32
	Magnification uint32

	// Fonts lists the font definitions from the postamble, in the order in
	// which they appear.
	Fonts []FontDef

	// SuggestedPageSize is set by papersize specials found while scanning
	// the document.
	SuggestedPageSize *pagesize.Size

	// HasSourceSpecials is set if the document contains "src:" specials.
	HasSourceSpecials bool

	// NumberOfExternalPSFiles counts included graphics which are (or are
	// converted to) PostScript.  NumberOfExternalNonPSFiles counts included
	// raster graphics, which PostScript converters cannot handle.
	NumberOfExternalPSFiles    int
	NumberOfExternalNonPSFiles int

	data        []byte
	pageOffsets []uint32
	lastPage    uint32

	// convertedFiles maps the names of PDF graphics to the names of the
	// PostScript files they were converted to.  An empty value records a
	// failed conversion.
	convertedFiles map[string]string
}

// IsValid checks the signature of a DVI file: the preamble must start with
// PRE and the identification byte, the file must be at least MinFileSize
// bytes long, and the last four bytes must be trailer bytes.
func IsValid(data []byte) bool {
	n := len(data)
	if n < MinFileSize || data[0] != Pre || data[1] != ID {
		return false
	}
	for _, b := range data[n-4:] {
		if b != Trailer {
			return false
		}
	}
	return true
}

// IsValidFile reports whether the named file carries the DVI signature.
func IsValidFile(fname string) bool {
	data, err := os.ReadFile(fname)
	if err != nil {
		return false
	}
	return IsValid(data)
}

// Open reads a DVI file from disk.
func Open(fname string) (*Document, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(fname)
	if err != nil {
		abs = fname
	}
	return Read(data, abs)
}

// Read parses a DVI file held in memory.  The document takes ownership of
// data.  The name is used to resolve relative file names in specials and
// may be empty.
func Read(data []byte, name string) (*Document, error) {
	if len(data) >= 2 && data[0] == Pre && data[1] != ID {
		return nil, malformed(1, ErrVersion)
	}
	if !IsValid(data) {
		return nil, &MalformedFileError{Err: ErrNotDVI}
	}

	doc := &Document{
		FileName:       name,
		data:           data,
		convertedFiles: make(map[string]string),
	}
	err := doc.parse()
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (doc *Document) parse() error {
	err := doc.readPreamble()
	if err != nil {
		return err
	}
	post, err := doc.findPostamble()
	if err != nil {
		return err
	}
	totalPages, err := doc.readPostamble(post)
	if err != nil {
		return err
	}
	return doc.preparePages(post, totalPages)
}

func (doc *Document) readPreamble() error {
	c, _ := NewCursor(doc.data, 2, len(doc.data))
	var err error
	if doc.Numerator, err = c.Uint32(); err != nil {
		return err
	}
	if doc.Denominator, err = c.Uint32(); err != nil {
		return err
	}
	if doc.Magnification, err = c.Uint32(); err != nil {
		return err
	}
	if doc.Numerator == 0 || doc.Denominator == 0 {
		return malformed(2, fmt.Errorf("invalid unit %d/%d", doc.Numerator, doc.Denominator))
	}
	k, err := c.Uint8()
	if err != nil {
		return err
	}
	comment, err := c.Bytes(int(k))
	if err != nil {
		return err
	}
	doc.Generator = string(comment)
	return nil
}

// findPostamble skips the trailer bytes at the end of the file and reads
// the postamble pointer stored just before the identification byte.
func (doc *Document) findPostamble() (int, error) {
	i := len(doc.data) - 1
	for i > 0 && doc.data[i] == Trailer {
		i--
	}
	if i < 5 {
		return 0, malformed(0, errNoPostamble)
	}
	post := int(getUint32(doc.data[i-4:]))
	if post >= len(doc.data) {
		return 0, malformed(i-4, errNoPostamble)
	}
	return post, nil
}

func (doc *Document) readPostamble(post int) (int, error) {
	c, _ := NewCursor(doc.data, post, len(doc.data))
	op, err := c.Uint8()
	if err != nil {
		return 0, err
	}
	if op != Post {
		return 0, malformed(post, errPostamble)
	}
	doc.lastPage, err = c.Uint32()
	if err != nil {
		return 0, err
	}
	// num, den, mag, max height, max width, max stack depth
	err = c.Skip(4 + 4 + 4 + 4 + 4 + 2)
	if err != nil {
		return 0, err
	}
	totalPages, err := c.Uint16()
	if err != nil {
		return 0, err
	}

	doc.Fonts = doc.Fonts[:0]
	for {
		pos := c.Pos()
		op, err := c.Uint8()
		if err != nil {
			return 0, err
		}
		if op == PostPost {
			break
		}
		if op < FntDef1 || op > FntDef4 {
			return 0, malformed(pos, errPostPost)
		}
		def, err := readFontDef(c, int(op-FntDef1)+1, doc.Magnification)
		if err != nil {
			return 0, err
		}
		doc.Fonts = append(doc.Fonts, def)
	}
	return int(totalPages), nil
}

func readFontDef(c *Cursor, n int, mag uint32) (FontDef, error) {
	var def FontDef
	var err error
	if def.Num, err = c.Uint(n); err != nil {
		return def, err
	}
	if def.Checksum, err = c.Uint32(); err != nil {
		return def, err
	}
	if def.Scale, err = c.Uint32(); err != nil {
		return def, err
	}
	if def.Design, err = c.Uint32(); err != nil {
		return def, err
	}
	a, err := c.Uint8()
	if err != nil {
		return def, err
	}
	l, err := c.Uint8()
	if err != nil {
		return def, err
	}
	area, err := c.Bytes(int(a))
	if err != nil {
		return def, err
	}
	name, err := c.Bytes(int(l))
	if err != nil {
		return def, err
	}
	def.Area = string(area)
	def.Name = string(name)
	if def.Design != 0 {
		def.Enlargement = float64(def.Scale) * float64(mag) / (float64(def.Design) * 1000)
	}
	return def, nil
}

// preparePages follows the chain of back pointers from the last page to
// the first one.
func (doc *Document) preparePages(post, totalPages int) error {
	offsets := make([]uint32, totalPages+1)
	offsets[totalPages] = uint32(post)
	if totalPages > 0 {
		offsets[totalPages-1] = doc.lastPage
	}
	for i := totalPages - 1; i >= 0; i-- {
		pos := int(offsets[i])
		if pos+BOPSize > post || offsets[i] >= offsets[i+1] {
			return malformed(pos, errPageOffsets)
		}
		if doc.data[pos] != BOP {
			return malformed(pos, fmt.Errorf("page %d: %w", i+1, errNoBOP))
		}
		if i > 0 {
			offsets[i-1] = getUint32(doc.data[pos+bopPrevOffset:])
		}
	}
	doc.pageOffsets = offsets
	return nil
}

// Data returns the contents of the file.  The slice must not be modified
// by the caller.
func (doc *Document) Data() []byte {
	return doc.data
}

// Size returns the length of the file in bytes.
func (doc *Document) Size() int {
	return len(doc.data)
}

// TotalPages returns the number of pages in the document.
func (doc *Document) TotalPages() int {
	return len(doc.pageOffsets) - 1
}

// PageOffsets returns a copy of the page offset table.
func (doc *Document) PageOffsets() []uint32 {
	res := make([]uint32, len(doc.pageOffsets))
	copy(res, doc.pageOffsets)
	return res
}

// PostambleOffset returns the position of the POST command.
func (doc *Document) PostambleOffset() int {
	return int(doc.pageOffsets[len(doc.pageOffsets)-1])
}

// PageRange returns the byte range [start, end) of the given page.
// Pages are numbered from 0.
func (doc *Document) PageRange(page int) (int, int, error) {
	if page < 0 || page >= doc.TotalPages() {
		return 0, 0, fmt.Errorf("page %d out of range [0, %d)", page, doc.TotalPages())
	}
	return int(doc.pageOffsets[page]), int(doc.pageOffsets[page+1]), nil
}

// PageOf returns the number (from 0) of the page containing the given
// byte offset, or -1 if the offset does not belong to any page.
func (doc *Document) PageOf(offset int) int {
	for i := 0; i < doc.TotalPages(); i++ {
		if int(doc.pageOffsets[i]) <= offset && offset <= int(doc.pageOffsets[i+1]) {
			return i
		}
	}
	return -1
}

// Counts returns the ten page counters stored in the BOP command of the
// given page.  TeX stores \count0 to \count9 there; count0 is the page
// number printed on the page.
func (doc *Document) Counts(page int) ([10]int32, error) {
	var res [10]int32
	start, _, err := doc.PageRange(page)
	if err != nil {
		return res, err
	}
	c, err := NewCursor(doc.data, start+1, start+BOPSize)
	if err != nil {
		return res, err
	}
	for i := range res {
		res[i], _ = c.Int32()
	}
	return res, nil
}

// CmPerDVIUnit returns the length of one DVI unit in centimetres, including
// the magnification.
func (doc *Document) CmPerDVIUnit() float64 {
	return float64(doc.Numerator) / float64(doc.Denominator) *
		float64(doc.Magnification) / 1000 / 1e5
}

// FontByNum returns the postamble definition of the given font number.
func (doc *Document) FontByNum(num uint32) (FontDef, bool) {
	for _, f := range doc.Fonts {
		if f.Num == num {
			return f, true
		}
	}
	return FontDef{}, false
}

// Copy returns an independent copy of the document.  The buffer, the page
// offsets and the suggested page size are duplicated.  The table of
// converted files stays with the original, since the original is
// responsible for removing these files.
func (doc *Document) Copy() *Document {
	res := &Document{
		FileName:          doc.FileName,
		Generator:         doc.Generator,
		Numerator:         doc.Numerator,
		Denominator:       doc.Denominator,
		Magnification:     doc.Magnification,
		Fonts:             append([]FontDef(nil), doc.Fonts...),
		HasSourceSpecials: doc.HasSourceSpecials,

		NumberOfExternalPSFiles:    doc.NumberOfExternalPSFiles,
		NumberOfExternalNonPSFiles: doc.NumberOfExternalNonPSFiles,

		data:           bytes.Clone(doc.data),
		pageOffsets:    append([]uint32(nil), doc.pageOffsets...),
		lastPage:       doc.lastPage,
		convertedFiles: make(map[string]string),
	}
	if doc.SuggestedPageSize != nil {
		size := *doc.SuggestedPageSize
		res.SuggestedPageSize = &size
	}
	return res
}

// Renumber overwrites the page counters count0 to count3 of every page by
// the sequential number of the page, starting from 1.  Programs like dvips
// select pages by these counters.
func (doc *Document) Renumber() {
	for i := 1; i <= doc.TotalPages(); i++ {
		pos := int(doc.pageOffsets[i-1]) + 1
		for j := 0; j < 4; j++ {
			putUint32(doc.data[pos+4*j:], uint32(i))
		}
	}
}

// WriteTo writes the contents of the document to w.
func (doc *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(doc.data)
	return int64(n), err
}

// SaveAs writes the document to the named file.
func (doc *Document) SaveAs(fname string) error {
	return os.WriteFile(fname, doc.data, 0o644)
}

// ConvertedFile returns the name of the PostScript file the given PDF
// graphic was converted to.  The second return value is false if no
// conversion has been attempted yet.  An empty name with ok == true means
// that the conversion failed.
func (doc *Document) ConvertedFile(src string) (string, bool) {
	dst, ok := doc.convertedFiles[src]
	return dst, ok
}

// SetConvertedFile records the result of converting src.
func (doc *Document) SetConvertedFile(src, dst string) {
	doc.convertedFiles[src] = dst
}

// Close removes all files created by converting PDF graphics.
func (doc *Document) Close() error {
	var firstErr error
	for src, dst := range doc.convertedFiles {
		if dst == "" {
			continue
		}
		err := os.Remove(dst)
		if err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
		delete(doc.convertedFiles, src)
	}
	return firstErr
}
