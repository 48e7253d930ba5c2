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
	"errors"
	"fmt"
)

// Default values for the DVI unit, as used by TeX: one DVI unit is one
// scaled point, 2^-16 TeX points.
const (
	DefaultNumerator   = 25400000
	DefaultDenominator = 473628672
)

// Writer assembles a DVI file in memory.
//
// Errors are sticky: once a method fails, all later calls are ignored and
// Bytes returns the first error.
type Writer struct {
	Numerator     uint32
	Denominator   uint32
	Magnification uint32
	Comment       string

	buf      bytes.Buffer
	started  bool
	inPage   bool
	prevBOP  int64
	pages    int
	depth    int
	maxDepth int
	fonts    []FontDef
	defined  map[uint32]bool
	err      error
}

// NewWriter returns a Writer using TeX's units and no magnification.
func NewWriter(comment string) *Writer {
	return &Writer{
		Numerator:     DefaultNumerator,
		Denominator:   DefaultDenominator,
		Magnification: 1000,
		Comment:       comment,
		prevBOP:       -1,
		defined:       make(map[uint32]bool),
	}
}

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *Writer) byte(b ...byte) {
	w.buf.Write(b)
}

func (w *Writer) uint(x uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		w.buf.WriteByte(byte(x >> (8 * i)))
	}
}

func (w *Writer) start() {
	if w.started {
		return
	}
	w.started = true
	comment := w.Comment
	if len(comment) > 255 {
		comment = comment[:255]
	}
	w.byte(Pre, ID)
	w.uint(w.Numerator, 4)
	w.uint(w.Denominator, 4)
	w.uint(w.Magnification, 4)
	w.byte(byte(len(comment)))
	w.buf.WriteString(comment)
}

// DefineFont registers a font.  The definition is written to the postamble,
// and to the page stream before the font is first selected.
func (w *Writer) DefineFont(def FontDef) {
	for _, f := range w.fonts {
		if f.Num == def.Num {
			w.fail(fmt.Errorf("font %d defined twice", def.Num))
			return
		}
	}
	w.fonts = append(w.fonts, def)
}

func (w *Writer) fontDef(def FontDef) {
	n := intSize(def.Num)
	w.byte(byte(FntDef1 + n - 1))
	w.uint(def.Num, n)
	w.uint(def.Checksum, 4)
	w.uint(def.Scale, 4)
	w.uint(def.Design, 4)
	w.byte(byte(len(def.Area)), byte(len(def.Name)))
	w.buf.WriteString(def.Area)
	w.buf.WriteString(def.Name)
}

func intSize(x uint32) int {
	switch {
	case x < 1<<8:
		return 1
	case x < 1<<16:
		return 2
	case x < 1<<24:
		return 3
	default:
		return 4
	}
}

func signedSize(x int32) int {
	switch {
	case x >= -1<<7 && x < 1<<7:
		return 1
	case x >= -1<<15 && x < 1<<15:
		return 2
	case x >= -1<<23 && x < 1<<23:
		return 3
	default:
		return 4
	}
}

// BeginPage starts a new page with the given values of \count0 to \count9.
// Missing counters are zero.
func (w *Writer) BeginPage(counts ...int32) {
	if w.err != nil {
		return
	}
	if w.inPage {
		w.fail(errors.New("BeginPage inside a page"))
		return
	}
	if len(counts) > 10 {
		w.fail(errors.New("too many page counters"))
		return
	}
	w.start()
	pos := int64(w.buf.Len())
	w.byte(BOP)
	for i := 0; i < 10; i++ {
		var c int32
		if i < len(counts) {
			c = counts[i]
		}
		w.uint(uint32(c), 4)
	}
	w.uint(uint32(int32(w.prevBOP)), 4)
	w.prevBOP = pos
	w.inPage = true
	w.depth = 0
	w.pages++
}

// EndPage finishes the current page.
func (w *Writer) EndPage() {
	if !w.check() {
		return
	}
	if w.depth != 0 {
		w.fail(fmt.Errorf("page %d: unbalanced push/pop", w.pages))
		return
	}
	w.byte(EOP)
	w.inPage = false
}

func (w *Writer) check() bool {
	if w.err != nil {
		return false
	}
	if !w.inPage {
		w.fail(errors.New("command outside of a page"))
		return false
	}
	return true
}

// SetChar typesets a character and moves right by its width.
func (w *Writer) SetChar(code uint32) {
	if !w.check() {
		return
	}
	if code < 128 {
		w.byte(byte(SetChar0 + code))
		return
	}
	n := intSize(code)
	w.byte(byte(Set1 + n - 1))
	w.uint(code, n)
}

// PutChar typesets a character without moving.
func (w *Writer) PutChar(code uint32) {
	if !w.check() {
		return
	}
	n := intSize(code)
	w.byte(byte(Put1 + n - 1))
	w.uint(code, n)
}

// SetRule typesets a rule and moves right by its width.
func (w *Writer) SetRule(height, width int32) {
	w.rule(SetRule, height, width)
}

// PutRule typesets a rule without moving.
func (w *Writer) PutRule(height, width int32) {
	w.rule(PutRule, height, width)
}

func (w *Writer) rule(op byte, height, width int32) {
	if !w.check() {
		return
	}
	w.byte(op)
	w.uint(uint32(height), 4)
	w.uint(uint32(width), 4)
}

// Push saves the current position on the stack.
func (w *Writer) Push() {
	if !w.check() {
		return
	}
	w.byte(Push)
	w.depth++
	if w.depth > w.maxDepth {
		w.maxDepth = w.depth
	}
}

// Pop restores the position saved by the matching Push.
func (w *Writer) Pop() {
	if !w.check() {
		return
	}
	if w.depth == 0 {
		w.fail(fmt.Errorf("page %d: pop without push", w.pages))
		return
	}
	w.byte(Pop)
	w.depth--
}

func (w *Writer) move(op1 byte, x int32) {
	if !w.check() {
		return
	}
	n := signedSize(x)
	w.byte(op1 + byte(n-1))
	w.uint(uint32(x), n)
}

// Right moves right by x DVI units.
func (w *Writer) Right(x int32) { w.move(Right1, x) }

// W moves right by x and stores x in register w.
func (w *Writer) W(x int32) { w.move(W1, x) }

// X moves right by x and stores x in register x.
func (w *Writer) X(x int32) { w.move(X1, x) }

// Down moves down by y DVI units.
func (w *Writer) Down(y int32) { w.move(Down1, y) }

// Y moves down by y and stores y in register y.
func (w *Writer) Y(y int32) { w.move(Y1, y) }

// Z moves down by z and stores z in register z.
func (w *Writer) Z(z int32) { w.move(Z1, z) }

// Repeat emits one of the commands W0, X0, Y0 or Z0.
func (w *Writer) Repeat(op byte) {
	if !w.check() {
		return
	}
	switch op {
	case W0, X0, Y0, Z0:
		w.byte(op)
	default:
		w.fail(fmt.Errorf("invalid repeat opcode %d", op))
	}
}

// Font selects a font for the following characters.  The font must have
// been registered with DefineFont.
func (w *Writer) Font(num uint32) {
	if !w.check() {
		return
	}
	if !w.defined[num] {
		var def *FontDef
		for i := range w.fonts {
			if w.fonts[i].Num == num {
				def = &w.fonts[i]
			}
		}
		if def == nil {
			w.fail(fmt.Errorf("font %d not defined", num))
			return
		}
		w.fontDef(*def)
		w.defined[num] = true
	}
	if num < 64 {
		w.byte(byte(FntNum0 + num))
		return
	}
	n := intSize(num)
	w.byte(byte(Fnt1 + n - 1))
	w.uint(num, n)
}

// Special emits a special with the given payload, using the shortest
// XXX command which can hold it.
func (w *Writer) Special(payload string) {
	if !w.check() {
		return
	}
	n := intSize(uint32(len(payload)))
	w.byte(byte(XXX1 + n - 1))
	w.uint(uint32(len(payload)), n)
	w.buf.WriteString(payload)
}

// Raw appends arbitrary bytes to the current page.
func (w *Writer) Raw(b ...byte) {
	if !w.check() {
		return
	}
	w.byte(b...)
}

// Bytes writes the postamble and returns the complete DVI file.
// The Writer must not be used afterwards.
func (w *Writer) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if w.inPage {
		return nil, errors.New("last page not finished")
	}
	w.start()

	post := w.buf.Len()
	w.byte(Post)
	w.uint(uint32(int32(w.prevBOP)), 4)
	w.uint(w.Numerator, 4)
	w.uint(w.Denominator, 4)
	w.uint(w.Magnification, 4)
	w.uint(0, 4) // height plus depth of the tallest page
	w.uint(0, 4) // width of the widest page
	w.uint(uint32(w.maxDepth), 2)
	w.uint(uint32(w.pages), 2)
	for _, def := range w.fonts {
		w.fontDef(def)
	}
	w.byte(PostPost)
	w.uint(uint32(post), 4)
	w.byte(ID)
	w.byte(Trailer, Trailer, Trailer, Trailer)
	for w.buf.Len()%4 != 0 || w.buf.Len() < MinFileSize {
		w.byte(Trailer)
	}
	return w.buf.Bytes(), nil
}
