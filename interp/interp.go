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

// Package interp executes the pages of a DVI file.
//
// The same opcode loop is used for two purposes.  In Prescan mode the
// registers are updated and specials are reported, but nothing is painted;
// this is used to collect anchors, source positions and PostScript.  In
// Render mode the Handler also receives characters and rules to paint.
package interp

import (
	"errors"
	"fmt"

	"seehuhn.de/go/dvi"
)

// Mode selects what the interpreter is used for.
type Mode int

// Possible modes.
const (
	Prescan Mode = iota
	Render
)

func (m Mode) String() string {
	switch m {
	case Prescan:
		return "prescan"
	case Render:
		return "render"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

var (
	// ErrUndefinedFont is reported when a page selects a font number which
	// has not been defined.
	ErrUndefinedFont = errors.New("undefined font")

	// ErrStackUnderflow is reported for a POP command without a matching
	// PUSH.
	ErrStackUnderflow = errors.New("POP on empty stack")
)

// PageError describes a problem which stopped the interpretation of a
// single page.  The remaining pages are not affected.
type PageError struct {
	Page int // page number, starting from 0
	Pos  int // byte offset of the offending command
	Err  error
}

func (err *PageError) Error() string {
	return fmt.Sprintf("page %d: %s (at byte %d)", err.Page+1, err.Err, err.Pos)
}

func (err *PageError) Unwrap() error {
	return err.Err
}

// Font gives the metrics of a font used in a DVI file.
type Font interface {
	// ScaledSize returns the size at which the font is used, in DVI units.
	ScaledSize() uint32

	// Advance returns the width of a character, in units of the design
	// size multiplied by 2^20.  The second return value is false if the
	// font has no such character.
	Advance(code uint32) (int32, bool)
}

// Special is a DVI special command.
type Special struct {
	Payload string
	Offset  int // position of the XXX command
	End     int // position just after the payload
}

// State is the interpreter state, as seen by a Handler.
type State struct {
	Registers

	Mode    Mode
	Page    int // current page, starting from 0
	Font    Font
	FontNum uint32

	// Resolution is the device resolution in dots per inch.
	Resolution float64

	// ShrinkFactor is 1200/Resolution.
	ShrinkFactor float64

	// PixelsPerDVIUnit converts DVI units to pixels at 1200 dpi.
	PixelsPerDVIUnit float64
}

// PixelH returns the horizontal position in device pixels.
func (st *State) PixelH() int {
	return int(float64(st.H) / 65536 / st.ShrinkFactor)
}

// Handler receives the output of the interpreter.
// Any error returned by a Handler method stops the current page.
type Handler interface {
	// Char is called for characters.  For SET commands this happens
	// before H is advanced.  Advance is the amount by which H will move,
	// zero for PUT commands.
	Char(st *State, code uint32, advance int64) error

	// Rule is called for SET_RULE and PUT_RULE.  The height is in 1200 dpi
	// pixels, the width in the units of H.  Set is true for SET_RULE.
	Rule(st *State, height, width int64, set bool) error

	// Special is called for every special with a non-empty payload.
	Special(st *State, sp Special) error
}

// NopHandler ignores all commands.  It can be embedded in types which only
// need some of the Handler methods.
type NopHandler struct{}

// Char implements the Handler interface.
func (NopHandler) Char(*State, uint32, int64) error { return nil }

// Rule implements the Handler interface.
func (NopHandler) Rule(*State, int64, int64, bool) error { return nil }

// Special implements the Handler interface.
func (NopHandler) Special(*State, Special) error { return nil }

// DefaultResolution is used when no resolution is set.
const DefaultResolution = 100

// Interpreter runs the pages of a DVI document.
type Interpreter struct {
	Doc     *dvi.Document
	Fonts   map[uint32]Font
	Handler Handler
	Mode    Mode

	// Resolution is the device resolution in dots per inch.  If it is zero,
	// DefaultResolution is used.
	Resolution float64

	// Unknown, if set, is called when a page ends with an opcode other than
	// EOP.  Such a page is not treated as an error.
	Unknown func(page, pos int, op byte)

	stack Stack
}

// Run executes the given page (numbered from 0) once.
//
// Problems which affect only this page are returned as a *PageError.
// If a command extends beyond the end of the page, the error wraps
// dvi.ErrTruncated; this indicates a corrupt page offset table.
func (ip *Interpreter) Run(page int) error {
	doc := ip.Doc
	start, end, err := doc.PageRange(page)
	if err != nil {
		return err
	}
	c, err := dvi.NewCursor(doc.Data(), start, end)
	if err != nil {
		return err
	}

	res := ip.Resolution
	if res <= 0 {
		res = DefaultResolution
	}
	st := &State{
		Mode:             ip.Mode,
		Page:             page,
		Resolution:       res,
		ShrinkFactor:     1200 / res,
		PixelsPerDVIUnit: doc.CmPerDVIUnit() * 1200 / 2.54,
	}
	h := ip.Handler
	if h == nil {
		h = NopHandler{}
	}
	ip.stack.Reset()

	scale := func(x int32) int64 {
		return int64(float64(x) * 65536 * st.PixelsPerDVIUnit)
	}
	pageErr := func(pos int, err error) error {
		return &PageError{Page: page, Pos: pos, Err: err}
	}
	setV := func(v int64) {
		st.V = v
		st.PixelV = int(float64(st.V) / st.ShrinkFactor)
	}

	for {
		pos := c.Pos()
		op, err := c.Uint8()
		if err != nil {
			return err
		}

		switch {
		case op <= dvi.SetChar0+127:
			err = ip.char(st, h, uint32(op), true)

		case op >= dvi.FntNum0 && op <= dvi.FntNum0+63:
			err = ip.selectFont(st, uint32(op-dvi.FntNum0))

		case op >= dvi.Set1 && op <= dvi.Set4, op >= dvi.Put1 && op <= dvi.Put4:
			set := op <= dvi.Set4
			n := int(op-dvi.Set1) + 1
			if !set {
				n = int(op-dvi.Put1) + 1
			}
			var code uint32
			code, err = c.Uint(n)
			if err != nil {
				return err
			}
			err = ip.char(st, h, code, set)

		case op == dvi.SetRule || op == dvi.PutRule:
			var a, b int32
			if a, err = c.Int32(); err != nil {
				return err
			}
			if b, err = c.Int32(); err != nil {
				return err
			}
			width := scale(b)
			err = h.Rule(st, ruleHeight(a, st.PixelsPerDVIUnit), width, op == dvi.SetRule)
			if op == dvi.SetRule {
				st.H += width
			}

		case op == dvi.NOP:
			// pass

		case op == dvi.BOP:
			if err = c.Skip(dvi.BOPSize - 1); err != nil {
				return err
			}
			st.Registers = Registers{H: 1200 << 16}
			setV(1200)

		case op == dvi.Push:
			ip.stack.Push(st.Registers)

		case op == dvi.Pop:
			r, ok := ip.stack.Pop()
			if !ok {
				return pageErr(pos, ErrStackUnderflow)
			}
			st.Registers = r

		case op >= dvi.Right1 && op <= dvi.Right4:
			var x int32
			if x, err = c.Int(int(op-dvi.Right1) + 1); err != nil {
				return err
			}
			st.H += scale(x)

		case op >= dvi.W0 && op <= dvi.W4:
			if op > dvi.W0 {
				var x int32
				if x, err = c.Int(int(op - dvi.W0)); err != nil {
					return err
				}
				st.W = scale(x)
			}
			st.H += st.W

		case op >= dvi.X0 && op <= dvi.X4:
			if op > dvi.X0 {
				var x int32
				if x, err = c.Int(int(op - dvi.X0)); err != nil {
					return err
				}
				st.X = scale(x)
			}
			st.H += st.X

		case op >= dvi.Down1 && op <= dvi.Down4:
			var y int32
			if y, err = c.Int(int(op-dvi.Down1) + 1); err != nil {
				return err
			}
			setV(st.V + scale(y)/65536)

		case op >= dvi.Y0 && op <= dvi.Y4:
			if op > dvi.Y0 {
				var y int32
				if y, err = c.Int(int(op - dvi.Y0)); err != nil {
					return err
				}
				st.Y = scale(y)
			}
			setV(st.V + st.Y/65536)

		case op >= dvi.Z0 && op <= dvi.Z4:
			if op > dvi.Z0 {
				var z int32
				if z, err = c.Int(int(op - dvi.Z0)); err != nil {
					return err
				}
				st.Z = scale(z)
			}
			setV(st.V + st.Z/65536)

		case op >= dvi.Fnt1 && op <= dvi.Fnt4:
			var num uint32
			if num, err = c.Uint(int(op-dvi.Fnt1) + 1); err != nil {
				return err
			}
			err = ip.selectFont(st, num)

		case op >= dvi.XXX1 && op <= dvi.XXX4:
			var n uint32
			if n, err = c.Uint(int(op-dvi.XXX1) + 1); err != nil {
				return err
			}
			var payload []byte
			if payload, err = c.Bytes(int(n)); err != nil {
				return err
			}
			if n > 0 {
				err = h.Special(st, Special{
					Payload: string(payload),
					Offset:  pos,
					End:     c.Pos(),
				})
			}

		case op >= dvi.FntDef1 && op <= dvi.FntDef4:
			if err = c.Skip(12 + int(op-dvi.FntDef1) + 1); err != nil {
				return err
			}
			var a, l uint8
			if a, err = c.Uint8(); err != nil {
				return err
			}
			if l, err = c.Uint8(); err != nil {
				return err
			}
			if err = c.Skip(int(a) + int(l)); err != nil {
				return err
			}

		default:
			if op != dvi.EOP && ip.Unknown != nil {
				ip.Unknown(page, pos, op)
			}
			return nil
		}

		if err != nil {
			var pErr *PageError
			if errors.As(err, &pErr) {
				return err
			}
			return pageErr(pos, err)
		}
	}
}

func (ip *Interpreter) selectFont(st *State, num uint32) error {
	f, ok := ip.Fonts[num]
	if !ok || f == nil {
		return fmt.Errorf("%w #%d", ErrUndefinedFont, num)
	}
	st.Font = f
	st.FontNum = num
	return nil
}

func (ip *Interpreter) char(st *State, h Handler, code uint32, set bool) error {
	if st.Font == nil {
		return nil
	}
	w, ok := st.Font.Advance(code)
	if !ok {
		return nil
	}
	var advance int64
	if set {
		advance = int64(float64(st.Font.ScaledSize())*st.PixelsPerDVIUnit/16*float64(w) + 0.5)
	}
	err := h.Char(st, code, advance)
	st.H += advance
	return err
}

// ruleHeight converts the height of a rule to 1200 dpi pixels.  dvicopy
// writes rules of height -2^31, which are treated as empty.
func ruleHeight(a int32, pixelsPerDVIUnit float64) int64 {
	if a == -1<<31 {
		return 0
	}
	return int64(float64(a) * pixelsPerDVIUnit)
}
