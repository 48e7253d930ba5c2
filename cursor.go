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

// Cursor reads and writes big-endian integers in a byte buffer.
// All reads are restricted to the half-open range [start, end) given
// when the cursor is created; a read past the end fails with an error
// wrapping ErrTruncated and leaves the position unchanged.
type Cursor struct {
	buf []byte
	pos int
	end int
}

// NewCursor returns a cursor positioned at start, which may read up to
// (but excluding) end.
func NewCursor(buf []byte, start, end int) (*Cursor, error) {
	if start < 0 || end > len(buf) || start > end {
		return nil, malformed(start, ErrTruncated)
	}
	return &Cursor{buf: buf, pos: start, end: end}, nil
}

// Pos returns the current offset into the buffer.
func (c *Cursor) Pos() int {
	return c.pos
}

// End returns the end offset of the readable range.
func (c *Cursor) End() int {
	return c.end
}

// Remaining returns the number of bytes between the current position and
// the end of the readable range.
func (c *Cursor) Remaining() int {
	return c.end - c.pos
}

// Seek moves the cursor to an absolute position.
func (c *Cursor) Seek(pos int) error {
	if pos < 0 || pos > c.end {
		return malformed(pos, ErrTruncated)
	}
	c.pos = pos
	return nil
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int) error {
	if n < 0 || n > c.end-c.pos {
		return malformed(c.pos, ErrTruncated)
	}
	c.pos += n
	return nil
}

// Uint8 reads one byte.
func (c *Cursor) Uint8() (uint8, error) {
	if c.pos >= c.end {
		return 0, malformed(c.pos, ErrTruncated)
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// Uint16 reads a two-byte unsigned integer.
func (c *Cursor) Uint16() (uint16, error) {
	x, err := c.Uint(2)
	return uint16(x), err
}

// Uint24 reads a three-byte unsigned integer.
func (c *Cursor) Uint24() (uint32, error) {
	return c.Uint(3)
}

// Uint32 reads a four-byte unsigned integer.
func (c *Cursor) Uint32() (uint32, error) {
	return c.Uint(4)
}

// Int32 reads a four-byte signed integer.
func (c *Cursor) Int32() (int32, error) {
	return c.Int(4)
}

// Uint reads an unsigned big-endian integer of n bytes, 1 <= n <= 4.
func (c *Cursor) Uint(n int) (uint32, error) {
	if n < 1 || n > 4 || n > c.end-c.pos {
		return 0, malformed(c.pos, ErrTruncated)
	}
	var x uint32
	for _, b := range c.buf[c.pos : c.pos+n] {
		x = x<<8 | uint32(b)
	}
	c.pos += n
	return x, nil
}

// Int reads a signed big-endian integer of n bytes, 1 <= n <= 4.
// The value is sign-extended from 8n bits.
func (c *Cursor) Int(n int) (int32, error) {
	x, err := c.Uint(n)
	if err != nil {
		return 0, err
	}
	shift := uint(32 - 8*n)
	return int32(x<<shift) >> shift, nil
}

// Bytes returns the next n bytes.  The returned slice aliases the
// underlying buffer.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if n < 0 || n > c.end-c.pos {
		return nil, malformed(c.pos, ErrTruncated)
	}
	res := c.buf[c.pos : c.pos+n]
	c.pos += n
	return res, nil
}

// PutUint32 overwrites the next four bytes with x.
func (c *Cursor) PutUint32(x uint32) error {
	if 4 > c.end-c.pos {
		return malformed(c.pos, ErrTruncated)
	}
	putUint32(c.buf[c.pos:], x)
	c.pos += 4
	return nil
}

func putUint32(b []byte, x uint32) {
	b[0] = byte(x >> 24)
	b[1] = byte(x >> 16)
	b[2] = byte(x >> 8)
	b[3] = byte(x)
}

func getUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
