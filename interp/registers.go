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

package interp

// Registers is the position state of the DVI machine.
//
// H is measured in units of 2^-16 pixels of a 1200 dpi device.  V is
// measured in pixels of a 1200 dpi device.  W and X use the units of H,
// Y and Z are stored in the units of H and converted when they are added
// to V.  PixelV is the vertical position in device pixels at the
// resolution of the interpreter.
type Registers struct {
	H, V       int64
	W, X, Y, Z int64
	PixelV     int
}

// Stack holds the registers saved by PUSH commands.
type Stack struct {
	frames []Registers
}

// Push saves a copy of r.
func (s *Stack) Push(r Registers) {
	s.frames = append(s.frames, r)
}

// Pop returns the most recently pushed registers.  The second return value
// is false if the stack is empty.
func (s *Stack) Pop() (Registers, bool) {
	n := len(s.frames)
	if n == 0 {
		return Registers{}, false
	}
	r := s.frames[n-1]
	s.frames = s.frames[:n-1]
	return r, true
}

// Len returns the number of saved frames.
func (s *Stack) Len() int {
	return len(s.frames)
}

// Reset removes all frames.
func (s *Stack) Reset() {
	s.frames = s.frames[:0]
}
