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

// Opcodes of the DVI format, as defined in section A.2 of the DVI driver
// standard.
const (
	SetChar0 = 0   // typeset character 0..127 and move right
	Set1     = 128 // typeset a character and move right
	Set2     = 129
	Set3     = 130
	Set4     = 131
	SetRule  = 132 // typeset a rule and move right
	Put1     = 133 // typeset a character
	Put2     = 134
	Put3     = 135
	Put4     = 136
	PutRule  = 137 // typeset a rule
	NOP      = 138 // no operation
	BOP      = 139 // beginning of page
	EOP      = 140 // ending of page
	Push     = 141 // save the current positions
	Pop      = 142 // restore previous positions
	Right1   = 143 // move right
	Right2   = 144
	Right3   = 145
	Right4   = 146
	W0       = 147 // move right by w
	W1       = 148 // move right and set w
	W2       = 149
	W3       = 150
	W4       = 151
	X0       = 152 // move right by x
	X1       = 153 // move right and set x
	X2       = 154
	X3       = 155
	X4       = 156
	Down1    = 157 // move down
	Down2    = 158
	Down3    = 159
	Down4    = 160
	Y0       = 161 // move down by y
	Y1       = 162 // move down and set y
	Y2       = 163
	Y3       = 164
	Y4       = 165
	Z0       = 166 // move down by z
	Z1       = 167 // move down and set z
	Z2       = 168
	Z3       = 169
	Z4       = 170
	FntNum0  = 171 // set current font to 0..63
	Fnt1     = 235 // set current font
	Fnt2     = 236
	Fnt3     = 237
	Fnt4     = 238
	XXX1     = 239 // extension to DVI primitives
	XXX2     = 240
	XXX3     = 241
	XXX4     = 242
	FntDef1  = 243 // define the meaning of a font number
	FntDef2  = 244
	FntDef3  = 245
	FntDef4  = 246
	Pre      = 247 // preamble
	Post     = 248 // postamble beginning
	PostPost = 249 // postamble ending

	// Trailer is the filler byte at the end of a DVI file.
	Trailer = 223

	// ID is the DVI format identification byte written after Pre and
	// PostPost.
	ID = 2
)

// BOPSize is the length of a BOP command: the opcode, ten page counters
// and the back pointer to the previous page.
const BOPSize = 1 + 10*4 + 4

// bopPrevOffset is the position of the back pointer inside a BOP command.
const bopPrevOffset = 1 + 10*4

// MinFileSize is the length of the shortest file accepted as DVI.
const MinFileSize = 134
