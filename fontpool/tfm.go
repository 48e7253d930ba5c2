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

package fontpool

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidTFM is returned by ReadTFM for data which is not a valid TFM
// file.
var ErrInvalidTFM = errors.New("invalid TFM file")

// maxTFMSize is the largest TFM file we accept.  The length field of the
// format is a 16 bit count of words.
const maxTFMSize = 4 * 65535

// CharMetrics gives the dimensions of a character, as fix_words in units
// of the design size multiplied by 2^20.
type CharMetrics struct {
	Width  int32
	Height int32
	Depth  int32
}

// TFM holds the metric information from a TeX font metric file.
type TFM struct {
	Checksum uint32

	// DesignSize is the design size of the font, as a fix_word in
	// points multiplied by 2^20.
	DesignSize int32

	FirstChar, LastChar int

	chars []charInfo

	widths  []int32
	heights []int32
	depths  []int32
}

type charInfo struct {
	width, height, depth uint8
}

// ReadTFM reads a TFM file.
func ReadTFM(r io.Reader) (*TFM, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxTFMSize+1))
	if err != nil {
		return nil, err
	}
	return parseTFM(data)
}

func parseTFM(data []byte) (*TFM, error) {
	if len(data) < 24 || len(data) > maxTFMSize {
		return nil, ErrInvalidTFM
	}
	var hw [12]int
	for i := range hw {
		hw[i] = int(binary.BigEndian.Uint16(data[2*i:]))
	}
	lf, lh, bc, ec := hw[0], hw[1], hw[2], hw[3]
	nw, nh, nd, ni, nl, nk, ne, np := hw[4], hw[5], hw[6], hw[7], hw[8], hw[9], hw[10], hw[11]

	if bc > ec+1 || ec > 255 || lh < 2 {
		return nil, fmt.Errorf("%w: bad header (bc=%d, ec=%d, lh=%d)", ErrInvalidTFM, bc, ec, lh)
	}
	nc := ec - bc + 1
	if lf != 6+lh+nc+nw+nh+nd+ni+nl+nk+ne+np {
		return nil, fmt.Errorf("%w: inconsistent table sizes", ErrInvalidTFM)
	}
	if 4*lf > len(data) {
		return nil, fmt.Errorf("%w: file too short", ErrInvalidTFM)
	}
	if nw < 1 || nh < 1 || nd < 1 {
		return nil, fmt.Errorf("%w: missing dimension tables", ErrInvalidTFM)
	}

	word := func(i int) []byte { return data[4*i : 4*i+4] }
	fix := func(i int) int32 { return int32(binary.BigEndian.Uint32(word(i))) }

	t := &TFM{
		Checksum:   binary.BigEndian.Uint32(word(6)),
		DesignSize: fix(7),
		FirstChar:  bc,
		LastChar:   ec,
	}

	base := 6 + lh
	t.chars = make([]charInfo, nc)
	for i := range t.chars {
		b := word(base + i)
		ci := charInfo{width: b[0], height: b[1] >> 4, depth: b[1] & 15}
		if int(ci.width) >= nw || int(ci.height) >= nh || int(ci.depth) >= nd {
			return nil, fmt.Errorf("%w: char_info for %d out of range", ErrInvalidTFM, bc+i)
		}
		t.chars[i] = ci
	}
	base += nc

	table := func(n int) []int32 {
		res := make([]int32, n)
		for i := range res {
			res[i] = fix(base + i)
		}
		base += n
		return res
	}
	t.widths = table(nw)
	t.heights = table(nh)
	t.depths = table(nd)

	if t.widths[0] != 0 || t.heights[0] != 0 || t.depths[0] != 0 {
		return nil, fmt.Errorf("%w: first dimension entries must be zero", ErrInvalidTFM)
	}
	return t, nil
}

// Char returns the metrics of the character with the given code.
// The second return value is false if the font has no such character.
func (t *TFM) Char(code uint32) (CharMetrics, bool) {
	if code < uint32(t.FirstChar) || code > uint32(t.LastChar) {
		return CharMetrics{}, false
	}
	ci := t.chars[code-uint32(t.FirstChar)]
	if ci.width == 0 {
		return CharMetrics{}, false
	}
	return CharMetrics{
		Width:  t.widths[ci.width],
		Height: t.heights[ci.height],
		Depth:  t.depths[ci.depth],
	}, true
}

// DesignSizePt returns the design size of the font in TeX points.
func (t *TFM) DesignSizePt() float64 {
	return float64(t.DesignSize) / (1 << 20)
}
