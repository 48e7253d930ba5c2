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

var errPatchRange = errors.New("patch outside of page contents")

// Patch replaces the oldLen bytes starting at offset at by repl, and
// repairs all file offsets which are affected by the change in length:
// the page offset table, the back pointers in the BOP commands, the
// pointer to the last page in the postamble and the postamble pointer at
// the end of the file.
//
// The patched range must lie inside the contents of a page, and must not
// touch a BOP command.  On error the document is left unchanged.
// The return value is the change in file length.
func (doc *Document) Patch(at, oldLen int, repl []byte) (int, error) {
	n := doc.TotalPages()
	post := doc.PostambleOffset()
	if at < 0 || oldLen < 0 || at+oldLen > post || n == 0 || at < int(doc.pageOffsets[0]) {
		return 0, malformed(at, errPatchRange)
	}
	for i := 0; i < n; i++ {
		p := int(doc.pageOffsets[i])
		if at < p+BOPSize && p < at+oldLen || at >= p && at < p+BOPSize {
			return 0, malformed(at, errPatchRange)
		}
	}

	delta := len(repl) - oldLen
	data := make([]byte, 0, len(doc.data)+delta)
	data = append(data, doc.data[:at]...)
	data = append(data, repl...)
	data = append(data, doc.data[at+oldLen:]...)

	shift := func(x uint32) uint32 {
		if x != 0xFFFFFFFF && int(x) > at {
			return uint32(int(x) + delta)
		}
		return x
	}

	offsets := make([]uint32, n+1)
	for i, p := range doc.pageOffsets {
		offsets[i] = shift(p)
		if i == n || offsets[i] == p {
			continue
		}
		bp := data[int(offsets[i])+bopPrevOffset:]
		putUint32(bp, shift(getUint32(bp)))
	}

	newPost := int(offsets[n])
	lastPage := shift(getUint32(data[newPost+1:]))
	putUint32(data[newPost+1:], lastPage)

	i := len(data) - 1
	for i > 0 && data[i] == Trailer {
		i--
	}
	putUint32(data[i-4:], uint32(newPost))

	for i := 0; i < n; i++ {
		if offsets[i] >= offsets[i+1] {
			return 0, fmt.Errorf("patch at %d: %w", at, errPageOffsets)
		}
	}

	doc.data = data
	doc.pageOffsets = offsets
	doc.lastPage = lastPage
	return delta, nil
}

// FillNOP overwrites the bytes in [start, end) with NOP commands.  The
// length of the file does not change.
func (doc *Document) FillNOP(start, end int) error {
	if end < start {
		return malformed(start, errPatchRange)
	}
	_, err := doc.Patch(start, end-start, bytes.Repeat([]byte{NOP}, end-start))
	return err
}

// SpecialCommand encodes payload as an XXX4 command.
func SpecialCommand(payload []byte) []byte {
	res := make([]byte, 5+len(payload))
	res[0] = XXX4
	putUint32(res[1:], uint32(len(payload)))
	copy(res[5:], payload)
	return res
}
