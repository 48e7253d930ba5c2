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
	"errors"
	"strconv"
)

var (
	// ErrNotDVI is returned when a file does not carry the DVI signature.
	ErrNotDVI = errors.New("missing DVI signature")

	// ErrVersion is returned for DVI files with an identification byte
	// other than 2, for example the output of Omega.
	ErrVersion = errors.New("unsupported DVI version")

	// ErrTruncated is returned when a read or a pointer leaves the buffer.
	ErrTruncated = errors.New("unexpected end of data")

	errNoPostamble = errors.New("postamble not found")
	errPostamble   = errors.New("postamble does not begin with POST")
	errPostPost    = errors.New("postamble contains a command other than FNT_DEF")
	errNoBOP       = errors.New("page does not start with BOP")
	errPageOffsets = errors.New("inconsistent page offsets")
)

// MalformedFileError indicates that a DVI file could not be parsed.
type MalformedFileError struct {
	Pos int64
	Err error
}

func (err *MalformedFileError) Error() string {
	middle := ""
	if err.Err != nil {
		middle = ": " + err.Err.Error()
	}
	tail := ""
	if err.Pos > 0 {
		tail = " (at byte " + strconv.FormatInt(err.Pos, 10) + ")"
	}
	return "not a valid DVI file" + middle + tail
}

func (err *MalformedFileError) Unwrap() error {
	return err.Err
}

func malformed(pos int, err error) error {
	return &MalformedFileError{Pos: int64(pos), Err: err}
}
