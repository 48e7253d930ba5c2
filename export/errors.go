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

package export

import (
	"errors"
	"fmt"
)

var (
	// ErrNonPostScriptGraphics is returned by ExportPS for documents which
	// include graphics in formats other than PostScript.  These cannot be
	// handled by dvips.
	ErrNonPostScriptGraphics = errors.New("document includes graphics which are not in PostScript format")

	// ErrConverterNotFound is returned if the external converter is not
	// installed.
	ErrConverterNotFound = errors.New("converter not found")

	// ErrBusy is returned if an export is started while another export is
	// being prepared.
	ErrBusy = errors.New("another export is being prepared")

	// ErrAborted is the result of an aborted job.
	ErrAborted = errors.New("export aborted")
)

// FailureKind describes how an external program failed.
type FailureKind int

// These are the possible values of FailureKind.
const (
	FailedToStart FailureKind = iota
	ExitedNonZero
	Crashed
)

func (k FailureKind) String() string {
	switch k {
	case FailedToStart:
		return "failed to start"
	case ExitedNonZero:
		return "exited with non-zero status"
	case Crashed:
		return "crashed"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// ProcessError reports the failure of an external program.
type ProcessError struct {
	Command  string
	Kind     FailureKind
	ExitCode int    // only for ExitedNonZero
	Output   string // combined stdout and stderr
	Err      error
}

func (err *ProcessError) Error() string {
	if err.Kind == ExitedNonZero {
		return fmt.Sprintf("%s: exit status %d", err.Command, err.ExitCode)
	}
	if err.Err != nil {
		return fmt.Sprintf("%s %s: %v", err.Command, err.Kind, err.Err)
	}
	return err.Command + " " + err.Kind.String()
}

func (err *ProcessError) Unwrap() error {
	return err.Err
}
