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
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
)

// PrintCommand is the program used by LPR.
var PrintCommand = "lpr"

// Printer sends a PostScript file to a printer.
type Printer interface {
	Print(ctx context.Context, fname string) error
}

// LPR prints files using the lpr command.
type LPR struct {
	// Queue is the name of the printer.  If this is empty, the default
	// printer is used.
	Queue string

	// Copies is the number of copies to print.  Values less than 2 print
	// a single copy.
	Copies int
}

// Print implements the Printer interface.
func (p *LPR) Print(ctx context.Context, fname string) error {
	var args []string
	if p.Queue != "" {
		args = append(args, "-P", p.Queue)
	}
	if p.Copies > 1 {
		args = append(args, "-#", strconv.Itoa(p.Copies))
	}
	args = append(args, fname)

	out, err := exec.CommandContext(ctx, PrintCommand, args...).CombinedOutput()
	if err == nil {
		return nil
	}
	return processError(PrintCommand, strings.TrimSpace(string(out)), err)
}

// processError classifies the error returned by exec.Cmd.Run or Wait.
func processError(command, output string, err error) *ProcessError {
	res := &ProcessError{Command: command, Output: output, Err: err}
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr) && exitErr.ExitCode() >= 0:
		res.Kind = ExitedNonZero
		res.ExitCode = exitErr.ExitCode()
	case errors.As(err, &exitErr):
		res.Kind = Crashed
	default:
		res.Kind = FailedToStart
	}
	return res
}
