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

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Progress shows a one-line progress bar on a terminal.  If the output is
// not a terminal, only the final message is written.
type Progress struct {
	w     io.Writer
	label string
	tty   bool
	width int
}

// NewProgress creates a progress bar on standard error.
func NewProgress(label string) *Progress {
	fd := int(os.Stderr.Fd())
	p := &Progress{
		w:     os.Stderr,
		label: label,
		tty:   term.IsTerminal(fd),
		width: 80,
	}
	if p.tty {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			p.width = w
		}
	}
	return p
}

// Update redraws the progress bar.
func (p *Progress) Update(done, total int) {
	if !p.tty || total <= 0 {
		return
	}
	counter := fmt.Sprintf(" %d/%d", done, total)
	barWidth := p.width - len(p.label) - len(counter) - 4
	if barWidth < 10 {
		fmt.Fprintf(p.w, "\r%s%s", p.label, counter)
		return
	}
	n := barWidth * min(done, total) / total
	bar := strings.Repeat("=", n) + strings.Repeat(" ", barWidth-n)
	fmt.Fprintf(p.w, "\r%s [%s]%s", p.label, bar, counter)
}

// Finish ends the progress bar with a message.
func (p *Progress) Finish(msg string) {
	if p.tty {
		fmt.Fprintf(p.w, "\r%s\r", strings.Repeat(" ", p.width-1))
	}
	fmt.Fprintln(p.w, msg)
}
