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

package special

import (
	"errors"
	"fmt"
	"strings"

	"seehuhn.de/go/dvi/pagesize"
)

// ParsePapersize parses the argument of a papersize special, for example
// "=597.50787pt,845.04684pt".
func ParsePapersize(arg string) (pagesize.Size, error) {
	spec := simplifyWhiteSpace(arg)
	if !strings.HasPrefix(spec, "=") {
		return pagesize.Size{}, fmt.Errorf("papersize %q: %w", spec, errMissingEquals)
	}
	size, err := pagesize.Parse(strings.TrimSpace(spec[1:]))
	if err != nil {
		return pagesize.Size{}, fmt.Errorf("papersize %q: %w", spec, err)
	}
	return size, nil
}

var errMissingEquals = errors.New("missing '='")
