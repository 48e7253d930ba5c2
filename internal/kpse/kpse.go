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

// Package kpse finds TeX related files using the kpsewhich program.
package kpse

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
)

// Program is the name of the kpsewhich executable.
var Program = "kpsewhich"

var (
	// ErrNotFound is returned if kpsewhich does not know the file.
	ErrNotFound = errors.New("file not found")

	// ErrNoKpsewhich is returned if the kpsewhich program cannot be run.
	ErrNoKpsewhich = errors.New("cannot run kpsewhich")
)

// Finder looks up files with kpsewhich and remembers the results.
// The zero value is ready to use.  A Finder is safe for concurrent use.
type Finder struct {
	mu    sync.Mutex
	cache map[string]string
}

// Default is the Finder used by Find.
var Default = &Finder{}

// Find looks up a file using the Default finder.
func Find(ctx context.Context, name string) (string, error) {
	return Default.Find(ctx, name)
}

// Find returns the full path of the named file.  Negative results are
// cached as well.
func (f *Finder) Find(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	path, seen := f.cache[name]
	f.mu.Unlock()
	if seen {
		if path == "" {
			return "", ErrNotFound
		}
		return path, nil
	}

	if _, err := exec.LookPath(Program); err != nil {
		return "", ErrNoKpsewhich
	}

	// kpsewhich exits with status 1 if the file is not found.
	out, err := exec.CommandContext(ctx, Program, name).Output()
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	path, _, _ = strings.Cut(string(out), "\n")
	path = strings.TrimSpace(path)
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return "", err
	}

	f.mu.Lock()
	if f.cache == nil {
		f.cache = make(map[string]string)
	}
	f.cache[name] = path
	f.mu.Unlock()

	if path == "" {
		return "", ErrNotFound
	}
	return path, nil
}
