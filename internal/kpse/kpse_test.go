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

package kpse

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// fakeKpsewhich installs a shell script which prints the given answer for
// the file "known.sty" and fails for everything else.
func fakeKpsewhich(t *testing.T, answer string) {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no shell available")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "kpsewhich")
	body := "#!/bin/sh\nif [ \"$1\" = known.sty ]; then echo " + answer + "; exit 0; fi\nexit 1\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	old := Program
	Program = script
	t.Cleanup(func() { Program = old })
}

func TestFind(t *testing.T) {
	fakeKpsewhich(t, "/texmf/tex/known.sty")

	f := &Finder{}
	ctx := context.Background()
	path, err := f.Find(ctx, "known.sty")
	if err != nil {
		t.Fatal(err)
	}
	if path != "/texmf/tex/known.sty" {
		t.Errorf("got %q", path)
	}

	_, err = f.Find(ctx, "unknown.sty")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got error %v, want %v", err, ErrNotFound)
	}

	// cached results do not need the program
	Program = filepath.Join(t.TempDir(), "does-not-exist")
	path, err = f.Find(ctx, "known.sty")
	if err != nil || path != "/texmf/tex/known.sty" {
		t.Errorf("cached lookup: %q, %v", path, err)
	}
	if _, err := f.Find(ctx, "other.sty"); !errors.Is(err, ErrNoKpsewhich) {
		t.Errorf("got error %v, want %v", err, ErrNoKpsewhich)
	}
}
