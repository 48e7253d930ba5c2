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

package locate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"seehuhn.de/go/dvi"
)

func TestLocate(t *testing.T) {
	base := t.TempDir()
	fig := filepath.Join(base, "fig.eps")
	if err := os.WriteFile(fig, []byte("%!PS\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var asked []string
	l := &Locator{
		Find: func(_ context.Context, name string) (string, error) {
			asked = append(asked, name)
			if name == "lib.pro" {
				return fig, nil
			}
			return "", errors.New("not found")
		},
	}
	ctx := context.Background()

	if path, ok := l.Locate(ctx, fig, ""); !ok || path != fig {
		t.Errorf("absolute name: %q, %t", path, ok)
	}
	if path, ok := l.Locate(ctx, "fig.eps", base); !ok || path != fig {
		t.Errorf("relative name: %q, %t", path, ok)
	}
	if path, ok := l.Locate(ctx, "lib.pro", base); !ok || path != fig {
		t.Errorf("search path: %q, %t", path, ok)
	}
	if _, ok := l.Locate(ctx, "none.eps", base); ok {
		t.Error("found a missing file")
	}
	if len(asked) != 2 {
		t.Errorf("file search used %d times, want 2", len(asked))
	}
}

func TestLocateBaseDirFirst(t *testing.T) {
	base := t.TempDir()
	work := t.TempDir()
	for _, fname := range []string{
		filepath.Join(base, "fig.eps"),
		filepath.Join(work, "fig.eps"),
		filepath.Join(work, "only.eps"),
	} {
		if err := os.WriteFile(fname, []byte("%!PS\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	t.Chdir(work)

	l := &Locator{
		Find: func(context.Context, string) (string, error) {
			return "", errors.New("not found")
		},
	}
	ctx := context.Background()

	want := filepath.Join(base, "fig.eps")
	if path, ok := l.Locate(ctx, "fig.eps", base); !ok || path != want {
		t.Errorf("got %q, %t, want %q", path, ok, want)
	}
	want = filepath.Join(work, "only.eps")
	if path, ok := l.Locate(ctx, "only.eps", base); !ok || path != want {
		t.Errorf("got %q, %t, want %q", path, ok, want)
	}
}

func sampleDoc(t *testing.T) *dvi.Document {
	t.Helper()
	w := dvi.NewWriter("")
	w.BeginPage()
	w.EndPage()
	data, err := w.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	doc, err := dvi.Read(data, "x.dvi")
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestConvertPDF(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no shell available")
	}
	dir := t.TempDir()
	counter := filepath.Join(dir, "calls")
	script := filepath.Join(dir, "pdf2ps")
	body := "#!/bin/sh\necho x >> " + counter + "\n" +
		"case \"$1\" in *good.pdf) echo '%!PS' > \"$2\";; *) exit 1;; esac\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	old := PDF2PS
	PDF2PS = script
	defer func() { PDF2PS = old }()

	doc := sampleDoc(t)
	l := &Locator{TempDir: dir}
	ctx := context.Background()

	ps, ok := l.ConvertPDF(ctx, doc, "/x/good.pdf")
	if !ok {
		t.Fatal("conversion failed")
	}
	if _, err := os.Stat(ps); err != nil {
		t.Fatal(err)
	}
	if again, ok := l.ConvertPDF(ctx, doc, "/x/good.pdf"); !ok || again != ps {
		t.Errorf("second conversion gave %q, %t", again, ok)
	}

	for range 2 {
		if _, ok := l.ConvertPDF(ctx, doc, "/x/bad.pdf"); ok {
			t.Error("bad conversion succeeded")
		}
	}

	calls, err := os.ReadFile(counter)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(calls) / 2; n != 2 {
		t.Errorf("converter called %d times, want 2", n)
	}

	if err := doc.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(ps); !os.IsNotExist(err) {
		t.Errorf("converted file not removed: %v", err)
	}
}
