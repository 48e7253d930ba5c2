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

package ghostscript

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fakeGS = `#!/bin/sh
if [ "$1" = "-h" ]; then
	echo "Available devices:"
	echo "   bmp16m png16m pnggray"
	exit 0
fi
out=""
for arg in "$@"; do
	case "$arg" in
	-sOutputFile=*) out="${arg#-sOutputFile=}" ;;
	esac
	last="$arg"
done
echo x >> "$DIR/calls"
cp "$last" "$DIR/last.ps"
cp "$DIR/image.png" "$out"
`

// setupFakeGS installs a fake Ghostscript which copies a fixed image to
// its output file.
func setupFakeGS(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	fd, err := os.Create(filepath.Join(dir, "image.png"))
	if err != nil {
		t.Fatal(err)
	}
	err = png.Encode(fd, img)
	fd.Close()
	if err != nil {
		t.Fatal(err)
	}

	script := strings.ReplaceAll(fakeGS, "$DIR", dir)
	prog := filepath.Join(dir, "gs")
	err = os.WriteFile(prog, []byte(script), 0o755)
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range PrologFiles {
		err = os.WriteFile(filepath.Join(dir, name), []byte("% "+name+"\n"), 0o644)
		if err != nil {
			t.Fatal(err)
		}
	}

	old := Program
	Program = prog
	t.Cleanup(func() { Program = old })
	return dir
}

func findIn(dir string) func(context.Context, string) (string, error) {
	return func(_ context.Context, name string) (string, error) {
		fname := filepath.Join(dir, name)
		_, err := os.Stat(fname)
		return fname, err
	}
}

func countCalls(t *testing.T, dir string) int {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "calls"))
	if os.IsNotExist(err) {
		return 0
	} else if err != nil {
		t.Fatal(err)
	}
	return strings.Count(string(data), "x")
}

func TestGraphics(t *testing.T) {
	dir := setupFakeGS(t)

	r := New(nil)
	r.Find = findIn(dir)
	defer r.Close()

	r.SetHeader(" @defspecial \n/foo 1 def @fedspecial \n")
	r.SetPostScript(2, " 0 0 moveto\n")
	r.SetBackground(2, color.NRGBA{R: 255, G: 255, A: 255})

	ctx := context.Background()

	img, err := r.Graphics(ctx, 1, 72, 4, 3)
	if err != nil || img != nil {
		t.Fatalf("page without PostScript: %v, %v", img, err)
	}

	img, err = r.Graphics(ctx, 2, 72, 4, 3)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Errorf("wrong image size %v", img.Bounds())
	}
	if _, _, _, a := img.At(1, 1).RGBA(); a == 0 {
		t.Error("marker pixel missing")
	}

	prog, err := os.ReadFile(filepath.Join(dir, "last.ps"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"% texc.pro\n% special.pro\n",
		"/foo 1 def",
		"1 1 0 setrgbcolor clippath fill",
		" 0 0 moveto\n",
		"showpage",
	} {
		if !strings.Contains(string(prog), want) {
			t.Errorf("program does not contain %q", want)
		}
	}

	// the second call uses the cache
	_, err = r.Graphics(ctx, 2, 72, 4, 3)
	if err != nil {
		t.Fatal(err)
	}
	if n := countCalls(t, dir); n != 1 {
		t.Errorf("ghostscript called %d times, want 1", n)
	}

	// changing the page invalidates the cache
	r.SetPostScript(2, " 1 1 moveto\n")
	_, err = r.Graphics(ctx, 2, 72, 4, 3)
	if err != nil {
		t.Fatal(err)
	}
	if n := countCalls(t, dir); n != 2 {
		t.Errorf("ghostscript called %d times, want 2", n)
	}

	r.Clear()
	if r.HasGraphics(2) || r.Header() != "" {
		t.Error("Clear did not remove the page data")
	}
}

func TestBackground(t *testing.T) {
	r := New(nil)
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	if got := r.Background(5); got != white {
		t.Errorf("default background %v", got)
	}
	r.SetBackground(5, color.RGBA{R: 0, G: 0, B: 128, A: 255})
	if got := r.Background(5); got != (color.NRGBA{B: 128, A: 255}) {
		t.Errorf("wrong background %v", got)
	}
	if got := r.Background(6); got != white {
		t.Errorf("background leaked to page 6: %v", got)
	}
}

func TestMissingProlog(t *testing.T) {
	dir := setupFakeGS(t)
	for _, name := range PrologFiles {
		os.Remove(filepath.Join(dir, name))
	}

	r := New(nil)
	r.Find = findIn(dir)
	r.SetPostScript(1, "x")
	_, err := r.Graphics(context.Background(), 1, 72, 4, 3)
	if err == nil {
		t.Fatal("missing error")
	}
}
