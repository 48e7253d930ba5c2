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

// Package locate finds the external files referenced by a DVI document,
// and converts PDF graphics into PostScript.
package locate

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"seehuhn.de/go/dvi"
	"seehuhn.de/go/dvi/internal/kpse"
)

// PDF2PS is the name of the program used to convert PDF files to
// PostScript.
var PDF2PS = "pdf2ps"

var errEmptyOutput = errors.New("converter produced no output")

// Locator resolves file names found in DVI specials.
type Locator struct {
	// Find is used as the last resort for locating files.  If this is nil,
	// kpse.Find is used.
	Find func(ctx context.Context, name string) (string, error)

	// Logger receives messages about failed conversions.  If this is nil,
	// no messages are written.
	Logger *slog.Logger

	// TempDir is the directory for converted files.  If this is empty,
	// the default directory for temporary files is used.
	TempDir string
}

func (l *Locator) logger() *slog.Logger {
	if l == nil || l.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.Logger
}

// Locate finds the file with the given name.  Relative names are tried in
// baseDir first, then as given, and finally using the TeX file search.  The
// second return value is false if the file could not be found.
func (l *Locator) Locate(ctx context.Context, name, baseDir string) (string, bool) {
	if name == "" {
		return "", false
	}
	if !filepath.IsAbs(name) && baseDir != "" {
		cand := filepath.Join(baseDir, name)
		if isFile(cand) {
			return cand, true
		}
	}
	if isFile(name) {
		abs, err := filepath.Abs(name)
		if err != nil {
			return name, true
		}
		return abs, true
	}

	find := kpse.Find
	if l != nil && l.Find != nil {
		find = l.Find
	}
	path, err := find(ctx, name)
	if err != nil || !isFile(path) {
		return "", false
	}
	return path, true
}

func isFile(name string) bool {
	fi, err := os.Stat(name)
	return err == nil && fi.Mode().IsRegular()
}

// ConvertPDF converts a PDF graphic to PostScript and returns the name of
// the PostScript file.  The result is recorded in the document, so that
// every file is converted at most once; the converted files are removed
// when the document is closed.  Failed conversions are recorded as well,
// and the second return value is false in this case.
func (l *Locator) ConvertPDF(ctx context.Context, doc *dvi.Document, src string) (string, bool) {
	if dst, seen := doc.ConvertedFile(src); seen {
		return dst, dst != ""
	}

	dst, err := l.convert(ctx, src)
	if err != nil {
		l.logger().Warn("PDF conversion failed", "file", src, "error", err)
		dst = ""
	}
	doc.SetConvertedFile(src, dst)
	return dst, dst != ""
}

func (l *Locator) convert(ctx context.Context, src string) (string, error) {
	var dir string
	if l != nil {
		dir = l.TempDir
	}
	fd, err := os.CreateTemp(dir, "dvi-*.ps")
	if err != nil {
		return "", err
	}
	dst := fd.Name()
	fd.Close()

	cmd := exec.CommandContext(ctx, PDF2PS, src, dst)
	out, err := cmd.CombinedOutput()
	if len(out) > 0 {
		l.logger().Debug("pdf2ps output", "file", src, "output", string(out))
	}
	if err == nil {
		var fi os.FileInfo
		fi, err = os.Stat(dst)
		if err == nil && fi.Size() == 0 {
			err = errEmptyOutput
		}
	}
	if err != nil {
		os.Remove(dst)
		return "", err
	}
	return dst, nil
}
