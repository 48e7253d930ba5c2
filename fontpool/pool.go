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

// Package fontpool loads the fonts used by DVI files.
//
// Each font is identified by its name and the enlargement factor at which
// it is used.  Font metrics come from TFM files, glyph outlines (which are
// only needed for drawing pages) from Type 1 or OpenType font files.  All
// files are located in the directories from Options.ExtraSearchPath first,
// and then using kpsewhich.
package fontpool

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"

	"seehuhn.de/go/dvi"
	"seehuhn.de/go/dvi/internal/kpse"
)

// Options control how fonts are loaded.
// The zero value gives useful defaults.
type Options struct {
	// ExtraSearchPath lists directories which are searched before
	// kpsewhich is asked.
	ExtraSearchPath []string

	// Outlines enables loading of glyph outlines.  This is only needed
	// for drawing pages.
	Outlines bool

	// Logger receives messages about missing or broken font files.
	Logger *slog.Logger

	// Find locates a file by name.  If this is nil, kpse.Find is used.
	Find func(ctx context.Context, name string) (string, error)
}

// outlineExtensions lists the outline font formats, in order of preference.
var outlineExtensions = []string{".pfb", ".pfa", ".otf", ".ttf"}

// Fonts are considered equal if their enlargement factors agree to three
// decimal places.
type key struct {
	name        string
	enlargement int
}

func makeKey(name string, enlargement float64) key {
	return key{name: name, enlargement: int(math.Round(enlargement * 1000))}
}

// Pool is a cache of fonts.  It is safe for concurrent use.
type Pool struct {
	opt Options

	mu    sync.Mutex
	fonts map[key]*face
}

// New creates an empty font pool.  If opt is nil, default options are used.
func New(opt *Options) *Pool {
	p := &Pool{
		fonts: make(map[key]*face),
	}
	if opt != nil {
		p.opt = *opt
	}
	if p.opt.Logger == nil {
		p.opt.Logger = slog.New(slog.DiscardHandler)
	}
	if p.opt.Find == nil {
		p.opt.Find = kpse.Find
	}
	return p
}

// Define returns the font for a font definition from a DVI file.
// Fonts are loaded on first use and then shared between all definitions
// with the same name and enlargement.
//
// A font whose TFM file cannot be loaded is still returned.  Such a font
// has zero width for every character, and Err reports the problem.
func (p *Pool) Define(ctx context.Context, def dvi.FontDef) *Font {
	k := makeKey(def.Name, def.Enlargement)

	p.mu.Lock()
	defer p.mu.Unlock()

	fc, ok := p.fonts[k]
	if !ok {
		fc = p.load(ctx, def)
		p.fonts[k] = fc
	} else if p.opt.Outlines && !fc.outlinesTried {
		p.loadOutlines(ctx, fc)
	}
	return &Font{Def: def, face: fc}
}

// Font returns a previously defined font.
func (p *Pool) Font(name string, enlargement float64) (*Font, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fc, ok := p.fonts[makeKey(name, enlargement)]
	if !ok {
		return nil, false
	}
	return &Font{Def: fc.def, face: fc}, true
}

// Len returns the number of fonts in the pool.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.fonts)
}

// Clear removes all fonts from the pool.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.fonts)
}

// find locates a font file, first in the extra search path and then using
// kpsewhich.
func (p *Pool) find(ctx context.Context, name string) (string, error) {
	for _, dir := range p.opt.ExtraSearchPath {
		fname := filepath.Join(dir, name)
		if fi, err := os.Stat(fname); err == nil && fi.Mode().IsRegular() {
			return fname, nil
		}
	}
	return p.opt.Find(ctx, name)
}

func (p *Pool) load(ctx context.Context, def dvi.FontDef) *face {
	fc := &face{def: def}

	fname, err := p.find(ctx, def.Name+".tfm")
	if err != nil {
		fc.err = fmt.Errorf("font %q: %w", def.Name, err)
		p.opt.Logger.Warn("font metrics not found", "font", def.Name, "error", err)
		return fc
	}
	fc.metricsFile = fname

	fd, err := os.Open(fname)
	if err != nil {
		fc.err = fmt.Errorf("font %q: %w", def.Name, err)
		return fc
	}
	tfm, err := ReadTFM(fd)
	fd.Close()
	if err != nil {
		fc.err = fmt.Errorf("font %q: %s: %w", def.Name, fname, err)
		p.opt.Logger.Warn("cannot read font metrics", "file", fname, "error", err)
		return fc
	}
	fc.tfm = tfm

	if def.Checksum != 0 && tfm.Checksum != 0 && def.Checksum != tfm.Checksum {
		p.opt.Logger.Warn("font checksum mismatch",
			"font", def.Name,
			"dvi", fmt.Sprintf("%08X", def.Checksum),
			"tfm", fmt.Sprintf("%08X", tfm.Checksum))
	}

	if p.opt.Outlines {
		p.loadOutlines(ctx, fc)
	}
	return fc
}

func (p *Pool) loadOutlines(ctx context.Context, fc *face) {
	fc.outlinesTried = true
	for _, ext := range outlineExtensions {
		fname, err := p.find(ctx, fc.def.Name+ext)
		if err != nil {
			continue
		}
		src, err := loadOutlines(fname)
		if err != nil {
			p.opt.Logger.Warn("cannot load glyph outlines", "file", fname, "error", err)
			continue
		}
		fc.outlines = src
		fc.outlineFile = fname
		return
	}
	p.opt.Logger.Debug("no glyph outlines", "font", fc.def.Name)
}

// face is the shared part of all fonts with the same name and enlargement.
type face struct {
	def dvi.FontDef

	metricsFile string
	tfm         *TFM
	err         error

	outlinesTried bool
	outlineFile   string
	outlines      glyphSource
}

// Font is a font, as used by one DVI file.
// Font implements the interp.Font interface.
type Font struct {
	Def dvi.FontDef

	face *face
}

// ScaledSize returns the size at which the font is used, in DVI units.
func (f *Font) ScaledSize() uint32 {
	return f.Def.Scale
}

// Advance returns the width of a character, as a fix_word in units of the
// design size.  If the font metrics could not be loaded, every character
// exists and has width zero.
func (f *Font) Advance(code uint32) (int32, bool) {
	if f.face.tfm == nil {
		return 0, true
	}
	m, ok := f.face.tfm.Char(code)
	return m.Width, ok
}

// Metrics returns the dimensions of a character.
func (f *Font) Metrics(code uint32) (CharMetrics, bool) {
	if f.face.tfm == nil {
		return CharMetrics{}, false
	}
	return f.face.tfm.Char(code)
}

// Outline returns the outline of a character, if glyph outlines have been
// loaded for this font.
func (f *Font) Outline(code uint32) (Outline, bool) {
	if f.face.outlines == nil {
		return nil, false
	}
	return f.face.outlines.Outline(code)
}

// Err returns the problem encountered while loading the font metrics,
// or nil if the metrics were loaded successfully.
func (f *Font) Err() error {
	return f.face.err
}

// MetricsFile returns the path of the TFM file.
func (f *Font) MetricsFile() string {
	return f.face.metricsFile
}

// OutlineFile returns the path of the outline font file, or the empty
// string if no outlines are loaded.
func (f *Font) OutlineFile() string {
	return f.face.outlineFile
}
