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

// Package ghostscript renders the PostScript parts of DVI pages using the
// Ghostscript command-line tool.
//
// The PostScript code for each page is collected while a DVI file is
// scanned.  When a page is displayed, the code is wrapped into a small
// PostScript program, together with the dvips prolog files, and rendered
// into a PNG image.  Images are cached until the next call to Clear.
package ghostscript

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"seehuhn.de/go/dvi/internal/kpse"
)

// Program is the name of the Ghostscript executable.
var Program = "gs"

// PrologFiles are the dvips header files which define the procedures used
// by the PostScript code of DVI specials.
var PrologFiles = []string{"texc.pro", "special.pro"}

// knownDevices lists the Ghostscript output devices we can use, in order
// of preference.
var knownDevices = []string{"png16m", "png256", "pnggray"}

var (
	// ErrNoGhostscript is returned if the ghostscript command-line tool is
	// not available.
	ErrNoGhostscript = errors.New("cannot run ghostscript")

	// ErrNoProlog is returned if the dvips prolog files cannot be found.
	ErrNoProlog = errors.New("dvips prolog files not found")
)

var deviceRe = regexp.MustCompile(`\b(png16m|png256|pnggray)\b`)

type cacheKey struct {
	page          int
	resolution    float64
	width, height int
}

type pageInfo struct {
	postscript string
	background color.NRGBA
	hasBG      bool
}

// Rasterizer renders the PostScript code of DVI pages.
// A Rasterizer is safe for concurrent use.
type Rasterizer struct {
	// IncludePath is the directory where Ghostscript may read files, usually
	// the directory of the DVI file.
	IncludePath string

	// Logger receives the output of Ghostscript.
	Logger *slog.Logger

	// Find locates the prolog files.  If this is nil, kpse.Find is used.
	Find func(ctx context.Context, name string) (string, error)

	mu     sync.Mutex
	header string
	pages  map[int]*pageInfo
	cache  map[cacheKey]image.Image

	probeOnce sync.Once
	device    string

	prologOnce sync.Once
	prolog     string
	prologErr  error

	profileFile string
	profileErr  error
}

// New returns a new Rasterizer.
func New(logger *slog.Logger) *Rasterizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Rasterizer{
		Logger: logger,
		pages:  make(map[int]*pageInfo),
		cache:  make(map[cacheKey]image.Image),
	}
}

// SetHeader sets the PostScript code which is included before the code of
// every page.
func (r *Rasterizer) SetHeader(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.header = code
	clear(r.cache)
}

// Header returns the PostScript code included before every page.
func (r *Rasterizer) Header() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header
}

// SetPostScript sets the PostScript code for a page.
// Pages are numbered starting from 0.
func (r *Rasterizer) SetPostScript(page int, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pageInfo(page).postscript = code
	r.dropPage(page)
}

// PostScript returns the PostScript code for a page.
func (r *Rasterizer) PostScript(page int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.pages[page]; ok {
		return info.postscript
	}
	return ""
}

// SetBackground sets the background colour of a page.
func (r *Rasterizer) SetBackground(page int, c color.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info := r.pageInfo(page)
	info.background = color.NRGBAModel.Convert(c).(color.NRGBA)
	info.hasBG = true
	r.dropPage(page)
}

// Background returns the background colour of a page.
// The default is white.
func (r *Rasterizer) Background(page int) color.NRGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.pages[page]; ok && info.hasBG {
		return info.background
	}
	return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
}

// HasGraphics reports whether the page has PostScript code.
func (r *Rasterizer) HasGraphics(page int) bool {
	return r.PostScript(page) != ""
}

// Clear removes all pages, the header and all cached images.
func (r *Rasterizer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.header = ""
	clear(r.pages)
	clear(r.cache)
}

func (r *Rasterizer) pageInfo(page int) *pageInfo {
	info, ok := r.pages[page]
	if !ok {
		info = &pageInfo{}
		r.pages[page] = info
	}
	return info
}

func (r *Rasterizer) dropPage(page int) {
	for k := range r.cache {
		if k.page == page {
			delete(r.cache, k)
		}
	}
}

// Graphics renders the PostScript code of a page into an image of the
// given size in pixels.  If the page has no PostScript code, nil is
// returned.
//
// Areas not covered by the PostScript graphics are white, or use the
// background colour of the page.
func (r *Rasterizer) Graphics(ctx context.Context, page int, resolution float64, width, height int) (image.Image, error) {
	key := cacheKey{page: page, resolution: resolution, width: width, height: height}

	r.mu.Lock()
	info, ok := r.pages[page]
	if !ok || info.postscript == "" {
		r.mu.Unlock()
		return nil, nil
	}
	if img, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return img, nil
	}
	header := r.header
	code := info.postscript
	var bg *color.NRGBA
	if info.hasBG && info.background != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		c := info.background
		bg = &c
	}
	r.mu.Unlock()

	device := r.probe()
	if device == "" {
		return nil, ErrNoGhostscript
	}
	prolog, err := r.loadProlog(ctx)
	if err != nil {
		return nil, err
	}

	prog := pageProgram(prolog, header, code, bg, resolution, width, height)
	img, err := r.run(ctx, device, prog, resolution, width, height)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", page, err)
	}

	r.mu.Lock()
	r.cache[key] = img
	r.mu.Unlock()
	return img, nil
}

// pageProgram returns a complete PostScript program for one page.
func pageProgram(prolog, header, code string, bg *color.NRGBA, resolution float64, width, height int) string {
	w := float64(width) / resolution  // inches
	h := float64(height) / resolution // inches

	b := &strings.Builder{}
	b.WriteString("%!PS-Adobe-2.0\n")
	b.WriteString("%%Creator: seehuhn.de/go/dvi\n")
	b.WriteString("%%Pages: 1\n")
	b.WriteString("%%PageOrder: Ascend\n")
	fmt.Fprintf(b, "%%%%BoundingBox: 0 0 %d %d\n", int(72*w), int(72*h))
	b.WriteString("%%EndComments\n")
	b.WriteString("%!\n")
	b.WriteString(prolog)
	// Paper size in units of 1/(72*65781) inch, followed by
	// magnification and resolution.
	fmt.Fprintf(b, "TeXDict begin %d %d 1000 300 300 (page.dvi) @start end\n",
		int64(72*65781*w), int64(72*65781*h))
	b.WriteString("TeXDict begin\n")
	b.WriteString("1 0 bop 0 0 a \n")
	b.WriteString(header)
	if bg != nil {
		fmt.Fprintf(b, "gsave %.4g %.4g %.4g setrgbcolor clippath fill grestore\n",
			float64(bg.R)/255, float64(bg.G)/255, float64(bg.B)/255)
	}
	b.WriteString(code)
	b.WriteString("end\n")
	b.WriteString("showpage \n")
	return b.String()
}

func (r *Rasterizer) run(ctx context.Context, device, prog string, resolution float64, width, height int) (image.Image, error) {
	dir, err := os.MkdirTemp("", "dvi-gs-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	psName := filepath.Join(dir, "page.ps")
	pngName := filepath.Join(dir, "page.png")
	err = os.WriteFile(psName, []byte(prog), 0o600)
	if err != nil {
		return nil, err
	}

	args := []string{
		"-q", "-dSAFER", "-dNOPAUSE", "-dBATCH",
		"-sDEVICE=" + device,
		"-sOutputFile=" + pngName,
		fmt.Sprintf("-g%dx%d", width, height),
		fmt.Sprintf("-r%g", resolution),
		"-dTextAlphaBits=4", "-dGraphicsAlphaBits=4",
	}
	if profile := r.outputProfile(); profile != "" {
		args = append(args, "-sOutputICCProfile="+profile)
	}
	if r.IncludePath != "" {
		args = append(args, "--permit-file-read="+r.IncludePath+string(filepath.Separator))
	}
	args = append(args, psName)

	cmd := exec.CommandContext(ctx, Program, args...)
	cmd.Dir = r.IncludePath
	out, err := cmd.CombinedOutput()
	if len(out) > 0 {
		r.Logger.Debug("ghostscript output", "output", string(bytes.TrimSpace(out)))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", Program, err)
	}

	fd, err := os.Open(pngName)
	if err != nil {
		return nil, fmt.Errorf("%s produced no image: %w", Program, err)
	}
	defer fd.Close()
	return png.Decode(fd)
}

// probe finds an output device supported by the Ghostscript installation.
// The empty string is returned if Ghostscript is not available.
func (r *Rasterizer) probe() string {
	r.probeOnce.Do(func() {
		out, err := exec.Command(Program, "-h").Output()
		if err != nil {
			r.Logger.Warn("ghostscript not available", "program", Program, "error", err)
			return
		}
		found := make(map[string]bool)
		for _, m := range deviceRe.FindAllSubmatch(out, -1) {
			found[string(m[1])] = true
		}
		for _, dev := range knownDevices {
			if found[dev] {
				r.device = dev
				return
			}
		}
		r.Logger.Warn("ghostscript has no usable output device", "program", Program)
	})
	return r.device
}

// loadProlog reads the dvips prolog files.
func (r *Rasterizer) loadProlog(ctx context.Context) (string, error) {
	r.prologOnce.Do(func() {
		find := r.Find
		if find == nil {
			find = kpse.Find
		}
		b := &strings.Builder{}
		for _, name := range PrologFiles {
			fname, err := find(ctx, name)
			if err != nil {
				r.prologErr = fmt.Errorf("%w: %s: %w", ErrNoProlog, name, err)
				return
			}
			data, err := os.ReadFile(fname)
			if err != nil {
				r.prologErr = err
				return
			}
			b.Write(data)
			if len(data) > 0 && data[len(data)-1] != '\n' {
				b.WriteByte('\n')
			}
		}
		r.prolog = b.String()
	})
	return r.prolog, r.prologErr
}

// outputProfile writes the sRGB profile to a temporary file, so that
// Ghostscript produces sRGB output.  The empty string is returned if this
// fails.
func (r *Rasterizer) outputProfile() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.profileFile != "" || r.profileErr != nil {
		return r.profileFile
	}

	fd, err := os.CreateTemp("", "dvi-srgb-*.icc")
	if err != nil {
		r.profileErr = err
		r.Logger.Warn("cannot write sRGB profile", "error", err)
		return ""
	}
	_, err = fd.Write(srgbProfile())
	err2 := fd.Close()
	if err == nil {
		err = err2
	}
	if err != nil {
		os.Remove(fd.Name())
		r.profileErr = err
		r.Logger.Warn("cannot write sRGB profile", "error", err)
		return ""
	}
	r.profileFile = fd.Name()
	return r.profileFile
}

// Close removes the temporary files used by the rasterizer.
func (r *Rasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.profileFile != "" {
		err := os.Remove(r.profileFile)
		r.profileFile = ""
		return err
	}
	return nil
}
