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

package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"path/filepath"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"seehuhn.de/go/geom/matrix"
	geompath "seehuhn.de/go/geom/path"

	"seehuhn.de/go/dvi/fontpool"
	"seehuhn.de/go/dvi/interp"
	"seehuhn.de/go/dvi/special"
)

// Hyperlink is a clickable area on a page.
type Hyperlink struct {
	URL string
	Box image.Rectangle // in device pixels
}

// Page is a rendered page.
type Page struct {
	Number int // page number, starting from 1
	Image  *image.RGBA
	Links  []Hyperlink
}

var (
	foreground  = color.NRGBA{A: 255}
	placeholder = color.NRGBA{R: 211, G: 211, B: 211, A: 255}
	missingChar = color.NRGBA{R: 160, G: 160, B: 160, A: 255}
)

// DrawPage renders a page, numbered from 1, at the resolution of the
// session.
//
// If an error occurs while the page is interpreted, the part of the page
// drawn so far is returned together with the error.
func (s *Session) DrawPage(ctx context.Context, page int) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return nil, ErrNoDocument
	}
	if page < 1 || page > s.doc.TotalPages() {
		return nil, fmt.Errorf("page %d out of range 1-%d", page, s.doc.TotalPages())
	}

	res := s.opt.Resolution
	size, _ := s.sizeOfPage(page)
	width := max(size.Width.Pixels(res), 1)
	height := max(size.Height.Pixels(res), 1)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	bg := s.opt.PostScript.Background(page - 1)
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	if s.opt.ShowPostScript {
		gfx, err := s.opt.PostScript.Graphics(ctx, page-1, res, width, height)
		if err != nil {
			s.opt.Logger.Warn("cannot render PostScript", "page", page, "error", err)
		} else if gfx != nil {
			xdraw.BiLinear.Scale(img, img.Bounds(), gfx, gfx.Bounds(), draw.Over, nil)
		}
	}

	p := &painter{
		ctx:     ctx,
		s:       s,
		img:     img,
		raster:  vector.NewRasterizer(1, 1),
		baseDir: filepath.Dir(s.doc.FileName),
	}
	ip := &interp.Interpreter{
		Doc:        s.doc,
		Fonts:      s.fonts,
		Handler:    p,
		Mode:       interp.Render,
		Resolution: res,
	}
	err := ip.Run(page - 1)
	p.endLink()

	return &Page{Number: page, Image: img, Links: p.links}, err
}

// painter draws the contents of a page.
type painter struct {
	ctx     context.Context
	s       *Session
	img     *image.RGBA
	raster  *vector.Rasterizer
	baseDir string

	links   []Hyperlink
	href    string
	linkBox image.Rectangle
}

// glyphFont is implemented by fonts which can provide glyph shapes.
type glyphFont interface {
	Outline(code uint32) (fontpool.Outline, bool)
	Metrics(code uint32) (fontpool.CharMetrics, bool)
}

// Char implements the interp.Handler interface.
func (p *painter) Char(st *interp.State, code uint32, advance int64) error {
	f, ok := st.Font.(glyphFont)
	if !ok {
		return nil
	}

	// font size in device pixels
	size := float64(st.Font.ScaledSize()) * st.PixelsPerDVIUnit / st.ShrinkFactor
	x := float64(st.H) / 65536 / st.ShrinkFactor
	y := float64(st.PixelV)

	var box image.Rectangle
	if outline, ok := f.Outline(code); ok {
		M := matrix.Matrix{size, 0, 0, -size, 0, 0}.Mul(matrix.Matrix{1, 0, 0, 1, x, y})
		box = p.fillOutline(outline, M)
	} else if m, ok := f.Metrics(code); ok {
		w := fixToPixels(m.Width, size)
		ht := fixToPixels(m.Height, size)
		dp := fixToPixels(m.Depth, size)
		box = image.Rect(int(x), int(y-ht), int(math.Ceil(x+w)), int(math.Ceil(y+dp)))
		draw.Draw(p.img, box, image.NewUniform(missingChar), image.Point{}, draw.Over)
	}
	p.extendLink(box)
	return nil
}

func fixToPixels(x int32, size float64) float64 {
	return float64(x) / (1 << 20) * size
}

// fillOutline fills a glyph outline, transformed by M, with the
// foreground colour.  The bounding box of the affected pixels is returned.
func (p *painter) fillOutline(outline fontpool.Outline, M matrix.Matrix) image.Rectangle {
	apply := func(x, y float64) (float64, float64) {
		return M[0]*x + M[2]*y + M[4], M[1]*x + M[3]*y + M[5]
	}

	xMin, yMin := math.Inf(1), math.Inf(1)
	xMax, yMax := math.Inf(-1), math.Inf(-1)
	for _, seg := range outline {
		for _, pt := range seg.Points {
			x, y := apply(pt.X, pt.Y)
			xMin, xMax = min(xMin, x), max(xMax, x)
			yMin, yMax = min(yMin, y), max(yMax, y)
		}
	}
	if xMin > xMax {
		return image.Rectangle{}
	}
	box := image.Rect(int(math.Floor(xMin)), int(math.Floor(yMin)),
		int(math.Ceil(xMax))+1, int(math.Ceil(yMax))+1)
	clipped := box.Intersect(p.img.Bounds())
	if clipped.Empty() {
		return box
	}

	// The rasterizer covers only the glyph's bounding box.
	dx, dy := float64(box.Min.X), float64(box.Min.Y)
	r := p.raster
	r.Reset(box.Dx(), box.Dy())
	for _, seg := range outline {
		pts := make([]float32, 0, 2*len(seg.Points))
		for _, pt := range seg.Points {
			x, y := apply(pt.X, pt.Y)
			pts = append(pts, float32(x-dx), float32(y-dy))
		}
		switch seg.Cmd {
		case geompath.CmdMoveTo:
			r.MoveTo(pts[0], pts[1])
		case geompath.CmdLineTo:
			r.LineTo(pts[0], pts[1])
		case geompath.CmdQuadTo:
			r.QuadTo(pts[0], pts[1], pts[2], pts[3])
		case geompath.CmdCubeTo:
			r.CubeTo(pts[0], pts[1], pts[2], pts[3], pts[4], pts[5])
		case geompath.CmdClose:
			r.ClosePath()
		}
	}
	r.Draw(p.img, clipped, image.NewUniform(foreground), clipped.Min.Sub(box.Min))
	return box
}

// Rule implements the interp.Handler interface.
//
// Rules with a negative or zero side are not drawn, for both set and put
// rules.  Positive sides are at least one pixel long, so that thin rules
// remain visible.
func (p *painter) Rule(st *interp.State, height, width int64, set bool) error {
	if height <= 0 || width <= 0 {
		return nil
	}
	h := max(int(float64(height)/st.ShrinkFactor), 1)
	w := max(int(float64(width)/65536/st.ShrinkFactor), 1)
	x := st.PixelH()
	y := st.PixelV + 1
	box := image.Rect(x, y-h, x+w, y)
	draw.Draw(p.img, box, image.NewUniform(foreground), image.Point{}, draw.Over)
	p.extendLink(box)
	return nil
}

// Special implements the interp.Handler interface.
func (p *painter) Special(st *interp.State, sp interp.Special) error {
	kind, arg := special.Classify(sp.Payload)
	switch kind {
	case special.HTMLHref:
		if tag, ok := special.ParseHTML(arg); ok {
			p.endLink()
			p.href = tag.Href
		}
	case special.HTMLAnchorEnd:
		p.endLink()
	case special.PSFile:
		p.drawGraphic(st, special.ParseInclude(arg))
	}
	return nil
}

func (p *painter) extendLink(box image.Rectangle) {
	if p.href == "" || box.Empty() {
		return
	}
	p.linkBox = p.linkBox.Union(box)
}

func (p *painter) endLink() {
	if p.href != "" && !p.linkBox.Empty() {
		p.links = append(p.links, Hyperlink{URL: p.href, Box: p.linkBox})
	}
	p.href = ""
	p.linkBox = image.Rectangle{}
}

// drawGraphic draws an included graphic.  Raster images are drawn
// directly.  PostScript graphics are drawn by the PostScript rasterizer;
// if this is disabled, a placeholder box is drawn instead.
func (p *painter) drawGraphic(st *interp.State, inc *special.Include) {
	w, h := inc.Size() // in big points
	res := st.Resolution
	x := st.PixelH()
	y := st.PixelV
	box := image.Rect(x, y-int(h/72*res), x+int(w/72*res), y)
	if box.Empty() {
		return
	}

	if inc.IsRaster() {
		fname, ok := p.s.opt.Locator.Locate(p.ctx, inc.File, p.baseDir)
		if ok {
			src, err := decodeImage(fname)
			if err == nil {
				xdraw.BiLinear.Scale(p.img, box, src, src.Bounds(), draw.Over, nil)
				return
			}
			p.s.opt.Logger.Warn("cannot decode image", "file", fname, "error", err)
		}
	} else if p.s.opt.ShowPostScript {
		return
	}

	draw.Draw(p.img, box, image.NewUniform(placeholder), image.Point{}, draw.Over)
	drawFrame(p.img, box, foreground)
}

// drawFrame draws a one pixel wide frame just inside box.
func drawFrame(img draw.Image, box image.Rectangle, c color.Color) {
	u := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(box.Min.X, box.Min.Y, box.Max.X, box.Min.Y+1),
		image.Rect(box.Min.X, box.Max.Y-1, box.Max.X, box.Max.Y),
		image.Rect(box.Min.X, box.Min.Y, box.Min.X+1, box.Max.Y),
		image.Rect(box.Max.X-1, box.Min.Y, box.Max.X, box.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(img, e, u, image.Point{}, draw.Src)
	}
}
