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
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseColor parses a colour specification in the syntax used by the
// dvips colour specials:
//
//	gray <g>
//	rgb <r> <g> <b>
//	hsb <h> <s> <b>
//	cmyk <c> <m> <y> <k>
//	<name>
//
// All numbers are in the range 0 to 1.  Names are taken from the dvips
// colour table, and if not found there, from the SVG colour names.
// The second return value is false if the specification is invalid.
func ParseColor(spec string) (color.NRGBA, bool) {
	fields := strings.Fields(spec)
	if len(fields) == 0 {
		return color.NRGBA{}, false
	}

	model := strings.ToLower(fields[0])
	if len(fields) == 1 {
		if c, ok := dvipsColors[model]; ok {
			return cmyk(c[0], c[1], c[2], c[3]), true
		}
		if c, ok := colornames.Map[model]; ok {
			return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xFF}, true
		}
		return color.NRGBA{}, false
	}

	args, ok := parseNumbers(fields[1:])
	if !ok {
		return color.NRGBA{}, false
	}
	switch {
	case (model == "gray" || model == "grey") && len(args) == 1:
		return rgb(args[0], args[0], args[0]), true
	case model == "rgb" && len(args) == 3:
		return rgb(args[0], args[1], args[2]), true
	case model == "hsb" && len(args) == 3:
		return hsb(args[0], args[1], args[2]), true
	case model == "cmyk" && len(args) == 4:
		return cmyk(args[0], args[1], args[2], args[3]), true
	}
	return color.NRGBA{}, false
}

func parseNumbers(fields []string) ([]float64, bool) {
	res := make([]float64, len(fields))
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(x) {
			return nil, false
		}
		res[i] = min(max(x, 0), 1)
	}
	return res, true
}

func rgb(r, g, b float64) color.NRGBA {
	return color.NRGBA{R: to8(r), G: to8(g), B: to8(b), A: 0xFF}
}

func to8(x float64) uint8 {
	return uint8(math.Round(x * 255))
}

// cmyk converts a CMYK colour the same way the PostScript setcmykcolor
// operator does.
func cmyk(c, m, y, k float64) color.NRGBA {
	return rgb(1-min(1, c+k), 1-min(1, m+k), 1-min(1, y+k))
}

func hsb(h, s, v float64) color.NRGBA {
	if s == 0 {
		return rgb(v, v, v)
	}
	h = 6 * h
	if h >= 6 {
		h = 0
	}
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch int(i) {
	case 0:
		return rgb(v, t, p)
	case 1:
		return rgb(q, v, p)
	case 2:
		return rgb(p, v, t)
	case 3:
		return rgb(p, q, v)
	case 4:
		return rgb(t, p, v)
	default:
		return rgb(v, p, q)
	}
}

// dvipsColors is the table of named colours from the dvips file color.pro,
// given as CMYK values.  The keys are in lower case.
var dvipsColors = map[string][4]float64{
	"greenyellow":    {0.15, 0, 0.69, 0},
	"yellow":         {0, 0, 1, 0},
	"goldenrod":      {0, 0.10, 0.84, 0},
	"dandelion":      {0, 0.29, 0.84, 0},
	"apricot":        {0, 0.32, 0.52, 0},
	"peach":          {0, 0.50, 0.70, 0},
	"melon":          {0, 0.46, 0.50, 0},
	"yelloworange":   {0, 0.42, 1, 0},
	"orange":         {0, 0.61, 0.87, 0},
	"burntorange":    {0, 0.51, 1, 0},
	"bittersweet":    {0, 0.75, 1, 0.24},
	"redorange":      {0, 0.77, 0.87, 0},
	"mahogany":       {0, 0.85, 0.87, 0.35},
	"maroon":         {0, 0.87, 0.68, 0.32},
	"brickred":       {0, 0.89, 0.94, 0.28},
	"red":            {0, 1, 1, 0},
	"orangered":      {0, 1, 0.50, 0},
	"rubinered":      {0, 1, 0.13, 0},
	"wildstrawberry": {0, 0.96, 0.39, 0},
	"salmon":         {0, 0.53, 0.38, 0},
	"carnationpink":  {0, 0.63, 0, 0},
	"magenta":        {0, 1, 0, 0},
	"violetred":      {0, 0.81, 0, 0},
	"rhodamine":      {0, 0.82, 0, 0},
	"mulberry":       {0.34, 0.90, 0, 0.02},
	"redviolet":      {0.07, 0.90, 0, 0.34},
	"fuchsia":        {0.47, 0.91, 0, 0.08},
	"lavender":       {0, 0.48, 0, 0},
	"thistle":        {0.12, 0.59, 0, 0},
	"orchid":         {0.32, 0.64, 0, 0},
	"darkorchid":     {0.40, 0.80, 0.20, 0},
	"purple":         {0.45, 0.86, 0, 0},
	"plum":           {0.50, 1, 0, 0},
	"violet":         {0.79, 0.88, 0, 0},
	"royalpurple":    {0.75, 0.90, 0, 0},
	"blueviolet":     {0.86, 0.91, 0, 0.04},
	"periwinkle":     {0.57, 0.55, 0, 0},
	"cadetblue":      {0.62, 0.57, 0.23, 0},
	"cornflowerblue": {0.65, 0.13, 0, 0},
	"midnightblue":   {0.98, 0.13, 0, 0.43},
	"navyblue":       {0.94, 0.54, 0, 0},
	"royalblue":      {1, 0.50, 0, 0},
	"blue":           {1, 1, 0, 0},
	"cerulean":       {0.94, 0.11, 0, 0},
	"cyan":           {1, 0, 0, 0},
	"processblue":    {0.96, 0, 0, 0},
	"skyblue":        {0.62, 0, 0.12, 0},
	"turquoise":      {0.85, 0, 0.20, 0},
	"tealblue":       {0.86, 0, 0.34, 0.02},
	"aquamarine":     {0.82, 0, 0.30, 0},
	"bluegreen":      {0.85, 0, 0.33, 0},
	"emerald":        {1, 0, 0.50, 0},
	"junglegreen":    {0.99, 0, 0.52, 0},
	"seagreen":       {0.69, 0, 0.50, 0},
	"green":          {1, 0, 1, 0},
	"forestgreen":    {0.91, 0, 0.88, 0.12},
	"pinegreen":      {0.92, 0, 0.59, 0.25},
	"limegreen":      {0.50, 0, 1, 0},
	"yellowgreen":    {0.44, 0, 0.74, 0},
	"springgreen":    {0.26, 0, 0.76, 0},
	"olivegreen":     {0.64, 0, 0.95, 0.40},
	"rawsienna":      {0, 0.72, 1, 0.45},
	"sepia":          {0, 0.83, 1, 0.70},
	"brown":          {0, 0.81, 1, 0.60},
	"tan":            {0.14, 0.42, 0.56, 0},
	"gray":           {0, 0, 0, 0.50},
	"black":          {0, 0, 0, 1},
	"white":          {0, 0, 0, 0},
}
