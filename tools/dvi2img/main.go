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

package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"os"

	"seehuhn.de/go/dvi/fontpool"
	"seehuhn.de/go/dvi/render"
	"seehuhn.de/go/dvi/tools/internal/cli"
)

var (
	dpiFlag   = flag.Float64("dpi", 100, "resolution in dots per inch")
	pageFlag  = flag.Int("page", 1, "page number to render (1-based)")
	psFlag    = flag.Bool("ps", true, "render PostScript graphics with Ghostscript")
	fontsFlag = flag.String("fonts", "", "extra font `directory`, searched before kpsewhich")

	build    = cli.ReadBuild("dvi2img")
	profiler = cli.ProfileFlags(flag.CommandLine)
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "dvi2img - render a page of a DVI file as PNG\n")
		fmt.Fprintf(os.Stderr, "%s\n\n", build)
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  dvi2img [options] <input.dvi> <output.png>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	cli.VersionFlag(flag.CommandLine, build)
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0), flag.Arg(1)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(inputFile, outputFile string) error {
	stop, err := profiler.Start()
	if err != nil {
		return err
	}
	defer func() {
		if err := stop(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}()

	ctx := context.Background()

	fontOpt := &fontpool.Options{Outlines: true}
	if *fontsFlag != "" {
		fontOpt.ExtraSearchPath = []string{*fontsFlag}
	}
	s := render.NewSession(&render.Options{
		Resolution:     *dpiFlag,
		Fonts:          fontpool.New(fontOpt),
		ShowPostScript: *psFlag,
	})
	defer s.Close()

	err = s.Load(ctx, inputFile)
	if err != nil {
		return err
	}
	for _, w := range s.Warnings() {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}

	page, err := s.DrawPage(ctx, *pageFlag)
	if page == nil {
		return err
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}

	out, err := os.Create(outputFile)
	if err != nil {
		return err
	}
	err = png.Encode(out, page.Image)
	if err2 := out.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return err
	}

	for _, link := range page.Links {
		fmt.Printf("link %v -> %s\n", link.Box, link.URL)
	}
	fmt.Printf("rendered page %d of %s to %s\n", *pageFlag, inputFile, outputFile)
	return nil
}
