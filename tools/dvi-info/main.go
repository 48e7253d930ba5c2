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
	"io"
	"os"
	"strings"

	"seehuhn.de/go/dvi"
	"seehuhn.de/go/dvi/anchor"
	"seehuhn.de/go/dvi/metadata"
	"seehuhn.de/go/dvi/render"
	"seehuhn.de/go/dvi/tools/internal/cli"
)

var (
	xmpFlag    = flag.Bool("xmp", false, "write an XMP metadata packet instead of the summary")
	sampleFlag = flag.String("sample", "", "write a small sample DVI file to `file` and exit")
	fontsFlag  = flag.Bool("fonts", true, "list fonts")
	srcFlag    = flag.Bool("src", false, "list source specials")

	build = cli.ReadBuild("dvi-info")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "dvi-info - show information about DVI files\n")
		fmt.Fprintf(os.Stderr, "%s\n\n", build)
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  dvi-info [options] <file.dvi>...\n")
		fmt.Fprintf(os.Stderr, "  dvi-info -sample <file.dvi>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	cli.VersionFlag(flag.CommandLine, build)
	flag.Parse()

	if *sampleFlag == "" && flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if *sampleFlag != "" {
		return writeSample(*sampleFlag)
	}

	ctx := context.Background()
	for _, fname := range flag.Args() {
		s := render.NewSession(nil)
		err := s.Load(ctx, fname)
		if err != nil {
			return err
		}
		if *xmpFlag {
			err = writeXMP(os.Stdout, s.Document())
		} else {
			err = show(os.Stdout, s)
		}
		s.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func writeXMP(w io.Writer, doc *dvi.Document) error {
	stream, err := metadata.New(doc, &metadata.Options{CreatorTool: "dvi-info"})
	if err != nil {
		return err
	}
	return stream.Write(w, true)
}

func show(w io.Writer, s *render.Session) error {
	doc := s.Document()

	fmt.Fprintf(w, "file: %s\n", doc.FileName)
	fmt.Fprintf(w, "generator: %s\n", strings.TrimSpace(doc.Generator))
	fmt.Fprintf(w, "units: %d/%d, magnification %d\n",
		doc.Numerator, doc.Denominator, doc.Magnification)
	fmt.Fprintf(w, "size: %d bytes\n", doc.Size())
	if doc.SuggestedPageSize != nil {
		fmt.Fprintf(w, "paper size: %s\n", doc.SuggestedPageSize)
	}
	fmt.Fprintf(w, "external graphics: %d PostScript, %d other\n",
		doc.NumberOfExternalPSFiles, doc.NumberOfExternalNonPSFiles)

	fmt.Fprintf(w, "\n%d pages:\n", doc.TotalPages())
	for page := range doc.TotalPages() {
		counts, err := doc.Counts(page)
		if err != nil {
			return err
		}
		start, end, _ := doc.PageRange(page)
		fmt.Fprintf(w, "  %4d  [%s]  bytes %d-%d\n", page+1, formatCounts(counts), start, end)
	}

	if *fontsFlag && len(doc.Fonts) > 0 {
		fmt.Fprintf(w, "\nfonts:\n")
		for _, def := range doc.Fonts {
			at := float64(def.Scale) / 65536
			fmt.Fprintf(w, "  %3d  %-12s at %gpt (%.0f%%)\n",
				def.Num, def.Name, at, 100*def.Enlargement)
		}
	}

	if names := s.AnchorNames(); len(names) > 0 {
		fmt.Fprintf(w, "\nanchors:\n")
		for _, name := range names {
			a, _ := s.Anchor(name)
			fmt.Fprintf(w, "  %-24s %s\n", name, a)
		}
	}

	if bookmarks := s.Bookmarks(); len(bookmarks) > 0 {
		fmt.Fprintf(w, "\nbookmarks:\n")
		showBookmarks(w, bookmarks, 1)
	}

	if *srcFlag && doc.HasSourceSpecials {
		fmt.Fprintf(w, "\nsource specials:\n")
		for _, sa := range s.SourceAnchors() {
			fmt.Fprintf(w, "  %s:%d  %s\n", sa.File, sa.Line, sa.Position)
		}
	}

	if warnings := s.Warnings(); len(warnings) > 0 {
		fmt.Fprintf(w, "\nwarnings:\n")
		for _, warning := range warnings {
			fmt.Fprintf(w, "  %s\n", warning)
		}
	}
	return nil
}

// formatCounts shows the TeX page counters, omitting trailing zeros.
func formatCounts(counts [10]int32) string {
	n := len(counts)
	for n > 1 && counts[n-1] == 0 {
		n--
	}
	parts := make([]string, n)
	for i, c := range counts[:n] {
		parts[i] = fmt.Sprint(c)
	}
	return strings.Join(parts, ".")
}

func showBookmarks(w io.Writer, bookmarks []*anchor.Bookmark, level int) {
	for _, b := range bookmarks {
		fmt.Fprintf(w, "%s%s  (%s)\n", strings.Repeat("  ", level), b.Title, b.Position)
		showBookmarks(w, b.Children, level+1)
	}
}
