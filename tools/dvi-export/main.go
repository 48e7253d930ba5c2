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
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"seehuhn.de/go/dvi/export"
	"seehuhn.de/go/dvi/render"
	"seehuhn.de/go/dvi/tools/internal/cli"
)

var (
	formatFlag  = flag.String("format", "pdf", "output format, `pdf or ps`")
	outFlag     = flag.String("o", "", "output `file` (default: input file with new extension)")
	pagesFlag   = flag.String("pp", "", "page `ranges` for PostScript output, e.g. 1-3,7")
	printFlag   = flag.String("print", "", "send PostScript output to `printer` instead of a file")
	embedFlag   = flag.Bool("embed", false, "embed included PostScript files and save the DVI file")
	verboseFlag = flag.Bool("v", false, "show the output of the converter")

	build    = cli.ReadBuild("dvi-export")
	profiler = cli.ProfileFlags(flag.CommandLine)
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "dvi-export - convert DVI files to PDF or PostScript\n")
		fmt.Fprintf(os.Stderr, "%s\n\n", build)
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  dvi-export [options] <file.dvi>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  dvi-export -o thesis.pdf thesis.dvi\n")
		fmt.Fprintf(os.Stderr, "  dvi-export -format ps -pp 2-5 thesis.dvi\n")
		fmt.Fprintf(os.Stderr, "  dvi-export -embed -o standalone.dvi thesis.dvi\n")
	}
	cli.VersionFlag(flag.CommandLine, build)
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(fname string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stopProfile, err := profiler.Start()
	if err != nil {
		return err
	}
	defer func() {
		if err := stopProfile(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}()

	level := slog.LevelWarn
	if *verboseFlag {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	s := render.NewSession(&render.Options{Logger: logger})
	defer s.Close()
	err = s.Load(ctx, fname)
	if err != nil {
		return err
	}

	if *embedFlag {
		return embed(ctx, s, fname)
	}

	exportOpt := &export.Options{Logger: logger}
	if *printFlag != "" {
		exportOpt.Printer = &export.LPR{Queue: *printFlag}
	}
	c := export.New(s, exportOpt)

	var job *export.Job
	switch *formatFlag {
	case "pdf":
		job, err = c.ExportPDF(ctx, outputName(fname, ".pdf"))
	case "ps":
		opt := &export.PSOptions{}
		if *pagesFlag != "" {
			opt.Args = append(opt.Args, "-pp", *pagesFlag)
		}
		out := ""
		if *printFlag != "" {
			opt.Print = true
		} else {
			out = outputName(fname, ".ps")
		}
		job, err = c.ExportPS(ctx, out, opt)
	default:
		return fmt.Errorf("unknown output format %q", *formatFlag)
	}
	if err != nil {
		return err
	}

	return follow(ctx, job)
}

// follow shows the progress of a job until it ends.
func follow(ctx context.Context, job *export.Job) error {
	progress := cli.NewProgress(fmt.Sprintf("%s %s", job.Format, filepath.Base(job.OutputFile)))
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-job.Done():
			err := job.Err()
			var perr *export.ProcessError
			switch {
			case errors.As(err, &perr) && perr.Output != "":
				progress.Finish("failed")
				fmt.Fprintln(os.Stderr, perr.Output)
			case err != nil:
				progress.Finish("failed")
			case *printFlag != "":
				progress.Finish("sent to printer " + *printFlag)
			default:
				progress.Finish("wrote " + job.OutputFile)
			}
			if *verboseFlag && err == nil {
				fmt.Fprint(os.Stderr, job.Output())
			}
			return err
		case <-ctx.Done():
			job.Abort()
			<-job.Done()
			progress.Finish("interrupted")
			return job.Err()
		case <-ticker.C:
			progress.Update(job.Progress())
		}
	}
}

// embed includes all PostScript graphics into the DVI file.
func embed(ctx context.Context, s *render.Session, fname string) error {
	n, warnings, err := s.EmbedPostScript(ctx)
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, w)
	}
	if err != nil {
		return err
	}

	out := *outFlag
	if out == "" {
		out = fname
	}
	if n == 0 && out == fname {
		fmt.Fprintln(os.Stderr, "no PostScript files to embed")
		return nil
	}
	err = s.Document().SaveAs(out)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "embedded %d files, wrote %s\n", n, out)
	return nil
}

func outputName(fname, ext string) string {
	if *outFlag != "" {
		return *outFlag
	}
	return strings.TrimSuffix(fname, filepath.Ext(fname)) + ext
}
