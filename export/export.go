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

// Package export converts DVI documents to PDF and PostScript, using the
// external programs dvipdfm and dvips.
//
// A Coordinator runs one conversion at a time for a document.  Each
// conversion is represented by a Job, which moves through the states
// Idle, Preparing, Running and finally Finished or Aborted.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"seehuhn.de/go/dvi/render"
)

// The external converters.
var (
	PDFConverter = "dvipdfm"
	PSConverter  = "dvips"
)

// Options configure a Coordinator.  The zero value gives useful defaults.
type Options struct {
	// Logger receives progress messages.
	Logger *slog.Logger

	// Printer is used by ExportPS if printing is requested.  If this is
	// nil, the default printer is used via lpr.
	Printer Printer

	// TempDir is the directory for temporary files.  If this is empty,
	// os.TempDir() is used.
	TempDir string

	// LookPath finds the converter programs.  If this is nil,
	// exec.LookPath is used.
	LookPath func(string) (string, error)

	// Done, if set, is called when a converter has finished, before Wait
	// returns.  It is not called for aborted jobs.
	Done func(*Job)
}

// PSOptions control a conversion to PostScript.
type PSOptions struct {
	// Args are extra dvips arguments, for example "-pp 2-4".  Page
	// numbers in these arguments refer to the position of a page in the
	// document, starting from 1, rather than to TeX's page numbers.
	Args []string

	// Print sends the result to the printer, and then removes it.
	Print bool
}

// Coordinator runs the export jobs for one document.
type Coordinator struct {
	s   *render.Session
	opt Options

	mu      sync.Mutex
	nextID  int
	jobs    map[int]*Job
	current *Job
}

// New returns a Coordinator for the document loaded into s.
func New(s *render.Session, opt *Options) *Coordinator {
	c := &Coordinator{
		s:    s,
		jobs: make(map[int]*Job),
	}
	if opt != nil {
		c.opt = *opt
	}
	if c.opt.Logger == nil {
		c.opt.Logger = slog.New(slog.DiscardHandler)
	}
	if c.opt.Printer == nil {
		c.opt.Printer = &LPR{}
	}
	if c.opt.LookPath == nil {
		c.opt.LookPath = exec.LookPath
	}
	return c
}

// Job returns the job with the given ID.
func (c *Coordinator) Job(id int) (*Job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	j, ok := c.jobs[id]
	return j, ok
}

// Current returns the most recently started job, or nil.
func (c *Coordinator) Current() *Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Abort aborts the most recently started job.
func (c *Coordinator) Abort() {
	if j := c.Current(); j != nil {
		j.Abort()
	}
}

// newJob registers a new job.  The output of a still running previous job
// is detached, but the job itself keeps running.
func (c *Coordinator) newJob(format, output string, totalSteps int) (*Job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev := c.current; prev != nil {
		switch prev.State() {
		case Idle, Preparing:
			return nil, ErrBusy
		case Running:
			prev.detach()
		}
	}

	c.nextID++
	j := newJob(c.nextID, format, output, totalSteps)
	j.onDone = c.opt.Done
	c.jobs[j.ID] = j
	c.current = j
	return j, nil
}

func (c *Coordinator) findConverter(name string) (string, error) {
	path, err := c.opt.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, ErrConverterNotFound)
	}
	return path, nil
}

// ExportPDF converts the document to PDF.  The conversion runs in the
// background; use the returned Job to wait for the result.
func (c *Coordinator) ExportPDF(ctx context.Context, output string) (*Job, error) {
	doc := c.s.Document()
	if doc == nil {
		return nil, render.ErrNoDocument
	}
	prog, err := c.findConverter(PDFConverter)
	if err != nil {
		return nil, err
	}
	output, err = filepath.Abs(output)
	if err != nil {
		return nil, err
	}

	j, err := c.newJob("pdf", output, doc.TotalPages())
	if err != nil {
		return nil, err
	}
	args := []string{"-o", output, doc.FileName}
	c.opt.Logger.Info("exporting to PDF", "job", j.ID, "file", doc.FileName, "output", output)
	return j, j.start(ctx, prog, filepath.Dir(doc.FileName), args)
}

// ExportPS converts the document to PostScript.  The conversion runs in
// the background; use the returned Job to wait for the result.
//
// If opt.Print is set, output may be empty.  In this case a temporary
// file is used.
func (c *Coordinator) ExportPS(ctx context.Context, output string, opt *PSOptions) (*Job, error) {
	if opt == nil {
		opt = &PSOptions{}
	}
	doc := c.s.Document()
	if doc == nil {
		return nil, render.ErrNoDocument
	}
	if doc.NumberOfExternalNonPSFiles != 0 {
		return nil, ErrNonPostScriptGraphics
	}
	prog, err := c.findConverter(PSConverter)
	if err != nil {
		return nil, err
	}

	var tmpFiles []string
	if output == "" {
		if !opt.Print {
			return nil, fmt.Errorf("%s: no output file", PSConverter)
		}
		output, err = c.tempName("dvi-print-*.ps")
		if err != nil {
			return nil, err
		}
		tmpFiles = append(tmpFiles, output)
	} else if output, err = filepath.Abs(output); err != nil {
		return nil, err
	}

	j, err := c.newJob("ps", output, doc.TotalPages())
	if err != nil {
		for _, fname := range tmpFiles {
			os.Remove(fname)
		}
		return nil, err
	}
	j.tmpFiles = tmpFiles

	source := doc.FileName
	if len(opt.Args) > 0 || doc.SuggestedPageSize != nil {
		if !j.setState(Preparing) {
			return j, ErrAborted
		}
		source, err = c.prepare(j, doc.SuggestedPageSize != nil)
		if err != nil {
			j.fail(err)
			return j, err
		}
	}
	if ctx.Err() != nil {
		j.Abort()
	}

	var args []string
	if !opt.Print {
		args = append(args, "-z") // keep hyperlinks
	}
	args = append(args, opt.Args...)
	args = append(args, source, "-o", output)

	if opt.Print {
		printer := c.opt.Printer
		j.after = func() error {
			c.opt.Logger.Info("printing", "job", j.ID, "file", output)
			err := printer.Print(context.WithoutCancel(ctx), output)
			os.Remove(output)
			return err
		}
	}

	c.opt.Logger.Info("exporting to PostScript", "job", j.ID, "file", doc.FileName, "output", output)
	return j, j.start(ctx, prog, filepath.Dir(doc.FileName), args)
}

// prepare writes a copy of the document for dvips.  In the copy, pages
// are numbered sequentially, so that page ranges given to dvips are
// unambiguous, and papersize specials are removed, since dvips otherwise
// ignores the paper size given on the command line.
func (c *Coordinator) prepare(j *Job, stripPapersize bool) (string, error) {
	doc, err := c.s.ScratchCopy()
	if err != nil {
		return "", err
	}
	doc.Renumber()
	if stripPapersize {
		n, err := render.StripPapersize(doc)
		if err != nil {
			return "", err
		}
		c.opt.Logger.Debug("removed papersize specials", "job", j.ID, "count", n)
	}

	fname, err := c.tempName("dvi-export-*.dvi")
	if err != nil {
		return "", err
	}
	j.mu.Lock()
	j.tmpFiles = append(j.tmpFiles, fname)
	j.mu.Unlock()

	err = doc.SaveAs(fname)
	if err != nil {
		return "", fmt.Errorf("writing temporary file: %w", err)
	}
	return fname, nil
}

// tempName reserves a name for a temporary file.
func (c *Coordinator) tempName(pattern string) (string, error) {
	fd, err := os.CreateTemp(c.opt.TempDir, pattern)
	if err != nil {
		return "", err
	}
	name := fd.Name()
	fd.Close()
	return name, nil
}
