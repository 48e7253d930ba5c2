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

package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// State is the state of an export job.
type State int

// These are the states of a job.  A job moves through them in order, and
// ends in either Finished or Aborted.
const (
	Idle State = iota
	Preparing
	Running
	Finished
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Preparing:
		return "preparing"
	case Running:
		return "running"
	case Finished:
		return "finished"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Job is a single run of an external converter.
type Job struct {
	ID         int
	Format     string // "pdf" or "ps"
	OutputFile string

	// TotalSteps is the number of pages of the document.  Converters
	// report one step per page.
	TotalSteps int

	mu       sync.Mutex
	state    State
	log      bytes.Buffer
	steps    int
	detached bool
	err      error
	done     chan struct{}
	cancel   context.CancelFunc

	tmpFiles []string     // removed when the job ends
	after    func() error // run after a successful conversion
	onDone   func(*Job)
}

func newJob(id int, format, output string, totalSteps int) *Job {
	return &Job{
		ID:         id,
		Format:     format,
		OutputFile: output,
		TotalSteps: totalSteps,
		done:       make(chan struct{}),
	}
}

// State returns the current state of the job.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Err returns the result of a job which has ended.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Output returns the output of the converter received so far.
func (j *Job) Output() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.log.String()
}

// Progress returns the number of pages processed so far, and the total
// number of pages.
func (j *Job) Progress() (int, int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return min(j.steps, j.TotalSteps), j.TotalSteps
}

// Done returns a channel which is closed when the job has ended.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job has ended, and returns its result.  If ctx
// is cancelled first, ctx.Err() is returned and the job keeps running.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return j.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Abort stops the job.  A running converter is killed, and temporary
// files are removed.  Aborting a job which has already ended has no
// effect.
func (j *Job) Abort() {
	j.mu.Lock()
	if j.state == Finished || j.state == Aborted {
		j.mu.Unlock()
		return
	}
	prev := j.state
	j.state = Aborted
	j.err = ErrAborted
	cancel := j.cancel
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if prev != Running {
		// No process is waiting, so nobody else cleans up.
		j.cleanup()
		close(j.done)
	}
}

// Write receives the output of the converter.  Output of detached jobs is
// discarded.
func (j *Job) Write(p []byte) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.detached {
		j.log.Write(p)
		j.steps += bytes.Count(p, []byte("["))
	}
	return len(p), nil
}

// detach stops recording the output of the job.
func (j *Job) detach() {
	j.mu.Lock()
	j.detached = true
	j.mu.Unlock()
}

func (j *Job) setState(s State) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == Aborted {
		return false
	}
	j.state = s
	return true
}

func (j *Job) cleanup() {
	j.mu.Lock()
	files := j.tmpFiles
	j.tmpFiles = nil
	j.mu.Unlock()
	for _, fname := range files {
		os.Remove(fname)
	}
}

// fail ends a job which never started its converter.
func (j *Job) fail(err error) {
	j.mu.Lock()
	if j.state == Aborted {
		j.mu.Unlock()
		j.cleanup()
		return
	}
	j.state = Finished
	j.err = err
	j.mu.Unlock()

	j.cleanup()
	close(j.done)
}

// start runs the converter in the background.
func (j *Job) start(ctx context.Context, prog, dir string, args []string) error {
	ctx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(ctx, prog, args...)
	cmd.Dir = dir
	cmd.Stdout = j
	cmd.Stderr = j
	cmd.WaitDelay = time.Second

	j.mu.Lock()
	if j.state == Aborted {
		j.mu.Unlock()
		cancel()
		j.cleanup()
		return ErrAborted
	}
	j.state = Running
	j.cancel = cancel
	j.mu.Unlock()

	if err := cmd.Start(); err != nil {
		cancel()
		perr := processError(prog, "", err)
		j.mu.Lock()
		j.state = Finished
		j.err = perr
		j.mu.Unlock()
		j.cleanup()
		close(j.done)
		return perr
	}

	go j.wait(cmd, prog, cancel)
	return nil
}

func (j *Job) wait(cmd *exec.Cmd, prog string, cancel context.CancelFunc) {
	err := cmd.Wait()
	defer cancel()

	j.mu.Lock()
	aborted := j.state == Aborted
	j.mu.Unlock()
	if aborted {
		j.cleanup()
		close(j.done)
		return
	}

	if err != nil {
		err = processError(prog, strings.TrimSpace(j.Output()), err)
	} else if j.after != nil {
		err = j.after()
	}

	j.mu.Lock()
	j.state = Finished
	j.err = err
	onDone := j.onDone
	j.mu.Unlock()

	j.cleanup()
	if onDone != nil {
		onDone(j)
	}
	close(j.done)
}
