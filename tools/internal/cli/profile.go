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

package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

// Profiler holds the values of the -cpuprofile and -memprofile flags.
type Profiler struct {
	CPUFile string
	MemFile string
}

// ProfileFlags registers the profiling flags on fs.
func ProfileFlags(fs *flag.FlagSet) *Profiler {
	p := &Profiler{}
	fs.StringVar(&p.CPUFile, "cpuprofile", "", "write cpu profile to `file`")
	fs.StringVar(&p.MemFile, "memprofile", "", "write memory profile to `file`")
	return p
}

// Start begins CPU profiling, if requested.  The returned function must be
// called once the work to be profiled is done.  It stops CPU profiling and
// writes the heap profile.
func (p *Profiler) Start() (stop func() error, err error) {
	var cpu *os.File
	if p.CPUFile != "" {
		cpu, err = os.Create(p.CPUFile)
		if err != nil {
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		err = pprof.StartCPUProfile(cpu)
		if err != nil {
			cpu.Close()
			os.Remove(p.CPUFile)
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
	}

	stopped := false
	stop = func() error {
		if stopped {
			return nil
		}
		stopped = true

		var errs []error
		if cpu != nil {
			pprof.StopCPUProfile()
			if err := cpu.Close(); err != nil {
				errs = append(errs, fmt.Errorf("cpu profile: %w", err))
			}
		}
		if p.MemFile != "" {
			if err := writeHeapProfile(p.MemFile); err != nil {
				errs = append(errs, fmt.Errorf("memory profile: %w", err))
			}
		}
		return errors.Join(errs...)
	}
	return stop, nil
}

func writeHeapProfile(fname string) error {
	fd, err := os.Create(fname)
	if err != nil {
		return err
	}
	runtime.GC()
	err = pprof.Lookup("allocs").WriteTo(fd, 0)
	if err2 := fd.Close(); err == nil {
		err = err2
	}
	return err
}
