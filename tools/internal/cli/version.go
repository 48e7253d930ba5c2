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

// Package cli contains helpers shared by the command line tools.
package cli

import (
	"flag"
	"fmt"
	"os"
	"runtime/debug"
)

// Build describes the binary of a command line tool.
type Build struct {
	Tool     string
	Module   string
	Version  string // module version, empty for development builds
	Revision string // abbreviated VCS revision
	Modified bool   // the working tree had local changes
}

// ReadBuild returns the build information of the running binary.
func ReadBuild(tool string) Build {
	info, _ := debug.ReadBuildInfo()
	return buildFrom(tool, info)
}

func buildFrom(tool string, info *debug.BuildInfo) Build {
	b := Build{Tool: tool}
	if info == nil {
		return b
	}
	b.Module = info.Main.Path
	if v := info.Main.Version; v != "" && v != "(devel)" {
		b.Version = v
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			b.Revision = s.Value[:min(len(s.Value), 8)]
		case "vcs.modified":
			b.Modified = s.Value == "true"
		}
	}
	return b
}

// release returns the module version, or the VCS revision for development
// builds.
func (b Build) release() string {
	if b.Version != "" {
		return b.Version
	}
	if b.Revision == "" {
		return ""
	}
	if b.Modified {
		return b.Revision + "+dirty"
	}
	return b.Revision
}

// String returns a short description like
// "dvi-info (seehuhn.de/go/dvi v0.1.0)".
func (b Build) String() string {
	r := b.release()
	if b.Module == "" || r == "" {
		return b.Tool
	}
	return b.Tool + " (" + b.Module + " " + r + ")"
}

// DVIComment returns a preamble comment for DVI files written by the tool.
// The leading space follows the convention of TeX's own comments.
func (b Build) DVIComment() string {
	c := " " + b.Tool
	if r := b.release(); r != "" {
		c += " " + r
	}
	return c
}

// VersionFlag registers a -version flag on fs, which prints the build
// description and exits.
func VersionFlag(fs *flag.FlagSet, b Build) {
	fs.BoolFunc("version", "print version information and exit", func(string) error {
		fmt.Println(b)
		os.Exit(0)
		return nil
	})
}
