package version

import (
	"fmt"
	"runtime/debug"
)

// These variables are populated at build time via -ldflags. When they are
// not, Commit falls back to the VCS revision stamped by the Go toolchain.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

func revision() string {
	if Commit != "" {
		return Commit
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return ""
}

func String() string {
	base := Version
	if c := revision(); c != "" {
		base += fmt.Sprintf(" (%s)", c)
	}
	if Date != "" {
		base += fmt.Sprintf(" %s", Date)
	}
	return base
}
